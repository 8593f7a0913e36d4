// Package files lists and serves the export files written into the exports
// directory, whether by the scheduler, bikectl or the HTTP export endpoint
// with a file target.
//
// Only regular files whose extension names a supported export format are
// visible. Hidden names, which include the exporter's in-progress temporary
// files, are skipped.
//
//	catalog := files.NewCatalog(paths.ExportsDir)
//	list, err := catalog.List()
//	f, info, err := catalog.Open("penyewaan_2011-01-01_2012-12-31.csv")
package files
