// Package exporter writes dashboard reports to downloadable files.
//
// Three formats are supported:
//
// CSV: the filtered daily view with the source column names, optionally
// prefixed with a UTF-8 BOM so Excel detects the encoding.
//
// XLSX: a workbook with an Info sheet, the filtered daily view and one sheet
// per aggregate (statistics, season, weather, weekday, month, hour, the
// hour × weekday heatmap and the cluster centroids).
//
// Parquet: the filtered daily view as a single row group, Snappy compressed
// by default.
//
// Example usage:
//
//	opts, err := exporter.DecodeOptions(map[string]interface{}{
//		"format": "csv",
//		"bom":    "true",
//	})
//	exp := exporter.New(paths, logger)
//	n, err := exp.Write(ctx, w, rep, opts)
//
//	// or into the exports directory
//	path, n, err := exp.WriteFile(ctx, rep, opts)
package exporter
