// Package dataset holds the bike rental source tables and their loaders.
//
// Two flat files feed the dashboard: a daily table (one row per calendar
// date) and an hourly table (one row per date and hour). Both are read
// through gota dataframes with explicit column types and converted into
// typed records whose categorical columns are enums with fixed display
// labels:
//
//   - Season:  1 Spring, 2 Summer, 3 Fall, 4 Winter
//   - Weather: 1 Cerah, 2 Mendung, 3 Hujan
//   - Weekday: 0 Minggu .. 6 Sabtu
//   - Month:   1 Jan .. 12 Des
//
// # Files
//
//   - types.go: enums, records, Tables and Preview
//   - loader.go: CSV decoding and concurrent loading of both files
//   - validate.go: per-record domain checks
//
// A Tables value is immutable once built. Callers that need fresh data load
// a new value and swap it in; nothing in this package keeps global state.
package dataset
