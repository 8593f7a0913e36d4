// Package analytics computes grouped means and summary statistics over
// filtered rental views.
//
// Every function here is pure: it reads the rows it is given and returns
// new values. Grouped means only report categories that were observed, in
// code order, so an empty view yields empty results rather than zeros.
//
// # Aggregations
//
//   - SeasonMeans, WeatherMeans, WeekdayMeans, MonthMeans over daily rows
//   - HourMeans and HourWeekdayMeans over hourly rows
//   - WeatherShare for the weather pie
//
// # Statistics
//
//   - Describe: count, mean, sample std, quartiles and extremes per column
//   - Regress: count on temperature with R²
//   - Quartiles: box plot summary
package analytics
