// Package shared holds helpers used across the dashboard packages that
// belong to no single layer.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//	- a buffered slog handler for asserting on log output
//	- builders for daily and hourly rental records
//	- access to the sample day.csv and hour.csv files
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    tables := testutil.LoadSampleTables(t)
//	    ...
//	    assert.True(t, logs.ContainsMessage("report built"))
//	}
//
// Nothing here may import a package that itself depends on shared.
package shared
