package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"bikeshare/internal/report"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to w
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeReportCSV writes the filtered daily view of r
func writeReportCSV(w io.Writer, r *report.Report, bom bool) error {
	records := make([][]string, 0, len(r.Daily))
	for _, row := range r.Daily {
		records = append(records, recordValues(row))
	}
	return WriteCSV(w, WriteOptions{
		Headers:   recordHeaders,
		Records:   records,
		BOMPrefix: bom,
	})
}
