package exporter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"bikeshare/internal/dataset"
	"bikeshare/internal/report"
)

// parquetRow is the Parquet schema of one daily record
type parquetRow struct {
	Date       string  `parquet:"name=dteday, type=BYTE_ARRAY, convertedtype=UTF8"`
	Season     int32   `parquet:"name=season, type=INT32"`
	Year       int32   `parquet:"name=yr, type=INT32"`
	Month      int32   `parquet:"name=mnth, type=INT32"`
	Holiday    bool    `parquet:"name=holiday, type=BOOLEAN"`
	Weekday    int32   `parquet:"name=weekday, type=INT32"`
	WorkingDay bool    `parquet:"name=workingday, type=BOOLEAN"`
	Weather    int32   `parquet:"name=weathersit, type=INT32"`
	Temp       float64 `parquet:"name=temp, type=DOUBLE"`
	ATemp      float64 `parquet:"name=atemp, type=DOUBLE"`
	Humidity   float64 `parquet:"name=hum, type=DOUBLE"`
	Windspeed  float64 `parquet:"name=windspeed, type=DOUBLE"`
	Casual     int32   `parquet:"name=casual, type=INT32"`
	Registered int32   `parquet:"name=registered, type=INT32"`
	Count      int32   `parquet:"name=cnt, type=INT32"`
}

func toParquetRow(r dataset.DailyRecord) parquetRow {
	return parquetRow{
		Date:       r.Date.Format(dataset.DateLayout),
		Season:     int32(r.Season),
		Year:       int32(r.Year),
		Month:      int32(r.Month),
		Holiday:    r.Holiday,
		Weekday:    int32(r.Weekday),
		WorkingDay: r.WorkingDay,
		Weather:    int32(r.Weather),
		Temp:       r.Temp,
		ATemp:      r.ATemp,
		Humidity:   r.Humidity,
		Windspeed:  r.Windspeed,
		Casual:     int32(r.Casual),
		Registered: int32(r.Registered),
		Count:      int32(r.Count),
	}
}

// compressionCodec maps a compression name to its Parquet codec
func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "SNAPPY", "":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", name)
	}
}

// writeReportParquet writes the filtered daily view of r as one row group
func writeReportParquet(ctx context.Context, w io.Writer, r *report.Report, compression string) (err error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return err
	}

	pw, err := writer.NewParquetWriterFromWriter(w, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for i, row := range r.Daily {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := pw.Write(toParquetRow(row)); err != nil {
			return fmt.Errorf("failed to write parquet row %d: %w", i, err)
		}
	}

	// WriteStop can panic on schema mismatches inside the library
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parquet writer panicked: %v", rec)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
