package files

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare/internal/exporter"
)

func writeAged(t *testing.T, dir, name, content string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	mod := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func setupCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()
	writeAged(t, dir, "penyewaan_2011-01-01_2012-12-31.csv", "dteday,cnt\n", 3*time.Hour)
	writeAged(t, dir, "penyewaan_2011-01-01_2011-01-31.csv", "dteday,cnt\n", time.Hour)
	writeAged(t, dir, "penyewaan_2011-01-01_2012-12-31.xlsx", "PK", 2*time.Hour)
	writeAged(t, dir, "penyewaan_2011-01-01_2012-12-31.PARQUET", "PAR1", 4*time.Hour)
	writeAged(t, dir, ".export-123", "partial", 0)
	writeAged(t, dir, "notes.txt", "x", 0)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.csv"), 0755))
	return NewCatalog(dir)
}

func TestCatalog_List(t *testing.T) {
	c := setupCatalog(t)

	list, err := c.List()
	require.NoError(t, err)

	names := make([]string, len(list))
	for i, f := range list {
		names[i] = f.Name
	}
	assert.Equal(t, []string{
		"penyewaan_2011-01-01_2011-01-31.csv",
		"penyewaan_2011-01-01_2012-12-31.xlsx",
		"penyewaan_2011-01-01_2012-12-31.csv",
		"penyewaan_2011-01-01_2012-12-31.PARQUET",
	}, names)
	assert.Equal(t, exporter.FormatParquet, list[3].Format)
	assert.EqualValues(t, 4, list[3].Size)
}

func TestCatalog_List_MissingDir(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "absent"))
	list, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCatalog_Latest(t *testing.T) {
	c := setupCatalog(t)

	tests := []struct {
		format   exporter.Format
		wantName string
		wantOK   bool
	}{
		{format: exporter.FormatCSV, wantName: "penyewaan_2011-01-01_2011-01-31.csv", wantOK: true},
		{format: exporter.FormatXLSX, wantName: "penyewaan_2011-01-01_2012-12-31.xlsx", wantOK: true},
		{format: exporter.Format("json"), wantOK: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			info, ok, err := c.Latest(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, info.Name)
		})
	}
}

func TestCatalog_Open(t *testing.T) {
	c := setupCatalog(t)

	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{name: "listed file", file: "penyewaan_2011-01-01_2012-12-31.csv"},
		{name: "absent", file: "penyewaan_2020-01-01_2020-01-02.csv", wantErr: ErrNotFound},
		{name: "not an export", file: "notes.txt", wantErr: ErrNotFound},
		{name: "temporary file", file: ".export-123", wantErr: ErrNotFound},
		{name: "directory", file: "old.csv", wantErr: ErrNotFound},
		{name: "traversal", file: "../secret.csv", wantErr: ErrInvalidName},
		{name: "parent", file: "..", wantErr: ErrInvalidName},
		{name: "empty", file: "", wantErr: ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, info, err := c.Open(tt.file)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), err)
				return
			}
			require.NoError(t, err)
			defer f.Close()

			data, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, "dteday,cnt\n", string(data))
			assert.Equal(t, exporter.FormatCSV, info.Format)
			assert.EqualValues(t, len(data), info.Size)
		})
	}
}
