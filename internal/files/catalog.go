package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bikeshare/internal/exporter"
)

var (
	// ErrNotFound is returned for names that are absent or not listed
	ErrNotFound = errors.New("export file not found")
	// ErrInvalidName is returned for names that would leave the directory
	ErrInvalidName = errors.New("invalid export file name")
)

// FileInfo describes one export file
type FileInfo struct {
	Name    string          `json:"name"`
	Format  exporter.Format `json:"format"`
	Size    int64           `json:"size"`
	ModTime time.Time       `json:"modified_at"`
}

// Catalog reads one exports directory
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over dir
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Dir returns the catalogued directory
func (c *Catalog) Dir() string {
	return c.dir
}

// List returns the export files, newest first. A missing directory is an
// empty list.
func (c *Catalog) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", c.dir, err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		format, ok := formatOf(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, FileInfo{
			Name:    entry.Name(),
			Format:  format,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Latest returns the newest file of format f
func (c *Catalog) Latest(f exporter.Format) (FileInfo, bool, error) {
	list, err := c.List()
	if err != nil {
		return FileInfo{}, false, err
	}
	for _, info := range list {
		if info.Format == f {
			return info, true, nil
		}
	}
	return FileInfo{}, false, nil
}

// Open opens a listed file for reading. The caller closes it.
func (c *Catalog) Open(name string) (*os.File, FileInfo, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return nil, FileInfo{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	format, ok := formatOf(name)
	if !ok {
		return nil, FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	f, err := os.Open(filepath.Join(c.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, FileInfo{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, FileInfo{}, err
	}
	if !st.Mode().IsRegular() {
		f.Close()
		return nil, FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, FileInfo{Name: name, Format: format, Size: st.Size(), ModTime: st.ModTime()}, nil
}

// formatOf maps a visible file name to its export format
func formatOf(name string) (exporter.Format, bool) {
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	f, err := exporter.ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}
