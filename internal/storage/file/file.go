// Package filestorage serves datasets from a directory of ESRI ASCII grids.
// Each <name>.asc file is one dataset; all of them share the configured EPSG.
package filestorage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/internal/storage"
)

// Ext is the file extension of dataset files.
const Ext = ".asc"

// noData marks undefined cells in written files.
const noData = -9999

// Config holds configuration for the file source.
type Config struct {
	Dir         string
	EPSG        int
	GridOptions []grid.Option
}

// Source implements storage.Source over a directory.
type Source struct {
	cfg Config
}

// New creates a file source. Init checks the directory.
func New(cfg Config) *Source {
	return &Source{cfg: cfg}
}

// Init creates the dataset directory if it is missing.
func (s *Source) Init() error {
	if s.cfg.Dir == "" {
		return fmt.Errorf("dataset directory not set")
	}
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *Source) Close() error {
	return nil
}

func (s *Source) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid dataset name %q", name)
	}
	return filepath.Join(s.cfg.Dir, name+Ext), nil
}

// LoadDataset parses <dir>/<name>.asc.
func (s *Source) LoadDataset(name string) (*storage.Dataset, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset %q: %w", name, storage.ErrDatasetNotFound)
		}
		return nil, fmt.Errorf("failed to open dataset %q: %w", name, err)
	}
	defer f.Close()

	g, err := grid.ReadESRIASCII(f, s.cfg.GridOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %q: %w", name, err)
	}
	return &storage.Dataset{Name: name, EPSG: s.cfg.EPSG, Grid: g}, nil
}

// ListDatasets returns the names of all .asc files in the directory.
func (s *Source) ListDatasets() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}

// SaveDataset writes d as <dir>/<name>.asc. The directory has a single EPSG,
// so datasets in any other system are rejected.
func (s *Source) SaveDataset(d *storage.Dataset) error {
	if d == nil || d.Grid == nil {
		return fmt.Errorf("dataset needs a grid")
	}
	if d.EPSG != s.cfg.EPSG {
		return fmt.Errorf("dataset %q is EPSG:%d, directory holds EPSG:%d", d.Name, d.EPSG, s.cfg.EPSG)
	}
	p, err := s.path(d.Name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.cfg.Dir, "."+d.Name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := grid.WriteESRIASCII(tmp, d.Grid, noData); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write dataset %q: %w", d.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write dataset %q: %w", d.Name, err)
	}
	return os.Rename(tmp.Name(), p)
}
