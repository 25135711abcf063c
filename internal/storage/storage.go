// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/OCAP2/terrain/internal/grid"
)

// ErrDatasetNotFound is returned when a source has no dataset of that name.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset is a named elevation raster and the EPSG code of its planar
// coordinates.
type Dataset struct {
	Name string
	EPSG int
	Grid *grid.Grid
}

// Source is the interface all dataset stores must satisfy
type Source interface {
	// Lifecycle
	Init() error
	Close() error

	LoadDataset(name string) (*Dataset, error)
	// ListDatasets returns dataset names in ascending order.
	ListDatasets() ([]string, error)
}

// Importer is an optional interface for sources that can persist datasets.
type Importer interface {
	SaveDataset(d *Dataset) error
}
