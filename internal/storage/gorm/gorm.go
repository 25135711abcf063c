// Package gormstorage implements storage.Source on a GORM database. The
// same code serves SQLite and Postgres; callers open the connection through
// the database package and hand it over.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/internal/model"
	"github.com/OCAP2/terrain/internal/storage"
	"github.com/OCAP2/terrain/pkg/core"
	"gorm.io/gorm"
)

// rowBatchSize bounds the number of raster rows per INSERT.
const rowBatchSize = 500

// Dependencies holds all dependencies for the GORM source.
type Dependencies struct {
	DB          *gorm.DB
	Logger      *slog.Logger
	GridOptions []grid.Option
}

// Source implements storage.Source and storage.Importer.
type Source struct {
	deps Dependencies
	log  *slog.Logger
}

// New creates a new GORM source.
func New(deps Dependencies) *Source {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Source{
		deps: deps,
		log:  log.With("component", "gormstorage"),
	}
}

// Init migrates the dataset tables.
func (s *Source) Init() error {
	if s.deps.DB == nil {
		return fmt.Errorf("database not connected")
	}
	if err := s.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Source) Close() error {
	if s.deps.DB == nil {
		return nil
	}
	sqlDB, err := s.deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadDataset reads the header and all rows of a dataset.
func (s *Source) LoadDataset(name string) (*storage.Dataset, error) {
	var ds model.Dataset
	err := s.deps.DB.Where("name = ?", name).First(&ds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("dataset %q: %w", name, storage.ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %q: %w", name, err)
	}

	var rows []model.RasterRow
	if err := s.deps.DB.Where("dataset_id = ?", ds.ID).Order("row_index").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load rows of %q: %w", name, err)
	}
	if len(rows) != ds.Height {
		return nil, fmt.Errorf("dataset %q has %d rows, expected %d", name, len(rows), ds.Height)
	}

	elevations := make([]float64, 0, ds.Width*ds.Height)
	for i, r := range rows {
		if r.Row != i {
			return nil, fmt.Errorf("dataset %q is missing row %d", name, i)
		}
		values, err := model.DecodeRow(r.Values, ds.Width)
		if err != nil {
			return nil, fmt.Errorf("dataset %q row %d: %w", name, i, err)
		}
		elevations = append(elevations, values...)
	}

	g, err := grid.New(ds.Width, ds.Height, core.PlanarCoord{X: ds.OriginX, Y: ds.OriginY}, ds.Resolution, elevations, s.deps.GridOptions...)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}

	s.log.Debug("dataset loaded", "dataset", name, "width", ds.Width, "height", ds.Height)
	return &storage.Dataset{Name: ds.Name, EPSG: ds.EPSG, Grid: g}, nil
}

// ListDatasets returns all dataset names in ascending order.
func (s *Source) ListDatasets() ([]string, error) {
	var names []string
	if err := s.deps.DB.Model(&model.Dataset{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	return names, nil
}

// SaveDataset stores d, replacing a dataset of the same name, in one
// transaction.
func (s *Source) SaveDataset(d *storage.Dataset) error {
	if d == nil || d.Name == "" || d.Grid == nil {
		return fmt.Errorf("dataset needs a name and a grid")
	}
	g := d.Grid

	rows := make([]model.RasterRow, g.Height())
	for r := range rows {
		values, err := model.EncodeRow(g.Row(r))
		if err != nil {
			return fmt.Errorf("dataset %q row %d: %w", d.Name, r, err)
		}
		rows[r] = model.RasterRow{Row: r, Values: values}
	}

	err := s.deps.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Dataset
		err := tx.Where("name = ?", d.Name).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("dataset_id = ?", existing.ID).Delete(&model.RasterRow{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		ds := model.Dataset{
			Name:       d.Name,
			EPSG:       d.EPSG,
			Width:      g.Width(),
			Height:     g.Height(),
			OriginX:    g.Origin().X,
			OriginY:    g.Origin().Y,
			Resolution: g.Resolution(),
		}
		if err := tx.Create(&ds).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].DatasetID = ds.ID
		}
		return tx.CreateInBatches(rows, rowBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save dataset %q: %w", d.Name, err)
	}

	s.log.Info("dataset saved", "dataset", d.Name, "rows", len(rows))
	return nil
}
