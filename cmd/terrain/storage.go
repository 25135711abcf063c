package main

import (
	"fmt"

	"github.com/OCAP2/terrain/internal/config"
	"github.com/OCAP2/terrain/internal/database"
	"github.com/OCAP2/terrain/internal/grid"
	"github.com/OCAP2/terrain/internal/storage"
	filestorage "github.com/OCAP2/terrain/internal/storage/file"
	gormstorage "github.com/OCAP2/terrain/internal/storage/gorm"
	"github.com/OCAP2/terrain/internal/storage/memory"
	"github.com/rs/zerolog"
)

func initStorage(zl zerolog.Logger) (storage.Source, error) {
	storageCfg := config.GetStorageConfig()

	src, err := createStorageSource(storageCfg, config.GetDatasetConfig(), zl)
	if err != nil {
		Logger.Error("Failed to create dataset source", "error", err)
		return nil, err
	}
	if err := src.Init(); err != nil {
		Logger.Error("Failed to initialize dataset source", "error", err)
		_ = src.Close()
		return nil, err
	}
	Logger.Debug("Dataset source ready", "type", storageCfg.Type)
	return src, nil
}

func gridOptions(dc config.DatasetConfig) []grid.Option {
	if !dc.BlockEnabled {
		return nil
	}
	return []grid.Option{grid.BlockAtOrBelow(dc.BlockAtOrBelow)}
}

func createStorageSource(storageCfg config.StorageConfig, dc config.DatasetConfig, zl zerolog.Logger) (storage.Source, error) {
	switch storageCfg.Type {
	case "postgres":
		m := database.NewManager(zl)
		if err := m.OpenPostgres(config.GetDBConfig()); err != nil {
			return nil, err
		}
		Logger.Info("Postgres dataset source initialized")
		return gormstorage.New(gormstorage.Dependencies{
			DB:          m.DB,
			Logger:      Logger,
			GridOptions: gridOptions(dc),
		}), nil

	case "sqlite":
		m := database.NewManager(zl)
		if err := m.OpenSQLite(storageCfg.SQLite.Path); err != nil {
			return nil, fmt.Errorf("failed to create SQLite source: %w", err)
		}
		Logger.Info("SQLite dataset source initialized", "path", storageCfg.SQLite.Path)
		return gormstorage.New(gormstorage.Dependencies{
			DB:          m.DB,
			Logger:      Logger,
			GridOptions: gridOptions(dc),
		}), nil

	case "memory":
		Logger.Info("Memory dataset source initialized")
		return memory.New(), nil

	case "file", "":
		Logger.Info("File dataset source initialized", "dir", dc.Dir)
		return filestorage.New(filestorage.Config{
			Dir:         dc.Dir,
			EPSG:        dc.EPSG,
			GridOptions: gridOptions(dc),
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageCfg.Type)
	}
}
