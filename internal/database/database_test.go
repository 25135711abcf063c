package database

import (
	"path/filepath"
	"testing"

	"github.com/OCAP2/terrain/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_File(t *testing.T) {
	m := NewManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "terrain.db")

	require.NoError(t, m.OpenSQLite(path))
	t.Cleanup(func() { _ = m.Close() })
	require.NotNil(t, m.DB)
	assert.FileExists(t, path)

	require.NoError(t, m.Migrate())
	assert.True(t, m.DB.Migrator().HasTable(&model.Dataset{}))
	assert.True(t, m.DB.Migrator().HasTable(&model.RasterRow{}))
}

func TestOpenSQLite_InMemory(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.OpenSQLite(""))
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Migrate())
	require.NoError(t, m.DB.Create(&model.Dataset{Name: "a", Width: 1, Height: 1, Resolution: 1}).Error)

	var count int64
	require.NoError(t, m.DB.Model(&model.Dataset{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMigrate_NotConnected(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.Error(t, m.Migrate())
	assert.NoError(t, m.Close())
}
