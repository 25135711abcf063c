package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Dataset", &Dataset{}, "datasets"},
		{"RasterRow", &RasterRow{}, "raster_rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModels(t *testing.T) {
	assert.Len(t, DatabaseModels, 2)
}

func TestEncodeRow_NaNBecomesNull(t *testing.T) {
	data, err := EncodeRow([]float64{1.5, math.NaN(), -3})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, -3]`, string(data))
}

func TestDecodeRow(t *testing.T) {
	values, err := DecodeRow(datatypes.JSON(`[1.5, null, -3]`), 3)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, 1.5, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.Equal(t, -3.0, values[2])
}

func TestDecodeRow_Errors(t *testing.T) {
	_, err := DecodeRow(datatypes.JSON(`[1, 2]`), 3)
	assert.ErrorContains(t, err, "expected 3")

	_, err = DecodeRow(datatypes.JSON(`not json`), 1)
	assert.ErrorContains(t, err, "error decoding raster row")
}
