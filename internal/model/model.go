package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Dataset{},
	&RasterRow{},
}

// Dataset is the header of a stored elevation raster.
type Dataset struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
	Name       string    `json:"name" gorm:"size:128;uniqueIndex"`
	EPSG       int       `json:"epsg" gorm:"column:epsg"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	OriginX    float64   `json:"originX"`
	OriginY    float64   `json:"originY"`
	Resolution float64   `json:"resolution"`

	Rows []RasterRow `json:"-" gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE;"`
}

func (*Dataset) TableName() string {
	return "datasets"
}

// RasterRow holds one row of elevations, top row first. Undefined cells are
// stored as JSON null.
type RasterRow struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	DatasetID uint           `json:"datasetId" gorm:"uniqueIndex:idx_dataset_row"`
	Row       int            `json:"row" gorm:"column:row_index;uniqueIndex:idx_dataset_row"`
	Values    datatypes.JSON `json:"values" gorm:"column:elevations"`
}

func (*RasterRow) TableName() string {
	return "raster_rows"
}

// EncodeRow converts elevations to the JSON stored in RasterRow.Values.
// NaN becomes null.
func EncodeRow(values []float64) (datatypes.JSON, error) {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("error encoding raster row: %w", err)
	}
	return datatypes.JSON(b), nil
}

// DecodeRow reverses EncodeRow and checks the row width.
func DecodeRow(data datatypes.JSON, width int) ([]float64, error) {
	var in []*float64
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("error decoding raster row: %w", err)
	}
	if len(in) != width {
		return nil, fmt.Errorf("raster row has %d values, expected %d", len(in), width)
	}
	out := make([]float64, width)
	for i, v := range in {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out, nil
}
