package grid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/OCAP2/terrain/pkg/core"
)

// ErrInvalidRaster is returned when an ESRI ASCII grid cannot be parsed.
var ErrInvalidRaster = errors.New("invalid ESRI ASCII raster")

const (
	// MaxCells bounds the raster size accepted from a header.
	MaxCells = 1 << 31
	// cell storage grows from here as values arrive, not from the header
	initialCells = 1 << 20
)

// ReadESRIASCII parses an ESRI ASCII grid. The first data row is the
// northern edge, matching the grid's top-left row order. Cells equal to
// NODATA_value become undefined.
func ReadESRIASCII(r io.Reader, opts ...Option) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	scanner.Split(bufio.ScanWords)

	header := map[string]float64{}
	var pending string

	// header is a run of "key value" pairs; the first numeric token ends it
	for scanner.Scan() {
		tok := scanner.Text()
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			pending = tok
			break
		}
		key := strings.ToLower(tok)
		if !scanner.Scan() {
			return nil, fmt.Errorf("%w: header %q has no value", ErrInvalidRaster, tok)
		}
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: header %q: %v", ErrInvalidRaster, tok, err)
		}
		header[key] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading raster header: %w", err)
	}

	ncols, okC := header["ncols"]
	nrows, okR := header["nrows"]
	cellsize, okS := header["cellsize"]
	if !okC || !okR || !okS {
		return nil, fmt.Errorf("%w: ncols, nrows and cellsize are required", ErrInvalidRaster)
	}
	width, height := int(ncols), int(nrows)
	if ncols*nrows > MaxCells {
		return nil, fmt.Errorf("%w: %gx%g exceeds %d cells", ErrInvalidRaster, ncols, nrows, MaxCells)
	}
	if float64(width) != ncols || float64(height) != nrows || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: bad dimensions %gx%g", ErrInvalidRaster, ncols, nrows)
	}

	var origin core.PlanarCoord
	switch {
	case hasKey(header, "xllcorner") && hasKey(header, "yllcorner"):
		origin = core.PlanarCoord{X: header["xllcorner"], Y: header["yllcorner"]}
	case hasKey(header, "xllcenter") && hasKey(header, "yllcenter"):
		origin = core.PlanarCoord{X: header["xllcenter"] - cellsize/2, Y: header["yllcenter"] - cellsize/2}
	default:
		return nil, fmt.Errorf("%w: missing lower-left corner or center", ErrInvalidRaster)
	}

	noData, hasNoData := header["nodata_value"]

	elevations := make([]float64, 0, min(width*height, initialCells))
	appendValue := func(tok string) error {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("%w: cell %d: %v", ErrInvalidRaster, len(elevations), err)
		}
		if hasNoData && v == noData {
			v = math.NaN()
		}
		elevations = append(elevations, v)
		return nil
	}

	if pending != "" {
		if err := appendValue(pending); err != nil {
			return nil, err
		}
	}
	for scanner.Scan() {
		if len(elevations) == width*height {
			return nil, fmt.Errorf("%w: more than %d cells", ErrInvalidRaster, width*height)
		}
		if err := appendValue(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading raster data: %w", err)
	}
	if len(elevations) != width*height {
		return nil, fmt.Errorf("%w: expected %d cells, got %d", ErrInvalidRaster, width*height, len(elevations))
	}

	return New(width, height, origin, cellsize, elevations, opts...)
}

// WriteESRIASCII writes g as an ESRI ASCII grid, using noData for
// undefined cells.
func WriteESRIASCII(w io.Writer, g *Grid, noData float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\n", g.width, g.height)
	fmt.Fprintf(bw, "xllcorner %s\nyllcorner %s\n", formatFloat(g.origin.X), formatFloat(g.origin.Y))
	fmt.Fprintf(bw, "cellsize %s\nNODATA_value %s\n", formatFloat(g.resolution), formatFloat(noData))

	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := g.elevations[row*g.width+col]
			if math.IsNaN(v) {
				v = noData
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func hasKey(m map[string]float64, k string) bool {
	_, ok := m[k]
	return ok
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
