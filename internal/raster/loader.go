package raster

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// BandOptions converts raw integer samples into physical values:
// value = raw*Scale + Offset. Raw samples equal to NoData become NaN.
// Normalize min-max rescales the loaded grid to [0,1].
type BandOptions struct {
	Scale     float64
	Offset    float64
	NoData    float64
	HasNoData bool
	Normalize bool
}

// DefaultBandOptions keeps raw sample values unchanged.
func DefaultBandOptions() BandOptions {
	return BandOptions{Scale: 1}
}

// DecodeTIFF reads a single-band 8 or 16 bit TIFF into a grid.
func DecodeTIFF(r io.Reader, opts BandOptions) (*Grid, error) {
	img, err := tiff.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode tiff: %w", err)
	}
	return fromImage(img, opts)
}

func fromImage(img image.Image, opts BandOptions) (*Grid, error) {
	b := img.Bounds()
	g, err := New(b.Dy(), b.Dx())
	if err != nil {
		return nil, err
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var raw float64
			switch im := img.(type) {
			case *image.Gray16:
				raw = float64(im.Gray16At(x, y).Y)
			case *image.Gray:
				raw = float64(im.GrayAt(x, y).Y)
			default:
				raw = float64(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y)
			}
			v := raw*scale + opts.Offset
			if opts.HasNoData && raw == opts.NoData {
				v = math.NaN()
			}
			g.data[(y-b.Min.Y)*g.cols+(x-b.Min.X)] = v
		}
	}
	return g, nil
}

// jsonGrid is the on-disk JSON raster form. null cells are no-data.
type jsonGrid struct {
	Rows [][]*float64 `json:"rows"`
}

// DecodeJSON reads {"rows": [[...], ...]} into a grid.
func DecodeJSON(r io.Reader) (*Grid, error) {
	var jg jsonGrid
	if err := json.NewDecoder(r).Decode(&jg); err != nil {
		return nil, fmt.Errorf("decode json raster: %w", err)
	}
	return FromNullableRows(jg.Rows)
}

// FromNullableRows converts rows with nil cells (no-data) into a grid.
func FromNullableRows(rows [][]*float64) (*Grid, error) {
	plain := make([][]float64, len(rows))
	for i, row := range rows {
		plain[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				plain[i][j] = math.NaN()
			} else {
				plain[i][j] = *v
			}
		}
	}
	return FromRows(plain)
}

// ToNullableRows is the inverse of FromNullableRows, for JSON output.
func ToNullableRows(g *Grid) [][]*float64 {
	out := make([][]*float64, g.rows)
	for r := 0; r < g.rows; r++ {
		row := make([]*float64, g.cols)
		for c := 0; c < g.cols; c++ {
			v := g.At(r, c)
			if !math.IsNaN(v) {
				row[c] = &v
			}
		}
		out[r] = row
	}
	return out
}

// LoadFile reads a .tif/.tiff or .json raster from disk.
func LoadFile(path string, opts BandOptions) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var g *Grid
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		g, err = DecodeTIFF(f, opts)
	case ".json":
		g, err = DecodeJSON(f)
	default:
		return nil, fmt.Errorf("raster: unsupported file type %q", path)
	}
	if err != nil || !opts.Normalize {
		return g, err
	}
	return Normalize(g)
}
