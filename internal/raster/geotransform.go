package raster

import "fmt"

// DefaultPixelSizeM is the analysis grid resolution in metres.
const DefaultPixelSizeM = 10.0

// GeoTransform places a north-up grid in a projected CRS. OriginX/OriginY is
// the top-left corner of cell (0,0).
type GeoTransform struct {
	OriginX    float64 `json:"origin_x" yaml:"origin_x"`
	OriginY    float64 `json:"origin_y" yaml:"origin_y"`
	PixelSizeM float64 `json:"pixel_size_m" yaml:"pixel_size_m"`
}

// Validate rejects a non-positive pixel size.
func (t GeoTransform) Validate() error {
	if !(t.PixelSizeM > 0) {
		return fmt.Errorf("raster: pixel size must be positive, got %v", t.PixelSizeM)
	}
	return nil
}

// CellAreaKm2 is the area of one square cell.
func (t GeoTransform) CellAreaKm2() float64 {
	return t.PixelSizeM * t.PixelSizeM / 1e6
}

// CellCenter returns the projected coordinates of the centre of (r, c).
func (t GeoTransform) CellCenter(r, c int) (x, y float64) {
	x = t.OriginX + (float64(c)+0.5)*t.PixelSizeM
	y = t.OriginY - (float64(r)+0.5)*t.PixelSizeM
	return x, y
}

// CellAt returns the (row, col) containing x,y. The result may lie outside
// the grid; callers check bounds.
func (t GeoTransform) CellAt(x, y float64) (r, c int) {
	c = int((x - t.OriginX) / t.PixelSizeM)
	r = int((t.OriginY - y) / t.PixelSizeM)
	if x < t.OriginX {
		c--
	}
	if y > t.OriginY {
		r--
	}
	return r, c
}
