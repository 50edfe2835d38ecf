package planning

import (
	"fmt"
	"math"
	"sort"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

const (
	denseBuiltThreshold = 0.7
	lowVegetationNDVI   = 0.3
)

// Hotspot is one of the hottest cells with the reason it is hot.
type Hotspot struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	HI     float64 `json:"hi"`
	Built  float64 `json:"built"`
	NDVI   float64 `json:"ndvi"`
	Reason string  `json:"reason"`
}

// Explain describes a cell from its building density and vegetation.
func Explain(built, ndvi float64) string {
	density := "Mixed"
	if built > denseBuiltThreshold {
		density = "Dense urban"
	}
	green := "moderate greenery"
	if ndvi < lowVegetationNDVI {
		green = "low vegetation"
	}
	return fmt.Sprintf("%s with %s", density, green)
}

// TopHotspots returns the n valid cells with the highest heat index, hottest
// first; equal values keep row-major order.
func TopHotspots(hi, built, ndvi *raster.Grid, n int) ([]Hotspot, error) {
	if n <= 0 {
		return nil, fmt.Errorf("top hotspots: n must be positive, got %d", n)
	}
	if !hi.SameShape(built) || !hi.SameShape(ndvi) {
		return nil, fmt.Errorf("top hotspots: rasters are not co-registered")
	}
	idx := make([]int, 0, hi.Len())
	for i := 0; i < hi.Len(); i++ {
		if !math.IsNaN(hi.Index(i)) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return hi.Index(idx[a]) > hi.Index(idx[b])
	})
	if len(idx) > n {
		idx = idx[:n]
	}

	cols := hi.Cols()
	out := make([]Hotspot, 0, len(idx))
	for _, i := range idx {
		b, v := built.Index(i), ndvi.Index(i)
		out = append(out, Hotspot{
			Row:    i / cols,
			Col:    i % cols,
			HI:     hi.Index(i),
			Built:  b,
			NDVI:   v,
			Reason: Explain(b, v),
		})
	}
	return out, nil
}
