package geo

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/spatial"
)

// HotspotCollection renders located hotspots as point features.
func HotspotCollection(hs []spatial.Located) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, h := range hs {
		f := geojson.NewPointFeature([]float64{h.X, h.Y})
		f.SetProperty("row", h.Row)
		f.SetProperty("col", h.Col)
		f.SetProperty("hi", h.HI)
		f.SetProperty("built", h.Built)
		f.SetProperty("ndvi", h.NDVI)
		f.SetProperty("reason", h.Reason)
		fc.AddFeature(f)
	}
	return fc
}
