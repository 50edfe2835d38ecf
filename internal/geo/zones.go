// Package geo converts between GeoJSON and the model's grids: zone polygons
// become masks, feedback and hotspots become feature collections.
//
// Geometries are expected in the grid's projected CRS (metres).
package geo

import (
	"errors"
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// MaskFromGeometry marks every cell whose centre lies inside a polygon or
// multipolygon, or the single cell containing a point.
func MaskFromGeometry(g *geojson.Geometry, gt raster.GeoTransform, rows, cols int) (*raster.Mask, error) {
	if g == nil {
		return nil, errors.New("geo: missing geometry")
	}
	if err := gt.Validate(); err != nil {
		return nil, err
	}

	switch {
	case g.IsPoint():
		if len(g.Point) < 2 {
			return nil, errors.New("geo: point needs two coordinates")
		}
		pr, pc := gt.CellAt(g.Point[0], g.Point[1])
		return raster.NewMask(rows, cols, func(r, c int) bool { return r == pr && c == pc })
	case g.IsPolygon():
		return maskFromMultiPolygon(orb.MultiPolygon{toPolygon(g.Polygon)}, gt, rows, cols)
	case g.IsMultiPolygon():
		mp := make(orb.MultiPolygon, 0, len(g.MultiPolygon))
		for _, p := range g.MultiPolygon {
			mp = append(mp, toPolygon(p))
		}
		return maskFromMultiPolygon(mp, gt, rows, cols)
	}
	return nil, fmt.Errorf("geo: unsupported geometry type %q", g.Type)
}

func toPolygon(coords [][][]float64) orb.Polygon {
	poly := make(orb.Polygon, 0, len(coords))
	for _, ring := range coords {
		r := make(orb.Ring, 0, len(ring))
		for _, pt := range ring {
			if len(pt) >= 2 {
				r = append(r, orb.Point{pt[0], pt[1]})
			}
		}
		poly = append(poly, r)
	}
	return poly
}

func maskFromMultiPolygon(mp orb.MultiPolygon, gt raster.GeoTransform, rows, cols int) (*raster.Mask, error) {
	b := mp.Bound()
	// cell range covering the polygon bound, clipped to the grid
	r0, c0 := gt.CellAt(b.Min[0], b.Max[1])
	r1, c1 := gt.CellAt(b.Max[0], b.Min[1])
	return raster.NewMask(rows, cols, func(r, c int) bool {
		if r < r0 || r > r1 || c < c0 || c > c1 {
			return false
		}
		x, y := gt.CellCenter(r, c)
		return planar.MultiPolygonContains(mp, orb.Point{x, y})
	})
}

// ZoneFromFeature builds an intervention zone from a feature. The
// intervention comes from the "intervention" or "category" property and the
// optional "coverage" property defaults to 1.
func ZoneFromFeature(f *geojson.Feature, gt raster.GeoTransform, rows, cols int) (heatindex.Zone, error) {
	kind, err := featureIntervention(f)
	if err != nil {
		return heatindex.Zone{}, err
	}
	coverage := f.PropertyMustFloat64("coverage", 1)
	mask, err := MaskFromGeometry(f.Geometry, gt, rows, cols)
	if err != nil {
		return heatindex.Zone{}, err
	}
	return heatindex.NewZone(kind, mask, coverage)
}

// ZonesFromCollection converts every feature of fc into a zone.
func ZonesFromCollection(fc *geojson.FeatureCollection, gt raster.GeoTransform, rows, cols int) ([]heatindex.Zone, error) {
	zones := make([]heatindex.Zone, 0, len(fc.Features))
	for i, f := range fc.Features {
		z, err := ZoneFromFeature(f, gt, rows, cols)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

func featureIntervention(f *geojson.Feature) (heatindex.Intervention, error) {
	for _, key := range []string{"intervention", "category"} {
		if s, err := f.PropertyString(key); err == nil && s != "" {
			return heatindex.ParseIntervention(s)
		}
	}
	return "", errors.New("geo: feature has no intervention or category property")
}
