package planning

import (
	"fmt"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// ZoningRules are the cell tests used to delineate intervention zones.
type ZoningRules struct {
	// HotspotPercentile selects canopy cells at or above this baseline percentile.
	HotspotPercentile float64
	// FlatSlope is the normalised slope below which a built cell is a flat roof.
	FlatSlope float64
	// VacantNDVI is the NDVI below which an unbuilt cell counts as vacant.
	VacantNDVI float64
}

// DefaultZoningRules mirrors the delineation used by the explorer UI.
func DefaultZoningRules() ZoningRules {
	return ZoningRules{HotspotPercentile: 80, FlatSlope: 0.05, VacantNDVI: 0.2}
}

// ZoningInputs are the rasters zone delineation reads. Built is a 0/1
// building footprint raster.
type ZoningInputs struct {
	Baseline *raster.Grid
	Built    *raster.Grid
	NDVI     *raster.Grid
	Slope    *raster.Grid
}

// DelineateZones returns one full-coverage zone per intervention:
// canopy on baseline hotspots, roofs on flat built cells and parks on
// vacant low-vegetation cells.
func DelineateZones(in ZoningInputs, rules ZoningRules) ([]heatindex.Zone, error) {
	if in.Baseline == nil {
		return nil, fmt.Errorf("delineate zones: baseline raster is required")
	}
	for name, g := range map[string]*raster.Grid{"built": in.Built, "ndvi": in.NDVI, "slope": in.Slope} {
		if g == nil {
			return nil, fmt.Errorf("delineate zones: %s raster is required", name)
		}
		if !g.SameShape(in.Baseline) {
			r, c := in.Baseline.Shape()
			gr, gc := g.Shape()
			return nil, &heatindex.ShapeMismatchError{Name: name, WantRows: r, WantCols: c, GotRows: gr, GotCols: gc}
		}
	}

	cut, err := raster.Percentile(in.Baseline, rules.HotspotPercentile)
	if err != nil {
		return nil, fmt.Errorf("delineate zones: %w", err)
	}
	hotspots := raster.MaskWhere(in.Baseline, func(v float64) bool { return v >= cut })

	flat := raster.MaskWhere(in.Slope, func(v float64) bool { return v < rules.FlatSlope })
	built := raster.MaskWhere(in.Built, func(v float64) bool { return v >= 1 })
	roofs, err := flat.And(built)
	if err != nil {
		return nil, err
	}
	unbuilt := raster.MaskWhere(in.Built, func(v float64) bool { return v <= 0 })
	bare := raster.MaskWhere(in.NDVI, func(v float64) bool { return v < rules.VacantNDVI })
	vacant, err := unbuilt.And(bare)
	if err != nil {
		return nil, err
	}

	return []heatindex.Zone{
		{Type: heatindex.Canopy, Mask: hotspots, Coverage: 1},
		{Type: heatindex.Roof, Mask: roofs, Coverage: 1},
		{Type: heatindex.Park, Mask: vacant, Coverage: 1},
	}, nil
}
