package planning

import (
	"fmt"
	"math"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// TwinHorizonYears is the last year of the digital-twin projection.
const TwinHorizonYears = 20

// SnapshotYears are the years reported by default.
var SnapshotYears = []int{5, 10, 15, 20}

// years until each intervention reaches full effect
var maturityYears = map[heatindex.Intervention]float64{
	heatindex.Canopy: 15,
	heatindex.Roof:   5,
	heatindex.Park:   10,
}

// Maturity is the share of full effect an intervention delivers after
// year years, ramping linearly to 1.
func Maturity(t heatindex.Intervention, year int) float64 {
	full, ok := maturityYears[t]
	if !ok || year <= 0 {
		return 0
	}
	return math.Min(1, float64(year)/full)
}

// MatureParams scales p by the maturity of each intervention at year.
func MatureParams(p heatindex.Params, year int) (heatindex.Params, error) {
	return p.Scaled(
		Maturity(heatindex.Canopy, year),
		Maturity(heatindex.Roof, year),
		Maturity(heatindex.Park, year),
	)
}

// TwinInputs is everything the projection needs.
type TwinInputs struct {
	B, NDVI, S  *raster.Grid
	Zones       []heatindex.Zone
	Params      heatindex.Params
	Model       heatindex.Model
	CellAreaKm2 float64
	Threshold   float64
}

// TwinPoint is the projected state of the city in one year.
type TwinPoint struct {
	Year         int              `json:"year"`
	Params       heatindex.Params `json:"params"`
	AreaKm2      float64          `json:"area_km2"`
	MeanHI       float64          `json:"mean_hi"`
	ReductionPct float64          `json:"reduction_pct"`
}

// ProjectTwin evaluates the scenario at each requested year with
// interventions phased in by their maturity curves.
func ProjectTwin(in TwinInputs, years []int) ([]TwinPoint, error) {
	baseline, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		return nil, err
	}
	baseArea, err := heatindex.AreaAboveThreshold(baseline, in.CellAreaKm2, in.Threshold)
	if err != nil {
		return nil, err
	}

	points := make([]TwinPoint, 0, len(years))
	for _, y := range years {
		if y < 0 || y > TwinHorizonYears {
			return nil, fmt.Errorf("twin year %d outside 0..%d", y, TwinHorizonYears)
		}
		p, err := MatureParams(in.Params, y)
		if err != nil {
			return nil, err
		}
		hi, err := in.Model.ComputeScenario(in.B, in.NDVI, in.S, in.Zones, p)
		if err != nil {
			return nil, err
		}
		area, err := heatindex.AreaAboveThreshold(hi, in.CellAreaKm2, in.Threshold)
		if err != nil {
			return nil, err
		}
		mean, err := raster.Mean(hi)
		if err != nil {
			return nil, &heatindex.EmptyRasterError{Op: "twin mean_hi"}
		}
		points = append(points, TwinPoint{
			Year:         y,
			Params:       p,
			AreaKm2:      area,
			MeanHI:       mean,
			ReductionPct: PercentReduction(baseArea, area),
		})
	}
	return points, nil
}

// AllYears returns 0..TwinHorizonYears.
func AllYears() []int {
	out := make([]int, 0, TwinHorizonYears+1)
	for y := 0; y <= TwinHorizonYears; y++ {
		out = append(out, y)
	}
	return out
}
