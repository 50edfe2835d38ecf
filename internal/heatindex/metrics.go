package heatindex

import (
	"math"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// DefaultSequestrationFactor is tonnes CO2 per km² of greened area per year
// (1 kg/m²/yr).
const DefaultSequestrationFactor = 1000.0

// MetricsResult summarises one scenario run.
type MetricsResult struct {
	AreaAboveThresholdKm2 float64 `json:"area_above_threshold_km2"`
	MeanHIDelta           float64 `json:"mean_hi_delta"`
	EstimatedCost         float64 `json:"estimated_cost"`
	CarbonEstimate        float64 `json:"carbon_estimate"`
}

// Aggregator carries the static configuration of the metrics reduction.
type Aggregator struct {
	CellAreaKm2         float64
	SequestrationFactor float64
}

// Compute fills every field of MetricsResult. Each field is computed by its
// own function from the shared inputs.
func (a Aggregator) Compute(baseline, scenario *raster.Grid, zones []Zone, p Params, costs CostTable, threshold float64) (MetricsResult, error) {
	if err := checkPair(baseline, scenario); err != nil {
		return MetricsResult{}, err
	}
	rows, cols := baseline.Shape()
	if err := validateZones(zones, rows, cols); err != nil {
		return MetricsResult{}, err
	}

	area, err := AreaAboveThreshold(scenario, a.CellAreaKm2, threshold)
	if err != nil {
		return MetricsResult{}, err
	}
	delta, err := MeanDelta(baseline, scenario)
	if err != nil {
		return MetricsResult{}, err
	}
	cost, err := EstimatedCost(zones, p, costs, a.CellAreaKm2)
	if err != nil {
		return MetricsResult{}, err
	}
	carbon, err := CarbonEstimate(zones, p, a.CellAreaKm2, a.SequestrationFactor)
	if err != nil {
		return MetricsResult{}, err
	}
	return MetricsResult{
		AreaAboveThresholdKm2: area,
		MeanHIDelta:           delta,
		EstimatedCost:         cost,
		CarbonEstimate:        carbon,
	}, nil
}

// ComputeMetrics is Aggregator.Compute with the aggregator passed explicitly.
func ComputeMetrics(baseline, scenario *raster.Grid, zones []Zone, p Params, costs CostTable, threshold float64, agg Aggregator) (MetricsResult, error) {
	return agg.Compute(baseline, scenario, zones, p, costs, threshold)
}

// AreaAboveThreshold sums the area of cells with HI strictly above threshold.
func AreaAboveThreshold(hi *raster.Grid, cellAreaKm2, threshold float64) (float64, error) {
	if err := checkCellArea(cellAreaKm2); err != nil {
		return 0, err
	}
	if math.IsNaN(threshold) {
		return 0, &InvalidParameterError{Field: "threshold", Value: threshold, Reason: "must be a number"}
	}
	if hi == nil {
		return 0, &InvalidParameterError{Field: "rasters", Reason: "heat-index raster is required"}
	}
	n := 0
	for i := 0; i < hi.Len(); i++ {
		if hi.Index(i) > threshold {
			n++
		}
	}
	return float64(n) * cellAreaKm2, nil
}

// MeanDelta is the mean of scenario - baseline over cells valid in both.
func MeanDelta(baseline, scenario *raster.Grid) (float64, error) {
	if err := checkPair(baseline, scenario); err != nil {
		return 0, err
	}
	var sum float64
	n := 0
	for i := 0; i < baseline.Len(); i++ {
		b, s := baseline.Index(i), scenario.Index(i)
		if math.IsNaN(b) || math.IsNaN(s) {
			continue
		}
		sum += s - b
		n++
	}
	if n == 0 {
		return 0, &EmptyRasterError{Op: "mean_hi_delta"}
	}
	return sum / float64(n), nil
}

// EstimatedCost sums treated area times the per-km² cost of each zone's type.
// A type missing from costs contributes nothing.
func EstimatedCost(zones []Zone, p Params, costs CostTable, cellAreaKm2 float64) (float64, error) {
	if err := checkCellArea(cellAreaKm2); err != nil {
		return 0, err
	}
	var total float64
	for _, z := range zones {
		if err := z.validate(); err != nil {
			return 0, err
		}
		total += z.TreatedAreaKm2(p.Pct(z.Type), cellAreaKm2) * costs[z.Type]
	}
	return total, nil
}

// CarbonEstimate is total treated area times the sequestration factor.
func CarbonEstimate(zones []Zone, p Params, cellAreaKm2, factor float64) (float64, error) {
	if err := checkCellArea(cellAreaKm2); err != nil {
		return 0, err
	}
	if math.IsNaN(factor) || factor < 0 {
		return 0, &InvalidParameterError{Field: "sequestration_factor", Value: factor, Reason: "must be non-negative"}
	}
	area, err := GreenedAreaKm2(zones, p, cellAreaKm2)
	if err != nil {
		return 0, err
	}
	return area * factor, nil
}

// GreenedAreaKm2 is the total treated area across zones.
func GreenedAreaKm2(zones []Zone, p Params, cellAreaKm2 float64) (float64, error) {
	var area float64
	for _, z := range zones {
		if err := z.validate(); err != nil {
			return 0, err
		}
		area += z.TreatedAreaKm2(p.Pct(z.Type), cellAreaKm2)
	}
	return area, nil
}

func checkCellArea(v float64) error {
	if math.IsNaN(v) || v <= 0 {
		return &InvalidParameterError{Field: "cell_area_km2", Value: v, Reason: "must be positive"}
	}
	return nil
}

func checkPair(baseline, scenario *raster.Grid) error {
	if baseline == nil || scenario == nil {
		return &InvalidParameterError{Field: "rasters", Reason: "baseline and scenario are required"}
	}
	if !baseline.SameShape(scenario) {
		return shapeErr("scenario", baseline, scenario)
	}
	return nil
}

func shapeErr(name string, want, got *raster.Grid) error {
	wr, wc := want.Shape()
	gr, gc := got.Shape()
	return &ShapeMismatchError{Name: name, WantRows: wr, WantCols: wc, GotRows: gr, GotCols: gc}
}
