package heatindex

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

const cellArea = 1e-4 // 10 m pixels

func TestMeanDelta_IdenticalIsZero(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	hi, err := ComputeBaseline(b, ndvi, s)
	require.NoError(t, err)

	d, err := MeanDelta(hi, hi)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestMeanDelta_SkipsNaN(t *testing.T) {
	base := grid(t, [][]float64{{1, 2}, {math.NaN(), 4}})
	scen := grid(t, [][]float64{{0, 1}, {5, math.NaN()}})

	d, err := MeanDelta(base, scen)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, d, tol)
}

func TestMeanDelta_AllNaN(t *testing.T) {
	g := filled(t, 3, 3, math.NaN())

	_, err := MeanDelta(g, g)
	var target *EmptyRasterError
	assert.True(t, errors.As(err, &target))
}

func TestMetrics_NilGrids(t *testing.T) {
	g := filled(t, 2, 2, 1)
	var target *InvalidParameterError

	_, err := MeanDelta(nil, g)
	assert.True(t, errors.As(err, &target))
	_, err = MeanDelta(g, nil)
	assert.True(t, errors.As(err, &target))

	_, err = ComputeMetrics(g, nil, nil, Params{}, nil, 0.7, Aggregator{CellAreaKm2: cellArea, SequestrationFactor: 1000})
	assert.True(t, errors.As(err, &target))

	_, err = AreaAboveThreshold(nil, cellArea, 0.7)
	assert.True(t, errors.As(err, &target))
}

func TestAreaAboveThreshold(t *testing.T) {
	hi := grid(t, [][]float64{{0.5, 0.71}, {0.7, math.NaN()}})

	area, err := AreaAboveThreshold(hi, cellArea, 0.7)
	require.NoError(t, err)
	assert.InDelta(t, 1e-4, area, 1e-15)

	_, err = AreaAboveThreshold(hi, -1, 0.7)
	var target *InvalidParameterError
	assert.True(t, errors.As(err, &target))
}

func TestEstimatedCostAndCarbon(t *testing.T) {
	half, err := raster.MaskFromRows([][]bool{{true, true}, {false, false}})
	require.NoError(t, err)
	zones := []Zone{
		{Type: Canopy, Mask: half, Coverage: 1},
		{Type: Roof, Mask: fullMask(t, 2, 2), Coverage: 0.5},
	}
	p, err := NewParams(50, 100, 0)
	require.NoError(t, err)
	costs, err := NewCostTable(map[Intervention]float64{Canopy: 1000, Roof: 2000})
	require.NoError(t, err)

	// canopy: 2 cells * 1e-4 * 1 * 0.5 = 1e-4 km2 ; roof: 4 * 1e-4 * 0.5 * 1 = 2e-4 km2
	cost, err := EstimatedCost(zones, p, costs, cellArea)
	require.NoError(t, err)
	assert.InDelta(t, 1e-4*1000+2e-4*2000, cost, 1e-12)

	carbon, err := CarbonEstimate(zones, p, cellArea, 500)
	require.NoError(t, err)
	assert.InDelta(t, 3e-4*500, carbon, 1e-12)

	_, err = CarbonEstimate(zones, p, cellArea, -1)
	assert.Error(t, err)
}

func TestNewCostTable_Rejects(t *testing.T) {
	_, err := NewCostTable(map[Intervention]float64{Canopy: -5})
	assert.Error(t, err)
	_, err = NewCostTable(map[Intervention]float64{"lake": 5})
	assert.Error(t, err)
}

func TestComputeMetrics(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	zones := []Zone{{Type: Canopy, Mask: fullMask(t, 2, 2), Coverage: 1}}
	p, err := NewParams(100, 0, 0)
	require.NoError(t, err)
	costs, err := NewCostTable(map[Intervention]float64{Canopy: 10})
	require.NoError(t, err)
	agg := Aggregator{CellAreaKm2: cellArea, SequestrationFactor: DefaultSequestrationFactor}

	baseline, err := ComputeBaseline(b, ndvi, s)
	require.NoError(t, err)
	scenario, err := ComputeScenario(b, ndvi, s, zones, p)
	require.NoError(t, err)

	res, err := ComputeMetrics(baseline, scenario, zones, p, costs, 30.5, agg)
	require.NoError(t, err)
	// scenario HI = B - 1 + 1 = B: [[30,31],[29,28]] -> one cell above 30.5
	assert.InDelta(t, 1e-4, res.AreaAboveThresholdKm2, 1e-15)
	// deltas: NDVI moved to 1 -> -(1-ndvi): -0.8,-0.7,-0.9,-0.6
	assert.InDelta(t, -0.75, res.MeanHIDelta, tol)
	assert.InDelta(t, 4e-4*10, res.EstimatedCost, 1e-12)
	assert.InDelta(t, 4e-4*DefaultSequestrationFactor, res.CarbonEstimate, 1e-12)

	same, err := agg.Compute(baseline, baseline, zones, p, costs, 30.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, same.MeanHIDelta)
}

func TestComputeMetrics_ShapeMismatch(t *testing.T) {
	agg := Aggregator{CellAreaKm2: cellArea}
	_, err := agg.Compute(filled(t, 2, 2, 1), filled(t, 2, 3, 1), nil, Params{}, nil, 0)
	var target *ShapeMismatchError
	assert.True(t, errors.As(err, &target))
}

func TestComputeMetrics_AllNaN(t *testing.T) {
	agg := Aggregator{CellAreaKm2: cellArea, SequestrationFactor: 1}
	g := filled(t, 2, 2, math.NaN())
	_, err := agg.Compute(g, g, nil, Params{}, nil, 0.7)
	var target *EmptyRasterError
	assert.True(t, errors.As(err, &target))
}
