package heatindex

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

const tol = 1e-9

func grid(t *testing.T, rows [][]float64) *raster.Grid {
	t.Helper()
	g, err := raster.FromRows(rows)
	require.NoError(t, err)
	return g
}

func filled(t *testing.T, rows, cols int, v float64) *raster.Grid {
	t.Helper()
	g, err := raster.Filled(rows, cols, v)
	require.NoError(t, err)
	return g
}

func fullMask(t *testing.T, rows, cols int) *raster.Mask {
	t.Helper()
	m, err := raster.NewMask(rows, cols, func(int, int) bool { return true })
	require.NoError(t, err)
	return m
}

func assertGridsEqual(t *testing.T, want, got *raster.Grid) {
	t.Helper()
	require.True(t, want.SameShape(got))
	for i := 0; i < want.Len(); i++ {
		w, g := want.Index(i), got.Index(i)
		if math.IsNaN(w) {
			assert.True(t, math.IsNaN(g), "cell %d", i)
			continue
		}
		assert.InDelta(t, w, g, tol, "cell %d", i)
	}
}

func exampleInputs(t *testing.T) (b, ndvi, s *raster.Grid) {
	b = grid(t, [][]float64{{30, 31}, {29, 28}})
	ndvi = grid(t, [][]float64{{0.2, 0.3}, {0.1, 0.4}})
	s = filled(t, 2, 2, 5)
	return b, ndvi, s
}

func TestComputeBaseline_Example(t *testing.T) {
	b, ndvi, s := exampleInputs(t)

	hi, err := ComputeBaseline(b, ndvi, s)
	require.NoError(t, err)
	assertGridsEqual(t, grid(t, [][]float64{{30.8, 31.7}, {29.9, 28.6}}), hi)
}

func TestComputeBaseline_Formula(t *testing.T) {
	b := grid(t, [][]float64{{0, 1, -2}, {0.5, 3.25, 100}})
	ndvi := grid(t, [][]float64{{-1, 0, 1}, {0.33, -0.5, 0.9}})
	s := grid(t, [][]float64{{0, 10, 45}, {7, 0.1, 90}})

	hi, err := ComputeBaseline(b, ndvi, s)
	require.NoError(t, err)
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			want := b.At(r, c) - ndvi.At(r, c) + 0.2*s.At(r, c)
			assert.InDelta(t, want, hi.At(r, c), tol)
		}
	}
}

func TestComputeBaseline_NaNPropagates(t *testing.T) {
	b := grid(t, [][]float64{{math.NaN(), 1}})
	ndvi := grid(t, [][]float64{{0, math.NaN()}})
	s := grid(t, [][]float64{{0, 0}})

	hi, err := ComputeBaseline(b, ndvi, s)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(hi.At(0, 0)))
	assert.True(t, math.IsNaN(hi.At(0, 1)))
}

func TestComputeBaseline_ParallelMatchesFormula(t *testing.T) {
	rows, cols := 300, 300
	bv := make([]float64, rows*cols)
	nv := make([]float64, rows*cols)
	sv := make([]float64, rows*cols)
	for i := range bv {
		bv[i] = float64(i%97) / 10
		nv[i] = float64(i%13)/13 - 0.5
		sv[i] = float64(i % 31)
	}
	b, err := raster.Wrap(rows, cols, bv)
	require.NoError(t, err)
	ndvi, err := raster.Wrap(rows, cols, nv)
	require.NoError(t, err)
	s, err := raster.Wrap(rows, cols, sv)
	require.NoError(t, err)

	hi, err := ComputeBaseline(b, ndvi, s)
	require.NoError(t, err)
	for i := 0; i < hi.Len(); i++ {
		require.InDelta(t, bv[i]-nv[i]+0.2*sv[i], hi.Index(i), tol)
	}
}

func TestShapeMismatch(t *testing.T) {
	b := filled(t, 10, 10, 1)
	ndvi := filled(t, 10, 11, 0.1)
	s := filled(t, 10, 10, 2)

	var shapeErr *ShapeMismatchError

	_, err := ComputeBaseline(b, ndvi, s)
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "NDVI", shapeErr.Name)
	assert.Equal(t, 11, shapeErr.GotCols)

	_, err = ComputeScenario(b, ndvi, s, nil, Params{})
	require.Error(t, err)
	assert.True(t, errors.As(err, &shapeErr))
}

func TestComputeScenario_ZeroParamsIsNoOp(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	zones := []Zone{
		{Type: Canopy, Mask: fullMask(t, 2, 2), Coverage: 1},
		{Type: Roof, Mask: fullMask(t, 2, 2), Coverage: 1},
		{Type: Park, Mask: fullMask(t, 2, 2), Coverage: 0.5},
	}
	p, err := NewParams(0, 0, 0)
	require.NoError(t, err)

	baseline, err := ComputeBaseline(b, ndvi, s)
	require.NoError(t, err)
	scenario, err := ComputeScenario(b, ndvi, s, zones, p)
	require.NoError(t, err)
	assertGridsEqual(t, baseline, scenario)
}

func TestPerturb_CanopySaturates(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	mask, err := raster.MaskFromRows([][]bool{{true, true}, {false, true}})
	require.NoError(t, err)
	zones := []Zone{{Type: Canopy, Mask: mask, Coverage: 1}}
	p, err := NewParams(100, 0, 0)
	require.NoError(t, err)

	adj, err := DefaultModel().Perturb(b, ndvi, s, zones, p)
	require.NoError(t, err)
	for _, rc := range [][2]int{{0, 0}, {0, 1}, {1, 1}} {
		v := adj.NDVI.At(rc[0], rc[1])
		assert.LessOrEqual(t, v, 1.0)
		assert.InDelta(t, DefaultNDVIMax, v, tol)
	}
	// outside the zone
	assert.Equal(t, 0.1, adj.NDVI.At(1, 0))
	// inputs untouched
	assert.Equal(t, 0.2, ndvi.At(0, 0))
}

func TestPerturb_CanopyPartial(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	zones := []Zone{{Type: Canopy, Mask: fullMask(t, 2, 2), Coverage: 0.5}}
	p, err := NewParams(50, 0, 0)
	require.NoError(t, err)

	adj, err := DefaultModel().Perturb(b, ndvi, s, zones, p)
	require.NoError(t, err)
	// f = 0.5 * 0.5 = 0.25 ; 0.2 + 0.8*0.25 = 0.4
	assert.InDelta(t, 0.4, adj.NDVI.At(0, 0), tol)
	assertGridsEqual(t, b, adj.B)
}

func TestPerturb_RoofReducesBrightness(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	zones := []Zone{{Type: Roof, Mask: fullMask(t, 2, 2), Coverage: 1}}
	p, err := NewParams(0, 100, 0)
	require.NoError(t, err)

	adj, err := DefaultModel().Perturb(b, ndvi, s, zones, p)
	require.NoError(t, err)
	assert.InDelta(t, 30*(1-DefaultRoofAlbedoReduction), adj.B.At(0, 0), tol)
	assert.InDelta(t, 1.0, adj.NDVI.At(0, 0), tol)
}

func TestPerturb_ParkStrongerThanCanopy(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	mask := fullMask(t, 2, 2)
	p, err := NewParams(40, 0, 40)
	require.NoError(t, err)
	m := DefaultModel()

	canopy, err := m.Perturb(b, ndvi, s, []Zone{{Type: Canopy, Mask: mask, Coverage: 1}}, p)
	require.NoError(t, err)
	park, err := m.Perturb(b, ndvi, s, []Zone{{Type: Park, Mask: mask, Coverage: 1}}, p)
	require.NoError(t, err)
	assert.Greater(t, park.NDVI.At(0, 0), canopy.NDVI.At(0, 0))
	// 0.2 + 0.8 * min(1, 0.4*1.5)
	assert.InDelta(t, 0.68, park.NDVI.At(0, 0), tol)

	full, err := NewParams(0, 0, 100)
	require.NoError(t, err)
	sat, err := m.Perturb(b, ndvi, s, []Zone{{Type: Park, Mask: mask, Coverage: 1}}, full)
	require.NoError(t, err)
	assert.LessOrEqual(t, sat.NDVI.At(1, 1), 1.0)
}

func TestPerturb_OverlapIsCumulativeInTypeOrder(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	mask := fullMask(t, 2, 2)
	p, err := NewParams(50, 50, 0)
	require.NoError(t, err)
	m := DefaultModel()

	// Given in reverse order; canopy still applies first.
	zones := []Zone{
		{Type: Roof, Mask: mask, Coverage: 1},
		{Type: Canopy, Mask: mask, Coverage: 1},
	}
	adj, err := m.Perturb(b, ndvi, s, zones, p)
	require.NoError(t, err)
	// 0.2 -> 0.6 -> 0.8
	assert.InDelta(t, 0.8, adj.NDVI.At(0, 0), tol)

	again, err := m.Perturb(b, ndvi, s, zones, p)
	require.NoError(t, err)
	assertGridsEqual(t, adj.NDVI, again.NDVI)
}

func TestPerturb_NaNCellStaysNaN(t *testing.T) {
	b := grid(t, [][]float64{{1, 1}})
	ndvi := grid(t, [][]float64{{math.NaN(), 0}})
	s := grid(t, [][]float64{{0, 0}})
	p, err := NewParams(100, 0, 0)
	require.NoError(t, err)

	hi, err := ComputeScenario(b, ndvi, s, []Zone{{Type: Canopy, Mask: fullMask(t, 1, 2), Coverage: 1}}, p)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(hi.At(0, 0)))
	assert.InDelta(t, 0.0, hi.At(0, 1), tol)
}

func TestPerturb_Errors(t *testing.T) {
	b, ndvi, s := exampleInputs(t)
	p, err := NewParams(10, 10, 10)
	require.NoError(t, err)

	t.Run("mask shape", func(t *testing.T) {
		_, err := ComputeScenario(b, ndvi, s, []Zone{{Type: Canopy, Mask: fullMask(t, 3, 2), Coverage: 1}}, p)
		var target *ShapeMismatchError
		assert.True(t, errors.As(err, &target))
	})

	t.Run("coverage", func(t *testing.T) {
		_, err := ComputeScenario(b, ndvi, s, []Zone{{Type: Canopy, Mask: fullMask(t, 2, 2), Coverage: 1.5}}, p)
		var target *InvalidParameterError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, "zone.coverage", target.Field)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewZone("lake", fullMask(t, 2, 2), 1)
		var target *InvalidParameterError
		assert.True(t, errors.As(err, &target))
	})

	t.Run("ndvi out of range", func(t *testing.T) {
		bad := grid(t, [][]float64{{0.2, 1.5}, {0.1, 0.4}})
		_, err := ComputeScenario(b, bad, s, nil, p)
		var target *OutOfRangeError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, 1, target.Col)
	})

	t.Run("ndvi max out of range", func(t *testing.T) {
		m := DefaultModel()
		m.NDVIMax = 1.2
		_, err := m.ComputeScenario(b, ndvi, s, nil, p)
		var target *OutOfRangeError
		assert.True(t, errors.As(err, &target))
	})
}

func TestNewParams_Validation(t *testing.T) {
	_, err := NewParams(-1, 0, 0)
	var target *InvalidParameterError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "canopy_pct", target.Field)

	_, err = NewParams(0, 100.5, 0)
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "roof_pct", target.Field)

	_, err = NewParams(0, 0, math.NaN())
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "park_pct", target.Field)

	p, err := NewParams(0, 100, 42)
	require.NoError(t, err)
	assert.Equal(t, 42.0, p.Pct(Park))
	assert.Equal(t, Params{}, p.Only(Canopy))
}

func TestParseIntervention(t *testing.T) {
	for in, want := range map[string]Intervention{"trees": Canopy, "roofs": Roof, "park": Park} {
		got, err := ParseIntervention(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseIntervention("lakes")
	assert.Error(t, err)
}
