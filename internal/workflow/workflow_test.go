package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

var frozen = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func freezeClock(t *testing.T) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })
}

func grid(t *testing.T, rows [][]float64) *raster.Grid {
	t.Helper()
	g, err := raster.FromRows(rows)
	require.NoError(t, err)
	return g
}

func testInputs(t *testing.T) Inputs {
	return Inputs{
		B:         grid(t, [][]float64{{1, 1, 0}, {1, 0, 0}}),
		NDVI:      grid(t, [][]float64{{0.1, 0.5, 0.1}, {0.2, 0.6, 0.1}}),
		S:         grid(t, [][]float64{{0.01, 0.5, 0}, {0.02, 0, 0}}),
		Built:     grid(t, [][]float64{{1, 1, 0}, {1, 0, 0}}),
		Transform: raster.GeoTransform{PixelSizeM: 10},
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(heatindex.DefaultModel(), nil, nil)
	require.NoError(t, err)
	return e
}

func TestState_Transitions(t *testing.T) {
	freezeClock(t)

	s := NewState()
	assert.Equal(t, StepSelectCity, s.Step())

	_, err := s.WithParams(heatindex.Params{})
	assert.ErrorIs(t, err, ErrNoCity)

	s1 := s.WithCity("Lisbon")
	assert.Equal(t, StepSelectCity, s.Step(), "receiver must not change")
	assert.Equal(t, StepParameters, s1.Step())

	_, err = s1.Request(Inputs{}, 0.7)
	assert.ErrorIs(t, err, ErrNoCosts)

	p, err := heatindex.NewParams(20, 30, 25)
	require.NoError(t, err)
	s2, err := s1.WithParams(p)
	require.NoError(t, err)

	levels := map[heatindex.Intervention]planning.CostLevel{heatindex.Canopy: planning.CostLow}
	_, err = s2.WithCosts(levels, 9)
	var invalid *heatindex.InvalidParameterError
	assert.True(t, errors.As(err, &invalid))

	s3, err := s2.WithCosts(levels, 2)
	require.NoError(t, err)
	levels[heatindex.Canopy] = planning.CostHigh
	assert.Equal(t, planning.CostLow, s3.CostLevels()[heatindex.Canopy])
	assert.Equal(t, StepResults, s3.Step())
	assert.Equal(t, frozen, s3.UpdatedAt())

	req, err := s3.Request(testInputs(t), 0.7)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", req.City)
	assert.Equal(t, 2.0, req.CarbonFactor)

	ev, err := newEngine(t).Evaluate(context.Background(), req)
	require.NoError(t, err)
	done := s3.WithEvaluation(ev)
	assert.Nil(t, s3.Evaluation())
	assert.Same(t, ev, done.Evaluation())

	// picking a new city drops later choices
	s4 := s3.WithCity("Zurich")
	assert.Equal(t, StepParameters, s4.Step())
	assert.Equal(t, heatindex.Params{}, s4.Params())
}

func TestEngine_Evaluate(t *testing.T) {
	freezeClock(t)
	e := newEngine(t)
	p, err := heatindex.NewParams(50, 50, 50)
	require.NoError(t, err)

	ev, err := e.Evaluate(context.Background(), Request{
		City:   "Lisbon",
		Inputs: testInputs(t),
		Params: p,
	})
	require.NoError(t, err)

	assert.Equal(t, frozen, ev.EvaluatedAt)
	require.Len(t, ev.Outcomes, 3)
	assert.Equal(t, "canopy", ev.Outcomes[0].Scenario)
	assert.Len(t, ev.Zones, 3)
	assert.Greater(t, ev.BaselineAreaKm2, 0.0)
	assert.LessOrEqual(t, ev.Metrics.AreaAboveThresholdKm2, ev.BaselineAreaKm2)
	assert.Less(t, ev.Metrics.MeanHIDelta, 0.0)
	assert.Greater(t, ev.Combined.CostMEUR, 0.0)
	assert.Greater(t, ev.Combined.CO2Tonnes, 0.0)
	assert.NotEmpty(t, ev.Key)
}

func TestEngine_ZeroParamsMatchesBaseline(t *testing.T) {
	e := newEngine(t)
	ev, err := e.Evaluate(context.Background(), Request{Inputs: testInputs(t)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ev.Metrics.MeanHIDelta)
	assert.Equal(t, ev.BaselineAreaKm2, ev.Metrics.AreaAboveThresholdKm2)
	assert.Equal(t, 0.0, ev.Combined.CostMEUR)
}

func TestEngine_ZeroThreshold(t *testing.T) {
	e := newEngine(t)
	zero := 0.0

	ev, err := e.Evaluate(context.Background(), Request{Inputs: testInputs(t), Threshold: &zero})
	require.NoError(t, err)
	// HI 0.902, 0.6 and 0.804 lie above zero
	assert.InDelta(t, 3e-4, ev.BaselineAreaKm2, 1e-15)

	def, err := e.Evaluate(context.Background(), Request{Inputs: testInputs(t)})
	require.NoError(t, err)
	assert.InDelta(t, 2e-4, def.BaselineAreaKm2, 1e-15)
	assert.NotEqual(t, ev.Key, def.Key)
}

func TestEngine_KeyFollowsCostTable(t *testing.T) {
	custom := planning.DefaultCostLevels()
	for lvl := range custom[heatindex.Canopy] {
		custom[heatindex.Canopy][lvl] = planning.CostRange{Low: 1000, High: 1000}
	}
	priced, err := NewEngine(heatindex.DefaultModel(), custom, nil)
	require.NoError(t, err)
	plain := newEngine(t)

	p, err := heatindex.NewParams(50, 0, 0)
	require.NoError(t, err)
	req := Request{City: "Lisbon", Inputs: testInputs(t), Params: p}

	a, err := plain.Evaluate(context.Background(), req)
	require.NoError(t, err)
	b, err := priced.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Greater(t, b.Combined.CostMEUR, a.Combined.CostMEUR)
	assert.NotEqual(t, a.Key, b.Key)

	key, err := priced.Key(req)
	require.NoError(t, err)
	assert.Equal(t, b.Key, key)

	again, err := plain.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Key, again.Key)
}

func TestEngine_Errors(t *testing.T) {
	e := newEngine(t)

	in := testInputs(t)
	in.Built = nil
	_, err := e.Evaluate(context.Background(), Request{Inputs: in})
	require.ErrorIs(t, err, ErrNoZones)

	in = testInputs(t)
	in.S = grid(t, [][]float64{{1, 2}})
	_, err = e.Evaluate(context.Background(), Request{Inputs: in})
	var shape *heatindex.ShapeMismatchError
	assert.True(t, errors.As(err, &shape))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Evaluate(ctx, Request{Inputs: testInputs(t)})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewEngine(heatindex.Model{NDVIMax: 2, ParkStrength: 1}, nil, nil)
	assert.Error(t, err)
}

func TestRequest_Key(t *testing.T) {
	p, err := heatindex.NewParams(10, 0, 0)
	require.NoError(t, err)
	a := Request{City: "Lisbon", Inputs: testInputs(t), Params: p}
	b := Request{City: "Lisbon", Inputs: testInputs(t), Params: p}
	assert.Equal(t, a.Key(), b.Key())

	q, err := heatindex.NewParams(11, 0, 0)
	require.NoError(t, err)
	b.Params = q
	assert.NotEqual(t, a.Key(), b.Key())
}
