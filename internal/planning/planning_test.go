package planning

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

func grid(t *testing.T, rows [][]float64) *raster.Grid {
	t.Helper()
	g, err := raster.FromRows(rows)
	require.NoError(t, err)
	return g
}

func TestPresets(t *testing.T) {
	p, ok := PresetByName("moderate")
	require.True(t, ok)
	params, err := p.Params()
	require.NoError(t, err)
	assert.Equal(t, 20.0, params.CanopyPct())
	assert.Equal(t, 30.0, params.RoofPct())
	assert.Equal(t, 25.0, params.ParkPct())

	_, ok = PresetByName("extreme")
	assert.False(t, ok)

	list := Presets()
	list[0].CanopyPct = 99
	again, _ := PresetByName("Moderate")
	assert.Equal(t, 20.0, again.CanopyPct)
}

func TestDelineateZones(t *testing.T) {
	baseline := grid(t, [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.9}})
	built := grid(t, [][]float64{{1, 1, 0}, {0, 1, 0}})
	ndvi := grid(t, [][]float64{{0.5, 0.1, 0.1}, {0.3, 0.2, 0.15}})
	slope := grid(t, [][]float64{{0.01, 0.2, 0.0}, {0.0, 0.04, 0.0}})

	zones, err := DelineateZones(ZoningInputs{Baseline: baseline, Built: built, NDVI: ndvi, Slope: slope}, DefaultZoningRules())
	require.NoError(t, err)
	require.Len(t, zones, 3)

	// 80th percentile of the six baseline values is 0.5
	canopy := zones[0]
	assert.Equal(t, heatindex.Canopy, canopy.Type)
	assert.Equal(t, 2, canopy.Mask.Count())
	assert.True(t, canopy.Mask.At(1, 1))
	assert.True(t, canopy.Mask.At(1, 2))

	roofs := zones[1]
	assert.Equal(t, heatindex.Roof, roofs.Type)
	assert.Equal(t, 2, roofs.Mask.Count())
	assert.True(t, roofs.Mask.At(0, 0))
	assert.True(t, roofs.Mask.At(1, 1))

	parks := zones[2]
	assert.Equal(t, heatindex.Park, parks.Type)
	assert.Equal(t, 2, parks.Mask.Count())
	assert.True(t, parks.Mask.At(0, 2))
	assert.True(t, parks.Mask.At(1, 2))
}

func TestDelineateZones_ShapeMismatch(t *testing.T) {
	g := grid(t, [][]float64{{1, 2}})
	other := grid(t, [][]float64{{1, 2, 3}})
	_, err := DelineateZones(ZoningInputs{Baseline: g, Built: other, NDVI: g, Slope: g}, DefaultZoningRules())
	require.Error(t, err)
}

func TestCostLevels_Table(t *testing.T) {
	table, err := DefaultCostLevels().Table(map[heatindex.Intervention]CostLevel{
		heatindex.Canopy: CostLow,
		heatindex.Roof:   CostHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, 30e6, table[heatindex.Canopy])
	assert.Equal(t, 185e6, table[heatindex.Roof])
	assert.Equal(t, 75e6, table[heatindex.Park]) // medium by default
}

func TestLoadCostLevels_Overlay(t *testing.T) {
	doc := `
roofs:
  low: {low: 60, high: 100}
`
	levels, err := LoadCostLevels(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, CostRange{Low: 60, High: 100}, levels[heatindex.Roof][CostLow])
	assert.Equal(t, CostRange{Low: 20, High: 40}, levels[heatindex.Canopy][CostLow])

	_, err = LoadCostLevels(strings.NewReader("lakes:\n  low: {low: 1, high: 2}\n"))
	assert.Error(t, err)

	_, err = LoadCostLevels(strings.NewReader("parks:\n  low: {low: 9, high: 2}\n"))
	assert.Error(t, err)
}

func TestSequestrationFactor(t *testing.T) {
	f, err := SequestrationFactor(1.0)
	require.NoError(t, err)
	assert.Equal(t, heatindex.DefaultSequestrationFactor, f)

	_, err = SequestrationFactor(0.05)
	assert.Error(t, err)
	_, err = SequestrationFactor(6)
	assert.Error(t, err)
}

func TestOutcomesAndRanking(t *testing.T) {
	assert.InDelta(t, 25.0, PercentReduction(4, 3), 1e-12)
	assert.Equal(t, 0.0, PercentReduction(0, 3))

	lisbon := CityEvaluation{City: "Lisbon", Outcomes: []Outcome{
		{Scenario: "canopy", AreaKm2: 3, ReductionPct: 25, CostMEUR: 50, CO2Tonnes: 100},
		{Scenario: "roof", AreaKm2: 2, ReductionPct: 50, CostMEUR: 50, CO2Tonnes: 200},
	}}
	zurich := CityEvaluation{City: "Zurich", Outcomes: []Outcome{
		{Scenario: "park", AreaKm2: 1, ReductionPct: 10, CostMEUR: 30, CO2Tonnes: 0},
	}}
	tirana := CityEvaluation{City: "Tirana", Outcomes: []Outcome{
		{Scenario: "park", AreaKm2: 5, ReductionPct: 0, CostMEUR: 1},
	}}

	best, ok := BestOutcome(lisbon.Outcomes)
	require.True(t, ok)
	assert.Equal(t, "roof", best.Scenario)

	eff := EfficiencyOf(best)
	require.NotNil(t, eff.MEURPerPct)
	require.NotNil(t, eff.EURPerTonne)
	assert.Equal(t, 1.0, *eff.MEURPerPct)
	assert.Equal(t, 250000.0, *eff.EURPerTonne)

	ranks := RankCities([]CityEvaluation{tirana, zurich, lisbon})
	got := make([]string, 0, len(ranks))
	for _, r := range ranks {
		got = append(got, r.City)
	}
	if diff := cmp.Diff([]string{"Lisbon", "Zurich", "Tirana"}, got); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, ranks[0].Rank)
	assert.Nil(t, ranks[2].Efficiency.MEURPerPct)
}

func TestMaturity(t *testing.T) {
	assert.Equal(t, 0.0, Maturity(heatindex.Canopy, 0))
	assert.InDelta(t, 1.0/3, Maturity(heatindex.Canopy, 5), 1e-12)
	assert.Equal(t, 1.0, Maturity(heatindex.Roof, 5))
	assert.Equal(t, 0.5, Maturity(heatindex.Park, 5))
	assert.Equal(t, 1.0, Maturity(heatindex.Canopy, 20))
}

func TestProjectTwin(t *testing.T) {
	b := grid(t, [][]float64{{1, 1}, {1, 0.5}})
	ndvi := grid(t, [][]float64{{0, 0}, {0, 0}})
	s := grid(t, [][]float64{{0, 0}, {0, 0}})
	mask, err := raster.NewMask(2, 2, func(int, int) bool { return true })
	require.NoError(t, err)
	p, err := heatindex.NewParams(0, 100, 0)
	require.NoError(t, err)

	points, err := ProjectTwin(TwinInputs{
		B: b, NDVI: ndvi, S: s,
		Zones:       []heatindex.Zone{{Type: heatindex.Roof, Mask: mask, Coverage: 1}},
		Params:      p,
		Model:       heatindex.DefaultModel(),
		CellAreaKm2: 1e-4,
		Threshold:   0.7,
	}, []int{0, 5, 10})
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 0.0, points[0].ReductionPct)
	assert.InDelta(t, 3e-4, points[0].AreaKm2, 1e-15)
	// roofs mature after five years: NDVI -> 1, HI < 0.7 everywhere
	assert.Equal(t, 100.0, points[1].ReductionPct)
	assert.Equal(t, points[1].AreaKm2, points[2].AreaKm2)
	assert.Less(t, points[1].MeanHI, points[0].MeanHI)

	_, err = ProjectTwin(TwinInputs{B: b, NDVI: ndvi, S: s, Model: heatindex.DefaultModel(), CellAreaKm2: 1e-4}, []int{21})
	assert.Error(t, err)
}

func TestTopHotspots(t *testing.T) {
	hi := grid(t, [][]float64{{0.9, math.NaN()}, {1.2, 0.9}})
	built := grid(t, [][]float64{{0.8, 0}, {0.5, 1}})
	ndvi := grid(t, [][]float64{{0.1, 0}, {0.6, 0.2}})

	spots, err := TopHotspots(hi, built, ndvi, 2)
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.Equal(t, Hotspot{Row: 1, Col: 0, HI: 1.2, Built: 0.5, NDVI: 0.6, Reason: "Mixed with moderate greenery"}, spots[0])
	assert.Equal(t, 0, spots[1].Row)
	assert.Equal(t, "Dense urban with low vegetation", spots[1].Reason)

	_, err = TopHotspots(hi, built, ndvi, 0)
	assert.Error(t, err)
}

func TestChallengeEvaluate(t *testing.T) {
	c, ok := ChallengeByID("reduce-30")
	require.True(t, ok)

	pass := c.Evaluate(Outcome{ReductionPct: 35, CostMEUR: 70})
	assert.True(t, pass.Passed)
	assert.Empty(t, pass.Failures)

	fail := c.Evaluate(Outcome{ReductionPct: 10, CostMEUR: 90})
	assert.False(t, fail.Passed)
	assert.Len(t, fail.Failures, 2)

	co2, _ := ChallengeByID("capture-2000")
	assert.False(t, co2.Evaluate(Outcome{CO2Tonnes: 1500, CostMEUR: 10}).Passed)
	assert.Len(t, Challenges(), 3)
}
