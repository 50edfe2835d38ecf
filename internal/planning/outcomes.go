package planning

import (
	"math"
	"sort"
)

// Outcome is the result of one scenario variant for a city.
type Outcome struct {
	Scenario     string  `json:"scenario"`
	AreaKm2      float64 `json:"area_km2"`
	ReductionPct float64 `json:"reduction_pct"`
	MeanHIDelta  float64 `json:"mean_hi_delta"`
	CostMEUR     float64 `json:"cost_meur"`
	CO2Tonnes    float64 `json:"co2_tonnes"`
}

// PercentReduction is (base - scenario) / base * 100; 0 when base is 0.
func PercentReduction(baseArea, scenarioArea float64) float64 {
	if baseArea == 0 {
		return 0
	}
	return (baseArea - scenarioArea) / baseArea * 100
}

// BestOutcome picks the outcome with the smallest remaining hot area. Ties go
// to the earlier entry.
func BestOutcome(outcomes []Outcome) (Outcome, bool) {
	if len(outcomes) == 0 {
		return Outcome{}, false
	}
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.AreaKm2 < best.AreaKm2 {
			best = o
		}
	}
	return best, true
}

// Efficiency relates spend to effect. Nil fields are undefined (no
// reduction or no carbon captured).
type Efficiency struct {
	MEURPerPct  *float64 `json:"meur_per_pct"`
	EURPerTonne *float64 `json:"eur_per_tonne"`
}

// EfficiencyOf computes spend per unit of effect.
func EfficiencyOf(o Outcome) Efficiency {
	var e Efficiency
	if o.ReductionPct > 0 {
		v := o.CostMEUR / o.ReductionPct
		e.MEURPerPct = &v
	}
	if o.CO2Tonnes > 0 {
		v := o.CostMEUR * 1e6 / o.CO2Tonnes
		e.EURPerTonne = &v
	}
	return e
}

// CityEvaluation groups the outcomes computed for one city.
type CityEvaluation struct {
	City            string    `json:"city"`
	BaselineAreaKm2 float64   `json:"baseline_area_km2"`
	Outcomes        []Outcome `json:"outcomes"`
}

// CityRanking is one row of the city comparison.
type CityRanking struct {
	Rank       int        `json:"rank"`
	City       string     `json:"city"`
	Best       Outcome    `json:"best"`
	Efficiency Efficiency `json:"efficiency"`
}

// RankCities orders cities by the cost per percent reduction of their best
// outcome, cheapest first. Cities without a defined ratio go last, by name.
func RankCities(evals []CityEvaluation) []CityRanking {
	out := make([]CityRanking, 0, len(evals))
	for _, ev := range evals {
		best, ok := BestOutcome(ev.Outcomes)
		if !ok {
			continue
		}
		out = append(out, CityRanking{City: ev.City, Best: best, Efficiency: EfficiencyOf(best)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := ratio(out[i].Efficiency), ratio(out[j].Efficiency)
		if a != b {
			return a < b
		}
		return out[i].City < out[j].City
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func ratio(e Efficiency) float64 {
	if e.MEURPerPct == nil {
		return math.Inf(1)
	}
	return *e.MEURPerPct
}
