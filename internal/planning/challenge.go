package planning

import "fmt"

// Challenge is a policy target: minimum effect under a budget.
type Challenge struct {
	ID              string  `json:"id"`
	Goal            string  `json:"goal"`
	MinReductionPct float64 `json:"min_reduction_pct,omitempty"`
	MinCO2Tonnes    float64 `json:"min_co2_tonnes,omitempty"`
	MaxCostMEUR     float64 `json:"max_cost_meur"`
}

var challenges = []Challenge{
	{ID: "reduce-30", Goal: ">=30% heat reduction", MinReductionPct: 30, MaxCostMEUR: 80},
	{ID: "capture-2000", Goal: ">=2000 t CO2/yr captured", MinCO2Tonnes: 2000, MaxCostMEUR: 100},
	{ID: "reduce-20-lean", Goal: ">=20% reduction with <=50 M EUR", MinReductionPct: 20, MaxCostMEUR: 50},
}

// Challenges returns the built-in challenges.
func Challenges() []Challenge {
	out := make([]Challenge, len(challenges))
	copy(out, challenges)
	return out
}

// ChallengeByID looks a challenge up.
func ChallengeByID(id string) (Challenge, bool) {
	for _, c := range challenges {
		if c.ID == id {
			return c, true
		}
	}
	return Challenge{}, false
}

// ChallengeResult reports whether an outcome meets a challenge.
type ChallengeResult struct {
	Challenge Challenge `json:"challenge"`
	Passed    bool      `json:"passed"`
	Failures  []string  `json:"failures,omitempty"`
}

// Evaluate checks o against every target of c.
func (c Challenge) Evaluate(o Outcome) ChallengeResult {
	res := ChallengeResult{Challenge: c}
	if o.ReductionPct < c.MinReductionPct {
		res.Failures = append(res.Failures, fmt.Sprintf("reduction %.1f%% below %.0f%%", o.ReductionPct, c.MinReductionPct))
	}
	if o.CO2Tonnes < c.MinCO2Tonnes {
		res.Failures = append(res.Failures, fmt.Sprintf("CO2 %.0f t below %.0f t", o.CO2Tonnes, c.MinCO2Tonnes))
	}
	if o.CostMEUR > c.MaxCostMEUR {
		res.Failures = append(res.Failures, fmt.Sprintf("cost %.1f M EUR over %.0f M EUR", o.CostMEUR, c.MaxCostMEUR))
	}
	res.Passed = len(res.Failures) == 0
	return res
}
