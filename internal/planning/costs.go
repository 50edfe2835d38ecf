package planning

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
)

// CostLevel is the price band a user picks for an intervention.
type CostLevel string

const (
	CostLow    CostLevel = "low"
	CostMedium CostLevel = "medium"
	CostHigh   CostLevel = "high"
)

// ParseCostLevel accepts low/medium/high in any case.
func ParseCostLevel(s string) (CostLevel, error) {
	switch l := CostLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case CostLow, CostMedium, CostHigh:
		return l, nil
	}
	return "", fmt.Errorf("unknown cost level %q", s)
}

// CostRange is a unit price band in EUR per m².
type CostRange struct {
	Low  float64 `json:"low" yaml:"low"`
	High float64 `json:"high" yaml:"high"`
}

// Mid is the midpoint of the band.
func (r CostRange) Mid() float64 { return (r.Low + r.High) / 2 }

// CostLevels holds the price bands of every intervention.
type CostLevels map[heatindex.Intervention]map[CostLevel]CostRange

// DefaultCostLevels returns the built-in EUR/m² bands.
func DefaultCostLevels() CostLevels {
	return CostLevels{
		heatindex.Canopy: {
			CostLow:    {20, 40},   // EUR/m2, street trees
			CostMedium: {50, 100},  // EUR/m2
			CostHigh:   {80, 150},  // EUR/m2, mature stock
		},
		heatindex.Roof: {
			CostLow:    {80, 120},  // EUR/m2, extensive green roof
			CostMedium: {100, 180}, // EUR/m2
			CostHigh:   {150, 220}, // EUR/m2, intensive green roof
		},
		heatindex.Park: {
			CostLow:    {30, 70},   // EUR/m2
			CostMedium: {50, 100},  // EUR/m2
			CostHigh:   {80, 140},  // EUR/m2
		},
	}
}

// LoadCostLevels parses a YAML document of the form
//
//	canopy:
//	  low: {low: 20, high: 40}
//
// and overlays it on the defaults.
func LoadCostLevels(r io.Reader) (CostLevels, error) {
	var raw map[string]map[string]CostRange
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode cost levels: %w", err)
	}
	levels := DefaultCostLevels()
	for typ, bands := range raw {
		it, err := heatindex.ParseIntervention(typ)
		if err != nil {
			return nil, err
		}
		for lvl, rng := range bands {
			cl, err := ParseCostLevel(lvl)
			if err != nil {
				return nil, err
			}
			if rng.Low < 0 || rng.High < rng.Low {
				return nil, fmt.Errorf("invalid cost range %s/%s: %v-%v", typ, lvl, rng.Low, rng.High)
			}
			levels[it][cl] = rng
		}
	}
	return levels, nil
}

// Table builds a per-km² cost table from one chosen level per intervention.
// Interventions missing from choice use the medium band.
func (cl CostLevels) Table(choice map[heatindex.Intervention]CostLevel) (heatindex.CostTable, error) {
	entries := make(map[heatindex.Intervention]float64, len(heatindex.Interventions))
	for _, it := range heatindex.Interventions {
		lvl, ok := choice[it]
		if !ok {
			lvl = CostMedium
		}
		rng, ok := cl[it][lvl]
		if !ok {
			return nil, fmt.Errorf("no %s cost band for %s", lvl, it)
		}
		entries[it] = rng.Mid() * 1e6
	}
	return heatindex.NewCostTable(entries)
}

const (
	CarbonFactorMin     = 0.1 // kg CO2 / m2 / yr
	CarbonFactorMax     = 5.0
	CarbonFactorDefault = 1.0
)

// SequestrationFactor validates a kg CO2/m²/yr rate and converts it to the
// tonnes per km² per year used by the metrics aggregator.
func SequestrationFactor(kgPerM2 float64) (float64, error) {
	if math.IsNaN(kgPerM2) || kgPerM2 < CarbonFactorMin || kgPerM2 > CarbonFactorMax {
		return 0, &heatindex.InvalidParameterError{
			Field:  "carbon_factor",
			Value:  kgPerM2,
			Reason: fmt.Sprintf("must be within [%g,%g] kg CO2/m2/yr", CarbonFactorMin, CarbonFactorMax),
		}
	}
	return kgPerM2 * 1e6 / 1000, nil
}
