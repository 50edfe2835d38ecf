package heatindex

import (
	"fmt"
	"math"
)

// Intervention identifies a greening strategy.
type Intervention string

const (
	Canopy Intervention = "canopy"
	Roof   Intervention = "roof"
	Park   Intervention = "park"
)

// Interventions lists every type in application order.
var Interventions = []Intervention{Canopy, Roof, Park}

// Valid reports whether i is a known intervention.
func (i Intervention) Valid() bool {
	switch i {
	case Canopy, Roof, Park:
		return true
	}
	return false
}

// ParseIntervention accepts the canonical names plus the plural labels used
// by stakeholder feedback ("trees", "roofs", "parks").
func ParseIntervention(s string) (Intervention, error) {
	switch s {
	case "canopy", "tree", "trees":
		return Canopy, nil
	case "roof", "roofs":
		return Roof, nil
	case "park", "parks":
		return Park, nil
	}
	return "", fmt.Errorf("unknown intervention %q", s)
}

// Params are the three intervention percentages of one scenario run.
// Construct with NewParams; the zero value is a valid all-zero scenario.
type Params struct {
	canopyPct float64
	roofPct   float64
	parkPct   float64
}

// NewParams validates each percentage against [0, 100].
func NewParams(canopyPct, roofPct, parkPct float64) (Params, error) {
	for _, f := range []struct {
		name string
		v    float64
	}{{"canopy_pct", canopyPct}, {"roof_pct", roofPct}, {"park_pct", parkPct}} {
		if err := checkPct(f.name, f.v); err != nil {
			return Params{}, err
		}
	}
	return Params{canopyPct: canopyPct, roofPct: roofPct, parkPct: parkPct}, nil
}

func checkPct(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return &InvalidParameterError{Field: name, Value: v, Reason: "must be within [0,100]"}
	}
	return nil
}

func (p Params) CanopyPct() float64 { return p.canopyPct }
func (p Params) RoofPct() float64   { return p.roofPct }
func (p Params) ParkPct() float64   { return p.parkPct }

// Pct returns the percentage for an intervention type.
func (p Params) Pct(i Intervention) float64 {
	switch i {
	case Canopy:
		return p.canopyPct
	case Roof:
		return p.roofPct
	case Park:
		return p.parkPct
	}
	return 0
}

// Scaled returns params with each percentage multiplied by its factor in [0,1].
// Used to phase interventions in over time.
func (p Params) Scaled(canopy, roof, park float64) (Params, error) {
	return NewParams(p.canopyPct*canopy, p.roofPct*roof, p.parkPct*park)
}

// Only returns params with every intervention except i zeroed.
func (p Params) Only(i Intervention) Params {
	var out Params
	switch i {
	case Canopy:
		out.canopyPct = p.canopyPct
	case Roof:
		out.roofPct = p.roofPct
	case Park:
		out.parkPct = p.parkPct
	}
	return out
}

// MarshalJSON exposes the percentages for API responses.
func (p Params) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"canopy_pct":%g,"roof_pct":%g,"park_pct":%g}`, p.canopyPct, p.roofPct, p.parkPct)), nil
}
