// Package planning turns raw rasters and user choices into scenario inputs
// and ranks the outcomes: zone delineation, presets, cost levels, the
// digital-twin projection, hotspot explanations and policy challenges.
package planning

import (
	"strings"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
)

// Preset is a named set of intervention percentages.
type Preset struct {
	Name      string  `json:"name" yaml:"name"`
	CanopyPct float64 `json:"canopy_pct" yaml:"canopy_pct"`
	RoofPct   float64 `json:"roof_pct" yaml:"roof_pct"`
	ParkPct   float64 `json:"park_pct" yaml:"park_pct"`
}

var presets = []Preset{
	{Name: "Moderate", CanopyPct: 20, RoofPct: 30, ParkPct: 25},
	{Name: "High", CanopyPct: 40, RoofPct: 50, ParkPct: 50},
}

// SliderMaxPct is the largest percentage the interactive sliders offer.
const SliderMaxPct = 50.0

// Presets returns a copy of the built-in presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByName looks a preset up case-insensitively.
func PresetByName(name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// Params validates the preset into scenario parameters.
func (p Preset) Params() (heatindex.Params, error) {
	return heatindex.NewParams(p.CanopyPct, p.RoofPct, p.ParkPct)
}
