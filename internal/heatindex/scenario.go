package heatindex

import (
	"math"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

const (
	ndviFloor = -1.0
	ndviCeil  = 1.0

	// DefaultNDVIMax is the full-canopy NDVI that greening moves cells toward.
	DefaultNDVIMax = 1.0
	// DefaultParkStrength multiplies the park percentage relative to canopy.
	DefaultParkStrength = 1.5
	// DefaultRoofAlbedoReduction is the fraction of B removed from a fully
	// greened roof cell (roof_pct=100, coverage=1).
	DefaultRoofAlbedoReduction = 0.10
)

// Model holds the tunable constants of the perturbation model.
type Model struct {
	NDVIMax             float64 `json:"ndvi_max" yaml:"ndvi_max"`
	ParkStrength        float64 `json:"park_strength" yaml:"park_strength"`
	RoofAlbedoReduction float64 `json:"roof_albedo_reduction" yaml:"roof_albedo_reduction"`
}

// DefaultModel returns the documented model constants.
func DefaultModel() Model {
	return Model{
		NDVIMax:             DefaultNDVIMax,
		ParkStrength:        DefaultParkStrength,
		RoofAlbedoReduction: DefaultRoofAlbedoReduction,
	}
}

// Validate rejects malformed model constants.
func (m Model) Validate() error {
	if math.IsNaN(m.NDVIMax) || m.NDVIMax < ndviFloor || m.NDVIMax > ndviCeil {
		return &OutOfRangeError{Field: "ndvi_max", Value: m.NDVIMax, Row: -1}
	}
	if math.IsNaN(m.ParkStrength) || m.ParkStrength < 1 {
		return &InvalidParameterError{Field: "park_strength", Value: m.ParkStrength, Reason: "must be >= 1"}
	}
	if math.IsNaN(m.RoofAlbedoReduction) || m.RoofAlbedoReduction < 0 || m.RoofAlbedoReduction > 1 {
		return &InvalidParameterError{Field: "roof_albedo_reduction", Value: m.RoofAlbedoReduction, Reason: "must be within [0,1]"}
	}
	return nil
}

// Adjusted holds the perturbed inputs of a scenario.
type Adjusted struct {
	B    *raster.Grid
	NDVI *raster.Grid
}

// fraction returns the share of the way toward NDVIMax a zone moves its cells.
func (m Model) fraction(z Zone, p Params) float64 {
	f := p.Pct(z.Type) / 100 * z.Coverage
	if z.Type == Park {
		f = math.Min(1, f*m.ParkStrength)
	}
	return f
}

// Perturb applies zones in canopy, roof, park order. Later zones act on the
// values already adjusted by earlier ones; NDVI is clamped after every step.
func (m Model) Perturb(b, ndvi, s *raster.Grid, zones []Zone, p Params) (Adjusted, error) {
	if err := m.Validate(); err != nil {
		return Adjusted{}, err
	}
	if err := checkShapes(b, ndvi, s); err != nil {
		return Adjusted{}, err
	}
	rows, cols := b.Shape()
	if err := validateZones(zones, rows, cols); err != nil {
		return Adjusted{}, err
	}
	if err := checkNDVIRange(ndvi); err != nil {
		return Adjusted{}, err
	}

	nv := ndvi.Values()
	bv := b.Values()
	for _, z := range orderZones(zones) {
		f := m.fraction(z, p)
		if f == 0 {
			continue
		}
		albedo := 0.0
		if z.Type == Roof {
			albedo = m.RoofAlbedoReduction * f
		}
		err := forEachTile(rows, cols, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				if !z.Mask.Index(i) {
					continue
				}
				if n := nv[i]; !math.IsNaN(n) {
					nv[i] = clamp(n + (m.NDVIMax-n)*f)
				}
				if albedo > 0 {
					bv[i] *= 1 - albedo
				}
			}
		})
		if err != nil {
			return Adjusted{}, err
		}
	}

	adjB, err := raster.Wrap(rows, cols, bv)
	if err != nil {
		return Adjusted{}, err
	}
	adjN, err := raster.Wrap(rows, cols, nv)
	if err != nil {
		return Adjusted{}, err
	}
	return Adjusted{B: adjB, NDVI: adjN}, nil
}

// ComputeScenario perturbs the inputs and recomputes the heat index.
func (m Model) ComputeScenario(b, ndvi, s *raster.Grid, zones []Zone, p Params) (*raster.Grid, error) {
	adj, err := m.Perturb(b, ndvi, s, zones, p)
	if err != nil {
		return nil, err
	}
	return ComputeBaseline(adj.B, adj.NDVI, s)
}

// ComputeScenario runs the default model.
func ComputeScenario(b, ndvi, s *raster.Grid, zones []Zone, p Params) (*raster.Grid, error) {
	return DefaultModel().ComputeScenario(b, ndvi, s, zones, p)
}

func checkNDVIRange(ndvi *raster.Grid) error {
	rows, cols := ndvi.Shape()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := ndvi.At(r, c)
			if v < ndviFloor || v > ndviCeil {
				return &OutOfRangeError{Field: "ndvi", Value: v, Row: r, Col: c}
			}
		}
	}
	return nil
}

func clamp(v float64) float64 {
	return math.Max(ndviFloor, math.Min(ndviCeil, v))
}
