package heatindex

import (
	"math"
	"sort"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// Zone is a set of cells designated for one intervention type. Coverage is
// the fraction of each masked cell that receives the intervention.
type Zone struct {
	Type     Intervention
	Mask     *raster.Mask
	Coverage float64
}

// NewZone validates type, mask and coverage.
func NewZone(t Intervention, mask *raster.Mask, coverage float64) (Zone, error) {
	z := Zone{Type: t, Mask: mask, Coverage: coverage}
	return z, z.validate()
}

func (z Zone) validate() error {
	if !z.Type.Valid() {
		return &InvalidParameterError{Field: "zone.type", Reason: "unknown intervention " + string(z.Type)}
	}
	if z.Mask == nil {
		return &InvalidParameterError{Field: "zone.mask", Reason: "mask is required"}
	}
	if math.IsNaN(z.Coverage) || z.Coverage < 0 || z.Coverage > 1 {
		return &InvalidParameterError{Field: "zone.coverage", Value: z.Coverage, Reason: "must be within [0,1]"}
	}
	return nil
}

// TreatedAreaKm2 is the area actually receiving the intervention at the
// given percentage: masked cells x cell area x coverage x pct/100.
func (z Zone) TreatedAreaKm2(pct, cellAreaKm2 float64) float64 {
	return float64(z.Mask.Count()) * cellAreaKm2 * z.Coverage * pct / 100
}

// validateZones checks every zone and its mask shape against rows x cols.
func validateZones(zones []Zone, rows, cols int) error {
	for _, z := range zones {
		if err := z.validate(); err != nil {
			return err
		}
		mr, mc := z.Mask.Shape()
		if mr != rows || mc != cols {
			return &ShapeMismatchError{Name: "zone mask " + string(z.Type), WantRows: rows, WantCols: cols, GotRows: mr, GotCols: mc}
		}
	}
	return nil
}

// orderZones returns zones sorted canopy, roof, park, stable within a type.
func orderZones(zones []Zone) []Zone {
	out := make([]Zone, len(zones))
	copy(out, zones)
	rank := map[Intervention]int{Canopy: 0, Roof: 1, Park: 2}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Type] < rank[out[j].Type]
	})
	return out
}

// CostTable maps an intervention to its cost per km².
type CostTable map[Intervention]float64

// NewCostTable copies and validates entries.
func NewCostTable(entries map[Intervention]float64) (CostTable, error) {
	out := make(CostTable, len(entries))
	for k, v := range entries {
		if !k.Valid() {
			return nil, &InvalidParameterError{Field: "cost_table", Reason: "unknown intervention " + string(k)}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, &InvalidParameterError{Field: "cost_table." + string(k), Value: v, Reason: "must be a non-negative number"}
		}
		out[k] = v
	}
	return out, nil
}
