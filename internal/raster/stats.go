package raster

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoValidCells is returned by reductions over an all-NaN grid.
var ErrNoValidCells = errors.New("raster: no valid cells")

// ValidValues returns the non-NaN cells in row-major order.
func (g *Grid) ValidValues() []float64 {
	out := make([]float64, 0, len(g.data))
	for _, v := range g.data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MinMax returns the smallest and largest valid cell.
func MinMax(g *Grid) (float64, float64, error) {
	vals := g.ValidValues()
	if len(vals) == 0 {
		return 0, 0, ErrNoValidCells
	}
	return floats.Min(vals), floats.Max(vals), nil
}

// Mean returns the mean of the valid cells.
func Mean(g *Grid) (float64, error) {
	vals := g.ValidValues()
	if len(vals) == 0 {
		return 0, ErrNoValidCells
	}
	return stat.Mean(vals, nil), nil
}

// Percentile returns the p-th percentile (0..100) of the valid cells using
// linear interpolation between the closest ranks.
func Percentile(g *Grid, p float64) (float64, error) {
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, fmt.Errorf("raster: percentile %v out of [0,100]", p)
	}
	vals := g.ValidValues()
	if len(vals) == 0 {
		return 0, ErrNoValidCells
	}
	sort.Float64s(vals)
	pos := p / 100 * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo], nil
	}
	frac := pos - float64(lo)
	return vals[lo] + (vals[hi]-vals[lo])*frac, nil
}

// Normalize rescales valid cells to [0,1] by min-max. A constant grid maps to
// zeros. NaN cells stay NaN.
func Normalize(g *Grid) (*Grid, error) {
	lo, hi, err := MinMax(g)
	if err != nil {
		return nil, err
	}
	span := hi - lo
	return g.Map(func(v float64) float64 {
		if math.IsNaN(v) {
			return v
		}
		if span == 0 {
			return 0
		}
		return (v - lo) / span
	}), nil
}
