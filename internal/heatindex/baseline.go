// Package heatindex implements the heat-index scenario model: the baseline
// index, intervention perturbations and the summary metrics.
//
// Every function is pure. Inputs are never modified and each call returns
// freshly allocated grids.
package heatindex

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// SlopeWeight is the slope coefficient of the heat index.
const SlopeWeight = 0.2

// parallelThreshold is the cell count above which rows are split into tiles.
const parallelThreshold = 64 * 1024

// ComputeBaseline returns HI = B - NDVI + 0.2*S for every cell. NaN in any
// input yields NaN.
func ComputeBaseline(b, ndvi, s *raster.Grid) (*raster.Grid, error) {
	if err := checkShapes(b, ndvi, s); err != nil {
		return nil, err
	}
	rows, cols := b.Shape()
	out := make([]float64, rows*cols)
	err := forEachTile(rows, cols, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = index(b.Index(i), ndvi.Index(i), s.Index(i))
		}
	})
	if err != nil {
		return nil, err
	}
	return raster.Wrap(rows, cols, out)
}

func index(b, ndvi, s float64) float64 {
	return b - ndvi + SlopeWeight*s
}

func checkShapes(b, ndvi, s *raster.Grid) error {
	if b == nil || ndvi == nil || s == nil {
		return &InvalidParameterError{Field: "rasters", Reason: "B, NDVI and S are required"}
	}
	rows, cols := b.Shape()
	for _, g := range []struct {
		name string
		grid *raster.Grid
	}{{"NDVI", ndvi}, {"S", s}} {
		if !b.SameShape(g.grid) {
			gr, gc := g.grid.Shape()
			return &ShapeMismatchError{Name: g.name, WantRows: rows, WantCols: cols, GotRows: gr, GotCols: gc}
		}
	}
	return nil
}

// forEachTile calls fn over disjoint [lo, hi) flat index ranges covering the
// grid. Small grids run inline; larger ones are split by whole rows.
func forEachTile(rows, cols int, fn func(lo, hi int)) error {
	n := rows * cols
	if n < parallelThreshold {
		fn(0, n)
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	rowsPerTile := (rows + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)
	for r := 0; r < rows; r += rowsPerTile {
		lo := r * cols
		hi := min(r+rowsPerTile, rows) * cols
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
