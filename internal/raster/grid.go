// Package raster holds the immutable grids the heat model reads and writes.
package raster

import (
	"errors"
	"fmt"
	"math"
)

// MaxDimension caps rows and cols of any grid built from external input.
const MaxDimension = 8000

// Grid is an immutable rows x cols grid of float64 cells. NaN marks no-data.
type Grid struct {
	rows int
	cols int
	data []float64
}

// New returns a zero-filled grid.
func New(rows, cols int) (*Grid, error) {
	if err := checkDims(rows, cols); err != nil {
		return nil, err
	}
	return &Grid{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// Filled returns a grid with every cell set to v.
func Filled(rows, cols int, v float64) (*Grid, error) {
	g, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	for i := range g.data {
		g.data[i] = v
	}
	return g, nil
}

// FromRows copies a row-major slice of slices into a grid.
func FromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 {
		return nil, errors.New("raster: no rows")
	}
	cols := len(rows[0])
	if err := checkDims(len(rows), cols); err != nil {
		return nil, err
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("raster: row %d has %d cols, want %d", i, len(r), cols)
		}
		data = append(data, r...)
	}
	return &Grid{rows: len(rows), cols: cols, data: data}, nil
}

// Wrap builds a grid over data without copying. The caller must not touch
// data afterwards.
func Wrap(rows, cols int, data []float64) (*Grid, error) {
	if err := checkDims(rows, cols); err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("raster: %d values for %dx%d grid", len(data), rows, cols)
	}
	return &Grid{rows: rows, cols: cols, data: data}, nil
}

func checkDims(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("raster: invalid dimensions %dx%d", rows, cols)
	}
	if rows > MaxDimension || cols > MaxDimension {
		return fmt.Errorf("raster: %dx%d exceeds max dimension %d", rows, cols, MaxDimension)
	}
	return nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Len() int { return len(g.data) }

// Shape returns rows and cols.
func (g *Grid) Shape() (int, int) { return g.rows, g.cols }

// SameShape reports whether g and o have identical dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return g.rows == o.rows && g.cols == o.cols
}

// At returns the cell at (r, c).
func (g *Grid) At(r, c int) float64 {
	return g.data[r*g.cols+c]
}

// Index returns the cell at flat row-major index i.
func (g *Grid) Index(i int) float64 {
	return g.data[i]
}

// Values returns a copy of the row-major cell values.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.data))
	copy(out, g.data)
	return out
}

// ToRows returns a copy as a slice of rows.
func (g *Grid) ToRows() [][]float64 {
	out := make([][]float64, g.rows)
	for r := 0; r < g.rows; r++ {
		row := make([]float64, g.cols)
		copy(row, g.data[r*g.cols:(r+1)*g.cols])
		out[r] = row
	}
	return out
}

// Map returns a new grid with fn applied to every cell.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	out := make([]float64, len(g.data))
	for i, v := range g.data {
		out[i] = fn(v)
	}
	return &Grid{rows: g.rows, cols: g.cols, data: out}
}

// ValidCount returns the number of non-NaN cells.
func (g *Grid) ValidCount() int {
	n := 0
	for _, v := range g.data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}
