package raster

import (
	"errors"
	"fmt"
)

// Mask is an immutable boolean grid marking a subset of cells.
type Mask struct {
	rows  int
	cols  int
	cells []bool
}

// NewMask builds a mask by evaluating fn for every cell.
func NewMask(rows, cols int, fn func(r, c int) bool) (*Mask, error) {
	if err := checkDims(rows, cols); err != nil {
		return nil, err
	}
	cells := make([]bool, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells[r*cols+c] = fn(r, c)
		}
	}
	return &Mask{rows: rows, cols: cols, cells: cells}, nil
}

// MaskFromRows copies a row-major slice of slices into a mask.
func MaskFromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 {
		return nil, errors.New("raster: no mask rows")
	}
	cols := len(rows[0])
	if err := checkDims(len(rows), cols); err != nil {
		return nil, err
	}
	cells := make([]bool, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("raster: mask row %d has %d cols, want %d", i, len(r), cols)
		}
		cells = append(cells, r...)
	}
	return &Mask{rows: len(rows), cols: cols, cells: cells}, nil
}

// MaskWhere marks every cell of g for which pred holds.
func MaskWhere(g *Grid, pred func(v float64) bool) *Mask {
	cells := make([]bool, len(g.data))
	for i, v := range g.data {
		cells[i] = pred(v)
	}
	return &Mask{rows: g.rows, cols: g.cols, cells: cells}
}

func (m *Mask) Rows() int { return m.rows }
func (m *Mask) Cols() int { return m.cols }

// Shape returns rows and cols.
func (m *Mask) Shape() (int, int) { return m.rows, m.cols }

// At reports whether cell (r, c) is set.
func (m *Mask) At(r, c int) bool { return m.cells[r*m.cols+c] }

// Index reports whether flat row-major index i is set.
func (m *Mask) Index(i int) bool { return m.cells[i] }

// Count returns the number of set cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.cells {
		if v {
			n++
		}
	}
	return n
}

// And returns the intersection of m and o. Shapes must match.
func (m *Mask) And(o *Mask) (*Mask, error) {
	if m.rows != o.rows || m.cols != o.cols {
		return nil, fmt.Errorf("raster: mask shape %dx%d vs %dx%d", m.rows, m.cols, o.rows, o.cols)
	}
	cells := make([]bool, len(m.cells))
	for i := range cells {
		cells[i] = m.cells[i] && o.cells[i]
	}
	return &Mask{rows: m.rows, cols: m.cols, cells: cells}, nil
}
