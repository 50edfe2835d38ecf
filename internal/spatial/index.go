// Package spatial indexes hotspots in projected coordinates for box and
// nearest-neighbour queries.
package spatial

import (
	"fmt"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

const (
	dimensions  = 2
	minChildren = 4
	maxChildren = 16
	tolerance   = 0.01 // metres, point rect size
)

// Located is a hotspot placed at its cell centre.
type Located struct {
	planning.Hotspot
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type item struct {
	Located
	rect *rtreego.Rect
}

func (it *item) Bounds() *rtreego.Rect { return it.rect }

// BBox is an axis-aligned box in projected metres.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Index is a read-mostly R-tree of hotspots.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	n    int
}

// NewIndex places hotspots with gt and indexes them.
func NewIndex(hotspots []planning.Hotspot, gt raster.GeoTransform) *Index {
	idx := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	for _, h := range hotspots {
		x, y := gt.CellCenter(h.Row, h.Col)
		it := &item{
			Located: Located{Hotspot: h, X: x, Y: y},
			rect:    rtreego.Point{x, y}.ToRect(tolerance),
		}
		idx.tree.Insert(it)
		idx.n++
	}
	return idx
}

// Len returns the number of indexed hotspots.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.n
}

// Within returns hotspots inside box, hottest first.
func (idx *Index) Within(box BBox) ([]Located, error) {
	w, h := box.MaxX-box.MinX, box.MaxY-box.MinY
	if !(w > 0) || !(h > 0) {
		return nil, fmt.Errorf("spatial: empty bbox %+v", box)
	}
	rect, err := rtreego.NewRect(rtreego.Point{box.MinX, box.MinY}, []float64{w, h})
	if err != nil {
		return nil, fmt.Errorf("spatial: bbox: %w", err)
	}

	idx.mu.RLock()
	results := idx.tree.SearchIntersect(rect)
	idx.mu.RUnlock()

	out := collect(results)
	sortHottest(out)
	return out, nil
}

// Nearest returns up to k hotspots closest to (x, y), nearest first.
func (idx *Index) Nearest(x, y float64, k int) []Located {
	if k <= 0 {
		return nil
	}
	idx.mu.RLock()
	results := idx.tree.NearestNeighbors(k, rtreego.Point{x, y})
	idx.mu.RUnlock()
	return collect(results)
}

func collect(results []rtreego.Spatial) []Located {
	out := make([]Located, 0, len(results))
	for _, r := range results {
		if it, ok := r.(*item); ok && it != nil {
			out = append(out, it.Located)
		}
	}
	return out
}
