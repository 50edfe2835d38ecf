package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

func testIndex() *Index {
	gt := raster.GeoTransform{OriginX: 0, OriginY: 100, PixelSizeM: 10}
	return NewIndex([]planning.Hotspot{
		{Row: 0, Col: 0, HI: 0.9}, // (5, 95)
		{Row: 0, Col: 5, HI: 1.1}, // (55, 95)
		{Row: 4, Col: 4, HI: 1.0}, // (45, 55)
		{Row: 9, Col: 9, HI: 0.8}, // (95, 5)
	}, gt)
}

func TestIndex_Within(t *testing.T) {
	idx := testIndex()
	require.Equal(t, 4, idx.Len())

	got, err := idx.Within(BBox{MinX: 0, MinY: 50, MaxX: 60, MaxY: 100})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.1, got[0].HI)
	assert.Equal(t, 1.0, got[1].HI)
	assert.Equal(t, 0.9, got[2].HI)
	assert.Equal(t, 55.0, got[0].X)
	assert.Equal(t, 95.0, got[0].Y)

	_, err = idx.Within(BBox{MinX: 10, MaxX: 10, MinY: 0, MaxY: 5})
	assert.Error(t, err)
}

func TestIndex_Nearest(t *testing.T) {
	idx := testIndex()

	got := idx.Nearest(90, 10, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 9, got[0].Row)
	assert.Equal(t, 4, got[1].Row)

	assert.Nil(t, idx.Nearest(0, 0, 0))
}
