package workflow

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

func writeRaster(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadInputs(t *testing.T) {
	dir := t.TempDir()
	writeRaster(t, dir, "brightness.json", `{"rows":[[0.5,0.6],[0.7,null]]}`)
	writeRaster(t, dir, "ndvi_norm.json", `{"rows":[[0.1,0.2],[0.3,0.4]]}`)
	writeRaster(t, dir, "slope.json", `{"rows":[[0,1],[2,3]]}`)

	gt := raster.GeoTransform{PixelSizeM: 10}
	in, err := LoadInputs(dir, gt, raster.DefaultBandOptions())
	require.NoError(t, err)
	assert.Nil(t, in.Built)
	assert.Equal(t, gt, in.Transform)
	assert.Equal(t, 0.6, in.B.At(0, 1))
	assert.Equal(t, 3.0, in.S.At(1, 1))

	writeRaster(t, dir, "buildings.json", `{"rows":[[1,0],[0,1]]}`)
	in, err = LoadInputs(dir, gt, raster.DefaultBandOptions())
	require.NoError(t, err)
	require.NotNil(t, in.Built)
	assert.Equal(t, 1.0, in.Built.At(1, 1))
}

func TestLoadInputs_Normalize(t *testing.T) {
	dir := t.TempDir()
	writeRaster(t, dir, "brightness.json", `{"rows":[[2,4]]}`)
	writeRaster(t, dir, "ndvi_norm.json", `{"rows":[[-0.5,0.5]]}`)
	writeRaster(t, dir, "slope.json", `{"rows":[[10,30]]}`)
	writeRaster(t, dir, "buildings.json", `{"rows":[[1,1]]}`)

	opts := raster.DefaultBandOptions()
	opts.Normalize = true
	in, err := LoadInputs(dir, raster.GeoTransform{PixelSizeM: 10}, opts)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, in.B.Values())
	assert.Equal(t, []float64{0, 1}, in.NDVI.Values())
	assert.Equal(t, []float64{0, 1}, in.S.Values())
	assert.Equal(t, []float64{1, 1}, in.Built.Values())
}

func TestLoadInputs_Missing(t *testing.T) {
	dir := t.TempDir()
	writeRaster(t, dir, "brightness.json", `{"rows":[[0.5]]}`)

	_, err := LoadInputs(dir, raster.GeoTransform{PixelSizeM: 10}, raster.DefaultBandOptions())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
