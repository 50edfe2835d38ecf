package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// Base names of the per-city raster files. Each may be .tif, .tiff or .json.
const (
	BrightnessFile = "brightness"
	NDVIFile       = "ndvi_norm"
	SlopeFile      = "slope"
	BuildingsFile  = "buildings"
)

var rasterExts = []string{".tif", ".tiff", ".json"}

// LoadInputs reads a city's rasters from dir. The buildings raster is
// optional; the other three are required. opts.Normalize applies to the
// NDVI and slope bands only.
func LoadInputs(dir string, gt raster.GeoTransform, opts raster.BandOptions) (Inputs, error) {
	in := Inputs{Transform: gt}
	plain := opts
	plain.Normalize = false

	var err error
	if in.B, err = loadRaster(dir, BrightnessFile, plain); err != nil {
		return Inputs{}, err
	}
	if in.NDVI, err = loadRaster(dir, NDVIFile, opts); err != nil {
		return Inputs{}, err
	}
	if in.S, err = loadRaster(dir, SlopeFile, opts); err != nil {
		return Inputs{}, err
	}
	in.Built, err = loadRaster(dir, BuildingsFile, plain)
	if errors.Is(err, fs.ErrNotExist) {
		in.Built = nil
	} else if err != nil {
		return Inputs{}, err
	}
	return in, nil
}

func loadRaster(dir, base string, opts raster.BandOptions) (*raster.Grid, error) {
	for _, ext := range rasterExts {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		g, err := raster.LoadFile(path, opts)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return g, nil
	}
	return nil, fmt.Errorf("raster %s in %s: %w", base, dir, fs.ErrNotExist)
}
