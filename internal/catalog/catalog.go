// Package catalog lists the cities the explorer can analyse.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// City is one analysable area of interest.
type City struct {
	Name      string              `json:"name" yaml:"name"`
	Slug      string              `json:"slug" yaml:"slug"`
	Country   string              `json:"country,omitempty" yaml:"country,omitempty"`
	Transform raster.GeoTransform `json:"transform" yaml:"transform"`
	// RasterDir is relative to the configured raster root when not absolute.
	RasterDir string `json:"raster_dir,omitempty" yaml:"raster_dir,omitempty"`
}

// Catalog is an ordered, slug-indexed city list.
type Catalog struct {
	cities []City
	bySlug map[string]int
}

var defaultCities = []string{
	"Lisbon",
	"Zurich",
	"Munster",
	"Tirana",
	"Podgorica Montenegro",
	"Karlsruhe",
	"Seville Spain",
	"Copenhagen",
}

// Slugify lowercases a name and joins words with dashes.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Default returns the built-in city list at the default 10 m resolution.
func Default() *Catalog {
	cities := make([]City, 0, len(defaultCities))
	for _, n := range defaultCities {
		cities = append(cities, City{
			Name:      n,
			Transform: raster.GeoTransform{PixelSizeM: raster.DefaultPixelSizeM},
		})
	}
	c, _ := New(cities)
	return c
}

// New validates cities, fills missing slugs, raster dirs and pixel sizes, and
// rejects duplicates.
func New(cities []City) (*Catalog, error) {
	c := &Catalog{cities: make([]City, 0, len(cities)), bySlug: make(map[string]int, len(cities))}
	for _, city := range cities {
		if strings.TrimSpace(city.Name) == "" {
			return nil, errors.New("catalog: city name is required")
		}
		if city.Slug == "" {
			city.Slug = Slugify(city.Name)
		}
		if city.RasterDir == "" {
			city.RasterDir = city.Slug
		}
		if city.Transform.PixelSizeM == 0 {
			city.Transform.PixelSizeM = raster.DefaultPixelSizeM
		}
		if err := city.Transform.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", city.Name, err)
		}
		if _, dup := c.bySlug[city.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate city %q", city.Slug)
		}
		c.bySlug[city.Slug] = len(c.cities)
		c.cities = append(c.cities, city)
	}
	return c, nil
}

type document struct {
	Cities []City `yaml:"cities"`
}

// Decode parses a YAML (or JSON) document with a top-level "cities" list.
func Decode(r io.Reader) (*Catalog, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Cities) == 0 {
		return nil, errors.New("catalog: no cities")
	}
	return New(doc.Cities)
}

// Load reads a catalog file. An empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Cities returns a copy of the city list.
func (c *Catalog) Cities() []City {
	out := make([]City, len(c.cities))
	copy(out, c.cities)
	return out
}

// Lookup finds a city by slug or by name.
func (c *Catalog) Lookup(key string) (City, bool) {
	if i, ok := c.bySlug[Slugify(key)]; ok {
		return c.cities[i], true
	}
	return City{}, false
}

// RasterPath resolves a city's raster directory against root.
func (city City) RasterPath(root string) string {
	if filepath.IsAbs(city.RasterDir) {
		return city.RasterDir
	}
	return filepath.Join(root, city.RasterDir)
}
