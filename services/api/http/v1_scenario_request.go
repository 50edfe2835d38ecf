package http

import (
	"context"
	"encoding/json"
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/geo"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
)

// missingInputError is a request that names neither inline rasters nor a
// known city.
type missingInputError struct {
	msg string
}

func (e *missingInputError) Error() string { return e.msg }

type rasterBody struct {
	Rows [][]*float64 `json:"rows"`
}

type rastersBody struct {
	B     *rasterBody `json:"b"`
	NDVI  *rasterBody `json:"ndvi"`
	S     *rasterBody `json:"s"`
	Built *rasterBody `json:"built,omitempty"`
}

type paramsBody struct {
	CanopyPct float64 `json:"canopy_pct"`
	RoofPct   float64 `json:"roof_pct"`
	ParkPct   float64 `json:"park_pct"`
}

// scenarioRequest is the body shared by the scenario endpoints. Rasters are
// taken inline when given, otherwise from the city's raster directory. Zones
// come from inline GeoJSON, from stored feedback when FeedbackZones is set,
// or are delineated automatically.
type scenarioRequest struct {
	City          string            `json:"city"`
	Rasters       *rastersBody      `json:"rasters,omitempty"`
	PixelSizeM    float64           `json:"pixel_size_m,omitempty"`
	Preset        string            `json:"preset,omitempty"`
	Params        *paramsBody       `json:"params,omitempty"`
	Zones         json.RawMessage   `json:"zones,omitempty"`
	FeedbackZones bool              `json:"feedback_zones,omitempty"`
	CostLevels    map[string]string `json:"cost_levels,omitempty"`
	CarbonFactor  float64           `json:"carbon_factor,omitempty"`
	Threshold     *float64          `json:"threshold,omitempty"`
	Years         []int             `json:"years,omitempty"`
	Limit         int               `json:"limit,omitempty"`
	BBox          *[4]float64       `json:"bbox,omitempty"`
	Near          *[2]float64       `json:"near,omitempty"`
	Challenge     string            `json:"challenge,omitempty"`
}

// inputs resolves the rasters and geotransform of a request.
func (s *Server) inputs(req scenarioRequest) (workflow.Inputs, error) {
	city, known := s.deps.Catalog.Lookup(req.City)

	if req.Rasters != nil {
		gt := raster.GeoTransform{PixelSizeM: raster.DefaultPixelSizeM}
		if known {
			gt = city.Transform
		}
		if req.PixelSizeM != 0 {
			gt.PixelSizeM = req.PixelSizeM
		}
		if err := gt.Validate(); err != nil {
			return workflow.Inputs{}, &heatindex.InvalidParameterError{Field: "pixel_size_m", Value: gt.PixelSizeM, Reason: err.Error()}
		}
		return inlineInputs(*req.Rasters, gt)
	}

	if !known {
		return workflow.Inputs{}, &missingInputError{msg: fmt.Sprintf("unknown city %q and no inline rasters", req.City)}
	}
	return workflow.LoadInputs(city.RasterPath(s.cfg.RasterDir), city.Transform, raster.DefaultBandOptions())
}

func inlineInputs(body rastersBody, gt raster.GeoTransform) (workflow.Inputs, error) {
	in := workflow.Inputs{Transform: gt}
	for _, f := range []struct {
		name     string
		src      *rasterBody
		dst      **raster.Grid
		required bool
	}{
		{"b", body.B, &in.B, true},
		{"ndvi", body.NDVI, &in.NDVI, true},
		{"s", body.S, &in.S, true},
		{"built", body.Built, &in.Built, false},
	} {
		if f.src == nil {
			if f.required {
				return workflow.Inputs{}, &missingInputError{msg: fmt.Sprintf("rasters.%s is required", f.name)}
			}
			continue
		}
		g, err := raster.FromNullableRows(f.src.Rows)
		if err != nil {
			return workflow.Inputs{}, &heatindex.InvalidParameterError{Field: "rasters." + f.name, Reason: err.Error()}
		}
		*f.dst = g
	}
	return in, nil
}

// params picks explicit params over a preset; neither means no intervention.
func (req scenarioRequest) params() (heatindex.Params, string, error) {
	if req.Params != nil {
		p, err := heatindex.NewParams(req.Params.CanopyPct, req.Params.RoofPct, req.Params.ParkPct)
		return p, "custom", err
	}
	if req.Preset != "" {
		preset, ok := planning.PresetByName(req.Preset)
		if !ok {
			return heatindex.Params{}, "", &heatindex.InvalidParameterError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", req.Preset)}
		}
		p, err := preset.Params()
		return p, preset.Name, err
	}
	return heatindex.Params{}, "none", nil
}

func (req scenarioRequest) costLevels() (map[heatindex.Intervention]planning.CostLevel, error) {
	out := make(map[heatindex.Intervention]planning.CostLevel, len(req.CostLevels))
	for k, v := range req.CostLevels {
		it, err := heatindex.ParseIntervention(k)
		if err != nil {
			return nil, &heatindex.InvalidParameterError{Field: "cost_levels", Reason: err.Error()}
		}
		lvl, err := planning.ParseCostLevel(v)
		if err != nil {
			return nil, &heatindex.InvalidParameterError{Field: "cost_levels." + k, Reason: err.Error()}
		}
		out[it] = lvl
	}
	return out, nil
}

// zones converts the optional GeoJSON zones. nil means delineate
// automatically.
func (req scenarioRequest) zones(in workflow.Inputs) ([]heatindex.Zone, error) {
	if len(req.Zones) == 0 || string(req.Zones) == "null" {
		return nil, nil
	}
	fc, err := geojson.UnmarshalFeatureCollection(req.Zones)
	if err != nil {
		return nil, &heatindex.InvalidParameterError{Field: "zones", Reason: err.Error()}
	}
	rows, cols := in.B.Shape()
	zones, err := geo.ZonesFromCollection(fc, in.Transform, rows, cols)
	if err != nil {
		return nil, &heatindex.InvalidParameterError{Field: "zones", Reason: err.Error()}
	}
	return zones, nil
}

// feedbackZones converts the stored proposals for the request's city into
// zones on its grid.
func (s *Server) feedbackZones(ctx context.Context, req workflow.Request) ([]heatindex.Zone, error) {
	items, err := s.deps.Store.ListFeedback(ctx, req.City, s.cfg.DefaultLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &missingInputError{msg: fmt.Sprintf("no feedback stored for %q", req.City)}
	}
	rows, cols := req.Inputs.B.Shape()
	zones, err := geo.ZonesFromCollection(geo.FeedbackCollection(items), req.Inputs.Transform, rows, cols)
	if err != nil {
		return nil, &heatindex.InvalidParameterError{Field: "feedback_zones", Reason: err.Error()}
	}
	return zones, nil
}

// challenges returns the named challenge, or all of them when none is named.
func (req scenarioRequest) challenges() ([]planning.Challenge, error) {
	if req.Challenge == "" {
		return planning.Challenges(), nil
	}
	ch, ok := planning.ChallengeByID(req.Challenge)
	if !ok {
		return nil, &heatindex.InvalidParameterError{Field: "challenge", Reason: fmt.Sprintf("unknown challenge %q", req.Challenge)}
	}
	return []planning.Challenge{ch}, nil
}

func (s *Server) threshold(req scenarioRequest) float64 {
	if req.Threshold != nil {
		return *req.Threshold
	}
	return s.cfg.Threshold
}

// buildRequest walks the workflow steps for a request body.
func (s *Server) buildRequest(ctx context.Context, req scenarioRequest) (workflow.Request, string, error) {
	in, err := s.inputs(req)
	if err != nil {
		return workflow.Request{}, "", err
	}
	p, preset, err := req.params()
	if err != nil {
		return workflow.Request{}, "", err
	}
	levels, err := req.costLevels()
	if err != nil {
		return workflow.Request{}, "", err
	}
	carbon := req.CarbonFactor
	if carbon == 0 {
		carbon = planning.CarbonFactorDefault
	}

	cityName := req.City
	if city, ok := s.deps.Catalog.Lookup(req.City); ok {
		cityName = city.Name
	}
	state, err := workflow.NewState().WithCity(cityName).WithParams(p)
	if err != nil {
		return workflow.Request{}, "", err
	}
	if state, err = state.WithCosts(levels, carbon); err != nil {
		return workflow.Request{}, "", err
	}
	wreq, err := state.Request(in, s.threshold(req))
	if err != nil {
		return workflow.Request{}, "", err
	}
	if wreq.Zones, err = req.zones(in); err != nil {
		return workflow.Request{}, "", err
	}
	if wreq.Zones == nil && req.FeedbackZones {
		if wreq.Zones, err = s.feedbackZones(ctx, wreq); err != nil {
			return workflow.Request{}, "", err
		}
	}
	return wreq, preset, nil
}
