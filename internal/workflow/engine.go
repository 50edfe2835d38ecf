// Package workflow chains the pure model stages into one evaluation and
// carries the immutable explorer session state.
package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
)

// DefaultThreshold is the heat index above which a cell counts as high heat.
const DefaultThreshold = 0.7

// Inputs are the co-registered rasters of one city. Built is only needed when
// zones are delineated automatically.
type Inputs struct {
	B         *raster.Grid
	NDVI      *raster.Grid
	S         *raster.Grid
	Built     *raster.Grid
	Transform raster.GeoTransform
}

// Request is one scenario evaluation.
type Request struct {
	City         string
	Inputs       Inputs
	Params       heatindex.Params
	Zones        []heatindex.Zone
	CostLevels   map[heatindex.Intervention]planning.CostLevel
	CarbonFactor float64
	// Threshold is the high-heat cut-off; nil means DefaultThreshold.
	Threshold *float64
}

// ThresholdOrDefault resolves the high-heat cut-off of the request.
func (r Request) ThresholdOrDefault() float64 {
	if r.Threshold == nil {
		return DefaultThreshold
	}
	return *r.Threshold
}

// Evaluation is the immutable result of a request.
type Evaluation struct {
	Key             string                  `json:"key"`
	City            string                  `json:"city"`
	Params          heatindex.Params        `json:"params"`
	Metrics         heatindex.MetricsResult `json:"metrics"`
	BaselineAreaKm2 float64                 `json:"baseline_area_km2"`
	Combined        planning.Outcome        `json:"combined"`
	Outcomes        []planning.Outcome      `json:"outcomes"`
	EvaluatedAt     time.Time               `json:"evaluated_at"`

	Baseline *raster.Grid     `json:"-"`
	Scenario *raster.Grid     `json:"-"`
	Zones    []heatindex.Zone `json:"-"`
}

// Evaluator runs requests.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (*Evaluation, error)
}

// Engine evaluates requests with a fixed model and cost bands.
type Engine struct {
	model  heatindex.Model
	levels planning.CostLevels
	rules  planning.ZoningRules
	logger *slog.Logger
}

// NewEngine validates the model constants.
func NewEngine(model heatindex.Model, levels planning.CostLevels, logger *slog.Logger) (*Engine, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if levels == nil {
		levels = planning.DefaultCostLevels()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{model: model, levels: levels, rules: planning.DefaultZoningRules(), logger: logger}, nil
}

// Model returns the engine's model constants.
func (e *Engine) Model() heatindex.Model { return e.model }

// ErrNoZones is returned when a request carries no zones and has no built
// raster to delineate them from.
var ErrNoZones = errors.New("workflow: no zones given and no built raster to delineate them")

// Zones returns the request's zones, delineating them with the engine's
// rules when none were given.
func (e *Engine) Zones(req Request, baseline *raster.Grid) ([]heatindex.Zone, error) {
	return ResolveZones(req, baseline, e.rules)
}

// ResolveZones returns req.Zones, or delineates zones from baseline and the
// built raster.
func ResolveZones(req Request, baseline *raster.Grid, rules planning.ZoningRules) ([]heatindex.Zone, error) {
	if req.Zones != nil {
		return req.Zones, nil
	}
	in := req.Inputs
	if in.Built == nil {
		return nil, ErrNoZones
	}
	zones, err := planning.DelineateZones(planning.ZoningInputs{Baseline: baseline, Built: in.Built, NDVI: in.NDVI, Slope: in.S}, rules)
	if err != nil {
		return nil, fmt.Errorf("zones: %w", err)
	}
	return zones, nil
}

// Evaluate runs baseline, zoning, scenario and metrics stages in order.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	in := req.Inputs
	if err := in.Transform.Validate(); err != nil {
		return nil, &heatindex.InvalidParameterError{Field: "pixel_size_m", Value: in.Transform.PixelSizeM, Reason: "must be positive"}
	}
	threshold := req.ThresholdOrDefault()
	carbon := req.CarbonFactor
	if carbon == 0 {
		carbon = planning.CarbonFactorDefault
	}
	factor, err := planning.SequestrationFactor(carbon)
	if err != nil {
		return nil, err
	}
	costs, err := e.levels.Table(req.CostLevels)
	if err != nil {
		return nil, err
	}
	agg := heatindex.Aggregator{CellAreaKm2: in.Transform.CellAreaKm2(), SequestrationFactor: factor}

	baseline, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zones, err := e.Zones(req, baseline)
	if err != nil {
		return nil, err
	}

	scenario, err := e.model.ComputeScenario(in.B, in.NDVI, in.S, zones, req.Params)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics, err := agg.Compute(baseline, scenario, zones, req.Params, costs, threshold)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	baseArea, err := heatindex.AreaAboveThreshold(baseline, agg.CellAreaKm2, threshold)
	if err != nil {
		return nil, err
	}

	outcomes := make([]planning.Outcome, 0, len(heatindex.Interventions))
	for _, it := range heatindex.Interventions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := req.Params.Only(it)
		hi, err := e.model.ComputeScenario(in.B, in.NDVI, in.S, zones, p)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", it, err)
		}
		m, err := agg.Compute(baseline, hi, zones, p, costs, threshold)
		if err != nil {
			return nil, fmt.Errorf("metrics %s: %w", it, err)
		}
		outcomes = append(outcomes, outcomeOf(string(it), baseArea, m))
	}

	ev := &Evaluation{
		Key:             e.key(req, costs),
		City:            req.City,
		Params:          req.Params,
		Metrics:         metrics,
		BaselineAreaKm2: baseArea,
		Combined:        outcomeOf("combined", baseArea, metrics),
		Outcomes:        outcomes,
		EvaluatedAt:     clock.Now().UTC(),
		Baseline:        baseline,
		Scenario:        scenario,
		Zones:           zones,
	}
	e.logger.Debug("scenario evaluated",
		"city", req.City,
		"key", ev.Key,
		"area_km2", metrics.AreaAboveThresholdKm2,
		"mean_hi_delta", metrics.MeanHIDelta,
	)
	return ev, nil
}

func outcomeOf(name string, baseArea float64, m heatindex.MetricsResult) planning.Outcome {
	return planning.Outcome{
		Scenario:     name,
		AreaKm2:      m.AreaAboveThresholdKm2,
		ReductionPct: planning.PercentReduction(baseArea, m.AreaAboveThresholdKm2),
		MeanHIDelta:  m.MeanHIDelta,
		CostMEUR:     m.EstimatedCost / 1e6,
		CO2Tonnes:    m.CarbonEstimate,
	}
}

// Key is a SHA-256 digest of the request inputs. Engine.Key extends it with
// the engine's model and resolved cost table.
func (r Request) Key() string {
	return hex.EncodeToString(r.digest().Sum(nil))
}

// Key digests the request together with the model constants and the EUR
// values its cost levels resolve to, so a new cost table or model yields a
// new key for the same inputs.
func (e *Engine) Key(req Request) (string, error) {
	costs, err := e.levels.Table(req.CostLevels)
	if err != nil {
		return "", err
	}
	return e.key(req, costs), nil
}

func (e *Engine) key(req Request, costs heatindex.CostTable) string {
	h := req.digest()
	for _, v := range []float64{e.model.NDVIMax, e.model.ParkStrength, e.model.RoofAlbedoReduction} {
		putFloat(h, v)
	}
	kinds := make([]string, 0, len(costs))
	for it := range costs {
		kinds = append(kinds, string(it))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		h.Write([]byte(k))
		putFloat(h, costs[heatindex.Intervention(k)])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func putFloat(h hash.Hash, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	h.Write(buf[:])
}

func (r Request) digest() hash.Hash {
	h := sha256.New()
	putGrid := func(g *raster.Grid) {
		if g == nil {
			h.Write([]byte{0})
			return
		}
		rows, cols := g.Shape()
		putFloat(h, float64(rows))
		putFloat(h, float64(cols))
		for i := 0; i < g.Len(); i++ {
			putFloat(h, g.Index(i))
		}
	}

	h.Write([]byte(r.City))
	putGrid(r.Inputs.B)
	putGrid(r.Inputs.NDVI)
	putGrid(r.Inputs.S)
	putGrid(r.Inputs.Built)
	putFloat(h, r.Inputs.Transform.PixelSizeM)
	putFloat(h, r.Params.CanopyPct())
	putFloat(h, r.Params.RoofPct())
	putFloat(h, r.Params.ParkPct())
	putFloat(h, r.CarbonFactor)
	putFloat(h, r.ThresholdOrDefault())

	levels := make([]string, 0, len(r.CostLevels))
	for it, l := range r.CostLevels {
		levels = append(levels, string(it)+"="+string(l))
	}
	sort.Strings(levels)
	for _, l := range levels {
		h.Write([]byte(l))
	}

	if r.Zones == nil {
		h.Write([]byte("auto"))
	}
	for _, z := range r.Zones {
		h.Write([]byte(z.Type))
		putFloat(h, z.Coverage)
		if z.Mask == nil {
			continue
		}
		rows, cols := z.Mask.Shape()
		bits := make([]byte, 0, rows*cols)
		for i := 0; i < rows*cols; i++ {
			if z.Mask.Index(i) {
				bits = append(bits, 1)
			} else {
				bits = append(bits, 0)
			}
		}
		h.Write(bits)
	}
	return h
}
