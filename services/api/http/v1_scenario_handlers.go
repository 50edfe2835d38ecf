package http

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/geo"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/publish"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/spatial"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
	"github.com/Qasimkhan563/urban-heat-explorer/services/api/db"
)

const (
	evaluateTimeout = 30 * time.Second
	defaultHotspots = 10
)

// handleV1Evaluate runs a full scenario and records it
// POST /api/v1/scenario/evaluate
func (s *Server) handleV1Evaluate(c *gin.Context) {
	var body scenarioRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req, preset, err := s.buildRequest(c.Request.Context(), body)
	if err != nil {
		s.fail(c, err)
		return
	}
	challenges, err := body.challenges()
	if err != nil {
		s.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), evaluateTimeout)
	defer cancel()

	start := time.Now()
	ev, err := s.deps.Evaluator.Evaluate(ctx, req)
	s.deps.Metrics.ObserveEvaluation(start, err)
	if err != nil {
		s.fail(c, err)
		return
	}

	run := runFromEvaluation(ev, preset, "api")
	if err := s.deps.Store.InsertRun(ctx, run); err != nil {
		s.fail(c, err)
		return
	}

	if s.deps.Publisher != nil {
		event := publish.NewScenarioEvent("api", preset, ev)
		if err := s.deps.Publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish scenario event failed", "run_id", run.ID, "error", err)
		}
	}

	best, _ := planning.BestOutcome(ev.Outcomes)
	results := make([]planning.ChallengeResult, 0, len(challenges))
	for _, ch := range challenges {
		results = append(results, ch.Evaluate(ev.Combined))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"run_id":     run.ID,
			"preset":     preset,
			"evaluation": ev,
			"best":       best,
			"efficiency": planning.EfficiencyOf(ev.Combined),
			"challenges": results,
		},
	})
}

// handleV1Baseline returns the baseline heat-index raster and its summary
// POST /api/v1/scenario/baseline
func (s *Server) handleV1Baseline(c *gin.Context) {
	var body scenarioRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	in, err := s.inputs(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	hi, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		s.fail(c, err)
		return
	}

	threshold := s.threshold(body)
	area, err := heatindex.AreaAboveThreshold(hi, in.Transform.CellAreaKm2(), threshold)
	if err != nil {
		s.fail(c, err)
		return
	}
	lo, hiMax, err := raster.MinMax(hi)
	if err != nil {
		s.fail(c, &heatindex.EmptyRasterError{Op: "baseline"})
		return
	}
	mean, _ := raster.Mean(hi)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"rows": raster.ToNullableRows(hi),
		},
		"meta": gin.H{
			"rows":                     hi.Rows(),
			"cols":                     hi.Cols(),
			"valid_cells":              hi.ValidCount(),
			"min":                      lo,
			"max":                      hiMax,
			"mean":                     mean,
			"threshold":                threshold,
			"area_above_threshold_km2": area,
		},
	})
}

// handleV1Twin projects the scenario over the twin horizon
// POST /api/v1/scenario/twin
func (s *Server) handleV1Twin(c *gin.Context) {
	var body scenarioRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req, _, err := s.buildRequest(c.Request.Context(), body)
	if err != nil {
		s.fail(c, err)
		return
	}
	zones, err := s.zonesFor(req)
	if err != nil {
		s.fail(c, err)
		return
	}

	years := body.Years
	if len(years) == 0 {
		years = planning.AllYears()
	}
	for _, y := range years {
		if y < 0 || y > planning.TwinHorizonYears {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("year %d outside 0..%d", y, planning.TwinHorizonYears)})
			return
		}
	}
	points, err := planning.ProjectTwin(planning.TwinInputs{
		B:           req.Inputs.B,
		NDVI:        req.Inputs.NDVI,
		S:           req.Inputs.S,
		Zones:       zones,
		Params:      req.Params,
		Model:       s.deps.Model,
		CellAreaKm2: req.Inputs.Transform.CellAreaKm2(),
		Threshold:   req.ThresholdOrDefault(),
	}, years)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": points,
		"meta": gin.H{
			"city":           req.City,
			"horizon_years":  planning.TwinHorizonYears,
			"snapshot_years": planning.SnapshotYears,
		},
	})
}

// handleV1Hotspots returns the hottest baseline cells as GeoJSON points
// POST /api/v1/scenario/hotspots
func (s *Server) handleV1Hotspots(c *gin.Context) {
	var body scenarioRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	in, err := s.inputs(body)
	if err != nil {
		s.fail(c, err)
		return
	}
	hi, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		s.fail(c, err)
		return
	}
	built := in.Built
	if built == nil {
		rows, cols := hi.Shape()
		if built, err = raster.Filled(rows, cols, math.NaN()); err != nil {
			s.fail(c, err)
			return
		}
	}

	limit := body.Limit
	if limit <= 0 {
		limit = defaultHotspots
	}
	hotspots, err := planning.TopHotspots(hi, built, in.NDVI, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	idx := spatial.NewIndex(hotspots, in.Transform)
	if body.Near != nil {
		c.JSON(http.StatusOK, geo.HotspotCollection(idx.Nearest(body.Near[0], body.Near[1], limit)))
		return
	}
	box := extent(hi, in.Transform)
	if body.BBox != nil {
		box = spatial.BBox{MinX: body.BBox[0], MinY: body.BBox[1], MaxX: body.BBox[2], MaxY: body.BBox[3]}
	}
	located, err := idx.Within(box)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, geo.HotspotCollection(located))
}

// zonesFor returns the request zones, delineating them when none were given.
func (s *Server) zonesFor(req workflow.Request) ([]heatindex.Zone, error) {
	if req.Zones != nil {
		return req.Zones, nil
	}
	in := req.Inputs
	baseline, err := heatindex.ComputeBaseline(in.B, in.NDVI, in.S)
	if err != nil {
		return nil, err
	}
	return workflow.ResolveZones(req, baseline, planning.DefaultZoningRules())
}

// extent is the bounding box of the whole grid.
func extent(g *raster.Grid, gt raster.GeoTransform) spatial.BBox {
	rows, cols := g.Shape()
	return spatial.BBox{
		MinX: gt.OriginX,
		MinY: gt.OriginY - float64(rows)*gt.PixelSizeM,
		MaxX: gt.OriginX + float64(cols)*gt.PixelSizeM,
		MaxY: gt.OriginY,
	}
}

func runFromEvaluation(ev *workflow.Evaluation, preset, source string) db.ScenarioRun {
	return db.ScenarioRun{
		ID:              uuid.New(),
		InputKey:        ev.Key,
		City:            ev.City,
		Preset:          preset,
		Source:          source,
		CanopyPct:       ev.Params.CanopyPct(),
		RoofPct:         ev.Params.RoofPct(),
		ParkPct:         ev.Params.ParkPct(),
		BaselineAreaKm2: ev.BaselineAreaKm2,
		Combined:        ev.Combined,
		Outcomes:        ev.Outcomes,
		EvaluatedAt:     ev.EvaluatedAt,
	}
}
