package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/report"
	"github.com/Qasimkhan563/urban-heat-explorer/services/api/db"
)

const maxExportRuns = 1000

// handleV1ListRuns returns a paginated run history
// GET /api/v1/runs?page=1&limit=20&city=lisbon&preset=Moderate
func (s *Server) handleV1ListRuns(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil && val > 0 {
			page = val
		}
	}

	limit := s.cfg.DefaultLimit
	if l := c.Query("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	result, err := s.deps.Store.ListRuns(ctx, db.RunQuery{
		City:   s.cityName(c.Query("city")),
		Preset: c.Query("preset"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.Runs,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total_count": result.TotalCount,
			"total_pages": (result.TotalCount + limit - 1) / limit,
		},
	})
}

// handleV1GetRun returns one run
// GET /api/v1/runs/:id
func (s *Server) handleV1GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	run, err := s.deps.Store.GetRun(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": run,
	})
}

// handleV1ExportRuns streams the outcomes of recent runs as CSV
// GET /api/v1/runs/export.csv?city=lisbon
func (s *Server) handleV1ExportRuns(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := s.deps.Store.ListRuns(ctx, db.RunQuery{
		City:   s.cityName(c.Query("city")),
		Preset: c.Query("preset"),
		Limit:  maxExportRuns,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows := make([]report.Row, 0, len(result.Runs)*4)
	for _, r := range result.Runs {
		rows = append(rows, report.RowsFor(r.ID.String(), r.City, r.Preset, r.EvaluatedAt, r.Combined)...)
		rows = append(rows, report.RowsFor(r.ID.String(), r.City, r.Preset, r.EvaluatedAt, r.Outcomes...)...)
	}

	c.Header("Content-Disposition", `attachment; filename="scenario_runs.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, rows); err != nil {
		s.logger.Error("csv export failed", "error", err)
	}
}

// cityName maps a slug to the catalog name; unknown values pass through.
func (s *Server) cityName(key string) string {
	if key == "" {
		return ""
	}
	if city, ok := s.deps.Catalog.Lookup(key); ok {
		return city.Name
	}
	return key
}
