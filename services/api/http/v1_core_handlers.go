package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
)

// handleV1ListCities returns the city catalog
// GET /api/v1/core/cities
func (s *Server) handleV1ListCities(c *gin.Context) {
	cities := s.deps.Catalog.Cities()
	c.JSON(http.StatusOK, gin.H{
		"data": cities,
		"meta": gin.H{
			"count": len(cities),
		},
	})
}

// handleV1ListPresets returns the named intervention presets
// GET /api/v1/core/presets
func (s *Server) handleV1ListPresets(c *gin.Context) {
	presets := planning.Presets()
	c.JSON(http.StatusOK, gin.H{
		"data": presets,
		"meta": gin.H{
			"count":          len(presets),
			"slider_max_pct": planning.SliderMaxPct,
		},
	})
}

// handleV1CostLevels returns unit price bands in EUR/m²
// GET /api/v1/core/cost-levels
func (s *Server) handleV1CostLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": s.deps.CostLevels,
		"meta": gin.H{
			"unit":                  "EUR/m2",
			"default_level":         planning.CostMedium,
			"carbon_factor_min":     planning.CarbonFactorMin,
			"carbon_factor_max":     planning.CarbonFactorMax,
			"carbon_factor_default": planning.CarbonFactorDefault,
		},
	})
}

// handleV1ListChallenges returns the policy challenges
// GET /api/v1/core/challenges
func (s *Server) handleV1ListChallenges(c *gin.Context) {
	challenges := planning.Challenges()
	c.JSON(http.StatusOK, gin.H{
		"data": challenges,
		"meta": gin.H{
			"count": len(challenges),
		},
	})
}
