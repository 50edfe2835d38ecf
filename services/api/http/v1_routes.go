package http

// registerV1Routes sets up the v1 API structure
// Groups: /api/v1/core, /api/v1/scenario, /api/v1/runs, /api/v1/feedback
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header

	// Core endpoints - static reference data
	core := v1.Group("/core")
	{
		core.GET("/cities", s.handleV1ListCities)
		core.GET("/presets", s.handleV1ListPresets)
		core.GET("/cost-levels", s.handleV1CostLevels)
		core.GET("/challenges", s.handleV1ListChallenges)
	}

	// Scenario endpoints - model evaluation
	scenario := v1.Group("/scenario")
	{
		scenario.POST("/evaluate", s.handleV1Evaluate)
		scenario.POST("/baseline", s.handleV1Baseline)
		scenario.POST("/twin", s.handleV1Twin)
		scenario.POST("/hotspots", s.handleV1Hotspots)
	}

	// Run history
	runs := v1.Group("/runs")
	{
		runs.GET("", s.handleV1ListRuns)
		runs.GET("/export.csv", s.handleV1ExportRuns)
		runs.GET("/:id", s.handleV1GetRun)
	}

	feedback := v1.Group("/feedback")
	{
		feedback.POST("", s.handleV1SubmitFeedback)
		feedback.GET("", s.handleV1ListFeedback)
	}
}
