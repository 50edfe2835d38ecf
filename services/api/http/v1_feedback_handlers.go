package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/geo"
)

type feedbackRequest struct {
	City        string           `json:"city" binding:"required"`
	Feature     *geojson.Feature `json:"feature" binding:"required"`
	UserID      string           `json:"user_id,omitempty"`
	Name        string           `json:"name,omitempty"`
	Profession  string           `json:"profession,omitempty"`
	Company     string           `json:"company,omitempty"`
	Nationality string           `json:"nationality,omitempty"`
}

// handleV1SubmitFeedback stores a stakeholder proposal
// POST /api/v1/feedback
func (s *Server) handleV1SubmitFeedback(c *gin.Context) {
	var body feedbackRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	who := geo.Submitter{
		Name:        body.Name,
		Profession:  body.Profession,
		Company:     body.Company,
		Nationality: body.Nationality,
	}
	if body.UserID != "" {
		id, err := uuid.Parse(body.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		who.UserID = id
	}

	fb, err := geo.NewFeedback(s.cityName(body.City), body.Feature, who)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := s.deps.Store.InsertFeedback(ctx, fb); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.FeedbackReceived.Inc()
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": fb,
	})
}

// handleV1ListFeedback returns stored proposals as a FeatureCollection
// GET /api/v1/feedback?city=lisbon&limit=100
func (s *Server) handleV1ListFeedback(c *gin.Context) {
	limit := s.cfg.DefaultLimit
	if l := c.Query("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = val
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	items, err := s.deps.Store.ListFeedback(ctx, s.cityName(c.Query("city")), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, geo.FeedbackCollection(items))
}
