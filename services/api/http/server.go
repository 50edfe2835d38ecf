package http

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/catalog"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/geo"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/observability"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/publish"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
	"github.com/Qasimkhan563/urban-heat-explorer/services/api/config"
	"github.com/Qasimkhan563/urban-heat-explorer/services/api/db"
)

// RunStore persists scenario runs.
type RunStore interface {
	InsertRun(ctx context.Context, r db.ScenarioRun) error
	ListRuns(ctx context.Context, q db.RunQuery) (*db.RunsPage, error)
	GetRun(ctx context.Context, id uuid.UUID) (*db.ScenarioRun, error)
}

// FeedbackStore persists stakeholder feedback.
type FeedbackStore interface {
	InsertFeedback(ctx context.Context, fb geo.Feedback) error
	ListFeedback(ctx context.Context, city string, limit int) ([]geo.Feedback, error)
}

// Store is everything the API reads and writes.
type Store interface {
	RunStore
	FeedbackStore
}

// Publisher emits scenario events.
type Publisher interface {
	Publish(ctx context.Context, events ...publish.ScenarioEvent) error
}

// Deps are the collaborators of the server. Publisher, Metrics and Gatherer
// are optional.
type Deps struct {
	Store      Store
	Evaluator  workflow.Evaluator
	Model      heatindex.Model
	Catalog    *catalog.Catalog
	CostLevels planning.CostLevels
	Publisher  Publisher
	Metrics    *observability.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *slog.Logger
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	deps   Deps
	logger *slog.Logger
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	if cfg.BearerToken != "" {
		engine.Use(bearerAuthMiddleware(cfg.BearerToken, "/healthz", "/metrics"))
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.CostLevels == nil {
		deps.CostLevels = planning.DefaultCostLevels()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	server := &Server{cfg: cfg, deps: deps, logger: deps.Logger, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	s.registerV1Routes()
}

func bearerAuthMiddleware(expected string, open ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range open {
			if c.Request.URL.Path == p {
				c.Next()
				return
			}
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}

// statusFor maps model errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		shape   *heatindex.ShapeMismatchError
		param   *heatindex.InvalidParameterError
		rng     *heatindex.OutOfRangeError
		empty   *heatindex.EmptyRasterError
		missing *missingInputError
	)
	switch {
	case errors.As(err, &shape), errors.As(err, &param), errors.As(err, &rng), errors.As(err, &missing),
		errors.Is(err, workflow.ErrNoZones):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &empty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
