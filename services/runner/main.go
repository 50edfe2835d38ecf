package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"golang.org/x/sync/errgroup"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/catalog"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/observability"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/publish"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/raster"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/config"
	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/db"
	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/models"
	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/source"
	"github.com/Qasimkhan563/urban-heat-explorer/services/runner/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("runner failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	defer pushMetrics(cfg.PushgatewayURL, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	return runBatch(ctx, cfg, logger, metrics)
}

// runBatch evaluates the catalog and stores and publishes the changed runs.
// A dry run never touches the database or Kafka.
func runBatch(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	cities, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "cities", len(cities.Cities()), "remote", cfg.CatalogURL != "")

	levels := planning.DefaultCostLevels()
	if cfg.CostLevelsPath != "" {
		f, err := os.Open(cfg.CostLevelsPath)
		if err != nil {
			return err
		}
		levels, err = planning.LoadCostLevels(f)
		f.Close()
		if err != nil {
			return err
		}
	}
	engine, err := workflow.NewEngine(heatindex.DefaultModel(), levels, logger)
	if err != nil {
		return err
	}

	evals := evaluateAll(ctx, engine, cities.Cities(), cfg, logger, metrics)
	if len(evals) == 0 {
		logger.Info("no evaluations produced")
		return nil
	}
	for preset, ranking := range utils.RankByPreset(evals) {
		if len(ranking) > 0 {
			logger.Info("city ranking", "preset", preset, "best_city", ranking[0].City, "best_scenario", ranking[0].Best.Scenario, "cities", len(ranking))
		}
	}

	rows := utils.BuildRunRows(evals)
	if cfg.DryRun {
		for _, row := range rows {
			logger.Info("dry-run: would upsert run", "run", utils.Summary(row))
		}
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	last, err := db.FetchLastInputKeys(ctx, pool, utils.Cities(rows))
	if err != nil {
		return err
	}
	pending := utils.FilterChangedRuns(rows, last)
	if skipped := len(rows) - len(pending); skipped > 0 {
		metrics.CityRuns.WithLabelValues("skipped").Add(float64(skipped))
	}

	if len(pending) == 0 {
		logger.Info("no changed runs to store", "evaluated", len(rows))
		return nil
	}

	logger.Info("prepared changed runs", "count", len(pending))

	if err := db.UpsertRuns(ctx, pool, pending); err != nil {
		return err
	}
	logger.Info("upserted runs", "count", len(pending))

	if len(cfg.KafkaBrokers) > 0 {
		writer := publish.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger, metrics)
		defer writer.Close()
		if err := writer.Publish(ctx, utils.EventsFor(pending, evals)...); err != nil {
			return err
		}
	}
	return nil
}

func loadCatalog(ctx context.Context, cfg config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogURL == "" {
		return catalog.Load(cfg.CatalogPath)
	}
	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	client := &http.Client{Timeout: cfg.RequestTimeout}
	return source.FetchCatalog(reqCtx, client, cfg.CatalogURL)
}

// evaluateAll runs every preset for every city. Cities whose rasters cannot
// be loaded or evaluated are logged and skipped.
func evaluateAll(ctx context.Context, ev workflow.Evaluator, cities []catalog.City, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) []models.Evaluated {
	var (
		mu  sync.Mutex
		out = make(map[string][]models.Evaluated, len(cities))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for _, city := range cities {
		city := city
		g.Go(func() error {
			res, err := evaluateCity(gctx, ev, city, cfg, metrics)
			if err != nil {
				logger.Warn("city skipped", "city", city.Name, "error", err)
				metrics.CityRuns.WithLabelValues("failed").Inc()
				return nil
			}
			mu.Lock()
			out[city.Slug] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// catalog order
	evals := make([]models.Evaluated, 0, len(cities)*len(planning.Presets()))
	for _, city := range cities {
		evals = append(evals, out[city.Slug]...)
	}
	return evals
}

func evaluateCity(ctx context.Context, ev workflow.Evaluator, city catalog.City, cfg config.Config, metrics *observability.Metrics) ([]models.Evaluated, error) {
	in, err := workflow.LoadInputs(city.RasterPath(cfg.RasterDir), city.Transform, raster.DefaultBandOptions())
	if err != nil {
		return nil, err
	}

	presets := planning.Presets()
	res := make([]models.Evaluated, 0, len(presets))
	for _, preset := range presets {
		p, err := preset.Params()
		if err != nil {
			return nil, err
		}
		state, err := workflow.NewState().WithCity(city.Name).WithParams(p)
		if err != nil {
			return nil, err
		}
		if state, err = state.WithCosts(nil, cfg.CarbonFactor); err != nil {
			return nil, err
		}
		req, err := state.Request(in, cfg.Threshold)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		evaluation, err := ev.Evaluate(ctx, req)
		metrics.ObserveEvaluation(start, err)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", preset.Name, err)
		}
		metrics.CityRuns.WithLabelValues("evaluated").Inc()
		res = append(res, models.Evaluated{Preset: preset.Name, Evaluation: evaluation})
	}
	return res, nil
}

func pushMetrics(url string, logger *slog.Logger) {
	if url == "" {
		return
	}
	if err := push.New(url, "heat_runner").Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		logger.Warn("push metrics failed", "error", err)
	}
}
