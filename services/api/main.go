package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/cache"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/catalog"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/heatindex"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/observability"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/planning"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/publish"
	"github.com/Qasimkhan563/urban-heat-explorer/internal/workflow"
	"github.com/Qasimkhan563/urban-heat-explorer/services/api/config"
	"github.com/Qasimkhan563/urban-heat-explorer/services/api/db"
	httpserver "github.com/Qasimkhan563/urban-heat-explorer/services/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cities, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog error: %v", err)
	}

	levels := planning.DefaultCostLevels()
	if cfg.CostLevelsPath != "" {
		f, err := os.Open(cfg.CostLevelsPath)
		if err != nil {
			log.Fatalf("cost levels error: %v", err)
		}
		levels, err = planning.LoadCostLevels(f)
		f.Close()
		if err != nil {
			log.Fatalf("cost levels error: %v", err)
		}
	}

	engine, err := workflow.NewEngine(heatindex.DefaultModel(), levels, logger)
	if err != nil {
		log.Fatalf("model error: %v", err)
	}
	var evaluator workflow.Evaluator = engine
	if cfg.CacheSize > 0 {
		evaluator = cache.NewCachedEvaluator(engine, cfg.CacheSize, metrics)
	}

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	deps := httpserver.Deps{
		Store:      store,
		Evaluator:  evaluator,
		Model:      engine.Model(),
		Catalog:    cities,
		CostLevels: levels,
		Metrics:    metrics,
		Logger:     logger,
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := publish.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger, metrics)
		defer writer.Close()
		deps.Publisher = writer
	}

	srv := httpserver.New(cfg, deps)
	logger.Info("REST API listening",
		"addr", cfg.ListenAddr(),
		"cities", len(cities.Cities()),
		"kafka", len(cfg.KafkaBrokers) > 0,
		"cache_size", cfg.CacheSize,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
