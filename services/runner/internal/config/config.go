package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRasterDir      = "data/rasters"
	defaultRequestTimeout = 30 * time.Second
	defaultRunTimeout     = 15 * time.Minute
	defaultThreshold      = 0.7
	defaultCarbonFactor   = 1.0
	defaultConcurrency    = 2
	defaultKafkaTopic     = "heat.scenario.evaluated"
)

// Config holds runtime configuration for the batch runner.
type Config struct {
	DatabaseURL    string
	CatalogURL     string
	CatalogPath    string
	CostLevelsPath string
	RasterDir      string
	RequestTimeout time.Duration
	RunTimeout     time.Duration
	Threshold      float64
	CarbonFactor   float64
	Concurrency    int
	KafkaBrokers   []string
	KafkaTopic     string
	PushgatewayURL string
	LogLevel       string
	LogFormat      string
	DryRun         bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	// a dry run only logs, so it needs no database
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" && !cfg.DryRun {
		return cfg, errors.New("DATABASE_URL is required")
	}

	cfg.CatalogURL = strings.TrimSpace(os.Getenv("CATALOG_URL"))
	cfg.CatalogPath = strings.TrimSpace(os.Getenv("CITY_CATALOG_PATH"))
	cfg.CostLevelsPath = strings.TrimSpace(os.Getenv("COST_LEVELS_PATH"))

	cfg.RasterDir = strings.TrimSpace(os.Getenv("RASTER_DIR"))
	if cfg.RasterDir == "" {
		cfg.RasterDir = defaultRasterDir
	}

	cfg.RequestTimeout = defaultRequestTimeout
	if v := strings.TrimSpace(os.Getenv("RUNNER_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid RUNNER_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}

	cfg.RunTimeout = defaultRunTimeout
	if v := strings.TrimSpace(os.Getenv("RUNNER_RUN_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid RUNNER_RUN_TIMEOUT: %w", err)
		}
		cfg.RunTimeout = d
	}

	cfg.Threshold = defaultThreshold
	if v := strings.TrimSpace(os.Getenv("HEAT_THRESHOLD")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid HEAT_THRESHOLD: %w", err)
		}
		cfg.Threshold = f
	}

	cfg.CarbonFactor = defaultCarbonFactor
	if v := strings.TrimSpace(os.Getenv("CARBON_FACTOR")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid CARBON_FACTOR: %w", err)
		}
		cfg.CarbonFactor = f
	}

	cfg.Concurrency = defaultConcurrency
	if v := strings.TrimSpace(os.Getenv("RUNNER_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid RUNNER_CONCURRENCY: %s", v)
		}
		cfg.Concurrency = n
	}

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.KafkaTopic = strings.TrimSpace(os.Getenv("KAFKA_TOPIC"))
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = defaultKafkaTopic
	}

	cfg.PushgatewayURL = strings.TrimSpace(os.Getenv("PUSHGATEWAY_URL"))

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	cfg.LogFormat = strings.TrimSpace(os.Getenv("LOG_FORMAT"))

	return cfg, nil
}
