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
	defaultPort            = 8080
	defaultLimit           = 50
	defaultRasterDir       = "data/rasters"
	defaultKafkaTopic      = "heat.scenario.evaluated"
	defaultCacheSize       = 128
	defaultThreshold       = 0.7
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	DatabaseURL     string
	Port            int
	BearerToken     string
	DefaultLimit    int
	RasterDir       string
	CatalogPath     string
	CostLevelsPath  string
	KafkaBrokers    []string
	KafkaTopic      string
	CacheSize       int
	Threshold       float64
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:            defaultPort,
		DefaultLimit:    defaultLimit,
		RasterDir:       defaultRasterDir,
		KafkaTopic:      defaultKafkaTopic,
		CacheSize:       defaultCacheSize,
		Threshold:       defaultThreshold,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: defaultShutdownTimeout,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if limitStr := os.Getenv("API_DEFAULT_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			cfg.DefaultLimit = limit
		} else {
			return cfg, fmt.Errorf("invalid API_DEFAULT_LIMIT: %s", limitStr)
		}
	}

	if dir := strings.TrimSpace(os.Getenv("RASTER_DIR")); dir != "" {
		cfg.RasterDir = dir
	}
	cfg.CatalogPath = strings.TrimSpace(os.Getenv("CITY_CATALOG_PATH"))
	cfg.CostLevelsPath = strings.TrimSpace(os.Getenv("COST_LEVELS_PATH"))

	if brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if topic := strings.TrimSpace(os.Getenv("KAFKA_TOPIC")); topic != "" {
		cfg.KafkaTopic = topic
	}

	if sizeStr := os.Getenv("CACHE_SIZE"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size >= 0 {
			cfg.CacheSize = size
		} else {
			return cfg, fmt.Errorf("invalid CACHE_SIZE: %s", sizeStr)
		}
	}

	if thStr := os.Getenv("HEAT_THRESHOLD"); thStr != "" {
		th, err := strconv.ParseFloat(thStr, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid HEAT_THRESHOLD: %w", err)
		}
		cfg.Threshold = th
	}

	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		cfg.LogLevel = lvl
	}
	if format := strings.TrimSpace(os.Getenv("LOG_FORMAT")); format != "" {
		cfg.LogFormat = format
	}

	if v := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
