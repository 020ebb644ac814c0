// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"trade-eda/internal/ingestion"
)

// EnvPrefix prefixes every environment variable, e.g. TRADE_EDA_DATA_PATH.
const EnvPrefix = "TRADE_EDA"

// Config represents the complete application configuration.
//
// Keys are derived from field names with split_words, so Data.PostgresDSN
// reads TRADE_EDA_DATA_POSTGRES_DSN. Fields must not carry an envconfig
// tag: a tagged field also reads its bare name (PATH, ADDR, LEVEL) when the
// prefixed variable is unset.
type Config struct {
	Data      DataConfig
	Server    ServerConfig
	Dashboard DashboardConfig
	Cache     CacheConfig
	Log       LogConfig
}

// DataConfig selects the default trade table. The first configured location
// wins: Postgres, then ClickHouse, then Path.
type DataConfig struct {
	Path            string `split_words:"true" default:"trades_export.csv"`
	Sheet           string `split_words:"true"`
	PostgresDSN     string `split_words:"true"`
	PostgresQuery   string `split_words:"true"`
	ClickhouseDSN   string `split_words:"true"`
	ClickhouseQuery string `split_words:"true"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr            string        `split_words:"true" default:":8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	UploadMaxBytes  int64         `split_words:"true" default:"33554432"`
}

// DashboardConfig contains dashboard output limits.
type DashboardConfig struct {
	PreviewRows  int    `split_words:"true" default:"50"`
	TopContracts int    `split_words:"true" default:"15"`
	Timezone     string // IANA name for "today"; empty means the local zone
}

// CacheConfig bounds the dataset cache.
type CacheConfig struct {
	MaxEntries int `split_words:"true" default:"16"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level             string `split_words:"true" default:"info"`
	Encoding          string `split_words:"true" default:"json"`
	Development       bool   `split_words:"true" default:"false"`
	DisableCaller     bool   `split_words:"true" default:"false"`
	DisableStacktrace bool   `split_words:"true" default:"true"`
	Sampling          bool   `split_words:"true" default:"false"`
}

// Load reads configuration from TRADE_EDA_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Dashboard.PreviewRows < 0 {
		return fmt.Errorf("preview rows must be >= 0, got %d", c.Dashboard.PreviewRows)
	}
	if c.Dashboard.TopContracts <= 0 {
		return fmt.Errorf("top contracts must be > 0, got %d", c.Dashboard.TopContracts)
	}
	if _, err := c.Dashboard.Location(); err != nil {
		return err
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be > 0, got %d", c.Cache.MaxEntries)
	}
	if c.Server.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be > 0, got %d", c.Server.UploadMaxBytes)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log encoding must be json or console, got %q", c.Log.Encoding)
	}
	return nil
}

// Location returns the time zone whose calendar date counts as today.
func (c DashboardConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("dashboard timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IngestionSpec returns the default source location.
func (c *Config) IngestionSpec() ingestion.Spec {
	return ingestion.Spec{
		Path:            c.Data.Path,
		Sheet:           c.Data.Sheet,
		PostgresDSN:     c.Data.PostgresDSN,
		PostgresQuery:   c.Data.PostgresQuery,
		ClickHouseDSN:   c.Data.ClickhouseDSN,
		ClickHouseQuery: c.Data.ClickhouseQuery,
	}
}
