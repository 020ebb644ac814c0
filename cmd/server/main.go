// Package main runs the dashboard HTTP API:
// - upload a trade export and query dashboards for it
// - query the dashboard of the configured default source
// - Prometheus metrics on /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"trade-eda/internal/api"
	"trade-eda/internal/config"
	"trade-eda/internal/ingestion"
	"trade-eda/internal/logger"
	"trade-eda/internal/pipeline"
	"trade-eda/internal/storage/memory"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (env config as defaults)
	flag.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address")
	flag.StringVar(&cfg.Data.Path, "input", cfg.Data.Path, "Default trade export file (.csv, .xlsx or .xlsm)")
	flag.StringVar(&cfg.Data.Sheet, "sheet", cfg.Data.Sheet, "Workbook sheet, first sheet when empty")
	flag.StringVar(&cfg.Data.PostgresDSN, "postgres-dsn", cfg.Data.PostgresDSN, "PostgreSQL connection string")
	flag.StringVar(&cfg.Data.ClickhouseDSN, "clickhouse-dsn", cfg.Data.ClickhouseDSN, "ClickHouse connection string")
	flag.Parse()

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache := pipeline.NewCache(memory.NewDatasetStore(), cfg.Cache.MaxEntries).WithLogger(log)
	loader := pipeline.NewLoader(cache, log)
	loc, err := cfg.Dashboard.Location()
	if err != nil {
		return err
	}
	dashboard := pipeline.NewDashboard().
		WithLocation(loc).
		WithPreviewRows(cfg.Dashboard.PreviewRows).
		WithTopContracts(cfg.Dashboard.TopContracts)

	srv := api.NewServer(loader, dashboard).
		WithUploadLimit(cfg.Server.UploadMaxBytes).
		WithLogger(log)

	src, release, err := ingestion.Open(ctx, cfg.IngestionSpec())
	switch {
	case errors.Is(err, ingestion.ErrNoData):
		log.Warn("no default source configured, serving uploads only")
	case err != nil:
		return err
	default:
		defer release()
		srv = srv.WithDefaultSource(src)

		// Warm the cache so the first dashboard request is served from memory.
		if ds, err := loader.Load(ctx, src); err != nil {
			log.Warn("default source not loaded", zap.String("source", src.Name()), zap.Error(err))
		} else {
			log.Info("default source loaded", zap.String("source", src.Name()), zap.String("dataset_id", ds.ID))
		}
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("received shutdown signal, initiating graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
