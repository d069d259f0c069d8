package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/crzdata/congestion-etl/internal/adapter/csvfile"
	httpadapter "github.com/crzdata/congestion-etl/internal/adapter/http"
	"github.com/crzdata/congestion-etl/internal/config"
	"github.com/crzdata/congestion-etl/internal/domain"
	"github.com/crzdata/congestion-etl/internal/observability"
	"github.com/crzdata/congestion-etl/internal/pipeline"
	"github.com/crzdata/congestion-etl/internal/store"
)

func main() {
	// Local runs keep their settings in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if err := st.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	extractor := csvfile.NewExtractor(cfg.CSVPath, logger)
	resolver := domain.NewResolver(domain.DefaultAliasTable())

	p := pipeline.New(extractor, st, st, st, resolver, logger, metrics, pipeline.Settings{
		BatchSize:       cfg.BatchSize,
		FailFast:        cfg.FailFast,
		TimestampLayout: cfg.TimestampLayout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The operational server is optional: a plain batch run completes and
	// exits without it.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	report, runErr := p.Run(ctx)

	if srv != nil {
		srv.RecordReport(report)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		cancel()
	}

	if err := extractor.Close(); err != nil {
		logger.Error("csv close error", "error", err)
	}
	if err := st.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	if runErr != nil {
		logger.Error("run ended in failure", "stage", report.Stage, "error", runErr)
		os.Exit(1)
	}
}
