package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/asset-rating-service/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/asset-rating-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/asset-rating-service/internal/adapter/kafka"
	"github.com/couchcryptid/asset-rating-service/internal/config"
	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/couchcryptid/asset-rating-service/internal/observability"
	"github.com/couchcryptid/asset-rating-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	store, err := filestore.New(cfg.UploadDir, cfg.OutputDir, cfg.OutputFilePrefix, clock, logger)
	if err != nil {
		logger.Error("failed to initialize file store", "error", err)
		os.Exit(1)
	}

	// Rated rows are published to Kafka only when brokers are configured.
	var sink pipeline.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, clock, logger)
		sink = writer
		logger.Info("kafka rating sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaRatingsTopic)
	} else {
		logger.Info("kafka rating sink disabled")
	}

	rater := domain.NewRater(clock)
	p := pipeline.New(rater, store, sink, logger, metrics)

	var sweeper *filestore.Sweeper
	if cfg.OutputRetention > 0 {
		sweeper = filestore.NewSweeper(store, cfg.OutputRetention, logger, metrics)
		if err := sweeper.Start(cfg.OutputSweepSchedule); err != nil {
			logger.Error("failed to start output sweeper", "error", err)
			os.Exit(1)
		}
	}

	srv := httpadapter.NewServer(
		httpadapter.Options{
			Addr:           cfg.HTTPAddr,
			AllowedOrigin:  cfg.CORSOrigin,
			MaxUploadBytes: cfg.MaxUploadBytes,
		},
		httpadapter.Services{
			Rater:   rater,
			Batch:   p,
			Files:   store,
			Ready:   store,
			Metrics: metrics,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
