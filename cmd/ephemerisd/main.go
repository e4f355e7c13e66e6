package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/adapter/horizons"
	httpadapter "github.com/Sarks0/deepsix-ephemeris-service/internal/adapter/http"
	kafkaadapter "github.com/Sarks0/deepsix-ephemeris-service/internal/adapter/kafka"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/config"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/ephemeris"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/publisher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := horizons.NewClient(cfg.HorizonsBaseURL, cfg.HorizonsTimeout, cfg.HorizonsRateLimit, metrics, logger)
	var source domain.EphemerisSource = horizons.NewCachedSource(client, cfg.CacheSize, metrics)

	svc := ephemeris.New(source, logger, metrics, cfg.HorizonsTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Snapshot publisher (feature-flagged via PUBLISHER_ENABLED).
	var pub *publisher.Publisher
	var writer *kafkaadapter.Writer
	var ready httpadapter.ReadinessChecker
	if cfg.PublisherEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		pub = publisher.New(svc, writer, logger, metrics, cfg.PublishInterval)
		ready = pub
		logger.Info("snapshot publisher enabled",
			"interval", cfg.PublishInterval,
			"topic", cfg.KafkaSinkTopic,
		)

		go func() {
			if err := pub.Run(ctx); err != nil {
				logger.Error("publisher error", "error", err)
			}
		}()
	} else {
		logger.Info("snapshot publisher disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, ready, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
