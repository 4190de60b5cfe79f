package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/location-reminder-service/internal/adapter/httpapi"
	kafkaadapter "github.com/couchcryptid/location-reminder-service/internal/adapter/kafka"
	"github.com/couchcryptid/location-reminder-service/internal/adapter/locationd"
	"github.com/couchcryptid/location-reminder-service/internal/config"
	"github.com/couchcryptid/location-reminder-service/internal/geofence"
	"github.com/couchcryptid/location-reminder-service/internal/observability"
	"github.com/couchcryptid/location-reminder-service/internal/repository"
	"github.com/couchcryptid/location-reminder-service/internal/store"
	"github.com/couchcryptid/location-reminder-service/internal/transition"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open reminder store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	repo := repository.NewLocal(st, logger)
	daemon := locationd.NewClient(cfg.LocationdURL, cfg.LocationdTimeout, logger)
	prompter := geofence.NewIntervalPrompter(cfg.LocationRetryInterval, nil)

	controller := geofence.New(repo, daemon, daemon, daemon, prompter, cfg.GeofenceRadiusMeters, logger, metrics)

	// Notification sink and transition source are feature-flagged via
	// KAFKA_ENABLED. When disabled, notifications go to the log and no
	// transition consumer runs.
	var notifier transition.Notifier
	var kafkaNotifier *kafkaadapter.Notifier
	if cfg.KafkaEnabled {
		kafkaNotifier = kafkaadapter.NewNotifier(cfg, logger)
		notifier = kafkaNotifier
		logger.Info("kafka notifications enabled", "topic", cfg.KafkaNotificationTopic)
	} else {
		notifier = transition.NewLogNotifier(logger)
		logger.Info("kafka disabled, notifications go to the log")
	}

	handler := transition.NewHandler(repo, notifier, cfg.TransitionWorkers, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, controller, repo, daemon, repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start transition consumer.
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, handler, logger)
		go func() {
			if err := reader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("transition consumer error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			logger.Error("kafka notifier close error", "error", err)
		}
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
