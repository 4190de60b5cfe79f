// Package config loads service settings from environment variables,
// applying defaults where unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings.
type Config struct {
	DBPath          string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Locationd is the external geofencing daemon.
	LocationdURL     string
	LocationdTimeout time.Duration

	GeofenceRadiusMeters  float64
	TransitionWorkers     int
	LocationRetryInterval time.Duration

	// Kafka transition/notification transport, feature-flagged via
	// KAFKA_ENABLED. When disabled, notifications go to the log and no
	// transition consumer runs.
	KafkaEnabled           bool
	KafkaBrokers           []string
	KafkaTransitionTopic   string
	KafkaNotificationTopic string
	KafkaGroupID           string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	locationdTimeout, err := parseDuration("LOCATIOND_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	radius, err := parseRadius()
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("TRANSITION_WORKERS", 8)
	if err != nil {
		return nil, err
	}

	retryInterval, err := parseDuration("LOCATION_RETRY_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DBPath:          envOrDefault("DB_PATH", "data/reminders.db"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LocationdURL:     envOrDefault("LOCATIOND_URL", "http://localhost:7070"),
		LocationdTimeout: locationdTimeout,

		GeofenceRadiusMeters:  radius,
		TransitionWorkers:     workers,
		LocationRetryInterval: retryInterval,

		KafkaEnabled:           kafkaEnabled,
		KafkaBrokers:           parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTransitionTopic:   envOrDefault("KAFKA_TRANSITION_TOPIC", "geofence-transitions"),
		KafkaNotificationTopic: envOrDefault("KAFKA_NOTIFICATION_TOPIC", "reminder-notifications"),
		KafkaGroupID:           envOrDefault("KAFKA_GROUP_ID", "location-reminder-service"),
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.LocationdURL == "" {
		return nil, errors.New("LOCATIOND_URL is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaTransitionTopic == "" {
			return nil, errors.New("KAFKA_TRANSITION_TOPIC is required")
		}
		if cfg.KafkaNotificationTopic == "" {
			return nil, errors.New("KAFKA_NOTIFICATION_TOPIC is required")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseRadius() (float64, error) {
	s := os.Getenv("GEOFENCE_RADIUS_M")
	if s == "" {
		return 100, nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 {
		return 0, errors.New("invalid GEOFENCE_RADIUS_M")
	}
	return r, nil
}
