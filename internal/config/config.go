package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Horizons upstream configuration.
	HorizonsBaseURL   string
	HorizonsTimeout   time.Duration
	HorizonsRateLimit float64 // requests per second against the upstream
	CacheSize         int

	// Snapshot publisher configuration.
	PublisherEnabled bool
	PublishInterval  time.Duration
	KafkaBrokers     []string
	KafkaSinkTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	horizonsTimeout, err := parseDuration("HORIZONS_TIMEOUT", 8*time.Second)
	if err != nil {
		return nil, err
	}

	publishInterval, err := parseDuration("PUBLISH_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	rateLimit := 1.0
	if s := os.Getenv("HORIZONS_RATE_LIMIT"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return nil, errors.New("invalid HORIZONS_RATE_LIMIT")
		}
		rateLimit = v
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		HorizonsBaseURL:   envOrDefault("HORIZONS_BASE_URL", "https://ssd.jpl.nasa.gov/api/horizons.api"),
		HorizonsTimeout:   horizonsTimeout,
		HorizonsRateLimit: rateLimit,
		CacheSize:         parseCacheSize(),

		PublisherEnabled: os.Getenv("PUBLISHER_ENABLED") == "true",
		PublishInterval:  publishInterval,
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "ephemeris-snapshots"),
	}

	if cfg.HorizonsBaseURL == "" {
		return nil, errors.New("HORIZONS_BASE_URL is required")
	}
	if cfg.PublisherEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("PUBLISHER_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("PUBLISHER_ENABLED is true but KAFKA_SINK_TOPIC is not set")
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

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseCacheSize() int {
	if s := os.Getenv("EPHEMERIS_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
