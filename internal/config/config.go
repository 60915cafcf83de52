package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	CORSOrigin      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Batch upload and output file handling.
	UploadDir        string
	OutputDir        string
	OutputFilePrefix string
	MaxUploadBytes   int64

	// Output retention sweep. A zero retention disables sweeping.
	OutputRetention     time.Duration
	OutputSweepSchedule string

	// Optional Kafka sink for rated batch rows.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaRatingsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	retention, err := parseDuration("OUTPUT_RETENTION", "24h")
	if err != nil {
		return nil, err
	}
	if retention < 0 {
		return nil, errors.New("invalid OUTPUT_RETENTION: must not be negative")
	}

	maxUpload, err := parseMaxUploadBytes()
	if err != nil {
		return nil, err
	}

	sweepSchedule := envOrDefault("OUTPUT_SWEEP_SCHEDULE", "@every 1h")
	if retention > 0 {
		if _, err := cron.ParseStandard(sweepSchedule); err != nil {
			return nil, fmt.Errorf("invalid OUTPUT_SWEEP_SCHEDULE: %w", err)
		}
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", defaultHTTPAddr()),
		CORSOrigin:      envOrDefault("CORS_ORIGIN", "*"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UploadDir:        envOrDefault("UPLOAD_DIR", "uploads"),
		OutputDir:        envOrDefault("OUTPUT_DIR", "output"),
		OutputFilePrefix: envOrDefault("OUTPUT_FILE_PREFIX", "rated_assets_"),
		MaxUploadBytes:   maxUpload,

		OutputRetention:     retention,
		OutputSweepSchedule: sweepSchedule,

		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      brokers,
		KafkaRatingsTopic: envOrDefault("KAFKA_RATINGS_TOPIC", "asset-ratings"),
	}

	if strings.ContainsAny(cfg.OutputFilePrefix, `/\`) {
		return nil, errors.New("invalid OUTPUT_FILE_PREFIX: must not contain path separators")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaRatingsTopic == "" {
		return nil, errors.New("KAFKA_RATINGS_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

// defaultHTTPAddr honours PORT, which hosting platforms such as Cloud Run set.
func defaultHTTPAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":3000"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func parseMaxUploadBytes() (int64, error) {
	s := envOrDefault("MAX_UPLOAD_BYTES", "10485760")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %q", s)
	}
	return n, nil
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
