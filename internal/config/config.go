package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// It is read-only after startup; requests never mutate shared configuration.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Static map rendering configuration.
	TileURLTemplate    string
	TileFetchTimeout   time.Duration
	MapRenderDeadline  time.Duration
	MapTileConcurrency int

	// Page header image assets: PNG preferred, JPEG fallback.
	HeaderImagePNG string
	HeaderImageJPG string

	// Audit event publishing configuration (optional, like the header
	// assets: absence degrades the feature, never the service).
	KafkaBrokers    []string
	KafkaAuditTopic string
	AuditEnabled    bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	tileTimeout, err := parseDuration("TILE_FETCH_TIMEOUT", "2800ms")
	if err != nil {
		return nil, err
	}
	renderDeadline, err := parseDuration("MAP_RENDER_DEADLINE", "3s")
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	auditEnabled := len(brokers) > 0
	if v := os.Getenv("AUDIT_ENABLED"); v != "" {
		auditEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TileURLTemplate:    envOrDefault("TILE_URL_TEMPLATE", "https://tile.openstreetmap.org/%d/%d/%d.png"),
		TileFetchTimeout:   tileTimeout,
		MapRenderDeadline:  renderDeadline,
		MapTileConcurrency: parsePositiveInt("MAP_TILE_CONCURRENCY", 4),

		HeaderImagePNG: envOrDefault("HEADER_IMAGE_PNG", "cabecera_coe_1.png"),
		HeaderImageJPG: envOrDefault("HEADER_IMAGE_JPG", "cabecera_coe_1.jpg"),

		KafkaBrokers:    brokers,
		KafkaAuditTopic: envOrDefault("KAFKA_AUDIT_TOPIC", "coe-report-audit"),
		AuditEnabled:    auditEnabled,
	}

	if cfg.TileURLTemplate == "" {
		return nil, errors.New("TILE_URL_TEMPLATE is required")
	}
	if cfg.MapRenderDeadline <= cfg.TileFetchTimeout {
		return nil, errors.New("MAP_RENDER_DEADLINE must exceed TILE_FETCH_TIMEOUT")
	}
	if cfg.AuditEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("AUDIT_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
