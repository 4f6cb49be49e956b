package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://tile.openstreetmap.org/%d/%d/%d.png", cfg.TileURLTemplate)
	assert.Equal(t, 2800*time.Millisecond, cfg.TileFetchTimeout)
	assert.Equal(t, 3*time.Second, cfg.MapRenderDeadline)
	assert.Equal(t, 4, cfg.MapTileConcurrency)

	assert.Equal(t, "cabecera_coe_1.png", cfg.HeaderImagePNG)
	assert.Equal(t, "cabecera_coe_1.jpg", cfg.HeaderImageJPG)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "coe-report-audit", cfg.KafkaAuditTopic)
	assert.False(t, cfg.AuditEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("TILE_URL_TEMPLATE", "http://tiles.local/%d/%d/%d.png")
	t.Setenv("TILE_FETCH_TIMEOUT", "1s")
	t.Setenv("MAP_RENDER_DEADLINE", "5s")
	t.Setenv("MAP_TILE_CONCURRENCY", "8")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("KAFKA_AUDIT_TOPIC", "auditoria")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "http://tiles.local/%d/%d/%d.png", cfg.TileURLTemplate)
	assert.Equal(t, time.Second, cfg.TileFetchTimeout)
	assert.Equal(t, 5*time.Second, cfg.MapRenderDeadline)
	assert.Equal(t, 8, cfg.MapTileConcurrency)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "auditoria", cfg.KafkaAuditTopic)
	assert.True(t, cfg.AuditEnabled, "brokers present implies auditing unless disabled")
}

func TestLoad_AuditExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092")
	t.Setenv("AUDIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AuditEnabled)
	assert.Equal(t, []string{"broker-1:9092"}, cfg.KafkaBrokers)
}

func TestLoad_AuditWithoutBrokersRejected(t *testing.T) {
	t.Setenv("AUDIT_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TILE_FETCH_TIMEOUT", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TILE_FETCH_TIMEOUT")
}

func TestLoad_DeadlineMustExceedFetchTimeout(t *testing.T) {
	t.Setenv("TILE_FETCH_TIMEOUT", "4s")
	t.Setenv("MAP_RENDER_DEADLINE", "3s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAP_RENDER_DEADLINE")
}

func TestLoad_BadConcurrencyFallsBack(t *testing.T) {
	t.Setenv("MAP_TILE_CONCURRENCY", "zero")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MapTileConcurrency)
}
