package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/midis-coe/coe-word-service/internal/adapter/docx"
	httpadapter "github.com/midis-coe/coe-word-service/internal/adapter/http"
	kafkaadapter "github.com/midis-coe/coe-word-service/internal/adapter/kafka"
	"github.com/midis-coe/coe-word-service/internal/adapter/staticmap"
	"github.com/midis-coe/coe-word-service/internal/config"
	"github.com/midis-coe/coe-word-service/internal/observability"
	"github.com/midis-coe/coe-word-service/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	renderer := staticmap.New(cfg, logger, metrics)
	emitter := docx.NewEmitter(cfg.HeaderImagePNG, cfg.HeaderImageJPG, logger)

	// Audit publishing is feature-flagged via KAFKA_BROKERS / AUDIT_ENABLED.
	var audit report.AuditPublisher
	var auditWriter *kafkaadapter.AuditWriter
	if cfg.AuditEnabled {
		auditWriter = kafkaadapter.NewAuditWriter(cfg, logger, metrics)
		audit = auditWriter
		metrics.AuditEnabled.Set(1)
		logger.Info("audit publishing enabled", "topic", cfg.KafkaAuditTopic)
	} else {
		logger.Info("audit publishing disabled")
	}

	generator := report.NewGenerator(renderer, emitter, audit, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, generator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			logger.Error("audit writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
