// Package kafka publishes report-generation audit events. Events carry
// metadata only, never document bytes; the service stays stateless.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/midis-coe/coe-word-service/internal/config"
	"github.com/midis-coe/coe-word-service/internal/domain"
	"github.com/midis-coe/coe-word-service/internal/observability"
)

// AuditWriter produces audit events to a Kafka topic.
type AuditWriter struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAuditWriter creates a Kafka producer for the configured audit topic.
func NewAuditWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *AuditWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &AuditWriter{writer: w, logger: logger, metrics: metrics}
}

// Publish serializes and sends one audit event. Failures are logged and
// counted but never propagated; auditing is an optional enrichment and must
// not affect report delivery.
func (w *AuditWriter) Publish(ctx context.Context, event domain.AuditEvent) {
	msg, err := serializeEvent(event)
	if err != nil {
		w.metrics.AuditEvents.WithLabelValues("error").Inc()
		w.logger.Warn("audit event serialization failed", "error", err)
		return
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.AuditEvents.WithLabelValues("error").Inc()
		w.logger.Warn("audit event publish failed", "error", err, "filename", event.Filename)
		return
	}
	w.metrics.AuditEvents.WithLabelValues("success").Inc()
}

func (w *AuditWriter) Close() error {
	return w.writer.Close()
}

// serializeEvent marshals an AuditEvent into a Kafka message keyed by the
// emergency code so events for one emergency stay on one partition.
func serializeEvent(event domain.AuditEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize audit event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Code),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "variant", Value: []byte(event.Variant)},
			{Key: "generated_at", Value: []byte(event.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
