// Package report orchestrates the normalize-layout-emit assembly of one
// report document per request.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/midis-coe/coe-word-service/internal/domain"
	"github.com/midis-coe/coe-word-service/internal/observability"
)

// Emitter serializes a block sequence into document bytes.
type Emitter interface {
	Emit(blocks []domain.Block) ([]byte, error)
}

// AuditPublisher records a generated report. Implementations must never fail
// the caller; publishing is best-effort.
type AuditPublisher interface {
	Publish(ctx context.Context, event domain.AuditEvent)
}

// GeneratedDocument is the assembled output of one request.
type GeneratedDocument struct {
	Filename string
	Content  []byte
}

// Generator assembles report documents. All state is per-request; a
// Generator is safe for concurrent use.
type Generator struct {
	renderer domain.MapRenderer
	emitter  Emitter
	audit    AuditPublisher // nil when auditing is disabled
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewGenerator wires the assembly pipeline. audit may be nil.
func NewGenerator(renderer domain.MapRenderer, emitter Emitter, audit AuditPublisher, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{
		renderer: renderer,
		emitter:  emitter,
		audit:    audit,
		logger:   logger,
		metrics:  metrics,
	}
}

// Generate turns one payload into a named document. Optional enrichment
// failures (map, header image) degrade sections inside the layout engine;
// only emission itself can fail here.
func (g *Generator) Generate(ctx context.Context, req domain.ReportRequest, variant domain.Variant) (GeneratedDocument, error) {
	start := time.Now()

	n := domain.Normalize(req, variant)
	blocks := domain.BuildSections(ctx, n, variant, g.renderer, g.logger)

	content, err := g.emitter.Emit(blocks)
	if err != nil {
		g.metrics.ReportsGenerated.WithLabelValues(variant.String(), "error").Inc()
		return GeneratedDocument{}, fmt.Errorf("emit %s document: %w", variant, err)
	}

	doc := GeneratedDocument{
		Filename: domain.FilenameFor(n),
		Content:  content,
	}

	elapsed := time.Since(start)
	g.metrics.ReportsGenerated.WithLabelValues(variant.String(), "success").Inc()
	g.metrics.DocumentBuildDuration.Observe(elapsed.Seconds())
	g.logger.Info("report generated",
		"variant", variant.String(),
		"filename", doc.Filename,
		"size_bytes", len(content),
		"duration_ms", elapsed.Milliseconds(),
	)

	g.publishAudit(n, variant, doc, blocks, elapsed)

	return doc, nil
}

// publishAudit fires the audit event on a detached context so a slow broker
// cannot delay the HTTP response.
func (g *Generator) publishAudit(n domain.NormalizedReport, variant domain.Variant, doc GeneratedDocument, blocks []domain.Block, elapsed time.Duration) {
	if g.audit == nil {
		return
	}

	event := domain.AuditEvent{
		Variant:     variant.String(),
		Code:        n.Code,
		Filename:    doc.Filename,
		SizeBytes:   len(doc.Content),
		DurationMS:  elapsed.Milliseconds(),
		MapIncluded: containsImage(blocks),
		GeneratedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		g.audit.Publish(ctx, event)
	}()
}

func containsImage(blocks []domain.Block) bool {
	for _, b := range blocks {
		if _, ok := b.(domain.Image); ok {
			return true
		}
	}
	return false
}
