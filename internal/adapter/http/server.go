// Package http exposes the report-generation endpoints plus health and
// metrics routes.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/midis-coe/coe-word-service/internal/domain"
	"github.com/midis-coe/coe-word-service/internal/report"
)

const (
	docxMIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// maxBodyBytes bounds request bodies; incident payloads are small JSON.
	maxBodyBytes = 2 << 20
)

// Generator assembles one report document from a payload.
type Generator interface {
	Generate(ctx context.Context, req domain.ReportRequest, variant domain.Variant) (report.GeneratedDocument, error)
}

// Server exposes the report-generation HTTP surface.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the HTTP server with the two generation endpoints plus
// /health, /, and /metrics.
func NewServer(addr string, gen Generator, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestLogger(logger)(mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("POST /api/generar-word-rp", s.handleGenerate(gen, domain.VariantPreliminary))
	mux.HandleFunc("POST /api/generar-word-rc", s.handleGenerate(gen, domain.VariantComplementary))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleGenerate(gen Generator, variant domain.Variant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Sin datos"})
			return
		}

		req, err := domain.DecodeReportRequest(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Sin datos"})
			return
		}

		doc, err := gen.Generate(r.Context(), req, variant)
		if err != nil {
			s.logger.Error("report generation failed", "variant", variant.String(), "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "No se pudo generar el documento"})
			return
		}

		w.Header().Set("Content-Type", docxMIMEType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(doc.Content); err != nil {
			s.logger.Warn("response write failed", "filename", doc.Filename, "error", err)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"service": "coe-word-service", "ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort JSON response
}
