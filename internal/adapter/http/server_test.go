package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midis-coe/coe-word-service/internal/adapter/docx"
	"github.com/midis-coe/coe-word-service/internal/observability"
	"github.com/midis-coe/coe-word-service/internal/report"
)

type stubRenderer struct{}

func (stubRenderer) Render(_ context.Context, _, _ float64, _ int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{G: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	emitter := docx.NewEmitter("missing.png", "missing.jpg", logger)
	gen := report.NewGenerator(stubRenderer{}, emitter, nil, logger, metrics)
	return NewServer(":0", gen, logger)
}

func documentXML(t *testing.T, data []byte) (xml string, mediaEntries []string) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "word/media/") {
			mediaEntries = append(mediaEntries, f.Name)
		}
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		xml = string(content)
	}
	require.NotEmpty(t, xml, "archive must contain word/document.xml")
	return xml, mediaEntries
}

func TestGenerate_FullPayload(t *testing.T) {
	srv := newTestServer(t)

	payload := `{
		"peligro": "Sismo",
		"distrito": "Lima",
		"departamento": "Lima",
		"latitud": "-12.05",
		"longitud": "-77.04",
		"fechaElaboracion": "2024-03-01T10:00",
		"codigo": "EM-001",
		"numeroGlobal": "123"
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/generar-word-rp", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, docxMIMEType, rec.Header().Get("Content-Type"))

	disposition := rec.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "123_EM_001_Sismo_Lima_Lima_01032024")
	assert.NotContains(t, disposition, "EM-001", "hyphens in the code never reach the filename")

	xml, media := documentXML(t, rec.Body.Bytes())
	assert.Contains(t, xml, "SISMO EN EL DISTRITO LIMA – LIMA")
	assert.NotEmpty(t, media, "rendered map must be embedded")
}

func TestGenerate_NoCoordinatesFallback(t *testing.T) {
	srv := newTestServer(t)

	payload := `{
		"peligro": "Inundación",
		"distrito": "Piura",
		"departamento": "Piura",
		"fechaElaboracion": "2024-03-01T10:00",
		"codigo": "EM-044",
		"numeroGlobal": "9"
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/generar-word-rp", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	xml, media := documentXML(t, rec.Body.Bytes())
	assert.Contains(t, xml, "Sin coordenadas registradas (no se puede generar el mapa).")
	assert.Empty(t, media, "no map image expected without coordinates")
}

func TestGenerate_EmptyBodyRejected(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{"", "{}", "null", "no es json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/generar-word-rp", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Sin datos", resp["error"], "body %q", body)
	}
}

func TestGenerate_ComplementaryVariant(t *testing.T) {
	srv := newTestServer(t)

	payload := `{
		"peligro": "Sismo",
		"distrito": "Lima",
		"departamento": "Lima",
		"codigo": "EM-002",
		"numeroReporteRC": "77",
		"fechaHoraRC": "2024-05-10T08:30"
	}`

	req := httptest.NewRequest(http.MethodPost, "/api/generar-word-rc", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "77_EM_002_Sismo_Lima_Lima_10052024")

	xml, _ := documentXML(t, rec.Body.Bytes())
	assert.Contains(t, xml, "ACCIONES DEL SECTOR DESARROLLO E INCLUSIÓN SOCIAL (RC)")
	assert.Contains(t, xml, "REPORTE COMPLEMENTARIO DE EMERGENCIA (RC)")
}

func TestHealthAndRoot(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "coe-word-service", resp["service"])
	assert.Equal(t, true, resp["ok"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/generar-word-rp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
