package staticmap

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"net/http"
	"time"

	// Tile servers answer PNG or JPEG depending on provider.
	_ "image/jpeg"
	_ "image/png"

	"github.com/midis-coe/coe-word-service/internal/observability"
)

// tileSize is the edge length in pixels of a slippy-map tile.
const tileSize = 256

// TileFetcher retrieves one map tile. Implementations must honor the context
// and bound their own network latency; the renderer stacks a hard deadline on
// top regardless.
type TileFetcher interface {
	Fetch(ctx context.Context, zoom, x, y int) (image.Image, error)
}

// httpTileFetcher fetches {z}/{x}/{y} raster tiles over HTTP. The timeout
// lives on this client instance, not on any process-wide default, so
// concurrent requests cannot disturb each other's network settings.
type httpTileFetcher struct {
	client      *http.Client
	urlTemplate string // fmt template with %d placeholders for z, x, y
	userAgent   string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewHTTPTileFetcher creates a tile fetcher with a per-client timeout.
func NewHTTPTileFetcher(urlTemplate string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) TileFetcher {
	return &httpTileFetcher{
		client:      &http.Client{Timeout: timeout},
		urlTemplate: urlTemplate,
		userAgent:   "coe-word-service/1.0",
		logger:      logger,
		metrics:     metrics,
	}
}

func (f *httpTileFetcher) Fetch(ctx context.Context, zoom, x, y int) (image.Image, error) {
	u := fmt.Sprintf(f.urlTemplate, zoom, x, y)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create tile request: %w", err)
	}
	// Tile usage policies (openstreetmap.org in particular) require an
	// identifying User-Agent.
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.TileFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch tile %d/%d/%d: %w", zoom, x, y, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.metrics.TileFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch tile %d/%d/%d: status %d", zoom, x, y, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		f.metrics.TileFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode tile %d/%d/%d: %w", zoom, x, y, err)
	}

	f.metrics.TileFetches.WithLabelValues("success").Inc()
	return img, nil
}

// tileCoords projects a WGS-84 coordinate into fractional slippy-map tile
// coordinates at the given zoom (Web Mercator).
func tileCoords(lat, lon float64, zoom int) (x, y float64) {
	n := float64(int(1) << uint(zoom))
	x = (lon + 180.0) / 360.0 * n
	latRad := lat * math.Pi / 180.0
	y = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n
	return x, y
}
