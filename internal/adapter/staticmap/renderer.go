// Package staticmap renders a marker-annotated raster map of a coordinate by
// compositing slippy-map tiles, under a hard wall-clock deadline.
package staticmap

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/midis-coe/coe-word-service/internal/config"
	"github.com/midis-coe/coe-word-service/internal/observability"
)

// Canvas dimensions in pixels. The embedded image is later scaled to a fixed
// physical size, so these only set the raster resolution.
const (
	canvasWidth  = 800
	canvasHeight = 600
	markerRadius = 12
)

// ErrRenderTimeout reports that the hard deadline expired before the tile
// composition finished. The in-flight worker is abandoned, not cancelled.
var ErrRenderTimeout = errors.New("static map render timed out")

// Renderer implements domain.MapRenderer with two stacked timeout layers:
// the tile fetcher's per-client HTTP timeout bounds each network call, and a
// hard deadline measured from Render's start bounds the whole composition.
// The deadline is the authoritative guarantee: whatever the tile service
// does, Render returns within it.
type Renderer struct {
	tiles       TileFetcher
	clock       clockwork.Clock
	deadline    time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Renderer backed by an HTTP tile fetcher configured from cfg.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	return &Renderer{
		tiles:       NewHTTPTileFetcher(cfg.TileURLTemplate, cfg.TileFetchTimeout, logger, metrics),
		clock:       clockwork.NewRealClock(),
		deadline:    cfg.MapRenderDeadline,
		concurrency: cfg.MapTileConcurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// NewWithFetcher creates a Renderer with explicit collaborators, used by
// tests to substitute a fake tile source and clock.
func NewWithFetcher(tiles TileFetcher, clock clockwork.Clock, deadline time.Duration, concurrency int, logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	return &Renderer{
		tiles:       tiles,
		clock:       clock,
		deadline:    deadline,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

type renderResult struct {
	png []byte
	err error
}

// Render produces a PNG of the location with a single marker at its center.
// It returns within the configured hard deadline. On timeout the worker
// goroutine keeps running until its own HTTP timeouts fire and its result is
// discarded; one abandoned worker per request is an accepted trade-off since
// the tile composition has no cancellation point once tiles are in flight.
func (r *Renderer) Render(ctx context.Context, lat, lon float64, zoom int) ([]byte, error) {
	start := r.clock.Now()
	results := make(chan renderResult, 1)

	go func() {
		data, err := r.compose(ctx, lat, lon, zoom)
		results <- renderResult{png: data, err: err}
	}()

	select {
	case res := <-results:
		r.metrics.MapRenderDuration.Observe(r.clock.Since(start).Seconds())
		if res.err != nil {
			r.metrics.MapRenders.WithLabelValues("error").Inc()
			return nil, res.err
		}
		r.metrics.MapRenders.WithLabelValues("success").Inc()
		return res.png, nil
	case <-r.clock.After(r.deadline):
		r.metrics.MapRenderDuration.Observe(r.clock.Since(start).Seconds())
		r.metrics.MapRenders.WithLabelValues("timeout").Inc()
		r.logger.Warn("abandoning map render worker", "deadline", r.deadline, "lat", lat, "lon", lon)
		return nil, ErrRenderTimeout
	case <-ctx.Done():
		r.metrics.MapRenders.WithLabelValues("error").Inc()
		return nil, ctx.Err()
	}
}

// compose fetches every tile covering the canvas and draws them plus the
// marker. Any tile failure fails the whole render; the document never embeds
// a partial map.
func (r *Renderer) compose(ctx context.Context, lat, lon float64, zoom int) ([]byte, error) {
	centerX, centerY := tileCoords(lat, lon, zoom)
	originX := centerX*tileSize - canvasWidth/2
	originY := centerY*tileSize - canvasHeight/2

	firstTileX := int(math.Floor(originX / tileSize))
	lastTileX := int(math.Floor((originX + canvasWidth - 1) / tileSize))
	firstTileY := int(math.Floor(originY / tileSize))
	lastTileY := int(math.Floor((originY + canvasHeight - 1) / tileSize))

	maxTile := (1 << uint(zoom)) - 1

	type placedTile struct {
		x, y int // canvas pixel position
		zx   int // wrapped tile column
		zy   int // clamped tile row
		skip bool
	}

	var placements []placedTile
	for ty := firstTileY; ty <= lastTileY; ty++ {
		for tx := firstTileX; tx <= lastTileX; tx++ {
			p := placedTile{
				x:  tx*tileSize - int(math.Round(originX)),
				y:  ty*tileSize - int(math.Round(originY)),
				zx: wrapTile(tx, maxTile+1),
				zy: ty,
			}
			// Rows beyond the poles have no tiles; leave background.
			if ty < 0 || ty > maxTile {
				p.skip = true
			}
			placements = append(placements, p)
		}
	}

	images := make([]imageAt, len(placements))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, p := range placements {
		if p.skip {
			continue
		}
		g.Go(func() error {
			img, err := r.tiles.Fetch(gctx, zoom, p.zx, p.zy)
			if err != nil {
				return err
			}
			mu.Lock()
			images[i] = imageAt{img: img, x: p.x, y: p.y}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetRGB(0.9, 0.9, 0.9)
	dc.Clear()
	for _, ia := range images {
		if ia.img == nil {
			continue
		}
		dc.DrawImage(ia.img, ia.x, ia.y)
	}

	dc.SetHexColor("#" + markerColorHex)
	dc.DrawCircle(canvasWidth/2, canvasHeight/2, markerRadius)
	dc.Fill()

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// markerColorHex matches the alert red used for the emergency-code line.
const markerColorHex = "D50000"

type imageAt struct {
	img  image.Image
	x, y int
}

// wrapTile wraps a tile column into [0, n) so maps near the antimeridian
// still render.
func wrapTile(t, n int) int {
	t %= n
	if t < 0 {
		t += n
	}
	return t
}
