package staticmap

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midis-coe/coe-word-service/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// tilePNG returns a uniformly colored 256x256 tile.
func tilePNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	for y := 0; y < tileSize; y++ {
		for x := 0; x < tileSize; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTileCoords(t *testing.T) {
	x, y := tileCoords(0, 0, 0)
	assert.InDelta(t, 0.5, x, 1e-9)
	assert.InDelta(t, 0.5, y, 1e-9)

	x, y = tileCoords(0, 0, 1)
	assert.InDelta(t, 1.0, x, 1e-9)
	assert.InDelta(t, 1.0, y, 1e-9)

	// Lima, Perú sits in the south-western quadrant.
	x, y = tileCoords(-12.05, -77.04, 10)
	assert.Greater(t, x, 0.0)
	assert.Less(t, x, 512.0)
	assert.Greater(t, y, 512.0)
	assert.Less(t, y, 1024.0)
}

func TestWrapTile(t *testing.T) {
	assert.Equal(t, 0, wrapTile(4, 4))
	assert.Equal(t, 3, wrapTile(-1, 4))
	assert.Equal(t, 2, wrapTile(2, 4))
}

func TestRender_ComposesCanvasFromTiles(t *testing.T) {
	tile := tilePNG(t, color.RGBA{R: 10, G: 120, B: 10, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(tile)
	}))
	defer srv.Close()

	fetcher := NewHTTPTileFetcher(srv.URL+"/%d/%d/%d.png", 2*time.Second, testLogger(), testMetrics())
	r := NewWithFetcher(fetcher, clockwork.NewRealClock(), 10*time.Second, 4, testLogger(), testMetrics())

	data, err := r.Render(context.Background(), -12.05, -77.04, 10)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, canvasWidth, img.Bounds().Dx())
	assert.Equal(t, canvasHeight, img.Bounds().Dy())

	// The marker paints the canvas center red over the green tiles.
	cr, _, _, _ := img.At(canvasWidth/2, canvasHeight/2).RGBA()
	assert.Greater(t, cr>>8, uint32(0xB0), "marker should be drawn at the center")
}

func TestRender_TileFailureFailsRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	fetcher := NewHTTPTileFetcher(srv.URL+"/%d/%d/%d.png", 2*time.Second, testLogger(), testMetrics())
	r := NewWithFetcher(fetcher, clockwork.NewRealClock(), 10*time.Second, 4, testLogger(), testMetrics())

	_, err := r.Render(context.Background(), -12.05, -77.04, 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRenderTimeout)
}

// blockingFetcher never returns until released, simulating a stalled tile
// service that ignores client-side timeouts.
type blockingFetcher struct {
	release chan struct{}
}

func (f *blockingFetcher) Fetch(_ context.Context, _, _, _ int) (image.Image, error) {
	<-f.release
	return nil, errors.New("released")
}

func TestRender_HardDeadlineWithFakeClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	fetcher := &blockingFetcher{release: make(chan struct{})}
	defer close(fetcher.release)

	r := NewWithFetcher(fetcher, fc, 3*time.Second, 4, testLogger(), testMetrics())

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := r.Render(context.Background(), -12.05, -77.04, 10)
		done <- result{data: data, err: err}
	}()

	// Wait for Render to be parked on the deadline timer, then expire it.
	fc.BlockUntil(1)
	fc.Advance(3 * time.Second)

	res := <-done
	require.ErrorIs(t, res.err, ErrRenderTimeout)
	assert.Nil(t, res.data)
}

func TestRender_BoundedWallClockAgainstStalledBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(10 * time.Second):
		}
	}))
	defer srv.Close()

	fetcher := NewHTTPTileFetcher(srv.URL+"/%d/%d/%d.png", 30*time.Second, testLogger(), testMetrics())
	r := NewWithFetcher(fetcher, clockwork.NewRealClock(), 300*time.Millisecond, 4, testLogger(), testMetrics())

	start := time.Now()
	_, err := r.Render(context.Background(), -12.05, -77.04, 10)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrRenderTimeout)
	assert.Less(t, elapsed, 2*time.Second, "render must return near the hard deadline")
}

func TestRender_ContextCancellation(t *testing.T) {
	fetcher := &blockingFetcher{release: make(chan struct{})}
	defer close(fetcher.release)

	r := NewWithFetcher(fetcher, clockwork.NewRealClock(), 30*time.Second, 4, testLogger(), testMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, -12.05, -77.04, 10)
	require.ErrorIs(t, err, context.Canceled)
}
