package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-height-service/internal/config"
	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// parkServer serves a minimum height for Python, 404 for every other page,
// and a small queue-times feed.
func parkServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/queue_times.json":
			_, _ = io.WriteString(w, `{"lands":[{"name":"Ruigrijk","rides":[{"name":"Python","is_open":true,"wait_time":20,"last_updated":"2026-07-04T10:00:00Z"}]}]}`)
		case strings.HasSuffix(r.URL.Path, "/python"):
			_, _ = io.WriteString(w, "<html><body><p>Minimum height 1.20 m</p></body></html>")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		SnapshotPath:       filepath.Join(t.TempDir(), "attractions.json"),
		HeightCacheSize:    8,
		TrackedHeights:     domain.DefaultTrackedHeights,
		AttractionsBaseURL: baseURL + "/attractions",
		ShowsBaseURL:       baseURL + "/shows",
		QueueTimesURL:      baseURL + "/queue_times.json",
		FetchTimeout:       5 * time.Second,
		FetchInterval:      time.Millisecond,
		ScrapeInterval:     time.Hour,
		LiveInterval:       time.Minute,
	}
}

func TestBuild_ScrapeAndLive(t *testing.T) {
	srv := parkServer(t)
	cfg := testConfig(t, srv.URL)

	svc, err := Build(cfg, clockwork.NewRealClock(), discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	require.NoError(t, svc.LoadView(), "missing snapshot is not an error")

	snap, err := svc.Pipeline.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(svc.Catalog.Attractions), snap.TotalAttractions)
	assert.Equal(t, 1, snap.ScrapeStats.Successful)

	python, ok := snap.Attraction("Python")
	require.True(t, ok)
	assert.Equal(t, domain.StatusSuccess, python.ExtractionStatus)

	// The view was updated by the pipeline.
	served, err := svc.View.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap.RunID, served.RunID)

	merged, err := svc.Pipeline.Live(context.Background())
	require.NoError(t, err)
	python, _ = merged.Attraction("Python")
	require.NotNil(t, python.LiveStatus)
	assert.True(t, *python.LiveStatus.IsOpen)

	stored, err := svc.Store.Load()
	require.NoError(t, err)
	assert.NotNil(t, stored.WaitTimesInfo)
}

func TestBuild_InvalidCatalog(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.toml")

	_, err := Build(cfg, clockwork.NewRealClock(), discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestService_RunReturnsAfterCycleStops(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	// Attraction pages hang until the client gives up, so the bootstrap scrape
	// is still in flight when the context is cancelled.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/attractions/") {
			once.Do(func() { close(started) })
			<-r.Context().Done()
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	cfg := testConfig(t, srv.URL)
	metrics := observability.NewMetricsForTesting()

	svc, err := Build(cfg, clockwork.NewRealClock(), discardLogger(), metrics)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("scrape never fetched a page")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.InDelta(t, 0, gaugeValue(t, metrics.PipelineRunning), 0, "pipeline still running after Run returned")
	temps, err := filepath.Glob(filepath.Join(filepath.Dir(cfg.SnapshotPath), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, temps, "cancelled scrape left a temp file")
	assert.NoFileExists(t, cfg.SnapshotPath, "cancelled scrape wrote a snapshot")
	require.NoError(t, svc.Close())
}
