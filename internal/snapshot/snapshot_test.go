package snapshot

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func testSnapshot(runID string) domain.Snapshot {
	records := []domain.AttractionRecord{
		{Name: "Python", Attributes: domain.Attributes{MinHeightCM: intPtr(120)}, ExtractionStatus: domain.StatusSuccess},
		{Name: "Carnaval Festival", Attributes: domain.Attributes{SupervisionHeightCM: intPtr(100)}, ExtractionStatus: domain.StatusFallback},
		{Name: "Sprookjesbos", ExtractionStatus: domain.StatusSuccess},
	}
	return domain.NewSnapshot(runID, records, nil, []int{100, 120}, nil)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "data", "attractions.json"), discardLogger())
}

// --- store ---

func TestStore_LoadMissing(t *testing.T) {
	_, err := newTestStore(t).Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStore_ReplaceAndLoad(t *testing.T) {
	store := newTestStore(t)
	snap := testSnapshot("run-1")

	require.NoError(t, store.Replace(snap))
	require.NoError(t, store.Replace(testSnapshot("run-2")))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, snap.HeightCategories, got.HeightCategories)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are renamed away")
	assert.Equal(t, "attractions.json", entries[0].Name())
}

func TestStore_LoadCorrupt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"run_id":`), 0o600))

	_, err := store.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestStore_LockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attractions.json")
	first := NewStore(path, discardLogger())
	second := NewStore(path, discardLogger())

	unlock, err := first.Lock()
	require.NoError(t, err)

	_, err = second.Lock()
	assert.ErrorIs(t, err, ErrWriterBusy)

	unlock()
	unlock2, err := second.Lock()
	require.NoError(t, err)
	unlock2()
}

// --- view ---

func TestView_NoSnapshot(t *testing.T) {
	view := NewView(newTestStore(t), 8, discardLogger(), observability.NewMetricsForTesting())

	assert.ErrorIs(t, view.Reload(), ErrNoSnapshot)
	assert.ErrorIs(t, view.CheckReadiness(context.Background()), ErrNoSnapshot)

	_, err := view.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = view.Height(120)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestView_Height(t *testing.T) {
	view := NewView(newTestStore(t), 8, discardLogger(), observability.NewMetricsForTesting())
	view.Set(testSnapshot("run-1"))
	require.NoError(t, view.CheckReadiness(context.Background()))

	t.Run("tracked", func(t *testing.T) {
		b, err := view.Height(120)
		require.NoError(t, err)
		assert.Equal(t, []string{"Carnaval Festival", "Sprookjesbos", "Python"}, b.Independent)
	})

	t.Run("computed and cached", func(t *testing.T) {
		b, err := view.Height(95)
		require.NoError(t, err)
		assert.Equal(t, []string{"Sprookjesbos"}, b.Independent)
		assert.Equal(t, []string{"Carnaval Festival"}, b.WithCompanion)
		assert.Equal(t, []string{"Python"}, b.NotAvailable)
		assert.Equal(t, 1, view.cache.len())

		again, err := view.Height(95)
		require.NoError(t, err)
		assert.Equal(t, b, again)
		assert.Equal(t, 1, view.cache.len())
	})

	t.Run("out of range", func(t *testing.T) {
		for _, h := range []int{0, -10, 251} {
			_, err := view.Height(h)
			assert.ErrorIs(t, err, domain.ErrHeightOutOfRange)
		}
	})
}

func TestView_SetInvalidatesComputedBuckets(t *testing.T) {
	view := NewView(newTestStore(t), 8, discardLogger(), observability.NewMetricsForTesting())
	view.Set(testSnapshot("run-1"))

	_, err := view.Height(115)
	require.NoError(t, err)

	next := domain.NewSnapshot("run-2", []domain.AttractionRecord{
		{Name: "Baron 1898", Attributes: domain.Attributes{MinHeightCM: intPtr(132)}},
	}, nil, []int{120}, nil)
	view.Set(next)

	b, err := view.Height(115)
	require.NoError(t, err)
	assert.Equal(t, []string{"Baron 1898"}, b.NotAvailable)
	assert.Empty(t, b.Independent)
}

func TestView_ReloadFromStore(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Replace(testSnapshot("run-1")))

	view := NewView(store, 8, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, view.Reload())

	snap, err := view.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "run-1", snap.RunID)
}

func TestView_WatchReloadsReplacedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attractions.json")
	reader := NewStore(path, discardLogger())
	writer := NewStore(path, discardLogger())
	require.NoError(t, writer.Replace(testSnapshot("run-1")))

	view := NewView(reader, 8, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, view.Reload())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- view.Watch(ctx) }()

	require.Eventually(t, func() bool {
		// Replace repeatedly: the watcher may not be registered yet.
		if err := writer.Replace(testSnapshot("run-2")); err != nil {
			return false
		}
		snap, err := view.Snapshot()
		return err == nil && snap.RunID == "run-2"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache[string, int](2)
	c.put("a", 1)
	c.put("b", 2)
	_, _ = c.get("a")
	c.put("c", 3)

	_, ok := c.get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.len())

	c.put("a", 10)
	v, _ = c.get("a")
	assert.Equal(t, 10, v)
}
