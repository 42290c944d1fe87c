package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/couchcryptid/ride-height-service/internal/domain"
	"github.com/couchcryptid/ride-height-service/internal/observability"
)

type loaded struct {
	snap       domain.Snapshot
	generation uint64
}

// View is the read side of the snapshot. It holds the last complete snapshot
// in memory, swaps it atomically on reload, and caches buckets computed for
// untracked heights.
type View struct {
	store   *Store
	logger  *slog.Logger
	metrics *observability.Metrics

	current     atomic.Pointer[loaded]
	generations atomic.Uint64
	cache       *lruCache[bucketKey, domain.HeightCategoryBucket]
}

// NewView creates a view over store. Call Reload or Set before serving.
func NewView(store *Store, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *View {
	return &View{
		store:   store,
		logger:  logger,
		metrics: metrics,
		cache:   newLRUCache[bucketKey, domain.HeightCategoryBucket](cacheSize),
	}
}

// Set publishes snap to readers.
func (v *View) Set(snap domain.Snapshot) {
	gen := v.generations.Add(1)
	v.current.Store(&loaded{snap: snap, generation: gen})
}

// Reload reads the snapshot file and publishes it. A missing file leaves the
// view unchanged and returns ErrNoSnapshot.
func (v *View) Reload() error {
	snap, err := v.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			v.metrics.SnapshotReloads.WithLabelValues("error").Inc()
		}
		return err
	}
	v.Set(snap)
	v.metrics.SnapshotReloads.WithLabelValues("success").Inc()
	v.logger.Info("snapshot loaded",
		"run_id", snap.RunID,
		"attractions", snap.TotalAttractions,
		"last_updated", snap.LastUpdated,
	)
	return nil
}

// Snapshot returns the current snapshot.
func (v *View) Snapshot() (domain.Snapshot, error) {
	cur := v.current.Load()
	if cur == nil {
		return domain.Snapshot{}, ErrNoSnapshot
	}
	return cur.snap, nil
}

// Height returns the categorization for heightCM. Tracked heights are served
// from the snapshot; other heights are computed from its attractions and
// cached until the next reload.
func (v *View) Height(heightCM int) (domain.HeightCategoryBucket, error) {
	if err := domain.ValidateQueryHeight(heightCM); err != nil {
		return domain.HeightCategoryBucket{}, err
	}
	cur := v.current.Load()
	if cur == nil {
		return domain.HeightCategoryBucket{}, ErrNoSnapshot
	}

	if cur.snap.IsTracked(heightCM) {
		v.metrics.HeightQueries.WithLabelValues("tracked").Inc()
		return cur.snap.Bucket(heightCM)
	}

	v.metrics.HeightQueries.WithLabelValues("computed").Inc()
	key := bucketKey{generation: cur.generation, heightCM: heightCM}
	if b, ok := v.cache.get(key); ok {
		v.metrics.HeightCache.WithLabelValues("hit").Inc()
		return b, nil
	}
	v.metrics.HeightCache.WithLabelValues("miss").Inc()

	b, err := cur.snap.Bucket(heightCM)
	if err != nil {
		return domain.HeightCategoryBucket{}, err
	}
	v.cache.put(key, b)
	return b, nil
}

// CheckReadiness reports ready once a snapshot has been published.
func (v *View) CheckReadiness(_ context.Context) error {
	if v.current.Load() == nil {
		return ErrNoSnapshot
	}
	return nil
}

// Watch reloads the view whenever the snapshot file is replaced, e.g. by a
// CLI run in another process. It blocks until ctx is cancelled.
func (v *View) Watch(ctx context.Context) (err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create snapshot watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// The file is replaced by rename, so watch the directory.
	dir := filepath.Dir(v.store.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch snapshot dir: %w", err)
	}
	target := filepath.Clean(v.store.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if err := v.Reload(); err != nil && !errors.Is(err, ErrNoSnapshot) {
				v.logger.Warn("snapshot reload failed", "error", err)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			v.logger.Warn("snapshot watcher error", "error", werr)
		}
	}
}
