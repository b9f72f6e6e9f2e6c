package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"berlin-airquality/internal/dataset"
	"berlin-airquality/internal/modules/airquality/repository"
	"berlin-airquality/internal/modules/airquality/types"
)

// Loader keeps the query store in step with the dataset file. The store is
// only rewritten when the file changed since the last load or after
// Invalidate; concurrent Ensure calls share a single reload.
type Loader struct {
	path    string
	repo    repository.AirQualityRepository
	catalog *dataset.Catalog
	logger  *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	current *types.Snapshot
	stale   bool
	// gen counts Invalidate calls; a load only clears stale when none
	// arrived while it ran.
	gen uint64

	stat func(string) (fs.FileInfo, error)
	read func(string) ([]dataset.Record, int, error)
	now  func() time.Time
}

func NewLoader(path string, repo repository.AirQualityRepository, catalog *dataset.Catalog, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		path:    path,
		repo:    repo,
		catalog: catalog,
		logger:  logger,
		stat:    os.Stat,
		read:    dataset.ReadParquet,
		now:     time.Now,
	}
}

// Ensure makes sure the store mirrors the current dataset file and returns
// its snapshot.
func (l *Loader) Ensure(ctx context.Context) (*types.Snapshot, error) {
	fi, err := l.stat(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}
	if snap, ok := l.fresh(fi); ok {
		return snap, nil
	}

	v, err, _ := l.group.Do("load", func() (any, error) {
		if snap, ok := l.fresh(fi); ok {
			return snap, nil
		}
		return l.load(ctx, fi)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Snapshot), nil
}

// Invalidate makes the next Ensure reload the file even if it looks unchanged.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.stale = true
	l.gen++
	l.mu.Unlock()
}

// Current returns the snapshot of the last load, or nil.
func (l *Loader) Current() *types.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

func (l *Loader) fresh(fi fs.FileInfo) (*types.Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stale || !l.current.Matches(l.path, fi.ModTime(), fi.Size()) {
		return nil, false
	}
	return l.current, true
}

func (l *Loader) load(ctx context.Context, fi fs.FileInfo) (*types.Snapshot, error) {
	l.mu.RLock()
	first, stale, gen := l.current == nil, l.stale, l.gen
	l.mu.RUnlock()

	// A restarted process adopts the persisted snapshot when the file is unchanged.
	if first && !stale {
		persisted, err := l.repo.GetSnapshot()
		if err != nil {
			l.logger.Warn("read persisted snapshot", "error", err)
		} else if persisted.Matches(l.path, fi.ModTime(), fi.Size()) {
			l.logger.Info("dataset snapshot reused", "path", l.path, "rows", persisted.Rows)
			l.set(persisted, gen)
			return persisted, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := l.now()
	records, skipped, err := l.read(l.path)
	if err != nil {
		if errors.Is(err, dataset.ErrMissingColumns) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrDatasetUnavailable, err)
	}

	kept := records[:0]
	for _, r := range records {
		dataset.Identify(&r, l.catalog)
		if !l.catalog.Plausible(r.Value) {
			skipped++
			continue
		}
		kept = append(kept, r)
	}

	snap := &types.Snapshot{
		Path:     l.path,
		ModTime:  fi.ModTime(),
		Size:     fi.Size(),
		Rows:     len(kept),
		Skipped:  skipped,
		LoadedAt: l.now().UTC(),
	}
	if err := l.repo.ReplaceDataset(kept, *snap); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}
	l.set(snap, gen)
	l.logger.Info("dataset loaded",
		"path", l.path,
		"rows", snap.Rows,
		"skipped", snap.Skipped,
		"duration_ms", l.now().Sub(start).Milliseconds(),
	)
	return snap, nil
}

// set publishes snap. gen is the invalidation count seen when the load
// started; a later Invalidate keeps the loader stale.
func (l *Loader) set(snap *types.Snapshot, gen uint64) {
	l.mu.Lock()
	l.current = snap
	if l.gen == gen {
		l.stale = false
	}
	l.mu.Unlock()
}
