package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/airqd/airqd/models"
)

// locationState is all cached data for one location. Each location has its
// own lock, so writes for different locations never contend.
type locationState struct {
	mu        sync.Mutex
	snapshots []models.Snapshot // ordered by timestamp ascending
	seen      map[int64]struct{}
	forecast  *models.ForecastRecord
}

// MemoryRepository is a concurrency-safe in-memory Repository. It backs
// unit tests and token-less local runs; the Mongo implementation is the
// production store.
type MemoryRepository struct {
	mu   sync.RWMutex
	locs map[string]*locationState
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{locs: make(map[string]*locationState)}
}

// state returns the per-location state, creating it on first use. The
// global lock is held only for the map lookup.
func (r *MemoryRepository) state(location string) *locationState {
	r.mu.RLock()
	st, ok := r.locs[location]
	r.mu.RUnlock()
	if ok {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok = r.locs[location]; ok {
		return st
	}
	st = &locationState{seen: make(map[int64]struct{})}
	r.locs[location] = st
	return st
}

func (r *MemoryRepository) AppendSnapshot(ctx context.Context, s models.Snapshot) error {
	st := r.state(s.Location)

	st.mu.Lock()
	defer st.mu.Unlock()

	key := s.Timestamp.UnixNano()
	if _, dup := st.seen[key]; dup {
		return nil
	}
	st.seen[key] = struct{}{}

	st.snapshots = append(st.snapshots, s)
	// Appends normally arrive in timestamp order; restore it when they don't.
	if n := len(st.snapshots); n > 1 && st.snapshots[n-2].Timestamp.After(s.Timestamp) {
		sort.Slice(st.snapshots, func(i, j int) bool {
			return st.snapshots[i].Timestamp.Before(st.snapshots[j].Timestamp)
		})
	}
	return nil
}

func (r *MemoryRepository) LatestSnapshot(ctx context.Context, location string) (models.Snapshot, error) {
	r.mu.RLock()
	st, ok := r.locs[location]
	r.mu.RUnlock()
	if !ok {
		return models.Snapshot{}, ErrNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.snapshots) == 0 {
		return models.Snapshot{}, ErrNotFound
	}
	return st.snapshots[len(st.snapshots)-1], nil
}

func (r *MemoryRepository) UpsertForecast(ctx context.Context, fc models.ForecastRecord) error {
	st := r.state(fc.Location)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.forecast = &fc
	return nil
}

func (r *MemoryRepository) GetForecast(ctx context.Context, location string) (models.ForecastRecord, error) {
	r.mu.RLock()
	st, ok := r.locs[location]
	r.mu.RUnlock()
	if !ok {
		return models.ForecastRecord{}, ErrNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.forecast == nil {
		return models.ForecastRecord{}, ErrNotFound
	}
	return *st.forecast, nil
}

// SnapshotCount reports how many snapshot rows exist for a location.
// Used by tests to assert append-only semantics.
func (r *MemoryRepository) SnapshotCount(location string) int {
	r.mu.RLock()
	st, ok := r.locs[location]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.snapshots)
}
