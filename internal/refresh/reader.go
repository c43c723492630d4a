package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/airqd/airqd/internal/logger"
	"github.com/airqd/airqd/internal/read"
)

// ReadFunc loads the authoritative cached view for a location key.
type ReadFunc func(ctx context.Context, location string) (read.Combined, error)

// entry is one per-key cached value.
type entry struct {
	value        read.Combined
	hasValue     bool
	fetchedAt    time.Time
	revalidating bool

	// loading is non-nil while a synchronous first load is in flight;
	// it is closed when that load finishes so concurrent requests for
	// the same key wait instead of loading again.
	loading chan struct{}
}

// Reader is one subscriber's view of the cached data. It keeps a short
// per-key freshness window: requests inside the window reuse the last
// value; requests after it, or a coordinator tick, revalidate in the
// background while the previous value keeps being served. Only the very
// first request for a key blocks on a load.
type Reader struct {
	source ReadFunc
	window time.Duration
	coord  *Coordinator
	subID  int

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*entry
}

// NewReader subscribes a new reader to the coordinator.
func NewReader(coord *Coordinator, source ReadFunc, window time.Duration) *Reader {
	r := &Reader{
		source:  source,
		window:  window,
		coord:   coord,
		entries: make(map[string]*entry),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.subID = coord.Subscribe(r.revalidateAll)
	return r
}

// Get returns the value for a location. A stale hit triggers at most one
// background revalidation and still returns the cached value immediately.
// Concurrent first requests for the same key share a single load: one
// caller loads synchronously, the rest wait for that result.
func (r *Reader) Get(ctx context.Context, location string) (read.Combined, error) {
	for {
		r.mu.Lock()
		e, ok := r.entries[location]
		if !ok {
			e = &entry{}
			r.entries[location] = e
		}

		if e.hasValue {
			val := e.value
			if time.Since(e.fetchedAt) >= r.window && !e.revalidating {
				e.revalidating = true
				go r.revalidate(location)
			}
			r.mu.Unlock()
			return val, nil
		}

		if e.loading != nil {
			gate := e.loading
			r.mu.Unlock()
			select {
			case <-gate:
			case <-ctx.Done():
				return read.Combined{}, ctx.Err()
			}
			// Re-check: the load may have failed, in which case this
			// request takes over as the loader.
			continue
		}

		gate := make(chan struct{})
		e.loading = gate
		r.mu.Unlock()

		// First request for this key: load synchronously.
		val, err := r.source(ctx, location)

		r.mu.Lock()
		e.loading = nil
		close(gate)
		if err != nil {
			r.mu.Unlock()
			return read.Combined{}, err
		}
		e.value = val
		e.hasValue = true
		e.fetchedAt = time.Now()
		r.mu.Unlock()
		return val, nil
	}
}

// revalidate refreshes one key. A failed revalidation keeps the previous
// value; the entry just stays stale until the next trigger.
func (r *Reader) revalidate(location string) {
	val, err := r.source(r.ctx, location)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[location]
	if !ok {
		return
	}
	e.revalidating = false
	if err != nil {
		logger.Warn("revalidation failed for %s, keeping cached value: %v", location, err)
		return
	}
	e.value = val
	e.hasValue = true
	e.fetchedAt = time.Now()
}

// revalidateAll is the coordinator tick handler: it revalidates every key
// this reader has served, skipping keys already in flight.
func (r *Reader) revalidateAll() {
	r.mu.Lock()
	var due []string
	for key, e := range r.entries {
		if e.hasValue && !e.revalidating {
			e.revalidating = true
			due = append(due, key)
		}
	}
	r.mu.Unlock()

	for _, key := range due {
		go r.revalidate(key)
	}
}

// Close unsubscribes from the coordinator and cancels any in-flight
// revalidation.
func (r *Reader) Close() {
	r.coord.Unsubscribe(r.subID)
	r.cancel()
}
