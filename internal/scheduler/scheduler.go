package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/airqd/airqd/internal/logger"
	"github.com/airqd/airqd/internal/repository"
	"github.com/airqd/airqd/models"
	"github.com/go-co-op/gocron"
)

const locationTimeout = 30 * time.Second

// Fetcher performs one provider call for a location and returns the
// normalized result.
type Fetcher interface {
	Fetch(ctx context.Context, loc models.Location) (models.Snapshot, *models.ForecastRecord, error)
}

// Scheduler refreshes every configured location on a fixed interval. Each
// location is fetched and stored in its own goroutine, so one cycle's wall
// time tracks the slowest location, not the sum, and a failing location
// never delays or aborts its siblings.
type Scheduler struct {
	cron      *gocron.Scheduler
	fetcher   Fetcher
	repo      repository.Repository
	locations []models.Location
	interval  time.Duration
	grace     time.Duration

	// inflight tracks per-location refreshes so Stop can wait for writes
	// to land instead of cutting them off mid-flight.
	inflight sync.WaitGroup

	// runCtx is owned by the scheduler and outlives any caller context:
	// shutdown signals must stop new cycles, not abort writes already in
	// flight. Stop cancels it only after the grace wait.
	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(fetcher Fetcher, repo repository.Repository, locations []models.Location, interval, grace time.Duration) *Scheduler {
	runCtx, runCancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		repo:      repo,
		locations: locations,
		interval:  interval,
		grace:     grace,
		runCtx:    runCtx,
		runCancel: runCancel,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler. The first interval elapses before the job fires; callers
// wanting an immediate refresh run RunCycle themselves.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		logger.Warn("no locations configured; nothing to schedule")
		return nil
	}

	_, err := s.cron.Every(s.interval).Do(func() {
		s.RunCycle()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}

	s.cron.StartAsync()
	return nil
}

// RunCycle refreshes all locations concurrently and returns when the
// slowest one finishes.
func (s *Scheduler) RunCycle() {
	logger.Info("--- refresh cycle started (%d locations) ---", len(s.locations))
	defer logger.Info("--- refresh cycle finished ---")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		s.inflight.Add(1)
		go func() {
			defer wg.Done()
			defer s.inflight.Done()

			opCtx, cancel := context.WithTimeout(s.runCtx, locationTimeout)
			defer cancel()

			if err := s.refreshLocation(opCtx, loc); err != nil {
				logger.Error("refresh failed for %s: %v", loc.Key(), err)
			}
		}()
	}
	wg.Wait()
}

// refreshLocation is one fetch→normalize→store step. The snapshot append
// and the forecast upsert are separate writes: a forecast failure leaves
// the already-stored snapshot in place and the previous forecast row
// untouched.
func (s *Scheduler) refreshLocation(ctx context.Context, loc models.Location) error {
	snapshot, forecast, err := s.fetcher.Fetch(ctx, loc)
	if err != nil {
		return err
	}

	if err := s.repo.AppendSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	logger.Debug("stored snapshot for %s: aqi=%d at %s", loc.Key(), snapshot.AQI, snapshot.Timestamp)

	if forecast == nil {
		logger.Debug("no forecast in payload for %s, keeping previous", loc.Key())
		return nil
	}

	if err := s.repo.UpsertForecast(ctx, *forecast); err != nil {
		logger.Warn("failed to upsert forecast for %s (snapshot already stored): %v", loc.Key(), err)
		return nil
	}
	logger.Debug("upserted forecast for %s: %d days", loc.Key(), len(forecast.Days))
	return nil
}

// Stop halts the cron scheduler and waits up to the grace period for
// in-flight location refreshes to finish their writes. Only once the
// grace period has elapsed are the stragglers canceled.
func (s *Scheduler) Stop() {
	s.cron.Stop()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight refreshes finished")
	case <-time.After(s.grace):
		logger.Warn("shutdown grace period elapsed, canceling remaining refreshes")
	}

	s.runCancel()
}
