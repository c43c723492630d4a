package read

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airqd/airqd/internal/repository"
	"github.com/airqd/airqd/models"
)

// ErrUnavailable means no cached row exists yet for the location. It is a
// distinct condition from a transport error: the caller is expected to show
// "no data yet", never to trigger a live fetch.
var ErrUnavailable = errors.New("data unavailable")

// Combined is the composed current+forecast view. Days is always non-nil;
// it is empty when the location has a snapshot but no forecast row.
type Combined struct {
	Current      models.Snapshot      `json:"current"`
	ForecastAsOf *time.Time           `json:"forecastAsOf,omitempty"`
	Forecast     []models.ForecastDay `json:"forecast"`
}

// Surface serves cached data only. It consumes the repository's read
// operations exclusively and never reaches the provider.
type Surface struct {
	repo repository.Repository
}

func NewSurface(repo repository.Repository) *Surface {
	return &Surface{repo: repo}
}

func (s *Surface) Current(ctx context.Context, location string) (models.Snapshot, error) {
	snap, err := s.repo.LatestSnapshot(ctx, location)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Snapshot{}, ErrUnavailable
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, nil
}

func (s *Surface) Forecast(ctx context.Context, location string) (models.ForecastRecord, error) {
	fc, err := s.repo.GetForecast(ctx, location)
	if errors.Is(err, repository.ErrNotFound) {
		return models.ForecastRecord{}, ErrUnavailable
	}
	if err != nil {
		return models.ForecastRecord{}, fmt.Errorf("failed to read forecast: %w", err)
	}
	return fc, nil
}

// Combined composes the latest snapshot with the forecast. A missing
// forecast degrades to an empty day list; only a missing snapshot makes
// the whole read unavailable.
func (s *Surface) Combined(ctx context.Context, location string) (Combined, error) {
	snap, err := s.Current(ctx, location)
	if err != nil {
		return Combined{}, err
	}

	out := Combined{Current: snap, Forecast: []models.ForecastDay{}}

	fc, err := s.Forecast(ctx, location)
	if errors.Is(err, ErrUnavailable) {
		return out, nil
	}
	if err != nil {
		return Combined{}, err
	}

	out.ForecastAsOf = &fc.AsOf
	out.Forecast = fc.Days
	return out, nil
}
