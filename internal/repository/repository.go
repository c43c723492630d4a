package repository

import (
	"context"
	"errors"

	"github.com/airqd/airqd/models"
)

// ErrNotFound is returned when no cached row exists for a location.
var ErrNotFound = errors.New("no data for location")

// Repository persists snapshots (append-only) and forecasts (one row per
// location). Implementations must serialize writes per location while
// letting writes for different locations proceed independently, and must
// never block a read on a write for an unrelated location.
type Repository interface {
	// AppendSnapshot stores a snapshot. A second call with the same
	// (location, timestamp) identity is a no-op, not a duplicate row.
	AppendSnapshot(ctx context.Context, s models.Snapshot) error

	// LatestSnapshot returns the snapshot with the maximum timestamp for
	// the location, or ErrNotFound.
	LatestSnapshot(ctx context.Context, location string) (models.Snapshot, error)

	// UpsertForecast creates the location's forecast row if absent and
	// overwrites it otherwise. There is exactly one row per location even
	// under concurrent upserts.
	UpsertForecast(ctx context.Context, fc models.ForecastRecord) error

	// GetForecast returns the location's forecast row, or ErrNotFound.
	GetForecast(ctx context.Context, location string) (models.ForecastRecord, error)
}
