package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airqd/airqd/internal/read"
	"github.com/airqd/airqd/internal/repository"
	"github.com/airqd/airqd/models"
)

func newTestApp(t *testing.T) (*fiber.App, *repository.MemoryRepository) {
	t.Helper()

	repo := repository.NewMemoryRepository()
	app := fiber.New()
	RegisterRoutes(app, read.NewSurface(repo))
	return app, repo
}

func seedHome(t *testing.T, repo *repository.MemoryRepository, withForecast bool) {
	t.Helper()
	ctx := context.Background()
	ts := time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.AppendSnapshot(ctx, models.Snapshot{
		Location: "home", Timestamp: ts, AQI: 85, Dominant: "pm25",
		Category: models.CategoryForAQI(85),
	}))

	if withForecast {
		require.NoError(t, repo.UpsertForecast(ctx, models.ForecastRecord{
			Location: "home",
			AsOf:     ts,
			Days:     []models.ForecastDay{{Date: ts, AQI: 70}},
		}))
	}
}

func TestRoutes_Current(t *testing.T) {
	app, repo := newTestApp(t)
	seedHome(t, repo, false)

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"Found", "/api/v1/air/current?location=home", http.StatusOK},
		{"Unknown", "/api/v1/air/current?location=nowhere", http.StatusNotFound},
		{"MissingParam", "/api/v1/air/current", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRoutes_ForecastNotFoundWithoutRow(t *testing.T) {
	app, repo := newTestApp(t)
	seedHome(t, repo, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/air/forecast?location=home", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_CombinedSucceedsWithEmptyForecast(t *testing.T) {
	app, repo := newTestApp(t)
	seedHome(t, repo, false)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/air/combined?location=home", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var combined read.Combined
	require.NoError(t, json.Unmarshal(body, &combined))
	assert.Equal(t, 85, combined.Current.AQI)
	assert.NotNil(t, combined.Forecast)
	assert.Empty(t, combined.Forecast)
}

func TestRoutes_CombinedFullView(t *testing.T) {
	app, repo := newTestApp(t)
	seedHome(t, repo, true)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/air/combined?location=home", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var combined read.Combined
	require.NoError(t, json.Unmarshal(body, &combined))
	assert.Len(t, combined.Forecast, 1)
	assert.Equal(t, 70, combined.Forecast[0].AQI)
}
