package provider

import (
	"fmt"
	"testing"
	"time"

	"github.com/airqd/airqd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = models.Location{Name: "home", StationRef: "@7397"}

func TestNormalize_FullPayload(t *testing.T) {
	fetchedAt := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	payload := `{
		"status": "ok",
		"data": {
			"aqi": 85,
			"idx": 7397,
			"dominentpol": "pm25",
			"iaqi": {
				"pm25": {"v": 85},
				"pm10": {"v": 40},
				"o3": {"v": 12.5}
			},
			"time": {"iso": "2026-08-27T16:00:00+08:00"},
			"forecast": {
				"daily": {
					"pm25": [
						{"avg": 70, "day": "2026-08-27", "max": 85, "min": 60},
						{"avg": 95, "day": "2026-08-28", "max": 110, "min": 80}
					],
					"pm10": [
						{"avg": 35, "day": "2026-08-27", "max": 45, "min": 25}
					]
				}
			}
		}
	}`

	snap, fc, err := Normalize(testLoc, []byte(payload), fetchedAt)
	require.NoError(t, err)

	assert.Equal(t, "home", snap.Location)
	assert.Equal(t, 85, snap.AQI)
	assert.Equal(t, "pm25", snap.Dominant)
	assert.Equal(t, models.CategoryModerate, snap.Category)
	// Provider local time converted to UTC.
	assert.Equal(t, time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC), snap.Timestamp)

	require.NotNil(t, snap.Pollutants.PM25)
	assert.Equal(t, 85.0, *snap.Pollutants.PM25)
	require.NotNil(t, snap.Pollutants.O3)
	assert.Equal(t, 12.5, *snap.Pollutants.O3)
	assert.Nil(t, snap.Pollutants.NO2)
	assert.Nil(t, snap.Pollutants.CO)

	require.NotNil(t, fc)
	assert.Equal(t, "home", fc.Location)
	assert.Equal(t, fetchedAt, fc.AsOf)
	require.Len(t, fc.Days, 2)
	assert.True(t, fc.Days[0].Date.Before(fc.Days[1].Date))
	assert.Equal(t, 70, fc.Days[0].AQI) // max of avgs: pm25 70 vs pm10 35
	assert.Equal(t, 95, fc.Days[1].AQI)
	assert.Equal(t, models.Range{Min: 25, Avg: 35, Max: 45}, fc.Days[0].Ranges["pm10"])
}

func TestNormalize_MissingForecast(t *testing.T) {
	payload := `{
		"status": "ok",
		"data": {
			"aqi": 42,
			"dominentpol": "o3",
			"iaqi": {"o3": {"v": 42}},
			"time": {"iso": "2026-08-27T10:00:00Z"}
		}
	}`

	snap, fc, err := Normalize(testLoc, []byte(payload), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 42, snap.AQI)
	assert.Equal(t, models.CategoryGood, snap.Category)
	assert.Nil(t, fc)
}

func TestNormalize_PastForecastDaysDropped(t *testing.T) {
	asOf := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	payload := `{
		"status": "ok",
		"data": {
			"aqi": 60,
			"forecast": {
				"daily": {
					"pm25": [
						{"avg": 50, "day": "2026-08-25", "max": 60, "min": 40},
						{"avg": 55, "day": "2026-08-27", "max": 65, "min": 45},
						{"avg": 65, "day": "bogus-date", "max": 70, "min": 50}
					]
				}
			}
		}
	}`

	_, fc, err := Normalize(testLoc, []byte(payload), asOf)
	require.NoError(t, err)
	require.NotNil(t, fc)
	require.Len(t, fc.Days, 1)
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), fc.Days[0].Date)
}

func TestNormalize_AllForecastDaysInPast(t *testing.T) {
	asOf := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)

	payload := `{
		"status": "ok",
		"data": {
			"aqi": 60,
			"forecast": {
				"daily": {
					"pm25": [{"avg": 50, "day": "2026-08-20", "max": 60, "min": 40}]
				}
			}
		}
	}`

	_, fc, err := Normalize(testLoc, []byte(payload), asOf)
	require.NoError(t, err)
	assert.Nil(t, fc)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"MalformedJSON", `{"status": "ok"`},
		{"ProviderError", `{"status": "error", "data": {}}`},
		{"MissingAQI", `{"status": "ok", "data": {"dominentpol": "pm25"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(testLoc, []byte(tt.payload), time.Now().UTC())
			require.Error(t, err)
		})
	}
}

func TestNormalize_BadTimestampFallsBackToFetchTime(t *testing.T) {
	fetchedAt := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
	payload := fmt.Sprintf(`{"status": "ok", "data": {"aqi": 10, "time": {"iso": %q}}}`, "not-a-time")

	snap, _, err := Normalize(testLoc, []byte(payload), fetchedAt)
	require.NoError(t, err)
	assert.Equal(t, fetchedAt, snap.Timestamp)
}
