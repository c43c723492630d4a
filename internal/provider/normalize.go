package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/airqd/airqd/models"
)

// Normalize validates a raw feed payload into a Snapshot and, when the
// payload carries a usable forecast, a ForecastRecord. A missing forecast
// is not an error: the snapshot alone is returned and the record is nil.
// All timestamps come out in UTC.
func Normalize(loc models.Location, raw []byte, fetchedAt time.Time) (models.Snapshot, *models.ForecastRecord, error) {
	var resp feedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.Snapshot{}, nil, fmt.Errorf("failed to parse feed payload: %w", err)
	}

	if resp.Status != "ok" {
		return models.Snapshot{}, nil, fmt.Errorf("provider status %q", resp.Status)
	}
	if resp.Data.AQI == nil {
		return models.Snapshot{}, nil, fmt.Errorf("feed payload has no aqi value")
	}

	fetchedAt = fetchedAt.UTC()

	ts := fetchedAt
	if resp.Data.Time.ISO != "" {
		if parsed, err := time.Parse(time.RFC3339, resp.Data.Time.ISO); err == nil {
			ts = parsed.UTC()
		}
	}

	aqi := *resp.Data.AQI
	snapshot := models.Snapshot{
		Location:   loc.Key(),
		Timestamp:  ts,
		AQI:        aqi,
		Dominant:   resp.Data.DominentPol,
		Category:   models.CategoryForAQI(aqi),
		Pollutants: normalizePollutants(resp.Data.IAQI),
		FetchedAt:  fetchedAt,
	}

	forecast := normalizeForecast(loc, resp.Data.Forecast, fetchedAt)
	return snapshot, forecast, nil
}

// normalizePollutants copies reported readings into the optional-field
// record. Pollutants the provider omitted stay nil, not zero.
func normalizePollutants(iaqi map[string]feedValue) models.Pollutants {
	var p models.Pollutants
	for name, val := range iaqi {
		v := val.V
		switch name {
		case "pm25":
			p.PM25 = &v
		case "pm10":
			p.PM10 = &v
		case "o3":
			p.O3 = &v
		case "no2":
			p.NO2 = &v
		case "so2":
			p.SO2 = &v
		case "co":
			p.CO = &v
		}
	}
	return p
}

// normalizeForecast folds the per-pollutant daily series into one ordered
// day list. Days that cannot be parsed or that predate the as-of day are
// dropped; if nothing survives there is no record.
func normalizeForecast(loc models.Location, fc feedForecast, asOf time.Time) *models.ForecastRecord {
	if len(fc.Daily) == 0 {
		return nil
	}

	today := asOf.Truncate(24 * time.Hour)
	byDay := make(map[string]*models.ForecastDay)

	for pollutant, entries := range fc.Daily {
		for _, e := range entries {
			date, err := time.ParseInLocation("2006-01-02", e.Day, time.UTC)
			if err != nil {
				continue
			}
			if date.Before(today) {
				continue
			}

			day, ok := byDay[e.Day]
			if !ok {
				day = &models.ForecastDay{Date: date, Ranges: make(map[string]models.Range)}
				byDay[e.Day] = day
			}
			day.Ranges[pollutant] = models.Range{Min: e.Min, Avg: e.Avg, Max: e.Max}

			// The day's headline AQI is the worst predicted average.
			if e.Avg > day.AQI {
				day.AQI = e.Avg
			}
		}
	}

	if len(byDay) == 0 {
		return nil
	}

	days := make([]models.ForecastDay, 0, len(byDay))
	for _, day := range byDay {
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	return &models.ForecastRecord{
		Location: loc.Key(),
		AsOf:     asOf,
		Days:     days,
	}
}
