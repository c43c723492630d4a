package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a place we track air quality for. The set of locations is
// fixed at startup; StationRef is the provider-side identifier (a numeric
// station id like "@7397" or a city slug like "beijing").
type Location struct {
	Name       string `bson:"name" json:"name"`
	StationRef string `bson:"station_ref" json:"stationRef"`
}

// Key returns the canonical identifier used to key repository rows.
func (l Location) Key() string {
	return l.Name
}

// Pollutants holds per-pollutant index values. The provider may omit any of
// them, so every field is a pointer: nil means "not reported", which is
// distinct from a reported zero.
type Pollutants struct {
	PM25 *float64 `bson:"pm25,omitempty" json:"pm25,omitempty"`
	PM10 *float64 `bson:"pm10,omitempty" json:"pm10,omitempty"`
	O3   *float64 `bson:"o3,omitempty" json:"o3,omitempty"`
	NO2  *float64 `bson:"no2,omitempty" json:"no2,omitempty"`
	SO2  *float64 `bson:"so2,omitempty" json:"so2,omitempty"`
	CO   *float64 `bson:"co,omitempty" json:"co,omitempty"`
}

// Snapshot is one point-in-time measurement for a location. Snapshots are
// append-only; identity is (Location, Timestamp) and a duplicate timestamp
// for the same location must not create a second row.
type Snapshot struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Location   string             `bson:"location" json:"location"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"` // always UTC
	AQI        int                `bson:"aqi" json:"aqi"`
	Dominant   string             `bson:"dominant" json:"dominantPollutant"`
	Category   Category           `bson:"category" json:"category"`
	Pollutants Pollutants         `bson:"pollutants" json:"pollutants"`
	FetchedAt  time.Time          `bson:"fetched_at" json:"fetchedAt"`
}

// ForecastDay is a single predicted day inside a ForecastRecord.
type ForecastDay struct {
	Date   time.Time        `bson:"date" json:"date"`
	AQI    int              `bson:"aqi" json:"aqi"`
	Ranges map[string]Range `bson:"ranges,omitempty" json:"ranges,omitempty"`
}

// Range is a predicted min/avg/max band for one pollutant.
type Range struct {
	Min int `bson:"min" json:"min"`
	Avg int `bson:"avg" json:"avg"`
	Max int `bson:"max" json:"max"`
}

// ForecastRecord is the single current multi-day prediction for a location.
// There is at most one per location; a successful fetch replaces the whole
// payload and as-of time in place. Days are ordered chronologically and
// contain no date earlier than the as-of day.
type ForecastRecord struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Location string             `bson:"location" json:"location"`
	AsOf     time.Time          `bson:"as_of" json:"asOf"` // always UTC
	Days     []ForecastDay      `bson:"days" json:"days"`
}
