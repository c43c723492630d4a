package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/airqd/airqd/internal/logger"
	"github.com/airqd/airqd/models"
	"github.com/joho/godotenv"
)

// Config holds the application configuration, loaded once at startup.
type Config struct {
	ProviderBaseURL string
	ProviderToken   string

	// RefreshInterval controls how often the scheduler refreshes every location.
	RefreshInterval time.Duration

	// FreshnessWindow is how long a reader-side cached value is served
	// without revalidation.
	FreshnessWindow time.Duration

	// ShutdownGrace bounds how long shutdown waits for in-flight writes.
	ShutdownGrace time.Duration

	Locations []models.Location

	MongoURI            string
	DBName              string
	CollectionSnapshots string
	CollectionForecasts string

	Port string
}

// Load reads the .env file (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional in deployment.
		logger.Debug("no .env file loaded: %v", err)
	}

	cfg := &Config{
		ProviderBaseURL:     getenvDefault("PROVIDER_BASE_URL", "https://api.waqi.info/feed"),
		ProviderToken:       os.Getenv("PROVIDER_TOKEN"),
		MongoURI:            getMongoURI(),
		DBName:              getenvDefault("DB_NAME", "airqd"),
		CollectionSnapshots: getenvDefault("COLLECTION_SNAPSHOTS", "snapshots"),
		CollectionForecasts: getenvDefault("COLLECTION_FORECASTS", "forecasts"),
		Port:                getenvDefault("PORT", "8080"),
	}

	var err error
	if cfg.RefreshInterval, err = parseDuration("REFRESH_INTERVAL", "10m"); err != nil {
		return nil, err
	}
	if cfg.FreshnessWindow, err = parseDuration("FRESHNESS_WINDOW", "30s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownGrace, err = parseDuration("SHUTDOWN_GRACE", "15s"); err != nil {
		return nil, err
	}

	locs, err := parseLocations(os.Getenv("LOCATIONS"))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// parseLocations parses "name=stationRef" pairs separated by commas,
// e.g. "home=@7397,office=beijing".
func parseLocations(raw string) ([]models.Location, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var locs []models.Location
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid LOCATIONS entry %q, want name=stationRef", pair)
		}
		locs = append(locs, models.Location{Name: parts[0], StationRef: parts[1]})
	}
	return locs, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getMongoURI constructs the MongoDB URI from environment variables.
func getMongoURI() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}

	host := getenvDefault("MONGO_HOST", "localhost")
	port := getenvDefault("MONGO_PORT", "27017")
	user := os.Getenv("MONGO_USER")
	pass := os.Getenv("MONGO_PASS")

	if user == "" {
		return "mongodb://" + host + ":" + port
	}

	authDB := getenvDefault("MONGO_AUTH_DB", "admin")
	return "mongodb://" + user + ":" + pass + "@" + host + ":" + port + "/?authSource=" + authDB
}
