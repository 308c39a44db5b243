package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the tracker service
type Config struct {
	// HTTP
	ListenAddr string

	// GTFS-RT feeds
	VehiclePositionsURL string
	TripUpdatesURL      string
	FeedTimeout         time.Duration

	// Static metadata
	StationsPath     string
	RouteMappingPath string

	// Store backend: "sheets" or "sqlite"
	StoreBackend string

	// Google Sheets
	SpreadsheetID     string
	SheetsClientEmail string
	SheetsPrivateKey  string

	// Local SQLite store
	SQLitePath string

	// Reference timezone for the daily log
	Location *time.Location
}

// Load reads configuration from .env and environment variables
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8080"),
		VehiclePositionsURL: os.Getenv("VEHICLE_POSITIONS_URL"),
		TripUpdatesURL:      os.Getenv("TRIP_UPDATES_URL"),
		FeedTimeout:         time.Duration(getEnvInt("FEED_TIMEOUT_SECONDS", 15)) * time.Second,
		StationsPath:        getEnv("STATIONS_PATH", "public/all.json"),
		RouteMappingPath:    getEnv("ROUTE_MAPPING_PATH", "public/route-mapping.json"),
		StoreBackend:        getEnv("STORE_BACKEND", "sheets"),
		SpreadsheetID:       os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetsClientEmail:   os.Getenv("GOOGLE_SHEETS_CLIENT_EMAIL"),
		SheetsPrivateKey:    os.Getenv("GOOGLE_SHEETS_PRIVATE_KEY"),
		SQLitePath:          getEnv("SQLITE_DATABASE", "/data/departures.db"),
	}

	if cfg.VehiclePositionsURL == "" {
		return nil, fmt.Errorf("VEHICLE_POSITIONS_URL must be set")
	}
	if cfg.TripUpdatesURL == "" {
		return nil, fmt.Errorf("TRIP_UPDATES_URL must be set")
	}

	switch cfg.StoreBackend {
	case "sheets":
		if cfg.SpreadsheetID == "" || cfg.SheetsClientEmail == "" || cfg.SheetsPrivateKey == "" {
			return nil, fmt.Errorf("GOOGLE_SPREADSHEET_ID, GOOGLE_SHEETS_CLIENT_EMAIL and GOOGLE_SHEETS_PRIVATE_KEY must be set when STORE_BACKEND=sheets")
		}
		// Keys pasted into single-line env vars arrive with literal \n sequences
		if strings.Contains(cfg.SheetsPrivateKey, `\n`) {
			cfg.SheetsPrivateKey = strings.ReplaceAll(cfg.SheetsPrivateKey, `\n`, "\n")
		}
	case "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q (want sheets or sqlite)", cfg.StoreBackend)
	}

	tz := getEnv("TZ_NAME", "Europe/Belgrade")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_NAME %q: %w", tz, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
