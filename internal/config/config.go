package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"weather-dashboard/internal/forecast"
	"weather-dashboard/internal/forecast/openmeteo"
)

// DefaultLocations is the fixed set of tracked cities. Defined once at
// startup and never persisted separately.
var DefaultLocations = []forecast.Location{
	{Name: "Shenzhen", Lat: 22.5431, Lon: 114.0579},
	{Name: "Bangkok", Lat: 13.7563, Lon: 100.5018},
	{Name: "Tokyo", Lat: 35.6895, Lon: 139.6917},
	{Name: "Seoul", Lat: 37.5665, Lon: 126.9780},
	{Name: "London", Lat: 51.5074, Lon: -0.1278},
	{Name: "New York", Lat: 40.7128, Lon: -74.0060},
	{Name: "Los Angeles", Lat: 34.0522, Lon: -118.2437},
	{Name: "Paris", Lat: 48.8566, Lon: 2.3522},
	{Name: "Beijing", Lat: 39.9042, Lon: 116.4074},
}

type AppConfig struct {
	// OutputPath is where the dataset CSV is written and read.
	OutputPath string

	// DatabaseURL enables the optional PostgreSQL mirror when non-empty.
	DatabaseURL string

	// FetchInterval controls how often the dashboard refreshes the dataset.
	FetchInterval time.Duration

	// HTTPTimeout bounds each outbound Open-Meteo call.
	HTTPTimeout time.Duration

	// Upstream endpoint overrides, mainly for tests.
	ForecastURL   string
	AirQualityURL string

	// Locations to track.
	Locations []forecast.Location

	AppEnv   string
	LogLevel slog.Level
	Port     string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OutputPath = getenvDefault("OUTPUT_PATH", "weather_data.csv")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	intervalStr := getenvDefault("FETCH_INTERVAL", "60m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.ForecastURL = getenvDefault("FORECAST_URL", openmeteo.DefaultForecastURL)
	cfg.AirQualityURL = getenvDefault("AIR_QUALITY_URL", openmeteo.DefaultAirQualityURL)

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Locations = DefaultLocations

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
