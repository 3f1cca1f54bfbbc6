package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"weather-dashboard/internal/config"
	"weather-dashboard/internal/forecast"
	"weather-dashboard/internal/forecast/openmeteo"
	"weather-dashboard/internal/logging"
	"weather-dashboard/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config may itself be broken; fall back to stderr.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.AppEnv, cfg.LogLevel, "weather-fetch")
	logger.Info("fetching weather dataset", "cities", len(cfg.Locations), "output", cfg.OutputPath)

	// Shared HTTP client for outbound Open-Meteo calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := openmeteo.NewClientWithBaseURLs(httpClient, cfg.ForecastURL, cfg.AirQualityURL)

	sinks := []forecast.Sink{storage.NewCSVWriter(cfg.OutputPath, logger)}

	// Optional PostgreSQL mirror; its absence or failure never blocks the
	// CSV artifact.
	if cfg.DatabaseURL != "" {
		pgWriter, err := storage.NewPostgresWriter(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("skipping PostgreSQL mirror", "error", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.CreateTable(); err != nil {
				logger.Error("skipping PostgreSQL mirror", "error", err)
			} else {
				sinks = append(sinks, pgWriter)
			}
		}
	}

	service := forecast.NewService(client, cfg.Locations, sinks, logger)

	today := forecast.Midnight(time.Now())
	if err := service.Refresh(context.Background(), today); err != nil {
		if errors.Is(err, forecast.ErrNoData) {
			logger.Error("no location succeeded; nothing was written")
		} else {
			logger.Error("pipeline run failed", "error", err)
		}
		os.Exit(1)
	}

	logger.Info("data downloaded and saved", "path", cfg.OutputPath)
}
