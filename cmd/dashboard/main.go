package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "weather-dashboard/internal/api/http"
	"weather-dashboard/internal/config"
	"weather-dashboard/internal/dataset"
	"weather-dashboard/internal/forecast"
	"weather-dashboard/internal/forecast/openmeteo"
	"weather-dashboard/internal/logging"
	"weather-dashboard/internal/scheduler"
	"weather-dashboard/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	slogger := logging.New(cfg.AppEnv, cfg.LogLevel, "weather-dashboard")

	// Shared HTTP client for outbound Open-Meteo calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := openmeteo.NewClientWithBaseURLs(httpClient, cfg.ForecastURL, cfg.AirQualityURL)

	sinks := []forecast.Sink{storage.NewCSVWriter(cfg.OutputPath, slogger)}
	if cfg.DatabaseURL != "" {
		pgWriter, err := storage.NewPostgresWriter(cfg.DatabaseURL, slogger)
		if err != nil {
			slogger.Error("skipping PostgreSQL mirror", "error", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.CreateTable(); err != nil {
				slogger.Error("skipping PostgreSQL mirror", "error", err)
			} else {
				sinks = append(sinks, pgWriter)
			}
		}
	}

	service := forecast.NewService(client, cfg.Locations, sinks, slogger)

	// Scheduler that periodically refreshes the dataset.
	sched := scheduler.New(service, cfg.FetchInterval, slogger)
	if err := sched.Start(); err != nil {
		slogger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Read-through cache over the dataset file for the API handlers.
	cache := dataset.NewCache(cfg.OutputPath, slogger)

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, cache)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slogger.Error("fiber server stopped", "error", err)
		}
	}()
	slogger.Info("dashboard API listening", "port", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slogger.Error("error during shutdown", "error", err)
	}
}
