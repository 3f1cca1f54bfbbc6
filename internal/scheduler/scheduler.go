package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"weather-dashboard/internal/forecast"
)

// Scheduler periodically re-runs the pipeline and rewrites the dataset.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *forecast.Service
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(service *forecast.Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.logger.Info("running dataset refresh job")

		today := forecast.Midnight(time.Now())
		if err := s.service.Refresh(context.Background(), today); err != nil {
			if errors.Is(err, forecast.ErrNoData) {
				s.logger.Error("refresh produced no data; keeping previous dataset")
				return
			}
			s.logger.Error("dataset refresh failed", "error", err)
			return
		}
		s.logger.Info("dataset refresh job complete")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
