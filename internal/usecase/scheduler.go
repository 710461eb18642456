package usecase

import (
	"context"
	"log/slog"
	"time"

	"horizonscan/internal/ports"
)

// Scheduler wires the cron driver with the scan pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	urls     []string
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring scans.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, urls []string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, pipeline: pipeline, urls: urls, logger: logger}
}

// Start registers the scan job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled scan starting", "trigger", trigger)
		if _, err := s.pipeline.ScanSites(ctx, s.urls); err != nil {
			s.logger.Error("scheduled scan failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
