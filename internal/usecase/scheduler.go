package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// DailyJob bundles everything one scheduled run needs.
type DailyJob struct {
	Collector    *Collector
	Pipeline     *Pipeline
	Reports      *ReportGenerator
	Notifier     ports.Notifier
	Symbols      []string
	LookbackDays int
	Publish      bool
	Logger       *slog.Logger
}

// Run collects and processes every symbol for the day lookbackDays before
// trigger, then optionally publishes the report. A failure on one symbol
// does not stop the others.
func (j *DailyJob) Run(ctx context.Context, trigger time.Time) error {
	logger := j.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if j.Collector == nil || j.Pipeline == nil {
		return fmt.Errorf("daily job is not configured")
	}

	lookback := j.LookbackDays
	if lookback <= 0 {
		lookback = 1
	}
	day := trigger.UTC().AddDate(0, 0, -lookback)
	dayText := day.Format(domain.DayLayout)

	var failed int
	for _, symbol := range j.Symbols {
		snapshot, err := j.Collector.Collect(ctx, symbol, day)
		if err != nil {
			failed++
			logger.Error("collect failed", "symbol", symbol, "day", dayText, "error", err)
			continue
		}
		if _, err := j.Pipeline.Process(ctx, snapshot); err != nil {
			failed++
			logger.Error("process failed", "symbol", symbol, "day", dayText, "error", err)
			continue
		}
	}

	if j.Publish && j.Reports != nil && j.Notifier != nil {
		for _, symbol := range j.Symbols {
			report, err := j.Reports.Generate(ctx, dayText, symbol)
			if err != nil {
				failed++
				logger.Error("report failed", "symbol", symbol, "day", dayText, "error", err)
				continue
			}
			if err := j.Notifier.PublishReport(ctx, report); err != nil {
				failed++
				logger.Error("publish report failed", "symbol", symbol, "day", dayText, "error", err)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("daily run for %s: %d step(s) failed", dayText, failed)
	}
	return nil
}

// Scheduler wires the cron-like driver with the daily job.
type Scheduler struct {
	driver ports.Scheduler
	job    *DailyJob
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, job *DailyJob, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, job: job, logger: logger}
}

// Start registers the daily job with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.job == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.job.Run(ctx, trigger); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
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
