package app

import (
	"context"
	"sync"
	"time"

	"plotlines.app/internal/core/dispatch"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// CycleRunner runs today's dispatch cycle
type CycleRunner interface {
	RunToday(ctx context.Context) (*dispatch.CycleSummary, error)
}

// Scheduler fires one dispatch cycle per day at the configured local time
type Scheduler struct {
	runner CycleRunner
	config ports.SchedulerConfig
	clock  ports.Clock
	logger ports.Logger
	after  func(time.Duration) <-chan time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(runner CycleRunner, config ports.SchedulerConfig, clock ports.Clock, logger ports.Logger) *Scheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Scheduler{
		runner: runner,
		config: config,
		clock:  clock,
		logger: logger,
		after:  time.After,
		stop:   make(chan struct{}),
	}
}

// NextRun returns the first dispatch time strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.config.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.config.Hour, s.config.Minute, 0, 0, s.config.Location)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.config.Hour, s.config.Minute, 0, 0, s.config.Location)
	}
	return next
}

// Run blocks until ctx is cancelled or Stop is called
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Dispatch scheduler started",
		ports.F("hour", s.config.Hour),
		ports.F("minute", s.config.Minute),
		ports.F("timezone", s.config.Location.String()))

	for {
		now := s.clock.Now()
		next := s.NextRun(now)
		s.logger.Debug("Next dispatch scheduled", ports.F("at", next.Format(time.RFC3339)))

		select {
		case <-ctx.Done():
			s.logger.Info("Dispatch scheduler stopped due to context cancellation")
			return
		case <-s.stop:
			s.logger.Info("Dispatch scheduler stopped")
			return
		case <-s.after(next.Sub(now)):
			s.runOnce(ctx)
		}
	}
}

// Stop ends Run; it is safe to call more than once
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Scheduler) runOnce(ctx context.Context) {
	summary, err := s.runner.RunToday(ctx)
	if err != nil {
		if errors.IsConflictError(err) {
			s.logger.Warn("Scheduled dispatch skipped, another cycle holds the lock", ports.F("error", err))
			return
		}
		s.logger.Error("Scheduled dispatch failed", ports.F("error", err))
		return
	}

	s.logger.Info("Scheduled dispatch finished",
		ports.F("date", summary.Date),
		ports.F("completed", summary.Completed),
		ports.F("failed", summary.Failed),
		ports.F("sent", summary.Sent))
}
