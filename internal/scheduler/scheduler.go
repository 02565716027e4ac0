package scheduler

import (
	"context"
	"time"

	"github.com/estudio-tools/workflow-api/internal/services"
	"go.uber.org/zap"
)

// Scheduler drives the daily background jobs: materializing recurring task
// rules and promoting Scheduled tasks whose start date has arrived. It fires
// once per day at the configured local wall-clock time.
type Scheduler struct {
	recurrence *services.RecurrenceService
	logger     *zap.Logger

	hour     int
	minute   int
	location *time.Location
}

// New creates a Scheduler firing daily at hour:minute in the given location.
func New(recurrence *services.RecurrenceService, logger *zap.Logger, hour, minute int, location *time.Location) *Scheduler {
	return &Scheduler{
		recurrence: recurrence,
		logger:     logger,
		hour:       hour,
		minute:     minute,
		location:   location,
	}
}

// Start runs the scheduler loop until the context is cancelled. Call it in
// its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
		zap.String("timezone", s.location.String()),
	)

	for {
		next := s.nextRun(time.Now().In(s.location))
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
			s.RunOnce(next)
		}
	}
}

// RunOnce executes one materialization and promotion pass for the given day.
func (s *Scheduler) RunOnce(now time.Time) {
	generated, err := s.recurrence.GenerateDailyTasks(now)
	if err != nil {
		s.logger.Error("recurring task generation failed", zap.Error(err))
	} else if generated > 0 {
		s.logger.Info("recurring tasks generated", zap.Int("count", generated))
	}

	promoted, err := s.recurrence.PromoteScheduledTasks(now)
	if err != nil {
		s.logger.Error("scheduled task promotion failed", zap.Error(err))
	} else if promoted > 0 {
		s.logger.Info("scheduled tasks promoted", zap.Int64("count", promoted))
	}
}

// nextRun returns the next hour:minute tick strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
