package learning

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"pressline/internal/logging"
)

// Schedule runs RunOnce on a 5-field cron expression (minute hour day-of-month
// month day-of-week) until the context is canceled. An empty schedule disables
// the background recompute. Blocks; run in a goroutine.
func (s *Service) Schedule(ctx context.Context, schedule string) error {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		s.logger.Info("scheduled recompute disabled")
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return err
	}
	s.logger.Info("scheduled recompute enabled", logging.String("schedule", schedule))

	for {
		now := time.Now()
		next := sched.Next(now)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(next.Sub(now)):
		}

		if _, err := s.RunOnce(ctx); err != nil {
			if errors.Is(err, ErrRecomputeInProgress) {
				s.logger.Warn("skipping scheduled recompute", logging.Error(err))
				continue
			}
			s.logger.Error("scheduled recompute failed", logging.Error(err))
		}
	}
}
