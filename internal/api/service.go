// Package api exposes the engine operations as a façade over the store, the
// workflow transitions, and the scoring functions. The CLI and the HTTP
// server both drive the engine through this package so transition commits,
// optimistic retries, and scoring inputs are assembled in exactly one place.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pressline/internal/baseline"
	"pressline/internal/health"
	"pressline/internal/learning"
	"pressline/internal/logging"
	"pressline/internal/orders"
	"pressline/internal/predict"
	"pressline/internal/priority"
	"pressline/internal/workflow"
)

// staleRetryAttempts bounds how often a mutation is replayed after losing an
// optimistic revision race. Invalid transitions are never retried.
const staleRetryAttempts = 3

// Service coordinates engine operations over a store.
type Service struct {
	store    *orders.Store
	learning *learning.Service
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithClock injects a clock, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs the engine façade.
func NewService(store *orders.Store, learningSvc *learning.Service, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		learning: learningSvc,
		logger:   logging.NewComponentLogger(logger, "api"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CompleteResult reports a substage completion and whether the line now waits
// on an explicit dispatch confirmation.
type CompleteResult struct {
	Line                 *orders.Line
	ConfirmationRequired bool
}

// Advance moves a line one step forward.
func (s *Service) Advance(ctx context.Context, lineID string) (*orders.Line, error) {
	return s.mutateLine(ctx, lineID, "advance", func(line *orders.Line, now time.Time) error {
		return workflow.Advance(line, now)
	})
}

// JumpToSubstage repositions a manufacturing line to another substep.
func (s *Service) JumpToSubstage(ctx context.Context, lineID string, target orders.Substage) (*orders.Line, error) {
	return s.mutateLine(ctx, lineID, "jump", func(line *orders.Line, now time.Time) error {
		return workflow.JumpToSubstage(line, target, now)
	})
}

// CompleteSubstage closes out the current substep.
func (s *Service) CompleteSubstage(ctx context.Context, lineID string) (CompleteResult, error) {
	var confirmation bool
	line, err := s.mutateLine(ctx, lineID, "complete", func(line *orders.Line, now time.Time) error {
		required, err := workflow.CompleteSubstage(line, now)
		confirmation = required
		return err
	})
	if err != nil {
		return CompleteResult{}, err
	}
	return CompleteResult{Line: line, ConfirmationRequired: confirmation}, nil
}

// ConfirmDispatch records tracking details and finalizes a line.
func (s *Service) ConfirmDispatch(ctx context.Context, lineID, trackingCode string) (*orders.Line, error) {
	return s.mutateLine(ctx, lineID, "confirm dispatch", func(line *orders.Line, now time.Time) error {
		return workflow.ConfirmDispatch(line, trackingCode, now)
	})
}

// AssignDepartment records the responsible department.
func (s *Service) AssignDepartment(ctx context.Context, lineID string, dept orders.Department) (*orders.Line, error) {
	return s.mutateLine(ctx, lineID, "assign department", func(line *orders.Line, now time.Time) error {
		return workflow.AssignDepartment(line, dept, now)
	})
}

// AssignUser records the individual assignee.
func (s *Service) AssignUser(ctx context.Context, lineID, userID string) (*orders.Line, error) {
	return s.mutateLine(ctx, lineID, "assign user", func(line *orders.Line, now time.Time) error {
		return workflow.AssignUser(line, userID, now)
	})
}

// AddDelayReason appends an audit delay reason.
func (s *Service) AddDelayReason(ctx context.Context, lineID, category, note string) (*orders.Line, error) {
	return s.mutateLine(ctx, lineID, "add delay reason", func(line *orders.Line, now time.Time) error {
		return workflow.AddDelayReason(line, category, note, now)
	})
}

// ClassifyPriority derives the urgency tier for a delivery date.
func (s *Service) ClassifyPriority(deliveryDate time.Time) priority.Tier {
	return priority.Classify(deliveryDate, s.now())
}

// LinePriority resolves the line's effective deadline and classifies it,
// also returning the whole days remaining.
func (s *Service) LinePriority(ctx context.Context, lineID string) (priority.Tier, int, error) {
	line, err := s.Line(ctx, lineID)
	if err != nil {
		return priority.TierLow, 0, err
	}
	ord, err := s.store.GetOrder(ctx, line.OrderID)
	if err != nil {
		return priority.TierLow, 0, err
	}
	deadline := line.EffectiveDeliveryDate(ord)
	now := s.now()
	return priority.Classify(deadline, now), priority.DaysUntil(deadline, now), nil
}

// Score computes the health report for a line, assembling the optional
// workload and history inputs from the store and the learned baseline.
func (s *Service) Score(ctx context.Context, lineID string) (*orders.Line, health.Report, error) {
	line, ord, b, err := s.scoringInputs(ctx, lineID)
	if err != nil {
		return nil, health.Report{}, err
	}

	opts := health.Options{Now: s.now()}
	if line.AssigneeID != "" {
		open, err := s.store.OpenLineCount(ctx, line.AssigneeID)
		if err != nil {
			return nil, health.Report{}, err
		}
		opts.OpenLineCount = &open
		if delays, ok := b.HistoricalDelayCount(line.AssigneeID); ok {
			opts.HistoricalDelayCount = &delays
		}
	}

	return line, health.Score(line, ord, b, opts), nil
}

// PredictDelay estimates the delivery-miss probability for a line.
func (s *Service) PredictDelay(ctx context.Context, lineID string) (float64, error) {
	line, ord, b, err := s.scoringInputs(ctx, lineID)
	if err != nil {
		return 0, err
	}
	return predict.Probability(line, ord, b, s.now()), nil
}

// RecomputeBaseline triggers a learning recompute and returns the new record.
func (s *Service) RecomputeBaseline(ctx context.Context) (baseline.Baseline, error) {
	return s.learning.RunOnce(ctx)
}

// ScheduleRecompute runs the periodic recompute loop until ctx is cancelled.
// An empty schedule disables it and returns immediately.
func (s *Service) ScheduleRecompute(ctx context.Context, schedule string) error {
	return s.learning.Schedule(ctx, schedule)
}

// Baseline returns the current learned baseline.
func (s *Service) Baseline(ctx context.Context) (baseline.Baseline, error) {
	return s.learning.Current(ctx)
}

// Line fetches a line, mapping absence to orders.ErrNotFound.
func (s *Service) Line(ctx context.Context, lineID string) (*orders.Line, error) {
	line, err := s.store.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, fmt.Errorf("line %s: %w", lineID, orders.ErrNotFound)
	}
	return line, nil
}

// Order fetches an order, mapping absence to orders.ErrNotFound.
func (s *Service) Order(ctx context.Context, orderID string) (*orders.Order, error) {
	ord, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, orders.ErrNotFound)
	}
	return ord, nil
}

func (s *Service) scoringInputs(ctx context.Context, lineID string) (*orders.Line, *orders.Order, baseline.Baseline, error) {
	line, err := s.Line(ctx, lineID)
	if err != nil {
		return nil, nil, baseline.Baseline{}, err
	}
	ord, err := s.store.GetOrder(ctx, line.OrderID)
	if err != nil {
		return nil, nil, baseline.Baseline{}, err
	}
	b, err := s.learning.Current(ctx)
	if err != nil {
		return nil, nil, baseline.Baseline{}, err
	}
	return line, ord, b, nil
}

// mutateLine implements compute-then-commit: read a consistent snapshot,
// apply the transition to a copy, and commit under the revision check. A lost
// race re-reads and replays; a rejected transition surfaces unmodified.
func (s *Service) mutateLine(ctx context.Context, lineID, operation string, apply func(*orders.Line, time.Time) error) (*orders.Line, error) {
	for attempt := 0; attempt < staleRetryAttempts; attempt++ {
		line, err := s.Line(ctx, lineID)
		if err != nil {
			return nil, err
		}

		next := line.Clone()
		if err := apply(next, s.now()); err != nil {
			return nil, err
		}

		err = s.store.UpdateLine(ctx, next)
		if errors.Is(err, orders.ErrStaleLine) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info(
			"line transition applied",
			logging.String(logging.FieldLineID, next.ID),
			logging.String("operation", operation),
			logging.String(logging.FieldStage, string(next.CurrentStage)),
			logging.String(logging.FieldSubstage, string(next.CurrentSubstage)),
		)
		return next, nil
	}
	return nil, fmt.Errorf("%s: line %s: %w", operation, lineID, orders.ErrStaleLine)
}
