// Package learning orchestrates baseline recomputation: it replays completed
// order lines through the baseline statistics and persists the result. Reads
// of the baseline may race a recompute (the advisory baseline tolerates
// eventual consistency), but recompute writes themselves are serialized by a
// file lock so two runs never interleave.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"pressline/internal/baseline"
	"pressline/internal/config"
	"pressline/internal/logging"
	"pressline/internal/orders"
)

// ErrRecomputeInProgress indicates another recompute holds the writer lock.
var ErrRecomputeInProgress = errors.New("baseline recompute already in progress")

// Service recomputes and persists the learned baseline.
type Service struct {
	store    *orders.Store
	logger   *slog.Logger
	lockPath string
}

// NewService constructs a recompute service.
func NewService(cfg *config.Config, store *orders.Store, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "learning"),
		lockPath: cfg.RecomputeLockPath(),
	}
}

// Current returns the persisted baseline, or the defaults when none exists.
func (s *Service) Current(ctx context.Context) (baseline.Baseline, error) {
	payload, err := s.store.LoadBaseline(ctx)
	if err != nil {
		return baseline.Baseline{}, err
	}
	return baseline.Unmarshal(payload)
}

// RunOnce performs a single recompute under the writer lock and persists the
// new baseline. Safe to call concurrently with scoring reads.
func (s *Service) RunOnce(ctx context.Context) (baseline.Baseline, error) {
	lock := flock.New(s.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return baseline.Baseline{}, fmt.Errorf("acquire recompute lock: %w", err)
	}
	if !locked {
		return baseline.Baseline{}, ErrRecomputeInProgress
	}
	defer func() { _ = lock.Unlock() }()

	started := time.Now()

	prev, err := s.Current(ctx)
	if err != nil {
		return baseline.Baseline{}, err
	}

	completed, err := s.store.CompletedLines(ctx)
	if err != nil {
		return baseline.Baseline{}, err
	}
	all, err := s.store.ListLines(ctx)
	if err != nil {
		return baseline.Baseline{}, err
	}

	next := baseline.Recompute(completed, all, prev, time.Now().UTC())

	payload, err := next.Marshal()
	if err != nil {
		return baseline.Baseline{}, err
	}
	if err := s.store.SaveBaseline(ctx, payload); err != nil {
		return baseline.Baseline{}, err
	}

	s.logger.Info(
		"baseline recomputed",
		logging.Int("completed_lines", len(completed)),
		logging.Int("total_lines", len(all)),
		logging.Float64("confidence", next.Confidence()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return next, nil
}
