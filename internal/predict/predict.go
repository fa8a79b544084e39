// Package predict estimates the probability that an order line misses its
// delivery date. This is a heuristic linear scorer built from capped additive
// contributions, monotone in each input; it makes no claim of statistical
// calibration and should be read as a ranking signal, not a probability model.
package predict

import (
	"math"
	"time"

	"pressline/internal/baseline"
	"pressline/internal/orders"
	"pressline/internal/priority"
)

const (
	stageRateCap    = 0.3
	assigneeRateCap = 0.3
	overrunCap      = 0.3
	rateScale       = 0.5
)

// Probability returns the delay likelihood for a line in [0,1]. A line whose
// effective delivery date has already passed is a certain miss and
// short-circuits to 1.
func Probability(line *orders.Line, ord *orders.Order, b baseline.Baseline, now time.Time) float64 {
	if line == nil {
		return 0
	}

	delivery := line.EffectiveDeliveryDate(ord)
	days := 0
	hasDeadline := !delivery.IsZero()
	if hasDeadline {
		days = priority.DaysUntil(delivery, now)
		if days < 0 {
			return 1
		}
	}

	var p float64
	if rate, ok := b.StageDelayRate(line.CurrentStage); ok {
		p += math.Min(stageRateCap, rate*rateScale)
	}
	if rate, ok := b.AssigneeDelayRate(line.AssigneeID); ok {
		p += math.Min(assigneeRateCap, rate*rateScale)
	}

	if expected := b.ExpectedDuration(line.CurrentStage); expected > 0 {
		if ratio := line.Duration(line.CurrentStage) / expected; ratio > 1 {
			p += math.Min(overrunCap, (ratio-1)*overrunCap)
		}
	}

	if hasDeadline {
		switch {
		case days <= 1:
			p += 0.2
		case days <= 3:
			p += 0.1
		}
	}

	return math.Min(1, p)
}
