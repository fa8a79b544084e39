// Package health combines deadline proximity, stage-duration overrun,
// assignee workload, delay history, and the learned delay prediction into a
// 0-100 score with a traffic-light status. Scores are views recomputed on
// every read, never persisted as truth.
package health

import (
	"time"

	"pressline/internal/baseline"
	"pressline/internal/orders"
	"pressline/internal/predict"
	"pressline/internal/priority"
)

// Status is the traffic-light classification of a health score.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusAtRisk   Status = "at_risk"
	StatusCritical Status = "critical"
)

// Factor names used in score breakdowns.
const (
	FactorDeadline   = "deadline_proximity"
	FactorOverrun    = "stage_overrun"
	FactorWorkload   = "assignee_workload"
	FactorHistory    = "historical_delays"
	FactorPrediction = "learned_prediction"
)

// Factor is one weighted contribution to the score.
type Factor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Budget int    `json:"budget"`
}

// Report is the derived health record for a line.
type Report struct {
	Score    int      `json:"score"`
	MaxScore int      `json:"max_score"`
	Status   Status   `json:"status"`
	Factors  []Factor `json:"factors"`
}

// Options carries the optional scoring inputs. Absent optional statistics
// simply drop their factor: the score keeps headroom below 100 rather than
// rescaling, so the absolute status thresholds stay stable across
// configurations.
type Options struct {
	Now time.Time

	// OpenLineCount is the assignee's current non-terminal line count.
	OpenLineCount *int

	// HistoricalDelayCount is the assignee's delivered-late line count.
	HistoricalDelayCount *int
}

// Confidence threshold above which the scorer trusts its baselines enough to
// use the tighter status thresholds. Keeping the looser bar until the
// baselines have earned trust is a deliberate anti-overconfidence choice.
const calibratedConfidence = 0.8

// Score computes the health report for a line. Total function: every input
// combination yields a report, with missing optional statistics dropping
// their factors.
func Score(line *orders.Line, ord *orders.Order, b baseline.Baseline, opts Options) Report {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	report := Report{}
	addFactor := func(name string, points, budget int) {
		report.Factors = append(report.Factors, Factor{Name: name, Points: points, Budget: budget})
		report.Score += points
		report.MaxScore += budget
	}

	addFactor(FactorDeadline, deadlinePoints(line, ord, now), 40)
	addFactor(FactorOverrun, overrunPoints(line, b), 30)

	if opts.OpenLineCount != nil {
		addFactor(FactorWorkload, workloadPoints(*opts.OpenLineCount), 20)
	}
	if opts.HistoricalDelayCount != nil {
		points := 10 - 2*(*opts.HistoricalDelayCount)
		if points < 0 {
			points = 0
		}
		addFactor(FactorHistory, points, 10)
	}
	if b.HasLearnedData() {
		addFactor(FactorPrediction, predictionPoints(line, ord, b, now), 10)
	}

	if report.Score > 100 {
		report.Score = 100
	}
	report.Status = statusFor(report.Score, b.Confidence())
	return report
}

func deadlinePoints(line *orders.Line, ord *orders.Order, now time.Time) int {
	delivery := line.EffectiveDeliveryDate(ord)
	if delivery.IsZero() {
		return 40
	}
	days := priority.DaysUntil(delivery, now)
	switch {
	case days < 0:
		return 0
	case days <= 1:
		return 10
	case days <= 3:
		return 20
	case days <= 7:
		return 30
	default:
		return 40
	}
}

func overrunPoints(line *orders.Line, b baseline.Baseline) int {
	expected := b.ExpectedDuration(line.CurrentStage)
	if expected <= 0 {
		return 30
	}
	spent := line.Duration(line.CurrentStage)
	switch {
	case spent > 1.5*expected:
		return 0
	case spent > expected:
		return 15
	default:
		return 30
	}
}

func workloadPoints(openLines int) int {
	switch {
	case openLines > 10:
		return 5
	case openLines > 5:
		return 10
	default:
		return 20
	}
}

func predictionPoints(line *orders.Line, ord *orders.Order, b baseline.Baseline, now time.Time) int {
	probability := predict.Probability(line, ord, b, now)
	switch {
	case probability > 0.7:
		return 0
	case probability > 0.5:
		return 5
	default:
		return 10
	}
}

// statusFor applies the two-tier thresholds: tighter once the baseline's
// calibration confidence clears 0.8, looser before that.
func statusFor(score int, confidence float64) Status {
	healthyAt, atRiskAt := 75, 45
	if confidence > calibratedConfidence {
		healthyAt, atRiskAt = 80, 50
	}
	switch {
	case score >= healthyAt:
		return StatusHealthy
	case score >= atRiskAt:
		return StatusAtRisk
	default:
		return StatusCritical
	}
}
