// Package baseline maintains the learned empirical statistics the scoring
// engine compares order lines against: per-stage duration percentiles,
// per-assignee delay rates, and delay-cause tallies. The "learning" here is
// plain recalibration from completed order history, not a trained model.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pressline/internal/orders"
)

// MinSamples is the evidence threshold below which learned stage statistics
// are ignored in favor of the hard-coded defaults. Guards against baseline
// thrash on sparse early-life data.
const MinSamples = 10

// ErrInsufficientData is returned by strict accessors when a caller demands
// learned statistics and the sample count is below MinSamples. Non-strict
// paths degrade to defaults instead of failing.
var ErrInsufficientData = errors.New("insufficient baseline data")

// StageStats holds learned duration statistics for one top-level stage.
type StageStats struct {
	MeanHours   float64   `json:"mean_hours"`
	MedianHours float64   `json:"median_hours"`
	P95Hours    float64   `json:"p95_hours"`
	DelayRate   float64   `json:"delay_rate"`
	SampleCount int       `json:"sample_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// AssigneeStats holds learned statistics for one assignee.
type AssigneeStats struct {
	AvgTotalHours float64 `json:"avg_total_hours"`
	DelayRate     float64 `json:"delay_rate"`
	LinesHandled  int     `json:"lines_handled"`
}

// Baseline is the learned-statistics record. It is read-only to the scorers;
// only Recompute produces new values.
type Baseline struct {
	Stages      map[orders.Stage]StageStats `json:"stages"`
	Assignees   map[string]AssigneeStats    `json:"assignees"`
	DelayCauses map[string]int              `json:"delay_causes"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// defaultP95Hours are the expected stage residency ceilings used until enough
// completed history accumulates.
var defaultP95Hours = map[orders.Stage]float64{
	orders.StageIntake:        24,
	orders.StageDesign:        72,
	orders.StagePrepress:      48,
	orders.StageManufacturing: 96,
	orders.StageDispatch:      24,
}

// durationStages are the stages that carry duration baselines; done is
// terminal and accrues nothing.
var durationStages = []orders.Stage{
	orders.StageIntake,
	orders.StageDesign,
	orders.StagePrepress,
	orders.StageManufacturing,
	orders.StageDispatch,
}

// Defaults returns a baseline populated with the hard-coded expectations and
// no learned samples.
func Defaults() Baseline {
	return Baseline{
		Stages:      map[orders.Stage]StageStats{},
		Assignees:   map[string]AssigneeStats{},
		DelayCauses: map[string]int{},
	}
}

// ExpectedDuration returns the learned p95 residency for a stage when enough
// samples exist, falling back to the hard-coded default so scorers never
// operate against a statistically weak baseline.
func (b Baseline) ExpectedDuration(stage orders.Stage) float64 {
	if stats, ok := b.Stages[stage]; ok && stats.SampleCount > MinSamples {
		return stats.P95Hours
	}
	return defaultP95Hours[stage]
}

// StrictExpectedDuration returns the learned p95 only, with
// ErrInsufficientData when the sample count is below the threshold.
func (b Baseline) StrictExpectedDuration(stage orders.Stage) (float64, error) {
	stats, ok := b.Stages[stage]
	if !ok || stats.SampleCount <= MinSamples {
		return 0, fmt.Errorf("stage %s: %w", stage, ErrInsufficientData)
	}
	return stats.P95Hours, nil
}

// StageDelayRate returns the learned share of completed lines that passed
// through a stage and still missed delivery, and whether it is learned.
func (b Baseline) StageDelayRate(stage orders.Stage) (float64, bool) {
	stats, ok := b.Stages[stage]
	if !ok || stats.SampleCount <= MinSamples {
		return 0, false
	}
	return stats.DelayRate, true
}

// AssigneeDelayRate returns the learned delay rate for an assignee.
func (b Baseline) AssigneeDelayRate(assigneeID string) (float64, bool) {
	stats, ok := b.Assignees[assigneeID]
	if !ok || stats.LinesHandled == 0 {
		return 0, false
	}
	return stats.DelayRate, true
}

// HistoricalDelayCount estimates how many delivered-late lines an assignee
// has on record.
func (b Baseline) HistoricalDelayCount(assigneeID string) (int, bool) {
	stats, ok := b.Assignees[assigneeID]
	if !ok || stats.LinesHandled == 0 {
		return 0, false
	}
	return int(stats.DelayRate*float64(stats.LinesHandled) + 0.5), true
}

// HasLearnedData reports whether at least one stage baseline has cleared the
// sample threshold.
func (b Baseline) HasLearnedData() bool {
	for _, stats := range b.Stages {
		if stats.SampleCount > MinSamples {
			return true
		}
	}
	return false
}

// Confidence is the calibration confidence in [0,1]: the fraction of
// duration-bearing stages whose learned sample count has cleared the
// threshold. The health scorer tightens its status thresholds only above 0.8,
// an explicit guard against trusting young baselines.
func (b Baseline) Confidence() float64 {
	if len(b.Stages) == 0 {
		return 0
	}
	learned := 0
	for _, stage := range durationStages {
		if stats, ok := b.Stages[stage]; ok && stats.SampleCount > MinSamples {
			learned++
		}
	}
	return float64(learned) / float64(len(durationStages))
}

// Marshal serializes the baseline for the persistence store.
func (b Baseline) Marshal() ([]byte, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode baseline: %w", err)
	}
	return payload, nil
}

// Unmarshal decodes a persisted baseline record. A nil payload yields the
// defaults so callers never see an empty baseline.
func Unmarshal(payload []byte) (Baseline, error) {
	if len(payload) == 0 {
		return Defaults(), nil
	}
	var b Baseline
	if err := json.Unmarshal(payload, &b); err != nil {
		return Baseline{}, fmt.Errorf("decode baseline: %w", err)
	}
	if b.Stages == nil {
		b.Stages = map[orders.Stage]StageStats{}
	}
	if b.Assignees == nil {
		b.Assignees = map[string]AssigneeStats{}
	}
	if b.DelayCauses == nil {
		b.DelayCauses = map[string]int{}
	}
	return b, nil
}

func (b Baseline) clone() Baseline {
	cp := Baseline{
		Stages:      make(map[orders.Stage]StageStats, len(b.Stages)),
		Assignees:   make(map[string]AssigneeStats, len(b.Assignees)),
		DelayCauses: make(map[string]int, len(b.DelayCauses)),
		UpdatedAt:   b.UpdatedAt,
	}
	for stage, stats := range b.Stages {
		cp.Stages[stage] = stats
	}
	for id, stats := range b.Assignees {
		cp.Assignees[id] = stats
	}
	for cause, count := range b.DelayCauses {
		cp.DelayCauses[cause] = count
	}
	return cp
}
