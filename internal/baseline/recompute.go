package baseline

import (
	"sort"
	"time"

	"pressline/internal/orders"
)

// Recompute derives a new baseline by replaying order history. Duration and
// delay statistics come from completed lines (with delivery dates already
// resolved through the order-level fallback); delay-cause tallies span all
// lines, completed or not. A stage's learned statistics overwrite the previous
// record only once its sample count clears MinSamples, so sparse early data
// never displaces the defaults. The function is pure, deterministic, and
// idempotent; it never mutates line data.
func Recompute(completed []*orders.Line, all []*orders.Line, prev Baseline, now time.Time) Baseline {
	next := prev.clone()
	if next.Stages == nil {
		next.Stages = map[orders.Stage]StageStats{}
	}
	if next.Assignees == nil {
		next.Assignees = map[string]AssigneeStats{}
	}

	for _, stage := range durationStages {
		var durations []float64
		missed := 0
		for _, line := range completed {
			hours := line.Duration(stage)
			if hours <= 0 {
				continue
			}
			durations = append(durations, hours)
			if deliveryMissed(line) {
				missed++
			}
		}
		if len(durations) <= MinSamples {
			continue
		}
		next.Stages[stage] = StageStats{
			MeanHours:   mean(durations),
			MedianHours: median(durations),
			P95Hours:    percentile(durations, 0.95),
			DelayRate:   float64(missed) / float64(len(durations)),
			SampleCount: len(durations),
			LastUpdated: now,
		}
	}

	next.Assignees = map[string]AssigneeStats{}
	type assigneeAccum struct {
		totalHours float64
		handled    int
		missed     int
	}
	byAssignee := map[string]*assigneeAccum{}
	for _, line := range completed {
		if line.AssigneeID == "" {
			continue
		}
		accum := byAssignee[line.AssigneeID]
		if accum == nil {
			accum = &assigneeAccum{}
			byAssignee[line.AssigneeID] = accum
		}
		accum.handled++
		accum.totalHours += line.TotalHours()
		if deliveryMissed(line) {
			accum.missed++
		}
	}
	for id, accum := range byAssignee {
		next.Assignees[id] = AssigneeStats{
			AvgTotalHours: accum.totalHours / float64(accum.handled),
			DelayRate:     float64(accum.missed) / float64(accum.handled),
			LinesHandled:  accum.handled,
		}
	}

	next.DelayCauses = map[string]int{}
	for _, line := range all {
		for _, reason := range line.DelayReasons {
			next.DelayCauses[reason.Category]++
		}
	}

	next.UpdatedAt = now
	return next
}

func deliveryMissed(line *orders.Line) bool {
	if line.CompletedAt == nil || line.DeliveryDate.IsZero() {
		return false
	}
	return line.CompletedAt.After(line.DeliveryDate)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// percentile computes the nearest-rank percentile over a copy of the input.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(float64(len(sorted))*p+0.999999) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
