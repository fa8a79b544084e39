package predict_test

import (
	"testing"
	"time"

	"pressline/internal/baseline"
	"pressline/internal/orders"
	"pressline/internal/predict"
)

var now = time.Date(2026, time.May, 4, 10, 0, 0, 0, time.UTC)

func learnedBaseline() baseline.Baseline {
	b := baseline.Defaults()
	b.Stages[orders.StageManufacturing] = baseline.StageStats{
		P95Hours:    96,
		DelayRate:   0.4,
		SampleCount: 30,
	}
	b.Assignees["op-1"] = baseline.AssigneeStats{DelayRate: 0.5, LinesHandled: 12}
	return b
}

func TestProbabilityBounds(t *testing.T) {
	lines := []*orders.Line{
		nil,
		{CurrentStage: orders.StageIntake},
		{CurrentStage: orders.StageManufacturing, AssigneeID: "op-1", DeliveryDate: now.Add(6 * time.Hour)},
		{
			CurrentStage:   orders.StageManufacturing,
			AssigneeID:     "op-1",
			DeliveryDate:   now.Add(12 * time.Hour),
			StageDurations: map[orders.Stage]float64{orders.StageManufacturing: 500},
		},
	}
	for i, line := range lines {
		p := predict.Probability(line, nil, learnedBaseline(), now)
		if p < 0 || p > 1 {
			t.Fatalf("case %d: probability out of bounds: %f", i, p)
		}
	}
}

func TestProbabilityOverdueIsCertain(t *testing.T) {
	line := &orders.Line{
		CurrentStage: orders.StageIntake,
		DeliveryDate: now.Add(-time.Hour),
	}
	if p := predict.Probability(line, nil, baseline.Defaults(), now); p != 1 {
		t.Fatalf("overdue line must predict 1, got %f", p)
	}
}

func TestProbabilityNoSignalsIsZero(t *testing.T) {
	line := &orders.Line{
		CurrentStage: orders.StageDesign,
		DeliveryDate: now.Add(14 * 24 * time.Hour),
	}
	if p := predict.Probability(line, nil, baseline.Defaults(), now); p != 0 {
		t.Fatalf("no risk signals should predict 0, got %f", p)
	}
}

func TestProbabilityAddsCappedContributions(t *testing.T) {
	line := &orders.Line{
		CurrentStage: orders.StageManufacturing,
		AssigneeID:   "op-1",
		DeliveryDate: now.Add(10 * 24 * time.Hour),
	}
	// Stage rate 0.4*0.5 + assignee rate 0.5*0.5 with a far deadline and
	// no overrun.
	p := predict.Probability(line, nil, learnedBaseline(), now)
	if p < 0.449 || p > 0.451 {
		t.Fatalf("expected 0.45, got %f", p)
	}
}

func TestProbabilityDeadlinePressure(t *testing.T) {
	base := &orders.Line{
		CurrentStage: orders.StageDesign,
	}

	farLine := *base
	farLine.DeliveryDate = now.Add(10 * 24 * time.Hour)
	soonLine := *base
	soonLine.DeliveryDate = now.Add(3 * 24 * time.Hour)
	tomorrowLine := *base
	tomorrowLine.DeliveryDate = now.Add(20 * time.Hour)

	b := baseline.Defaults()
	far := predict.Probability(&farLine, nil, b, now)
	soon := predict.Probability(&soonLine, nil, b, now)
	tomorrow := predict.Probability(&tomorrowLine, nil, b, now)

	if far != 0 || soon != 0.1 || tomorrow != 0.2 {
		t.Fatalf("deadline pressure mismatch: far=%f soon=%f tomorrow=%f", far, soon, tomorrow)
	}
}

func TestProbabilityOverrunScalesWithRatio(t *testing.T) {
	b := learnedBaseline()
	mild := &orders.Line{
		CurrentStage:   orders.StagePrepress,
		DeliveryDate:   now.Add(10 * 24 * time.Hour),
		StageDurations: map[orders.Stage]float64{orders.StagePrepress: 60},
	}
	severe := &orders.Line{
		CurrentStage:   orders.StagePrepress,
		DeliveryDate:   now.Add(10 * 24 * time.Hour),
		StageDurations: map[orders.Stage]float64{orders.StagePrepress: 480},
	}

	// Prepress has no learned stats, so the default 48h expectation drives
	// the overrun term.
	pMild := predict.Probability(mild, nil, b, now)
	pSevere := predict.Probability(severe, nil, b, now)
	if pMild <= 0 || pMild >= 0.3 {
		t.Fatalf("mild overrun should land inside the cap, got %f", pMild)
	}
	if pSevere != 0.3 {
		t.Fatalf("severe overrun must saturate at the cap, got %f", pSevere)
	}
	if pSevere <= pMild {
		t.Fatalf("probability should grow with overrun: %f vs %f", pMild, pSevere)
	}
}

func TestProbabilityIgnoresUnknownAssignee(t *testing.T) {
	line := &orders.Line{
		CurrentStage: orders.StageDesign,
		AssigneeID:   "nobody",
		DeliveryDate: now.Add(10 * 24 * time.Hour),
	}
	if p := predict.Probability(line, nil, learnedBaseline(), now); p != 0 {
		t.Fatalf("unknown assignee must contribute nothing, got %f", p)
	}
}

func TestProbabilityOrderDateFallback(t *testing.T) {
	line := &orders.Line{CurrentStage: orders.StageDesign}
	ord := &orders.Order{ID: "order-1", DeliveryDate: now.Add(-24 * time.Hour)}
	if p := predict.Probability(line, ord, baseline.Defaults(), now); p != 1 {
		t.Fatalf("overdue order-level date must predict 1, got %f", p)
	}
}
