package baseline_test

import (
	"errors"
	"testing"

	"pressline/internal/baseline"
	"pressline/internal/orders"
)

func TestExpectedDurationFallsBackToDefaults(t *testing.T) {
	b := baseline.Defaults()

	cases := []struct {
		stage    orders.Stage
		expected float64
	}{
		{orders.StageIntake, 24},
		{orders.StageDesign, 72},
		{orders.StagePrepress, 48},
		{orders.StageManufacturing, 96},
		{orders.StageDispatch, 24},
	}
	for _, tc := range cases {
		if got := b.ExpectedDuration(tc.stage); got != tc.expected {
			t.Fatalf("ExpectedDuration(%s) = %f, want %f", tc.stage, got, tc.expected)
		}
	}
}

func TestExpectedDurationRequiresSampleThreshold(t *testing.T) {
	b := baseline.Defaults()
	b.Stages[orders.StageDesign] = baseline.StageStats{P95Hours: 55, SampleCount: baseline.MinSamples}
	if got := b.ExpectedDuration(orders.StageDesign); got != 72 {
		t.Fatalf("exactly MinSamples must still use the default, got %f", got)
	}

	b.Stages[orders.StageDesign] = baseline.StageStats{P95Hours: 55, SampleCount: baseline.MinSamples + 1}
	if got := b.ExpectedDuration(orders.StageDesign); got != 55 {
		t.Fatalf("expected learned value past the threshold, got %f", got)
	}
}

func TestStrictExpectedDuration(t *testing.T) {
	b := baseline.Defaults()
	if _, err := b.StrictExpectedDuration(orders.StageIntake); !errors.Is(err, baseline.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	b.Stages[orders.StageIntake] = baseline.StageStats{P95Hours: 20, SampleCount: 15}
	hours, err := b.StrictExpectedDuration(orders.StageIntake)
	if err != nil || hours != 20 {
		t.Fatalf("expected 20h, got %f err=%v", hours, err)
	}
}

func TestConfidenceCountsLearnedStages(t *testing.T) {
	b := baseline.Defaults()
	if b.Confidence() != 0 {
		t.Fatalf("fresh baseline should have zero confidence, got %f", b.Confidence())
	}

	b.Stages[orders.StageIntake] = baseline.StageStats{SampleCount: 20}
	b.Stages[orders.StageDesign] = baseline.StageStats{SampleCount: 20}
	if got := b.Confidence(); got != 0.4 {
		t.Fatalf("two of five learned stages should yield 0.4, got %f", got)
	}
	if !b.HasLearnedData() {
		t.Fatal("HasLearnedData should report true with learned stages")
	}
}

func TestUnmarshalNilPayloadYieldsDefaults(t *testing.T) {
	b, err := baseline.Unmarshal(nil)
	if err != nil {
		t.Fatalf("Unmarshal(nil) failed: %v", err)
	}
	if b.HasLearnedData() {
		t.Fatal("empty payload should behave like defaults")
	}
	if got := b.ExpectedDuration(orders.StageManufacturing); got != 96 {
		t.Fatalf("defaults not applied, got %f", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	b := baseline.Defaults()
	b.Stages[orders.StagePrepress] = baseline.StageStats{MeanHours: 30, P95Hours: 50, DelayRate: 0.25, SampleCount: 16}
	b.Assignees["op-3"] = baseline.AssigneeStats{AvgTotalHours: 120, DelayRate: 0.5, LinesHandled: 14}
	b.DelayCauses["material_shortage"] = 3

	payload, err := b.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	restored, err := baseline.Unmarshal(payload)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if restored.Stages[orders.StagePrepress].P95Hours != 50 {
		t.Fatalf("stage stats lost in round trip: %#v", restored.Stages[orders.StagePrepress])
	}
	if restored.Assignees["op-3"].LinesHandled != 14 {
		t.Fatalf("assignee stats lost in round trip: %#v", restored.Assignees["op-3"])
	}
	if restored.DelayCauses["material_shortage"] != 3 {
		t.Fatalf("delay causes lost in round trip: %#v", restored.DelayCauses)
	}
}

func TestHistoricalDelayCountRounds(t *testing.T) {
	b := baseline.Defaults()
	b.Assignees["op-1"] = baseline.AssigneeStats{DelayRate: 0.25, LinesHandled: 10}

	count, ok := b.HistoricalDelayCount("op-1")
	if !ok || count != 3 {
		t.Fatalf("expected rounded count 3, got %d ok=%v", count, ok)
	}
	if _, ok := b.HistoricalDelayCount("ghost"); ok {
		t.Fatal("unknown assignee should report no history")
	}
}
