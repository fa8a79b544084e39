package workflow_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"pressline/internal/orders"
	"pressline/internal/workflow"
)

var start = time.Date(2026, time.February, 2, 8, 0, 0, 0, time.UTC)

func newLine() *orders.Line {
	return &orders.Line{
		ID:             "line-1",
		OrderID:        "order-1",
		CurrentStage:   orders.StageIntake,
		Department:     orders.DepartmentIntake,
		StageEnteredAt: start,
		CreatedAt:      start,
		UpdatedAt:      start,
		Revision:       1,
	}
}

func mustAdvance(t *testing.T, line *orders.Line, now time.Time) {
	t.Helper()
	if err := workflow.Advance(line, now); err != nil {
		t.Fatalf("Advance from %s failed: %v", line.CurrentStage, err)
	}
}

func TestAdvanceWalksStagesForward(t *testing.T) {
	line := newLine()
	now := start

	expected := []orders.Stage{orders.StageDesign, orders.StagePrepress, orders.StageManufacturing}
	for _, stage := range expected {
		now = now.Add(4 * time.Hour)
		mustAdvance(t, line, now)
		if line.CurrentStage != stage {
			t.Fatalf("expected stage %s, got %s", stage, line.CurrentStage)
		}
	}
	if line.CurrentSubstage != orders.DefaultSubstageSequence()[0] {
		t.Fatalf("entering manufacturing should seat the first substage, got %q", line.CurrentSubstage)
	}
}

func TestAdvanceNeverDecreasesOrdinal(t *testing.T) {
	line := newLine()
	now := start
	prev := line.CurrentStage.Ordinal()

	for i := 0; i < 20; i++ {
		now = now.Add(time.Hour)
		if err := workflow.Advance(line, now); err != nil {
			break
		}
		ord := line.CurrentStage.Ordinal()
		if ord < prev {
			t.Fatalf("stage ordinal regressed from %d to %d", prev, ord)
		}
		prev = ord
	}
	if line.CurrentStage != orders.StageDispatch {
		t.Fatalf("repeated advance should park the line in dispatch, got %s", line.CurrentStage)
	}
}

func TestAdvanceThroughSubstages(t *testing.T) {
	line := newLine()
	line.CurrentStage = orders.StageManufacturing
	line.StageSequence = []orders.Substage{"printing", "cutting", "packing"}
	line.CurrentSubstage = "printing"

	now := start.Add(2 * time.Hour)
	mustAdvance(t, line, now)
	if line.CurrentSubstage != "cutting" {
		t.Fatalf("expected cutting, got %s", line.CurrentSubstage)
	}

	now = now.Add(3 * time.Hour)
	mustAdvance(t, line, now)
	if line.CurrentSubstage != "packing" {
		t.Fatalf("expected packing, got %s", line.CurrentSubstage)
	}

	now = now.Add(time.Hour)
	mustAdvance(t, line, now)
	if line.CurrentStage != orders.StageDispatch || line.CurrentSubstage != "" {
		t.Fatalf("last substage should exit to dispatch, got %s/%s", line.CurrentStage, line.CurrentSubstage)
	}
	if hours := line.Duration(orders.StageManufacturing); hours < 5.9 || hours > 6.1 {
		t.Fatalf("manufacturing duration should accumulate substage residency, got %.2f", hours)
	}
}

func TestAdvanceRejectsDispatchAndDone(t *testing.T) {
	line := newLine()
	line.CurrentStage = orders.StageDispatch
	if err := workflow.Advance(line, start); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from dispatch, got %v", err)
	}

	line.CurrentStage = orders.StageDone
	if err := workflow.Advance(line, start); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from done, got %v", err)
	}
}

func TestDispatchedLineIsImmutable(t *testing.T) {
	line := newLine()
	line.CurrentStage = orders.StageDone
	line.Dispatched = true
	line.TrackingCode = "TRACK-1"
	snapshot := line.Clone()

	now := start.Add(time.Hour)
	if err := workflow.Advance(line, now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if err := workflow.JumpToSubstage(line, "printing", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if _, err := workflow.CompleteSubstage(line, now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if err := workflow.ConfirmDispatch(line, "TRACK-2", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if err := workflow.AssignUser(line, "user-9", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if !reflect.DeepEqual(line, snapshot) {
		t.Fatalf("rejected transitions must leave the line unchanged:\n got %#v\nwant %#v", line, snapshot)
	}
}

func TestJumpToSubstage(t *testing.T) {
	line := newLine()
	line.CurrentStage = orders.StageManufacturing
	line.StageSequence = []orders.Substage{"foiling", "printing", "cutting"}
	line.CurrentSubstage = "cutting"

	now := start.Add(time.Hour)
	if err := workflow.JumpToSubstage(line, "foiling", now); err != nil {
		t.Fatalf("JumpToSubstage failed: %v", err)
	}
	if line.CurrentSubstage != "foiling" {
		t.Fatalf("expected foiling, got %s", line.CurrentSubstage)
	}
	if !line.StageEnteredAt.Equal(now) {
		t.Fatal("jump should restart the substage clock")
	}
	if line.Duration(orders.StageManufacturing) != 0 {
		t.Fatal("jump must not flush stage durations")
	}

	if err := workflow.JumpToSubstage(line, "embossing", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection for substage outside sequence, got %v", err)
	}

	line.CurrentStage = orders.StageDesign
	if err := workflow.JumpToSubstage(line, "printing", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection outside manufacturing, got %v", err)
	}
}

func TestCompleteSubstageSignalsConfirmation(t *testing.T) {
	line := newLine()
	line.CurrentStage = orders.StageManufacturing
	line.StageSequence = []orders.Substage{"printing", "cutting", "packing"}
	line.CurrentSubstage = "packing"
	line.StageEnteredAt = start

	required, err := workflow.CompleteSubstage(line, start.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("CompleteSubstage failed: %v", err)
	}
	if !required {
		t.Fatal("completing the last substage must require dispatch confirmation")
	}
	if line.CurrentStage != orders.StageDispatch || line.Dispatched {
		t.Fatalf("line should wait in dispatch undelivered, got %s dispatched=%v", line.CurrentStage, line.Dispatched)
	}
	if hours := line.Duration(orders.StageManufacturing); hours < 1.49 || hours > 1.51 {
		t.Fatalf("expected 1.5h accrued to manufacturing, got %.2f", hours)
	}
}

func TestCompleteSubstageMidSequence(t *testing.T) {
	line := newLine()
	line.CurrentStage = orders.StageManufacturing
	line.StageSequence = []orders.Substage{"printing", "cutting"}
	line.CurrentSubstage = "printing"

	required, err := workflow.CompleteSubstage(line, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("CompleteSubstage failed: %v", err)
	}
	if required {
		t.Fatal("mid-sequence completion must not request confirmation")
	}
	if line.CurrentSubstage != "cutting" {
		t.Fatalf("expected cutting, got %s", line.CurrentSubstage)
	}
}

func TestConfirmDispatch(t *testing.T) {
	line := newLine()
	line.CurrentStage = orders.StageDispatch
	line.StageEnteredAt = start

	if err := workflow.ConfirmDispatch(line, "   ", start.Add(time.Hour)); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection without tracking details, got %v", err)
	}

	now := start.Add(2 * time.Hour)
	if err := workflow.ConfirmDispatch(line, " TRK-42 ", now); err != nil {
		t.Fatalf("ConfirmDispatch failed: %v", err)
	}
	if line.CurrentStage != orders.StageDone || !line.Dispatched {
		t.Fatalf("expected done+dispatched, got %s dispatched=%v", line.CurrentStage, line.Dispatched)
	}
	if line.TrackingCode != "TRK-42" {
		t.Fatalf("tracking code not normalized: %q", line.TrackingCode)
	}
	if line.CompletedAt == nil || !line.CompletedAt.Equal(now) {
		t.Fatalf("expected completion timestamp %s, got %v", now, line.CompletedAt)
	}
	if hours := line.Duration(orders.StageDispatch); hours < 1.9 || hours > 2.1 {
		t.Fatalf("dispatch residency should be recorded, got %.2f", hours)
	}

	if err := workflow.ConfirmDispatch(line, "TRK-43", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection on second confirm, got %v", err)
	}
}

func TestConfirmDispatchOnlyFromDispatch(t *testing.T) {
	line := newLine()
	if err := workflow.ConfirmDispatch(line, "TRK-1", start); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection outside dispatch, got %v", err)
	}
}
