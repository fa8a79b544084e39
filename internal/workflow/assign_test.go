package workflow_test

import (
	"errors"
	"testing"
	"time"

	"pressline/internal/orders"
	"pressline/internal/workflow"
)

func TestAssignDepartmentNormalizesByStage(t *testing.T) {
	now := start.Add(time.Hour)

	line := newLine()
	line.CurrentStage = orders.StageManufacturing
	letterpress := orders.Department("letterpress")
	if err := workflow.AssignDepartment(line, letterpress, now); err != nil {
		t.Fatalf("AssignDepartment failed: %v", err)
	}
	if line.Department != letterpress {
		t.Fatalf("manufacturing should keep the assigned department, got %s", line.Department)
	}

	line.CurrentStage = orders.StageDispatch
	if err := workflow.AssignDepartment(line, orders.DepartmentDesign, now); err != nil {
		t.Fatalf("AssignDepartment failed: %v", err)
	}
	if line.Department != orders.DepartmentManufacturing {
		t.Fatalf("dispatch must resolve to manufacturing ownership, got %s", line.Department)
	}

	if err := workflow.AssignDepartment(line, " ", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection for empty department, got %v", err)
	}
}

func TestAssignUserTrims(t *testing.T) {
	line := newLine()
	if err := workflow.AssignUser(line, "  operator-7  ", start); err != nil {
		t.Fatalf("AssignUser failed: %v", err)
	}
	if line.AssigneeID != "operator-7" {
		t.Fatalf("assignee not trimmed: %q", line.AssigneeID)
	}
}

func TestAddDelayReason(t *testing.T) {
	line := newLine()
	now := start.Add(30 * time.Minute)

	if err := workflow.AddDelayReason(line, "", "note", now); !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("expected rejection for empty category, got %v", err)
	}

	if err := workflow.AddDelayReason(line, "material_shortage", "paper stock late", now); err != nil {
		t.Fatalf("AddDelayReason failed: %v", err)
	}

	// Delay reasons are audit notes and stay recordable after dispatch.
	line.Dispatched = true
	if err := workflow.AddDelayReason(line, "carrier_issue", "", now.Add(time.Hour)); err != nil {
		t.Fatalf("AddDelayReason on dispatched line failed: %v", err)
	}
	if len(line.DelayReasons) != 2 {
		t.Fatalf("expected 2 delay reasons, got %d", len(line.DelayReasons))
	}
	if line.DelayReasons[0].Category != "material_shortage" || line.DelayReasons[0].Note != "paper stock late" {
		t.Fatalf("unexpected first reason: %#v", line.DelayReasons[0])
	}
}
