package workflow

import (
	"strings"
	"time"

	"pressline/internal/orders"
)

// AssignDepartment records the department responsible for a line. The stored
// value is normalized against the current stage: dispatch and done always
// resolve to the manufacturing-owning department for access control.
func AssignDepartment(line *orders.Line, dept orders.Department, now time.Time) error {
	const op = "assign department"
	if err := checkMutable(op, line); err != nil {
		return err
	}
	if strings.TrimSpace(string(dept)) == "" {
		return reject(op, line.ID, "department is required")
	}
	line.Department = orders.DepartmentForStage(line.CurrentStage, dept)
	line.UpdatedAt = now
	return nil
}

// AssignUser records the individual assignee. Independent of stage position.
func AssignUser(line *orders.Line, userID string, now time.Time) error {
	const op = "assign user"
	if err := checkMutable(op, line); err != nil {
		return err
	}
	line.AssigneeID = strings.TrimSpace(userID)
	line.UpdatedAt = now
	return nil
}

// AddDelayReason appends an audit delay reason. This is the one mutation
// permitted on a dispatched line, since delay reasons are audit notes rather
// than workflow state.
func AddDelayReason(line *orders.Line, category, note string, now time.Time) error {
	const op = "add delay reason"
	if line == nil {
		return reject(op, "", "line is nil")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return reject(op, line.ID, "category is required")
	}
	line.DelayReasons = append(line.DelayReasons, orders.DelayReason{
		Category: category,
		Note:     strings.TrimSpace(note),
		LoggedAt: now,
	})
	line.UpdatedAt = now
	return nil
}
