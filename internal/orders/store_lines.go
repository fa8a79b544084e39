package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewLine inserts a line for an order at the intake stage. An empty substage
// sequence selects the standard manufacturing order.
func (s *Store) NewLine(ctx context.Context, orderID string, deliveryDate time.Time, sequence []Substage) (*Line, error) {
	if normalized(orderID) == "" {
		return nil, errors.New("order id is required")
	}
	ord, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}

	now := time.Now().UTC()
	line := &Line{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		DeliveryDate:   deliveryDate,
		CurrentStage:   StageIntake,
		StageSequence:  sequence,
		StageEnteredAt: now,
		StageDurations: map[Stage]float64{},
		Department:     DepartmentIntake,
		CreatedAt:      now,
		UpdatedAt:      now,
		Revision:       1,
	}

	sequenceJSON, durationsJSON, reasonsJSON, err := encodeLineBlobs(line)
	if err != nil {
		return nil, err
	}

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO order_lines (
            id, order_id, delivery_date, current_stage, current_substage,
            stage_sequence, stage_entered_at, stage_durations, assignee_id,
            department, dispatched, tracking_code, delay_reasons, completed_at,
            created_at, updated_at, revision
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		line.ID,
		line.OrderID,
		nullableTimeValue(line.DeliveryDate),
		line.CurrentStage,
		nullableString(string(line.CurrentSubstage)),
		sequenceJSON,
		formatTime(line.StageEnteredAt),
		durationsJSON,
		nullableString(line.AssigneeID),
		nullableString(string(line.Department)),
		boolToInt(line.Dispatched),
		nullableString(line.TrackingCode),
		reasonsJSON,
		nil,
		formatTime(line.CreatedAt),
		formatTime(line.UpdatedAt),
		line.Revision,
	)
	if err != nil {
		return nil, fmt.Errorf("insert line: %w", err)
	}
	return line, nil
}

// GetLine fetches a line by identifier.
func (s *Store) GetLine(ctx context.Context, id string) (*Line, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM order_lines WHERE id = ?`, id)
	line, err := scanLine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get line: %w", err)
	}
	return line, nil
}

// UpdateLine persists changes to a line guarded by an optimistic revision
// check. It returns ErrStaleLine when the stored revision no longer matches
// the one the caller read, and ErrNotFound when the line does not exist.
func (s *Store) UpdateLine(ctx context.Context, line *Line) error {
	if line == nil {
		return errors.New("line is nil")
	}

	sequenceJSON, durationsJSON, reasonsJSON, err := encodeLineBlobs(line)
	if err != nil {
		return err
	}

	expectedRevision := line.Revision
	line.UpdatedAt = time.Now().UTC()

	res, err := s.execWithRetry(
		ctx,
		`UPDATE order_lines
         SET delivery_date = ?, current_stage = ?, current_substage = ?,
             stage_sequence = ?, stage_entered_at = ?, stage_durations = ?,
             assignee_id = ?, department = ?, dispatched = ?, tracking_code = ?,
             delay_reasons = ?, completed_at = ?, updated_at = ?, revision = revision + 1
         WHERE id = ? AND revision = ?`,
		nullableTimeValue(line.DeliveryDate),
		line.CurrentStage,
		nullableString(string(line.CurrentSubstage)),
		sequenceJSON,
		formatTime(line.StageEnteredAt),
		durationsJSON,
		nullableString(line.AssigneeID),
		nullableString(string(line.Department)),
		boolToInt(line.Dispatched),
		nullableString(line.TrackingCode),
		reasonsJSON,
		nullableTimePtr(line.CompletedAt),
		formatTime(line.UpdatedAt),
		line.ID,
		expectedRevision,
	)
	if err != nil {
		return fmt.Errorf("update line: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		existing, getErr := s.GetLine(ctx, line.ID)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			return fmt.Errorf("line %s: %w", line.ID, ErrNotFound)
		}
		return fmt.Errorf("line %s: %w", line.ID, ErrStaleLine)
	}
	line.Revision = expectedRevision + 1
	return nil
}

// LinesByStage returns lines currently in a stage, ordered by creation time.
func (s *Store) LinesByStage(ctx context.Context, stage Stage) ([]*Line, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+lineColumns+` FROM order_lines WHERE current_stage = ? ORDER BY created_at`,
		stage,
	)
	if err != nil {
		return nil, fmt.Errorf("query by stage: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

// LinesForOrder returns every line belonging to an order.
func (s *Store) LinesForOrder(ctx context.Context, orderID string) ([]*Line, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+lineColumns+` FROM order_lines WHERE order_id = ? ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query by order: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

// ListLines returns lines filtered by stage set (or all lines when no stage is
// provided).
func (s *Store) ListLines(ctx context.Context, stages ...Stage) ([]*Line, error) {
	baseQuery := `SELECT ` + lineColumns + ` FROM order_lines`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(stages) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(stages))
		args := make([]any, len(stages))
		for i, stage := range stages {
			args[i] = stage
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE current_stage IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

// CompletedLines returns terminal lines with delivery dates resolved through
// the order-level fallback, suitable for baseline recomputation.
func (s *Store) CompletedLines(ctx context.Context) ([]*Line, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+resolvedLineColumns+`
         FROM order_lines l
         JOIN orders o ON o.id = l.order_id
         WHERE l.current_stage = ?
         ORDER BY l.created_at`,
		StageDone,
	)
	if err != nil {
		return nil, fmt.Errorf("completed lines: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

// OpenLineCount returns how many non-terminal lines are assigned to a user.
func (s *Store) OpenLineCount(ctx context.Context, assigneeID string) (int, error) {
	if normalized(assigneeID) == "" {
		return 0, nil
	}
	var count int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM order_lines
         WHERE assignee_id = ? AND current_stage != ? AND dispatched = 0`,
		assigneeID,
		StageDone,
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("open line count: %w", err)
	}
	return count, nil
}

// Stats returns a count of lines grouped by current stage.
func (s *Store) Stats(ctx context.Context) (map[Stage]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT current_stage, COUNT(1) FROM order_lines GROUP BY current_stage`)
	if err != nil {
		return nil, fmt.Errorf("line stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Stage]int)
	for rows.Next() {
		var stage Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats[stage] = count
	}
	return stats, rows.Err()
}

// Health aggregates line state for diagnostic output.
func (s *Store) Health(ctx context.Context) (Summary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{}
	for stage, count := range stats {
		summary.Total += count
		switch stage {
		case StageManufacturing:
			summary.Manufacturing += count
			summary.Open += count
		case StageDispatch:
			summary.AwaitingDispatch += count
			summary.Open += count
		case StageDone:
			summary.Done += count
		default:
			summary.Open += count
		}
	}
	return summary, nil
}

func collectLines(rows *sql.Rows) ([]*Line, error) {
	var lines []*Line
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
