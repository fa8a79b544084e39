package orders

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const lineColumns = "id, order_id, delivery_date, current_stage, current_substage, " +
	"stage_sequence, stage_entered_at, stage_durations, assignee_id, department, " +
	"dispatched, tracking_code, delay_reasons, completed_at, created_at, updated_at, revision"

// resolvedLineColumns substitutes the order-level delivery date when the line
// has none, so downstream statistics see the effective deadline.
const resolvedLineColumns = "l.id, l.order_id, COALESCE(l.delivery_date, o.delivery_date), " +
	"l.current_stage, l.current_substage, l.stage_sequence, l.stage_entered_at, " +
	"l.stage_durations, l.assignee_id, l.department, l.dispatched, l.tracking_code, " +
	"l.delay_reasons, l.completed_at, l.created_at, l.updated_at, l.revision"

func scanLine(scanner interface{ Scan(dest ...any) error }) (*Line, error) {
	var (
		id            string
		orderID       string
		deliveryRaw   sql.NullString
		stageStr      string
		substageRaw   sql.NullString
		sequenceJSON  string
		enteredRaw    string
		durationsJSON string
		assigneeRaw   sql.NullString
		departmentRaw sql.NullString
		dispatched    int
		trackingRaw   sql.NullString
		reasonsJSON   string
		completedRaw  sql.NullString
		createdRaw    string
		updatedRaw    string
		revision      int64
	)

	if err := scanner.Scan(
		&id,
		&orderID,
		&deliveryRaw,
		&stageStr,
		&substageRaw,
		&sequenceJSON,
		&enteredRaw,
		&durationsJSON,
		&assigneeRaw,
		&departmentRaw,
		&dispatched,
		&trackingRaw,
		&reasonsJSON,
		&completedRaw,
		&createdRaw,
		&updatedRaw,
		&revision,
	); err != nil {
		return nil, err
	}

	line := &Line{
		ID:              id,
		OrderID:         orderID,
		CurrentStage:    Stage(stageStr),
		CurrentSubstage: Substage(substageRaw.String),
		AssigneeID:      assigneeRaw.String,
		Department:      Department(departmentRaw.String),
		Dispatched:      dispatched != 0,
		TrackingCode:    trackingRaw.String,
		Revision:        revision,
	}

	if err := json.Unmarshal([]byte(sequenceJSON), &line.StageSequence); err != nil {
		return nil, fmt.Errorf("decode stage sequence: %w", err)
	}
	if err := json.Unmarshal([]byte(durationsJSON), &line.StageDurations); err != nil {
		return nil, fmt.Errorf("decode stage durations: %w", err)
	}
	if line.StageDurations == nil {
		line.StageDurations = map[Stage]float64{}
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &line.DelayReasons); err != nil {
		return nil, fmt.Errorf("decode delay reasons: %w", err)
	}

	if deliveryRaw.Valid {
		if delivery, err := parseTimeString(deliveryRaw.String); err == nil {
			line.DeliveryDate = delivery
		}
	}
	if entered, err := parseTimeString(enteredRaw); err == nil {
		line.StageEnteredAt = entered
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			line.CompletedAt = &completed
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		line.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		line.UpdatedAt = updated
	}
	return line, nil
}

func encodeLineBlobs(line *Line) (sequenceJSON, durationsJSON, reasonsJSON string, err error) {
	sequence := line.StageSequence
	if sequence == nil {
		sequence = []Substage{}
	}
	seqBytes, err := json.Marshal(sequence)
	if err != nil {
		return "", "", "", fmt.Errorf("encode stage sequence: %w", err)
	}

	durations := line.StageDurations
	if durations == nil {
		durations = map[Stage]float64{}
	}
	durBytes, err := json.Marshal(durations)
	if err != nil {
		return "", "", "", fmt.Errorf("encode stage durations: %w", err)
	}

	reasons := line.DelayReasons
	if reasons == nil {
		reasons = []DelayReason{}
	}
	reasonBytes, err := json.Marshal(reasons)
	if err != nil {
		return "", "", "", fmt.Errorf("encode delay reasons: %w", err)
	}

	return string(seqBytes), string(durBytes), string(reasonBytes), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTimeValue(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return formatTime(value)
}

func nullableTimePtr(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func normalized(value string) string {
	return strings.TrimSpace(value)
}
