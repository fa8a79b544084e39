package server

import (
	"time"

	"pressline/internal/orders"
	"pressline/internal/priority"
)

// Wire representations for the JSON API. These decouple the HTTP surface
// from the engine structs so storage fields can evolve without breaking
// clients.

type orderPayload struct {
	ID           string    `json:"id"`
	Customer     string    `json:"customer"`
	DeliveryDate time.Time `json:"delivery_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type linePayload struct {
	ID              string               `json:"id"`
	OrderID         string               `json:"order_id"`
	DeliveryDate    *time.Time           `json:"delivery_date,omitempty"`
	CurrentStage    string               `json:"current_stage"`
	CurrentSubstage string               `json:"current_substage,omitempty"`
	StageSequence   []string             `json:"stage_sequence"`
	StageEnteredAt  time.Time            `json:"stage_entered_at"`
	StageDurations  map[string]float64   `json:"stage_durations,omitempty"`
	AssigneeID      string               `json:"assignee_id,omitempty"`
	Department      string               `json:"department,omitempty"`
	Dispatched      bool                 `json:"dispatched"`
	TrackingCode    string               `json:"tracking_code,omitempty"`
	DelayReasons    []orders.DelayReason `json:"delay_reasons,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	Revision        int64                `json:"revision"`
}

type statusPayload struct {
	Total            int            `json:"total"`
	Open             int            `json:"open"`
	Manufacturing    int            `json:"manufacturing"`
	AwaitingDispatch int            `json:"awaiting_dispatch"`
	Done             int            `json:"done"`
	Stages           map[string]int `json:"stages"`
}

type priorityPayload struct {
	Tier     string `json:"tier"`
	DaysLeft int    `json:"days_left"`
}

type predictionPayload struct {
	Probability float64 `json:"probability"`
}

type completePayload struct {
	Line                 linePayload `json:"line"`
	ConfirmationRequired bool        `json:"confirmation_required"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func fromOrder(ord *orders.Order) orderPayload {
	return orderPayload{
		ID:           ord.ID,
		Customer:     ord.Customer,
		DeliveryDate: ord.DeliveryDate,
		CreatedAt:    ord.CreatedAt,
		UpdatedAt:    ord.UpdatedAt,
	}
}

func fromLine(line *orders.Line) linePayload {
	payload := linePayload{
		ID:             line.ID,
		OrderID:        line.OrderID,
		CurrentStage:   string(line.CurrentStage),
		StageEnteredAt: line.StageEnteredAt,
		AssigneeID:     line.AssigneeID,
		Department:     string(line.Department),
		Dispatched:     line.Dispatched,
		TrackingCode:   line.TrackingCode,
		DelayReasons:   line.DelayReasons,
		CompletedAt:    line.CompletedAt,
		Revision:       line.Revision,
	}
	if !line.DeliveryDate.IsZero() {
		date := line.DeliveryDate
		payload.DeliveryDate = &date
	}
	if line.CurrentSubstage != "" {
		payload.CurrentSubstage = string(line.CurrentSubstage)
	}
	payload.StageSequence = make([]string, len(line.StageSequence))
	for i, sub := range line.StageSequence {
		payload.StageSequence[i] = string(sub)
	}
	if len(line.StageDurations) > 0 {
		payload.StageDurations = make(map[string]float64, len(line.StageDurations))
		for stage, hours := range line.StageDurations {
			payload.StageDurations[string(stage)] = hours
		}
	}
	return payload
}

func fromLines(lines []*orders.Line) []linePayload {
	out := make([]linePayload, 0, len(lines))
	for _, line := range lines {
		out = append(out, fromLine(line))
	}
	return out
}

func fromPriority(tier priority.Tier, days int) priorityPayload {
	return priorityPayload{Tier: tier.String(), DaysLeft: days}
}
