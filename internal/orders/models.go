package orders

import (
	"strings"
	"time"
)

// Stage represents a top-level workflow phase of an order line.
type Stage string

const (
	StageIntake        Stage = "intake"
	StageDesign        Stage = "design"
	StagePrepress      Stage = "prepress"
	StageManufacturing Stage = "manufacturing"
	StageDispatch      Stage = "dispatch"
	StageDone          Stage = "done"
)

var stageOrder = []Stage{
	StageIntake,
	StageDesign,
	StagePrepress,
	StageManufacturing,
	StageDispatch,
	StageDone,
}

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(stageOrder))
	for _, stage := range stageOrder {
		set[stage] = struct{}{}
	}
	return set
}()

// Substage is an ordered manufacturing step identifier.
type Substage string

const (
	SubstageFoiling     Substage = "foiling"
	SubstagePrinting    Substage = "printing"
	SubstagePasting     Substage = "pasting"
	SubstageCutting     Substage = "cutting"
	SubstageLetterpress Substage = "letterpress"
	SubstageEmbossing   Substage = "embossing"
	SubstagePacking     Substage = "packing"
)

// DefaultSubstageSequence returns the standard manufacturing step order.
// Lines may carry a customized sequence for variant flows.
func DefaultSubstageSequence() []Substage {
	return []Substage{
		SubstageFoiling,
		SubstagePrinting,
		SubstagePasting,
		SubstageCutting,
		SubstageLetterpress,
		SubstageEmbossing,
		SubstagePacking,
	}
}

// Department owns lines for access-control and assignment purposes.
type Department string

const (
	DepartmentIntake        Department = "intake"
	DepartmentDesign        Department = "design"
	DepartmentPrepress      Department = "prepress"
	DepartmentManufacturing Department = "manufacturing"
)

// DelayReason is an audit record of why a line slipped.
type DelayReason struct {
	Category string    `json:"category"`
	Note     string    `json:"note,omitempty"`
	LoggedAt time.Time `json:"logged_at"`
}

// Line is one manufacturable unit of an order tracked through the workflow.
type Line struct {
	ID              string
	OrderID         string
	DeliveryDate    time.Time // zero when the order-level date is the fallback
	CurrentStage    Stage
	CurrentSubstage Substage // empty outside manufacturing
	StageSequence   []Substage
	StageEnteredAt  time.Time
	StageDurations  map[Stage]float64 // accumulated hours per stage
	AssigneeID      string
	Department      Department
	Dispatched      bool
	TrackingCode    string
	DelayReasons    []DelayReason
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Revision        int64
}

// Order groups one or more lines for a single customer.
type Order struct {
	ID           string
	Customer     string
	DeliveryDate time.Time // fallback for lines without their own date
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllStages returns the ordered list of top-level stages.
func AllStages() []Stage {
	cp := make([]Stage, len(stageOrder))
	copy(cp, stageOrder)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// Ordinal returns the position of a stage in the forward-only sequence,
// or -1 for an unknown stage.
func (s Stage) Ordinal() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the following top-level stage and false once the sequence ends.
func (s Stage) Next() (Stage, bool) {
	idx := s.Ordinal()
	if idx < 0 || idx >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[idx+1], true
}

// DepartmentForStage maps a stage to its owning department. Dispatch and done
// are owned by manufacturing for access-control purposes.
func DepartmentForStage(stage Stage, assigned Department) Department {
	switch stage {
	case StageIntake:
		return DepartmentIntake
	case StageDesign:
		return DepartmentDesign
	case StagePrepress:
		return DepartmentPrepress
	case StageManufacturing, StageDispatch, StageDone:
		if stage == StageManufacturing && assigned != "" {
			return assigned
		}
		return DepartmentManufacturing
	default:
		return assigned
	}
}

// Sequence returns the line's substage order, defaulting to the standard one.
func (l *Line) Sequence() []Substage {
	if len(l.StageSequence) > 0 {
		return l.StageSequence
	}
	return DefaultSubstageSequence()
}

// SubstageIndex returns the position of a substage in the line's sequence,
// or -1 when absent.
func (l *Line) SubstageIndex(target Substage) int {
	for i, sub := range l.Sequence() {
		if sub == target {
			return i
		}
	}
	return -1
}

// EffectiveDeliveryDate resolves the line date with the order-level fallback.
func (l *Line) EffectiveDeliveryDate(ord *Order) time.Time {
	if !l.DeliveryDate.IsZero() {
		return l.DeliveryDate
	}
	if ord != nil {
		return ord.DeliveryDate
	}
	return time.Time{}
}

// IsTerminal reports whether the line can no longer move through the workflow.
func (l *Line) IsTerminal() bool {
	return l.Dispatched
}

// Duration returns the accumulated hours recorded for a stage.
func (l *Line) Duration(stage Stage) float64 {
	if l.StageDurations == nil {
		return 0
	}
	return l.StageDurations[stage]
}

// TotalHours sums the recorded hours across all stages.
func (l *Line) TotalHours() float64 {
	var total float64
	for _, hours := range l.StageDurations {
		total += hours
	}
	return total
}

// Clone returns a deep copy suitable for compute-then-commit transitions.
func (l *Line) Clone() *Line {
	if l == nil {
		return nil
	}
	cp := *l
	if l.StageSequence != nil {
		cp.StageSequence = make([]Substage, len(l.StageSequence))
		copy(cp.StageSequence, l.StageSequence)
	}
	if l.StageDurations != nil {
		cp.StageDurations = make(map[Stage]float64, len(l.StageDurations))
		for stage, hours := range l.StageDurations {
			cp.StageDurations[stage] = hours
		}
	}
	if l.DelayReasons != nil {
		cp.DelayReasons = make([]DelayReason, len(l.DelayReasons))
		copy(cp.DelayReasons, l.DelayReasons)
	}
	if l.CompletedAt != nil {
		completed := *l.CompletedAt
		cp.CompletedAt = &completed
	}
	return &cp
}

// Summary describes aggregated line counts per key lifecycle states.
type Summary struct {
	Total            int
	Open             int
	Manufacturing    int
	AwaitingDispatch int
	Done             int
}
