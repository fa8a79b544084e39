package workflow

import (
	"strings"
	"time"

	"pressline/internal/orders"
)

// Advance moves a line one step forward: to the next substage while inside
// manufacturing (the last substage exits into dispatch), otherwise to the next
// top-level stage. Backward movement through top-level stages is never
// permitted, and a line parked in dispatch only leaves it through
// ConfirmDispatch. On error the line is left untouched.
func Advance(line *orders.Line, now time.Time) error {
	const op = "advance"
	if err := checkMutable(op, line); err != nil {
		return err
	}

	switch line.CurrentStage {
	case orders.StageDone:
		return reject(op, line.ID, "cannot advance past done")
	case orders.StageDispatch:
		return reject(op, line.ID, "dispatch requires confirmation")
	case orders.StageManufacturing:
		seq := line.Sequence()
		idx := line.SubstageIndex(line.CurrentSubstage)
		if idx < 0 {
			return reject(op, line.ID, "current substage not in sequence")
		}
		flushStage(line, now)
		if idx == len(seq)-1 {
			line.CurrentStage = orders.StageDispatch
			line.CurrentSubstage = ""
		} else {
			line.CurrentSubstage = seq[idx+1]
		}
		line.StageEnteredAt = now
		return nil
	default:
		next, ok := line.CurrentStage.Next()
		if !ok {
			return reject(op, line.ID, "unknown stage "+string(line.CurrentStage))
		}
		flushStage(line, now)
		line.CurrentStage = next
		if next == orders.StageManufacturing {
			line.CurrentSubstage = line.Sequence()[0]
		}
		line.StageEnteredAt = now
		return nil
	}
}

// JumpToSubstage repositions a line to another substage of its sequence for
// out-of-order correction. Only valid inside manufacturing. It updates the
// substage and its entry timestamp without touching stage-level accounting.
func JumpToSubstage(line *orders.Line, target orders.Substage, now time.Time) error {
	const op = "jump to substage"
	if err := checkMutable(op, line); err != nil {
		return err
	}
	if line.CurrentStage != orders.StageManufacturing {
		return reject(op, line.ID, "line is in "+string(line.CurrentStage)+", not manufacturing")
	}
	if line.SubstageIndex(target) < 0 {
		return reject(op, line.ID, "substage "+string(target)+" not in sequence")
	}
	line.CurrentSubstage = target
	line.StageEnteredAt = now
	return nil
}

// CompleteSubstage closes out time accounting for the current substage,
// appending the elapsed hours to the manufacturing stage duration, and
// advances to the next substage. Completing the last substage moves the line
// to dispatch and reports that dispatch confirmation is still required; the
// line remains a valid, non-terminal resident of dispatch until ConfirmDispatch.
func CompleteSubstage(line *orders.Line, now time.Time) (confirmationRequired bool, err error) {
	const op = "complete substage"
	if err := checkMutable(op, line); err != nil {
		return false, err
	}
	if line.CurrentStage != orders.StageManufacturing {
		return false, reject(op, line.ID, "line is in "+string(line.CurrentStage)+", not manufacturing")
	}
	seq := line.Sequence()
	idx := line.SubstageIndex(line.CurrentSubstage)
	if idx < 0 {
		return false, reject(op, line.ID, "current substage not in sequence")
	}

	flushStage(line, now)
	if idx == len(seq)-1 {
		line.CurrentStage = orders.StageDispatch
		line.CurrentSubstage = ""
		line.StageEnteredAt = now
		return true, nil
	}
	line.CurrentSubstage = seq[idx+1]
	line.StageEnteredAt = now
	return false, nil
}

// ConfirmDispatch records the external dispatch confirmation: the tracking
// code, the dispatched flag, and the move into the terminal done stage.
// Declining the confirmation is expressed by never calling this; the line
// then stays in dispatch with dispatched=false. That asymmetry is intentional
// and can leave lines parked in dispatch indefinitely, so callers surfacing
// queue views should expose such lines rather than auto-confirming them.
func ConfirmDispatch(line *orders.Line, trackingCode string, now time.Time) error {
	const op = "confirm dispatch"
	if err := checkMutable(op, line); err != nil {
		return err
	}
	if line.CurrentStage != orders.StageDispatch {
		return reject(op, line.ID, "line is in "+string(line.CurrentStage)+", not dispatch")
	}
	trackingCode = strings.TrimSpace(trackingCode)
	if trackingCode == "" {
		return reject(op, line.ID, "tracking details are required")
	}

	flushStage(line, now)
	line.Dispatched = true
	line.TrackingCode = trackingCode
	line.CurrentStage = orders.StageDone
	line.StageEnteredAt = now
	completed := now
	line.CompletedAt = &completed
	return nil
}

func checkMutable(op string, line *orders.Line) error {
	if line == nil {
		return reject(op, "", "line is nil")
	}
	if line.Dispatched {
		return reject(op, line.ID, "line is dispatched and immutable")
	}
	return nil
}

// flushStage folds the elapsed time of the stage being left into the line's
// duration accounting. Durations are keyed by stage (substage residency all
// accrues to manufacturing) and only ever grow.
func flushStage(line *orders.Line, now time.Time) {
	elapsed := now.Sub(line.StageEnteredAt).Hours()
	if elapsed <= 0 {
		return
	}
	if line.StageDurations == nil {
		line.StageDurations = map[orders.Stage]float64{}
	}
	line.StageDurations[line.CurrentStage] += elapsed
}
