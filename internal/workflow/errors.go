package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition marks an illegal stage or substage move, including any
// transition attempted on a dispatched line. Rejected transitions are
// business-rule violations, not transient faults: callers must surface them
// unmodified and must not retry.
var ErrInvalidTransition = errors.New("invalid transition")

func reject(operation, lineID, detail string) error {
	parts := make([]string, 0, 3)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if lineID = strings.TrimSpace(lineID); lineID != "" {
		parts = append(parts, "line "+lineID)
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		parts = append(parts, detail)
	}
	if len(parts) == 0 {
		return ErrInvalidTransition
	}
	return fmt.Errorf("%w: %s", ErrInvalidTransition, strings.Join(parts, ": "))
}
