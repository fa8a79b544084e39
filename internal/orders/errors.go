package orders

import "errors"

var (
	// ErrNotFound indicates the requested order or line does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaleLine indicates an optimistic revision check failed because the
	// line was modified concurrently. Callers should re-read and retry.
	ErrStaleLine = errors.New("stale line revision")
)
