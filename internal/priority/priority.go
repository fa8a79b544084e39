// Package priority derives a coarse urgency tier from a delivery date. The
// tier is a view computed on every read, never stored.
package priority

import (
	"math"
	"time"
)

// Tier is the urgency classification of an order line.
type Tier int

const (
	TierLow Tier = iota
	TierWarning
	TierUrgent
)

// String returns the wire label for a tier.
func (t Tier) String() string {
	switch t {
	case TierWarning:
		return "warning"
	case TierUrgent:
		return "urgent"
	default:
		return "low"
	}
}

// DaysUntil returns the number of calendar-rounded days (ceiling of 24h
// periods) between now and the deadline. Past deadlines yield negative values.
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// Classify maps a delivery date to an urgency tier. A zero delivery date is
// treated as non-urgent rather than an error. Pure and total over all inputs.
func Classify(deliveryDate, now time.Time) Tier {
	if deliveryDate.IsZero() {
		return TierLow
	}
	days := DaysUntil(deliveryDate, now)
	switch {
	case days > 5:
		return TierLow
	case days >= 3:
		return TierWarning
	default:
		return TierUrgent
	}
}
