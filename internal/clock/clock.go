// Package clock provides an injectable time source so accrual and
// aggregation math stays deterministic under test.
package clock

import "time"

// Clock supplies the current instant. Implementations must be monotonic
// within a single recomputation.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant
}

// NewFixed returns a Fixed clock at the given instant.
func NewFixed(instant time.Time) Fixed {
	return Fixed{Instant: instant}
}
