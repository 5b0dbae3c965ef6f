// Package accrual computes the current value of continuously-growing
// quantities. Stocks, populations and player energy all grow as a pure
// function of elapsed time: nothing is stepped, values are resolved on read.
package accrual

import (
	"math"
	"time"
)

// SecondsPerHour converts per-hour rates to per-second rates. Mining and
// production rates are stored as units per hour.
const SecondsPerHour = 3600

// Quantity resolves the effective quantity of an accruing value.
//
// stored is the persisted baseline, rate is the accrual velocity in units
// per second, lastChanged is the baseline timestamp. The result is clamped
// to zero from below and to ceiling from above when a ceiling is given.
// A now earlier than lastChanged counts as zero elapsed time.
func Quantity(stored int64, rate float64, lastChanged, now time.Time, ceiling *int64) int64 {
	elapsed := now.Sub(lastChanged).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	quantity := float64(stored) + rate*elapsed
	if quantity < 0 {
		quantity = 0
	}
	if ceiling != nil && quantity > float64(*ceiling) {
		quantity = float64(*ceiling)
	}

	return int64(math.Floor(quantity))
}

// PerHour converts a stored per-hour rate to the per-second velocity
// Quantity expects.
func PerHour(rate int64) float64 {
	return float64(rate) / SecondsPerHour
}
