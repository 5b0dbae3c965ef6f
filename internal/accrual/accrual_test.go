package accrual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuantity(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ceiling := int64(500)

	tests := []struct {
		name     string
		stored   int64
		rate     float64
		elapsed  time.Duration
		ceiling  *int64
		expected int64
	}{
		{
			name:     "zero rate holds stored value",
			stored:   100,
			rate:     0,
			elapsed:  time.Hour,
			expected: 100,
		},
		{
			name:     "positive rate accrues per second",
			stored:   100,
			rate:     2,
			elapsed:  30 * time.Second,
			expected: 160,
		},
		{
			name:     "negative rate drains",
			stored:   100,
			rate:     -1,
			elapsed:  40 * time.Second,
			expected: 60,
		},
		{
			name:     "never drops below zero",
			stored:   10,
			rate:     -5,
			elapsed:  time.Minute,
			expected: 0,
		},
		{
			name:     "capped at ceiling",
			stored:   400,
			rate:     10,
			elapsed:  time.Minute,
			ceiling:  &ceiling,
			expected: 500,
		},
		{
			name:     "stored above ceiling is clamped",
			stored:   600,
			rate:     0,
			elapsed:  0,
			ceiling:  &ceiling,
			expected: 500,
		},
		{
			name:     "negative elapsed counts as zero",
			stored:   100,
			rate:     2,
			elapsed:  -time.Minute,
			expected: 100,
		},
		{
			name:     "fractional accrual floors",
			stored:   0,
			rate:     0.5,
			elapsed:  3 * time.Second,
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantity(tt.stored, tt.rate, base, base.Add(tt.elapsed), tt.ceiling)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuantityMonotonic(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	prev := Quantity(50, 3, base, base, nil)
	for elapsed := time.Second; elapsed <= time.Minute; elapsed += time.Second {
		got := Quantity(50, 3, base, base.Add(elapsed), nil)
		assert.GreaterOrEqual(t, got, prev, "positive rate must be monotonic in elapsed time")
		prev = got
	}

	prev = Quantity(50, -3, base, base, nil)
	for elapsed := time.Second; elapsed <= time.Minute; elapsed += time.Second {
		got := Quantity(50, -3, base, base.Add(elapsed), nil)
		assert.LessOrEqual(t, got, prev, "negative rate must be non-increasing in elapsed time")
		assert.GreaterOrEqual(t, got, int64(0))
		prev = got
	}
}

func TestPerHour(t *testing.T) {
	assert.InDelta(t, 1.0, PerHour(3600), 1e-9)
	assert.InDelta(t, 0.5, PerHour(1800), 1e-9)
	assert.InDelta(t, -1.0, PerHour(-3600), 1e-9)
}
