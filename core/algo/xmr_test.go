package algo

import (
	"slices"
	"testing"

	"github.com/huangsam/flowpulse/schema"
	"github.com/stretchr/testify/assert"
)

const (
	N  = schema.NoSpecialCause
	LC = schema.LargeChange
	MC = schema.ModerateChange
	MS = schema.ModerateShift
	SS = schema.SmallShift
)

func repeat(v, n int) []int {
	return slices.Repeat([]int{v}, n)
}

// TestXmRLimits tests the natural process limits derived from the baseline.
func TestXmRLimits(t *testing.T) {
	baseline := []int{5, 5, 5, 5, 5, 5, 5, 6}
	result := XmR(baseline, nil, true)

	average, mrBar := 5.125, 1.0/7
	spread := float64(2.66 * mrBar)
	assert.Equal(t, average, result.Average)
	assert.Equal(t, average+spread, result.UpperLimit)
	assert.Equal(t, average-spread, result.LowerLimit)
	assert.InDelta(t, 5.505, result.UpperLimit, 1e-3)
	assert.InDelta(t, 4.745, result.LowerLimit, 1e-3)
	assert.Empty(t, result.Classifications)

	limits := newControlLimits(mean(baseline), averageMovingRange(baseline))
	assert.Equal(t, mrBar, averageMovingRange(baseline))
	divisor := 1.128
	assert.Equal(t, mrBar/divisor, limits.sigma)
	assert.InDelta(t, 0.1267, limits.sigma, 1e-4)
}

// TestXmRSigmaBoundary tests that the one and two sigma bands use mrBar/1.128, not mrBar.
func TestXmRSigmaBoundary(t *testing.T) {
	// average 10, mrBar 1, sigma 1/1.128 ~ 0.887, limits 10 +/- 2.66
	baseline := []int{10, 11, 10, 9, 10, 11, 10, 9, 10}
	limits := newControlLimits(mean(baseline), averageMovingRange(baseline))
	assert.Equal(t, 10.0, limits.average)
	assert.Equal(t, 1.0, averageMovingRange(baseline))
	divisor := 1.128
	assert.Equal(t, 1/divisor, limits.sigma)

	// 11 lies beyond one sigma (10.887) but would not lie beyond one mrBar (11).
	assert.Equal(t, []schema.SpecialCause{N, N, N, N, MS}, XmR(baseline, repeat(11, 5), true).Classifications)

	// 12 lies beyond two sigma (11.773) but would not lie beyond two mrBar (12).
	assert.Equal(t, []schema.SpecialCause{N, N, MC}, XmR(baseline, repeat(12, 3), true).Classifications)
}

// TestXmRDegenerateBaselines tests the empty and single-value baselines.
func TestXmRDegenerateBaselines(t *testing.T) {
	t.Run("empty baseline", func(t *testing.T) {
		result := XmR(nil, []int{1, 2, 3}, true)
		assert.Zero(t, result.Average)
		assert.Zero(t, result.UpperLimit)
		assert.Zero(t, result.LowerLimit)
		assert.Equal(t, []schema.SpecialCause{N, N, N}, result.Classifications)
	})

	t.Run("single value baseline", func(t *testing.T) {
		result := XmR([]int{4}, []int{100, 0}, true)
		assert.InDelta(t, 4.0, result.Average, 1e-9)
		assert.InDelta(t, 4.0, result.UpperLimit, 1e-9)
		assert.InDelta(t, 4.0, result.LowerLimit, 1e-9)
		assert.Equal(t, []schema.SpecialCause{N, N}, result.Classifications)
	})
}

// TestXmRLowerLimitClamp tests clamping the lower limit for count data.
func TestXmRLowerLimitClamp(t *testing.T) {
	baseline := []int{0, 10, 0, 10}

	clamped := XmR(baseline, nil, true)
	assert.InDelta(t, 0.0, clamped.LowerLimit, 1e-9)
	assert.InDelta(t, 31.6, clamped.UpperLimit, 1e-9)

	raw := XmR(baseline, nil, false)
	assert.InDelta(t, -21.6, raw.LowerLimit, 1e-9)
}

// TestXmRClassification tests the detection rules and their priority.
func TestXmRClassification(t *testing.T) {
	stable := []int{5, 5, 5, 5, 5, 5, 5, 6}
	alternating := []int{10, 12, 10, 12, 10, 12, 10, 12}

	tests := []struct {
		name     string
		baseline []int
		display  []int
		expected []schema.SpecialCause
	}{
		{
			name:     "eight points below average is a small shift",
			baseline: stable,
			display:  repeat(5, 8),
			expected: []schema.SpecialCause{N, N, N, N, N, N, N, SS},
		},
		{
			name:     "seven points are not enough",
			baseline: stable,
			display:  repeat(5, 7),
			expected: repeat7(N),
		},
		{
			name:     "large change wins over every other rule",
			baseline: stable,
			display:  repeat(6, 8),
			expected: []schema.SpecialCause{LC, LC, LC, LC, LC, LC, LC, LC},
		},
		{
			name:     "moderate change then moderate shift",
			baseline: alternating,
			display:  []int{11, 11, 15, 15, 13, 13, 13, 13, 10},
			expected: []schema.SpecialCause{N, N, N, MC, MC, MS, MS, MS, MS},
		},
		{
			name:     "moderate change below the average",
			baseline: alternating,
			display:  []int{11, 7, 7},
			expected: []schema.SpecialCause{N, N, MC},
		},
		{
			name:     "points on opposite sides do not combine",
			baseline: alternating,
			display:  []int{15, 7, 11},
			expected: []schema.SpecialCause{N, N, N},
		},
		{
			name:     "zero moving range",
			baseline: []int{1, 1, 1, 1},
			display:  []int{1, 2},
			expected: []schema.SpecialCause{N, LC},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := XmR(tt.baseline, tt.display, true)
			assert.Equal(t, tt.expected, result.Classifications)
		})
	}
}

func repeat7(c schema.SpecialCause) []schema.SpecialCause {
	return slices.Repeat([]schema.SpecialCause{c}, 7)
}

// BenchmarkXmR benchmarks classification of a year of daily values.
func BenchmarkXmR(b *testing.B) {
	baseline := make([]int, 30)
	display := make([]int, 365)
	for i := range baseline {
		baseline[i] = i % 7
	}
	for i := range display {
		display[i] = (i * 31) % 11
	}
	for b.Loop() {
		_ = XmR(baseline, display, true)
	}
}
