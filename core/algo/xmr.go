package algo

import (
	"math"

	"github.com/huangsam/flowpulse/schema"
)

// Control chart constants for individuals charts.
const (
	// MovingRangeMultiplier scales the average moving range into the natural process limits.
	MovingRangeMultiplier = 2.66

	// SigmaEstimatorDivisor (d2 for n=2) converts the average moving range into one sigma.
	SigmaEstimatorDivisor = 1.128
)

// Trailing window sizes and hit counts of the detection rules.
const (
	moderateChangeWindow = 3
	moderateChangeHits   = 2
	moderateShiftWindow  = 5
	moderateShiftHits    = 4
	smallShiftWindow     = 8
)

// controlLimits holds everything needed to classify a point.
type controlLimits struct {
	average float64
	upper   float64
	lower   float64
	sigma   float64
}

// XmR derives the center line and natural process limits from baseline and classifies
// every point of display against them.
//
// An empty baseline yields zero limits, a single-value baseline collapses the limits onto
// that value; in both cases no point is classified. When clampLowerLimitToZero is set a
// negative lower limit is raised to zero, which suits count data.
func XmR(baseline, display []int, clampLowerLimitToZero bool) schema.XmRResult {
	result := schema.XmRResult{Classifications: make([]schema.SpecialCause, len(display))}
	for i := range result.Classifications {
		result.Classifications[i] = schema.NoSpecialCause
	}

	if len(baseline) == 0 {
		return result
	}

	average := mean(baseline)
	result.Average, result.UpperLimit, result.LowerLimit = average, average, average
	if len(baseline) == 1 {
		return result
	}

	limits := newControlLimits(average, averageMovingRange(baseline))
	if clampLowerLimitToZero && limits.lower < 0 {
		limits.lower = 0
	}

	result.UpperLimit, result.LowerLimit = limits.upper, limits.lower
	for i := range display {
		result.Classifications[i] = limits.classify(display, i)
	}
	return result
}

// newControlLimits derives the limits from the baseline average and average moving range.
// The explicit conversions round every product, so no fused multiply-add changes the result.
func newControlLimits(average, mrBar float64) controlLimits {
	spread := float64(MovingRangeMultiplier * mrBar)
	return controlLimits{
		average: average,
		upper:   average + spread,
		lower:   average - spread,
		sigma:   mrBar / SigmaEstimatorDivisor,
	}
}

// classify applies the detection rules to values[i] in priority order; the first match wins.
// Every rule looks only at values[i] and its predecessors.
func (l controlLimits) classify(values []int, i int) schema.SpecialCause {
	v := float64(values[i])
	if v > l.upper || v < l.lower {
		return schema.LargeChange
	}
	if i >= moderateChangeWindow-1 && l.beyondOnOneSide(values, i, moderateChangeWindow, 2*l.sigma) >= moderateChangeHits {
		return schema.ModerateChange
	}
	if i >= moderateShiftWindow-1 && l.beyondOnOneSide(values, i, moderateShiftWindow, l.sigma) >= moderateShiftHits {
		return schema.ModerateShift
	}
	if i >= smallShiftWindow-1 && l.beyondOnOneSide(values, i, smallShiftWindow, 0) == smallShiftWindow {
		return schema.SmallShift
	}
	return schema.NoSpecialCause
}

// beyondOnOneSide counts the points of the trailing window ending at end that lie strictly
// above average+offset and those strictly below average-offset, and returns the larger count.
func (l controlLimits) beyondOnOneSide(values []int, end, window int, offset float64) int {
	upper, lower := l.average+offset, l.average-offset
	above, below := 0, 0
	for _, value := range values[end-window+1 : end+1] {
		v := float64(value)
		if v > upper {
			above++
		}
		if v < lower {
			below++
		}
	}
	return max(above, below)
}

func mean(values []int) float64 {
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// averageMovingRange is the mean absolute difference of consecutive values (len >= 2).
func averageMovingRange(values []int) float64 {
	sum := 0.0
	for i := 1; i < len(values); i++ {
		sum += math.Abs(float64(values[i] - values[i-1]))
	}
	return sum / float64(len(values)-1)
}
