package algo

import (
	"math"
	"slices"

	"github.com/huangsam/flowpulse/schema"
)

// Percentile returns the nearest-rank percentile p (0 < p <= 100) of sample.
// The result is always an element of sample; no interpolation happens.
// The sample must not be empty, callers check the length first.
func Percentile(sample []int, p float64) int {
	sorted := slices.Clone(sample)
	slices.Sort(sorted)
	return percentileOfSorted(sorted, p)
}

// percentileOfSorted computes index = floor(p/100*n) - 1 clamped to [0, n-1].
// The operation order is fixed: p*n/100 rounds differently, e.g. for p=70 and n=90.
func percentileOfSorted(sorted []int, p float64) int {
	n := len(sorted)
	index := int(math.Floor(p/100*float64(n))) - 1
	index = max(0, min(index, n-1))
	return sorted[index]
}

// Percentiles computes every requested rank over sample, defaulting to the canonical
// 50/70/85/95. An empty sample yields an empty list.
func Percentiles(sample []int, ranks ...float64) []schema.PercentileValue {
	if len(sample) == 0 {
		return []schema.PercentileValue{}
	}
	if len(ranks) == 0 {
		ranks = schema.CanonicalPercentiles
	}

	sorted := slices.Clone(sample)
	slices.Sort(sorted)

	result := make([]schema.PercentileValue, 0, len(ranks))
	for _, p := range ranks {
		result = append(result, schema.PercentileValue{Percentile: p, Value: percentileOfSorted(sorted, p)})
	}
	return result
}
