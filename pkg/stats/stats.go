// Package stats reduces repeated measurement samples to a six-number digest.
package stats

import (
	"math"
	"sort"

	montanaflynn "github.com/montanaflynn/stats"
)

// Summary is the statistical digest of one sample set. Every field is NaN for
// an empty input: "undefined" is distinct from a valid zero and callers must
// treat it so.
type Summary struct {
	Avg float64
	Min float64
	Max float64
	P50 float64
	P95 float64
	P99 float64
}

// Percentile returns the pct-th percentile using linear interpolation between
// order statistics at rank (pct/100)*(n-1). It clamps to the first element
// for pct <= 0 and to the last for pct >= 100, and returns NaN for an empty
// input.
func Percentile(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	ordered := make([]float64, len(values))
	copy(ordered, values)
	sort.Float64s(ordered)

	if pct <= 0 {
		return ordered[0]
	}
	if pct >= 100 {
		return ordered[len(ordered)-1]
	}

	rank := pct / 100 * float64(len(ordered)-1)
	low := int(math.Floor(rank))
	high := int(math.Ceil(rank))
	if low == high {
		return ordered[low]
	}
	weight := rank - float64(low)
	return ordered[low]*(1-weight) + ordered[high]*weight
}

// Summarize reduces samples to a Summary. An empty input yields NaN in every
// field, never an error and never a numeric default.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		nan := math.NaN()
		return Summary{Avg: nan, Min: nan, Max: nan, P50: nan, P95: nan, P99: nan}
	}

	avg, _ := montanaflynn.Mean(values)
	min, _ := montanaflynn.Min(values)
	max, _ := montanaflynn.Max(values)

	return Summary{
		Avg: avg,
		Min: min,
		Max: max,
		P50: Percentile(values, 50),
		P95: Percentile(values, 95),
		P99: Percentile(values, 99),
	}
}
