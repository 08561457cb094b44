// pkg/percentile/percentile.go
package percentile

import (
	"math"
	"sort"
)

// Linear returns the p-th percentile (0-100) of an ascending-sorted slice,
// interpolating linearly between the closest ranks at position p/100*(n-1).
// Returns NaN for an empty slice.
func Linear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Of sorts a copy of values and returns the requested percentiles in order
func Of(values []float64, ps ...float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = Linear(sorted, p)
	}
	return out
}
