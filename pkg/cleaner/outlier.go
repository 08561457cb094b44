// pkg/cleaner/outlier.go
package cleaner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/David-Botos/salary-benchmark/pkg/percentile"
)

// MinOutlierSampleSize is the smallest sample the outlier filter will touch;
// smaller samples are returned unchanged
const MinOutlierSampleSize = 5

const (
	// DefaultOutlierFactor is the generic filter factor
	DefaultOutlierFactor = 2.5
	// CollectionOutlierFactor is the factor used on freshly collected observations
	CollectionOutlierFactor = 2.0
)

// OutlierMethod selects how spread is estimated
type OutlierMethod int

const (
	// OutlierIQR keeps values within [Q1 - f*IQR, Q3 + f*IQR]
	OutlierIQR OutlierMethod = iota
	// OutlierZScore keeps values whose absolute z-score is below f
	OutlierZScore
)

// String returns the configuration name of the method
func (m OutlierMethod) String() string {
	switch m {
	case OutlierIQR:
		return "iqr"
	case OutlierZScore:
		return "zscore"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseOutlierMethod converts a configuration name to an OutlierMethod
func ParseOutlierMethod(name string) (OutlierMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "iqr":
		return OutlierIQR, nil
	case "zscore", "z-score":
		return OutlierZScore, nil
	default:
		return 0, fmt.Errorf("unknown outlier method %q", name)
	}
}

// OutlierFilter removes statistical outliers from a sample
type OutlierFilter struct {
	Method OutlierMethod
	Factor float64
}

// NewOutlierFilter creates a filter with an explicit method and factor
func NewOutlierFilter(method OutlierMethod, factor float64) OutlierFilter {
	return OutlierFilter{Method: method, Factor: factor}
}

// Filter returns the values of samples that are not outliers, in input order.
// Samples shorter than MinOutlierSampleSize are returned unchanged.
func (f OutlierFilter) Filter(samples []float64) []float64 {
	kept, _ := f.partition(samples)
	return kept
}

// partition splits samples into kept values and dropped outliers, both in input order
func (f OutlierFilter) partition(samples []float64) (kept, dropped []float64) {
	if len(samples) < MinOutlierSampleSize {
		return samples, nil
	}

	keep := f.iqrBounds(samples)
	if f.Method == OutlierZScore {
		keep = f.zScoreBounds(samples)
	}

	kept = make([]float64, 0, len(samples))
	for _, s := range samples {
		if keep(s) {
			kept = append(kept, s)
		} else {
			dropped = append(dropped, s)
		}
	}
	return kept, dropped
}

func (f OutlierFilter) iqrBounds(samples []float64) func(float64) bool {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	q1 := percentile.Linear(sorted, 25)
	q3 := percentile.Linear(sorted, 75)
	iqr := q3 - q1
	lower := q1 - f.Factor*iqr
	upper := q3 + f.Factor*iqr

	return func(s float64) bool {
		return lower <= s && s <= upper
	}
}

func (f OutlierFilter) zScoreBounds(samples []float64) func(float64) bool {
	data := stats.Float64Data(samples)
	mean, _ := data.Mean()
	sd, _ := data.StandardDeviationPopulation()

	// No spread: nothing can be an outlier
	if sd == 0 || math.IsNaN(sd) {
		return func(float64) bool { return true }
	}

	return func(s float64) bool {
		return math.Abs((s-mean)/sd) < f.Factor
	}
}
