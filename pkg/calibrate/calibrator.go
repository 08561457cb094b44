// pkg/calibrate/calibrator.go
package calibrate

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/David-Botos/salary-benchmark/pkg/model"
	"github.com/David-Botos/salary-benchmark/pkg/percentile"
	"github.com/David-Botos/salary-benchmark/pkg/synth"
)

// DefaultMinRequired is the sample size below which synthetic filler is added
const DefaultMinRequired = 30

// DataInsufficientError is returned when no values are left to summarise
type DataInsufficientError struct {
	Department string
	Role       string
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("insufficient data for %s %s: no real or synthetic salaries", e.Department, e.Role)
}

// Calibrator merges real and synthetic samples and summarises them
type Calibrator struct {
	generator   *synth.Generator
	minRequired int
	reclamp     bool
}

// NewCalibrator creates a calibrator that tops samples up to minRequired values.
// Rescaled synthetic values are re-clamped to the benchmark bounds.
func NewCalibrator(generator *synth.Generator, minRequired int) *Calibrator {
	return &Calibrator{
		generator:   generator,
		minRequired: minRequired,
		reclamp:     true,
	}
}

// WithReclamp controls whether rescaled synthetic values are clamped back to
// the benchmark [min, max]
func (c *Calibrator) WithReclamp(reclamp bool) *Calibrator {
	cp := *c
	cp.reclamp = reclamp
	return &cp
}

// WithGenerator returns a copy of the calibrator using generator
func (c *Calibrator) WithGenerator(generator *synth.Generator) *Calibrator {
	cp := *c
	cp.generator = generator
	return &cp
}

// MinRequired returns the configured minimum sample size
func (c *Calibrator) MinRequired() int {
	return c.minRequired
}

// Compute tops the sample up with synthetic salaries when it is smaller than
// the minimum and returns the summary record. samples is not modified.
func (c *Calibrator) Compute(samples []float64, department, role string) (model.StatisticsRecord, error) {
	original := len(samples)

	merged := make([]float64, 0, max(original, c.minRequired))
	merged = append(merged, samples...)

	if original < c.minRequired && c.generator != nil {
		synthetic := c.synthesize(samples, department, role, c.minRequired-original)
		for _, s := range synthetic {
			merged = append(merged, float64(s))
		}
	}

	if len(merged) == 0 {
		return model.StatisticsRecord{}, &DataInsufficientError{Department: department, Role: role}
	}

	return summarise(merged, original, department, role), nil
}

// synthesize draws n synthetic salaries and, when real data exists, rescales
// them so their median matches the real median
func (c *Calibrator) synthesize(observed []float64, department, role string, n int) []int {
	synthetic := c.generator.Generate(department, role, n)
	if len(observed) == 0 || len(synthetic) == 0 {
		return synthetic
	}

	realMedian, _ := stats.Median(observed)
	synthMedian, _ := stats.Median(toFloats(synthetic))
	if synthMedian == 0 {
		return synthetic
	}

	factor := realMedian / synthMedian
	params, _ := c.generator.Params(department, role)
	for i, s := range synthetic {
		v := int(float64(s) * factor)
		if c.reclamp {
			v = synth.Clamp(v, params.Min, params.Max)
		}
		synthetic[i] = v
	}
	return synthetic
}

// summarise computes the statistics record; values must be non-empty
func summarise(values []float64, original int, department, role string) model.StatisticsRecord {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	data := stats.Float64Data(sorted)
	mean, _ := data.Mean()
	sd, _ := data.StandardDeviationPopulation()

	return model.StatisticsRecord{
		Department:         department,
		Role:               role,
		Count:              len(sorted),
		RealDataCount:      original,
		SyntheticDataCount: len(sorted) - original,
		MinSalary:          int(sorted[0]),
		P10:                int(percentile.Linear(sorted, 10)),
		P25:                int(percentile.Linear(sorted, 25)),
		Median:             int(percentile.Linear(sorted, 50)),
		P75:                int(percentile.Linear(sorted, 75)),
		P90:                int(percentile.Linear(sorted, 90)),
		MaxSalary:          int(sorted[len(sorted)-1]),
		Mean:               int(mean),
		StdDev:             int(sd),
	}
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
