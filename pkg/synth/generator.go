// pkg/synth/generator.go
package synth

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// FallbackPolicy derives benchmark parameters for pairs missing from the table
type FallbackPolicy struct {
	BaseSalary        float64
	TierMultipliers   map[string]float64
	DefaultMultiplier float64
	StdDevRatio       float64
	MinRatio          float64
	MaxRatio          float64
}

// DefaultFallback returns the heuristic used when a pair has no benchmark
func DefaultFallback() FallbackPolicy {
	return FallbackPolicy{
		BaseSalary: 75000,
		TierMultipliers: map[string]float64{
			"Associate": 1.0,
			"Manager":   1.8,
			"Executive": 2.5,
		},
		DefaultMultiplier: 1.0,
		StdDevRatio:       0.3,
		MinRatio:          0.7,
		MaxRatio:          1.6,
	}
}

// Params derives benchmark parameters for a role tier. Every figure is truncated.
func (f FallbackPolicy) Params(role string) model.BenchmarkParams {
	multiplier, ok := f.TierMultipliers[role]
	if !ok {
		multiplier = f.DefaultMultiplier
	}

	median := int(f.BaseSalary * multiplier)
	return model.BenchmarkParams{
		Min:    int(float64(median) * f.MinRatio),
		Median: median,
		Max:    int(float64(median) * f.MaxRatio),
		StdDev: int(float64(median) * f.StdDevRatio),
	}
}

// Generator produces synthetic salaries for a role pair
type Generator struct {
	benchmarks model.Benchmarks
	fallback   FallbackPolicy
	src        rand.Source
}

// NewGenerator creates a generator drawing from src
func NewGenerator(benchmarks model.Benchmarks, fallback FallbackPolicy, src rand.Source) *Generator {
	return &Generator{
		benchmarks: benchmarks,
		fallback:   fallback,
		src:        src,
	}
}

// WithSource returns a copy of the generator drawing from src
func (g *Generator) WithSource(src rand.Source) *Generator {
	cp := *g
	cp.src = src
	return &cp
}

// Params returns the benchmark for a pair, falling back to the heuristic.
// The boolean reports whether a table benchmark was found.
func (g *Generator) Params(department, role string) (model.BenchmarkParams, bool) {
	if p, ok := g.benchmarks.Lookup(department, role); ok {
		return p, true
	}
	return g.fallback.Params(role), false
}

// Generate draws count salaries from a lognormal distribution whose median is
// the benchmark median and whose shape is the benchmark's coefficient of
// variation. Each draw is truncated and then clamped to [Min, Max].
func (g *Generator) Generate(department, role string, count int) []int {
	if count <= 0 {
		return []int{}
	}

	p, _ := g.Params(department, role)
	dist := distuv.LogNormal{
		Mu:    math.Log(float64(p.Median)),
		Sigma: float64(p.StdDev) / float64(p.Median),
		Src:   g.src,
	}

	out := make([]int, count)
	for i := range out {
		out[i] = Clamp(int(dist.Rand()), p.Min, p.Max)
	}
	return out
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
