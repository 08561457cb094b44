// pkg/model/salary.go
package model

import "fmt"

// RolePair identifies one unit of aggregation: a role within a department
type RolePair struct {
	Department string `yaml:"department" validate:"required"`
	Role       string `yaml:"role" validate:"required"`
}

// String returns the pair as it is used in search queries ("Finance Associate")
func (p RolePair) String() string {
	return fmt.Sprintf("%s %s", p.Department, p.Role)
}

// BenchmarkParams are the reference salary figures used to calibrate synthetic data.
// Invariant: Min <= Median <= Max and StdDev > 0.
type BenchmarkParams struct {
	Min    int `yaml:"min" validate:"gt=0,ltefield=Median"`
	Median int `yaml:"median" validate:"gt=0,ltefield=Max"`
	Max    int `yaml:"max" validate:"gt=0"`
	StdDev int `yaml:"std_dev" validate:"gt=0"`
}

// Benchmarks maps a role pair to its benchmark parameters.
// Treat values as read-only once constructed.
type Benchmarks map[RolePair]BenchmarkParams

// Lookup returns the benchmark for a department and role
func (b Benchmarks) Lookup(department, role string) (BenchmarkParams, bool) {
	p, ok := b[RolePair{Department: department, Role: role}]
	return p, ok
}

// StatisticsRecord is one row of the salary statistics table.
// All monetary values are truncated to whole currency units.
type StatisticsRecord struct {
	Department         string
	Role               string
	Count              int
	RealDataCount      int
	SyntheticDataCount int
	MinSalary          int
	P10                int
	P25                int
	Median             int
	P75                int
	P90                int
	MaxSalary          int
	Mean               int
	StdDev             int
}

// Pair returns the role pair the record describes
func (r StatisticsRecord) Pair() RolePair {
	return RolePair{Department: r.Department, Role: r.Role}
}

// Ordered reports whether the percentile columns are monotonically non-decreasing
func (r StatisticsRecord) Ordered() bool {
	return r.MinSalary <= r.P10 &&
		r.P10 <= r.P25 &&
		r.P25 <= r.Median &&
		r.Median <= r.P75 &&
		r.P75 <= r.P90 &&
		r.P90 <= r.MaxSalary
}

// CountsBalanced reports whether real and synthetic counts add up to Count
func (r StatisticsRecord) CountsBalanced() bool {
	return r.RealDataCount+r.SyntheticDataCount == r.Count
}

// ScaledColumn names one of the company-scaled statistics
type ScaledColumn int

const (
	ScaledMin ScaledColumn = iota
	ScaledP25
	ScaledMedian
	ScaledP75
	ScaledMax
	ScaledMean
)

// ScaledColumns lists every company-scaled column in output order
var ScaledColumns = []ScaledColumn{ScaledMin, ScaledP25, ScaledMedian, ScaledP75, ScaledMax, ScaledMean}

// String returns the output column name
func (c ScaledColumn) String() string {
	switch c {
	case ScaledMin:
		return "Company_Scaled_Min"
	case ScaledP25:
		return "Company_Scaled_P25"
	case ScaledMedian:
		return "Company_Scaled_Median"
	case ScaledP75:
		return "Company_Scaled_P75"
	case ScaledMax:
		return "Company_Scaled_Max"
	case ScaledMean:
		return "Company_Scaled_Mean"
	default:
		return fmt.Sprintf("Company_Scaled_Unknown(%d)", int(c))
	}
}

// Source returns the unscaled value the column is derived from
func (c ScaledColumn) Source(r StatisticsRecord) int {
	switch c {
	case ScaledMin:
		return r.MinSalary
	case ScaledP25:
		return r.P25
	case ScaledMedian:
		return r.Median
	case ScaledP75:
		return r.P75
	case ScaledMax:
		return r.MaxSalary
	case ScaledMean:
		return r.Mean
	default:
		return 0
	}
}

// AdjustedRecord carries the unscaled statistics plus the company-scaled,
// rule-adjusted columns. The embedded record is a copy; the source table is never mutated.
type AdjustedRecord struct {
	StatisticsRecord
	Scaled [6]int
}

// ScaledValue returns the current value of a scaled column
func (r AdjustedRecord) ScaledValue(c ScaledColumn) int {
	return r.Scaled[c]
}

// Direction is the sign of an adjustment rule
type Direction string

const (
	DirectionIncrease Direction = "Increase"
	DirectionReduce   Direction = "Reduce"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionIncrease || d == DirectionReduce
}

// AdjustmentRule nudges the scaled columns of every matching record by a
// uniformly drawn percentage in [Low, High]
type AdjustmentRule struct {
	Role       string    `yaml:"role" validate:"required"`
	Department string    `yaml:"department" validate:"required"`
	Direction  Direction `yaml:"direction" validate:"oneof=Increase Reduce"`
	Low        float64   `yaml:"low" validate:"gte=0,ltefield=High"`
	High       float64   `yaml:"high" validate:"gte=0,lt=100"`
}

// Matches reports whether the rule applies to a record (exact match on both fields)
func (r AdjustmentRule) Matches(rec StatisticsRecord) bool {
	return r.Role == rec.Role && r.Department == rec.Department
}
