// pkg/cleaner/validator.go
package cleaner

import "math"

const (
	// DefaultMinReasonableSalary is the inclusive lower bound for an annual salary
	DefaultMinReasonableSalary = 30000
	// DefaultMaxReasonableSalary is the inclusive upper bound for an annual salary
	DefaultMaxReasonableSalary = 500000
)

// DefaultInvalidValues are sentinel residues left by upstream unit conversion
// (hourly/daily figures that survived as annual salaries)
var DefaultInvalidValues = []float64{175, 200, 250, 300}

// Validator classifies individual salary values as plausible or not
type Validator struct {
	min     float64
	max     float64
	invalid map[float64]struct{}
}

// NewValidator creates a validator for the inclusive range [min, max] that also
// rejects every value in invalid
func NewValidator(min, max float64, invalid []float64) *Validator {
	set := make(map[float64]struct{}, len(invalid))
	for _, v := range invalid {
		set[v] = struct{}{}
	}
	return &Validator{min: min, max: max, invalid: set}
}

// DefaultValidator returns a validator using the default bounds and sentinels
func DefaultValidator() *Validator {
	return NewValidator(DefaultMinReasonableSalary, DefaultMaxReasonableSalary, DefaultInvalidValues)
}

// IsValid reports whether salary is a plausible annual salary
func (v *Validator) IsValid(salary float64) bool {
	_, ok := v.reject(salary)
	return ok
}

// reject returns the rejection reason, or ok=true when the value is valid
func (v *Validator) reject(salary float64) (string, bool) {
	if math.IsNaN(salary) {
		return "not_a_number", false
	}
	if _, bad := v.invalid[salary]; bad {
		return "sentinel_value", false
	}
	if salary < v.min {
		return "below_minimum", false
	}
	if salary > v.max {
		return "above_maximum", false
	}
	return "", true
}
