// pkg/adjust/engine.go
package adjust

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// DefaultScaleFactor maps market salaries onto the company's pay bands
const DefaultScaleFactor = 0.607

// RuleSet is an ordered list of adjustment rules with at most one rule per
// (role, department). When the input repeats a pair the last definition wins
// and takes the position of that last definition.
type RuleSet struct {
	rules      []model.AdjustmentRule
	duplicates int
}

// NewRuleSet validates and normalises rules
func NewRuleSet(rules []model.AdjustmentRule) (*RuleSet, error) {
	type key struct{ role, department string }

	last := make(map[key]int, len(rules))
	for i, r := range rules {
		if !r.Direction.Valid() {
			return nil, fmt.Errorf("rule %d (%s %s): unknown direction %q", i, r.Department, r.Role, r.Direction)
		}
		if r.Low < 0 || r.High < r.Low || r.High >= 100 {
			return nil, fmt.Errorf("rule %d (%s %s): invalid percentage range [%v, %v]", i, r.Department, r.Role, r.Low, r.High)
		}
		last[key{r.Role, r.Department}] = i
	}

	rs := &RuleSet{rules: make([]model.AdjustmentRule, 0, len(last))}
	for i, r := range rules {
		if last[key{r.Role, r.Department}] != i {
			rs.duplicates++
			continue
		}
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Rules returns the normalised rules in application order
func (rs *RuleSet) Rules() []model.AdjustmentRule {
	out := make([]model.AdjustmentRule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Duplicates returns how many rules were superseded by a later definition
func (rs *RuleSet) Duplicates() int {
	return rs.duplicates
}

// Engine derives the company-scaled view of a statistics table and applies
// the adjustment rules to it
type Engine struct {
	scaleFactor float64
	rules       *RuleSet
	src         rand.Source
}

// NewEngine creates an adjustment engine drawing percentages from src
func NewEngine(scaleFactor float64, rules *RuleSet, src rand.Source) (*Engine, error) {
	if scaleFactor <= 0 {
		return nil, fmt.Errorf("scale factor must be positive, got %v", scaleFactor)
	}
	if rules == nil {
		return nil, errors.New("rule set cannot be nil")
	}
	if src == nil {
		return nil, errors.New("random source cannot be nil")
	}
	return &Engine{scaleFactor: scaleFactor, rules: rules, src: src}, nil
}

// Scale derives the unadjusted company-scaled view. Every scaled value is truncated.
func (e *Engine) Scale(records []model.StatisticsRecord) []model.AdjustedRecord {
	out := make([]model.AdjustedRecord, len(records))
	for i, rec := range records {
		out[i].StatisticsRecord = rec
		for _, c := range model.ScaledColumns {
			out[i].Scaled[c] = int(float64(c.Source(rec)) * e.scaleFactor)
		}
	}
	return out
}

// Apply scales records and then adjusts the scaled columns of matching rows.
// For each rule every scaled column draws its own percentage, shared by all
// rows the rule matches. records is not modified.
func (e *Engine) Apply(records []model.StatisticsRecord) []model.AdjustedRecord {
	table := e.Scale(records)

	for _, rule := range e.rules.rules {
		var matched []int
		for i := range table {
			if rule.Matches(table[i].StatisticsRecord) {
				matched = append(matched, i)
			}
		}
		if len(matched) == 0 {
			continue
		}

		pct := distuv.Uniform{Min: rule.Low, Max: rule.High, Src: e.src}
		for _, c := range model.ScaledColumns {
			multiplier := Multiplier(rule.Direction, pct.Rand())
			for _, i := range matched {
				table[i].Scaled[c] = int(float64(table[i].Scaled[c]) * multiplier)
			}
		}
	}

	return table
}

// Multiplier converts a direction and percentage into a scaling multiplier
func Multiplier(direction model.Direction, pct float64) float64 {
	if direction == model.DirectionReduce {
		return 1 - pct/100
	}
	return 1 + pct/100
}
