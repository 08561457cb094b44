// pkg/config/reference.go
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

// Reference is the static reference data of a run: benchmark parameters,
// the ordered pairs to process and the adjustment rules.
// Values are built once and passed explicitly; nothing mutates them afterwards.
type Reference struct {
	Benchmarks model.Benchmarks
	Pairs      []model.RolePair
	Rules      []model.AdjustmentRule
}

// referenceFile is the YAML layout of a reference override file.
// Omitted sections fall back to the built-in defaults.
type referenceFile struct {
	Benchmarks []benchmarkEntry       `yaml:"benchmarks" validate:"dive"`
	Pairs      []model.RolePair       `yaml:"pairs" validate:"dive"`
	Rules      []model.AdjustmentRule `yaml:"rules" validate:"dive"`
}

type benchmarkEntry struct {
	model.RolePair        `yaml:",inline"`
	model.BenchmarkParams `yaml:",inline"`
}

// DefaultReference returns the built-in reference data
func DefaultReference() *Reference {
	return &Reference{
		Benchmarks: DefaultBenchmarks(),
		Pairs:      DefaultPairs(),
		Rules:      DefaultRules(),
	}
}

// LoadReference reads reference data from a YAML file. An empty path returns
// the built-in defaults.
func LoadReference(path string) (*Reference, error) {
	ref := DefaultReference()
	if path == "" {
		return ref, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}

	return parseReference(data, ref)
}

func parseReference(data []byte, ref *Reference) (*Reference, error) {
	var file referenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse reference file: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid reference file: %w", err)
	}

	if len(file.Benchmarks) > 0 {
		ref.Benchmarks = make(model.Benchmarks, len(file.Benchmarks))
		for _, b := range file.Benchmarks {
			ref.Benchmarks[b.RolePair] = b.BenchmarkParams
		}
	}
	if len(file.Pairs) > 0 {
		ref.Pairs = file.Pairs
	}
	if len(file.Rules) > 0 {
		ref.Rules = file.Rules
	}

	return ref, nil
}

func pair(department, role string) model.RolePair {
	return model.RolePair{Department: department, Role: role}
}

// DefaultBenchmarks returns the built-in (min, median, max, std-dev) table
func DefaultBenchmarks() model.Benchmarks {
	return model.Benchmarks{
		pair("Finance", "Associate"): {Min: 65000, Median: 95000, Max: 130000, StdDev: 25000},
		pair("Finance", "Manager"):   {Min: 140000, Median: 175000, Max: 220000, StdDev: 35000},
		pair("Finance", "Executive"): {Min: 180000, Median: 240000, Max: 350000, StdDev: 60000},

		pair("Marketing", "Associate"): {Min: 55000, Median: 75000, Max: 100000, StdDev: 20000},
		pair("Marketing", "Manager"):   {Min: 100000, Median: 135000, Max: 180000, StdDev: 30000},
		pair("Marketing", "Executive"): {Min: 150000, Median: 200000, Max: 280000, StdDev: 50000},

		pair("Operations", "Associate"): {Min: 60000, Median: 85000, Max: 120000, StdDev: 25000},
		pair("Operations", "Manager"):   {Min: 120000, Median: 160000, Max: 210000, StdDev: 35000},
		pair("Operations", "Executive"): {Min: 170000, Median: 230000, Max: 320000, StdDev: 55000},

		pair("Sales", "Associate"): {Min: 50000, Median: 70000, Max: 95000, StdDev: 18000},
		pair("Sales", "Manager"):   {Min: 110000, Median: 145000, Max: 190000, StdDev: 32000},
		pair("Sales", "Executive"): {Min: 160000, Median: 210000, Max: 300000, StdDev: 50000},

		pair("Human Resources", "Associate"): {Min: 55000, Median: 75000, Max: 105000, StdDev: 22000},
		pair("Human Resources", "Manager"):   {Min: 100000, Median: 130000, Max: 170000, StdDev: 30000},
		pair("Human Resources", "Executive"): {Min: 150000, Median: 195000, Max: 280000, StdDev: 48000},
	}
}

// DefaultPairs returns the pairs to process, in output order
func DefaultPairs() []model.RolePair {
	return []model.RolePair{
		pair("Finance", "Associate"), pair("Marketing", "Associate"),
		pair("Operations", "Executive"), pair("Human Resources", "Associate"),
		pair("Operations", "Associate"), pair("Finance", "Manager"),
		pair("Operations", "Manager"), pair("Finance", "Executive"),
		pair("Marketing", "Executive"), pair("Marketing", "Manager"),
		pair("Sales", "Executive"), pair("Human Resources", "Manager"),
		pair("Sales", "Associate"), pair("Sales", "Manager"),
		pair("Human Resources", "Executive"),
	}
}

// DefaultRules returns the built-in adjustment rules
func DefaultRules() []model.AdjustmentRule {
	reduce := func(role, dept string) model.AdjustmentRule {
		return model.AdjustmentRule{Role: role, Department: dept, Direction: model.DirectionReduce, Low: 4, High: 8}
	}
	increase := func(role, dept string) model.AdjustmentRule {
		return model.AdjustmentRule{Role: role, Department: dept, Direction: model.DirectionIncrease, Low: 3, High: 8}
	}

	return []model.AdjustmentRule{
		reduce("Associate", "Finance"),
		reduce("Associate", "Human Resources"),
		increase("Associate", "Marketing"),
		reduce("Associate", "Operations"),
		increase("Associate", "Sales"),
		increase("Executive", "Finance"),
		increase("Executive", "Human Resources"),
		increase("Executive", "Marketing"),
		increase("Executive", "Operations"),
		increase("Executive", "Sales"),
		reduce("Manager", "Finance"),
		increase("Manager", "Human Resources"),
		increase("Manager", "Marketing"),
		reduce("Manager", "Operations"),
		reduce("Manager", "Sales"),
	}
}
