package adjust

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/salary-benchmark/pkg/model"
)

func record(dept, role string, value int) model.StatisticsRecord {
	return model.StatisticsRecord{
		Department: dept,
		Role:       role,
		Count:      30,
		MinSalary:  value,
		P10:        value,
		P25:        value,
		Median:     value,
		P75:        value,
		P90:        value,
		MaxSalary:  value,
		Mean:       value,
	}
}

func reduceFinanceAssociate() model.AdjustmentRule {
	return model.AdjustmentRule{
		Role: "Associate", Department: "Finance",
		Direction: model.DirectionReduce, Low: 4, High: 8,
	}
}

func newEngine(t *testing.T, factor float64, seed uint64, rules ...model.AdjustmentRule) *Engine {
	t.Helper()
	rs, err := NewRuleSet(rules)
	require.NoError(t, err)
	e, err := NewEngine(factor, rs, rand.NewPCG(seed, 0))
	require.NoError(t, err)
	return e
}

func TestScaleTruncates(t *testing.T) {
	e := newEngine(t, DefaultScaleFactor, 1)

	out := e.Scale([]model.StatisticsRecord{record("Finance", "Associate", 50000)})
	require.Len(t, out, 1)
	for _, c := range model.ScaledColumns {
		assert.Equal(t, 30350, out[0].ScaledValue(c), c.String())
	}
	assert.Equal(t, 50000, out[0].Median, "unscaled columns are retained")
}

func TestApplyReduceWithinBounds(t *testing.T) {
	for seed := uint64(0); seed < 100; seed++ {
		e := newEngine(t, 1.0, seed, reduceFinanceAssociate())

		out := e.Apply([]model.StatisticsRecord{record("Finance", "Associate", 50000)})
		require.Len(t, out, 1)
		for _, c := range model.ScaledColumns {
			v := out[0].ScaledValue(c)
			assert.GreaterOrEqual(t, v, 46000, "seed %d %s", seed, c)
			assert.LessOrEqual(t, v, 48000, "seed %d %s", seed, c)
		}
	}
}

func TestApplyIncreaseWithinBounds(t *testing.T) {
	rule := model.AdjustmentRule{
		Role: "Manager", Department: "Sales",
		Direction: model.DirectionIncrease, Low: 3, High: 8,
	}
	e := newEngine(t, 1.0, 5, rule)

	out := e.Apply([]model.StatisticsRecord{record("Sales", "Manager", 100000)})
	for _, c := range model.ScaledColumns {
		v := out[0].ScaledValue(c)
		assert.GreaterOrEqual(t, v, 103000)
		assert.LessOrEqual(t, v, 108000)
	}
}

func TestApplyRepeatedRunsStayBounded(t *testing.T) {
	e := newEngine(t, 1.0, 11, reduceFinanceAssociate())
	base := []model.StatisticsRecord{record("Finance", "Associate", 50000)}

	for i := 0; i < 20; i++ {
		out := e.Apply(base)
		v := out[0].ScaledValue(model.ScaledMedian)
		assert.GreaterOrEqual(t, v, 46000)
		assert.LessOrEqual(t, v, 48000)
	}
}

func TestApplyOnlyTouchesMatchingRows(t *testing.T) {
	e := newEngine(t, 1.0, 3, reduceFinanceAssociate())

	out := e.Apply([]model.StatisticsRecord{
		record("Finance", "Associate", 50000),
		record("Finance", "Manager", 50000),
		record("IT", "Associate", 50000),
	})
	require.Len(t, out, 3)

	assert.Less(t, out[0].ScaledValue(model.ScaledMedian), 50000)
	for _, c := range model.ScaledColumns {
		assert.Equal(t, 50000, out[1].ScaledValue(c))
		assert.Equal(t, 50000, out[2].ScaledValue(c))
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := newEngine(t, DefaultScaleFactor, 3, reduceFinanceAssociate())
	in := []model.StatisticsRecord{record("Finance", "Associate", 50000)}
	want := in[0]

	e.Apply(in)
	assert.Equal(t, want, in[0])
}

func TestApplyIsReproducibleForSameSeed(t *testing.T) {
	in := []model.StatisticsRecord{record("Finance", "Associate", 50000)}

	a := newEngine(t, DefaultScaleFactor, 8, reduceFinanceAssociate()).Apply(in)
	b := newEngine(t, DefaultScaleFactor, 8, reduceFinanceAssociate()).Apply(in)
	assert.Equal(t, a, b)
}

func TestNewRuleSetLastDefinitionWins(t *testing.T) {
	first := reduceFinanceAssociate()
	other := model.AdjustmentRule{Role: "Manager", Department: "IT", Direction: model.DirectionIncrease, Low: 3, High: 8}
	last := model.AdjustmentRule{Role: "Associate", Department: "Finance", Direction: model.DirectionIncrease, Low: 1, High: 2}

	rs, err := NewRuleSet([]model.AdjustmentRule{first, other, last})
	require.NoError(t, err)

	assert.Equal(t, []model.AdjustmentRule{other, last}, rs.Rules())
	assert.Equal(t, 1, rs.Duplicates())
}

func TestNewRuleSetValidation(t *testing.T) {
	_, err := NewRuleSet([]model.AdjustmentRule{{Role: "A", Department: "B", Direction: "Sideways", Low: 1, High: 2}})
	assert.Error(t, err)

	_, err = NewRuleSet([]model.AdjustmentRule{{Role: "A", Department: "B", Direction: model.DirectionReduce, Low: 5, High: 2}})
	assert.Error(t, err)

	_, err = NewRuleSet([]model.AdjustmentRule{{Role: "A", Department: "B", Direction: model.DirectionReduce, Low: -1, High: 2}})
	assert.Error(t, err)

	// A full reduction would zero the scaled columns
	_, err = NewRuleSet([]model.AdjustmentRule{{Role: "A", Department: "B", Direction: model.DirectionReduce, Low: 50, High: 100}})
	assert.ErrorContains(t, err, "invalid percentage range")

	_, err = NewRuleSet([]model.AdjustmentRule{{Role: "A", Department: "B", Direction: model.DirectionIncrease, Low: 0, High: 99.9}})
	assert.NoError(t, err)
}

func TestNewEngineValidation(t *testing.T) {
	rs, err := NewRuleSet(nil)
	require.NoError(t, err)

	_, err = NewEngine(0, rs, rand.NewPCG(1, 1))
	assert.Error(t, err)
	_, err = NewEngine(1, nil, rand.NewPCG(1, 1))
	assert.Error(t, err)
	_, err = NewEngine(1, rs, nil)
	assert.Error(t, err)
}

func TestMultiplier(t *testing.T) {
	assert.InDelta(t, 0.95, Multiplier(model.DirectionReduce, 5), 1e-12)
	assert.InDelta(t, 1.05, Multiplier(model.DirectionIncrease, 5), 1e-12)
}
