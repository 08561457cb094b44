package percentile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinear(t *testing.T) {
	sorted := []float64{88000, 89000, 90000, 91000, 92000, 93000, 94000}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 88000},
		{10, 88600},
		{25, 89500},
		{50, 91000},
		{75, 92500},
		{90, 93400},
		{100, 94000},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Linear(sorted, tt.p), 1e-6, "p%v", tt.p)
	}
}

func TestLinearEdgeCases(t *testing.T) {
	assert.True(t, math.IsNaN(Linear(nil, 50)))
	assert.Equal(t, 42.0, Linear([]float64{42}, 10))
	assert.Equal(t, 15.0, Linear([]float64{10, 20}, 50))
}

func TestOfSortsCopy(t *testing.T) {
	values := []float64{3, 1, 2}
	got := Of(values, 0, 50, 100)

	assert.Equal(t, []float64{1, 2, 3}, got)
	assert.Equal(t, []float64{3, 1, 2}, values, "input must not be reordered")
}
