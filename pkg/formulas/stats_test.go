package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	testCases := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{"empty slice", []float64{}, 0},
		{"single value", []float64{5}, 5},
		{"simple average", []float64{1, 2, 3, 4, 5}, 3},
		{"negative values", []float64{-2, 2}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Mean(tc.data), 1e-9)
		})
	}
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{}))
	// Sample standard deviation of {2,4,4,4,5,5,7,9} is ~2.138
	assert.InDelta(t, 2.138, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.001)
}

func TestAnnualizedVolatility(t *testing.T) {
	// Constant closes carry no volatility
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{100, 100, 100, 100}))
	// Too few points for a sample deviation
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{100, 110}))
	// Alternating +10%/-9.09% daily returns, stddev ~0.1 annualized
	vol := AnnualizedVolatility([]float64{100, 110, 100, 110, 100})
	assert.Greater(t, vol, 100.0)
	// A zero close never divides, it is skipped
	assert.NotPanics(t, func() { AnnualizedVolatility([]float64{100, 0, 100, 110}) })
}

func TestPercentChange(t *testing.T) {
	testCases := []struct {
		name     string
		old      float64
		new      float64
		expected float64
	}{
		{"increase", 100, 110, 10},
		{"decrease", 100, 90, -10},
		{"no change", 50, 50, 0},
		{"zero baseline guarded", 0, 42, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, PercentChange(tc.old, tc.new), 1e-9)
		})
	}
}

func TestRangePosition(t *testing.T) {
	testCases := []struct {
		name     string
		price    float64
		low      float64
		high     float64
		expected float64
	}{
		{"at the low", 10, 10, 20, 0},
		{"at the high", 20, 10, 20, 100},
		{"midpoint", 15, 10, 20, 50},
		{"degenerate band", 15, 20, 20, 0},
		{"inverted band", 15, 30, 10, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, RangePosition(tc.price, tc.low, tc.high), 1e-9)
		})
	}
}
