package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Trading days in a year, used to annualize daily volatility
const tradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates the annualized standard deviation of
// daily returns over a close series, as a percentage.
// Returns 0 with fewer than three usable closes.
func AnnualizedVolatility(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	if len(returns) < 2 {
		return 0
	}

	return StdDev(returns) * math.Sqrt(tradingDaysPerYear) * 100
}

// PercentChange calculates the percentage change from old to new.
// Returns 0 when old is zero to avoid division blowups on missing data.
func PercentChange(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return (new - old) / old * 100
}

// RangePosition calculates where price sits within a low/high band,
// as a percentage (0 = at the low, 100 = at the high).
// Returns 0 when the band is degenerate (high <= low).
func RangePosition(price, low, high float64) float64 {
	if high <= low {
		return 0
	}
	return (price - low) / (high - low) * 100
}
