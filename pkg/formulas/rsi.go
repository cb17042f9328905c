package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateRSI computes the Relative Strength Index for the most recent bar.
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over the lookback period
//
// Args:
//
//	closes: Array of closing prices, oldest first
//	period: RSI lookback (typically 14)
//
// Returns:
//
//	Current RSI value or nil if insufficient data
func CalculateRSI(closes []float64, period int) *float64 {
	// talib needs at least period+1 prices to produce one value
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	rsi := talib.Rsi(closes, period)
	if len(rsi) == 0 {
		return nil
	}

	last := rsi[len(rsi)-1]
	if isNaN(last) {
		return nil
	}
	return &last
}

// CalculateRSISeries computes the RSI for every bar, aligned with closes.
// Leading bars without enough history are returned as NaN by talib and
// replaced with zero so the series is JSON-safe.
func CalculateRSISeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) < period+1 {
		return []float64{}
	}

	rsi := talib.Rsi(closes, period)
	for i, v := range rsi {
		if isNaN(v) {
			rsi[i] = 0
		}
	}
	return rsi
}

func isNaN(f float64) bool {
	return f != f
}
