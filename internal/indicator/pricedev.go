package indicator

import (
	"math"

	"volsurge/internal/domain"
	"volsurge/internal/series"
)

// PriceDeviation computes the z-score of the close price against its rolling
// mean and rolling sample standard deviation:
//
//	(close - rollingMean(close, window)) / rollingStd(close, window)
//
// The result is NaN before window observations have accumulated and NaN
// wherever the standard deviation is zero.
func PriceDeviation(bars []domain.Bar, window int) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	mean := series.RollingMean(closes, window)
	std := series.RollingStd(closes, window)

	out := make([]float64, len(bars))
	for i := range out {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (closes[i] - mean[i]) / std[i]
	}
	return out
}
