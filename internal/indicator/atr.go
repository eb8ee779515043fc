package indicator

import (
	"volsurge/internal/domain"
	"volsurge/internal/series"
)

// ATR computes the Average True Range: the Wilder exponential moving average
// (smoothing factor 1/window) of the per-bar true range
//
//	TR = max(high-low, |high-prevClose|, |low-prevClose|)
//
// The first bar has no previous close, so its true range degenerates to
// high-low. In ModeBacktest the result is shifted one bar via
// series.ShiftForCausality.
func ATR(bars []domain.Bar, window int, mode Mode) []float64 {
	tr := TrueRange(bars)
	atr := series.Wilder(tr, window)
	if mode == ModeBacktest {
		return series.ShiftForCausality(atr)
	}
	return atr
}

// TrueRange computes the per-bar true range series.
func TrueRange(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			if hc := abs(b.High - prevClose); hc > tr {
				tr = hc
			}
			if lc := abs(b.Low - prevClose); lc > tr {
				tr = lc
			}
		}
		out[i] = tr
	}
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
