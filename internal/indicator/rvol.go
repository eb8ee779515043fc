package indicator

import (
	"fmt"
	"math"

	"volsurge/internal/domain"
	"volsurge/internal/series"
)

// RVOLMethod selects how the average-volume baseline is computed.
type RVOLMethod string

// Baseline methods. Hybrid blends the two: alpha*SMA + (1-alpha)*EWM.
const (
	MethodSMA    RVOLMethod = "sma"
	MethodEWM    RVOLMethod = "ewm"
	MethodHybrid RVOLMethod = "hybrid"
)

// RVOL computes Relative Volume: each bar's volume divided by an
// average-volume baseline.
//
//   - MethodSMA: simple rolling mean over window bars; undefined until a full
//     window has accumulated.
//   - MethodEWM: exponential moving average with span=window, defined from
//     the first bar.
//   - MethodHybrid: alpha*SMA + (1-alpha)*EWM with alpha in [0,1]; inherits
//     the SMA warm-up.
//
// A baseline of exactly zero yields NaN, never a division error. In
// ModeBacktest the baseline is shifted one bar so each volume is compared
// against an average of strictly prior bars.
//
// An unknown method is a configuration error and fails immediately.
func RVOL(bars []domain.Bar, window int, method RVOLMethod, alpha float64, mode Mode) ([]float64, error) {
	baseline, err := volumeBaseline(bars, window, method, alpha)
	if err != nil {
		return nil, err
	}
	if mode == ModeBacktest {
		baseline = series.ShiftForCausality(baseline)
	}

	out := make([]float64, len(bars))
	for i, b := range bars {
		if math.IsNaN(baseline[i]) || baseline[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(b.Volume) / baseline[i]
	}
	return out, nil
}

func volumeBaseline(bars []domain.Bar, window int, method RVOLMethod, alpha float64) ([]float64, error) {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = float64(b.Volume)
	}

	switch method {
	case MethodSMA:
		return series.RollingMean(vols, window), nil
	case MethodEWM:
		return series.EWM(vols, window), nil
	case MethodHybrid:
		if alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("rvol: hybrid alpha %v out of range [0,1]", alpha)
		}
		sma := series.RollingMean(vols, window)
		ewm := series.EWM(vols, window)
		out := make([]float64, len(vols))
		for i := range out {
			out[i] = alpha*sma[i] + (1-alpha)*ewm[i]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rvol: unknown method %q (want %q, %q, or %q)",
			method, MethodSMA, MethodEWM, MethodHybrid)
	}
}
