// Package series provides primitives for derived numeric series aligned to a
// bar series by index. Undefined values (warm-up regions, zero baselines) are
// represented as NaN and propagate through downstream computations instead of
// being raised as errors.
package series

import "math"

// ShiftForCausality shifts a series forward by one position so that the value
// attributed to index i was computed from data through index i-1 only. The
// first element becomes NaN. Every indicator that offers a backtest mode goes
// through this one function, so the no-lookahead invariant is proved once.
func ShiftForCausality(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(out) == 0 {
		return out
	}
	out[0] = math.NaN()
	copy(out[1:], values[:len(values)-1])
	return out
}

// RollingMean computes the simple rolling mean over a fixed window. Positions
// with fewer than window prior observations (or any NaN inside the window)
// are NaN.
func RollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd computes the rolling sample standard deviation (n-1 in the
// denominator) over a fixed window. Positions with fewer than window prior
// observations are NaN; a window of 1 yields NaN because the sample variance
// is undefined for a single observation.
func RollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// EWM computes the exponential moving average in span form with smoothing
// factor 2/(span+1). The recursion is seeded with the first value, so the
// output is defined from the first element onward.
func EWM(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	prev := values[0]
	out[0] = prev
	for i := 1; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// Wilder computes the Wilder exponential moving average with smoothing factor
// 1/window, seeded with the first value:
//
//	out[0] = v[0]
//	out[t] = out[t-1] + (v[t] - out[t-1]) / window
func Wilder(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 || len(values) == 0 {
		return out
	}
	alpha := 1.0 / float64(window)
	prev := values[0]
	out[0] = prev
	for i := 1; i < len(values); i++ {
		prev += alpha * (values[i] - prev)
		out[i] = prev
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
