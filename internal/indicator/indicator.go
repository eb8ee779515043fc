// Package indicator computes technical indicator series from OHLCV bars.
// Every indicator returns a []float64 aligned index-for-index with its input
// bars; NaN marks the warm-up region or an otherwise undefined value.
//
// Indicators used as trading signals must be computed in ModeBacktest, which
// shifts the result (or its baseline) by one bar so that the value attributed
// to bar t depends only on information through bar t-1. ModeLive skips the
// shift and is intended only for displaying the current, still-forming
// estimate.
package indicator

// Mode selects between strictly causal output and live output.
type Mode string

// Indicator computation modes.
const (
	ModeBacktest Mode = "backtest"
	ModeLive     Mode = "live"
)
