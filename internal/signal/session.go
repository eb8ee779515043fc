// Package signal joins daily indicators onto intraday bars and builds the
// expected cumulative volume curve used as the volume entry trigger. All
// functions are pure batch transforms; NaN marks undefined values.
package signal

import (
	"volsurge/internal/domain"
	"volsurge/internal/util"
)

// Session is one trading day's worth of contiguous intraday bars.
type Session struct {
	Key  string // YYYY-MM-DD
	Bars []domain.Bar
}

// Sessions partitions a time-sorted intraday bar series into per-day groups.
// Bars from the same day are contiguous in a sorted series, so a single pass
// suffices.
func Sessions(bars []domain.Bar) []Session {
	var out []Session
	for _, b := range bars {
		key := util.SessionKey(b.Timestamp)
		if n := len(out); n > 0 && out[n-1].Key == key {
			out[n-1].Bars = append(out[n-1].Bars, b)
			continue
		}
		out = append(out, Session{Key: key, Bars: []domain.Bar{b}})
	}
	return out
}

// CumVolume computes the running cumulative volume within each session,
// aligned index-for-index with the input bars. The accumulator resets at
// every session boundary.
func CumVolume(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	var (
		key string
		sum float64
	)
	for i, b := range bars {
		if k := util.SessionKey(b.Timestamp); k != key {
			key = k
			sum = 0
		}
		sum += float64(b.Volume)
		out[i] = sum
	}
	return out
}
