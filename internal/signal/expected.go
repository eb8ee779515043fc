package signal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"volsurge/internal/domain"
	"volsurge/internal/util"
)

// Curve is the expected cumulative volume profile keyed by (session,
// time-of-day). The value stored for session D at time T is an average over
// sessions strictly before D, so D's own volumes can never influence it.
type Curve struct {
	values map[curveKey]float64
	points []CurvePoint
}

type curveKey struct {
	session string
	tod     int // seconds since midnight
}

// CurvePoint is one flattened curve entry with its recombined timestamp.
type CurvePoint struct {
	Timestamp time.Time
	Session   string
	TimeOfDay int
	Expected  float64
}

// ExpectedCumVolume builds the expected cumulative volume curve from an
// intraday bar series:
//
//  1. Partition bars into sessions and compute per-session cumulative volume.
//  2. Reshape into a session x time-of-day matrix; slots a session never
//     traded in stay undefined, not zero.
//  3. Per time-of-day column, take the rolling mean over the trailing
//     lookbackDays sessions (minimum one observation), then shift the column
//     forward by exactly one session. The shift is the no-leakage mechanism:
//     session D's expected value is computed from sessions before D only.
//  4. Flatten back to a timestamp-keyed series.
func ExpectedCumVolume(bars []domain.Bar, lookbackDays int) (*Curve, error) {
	if lookbackDays < 1 {
		return nil, fmt.Errorf("expected cumulative volume: lookback %d days, want >= 1", lookbackDays)
	}

	sessions := Sessions(bars)
	cum := CumVolume(bars)

	// Session x time-of-day matrix of cumulative volume.
	matrix := make([]map[int]float64, len(sessions))
	todSet := make(map[int]struct{})
	idx := 0
	for si, s := range sessions {
		matrix[si] = make(map[int]float64, len(s.Bars))
		for range s.Bars {
			tod := util.TimeOfDay(bars[idx].Timestamp)
			matrix[si][tod] = cum[idx]
			todSet[tod] = struct{}{}
			idx++
		}
	}

	tods := make([]int, 0, len(todSet))
	for tod := range todSet {
		tods = append(tods, tod)
	}
	sort.Ints(tods)

	c := &Curve{values: make(map[curveKey]float64)}
	for _, tod := range tods {
		for d := range sessions {
			// Trailing window over sessions [d-lookbackDays, d-1]; the shift
			// by one session is folded into the bounds.
			lo := d - lookbackDays
			if lo < 0 {
				lo = 0
			}
			sum, n := 0.0, 0
			for p := lo; p < d; p++ {
				if v, ok := matrix[p][tod]; ok {
					sum += v
					n++
				}
			}
			if n == 0 {
				continue // warm-up session, value stays undefined
			}
			key := curveKey{session: sessions[d].Key, tod: tod}
			c.values[key] = sum / float64(n)

			ts, err := util.SessionTimestamp(sessions[d].Key, tod)
			if err != nil {
				return nil, err
			}
			c.points = append(c.points, CurvePoint{
				Timestamp: ts,
				Session:   sessions[d].Key,
				TimeOfDay: tod,
				Expected:  sum / float64(n),
			})
		}
	}

	sort.Slice(c.points, func(i, j int) bool {
		return c.points[i].Timestamp.Before(c.points[j].Timestamp)
	})
	return c, nil
}

// Value returns the expected cumulative volume at (session, time-of-day).
// The second return value is false during warm-up sessions where no prior
// observations exist.
func (c *Curve) Value(session string, tod int) (float64, bool) {
	v, ok := c.values[curveKey{session: session, tod: tod}]
	return v, ok
}

// ValueAt is a convenience lookup keyed by bar timestamp.
func (c *Curve) ValueAt(ts time.Time) (float64, bool) {
	return c.Value(util.SessionKey(ts), util.TimeOfDay(ts))
}

// Points returns the flattened curve ordered by timestamp.
func (c *Curve) Points() []CurvePoint {
	return c.points
}

// IntradayCumRVOL divides each bar's session-cumulative volume by the
// expected curve's value at the same (session, time-of-day). The ratio is
// NaN where the curve is undefined (warm-up sessions) or zero.
func IntradayCumRVOL(bars []domain.Bar, curve *Curve) []float64 {
	cum := CumVolume(bars)
	out := make([]float64, len(bars))
	for i, b := range bars {
		exp, ok := curve.ValueAt(b.Timestamp)
		if !ok || exp == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cum[i] / exp
	}
	return out
}
