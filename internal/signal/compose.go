package signal

import (
	"math"
	"time"

	"volsurge/internal/domain"
	"volsurge/internal/util"
)

// Row is one bar of the composed per-bar signal frame consumed by the
// backtest engine. All float fields may be NaN during warm-up.
type Row struct {
	Timestamp time.Time
	Session   string
	Close     float64
	Volume    int64

	CumVolume    float64
	ExpCumVolume float64
	IntradayRVOL float64

	YClose    float64
	YATR      float64
	YHistRVOL float64
	YUpper    float64
	YLower    float64
}

// Compose joins the expected-volume curve and the previous session's daily
// indicators onto every intraday bar. The daily side is matched by session
// key: the DailyRow for session D already carries D-1's values in its
// Y-prefixed fields, so an intraday decision at any time on day D only ever
// sees day D-1's fully closed daily bar.
func Compose(intraday []domain.Bar, daily []DailyRow, curve *Curve) []Row {
	byDate := make(map[string]DailyRow, len(daily))
	for _, d := range daily {
		byDate[d.Date] = d
	}

	cum := CumVolume(intraday)
	rows := make([]Row, len(intraday))
	for i, b := range intraday {
		session := util.SessionKey(b.Timestamp)
		row := Row{
			Timestamp: b.Timestamp,
			Session:   session,
			Close:     b.Close,
			Volume:    b.Volume,
			CumVolume: cum[i],

			ExpCumVolume: math.NaN(),
			IntradayRVOL: math.NaN(),
			YClose:       math.NaN(),
			YATR:         math.NaN(),
			YHistRVOL:    math.NaN(),
			YUpper:       math.NaN(),
			YLower:       math.NaN(),
		}

		if exp, ok := curve.ValueAt(b.Timestamp); ok {
			row.ExpCumVolume = exp
			if exp != 0 {
				row.IntradayRVOL = cum[i] / exp
			}
		}

		if d, ok := byDate[session]; ok {
			row.YClose = d.YClose
			row.YATR = d.YATR
			row.YHistRVOL = d.YHistRVOL
			row.YUpper = d.YUpper
			row.YLower = d.YLower
		}

		rows[i] = row
	}
	return rows
}

// Tradeable reports whether every signal the entry rule reads is defined for
// this row. Rows that fail this check are skipped by the backtest engine,
// which is how data-sufficiency gaps propagate without errors.
func (r Row) Tradeable() bool {
	return !math.IsNaN(r.IntradayRVOL) && !math.IsNaN(r.YUpper) && !math.IsNaN(r.YLower)
}
