package signal

import (
	"fmt"
	"math"

	"volsurge/internal/domain"
	"volsurge/internal/indicator"
	"volsurge/internal/series"
	"volsurge/internal/util"
)

// DailyParams configures the daily indicator frame.
type DailyParams struct {
	ATRWindow      int
	RVOLWindow     int
	RVOLMethod     indicator.RVOLMethod
	RVOLAlpha      float64
	PriceDevWindow int
	BandMultiplier float64 // k in yesterdayClose ± k*yesterdayATR
}

// DailyRow is one session of the daily indicator table. ATR, HistRVOL, and
// PriceSigma are the session's own (live) values for reporting; the Y-prefixed
// fields are the previous session's values and the ATR bands derived from
// them, which is what intraday decisions are allowed to see.
type DailyRow struct {
	Date       string
	Close      float64
	Volume     int64
	ATR        float64
	HistRVOL   float64
	PriceSigma float64

	YClose    float64
	YATR      float64
	YHistRVOL float64
	YUpper    float64 // yesterday close + k*yesterday ATR
	YLower    float64 // yesterday close - k*yesterday ATR
}

// BuildDaily computes the daily indicator frame from daily bars.
func BuildDaily(bars []domain.Bar, p DailyParams) ([]DailyRow, error) {
	atr := indicator.ATR(bars, p.ATRWindow, indicator.ModeLive)
	rvol, err := indicator.RVOL(bars, p.RVOLWindow, p.RVOLMethod, p.RVOLAlpha, indicator.ModeLive)
	if err != nil {
		return nil, fmt.Errorf("daily indicators: %w", err)
	}
	sigma := indicator.PriceDeviation(bars, p.PriceDevWindow)

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	yClose := series.ShiftForCausality(closes)
	yATR := series.ShiftForCausality(atr)
	yRVOL := series.ShiftForCausality(rvol)

	rows := make([]DailyRow, len(bars))
	for i, b := range bars {
		upper, lower := math.NaN(), math.NaN()
		if !math.IsNaN(yClose[i]) && !math.IsNaN(yATR[i]) {
			upper = yClose[i] + p.BandMultiplier*yATR[i]
			lower = yClose[i] - p.BandMultiplier*yATR[i]
		}
		rows[i] = DailyRow{
			Date:       util.SessionKey(b.Timestamp),
			Close:      b.Close,
			Volume:     b.Volume,
			ATR:        atr[i],
			HistRVOL:   rvol[i],
			PriceSigma: sigma[i],
			YClose:     yClose[i],
			YATR:       yATR[i],
			YHistRVOL:  yRVOL[i],
			YUpper:     upper,
			YLower:     lower,
		}
	}
	return rows, nil
}
