package util

import (
	"fmt"
	"time"

	"volsurge/internal/domain"
)

// Session-key and time-of-day helpers. Bars carry exchange-local wall-clock
// timestamps, so the session a bar belongs to is derived once here and
// reused everywhere — never re-derived ad hoc by individual stages.

const sessionLayout = "2006-01-02"

// Regular trading hours for US equities, inclusive on both ends to keep the
// 16:00 closing bar of hourly data.
const (
	rthOpenSec  = 9*3600 + 30*60
	rthCloseSec = 16 * 3600
)

// SessionKey returns the trading-session key (calendar date, YYYY-MM-DD) for
// a bar timestamp.
func SessionKey(t time.Time) string {
	return t.Format(sessionLayout)
}

// TimeOfDay returns the seconds elapsed since local midnight for t.
func TimeOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// FormatTimeOfDay renders a TimeOfDay value as HH:MM:SS.
func FormatTimeOfDay(sec int) string {
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec/60)%60, sec%60)
}

// SessionTimestamp recombines a session key and a time-of-day offset into a
// bar timestamp.
func SessionTimestamp(session string, sec int) (time.Time, error) {
	day, err := time.Parse(sessionLayout, session)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing session key %q: %w", session, err)
	}
	return day.Add(time.Duration(sec) * time.Second), nil
}

// IsRegularHours reports whether t falls inside US regular trading hours
// (09:30-16:00, both ends inclusive).
func IsRegularHours(t time.Time) bool {
	sec := TimeOfDay(t)
	return sec >= rthOpenSec && sec <= rthCloseSec
}

// FilterRegularHours returns the subset of bars whose timestamps fall inside
// regular trading hours, preserving order. The input is not modified.
func FilterRegularHours(bars []domain.Bar) []domain.Bar {
	out := make([]domain.Bar, 0, len(bars))
	for _, b := range bars {
		if IsRegularHours(b.Timestamp) {
			out = append(out, b)
		}
	}
	return out
}
