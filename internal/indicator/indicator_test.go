package indicator

import (
	"math"
	"testing"
	"time"

	"volsurge/internal/domain"
)

// dailyBars builds a daily bar series with the given closes, high/low one
// point either side of the close.
func dailyBars(closes ...float64) []domain.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func volumeBars(volumes ...int64) []domain.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(volumes))
	for i, v := range volumes {
		bars[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: start.AddDate(0, 0, i),
			Open:      100, High: 101, Low: 99, Close: 100,
			Volume: v,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrueRangeFirstBarDegenerates(t *testing.T) {
	bars := dailyBars(100, 102)
	tr := TrueRange(bars)

	// First bar: no previous close, TR = high - low = 2.
	if !almostEqual(tr[0], 2) {
		t.Errorf("tr[0] = %v, want 2", tr[0])
	}
	// Second bar: max(2, |103-100|, |101-100|) = 3.
	if !almostEqual(tr[1], 3) {
		t.Errorf("tr[1] = %v, want 3", tr[1])
	}
}

func TestATRWilderRecursion(t *testing.T) {
	// Closes [100,102,99,105] with High/Low ±1 give TR = [2,3,4,7].
	// Wilder with window=2: [2, 2.5, 3.25, 5.125].
	bars := dailyBars(100, 102, 99, 105)
	atr := ATR(bars, 2, ModeLive)

	want := []float64{2, 2.5, 3.25, 5.125}
	for i := range want {
		if !almostEqual(atr[i], want[i]) {
			t.Errorf("atr[%d] = %v, want %v", i, atr[i], want[i])
		}
	}

	// Closed-form first step: ATR1 = tr0 + (1/n)(tr1 - tr0).
	n := 2.0
	if !almostEqual(atr[1], 2+(1/n)*(3-2)) {
		t.Errorf("atr[1] = %v does not match closed-form Wilder step", atr[1])
	}
}

func TestATRBacktestModeShifts(t *testing.T) {
	bars := dailyBars(100, 102, 99, 105)
	live := ATR(bars, 2, ModeLive)
	bt := ATR(bars, 2, ModeBacktest)

	if !math.IsNaN(bt[0]) {
		t.Errorf("bt[0] = %v, want NaN", bt[0])
	}
	for i := 1; i < len(bt); i++ {
		if !almostEqual(bt[i], live[i-1]) {
			t.Errorf("bt[%d] = %v, want live[%d] = %v", i, bt[i], i-1, live[i-1])
		}
	}
}

func TestATRCausality(t *testing.T) {
	bars := dailyBars(100, 102, 99, 105, 101, 98)
	full := ATR(bars, 3, ModeBacktest)

	// Mutating bars after index 3 must not change values through index 3.
	mutated := dailyBars(100, 102, 99, 105, 500, 1)
	got := ATR(mutated, 3, ModeBacktest)

	for i := 0; i <= 3; i++ {
		if math.IsNaN(full[i]) && math.IsNaN(got[i]) {
			continue
		}
		if !almostEqual(full[i], got[i]) {
			t.Errorf("atr[%d] changed from %v to %v when future bars mutated", i, full[i], got[i])
		}
	}
}

func TestRVOLBacktestScenario(t *testing.T) {
	// volume=[100,100,100,400], window=3, sma, backtest mode:
	// bar 4 baseline = mean(100,100,100) = 100 -> RVOL = 4.0.
	bars := volumeBars(100, 100, 100, 400)
	got, err := RVOL(bars, 3, MethodSMA, 0, ModeBacktest)
	if err != nil {
		t.Fatalf("RVOL: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("got[%d] = %v, want NaN during warm-up", i, got[i])
		}
	}
	if !almostEqual(got[3], 4.0) {
		t.Errorf("got[3] = %v, want 4.0", got[3])
	}
}

func TestRVOLHybridBounds(t *testing.T) {
	bars := volumeBars(100, 150, 120, 400, 250, 300)

	ewm, err := RVOL(bars, 3, MethodEWM, 0, ModeLive)
	if err != nil {
		t.Fatalf("RVOL ewm: %v", err)
	}
	sma, err := RVOL(bars, 3, MethodSMA, 0, ModeLive)
	if err != nil {
		t.Fatalf("RVOL sma: %v", err)
	}

	// hybrid(alpha=0) == pure EWM baseline.
	h0, err := RVOL(bars, 3, MethodHybrid, 0, ModeLive)
	if err != nil {
		t.Fatalf("RVOL hybrid alpha=0: %v", err)
	}
	// hybrid(alpha=1) == pure SMA baseline.
	h1, err := RVOL(bars, 3, MethodHybrid, 1, ModeLive)
	if err != nil {
		t.Fatalf("RVOL hybrid alpha=1: %v", err)
	}

	for i := range bars {
		// alpha=0 hybrid still inherits the SMA warm-up (NaN + x = NaN).
		if i >= 2 {
			if !almostEqual(h0[i], ewm[i]) {
				t.Errorf("hybrid(0)[%d] = %v, want ewm %v", i, h0[i], ewm[i])
			}
			if !almostEqual(h1[i], sma[i]) {
				t.Errorf("hybrid(1)[%d] = %v, want sma %v", i, h1[i], sma[i])
			}
		}
	}
}

func TestRVOLZeroBaseline(t *testing.T) {
	bars := volumeBars(0, 0, 0, 100)
	got, err := RVOL(bars, 3, MethodSMA, 0, ModeBacktest)
	if err != nil {
		t.Fatalf("RVOL: %v", err)
	}
	// Baseline for bar 4 is mean(0,0,0) = 0 -> undefined, not +Inf.
	if !math.IsNaN(got[3]) {
		t.Errorf("got[3] = %v, want NaN for zero baseline", got[3])
	}
}

func TestRVOLUnknownMethod(t *testing.T) {
	bars := volumeBars(100, 100)
	if _, err := RVOL(bars, 3, "median", 0, ModeBacktest); err == nil {
		t.Error("RVOL should fail fast on an unknown method")
	}
}

func TestRVOLHybridAlphaOutOfRange(t *testing.T) {
	bars := volumeBars(100, 100)
	if _, err := RVOL(bars, 3, MethodHybrid, 1.5, ModeBacktest); err == nil {
		t.Error("RVOL should reject hybrid alpha outside [0,1]")
	}
}

func TestPriceDeviation(t *testing.T) {
	bars := dailyBars(1, 2, 3, 4)
	got := PriceDeviation(bars, 3)

	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("warm-up region should be NaN, got %v", got[:2])
	}
	// Window [1,2,3]: mean=2, sample std=1 -> z = (3-2)/1 = 1.
	if !almostEqual(got[2], 1) {
		t.Errorf("got[2] = %v, want 1", got[2])
	}
	if !almostEqual(got[3], 1) {
		t.Errorf("got[3] = %v, want 1", got[3])
	}
}

func TestPriceDeviationZeroStd(t *testing.T) {
	bars := dailyBars(5, 5, 5, 5)
	got := PriceDeviation(bars, 3)
	for i := 2; i < len(got); i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("got[%d] = %v, want NaN for zero stdev", i, got[i])
		}
	}
}
