package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"volsurge/internal/config"
	"volsurge/internal/domain"
	"volsurge/internal/store"
)

func testStrategy() config.StrategyConfig {
	return config.StrategyConfig{
		Ticker:            "AAPL",
		ATRWindow:         2,
		RVOLWindow:        2,
		RVOLMethod:        "sma",
		PriceDevWindow:    2,
		CurveLookbackDays: 2,
		EntryThreshold:    1.5,
		BandMultiplier:    1.0,
		InitialCapital:    10000,
		TradeShares:       10,
	}
}

func testInput() Input {
	days := []string{"2024-06-03", "2024-06-04", "2024-06-05", "2024-06-06", "2024-06-07"}

	var in Input
	for i, day := range days {
		d, _ := time.Parse("2006-01-02", day)
		price := 100.0 + float64(i)

		in.Daily = append(in.Daily, domain.Bar{
			Symbol:    "AAPL",
			Timestamp: d,
			Open:      price, High: price + 2, Low: price - 2, Close: price,
			Volume: 1_000_000,
		})

		// One pre-market bar per day plus two regular-hours bars.
		in.Intraday = append(in.Intraday,
			domain.Bar{Symbol: "AAPL", Timestamp: d.Add(8 * time.Hour), Close: price, Volume: 5_000},
			domain.Bar{Symbol: "AAPL", Timestamp: d.Add(10 * time.Hour), Close: price, Volume: 100_000},
			domain.Bar{Symbol: "AAPL", Timestamp: d.Add(11 * time.Hour), Close: price, Volume: 80_000},
		)
	}
	return in
}

func TestPipelineRunEndToEnd(t *testing.T) {
	p := New(testStrategy(), nil)

	out, err := p.Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(out.Daily) != 5 {
		t.Errorf("Daily rows = %d, want 5", len(out.Daily))
	}
	// Pre-market bars are dropped before composition.
	if len(out.Composed) != 10 {
		t.Errorf("Composed rows = %d, want 10 regular-hours bars", len(out.Composed))
	}
	if out.Summary.InitialCapital != 10000 {
		t.Errorf("Summary.InitialCapital = %v, want 10000", out.Summary.InitialCapital)
	}
	if out.RunID != 0 {
		t.Errorf("RunID = %d, want 0 without a run store", out.RunID)
	}

	// A gentle drift with steady volume never crosses the bands or the
	// volume threshold, so no entries fire.
	if !out.Summary.NoTrades {
		t.Errorf("Summary = %+v, want no trades", out.Summary)
	}
	if out.Summary.FinalValue != 10000 {
		t.Errorf("FinalValue = %v, want unchanged capital", out.Summary.FinalValue)
	}

	// The curve is defined once a prior session exists.
	if _, ok := out.Curve.Value("2024-06-04", 10*3600); !ok {
		t.Error("curve undefined for second session at 10:00")
	}
	if _, ok := out.Curve.Value("2024-06-03", 10*3600); ok {
		t.Error("curve defined for the first session with no history")
	}
}

func TestPipelineRunPersistsRun(t *testing.T) {
	runs, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer runs.Close()

	p := New(testStrategy(), runs)
	out, err := p.Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.RunID == 0 {
		t.Fatal("RunID = 0, want a persisted run")
	}

	saved, err := runs.GetRun(context.Background(), out.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if saved.Symbol != "AAPL" {
		t.Errorf("saved Symbol = %q, want AAPL", saved.Symbol)
	}
	if saved.StartDate != "2024-06-03" || saved.EndDate != "2024-06-07" {
		t.Errorf("saved range = %s..%s, want 2024-06-03..2024-06-07", saved.StartDate, saved.EndDate)
	}
	if math.Abs(saved.FinalValue-out.Summary.FinalValue) > 1e-9 {
		t.Errorf("saved FinalValue = %v, want %v", saved.FinalValue, out.Summary.FinalValue)
	}
	if len(saved.Snapshots) != 5 {
		t.Errorf("saved %d snapshots, want one per session", len(saved.Snapshots))
	}
}

func TestPipelineRunRejectsEmptyInput(t *testing.T) {
	p := New(testStrategy(), nil)

	if _, err := p.Run(context.Background(), Input{}); err == nil {
		t.Fatal("Run should fail with no bars")
	}

	in := testInput()
	in.Intraday = nil
	if _, err := p.Run(context.Background(), in); err == nil {
		t.Fatal("Run should fail with no intraday bars")
	}
}

func TestPipelineRunRejectsOffHoursOnly(t *testing.T) {
	in := testInput()
	d, _ := time.Parse("2006-01-02", "2024-06-03")
	in.Intraday = []domain.Bar{
		{Symbol: "AAPL", Timestamp: d.Add(7 * time.Hour), Close: 100, Volume: 1000},
	}

	p := New(testStrategy(), nil)
	if _, err := p.Run(context.Background(), in); err == nil {
		t.Fatal("Run should fail when every intraday bar is outside regular hours")
	}
}
