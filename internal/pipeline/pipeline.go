// Package pipeline coordinates the full backtest flow: daily indicator
// construction, the expected intraday volume curve, signal composition, the
// backtest itself, and persistence of the finished run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"volsurge/internal/backtest"
	"volsurge/internal/config"
	"volsurge/internal/domain"
	"volsurge/internal/indicator"
	"volsurge/internal/signal"
	"volsurge/internal/store"
	"volsurge/internal/util"
)

// Pipeline runs a backtest end to end. The run store is optional; when nil
// the finished run is not persisted.
type Pipeline struct {
	strategy config.StrategyConfig
	runs     store.RunStore
	log      *slog.Logger
}

// Input holds the bar series a run operates on. Intraday bars outside
// regular trading hours are filtered out before any computation.
type Input struct {
	Daily    []domain.Bar
	Intraday []domain.Bar
}

// Output collects everything a run produces.
type Output struct {
	Daily    []signal.DailyRow
	Curve    *signal.Curve
	Composed []signal.Row
	Result   *backtest.Result
	Summary  backtest.Summary
	RunID    int64 // 0 when no run store is configured
}

// New creates a Pipeline with the given strategy parameters.
func New(strategy config.StrategyConfig, runs store.RunStore) *Pipeline {
	return &Pipeline{
		strategy: strategy,
		runs:     runs,
		log:      slog.Default().With("component", "pipeline"),
	}
}

// Run executes the full flow over the given bars.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Output, error) {
	if len(in.Daily) == 0 {
		return nil, fmt.Errorf("no daily bars")
	}
	if len(in.Intraday) == 0 {
		return nil, fmt.Errorf("no intraday bars")
	}

	rth := util.FilterRegularHours(in.Intraday)
	if len(rth) == 0 {
		return nil, fmt.Errorf("no intraday bars within regular trading hours")
	}
	p.log.Info("input loaded",
		"daily", len(in.Daily),
		"intraday", len(in.Intraday),
		"regularHours", len(rth),
	)

	daily, err := signal.BuildDaily(in.Daily, signal.DailyParams{
		ATRWindow:      p.strategy.ATRWindow,
		RVOLWindow:     p.strategy.RVOLWindow,
		RVOLMethod:     indicator.RVOLMethod(p.strategy.RVOLMethod),
		RVOLAlpha:      p.strategy.RVOLAlpha,
		PriceDevWindow: p.strategy.PriceDevWindow,
		BandMultiplier: p.strategy.BandMultiplier,
	})
	if err != nil {
		return nil, fmt.Errorf("building daily indicators: %w", err)
	}

	curve, err := signal.ExpectedCumVolume(rth, p.strategy.CurveLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("building expected volume curve: %w", err)
	}

	composed := signal.Compose(rth, daily, curve)

	engine := backtest.New(backtest.Config{
		InitialCapital: p.strategy.InitialCapital,
		TradeShares:    p.strategy.TradeShares,
		EntryThreshold: p.strategy.EntryThreshold,
	})
	result := engine.Run(composed)
	summary := backtest.Evaluate(result, p.strategy.InitialCapital)

	out := &Output{
		Daily:    daily,
		Curve:    curve,
		Composed: composed,
		Result:   result,
		Summary:  summary,
	}

	if p.runs != nil {
		id, err := p.saveRun(ctx, rth, out)
		if err != nil {
			return nil, fmt.Errorf("saving run: %w", err)
		}
		out.RunID = id
		p.log.Info("run saved", "id", id)
	}

	return out, nil
}

func (p *Pipeline) saveRun(ctx context.Context, rth []domain.Bar, out *Output) (int64, error) {
	run := &store.BacktestRun{
		Symbol:         rth[0].Symbol,
		CreatedAt:      time.Now(),
		StartDate:      util.SessionKey(rth[0].Timestamp),
		EndDate:        util.SessionKey(rth[len(rth)-1].Timestamp),
		EntryThreshold: p.strategy.EntryThreshold,
		InitialCapital: out.Summary.InitialCapital,
		FinalValue:     out.Summary.FinalValue,
		TotalReturnPct: out.Summary.TotalReturnPct,
		TradeCount:     out.Summary.TradeCount,
		Wins:           out.Summary.Wins,
		Losses:         out.Summary.Losses,
		Ledger:         out.Result.Ledger,
		Snapshots:      out.Result.Snapshots,
	}
	return p.runs.SaveRun(ctx, run)
}
