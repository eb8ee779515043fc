// Package store defines storage interfaces for persisting and retrieving
// bar data and backtest run results.
package store

import (
	"context"
	"time"

	"volsurge/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars under the given market and granularity.
	WriteBars(ctx context.Context, bars []domain.Bar, market domain.Market, granularity domain.Granularity) error

	// ReadBars returns bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, market domain.Market, granularity domain.Granularity, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available at the given granularity.
	ListSymbols(ctx context.Context, market domain.Market, granularity domain.Granularity) ([]string, error)
}

// RunStore persists and retrieves backtest run results.
type RunStore interface {
	// SaveRun inserts a completed run with its ledger and snapshots, returning
	// the assigned run ID.
	SaveRun(ctx context.Context, run *BacktestRun) (int64, error)

	// GetRun retrieves a single run by its ID, including ledger and snapshots.
	GetRun(ctx context.Context, id int64) (*BacktestRun, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	// Ledger and snapshots are not populated; use GetRun for those.
	ListRuns(ctx context.Context, symbol string, limit int) ([]BacktestRun, error)
}

// BacktestRun is one persisted backtest: its parameters, its headline
// results, and the full trade ledger and portfolio history.
type BacktestRun struct {
	ID             int64
	Symbol         string
	CreatedAt      time.Time
	StartDate      string // first session, YYYY-MM-DD
	EndDate        string // last session, YYYY-MM-DD
	EntryThreshold float64
	InitialCapital float64
	FinalValue     float64
	TotalReturnPct float64
	TradeCount     int
	Wins           int
	Losses         int

	Ledger    []domain.LedgerEntry
	Snapshots []domain.PortfolioSnapshot
}
