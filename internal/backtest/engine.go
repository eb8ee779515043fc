// Package backtest simulates the RVOL-triggered ATR-band strategy over a
// composed intraday signal frame and evaluates the resulting trade ledger.
//
// The engine is a per-session state machine with three states: flat, long,
// short. Entries fire only from flat; any open position is closed
// unconditionally on the final bar of its session, so no position is ever
// carried overnight and the portfolio is always flat at snapshot time.
package backtest

import (
	"log/slog"

	"volsurge/internal/domain"
	"volsurge/internal/signal"
)

// Config holds the engine parameters for one run.
type Config struct {
	InitialCapital float64
	TradeShares    int64
	EntryThreshold float64 // minimum intraday cumulative RVOL for an entry
}

// Result is the immutable output of one backtest run.
type Result struct {
	Ledger    []domain.LedgerEntry
	Snapshots []domain.PortfolioSnapshot
	FinalCash float64
}

// Engine runs the day-segmented backtest state machine.
type Engine struct {
	cfg Config
	log *slog.Logger
}

// New creates an Engine with the given parameters.
func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		log: slog.Default().With("component", "backtest"),
	}
}

// Run simulates the strategy over the composed signal frame. Rows must be
// ordered by timestamp; bars belonging to the same session must be
// contiguous. Rows whose entry signals are undefined are skipped for entry
// evaluation but still count toward session boundaries.
func (e *Engine) Run(rows []signal.Row) *Result {
	cash := e.cfg.InitialCapital
	position := domain.PositionFlat
	var shares int64

	res := &Result{}

	for start := 0; start < len(rows); {
		// Find the contiguous extent of this session.
		end := start
		for end < len(rows) && rows[end].Session == rows[start].Session {
			end++
		}
		day := rows[start:end]

		for _, row := range day {
			if position != domain.PositionFlat || !row.Tradeable() {
				continue
			}
			if row.IntradayRVOL <= e.cfg.EntryThreshold {
				continue
			}

			switch {
			case row.Close > row.YUpper:
				position = domain.PositionLong
				shares = e.cfg.TradeShares
				delta := -float64(shares) * row.Close
				cash += delta
				res.Ledger = append(res.Ledger, domain.LedgerEntry{
					Timestamp: row.Timestamp,
					Action:    domain.ActionBuy,
					Shares:    shares,
					Price:     row.Close,
					CashDelta: delta,
				})
				e.log.Debug("entered long", "session", row.Session, "price", row.Close, "rvol", row.IntradayRVOL)

			case row.Close < row.YLower:
				position = domain.PositionShort
				shares = e.cfg.TradeShares
				delta := float64(shares) * row.Close
				cash += delta
				res.Ledger = append(res.Ledger, domain.LedgerEntry{
					Timestamp: row.Timestamp,
					Action:    domain.ActionSellShort,
					Shares:    shares,
					Price:     row.Close,
					CashDelta: delta,
				})
				e.log.Debug("entered short", "session", row.Session, "price", row.Close, "rvol", row.IntradayRVOL)
			}
		}

		// Unconditional end-of-session flatten at the last bar's close.
		if position != domain.PositionFlat {
			last := day[len(day)-1]
			var (
				action domain.TradeAction
				delta  float64
			)
			if position == domain.PositionLong {
				action = domain.ActionSellClose
				delta = float64(shares) * last.Close
			} else {
				action = domain.ActionBuyCover
				delta = -float64(shares) * last.Close
			}
			cash += delta
			res.Ledger = append(res.Ledger, domain.LedgerEntry{
				Timestamp: last.Timestamp,
				Action:    action,
				Shares:    shares,
				Price:     last.Close,
				CashDelta: delta,
			})
			position = domain.PositionFlat
			shares = 0
		}

		// Flat at the snapshot instant, so portfolio value equals cash.
		res.Snapshots = append(res.Snapshots, domain.PortfolioSnapshot{
			Date:  day[0].Session,
			Value: cash,
		})

		start = end
	}

	res.FinalCash = cash
	return res
}
