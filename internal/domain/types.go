// Package domain defines the core data types shared across the volsurge
// pipeline: OHLCV bars, trade ledger entries, and portfolio snapshots.
package domain

import "time"

// Market identifies the exchange universe a symbol belongs to.
type Market string

// Supported markets.
const (
	MarketUS Market = "us"
)

// Granularity distinguishes daily bars from intraday bars.
type Granularity string

// Supported bar granularities.
const (
	GranularityDaily    Granularity = "daily"
	GranularityIntraday Granularity = "intraday"
)

// Bar is a single OHLCV period for a symbol. Timestamps are exchange-local
// wall-clock time; a bar series is ordered by strictly increasing Timestamp
// with no duplicates.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// PositionState is the backtest position at a point in time.
type PositionState int

// Position states. A position is never carried overnight, so every session
// begins and ends PositionFlat.
const (
	PositionFlat PositionState = iota
	PositionLong
	PositionShort
)

// String returns the position state name.
func (p PositionState) String() string {
	switch p {
	case PositionLong:
		return "long"
	case PositionShort:
		return "short"
	default:
		return "flat"
	}
}

// TradeAction is the kind of fill recorded in the trade ledger.
type TradeAction string

// Ledger actions. BUY/SELL_SHORT open a position; SELL_CLOSE/BUY_COVER
// close one at the end of its session.
const (
	ActionBuy       TradeAction = "BUY"
	ActionSellShort TradeAction = "SELL_SHORT"
	ActionSellClose TradeAction = "SELL_CLOSE"
	ActionBuyCover  TradeAction = "BUY_COVER"
)

// IsEntry reports whether the action opens a position.
func (a TradeAction) IsEntry() bool {
	return a == ActionBuy || a == ActionSellShort
}

// LedgerEntry is one fill in the trade ledger. CashDelta is the signed change
// to cash: negative for purchases, positive for sales.
type LedgerEntry struct {
	Timestamp time.Time
	Action    TradeAction
	Shares    int64
	Price     float64
	CashDelta float64
}

// PortfolioSnapshot records portfolio value at the end of one session.
// Because the strategy is always flat at the snapshot instant, Value equals
// cash with no mark-to-market component.
type PortfolioSnapshot struct {
	Date  string // session key, YYYY-MM-DD
	Value float64
}
