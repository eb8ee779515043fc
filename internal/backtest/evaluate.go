package backtest

import (
	"fmt"
	"strings"

	"volsurge/internal/domain"
)

// Summary holds the performance statistics of one backtest run.
type Summary struct {
	InitialCapital float64
	FinalValue     float64
	TotalReturnPct float64

	TradeCount int // round trips (entry + exit pairs)
	Wins       int
	Losses     int
	WinRatePct float64
	AvgWin     float64
	AvgLoss    float64

	NoTrades bool
}

// Evaluate computes performance statistics from a backtest result. Ledger
// entries strictly alternate entry and exit by construction of the engine
// (no re-entry after a session flatten), so pairing by consecutive entries
// is well-defined. An empty ledger produces an explicit no-trades summary
// instead of an error.
func Evaluate(res *Result, initialCapital float64) Summary {
	s := Summary{
		InitialCapital: initialCapital,
		FinalValue:     initialCapital,
	}
	if len(res.Snapshots) > 0 {
		s.FinalValue = res.Snapshots[len(res.Snapshots)-1].Value
	}
	if initialCapital != 0 {
		s.TotalReturnPct = (s.FinalValue - initialCapital) / initialCapital * 100
	}

	if len(res.Ledger) == 0 {
		s.NoTrades = true
		return s
	}

	s.TradeCount = len(res.Ledger) / 2

	var sumWin, sumLoss float64
	for i := 0; i+1 < len(res.Ledger); i += 2 {
		entry, exit := res.Ledger[i], res.Ledger[i+1]

		var pnl float64
		if entry.Action == domain.ActionBuy {
			pnl = (exit.Price - entry.Price) * float64(entry.Shares)
		} else { // SELL_SHORT
			pnl = (entry.Price - exit.Price) * float64(entry.Shares)
		}

		if pnl > 0 {
			s.Wins++
			sumWin += pnl
		} else {
			s.Losses++
			sumLoss += pnl
		}
	}

	if s.TradeCount > 0 {
		s.WinRatePct = float64(s.Wins) / float64(s.TradeCount) * 100
	}
	if s.Wins > 0 {
		s.AvgWin = sumWin / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = sumLoss / float64(s.Losses)
	}
	return s
}

// String renders the textual performance report.
func (s Summary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Initial Capital:       $%.2f\n", s.InitialCapital)
	fmt.Fprintf(&b, "Final Portfolio Value: $%.2f\n", s.FinalValue)
	fmt.Fprintf(&b, "Total Return:          %.2f%%\n", s.TotalReturnPct)

	if s.NoTrades {
		b.WriteString("No trades were made.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Trades Executed:       %d\n", s.TradeCount)
	fmt.Fprintf(&b, "Winning Trades:        %d\n", s.Wins)
	fmt.Fprintf(&b, "Losing Trades:         %d\n", s.Losses)
	fmt.Fprintf(&b, "Win Rate:              %.2f%%\n", s.WinRatePct)
	fmt.Fprintf(&b, "Average Win:           $%.2f\n", s.AvgWin)
	fmt.Fprintf(&b, "Average Loss:          $%.2f\n", s.AvgLoss)
	return b.String()
}
