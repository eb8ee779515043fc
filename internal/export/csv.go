// Package export writes the pipeline's output tables as CSV files: the daily
// indicator table, the composed intraday signal table, the trade ledger, and
// the portfolio history.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"volsurge/internal/domain"
	"volsurge/internal/signal"
)

const timestampLayout = "2006-01-02 15:04:05"

// WriteDailyCSV writes the daily indicator table.
func WriteDailyCSV(path string, rows []signal.DailyRow) error {
	header := []string{"date", "close", "volume", "atr", "hist_rvol", "price_sigma", "y_close", "y_atr", "y_atr_upper", "y_atr_lower"}
	return writeCSV(path, header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.Date,
			formatFloat(r.Close),
			strconv.FormatInt(r.Volume, 10),
			formatFloat(r.ATR),
			formatFloat(r.HistRVOL),
			formatFloat(r.PriceSigma),
			formatFloat(r.YClose),
			formatFloat(r.YATR),
			formatFloat(r.YUpper),
			formatFloat(r.YLower),
		}
	})
}

// WriteComposedCSV writes the composed intraday signal table.
func WriteComposedCSV(path string, rows []signal.Row) error {
	header := []string{"datetime", "session", "close", "volume", "cum_volume", "exp_cum_volume", "intraday_rvol", "y_close", "y_atr_upper", "y_atr_lower"}
	return writeCSV(path, header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.Timestamp.Format(timestampLayout),
			r.Session,
			formatFloat(r.Close),
			strconv.FormatInt(r.Volume, 10),
			formatFloat(r.CumVolume),
			formatFloat(r.ExpCumVolume),
			formatFloat(r.IntradayRVOL),
			formatFloat(r.YClose),
			formatFloat(r.YUpper),
			formatFloat(r.YLower),
		}
	})
}

// WriteLedgerCSV writes the trade ledger.
func WriteLedgerCSV(path string, ledger []domain.LedgerEntry) error {
	header := []string{"datetime", "action", "shares", "price", "cash_delta"}
	return writeCSV(path, header, len(ledger), func(i int) []string {
		e := ledger[i]
		return []string{
			e.Timestamp.Format(timestampLayout),
			string(e.Action),
			strconv.FormatInt(e.Shares, 10),
			formatFloat(e.Price),
			formatFloat(e.CashDelta),
		}
	})
}

// WritePortfolioCSV writes the per-session portfolio value history.
func WritePortfolioCSV(path string, snaps []domain.PortfolioSnapshot) error {
	header := []string{"date", "portfolio_value"}
	return writeCSV(path, header, len(snaps), func(i int) []string {
		return []string{snaps[i].Date, formatFloat(snaps[i].Value)}
	})
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// formatFloat renders a value for CSV output; undefined values become empty
// cells rather than the literal "NaN".
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
