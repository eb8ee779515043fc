// Package us gathers US equity bar data from the Alpaca market-data API.
package us

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"volsurge/internal/domain"
	"volsurge/internal/gather"
	"volsurge/internal/store"
	"volsurge/internal/util"
)

// Compile-time interface check.
var _ gather.Gatherer = (*BarGatherer)(nil)

// BarGatherer gathers OHLCV bars for a fixed symbol list via the Alpaca
// market-data API and writes them to the bar store. One gatherer handles one
// granularity; daily and intraday runs are configured separately.
type BarGatherer struct {
	client      *marketdata.Client
	store       store.BarStore
	symbols     []string
	granularity domain.Granularity
	startDate   string
	limiter     *util.RateLimiter
	log         *slog.Logger
}

// NewBarGatherer creates a BarGatherer configured with the given Alpaca
// credentials, target store, symbol list, and granularity.
func NewBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore, symbols []string, granularity domain.Granularity, startDate string, rateLimitPerMin int) *BarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 200
	}

	name := fmt.Sprintf("us-%s", granularity)
	return &BarGatherer{
		client:      marketdata.NewClient(opts),
		store:       s,
		symbols:     symbols,
		granularity: granularity,
		startDate:   startDate,
		limiter:     util.NewRateLimiter(rateLimitPerMin),
		log:         slog.Default().With("gatherer", name),
	}
}

// Name returns the gatherer identifier.
func (g *BarGatherer) Name() string { return fmt.Sprintf("us-%s", g.granularity) }

// Run fetches bars for every configured symbol and writes them to the store.
// Fetches are rate-limited and retried; a symbol with no data is logged and
// skipped, not treated as an error.
func (g *BarGatherer) Run(ctx context.Context) error {
	if len(g.symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}
	end := time.Now()

	runStart := time.Now()
	g.log.Info("starting", "symbols", len(g.symbols), "start", g.startDate)

	for _, symbol := range g.symbols {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		bars, err := g.fetchBars(ctx, symbol, start, end)
		if err != nil {
			return fmt.Errorf("fetching %s bars for %s: %w", g.granularity, symbol, err)
		}
		if len(bars) == 0 {
			g.log.Warn("no data returned", "symbol", symbol)
			continue
		}

		if err := g.store.WriteBars(ctx, bars, domain.MarketUS, g.granularity); err != nil {
			return fmt.Errorf("writing bars for %s: %w", symbol, err)
		}
		g.log.Info("symbol done", "symbol", symbol, "bars", len(bars))
	}

	g.log.Info("complete",
		"symbols", len(g.symbols),
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}

// fetchBars fetches bars for one symbol, retrying transient API failures.
func (g *BarGatherer) fetchBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	timeframe := marketdata.OneDay
	if g.granularity == domain.GranularityIntraday {
		timeframe = marketdata.OneHour
	}

	var alpacaBars []marketdata.Bar
	err := util.Retry(ctx, 3, 2*time.Second, func() error {
		var ferr error
		alpacaBars, ferr = g.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: timeframe,
			Start:     start,
			End:       end,
			Feed:      "sip",
		})
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	return bars, nil
}
