package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"volsurge/internal/config"
	"volsurge/internal/domain"
	"volsurge/internal/export"
	"volsurge/internal/indicator"
	"volsurge/internal/loader"
	"volsurge/internal/pipeline"
	"volsurge/internal/signal"
	"volsurge/internal/store"
	"volsurge/internal/util"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: volsurge <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  backtest   Run a backtest over daily and intraday bars\n")
		fmt.Fprintf(os.Stderr, "  indicators Build the daily indicator table without backtesting\n")
		fmt.Fprintf(os.Stderr, "  runs       List saved backtest runs\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "version":
		fmt.Printf("volsurge %s\n", version)

	case "backtest":
		if err := runBacktest(ctx, os.Args[2:]); err != nil {
			log.Fatalf("backtest: %v", err)
		}

	case "indicators":
		if err := runIndicators(ctx, os.Args[2:]); err != nil {
			log.Fatalf("indicators: %v", err)
		}

	case "runs":
		if err := listRuns(ctx, os.Args[2:]); err != nil {
			log.Fatalf("runs: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = "config/volsurge.yaml"
		if p := os.Getenv("VOLSURGE_CONFIG"); p != "" {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runBacktest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to the YAML config file")
	dailyCSV := fs.String("daily", "", "daily bars CSV (skips the parquet store)")
	intradayCSV := fs.String("intraday", "", "intraday bars CSV (skips the parquet store)")
	symbol := fs.String("symbol", "", "symbol to backtest (defaults to strategy.ticker)")
	start := fs.String("start", "", "start date YYYY-MM-DD when reading the parquet store")
	end := fs.String("end", "", "end date YYYY-MM-DD when reading the parquet store")
	outDir := fs.String("out", "", "directory for CSV output tables (optional)")
	save := fs.Bool("save", false, "persist the run to the SQLite run store")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ticker := cfg.Strategy.Ticker
	if *symbol != "" {
		ticker = *symbol
	}
	if ticker == "" {
		return fmt.Errorf("no symbol: set -symbol or strategy.ticker")
	}

	in, err := loadInput(ctx, cfg, ticker, *dailyCSV, *intradayCSV, *start, *end)
	if err != nil {
		return err
	}

	var runs store.RunStore
	if *save {
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("-save requires storage.sqlite_path")
		}
		sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		defer sqlite.Close()
		runs = sqlite
	}

	out, err := pipeline.New(cfg.Strategy, runs).Run(ctx, in)
	if err != nil {
		return err
	}

	if *outDir != "" {
		if err := writeTables(*outDir, out); err != nil {
			return err
		}
	}

	fmt.Println(out.Summary.String())
	if out.RunID != 0 {
		fmt.Printf("Saved as run %d.\n", out.RunID)
	}
	return nil
}

func runIndicators(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("indicators", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to the YAML config file")
	dailyCSV := fs.String("daily", "", "daily bars CSV (skips the parquet store)")
	symbol := fs.String("symbol", "", "symbol to compute (defaults to strategy.ticker)")
	start := fs.String("start", "", "start date YYYY-MM-DD when reading the parquet store")
	end := fs.String("end", "", "end date YYYY-MM-DD when reading the parquet store")
	outPath := fs.String("out", "daily.csv", "output CSV path")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	ticker := cfg.Strategy.Ticker
	if *symbol != "" {
		ticker = *symbol
	}
	if ticker == "" {
		return fmt.Errorf("no symbol: set -symbol or strategy.ticker")
	}

	var bars []domain.Bar
	if *dailyCSV != "" {
		bars, err = loader.ReadOHLCV(*dailyCSV, ticker)
	} else {
		if cfg.Storage.DataDir == "" {
			return fmt.Errorf("no -daily CSV and no storage.data_dir to read from")
		}
		var startTime, endTime time.Time
		startTime, endTime, err = parseRange(*start, *end)
		if err != nil {
			return err
		}
		ps := store.NewParquetStore(cfg.Storage.DataDir)
		bars, err = ps.ReadBars(ctx, ticker, domain.MarketUS, domain.GranularityDaily, startTime, endTime)
	}
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("no daily bars for %s", ticker)
	}

	rows, err := signal.BuildDaily(bars, signal.DailyParams{
		ATRWindow:      cfg.Strategy.ATRWindow,
		RVOLWindow:     cfg.Strategy.RVOLWindow,
		RVOLMethod:     indicator.RVOLMethod(cfg.Strategy.RVOLMethod),
		RVOLAlpha:      cfg.Strategy.RVOLAlpha,
		PriceDevWindow: cfg.Strategy.PriceDevWindow,
		BandMultiplier: cfg.Strategy.BandMultiplier,
	})
	if err != nil {
		return err
	}

	if err := export.WriteDailyCSV(*outPath, rows); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s.\n", len(rows), *outPath)
	return nil
}

// loadInput reads bars from the given CSV files, falling back to the parquet
// store for either series whose CSV path is empty.
func loadInput(ctx context.Context, cfg *config.Config, symbol, dailyCSV, intradayCSV, start, end string) (pipeline.Input, error) {
	var in pipeline.Input
	var err error

	if dailyCSV != "" {
		in.Daily, err = loader.ReadOHLCV(dailyCSV, symbol)
		if err != nil {
			return in, err
		}
	}
	if intradayCSV != "" {
		in.Intraday, err = loader.ReadOHLCV(intradayCSV, symbol)
		if err != nil {
			return in, err
		}
	}
	if in.Daily != nil && in.Intraday != nil {
		return in, nil
	}

	if cfg.Storage.DataDir == "" {
		return in, fmt.Errorf("no CSV inputs and no storage.data_dir to read from")
	}
	startTime, endTime, err := parseRange(start, end)
	if err != nil {
		return in, err
	}
	ps := store.NewParquetStore(cfg.Storage.DataDir)

	if in.Daily == nil {
		in.Daily, err = ps.ReadBars(ctx, symbol, domain.MarketUS, domain.GranularityDaily, startTime, endTime)
		if err != nil {
			return in, fmt.Errorf("reading daily bars: %w", err)
		}
	}
	if in.Intraday == nil {
		in.Intraday, err = ps.ReadBars(ctx, symbol, domain.MarketUS, domain.GranularityIntraday, startTime, endTime)
		if err != nil {
			return in, fmt.Errorf("reading intraday bars: %w", err)
		}
	}
	return in, nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	if start == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-start is required when reading the parquet store")
	}
	startTime, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing -start: %w", err)
	}
	endTime := time.Now()
	if end != "" {
		endTime, err = time.Parse("2006-01-02", end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing -end: %w", err)
		}
		endTime = endTime.Add(24*time.Hour - time.Second)
	}
	return startTime, endTime, nil
}

func writeTables(dir string, out *pipeline.Output) error {
	if err := export.WriteDailyCSV(filepath.Join(dir, "daily.csv"), out.Daily); err != nil {
		return err
	}
	if err := export.WriteComposedCSV(filepath.Join(dir, "composed.csv"), out.Composed); err != nil {
		return err
	}
	if err := export.WriteLedgerCSV(filepath.Join(dir, "trades.csv"), out.Result.Ledger); err != nil {
		return err
	}
	return export.WritePortfolioCSV(filepath.Join(dir, "portfolio.csv"), out.Result.Snapshots)
}

func listRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to the YAML config file")
	symbol := fs.String("symbol", "", "filter runs by symbol")
	limit := fs.Int("limit", 20, "maximum number of runs to list")
	fs.Parse(args)

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if cfg.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is not configured")
	}

	sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return err
	}
	defer sqlite.Close()

	runs, err := sqlite.ListRuns(ctx, *symbol, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No saved runs.")
		return nil
	}

	fmt.Printf("%-5s %-8s %-20s %-12s %-12s %8s %7s %7s\n",
		"ID", "SYMBOL", "CREATED", "START", "END", "RETURN%", "TRADES", "WINS")
	for _, r := range runs {
		fmt.Printf("%-5d %-8s %-20s %-12s %-12s %8.2f %7d %7d\n",
			r.ID, r.Symbol, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.StartDate, r.EndDate, r.TotalReturnPct, r.TradeCount, r.Wins)
	}
	return nil
}
