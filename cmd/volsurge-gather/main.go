package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"volsurge/internal/config"
	"volsurge/internal/domain"
	"volsurge/internal/gather"
	"volsurge/internal/gather/us"
	"volsurge/internal/store"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to gather (defaults to strategy.ticker)")
	dailyOnly := flag.Bool("daily-only", false, "gather daily bars only")
	intradayOnly := flag.Bool("intraday-only", false, "gather intraday bars only")
	flag.Parse()

	cfgPath := "config/volsurge.yaml"
	if p := os.Getenv("VOLSURGE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.DataDir == "" {
		log.Fatal("storage.data_dir is not configured")
	}

	// Dual logger: stdout + /tmp log file.
	logFileName := fmt.Sprintf("/tmp/volsurge-gather-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.Create(logFileName)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	w := io.MultiWriter(os.Stdout, logFile)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 && cfg.Strategy.Ticker != "" {
		symbols = []string{cfg.Strategy.Ticker}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols: set -symbols or strategy.ticker")
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	var gatherers []gather.Gatherer
	if !*intradayOnly {
		gatherers = append(gatherers, us.NewBarGatherer(
			cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
			pstore, symbols, domain.GranularityDaily,
			cfg.Gather.Daily.StartDate, cfg.Gather.Daily.RateLimitPerMin,
		))
	}
	if !*dailyOnly {
		gatherers = append(gatherers, us.NewBarGatherer(
			cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
			pstore, symbols, domain.GranularityIntraday,
			cfg.Gather.Intraday.StartDate, cfg.Gather.Intraday.RateLimitPerMin,
		))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting volsurge-gather", "logFile", logFileName, "symbols", symbols)
	for _, g := range gatherers {
		if err := g.Run(ctx); err != nil {
			log.Fatalf("%s error: %v", g.Name(), err)
		}
	}
}

func splitSymbols(s string) []string {
	var symbols []string
	for _, part := range strings.Split(s, ",") {
		if sym := strings.ToUpper(strings.TrimSpace(part)); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	return symbols
}
