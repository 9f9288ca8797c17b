package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"llm-trader/internal/engine"
	"llm-trader/internal/engine/engineobs"
	"llm-trader/internal/history"
	"llm-trader/internal/interfaces"
	"llm-trader/internal/ledger"
	"llm-trader/internal/logger"
	"llm-trader/internal/store"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}
	if err := cfg.CheckCredentials(); err != nil {
		logger.ErrorWithErr(ctx, "Unrecoverable configuration error", err)
		os.Exit(1)
	}

	compressOldLogs(ctx, cfg)

	hist, err := history.Open(cfg.History.DBPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to open history store", err)
		os.Exit(1)
	}
	defer hist.Close()

	book := ledger.New(cfg.StartingCash, cfg.Symbols)
	base := engine.New(cfg,
		initializeQuoter(ctx, cfg),
		initializeDecider(ctx, cfg),
		initializeBroker(ctx, cfg),
		book,
		hist,
		initializeNotifier(ctx, cfg),
	)
	eng := engineobs.Wrap(base)

	if cfg.Mode == "LIVE" {
		logger.Warn(ctx, "LIVE trading mode - applied decisions are mirrored to the broker")
	} else {
		logger.Info(ctx, "Paper trading mode")
	}
	logger.Info(ctx, "Trader started",
		"symbols", cfg.Symbols,
		"starting_cash", cfg.StartingCash,
		"risk_pct", cfg.RiskPercent,
		"poll_seconds", cfg.PollSeconds,
	)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	runCycle(ctx, eng)
	for {
		select {
		case <-tick.C:
			runCycle(ctx, eng)
		case <-sigc:
			logger.Info(ctx, "Shutting down...")
			shutdown(ctx, cfg, base, hist)
			return
		}
	}
}

// runCycle contains a cycle failure at the loop boundary: it is logged
// and the next tick proceeds as if nothing happened.
func runCycle(ctx context.Context, eng interfaces.Engine) {
	st, err := eng.Cycle(ctx)
	if err != nil {
		logger.Error(ctx, "Cycle error, continuing", "error", err)
		return
	}
	if st != nil {
		b, _ := json.Marshal(st)
		fmt.Println(string(b))
	}
}
