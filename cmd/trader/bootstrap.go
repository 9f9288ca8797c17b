package main

import (
	"context"
	"os"
	"time"

	"llm-trader/internal/broker/alpaca"
	"llm-trader/internal/broker/brokerobs"
	"llm-trader/internal/engine"
	"llm-trader/internal/history"
	"llm-trader/internal/interfaces"
	"llm-trader/internal/llm/llmobs"
	"llm-trader/internal/llm/noop"
	"llm-trader/internal/llm/openai"
	"llm-trader/internal/logger"
	"llm-trader/internal/notify"
	"llm-trader/internal/quotes"
	"llm-trader/internal/store"
	"llm-trader/internal/trace"
	"llm-trader/internal/tradelog"
	"llm-trader/internal/types"
)

// initializeSystem initializes the logger and tracer.
func initializeSystem() error {
	if err := logger.Init(); err != nil {
		return err
	}
	if err := trace.Init(); err != nil {
		logger.Warn(context.Background(), "Failed to initialize tracer, tracing disabled", "error", err)
	}
	return nil
}

// compressOldLogs gzips old audit files if retention is configured.
func compressOldLogs(ctx context.Context, cfg *store.Config) {
	if cfg.LogRetentionDays <= 0 {
		return
	}
	if err := tradelog.CompressOlder(cfg.LogRetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// initializeQuoter returns the price snapshot provider.
func initializeQuoter(ctx context.Context, cfg *store.Config) interfaces.Quoter {
	if cfg.DataSource == "LIVE" {
		logger.Info(ctx, "Using LIVE prices from Yahoo Finance")
		return quotes.NewYahoo()
	}
	logger.Info(ctx, "Using STATIC generated prices for testing")
	return quotes.NewStatic()
}

// initializeDecider returns the LLM decider with observability.
func initializeDecider(ctx context.Context, cfg *store.Config) interfaces.Decider {
	var decider interfaces.Decider
	switch cfg.LLM.Provider {
	case "OPENAI":
		decider = openai.NewOpenAIDecider(cfg)
	default:
		decider = noop.NewNoopDecider()
		logger.Warn(ctx, "No LLM provider configured - using Noop decider (always HOLD)")
	}
	return llmobs.Wrap(decider)
}

// initializeBroker returns the execution bridge, or nil when live
// mirroring is unavailable.
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	key, secret := os.Getenv("ALPACA_KEY"), os.Getenv("ALPACA_SECRET")
	if key == "" || secret == "" {
		logger.Info(ctx, "No broker credentials - paper-only mode")
		return nil
	}

	baseURL := cfg.Broker.PaperURL
	if cfg.Mode == "LIVE" {
		baseURL = cfg.Broker.LiveURL
	}
	brk := alpaca.New(alpaca.Params{
		BaseURL:   baseURL,
		APIKey:    key,
		APISecret: secret,
		Timeout:   time.Duration(cfg.Broker.TimeoutSeconds) * time.Second,
	})
	return brokerobs.Wrap(brk)
}

// initializeNotifier returns the daily-summary channel.
func initializeNotifier(ctx context.Context, cfg *store.Config) interfaces.Notifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token != "" && cfg.Report.TelegramChatID != "" {
		return notify.NewTelegram(token, cfg.Report.TelegramChatID)
	}
	if cfg.Report.Enabled {
		logger.Info(ctx, "No notification channel configured - summaries go to the process log")
	}
	return notify.NewLog()
}

// shutdown takes a final valuation, flushes history as CSV and stops the
// tracer.
func shutdown(ctx context.Context, cfg *store.Config, eng *engine.Engine, hist *history.Store) {
	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	book := eng.Book()
	if snap, err := eng.Snapshot(sctx); err == nil {
		total, missing := book.TotalValue(snap)
		val := types.Valuation{
			Time:        time.Now().Format("2006-01-02 15:04:05"),
			TotalValue:  total,
			Cash:        book.Cash(),
			ROIPercent:  book.ROI(total),
			Approximate: len(missing) > 0,
		}
		if err := hist.InsertValuation(sctx, val); err != nil {
			logger.Warn(sctx, "Failed to persist final valuation", "error", err)
		}
		logger.Info(sctx, "Final valuation",
			"total_value", val.TotalValue,
			"cash", val.Cash,
			"roi_pct", val.ROIPercent,
			"approximate", val.Approximate,
		)
	} else {
		logger.Warn(sctx, "Final price snapshot failed, skipping final valuation", "error", err)
	}

	if paths, err := hist.ExportCSV(sctx, cfg.History.ExportDir); err != nil {
		logger.Warn(sctx, "History CSV export failed", "error", err)
	} else {
		logger.Info(sctx, "History exported", "files", paths)
	}

	if err := trace.Shutdown(sctx); err != nil {
		logger.Warn(sctx, "Tracer shutdown failed", "error", err)
	}
}
