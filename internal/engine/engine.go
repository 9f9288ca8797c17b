package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"llm-trader/internal/decision"
	"llm-trader/internal/history"
	"llm-trader/internal/interfaces"
	"llm-trader/internal/ledger"
	"llm-trader/internal/logger"
	"llm-trader/internal/report"
	"llm-trader/internal/risk"
	"llm-trader/internal/store"
	"llm-trader/internal/tradelog"
	"llm-trader/internal/types"
)

// Engine runs one decision cycle: snapshot -> prompt -> decide -> parse ->
// size -> apply -> persist -> mirror -> report. The process loop ticks it
// at the configured cadence and swallows cycle errors; nothing in here may
// leave the ledger half-applied.
type Engine struct {
	cfg        *store.Config
	quoter     interfaces.Quoter
	decider    interfaces.Decider
	brk        interfaces.Broker // nil in paper-only mode
	parser     *decision.Parser
	sizer      *risk.Sizer
	book       *ledger.Ledger
	hist       *history.Store // nil disables persistence
	notifier   interfaces.Notifier
	summarizer *report.Summarizer
	now        func() time.Time
}

var _ interfaces.Engine = (*Engine)(nil)

func New(cfg *store.Config, quoter interfaces.Quoter, decider interfaces.Decider, brk interfaces.Broker, book *ledger.Ledger, hist *history.Store, notifier interfaces.Notifier) *Engine {
	return &Engine{
		cfg:        cfg,
		quoter:     quoter,
		decider:    decider,
		brk:        brk,
		parser:     decision.NewParser(cfg.Symbols, cfg.Default()),
		sizer:      risk.NewSizer(cfg.RiskPercent),
		book:       book,
		hist:       hist,
		notifier:   notifier,
		summarizer: report.NewSummarizer(cfg.Report.SendAfter),
		now:        time.Now,
	}
}

// Book exposes the ledger for shutdown valuation.
func (e *Engine) Book() *ledger.Ledger { return e.book }

// Snapshot fetches the current prices; exported so shutdown can take a
// final valuation.
func (e *Engine) Snapshot(ctx context.Context) (types.Snapshot, error) {
	return e.quoter.Snapshot(ctx, e.cfg.Symbols)
}

func (e *Engine) Cycle(ctx context.Context) (*types.CycleResult, error) {
	snap, err := e.quoter.Snapshot(ctx, e.cfg.Symbols)
	if err != nil {
		return nil, fmt.Errorf("price snapshot: %w", err)
	}

	val := e.valuation(snap)
	logger.Info(ctx, "Portfolio valuation",
		"total_value", val.TotalValue,
		"cash", val.Cash,
		"roi_pct", val.ROIPercent,
		"approximate", val.Approximate,
	)

	d := e.decide(ctx, snap)
	logger.Decision(ctx, d.Symbol, d.Action, d.Qty, d.Reasoning)

	price, tradeable := e.price(snap, d.Symbol)
	if !tradeable && d.Action != types.ActionHold {
		logger.Risk(ctx, d.Symbol, "SYMBOL_UNTRADEABLE", "action", d.Action)
	}

	qty := 0
	action := types.ActionHold
	if tradeable {
		qty = e.sizer.Size(d.Action, d.Qty, e.book.Cash(), price, e.book.Position(d.Symbol))
		if qty > 0 {
			action = d.Action
		} else if d.Action == types.ActionSell && d.Qty > e.book.Position(d.Symbol) {
			logger.Risk(ctx, d.Symbol, "SELL_EXCEEDS_POSITION", "requested", d.Qty, "held", e.book.Position(d.Symbol))
		} else if d.Action == types.ActionBuy && d.Qty > 0 {
			logger.Risk(ctx, d.Symbol, "BUY_CAP_ZERO", "requested", d.Qty, "cash", e.book.Cash(), "price", price)
		}
		if action == types.ActionBuy && qty < d.Qty {
			logger.Risk(ctx, d.Symbol, "BUY_CLAMPED", "requested", d.Qty, "executable", qty)
		}
	}

	rec, err := e.book.Apply(e.now(), d.Symbol, action, qty, price, d.Reasoning)
	if err != nil {
		// Should be unreachable given the sizer's pre-checks.
		logger.ErrorWithErr(ctx, "Ledger rejected apply", err, "symbol", d.Symbol, "action", action, "qty", qty)
		rec = types.TradeRecord{
			Time:      e.now().Format("2006-01-02 15:04:05"),
			Action:    "HOLD",
			Symbol:    d.Symbol,
			Side:      "HOLD",
			Price:     price,
			Reasoning: "apply rejected: " + err.Error(),
		}
		qty = 0
	}

	if rec.Side != "HOLD" {
		logger.Trade(ctx, rec.Symbol, rec.Side, rec.Qty, rec.Price, "reason", rec.Reasoning)
	}

	e.persist(ctx, rec, val)

	result := &types.CycleResult{
		Decision:   d,
		Executed:   qty,
		Record:     rec,
		Valuation:  val,
		PricedSyms: len(snap),
	}

	e.mirror(ctx, rec, result)
	e.report(ctx, val)

	return result, nil
}

func (e *Engine) valuation(snap types.Snapshot) types.Valuation {
	total, missing := e.book.TotalValue(snap)
	return types.Valuation{
		Time:        e.now().Format("2006-01-02 15:04:05"),
		TotalValue:  total,
		Cash:        e.book.Cash(),
		ROIPercent:  e.book.ROI(total),
		Approximate: len(missing) > 0,
	}
}

// decide obtains a raw completion under a bounded timeout and parses it.
// Any decider failure degrades to the parser's default HOLD.
func (e *Engine) decide(ctx context.Context, snap types.Snapshot) types.Decision {
	dctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.LLM.TimeoutSeconds)*time.Second)
	defer cancel()

	raw, err := e.decider.Decide(dctx, e.buildPrompt(snap))
	if err != nil {
		logger.Warn(ctx, "Decider failed, holding this cycle", "error", err)
		return e.parser.Default()
	}
	return e.parser.Parse(raw)
}

func (e *Engine) buildPrompt(snap types.Snapshot) string {
	state := make(types.Snapshot, len(snap))
	for sym, q := range snap {
		state[sym] = types.Quote{
			Price:     math.Round(q.Price*100) / 100,
			Volume:    math.Round(q.Volume),
			ChangePct: math.Round(q.ChangePct*100) / 100,
		}
	}
	pb, _ := json.Marshal(state)
	posb, _ := json.Marshal(e.book.Positions())
	return fmt.Sprintf(
		`Cash $%.0f | Risk %.0f%% | Positions %s | Prices %s -> Respond ONLY with JSON: {"symbol":string,"action":"buy"|"sell"|"hold","qty":int,"reasoning":string}`,
		e.book.Cash(), e.cfg.RiskPercent, string(posb), string(pb),
	)
}

func (e *Engine) price(snap types.Snapshot, symbol string) (float64, bool) {
	q, ok := snap[symbol]
	if !ok || q.Price <= 0 {
		return 0, false
	}
	return q.Price, true
}

func (e *Engine) persist(ctx context.Context, rec types.TradeRecord, val types.Valuation) {
	if err := tradelog.Append(rec); err != nil {
		logger.Warn(ctx, "Failed to append trade record", "error", err)
	}
	if e.hist == nil {
		return
	}
	if err := e.hist.InsertTrade(ctx, rec); err != nil {
		logger.Warn(ctx, "Failed to persist trade record", "error", err)
	}
	if err := e.hist.InsertValuation(ctx, val); err != nil {
		logger.Warn(ctx, "Failed to persist valuation", "error", err)
	}
}

// mirror submits the applied trade to the live venue. The paper book is
// already updated; a failed mirror is logged and never retried this cycle.
func (e *Engine) mirror(ctx context.Context, rec types.TradeRecord, result *types.CycleResult) {
	if e.cfg.Mode != "LIVE" || e.brk == nil || rec.Qty <= 0 || rec.Side == "HOLD" {
		return
	}

	bctx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.Broker.TimeoutSeconds)*time.Second)
	defer cancel()

	side := types.ActionBuy
	if rec.Side == "SELL" {
		side = types.ActionSell
	}
	resp, err := e.brk.SubmitOrder(bctx, types.OrderReq{Symbol: rec.Symbol, Side: side, Qty: rec.Qty})
	if err != nil {
		logger.ErrorWithErr(ctx, "Live mirror failed, paper book unchanged", err, "symbol", rec.Symbol, "side", rec.Side, "qty", rec.Qty)
		result.MirrorErr = err.Error()
		return
	}
	result.Mirrored = true
	logger.Info(ctx, "Live mirror submitted", "order_id", resp.OrderID, "status", resp.Status)
}

func (e *Engine) report(ctx context.Context, val types.Valuation) {
	if !e.cfg.Report.Enabled || e.notifier == nil {
		return
	}
	now := e.now()
	if !e.summarizer.ShouldSendNow(now) {
		return
	}
	body := report.Build(e.cfg.Mode, val, e.book.StartingCash(), e.book.Positions())
	if err := e.notifier.Send(ctx, "Daily trading summary", body); err != nil {
		logger.Warn(ctx, "Failed to send daily summary", "error", err)
		return
	}
	e.summarizer.MarkSent(now)
}
