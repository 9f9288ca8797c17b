package ledger

import (
	"fmt"
	"time"

	"llm-trader/internal/types"
)

// Ledger is the authoritative paper book: cash plus integer share counts
// per symbol. One ledger exists per run, owned by the orchestrator;
// applies are single-threaded by construction.
type Ledger struct {
	startingCash float64
	cash         float64
	positions    map[string]int
}

// New creates a ledger with the configured starting cash and zeroed
// positions for every allow-listed symbol.
func New(startingCash float64, symbols []string) *Ledger {
	pos := make(map[string]int, len(symbols))
	for _, s := range symbols {
		pos[s] = 0
	}
	return &Ledger{startingCash: startingCash, cash: startingCash, positions: pos}
}

func (l *Ledger) Cash() float64 { return l.cash }

func (l *Ledger) StartingCash() float64 { return l.startingCash }

func (l *Ledger) Position(symbol string) int { return l.positions[symbol] }

// Positions returns a copy of the current share counts.
func (l *Ledger) Positions() map[string]int {
	out := make(map[string]int, len(l.positions))
	for s, q := range l.positions {
		out[s] = q
	}
	return out
}

// Apply executes a sized decision against the book and returns the trade
// record, stamped with the caller's clock. Cash and position move together
// or not at all. The sizer already guarantees the invariants; they are
// re-validated here because a violated book is worse than a rejected order.
func (l *Ledger) Apply(at time.Time, symbol, action string, qty int, price float64, reasoning string) (types.TradeRecord, error) {
	now := at.Format("2006-01-02 15:04:05")

	if qty <= 0 || action == types.ActionHold {
		return types.TradeRecord{
			Time:      now,
			Action:    "HOLD",
			Symbol:    symbol,
			Side:      "HOLD",
			Price:     price,
			Reasoning: reasoning,
		}, nil
	}
	if price <= 0 {
		return types.TradeRecord{}, fmt.Errorf("apply rejected: non-positive price %.4f for %s", price, symbol)
	}

	switch action {
	case types.ActionBuy:
		cost := float64(qty) * price
		if cost > l.cash {
			return types.TradeRecord{}, fmt.Errorf("apply rejected: buy %d %s costs %.2f with %.2f cash", qty, symbol, cost, l.cash)
		}
		l.cash -= cost
		l.positions[symbol] += qty
		return types.TradeRecord{
			Time:      now,
			Action:    fmt.Sprintf("BUY %d %s", qty, symbol),
			Symbol:    symbol,
			Side:      "BUY",
			Qty:       qty,
			Price:     price,
			Reasoning: reasoning,
		}, nil
	case types.ActionSell:
		if qty > l.positions[symbol] {
			return types.TradeRecord{}, fmt.Errorf("apply rejected: sell %d %s exceeds held %d", qty, symbol, l.positions[symbol])
		}
		l.cash += float64(qty) * price
		l.positions[symbol] -= qty
		return types.TradeRecord{
			Time:      now,
			Action:    fmt.Sprintf("SELL %d %s", qty, symbol),
			Symbol:    symbol,
			Side:      "SELL",
			Qty:       qty,
			Price:     price,
			Reasoning: reasoning,
		}, nil
	}
	return types.TradeRecord{}, fmt.Errorf("apply rejected: unknown action %q", action)
}

// TotalValue marks the book to the given snapshot. Held symbols with no
// usable price contribute 0 and are returned so the caller can flag the
// valuation as approximate.
func (l *Ledger) TotalValue(snap types.Snapshot) (float64, []string) {
	total := l.cash
	var missing []string
	for sym, qty := range l.positions {
		if qty == 0 {
			continue
		}
		q, ok := snap[sym]
		if !ok || q.Price <= 0 {
			missing = append(missing, sym)
			continue
		}
		total += float64(qty) * q.Price
	}
	return total, missing
}

// ROI returns the return on the starting cash for a given total value,
// as a percentage.
func (l *Ledger) ROI(totalValue float64) float64 {
	return (totalValue - l.startingCash) / l.startingCash * 100.0
}
