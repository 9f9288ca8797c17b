package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"llm-trader/internal/types"
)

// Summarizer decides when the daily summary goes out. Dispatch is
// idempotent per calendar day: the last-sent date guards against duplicate
// sends across cycles.
type Summarizer struct {
	sendAfter string // local "HH:MM"
	lastSent  string // "2006-01-02"
}

func NewSummarizer(sendAfter string) *Summarizer {
	return &Summarizer{sendAfter: sendAfter}
}

// ShouldSendNow reports whether the daily summary is due: past the
// configured cutoff and not yet sent today.
func (s *Summarizer) ShouldSendNow(now time.Time) bool {
	today := now.Format("2006-01-02")
	if s.lastSent == today {
		return false
	}
	cutoff, err := time.ParseInLocation("2006-01-02 15:04", today+" "+s.sendAfter, now.Location())
	if err != nil {
		return false
	}
	return !now.Before(cutoff)
}

// MarkSent records that today's summary went out.
func (s *Summarizer) MarkSent(now time.Time) {
	s.lastSent = now.Format("2006-01-02")
}

// Build renders the human-readable daily summary.
func Build(mode string, val types.Valuation, startingCash float64, positions map[string]int) string {
	money := func(v float64) string {
		return decimal.NewFromFloat(v).StringFixed(2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", val.Time)
	fmt.Fprintf(&b, "Mode: %s\n", mode)
	total := fmt.Sprintf("Total value: $%s", money(val.TotalValue))
	if val.Approximate {
		total += " (approximate: some symbols unpriced)"
	}
	b.WriteString(total + "\n")
	fmt.Fprintf(&b, "P&L: $%s (%s%%)\n", money(val.TotalValue-startingCash), decimal.NewFromFloat(val.ROIPercent).StringFixed(2))
	fmt.Fprintf(&b, "Cash: $%s\n", money(val.Cash))

	held := make([]string, 0, len(positions))
	for sym, qty := range positions {
		if qty != 0 {
			held = append(held, fmt.Sprintf("%s=%d", sym, qty))
		}
	}
	sort.Strings(held)
	if len(held) == 0 {
		b.WriteString("Positions: none\n")
	} else {
		fmt.Fprintf(&b, "Positions: %s\n", strings.Join(held, " "))
	}
	return b.String()
}
