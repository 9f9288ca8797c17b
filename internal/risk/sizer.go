package risk

import "llm-trader/internal/types"

// Sizer bounds a requested decision to what the account can actually
// execute. RiskPercent is the fraction of current cash deployable in a
// single order; it bounds single-cycle exposure, not total equity.
type Sizer struct {
	RiskPercent float64
}

func NewSizer(riskPercent float64) *Sizer {
	return &Sizer{RiskPercent: riskPercent}
}

// Size returns the executable quantity for a decision. Zero means the
// cycle degrades to a HOLD.
//
// Buys are clamped to floor(cash * risk% / price). Sells exceeding the
// held quantity are rejected outright rather than partially filled:
// selling more than held is an invalid instruction, not a fill request.
func (s *Sizer) Size(action string, requested int, cash float64, price float64, held int) int {
	if requested <= 0 || price <= 0 {
		return 0
	}
	switch action {
	case types.ActionBuy:
		max := int((cash * s.RiskPercent / 100.0) / price)
		if max <= 0 {
			return 0
		}
		if requested < max {
			return requested
		}
		return max
	case types.ActionSell:
		if requested > held {
			return 0
		}
		return requested
	}
	return 0
}
