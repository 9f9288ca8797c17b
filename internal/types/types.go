package types

// Trade actions as produced by the response parser. The model contract is
// lower-case; trade records display the upper-case form.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
	ActionHold = "hold"
)

// Quote is one symbol's slice of a price snapshot. Price <= 0 means the
// symbol is untradeable this cycle.
type Quote struct {
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume,omitempty"`
	ChangePct float64 `json:"change_pct,omitempty"`
}

// Snapshot maps symbol -> quote for one cycle. Symbols whose fetch failed
// are simply absent.
type Snapshot map[string]Quote

// Decision is the validated trade instruction recovered from model output.
type Decision struct {
	Symbol     string  `json:"symbol"`
	Action     string  `json:"action"`
	Qty        int     `json:"qty"`
	Reasoning  string  `json:"reasoning"`
	StopLoss   float64 `json:"stop_loss_price,omitempty"`
	TakeProfit float64 `json:"take_profit_price,omitempty"`
}

// TradeRecord is one immutable line of the audit trail.
type TradeRecord struct {
	Time      string  `json:"time"`
	Action    string  `json:"action"` // "BUY 9000 TQQQ" | "SELL 5 NVDA" | "HOLD"
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"` // BUY, SELL or HOLD
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
	Reasoning string  `json:"reasoning"`
}

// Valuation is a periodic mark-to-market snapshot of the ledger.
type Valuation struct {
	Time       string  `json:"time"`
	TotalValue float64 `json:"total_value"`
	Cash       float64 `json:"cash"`
	ROIPercent float64 `json:"roi_percent"`
	// Approximate is set when held symbols were missing from the price
	// snapshot and contributed 0 to the total.
	Approximate bool `json:"approximate,omitempty"`
}

type OrderReq struct {
	Symbol string
	Side   string // "buy" or "sell"
	Qty    int
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// CycleResult summarizes one orchestrator cycle for the process log.
type CycleResult struct {
	Decision   Decision    `json:"decision"`
	Executed   int         `json:"executed"`
	Record     TradeRecord `json:"record"`
	Valuation  Valuation   `json:"valuation"`
	Mirrored   bool        `json:"mirrored,omitempty"`
	MirrorErr  string      `json:"mirror_err,omitempty"`
	PricedSyms int         `json:"priced_syms"`
}
