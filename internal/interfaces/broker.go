package interfaces

import (
	"context"

	"llm-trader/internal/types"
)

// Broker mirrors an applied decision to a real venue as a market order.
// The ledger is authoritative: a broker failure is logged, never rolled
// back into the book.
type Broker interface {
	SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
