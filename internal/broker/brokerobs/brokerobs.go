package brokerobs

import (
	"context"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/trace"
	"llm-trader/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.SubmitOrder")
	defer span.End()

	logger.Debug(ctx, "Submitting order", "symbol", req.Symbol, "side", req.Side, "qty", req.Qty)

	resp, err := ob.broker.SubmitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order submission failed", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderResp{}, err
	}

	logger.Info(ctx, "Order submitted",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}
