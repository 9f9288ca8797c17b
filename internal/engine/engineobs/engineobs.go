package engineobs

import (
	"context"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/trace"
	"llm-trader/internal/types"
)

// observableEngine wraps an Engine with observability (logging & tracing)
type observableEngine struct {
	engine interfaces.Engine
}

// Compile-time interface check
var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap wraps an engine with observability middleware
func Wrap(engine interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: engine}
}

func (oe *observableEngine) Cycle(ctx context.Context) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Cycle")
	defer span.End()

	result, err := oe.engine.Cycle(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Cycle failed", err)
		return nil, err
	}

	logger.Info(ctx, "Cycle completed",
		"action", result.Record.Action,
		"price", result.Record.Price,
		"total_value", result.Valuation.TotalValue,
		"roi_pct", result.Valuation.ROIPercent,
		"priced_syms", result.PricedSyms,
	)
	return result, nil
}
