package interfaces

import (
	"context"

	"llm-trader/internal/types"
)

type Engine interface {
	Cycle(ctx context.Context) (*types.CycleResult, error)
}
