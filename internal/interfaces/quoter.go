package interfaces

import (
	"context"

	"llm-trader/internal/types"
)

// Quoter returns the current price snapshot for a set of symbols.
// A partial snapshot is a valid result: symbols whose fetch failed are
// absent from the map.
type Quoter interface {
	Snapshot(ctx context.Context, symbols []string) (types.Snapshot, error)
}
