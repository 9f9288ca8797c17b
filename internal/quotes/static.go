package quotes

import (
	"context"
	"math/rand"
	"sync"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/types"
)

// Static generates a jittered random walk per symbol for offline runs and
// tests. Selected by data_source: STATIC.
type Static struct {
	mu   sync.Mutex
	last map[string]float64
}

var _ interfaces.Quoter = (*Static)(nil)

func NewStatic() *Static {
	return &Static{last: make(map[string]float64)}
}

func (s *Static) Snapshot(ctx context.Context, symbols []string) (types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(types.Snapshot, len(symbols))
	for _, sym := range symbols {
		p, ok := s.last[sym]
		if !ok {
			p = 50 + rand.Float64()*950
		}
		p = p * (1 + (rand.Float64()-0.5)*0.02)
		s.last[sym] = p
		snap[sym] = types.Quote{
			Price:  p,
			Volume: rand.Float64() * 1e6,
		}
	}
	return snap, nil
}
