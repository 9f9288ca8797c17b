package quotes

import (
	"context"
	"errors"
	"sync"

	"github.com/piquette/finance-go/quote"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/logger"
	"llm-trader/internal/types"
)

// Yahoo fetches last prices from Yahoo Finance, one request per symbol,
// fanned out concurrently behind a shared rate limiter. A failed symbol is
// logged and omitted from the snapshot; only an empty snapshot is an error.
type Yahoo struct {
	limiter *rate.Limiter
}

var _ interfaces.Quoter = (*Yahoo)(nil)

func NewYahoo() *Yahoo {
	// Yahoo's unauthenticated endpoints throttle aggressively.
	return &Yahoo{limiter: rate.NewLimiter(rate.Limit(5), 5)}
}

func (y *Yahoo) Snapshot(ctx context.Context, symbols []string) (types.Snapshot, error) {
	snap := make(types.Snapshot, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			if err := y.limiter.Wait(gctx); err != nil {
				return err
			}
			q, err := quote.Get(sym)
			if err != nil || q == nil {
				logger.Warn(gctx, "Price fetch failed", "symbol", sym, "error", err)
				return nil
			}
			if q.RegularMarketPrice <= 0 {
				logger.Warn(gctx, "Non-positive price, symbol untradeable this cycle", "symbol", sym, "price", q.RegularMarketPrice)
				return nil
			}
			mu.Lock()
			snap[sym] = types.Quote{
				Price:     q.RegularMarketPrice,
				Volume:    float64(q.RegularMarketVolume),
				ChangePct: q.RegularMarketChangePercent,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return snap, err
	}
	if len(snap) == 0 {
		return snap, errors.New("price snapshot empty: all symbols failed")
	}
	return snap, nil
}
