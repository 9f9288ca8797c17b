package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/ledger"
	"llm-trader/internal/store"
	"llm-trader/internal/types"
)

type fakeQuoter struct {
	snap types.Snapshot
	err  error
}

func (f *fakeQuoter) Snapshot(ctx context.Context, symbols []string) (types.Snapshot, error) {
	return f.snap, f.err
}

type fakeDecider struct {
	raw string
	err error
}

func (f *fakeDecider) Decide(ctx context.Context, prompt string) (string, error) {
	return f.raw, f.err
}

type fakeBroker struct {
	reqs []types.OrderReq
	err  error
}

func (f *fakeBroker) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return types.OrderResp{}, f.err
	}
	return types.OrderResp{OrderID: "ord-1", Status: "accepted"}, nil
}

type fakeNotifier struct {
	bodies []string
	err    error
}

func (f *fakeNotifier) Send(ctx context.Context, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.bodies = append(f.bodies, body)
	return nil
}

func testConfig() *store.Config {
	cfg := &store.Config{
		Mode:         "PAPER",
		DataSource:   "STATIC",
		PollSeconds:  60,
		Symbols:      []string{"TQQQ", "QQQ", "SOXL", "NVDA", "COIN"},
		StartingCash: 100000,
		RiskPercent:  90,
	}
	cfg.LLM.TimeoutSeconds = 5
	cfg.Broker.TimeoutSeconds = 5
	cfg.Report.SendAfter = "16:00"
	return cfg
}

func fullSnapshot() types.Snapshot {
	return types.Snapshot{
		"TQQQ": {Price: 10},
		"QQQ":  {Price: 400},
		"SOXL": {Price: 25},
		"NVDA": {Price: 500},
		"COIN": {Price: 150},
	}
}

func newTestEngine(t *testing.T, cfg *store.Config, q *fakeQuoter, d *fakeDecider, b *fakeBroker, n *fakeNotifier) *Engine {
	t.Helper()
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	book := ledger.New(cfg.StartingCash, cfg.Symbols)

	// A typed nil fake would defeat the engine's nil checks.
	var brk interfaces.Broker
	if b != nil {
		brk = b
	}
	var notifier interfaces.Notifier
	if n != nil {
		notifier = n
	}
	return New(cfg, q, d, brk, book, nil, notifier)
}

func TestCycleClampsBuyToRiskCap(t *testing.T) {
	cfg := testConfig()
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"buy","qty":20000,"reasoning":"momentum"}`},
		nil, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 9000, res.Executed)
	assert.Equal(t, "BUY 9000 TQQQ", res.Record.Action)
	assert.Equal(t, 10000.0, eng.Book().Cash())
	assert.Equal(t, 9000, eng.Book().Position("TQQQ"))
	// Valuation is taken before the trade applies.
	assert.InDelta(t, 100000.0, res.Valuation.TotalValue, 1e-9)
	assert.Equal(t, 5, res.PricedSyms)
}

func TestCycleRejectsOversizedSell(t *testing.T) {
	cfg := testConfig()
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"sell","qty":100,"reasoning":"exit"}`},
		nil, nil,
	)
	_, err := eng.Book().Apply(time.Now(), "TQQQ", types.ActionBuy, 50, 10, "seed")
	require.NoError(t, err)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Executed)
	assert.Equal(t, "HOLD", res.Record.Side)
	assert.Equal(t, 50, eng.Book().Position("TQQQ"))
}

func TestCycleDeciderErrorDegradesToHold(t *testing.T) {
	cfg := testConfig()
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{err: errors.New("api unavailable")},
		nil, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.ActionHold, res.Decision.Action)
	assert.Equal(t, "TQQQ", res.Decision.Symbol)
	assert.Equal(t, "HOLD", res.Record.Side)
	assert.Equal(t, 100000.0, eng.Book().Cash())
}

func TestCycleSurvivesPartialSnapshotAndGarbage(t *testing.T) {
	cfg := testConfig()
	snap := fullSnapshot()
	delete(snap, "COIN")
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: snap},
		&fakeDecider{raw: "I am unable to decide today, sorry!"},
		nil, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.PricedSyms)
	assert.Equal(t, "HOLD", res.Record.Side)
	assert.False(t, res.Valuation.Approximate)
}

func TestCycleHoldsOnUntradeableSymbol(t *testing.T) {
	cfg := testConfig()
	snap := fullSnapshot()
	delete(snap, "NVDA")
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: snap},
		&fakeDecider{raw: `{"symbol":"NVDA","action":"buy","qty":10,"reasoning":"dip"}`},
		nil, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Executed)
	assert.Equal(t, "HOLD", res.Record.Side)
	assert.Equal(t, 100000.0, eng.Book().Cash())
}

func TestCycleRewritesHallucinatedSymbol(t *testing.T) {
	cfg := testConfig()
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"GME","action":"buy","qty":5,"reasoning":"yolo"}`},
		nil, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "TQQQ", res.Decision.Symbol)
	assert.Equal(t, 5, res.Executed)
	assert.Equal(t, 5, eng.Book().Position("TQQQ"))
}

func TestCycleSnapshotFailureAborts(t *testing.T) {
	cfg := testConfig()
	eng := newTestEngine(t, cfg,
		&fakeQuoter{err: errors.New("feed down")},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"buy","qty":1}`},
		nil, nil,
	)

	_, err := eng.Cycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, 100000.0, eng.Book().Cash())
}

func TestCycleMirrorsAppliedTradeInLiveMode(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "LIVE"
	brk := &fakeBroker{}
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"buy","qty":100,"reasoning":"momentum"}`},
		brk, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Mirrored)
	require.Len(t, brk.reqs, 1)
	assert.Equal(t, types.OrderReq{Symbol: "TQQQ", Side: types.ActionBuy, Qty: 100}, brk.reqs[0])
}

func TestCycleMirrorFailureLeavesBookApplied(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "LIVE"
	brk := &fakeBroker{err: errors.New("order rejected")}
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"buy","qty":100,"reasoning":"momentum"}`},
		brk, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Mirrored)
	assert.Contains(t, res.MirrorErr, "order rejected")
	assert.Equal(t, 100, eng.Book().Position("TQQQ"))
	assert.Equal(t, 99000.0, eng.Book().Cash())
}

func TestCyclePaperModeNeverMirrors(t *testing.T) {
	cfg := testConfig()
	brk := &fakeBroker{}
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"buy","qty":100,"reasoning":"momentum"}`},
		brk, nil,
	)

	res, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Mirrored)
	assert.Empty(t, brk.reqs)
	assert.Equal(t, 100, eng.Book().Position("TQQQ"))
}

func TestCycleSendsDailySummaryOnce(t *testing.T) {
	cfg := testConfig()
	cfg.Report.Enabled = true
	ntf := &fakeNotifier{}
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"hold","qty":0}`},
		nil, ntf,
	)
	fixed := time.Date(2026, 8, 28, 16, 30, 0, 0, time.Local)
	eng.now = func() time.Time { return fixed }

	_, err := eng.Cycle(context.Background())
	require.NoError(t, err)
	_, err = eng.Cycle(context.Background())
	require.NoError(t, err)

	require.Len(t, ntf.bodies, 1)
	assert.Contains(t, ntf.bodies[0], "Mode: PAPER")
}

func TestCycleRetriesSummaryAfterSendFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Report.Enabled = true
	ntf := &fakeNotifier{err: errors.New("telegram down")}
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: `{"symbol":"TQQQ","action":"hold","qty":0}`},
		nil, ntf,
	)
	fixed := time.Date(2026, 8, 28, 16, 30, 0, 0, time.Local)
	eng.now = func() time.Time { return fixed }

	_, err := eng.Cycle(context.Background())
	require.NoError(t, err)

	ntf.err = nil
	_, err = eng.Cycle(context.Background())
	require.NoError(t, err)

	require.Len(t, ntf.bodies, 1)
}

func TestBuildPromptContainsAccountState(t *testing.T) {
	cfg := testConfig()
	eng := newTestEngine(t, cfg,
		&fakeQuoter{snap: fullSnapshot()},
		&fakeDecider{raw: "{}"},
		nil, nil,
	)

	snap := fullSnapshot()
	snap["TQQQ"] = types.Quote{Price: 10.456, Volume: 120000, ChangePct: 1.234}

	prompt := eng.buildPrompt(snap)
	assert.Contains(t, prompt, "Cash $100000")
	assert.Contains(t, prompt, "Risk 90%")
	assert.Contains(t, prompt, `"price":10.46`)
	assert.Contains(t, prompt, `"volume":120000`)
	assert.Contains(t, prompt, `"change_pct":1.23`)
	assert.Contains(t, prompt, "Respond ONLY with JSON")
}
