package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/swingtrader/aggregator"
	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/audit"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/config"
	sqlite "github.com/thrasher-corp/swingtrader/database/drivers/sqlite3"
	positionrepo "github.com/thrasher-corp/swingtrader/database/repository/position"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/execution"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/portfolio"
	"github.com/thrasher-corp/swingtrader/portfolio/lifecycle"
	"github.com/thrasher-corp/swingtrader/portfolio/risk"
)

var (
	testTime        = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	errStubStrategy = errors.New("stub strategy failure")
)

type stubStrategy struct {
	name       string
	target     float64
	confidence float64
	err        error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Description() string { return "enters every symbol at the latest close" }

func (s *stubStrategy) Evaluate(snap *analysis.Snapshot) (*signal.Signal, error) {
	if s.err != nil {
		return nil, s.err
	}
	entry := decimal.NewFromFloat(snap.Latest.Close)
	return signal.New(snap.Symbol, s.name,
		entry,
		entry.Mul(decimal.NewFromFloat(0.98)),
		entry.Mul(decimal.NewFromFloat(s.target)),
		s.confidence,
		snap.Time), nil
}

// pendingGateway accepts entries without filling them
type pendingGateway struct{}

func (pendingGateway) SubmitEntry(context.Context, *order.PositionRequest) (*execution.Fill, error) {
	return nil, nil
}

func (pendingGateway) SubmitExit(context.Context, *order.ExitInstruction) error { return nil }

func bars(symbol string, base float64, n int) []kline.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	resp := make([]kline.Bar, n)
	for i := range resp {
		p := base + float64(i)
		resp[i] = kline.Bar{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, i),
			Open:   p,
			High:   p + 1,
			Low:    p - 1,
			Close:  p,
			Volume: 1000,
		}
	}
	return resp
}

func testHistory() map[string][]kline.Bar {
	return map[string][]kline.Bar{
		"AAPL":  bars("AAPL", 100, 60),
		"MSFT":  bars("MSFT", 300, 60),
		"SHORT": bars("SHORT", 50, 10),
	}
}

func newTestEngine(t *testing.T, cfg *config.Config, opts ...Option) (*Engine, *audit.Memory) {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	mem := &audit.Memory{}
	opts = append([]Option{
		WithStrategies(&stubStrategy{name: "alpha", target: 1.07, confidence: 0.8}),
		WithSink(mem),
		WithClock(func() time.Time { return testTime }),
	}, opts...)
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	return e, mem
}

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	assert.ErrorIs(t, err, common.ErrNilPointer)

	cfg := config.DefaultConfig()
	cfg.Risk.MinRewardRatio = 0
	_, err = New(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidRiskParameter)

	cfg = config.DefaultConfig()
	cfg.Strategies = []config.StrategySettings{{Name: "breakout", Enabled: false}}
	_, err = New(cfg)
	if !errors.Is(err, ErrNoStrategies) {
		t.Errorf("received '%v' expected '%v'", err, ErrNoStrategies)
	}

	e, err := New(config.DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, e.handlers, 4)

	_, err = New(config.DefaultConfig(), WithGateway(nil))
	assert.ErrorIs(t, err, common.ErrNilPointer)
	_, err = New(config.DefaultConfig(), WithSink(nil))
	assert.ErrorIs(t, err, common.ErrNilPointer)
	_, err = New(config.DefaultConfig(), WithDatabase(nil))
	assert.ErrorIs(t, err, common.ErrNilPointer)
	_, err = New(config.DefaultConfig(), WithClock(nil))
	assert.ErrorIs(t, err, common.ErrNilPointer)
	_, err = New(config.DefaultConfig(), WithStrategies(nil))
	assert.ErrorIs(t, err, common.ErrNilPointer)

	e, err = New(config.DefaultConfig(), WithWorkers(0))
	require.NoError(t, err)
	assert.Equal(t, 1, e.workers)
}

func TestEvaluateCycle(t *testing.T) {
	t.Parallel()
	e, mem := newTestEngine(t, nil)
	c, err := e.EvaluateCycle(context.Background(), nil, testHistory(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Evaluated)
	assert.ErrorIs(t, c.Errors, analysis.ErrInsufficientHistory)
	require.Len(t, c.Signals, 2)
	require.Len(t, c.Requests, 2)
	assert.Empty(t, c.Rejections)

	assert.Equal(t, "AAPL", c.Requests[0].Symbol, "equal scores rank by symbol")
	assert.Equal(t, int64(125), c.Requests[0].Quantity)
	assert.Equal(t, "MSFT", c.Requests[1].Symbol)
	assert.Equal(t, int64(55), c.Requests[1].Quantity)
	assert.Equal(t, testTime, c.Requests[0].Time)

	snap := e.Ledger().Snapshot()
	assert.Len(t, snap.Pending, 2)
	assert.True(t, snap.AvailableCapital.Equal(decimal.NewFromInt(100000-19875-19745)))

	counts := mem.Count()
	assert.Equal(t, 2, counts[audit.SignalGenerated])
	assert.Equal(t, 2, counts[audit.PositionRequested])
	assert.Equal(t, 1, counts[audit.SessionSummary])

	requests, err := e.Evaluate(context.Background(), nil, testHistory(), nil)
	require.NoError(t, err)
	assert.Empty(t, requests, "active symbols are not entered twice")
	dropped := mem.Events(audit.SignalDropped)
	require.Len(t, dropped, 2)
	assert.Contains(t, dropped[0].Message, aggregator.ErrSymbolActive.Error())
}

func TestEvaluateStrategyErrors(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, WithStrategies(
		&stubStrategy{name: "broken", err: errStubStrategy},
		&stubStrategy{name: "weak", target: 1.07, confidence: 0.5},
	))
	c, err := e.EvaluateCycle(context.Background(), []string{"AAPL"}, testHistory(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Evaluated)
	require.Len(t, c.Signals, 1)
	assert.Empty(t, c.Requests)
	require.Len(t, c.Dropped, 1)
	assert.ErrorIs(t, c.Dropped[0].Err, aggregator.ErrLowConfidence)
}

func TestEvaluateStalePrice(t *testing.T) {
	t.Parallel()
	e, mem := newTestEngine(t, nil)
	live := func(symbol string) (decimal.Decimal, bool) {
		if symbol == "AAPL" {
			return decimal.NewFromInt(170), true
		}
		return decimal.Zero, false
	}
	c, err := e.EvaluateCycle(context.Background(), nil, testHistory(), live)
	require.NoError(t, err)
	require.Len(t, c.Requests, 1)
	assert.Equal(t, "MSFT", c.Requests[0].Symbol)
	require.Len(t, c.Rejections, 1)
	assert.ErrorIs(t, c.Rejections[0].Err, risk.ErrStalePrice)
	assert.Len(t, mem.Events(audit.SignalRejected), 1)
}

func TestEvaluateCancelled(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Evaluate(ctx, nil, testHistory(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, e.Ledger().ActiveCount())
}

func TestExecute(t *testing.T) {
	t.Parallel()
	paper := execution.NewPaper("MSFT")
	e, mem := newTestEngine(t, nil, WithGateway(paper))
	requests, err := e.Evaluate(context.Background(), nil, testHistory(), nil)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	x, err := e.Execute(context.Background(), requests)
	require.NoError(t, err)
	require.NoError(t, x.Errors)
	require.Len(t, x.Opened, 1)
	assert.Equal(t, "AAPL", x.Opened[0].Symbol)
	assert.Equal(t, portfolio.Open, x.Opened[0].State)
	require.Len(t, x.Rejected, 1)
	assert.ErrorIs(t, x.Rejected[0].Err, lifecycle.ErrExecutionRejected)

	assert.False(t, e.Ledger().HasActive("MSFT"))
	snap := e.Ledger().Snapshot()
	assert.True(t, snap.AvailableCapital.Equal(decimal.NewFromInt(100000-19875)))
	assert.Len(t, mem.Events(audit.PositionOpened), 1)
	assert.Len(t, mem.Events(audit.PositionDiscarded), 1)

	_, err = newTestEngineNoGateway(t).Execute(context.Background(), requests)
	assert.ErrorIs(t, err, errNoGateway)
}

func newTestEngineNoGateway(t *testing.T) *Engine {
	t.Helper()
	e, _ := newTestEngine(t, nil)
	return e
}

func TestExpirePending(t *testing.T) {
	t.Parallel()
	e, mem := newTestEngine(t, nil, WithGateway(pendingGateway{}))
	requests, err := e.Evaluate(context.Background(), nil, testHistory(), nil)
	require.NoError(t, err)
	x, err := e.Execute(context.Background(), requests)
	require.NoError(t, err)
	assert.Len(t, x.Pending, 2)

	assert.Empty(t, e.ExpirePending(context.Background(), testTime.Add(time.Second)))
	discards := e.ExpirePending(context.Background(), testTime.Add(config.DefaultFillTimeout))
	require.Len(t, discards, 2)
	assert.ErrorIs(t, discards[0].Err, lifecycle.ErrExecutionTimeout)
	assert.Zero(t, e.Ledger().ActiveCount())
	assert.Len(t, mem.Events(audit.PositionDiscarded), 2)

	_, err = e.ConfirmFill(context.Background(), requests[0].ID, decimal.Zero, testTime)
	assert.ErrorIs(t, err, portfolio.ErrPositionNotFound)
}

func TestOnTickAndBreaker(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.Risk.DailyLossLimit = decimal.NewFromInt(500)
	paper := execution.NewPaper()
	e, mem := newTestEngine(t, cfg, WithGateway(paper))
	history := testHistory()
	delete(history, "MSFT")
	requests, err := e.Evaluate(context.Background(), nil, history, nil)
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), requests)
	require.NoError(t, err)

	exits, err := e.OnTick(context.Background(), kline.Tick{Symbol: "AAPL", Price: decimal.NewFromInt(160), Time: testTime.Add(time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, exits)

	exits, err = e.OnTick(context.Background(), kline.Tick{Symbol: "AAPL", Price: decimal.NewFromInt(150), Time: testTime.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, exits, 1)
	assert.Equal(t, order.ClosedLoss, exits[0].Reason)
	assert.Len(t, paper.Exits(), 1)
	closed := mem.Events(audit.PositionClosed)
	require.Len(t, closed, 1)
	assert.Contains(t, closed[0].Message, "-1125")

	snap := e.Ledger().Snapshot()
	assert.True(t, snap.DailyRealizedPnL.Equal(decimal.NewFromInt(-1125)))
	assert.True(t, snap.BreakerTripped)

	c, err := e.EvaluateCycle(context.Background(), nil, map[string][]kline.Bar{"NVDA": bars("NVDA", 400, 60)}, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Requests)
	require.NotEmpty(t, c.Rejections)
	for i := range c.Rejections {
		assert.ErrorIs(t, c.Rejections[i].Err, risk.ErrDailyLossBreached)
	}

	e.ResetSession()
	requests, err = e.Evaluate(context.Background(), []string{"NVDA"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "NVDA", requests[0].Symbol)
}

func TestClosePosition(t *testing.T) {
	t.Parallel()
	paper := execution.NewPaper()
	e, _ := newTestEngine(t, nil, WithGateway(paper))
	requests, err := e.Evaluate(context.Background(), []string{"AAPL"}, testHistory(), nil)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	_, err = e.Execute(context.Background(), requests)
	require.NoError(t, err)

	exit, err := e.ClosePosition(context.Background(), requests[0].ID, decimal.NewFromInt(165), testTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, order.ClosedManual, exit.Reason)
	assert.True(t, e.Ledger().Snapshot().DailyRealizedPnL.Equal(decimal.NewFromInt(750)))

	_, err = e.ClosePosition(context.Background(), requests[0].ID, decimal.NewFromInt(165), testTime.Add(time.Hour))
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Len(t, paper.Exits(), 1)
}

func TestResume(t *testing.T) {
	t.Parallel()
	_, err := newTestEngineNoGateway(t).Resume(context.Background())
	assert.ErrorIs(t, err, errNoDatabase)

	db, err := sqlite.Connect(context.Background(), filepath.Join(t.TempDir(), "resume.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.CloseConnection()) })

	first, _ := newTestEngine(t, nil, WithGateway(execution.NewPaper()), WithDatabase(db))
	requests, err := first.Evaluate(context.Background(), nil, testHistory(), nil)
	require.NoError(t, err)
	_, err = first.Execute(context.Background(), requests)
	require.NoError(t, err)

	second, _ := newTestEngine(t, nil, WithDatabase(db))
	n, err := second.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	snap := second.Ledger().Snapshot()
	require.Len(t, snap.Open, 2)
	assert.Equal(t, "AAPL", snap.Open[0].Symbol)
	assert.True(t, snap.AvailableCapital.Equal(decimal.NewFromInt(100000-19875-19745)))

	_, err = second.ClosePosition(context.Background(), snap.Open[0].ID, decimal.NewFromInt(170), testTime.Add(time.Hour))
	require.NoError(t, err)
	open, err := positionrepo.LoadByState(context.Background(), db, portfolio.Open)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "MSFT", open[0].Symbol)
}

func TestConcurrentTicksAndCycles(t *testing.T) {
	t.Parallel()
	e, _ := newTestEngine(t, nil, WithGateway(execution.NewPaper()))
	requests, err := e.Evaluate(context.Background(), nil, testHistory(), nil)
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), requests)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			price := decimal.NewFromInt(int64(150 + i))
			_, tickErr := e.OnTick(context.Background(), kline.Tick{Symbol: "AAPL", Price: price, Time: testTime.Add(time.Minute)})
			assert.NoError(t, tickErr)
		}(i)
		go func() {
			defer wg.Done()
			_, evalErr := e.Evaluate(context.Background(), nil, map[string][]kline.Bar{"NVDA": bars("NVDA", 400, 60)}, nil)
			assert.NoError(t, evalErr)
		}()
	}
	wg.Wait()
	require.NoError(t, e.Ledger().Verify())
	assert.LessOrEqual(t, e.Ledger().ActiveCount(), config.DefaultRiskParameters().MaxPositions)
	assert.Len(t, e.Ledger().Closed(), 1, "AAPL closes once")
}
