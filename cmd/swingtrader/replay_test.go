package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/audit"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/engine"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/execution"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

// closeEntry enters every symbol at its latest close
type closeEntry struct{}

func (closeEntry) Name() string { return "close" }

func (closeEntry) Description() string { return "enters at the latest close" }

func (closeEntry) Evaluate(snap *analysis.Snapshot) (*signal.Signal, error) {
	entry := decimal.NewFromFloat(snap.Latest.Close)
	return signal.New(snap.Symbol, "close",
		entry,
		entry.Mul(decimal.NewFromFloat(0.98)),
		entry.Mul(decimal.NewFromFloat(1.07)),
		0.8,
		snap.Time), nil
}

// risingBars returns n daily bars climbing one point a day
func risingBars(symbol string, base float64, n int) []kline.Bar {
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

func newReplayEngine(t *testing.T, g execution.Gateway) (*engine.Engine, *simClock, *audit.Memory) {
	t.Helper()
	clock := &simClock{}
	mem := &audit.Memory{}
	e, err := engine.New(config.DefaultConfig(),
		engine.WithStrategies(closeEntry{}),
		engine.WithGateway(g),
		engine.WithSink(mem),
		engine.WithClock(clock.Now),
	)
	require.NoError(t, err)
	return e, clock, mem
}

func TestReplay(t *testing.T) {
	t.Parallel()
	paper := execution.NewPaper()
	e, clock, mem := newReplayEngine(t, paper)

	_, err := replay(context.Background(), e, clock, nil, mem)
	assert.ErrorIs(t, err, errNoBars)

	bars := risingBars("AAPL", 100, 70)
	res, err := replay(context.Background(), e, clock, bars, mem)
	require.NoError(t, err)
	assert.Equal(t, 70, res.Steps)
	assert.Positive(t, res.Requests)
	assert.Equal(t, res.Requests, res.Opened, "the paper gateway fills every request")
	assert.Len(t, paper.Entries(), res.Opened)

	var exits int
	for reason, n := range res.Exits {
		assert.Contains(t, []order.Reason{order.ClosedProfit, order.ClosedTimeExit}, reason, "a rising series never stops out")
		exits += n
	}
	assert.Positive(t, exits)
	assert.Len(t, paper.Exits(), exits)
	assert.True(t, res.Portfolio.TotalCapital.GreaterThan(decimal.NewFromInt(100000)), "every exit on a rising series should be profitable")
	assert.Positive(t, res.ReturnPct)
	assert.Positive(t, res.AvgTradePnL)
	assert.False(t, res.Portfolio.DrawdownHalted, "a rising series never trips the drawdown limit")
	assert.Equal(t, res.Requests, res.Audit[audit.PositionRequested])
	assert.GreaterOrEqual(t, res.Audit[audit.SessionSummary], 70, "every cycle should record a session summary")
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), clock.Now())
	assert.NoError(t, e.Ledger().Verify())
}

func TestReplayRejectedFills(t *testing.T) {
	t.Parallel()
	e, clock, mem := newReplayEngine(t, execution.NewPaper("aapl"))
	res, err := replay(context.Background(), e, clock, risingBars("AAPL", 100, 60), mem)
	require.NoError(t, err)
	assert.Positive(t, res.Requests)
	assert.Zero(t, res.Opened)
	assert.Equal(t, res.Requests, res.Discarded)
	assert.Empty(t, res.Portfolio.Open)
	assert.Empty(t, res.Portfolio.Pending)
	assert.True(t, res.Portfolio.AvailableCapital.Equal(decimal.NewFromInt(100000)), "released reservations should restore capital")
}

func TestReplayCancelled(t *testing.T) {
	t.Parallel()
	e, clock, mem := newReplayEngine(t, execution.NewPaper())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := replay(ctx, e, clock, risingBars("AAPL", 100, 60), mem)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSession(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.Execution.SubmitRate = 0
	s, err := newSession(context.Background(), cfg, time.Now, "msft")
	require.NoError(t, err)
	assert.Nil(t, s.db)
	assert.NoError(t, s.resume(context.Background()), "resume without a database is a no-op")
	s.close()

	cfg = config.DefaultConfig()
	cfg.Database.Enabled = true
	cfg.Database.Path = filepath.Join(t.TempDir(), "swing.db")
	s, err = newSession(context.Background(), cfg, time.Now)
	require.NoError(t, err)
	require.NotNil(t, s.db)
	assert.True(t, s.db.IsConnected())
	assert.NoError(t, s.resume(context.Background()))
	s.close()
	assert.False(t, s.db.IsConnected())

	cfg.InitialCapital = decimal.Zero
	_, err = newSession(context.Background(), cfg, time.Now)
	assert.Error(t, err)
}

func TestSessionResume(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.Database.Enabled = true
	cfg.Database.Path = filepath.Join(t.TempDir(), "swing.db")
	cfg.Execution.SubmitRate = 0

	s, err := newSession(context.Background(), cfg, time.Now)
	require.NoError(t, err)
	clock := &simClock{}
	e, err := engine.New(cfg,
		engine.WithStrategies(closeEntry{}),
		engine.WithGateway(s.paper),
		engine.WithDatabase(s.db),
		engine.WithSink(s.memory),
		engine.WithClock(clock.Now),
	)
	require.NoError(t, err)
	res, err := replay(context.Background(), e, clock, risingBars("AAPL", 100, 52), nil)
	require.NoError(t, err)
	require.Len(t, res.Portfolio.Open, 1)
	assert.Nil(t, res.Audit)

	require.NoError(t, s.resume(context.Background()))
	open := s.engine.Ledger().Positions(portfolio.Open)
	require.Len(t, open, 1)
	assert.Equal(t, res.Portfolio.Open[0].ID, open[0].ID)
	s.close()
}
