package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

// monday
var requestTime = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, params config.RiskParameters) (*Manager, *portfolio.Ledger) {
	t.Helper()
	l, err := portfolio.NewLedger(decimal.NewFromInt(100000), portfolio.Limits{
		MaxPositions:   params.MaxPositions,
		MaxPositionPct: params.MaxPositionPct,
		DailyLossLimit: params.DailyLossLimit,
	})
	require.NoError(t, err)
	m, err := NewManager(params, l)
	require.NoError(t, err)
	require.NoError(t, l.Reserve(&portfolio.Position{
		ID:          "pos-1",
		Symbol:      "AAPL",
		Strategy:    "breakout",
		Entry:       decimal.NewFromInt(100),
		Stop:        decimal.NewFromInt(98),
		Target:      decimal.NewFromInt(106),
		Quantity:    100,
		RequestTime: requestTime,
	}))
	return m, l
}

func openTestPosition(t *testing.T, params config.RiskParameters) (*Manager, *portfolio.Ledger) {
	t.Helper()
	m, l := newTestManager(t, params)
	_, err := m.ConfirmFill("pos-1", decimal.Zero, requestTime)
	require.NoError(t, err)
	return m, l
}

func tick(price float64, at time.Time) kline.Tick {
	return kline.Tick{Symbol: "AAPL", Price: decimal.NewFromFloat(price), Time: at}
}

func TestNewManager(t *testing.T) {
	t.Parallel()
	_, err := NewManager(config.DefaultRiskParameters(), nil)
	assert.ErrorIs(t, err, common.ErrNilPointer)

	l, err := portfolio.NewLedger(decimal.NewFromInt(1), portfolio.Limits{MaxPositions: 1, MaxPositionPct: decimal.NewFromInt(1)})
	require.NoError(t, err)
	params := config.DefaultRiskParameters()
	params.FillTimeout = 0
	_, err = NewManager(params, l)
	assert.ErrorIs(t, err, config.ErrInvalidRiskParameter)
}

func TestConfirmFill(t *testing.T) {
	t.Parallel()
	m, l := newTestManager(t, config.DefaultRiskParameters())
	p, err := m.ConfirmFill("pos-1", decimal.Zero, requestTime.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, portfolio.Open, p.State)
	assert.True(t, p.Entry.Equal(decimal.NewFromInt(100)))

	_, err = m.ConfirmFill("pos-1", decimal.Zero, requestTime)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidTransition)
	}
	_, err = m.ConfirmFill("missing", decimal.Zero, requestTime)
	assert.ErrorIs(t, err, portfolio.ErrPositionNotFound)
	assert.Len(t, l.Positions(portfolio.Open), 1)
}

func TestRejectFill(t *testing.T) {
	t.Parallel()
	m, l := newTestManager(t, config.DefaultRiskParameters())
	d, err := m.RejectFill("pos-1", "symbol halted")
	require.NoError(t, err)
	assert.ErrorIs(t, d.Err, ErrExecutionRejected)
	assert.Equal(t, "AAPL", d.Position.Symbol)
	assert.False(t, l.HasActive("AAPL"))
	assert.True(t, l.Snapshot().AvailableCapital.Equal(decimal.NewFromInt(100000)))

	_, err = m.RejectFill("pos-1", "again")
	assert.ErrorIs(t, err, portfolio.ErrPositionNotFound)
}

func TestRejectFillOpenPosition(t *testing.T) {
	t.Parallel()
	m, _ := openTestPosition(t, config.DefaultRiskParameters())
	_, err := m.RejectFill("pos-1", "late reject")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestExpirePending(t *testing.T) {
	t.Parallel()
	m, l := newTestManager(t, config.DefaultRiskParameters())
	assert.Empty(t, m.ExpirePending(requestTime.Add(29*time.Second)))
	assert.True(t, l.HasActive("AAPL"))

	discards := m.ExpirePending(requestTime.Add(config.DefaultFillTimeout))
	require.Len(t, discards, 1)
	assert.ErrorIs(t, discards[0].Err, ErrExecutionTimeout)
	assert.False(t, l.HasActive("AAPL"))
	assert.Empty(t, m.ExpirePending(requestTime.Add(time.Hour)))
}

func TestExpirePendingIgnoresOpen(t *testing.T) {
	t.Parallel()
	m, l := openTestPosition(t, config.DefaultRiskParameters())
	assert.Empty(t, m.ExpirePending(requestTime.Add(time.Hour)))
	assert.True(t, l.HasActive("AAPL"))
}

func TestOnTickExits(t *testing.T) {
	t.Parallel()
	friday := requestTime.AddDate(0, 0, 4)
	nextMonday := requestTime.AddDate(0, 0, 7)
	for _, tt := range []struct {
		name   string
		tick   kline.Tick
		reason order.Reason
		pnl    int64
	}{
		{name: "stop", tick: tick(98, requestTime.Add(time.Hour)), reason: order.ClosedLoss, pnl: -200},
		{name: "gap through stop", tick: tick(95, requestTime.Add(time.Hour)), reason: order.ClosedLoss, pnl: -500},
		{name: "target", tick: tick(106, requestTime.Add(time.Hour)), reason: order.ClosedProfit, pnl: 600},
		{name: "time exit", tick: tick(101, nextMonday), reason: order.ClosedTimeExit, pnl: 100},
		{name: "stop before time exit", tick: tick(97, nextMonday), reason: order.ClosedLoss, pnl: -300},
		{name: "target before time exit", tick: tick(107, nextMonday), reason: order.ClosedProfit, pnl: 700},
		{name: "hold", tick: tick(101, friday)},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, l := openTestPosition(t, config.DefaultRiskParameters())
			e, _, err := m.OnTick(tt.tick)
			require.NoError(t, err)
			if tt.reason == "" {
				assert.Nil(t, e)
				assert.True(t, l.HasActive("AAPL"))
				return
			}
			require.NotNil(t, e)
			require.NoError(t, e.Validate())
			assert.Equal(t, tt.reason, e.Reason)
			assert.Equal(t, int64(100), e.Quantity)
			assert.True(t, e.Price.Equal(tt.tick.Price))

			snap := l.Snapshot()
			pnl := decimal.NewFromInt(tt.pnl)
			assert.True(t, snap.DailyRealizedPnL.Equal(pnl), "daily realized %v", snap.DailyRealizedPnL)
			assert.True(t, snap.TotalCapital.Equal(decimal.NewFromInt(100000).Add(pnl)))
			assert.True(t, snap.AvailableCapital.Equal(snap.TotalCapital))
			assert.Empty(t, snap.Open)
		})
	}
}

func TestOnTick(t *testing.T) {
	t.Parallel()
	m, l := newTestManager(t, config.DefaultRiskParameters())
	_, _, err := m.OnTick(kline.Tick{Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, common.ErrSymbolEmpty)
	_, _, err = m.OnTick(tick(0, requestTime))
	assert.ErrorIs(t, err, kline.ErrInvalidBar)

	e, alerts, err := m.OnTick(tick(90, requestTime))
	require.NoError(t, err)
	assert.Nil(t, e, "pending positions are not exited")
	assert.Empty(t, alerts)

	e, alerts, err = m.OnTick(kline.Tick{Symbol: "MSFT", Price: decimal.NewFromInt(1), Time: requestTime})
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Nil(t, alerts)

	_, err = m.ConfirmFill("pos-1", decimal.Zero, requestTime)
	require.NoError(t, err)
	_, _, err = m.OnTick(tick(103, requestTime.Add(time.Minute)))
	require.NoError(t, err)
	p, ok := l.PositionBySymbol("AAPL")
	require.True(t, ok)
	assert.True(t, p.UnrealizedPnL().Equal(decimal.NewFromInt(300)))
}

func TestOnTickAlerts(t *testing.T) {
	t.Parallel()
	params := config.DefaultRiskParameters()
	params.LargeLossAlert = decimal.NewFromInt(100)
	m, _ := openTestPosition(t, params)

	_, alerts, err := m.OnTick(tick(98.4, requestTime.Add(time.Minute)))
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, StopApproach, alerts[0].Kind)
	assert.InDelta(t, 0.4065, alerts[0].Distance.InexactFloat64(), 0.0001, "distance is a percentage of the price")
	assert.Equal(t, LargeLoss, alerts[1].Kind)
	assert.True(t, alerts[1].Distance.Equal(decimal.NewFromInt(-160)))

	_, alerts, err = m.OnTick(tick(105.6, requestTime.Add(2*time.Minute)))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, TargetApproach, alerts[0].Kind)
	assert.Equal(t, "pos-1", alerts[0].PositionID)

	_, alerts, err = m.OnTick(tick(102, requestTime.Add(3*time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestOnTickConcentrationAlert(t *testing.T) {
	t.Parallel()
	params := config.DefaultRiskParameters()
	params.ConcentrationAlert = decimal.NewFromFloat(0.1)
	m, _ := openTestPosition(t, params)

	_, alerts, err := m.OnTick(tick(102, requestTime.Add(time.Minute)))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, Concentration, alerts[0].Kind)
	assert.InDelta(t, 10.18, alerts[0].Distance.InexactFloat64(), 0.01)

	_, alerts, err = m.OnTick(tick(99, requestTime.Add(2*time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, alerts, "a position below the share of equity raises nothing")

	params.ConcentrationAlert = decimal.Zero
	m, _ = openTestPosition(t, params)
	_, alerts, err = m.OnTick(tick(102, requestTime.Add(time.Minute)))
	require.NoError(t, err)
	assert.Empty(t, alerts, "a zero threshold disables the alert")
}

func TestClosePosition(t *testing.T) {
	t.Parallel()
	m, l := openTestPosition(t, config.DefaultRiskParameters())
	_, _, err := m.OnTick(tick(103, requestTime.Add(time.Minute)))
	require.NoError(t, err)

	e, err := m.ClosePosition("pos-1", decimal.Zero, requestTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, order.ClosedManual, e.Reason)
	assert.True(t, e.Price.Equal(decimal.NewFromInt(103)))
	assert.True(t, l.Snapshot().DailyRealizedPnL.Equal(decimal.NewFromInt(300)))

	_, err = m.ClosePosition("pos-1", decimal.NewFromInt(104), requestTime.Add(time.Hour))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidTransition)
	}
	_, err = m.ConfirmFill("pos-1", decimal.Zero, requestTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.ClosePosition("missing", decimal.Zero, requestTime)
	assert.ErrorIs(t, err, portfolio.ErrPositionNotFound)

	closed := l.Closed()
	require.Len(t, closed, 1)
	assert.Equal(t, portfolio.Closed, closed[0].State)
}

func TestClosePendingPosition(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(t, config.DefaultRiskParameters())
	_, err := m.ClosePosition("pos-1", decimal.NewFromInt(100), requestTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTradingDays(t *testing.T) {
	t.Parallel()
	for _, tt := range []struct {
		name     string
		from, to time.Time
		expected int
	}{
		{name: "same day", from: requestTime, to: requestTime.Add(time.Hour), expected: 0},
		{name: "next day", from: requestTime, to: requestTime.AddDate(0, 0, 1), expected: 1},
		{name: "friday", from: requestTime, to: requestTime.AddDate(0, 0, 4), expected: 4},
		{name: "weekend", from: requestTime, to: requestTime.AddDate(0, 0, 6), expected: 4},
		{name: "next monday", from: requestTime, to: requestTime.AddDate(0, 0, 7), expected: 5},
		{name: "friday to monday", from: requestTime.AddDate(0, 0, 4), to: requestTime.AddDate(0, 0, 7), expected: 1},
		{name: "backwards", from: requestTime, to: requestTime.AddDate(0, 0, -3), expected: 0},
		{name: "zero start", to: requestTime, expected: 0},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, TradingDays(tt.from, tt.to))
		})
	}
}
