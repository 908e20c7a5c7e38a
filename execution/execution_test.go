package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
)

var testTime = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

func testRequest(symbol string) *order.PositionRequest {
	return &order.PositionRequest{
		ID:       "req-" + symbol,
		Symbol:   symbol,
		Strategy: "gap",
		Entry:    decimal.NewFromInt(100),
		Stop:     decimal.NewFromInt(98),
		Target:   decimal.NewFromInt(106),
		Quantity: 10,
		Capital:  decimal.NewFromInt(1000),
		Time:     testTime,
	}
}

func testExit() *order.ExitInstruction {
	return &order.ExitInstruction{
		PositionID: "req-AAPL",
		Symbol:     "AAPL",
		Quantity:   10,
		Price:      decimal.NewFromInt(106),
		Reason:     order.ClosedProfit,
		Time:       testTime,
	}
}

func TestPaper(t *testing.T) {
	t.Parallel()
	p := NewPaper("tsla")
	fill, err := p.SubmitEntry(context.Background(), testRequest("AAPL"))
	require.NoError(t, err)
	assert.Equal(t, "req-AAPL", fill.ID)
	assert.True(t, fill.Price.Equal(decimal.NewFromInt(100)))

	_, err = p.SubmitEntry(context.Background(), testRequest("TSLA"))
	if !errors.Is(err, ErrOrderRejected) {
		t.Errorf("received '%v' expected '%v'", err, ErrOrderRejected)
	}
	_, err = p.SubmitEntry(context.Background(), &order.PositionRequest{Symbol: "AAPL"})
	assert.ErrorIs(t, err, order.ErrInvalidRequest)
	assert.Len(t, p.Entries(), 1)

	require.NoError(t, p.SubmitExit(context.Background(), testExit()))
	assert.ErrorIs(t, p.SubmitExit(context.Background(), &order.ExitInstruction{}), order.ErrInvalidRequest)
	exits := p.Exits()
	require.Len(t, exits, 1)
	assert.Equal(t, order.ClosedProfit, exits[0].Reason)
}

func TestNewDispatcher(t *testing.T) {
	t.Parallel()
	_, err := NewDispatcher(nil, 1, 1)
	assert.ErrorIs(t, err, common.ErrNilPointer)
	_, err = NewDispatcher(NewPaper(), 0, 1)
	assert.ErrorIs(t, err, errInvalidRate)
	d, err := NewDispatcher(NewPaper(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, d.limiter.Burst())
}

func TestDispatcher(t *testing.T) {
	t.Parallel()
	paper := NewPaper("TSLA")
	d, err := NewDispatcher(paper, 1000, 2)
	require.NoError(t, err)

	_, err = d.SubmitEntry(context.Background(), testRequest("AAPL"))
	require.NoError(t, err)
	_, err = d.SubmitEntry(context.Background(), testRequest("TSLA"))
	assert.ErrorIs(t, err, ErrOrderRejected)
	require.NoError(t, d.SubmitExit(context.Background(), testExit()))
	assert.Len(t, paper.Entries(), 1)
	assert.Len(t, paper.Exits(), 1)
}

func TestDispatcherContextCancelled(t *testing.T) {
	t.Parallel()
	paper := NewPaper()
	d, err := NewDispatcher(paper, 0.001, 1)
	require.NoError(t, err)
	_, err = d.SubmitEntry(context.Background(), testRequest("AAPL"))
	require.NoError(t, err, "burst allows the first submission")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.SubmitEntry(ctx, testRequest("MSFT"))
	assert.Error(t, err)
	assert.ErrorIs(t, d.SubmitExit(ctx, testExit()), context.Canceled)
	assert.Len(t, paper.Entries(), 1)
}
