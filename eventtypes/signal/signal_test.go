package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignal() *Signal {
	return New("AAPL", "momentum",
		decimal.NewFromInt(100),
		decimal.NewFromInt(98),
		decimal.NewFromInt(106),
		0.8,
		time.Now())
}

func TestRewardRisk(t *testing.T) {
	t.Parallel()
	s := validSignal()
	assert.InDelta(t, 3, s.RewardRisk(), 1e-9)
	assert.InDelta(t, 2.4, s.Score(), 1e-9)
	assert.True(t, s.PriceRisk().Equal(decimal.NewFromInt(2)))

	s.Stop = s.Entry
	assert.Zero(t, s.RewardRisk())
}

func TestAppendReason(t *testing.T) {
	t.Parallel()
	s := validSignal()
	s.AppendReason("ema aligned")
	s.AppendReason("rsi 60")
	assert.Equal(t, []string{"ema aligned", "rsi 60"}, s.Reasons)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, validSignal().Validate())

	var nilSignal *Signal
	err := nilSignal.Validate()
	if !errors.Is(err, ErrInvalidSignal) {
		t.Errorf("received '%v' expected '%v'", err, ErrInvalidSignal)
	}

	for _, tc := range []struct {
		name   string
		modify func(*Signal)
	}{
		{"no symbol", func(s *Signal) { s.Symbol = "" }},
		{"no strategy", func(s *Signal) { s.Strategy = "" }},
		{"short", func(s *Signal) { s.Direction = "SHORT" }},
		{"confidence above one", func(s *Signal) { s.Confidence = 1.01 }},
		{"negative confidence", func(s *Signal) { s.Confidence = -0.1 }},
		{"zero entry", func(s *Signal) { s.Entry = decimal.Zero }},
		{"stop at entry", func(s *Signal) { s.Stop = s.Entry }},
		{"stop above entry", func(s *Signal) { s.Stop = decimal.NewFromInt(101) }},
		{"target at entry", func(s *Signal) { s.Target = s.Entry }},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := validSignal()
			tc.modify(s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSignal)
		})
	}
}
