package meanreversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/strategies/base"
)

func oversoldSnapshot() *analysis.Snapshot {
	return &analysis.Snapshot{
		Symbol:         "TSLA",
		Latest:         kline.Bar{Symbol: "TSLA", Open: 96, High: 97, Low: 94, Close: 95, Volume: 1000},
		RSI14:          33,
		PrevRSI14:      28,
		BollingerLower: 94,
		StochK:         20,
		PrevStochK:     10,
		Support:        93.5,
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	s := Strategy{}
	assert.Equal(t, Name, s.Name())
	assert.NotEmpty(t, s.Description())
}

func TestEvaluate(t *testing.T) {
	t.Parallel()
	s := Strategy{}
	_, err := s.Evaluate(nil)
	assert.ErrorIs(t, err, base.ErrNilSnapshot)

	sig, err := s.Evaluate(oversoldSnapshot())
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, Name, sig.Strategy)
	assert.InDelta(t, 0.1+0.2+0.2, sig.Confidence, 1e-9)
	assert.InDelta(t, 95*1.05, sig.Target.InexactFloat64(), 1e-9)
	assert.InDelta(t, 2.5, sig.RewardRisk(), 1e-9)

	snap := oversoldSnapshot()
	snap.RSI14, snap.StochK = 20, 5
	sig, err = s.Evaluate(snap)
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, 0.85, sig.Confidence)
}

func TestEvaluateNoSignal(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name   string
		modify func(*analysis.Snapshot)
	}{
		{"not oversold", func(s *analysis.Snapshot) { s.RSI14 = 40 }},
		{"rsi falling", func(s *analysis.Snapshot) { s.PrevRSI14 = 34 }},
		{"away from band", func(s *analysis.Snapshot) { s.BollingerLower = 90 }},
		{"stoch high", func(s *analysis.Snapshot) { s.StochK = 30 }},
		{"stoch falling", func(s *analysis.Snapshot) { s.PrevStochK = 22 }},
		{"away from support", func(s *analysis.Snapshot) { s.Support = 90 }},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			snap := oversoldSnapshot()
			tc.modify(snap)
			sig, err := (&Strategy{}).Evaluate(snap)
			require.NoError(t, err)
			assert.Nil(t, sig)
		})
	}
}
