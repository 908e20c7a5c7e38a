package momentum

import (
	"fmt"

	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/strategies/base"
)

const (
	// Name is the strategy name
	Name        = "momentum"
	description = `Momentum follows an established uptrend: stacked EMAs, a bullish MACD crossover, rising stochastics and price holding above its 20 bar average`

	maxConfidence    = 0.95
	targetMultiplier = 1.06
	rsiLow, rsiHigh  = 55.0, 75.0
	stochFloor       = 50.0
	adxFloor         = 20.0
)

// Strategy is an implementation of the Handler interface
type Strategy struct {
	base.Strategy
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides a nice overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// Evaluate returns a signal when every trend condition aligns, otherwise nil
func (s *Strategy) Evaluate(snap *analysis.Snapshot) (*signal.Signal, error) {
	if snap == nil {
		return nil, base.ErrNilSnapshot
	}
	if !(snap.EMA12 > snap.EMA26 && snap.EMA26 > snap.EMA50) ||
		snap.RSI14 < rsiLow || snap.RSI14 > rsiHigh ||
		!bullishCrossover(snap) ||
		!(snap.StochK > snap.StochD && snap.StochK > stochFloor) ||
		!(snap.Latest.Close > snap.SMA20 && snap.SMA20 > snap.EMA50) ||
		snap.ADX14 <= adxFloor {
		return nil, nil
	}
	confidence := snap.ADX14/40 + (snap.RSI14-50)/25 + 0.3
	sig, err := s.GetBaseSignal(snap, Name, targetMultiplier, confidence, maxConfidence)
	if err != nil {
		return nil, err
	}
	sig.AppendReason("ema 12 > 26 > 50")
	sig.AppendReason(fmt.Sprintf("rsi %.2f adx %.2f", snap.RSI14, snap.ADX14))
	return sig, nil
}

// bullishCrossover is true when MACD sits above its signal line and the
// histogram either turned positive on the latest bar or is still widening
func bullishCrossover(snap *analysis.Snapshot) bool {
	if snap.MACD <= snap.MACDSignal || snap.MACDHistogram <= 0 {
		return false
	}
	return snap.PrevMACDHistogram <= 0 || snap.MACDHistogram >= snap.PrevMACDHistogram
}
