package meanreversion

import (
	"fmt"

	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/strategies/base"
)

const (
	// Name is the strategy name
	Name        = "meanreversion"
	description = `Mean reversion buys oversold bounces near support once RSI and the stochastic oscillator start to turn up from their lows`

	maxConfidence    = 0.85
	targetMultiplier = 1.05
	rsiCeiling       = 35.0
	stochCeiling     = 25.0
	lowerBandBuffer  = 1.02
	supportBuffer    = 1.01
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

// Evaluate returns a signal on an oversold bounce, otherwise nil
func (s *Strategy) Evaluate(snap *analysis.Snapshot) (*signal.Signal, error) {
	if snap == nil {
		return nil, base.ErrNilSnapshot
	}
	if snap.RSI14 >= rsiCeiling || snap.RSI14 <= snap.PrevRSI14 ||
		snap.Latest.Close >= snap.BollingerLower*lowerBandBuffer ||
		snap.StochK >= stochCeiling || snap.StochK <= snap.PrevStochK ||
		snap.Latest.Low > snap.Support*supportBuffer {
		return nil, nil
	}
	confidence := (rsiCeiling-snap.RSI14)/20 + (stochCeiling-snap.StochK)/25 + 0.2
	sig, err := s.GetBaseSignal(snap, Name, targetMultiplier, confidence, maxConfidence)
	if err != nil {
		return nil, err
	}
	sig.AppendReason(fmt.Sprintf("rsi %.2f rising from %.2f", snap.RSI14, snap.PrevRSI14))
	sig.AppendReason(fmt.Sprintf("low %.2f near support %.2f", snap.Latest.Low, snap.Support))
	return sig, nil
}
