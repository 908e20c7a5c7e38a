package breakout

import (
	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/strategies/base"
)

const (
	// Name is the strategy name
	Name        = "breakout"
	description = `Breakout enters when price clears its recent resistance and upper Bollinger band on a volume surge while volatility expands and the trend is strong`

	maxConfidence     = 0.9
	targetMultiplier  = 1.07
	resistanceBuffer  = 0.998
	upperBandBuffer   = 0.995
	volumeSurge       = 1.5
	widthExpansion    = 1.2
	rsiLow, rsiHigh   = 50.0, 80.0
	adxTrendThreshold = 25.0
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

// Evaluate returns a signal when the latest bar breaks out, otherwise nil
func (s *Strategy) Evaluate(snap *analysis.Snapshot) (*signal.Signal, error) {
	if snap == nil {
		return nil, base.ErrNilSnapshot
	}
	price := snap.Latest.Close
	volumeRatio := snap.VolumeRatio()
	if price <= snap.Resistance*resistanceBuffer ||
		price <= snap.BollingerUpper*upperBandBuffer ||
		volumeRatio < volumeSurge ||
		snap.BollingerWidth <= snap.BollingerWidthAvg*widthExpansion ||
		snap.RSI14 < rsiLow || snap.RSI14 > rsiHigh ||
		snap.ADX14 <= adxTrendThreshold {
		return nil, nil
	}
	confidence := (snap.RSI14-50)/30 + (snap.ADX14-25)/25 + (volumeRatio - 1)
	sig, err := s.GetBaseSignal(snap, Name, targetMultiplier, confidence, maxConfidence)
	if err != nil {
		return nil, err
	}
	sig.AppendReason("close above resistance and upper bollinger band")
	sig.AppendReason("volume surge with bollinger expansion")
	return sig, nil
}
