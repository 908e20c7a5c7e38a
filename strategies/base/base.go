package base

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/common/math"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
)

var stopLoss = decimal.NewFromFloat(StopLossFraction)

// GetBaseSignal returns a long signal entering at the latest close with the
// shared stop loss, a target of entry multiplied by targetMultiplier and the
// confidence clamped to [0, maxConfidence]
func (s *Strategy) GetBaseSignal(snap *analysis.Snapshot, name string, targetMultiplier, confidence, maxConfidence float64) (*signal.Signal, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	entry := decimal.NewFromFloat(snap.Latest.Close)
	if !entry.IsPositive() {
		return nil, fmt.Errorf("%w %s latest close %v", signal.ErrInvalidSignal, snap.Symbol, snap.Latest.Close)
	}
	return signal.New(snap.Symbol,
		name,
		entry,
		entry.Mul(stopLoss),
		entry.Mul(decimal.NewFromFloat(targetMultiplier)),
		ClampConfidence(confidence, maxConfidence),
		snap.Time), nil
}

// ClampConfidence bounds a raw confidence score to [0, maxConfidence]
func ClampConfidence(confidence, maxConfidence float64) float64 {
	if !math.IsFinite(confidence) {
		return 0
	}
	return math.Clamp(confidence, 0, maxConfidence)
}
