package gap

import (
	"fmt"

	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/common/math"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/strategies/base"
)

const (
	// Name is the strategy name
	Name        = "gap"
	description = `Gap trades a strong opening gap up that keeps running above its open on heavy volume. The target scales with the size of the gap`

	maxConfidence       = 0.8
	minGap              = 0.02
	volumeSurge         = 2.0
	rsiCeiling          = 70.0
	gapTargetMultiplier = 1.5
	minTarget           = 0.04
	maxTarget           = 0.08
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

// Evaluate returns a signal on a continuing gap up, otherwise nil
func (s *Strategy) Evaluate(snap *analysis.Snapshot) (*signal.Signal, error) {
	if snap == nil {
		return nil, base.ErrNilSnapshot
	}
	gapSize := snap.GapSize()
	volumeRatio := snap.VolumeRatio()
	if gapSize <= minGap ||
		volumeRatio < volumeSurge ||
		snap.Latest.Close <= snap.Latest.Open ||
		snap.RSI14 >= rsiCeiling {
		return nil, nil
	}
	target := 1 + math.Clamp(gapSize*gapTargetMultiplier, minTarget, maxTarget)
	confidence := gapSize*10 + (volumeRatio-1)*0.2
	sig, err := s.GetBaseSignal(snap, Name, target, confidence, maxConfidence)
	if err != nil {
		return nil, err
	}
	sig.AppendReason(fmt.Sprintf("gap up %.2f%% on %.2fx volume", gapSize*100, volumeRatio))
	return sig, nil
}
