package aggregator

import (
	"errors"

	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
)

var (
	// ErrLowConfidence is returned for signals below the minimum confidence
	ErrLowConfidence = errors.New("confidence below minimum")
	// ErrLowRewardRatio is returned for signals below the minimum reward to risk
	ErrLowRewardRatio = errors.New("reward to risk below minimum")
	// ErrSymbolActive is returned for signals on a symbol already holding a position
	ErrSymbolActive = errors.New("symbol has an active position")
	// ErrOutscored is returned for signals beaten by another strategy on the same symbol
	ErrOutscored = errors.New("outscored by another strategy")
	// ErrNoCapacity is returned for ranked signals beyond the free position slots
	ErrNoCapacity = errors.New("no free position slots")
)

// PortfolioState is the part of the portfolio the aggregator filters against
type PortfolioState interface {
	HasActive(symbol string) bool
	ActiveCount() int
}

// Aggregator filters and ranks one cycle's signals
type Aggregator struct {
	minConfidence  float64
	minRewardRatio float64
	maxPositions   int
}

// Drop is a signal removed from the cycle and why
type Drop struct {
	Signal *signal.Signal
	Err    error
}

// Result holds a cycle's admitted signals in rank order and everything dropped
type Result struct {
	Admitted []*signal.Signal
	Dropped  []Drop
}
