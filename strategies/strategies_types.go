package strategies

import (
	"errors"

	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
)

// ErrStrategyAlreadyExists returned when a strategy name is registered twice
var ErrStrategyAlreadyExists = errors.New("strategy already exists")

// Evaluator turns an indicator snapshot into zero or one signal. A nil signal
// with a nil error means no opportunity
type Evaluator interface {
	Evaluate(*analysis.Snapshot) (*signal.Signal, error)
}

// Handler is a named evaluator held in the strategy registry
type Handler interface {
	Evaluator
	Name() string
	Description() string
}
