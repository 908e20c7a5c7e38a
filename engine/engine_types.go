package engine

import (
	"errors"
	"time"

	"github.com/thrasher-corp/swingtrader/aggregator"
	"github.com/thrasher-corp/swingtrader/audit"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/database"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/execution"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/portfolio"
	"github.com/thrasher-corp/swingtrader/portfolio/lifecycle"
	"github.com/thrasher-corp/swingtrader/portfolio/risk"
	"github.com/thrasher-corp/swingtrader/strategies"
)

var (
	// ErrNoStrategies is returned when the configuration enables no strategy
	ErrNoStrategies = errors.New("no strategies enabled")

	errNoGateway  = errors.New("no execution gateway set")
	errNoDatabase = errors.New("no database set")
)

// Engine runs evaluation cycles and position lifecycles against one ledger
type Engine struct {
	config     *config.Config
	arena      *kline.Arena
	ledger     *portfolio.Ledger
	risk       *risk.Manager
	lifecycle  *lifecycle.Manager
	aggregator *aggregator.Aggregator
	handlers   []strategies.Handler
	gateway    execution.Gateway
	sink       audit.Sink
	db         *database.Instance
	workers    int
	now        func() time.Time
}

// Option customises an engine
type Option func(*Engine) error

// Cycle is the outcome of one evaluation
type Cycle struct {
	Time       time.Time
	Evaluated  int
	Signals    []*signal.Signal
	Dropped    []aggregator.Drop
	Requests   []order.PositionRequest
	Rejections []risk.Rejection
	// Errors collects per symbol failures that did not stop the cycle
	Errors error
}

// Execution is the outcome of handing requests to the gateway
type Execution struct {
	Opened   []portfolio.Position
	Rejected []lifecycle.Discard
	// Pending holds requests accepted without a fill yet
	Pending []order.PositionRequest
	Errors  error
}
