package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"golang.org/x/time/rate"
)

var (
	// ErrOrderRejected is returned when the gateway refuses an order
	ErrOrderRejected = errors.New("order rejected by gateway")

	errInvalidRate = errors.New("submission rate must be greater than zero")
)

// Fill confirms a position request executed
type Fill struct {
	ID    string
	Price decimal.Decimal
	Time  time.Time
}

// Gateway submits orders to a broker. SubmitEntry returns a nil fill when the
// request was accepted and will be confirmed later
type Gateway interface {
	SubmitEntry(ctx context.Context, req *order.PositionRequest) (*Fill, error)
	SubmitExit(ctx context.Context, e *order.ExitInstruction) error
}

// Paper fills every entry at its requested price unless the symbol is on the
// reject list
type Paper struct {
	m       sync.Mutex
	reject  map[string]struct{}
	entries []order.PositionRequest
	exits   []order.ExitInstruction
}

// Dispatcher limits the rate orders reach a gateway
type Dispatcher struct {
	gateway Gateway
	limiter *rate.Limiter
}
