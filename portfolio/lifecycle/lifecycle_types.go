package lifecycle

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

var (
	// ErrExecutionRejected is returned when the gateway refuses a pending position
	ErrExecutionRejected = errors.New("execution rejected")
	// ErrExecutionTimeout is returned when a pending position is not filled in time
	ErrExecutionTimeout = errors.New("execution timed out")
	// ErrInvalidTransition is returned when a position cannot move to the requested state
	ErrInvalidTransition = errors.New("invalid position state transition")

	errNoPrice = errors.New("no price to close at")

	oneHundred = decimal.NewFromInt(100)
)

// AlertKind names a position warning raised on a tick
type AlertKind string

// Alert kinds
const (
	StopApproach   AlertKind = "STOP_APPROACH"
	TargetApproach AlertKind = "TARGET_APPROACH"
	LargeLoss      AlertKind = "LARGE_LOSS"
	Concentration  AlertKind = "CONCENTRATION"
)

// Alert warns that an open position is near an exit, holds a large loss or
// makes up too much of the portfolio
type Alert struct {
	Kind       AlertKind
	PositionID string
	Symbol     string
	Price      decimal.Decimal
	// Distance is the percentage distance to the stop or target. LargeLoss
	// holds the unrealized loss and Concentration the position's percentage
	// share of equity
	Distance decimal.Decimal
	Time     time.Time
}

// Discard is a pending position removed without filling
type Discard struct {
	Position portfolio.Position
	Err      error
}

// Manager drives positions through PENDING, OPEN and CLOSED against the ledger
type Manager struct {
	params config.RiskParameters
	ledger *portfolio.Ledger
}
