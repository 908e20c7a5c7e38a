package signal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidSignal is returned when a strategy produced a malformed signal
var ErrInvalidSignal = errors.New("invalid signal")

// Direction is the side a signal trades
type Direction string

// Long is the only supported direction
const Long Direction = "LONG"

// Signal is a candidate trade produced by a strategy for one evaluation cycle
type Signal struct {
	Symbol     string
	Strategy   string
	Direction  Direction
	Entry      decimal.Decimal
	Stop       decimal.Decimal
	Target     decimal.Decimal
	Confidence float64
	Time       time.Time
	// Reasons explains the conditions met, used for the audit trail
	Reasons []string
}
