package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRequest is returned when a request cannot be submitted
var ErrInvalidRequest = errors.New("invalid request")

// Reason describes why a position was closed
type Reason string

// Close reasons
const (
	ClosedProfit   Reason = "CLOSED_PROFIT"
	ClosedLoss     Reason = "CLOSED_LOSS"
	ClosedTimeExit Reason = "CLOSED_TIMEEXIT"
	ClosedManual   Reason = "CLOSED_MANUAL"
)

// PositionRequest is a sized entry handed to the execution gateway. Capital
// is reserved in the ledger until the fill is confirmed or rejected
type PositionRequest struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Strategy   string          `json:"strategy"`
	Entry      decimal.Decimal `json:"entry"`
	Stop       decimal.Decimal `json:"stop"`
	Target     decimal.Decimal `json:"target"`
	Quantity   int64           `json:"quantity"`
	Capital    decimal.Decimal `json:"capital"`
	Confidence float64         `json:"confidence"`
	Time       time.Time       `json:"time"`
}

// ExitInstruction closes an open position at market
type ExitInstruction struct {
	PositionID string          `json:"positionID"`
	Symbol     string          `json:"symbol"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Reason     Reason          `json:"reason"`
	Time       time.Time       `json:"time"`
}
