package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate checks a request is fit for submission
func (r *PositionRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if r.ID == "" || r.Symbol == "" {
		return fmt.Errorf("%w: missing id or symbol", ErrInvalidRequest)
	}
	if r.Quantity < 1 {
		return fmt.Errorf("%w: %s quantity %d", ErrInvalidRequest, r.Symbol, r.Quantity)
	}
	if !r.Entry.IsPositive() {
		return fmt.Errorf("%w: %s entry %v", ErrInvalidRequest, r.Symbol, r.Entry)
	}
	if !r.Capital.Equal(r.Value()) {
		return fmt.Errorf("%w: %s capital %v does not match entry x quantity %v", ErrInvalidRequest, r.Symbol, r.Capital, r.Value())
	}
	return nil
}

// Value returns entry price multiplied by quantity
func (r *PositionRequest) Value() decimal.Decimal {
	return r.Entry.Mul(decimal.NewFromInt(r.Quantity))
}

// Validate checks an exit is fit for submission
func (e *ExitInstruction) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil exit", ErrInvalidRequest)
	}
	if e.PositionID == "" || e.Symbol == "" {
		return fmt.Errorf("%w: missing position id or symbol", ErrInvalidRequest)
	}
	if e.Quantity < 1 {
		return fmt.Errorf("%w: %s exit quantity %d", ErrInvalidRequest, e.Symbol, e.Quantity)
	}
	if !e.Price.IsPositive() {
		return fmt.Errorf("%w: %s exit price %v", ErrInvalidRequest, e.Symbol, e.Price)
	}
	return nil
}

// IsWin reports whether the reason realised a gain
func (r Reason) IsWin() bool {
	return r == ClosedProfit
}
