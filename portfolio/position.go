package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Value returns entry price multiplied by quantity
func (p *Position) Value() decimal.Decimal {
	return p.Entry.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL marks an open position to its last price
func (p *Position) UnrealizedPnL() decimal.Decimal {
	if p.State != Open || p.LastPrice.IsZero() {
		return decimal.Zero
	}
	return p.LastPrice.Sub(p.Entry).Mul(decimal.NewFromInt(p.Quantity))
}

// IsActive reports whether the position holds capital
func (p *Position) IsActive() bool {
	return p.State == Pending || p.State == Open
}

func (p *Position) validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil", errInvalidPosition)
	}
	if p.ID == "" || p.Symbol == "" {
		return fmt.Errorf("%w: missing id or symbol", errInvalidPosition)
	}
	if p.Quantity < 1 {
		return fmt.Errorf("%w: %s quantity %d", errInvalidPosition, p.Symbol, p.Quantity)
	}
	if !p.Entry.IsPositive() {
		return fmt.Errorf("%w: %s entry %v", errInvalidPosition, p.Symbol, p.Entry)
	}
	if !p.Stop.IsPositive() || p.Stop.GreaterThanOrEqual(p.Entry) {
		return fmt.Errorf("%w: %s stop %v must be between zero and entry %v", errInvalidPosition, p.Symbol, p.Stop, p.Entry)
	}
	if p.Target.LessThanOrEqual(p.Entry) {
		return fmt.Errorf("%w: %s target %v must be above entry %v", errInvalidPosition, p.Symbol, p.Target, p.Entry)
	}
	return nil
}
