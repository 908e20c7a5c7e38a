package risk

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

var (
	// ErrRiskRejected is returned when sizing constraints are not met. The
	// signal is discarded without retry
	ErrRiskRejected = errors.New("risk rejected")
	// ErrCapitalExhausted is returned once available capital falls below the
	// minimum required to open new positions
	ErrCapitalExhausted = errors.New("capital exhausted")
	// ErrDailyLossBreached is returned while the daily loss breaker is tripped.
	// New entries halt until the session is reset
	ErrDailyLossBreached = errors.New("daily loss limit breached")
	// ErrDrawdownBreached is returned once equity has fallen from its peak by
	// more than the drawdown limit
	ErrDrawdownBreached = errors.New("max drawdown breached")
	// ErrStalePrice is returned when the live price drifted beyond tolerance
	// from a signal's entry
	ErrStalePrice = errors.New("stale signal price")
)

// PriceLookup returns the live price for a symbol
type PriceLookup func(symbol string) (decimal.Decimal, bool)

// IDGenerator returns a new unique request id
type IDGenerator func() (string, error)

// Manager sizes admitted signals into position requests and reserves their
// capital in the ledger
type Manager struct {
	params config.RiskParameters
	ledger *portfolio.Ledger
	newID  IDGenerator
}

// Rejection pairs a signal with the reason it was not sized
type Rejection struct {
	Signal *signal.Signal
	Err    error
}
