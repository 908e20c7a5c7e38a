package portfolio

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
)

var (
	// ErrPositionNotFound is returned when no position holds the id
	ErrPositionNotFound = errors.New("position not found")
	// ErrInvalidState is returned when a position is not in the state an
	// operation requires
	ErrInvalidState = errors.New("invalid position state")
	// ErrPositionLimit is returned when a reservation would exceed the
	// concurrent position limit
	ErrPositionLimit = errors.New("position limit reached")
	// ErrSymbolActive is returned when the symbol already has an open or
	// pending position
	ErrSymbolActive = errors.New("symbol already has an active position")
	// ErrInsufficientCapital is returned when a reservation exceeds available capital
	ErrInsufficientCapital = errors.New("insufficient available capital")
	// ErrPositionCap is returned when a position's value exceeds the per
	// position share of total capital
	ErrPositionCap = errors.New("position exceeds capital cap")
	// ErrLossLimitReached is returned while the daily loss breaker is tripped
	ErrLossLimitReached = errors.New("daily loss limit reached")
	// ErrDrawdownLimitReached is returned once equity has fallen from its peak
	// by more than the drawdown limit. It stays tripped for the ledger's life
	ErrDrawdownLimitReached = errors.New("max drawdown reached")
	// ErrInvariantViolated is returned by Verify when the ledger is inconsistent
	ErrInvariantViolated = errors.New("ledger invariant violated")

	errInvalidPosition = errors.New("invalid position")
	errDuplicateID     = errors.New("duplicate position id")
	errInvalidPrice    = errors.New("price must be greater than zero")
	errInvalidCapital  = errors.New("capital must be greater than zero")
	errInvalidDrawdown = errors.New("max drawdown pct must be within [0,1)")
)

// State is a position's lifecycle stage
type State string

// Position states
const (
	Pending State = "PENDING"
	Open    State = "OPEN"
	Closed  State = "CLOSED"
)

// Position is a long holding tracked from reservation to close
type Position struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Strategy    string          `json:"strategy"`
	Entry       decimal.Decimal `json:"entry"`
	Stop        decimal.Decimal `json:"stop"`
	Target      decimal.Decimal `json:"target"`
	Quantity    int64           `json:"quantity"`
	State       State           `json:"state"`
	RequestTime time.Time       `json:"requestTime"`
	OpenTime    time.Time       `json:"openTime"`
	CloseTime   time.Time       `json:"closeTime"`
	CloseReason order.Reason    `json:"closeReason"`
	ClosePrice  decimal.Decimal `json:"closePrice"`
	RealizedPnL decimal.Decimal `json:"realizedPnL"`
	LastPrice   decimal.Decimal `json:"lastPrice"`
	LastUpdate  time.Time       `json:"lastUpdate"`
}

// Limits bound what the ledger accepts
type Limits struct {
	MaxPositions   int             `json:"maxPositions"`
	MaxPositionPct decimal.Decimal `json:"maxPositionPct"`
	// DailyLossLimit trips the breaker once realized losses reach it. Zero disables
	DailyLossLimit decimal.Decimal `json:"dailyLossLimit"`
	// MaxDrawdownPct halts new entries once equity falls this fraction below
	// its peak. Zero disables
	MaxDrawdownPct decimal.Decimal `json:"maxDrawdownPct"`
}

// Ledger is the single owner of capital and positions for a session. Every
// method is safe for concurrent use and applies its change atomically
type Ledger struct {
	m                sync.Mutex
	limits           Limits
	initialCapital   decimal.Decimal
	totalCapital     decimal.Decimal
	availableCapital decimal.Decimal
	dailyRealizedPnL decimal.Decimal
	peakEquity       decimal.Decimal
	maxDrawdown      decimal.Decimal
	positions        map[string]*Position
	bySymbol         map[string]string
	closed           []Position
}

// Account is a consistent view of the ledger handed to a sizing function
// while the ledger is locked
type Account struct {
	TotalCapital     decimal.Decimal
	AvailableCapital decimal.Decimal
	DailyRealizedPnL decimal.Decimal
	// MaxDrawdown is the largest fall of equity from its peak seen so far
	MaxDrawdown decimal.Decimal
	Limits      Limits
	// Active counts open and pending positions
	Active int
	// SymbolActive reports whether the symbol being sized is open or pending
	SymbolActive bool
}

// Snapshot is a point in time copy of the ledger
type Snapshot struct {
	Time             time.Time       `json:"time"`
	InitialCapital   decimal.Decimal `json:"initialCapital"`
	TotalCapital     decimal.Decimal `json:"totalCapital"`
	AvailableCapital decimal.Decimal `json:"availableCapital"`
	DailyRealizedPnL decimal.Decimal `json:"dailyRealizedPnL"`
	UnrealizedPnL    decimal.Decimal `json:"unrealizedPnL"`
	Equity           decimal.Decimal `json:"equity"`
	PeakEquity       decimal.Decimal `json:"peakEquity"`
	Drawdown         decimal.Decimal `json:"drawdown"`
	MaxDrawdown      decimal.Decimal `json:"maxDrawdown"`
	Limits           Limits          `json:"limits"`
	Open             []Position      `json:"open"`
	Pending          []Position      `json:"pending"`
	ClosedCount      int             `json:"closedCount"`
	BreakerTripped   bool            `json:"breakerTripped"`
	DrawdownHalted   bool            `json:"drawdownHalted"`
}
