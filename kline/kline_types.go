package kline

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWindow is the number of bars retained per symbol
const DefaultWindow = 250

var (
	// ErrOutOfOrder is returned when a bar does not advance a symbol's history
	ErrOutOfOrder = errors.New("bar out of order")
	// ErrInvalidBar is returned when a bar's values cannot describe a trading interval
	ErrInvalidBar = errors.New("invalid bar")

	errInvalidPeriod              = errors.New("invalid period")
	errNoData                     = errors.New("no data")
	errInvalidDeviationMultiplier = errors.New("invalid deviation multiplier")
	errNilOHLC                    = errors.New("nil OHLC data")
	errInvalidDataSetLengths      = errors.New("invalid data set lengths")
	errNotEnoughData              = errors.New("not enough data to derive signal")
	errInvalidWindow              = errors.New("window size must be greater than zero")
)

// Bar is a single OHLCV interval for a symbol
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Tick is a live price update for a symbol
type Tick struct {
	Symbol string          `json:"symbol"`
	Time   time.Time       `json:"time"`
	Price  decimal.Decimal `json:"price"`
}

// Arena holds a bounded rolling window of bars per symbol
type Arena struct {
	m       sync.RWMutex
	size    int
	windows map[string]*window
}

// window is a fixed capacity ring buffer, start points at the oldest bar
type window struct {
	bars  []Bar
	start int
	count int
}

// OHLC is a connector for technical analysis usage
type OHLC struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Bollinger defines a return type for the bollinger bands
type Bollinger struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// MACD defines MACD values
type MACD struct {
	MACD       []float64
	SignalVals []float64
	Histogram  []float64
}

// Stochastic holds the %K and %D lines of the stochastic oscillator
type Stochastic struct {
	K []float64
	D []float64
}
