package analysis

import (
	"errors"
	"time"

	"github.com/thrasher-corp/swingtrader/kline"
)

// MinimumBars is the shortest window a snapshot can be derived from. The 50
// period EMA is the binding lookback, plus one bar for slopes and crossovers
const MinimumBars = 51

const (
	fastEMA          = 12
	slowEMA          = 26
	trendEMA         = 50
	smaPeriod        = 20
	rsiPeriod        = 14
	rsiLongPeriod    = 21
	macdSignalPeriod = 9
	stochKPeriod     = 14
	stochDPeriod     = 3
	adxPeriod        = 14
	atrPeriod        = 14
	bollingerPeriod  = 20
	bollingerDev     = 2.0
	volumePeriod     = 20
	levelPeriod      = 20
	widthAvgPeriod   = 20
)

var (
	// ErrInsufficientHistory is returned when a window is too short to derive
	// every indicator. The symbol is skipped for the cycle
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrIndicatorUnavailable is returned when an indicator produced a non
	// finite value
	ErrIndicatorUnavailable = errors.New("indicator unavailable")
)

// Snapshot holds every indicator value strategies evaluate for the latest bar
// of a symbol. Prev prefixed fields hold the value for the bar before it
type Snapshot struct {
	Symbol   string
	Time     time.Time
	Latest   kline.Bar
	Previous kline.Bar

	EMA12 float64
	EMA26 float64
	EMA50 float64
	SMA20 float64

	RSI14     float64
	PrevRSI14 float64
	RSI21     float64

	StochK     float64
	StochD     float64
	PrevStochK float64

	BollingerUpper    float64
	BollingerMiddle   float64
	BollingerLower    float64
	BollingerWidth    float64
	BollingerWidthAvg float64

	MACD              float64
	MACDSignal        float64
	MACDHistogram     float64
	PrevMACD          float64
	PrevMACDSignal    float64
	PrevMACDHistogram float64

	ADX14       float64
	ATR14       float64
	OBV         float64
	VolumeSMA20 float64

	// Support and Resistance are the lowest low and highest high of the bars
	// preceding the latest bar
	Support    float64
	Resistance float64
}
