package config

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/log"
)

// Errors returned when validating a config. All of them are fatal at startup
var (
	ErrInvalidRiskParameter = errors.New("invalid risk parameter")
	errFileNotFound         = errors.New("file not found")
	errInitialCapital       = errors.New("initial capital must be greater than zero")
	errDuplicateStrategy    = errors.New("duplicate strategy setting")
	errEmptyStrategyName    = errors.New("strategy setting has no name")
	errInvalidSubmitRate    = errors.New("execution submit rate must not be negative")
)

const (
	envPrefix = "SWING"
	// DefaultFillTimeout is how long a position request may wait for a fill
	DefaultFillTimeout = 30 * time.Second
	// DefaultMaxHoldDays is the number of trading days before a time exit
	DefaultMaxHoldDays = 5
)

// Config holds everything needed to run a trading session
type Config struct {
	Nickname       string             `json:"nickname"`
	InitialCapital decimal.Decimal    `json:"initialCapital"`
	Symbols        []string           `json:"symbols"`
	Risk           RiskParameters     `json:"riskParameters"`
	Strategies     []StrategySettings `json:"strategies"`
	Database       DatabaseSettings   `json:"database"`
	Feed           FeedSettings       `json:"feed"`
	Execution      ExecutionSettings  `json:"execution"`
	API            APISettings        `json:"api"`
	Logging        LoggingSettings    `json:"logging"`
}

// RiskParameters are immutable for a session and bound every sizing decision
type RiskParameters struct {
	// MaxRiskPerTrade is the fraction of available capital risked between entry and stop
	MaxRiskPerTrade decimal.Decimal `json:"maxRiskPerTrade"`
	MinRewardRatio  float64         `json:"minRewardRatio"`
	MaxPositions    int             `json:"maxPositions"`
	// MaxPositionPct caps a single position's value as a fraction of total capital
	MaxPositionPct decimal.Decimal `json:"maxPositionPct"`
	MinConfidence  float64         `json:"minConfidence"`
	DailyLossLimit decimal.Decimal `json:"dailyLossLimit"`
	// MaxDrawdownPct halts new entries for the rest of the process once equity
	// falls this fraction below its peak. Zero disables
	MaxDrawdownPct decimal.Decimal `json:"maxDrawdownPct"`
	// MinCapital halts new entries once available capital drops below it. Zero disables
	MinCapital decimal.Decimal `json:"minCapital"`
	// PriceTolerance is the fraction the live price may drift from a signal's entry
	// before the signal is considered stale. Zero disables the check
	PriceTolerance decimal.Decimal `json:"priceTolerance"`
	MaxHoldDays    int             `json:"maxHoldDays"`
	FillTimeout    time.Duration   `json:"fillTimeout"`
	// AlertDistance is the fraction from stop or target that raises an approach alert
	AlertDistance decimal.Decimal `json:"alertDistance"`
	// LargeLossAlert raises an alert once a position's unrealized loss exceeds it
	LargeLossAlert decimal.Decimal `json:"largeLossAlert"`
	// ConcentrationAlert raises an alert once a position's market value exceeds
	// this fraction of equity. Zero disables
	ConcentrationAlert decimal.Decimal `json:"concentrationAlert"`
}

// StrategySettings toggles a strategy for the session
type StrategySettings struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// DatabaseSettings points at the sqlite database used to resume positions and
// store the audit trail
type DatabaseSettings struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// FeedSettings configures the live tick websocket
type FeedSettings struct {
	Enabled        bool          `json:"enabled"`
	URL            string        `json:"url"`
	ReconnectDelay time.Duration `json:"reconnectDelay"`
}

// ExecutionSettings bounds the rate requests are handed to the execution gateway
type ExecutionSettings struct {
	SubmitRate  float64 `json:"submitRate"`
	SubmitBurst int     `json:"submitBurst"`
	// RejectSymbols are refused by the paper gateway, useful for dry runs
	RejectSymbols []string `json:"rejectSymbols"`
}

// APISettings configures the HTTP status server
type APISettings struct {
	Enabled       bool   `json:"enabled"`
	ListenAddress string `json:"listenAddress"`
}

// LoggingSettings is the user facing subset of log.Config
type LoggingSettings struct {
	Enabled    bool                  `json:"enabled"`
	Level      string                `json:"level"`
	Output     string                `json:"output"`
	FileName   string                `json:"fileName"`
	SubLoggers []log.SubLoggerConfig `json:"subLoggers"`
}
