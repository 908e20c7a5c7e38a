package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/thrasher-corp/swingtrader/common/convert"
	"github.com/thrasher-corp/swingtrader/log"
)

// DefaultConfig returns the parameters the strategy set was tuned with
func DefaultConfig() *Config {
	return &Config{
		Nickname:       "swingtrader",
		InitialCapital: decimal.NewFromInt(100000),
		Risk:           DefaultRiskParameters(),
		Database:       DatabaseSettings{Path: "swingtrader.db"},
		Execution:      ExecutionSettings{SubmitRate: 5, SubmitBurst: 1},
		API:            APISettings{ListenAddress: "localhost:9050"},
		Logging: LoggingSettings{
			Enabled: true,
			Level:   "INFO|WARN|ERROR",
			Output:  "console",
		},
	}
}

// DefaultRiskParameters returns the default risk limits
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MaxRiskPerTrade:    decimal.NewFromFloat(0.02),
		MinRewardRatio:     2.5,
		MaxPositions:       5,
		MaxPositionPct:     decimal.NewFromFloat(0.2),
		MinConfidence:      0.7,
		DailyLossLimit:     decimal.NewFromInt(5000),
		MaxDrawdownPct:     decimal.NewFromFloat(0.1),
		MinCapital:         decimal.NewFromInt(10000),
		PriceTolerance:     decimal.NewFromFloat(0.01),
		MaxHoldDays:        DefaultMaxHoldDays,
		FillTimeout:        DefaultFillTimeout,
		AlertDistance:      decimal.NewFromFloat(0.005),
		LargeLossAlert:     decimal.NewFromInt(1000),
		ConcentrationAlert: decimal.NewFromFloat(0.25),
	}
}

// ReadConfigFromFile will take a config from a path. The file type is derived
// from the extension and any SWING_ prefixed environment variable overrides it
func ReadConfigFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", errFileNotFound, path)
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// LoadConfig unmarshalls byte data of the supplied format (json, yaml, toml)
// into a config struct seeded with defaults
func LoadConfig(data []byte, format string) (*Config, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("nickname", d.Nickname)
	v.SetDefault("initialCapital", d.InitialCapital.String())
	v.SetDefault("riskParameters.maxRiskPerTrade", d.Risk.MaxRiskPerTrade.String())
	v.SetDefault("riskParameters.minRewardRatio", d.Risk.MinRewardRatio)
	v.SetDefault("riskParameters.maxPositions", d.Risk.MaxPositions)
	v.SetDefault("riskParameters.maxPositionPct", d.Risk.MaxPositionPct.String())
	v.SetDefault("riskParameters.minConfidence", d.Risk.MinConfidence)
	v.SetDefault("riskParameters.dailyLossLimit", d.Risk.DailyLossLimit.String())
	v.SetDefault("riskParameters.maxDrawdownPct", d.Risk.MaxDrawdownPct.String())
	v.SetDefault("riskParameters.minCapital", d.Risk.MinCapital.String())
	v.SetDefault("riskParameters.priceTolerance", d.Risk.PriceTolerance.String())
	v.SetDefault("riskParameters.maxHoldDays", d.Risk.MaxHoldDays)
	v.SetDefault("riskParameters.fillTimeout", d.Risk.FillTimeout.String())
	v.SetDefault("riskParameters.alertDistance", d.Risk.AlertDistance.String())
	v.SetDefault("riskParameters.largeLossAlert", d.Risk.LargeLossAlert.String())
	v.SetDefault("riskParameters.concentrationAlert", d.Risk.ConcentrationAlert.String())
	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("feed.enabled", d.Feed.Enabled)
	v.SetDefault("feed.url", d.Feed.URL)
	v.SetDefault("feed.reconnectDelay", "5s")
	v.SetDefault("execution.submitRate", d.Execution.SubmitRate)
	v.SetDefault("execution.submitBurst", d.Execution.SubmitBurst)
	v.SetDefault("api.enabled", d.API.Enabled)
	v.SetDefault("api.listenAddress", d.API.ListenAddress)
	v.SetDefault("logging.enabled", d.Logging.Enabled)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.output", d.Logging.Output)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			stringToDecimalHookFunc(),
		)),
		func(dc *mapstructure.DecoderConfig) { dc.TagName = "json" },
	)
	if err != nil {
		return nil, err
	}
	log.Debugf(log.ConfigMgr, "loaded config %q with %d symbols", c.Nickname, len(c.Symbols))
	return &c, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func stringToDecimalHookFunc() mapstructure.DecodeHookFuncType {
	return func(_, to reflect.Type, data any) (any, error) {
		if to != decimalType {
			return data, nil
		}
		switch d := data.(type) {
		case string:
			return decimal.NewFromString(strings.TrimSpace(d))
		case float64:
			return decimal.NewFromFloat(d), nil
		case float32:
			return decimal.NewFromFloat32(d), nil
		case int:
			return decimal.NewFromInt(int64(d)), nil
		case int64:
			return decimal.NewFromInt(d), nil
		}
		return data, nil
	}
}

// Validate checks all config settings
func (c *Config) Validate() error {
	if !c.InitialCapital.IsPositive() {
		return errInitialCapital
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(c.Strategies))
	for i := range c.Strategies {
		name := strings.ToLower(c.Strategies[i].Name)
		if name == "" {
			return errEmptyStrategyName
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w %v", errDuplicateStrategy, name)
		}
		seen[name] = struct{}{}
	}
	if c.Execution.SubmitRate < 0 {
		return errInvalidSubmitRate
	}
	return nil
}

// StrategyEnabled reports whether the named strategy is switched on. When no
// strategy settings are supplied every strategy is enabled
func (c *Config) StrategyEnabled(name string) bool {
	if len(c.Strategies) == 0 {
		return true
	}
	for i := range c.Strategies {
		if strings.EqualFold(c.Strategies[i].Name, name) {
			return c.Strategies[i].Enabled
		}
	}
	return false
}

// Validate ensures no one sets bad risk values on purpose
func (r *RiskParameters) Validate() error {
	one := decimal.NewFromInt(1)
	if !r.MaxRiskPerTrade.IsPositive() || r.MaxRiskPerTrade.GreaterThan(one) {
		return fmt.Errorf("%w maxRiskPerTrade %v must be within (0,1]", ErrInvalidRiskParameter, r.MaxRiskPerTrade)
	}
	if math.IsNaN(r.MinRewardRatio) || r.MinRewardRatio <= 0 {
		return fmt.Errorf("%w minRewardRatio %v must be greater than zero", ErrInvalidRiskParameter, r.MinRewardRatio)
	}
	if r.MaxPositions < 1 {
		return fmt.Errorf("%w maxPositions %v must be at least one", ErrInvalidRiskParameter, r.MaxPositions)
	}
	if !r.MaxPositionPct.IsPositive() || r.MaxPositionPct.GreaterThan(one) {
		return fmt.Errorf("%w maxPositionPct %v must be within (0,1]", ErrInvalidRiskParameter, r.MaxPositionPct)
	}
	if math.IsNaN(r.MinConfidence) || r.MinConfidence < 0 || r.MinConfidence > 1 {
		return fmt.Errorf("%w minConfidence %v must be within [0,1]", ErrInvalidRiskParameter, r.MinConfidence)
	}
	if r.DailyLossLimit.IsNegative() {
		return fmt.Errorf("%w dailyLossLimit %v must not be negative", ErrInvalidRiskParameter, r.DailyLossLimit)
	}
	if r.MaxDrawdownPct.IsNegative() || r.MaxDrawdownPct.GreaterThanOrEqual(one) {
		return fmt.Errorf("%w maxDrawdownPct %v must be within [0,1)", ErrInvalidRiskParameter, r.MaxDrawdownPct)
	}
	if r.MinCapital.IsNegative() {
		return fmt.Errorf("%w minCapital %v must not be negative", ErrInvalidRiskParameter, r.MinCapital)
	}
	if r.PriceTolerance.IsNegative() {
		return fmt.Errorf("%w priceTolerance %v must not be negative", ErrInvalidRiskParameter, r.PriceTolerance)
	}
	if r.MaxHoldDays < 1 {
		return fmt.Errorf("%w maxHoldDays %v must be at least one", ErrInvalidRiskParameter, r.MaxHoldDays)
	}
	if r.FillTimeout <= 0 {
		return fmt.Errorf("%w fillTimeout %v must be positive", ErrInvalidRiskParameter, r.FillTimeout)
	}
	if r.AlertDistance.IsNegative() {
		return fmt.Errorf("%w alertDistance %v must not be negative", ErrInvalidRiskParameter, r.AlertDistance)
	}
	if r.LargeLossAlert.IsNegative() {
		return fmt.Errorf("%w largeLossAlert %v must not be negative", ErrInvalidRiskParameter, r.LargeLossAlert)
	}
	if r.ConcentrationAlert.IsNegative() || r.ConcentrationAlert.GreaterThan(one) {
		return fmt.Errorf("%w concentrationAlert %v must be within [0,1]", ErrInvalidRiskParameter, r.ConcentrationAlert)
	}
	return nil
}

// LogConfig converts the logging settings into a log.Config
func (l *LoggingSettings) LogConfig() log.Config {
	c := log.GenDefaultSettings()
	c.Enabled = convert.BoolPtr(l.Enabled)
	if l.Level != "" {
		c.Level = l.Level
	}
	if l.Output != "" {
		c.Output = l.Output
	}
	if l.FileName != "" {
		c.FileName = l.FileName
	}
	c.SubLoggers = l.SubLoggers
	return c
}
