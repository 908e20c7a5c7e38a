package signal

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// New returns a long signal
func New(symbol, strategy string, entry, stop, target decimal.Decimal, confidence float64, t time.Time) *Signal {
	return &Signal{
		Symbol:     symbol,
		Strategy:   strategy,
		Direction:  Long,
		Entry:      entry,
		Stop:       stop,
		Target:     target,
		Confidence: confidence,
		Time:       t,
	}
}

// AppendReason adds a reason to the signal's decision trail
func (s *Signal) AppendReason(why string) {
	s.Reasons = append(s.Reasons, why)
}

// RewardRisk returns (target - entry) / (entry - stop). A signal with no
// price risk returns zero
func (s *Signal) RewardRisk() float64 {
	risk := s.Entry.Sub(s.Stop)
	if !risk.IsPositive() {
		return 0
	}
	return s.Target.Sub(s.Entry).Div(risk).InexactFloat64()
}

// Score ranks signals against each other
func (s *Signal) Score() float64 {
	return s.Confidence * s.RewardRisk()
}

// PriceRisk returns the per unit amount lost if the stop is hit
func (s *Signal) PriceRisk() decimal.Decimal {
	return s.Entry.Sub(s.Stop)
}

// Validate checks the signal is well formed
func (s *Signal) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil signal", ErrInvalidSignal)
	}
	if s.Symbol == "" {
		return fmt.Errorf("%w: %s signal has no symbol", ErrInvalidSignal, s.Strategy)
	}
	if s.Strategy == "" {
		return fmt.Errorf("%w: %s signal has no strategy", ErrInvalidSignal, s.Symbol)
	}
	if s.Direction != Long {
		return fmt.Errorf("%w: %s %s unsupported direction %q", ErrInvalidSignal, s.Symbol, s.Strategy, s.Direction)
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: %s %s confidence %v outside [0,1]", ErrInvalidSignal, s.Symbol, s.Strategy, s.Confidence)
	}
	if !s.Entry.IsPositive() || !s.Stop.IsPositive() || !s.Target.IsPositive() {
		return fmt.Errorf("%w: %s %s prices must be positive", ErrInvalidSignal, s.Symbol, s.Strategy)
	}
	if s.Stop.GreaterThanOrEqual(s.Entry) {
		return fmt.Errorf("%w: %s %s stop %v not below entry %v", ErrInvalidSignal, s.Symbol, s.Strategy, s.Stop, s.Entry)
	}
	if s.Target.LessThanOrEqual(s.Entry) {
		return fmt.Errorf("%w: %s %s target %v not above entry %v", ErrInvalidSignal, s.Symbol, s.Strategy, s.Target, s.Entry)
	}
	return nil
}
