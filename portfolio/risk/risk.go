package risk

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/log"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

// NewManager returns a risk manager sizing against the ledger
func NewManager(params config.RiskParameters, ledger *portfolio.Ledger) (*Manager, error) {
	if err := common.NilGuard(ledger); err != nil {
		return nil, fmt.Errorf("%w ledger", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Manager{params: params, ledger: ledger, newID: newUUID}, nil
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SetIDGenerator overrides how request ids are created
func (m *Manager) SetIDGenerator(g IDGenerator) error {
	if g == nil {
		return fmt.Errorf("%w id generator", common.ErrNilPointer)
	}
	m.newID = g
	return nil
}

// Process sizes ranked signals in order. Capital reserved for earlier signals
// is unavailable to later ones. Once the loss breaker or the drawdown limit
// trips, or capital is exhausted, every remaining signal is rejected with the
// same error
func (m *Manager) Process(signals []*signal.Signal, live PriceLookup, t time.Time) ([]order.PositionRequest, []Rejection) {
	var requests []order.PositionRequest
	var rejections []Rejection
	var halt error
	for i := range signals {
		if halt != nil {
			rejections = append(rejections, Rejection{Signal: signals[i], Err: halt})
			continue
		}
		req, err := m.Size(signals[i], live, t)
		if err != nil {
			if errors.Is(err, ErrDailyLossBreached) || errors.Is(err, ErrDrawdownBreached) || errors.Is(err, ErrCapitalExhausted) {
				halt = err
			}
			log.Debugf(log.RiskMgr, "%s %s rejected: %v", signals[i].Symbol, signals[i].Strategy, err)
			rejections = append(rejections, Rejection{Signal: signals[i], Err: err})
			continue
		}
		requests = append(requests, *req)
	}
	return requests, rejections
}

// Size converts a signal into a position request, reserving its capital.
// The checks and the reservation happen atomically on the ledger
func (m *Manager) Size(sig *signal.Signal, live PriceLookup, t time.Time) (*order.PositionRequest, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	id, err := m.newID()
	if err != nil {
		return nil, err
	}
	p, err := m.ledger.ReserveWith(sig.Symbol, func(a portfolio.Account) (*portfolio.Position, error) {
		qty, err := m.quantity(sig, a, live)
		if err != nil {
			return nil, err
		}
		return &portfolio.Position{
			ID:          id,
			Symbol:      sig.Symbol,
			Strategy:    sig.Strategy,
			Entry:       sig.Entry,
			Stop:        sig.Stop,
			Target:      sig.Target,
			Quantity:    qty,
			RequestTime: t,
		}, nil
	})
	if err != nil {
		if errors.Is(err, portfolio.ErrLossLimitReached) {
			return nil, fmt.Errorf("%w: %v", ErrDailyLossBreached, err)
		}
		if errors.Is(err, portfolio.ErrDrawdownLimitReached) {
			return nil, fmt.Errorf("%w: %v", ErrDrawdownBreached, err)
		}
		if errors.Is(err, ErrDailyLossBreached) || errors.Is(err, ErrDrawdownBreached) || errors.Is(err, ErrCapitalExhausted) ||
			errors.Is(err, ErrStalePrice) || errors.Is(err, ErrRiskRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRiskRejected, err)
	}
	req := &order.PositionRequest{
		ID:         p.ID,
		Symbol:     p.Symbol,
		Strategy:   p.Strategy,
		Entry:      p.Entry,
		Stop:       p.Stop,
		Target:     p.Target,
		Quantity:   p.Quantity,
		Capital:    p.Value(),
		Confidence: sig.Confidence,
		Time:       t,
	}
	log.Infof(log.RiskMgr, "%s %s sized %d @ %v capital %v", req.Symbol, req.Strategy, req.Quantity, req.Entry, req.Capital)
	return req, nil
}

func (m *Manager) quantity(sig *signal.Signal, a portfolio.Account, live PriceLookup) (int64, error) {
	if m.params.DailyLossLimit.IsPositive() && a.DailyRealizedPnL.LessThanOrEqual(m.params.DailyLossLimit.Neg()) {
		return 0, fmt.Errorf("%w realized %v limit %v", ErrDailyLossBreached, a.DailyRealizedPnL, m.params.DailyLossLimit)
	}
	if m.params.MaxDrawdownPct.IsPositive() && a.MaxDrawdown.GreaterThan(m.params.MaxDrawdownPct) {
		return 0, fmt.Errorf("%w drawdown %v limit %v", ErrDrawdownBreached, a.MaxDrawdown.StringFixed(4), m.params.MaxDrawdownPct)
	}
	if m.params.MinCapital.IsPositive() && a.AvailableCapital.LessThan(m.params.MinCapital) {
		return 0, fmt.Errorf("%w available %v minimum %v", ErrCapitalExhausted, a.AvailableCapital, m.params.MinCapital)
	}
	if err := m.checkPrice(sig, live); err != nil {
		return 0, err
	}
	if a.SymbolActive {
		return 0, fmt.Errorf("%w %s already has an active position", ErrRiskRejected, sig.Symbol)
	}
	if a.Active >= m.params.MaxPositions {
		return 0, fmt.Errorf("%w %d/%d positions active", ErrRiskRejected, a.Active, m.params.MaxPositions)
	}
	priceRisk := sig.PriceRisk()
	if !priceRisk.IsPositive() {
		return 0, fmt.Errorf("%w %s no price risk", ErrRiskRejected, sig.Symbol)
	}
	riskAmount := a.AvailableCapital.Mul(m.params.MaxRiskPerTrade)
	qty := riskAmount.Div(priceRisk).Floor()
	capValue := m.params.MaxPositionPct.Mul(a.TotalCapital)
	if sig.Entry.Mul(qty).GreaterThan(capValue) {
		qty = capValue.Div(sig.Entry).Floor()
	}
	if qty.LessThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("%w %s quantity %v below one", ErrRiskRejected, sig.Symbol, qty)
	}
	if value := sig.Entry.Mul(qty); value.GreaterThan(a.AvailableCapital) {
		return 0, fmt.Errorf("%w %s value %v exceeds available %v", ErrRiskRejected, sig.Symbol, value, a.AvailableCapital)
	}
	return qty.IntPart(), nil
}

// checkPrice drops a signal whose entry no longer reflects the market. No
// lookup, no live price or a zero tolerance skips the check
func (m *Manager) checkPrice(sig *signal.Signal, live PriceLookup) error {
	if live == nil || !m.params.PriceTolerance.IsPositive() {
		return nil
	}
	price, ok := live(sig.Symbol)
	if !ok || !price.IsPositive() {
		return nil
	}
	drift := price.Sub(sig.Entry).Abs().Div(sig.Entry)
	if drift.GreaterThan(m.params.PriceTolerance) {
		return fmt.Errorf("%w %s live %v entry %v drift %v", ErrStalePrice, sig.Symbol, price, sig.Entry, drift.StringFixed(4))
	}
	return nil
}
