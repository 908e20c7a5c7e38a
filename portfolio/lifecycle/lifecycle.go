package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/common/math"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/log"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

// NewManager returns a lifecycle manager operating on the ledger
func NewManager(params config.RiskParameters, ledger *portfolio.Ledger) (*Manager, error) {
	if err := common.NilGuard(ledger); err != nil {
		return nil, fmt.Errorf("%w ledger", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Manager{params: params, ledger: ledger}, nil
}

// ConfirmFill opens a pending position at the fill price. A zero fill price
// fills at the requested entry
func (m *Manager) ConfirmFill(id string, fillPrice decimal.Decimal, t time.Time) (portfolio.Position, error) {
	p, err := m.ledger.Open(id, fillPrice, t)
	if err != nil {
		return portfolio.Position{}, transitionError(err)
	}
	log.Infof(log.Lifecycle, "%s %s filled %d @ %v", p.Symbol, p.ID, p.Quantity, p.Entry)
	return p, nil
}

// RejectFill discards a pending position the gateway refused and releases its
// capital
func (m *Manager) RejectFill(id, reason string) (Discard, error) {
	p, err := m.ledger.Release(id)
	if err != nil {
		return Discard{}, transitionError(err)
	}
	d := Discard{Position: p, Err: fmt.Errorf("%w %s %s: %s", ErrExecutionRejected, p.Symbol, p.ID, reason)}
	log.Warnf(log.Lifecycle, "%v", d.Err)
	return d, nil
}

// ExpirePending discards every pending position requested at least the fill
// timeout before now
func (m *Manager) ExpirePending(now time.Time) []Discard {
	var resp []Discard
	pending := m.ledger.Positions(portfolio.Pending)
	for i := range pending {
		age := now.Sub(pending[i].RequestTime)
		if age < m.params.FillTimeout {
			continue
		}
		p, err := m.ledger.Release(pending[i].ID)
		if err != nil {
			// filled or rejected since the listing
			log.Debugf(log.Lifecycle, "%s %s not expired: %v", pending[i].Symbol, pending[i].ID, err)
			continue
		}
		d := Discard{Position: p, Err: fmt.Errorf("%w %s %s pending for %v", ErrExecutionTimeout, p.Symbol, p.ID, age)}
		log.Warnf(log.Lifecycle, "%v", d.Err)
		resp = append(resp, d)
	}
	return resp
}

// OnTick marks the symbol's open position to the tick price and closes it
// when an exit condition holds. Stop loss takes precedence over the profit
// target which takes precedence over the time exit. Alerts are only raised
// for positions that stay open
func (m *Manager) OnTick(tick kline.Tick) (*order.ExitInstruction, []Alert, error) {
	if tick.Symbol == "" {
		return nil, nil, common.ErrSymbolEmpty
	}
	if !tick.Price.IsPositive() {
		return nil, nil, fmt.Errorf("%w %s tick price %v", kline.ErrInvalidBar, tick.Symbol, tick.Price)
	}
	p, ok := m.ledger.MarkPrice(tick.Symbol, tick.Price, tick.Time)
	if !ok {
		return nil, nil, nil
	}
	if reason, exit := m.exitReason(&p, tick.Price, tick.Time); exit {
		e, err := m.close(p.ID, tick.Price, reason, tick.Time)
		return e, nil, err
	}
	return nil, m.alerts(&p, tick.Price, tick.Time), nil
}

// ClosePosition manually closes an open position. A zero price closes at the
// last marked price
func (m *Manager) ClosePosition(id string, price decimal.Decimal, t time.Time) (*order.ExitInstruction, error) {
	if price.IsZero() {
		p, ok := m.ledger.Position(id)
		if !ok {
			return nil, fmt.Errorf("%w %s", portfolio.ErrPositionNotFound, id)
		}
		price = p.LastPrice
		if !price.IsPositive() {
			price = p.Entry
		}
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w %s", errNoPrice, id)
	}
	return m.close(id, price, order.ClosedManual, t)
}

func (m *Manager) close(id string, price decimal.Decimal, reason order.Reason, t time.Time) (*order.ExitInstruction, error) {
	p, err := m.ledger.Close(id, price, reason, t)
	if err != nil {
		return nil, transitionError(err)
	}
	log.Infof(log.Lifecycle, "%s %s %s @ %v pnl %v", p.Symbol, p.ID, reason, price, p.RealizedPnL)
	return &order.ExitInstruction{
		PositionID: p.ID,
		Symbol:     p.Symbol,
		Quantity:   p.Quantity,
		Price:      price,
		Reason:     reason,
		Time:       t,
	}, nil
}

func (m *Manager) exitReason(p *portfolio.Position, price decimal.Decimal, t time.Time) (order.Reason, bool) {
	switch {
	case price.LessThanOrEqual(p.Stop):
		return order.ClosedLoss, true
	case price.GreaterThanOrEqual(p.Target):
		return order.ClosedProfit, true
	case TradingDays(p.OpenTime, t) >= m.params.MaxHoldDays:
		return order.ClosedTimeExit, true
	}
	return "", false
}

func (m *Manager) alerts(p *portfolio.Position, price decimal.Decimal, t time.Time) []Alert {
	var resp []Alert
	if m.params.AlertDistance.IsPositive() {
		limit := m.params.AlertDistance.Mul(oneHundred)
		if d := math.DecimalPercentageDistance(price, p.Stop); d.LessThan(limit) {
			resp = append(resp, Alert{Kind: StopApproach, PositionID: p.ID, Symbol: p.Symbol, Price: price, Distance: d, Time: t})
		}
		if d := math.DecimalPercentageDistance(price, p.Target); d.LessThan(limit) {
			resp = append(resp, Alert{Kind: TargetApproach, PositionID: p.ID, Symbol: p.Symbol, Price: price, Distance: d, Time: t})
		}
	}
	if m.params.LargeLossAlert.IsPositive() {
		if pnl := p.UnrealizedPnL(); pnl.LessThan(m.params.LargeLossAlert.Neg()) {
			resp = append(resp, Alert{Kind: LargeLoss, PositionID: p.ID, Symbol: p.Symbol, Price: price, Distance: pnl, Time: t})
		}
	}
	if m.params.ConcentrationAlert.IsPositive() {
		if equity := m.ledger.Equity(); equity.IsPositive() {
			share := price.Mul(decimal.NewFromInt(p.Quantity)).Div(equity)
			if share.GreaterThan(m.params.ConcentrationAlert) {
				resp = append(resp, Alert{Kind: Concentration, PositionID: p.ID, Symbol: p.Symbol, Price: price, Distance: share.Mul(oneHundred), Time: t})
			}
		}
	}
	for i := range resp {
		log.Warnf(log.Lifecycle, "%s %s %s @ %v: %v", resp[i].Kind, resp[i].Symbol, resp[i].PositionID, price, resp[i].Distance.StringFixed(4))
	}
	return resp
}

// TradingDays counts the weekdays after from's date up to and including to's
// date
func TradingDays(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		return 0
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	var days int
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days++
		}
	}
	return days
}

func transitionError(err error) error {
	if errors.Is(err, portfolio.ErrInvalidState) {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	}
	return err
}
