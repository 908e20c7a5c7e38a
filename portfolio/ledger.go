package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/log"
)

// NewLedger returns a ledger holding the initial capital
func NewLedger(initialCapital decimal.Decimal, limits Limits) (*Ledger, error) {
	if !initialCapital.IsPositive() {
		return nil, errInvalidCapital
	}
	if limits.MaxPositions < 1 {
		return nil, fmt.Errorf("%w max positions %d", ErrPositionLimit, limits.MaxPositions)
	}
	if !limits.MaxPositionPct.IsPositive() {
		return nil, fmt.Errorf("%w max position pct %v", ErrPositionCap, limits.MaxPositionPct)
	}
	if limits.MaxDrawdownPct.IsNegative() || limits.MaxDrawdownPct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: %v", errInvalidDrawdown, limits.MaxDrawdownPct)
	}
	return &Ledger{
		limits:           limits,
		initialCapital:   initialCapital,
		totalCapital:     initialCapital,
		availableCapital: initialCapital,
		peakEquity:       initialCapital,
		positions:        make(map[string]*Position),
		bySymbol:         make(map[string]string),
	}, nil
}

// Reserve holds capital for a pending position
func (l *Ledger) Reserve(p *Position) error {
	l.m.Lock()
	defer l.m.Unlock()
	return l.reserve(p)
}

// ReserveWith sizes and reserves a position in one step. size receives a view
// of the ledger that cannot change until it returns. A nil position from size
// reserves nothing
func (l *Ledger) ReserveWith(symbol string, size func(Account) (*Position, error)) (*Position, error) {
	l.m.Lock()
	defer l.m.Unlock()
	_, active := l.bySymbol[symbol]
	p, err := size(Account{
		TotalCapital:     l.totalCapital,
		AvailableCapital: l.availableCapital,
		DailyRealizedPnL: l.dailyRealizedPnL,
		MaxDrawdown:      l.maxDrawdown,
		Limits:           l.limits,
		Active:           len(l.positions),
		SymbolActive:     active,
	})
	if err != nil || p == nil {
		return nil, err
	}
	if p.Symbol != symbol {
		return nil, fmt.Errorf("%w: sized %s for %s", errInvalidPosition, p.Symbol, symbol)
	}
	if err := l.reserve(p); err != nil {
		return nil, err
	}
	cpy := *p
	return &cpy, nil
}

func (l *Ledger) reserve(p *Position) error {
	if err := p.validate(); err != nil {
		return err
	}
	if _, ok := l.positions[p.ID]; ok {
		return fmt.Errorf("%w %s", errDuplicateID, p.ID)
	}
	if l.breakerTripped() {
		return fmt.Errorf("%w realized %v", ErrLossLimitReached, l.dailyRealizedPnL)
	}
	if l.drawdownHalted() {
		return fmt.Errorf("%w %v limit %v", ErrDrawdownLimitReached, l.maxDrawdown.StringFixed(4), l.limits.MaxDrawdownPct)
	}
	if len(l.positions) >= l.limits.MaxPositions {
		return fmt.Errorf("%w %d/%d", ErrPositionLimit, len(l.positions), l.limits.MaxPositions)
	}
	if id, ok := l.bySymbol[p.Symbol]; ok {
		return fmt.Errorf("%w %s held by %s", ErrSymbolActive, p.Symbol, id)
	}
	value := p.Value()
	if limit := l.positionCap(); value.GreaterThan(limit) {
		return fmt.Errorf("%w %s value %v cap %v", ErrPositionCap, p.Symbol, value, limit)
	}
	if value.GreaterThan(l.availableCapital) {
		return fmt.Errorf("%w %s value %v available %v", ErrInsufficientCapital, p.Symbol, value, l.availableCapital)
	}
	stored := *p
	stored.State = Pending
	l.positions[stored.ID] = &stored
	l.bySymbol[stored.Symbol] = stored.ID
	l.availableCapital = l.availableCapital.Sub(value)
	log.Debugf(log.Ledger, "reserved %v for %s %s, available %v", value, stored.Symbol, stored.ID, l.availableCapital)
	return l.verify()
}

// Release discards a pending position and returns its reservation
func (l *Ledger) Release(id string) (Position, error) {
	l.m.Lock()
	defer l.m.Unlock()
	p, err := l.get(id, Pending)
	if err != nil {
		return Position{}, err
	}
	delete(l.positions, id)
	delete(l.bySymbol, p.Symbol)
	l.availableCapital = l.availableCapital.Add(p.Value())
	log.Debugf(log.Ledger, "released %v for %s %s, available %v", p.Value(), p.Symbol, id, l.availableCapital)
	return *p, l.verify()
}

// Open moves a pending position to open at the fill price. A zero fill price
// fills at the reserved entry. The reservation is adjusted by the difference
// between the filled and reserved value
func (l *Ledger) Open(id string, fillPrice decimal.Decimal, t time.Time) (Position, error) {
	l.m.Lock()
	defer l.m.Unlock()
	p, err := l.get(id, Pending)
	if err != nil {
		return Position{}, err
	}
	if fillPrice.IsNegative() {
		return Position{}, fmt.Errorf("%w %s fill %v", errInvalidPrice, p.Symbol, fillPrice)
	}
	if !fillPrice.IsZero() && !fillPrice.Equal(p.Entry) {
		reserved := p.Value()
		filled := fillPrice.Mul(decimal.NewFromInt(p.Quantity))
		diff := filled.Sub(reserved)
		if diff.GreaterThan(l.availableCapital) {
			return Position{}, fmt.Errorf("%w %s fill %v needs %v more, available %v", ErrInsufficientCapital, p.Symbol, fillPrice, diff, l.availableCapital)
		}
		if limit := l.positionCap(); filled.GreaterThan(limit) {
			return Position{}, fmt.Errorf("%w %s filled value %v cap %v", ErrPositionCap, p.Symbol, filled, limit)
		}
		if !p.Stop.LessThan(fillPrice) || !p.Target.GreaterThan(fillPrice) {
			return Position{}, fmt.Errorf("%w %s fill %v outside stop %v and target %v", errInvalidPrice, p.Symbol, fillPrice, p.Stop, p.Target)
		}
		l.availableCapital = l.availableCapital.Sub(diff)
		p.Entry = fillPrice
	}
	p.State = Open
	p.OpenTime = t
	p.LastPrice = p.Entry
	p.LastUpdate = t
	log.Debugf(log.Ledger, "opened %s %s %d @ %v", p.Symbol, id, p.Quantity, p.Entry)
	return *p, l.verify()
}

// Close realizes an open position at price. The profit or loss is credited
// to total capital and the daily realized figure and the position's capital
// is returned to available
func (l *Ledger) Close(id string, price decimal.Decimal, reason order.Reason, t time.Time) (Position, error) {
	l.m.Lock()
	defer l.m.Unlock()
	p, err := l.get(id, Open)
	if err != nil {
		return Position{}, err
	}
	if !price.IsPositive() {
		return Position{}, fmt.Errorf("%w %s close %v", errInvalidPrice, p.Symbol, price)
	}
	pnl := price.Sub(p.Entry).Mul(decimal.NewFromInt(p.Quantity))
	l.totalCapital = l.totalCapital.Add(pnl)
	l.availableCapital = l.availableCapital.Add(p.Value()).Add(pnl)
	l.dailyRealizedPnL = l.dailyRealizedPnL.Add(pnl)

	p.State = Closed
	p.CloseReason = reason
	p.ClosePrice = price
	p.CloseTime = t
	p.RealizedPnL = pnl
	p.LastPrice = price
	p.LastUpdate = t
	delete(l.positions, id)
	delete(l.bySymbol, p.Symbol)
	l.closed = append(l.closed, *p)
	log.Infof(log.Ledger, "closed %s %s %s pnl %v, daily realized %v", p.Symbol, id, reason, pnl, l.dailyRealizedPnL)
	l.trackEquity()
	return *p, l.verify()
}

// MarkPrice records the latest price for the symbol's open position
func (l *Ledger) MarkPrice(symbol string, price decimal.Decimal, t time.Time) (Position, bool) {
	l.m.Lock()
	defer l.m.Unlock()
	id, ok := l.bySymbol[symbol]
	if !ok {
		return Position{}, false
	}
	p := l.positions[id]
	if p.State != Open || !price.IsPositive() {
		return *p, false
	}
	p.LastPrice = price
	p.LastUpdate = t
	l.trackEquity()
	return *p, true
}

// Position returns the position holding the id, including closed positions
func (l *Ledger) Position(id string) (Position, bool) {
	l.m.Lock()
	defer l.m.Unlock()
	if p, ok := l.positions[id]; ok {
		return *p, true
	}
	for i := range l.closed {
		if l.closed[i].ID == id {
			return l.closed[i], true
		}
	}
	return Position{}, false
}

// PositionBySymbol returns the active position for the symbol
func (l *Ledger) PositionBySymbol(symbol string) (Position, bool) {
	l.m.Lock()
	defer l.m.Unlock()
	id, ok := l.bySymbol[symbol]
	if !ok {
		return Position{}, false
	}
	return *l.positions[id], true
}

// Positions returns every active position in the state ordered by symbol
func (l *Ledger) Positions(state State) []Position {
	l.m.Lock()
	defer l.m.Unlock()
	return l.positionsInState(state)
}

// Closed returns the closed position history in close order
func (l *Ledger) Closed() []Position {
	l.m.Lock()
	defer l.m.Unlock()
	resp := make([]Position, len(l.closed))
	copy(resp, l.closed)
	return resp
}

// HasActive reports whether the symbol has an open or pending position
func (l *Ledger) HasActive(symbol string) bool {
	l.m.Lock()
	defer l.m.Unlock()
	_, ok := l.bySymbol[symbol]
	return ok
}

// ActiveCount returns the number of open and pending positions
func (l *Ledger) ActiveCount() int {
	l.m.Lock()
	defer l.m.Unlock()
	return len(l.positions)
}

// Equity returns total capital plus the unrealized result of open positions
func (l *Ledger) Equity() decimal.Decimal {
	l.m.Lock()
	defer l.m.Unlock()
	return l.equity()
}

// DrawdownHalted reports whether new positions are halted by the drawdown
// limit
func (l *Ledger) DrawdownHalted() bool {
	l.m.Lock()
	defer l.m.Unlock()
	return l.drawdownHalted()
}

// BreakerTripped reports whether new positions are halted for the session
func (l *Ledger) BreakerTripped() bool {
	l.m.Lock()
	defer l.m.Unlock()
	return l.breakerTripped()
}

// Snapshot returns a copy of the ledger's state
func (l *Ledger) Snapshot() Snapshot {
	l.m.Lock()
	defer l.m.Unlock()
	s := Snapshot{
		Time:             time.Now(),
		InitialCapital:   l.initialCapital,
		TotalCapital:     l.totalCapital,
		AvailableCapital: l.availableCapital,
		DailyRealizedPnL: l.dailyRealizedPnL,
		Limits:           l.limits,
		Open:             l.positionsInState(Open),
		Pending:          l.positionsInState(Pending),
		ClosedCount:      len(l.closed),
		BreakerTripped:   l.breakerTripped(),
		Equity:           l.equity(),
		PeakEquity:       l.peakEquity,
		Drawdown:         l.drawdown(),
		MaxDrawdown:      l.maxDrawdown,
		DrawdownHalted:   l.drawdownHalted(),
	}
	for i := range s.Open {
		s.UnrealizedPnL = s.UnrealizedPnL.Add(s.Open[i].UnrealizedPnL())
	}
	return s
}

// ResetSession clears the daily realized figure, re-arming the loss breaker.
// The drawdown halt is not re-armed
func (l *Ledger) ResetSession() {
	l.m.Lock()
	defer l.m.Unlock()
	log.Infof(log.Ledger, "session reset, daily realized %v cleared", l.dailyRealizedPnL)
	l.dailyRealizedPnL = decimal.Zero
}

// Restore loads open positions recovered from a previous session. Positions
// must pass the same checks as a new reservation. Either every position is
// restored or, on error, none are
func (l *Ledger) Restore(positions []Position) error {
	l.m.Lock()
	defer l.m.Unlock()
	restored := make([]string, 0, len(positions))
	for i := range positions {
		_, existed := l.positions[positions[i].ID]
		if err := l.restore(&positions[i]); err != nil {
			if _, ok := l.positions[positions[i].ID]; ok && !existed {
				restored = append(restored, positions[i].ID)
			}
			l.rollback(restored)
			return fmt.Errorf("restoring %s: %w", positions[i].ID, err)
		}
		restored = append(restored, positions[i].ID)
	}
	l.trackEquity()
	return nil
}

func (l *Ledger) restore(pos *Position) error {
	if pos.State != Open {
		return fmt.Errorf("%w %s restoring %s", ErrInvalidState, pos.ID, pos.State)
	}
	openTime, last := pos.OpenTime, pos.LastPrice
	if err := l.reserve(pos); err != nil {
		return err
	}
	p := l.positions[pos.ID]
	p.State = Open
	p.OpenTime = openTime
	p.LastPrice = last
	if p.LastPrice.IsZero() {
		p.LastPrice = p.Entry
	}
	return nil
}

// rollback removes positions reserved by a failed restore and returns their
// capital
func (l *Ledger) rollback(ids []string) {
	for _, id := range ids {
		p, ok := l.positions[id]
		if !ok {
			continue
		}
		delete(l.positions, id)
		delete(l.bySymbol, p.Symbol)
		l.availableCapital = l.availableCapital.Add(p.Value())
	}
	if len(ids) > 0 {
		log.Warnf(log.Ledger, "restore failed, rolled back %d positions", len(ids))
	}
}

// Verify checks every ledger invariant
func (l *Ledger) Verify() error {
	l.m.Lock()
	defer l.m.Unlock()
	return l.verify()
}

func (l *Ledger) verify() error {
	committed := decimal.Zero
	symbols := make(map[string]struct{}, len(l.positions))
	for id, p := range l.positions {
		if !p.IsActive() {
			return fmt.Errorf("%w: %s held in state %s", ErrInvariantViolated, id, p.State)
		}
		if _, ok := symbols[p.Symbol]; ok {
			return fmt.Errorf("%w: %s has more than one active position", ErrInvariantViolated, p.Symbol)
		}
		symbols[p.Symbol] = struct{}{}
		committed = committed.Add(p.Value())
	}
	if len(l.positions) > l.limits.MaxPositions {
		return fmt.Errorf("%w: %d active positions exceed %d", ErrInvariantViolated, len(l.positions), l.limits.MaxPositions)
	}
	if len(l.bySymbol) != len(l.positions) {
		return fmt.Errorf("%w: symbol index out of sync", ErrInvariantViolated)
	}
	if !l.availableCapital.Equal(l.totalCapital.Sub(committed)) {
		return fmt.Errorf("%w: available %v != total %v - committed %v", ErrInvariantViolated, l.availableCapital, l.totalCapital, committed)
	}
	if l.availableCapital.IsNegative() {
		return fmt.Errorf("%w: available capital %v negative", ErrInvariantViolated, l.availableCapital)
	}
	return nil
}

func (l *Ledger) get(id string, state State) (*Position, error) {
	p, ok := l.positions[id]
	if !ok {
		for i := range l.closed {
			if l.closed[i].ID == id {
				return nil, fmt.Errorf("%w %s is %s, require %s", ErrInvalidState, id, Closed, state)
			}
		}
		return nil, fmt.Errorf("%w %s", ErrPositionNotFound, id)
	}
	if p.State != state {
		return nil, fmt.Errorf("%w %s is %s, require %s", ErrInvalidState, id, p.State, state)
	}
	return p, nil
}

func (l *Ledger) positionsInState(state State) []Position {
	var resp []Position
	for _, p := range l.positions {
		if p.State == state {
			resp = append(resp, *p)
		}
	}
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Symbol < resp[j].Symbol
	})
	return resp
}

func (l *Ledger) positionCap() decimal.Decimal {
	return l.limits.MaxPositionPct.Mul(l.totalCapital)
}

func (l *Ledger) breakerTripped() bool {
	if !l.limits.DailyLossLimit.IsPositive() {
		return false
	}
	return l.dailyRealizedPnL.LessThanOrEqual(l.limits.DailyLossLimit.Neg())
}

func (l *Ledger) equity() decimal.Decimal {
	e := l.totalCapital
	for _, p := range l.positions {
		if p.State == Open {
			e = e.Add(p.UnrealizedPnL())
		}
	}
	return e
}

// drawdown is the current fall of equity from its peak as a fraction of the peak
func (l *Ledger) drawdown() decimal.Decimal {
	e := l.equity()
	if !l.peakEquity.IsPositive() || e.GreaterThanOrEqual(l.peakEquity) {
		return decimal.Zero
	}
	return l.peakEquity.Sub(e).Div(l.peakEquity)
}

// trackEquity raises the peak or records a deeper drawdown. It must run after
// every change to total capital or an open position's price
func (l *Ledger) trackEquity() {
	if e := l.equity(); e.GreaterThan(l.peakEquity) {
		l.peakEquity = e
		return
	}
	dd := l.drawdown()
	if !dd.GreaterThan(l.maxDrawdown) {
		return
	}
	halted := l.drawdownHalted()
	l.maxDrawdown = dd
	if !halted && l.drawdownHalted() {
		log.Warnf(log.Ledger, "max drawdown %v exceeds %v, new positions halted", dd.StringFixed(4), l.limits.MaxDrawdownPct)
	}
}

func (l *Ledger) drawdownHalted() bool {
	if !l.limits.MaxDrawdownPct.IsPositive() {
		return false
	}
	return l.maxDrawdown.GreaterThan(l.limits.MaxDrawdownPct)
}
