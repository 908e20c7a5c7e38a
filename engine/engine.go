package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/aggregator"
	"github.com/thrasher-corp/swingtrader/analysis"
	"github.com/thrasher-corp/swingtrader/audit"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/database"
	positionrepo "github.com/thrasher-corp/swingtrader/database/repository/position"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/execution"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/log"
	"github.com/thrasher-corp/swingtrader/portfolio"
	"github.com/thrasher-corp/swingtrader/portfolio/lifecycle"
	"github.com/thrasher-corp/swingtrader/portfolio/risk"
	"github.com/thrasher-corp/swingtrader/strategies"
	"golang.org/x/sync/errgroup"
)

// New returns an engine for the config. Strategies come from the registry
// filtered by the config's enabled list unless WithStrategies is supplied
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := common.NilGuard(cfg); err != nil {
		return nil, fmt.Errorf("%w config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	arena, err := kline.NewArena(kline.DefaultWindow)
	if err != nil {
		return nil, err
	}
	ledger, err := portfolio.NewLedger(cfg.InitialCapital, portfolio.Limits{
		MaxPositions:   cfg.Risk.MaxPositions,
		MaxPositionPct: cfg.Risk.MaxPositionPct,
		DailyLossLimit: cfg.Risk.DailyLossLimit,
		MaxDrawdownPct: cfg.Risk.MaxDrawdownPct,
	})
	if err != nil {
		return nil, err
	}
	e := &Engine{
		config:   cfg,
		arena:    arena,
		ledger:   ledger,
		handlers: strategies.LoadEnabled(cfg.StrategyEnabled),
		sink:     audit.LogSink{},
		workers:  runtime.GOMAXPROCS(0),
		now:      time.Now,
	}
	if e.risk, err = risk.NewManager(cfg.Risk, ledger); err != nil {
		return nil, err
	}
	if e.lifecycle, err = lifecycle.NewManager(cfg.Risk, ledger); err != nil {
		return nil, err
	}
	if e.aggregator, err = aggregator.New(cfg.Risk); err != nil {
		return nil, err
	}
	for i := range opts {
		if err := opts[i](e); err != nil {
			return nil, err
		}
	}
	if len(e.handlers) == 0 {
		return nil, ErrNoStrategies
	}
	names := make([]string, len(e.handlers))
	for i := range e.handlers {
		names[i] = e.handlers[i].Name()
	}
	log.Infof(log.EngineMgr, "engine ready with capital %v, strategies %v, %d workers", cfg.InitialCapital, names, e.workers)
	return e, nil
}

// WithGateway sets the gateway Execute and exits are submitted to
func WithGateway(g execution.Gateway) Option {
	return func(e *Engine) error {
		if err := common.NilGuard(g); err != nil {
			return fmt.Errorf("%w gateway", err)
		}
		e.gateway = g
		return nil
	}
}

// WithSink sets the audit sink
func WithSink(s audit.Sink) Option {
	return func(e *Engine) error {
		if err := common.NilGuard(s); err != nil {
			return fmt.Errorf("%w sink", err)
		}
		e.sink = s
		return nil
	}
}

// WithDatabase persists position changes to the database
func WithDatabase(db *database.Instance) Option {
	return func(e *Engine) error {
		if err := common.NilGuard(db); err != nil {
			return fmt.Errorf("%w database", err)
		}
		e.db = db
		return nil
	}
}

// WithClock sets the time source used to stamp requests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		if err := common.NilGuard(now); err != nil {
			return fmt.Errorf("%w clock", err)
		}
		e.now = now
		return nil
	}
}

// WithWorkers bounds how many symbols are evaluated at once
func WithWorkers(n int) Option {
	return func(e *Engine) error {
		e.workers = max(n, 1)
		return nil
	}
}

// WithStrategies replaces the registry strategies
func WithStrategies(handlers ...strategies.Handler) Option {
	return func(e *Engine) error {
		if err := common.NilGuard(handlers); err != nil {
			return fmt.Errorf("%w strategies", err)
		}
		for i := range handlers {
			if err := common.NilGuard(handlers[i]); err != nil {
				return fmt.Errorf("%w strategy %d", err, i)
			}
		}
		e.handlers = handlers
		return nil
	}
}

// Ledger returns the engine's portfolio ledger
func (e *Engine) Ledger() *portfolio.Ledger {
	return e.ledger
}

// Evaluate runs one cycle and returns the position requests it produced
func (e *Engine) Evaluate(ctx context.Context, symbols []string, history map[string][]kline.Bar, live risk.PriceLookup) ([]order.PositionRequest, error) {
	c, err := e.EvaluateCycle(ctx, symbols, history, live)
	if err != nil {
		return nil, err
	}
	return c.Requests, nil
}

// EvaluateCycle merges new bars into the rolling windows, evaluates every
// symbol in parallel, then aggregates and sizes the signals serially. An
// empty symbol list evaluates the configured symbols, or every symbol held
// when none are configured
func (e *Engine) EvaluateCycle(ctx context.Context, symbols []string, history map[string][]kline.Bar, live risk.PriceLookup) (*Cycle, error) {
	start := time.Now()
	c := &Cycle{Time: e.now()}

	held := make([]string, 0, len(history))
	for symbol := range history {
		held = append(held, symbol)
	}
	sort.Strings(held)
	for _, symbol := range held {
		if _, err := e.arena.Merge(symbol, history[symbol]); err != nil {
			c.Errors = common.AppendError(c.Errors, fmt.Errorf("%s: %w", symbol, err))
		}
	}
	if len(symbols) == 0 {
		symbols = e.config.Symbols
	}
	if len(symbols) == 0 {
		symbols = e.arena.Symbols()
	}

	results := make([][]*signal.Signal, len(symbols))
	errs := make([]error, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range symbols {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = e.evaluateSymbol(symbols[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []audit.Event
	for i := range symbols {
		if errs[i] != nil {
			c.Errors = common.AppendError(c.Errors, fmt.Errorf("%s: %w", symbols[i], errs[i]))
			continue
		}
		c.Evaluated++
		for _, s := range results[i] {
			signalsTotal.WithLabelValues(s.Strategy).Inc()
			c.Signals = append(c.Signals, s)
			events = append(events, audit.Event{
				Time:       c.Time,
				Kind:       audit.SignalGenerated,
				Symbol:     s.Symbol,
				Identifier: s.Strategy,
				Message:    fmt.Sprintf("entry %v stop %v target %v confidence %.2f reward:risk %.2f %v", s.Entry, s.Stop, s.Target, s.Confidence, s.RewardRisk(), s.Reasons),
			})
		}
	}

	result, err := e.aggregator.Aggregate(c.Signals, e.ledger)
	if err != nil {
		return nil, err
	}
	c.Dropped = result.Dropped
	for i := range result.Dropped {
		signalsDropped.WithLabelValues(dropReason(result.Dropped[i].Err)).Inc()
		events = append(events, dropEvent(c.Time, audit.SignalDropped, result.Dropped[i].Signal, result.Dropped[i].Err))
	}

	c.Requests, c.Rejections = e.risk.Process(result.Admitted, live, c.Time)
	for i := range c.Rejections {
		rejectionsTotal.WithLabelValues(rejectionReason(c.Rejections[i].Err)).Inc()
		events = append(events, dropEvent(c.Time, audit.SignalRejected, c.Rejections[i].Signal, c.Rejections[i].Err))
	}
	for i := range c.Requests {
		requestsTotal.Inc()
		events = append(events, audit.Event{
			Time:       c.Time,
			Kind:       audit.PositionRequested,
			Symbol:     c.Requests[i].Symbol,
			Identifier: c.Requests[i].ID,
			Message:    fmt.Sprintf("%s %d @ %v stop %v target %v capital %v", c.Requests[i].Strategy, c.Requests[i].Quantity, c.Requests[i].Entry, c.Requests[i].Stop, c.Requests[i].Target, c.Requests[i].Capital),
		})
	}
	e.record(ctx, events...)
	cycleDuration.Observe(time.Since(start).Seconds())
	log.Infof(log.EngineMgr, "cycle evaluated %d/%d symbols, %d signals, %d dropped, %d rejected, %d requests",
		c.Evaluated, len(symbols), len(c.Signals), len(c.Dropped), len(c.Rejections), len(c.Requests))
	e.Summary(ctx)
	return c, nil
}

func (e *Engine) evaluateSymbol(symbol string) ([]*signal.Signal, error) {
	snap, err := analysis.Calculate(e.arena.Bars(symbol))
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientHistory) {
			log.Debugf(log.Analysis, "%s skipped: %v", symbol, err)
		}
		return nil, err
	}
	var resp []*signal.Signal
	var errs error
	for _, h := range e.handlers {
		s, err := h.Evaluate(snap)
		if err != nil {
			errs = common.AppendError(errs, fmt.Errorf("%s: %w", h.Name(), err))
			continue
		}
		if s != nil {
			resp = append(resp, s)
		}
	}
	if errs != nil {
		log.Warnf(log.Strategy, "%s strategy errors: %v", symbol, errs)
	}
	return resp, nil
}

// Execute submits requests to the gateway. Filled requests are opened and
// refused requests are discarded. Requests that fail to submit stay pending
// until they are confirmed, rejected or expire
func (e *Engine) Execute(ctx context.Context, requests []order.PositionRequest) (*Execution, error) {
	if e.gateway == nil {
		return nil, errNoGateway
	}
	resp := &Execution{}
	for i := range requests {
		fill, err := e.gateway.SubmitEntry(ctx, &requests[i])
		switch {
		case errors.Is(err, execution.ErrOrderRejected):
			d, rErr := e.RejectFill(ctx, requests[i].ID, err.Error())
			if rErr != nil {
				resp.Errors = common.AppendError(resp.Errors, rErr)
				continue
			}
			resp.Rejected = append(resp.Rejected, d)
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return resp, ctxErr
			}
			resp.Errors = common.AppendError(resp.Errors, fmt.Errorf("%s %s: %w", requests[i].Symbol, requests[i].ID, err))
		case fill == nil:
			resp.Pending = append(resp.Pending, requests[i])
		default:
			p, err := e.ConfirmFill(ctx, requests[i].ID, fill.Price, fill.Time)
			if err != nil {
				resp.Errors = common.AppendError(resp.Errors, err)
				continue
			}
			resp.Opened = append(resp.Opened, p)
		}
	}
	return resp, nil
}

// ConfirmFill opens a pending position
func (e *Engine) ConfirmFill(ctx context.Context, id string, price decimal.Decimal, t time.Time) (portfolio.Position, error) {
	p, err := e.lifecycle.ConfirmFill(id, price, t)
	if err != nil {
		return portfolio.Position{}, err
	}
	e.persist(ctx, p)
	e.record(ctx, audit.Event{
		Time:       t,
		Kind:       audit.PositionOpened,
		Symbol:     p.Symbol,
		Identifier: p.ID,
		Message:    fmt.Sprintf("%s %d @ %v", p.Strategy, p.Quantity, p.Entry),
	})
	return p, nil
}

// RejectFill discards a pending position the gateway refused
func (e *Engine) RejectFill(ctx context.Context, id, reason string) (lifecycle.Discard, error) {
	d, err := e.lifecycle.RejectFill(id, reason)
	if err != nil {
		return lifecycle.Discard{}, err
	}
	e.record(ctx, discardEvent(e.now(), &d))
	return d, nil
}

// ExpirePending discards pending positions older than the fill timeout
func (e *Engine) ExpirePending(ctx context.Context, now time.Time) []lifecycle.Discard {
	discards := e.lifecycle.ExpirePending(now)
	events := make([]audit.Event, len(discards))
	for i := range discards {
		events[i] = discardEvent(now, &discards[i])
	}
	e.record(ctx, events...)
	return discards
}

// OnTick applies a live price to the symbol's open position and returns any
// exit it triggered
func (e *Engine) OnTick(ctx context.Context, tick kline.Tick) ([]order.ExitInstruction, error) {
	exit, alerts, err := e.lifecycle.OnTick(tick)
	if err != nil {
		return nil, err
	}
	events := make([]audit.Event, 0, len(alerts))
	for i := range alerts {
		events = append(events, audit.Event{
			Time:       alerts[i].Time,
			Kind:       audit.PositionAlert,
			Symbol:     alerts[i].Symbol,
			Identifier: alerts[i].PositionID,
			Message:    fmt.Sprintf("%s price %v distance %v", alerts[i].Kind, alerts[i].Price, alerts[i].Distance.StringFixed(4)),
		})
	}
	e.record(ctx, events...)
	if exit == nil {
		return nil, nil
	}
	return []order.ExitInstruction{*exit}, e.exited(ctx, exit)
}

// ClosePosition closes an open position manually. A zero price closes at the
// last marked price
func (e *Engine) ClosePosition(ctx context.Context, id string, price decimal.Decimal, t time.Time) (*order.ExitInstruction, error) {
	exit, err := e.lifecycle.ClosePosition(id, price, t)
	if err != nil {
		return nil, err
	}
	return exit, e.exited(ctx, exit)
}

func (e *Engine) exited(ctx context.Context, exit *order.ExitInstruction) error {
	exitsTotal.WithLabelValues(string(exit.Reason)).Inc()
	p, ok := e.ledger.Position(exit.PositionID)
	if ok {
		e.persist(ctx, p)
	}
	e.record(ctx, audit.Event{
		Time:       exit.Time,
		Kind:       audit.PositionClosed,
		Symbol:     exit.Symbol,
		Identifier: exit.PositionID,
		Message:    fmt.Sprintf("%s %d @ %v pnl %v", exit.Reason, exit.Quantity, exit.Price, p.RealizedPnL),
	})
	e.Summary(ctx)
	if e.gateway == nil {
		return nil
	}
	return e.gateway.SubmitExit(ctx, exit)
}

// ResetSession starts a new trading session, re-arming the loss breaker
func (e *Engine) ResetSession() {
	e.ledger.ResetSession()
}

// Resume restores the open positions stored in the database and returns how
// many were restored
func (e *Engine) Resume(ctx context.Context) (int, error) {
	if e.db == nil {
		return 0, errNoDatabase
	}
	open, err := positionrepo.LoadByState(ctx, e.db, portfolio.Open)
	if err != nil {
		return 0, err
	}
	if len(open) == 0 {
		return 0, nil
	}
	if err := e.ledger.Restore(open); err != nil {
		return 0, err
	}
	log.Infof(log.EngineMgr, "resumed %d open positions", len(open))
	e.Summary(ctx)
	return len(open), nil
}

// Summary logs and records the ledger's state
func (e *Engine) Summary(ctx context.Context) portfolio.Snapshot {
	s := e.ledger.Snapshot()
	observeLedger(&s)
	msg := fmt.Sprintf("capital %v available %v open %d pending %d realized %v unrealized %v drawdown %v breaker %v halted %v",
		s.TotalCapital.StringFixed(2), s.AvailableCapital.StringFixed(2), len(s.Open), len(s.Pending),
		s.DailyRealizedPnL.StringFixed(2), s.UnrealizedPnL.StringFixed(2), s.Drawdown.StringFixed(4),
		s.BreakerTripped, s.DrawdownHalted)
	log.Infof(log.EngineMgr, "session %s", msg)
	e.record(ctx, audit.Event{Time: e.now(), Kind: audit.SessionSummary, Message: msg})
	return s
}

func (e *Engine) persist(ctx context.Context, p portfolio.Position) {
	if e.db == nil {
		return
	}
	if err := positionrepo.Upsert(ctx, e.db, p); err != nil {
		log.Errorf(log.Database, "storing position %s %s: %v", p.Symbol, p.ID, err)
	}
}

func (e *Engine) record(ctx context.Context, events ...audit.Event) {
	if len(events) == 0 {
		return
	}
	if err := e.sink.Record(ctx, events...); err != nil {
		log.Errorf(log.Audit, "recording %d events: %v", len(events), err)
	}
}

func dropEvent(t time.Time, kind audit.Kind, s *signal.Signal, err error) audit.Event {
	ev := audit.Event{Time: t, Kind: kind, Message: err.Error()}
	if s != nil {
		ev.Symbol = s.Symbol
		ev.Identifier = s.Strategy
	}
	return ev
}

func discardEvent(t time.Time, d *lifecycle.Discard) audit.Event {
	return audit.Event{
		Time:       t,
		Kind:       audit.PositionDiscarded,
		Symbol:     d.Position.Symbol,
		Identifier: d.Position.ID,
		Message:    d.Err.Error(),
	}
}
