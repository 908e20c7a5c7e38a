package execution

import (
	"context"
	"fmt"
	"strings"

	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/log"
	"golang.org/x/time/rate"
)

// NewPaper returns a paper gateway rejecting entries for the symbols
func NewPaper(rejectSymbols ...string) *Paper {
	p := &Paper{reject: make(map[string]struct{}, len(rejectSymbols))}
	for i := range rejectSymbols {
		p.reject[strings.ToUpper(rejectSymbols[i])] = struct{}{}
	}
	return p
}

// SubmitEntry fills the request at its entry price
func (p *Paper) SubmitEntry(_ context.Context, req *order.PositionRequest) (*Fill, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p.m.Lock()
	defer p.m.Unlock()
	if _, ok := p.reject[strings.ToUpper(req.Symbol)]; ok {
		return nil, fmt.Errorf("%w %s %s", ErrOrderRejected, req.Symbol, req.ID)
	}
	p.entries = append(p.entries, *req)
	return &Fill{ID: req.ID, Price: req.Entry, Time: req.Time}, nil
}

// SubmitExit records the exit
func (p *Paper) SubmitExit(_ context.Context, e *order.ExitInstruction) error {
	if err := e.Validate(); err != nil {
		return err
	}
	p.m.Lock()
	defer p.m.Unlock()
	p.exits = append(p.exits, *e)
	return nil
}

// Entries returns the filled entries
func (p *Paper) Entries() []order.PositionRequest {
	p.m.Lock()
	defer p.m.Unlock()
	resp := make([]order.PositionRequest, len(p.entries))
	copy(resp, p.entries)
	return resp
}

// Exits returns the submitted exits
func (p *Paper) Exits() []order.ExitInstruction {
	p.m.Lock()
	defer p.m.Unlock()
	resp := make([]order.ExitInstruction, len(p.exits))
	copy(resp, p.exits)
	return resp
}

// NewDispatcher returns a dispatcher allowing perSecond submissions with the
// burst
func NewDispatcher(g Gateway, perSecond float64, burst int) (*Dispatcher, error) {
	if err := common.NilGuard(g); err != nil {
		return nil, fmt.Errorf("%w gateway", err)
	}
	if perSecond <= 0 {
		return nil, fmt.Errorf("%w: %v", errInvalidRate, perSecond)
	}
	return &Dispatcher{
		gateway: g,
		limiter: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)),
	}, nil
}

// SubmitEntry waits for the limiter then submits the request
func (d *Dispatcher) SubmitEntry(ctx context.Context, req *order.PositionRequest) (*Fill, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	log.Debugf(log.Execution, "submitting entry %s %s %d @ %v", req.Symbol, req.ID, req.Quantity, req.Entry)
	return d.gateway.SubmitEntry(ctx, req)
}

// SubmitExit waits for the limiter then submits the exit
func (d *Dispatcher) SubmitExit(ctx context.Context, e *order.ExitInstruction) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	log.Debugf(log.Execution, "submitting exit %s %s %s @ %v", e.Symbol, e.PositionID, e.Reason, e.Price)
	return d.gateway.SubmitExit(ctx, e)
}
