package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/audit"
	"github.com/thrasher-corp/swingtrader/common/math"
	"github.com/thrasher-corp/swingtrader/engine"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/log"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

var errNoBars = errors.New("no bars to replay")

// simClock is the engine's time source while replaying
type simClock struct {
	m sync.Mutex
	t time.Time
}

func (c *simClock) Now() time.Time {
	c.m.Lock()
	defer c.m.Unlock()
	return c.t
}

func (c *simClock) Set(t time.Time) {
	c.m.Lock()
	c.t = t
	c.m.Unlock()
}

// replayResult totals the decisions made over a replay
type replayResult struct {
	Steps       int                  `json:"steps"`
	Signals     int                  `json:"signals"`
	Dropped     int                  `json:"dropped"`
	Rejected    int                  `json:"rejected"`
	Requests    int                  `json:"requests"`
	Opened      int                  `json:"opened"`
	Discarded   int                  `json:"discarded"`
	Exits       map[order.Reason]int `json:"exits"`
	Audit       map[audit.Kind]int   `json:"audit,omitempty"`
	Portfolio   portfolio.Snapshot   `json:"portfolio"`
	ReturnPct   float64              `json:"returnPct"`
	AvgTradePnL float64              `json:"avgTradePnL"`
}

// replay steps through bars grouped by timestamp. Each step marks open
// positions at the bar closes, then runs an evaluation cycle priced at those
// closes and executes the resulting requests. A new calendar day starts a new
// session
func replay(ctx context.Context, e *engine.Engine, clock *simClock, bars []kline.Bar, memory *audit.Memory) (*replayResult, error) {
	if len(bars) == 0 {
		return nil, errNoBars
	}
	res := &replayResult{Exits: make(map[order.Reason]int)}
	var day time.Time
	for start := 0; start < len(bars); {
		t := bars[start].Time
		end := start
		for end < len(bars) && bars[end].Time.Equal(t) {
			end++
		}
		step := bars[start:end]
		start = end

		clock.Set(t)
		if d := t.Truncate(24 * time.Hour); !d.Equal(day) {
			if !day.IsZero() {
				e.ResetSession()
			}
			day = d
		}

		live := make(map[string]decimal.Decimal, len(step))
		history := make(map[string][]kline.Bar, len(step))
		for i := range step {
			price := decimal.NewFromFloat(step[i].Close)
			live[step[i].Symbol] = price
			history[step[i].Symbol] = append(history[step[i].Symbol], step[i])
			exits, err := e.OnTick(ctx, kline.Tick{Symbol: step[i].Symbol, Time: t, Price: price})
			if err != nil {
				log.Warnf(log.Global, "tick %s %v: %v", step[i].Symbol, t, err)
			}
			for j := range exits {
				res.Exits[exits[j].Reason]++
			}
		}
		res.Discarded += len(e.ExpirePending(ctx, t))

		cycle, err := e.EvaluateCycle(ctx, nil, history, func(symbol string) (decimal.Decimal, bool) {
			p, ok := live[symbol]
			return p, ok
		})
		if err != nil {
			return res, err
		}
		if cycle.Errors != nil {
			log.Debugf(log.Global, "cycle %v: %v", t, cycle.Errors)
		}
		res.Steps++
		res.Signals += len(cycle.Signals)
		res.Dropped += len(cycle.Dropped)
		res.Rejected += len(cycle.Rejections)
		res.Requests += len(cycle.Requests)
		if len(cycle.Requests) == 0 {
			continue
		}
		exec, err := e.Execute(ctx, cycle.Requests)
		if err != nil {
			return res, err
		}
		if exec.Errors != nil {
			log.Warnf(log.Global, "execution %v: %v", t, exec.Errors)
		}
		res.Opened += len(exec.Opened)
		res.Discarded += len(exec.Rejected)
	}
	res.Portfolio = e.Ledger().Snapshot()
	res.ReturnPct = math.RoundFloat(math.CalculatePercentageGainOrLoss(res.Portfolio.Equity.InexactFloat64(), res.Portfolio.InitialCapital.InexactFloat64()), 2)
	closed := e.Ledger().Closed()
	pnl := make([]float64, len(closed))
	for i := range closed {
		pnl[i] = closed[i].RealizedPnL.InexactFloat64()
	}
	res.AvgTradePnL = math.RoundFloat(math.ArithmeticAverage(pnl), 2)
	if memory != nil {
		res.Audit = memory.Count()
	}
	return res, nil
}
