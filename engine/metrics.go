package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/thrasher-corp/swingtrader/aggregator"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/portfolio"
	"github.com/thrasher-corp/swingtrader/portfolio/risk"
)

var (
	signalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swingtrader_signals_total",
		Help: "Signals generated by strategy",
	}, []string{"strategy"})

	signalsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swingtrader_signals_dropped_total",
		Help: "Signals dropped before sizing by reason",
	}, []string{"reason"})

	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swingtrader_position_requests_total",
		Help: "Position requests emitted",
	})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swingtrader_risk_rejections_total",
		Help: "Signals rejected by the risk manager by reason",
	}, []string{"reason"})

	exitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swingtrader_exits_total",
		Help: "Positions closed by reason",
	}, []string{"reason"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swingtrader_cycle_duration_seconds",
		Help:    "Evaluation cycle duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	availableCapital = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swingtrader_available_capital",
		Help: "Capital not committed to open or pending positions",
	})

	dailyRealized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swingtrader_daily_realized_pnl",
		Help: "Realized profit and loss for the session",
	})

	equity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swingtrader_equity",
		Help: "Total capital plus unrealized profit and loss",
	})

	drawdown = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swingtrader_drawdown_ratio",
		Help: "Fall of equity from its peak as a fraction of the peak",
	})

	activePositions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "swingtrader_active_positions",
		Help: "Positions holding capital by state",
	}, []string{"state"})
)

func dropReason(err error) string {
	switch {
	case errors.Is(err, signal.ErrInvalidSignal):
		return "invalid"
	case errors.Is(err, aggregator.ErrLowConfidence):
		return "confidence"
	case errors.Is(err, aggregator.ErrLowRewardRatio):
		return "reward_ratio"
	case errors.Is(err, aggregator.ErrSymbolActive):
		return "symbol_active"
	case errors.Is(err, aggregator.ErrOutscored):
		return "outscored"
	case errors.Is(err, aggregator.ErrNoCapacity):
		return "capacity"
	}
	return "other"
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, risk.ErrDailyLossBreached):
		return "daily_loss"
	case errors.Is(err, risk.ErrDrawdownBreached):
		return "drawdown"
	case errors.Is(err, risk.ErrCapitalExhausted):
		return "capital_exhausted"
	case errors.Is(err, risk.ErrStalePrice):
		return "stale_price"
	case errors.Is(err, risk.ErrRiskRejected):
		return "risk"
	}
	return "other"
}

func observeLedger(s *portfolio.Snapshot) {
	availableCapital.Set(s.AvailableCapital.InexactFloat64())
	dailyRealized.Set(s.DailyRealizedPnL.InexactFloat64())
	equity.Set(s.Equity.InexactFloat64())
	drawdown.Set(s.Drawdown.InexactFloat64())
	activePositions.WithLabelValues(string(portfolio.Open)).Set(float64(len(s.Open)))
	activePositions.WithLabelValues(string(portfolio.Pending)).Set(float64(len(s.Pending)))
}
