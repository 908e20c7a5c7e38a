package aggregator

import (
	"fmt"
	"sort"

	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/eventtypes/signal"
	"github.com/thrasher-corp/swingtrader/log"
)

// New returns an aggregator using the risk parameters' thresholds
func New(params config.RiskParameters) (*Aggregator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{
		minConfidence:  params.MinConfidence,
		minRewardRatio: params.MinRewardRatio,
		maxPositions:   params.MaxPositions,
	}, nil
}

// Aggregate filters the cycle's signals, keeps the best scoring signal per
// symbol and admits the highest scores up to the free position slots
func (a *Aggregator) Aggregate(signals []*signal.Signal, state PortfolioState) (*Result, error) {
	if err := common.NilGuard(state); err != nil {
		return nil, fmt.Errorf("%w portfolio state", err)
	}
	resp := &Result{}
	drop := func(s *signal.Signal, err error) {
		resp.Dropped = append(resp.Dropped, Drop{Signal: s, Err: err})
	}

	best := make(map[string]*signal.Signal)
	for _, s := range signals {
		if err := s.Validate(); err != nil {
			drop(s, err)
			continue
		}
		if s.Confidence < a.minConfidence {
			drop(s, fmt.Errorf("%w %s %s %.2f < %.2f", ErrLowConfidence, s.Symbol, s.Strategy, s.Confidence, a.minConfidence))
			continue
		}
		if rr := s.RewardRisk(); rr < a.minRewardRatio {
			drop(s, fmt.Errorf("%w %s %s %.2f < %.2f", ErrLowRewardRatio, s.Symbol, s.Strategy, rr, a.minRewardRatio))
			continue
		}
		if state.HasActive(s.Symbol) {
			drop(s, fmt.Errorf("%w %s", ErrSymbolActive, s.Symbol))
			continue
		}
		current, ok := best[s.Symbol]
		if !ok {
			best[s.Symbol] = s
			continue
		}
		winner, loser := current, s
		if outranks(s, current) {
			winner, loser = s, current
		}
		best[s.Symbol] = winner
		drop(loser, fmt.Errorf("%w %s %s %.4f beaten by %s %.4f", ErrOutscored, loser.Symbol, loser.Strategy, loser.Score(), winner.Strategy, winner.Score()))
	}

	ranked := make([]*signal.Signal, 0, len(best))
	for _, s := range best {
		ranked = append(ranked, s)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].Score(), ranked[j].Score()
		if si != sj {
			return si > sj
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	free := max(a.maxPositions-state.ActiveCount(), 0)
	for i := range ranked {
		if i < free {
			resp.Admitted = append(resp.Admitted, ranked[i])
			continue
		}
		drop(ranked[i], fmt.Errorf("%w %s %s rank %d, %d free", ErrNoCapacity, ranked[i].Symbol, ranked[i].Strategy, i+1, free))
	}
	log.Debugf(log.Aggregator, "%d signals, %d admitted, %d dropped", len(signals), len(resp.Admitted), len(resp.Dropped))
	return resp, nil
}

// outranks reports whether s beats current for the same symbol. Equal scores
// go to the lexicographically smaller strategy
func outranks(s, current *signal.Signal) bool {
	ss, cs := s.Score(), current.Score()
	if ss != cs {
		return ss > cs
	}
	return s.Strategy < current.Strategy
}
