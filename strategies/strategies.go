package strategies

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/strategies/base"
	"github.com/thrasher-corp/swingtrader/strategies/breakout"
	"github.com/thrasher-corp/swingtrader/strategies/gap"
	"github.com/thrasher-corp/swingtrader/strategies/meanreversion"
	"github.com/thrasher-corp/swingtrader/strategies/momentum"
)

var (
	m              sync.Mutex
	strategyHolder = []Handler{
		new(breakout.Strategy),
		new(momentum.Strategy),
		new(meanreversion.Strategy),
		new(gap.Strategy),
	}
)

// LoadStrategyByName returns the strategy registered under the name
func LoadStrategyByName(name string) (Handler, error) {
	strats := GetStrategies()
	for i := range strats {
		if strings.EqualFold(name, strats[i].Name()) {
			return strats[i], nil
		}
	}
	return nil, fmt.Errorf("strategy '%v' %w", name, base.ErrStrategyNotFound)
}

// GetStrategies returns every registered strategy ordered by name
func GetStrategies() []Handler {
	m.Lock()
	defer m.Unlock()
	resp := make([]Handler, len(strategyHolder))
	copy(resp, strategyHolder)
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Name() < resp[j].Name()
	})
	return resp
}

// AddStrategy will add a strategy to the registry
func AddStrategy(strategy Handler) error {
	if err := common.NilGuard(strategy); err != nil {
		return fmt.Errorf("%w strategy handler", err)
	}
	m.Lock()
	defer m.Unlock()
	for i := range strategyHolder {
		if strings.EqualFold(strategyHolder[i].Name(), strategy.Name()) {
			return fmt.Errorf("'%v' %w", strategy.Name(), ErrStrategyAlreadyExists)
		}
	}
	strategyHolder = append(strategyHolder, strategy)
	return nil
}

// LoadEnabled returns the registered strategies the supplied filter enables
func LoadEnabled(enabled func(name string) bool) []Handler {
	strats := GetStrategies()
	resp := make([]Handler, 0, len(strats))
	for i := range strats {
		if enabled == nil || enabled(strats[i].Name()) {
			resp = append(resp, strats[i])
		}
	}
	return resp
}
