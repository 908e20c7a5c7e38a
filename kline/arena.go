package kline

import (
	"fmt"
	"math"
	"sort"

	"github.com/thrasher-corp/swingtrader/common"
)

// NewArena returns an arena retaining at most size bars per symbol
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, errInvalidWindow
	}
	return &Arena{size: size, windows: make(map[string]*window)}, nil
}

// Validate checks that a bar is usable
func (b *Bar) Validate() error {
	if b.Symbol == "" {
		return common.ErrSymbolEmpty
	}
	if b.Time.IsZero() {
		return fmt.Errorf("%w %s has no timestamp", ErrInvalidBar, b.Symbol)
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w %s %v has non finite or negative values", ErrInvalidBar, b.Symbol, b.Time)
		}
	}
	if b.Close <= 0 || b.Open <= 0 {
		return fmt.Errorf("%w %s %v has non positive prices", ErrInvalidBar, b.Symbol, b.Time)
	}
	if b.High < b.Low || b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("%w %s %v high/low does not bound open/close", ErrInvalidBar, b.Symbol, b.Time)
	}
	return nil
}

// Append adds a bar to its symbol's window, evicting the oldest bar when full.
// The bar must be strictly later than the symbol's latest bar
func (a *Arena) Append(b Bar) error {
	if err := b.Validate(); err != nil {
		return err
	}
	a.m.Lock()
	defer a.m.Unlock()
	w := a.windows[b.Symbol]
	if w == nil {
		w = &window{bars: make([]Bar, a.size)}
		a.windows[b.Symbol] = w
	}
	if last, ok := w.last(); ok && !b.Time.After(last.Time) {
		return fmt.Errorf("%w %s %v is not after %v", ErrOutOfOrder, b.Symbol, b.Time, last.Time)
	}
	w.push(b)
	return nil
}

// Merge appends the bars of a history slice that are newer than what is
// already held for the symbol. Bars at or before the latest held bar are
// treated as already seen. Returns the number of bars added
func (a *Arena) Merge(symbol string, bars []Bar) (int, error) {
	if symbol == "" {
		return 0, common.ErrSymbolEmpty
	}
	a.m.RLock()
	var latest Bar
	var held bool
	if w := a.windows[symbol]; w != nil {
		latest, held = w.last()
	}
	a.m.RUnlock()

	var added int
	var errs error
	for i := range bars {
		b := bars[i]
		if b.Symbol == "" {
			b.Symbol = symbol
		}
		if b.Symbol != symbol {
			errs = common.AppendError(errs, fmt.Errorf("%w: bar for %s in %s history", ErrInvalidBar, b.Symbol, symbol))
			continue
		}
		if held && !b.Time.After(latest.Time) {
			continue
		}
		if err := a.Append(b); err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		added++
	}
	return added, errs
}

// Bars returns a copy of the symbol's window ordered oldest to newest
func (a *Arena) Bars(symbol string) []Bar {
	a.m.RLock()
	defer a.m.RUnlock()
	w := a.windows[symbol]
	if w == nil {
		return nil
	}
	return w.ordered()
}

// Latest returns the most recent bar held for the symbol
func (a *Arena) Latest(symbol string) (Bar, bool) {
	a.m.RLock()
	defer a.m.RUnlock()
	w := a.windows[symbol]
	if w == nil {
		return Bar{}, false
	}
	return w.last()
}

// Len returns the number of bars held for the symbol
func (a *Arena) Len(symbol string) int {
	a.m.RLock()
	defer a.m.RUnlock()
	if w := a.windows[symbol]; w != nil {
		return w.count
	}
	return 0
}

// Symbols returns every symbol held, sorted
func (a *Arena) Symbols() []string {
	a.m.RLock()
	defer a.m.RUnlock()
	symbols := make([]string, 0, len(a.windows))
	for s := range a.windows {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Reset drops all bars held for the symbol
func (a *Arena) Reset(symbol string) {
	a.m.Lock()
	delete(a.windows, symbol)
	a.m.Unlock()
}

func (w *window) push(b Bar) {
	if w.count < len(w.bars) {
		w.bars[(w.start+w.count)%len(w.bars)] = b
		w.count++
		return
	}
	w.bars[w.start] = b
	w.start = (w.start + 1) % len(w.bars)
}

func (w *window) last() (Bar, bool) {
	if w.count == 0 {
		return Bar{}, false
	}
	return w.bars[(w.start+w.count-1)%len(w.bars)], true
}

func (w *window) ordered() []Bar {
	resp := make([]Bar, w.count)
	for i := 0; i < w.count; i++ {
		resp[i] = w.bars[(w.start+i)%len(w.bars)]
	}
	return resp
}

// GetOHLC returns the bars as a friendly type for technical analysis usage
func GetOHLC(bars []Bar) *OHLC {
	ohlc := &OHLC{
		Open:   make([]float64, len(bars)),
		High:   make([]float64, len(bars)),
		Low:    make([]float64, len(bars)),
		Close:  make([]float64, len(bars)),
		Volume: make([]float64, len(bars)),
	}
	for x := range bars {
		ohlc.Open[x] = bars[x].Open
		ohlc.High[x] = bars[x].High
		ohlc.Low[x] = bars[x].Low
		ohlc.Close[x] = bars[x].Close
		ohlc.Volume[x] = bars[x].Volume
	}
	return ohlc
}
