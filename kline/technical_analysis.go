package kline

import (
	"fmt"
	"math"

	"github.com/thrasher-corp/gct-ta/indicators"
)

func (o *OHLC) check(name string, period int) error {
	if o == nil {
		return fmt.Errorf("%s %w", name, errNilOHLC)
	}
	if period <= 0 {
		return fmt.Errorf("%s %w", name, errInvalidPeriod)
	}
	if len(o.Close) == 0 {
		return fmt.Errorf("%s close %w", name, errNoData)
	}
	return nil
}

func (o *OHLC) checkLengths(name string, series ...[]float64) error {
	for i := range series {
		if len(series[i]) == 0 {
			return fmt.Errorf("%s %w", name, errNoData)
		}
		if len(series[i]) != len(o.Close) {
			return fmt.Errorf("%s %w", name, errInvalidDataSetLengths)
		}
	}
	return nil
}

// GetAverageTrueRange returns the Average True Range for the given period.
func (o *OHLC) GetAverageTrueRange(period int) ([]float64, error) {
	if err := o.check("get average true range", period); err != nil {
		return nil, err
	}
	if err := o.checkLengths("get average true range", o.High, o.Low); err != nil {
		return nil, err
	}
	if period >= len(o.Close) {
		return nil, fmt.Errorf("get average true range %w '%v' should be less than close data length '%v'",
			errNotEnoughData, period, len(o.Close))
	}
	return indicators.ATR(o.High, o.Low, o.Close, period), nil
}

// GetBollingerBands returns Bollinger Bands for the given period.
func (o *OHLC) GetBollingerBands(period int, nbDevUp, nbDevDown float64, m indicators.MaType) (*Bollinger, error) {
	if err := o.check("get bollinger bands", period); err != nil {
		return nil, err
	}
	if nbDevUp <= 0 {
		return nil, fmt.Errorf("get bollinger bands %w upper limit", errInvalidDeviationMultiplier)
	}
	if nbDevDown <= 0 {
		return nil, fmt.Errorf("get bollinger bands %w lower limit", errInvalidDeviationMultiplier)
	}
	if period > len(o.Close) {
		return nil, fmt.Errorf("get bollinger bands %w '%v' should not exceed close data length '%v'",
			errNotEnoughData, period, len(o.Close))
	}
	var bands Bollinger
	bands.Upper, bands.Middle, bands.Lower = indicators.BBANDS(o.Close, period, nbDevUp, nbDevDown, m)
	return &bands, nil
}

// GetSimpleMovingAverage returns MA for the supplied price set for the given
// period.
func (o *OHLC) GetSimpleMovingAverage(option []float64, period int) ([]float64, error) {
	if err := o.check("get simple moving average", period); err != nil {
		return nil, err
	}
	if len(option) < period {
		return nil, fmt.Errorf("get simple moving average %w", errNotEnoughData)
	}
	return indicators.SMA(option, period), nil
}

// GetExponentialMovingAverage returns the EMA on the supplied price set for the
// given period.
func (o *OHLC) GetExponentialMovingAverage(option []float64, period int) ([]float64, error) {
	if err := o.check("get exponential moving average", period); err != nil {
		return nil, err
	}
	if len(option) < period {
		return nil, fmt.Errorf("get exponential moving average %w", errNotEnoughData)
	}
	return indicators.EMA(option, period), nil
}

// GetMovingAverageConvergenceDivergence returns the
// MACD (macd, signal period vals, histogram) for the given price
// set and the parameters fast, slow signal time periods.
func (o *OHLC) GetMovingAverageConvergenceDivergence(option []float64, fast, slow, signal int) (*MACD, error) {
	if o == nil {
		return nil, fmt.Errorf("get macd %w", errNilOHLC)
	}
	if fast <= 0 {
		return nil, fmt.Errorf("get macd %w fast", errInvalidPeriod)
	}
	if slow <= 0 {
		return nil, fmt.Errorf("get macd %w slow", errInvalidPeriod)
	}
	if signal <= 0 {
		return nil, fmt.Errorf("get macd %w signal", errInvalidPeriod)
	}
	if len(option) < slow+signal-2 {
		return nil, fmt.Errorf("get macd %w %v data points are less than minimum %v length requirement derived from the slow %v and signal %v period subtract two",
			errNotEnoughData,
			len(option),
			slow+signal-2,
			slow,
			signal)
	}
	var macd MACD
	macd.MACD, macd.SignalVals, macd.Histogram = indicators.MACD(option, fast, slow, signal)
	return &macd, nil
}

// GetOnBalanceVolume returns On Balance Volume.
func (o *OHLC) GetOnBalanceVolume() ([]float64, error) {
	if err := o.check("get on balance volume", 1); err != nil {
		return nil, err
	}
	if err := o.checkLengths("get on balance volume", o.Volume); err != nil {
		return nil, err
	}
	return indicators.OBV(o.Close, o.Volume), nil
}

// GetRelativeStrengthIndex returns the relative strength index from the the
// given price set and period.
func (o *OHLC) GetRelativeStrengthIndex(option []float64, period int) ([]float64, error) {
	if err := o.check("get relative strength index", period); err != nil {
		return nil, err
	}
	if len(option) <= period {
		return nil, fmt.Errorf("get relative strength index %w", errNotEnoughData)
	}
	return indicators.RSI(option, period), nil
}

// GetStochastic returns the stochastic oscillator %K over kPeriod bars and its
// dPeriod simple average %D. Values before enough history exist are zero
func (o *OHLC) GetStochastic(kPeriod, dPeriod int) (*Stochastic, error) {
	if err := o.check("get stochastic", kPeriod); err != nil {
		return nil, err
	}
	if dPeriod <= 0 {
		return nil, fmt.Errorf("get stochastic %w d period", errInvalidPeriod)
	}
	if err := o.checkLengths("get stochastic", o.High, o.Low); err != nil {
		return nil, err
	}
	if len(o.Close) < kPeriod+dPeriod-1 {
		return nil, fmt.Errorf("get stochastic %w", errNotEnoughData)
	}
	s := &Stochastic{
		K: make([]float64, len(o.Close)),
		D: make([]float64, len(o.Close)),
	}
	for i := kPeriod - 1; i < len(o.Close); i++ {
		highest, lowest := o.High[i], o.Low[i]
		for j := i - kPeriod + 1; j < i; j++ {
			highest = max(highest, o.High[j])
			lowest = min(lowest, o.Low[j])
		}
		if highest == lowest {
			s.K[i] = 50
			continue
		}
		s.K[i] = 100 * (o.Close[i] - lowest) / (highest - lowest)
	}
	for i := kPeriod + dPeriod - 2; i < len(o.Close); i++ {
		var sum float64
		for j := i - dPeriod + 1; j <= i; j++ {
			sum += s.K[j]
		}
		s.D[i] = sum / float64(dPeriod)
	}
	return s, nil
}

// GetAverageDirectionalIndex returns the ADX using Wilder smoothing. The
// first value is available at index 2*period-1, earlier values are zero
func (o *OHLC) GetAverageDirectionalIndex(period int) ([]float64, error) {
	if err := o.check("get average directional index", period); err != nil {
		return nil, err
	}
	if err := o.checkLengths("get average directional index", o.High, o.Low); err != nil {
		return nil, err
	}
	if len(o.Close) < 2*period {
		return nil, fmt.Errorf("get average directional index %w", errNotEnoughData)
	}
	n := len(o.Close)
	adx := make([]float64, n)
	p := float64(period)
	var trS, plusS, minusS, dxSum float64
	for i := 1; i < n; i++ {
		tr := max(o.High[i]-o.Low[i], math.Abs(o.High[i]-o.Close[i-1]), math.Abs(o.Low[i]-o.Close[i-1]))
		up := o.High[i] - o.High[i-1]
		down := o.Low[i-1] - o.Low[i]
		var plusDM, minusDM float64
		if up > down && up > 0 {
			plusDM = up
		}
		if down > up && down > 0 {
			minusDM = down
		}
		if i <= period {
			trS += tr
			plusS += plusDM
			minusS += minusDM
			if i < period {
				continue
			}
		} else {
			trS = trS - trS/p + tr
			plusS = plusS - plusS/p + plusDM
			minusS = minusS - minusS/p + minusDM
		}
		dx := directionalIndex(trS, plusS, minusS)
		switch {
		case i < 2*period-1:
			dxSum += dx
		case i == 2*period-1:
			adx[i] = (dxSum + dx) / p
		default:
			adx[i] = (adx[i-1]*(p-1) + dx) / p
		}
	}
	return adx, nil
}

func directionalIndex(tr, plusDM, minusDM float64) float64 {
	if tr == 0 {
		return 0
	}
	plusDI := 100 * plusDM / tr
	minusDI := 100 * minusDM / tr
	if plusDI+minusDI == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
}

// GetHighest returns the highest value of the period values preceding index,
// excluding the value at index itself
func GetHighest(values []float64, index, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("get highest %w", errInvalidPeriod)
	}
	if index < period || index > len(values) {
		return 0, fmt.Errorf("get highest %w", errNotEnoughData)
	}
	highest := values[index-period]
	for _, v := range values[index-period+1 : index] {
		highest = max(highest, v)
	}
	return highest, nil
}

// GetLowest returns the lowest value of the period values preceding index,
// excluding the value at index itself
func GetLowest(values []float64, index, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("get lowest %w", errInvalidPeriod)
	}
	if index < period || index > len(values) {
		return 0, fmt.Errorf("get lowest %w", errNotEnoughData)
	}
	lowest := values[index-period]
	for _, v := range values[index-period+1 : index] {
		lowest = min(lowest, v)
	}
	return lowest, nil
}
