package analysis

import (
	"fmt"
	"math"

	"github.com/thrasher-corp/gct-ta/indicators"
	"github.com/thrasher-corp/swingtrader/kline"
)

// Calculate derives a snapshot for the last bar of an ordered window. The
// window is not modified
func Calculate(bars []kline.Bar) (*Snapshot, error) {
	if len(bars) < MinimumBars {
		return nil, fmt.Errorf("%w %d bars, %d required", ErrInsufficientHistory, len(bars), MinimumBars)
	}
	last := len(bars) - 1
	o := kline.GetOHLC(bars)
	s := &Snapshot{
		Symbol:   bars[last].Symbol,
		Time:     bars[last].Time,
		Latest:   bars[last],
		Previous: bars[last-1],
	}

	var err error
	if s.EMA12, _, err = lastTwo(o.GetExponentialMovingAverage(o.Close, fastEMA)); err != nil {
		return nil, err
	}
	if s.EMA26, _, err = lastTwo(o.GetExponentialMovingAverage(o.Close, slowEMA)); err != nil {
		return nil, err
	}
	if s.EMA50, _, err = lastTwo(o.GetExponentialMovingAverage(o.Close, trendEMA)); err != nil {
		return nil, err
	}
	if s.SMA20, _, err = lastTwo(o.GetSimpleMovingAverage(o.Close, smaPeriod)); err != nil {
		return nil, err
	}
	if s.RSI14, s.PrevRSI14, err = lastTwo(o.GetRelativeStrengthIndex(o.Close, rsiPeriod)); err != nil {
		return nil, err
	}
	if s.RSI21, _, err = lastTwo(o.GetRelativeStrengthIndex(o.Close, rsiLongPeriod)); err != nil {
		return nil, err
	}
	if s.ADX14, _, err = lastTwo(o.GetAverageDirectionalIndex(adxPeriod)); err != nil {
		return nil, err
	}
	if s.ATR14, _, err = lastTwo(o.GetAverageTrueRange(atrPeriod)); err != nil {
		return nil, err
	}
	if s.OBV, _, err = lastTwo(o.GetOnBalanceVolume()); err != nil {
		return nil, err
	}
	if s.VolumeSMA20, _, err = lastTwo(o.GetSimpleMovingAverage(o.Volume, volumePeriod)); err != nil {
		return nil, err
	}

	stoch, err := o.GetStochastic(stochKPeriod, stochDPeriod)
	if err != nil {
		return nil, err
	}
	s.StochK, s.StochD, s.PrevStochK = stoch.K[last], stoch.D[last], stoch.K[last-1]

	macd, err := o.GetMovingAverageConvergenceDivergence(o.Close, fastEMA, slowEMA, macdSignalPeriod)
	if err != nil {
		return nil, err
	}
	if len(macd.MACD) != len(bars) || len(macd.SignalVals) != len(bars) || len(macd.Histogram) != len(bars) {
		return nil, fmt.Errorf("%w macd output misaligned", ErrIndicatorUnavailable)
	}
	s.MACD, s.MACDSignal, s.MACDHistogram = macd.MACD[last], macd.SignalVals[last], macd.Histogram[last]
	s.PrevMACD, s.PrevMACDSignal, s.PrevMACDHistogram = macd.MACD[last-1], macd.SignalVals[last-1], macd.Histogram[last-1]

	bands, err := o.GetBollingerBands(bollingerPeriod, bollingerDev, bollingerDev, indicators.Sma)
	if err != nil {
		return nil, err
	}
	if len(bands.Upper) != len(bars) || len(bands.Middle) != len(bars) || len(bands.Lower) != len(bars) {
		return nil, fmt.Errorf("%w bollinger output misaligned", ErrIndicatorUnavailable)
	}
	s.BollingerUpper, s.BollingerMiddle, s.BollingerLower = bands.Upper[last], bands.Middle[last], bands.Lower[last]
	s.BollingerWidth = bandWidth(bands, last)
	var widthSum float64
	for i := last - widthAvgPeriod + 1; i <= last; i++ {
		widthSum += bandWidth(bands, i)
	}
	s.BollingerWidthAvg = widthSum / widthAvgPeriod

	if s.Support, err = kline.GetLowest(o.Low, last, levelPeriod); err != nil {
		return nil, err
	}
	if s.Resistance, err = kline.GetHighest(o.High, last, levelPeriod); err != nil {
		return nil, err
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func lastTwo(values []float64, err error) (latest, previous float64, lastErr error) {
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, fmt.Errorf("%w indicator returned %d values", ErrInsufficientHistory, len(values))
	}
	return values[len(values)-1], values[len(values)-2], nil
}

func bandWidth(b *kline.Bollinger, i int) float64 {
	if b.Middle[i] == 0 {
		return 0
	}
	return (b.Upper[i] - b.Lower[i]) / b.Middle[i]
}

func (s *Snapshot) validate() error {
	for name, v := range map[string]float64{
		"ema12":      s.EMA12,
		"ema26":      s.EMA26,
		"ema50":      s.EMA50,
		"sma20":      s.SMA20,
		"rsi14":      s.RSI14,
		"rsi21":      s.RSI21,
		"prev rsi14": s.PrevRSI14,
		"stoch k":    s.StochK,
		"stoch d":    s.StochD,
		"bollinger":  s.BollingerWidth,
		"macd":       s.MACD,
		"adx":        s.ADX14,
		"atr":        s.ATR14,
		"volume sma": s.VolumeSMA20,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w %s for %s", ErrIndicatorUnavailable, name, s.Symbol)
		}
	}
	return nil
}

// VolumeRatio returns the latest volume relative to its 20 bar average
func (s *Snapshot) VolumeRatio() float64 {
	if s.VolumeSMA20 <= 0 {
		return 0
	}
	return s.Latest.Volume / s.VolumeSMA20
}

// GapSize returns the fractional gap between the previous close and the
// latest open. Positive values are gaps up
func (s *Snapshot) GapSize() float64 {
	if s.Previous.Close <= 0 {
		return 0
	}
	return (s.Latest.Open - s.Previous.Close) / s.Previous.Close
}
