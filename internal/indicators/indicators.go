// Package indicators provides technical indicator calculations over close
// price series: RSI, EMA, MACD, and Bollinger Bands. All functions are
// pure and return series parallel to their input; positions that cannot be
// computed yet hold NaN (RSI holds a neutral 50 instead, matching Wilder's
// convention for a flat start).
package indicators

import (
	"math"

	"paper-trade-bot-go/internal/config"
	"paper-trade-bot-go/internal/models"
)

// Series holds a close-price series annotated with every indicator, all
// slices parallel and the same length as the input.
type Series struct {
	Timestamp     []int64
	Close         []float64
	Rsi           []float64
	EmaFast       []float64
	EmaSlow       []float64
	Macd          []float64
	MacdSignal    []float64
	MacdHistogram []float64
	BbUpper       []float64
	BbMiddle      []float64
	BbLower       []float64
}

// Len returns the number of data points in the series.
func (s Series) Len() int {
	return len(s.Close)
}

// Snapshot captures the most recent value of each indicator for logging
// and signal results.
type Snapshot struct {
	Close         float64 `json:"close"`
	Rsi           float64 `json:"rsi"`
	EmaFast       float64 `json:"ema_fast"`
	EmaSlow       float64 `json:"ema_slow"`
	Macd          float64 `json:"macd"`
	MacdSignal    float64 `json:"macd_signal"`
	MacdHistogram float64 `json:"macd_histogram"`
	BbUpper       float64 `json:"bb_upper"`
	BbMiddle      float64 `json:"bb_middle"`
	BbLower       float64 `json:"bb_lower"`
}

// Latest returns the snapshot of the last data point. The bool is false
// for an empty series.
func (s Series) Latest() (Snapshot, bool) {
	n := s.Len()
	if n == 0 {
		return Snapshot{}, false
	}
	i := n - 1
	return Snapshot{
		Close:         s.Close[i],
		Rsi:           s.Rsi[i],
		EmaFast:       s.EmaFast[i],
		EmaSlow:       s.EmaSlow[i],
		Macd:          s.Macd[i],
		MacdSignal:    s.MacdSignal[i],
		MacdHistogram: s.MacdHistogram[i],
		BbUpper:       s.BbUpper[i],
		BbMiddle:      s.BbMiddle[i],
		BbLower:       s.BbLower[i],
	}, true
}

// Annotate computes every indicator over the candles' close prices using
// the configured periods.
func Annotate(candles []models.Candle, cfg config.Strategy) Series {
	closes := make([]float64, len(candles))
	timestamps := make([]int64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		timestamps[i] = c.Timestamp
	}
	return AnnotateCloses(timestamps, closes, cfg)
}

// AnnotateCloses is Annotate over raw close prices.
func AnnotateCloses(timestamps []int64, closes []float64, cfg config.Strategy) Series {
	macd, signal, histogram := MACD(closes, cfg.MacdFast, cfg.MacdSlow, cfg.MacdSignal)
	upper, middle, lower := Bollinger(closes, cfg.BbPeriod, cfg.BbStdDev)

	return Series{
		Timestamp:     timestamps,
		Close:         closes,
		Rsi:           RSI(closes, cfg.RsiPeriod),
		EmaFast:       EMA(closes, cfg.EmaFastPeriod),
		EmaSlow:       EMA(closes, cfg.EmaSlowPeriod),
		Macd:          macd,
		MacdSignal:    signal,
		MacdHistogram: histogram,
		BbUpper:       upper,
		BbMiddle:      middle,
		BbLower:       lower,
	}
}

// RSI computes the Relative Strength Index with Wilder's smoothing
// (alpha = 1/period). Values before the warmup are a neutral 50, and an
// all-gain window (zero average loss) reads 100.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	rsi := make([]float64, n)
	for i := range rsi {
		rsi[i] = 50
	}
	if period < 1 || n <= period {
		return rsi
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64

	// Seed the averages with a plain mean over the first period changes.
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = gain*alpha + avgGain*(1-alpha)
		avgLoss = loss*alpha + avgLoss*(1-alpha)
		rsi[i] = rsiValue(avgGain, avgLoss)
	}
	return rsi
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// EMA computes the exponential moving average with smoothing factor
// k = 2/(period+1), seeded from the first close.
func EMA(closes []float64, period int) []float64 {
	n := len(closes)
	ema := make([]float64, n)
	if n == 0 {
		return ema
	}
	if period < 1 {
		period = 1
	}

	k := 2.0 / float64(period+1)
	ema[0] = closes[0]
	for i := 1; i < n; i++ {
		ema[i] = closes[i]*k + ema[i-1]*(1-k)
	}
	return ema
}

// MACD computes the MACD line (fast EMA - slow EMA), its signal line, and
// the histogram (line - signal).
func MACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) (line, signal, histogram []float64) {
	fast := EMA(closes, fastPeriod)
	slow := EMA(closes, slowPeriod)

	line = make([]float64, len(closes))
	for i := range line {
		line[i] = fast[i] - slow[i]
	}
	signal = EMA(line, signalPeriod)

	histogram = make([]float64, len(closes))
	for i := range histogram {
		histogram[i] = line[i] - signal[i]
	}
	return line, signal, histogram
}

// Bollinger computes Bollinger Bands: a rolling SMA plus/minus stdDev
// standard deviations over the same window. Positions before a full
// window hold NaN.
func Bollinger(closes []float64, period int, stdDev float64) (upper, middle, lower []float64) {
	n := len(closes)
	upper = make([]float64, n)
	middle = make([]float64, n)
	lower = make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = math.NaN()
		middle[i] = math.NaN()
		lower[i] = math.NaN()
	}
	if period < 1 || n < period {
		return upper, middle, lower
	}

	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]

		sum := 0.0
		for _, v := range window {
			sum += v
		}
		mean := sum / float64(period)

		variance := 0.0
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		// Sample standard deviation (n-1 divisor).
		sd := 0.0
		if period > 1 {
			sd = math.Sqrt(variance / float64(period-1))
		}

		middle[i] = mean
		upper[i] = mean + sd*stdDev
		lower[i] = mean - sd*stdDev
	}
	return upper, middle, lower
}
