package strategy

import (
	"math"
	"testing"

	"paper-trade-bot-go/internal/config"
	"paper-trade-bot-go/internal/indicators"
	"paper-trade-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// point is one candle's worth of indicator values for hand-built series.
type point struct {
	close float64
	rsi   float64
	fast  float64
	slow  float64
}

// buildSeries fills every parallel slice so Latest() stays in bounds.
func buildSeries(points ...point) indicators.Series {
	n := len(points)
	s := indicators.Series{
		Timestamp:     make([]int64, n),
		Close:         make([]float64, n),
		Rsi:           make([]float64, n),
		EmaFast:       make([]float64, n),
		EmaSlow:       make([]float64, n),
		Macd:          make([]float64, n),
		MacdSignal:    make([]float64, n),
		MacdHistogram: make([]float64, n),
		BbUpper:       make([]float64, n),
		BbMiddle:      make([]float64, n),
		BbLower:       make([]float64, n),
	}
	for i, p := range points {
		s.Timestamp[i] = int64(i) * 60_000
		s.Close[i] = p.close
		s.Rsi[i] = p.rsi
		s.EmaFast[i] = p.fast
		s.EmaSlow[i] = p.slow
	}
	return s
}

func newTestStrategy() *RsiEma {
	return NewRsiEma(config.Strategy{RsiOversold: 30, RsiOverbought: 70}, zap.NewNop())
}

func holding() *models.Position {
	return &models.Position{Symbol: "BTC/USD", Amount: 0.02, AvgEntryPrice: 50_000}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	s := newTestStrategy()

	result := s.Analyze(buildSeries(
		point{close: 100, rsi: 20, fast: 101, slow: 100},
		point{close: 100, rsi: 20, fast: 101, slow: 100},
	), nil)

	assert.Equal(t, SignalHold, result.Signal)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, "insufficient data for analysis", result.Reason)
}

func TestAnalyze_NaNIndicators(t *testing.T) {
	s := newTestStrategy()

	series := buildSeries(
		point{close: 100, rsi: 50, fast: 100, slow: 100},
		point{close: 100, rsi: 50, fast: 100, slow: 100},
		point{close: 100, rsi: 50, fast: math.NaN(), slow: 100},
	)
	result := s.Analyze(series, nil)

	assert.Equal(t, SignalHold, result.Signal)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, "indicator values not available yet", result.Reason)
}

func TestAnalyze_BuyWhenOversoldAndBullish(t *testing.T) {
	s := newTestStrategy()

	series := buildSeries(
		point{close: 100, rsi: 35, fast: 99, slow: 100},
		point{close: 98, rsi: 32, fast: 99, slow: 100},
		point{close: 97, rsi: 28, fast: 101, slow: 100},
	)
	result := s.Analyze(series, nil)

	assert.Equal(t, SignalBuy, result.Signal)
	assert.InDelta(t, 56, result.Confidence, 1e-9)
	assert.Equal(t, "RSI oversold (28.0) + EMA bullish crossover", result.Reason)
	assert.Equal(t, 97.0, result.Indicators.Close)
}

func TestAnalyze_BuyConfidenceScalesWithOversold(t *testing.T) {
	confidenceFor := func(rsi float64) float64 {
		s := newTestStrategy()
		series := buildSeries(
			point{close: 100, rsi: 40, fast: 101, slow: 100},
			point{close: 99, rsi: 35, fast: 101, slow: 100},
			point{close: 98, rsi: rsi, fast: 101, slow: 100},
		)
		return s.Analyze(series, nil).Confidence
	}

	assert.InDelta(t, 56, confidenceFor(28), 1e-9)
	assert.InDelta(t, 65, confidenceFor(25), 1e-9)
	assert.InDelta(t, 80, confidenceFor(20), 1e-9)
	assert.InDelta(t, 100, confidenceFor(10), 1e-9, "confidence caps at 100")
}

func TestAnalyze_NoBuyWhileHolding(t *testing.T) {
	s := newTestStrategy()

	series := buildSeries(
		point{close: 100, rsi: 35, fast: 101, slow: 100},
		point{close: 99, rsi: 32, fast: 101, slow: 100},
		point{close: 98, rsi: 25, fast: 101, slow: 100},
	)
	result := s.Analyze(series, holding())

	assert.Equal(t, SignalHold, result.Signal)
	assert.Equal(t, 50.0, result.Confidence)
	assert.Equal(t, "Holding position. Trend: bullish, RSI: 25.0", result.Reason)
}

func TestAnalyze_CrossoverMemoryPersists(t *testing.T) {
	s := newTestStrategy()

	// A bullish crossover with neutral RSI holds but arms the memory.
	armed := s.Analyze(buildSeries(
		point{close: 100, rsi: 50, fast: 99, slow: 100},
		point{close: 101, rsi: 52, fast: 99, slow: 100},
		point{close: 102, rsi: 55, fast: 101, slow: 100},
	), nil)
	assert.Equal(t, SignalHold, armed.Signal)

	// Later the EMAs sit exactly equal: no fresh crossover either way, so
	// the remembered bullish cross still qualifies the trend.
	series := buildSeries(
		point{close: 101, rsi: 40, fast: 100, slow: 100},
		point{close: 99, rsi: 33, fast: 100, slow: 100},
		point{close: 97, rsi: 27, fast: 100, slow: 100},
	)
	result := s.Analyze(series, nil)
	assert.Equal(t, SignalBuy, result.Signal)

	// A fresh instance with no memory holds on the same series.
	fresh := newTestStrategy()
	assert.Equal(t, SignalHold, fresh.Analyze(series, nil).Signal)
}

func TestAnalyze_BearishCrossoverOverwritesMemory(t *testing.T) {
	s := newTestStrategy()

	// Bullish cross, then a bearish cross two candles later.
	s.Analyze(buildSeries(
		point{close: 100, rsi: 50, fast: 99, slow: 100},
		point{close: 101, rsi: 52, fast: 99, slow: 100},
		point{close: 102, rsi: 55, fast: 101, slow: 100},
	), nil)
	s.Analyze(buildSeries(
		point{close: 102, rsi: 55, fast: 101, slow: 100},
		point{close: 100, rsi: 48, fast: 101, slow: 100},
		point{close: 98, rsi: 45, fast: 99, slow: 100},
	), nil)

	// Flat EMAs with oversold RSI: the bearish memory blocks the buy.
	result := s.Analyze(buildSeries(
		point{close: 97, rsi: 35, fast: 100, slow: 100},
		point{close: 96, rsi: 30, fast: 100, slow: 100},
		point{close: 95, rsi: 25, fast: 100, slow: 100},
	), nil)
	assert.Equal(t, SignalHold, result.Signal)
}

func TestAnalyze_SellWhenOverboughtAndBearish(t *testing.T) {
	s := newTestStrategy()

	series := buildSeries(
		point{close: 110, rsi: 68, fast: 101, slow: 100},
		point{close: 112, rsi: 72, fast: 101, slow: 100},
		point{close: 113, rsi: 75, fast: 99, slow: 100},
	)
	result := s.Analyze(series, holding())

	assert.Equal(t, SignalSell, result.Signal)
	assert.InDelta(t, 65, result.Confidence, 1e-9)
	assert.Equal(t, "RSI overbought (75.0) + EMA bearish crossover", result.Reason)
}

func TestAnalyze_OverboughtSellWinsOverRiskExit(t *testing.T) {
	s := newTestStrategy()

	// Both conditions hold on the crossing candle; the overbought branch
	// fires with its scaled confidence, not the fixed 60.
	series := buildSeries(
		point{close: 110, rsi: 70, fast: 101, slow: 100},
		point{close: 112, rsi: 74, fast: 101, slow: 100},
		point{close: 111, rsi: 76, fast: 99, slow: 100},
	)
	result := s.Analyze(series, holding())

	assert.Equal(t, SignalSell, result.Signal)
	assert.InDelta(t, 68, result.Confidence, 1e-9)
}

func TestAnalyze_RiskExitOnBearishCross(t *testing.T) {
	s := newTestStrategy()

	series := buildSeries(
		point{close: 105, rsi: 60, fast: 102, slow: 100},
		point{close: 103, rsi: 58, fast: 101, slow: 100},
		point{close: 101, rsi: 55, fast: 99, slow: 100},
	)
	result := s.Analyze(series, holding())

	assert.Equal(t, SignalSell, result.Signal)
	assert.Equal(t, 60.0, result.Confidence)
	assert.Equal(t, "EMA bearish crossover with neutral RSI (55.0)", result.Reason)
}

func TestAnalyze_NoRiskExitBelowNeutralRsi(t *testing.T) {
	s := newTestStrategy()

	series := buildSeries(
		point{close: 105, rsi: 52, fast: 102, slow: 100},
		point{close: 103, rsi: 50, fast: 101, slow: 100},
		point{close: 101, rsi: 45, fast: 99, slow: 100},
	)
	result := s.Analyze(series, holding())

	assert.Equal(t, SignalHold, result.Signal)
	assert.Equal(t, "Holding position. Trend: bearish, RSI: 45.0", result.Reason)
}

func TestAnalyze_HoldWhenFlat(t *testing.T) {
	s := newTestStrategy()

	series := buildSeries(
		point{close: 100, rsi: 48, fast: 101, slow: 100},
		point{close: 101, rsi: 50, fast: 101, slow: 100},
		point{close: 100, rsi: 49, fast: 101, slow: 100},
	)
	result := s.Analyze(series, nil)

	assert.Equal(t, SignalHold, result.Signal)
	assert.Equal(t, 50.0, result.Confidence)
	assert.Equal(t, "No position. Trend: bullish, RSI: 49.0", result.Reason)
}

func TestReset_ClearsCrossoverMemory(t *testing.T) {
	s := newTestStrategy()

	s.Analyze(buildSeries(
		point{close: 100, rsi: 50, fast: 99, slow: 100},
		point{close: 101, rsi: 52, fast: 99, slow: 100},
		point{close: 102, rsi: 55, fast: 101, slow: 100},
	), nil)
	s.Reset()

	// Without the remembered cross, flat EMAs no longer qualify a buy.
	result := s.Analyze(buildSeries(
		point{close: 101, rsi: 40, fast: 100, slow: 100},
		point{close: 99, rsi: 33, fast: 100, slow: 100},
		point{close: 97, rsi: 27, fast: 100, slow: 100},
	), nil)
	assert.Equal(t, SignalHold, result.Signal)
}

func TestName(t *testing.T) {
	assert.Equal(t, "rsi_ema_crossover", newTestStrategy().Name())
	assert.Contains(t, newTestStrategy().Description(), "RSI")
}
