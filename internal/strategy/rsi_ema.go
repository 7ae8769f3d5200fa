package strategy

import (
	"fmt"
	"math"

	"paper-trade-bot-go/internal/config"
	"paper-trade-bot-go/internal/indicators"
	"paper-trade-bot-go/internal/models"

	"go.uber.org/zap"
)

type crossover string

const (
	crossoverNone    crossover = "none"
	crossoverBullish crossover = "bullish"
	crossoverBearish crossover = "bearish"
)

// RsiEma combines RSI overbought/oversold levels with an EMA crossover
// trend filter.
//
// BUY when flat: RSI below the oversold threshold while the fast EMA is
// above the slow EMA, or a bullish crossover happened recently.
// SELL while holding: RSI above the overbought threshold with a bearish
// trend, or a bearish crossover with RSI above neutral as a risk exit.
//
// The last observed crossover is remembered across calls so a signal is
// not lost just because RSI reaches its threshold a few candles after the
// cross. The memory is per instance; concurrent symbols need their own
// instances.
type RsiEma struct {
	oversold      float64
	overbought    float64
	logger        *zap.Logger
	lastCrossover crossover
}

// NewRsiEma creates the strategy with thresholds from the config.
func NewRsiEma(cfg config.Strategy, logger *zap.Logger) *RsiEma {
	return &RsiEma{
		oversold:      cfg.RsiOversold,
		overbought:    cfg.RsiOverbought,
		logger:        logger,
		lastCrossover: crossoverNone,
	}
}

func (s *RsiEma) Name() string {
	return "rsi_ema_crossover"
}

// Description summarizes the trading rules with the configured thresholds.
func (s *RsiEma) Description() string {
	return fmt.Sprintf("RSI + EMA crossover: BUY when RSI < %.0f and EMA bullish, SELL when RSI > %.0f and EMA bearish",
		s.oversold, s.overbought)
}

func (s *RsiEma) Analyze(series indicators.Series, position *models.Position) Result {
	n := series.Len()
	if n < 3 {
		return Result{Signal: SignalHold, Confidence: 0, Reason: "insufficient data for analysis"}
	}

	curr, prev := n-1, n-2
	for _, v := range []float64{
		series.Close[curr], series.Rsi[curr], series.EmaFast[curr], series.EmaSlow[curr],
		series.Close[prev], series.Rsi[prev], series.EmaFast[prev], series.EmaSlow[prev],
	} {
		if math.IsNaN(v) {
			return Result{Signal: SignalHold, Confidence: 0, Reason: "indicator values not available yet"}
		}
	}

	rsi := series.Rsi[curr]
	emaFast := series.EmaFast[curr]
	emaSlow := series.EmaSlow[curr]
	prevFast := series.EmaFast[prev]
	prevSlow := series.EmaSlow[prev]

	snapshot, _ := series.Latest()

	// Crossover memory is updated on every call, independent of whether a
	// signal fires; it persists until the opposite crossover overwrites it.
	bullishCrossover := prevFast <= prevSlow && emaFast > emaSlow
	bearishCrossover := prevFast >= prevSlow && emaFast < emaSlow
	if bullishCrossover {
		s.lastCrossover = crossoverBullish
	} else if bearishCrossover {
		s.lastCrossover = crossoverBearish
	}

	currentAbove := emaFast > emaSlow

	if position == nil {
		emaBullish := currentAbove || s.lastCrossover == crossoverBullish
		if rsi < s.oversold && emaBullish {
			confidence := math.Min(100, (s.oversold-rsi)*3+50)
			return Result{
				Signal:     SignalBuy,
				Confidence: confidence,
				Reason:     fmt.Sprintf("RSI oversold (%.1f) + EMA bullish crossover", rsi),
				Indicators: snapshot,
			}
		}
	} else {
		emaBearish := !currentAbove || s.lastCrossover == crossoverBearish
		if rsi > s.overbought && emaBearish {
			confidence := math.Min(100, (rsi-s.overbought)*3+50)
			return Result{
				Signal:     SignalSell,
				Confidence: confidence,
				Reason:     fmt.Sprintf("RSI overbought (%.1f) + EMA bearish crossover", rsi),
				Indicators: snapshot,
			}
		}

		// Risk exit: a bearish cross on this very candle with RSI above
		// neutral closes the position without waiting for overbought.
		if bearishCrossover && rsi > 50 {
			return Result{
				Signal:     SignalSell,
				Confidence: 60,
				Reason:     fmt.Sprintf("EMA bearish crossover with neutral RSI (%.1f)", rsi),
				Indicators: snapshot,
			}
		}
	}

	trend := "bearish"
	if currentAbove {
		trend = "bullish"
	}
	reason := fmt.Sprintf("No position. Trend: %s, RSI: %.1f", trend, rsi)
	if position != nil {
		reason = fmt.Sprintf("Holding position. Trend: %s, RSI: %.1f", trend, rsi)
	}
	return Result{
		Signal:     SignalHold,
		Confidence: 50,
		Reason:     reason,
		Indicators: snapshot,
	}
}

func (s *RsiEma) OnTradeExecuted(symbol, side string) {
	s.logger.Info("Trade executed",
		zap.String("strategy", s.Name()),
		zap.String("symbol", symbol),
		zap.String("side", side))
}

// Reset clears the crossover memory.
func (s *RsiEma) Reset() {
	s.lastCrossover = crossoverNone
}
