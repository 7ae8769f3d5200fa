package strategy

import (
	"paper-trade-bot-go/internal/indicators"
	"paper-trade-bot-go/internal/models"
)

// Signal is the action a strategy recommends for the current tick.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Result is the outcome of one analysis call. Confidence is 0-100; Reason
// is a human-readable explanation for logs and the UI.
type Result struct {
	Signal     Signal              `json:"signal"`
	Confidence float64             `json:"confidence"`
	Reason     string              `json:"reason"`
	Indicators indicators.Snapshot `json:"indicators"`
}

// Strategy is the interface every trading strategy implements. The engine
// calls Analyze once per tick with the indicator-annotated series and the
// current position (nil when flat); strategies may keep internal state
// between calls, scoped to one instance, and must clear it on Reset.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Analyze inspects the series and current position and returns a signal.
	// It never fails: unusable input yields a HOLD with confidence 0.
	Analyze(series indicators.Series, position *models.Position) Result

	// OnTradeExecuted notifies the strategy that one of its signals was
	// acted on.
	OnTradeExecuted(symbol, side string)

	// Reset clears any internal state.
	Reset()
}
