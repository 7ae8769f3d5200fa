package trader

import (
	"context"
	"time"

	"paper-trade-bot-go/internal/analytics"
	"paper-trade-bot-go/internal/config"
	"paper-trade-bot-go/internal/executor"
	"paper-trade-bot-go/internal/indicators"
	"paper-trade-bot-go/internal/ledger"
	"paper-trade-bot-go/internal/market"
	"paper-trade-bot-go/internal/models"
	"paper-trade-bot-go/internal/strategy"

	"go.uber.org/zap"
)

// Engine runs the paper-trading tick loop: fetch candles, annotate with
// indicators, ask the strategy for a signal, execute it, and record an
// equity snapshot. Ticks are strictly sequential; nothing overlaps.
type Engine struct {
	logger      *zap.Logger
	cfg         *config.Config
	tracker     *market.Tracker
	ledger      *ledger.Ledger
	executor    *executor.Executor
	strategy    strategy.Strategy
	performance *analytics.Performance
	iteration   int
}

// NewEngine creates a trading engine.
func NewEngine(
	logger *zap.Logger,
	cfg *config.Config,
	tracker *market.Tracker,
	l *ledger.Ledger,
	exec *executor.Executor,
	strat strategy.Strategy,
	perf *analytics.Performance,
) *Engine {
	return &Engine{
		logger:      logger,
		cfg:         cfg,
		tracker:     tracker,
		ledger:      l,
		executor:    exec,
		strategy:    strat,
		performance: perf,
	}
}

// Run starts the engine's main loop and blocks until the context is
// cancelled.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(e.cfg.Trading.TickInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting trading loop",
		zap.String("symbol", e.cfg.Trading.Symbol),
		zap.String("strategy", e.strategy.Name()),
		zap.Float64("trade_amount", e.cfg.Trading.TradeAmount),
		zap.Duration("interval", interval))

	// First tick immediately instead of waiting a full interval.
	if err := e.Tick(); err != nil {
		e.logger.Error("Tick failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping trading engine...")
			e.logFinalReport()
			return
		case <-ticker.C:
			if err := e.Tick(); err != nil {
				e.logger.Error("Tick failed", zap.Error(err))
			}
		}
	}
}

// Tick performs a single iteration of the trading loop.
func (e *Engine) Tick() error {
	e.iteration++
	symbol := e.cfg.Trading.Symbol

	if _, err := e.tracker.FetchAndCache(symbol); err != nil {
		// Market data hiccups are tolerated; the next tick retries.
		e.logger.Warn("Failed to fetch market data", zap.String("symbol", symbol), zap.Error(err))
	}

	candles, err := e.tracker.RecentCandles(symbol)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		e.logger.Info("Waiting for market data...", zap.String("symbol", symbol))
		return nil
	}

	series := indicators.Annotate(candles, e.cfg.Strategy)

	position, err := e.ledger.GetPosition(symbol)
	if err != nil {
		return err
	}

	result := e.strategy.Analyze(series, position)

	snapshot, _ := series.Latest()
	held := 0.0
	if position != nil {
		held = position.Amount
	}
	e.logger.Info("Tick",
		zap.Int("iteration", e.iteration),
		zap.String("symbol", symbol),
		zap.Float64("price", snapshot.Close),
		zap.Float64("rsi", snapshot.Rsi),
		zap.Float64("position", held),
		zap.String("signal", string(result.Signal)),
		zap.Float64("confidence", result.Confidence))

	if err := e.executeSignal(symbol, position, result); err != nil {
		return err
	}

	if _, err := e.ledger.RecordEquitySnapshot(); err != nil {
		return err
	}

	if e.iteration%10 == 0 {
		e.logSummary()
	}
	return nil
}

// executeSignal acts on a BUY or SELL. Business-rule rejections are logged
// and swallowed; storage failures propagate.
func (e *Engine) executeSignal(symbol string, position *models.Position, result strategy.Result) error {
	switch result.Signal {
	case strategy.SignalBuy:
		if position != nil {
			e.logger.Debug("BUY ignored, already in position", zap.String("symbol", symbol))
			return nil
		}
		e.logger.Info("Signal BUY", zap.String("reason", result.Reason))
		buy, err := e.executor.MarketBuy(symbol, e.cfg.Trading.TradeAmount)
		if err != nil {
			if executor.IsRejection(err) {
				e.logger.Warn("Buy rejected", zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			return err
		}
		e.strategy.OnTradeExecuted(buy.Symbol, models.TradeSideBuy)

	case strategy.SignalSell:
		if position == nil {
			e.logger.Debug("SELL ignored, no position", zap.String("symbol", symbol))
			return nil
		}
		e.logger.Info("Signal SELL", zap.String("reason", result.Reason))
		sell, err := e.executor.SellAll(symbol)
		if err != nil {
			if executor.IsRejection(err) {
				e.logger.Warn("Sell rejected", zap.String("symbol", symbol), zap.Error(err))
				return nil
			}
			return err
		}
		e.strategy.OnTradeExecuted(sell.Symbol, models.TradeSideSell)
	}
	return nil
}

// logSummary logs a short performance line.
func (e *Engine) logSummary() {
	equity, err := e.ledger.TotalEquity()
	if err != nil {
		e.logger.Error("Failed to compute equity for summary", zap.Error(err))
		return
	}
	absReturn, pctReturn, err := e.performance.TotalReturn()
	if err != nil {
		e.logger.Error("Failed to compute return for summary", zap.Error(err))
		return
	}
	e.logger.Info("Summary",
		zap.Int("iteration", e.iteration),
		zap.Float64("equity", equity),
		zap.Float64("return", absReturn),
		zap.Float64("return_pct", pctReturn))
}

// logFinalReport logs the analytics report on shutdown.
func (e *Engine) logFinalReport() {
	report, err := e.performance.Report()
	if err != nil {
		e.logger.Error("Failed to build final report", zap.Error(err))
		return
	}
	e.logger.Info("Final report\n" + report)
}
