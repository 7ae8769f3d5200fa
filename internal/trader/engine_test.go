package trader

import (
	"testing"

	"paper-trade-bot-go/internal/analytics"
	"paper-trade-bot-go/internal/config"
	"paper-trade-bot-go/internal/database"
	"paper-trade-bot-go/internal/executor"
	"paper-trade-bot-go/internal/indicators"
	"paper-trade-bot-go/internal/ledger"
	"paper-trade-bot-go/internal/market"
	"paper-trade-bot-go/internal/models"
	"paper-trade-bot-go/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// mockMarketClient is a mock implementation of market.ClientInterface.
type mockMarketClient struct {
	mock.Mock
}

func (m *mockMarketClient) GetServerTime() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMarketClient) GetKlines(symbol, interval string, limit int) ([]models.Candle, error) {
	args := m.Called(symbol, interval, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Candle), args.Error(1)
}

func (m *mockMarketClient) GetTickerPrice(symbol string) (float64, error) {
	args := m.Called(symbol)
	return args.Get(0).(float64), args.Error(1)
}

// scriptedStrategy emits a fixed sequence of signals, then holds.
type scriptedStrategy struct {
	signals  []strategy.Signal
	calls    int
	executed []string
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Analyze(series indicators.Series, position *models.Position) strategy.Result {
	signal := strategy.SignalHold
	if s.calls < len(s.signals) {
		signal = s.signals[s.calls]
	}
	s.calls++
	return strategy.Result{Signal: signal, Confidence: 80, Reason: "scripted"}
}

func (s *scriptedStrategy) OnTradeExecuted(symbol, side string) {
	s.executed = append(s.executed, side)
}

func (s *scriptedStrategy) Reset() {}

func testConfig() *config.Config {
	return &config.Config{
		Exchange: config.Exchange{Timeframe: "1m", CandleLimit: 100},
		Trading: config.Trading{
			Symbol:          "BTC/USD",
			StartingBalance: 10_000,
			FeeRate:         0.001,
			TradeAmount:     1_000,
			TickInterval:    5,
		},
		Strategy: config.Strategy{
			RsiPeriod: 14, RsiOversold: 30, RsiOverbought: 70,
			EmaFastPeriod: 12, EmaSlowPeriod: 26,
			MacdFast: 12, MacdSlow: 26, MacdSignal: 9,
			BbPeriod: 20, BbStdDev: 2,
		},
	}
}

func testCandles() []models.Candle {
	candles := make([]models.Candle, 5)
	for i := range candles {
		candles[i] = models.Candle{
			Symbol:    "BTC/USD",
			Timestamp: int64(i+1) * 60_000,
			Open:      50_000,
			High:      50_100,
			Low:       49_900,
			Close:     50_000,
			Volume:    10,
		}
	}
	return candles
}

func newTestEngine(t *testing.T, client market.ClientInterface, strat strategy.Strategy) (*Engine, *ledger.Ledger) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := testConfig()
	log := zap.NewNop()
	store := ledger.NewStore(db)
	tracker := market.NewTracker(store, client, log, cfg.Exchange.Timeframe, cfg.Exchange.CandleLimit)
	l, err := ledger.NewLedger(store, tracker, log, cfg.Trading.StartingBalance, cfg.Trading.FeeRate)
	require.NoError(t, err)
	exec := executor.NewExecutor(l, tracker, log)
	perf := analytics.NewPerformance(store, cfg.Trading.StartingBalance)

	return NewEngine(log, cfg, tracker, l, exec, strat, perf), l
}

func TestTick_WaitsWithoutMarketData(t *testing.T) {
	client := new(mockMarketClient)
	client.On("GetKlines", "BTC/USD", "1m", 100).Return(nil, assert.AnError)

	strat := &scriptedStrategy{}
	engine, l := newTestEngine(t, client, strat)

	// A failed fetch with an empty cache waits instead of erroring.
	assert.NoError(t, engine.Tick())
	assert.Zero(t, strat.calls, "no analysis without candles")

	trades, err := l.TradeHistory("", 10)
	assert.NoError(t, err)
	assert.Empty(t, trades)
}

func TestTick_BuyThenSell(t *testing.T) {
	client := new(mockMarketClient)
	client.On("GetKlines", "BTC/USD", "1m", 100).Return(testCandles(), nil)

	strat := &scriptedStrategy{signals: []strategy.Signal{
		strategy.SignalBuy,
		strategy.SignalHold,
		strategy.SignalSell,
	}}
	engine, l := newTestEngine(t, client, strat)

	require.NoError(t, engine.Tick())

	position, err := l.GetPosition("BTC/USD")
	require.NoError(t, err)
	require.NotNil(t, position)
	assert.InDelta(t, 0.02, position.Amount, 1e-9)

	cash, err := l.CashBalance()
	require.NoError(t, err)
	assert.InDelta(t, 8_999, cash, 1e-9)

	require.NoError(t, engine.Tick())
	require.NoError(t, engine.Tick())

	position, err = l.GetPosition("BTC/USD")
	require.NoError(t, err)
	assert.Nil(t, position, "sell closes the whole position")

	assert.Equal(t, []string{models.TradeSideBuy, models.TradeSideSell}, strat.executed)

	trades, err := l.TradeHistory("", 10)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestTick_RecordsEquitySnapshotEveryTick(t *testing.T) {
	client := new(mockMarketClient)
	client.On("GetKlines", "BTC/USD", "1m", 100).Return(testCandles(), nil)

	engine, l := newTestEngine(t, client, &scriptedStrategy{})

	require.NoError(t, engine.Tick())
	require.NoError(t, engine.Tick())

	equity, err := l.TotalEquity()
	require.NoError(t, err)
	assert.InDelta(t, 10_000, equity, 1e-9)
}

func TestTick_IgnoresBuyWhileHolding(t *testing.T) {
	client := new(mockMarketClient)
	client.On("GetKlines", "BTC/USD", "1m", 100).Return(testCandles(), nil)

	strat := &scriptedStrategy{signals: []strategy.Signal{
		strategy.SignalBuy,
		strategy.SignalBuy,
	}}
	engine, l := newTestEngine(t, client, strat)

	require.NoError(t, engine.Tick())
	require.NoError(t, engine.Tick())

	trades, err := l.TradeHistory("", 10)
	require.NoError(t, err)
	assert.Len(t, trades, 1, "a second BUY while holding is ignored")
	assert.Equal(t, []string{models.TradeSideBuy}, strat.executed)
}

func TestTick_IgnoresSellWhileFlat(t *testing.T) {
	client := new(mockMarketClient)
	client.On("GetKlines", "BTC/USD", "1m", 100).Return(testCandles(), nil)

	strat := &scriptedStrategy{signals: []strategy.Signal{strategy.SignalSell}}
	engine, l := newTestEngine(t, client, strat)

	require.NoError(t, engine.Tick())

	trades, err := l.TradeHistory("", 10)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, strat.executed)
}

func TestTick_SwallowsBuyRejection(t *testing.T) {
	client := new(mockMarketClient)
	client.On("GetKlines", "BTC/USD", "1m", 100).Return(testCandles(), nil)

	strat := &scriptedStrategy{signals: []strategy.Signal{strategy.SignalBuy}}
	engine, l := newTestEngine(t, client, strat)
	engine.cfg.Trading.TradeAmount = 20_000

	// The unaffordable buy is rejected but the tick still succeeds.
	require.NoError(t, engine.Tick())

	position, err := l.GetPosition("BTC/USD")
	assert.NoError(t, err)
	assert.Nil(t, position)
	assert.Empty(t, strat.executed)
}
