package executor

import (
	"sync"
	"time"

	"paper-trade-bot-go/internal/ledger"
	"paper-trade-bot-go/internal/models"

	"go.uber.org/zap"
)

// BuyResult reports an executed market buy. Cost is the nominal quote
// amount spent; TotalCost adds the fee, which is charged on top of the
// spend rather than rolled into the position's cost basis.
type BuyResult struct {
	TradeID   uint    `json:"trade_id"`
	Symbol    string  `json:"symbol"`
	Amount    float64 `json:"amount"` // base asset bought
	Price     float64 `json:"price"`
	Cost      float64 `json:"cost"`
	Fee       float64 `json:"fee"`
	TotalCost float64 `json:"total_cost"`
	Timestamp int64   `json:"timestamp"`
}

// SellResult reports an executed market sell. Pnl is realized profit net
// of the sell-side fee, measured against the average entry price.
type SellResult struct {
	TradeID       uint    `json:"trade_id"`
	Symbol        string  `json:"symbol"`
	Amount        float64 `json:"amount"` // base asset sold
	Price         float64 `json:"price"`
	GrossProceeds float64 `json:"gross_proceeds"`
	Fee           float64 `json:"fee"`
	NetProceeds   float64 `json:"net_proceeds"`
	Pnl           float64 `json:"pnl"`
	Timestamp     int64   `json:"timestamp"`
}

// Executor validates and performs simulated market orders against the
// ledger at the oracle's latest price. Every order fills completely; a
// rejected order leaves the ledger untouched.
//
// The mutex serializes validation through commit: CanAfford followed by
// the cash mutation is a check-then-act sequence, so orders must not
// interleave.
type Executor struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	prices ledger.PriceSource
	logger *zap.Logger
}

// NewExecutor creates a trade executor over the given ledger and oracle.
func NewExecutor(l *ledger.Ledger, prices ledger.PriceSource, logger *zap.Logger) *Executor {
	return &Executor{ledger: l, prices: prices, logger: logger}
}

// MarketBuy spends quoteAmount of quote currency on the symbol at the
// latest price. The fee is charged on top of quoteAmount; the position's
// average entry price is re-weighted by the gross spend.
func (e *Executor) MarketBuy(symbol string, quoteAmount float64) (*BuyResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quoteAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	price, ok, err := e.prices.LatestPrice(symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NoPriceDataError{Symbol: symbol}
	}

	fee := e.ledger.CalculateFee(quoteAmount)
	totalCost := quoteAmount + fee

	affordable, err := e.ledger.CanAfford(quoteAmount)
	if err != nil {
		return nil, err
	}
	if !affordable {
		cash, err := e.ledger.CashBalance()
		if err != nil {
			return nil, err
		}
		return nil, &InsufficientBalanceError{Available: cash, Required: totalCost}
	}

	baseAmount := quoteAmount / price

	existing, err := e.ledger.GetPosition(symbol)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		oldCost := existing.Amount * existing.AvgEntryPrice
		newAmount := existing.Amount + baseAmount
		newAvgPrice := (oldCost + quoteAmount) / newAmount
		if err := e.ledger.UpdatePosition(symbol, newAmount, newAvgPrice); err != nil {
			return nil, err
		}
	} else {
		if err := e.ledger.UpdatePosition(symbol, baseAmount, price); err != nil {
			return nil, err
		}
	}

	cash, err := e.ledger.CashBalance()
	if err != nil {
		return nil, err
	}
	if err := e.ledger.UpdateCashBalance(cash - totalCost); err != nil {
		return nil, err
	}

	timestamp := time.Now().UnixMilli()
	tradeID, err := e.ledger.RecordTrade(&models.Trade{
		Symbol:    symbol,
		Side:      models.TradeSideBuy,
		Amount:    baseAmount,
		Price:     price,
		Fee:       fee,
		Timestamp: timestamp,
		Pnl:       0, // buys never realize profit
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Executed market buy",
		zap.String("symbol", symbol),
		zap.Float64("amount", baseAmount),
		zap.Float64("price", price),
		zap.Float64("cost", quoteAmount),
		zap.Float64("fee", fee))

	return &BuyResult{
		TradeID:   tradeID,
		Symbol:    symbol,
		Amount:    baseAmount,
		Price:     price,
		Cost:      quoteAmount,
		Fee:       fee,
		TotalCost: totalCost,
		Timestamp: timestamp,
	}, nil
}

// MarketSell sells baseAmount of the held position at the latest price.
// The fee comes out of the gross proceeds, so realized PnL is already
// fee-adjusted; the entry cost basis is not.
func (e *Executor) MarketSell(symbol string, baseAmount float64) (*SellResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.marketSellLocked(symbol, baseAmount)
}

func (e *Executor) marketSellLocked(symbol string, baseAmount float64) (*SellResult, error) {
	if baseAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	position, err := e.ledger.GetPosition(symbol)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, &NoPositionError{Symbol: symbol}
	}
	if position.Amount < baseAmount {
		return nil, &InsufficientPositionError{
			Symbol:    symbol,
			Held:      position.Amount,
			Requested: baseAmount,
		}
	}

	price, ok, err := e.prices.LatestPrice(symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NoPriceDataError{Symbol: symbol}
	}

	grossProceeds := baseAmount * price
	fee := e.ledger.CalculateFee(grossProceeds)
	netProceeds := grossProceeds - fee

	entryCost := baseAmount * position.AvgEntryPrice
	realizedPnl := netProceeds - entryCost

	remaining := position.Amount - baseAmount
	if remaining <= models.PositionEpsilon {
		// Close entirely, discarding any unsold dust.
		if err := e.ledger.UpdatePosition(symbol, 0, 0); err != nil {
			return nil, err
		}
	} else {
		if err := e.ledger.UpdatePosition(symbol, remaining, position.AvgEntryPrice); err != nil {
			return nil, err
		}
	}

	cash, err := e.ledger.CashBalance()
	if err != nil {
		return nil, err
	}
	if err := e.ledger.UpdateCashBalance(cash + netProceeds); err != nil {
		return nil, err
	}

	timestamp := time.Now().UnixMilli()
	tradeID, err := e.ledger.RecordTrade(&models.Trade{
		Symbol:    symbol,
		Side:      models.TradeSideSell,
		Amount:    baseAmount,
		Price:     price,
		Fee:       fee,
		Timestamp: timestamp,
		Pnl:       realizedPnl,
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Executed market sell",
		zap.String("symbol", symbol),
		zap.Float64("amount", baseAmount),
		zap.Float64("price", price),
		zap.Float64("net_proceeds", netProceeds),
		zap.Float64("fee", fee),
		zap.Float64("pnl", realizedPnl))

	return &SellResult{
		TradeID:       tradeID,
		Symbol:        symbol,
		Amount:        baseAmount,
		Price:         price,
		GrossProceeds: grossProceeds,
		Fee:           fee,
		NetProceeds:   netProceeds,
		Pnl:           realizedPnl,
		Timestamp:     timestamp,
	}, nil
}

// SellAll sells the entire held position in the symbol.
func (e *Executor) SellAll(symbol string) (*SellResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	position, err := e.ledger.GetPosition(symbol)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, &NoPositionError{Symbol: symbol}
	}
	return e.marketSellLocked(symbol, position.Amount)
}

// TotalRealizedPnl sums realized profit across the whole trade log.
func (e *Executor) TotalRealizedPnl() (float64, error) {
	trades, err := e.ledger.TradeHistory("", 10000)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, trade := range trades {
		total += trade.Pnl
	}
	return total, nil
}
