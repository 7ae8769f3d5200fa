package ledger

import (
	"time"

	"paper-trade-bot-go/internal/models"

	"go.uber.org/zap"
)

// PriceSource supplies the latest known price for a symbol. The bool is
// false when no price has ever been observed.
type PriceSource interface {
	LatestPrice(symbol string) (float64, bool, error)
}

// Ledger owns the paper account: cash balance, open positions, the trade
// log, and the equity curve. All state lives in the store; the ledger
// recomputes and persists total equity after every mutation so it is never
// stale relative to the latest mark price.
type Ledger struct {
	store           *Store
	prices          PriceSource
	logger          *zap.Logger
	startingBalance float64
	feeRate         float64
}

// NewLedger creates a ledger and initializes the account at the starting
// balance if it does not exist yet.
func NewLedger(store *Store, prices PriceSource, logger *zap.Logger, startingBalance, feeRate float64) (*Ledger, error) {
	l := &Ledger{
		store:           store,
		prices:          prices,
		logger:          logger,
		startingBalance: startingBalance,
		feeRate:         feeRate,
	}
	if _, err := l.ensureAccount(); err != nil {
		return nil, err
	}
	return l, nil
}

// ensureAccount loads the account row, creating it at the starting balance
// on first use.
func (l *Ledger) ensureAccount() (*models.Account, error) {
	account, err := l.store.GetAccount()
	if err != nil {
		return nil, err
	}
	if account == nil {
		if err := l.store.PutAccount(l.startingBalance, l.startingBalance); err != nil {
			return nil, err
		}
		l.logger.Info("Initialized paper account",
			zap.Float64("starting_balance", l.startingBalance))
		return l.store.GetAccount()
	}
	return account, nil
}

// FeeRate returns the configured per-trade fee rate.
func (l *Ledger) FeeRate() float64 {
	return l.feeRate
}

// StartingBalance returns the configured initial cash balance.
func (l *Ledger) StartingBalance() float64 {
	return l.startingBalance
}

// CashBalance returns the available cash, auto-initializing the account on
// first use.
func (l *Ledger) CashBalance() (float64, error) {
	account, err := l.ensureAccount()
	if err != nil {
		return 0, err
	}
	return account.CashBalance, nil
}

// Account returns the current account row.
func (l *Ledger) Account() (*models.Account, error) {
	return l.ensureAccount()
}

// GetPosition returns the open position for a symbol, nil if absent.
func (l *Ledger) GetPosition(symbol string) (*models.Position, error) {
	return l.store.GetPosition(symbol)
}

// AllPositions returns every position holding more than the dust epsilon.
func (l *Ledger) AllPositions() ([]models.Position, error) {
	return l.store.ListPositions()
}

// CalculateFee returns the trading fee for a given trade value.
func (l *Ledger) CalculateFee(tradeValue float64) float64 {
	return tradeValue * l.feeRate
}

// CanAfford reports whether cash covers a trade of the given value plus
// its fee. Equality is allowed: spending the exact balance is permitted.
func (l *Ledger) CanAfford(tradeValue float64) (bool, error) {
	cash, err := l.CashBalance()
	if err != nil {
		return false, err
	}
	return cash >= tradeValue+l.CalculateFee(tradeValue), nil
}

// UpdatePosition upserts the position for a symbol, deleting it when the
// amount falls to the dust epsilon, then recomputes and persists total
// equity from the resulting state.
func (l *Ledger) UpdatePosition(symbol string, amount, avgEntryPrice float64) error {
	if amount <= models.PositionEpsilon {
		if err := l.store.DeletePosition(symbol); err != nil {
			return err
		}
	} else {
		if err := l.store.UpsertPosition(symbol, amount, avgEntryPrice); err != nil {
			return err
		}
	}
	return l.refreshEquity()
}

// UpdateCashBalance sets the cash balance and recomputes total equity.
func (l *Ledger) UpdateCashBalance(newBalance float64) error {
	equity, err := l.TotalEquityWithCash(newBalance)
	if err != nil {
		return err
	}
	return l.store.PutAccount(newBalance, equity)
}

// refreshEquity re-persists the account with equity recomputed against the
// latest known prices, leaving cash unchanged.
func (l *Ledger) refreshEquity() error {
	cash, err := l.CashBalance()
	if err != nil {
		return err
	}
	equity, err := l.TotalEquityWithCash(cash)
	if err != nil {
		return err
	}
	return l.store.PutAccount(cash, equity)
}

// TotalEquity returns current cash plus the mark-to-market value of all
// open positions.
func (l *Ledger) TotalEquity() (float64, error) {
	cash, err := l.CashBalance()
	if err != nil {
		return 0, err
	}
	return l.TotalEquityWithCash(cash)
}

// TotalEquityWithCash values all open positions at the latest known price
// and adds the given cash balance. When no price has ever been observed
// for a symbol the position's average entry price is used instead; this
// can misstate equity while price data is stale, which is accepted.
func (l *Ledger) TotalEquityWithCash(cash float64) (float64, error) {
	positions, err := l.store.ListPositions()
	if err != nil {
		return 0, err
	}

	value := 0.0
	for _, position := range positions {
		price, ok, err := l.prices.LatestPrice(position.Symbol)
		if err != nil {
			return 0, err
		}
		if !ok {
			price = position.AvgEntryPrice
		}
		value += position.Amount * price
	}
	return cash + value, nil
}

// UnrealizedPnL returns the mark-to-market gain of one position at the
// given price, zero when no position exists.
func (l *Ledger) UnrealizedPnL(symbol string, currentPrice float64) (float64, error) {
	position, err := l.store.GetPosition(symbol)
	if err != nil {
		return 0, err
	}
	if position == nil {
		return 0, nil
	}
	return position.Amount * (currentPrice - position.AvgEntryPrice), nil
}

// TotalUnrealizedPnL sums unrealized gains over all positions that have a
// known current price.
func (l *Ledger) TotalUnrealizedPnL() (float64, error) {
	positions, err := l.store.ListPositions()
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, position := range positions {
		price, ok, err := l.prices.LatestPrice(position.Symbol)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		total += position.Amount * (price - position.AvgEntryPrice)
	}
	return total, nil
}

// RecordEquitySnapshot appends the current equity to the equity curve and
// returns it. Always appends a new row, even if equity is unchanged.
func (l *Ledger) RecordEquitySnapshot() (float64, error) {
	equity, err := l.TotalEquity()
	if err != nil {
		return 0, err
	}
	if err := l.store.AppendEquitySnapshot(time.Now().UnixMilli(), equity); err != nil {
		return 0, err
	}
	return equity, nil
}

// RecordTrade appends one trade to the append-only trade log and returns
// its ID.
func (l *Ledger) RecordTrade(trade *models.Trade) (uint, error) {
	return l.store.AppendTrade(trade)
}

// TradeHistory returns recent trades, newest first. An empty symbol means
// all symbols.
func (l *Ledger) TradeHistory(symbol string, limit int) ([]models.Trade, error) {
	return l.store.ListTrades(symbol, limit)
}

// Reset destructively clears trades, positions, and equity history, then
// reinitializes the account at the starting balance. Irreversible.
func (l *Ledger) Reset() error {
	l.logger.Warn("Resetting paper account, all history will be lost")
	if err := l.store.ClearAll(); err != nil {
		return err
	}
	if err := l.store.PutAccount(l.startingBalance, l.startingBalance); err != nil {
		return err
	}
	l.logger.Info("Account reset complete",
		zap.Float64("balance", l.startingBalance))
	return nil
}
