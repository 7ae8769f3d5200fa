package ledger

import (
	"errors"
	"fmt"
	"time"

	"paper-trade-bot-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps the database with the record operations the ledger needs.
// Every method returns an error on storage failure; callers must treat
// those as fatal rather than fall back to in-memory guesses.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over an already-migrated database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetAccount returns the singleton account row, or (nil, nil) if the
// account has not been initialized yet.
func (s *Store) GetAccount() (*models.Account, error) {
	var account models.Account
	err := s.db.First(&account, models.AccountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &account, nil
}

// PutAccount writes the account row, stamping it with the current time.
func (s *Store) PutAccount(cashBalance, totalEquity float64) error {
	account := models.Account{
		ID:          models.AccountID,
		CashBalance: cashBalance,
		TotalEquity: totalEquity,
		LastUpdated: time.Now().UnixMilli(),
	}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&account).Error
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetPosition returns the open position for a symbol, or (nil, nil) if
// there is none.
func (s *Store) GetPosition(symbol string) (*models.Position, error) {
	var position models.Position
	err := s.db.Where("symbol = ?", symbol).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load position for %s: %w", symbol, err)
	}
	return &position, nil
}

// UpsertPosition creates or replaces the position for a symbol.
func (s *Store) UpsertPosition(symbol string, amount, avgEntryPrice float64) error {
	position := models.Position{
		Symbol:        symbol,
		Amount:        amount,
		AvgEntryPrice: avgEntryPrice,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "avg_entry_price", "updated_at"}),
	}).Create(&position).Error
	if err != nil {
		return fmt.Errorf("failed to upsert position for %s: %w", symbol, err)
	}
	return nil
}

// DeletePosition removes the position row for a symbol. Deleting a symbol
// with no position is not an error.
func (s *Store) DeletePosition(symbol string) error {
	err := s.db.Unscoped().Where("symbol = ?", symbol).Delete(&models.Position{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete position for %s: %w", symbol, err)
	}
	return nil
}

// ListPositions returns all positions holding more than the dust epsilon,
// ordered by symbol.
func (s *Store) ListPositions() ([]models.Position, error) {
	var positions []models.Position
	err := s.db.Where("amount > ?", models.PositionEpsilon).
		Order("symbol asc").Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, nil
}

// AppendTrade writes one trade record and returns its ID.
func (s *Store) AppendTrade(trade *models.Trade) (uint, error) {
	if err := s.db.Create(trade).Error; err != nil {
		return 0, fmt.Errorf("failed to save trade record: %w", err)
	}
	return trade.ID, nil
}

// ListTrades returns trade history ordered newest first, optionally
// filtered by symbol. An empty symbol means all trades.
func (s *Store) ListTrades(symbol string, limit int) ([]models.Trade, error) {
	query := s.db.Order("timestamp desc, id desc").Limit(limit)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	var trades []models.Trade
	if err := query.Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

// AppendEquitySnapshot records one point on the equity curve.
func (s *Store) AppendEquitySnapshot(timestamp int64, equity float64) error {
	snapshot := models.EquitySnapshot{Timestamp: timestamp, Equity: equity}
	if err := s.db.Create(&snapshot).Error; err != nil {
		return fmt.Errorf("failed to record equity snapshot: %w", err)
	}
	return nil
}

// ListEquitySnapshots returns the full equity history, oldest first.
func (s *Store) ListEquitySnapshots() ([]models.EquitySnapshot, error) {
	var snapshots []models.EquitySnapshot
	err := s.db.Order("timestamp asc").Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list equity history: %w", err)
	}
	return snapshots, nil
}

// SaveCandles upserts a batch of candles, replacing duplicates on
// (symbol, timestamp).
func (s *Store) SaveCandles(candles []models.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "timestamp"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "updated_at"}),
	}).Create(&candles).Error
	if err != nil {
		return 0, fmt.Errorf("failed to save candles: %w", err)
	}
	return len(candles), nil
}

// LatestClose returns the most recent cached close price for a symbol.
// The bool is false when no candle exists.
func (s *Store) LatestClose(symbol string) (float64, bool, error) {
	var candle models.Candle
	err := s.db.Where("symbol = ?", symbol).
		Order("timestamp desc").First(&candle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load latest price for %s: %w", symbol, err)
	}
	return candle.Close, true, nil
}

// RecentCandles returns up to limit of the newest candles for a symbol,
// reordered oldest first for indicator calculations.
func (s *Store) RecentCandles(symbol string, limit int) ([]models.Candle, error) {
	var candles []models.Candle
	err := s.db.Where("symbol = ?", symbol).
		Order("timestamp desc").Limit(limit).Find(&candles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load candles for %s: %w", symbol, err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// ClearAll destructively deletes trades, positions, equity history, the
// account row, and cached candles.
func (s *Store) ClearAll() error {
	for _, model := range []interface{}{
		&models.Trade{},
		&models.Position{},
		&models.EquitySnapshot{},
		&models.Account{},
		&models.Candle{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}
	}
	return nil
}
