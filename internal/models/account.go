package models

// Account is the single paper-trading account state. There is exactly one
// row in this table (ID = 1); it is created at the starting balance and
// rewritten on every executed trade.
type Account struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	CashBalance float64 `gorm:"not null" json:"cash_balance"`
	TotalEquity float64 `gorm:"not null" json:"total_equity"`
	LastUpdated int64   `gorm:"not null" json:"last_updated"` // unix ms
}

// AccountID is the primary key of the singleton account row.
const AccountID uint = 1
