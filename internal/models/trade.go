package models

import "gorm.io/gorm"

const (
	TradeSideBuy  = "buy"
	TradeSideSell = "sell"
)

// Trade is one executed simulated order. Rows are append-only; Pnl is the
// fee-adjusted realized profit for sells and always zero for buys.
type Trade struct {
	gorm.Model `json:"-"`
	Symbol     string  `gorm:"index;not null" json:"symbol"`
	Side       string  `gorm:"not null" json:"side"`
	Amount     float64 `gorm:"not null" json:"amount"`
	Price      float64 `gorm:"not null" json:"price"`
	Fee        float64 `gorm:"not null" json:"fee"`
	Timestamp  int64   `gorm:"index;not null" json:"timestamp"` // unix ms
	Pnl        float64 `gorm:"default:0" json:"pnl"`
}
