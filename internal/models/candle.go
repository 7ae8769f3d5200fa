package models

import "gorm.io/gorm"

// Candle is a cached OHLCV candlestick fetched from the exchange. The
// latest close per symbol doubles as the mark price for equity valuation.
type Candle struct {
	gorm.Model `json:"-"`
	Symbol     string  `gorm:"uniqueIndex:idx_symbol_ts;not null" json:"symbol"`
	Timestamp  int64   `gorm:"uniqueIndex:idx_symbol_ts;not null" json:"timestamp"` // unix ms
	Open       float64 `gorm:"not null" json:"open"`
	High       float64 `gorm:"not null" json:"high"`
	Low        float64 `gorm:"not null" json:"low"`
	Close      float64 `gorm:"not null" json:"close"`
	Volume     float64 `gorm:"not null" json:"volume"`
}
