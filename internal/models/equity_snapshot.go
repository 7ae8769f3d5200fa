package models

import "gorm.io/gorm"

// EquitySnapshot is one point on the equity curve, appended after every
// engine tick. Never mutated; only a full reset clears the history.
type EquitySnapshot struct {
	gorm.Model `json:"-"`
	Timestamp  int64   `gorm:"index;not null" json:"timestamp"` // unix ms
	Equity     float64 `gorm:"not null" json:"equity"`
}
