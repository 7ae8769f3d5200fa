package models

import "gorm.io/gorm"

// Position represents an open spot position in a single symbol.
// AvgEntryPrice is the quote-amount-weighted average price paid; it is
// recomputed on every buy and left untouched by partial sells.
type Position struct {
	gorm.Model    `json:"-"`
	Symbol        string  `gorm:"uniqueIndex;not null" json:"symbol"`
	Amount        float64 `gorm:"not null" json:"amount"`
	AvgEntryPrice float64 `gorm:"not null" json:"avg_entry_price"`
}

// PositionEpsilon is the dust threshold: positions at or below this amount
// are treated as closed and removed rather than stored near zero.
const PositionEpsilon = 1e-6
