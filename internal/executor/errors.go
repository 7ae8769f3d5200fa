package executor

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount rejects orders for a zero or negative amount.
var ErrInvalidAmount = errors.New("trade amount must be positive")

// IsRejection reports whether err is a business-rule rejection rather
// than an infrastructure failure. Rejections are expected outcomes and
// never mutate the ledger; anything else (storage errors) is fatal.
func IsRejection(err error) bool {
	if errors.Is(err, ErrInvalidAmount) {
		return true
	}
	var (
		noPrice     *NoPriceDataError
		noBalance   *InsufficientBalanceError
		noPosition  *NoPositionError
		lowPosition *InsufficientPositionError
	)
	return errors.As(err, &noPrice) ||
		errors.As(err, &noBalance) ||
		errors.As(err, &noPosition) ||
		errors.As(err, &lowPosition)
}

// NoPriceDataError rejects orders when the oracle has never observed a
// price for the symbol.
type NoPriceDataError struct {
	Symbol string
}

func (e *NoPriceDataError) Error() string {
	return fmt.Sprintf("no price data available for %s", e.Symbol)
}

// InsufficientBalanceError rejects buys the account cannot cover,
// reporting the shortfall.
type InsufficientBalanceError struct {
	Available float64
	Required  float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %.2f, need %.2f", e.Available, e.Required)
}

// NoPositionError rejects sells of a symbol with no open position.
type NoPositionError struct {
	Symbol string
}

func (e *NoPositionError) Error() string {
	return fmt.Sprintf("no position in %s", e.Symbol)
}

// InsufficientPositionError rejects sells larger than the held amount.
type InsufficientPositionError struct {
	Symbol    string
	Held      float64
	Requested float64
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient %s position: have %.6f, want to sell %.6f",
		e.Symbol, e.Held, e.Requested)
}
