package ledger

import "errors"

// Validation failures. A failed PlaceOrder leaves balance and history untouched.
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidSide       = errors.New("invalid order side")
	ErrNoPriceData       = errors.New("no price data for symbol")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
