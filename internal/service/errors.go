package service

import "errors"

var (
	// ErrNotFound also covers entities the caller is not a party to.
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDepositCapExceeded = errors.New("deposit exceeds 25% of outstanding unpaid jobs")
)
