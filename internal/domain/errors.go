package domain

import "errors"

// Engine error taxonomy. Callers classify with errors.Is; adapters map
// these onto transport status codes. Ordinary business rejections on a
// live auction (a stale bid amount) are reported as a false result, not
// an error.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrOwnership         = errors.New("item does not belong to the seller")
	ErrUnavailable       = errors.New("item is not available")
	ErrSelfBid           = errors.New("seller cannot act on own auction")
	ErrBuyNowRequired    = errors.New("amount reaches the buy-now price, use buy-now")
	ErrInsufficientFunds = errors.New("insufficient credits")
)
