package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidRange        = errors.New("invalid date range")
)
