package domain

import "time"

// Rate is one persisted exchange rate observation for a currency pair.
type Rate struct {
	ID        int64
	From      Currency
	To        Currency
	Rate      float64
	Timestamp time.Time
}
