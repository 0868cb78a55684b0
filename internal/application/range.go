package application

import (
	"fmt"
	"time"

	"westrates-service/internal/domain"
)

// Named ranges map to day offsets relative to the current date.
var namedRangeDays = map[string]int{
	"today":   0,
	"week":    7,
	"month":   30,
	"3months": 90,
	"6months": 180,
	"year":    365,
}

// NamedRanges returns the recognized range names.
func NamedRanges() []string {
	return []string{"today", "week", "month", "3months", "6months", "year"}
}

// ResolveNamed translates a named range into a concrete inclusive window
// ending today: start = today - offset days, end = today. The current day
// is taken in loc so the window agrees with observation timestamps; a nil
// loc keeps now's own location.
func ResolveNamed(name string, now time.Time, loc *time.Location) (domain.DateRange, error) {
	days, ok := namedRangeDays[name]
	if !ok {
		return domain.DateRange{}, fmt.Errorf("%w: unknown range %q", ErrValidation, name)
	}
	if loc != nil {
		now = now.In(loc)
	}
	return domain.NewDateRange(now.AddDate(0, 0, -days), now)
}
