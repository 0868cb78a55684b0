package domain

import "time"

// DateRange is an inclusive calendar-day window: Start is the first
// second of its day, End the last second of its day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	s := DayStart(start)
	e := DayEnd(end)
	if s.After(e) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: s, End: e}, nil
}

func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
