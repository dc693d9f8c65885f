package service

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DayBounds returns local midnight of t's day and the following midnight.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// ParseDateRange turns two inclusive calendar dates into a half-open [from, to) window.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, validationf("startDate and endDate are required")
	}
	from, err := dateparse.ParseLocal(start)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("Invalid startDate %q", start)
	}
	to, err := dateparse.ParseLocal(end)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("Invalid endDate %q", end)
	}

	from, _ = DayBounds(from)
	_, to = DayBounds(to)
	if !from.Before(to) {
		return time.Time{}, time.Time{}, validationf("endDate must not be before startDate")
	}
	return from, to, nil
}
