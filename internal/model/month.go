package model

import (
	"fmt"
	"time"
)

// MonthOf truncates t to the first day of its month in UTC.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the first day of the month following m. Together with
// MonthOf it forms the half-open window [month, month+1) used for all
// month-scoped queries.
func NextMonth(m time.Time) time.Time {
	return MonthOf(m).AddDate(0, 1, 0)
}

// ParseMonth parses "2006-01" or "2006-01-02" into a first-of-month date.
func ParseMonth(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
}
