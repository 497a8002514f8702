// utils/dates.go
package utils

import "time"

const DateLayout = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func BeginningOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// ParseDateRange parses optional YYYY-MM-DD bounds into a half-open
// [from, to) interval. The "to" day is inclusive, so the bound is the next midnight.
func ParseDateRange(from, to string) (start, end *time.Time, err error) {
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, time.Local)
		if err != nil {
			return nil, nil, err
		}
		t = BeginningOfDay(t)
		start = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, time.Local)
		if err != nil {
			return nil, nil, err
		}
		t = BeginningOfDay(t).AddDate(0, 0, 1)
		end = &t
	}
	return start, end, nil
}
