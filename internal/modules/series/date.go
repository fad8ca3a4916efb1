package series

import "time"

// DateLayout is the fixed-width calendar date pattern used by the data files.
const DateLayout = "2006-01-02"

// minYear is the first supported year. Year 1 holds the zero time, which is
// the invalid sentinel, so 0001-01-01 could not be told apart from bad input.
const minYear = 2

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
// Malformed input and dates before year 0002 yield the zero time, which
// callers treat as invalid.
func ParseDate(s string) time.Time {
	if len(s) != len(DateLayout) {
		return time.Time{}
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil || t.Year() < minYear {
		return time.Time{}
	}
	return t
}

// IsValidDate reports whether t came from a successful ParseDate.
func IsValidDate(t time.Time) bool {
	return t.Year() >= minYear
}

// FormatDate formats a valid date as YYYY-MM-DD and returns "" for the invalid sentinel.
func FormatDate(t time.Time) string {
	if !IsValidDate(t) {
		return ""
	}
	return t.Format(DateLayout)
}
