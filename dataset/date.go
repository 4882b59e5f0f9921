package dataset

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05.999999999"
)

// ParseDate parses a date-like string in any of the common layouts.
// Ambiguous numeric dates are read month first. Values without a zone are taken as UTC;
// values with one keep their own wall clock, so the calendar date is never shifted.
// A blank or unparsable value returns nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
