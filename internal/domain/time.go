package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the human-readable timestamp format used in messages and seed files.
const TimeLayout = "2006-01-02 15:04:05"

// ParseTime accepts RFC 3339 or TimeLayout (interpreted as UTC).
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: want RFC 3339 or %q", s, TimeLayout)
	}
	return t, nil
}
