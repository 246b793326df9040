package shared

import (
	"strconv"
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD. Dates dominate this API's
// payloads (week starts, leave ranges, entry dates), so both forms are
// tolerated everywhere.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// ParseClock converts a 24-hour "HH:MM" punch into minutes since midnight.
func ParseClock(value string) (int, bool) {
	hh, mm, ok := strings.Cut(value, ":")
	if !ok {
		return 0, false
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 || len(mm) != 2 {
		return 0, false
	}
	return hours*60 + minutes, true
}
