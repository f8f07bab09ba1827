package util

import (
	"strconv"
	"strings"
	"time"
)

// Layouts seen in space-weather feeds. DONKI drops the seconds ("2024-05-10T06:27Z").
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime tries the known layouts and unix seconds. Results are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns def if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// DayRange returns the calendar dates (YYYY-MM-DD, UTC) spanning the last n days up to now.
func DayRange(now time.Time, days int) (start, end string) {
	now = now.UTC()
	return now.AddDate(0, 0, -days).Format("2006-01-02"), now.Format("2006-01-02")
}
