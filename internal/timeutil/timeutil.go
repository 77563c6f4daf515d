// ABOUTME: Calendar-date helpers for the rolling day window
// ABOUTME: Computes day keys, visible windows, and display labels in local time

package timeutil

import (
	"fmt"
	"time"
)

// DayKeyLayout is the canonical, locale-independent day key format.
const DayKeyLayout = "2006-01-02"

// DefaultWindowSize is the number of days shown in the rolling window.
const DefaultWindowSize = 7

// DayKey returns the canonical day key for t's calendar date in t's location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a day key into midnight of that date in loc.
// A nil loc means time.Local.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// ValidDayKey reports whether key is a well-formed canonical day key.
func ValidDayKey(key string) bool {
	t, err := time.Parse(DayKeyLayout, key)
	if err != nil {
		return false
	}
	// Reject non-canonical spellings that Parse tolerates.
	return t.Format(DayKeyLayout) == key
}

// VisibleDayKeys returns size consecutive day keys ending at ref's calendar
// date, newest first. Days are stepped with calendar arithmetic on the date
// fields rather than by subtracting 24h, so a DST change never skips or
// repeats a date.
func VisibleDayKeys(ref time.Time, size int) []string {
	if size <= 0 {
		return []string{}
	}
	y, m, d := ref.Date()
	keys := make([]string, 0, size)
	for i := 0; i < size; i++ {
		// Noon keeps the instant well away from any DST gap at midnight.
		day := time.Date(y, m, d-i, 12, 0, 0, 0, ref.Location())
		keys = append(keys, DayKey(day))
	}
	return keys
}

// DisplayLabel renders a day key as a short label such as "Mon 2 Jan".
// Keys that fail to parse are returned unchanged.
func DisplayLabel(key string) string {
	t, err := time.Parse(DayKeyLayout, key)
	if err != nil {
		return key
	}
	return t.Format("Mon 2 Jan")
}

// IsToday reports whether key names now's calendar date.
func IsToday(key string, now time.Time) bool {
	return key == DayKey(now)
}

// ParsePeriod converts a period string to a window size in days.
// Supported values: "today", "week", "fortnight", "month"
func ParsePeriod(period string) (int, bool) {
	switch period {
	case "today":
		return 1, true
	case "week":
		return DefaultWindowSize, true
	case "fortnight":
		return 14, true
	case "month":
		return 31, true
	default:
		return 0, false
	}
}
