// Package timewindow parses flexible time-of-day strings and decides
// whether a minute of the day falls inside a (possibly midnight-wrapping)
// window. This is the only implementation of the wrap rule in the
// repository; every call site goes through InWindow.
package timewindow

import (
	"strconv"
	"strings"
)

// Invalid is the sentinel returned for unparseable time strings. A window
// with an invalid endpoint never matches.
const Invalid = -1

const minutesPerDay = 24 * 60

// ParseMinuteOfDay parses "H:MM"/"HH:MM", or a compact numeral where the
// last two digits are minutes and the remainder is hours ("930" -> 9:30,
// "1700" -> 17:00, "9" -> 9:00). Returns Invalid on any parse failure.
func ParseMinuteOfDay(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid
	}

	if h, m, ok := strings.Cut(s, ":"); ok {
		return minute(atoi(h), atoi(m))
	}

	if !digitsOnly(s) {
		return Invalid
	}
	switch {
	case len(s) <= 2:
		return minute(atoi(s), 0)
	case len(s) <= 4:
		cut := len(s) - 2
		return minute(atoi(s[:cut]), atoi(s[cut:]))
	default:
		return Invalid
	}
}

// InWindow reports whether now (a minute of the day) is inside the window
// [start, end]. Both ends are inclusive. When start > end the window spans
// midnight (e.g. 22:00-02:00): now >= start OR now <= end.
func InWindow(startStr, endStr string, now int) bool {
	start := ParseMinuteOfDay(startStr)
	end := ParseMinuteOfDay(endStr)
	if start == Invalid || end == Invalid {
		return false
	}
	if now < 0 || now >= minutesPerDay {
		return false
	}
	if start <= end {
		return now >= start && now <= end
	}
	return now >= start || now <= end
}

func minute(h, m int) int {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Invalid
	}
	return h*60 + m
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Invalid
	}
	return n
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
