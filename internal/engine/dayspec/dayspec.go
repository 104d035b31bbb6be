// Package dayspec interprets free-text day-of-week specifications from
// imported deal data. Encodings vary between rows, so specs are evaluated
// on demand against an ordered chain of matchers instead of being
// normalized into one canonical form.
package dayspec

import (
	"strings"
	"time"
)

// canonical week order used by ranges: mon..sun
var abbrIndex = map[string]int{
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

var fullIndex = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

// matcher reports whether it handled the spec and, if so, whether the day
// is included. The first matcher that handles a spec wins.
type matcher func(spec string, day int) (handled, included bool)

var chain = []matcher{matchKeyword, matchList, matchRange, matchSingle}

// DayIncluded reports whether day is covered by spec. Unparseable or empty
// specs match no day; bad data must not abort a batch query.
func DayIncluded(spec string, day time.Weekday) bool {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" {
		return false
	}
	d := weekIndex(day)
	for _, m := range chain {
		if handled, included := m(s, d); handled {
			return included
		}
	}
	return false
}

// weekIndex maps time.Weekday (Sunday=0) onto the mon..sun order.
func weekIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func matchKeyword(spec string, day int) (bool, bool) {
	switch spec {
	case "all days", "daily", "everyday":
		return true, true
	case "weekdays":
		return true, day <= 4
	case "weekends":
		return true, day >= 5
	}
	return false, false
}

func matchList(spec string, day int) (bool, bool) {
	if !strings.Contains(spec, ",") {
		return false, false
	}
	for _, tok := range strings.Split(spec, ",") {
		idx, ok := dayIndex(strings.TrimSpace(tok))
		if !ok {
			continue // unrecognized tokens are ignored, not errors
		}
		if idx == day {
			return true, true
		}
	}
	return true, false
}

func matchRange(spec string, day int) (bool, bool) {
	if !strings.Contains(spec, "-") {
		return false, false
	}
	parts := strings.SplitN(spec, "-", 2)
	lo, okLo := abbrIndex[strings.TrimSpace(parts[0])]
	hi, okHi := abbrIndex[strings.TrimSpace(parts[1])]
	if !okLo || !okHi {
		// unrecognized endpoint makes the range empty, never an error
		return true, false
	}
	if lo <= hi {
		return true, day >= lo && day <= hi
	}
	// start after end wraps across the week boundary, e.g. fri-mon
	return true, day >= lo || day <= hi
}

func matchSingle(spec string, day int) (bool, bool) {
	if idx, ok := dayIndex(spec); ok {
		return true, idx == day
	}
	return false, false
}

func dayIndex(tok string) (int, bool) {
	if idx, ok := abbrIndex[tok]; ok {
		return idx, true
	}
	if idx, ok := fullIndex[tok]; ok {
		return idx, true
	}
	return 0, false
}
