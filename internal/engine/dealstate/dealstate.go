// Package dealstate classifies a deal window against a reference instant.
// The reference instant is caller-supplied civil time: the engine never
// reads a clock and bakes in no timezone policy, so identical inputs always
// produce identical output.
package dealstate

import (
	"time"

	"github.com/dealmapper/happyhour/internal/core/model"
	"github.com/dealmapper/happyhour/internal/engine/dayspec"
	"github.com/dealmapper/happyhour/internal/engine/timewindow"
)

// A deal is Upcoming when its start is in (0, upcomingHorizonMin] minutes
// from now on the same day. Starting exactly now is Active territory, not
// Upcoming; starting exactly 60 minutes out still counts.
const upcomingHorizonMin = 60

// Classify returns the deal's state at ref. States are recomputed on every
// call; nothing is cached or persisted.
func Classify(w model.DealWindow, ref time.Time) model.DealState {
	now := ref.Hour()*60 + ref.Minute()

	if dayspec.DayIncluded(w.Days, ref.Weekday()) {
		if timewindow.InWindow(w.Start, w.End, now) {
			return model.StateActive
		}
		if start := timewindow.ParseMinuteOfDay(w.Start); start != timewindow.Invalid {
			if ahead := start - now; ahead > 0 && ahead <= upcomingHorizonMin {
				return model.StateUpcoming
			}
		}
	}

	// calendar-day increment handles month and year rollover
	tomorrow := ref.AddDate(0, 0, 1).Weekday()
	if dayspec.DayIncluded(w.Days, tomorrow) {
		return model.StateFuture
	}
	return model.StateInactive
}
