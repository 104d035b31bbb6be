package dealstate

import (
	"testing"
	"time"

	"github.com/dealmapper/happyhour/internal/core/model"
)

// at builds a reference instant on a given weekday in a fixed week.
// 2026-08-24 is a Monday.
func at(day time.Weekday, hour, minute int) time.Time {
	base := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	offset := (int(day) - int(time.Monday) + 7) % 7
	return base.AddDate(0, 0, offset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

var weekdayEvening = model.DealWindow{Days: "Weekdays", Start: "17:00", End: "20:00"}

func TestClassify_Active(t *testing.T) {
	if got := Classify(weekdayEvening, at(time.Wednesday, 18, 0)); got != model.StateActive {
		t.Fatalf("Wednesday 18:00 = %v, want active", got)
	}
	// boundaries are inclusive
	if got := Classify(weekdayEvening, at(time.Wednesday, 20, 0)); got != model.StateActive {
		t.Fatalf("Wednesday 20:00 = %v, want active", got)
	}
}

func TestClassify_UpcomingSameDayOnly(t *testing.T) {
	if got := Classify(weekdayEvening, at(time.Friday, 16, 59)); got != model.StateUpcoming {
		t.Fatalf("Friday 16:59 = %v, want upcoming (starts in 1 minute)", got)
	}
	// horizon is (0,60]: exactly 60 minutes ahead still counts
	if got := Classify(weekdayEvening, at(time.Friday, 16, 0)); got != model.StateUpcoming {
		t.Fatalf("Friday 16:00 = %v, want upcoming (starts in exactly 60 minutes)", got)
	}
	if got := Classify(weekdayEvening, at(time.Friday, 15, 59)); got == model.StateUpcoming {
		t.Fatalf("Friday 15:59 must not be upcoming (61 minutes ahead)")
	}
}

func TestClassify_FutureChecksTomorrow(t *testing.T) {
	// Wednesday 21:30: window over for today, Thursday is still a weekday.
	if got := Classify(weekdayEvening, at(time.Wednesday, 21, 30)); got != model.StateFuture {
		t.Fatalf("Wednesday 21:30 = %v, want future", got)
	}
	// Sunday evening: Monday is a weekday, so a weekday deal is future.
	if got := Classify(weekdayEvening, at(time.Sunday, 23, 0)); got != model.StateFuture {
		t.Fatalf("Sunday 23:00 = %v, want future", got)
	}
}

func TestClassify_Inactive(t *testing.T) {
	// Friday 21:30: window over, tomorrow is Saturday which is not a weekday.
	if got := Classify(weekdayEvening, at(time.Friday, 21, 30)); got != model.StateInactive {
		t.Fatalf("Friday 21:30 = %v, want inactive", got)
	}
	satOnly := model.DealWindow{Days: "sat", Start: "12:00", End: "14:00"}
	if got := Classify(satOnly, at(time.Monday, 12, 30)); got != model.StateInactive {
		t.Fatalf("Monday vs sat-only deal = %v, want inactive", got)
	}
}

func TestClassify_MidnightWrapWindow(t *testing.T) {
	lateNight := model.DealWindow{Days: "daily", Start: "22:00", End: "02:00"}
	if got := Classify(lateNight, at(time.Tuesday, 23, 30)); got != model.StateActive {
		t.Fatalf("23:30 in a 22:00-02:00 window = %v, want active", got)
	}
	if got := Classify(lateNight, at(time.Wednesday, 1, 0)); got != model.StateActive {
		t.Fatalf("01:00 in a 22:00-02:00 window = %v, want active", got)
	}
}

func TestClassify_UnparseableScheduleIsInactive(t *testing.T) {
	broken := []model.DealWindow{
		{Days: "", Start: "17:00", End: "19:00"},
		{Days: "someday", Start: "17:00", End: "19:00"},
		{Days: "daily", Start: "??", End: "19:00"},
	}
	for _, w := range broken {
		got := Classify(w, at(time.Wednesday, 18, 0))
		switch w.Days {
		case "daily":
			// day matches daily, but the broken window never activates;
			// tomorrow also matches daily so it lands in future
			if got == model.StateActive {
				t.Fatalf("broken time window must not be active: %+v", w)
			}
		default:
			if got != model.StateInactive {
				t.Fatalf("unparseable schedule %+v = %v, want inactive", w, got)
			}
		}
	}
}

func TestClassify_MonthRollover(t *testing.T) {
	// 2026-08-31 is a Monday; tomorrow is Tuesday Sep 1.
	ref := time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC)
	tueOnly := model.DealWindow{Days: "tue", Start: "17:00", End: "20:00"}
	if got := Classify(tueOnly, ref); got != model.StateFuture {
		t.Fatalf("month rollover: got %v, want future", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	ref := at(time.Thursday, 17, 30)
	first := Classify(weekdayEvening, ref)
	for i := 0; i < 5; i++ {
		if got := Classify(weekdayEvening, ref); got != first {
			t.Fatalf("classification must be deterministic, got %v then %v", first, got)
		}
	}
}
