package proximity

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/dealmapper/happyhour/internal/core/model"
)

var sgCenter = model.Coordinate{Lat: 1.3521, Lon: 103.8198}

// wednesday returns a reference instant on Wednesday 2026-08-26.
func wednesday(hour, minute int) time.Time {
	return time.Date(2026, 8, 26, hour, minute, 0, 0, time.UTC)
}

func candidate(name string, coord *model.Coordinate, days, start, end string) model.CandidateDeal {
	return model.CandidateDeal{
		Establishment: coord,
		Window:        model.DealWindow{Days: days, Start: start, End: end},
		Payload:       name,
	}
}

func TestQuery_EndToEndScenario(t *testing.T) {
	cands := []model.CandidateDeal{
		candidate("happy-hour", &sgCenter, "Weekdays", "17:00", "20:00"),
	}

	// Wednesday 18:00: active at distance ~0
	res, err := Query(sgCenter, 1, wednesday(18, 0), cands)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Active) != 1 || len(res.Upcoming) != 0 || len(res.Future) != 0 {
		t.Fatalf("unexpected buckets: %+v", res)
	}
	if res.Active[0].DistanceKm > 0.001 {
		t.Fatalf("distance = %v, want ~0", res.Active[0].DistanceKm)
	}

	// Wednesday 21:30: window over for today, but Thursday is a weekday
	res, err = Query(sgCenter, 1, wednesday(21, 30), cands)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Active) != 0 || len(res.Upcoming) != 0 {
		t.Fatalf("unexpected active/upcoming at 21:30: %+v", res)
	}
	if len(res.Future) != 1 {
		t.Fatalf("deal should land in the future bucket at 21:30: %+v", res)
	}
}

func TestQuery_RadiusFilterAndMissingCoordinate(t *testing.T) {
	far := model.Coordinate{Lat: sgCenter.Lat + 0.45, Lon: sgCenter.Lon} // ~50 km
	cands := []model.CandidateDeal{
		candidate("near", &sgCenter, "daily", "00:00", "23:59"),
		candidate("far", &far, "daily", "00:00", "23:59"),
		candidate("nowhere", nil, "daily", "00:00", "23:59"),
	}
	res, err := Query(sgCenter, 10, wednesday(12, 0), cands)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Active) != 1 || res.Active[0].Payload != "near" {
		t.Fatalf("only the near candidate should survive, got %+v", res.Active)
	}
}

func TestQuery_SortsByDistanceWithTieBreak(t *testing.T) {
	a := model.Coordinate{Lat: 1.3600, Lon: 103.8198}
	b := model.Coordinate{Lat: 1.3540, Lon: 103.8198}
	cands := []model.CandidateDeal{
		candidate("farther", &a, "daily", "00:00", "23:59"),
		candidate("zzz-near", &sgCenter, "daily", "00:00", "23:59"),
		candidate("aaa-near", &sgCenter, "daily", "00:00", "23:59"),
		candidate("closer", &b, "daily", "00:00", "23:59"),
	}
	res, err := Query(sgCenter, 5, wednesday(12, 0), cands,
		WithTieBreak(func(x, y any) bool { return x.(string) < y.(string) }))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	got := make([]string, 0, len(res.Active))
	for _, it := range res.Active {
		got = append(got, it.Payload.(string))
	}
	want := []string{"aaa-near", "zzz-near", "closer", "farther"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestQuery_BucketLimitAppliedAfterSort(t *testing.T) {
	near := model.Coordinate{Lat: 1.3525, Lon: 103.8198}
	farther := model.Coordinate{Lat: 1.3700, Lon: 103.8198}
	cands := []model.CandidateDeal{
		candidate("farther", &farther, "daily", "00:00", "23:59"),
		candidate("near", &near, "daily", "00:00", "23:59"),
	}
	res, err := Query(sgCenter, 10, wednesday(12, 0), cands, WithBucketLimit(1))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Active) != 1 || res.Active[0].Payload != "near" {
		t.Fatalf("limit must keep the closest entry, got %+v", res.Active)
	}
}

func TestQuery_InvalidPointAndRadius(t *testing.T) {
	if _, err := Query(model.Coordinate{Lat: math.NaN(), Lon: 0}, 1, wednesday(12, 0), nil); err == nil {
		t.Fatalf("NaN point must be rejected")
	}
	if _, err := Query(model.Coordinate{Lat: 91, Lon: 0}, 1, wednesday(12, 0), nil); err == nil {
		t.Fatalf("out-of-range latitude must be rejected")
	}
	if _, err := Query(sgCenter, 0, wednesday(12, 0), nil); err == nil {
		t.Fatalf("non-positive radius must be rejected")
	}
	if _, err := Query(sgCenter, math.NaN(), wednesday(12, 0), nil); err == nil {
		t.Fatalf("NaN radius must be rejected")
	}
}

func TestQuery_EmptyCandidatesIsNotAnError(t *testing.T) {
	res, err := Query(sgCenter, 1, wednesday(12, 0), nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Active)+len(res.Upcoming)+len(res.Future) != 0 {
		t.Fatalf("expected empty buckets, got %+v", res)
	}
}

func TestQuery_Idempotent(t *testing.T) {
	cands := []model.CandidateDeal{
		candidate("a", &sgCenter, "Weekdays", "17:00", "20:00"),
		candidate("b", &model.Coordinate{Lat: 1.3540, Lon: 103.8198}, "mon, wed", "16:00", "19:00"),
	}
	ref := wednesday(18, 0)
	first, err := Query(sgCenter, 5, ref, cands)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	second, err := Query(sgCenter, 5, ref, cands)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs must yield identical output:\n%+v\n%+v", first, second)
	}
}
