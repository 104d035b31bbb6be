package geo

import (
	"math"
	"testing"

	"github.com/dealmapper/happyhour/internal/core/model"
)

// Singapore city center, used as a known fixture throughout the suite.
var sgCenter = model.Coordinate{Lat: 1.3521, Lon: 103.8198}

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	if d := DistanceKm(sgCenter, sgCenter); d != 0 {
		t.Fatalf("DistanceKm(a,a) = %v, want 0", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]model.Coordinate{
		{sgCenter, {Lat: 1.3000, Lon: 103.8000}},
		{{Lat: 59.3293, Lon: 18.0686}, {Lat: 57.7089, Lon: 11.9746}},
		{{Lat: -33.8688, Lon: 151.2093}, {Lat: 51.5074, Lon: -0.1278}},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1])
		ba := DistanceKm(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("asymmetric distance: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Stockholm to Gothenburg is roughly 398 km great-circle.
	sthlm := model.Coordinate{Lat: 59.3293, Lon: 18.0686}
	gbg := model.Coordinate{Lat: 57.7089, Lon: 11.9746}
	d := DistanceKm(sthlm, gbg)
	if d < 390 || d > 410 {
		t.Fatalf("Stockholm-Gothenburg distance = %v km, want ~398", d)
	}
}

func TestWithinRadius_Fixture(t *testing.T) {
	if !WithinRadius(sgCenter, sgCenter, 0.1) {
		t.Fatalf("point should be within 0.1 km of itself")
	}
	// ~50 km north of the fixture point
	far := model.Coordinate{Lat: sgCenter.Lat + 0.45, Lon: sgCenter.Lon}
	if WithinRadius(sgCenter, far, 10) {
		t.Fatalf("point ~50 km away must not be within 10 km")
	}
}

func TestWithinRadius_NaNNeverMatches(t *testing.T) {
	nan := math.NaN()
	bad := []model.Coordinate{
		{Lat: nan, Lon: 103.8},
		{Lat: 1.35, Lon: nan},
		{Lat: nan, Lon: nan},
	}
	for _, b := range bad {
		if WithinRadius(sgCenter, b, 1e9) {
			t.Fatalf("NaN coordinate %+v must never satisfy the radius test", b)
		}
		if WithinRadius(b, sgCenter, 1e9) {
			t.Fatalf("NaN query point %+v must never satisfy the radius test", b)
		}
	}
	if WithinRadius(sgCenter, sgCenter, nan) {
		t.Fatalf("NaN radius must never satisfy the radius test")
	}
}
