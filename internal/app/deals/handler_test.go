package deals

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealmapper/happyhour/internal/cache"
	"github.com/dealmapper/happyhour/internal/core/model"
	"github.com/dealmapper/happyhour/internal/geoindex"
	"github.com/dealmapper/happyhour/internal/store"
)

var (
	center  = model.Coordinate{Lat: 1.3521, Lon: 103.8198}
	farAway = model.Coordinate{Lat: 1.3521 + 0.9, Lon: 103.8198} // ~100 km north

	// Wednesday evening, inside a 17:00-19:00 window
	wedEvening = time.Date(2026, 8, 26, 18, 0, 0, 0, time.UTC)
)

type mapCache struct {
	puts int
	m    map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Put(_ context.Context, key, _ string, val []byte) {
	c.puts++
	c.m[key] = val
}

func (c *mapCache) InvalidateCells(context.Context, ...string) error { return nil }

func newHandler(t *testing.T, c cache.Interface) (*Handler, *store.MemStore) {
	t.Helper()
	s := store.NewMemStore()
	x, err := geoindex.New(9)
	if err != nil {
		t.Fatalf("geoindex.New: %v", err)
	}
	ctx := context.Background()

	near, _ := s.UpsertEstablishment(ctx, store.Establishment{ID: "est-near", Name: "Near Bar", Coord: &center})
	far, _ := s.UpsertEstablishment(ctx, store.Establishment{ID: "est-far", Name: "Far Bar", Coord: &farAway})
	_ = x.Add(near.ID, *near.Coord)
	_ = x.Add(far.ID, *far.Coord)

	_, _ = s.UpsertDeal(ctx, store.Deal{
		ID: "deal-near", EstablishmentID: near.ID, Name: "wings",
		Price: 8, Days: "daily", Start: "17:00", End: "19:00",
	})
	_, _ = s.UpsertDeal(ctx, store.Deal{
		ID: "deal-far", EstablishmentID: far.ID, Name: "nachos",
		Price: 5, Days: "daily", Start: "17:00", End: "19:00",
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, s, x, c), s
}

func nearbyReq() model.NearbyRequest {
	return model.NearbyRequest{Point: center, RadiusKm: 2, At: wedEvening, Limit: 50}
}

func decodeResult(t *testing.T, body []byte) model.QueryResult {
	t.Helper()
	var res model.QueryResult
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("decode result: %v (%s)", err, body)
	}
	return res
}

func TestHandleNearby_ActiveWithinRadius(t *testing.T) {
	h, _ := newHandler(t, cache.Nop{})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/deals/nearby", nil)
	h.HandleNearby(r.Context(), rec, r, nearbyReq())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Cache"); got != "miss" {
		t.Fatalf("X-Cache = %q, want miss", got)
	}

	res := decodeResult(t, rec.Body.Bytes())
	if len(res.Active) != 1 {
		t.Fatalf("active = %+v, want exactly the near deal", res.Active)
	}
	if res.Active[0].DistanceKm > 0.01 {
		t.Fatalf("distance = %v, want ~0", res.Active[0].DistanceKm)
	}
	if len(res.Upcoming) != 0 || len(res.Future) != 0 {
		t.Fatalf("unexpected extra buckets: %+v", res)
	}
}

func TestHandleNearby_CacheRoundTrip(t *testing.T) {
	mc := newMapCache()
	h, _ := newHandler(t, mc)
	r := httptest.NewRequest(http.MethodGet, "/deals/nearby", nil)

	rec1 := httptest.NewRecorder()
	h.HandleNearby(r.Context(), rec1, r, nearbyReq())
	if rec1.Header().Get("X-Cache") != "miss" || mc.puts != 1 {
		t.Fatalf("first call must miss and memoize (puts=%d)", mc.puts)
	}

	rec2 := httptest.NewRecorder()
	h.HandleNearby(r.Context(), rec2, r, nearbyReq())
	if rec2.Header().Get("X-Cache") != "hit" {
		t.Fatalf("second identical query must be served from cache")
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("cached body differs from computed body")
	}

	// a different reference minute is a different key
	q := nearbyReq()
	q.At = q.At.Add(time.Minute)
	rec3 := httptest.NewRecorder()
	h.HandleNearby(r.Context(), rec3, r, q)
	if rec3.Header().Get("X-Cache") != "miss" {
		t.Fatalf("shifted reference minute must not reuse the cached entry")
	}
}

func TestHandleNearby_NearbyPointsDoNotShareBodies(t *testing.T) {
	mc := newMapCache()
	h, _ := newHandler(t, mc)
	r := httptest.NewRequest(http.MethodGet, "/deals/nearby", nil)

	rec1 := httptest.NewRecorder()
	h.HandleNearby(r.Context(), rec1, r, nearbyReq())

	// ~100 m away, almost certainly the same res-9 cell: distances differ,
	// so the memoized body must not be reused
	q := nearbyReq()
	q.Point = model.Coordinate{Lat: center.Lat + 0.001, Lon: center.Lon}
	rec2 := httptest.NewRecorder()
	h.HandleNearby(r.Context(), rec2, r, q)

	if rec2.Header().Get("X-Cache") != "miss" {
		t.Fatalf("a different query point must not hit the first point's entry")
	}
	d1 := decodeResult(t, rec1.Body.Bytes())
	d2 := decodeResult(t, rec2.Body.Bytes())
	if len(d1.Active) != 1 || len(d2.Active) != 1 {
		t.Fatalf("both queries should see the near deal: %+v / %+v", d1, d2)
	}
	if d1.Active[0].DistanceKm == d2.Active[0].DistanceKm {
		t.Fatalf("distances from distinct points should differ")
	}
}

func TestHandleEstablishmentDeals_Listing(t *testing.T) {
	h, s := newHandler(t, cache.Nop{})
	ctx := context.Background()

	// Monday-only deal is inactive on a Wednesday, but still listed
	_, _ = s.UpsertDeal(ctx, store.Deal{
		ID: "deal-mon", EstablishmentID: "est-near", Name: "monday brew",
		Days: "mon", Start: "17:00", End: "19:00",
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/establishments/est-near/deals", nil)
	h.HandleEstablishmentDeals(r.Context(), rec, r, "est-near", wedEvening)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out dealListing
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Establishment.ID != "est-near" || len(out.Deals) != 2 {
		t.Fatalf("listing = %+v", out)
	}
	states := map[string]string{}
	for _, d := range out.Deals {
		states[d.ID] = d.State
	}
	if states["deal-near"] != "active" || states["deal-mon"] != "inactive" {
		t.Fatalf("states = %v", states)
	}
}

func TestHandleEstablishmentDeals_NotFound(t *testing.T) {
	h, _ := newHandler(t, cache.Nop{})
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/establishments/ghost/deals", nil)
	h.HandleEstablishmentDeals(r.Context(), rec, r, "ghost", wedEvening)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReady(t *testing.T) {
	h, _ := newHandler(t, cache.Nop{})
	if !h.Ready() {
		t.Fatalf("handler with store and index must be ready")
	}
	if (&Handler{}).Ready() {
		t.Fatalf("empty handler must not be ready")
	}
}
