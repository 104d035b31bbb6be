// Package proximity filters and ranks candidate deals around a query point.
// It is a pure transformation: no I/O, no clock, no shared state, safe for
// concurrent use.
package proximity

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dealmapper/happyhour/internal/core/model"
	"github.com/dealmapper/happyhour/internal/engine/dealstate"
	"github.com/dealmapper/happyhour/internal/engine/geo"
)

// Option configures a single Query call.
type Option func(*options)

type options struct {
	limit    int
	tieBreak func(a, b any) bool
}

// WithBucketLimit caps each bucket to at most n entries. Truncation happens
// after sorting. n <= 0 means unlimited.
func WithBucketLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithTieBreak supplies a secondary ordering over payloads for candidates
// at equal distance. Business tie-break rules belong to the caller, not
// the orchestrator.
func WithTieBreak(less func(a, b any) bool) Option {
	return func(o *options) { o.tieBreak = less }
}

// Query classifies every candidate within radiusKm of point against ref and
// returns the Active/Upcoming/Future buckets sorted ascending by distance.
// Inactive survivors are dropped. An invalid point or radius is a caller
// error; an empty candidate set is not.
func Query(point model.Coordinate, radiusKm float64, ref time.Time, candidates []model.CandidateDeal, opts ...Option) (model.QueryResult, error) {
	if err := point.Validate(); err != nil {
		return model.QueryResult{}, fmt.Errorf("query point: %w", err)
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return model.QueryResult{}, fmt.Errorf("radius must be a positive number of kilometers, got %v", radiusKm)
	}

	var o options
	for _, f := range opts {
		f(&o)
	}

	var active, upcoming, future []model.ProximityItem
	for _, c := range candidates {
		if c.Establishment == nil {
			continue // missing coordinate: excluded from radius-filtered results
		}
		if !geo.WithinRadius(point, *c.Establishment, radiusKm) {
			continue
		}
		item := model.ProximityItem{
			Payload:    c.Payload,
			DistanceKm: geo.DistanceKm(point, *c.Establishment),
		}
		switch dealstate.Classify(c.Window, ref) {
		case model.StateActive:
			active = append(active, item)
		case model.StateUpcoming:
			upcoming = append(upcoming, item)
		case model.StateFuture:
			future = append(future, item)
		}
	}

	return model.QueryResult{
		Active:   finishBucket(active, o),
		Upcoming: finishBucket(upcoming, o),
		Future:   finishBucket(future, o),
	}, nil
}

func finishBucket(items []model.ProximityItem, o options) []model.ProximityItem {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DistanceKm != items[j].DistanceKm {
			return items[i].DistanceKm < items[j].DistanceKm
		}
		if o.tieBreak != nil {
			return o.tieBreak(items[i].Payload, items[j].Payload)
		}
		return false
	})
	if o.limit > 0 && len(items) > o.limit {
		items = items[:o.limit]
	}
	return items
}
