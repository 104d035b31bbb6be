// Package model defines core domain types shared across the service.
package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate rejects NaN and out-of-range values; nothing is clamped.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return fmt.Errorf("%w: NaN", ErrInvalidCoordinate)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v not in [-90,90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v not in [-180,180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// DealWindow is the (day spec, start, end) triple a deal is eligible in.
// The strings come from upstream data as-is and are interpreted on demand;
// there is no canonical normalized form.
type DealWindow struct {
	Days  string `json:"days"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type DealState int

const (
	StateInactive DealState = iota
	StateActive
	StateUpcoming
	StateFuture
)

func (s DealState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateUpcoming:
		return "upcoming"
	case StateFuture:
		return "future"
	default:
		return "inactive"
	}
}

// CandidateDeal bundles a deal window with its establishment's coordinate.
// Payload is carried through untouched so callers can attach record data
// without the engine knowing its shape. A nil Establishment means the
// coordinate is missing upstream; such candidates never pass the radius test.
type CandidateDeal struct {
	Establishment *Coordinate
	Window        DealWindow
	Payload       any
}

// ProximityItem is one per-query result entry.
type ProximityItem struct {
	Payload    any     `json:"payload"`
	DistanceKm float64 `json:"distance_km"`
}

// QueryResult holds the ordered buckets returned by a nearby query.
// Inactive deals are dropped here; they remain a valid classifier output
// for non-geo call sites.
type QueryResult struct {
	Active   []ProximityItem `json:"active"`
	Upcoming []ProximityItem `json:"upcoming"`
	Future   []ProximityItem `json:"future"`
}

// NearbyRequest is a validated /deals/nearby query. At is the reference
// instant already converted to the civil time the business considers
// canonical; the engine itself never reads a clock.
type NearbyRequest struct {
	Point    Coordinate
	RadiusKm float64
	At       time.Time
	Limit    int
}
