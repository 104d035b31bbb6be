// Package geoindex buckets establishments into H3 cells so nearby queries
// only consider candidates from the cells covering the search radius. The
// index is a pre-filter: exact haversine membership is still decided by the
// engine.
package geoindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	h3 "github.com/uber/h3-go/v4"

	"github.com/dealmapper/happyhour/internal/core/model"
)

type Index struct {
	res int

	mu    sync.RWMutex
	cells map[string]map[string]struct{}
	byID  map[string]string
}

func New(res int) (*Index, error) {
	if res < 0 || res > 15 {
		return nil, fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return &Index{
		res:   res,
		cells: make(map[string]map[string]struct{}),
		byID:  make(map[string]string),
	}, nil
}

// CellFor returns the H3 cell of a coordinate at the index resolution.
func (x *Index) CellFor(c model.Coordinate) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lon}, x.res)
	if err != nil {
		return "", fmt.Errorf("h3 cell for (%v,%v): %w", c.Lat, c.Lon, err)
	}
	return cell.String(), nil
}

// Add indexes an establishment at its coordinate, replacing any previous
// placement of the same id.
func (x *Index) Add(id string, c model.Coordinate) error {
	cell, err := x.CellFor(c)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if prev, ok := x.byID[id]; ok {
		delete(x.cells[prev], id)
	}
	if x.cells[cell] == nil {
		x.cells[cell] = make(map[string]struct{})
	}
	x.cells[cell][id] = struct{}{}
	x.byID[id] = cell
	return nil
}

func (x *Index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if cell, ok := x.byID[id]; ok {
		delete(x.cells[cell], id)
		delete(x.byID, id)
	}
}

// CoveringCells returns the cells of the disk around center that covers
// radiusKm at the index resolution, sorted for determinism.
func (x *Index) CoveringCells(center model.Coordinate, radiusKm float64) ([]string, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radiusKm)
	}

	origin, err := h3.LatLngToCell(h3.LatLng{Lat: center.Lat, Lng: center.Lon}, x.res)
	if err != nil {
		return nil, fmt.Errorf("h3 origin cell: %w", err)
	}
	k, err := ringsFor(radiusKm, x.res)
	if err != nil {
		return nil, err
	}
	disk, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk (k=%d): %w", k, err)
	}

	out := make([]string, 0, len(disk))
	for _, cell := range disk {
		out = append(out, cell.String())
	}
	sort.Strings(out)
	return out, nil
}

// IDsIn returns the unique establishment ids indexed in the given cells.
func (x *Index) IDsIn(cells []string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, cell := range cells {
		for id := range x.cells[cell] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID)
}

// ringsFor converts a radius to a GridDisk k. Adjacent hexagon centers are
// ~sqrt(3) edge lengths apart; one extra ring absorbs the worst-case offset
// of the query point inside its origin cell.
func ringsFor(radiusKm float64, res int) (int, error) {
	edgeKm, err := h3.HexagonEdgeLengthAvgKm(res)
	if err != nil {
		return 0, fmt.Errorf("h3 edge length for res %d: %w", res, err)
	}
	if edgeKm <= 0 {
		return 0, fmt.Errorf("non-positive edge length for res %d", res)
	}
	return int(math.Ceil(radiusKm/(math.Sqrt(3)*edgeKm))) + 1, nil
}
