// Package deals serves the deal-discovery endpoints. It glues the geo index
// pre-filter, the record store, and the pure query engine together, with the
// query cache memoizing whole response bodies.
package deals

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dealmapper/happyhour/internal/cache"
	"github.com/dealmapper/happyhour/internal/cache/keys"
	"github.com/dealmapper/happyhour/internal/core/model"
	"github.com/dealmapper/happyhour/internal/core/observability"
	"github.com/dealmapper/happyhour/internal/engine/dealstate"
	"github.com/dealmapper/happyhour/internal/engine/proximity"
	"github.com/dealmapper/happyhour/internal/store"
)

// GeoIndex is the candidate pre-filter seam. The handler never scans the
// full record set for a nearby query.
type GeoIndex interface {
	CellFor(c model.Coordinate) (string, error)
	CoveringCells(center model.Coordinate, radiusKm float64) ([]string, error)
	IDsIn(cells []string) []string
}

type Handler struct {
	logger *slog.Logger
	repo   store.Repository
	geo    GeoIndex
	cache  cache.Interface
}

func New(logger *slog.Logger, repo store.Repository, geo GeoIndex, c cache.Interface) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Handler{logger: logger, repo: repo, geo: geo, cache: c}
}

// Ready reports whether the handler can serve queries.
func (h *Handler) Ready() bool {
	return h.repo != nil && h.geo != nil
}

func (h *Handler) HandleNearby(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.NearbyRequest) {
	cell, err := h.geo.CellFor(q.Point)
	if err != nil {
		// the router already validated the point, so this is an index fault
		h.logger.Error("cell lookup failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	key := keys.QueryKey(cell, q.Point, q.RadiusKm, q.At, q.Limit)

	if body, ok := h.cache.Get(ctx, key); ok {
		writeBody(w, body, "hit")
		return
	}

	cells, err := h.geo.CoveringCells(q.Point, q.RadiusKm)
	if err != nil {
		h.logger.Error("covering cells failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	ids := h.geo.IDsIn(cells)

	cands, err := h.repo.CandidatesFor(ctx, ids)
	if err != nil {
		h.logger.Error("candidate load failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	res, err := proximity.Query(q.Point, q.RadiusKm, q.At, cands,
		proximity.WithBucketLimit(q.Limit),
		proximity.WithTieBreak(cheaperFirst),
	)
	if err != nil {
		h.logger.Error("proximity query failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	observability.ObserveQuery(len(cands), len(res.Active), len(res.Upcoming), len(res.Future))

	body, err := json.Marshal(res)
	if err != nil {
		h.logger.Error("encode result failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeBody(w, body, "miss")
	h.cache.Put(ctx, key, cell, body)
}

// dealListing is the non-geo per-establishment view. Inactive deals stay in
// the listing with their state spelled out.
type dealListing struct {
	Establishment store.Establishment `json:"establishment"`
	At            string              `json:"at"`
	Deals         []dealWithState     `json:"deals"`
}

type dealWithState struct {
	store.Deal
	State string `json:"state"`
}

func (h *Handler) HandleEstablishmentDeals(ctx context.Context, w http.ResponseWriter, r *http.Request, id string, at time.Time) {
	est, err := h.repo.Establishment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "establishment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("establishment load failed", "id", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ds, err := h.repo.DealsFor(ctx, id)
	if err != nil {
		h.logger.Error("deal load failed", "id", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := dealListing{
		Establishment: est,
		At:            at.Format(time.RFC3339),
		Deals:         make([]dealWithState, 0, len(ds)),
	}
	for _, d := range ds {
		out.Deals = append(out.Deals, dealWithState{
			Deal:  d,
			State: dealstate.Classify(d.Window(), at).String(),
		})
	}

	body, err := json.Marshal(out)
	if err != nil {
		h.logger.Error("encode listing failed", "id", id, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeBody(w, body, "")
}

// cheaperFirst orders equal-distance deals by ascending price.
func cheaperFirst(a, b any) bool {
	da, ok := a.(store.Deal)
	if !ok {
		return false
	}
	db, ok := b.(store.Deal)
	if !ok {
		return false
	}
	return da.Price < db.Price
}

func writeBody(w http.ResponseWriter, body []byte, cacheState string) {
	w.Header().Set("Content-Type", "application/json")
	if cacheState != "" {
		w.Header().Set("X-Cache", cacheState)
	}
	_, _ = w.Write(body)
}
