// Package router validates incoming query parameters and hands validated
// requests to the serving handler. Boundary violations (bad coordinate,
// bad radius) become 400s here; zero results are a normal empty success.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dealmapper/happyhour/internal/core/config"
	"github.com/dealmapper/happyhour/internal/core/model"
	"github.com/dealmapper/happyhour/internal/core/observability"
)

// NearbyHandler serves a validated nearby-deals request.
type NearbyHandler interface {
	HandleNearby(ctx context.Context, w http.ResponseWriter, r *http.Request, q model.NearbyRequest)
}

// EstablishmentHandler serves the per-establishment deal listing, which
// bypasses the geo filter entirely.
type EstablishmentHandler interface {
	HandleEstablishmentDeals(ctx context.Context, w http.ResponseWriter, r *http.Request, id string, at time.Time)
}

// Clock supplies the default reference instant when the caller omits "at".
// It must already be in the canonical civil-time location.
type Clock func() time.Time

func HandleNearby(logger *slog.Logger, cfg config.Config, now Clock, h NearbyHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		q, err := ParseNearbyRequest(r, cfg, now)
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/deals/nearby", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		h.HandleNearby(r.Context(), sw, r, q)
		observability.ObserveHTTP(r.Method, "/deals/nearby", sw.code, time.Since(start).Seconds())
	}
}

func HandleEstablishmentDeals(logger *slog.Logger, now Clock, h EstablishmentHandler, idFromRequest func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		id := strings.TrimSpace(idFromRequest(r))
		if id == "" {
			http.Error(sw, "missing establishment id", http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/establishments/{id}/deals", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}
		at, err := parseAt(r.URL.Query().Get("at"), now)
		if err != nil {
			http.Error(sw, err.Error(), http.StatusBadRequest)
			observability.ObserveHTTP(r.Method, "/establishments/{id}/deals", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		h.HandleEstablishmentDeals(r.Context(), sw, r, id, at)
		observability.ObserveHTTP(r.Method, "/establishments/{id}/deals", sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func ParseNearbyRequest(r *http.Request, cfg config.Config, now Clock) (model.NearbyRequest, error) {
	qs := r.URL.Query()

	rawLat := strings.TrimSpace(qs.Get("lat"))
	rawLon := strings.TrimSpace(qs.Get("lon"))
	if rawLat == "" || rawLon == "" {
		return model.NearbyRequest{}, errors.New("missing required parameters: lat, lon")
	}
	lat, err := parseFloat(rawLat)
	if err != nil {
		return model.NearbyRequest{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := parseFloat(rawLon)
	if err != nil {
		return model.NearbyRequest{}, fmt.Errorf("lon: %w", err)
	}
	point := model.Coordinate{Lat: lat, Lon: lon}
	if err := point.Validate(); err != nil {
		return model.NearbyRequest{}, err
	}

	radius := cfg.DefaultRadiusKm
	if raw := strings.TrimSpace(qs.Get("radius_km")); raw != "" {
		radius, err = parseFloat(raw)
		if err != nil {
			return model.NearbyRequest{}, fmt.Errorf("radius_km: %w", err)
		}
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return model.NearbyRequest{}, errors.New("radius_km must be positive")
	}
	if cfg.MaxRadiusKm > 0 && radius > cfg.MaxRadiusKm {
		return model.NearbyRequest{}, fmt.Errorf("radius_km exceeds maximum of %g", cfg.MaxRadiusKm)
	}

	limit := cfg.BucketLimit
	if raw := strings.TrimSpace(qs.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return model.NearbyRequest{}, errors.New("limit must be a non-negative integer")
		}
		limit = n
	}

	at, err := parseAt(qs.Get("at"), now)
	if err != nil {
		return model.NearbyRequest{}, err
	}

	return model.NearbyRequest{
		Point:    point,
		RadiusKm: radius,
		At:       at,
		Limit:    limit,
	}, nil
}

// parseAt resolves the reference instant: an explicit RFC3339 "at" wins,
// otherwise the configured clock supplies the current canonical civil time.
func parseAt(raw string, now Clock) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if now == nil {
			return time.Time{}, errors.New("no reference instant available")
		}
		return now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("at: expected RFC3339 timestamp: %w", err)
	}
	return t, nil
}

func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}
