// Package store supplies deal and establishment records to the engine.
// Persistence is deliberately outside the engine: the serving layer talks
// to this repository interface and hands plain candidates to the pure
// query logic.
package store

import (
	"context"
	"errors"

	"github.com/dealmapper/happyhour/internal/core/model"
)

var ErrNotFound = errors.New("not found")

type Establishment struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Coord *model.Coordinate `json:"coord,omitempty"`
}

type Deal struct {
	ID              string  `json:"id"`
	EstablishmentID string  `json:"establishment_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price,omitempty"`
	Days            string  `json:"days"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
}

// Window projects the deal's schedule triple for the engine.
func (d Deal) Window() model.DealWindow {
	return model.DealWindow{Days: d.Days, Start: d.Start, End: d.End}
}

// Repository is the candidate-supply boundary in front of the engine.
type Repository interface {
	Establishments(ctx context.Context) ([]Establishment, error)
	Establishment(ctx context.Context, id string) (Establishment, error)
	DealsFor(ctx context.Context, establishmentID string) ([]Deal, error)

	// CandidatesFor projects deals of the given establishments into engine
	// candidates. Deals of establishments without a coordinate carry a nil
	// coordinate and are excluded by the radius filter downstream.
	CandidatesFor(ctx context.Context, establishmentIDs []string) ([]model.CandidateDeal, error)
}

// Writer is the mutation side used by seeding and the invalidation consumer.
type Writer interface {
	UpsertEstablishment(ctx context.Context, e Establishment) (Establishment, error)
	UpsertDeal(ctx context.Context, d Deal) (Deal, error)
	DeleteDeal(ctx context.Context, id string) error
}
