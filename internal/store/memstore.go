package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/dealmapper/happyhour/internal/core/model"
)

// MemStore is an in-memory repository with autoincrementing IDs. It stands
// in for a database behind the Repository interface and never leaks into
// engine state.
type MemStore struct {
	mu             sync.RWMutex
	establishments map[string]Establishment
	deals          map[string]Deal
	byEst          map[string]map[string]struct{}
	nextEstID      uint64
	nextDealID     uint64
}

var (
	_ Repository = (*MemStore)(nil)
	_ Writer     = (*MemStore)(nil)
)

func NewMemStore() *MemStore {
	return &MemStore{
		establishments: make(map[string]Establishment),
		deals:          make(map[string]Deal),
		byEst:          make(map[string]map[string]struct{}),
	}
}

func (s *MemStore) Establishments(_ context.Context) ([]Establishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Establishment, 0, len(s.establishments))
	for _, e := range s.establishments {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Establishment(_ context.Context, id string) (Establishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.establishments[id]
	if !ok {
		return Establishment{}, fmt.Errorf("establishment %q: %w", id, ErrNotFound)
	}
	return e, nil
}

func (s *MemStore) DealsFor(_ context.Context, establishmentID string) ([]Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byEst[establishmentID]
	out := make([]Deal, 0, len(ids))
	for id := range ids {
		out = append(out, s.deals[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) CandidatesFor(_ context.Context, establishmentIDs []string) ([]model.CandidateDeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CandidateDeal
	for _, estID := range establishmentIDs {
		est, ok := s.establishments[estID]
		if !ok {
			continue
		}
		dealIDs := make([]string, 0, len(s.byEst[estID]))
		for id := range s.byEst[estID] {
			dealIDs = append(dealIDs, id)
		}
		sort.Strings(dealIDs)
		for _, id := range dealIDs {
			d := s.deals[id]
			out = append(out, model.CandidateDeal{
				Establishment: est.Coord,
				Window:        d.Window(),
				Payload:       d,
			})
		}
	}
	return out, nil
}

func (s *MemStore) UpsertEstablishment(_ context.Context, e Establishment) (Establishment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		s.nextEstID++
		e.ID = "est-" + strconv.FormatUint(s.nextEstID, 10)
	}
	s.establishments[e.ID] = e
	if s.byEst[e.ID] == nil {
		s.byEst[e.ID] = make(map[string]struct{})
	}
	return e, nil
}

func (s *MemStore) UpsertDeal(_ context.Context, d Deal) (Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.EstablishmentID == "" {
		return Deal{}, fmt.Errorf("deal requires an establishment id")
	}
	if _, ok := s.establishments[d.EstablishmentID]; !ok {
		return Deal{}, fmt.Errorf("establishment %q: %w", d.EstablishmentID, ErrNotFound)
	}
	if d.ID == "" {
		s.nextDealID++
		d.ID = "deal-" + strconv.FormatUint(s.nextDealID, 10)
	}
	if prev, ok := s.deals[d.ID]; ok && prev.EstablishmentID != d.EstablishmentID {
		delete(s.byEst[prev.EstablishmentID], d.ID)
	}
	s.deals[d.ID] = d
	if s.byEst[d.EstablishmentID] == nil {
		s.byEst[d.EstablishmentID] = make(map[string]struct{})
	}
	s.byEst[d.EstablishmentID][d.ID] = struct{}{}
	return d, nil
}

func (s *MemStore) DeleteDeal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	if !ok {
		return fmt.Errorf("deal %q: %w", id, ErrNotFound)
	}
	delete(s.deals, id)
	delete(s.byEst[d.EstablishmentID], id)
	return nil
}
