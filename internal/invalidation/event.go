// Package invalidation defines the deal-change event consumed from Kafka.
// Producers publish one event per establishment or deal mutation; consumers
// apply the change and drop the cached query results it can affect.
package invalidation

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealmapper/happyhour/internal/core/model"
)

type Event struct {
	Version         int       `json:"version"`
	Op              string    `json:"op"`
	EstablishmentID string    `json:"establishment_id"`
	TS              time.Time `json:"ts"`
	// Seq orders events per establishment; stale or replayed events are
	// skipped by the consumer.
	Seq uint64 `json:"seq"`

	Establishment *EstablishmentChange `json:"establishment,omitempty"`
	Deal          *DealChange          `json:"deal,omitempty"`
}

type EstablishmentChange struct {
	Name  string            `json:"name"`
	Coord *model.Coordinate `json:"coord,omitempty"`
}

type DealChange struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Days        string  `json:"days"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if strings.TrimSpace(e.EstablishmentID) == "" {
		return fmt.Errorf("establishment_id is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	switch e.Op {
	case "upsert":
		if e.Establishment == nil && e.Deal == nil {
			return fmt.Errorf("upsert requires an establishment or deal payload")
		}
	case "delete":
		if e.Deal == nil || strings.TrimSpace(e.Deal.ID) == "" {
			return fmt.Errorf("delete requires deal.id")
		}
	default:
		return fmt.Errorf("op must be upsert|delete")
	}
	if e.Establishment != nil && e.Establishment.Coord != nil {
		if err := e.Establishment.Coord.Validate(); err != nil {
			return fmt.Errorf("establishment coord: %w", err)
		}
	}
	return nil
}
