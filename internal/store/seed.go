package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

type seedFile struct {
	Establishments []Establishment `json:"establishments"`
	Deals          []Deal          `json:"deals"`
}

// LoadSeed populates w from a JSON seed file. Records keep the IDs given in
// the file; empty IDs get autoincremented ones.
func LoadSeed(ctx context.Context, path string, w Writer) (establishments int, deals int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, 0, fmt.Errorf("parse seed: %w", err)
	}
	for _, e := range f.Establishments {
		if _, err := w.UpsertEstablishment(ctx, e); err != nil {
			return establishments, deals, fmt.Errorf("seed establishment %q: %w", e.ID, err)
		}
		establishments++
	}
	for _, d := range f.Deals {
		if _, err := w.UpsertDeal(ctx, d); err != nil {
			return establishments, deals, fmt.Errorf("seed deal %q: %w", d.ID, err)
		}
		deals++
	}
	return establishments, deals, nil
}
