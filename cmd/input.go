package cmd

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/abhisek/sentcraft/internal/item"
)

// itemGroup is the items of one set, or of a whole file when the file is a
// plain item array.
type itemGroup struct {
	SetID string
	Items []item.Authored
}

// readGroups loads items from either a JSON array of items or a
// question-bank file (an array of {set_id, questions}).
func readGroups(path string) ([]itemGroup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var shape []map[string]json.RawMessage
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array: %w", path, err)
	}
	if len(shape) == 0 {
		return nil, nil
	}
	if _, isSet := shape[0]["questions"]; !isSet {
		items, err := item.ResolveAll(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []itemGroup{{Items: items}}, nil
	}

	var sets []struct {
		SetID     string            `json:"set_id"`
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := make([]itemGroup, 0, len(sets))
	for _, s := range sets {
		g := itemGroup{SetID: s.SetID}
		for i, raw := range s.Questions {
			a, err := item.Resolve(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: set %s item %d: %w", path, s.SetID, i, err)
			}
			g.Items = append(g.Items, a)
		}
		out = append(out, g)
	}
	return out, nil
}

// readAuthored is readGroups flattened.
func readAuthored(path string) ([]item.Authored, error) {
	groups, err := readGroups(path)
	if err != nil {
		return nil, err
	}
	var out []item.Authored
	for _, g := range groups {
		out = append(out, g.Items...)
	}
	return out, nil
}

// authoredOnly keeps the position-based items. Legacy items have no
// authoring fields to validate or score; the count of skipped ones is
// returned.
func authoredOnly(items []item.Authored) ([]item.AuthoredItem, int) {
	out := make([]item.AuthoredItem, 0, len(items))
	skipped := 0
	for _, a := range items {
		if p, ok := a.(item.PositionBased); ok {
			out = append(out, p.AuthoredItem)
			continue
		}
		skipped++
	}
	return out, skipped
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func seededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
