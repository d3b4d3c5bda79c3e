package item

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Authored is an item as loaded from a bank or a generator, resolved to one
// of its two authoring shapes. Use Resolve to build one from raw JSON.
type Authored interface {
	// ItemID returns the item's identifier.
	ItemID() string
	isAuthored()
}

// Legacy is an item authored directly in the runtime slot shape.
type Legacy struct {
	ID             string
	Prompt         string
	Answer         string
	AnswerOrder    []string
	Bank           []string
	Given          *string
	GivenIndex     int
	ResponseSuffix string
	Distractor     *string
}

// PositionBased is an item authored with word-offset prefilled markers.
type PositionBased struct {
	AuthoredItem
}

func (l Legacy) ItemID() string        { return l.ID }
func (p PositionBased) ItemID() string { return p.ID }

func (Legacy) isAuthored()        {}
func (PositionBased) isAuthored() {}

// rawItem is the union of both shapes as they appear on the wire.
type rawItem struct {
	AuthoredItem

	AnswerOrder    []string `json:"answerOrder"`
	Bank           []string `json:"bank"`
	Given          *string  `json:"given"`
	GivenIndex     *int     `json:"givenIndex"`
	ResponseSuffix string   `json:"responseSuffix"`
}

// Resolve decodes one item and picks its shape. An item that carries both
// answerOrder and bank is legacy; anything else is position based.
func Resolve(data []byte) (Authored, error) {
	var raw rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if len(raw.AnswerOrder) > 0 && len(raw.Bank) > 0 {
		l := Legacy{
			ID:             raw.ID,
			Prompt:         raw.Prompt,
			Answer:         raw.Answer,
			AnswerOrder:    raw.AnswerOrder,
			Bank:           raw.Bank,
			Given:          raw.Given,
			ResponseSuffix: raw.ResponseSuffix,
			Distractor:     raw.Distractor,
		}
		if raw.GivenIndex != nil {
			l.GivenIndex = *raw.GivenIndex
		}
		return l, nil
	}
	return PositionBased{AuthoredItem: raw.AuthoredItem}, nil
}

// ResolveAll decodes a JSON array of items.
func ResolveAll(data []byte) ([]Authored, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	out := make([]Authored, 0, len(raws))
	for i, r := range raws {
		a, err := Resolve(r)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// EffectiveChunks returns the chunks minus one occurrence of the distractor.
func (a AuthoredItem) EffectiveChunks() []string {
	out := make([]string, 0, len(a.Chunks))
	skipped := false
	for _, c := range a.Chunks {
		if !skipped && a.Distractor != nil && sameText(c, *a.Distractor) {
			skipped = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// HasDistractor reports whether the item carries a non-empty distractor.
func (a AuthoredItem) HasDistractor() bool {
	return a.Distractor != nil && strings.TrimSpace(*a.Distractor) != ""
}

// Clone returns a deep copy. Empty slices stay empty rather than nil.
func (a AuthoredItem) Clone() AuthoredItem {
	c := a
	c.Chunks = slices.Clone(a.Chunks)
	c.Prefilled = slices.Clone(a.Prefilled)
	c.GrammarPoints = slices.Clone(a.GrammarPoints)
	c.PrefilledPositions = maps.Clone(a.PrefilledPositions)
	if a.Distractor != nil {
		c.Distractor = StringPtr(*a.Distractor)
	}
	return c
}

// MarshalJSON writes nil lists as [] and a nil position map as {}; only
// distractor is nullable on the wire.
func (a AuthoredItem) MarshalJSON() ([]byte, error) {
	type wire AuthoredItem
	w := wire(a)
	if w.Chunks == nil {
		w.Chunks = []string{}
	}
	if w.Prefilled == nil {
		w.Prefilled = []string{}
	}
	if w.PrefilledPositions == nil {
		w.PrefilledPositions = map[string]int{}
	}
	if w.GrammarPoints == nil {
		w.GrammarPoints = []string{}
	}
	return json.Marshal(w)
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
