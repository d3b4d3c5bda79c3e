package align

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/sentcraft/internal/item"
)

// NormalizeToRuntime resolves an authored item into the runtime slot model.
// The result always satisfies ValidateRuntime.
func NormalizeToRuntime(a item.Authored) (item.RuntimeItem, error) {
	var (
		r   item.RuntimeItem
		err error
	)
	switch v := a.(type) {
	case item.Legacy:
		r = fromLegacy(v)
	case item.PositionBased:
		r, err = fromPositionBased(v)
	case nil:
		return item.RuntimeItem{}, errors.New("normalize: nil item")
	default:
		return item.RuntimeItem{}, fmt.Errorf("normalize: unsupported item shape %T", a)
	}
	if err != nil {
		return item.RuntimeItem{}, withItemID(err, a.ItemID())
	}
	if err := ValidateRuntime(r); err != nil {
		return item.RuntimeItem{}, err
	}
	return r, nil
}

func fromLegacy(l item.Legacy) item.RuntimeItem {
	r := item.RuntimeItem{
		ID:             strings.TrimSpace(l.ID),
		Prompt:         strings.TrimSpace(l.Prompt),
		Answer:         strings.TrimSpace(l.Answer),
		AnswerOrder:    trimChunks(l.AnswerOrder),
		Bank:           trimChunks(l.Bank),
		GivenIndex:     l.GivenIndex,
		ResponseSuffix: strings.TrimSpace(l.ResponseSuffix),
	}
	if l.Given != nil && strings.TrimSpace(*l.Given) != "" {
		r.Given = item.StringPtr(strings.TrimSpace(*l.Given))
	} else {
		r.GivenIndex = 0
	}
	if l.Distractor != nil && strings.TrimSpace(*l.Distractor) != "" {
		r.Distractor = item.StringPtr(strings.TrimSpace(*l.Distractor))
	}
	if r.ResponseSuffix == "" {
		r.ResponseSuffix = suffixOf(r.Answer)
	}
	if r.ResponseSuffix == "" {
		r.ResponseSuffix = "."
	}
	return r
}

func fromPositionBased(p item.PositionBased) (item.RuntimeItem, error) {
	if len(p.Prefilled) > 1 {
		return item.RuntimeItem{}, &RuntimeError{
			ItemID:    p.ID,
			Invariant: InvariantMultipleGiven,
			Detail:    fmt.Sprintf("%d prefilled chunks; at most one is supported", len(p.Prefilled)),
		}
	}

	positions := make(map[string]int, len(p.Prefilled))
	for _, c := range p.Prefilled {
		pos, ok := p.PrefilledPositions[c]
		if !ok {
			return item.RuntimeItem{}, &AlignmentError{
				Op:     "normalize",
				Reason: fmt.Sprintf("prefilled chunk %q has no position", c),
			}
		}
		positions[c] = pos
	}

	effective := p.EffectiveChunks()
	order, err := DeriveMovableOrder(p.Answer, effective, positions)
	if err != nil {
		return item.RuntimeItem{}, err
	}

	r := item.RuntimeItem{
		ID:          p.ID,
		Prompt:      p.Prompt,
		Answer:      p.Answer,
		AnswerOrder: order,
		Bank:        append([]string(nil), effective...),
	}

	if len(p.Prefilled) == 1 {
		given := p.Prefilled[0]
		idx, err := DeriveGivenIndex(p.Answer, order, given)
		if err != nil {
			return item.RuntimeItem{}, err
		}
		r.Given = item.StringPtr(given)
		r.GivenIndex = idx
	}

	if p.HasDistractor() {
		r.Distractor = item.StringPtr(*p.Distractor)
	}

	r.ResponseSuffix = suffixOf(p.Answer)
	if r.ResponseSuffix == "" {
		r.ResponseSuffix = "."
		if p.HasQuestionMark {
			r.ResponseSuffix = "?"
		}
	}
	return r, nil
}

// Reconstruct inserts the given chunk at its slot, joins everything with
// single spaces and appends the response suffix unless the text already
// ends in terminal punctuation.
func Reconstruct(r item.RuntimeItem) string {
	return joinWithSuffix(Assemble(r, r.AnswerOrder), r.ResponseSuffix)
}

// Assemble returns movable with the given chunk inserted at its slot. A slot
// past the end appends.
func Assemble(r item.RuntimeItem, movable []string) []string {
	parts := make([]string, 0, len(movable)+1)
	if !r.HasGiven() {
		return append(parts, movable...)
	}
	idx := r.GivenIndex
	if idx < 0 {
		idx = 0
	}
	if idx > len(movable) {
		idx = len(movable)
	}
	parts = append(parts, movable[:idx]...)
	parts = append(parts, *r.Given)
	return append(parts, movable[idx:]...)
}

func joinWithSuffix(parts []string, suffix string) string {
	joined := strings.Join(parts, " ")
	if terminalPunct(joined) {
		return joined
	}
	return joined + suffix
}

// ValidateRuntime checks the structural invariants of the slot model and,
// when the item carries an answer, the round-trip law.
func ValidateRuntime(r item.RuntimeItem) error {
	violation := func(inv Invariant, format string, args ...any) error {
		return &RuntimeError{ItemID: r.ID, Invariant: inv, Detail: fmt.Sprintf(format, args...)}
	}

	if len(r.AnswerOrder) == 0 {
		return violation(InvariantEmpty, "answerOrder is empty")
	}
	if len(r.Bank) == 0 {
		return violation(InvariantEmpty, "bank is empty")
	}
	if len(r.Bank) != len(r.AnswerOrder) {
		return violation(InvariantLength, "bank has %d chunks, answerOrder has %d", len(r.Bank), len(r.AnswerOrder))
	}

	orderSet, dup := chunkSet(r.AnswerOrder)
	if dup != "" {
		return violation(InvariantDuplicate, "answerOrder repeats %q", dup)
	}
	bankSet, dup := chunkSet(r.Bank)
	if dup != "" {
		return violation(InvariantDuplicate, "bank repeats %q", dup)
	}
	for c := range bankSet {
		if !orderSet[c] {
			return violation(InvariantPermutation, "bank chunk %q is not in answerOrder", c)
		}
	}

	if r.HasGiven() && (r.GivenIndex < 0 || r.GivenIndex > len(r.AnswerOrder)) {
		return violation(InvariantGivenIndex, "givenIndex %d outside [0, %d]", r.GivenIndex, len(r.AnswerOrder))
	}

	if r.Distractor != nil && bankSet[Normalize(*r.Distractor)] {
		return violation(InvariantDistractorBank, "distractor %q is a bank chunk", *r.Distractor)
	}

	if strings.TrimSpace(r.Answer) != "" {
		got := Normalize(Reconstruct(r))
		want := Normalize(r.Answer)
		if got != want {
			return violation(InvariantRoundTrip, "reconstructed %q, want %q", got, want)
		}
	}
	return nil
}

// chunkSet returns the normalized chunks as a set and the first duplicate.
func chunkSet(chunks []string) (map[string]bool, string) {
	set := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		n := Normalize(c)
		if set[n] {
			return set, c
		}
		set[n] = true
	}
	return set, ""
}

func trimChunks(chunks []string) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func withItemID(err error, id string) error {
	var ae *AlignmentError
	if errors.As(err, &ae) && ae.ItemID == "" {
		tagged := *ae
		tagged.ItemID = id
		return &tagged
	}
	var re *RuntimeError
	if errors.As(err, &re) && re.ItemID == "" {
		tagged := *re
		tagged.ItemID = id
		return &tagged
	}
	return err
}
