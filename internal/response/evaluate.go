// Package response scores a learner's chunk order against the canonical
// answer. There is no partial credit.
package response

import (
	"sort"
	"strings"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/item"
)

// Result is the outcome of scoring one submission.
type Result struct {
	IsCorrect bool   `json:"isCorrect"`
	Submitted string `json:"submitted"`
	Expected  string `json:"expected"`
	// FirstMismatch is the first word offset where the submission departs
	// from the answer, or -1.
	FirstMismatch  int  `json:"firstMismatch"`
	UsedDistractor bool `json:"usedDistractor"`
}

// EvaluateOrder inserts the given chunk at its slot among userChunks and
// compares the normalized text with the item's answer. Items without an
// answer are compared against their reconstruction.
func EvaluateOrder(r item.RuntimeItem, userChunks []string) Result {
	expected := r.Answer
	if strings.TrimSpace(expected) == "" {
		expected = align.Reconstruct(r)
	}
	got := align.Tokenize(strings.Join(align.Assemble(r, userChunks), " "))
	res := compare(got, align.Tokenize(expected))
	res.UsedDistractor = usesChunk(userChunks, r.Distractor)
	return res
}

// EvaluateAuthored merges the prefilled words back at their fixed word
// offsets, fills the remaining slots with the words of userChunks in order
// and compares with the answer.
func EvaluateAuthored(a item.AuthoredItem, userChunks []string) Result {
	var movable []string
	for _, c := range userChunks {
		movable = append(movable, align.Tokenize(c)...)
	}

	type fixed struct {
		pos   int
		words []string
	}
	var pins []fixed
	pinned := 0
	for _, p := range a.Prefilled {
		pos, ok := a.PrefilledPositions[p]
		if !ok {
			continue
		}
		w := align.Tokenize(p)
		pins = append(pins, fixed{pos: pos, words: w})
		pinned += len(w)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].pos < pins[j].pos })

	merged := make([]string, 0, len(movable)+pinned)
	next := 0
	for _, pin := range pins {
		for len(merged) < pin.pos && next < len(movable) {
			merged = append(merged, movable[next])
			next++
		}
		merged = append(merged, pin.words...)
	}
	merged = append(merged, movable[next:]...)

	res := compare(merged, align.Tokenize(a.Answer))
	res.UsedDistractor = usesChunk(userChunks, a.Distractor)
	return res
}

func compare(got, want []string) Result {
	res := Result{
		Submitted:     strings.Join(got, " "),
		Expected:      strings.Join(want, " "),
		FirstMismatch: -1,
	}
	n := min(len(got), len(want))
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			res.FirstMismatch = i
			return res
		}
	}
	if len(got) != len(want) {
		res.FirstMismatch = n
		return res
	}
	res.IsCorrect = true
	return res
}

func usesChunk(chunks []string, target *string) bool {
	if target == nil || strings.TrimSpace(*target) == "" {
		return false
	}
	t := align.Normalize(*target)
	for _, c := range chunks {
		if align.Normalize(c) == t {
			return true
		}
	}
	return false
}
