package align

import (
	"fmt"
	"sort"
	"strings"
)

// DeriveMovableOrder returns effectiveChunks in answer order. Words covered
// by prefilled chunks (keyed by their word offset in answer) are skipped;
// the remaining words are consumed left to right, taking the longest unused
// chunk that matches at the cursor.
//
// On failure it returns a copy of effectiveChunks in authored order together
// with an *AlignmentError. The fallback order is not a usable answer.
func DeriveMovableOrder(answer string, effectiveChunks []string, prefilledPositions map[string]int) ([]string, error) {
	fallback := append([]string(nil), effectiveChunks...)
	fail := func(format string, args ...any) ([]string, error) {
		return fallback, &AlignmentError{Op: "derive-movable-order", Reason: fmt.Sprintf(format, args...)}
	}

	words := Tokenize(answer)
	covered := make([]bool, len(words))

	// Sorted for deterministic error messages.
	prefilled := make([]string, 0, len(prefilledPositions))
	for c := range prefilledPositions {
		prefilled = append(prefilled, c)
	}
	sort.Strings(prefilled)

	for _, c := range prefilled {
		pos := prefilledPositions[c]
		toks := Tokenize(c)
		if !matchAt(words, pos, toks) {
			return fail("prefilled chunk %q does not match answer at word %d", c, pos)
		}
		for i := range toks {
			if covered[pos+i] {
				return fail("prefilled chunk %q overlaps another prefilled chunk", c)
			}
			covered[pos+i] = true
		}
	}

	var remaining []string
	for i, w := range words {
		if !covered[i] {
			remaining = append(remaining, w)
		}
	}

	tokens := make([][]string, len(effectiveChunks))
	for i, c := range effectiveChunks {
		tokens[i] = Tokenize(c)
		if len(tokens[i]) == 0 {
			return fail("chunk %d is empty after tokenization", i)
		}
	}

	used := make([]bool, len(effectiveChunks))
	order := make([]string, 0, len(effectiveChunks))
	cursor := 0
	for cursor < len(remaining) {
		best := -1
		for i, toks := range tokens {
			if used[i] || !matchAt(remaining, cursor, toks) {
				continue
			}
			if best == -1 || len(toks) > len(tokens[best]) {
				best = i
			}
		}
		if best == -1 {
			return fail("no chunk matches %q at word %d", remaining[cursor], cursor)
		}
		used[best] = true
		order = append(order, effectiveChunks[best])
		cursor += len(tokens[best])
	}

	if len(order) != len(effectiveChunks) {
		var leftover []string
		for i, u := range used {
			if !u {
				leftover = append(leftover, effectiveChunks[i])
			}
		}
		return fail("chunks not used by the answer: %s", strings.Join(leftover, ", "))
	}
	return order, nil
}

// DeriveGivenIndex returns the slot among orderedMovable at which given is
// inserted to spell answer. The walk tries the given chunk before the next
// movable chunk at each word, so the earliest consistent placement wins.
func DeriveGivenIndex(answer string, orderedMovable []string, given string) (int, error) {
	words := Tokenize(answer)
	givenToks := Tokenize(given)
	if len(givenToks) == 0 {
		return 0, &AlignmentError{Op: "derive-given-index", Reason: "given chunk is empty"}
	}
	if !ContainsSequence(words, givenToks) {
		return 0, &AlignmentError{Op: "derive-given-index", Reason: fmt.Sprintf("given chunk %q not found in answer", given)}
	}

	movable := make([][]string, len(orderedMovable))
	for i, c := range orderedMovable {
		movable[i] = Tokenize(c)
	}

	var walk func(pos, next int, placed bool, idx int) (int, bool)
	walk = func(pos, next int, placed bool, idx int) (int, bool) {
		if pos == len(words) {
			return idx, placed && next == len(movable)
		}
		if !placed && matchAt(words, pos, givenToks) {
			if got, ok := walk(pos+len(givenToks), next, true, next); ok {
				return got, true
			}
		}
		if next < len(movable) && matchAt(words, pos, movable[next]) {
			if got, ok := walk(pos+len(movable[next]), next+1, placed, idx); ok {
				return got, true
			}
		}
		return -1, false
	}

	idx, ok := walk(0, 0, false, -1)
	if !ok {
		return 0, &AlignmentError{Op: "derive-given-index", Reason: "cannot align given position"}
	}
	return idx, nil
}
