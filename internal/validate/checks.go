package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/item"
)

// Check inspects one aspect of an authored item.
// Implementations should be stateless and safe for concurrent use.
type Check interface {
	// Name returns a short identifier used to tag issues,
	// e.g. "required", "word-multiset".
	Name() string

	// Check appends its findings to r.
	Check(a item.AuthoredItem, r *Report)
}

// RequiredCheck flags missing or empty required fields.
type RequiredCheck struct{}

func (c *RequiredCheck) Name() string { return "required" }

func (c *RequiredCheck) Check(a item.AuthoredItem, r *Report) {
	if strings.TrimSpace(a.ID) == "" {
		r.add(SeverityFatal, c.Name(), "id", "is empty")
	}
	if strings.TrimSpace(a.Prompt) == "" {
		r.add(SeverityFatal, c.Name(), "prompt", "is empty")
	}
	if strings.TrimSpace(a.Answer) == "" {
		r.add(SeverityFatal, c.Name(), "answer", "is empty")
	}
	if len(a.Chunks) == 0 {
		r.add(SeverityFatal, c.Name(), "chunks", "is empty")
	}
	for i, ch := range a.Chunks {
		if len(align.Tokenize(ch)) == 0 {
			r.add(SeverityFatal, c.Name(), "chunks", "chunk %d has no words", i)
		}
	}
}

// PrefilledCheck verifies prefilled chunks against their declared positions.
type PrefilledCheck struct{}

func (c *PrefilledCheck) Name() string { return "prefilled" }

func (c *PrefilledCheck) Check(a item.AuthoredItem, r *Report) {
	if len(a.Prefilled) > 1 {
		r.add(SeverityFatal, c.Name(), "prefilled", "%d chunks; at most one is supported", len(a.Prefilled))
	}

	words := align.Tokenize(a.Answer)
	for _, p := range a.Prefilled {
		pos, ok := a.PrefilledPositions[p]
		if !ok {
			r.add(SeverityFatal, c.Name(), "prefilled_positions", "no position for prefilled chunk %q", p)
			continue
		}
		toks := align.Tokenize(p)
		if pos < 0 || pos+len(toks) > len(words) {
			r.add(SeverityFatal, c.Name(), "prefilled_positions", "position %d for %q is outside the answer", pos, p)
			continue
		}
		if got := strings.Join(words[pos:pos+len(toks)], " "); got != strings.Join(toks, " ") {
			r.add(SeverityFatal, c.Name(), "prefilled_positions", "answer words at %d are %q, not %q", pos, got, p)
		}
	}

	for k := range a.PrefilledPositions {
		if !containsText(a.Prefilled, k) {
			r.add(SeverityFatal, c.Name(), "prefilled_positions", "position given for %q which is not prefilled", k)
		}
	}

	for _, p := range a.Prefilled {
		if containsText(a.Chunks, p) {
			r.add(SeverityFatal, c.Name(), "chunks", "prefilled chunk %q is also a movable chunk", p)
		}
	}
}

// MultisetCheck verifies that effective chunks plus prefilled chunks spell
// exactly the answer's words.
type MultisetCheck struct{}

func (c *MultisetCheck) Name() string { return "word-multiset" }

func (c *MultisetCheck) Check(a item.AuthoredItem, r *Report) {
	have := make(map[string]int)
	for _, ch := range a.EffectiveChunks() {
		for _, w := range align.Tokenize(ch) {
			have[w]++
		}
	}
	for _, p := range a.Prefilled {
		for _, w := range align.Tokenize(p) {
			have[w]++
		}
	}
	want := make(map[string]int)
	for _, w := range align.Tokenize(a.Answer) {
		want[w]++
	}

	var missing, extra []string
	for w, n := range want {
		if have[w] < n {
			missing = append(missing, fmt.Sprintf("%s×%d", w, n-have[w]))
		}
	}
	for w, n := range have {
		if want[w] < n {
			extra = append(extra, fmt.Sprintf("%s×%d", w, n-want[w]))
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)

	if len(missing) > 0 {
		r.add(SeverityFatal, c.Name(), "chunks", "answer words not covered by chunks: %s", strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		r.add(SeverityFatal, c.Name(), "chunks", "chunk words not in answer: %s", strings.Join(extra, ", "))
	}
}

// DistractorCheck verifies the distractor is listed and can never complete
// the answer.
type DistractorCheck struct{}

func (c *DistractorCheck) Name() string { return "distractor" }

func (c *DistractorCheck) Check(a item.AuthoredItem, r *Report) {
	if a.Distractor == nil {
		return
	}
	d := strings.TrimSpace(*a.Distractor)
	if d == "" {
		r.add(SeverityFatal, c.Name(), "distractor", "is empty; use null for no distractor")
		return
	}
	if !containsText(a.Chunks, d) {
		r.add(SeverityFatal, c.Name(), "distractor", "%q is not listed in chunks", d)
	}
	if align.ContainsSequence(align.Tokenize(a.Answer), align.Tokenize(d)) {
		r.add(SeverityFatal, c.Name(), "distractor", "%q appears in the answer", d)
	}
}

// DuplicateChunkCheck flags effective chunks that repeat, which would make
// the bank ambiguous.
type DuplicateChunkCheck struct{}

func (c *DuplicateChunkCheck) Name() string { return "duplicate-chunks" }

func (c *DuplicateChunkCheck) Check(a item.AuthoredItem, r *Report) {
	seen := make(map[string]bool)
	for _, ch := range a.EffectiveChunks() {
		n := align.Normalize(ch)
		if seen[n] {
			r.add(SeverityFatal, c.Name(), "chunks", "chunk %q appears more than once", ch)
		}
		seen[n] = true
	}
}

// ShapeCheck enforces the item shape limits.
type ShapeCheck struct {
	Limits Limits
}

func (c *ShapeCheck) Name() string { return "shape" }

func (c *ShapeCheck) Check(a item.AuthoredItem, r *Report) {
	lim := c.Limits
	if n := len(a.EffectiveChunks()); n < lim.MinChunks || n > lim.MaxChunks {
		r.add(SeverityFormat, c.Name(), "chunks", "%d effective chunks, want %d-%d", n, lim.MinChunks, lim.MaxChunks)
	}
	if n := len(align.Tokenize(a.Answer)); n < lim.MinAnswerWords || n > lim.MaxAnswerWords {
		r.add(SeverityFormat, c.Name(), "answer", "%d words, want %d-%d", n, lim.MinAnswerWords, lim.MaxAnswerWords)
	}
	for _, ch := range a.Chunks {
		if n := len(strings.Fields(ch)); n > lim.MaxChunkWords {
			r.add(SeverityFormat, c.Name(), "chunks", "chunk %q has %d words, max %d", ch, n, lim.MaxChunkWords)
		}
		if ch != strings.ToLower(ch) {
			r.add(SeverityFormat, c.Name(), "chunks", "chunk %q is not lowercase", ch)
		}
	}
}

// QuestionMarkCheck verifies has_question_mark against the answer.
type QuestionMarkCheck struct{}

func (c *QuestionMarkCheck) Name() string { return "question-mark" }

func (c *QuestionMarkCheck) Check(a item.AuthoredItem, r *Report) {
	ends := strings.HasSuffix(strings.TrimSpace(a.Answer), "?")
	if ends != a.HasQuestionMark {
		r.add(SeverityFormat, c.Name(), "has_question_mark", "is %t but answer ends with %q", a.HasQuestionMark, lastRune(a.Answer))
	}
}

// GrammarCheck flags items without grammar tags.
type GrammarCheck struct{}

func (c *GrammarCheck) Name() string { return "grammar-points" }

func (c *GrammarCheck) Check(a item.AuthoredItem, r *Report) {
	for _, gp := range a.GrammarPoints {
		if strings.TrimSpace(gp) != "" {
			return
		}
	}
	r.add(SeverityContent, c.Name(), "grammar_points", "is empty")
}

func containsText(list []string, s string) bool {
	n := align.Normalize(s)
	for _, v := range list {
		if align.Normalize(v) == n {
			return true
		}
	}
	return false
}

func lastRune(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r := []rune(s)
	return string(r[len(r)-1])
}
