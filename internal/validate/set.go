package validate

import (
	"fmt"
	"strings"

	"github.com/abhisek/sentcraft/internal/item"
)

// Range is an inclusive integer window.
type Range struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

// Contains reports whether n lies in [Min, Max].
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// SetRules bounds the aggregate style counts of a question set.
type SetRules struct {
	QuestionMarks Range `mapstructure:"question_marks"`
	Distractors   Range `mapstructure:"distractors"`
	Embedded      Range `mapstructure:"embedded"`
}

// DefaultSetRules returns the windows used for 10-item sets.
func DefaultSetRules() SetRules {
	return SetRules{
		QuestionMarks: Range{Min: 2, Max: 6},
		Distractors:   Range{Min: 2, Max: 7},
		Embedded:      Range{Min: 1, Max: 5},
	}
}

// SetResult is the outcome of ValidateSet.
type SetResult struct {
	OK     bool
	Errors []string
}

// SetCounts are the aggregate style counts of a set.
type SetCounts struct {
	QuestionMarks int
	Distractors   int
	Embedded      int
}

// CountSet tallies question marks, distractors and embedded-question tags.
func CountSet(items []item.AuthoredItem) SetCounts {
	var c SetCounts
	for _, a := range items {
		if strings.HasSuffix(strings.TrimSpace(a.Answer), "?") {
			c.QuestionMarks++
		}
		if a.HasDistractor() {
			c.Distractors++
		}
		if item.HasEmbeddedMarker(a.GrammarPoints) {
			c.Embedded++
		}
	}
	return c
}

// ValidateSet runs the set-level aggregate checks.
func ValidateSet(items []item.AuthoredItem, rules SetRules) SetResult {
	var errs []string

	seen := make(map[string]bool, len(items))
	for _, a := range items {
		if seen[a.ID] {
			errs = append(errs, fmt.Sprintf("duplicate id %q", a.ID))
		}
		seen[a.ID] = true
	}

	c := CountSet(items)
	if !rules.QuestionMarks.Contains(c.QuestionMarks) {
		errs = append(errs, fmt.Sprintf("question-mark count %d outside %s", c.QuestionMarks, rules.QuestionMarks))
	}
	if !rules.Distractors.Contains(c.Distractors) {
		errs = append(errs, fmt.Sprintf("distractor count %d outside %s", c.Distractors, rules.Distractors))
	}
	if !rules.Embedded.Contains(c.Embedded) {
		errs = append(errs, fmt.Sprintf("embedded-question count %d outside %s", c.Embedded, rules.Embedded))
	}

	return SetResult{OK: len(errs) == 0, Errors: errs}
}
