package validate

import (
	"github.com/abhisek/sentcraft/internal/item"
)

// Limits bounds the shape of a well-formed item.
type Limits struct {
	MinChunks      int
	MaxChunks      int
	MinAnswerWords int
	MaxAnswerWords int
	MaxChunkWords  int
}

// DefaultLimits returns the exam format limits.
func DefaultLimits() Limits {
	return Limits{
		MinChunks:      5,
		MaxChunks:      8,
		MinAnswerWords: 7,
		MaxAnswerWords: 15,
		MaxChunkWords:  3,
	}
}

// DefaultChecks returns the standard check chain for the given limits.
func DefaultChecks(lim Limits) []Check {
	return []Check{
		&RequiredCheck{},
		&PrefilledCheck{},
		&MultisetCheck{},
		&DistractorCheck{},
		&DuplicateChunkCheck{},
		&ShapeCheck{Limits: lim},
		&QuestionMarkCheck{},
		&GrammarCheck{},
	}
}

// Validator runs a check chain over authored items. Every check runs;
// findings accumulate in the report.
type Validator struct {
	checks []Check
}

// New creates a Validator with the given checks.
func New(checks ...Check) *Validator {
	return &Validator{checks: checks}
}

// Default creates a Validator with DefaultChecks(DefaultLimits()).
func Default() *Validator {
	return New(DefaultChecks(DefaultLimits())...)
}

// ValidateItem runs every check on a.
func (v *Validator) ValidateItem(a item.AuthoredItem) Report {
	r := Report{ItemID: a.ID}
	for _, c := range v.checks {
		c.Check(a, &r)
	}
	return r
}

// ValidateItem validates a with the default check chain.
func ValidateItem(a item.AuthoredItem) Report {
	return Default().ValidateItem(a)
}
