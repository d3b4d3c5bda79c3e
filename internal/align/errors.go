package align

import "fmt"

// AlignmentError reports that an authored item cannot be mechanically
// mapped onto the runtime slot model.
type AlignmentError struct {
	ItemID string // Empty when raised below NormalizeToRuntime
	Op     string // Operation that failed, e.g. "derive-given-index"
	Reason string // Human-readable description
}

func (e *AlignmentError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("align %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("align %s: item %q: %s", e.Op, e.ItemID, e.Reason)
}

// Invariant names a runtime slot-model invariant.
type Invariant string

const (
	InvariantEmpty          Invariant = "non-empty"
	InvariantLength         Invariant = "equal-length"
	InvariantDuplicate      Invariant = "duplicate-free"
	InvariantPermutation    Invariant = "bank-permutation"
	InvariantGivenIndex     Invariant = "given-index-range"
	InvariantRoundTrip      Invariant = "round-trip"
	InvariantMultipleGiven  Invariant = "single-given"
	InvariantDistractorBank Invariant = "distractor-not-in-bank"
)

// RuntimeError reports a violated runtime invariant on a specific item.
type RuntimeError struct {
	ItemID    string
	Invariant Invariant
	Detail    string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("item %q violates %s: %s", e.ItemID, e.Invariant, e.Detail)
}
