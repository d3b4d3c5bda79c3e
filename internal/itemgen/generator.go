// Package itemgen asks an LLM for candidate "Build a Sentence" items and for
// reviews of composed sets. It returns authored items as the model wrote
// them; validation, alignment and difficulty estimation happen downstream.
package itemgen

import (
	"context"

	"github.com/abhisek/sentcraft/internal/item"
)

// Generator produces batches of candidate items.
type Generator interface {
	// Generate returns up to input.Count candidates. Items are not
	// validated; callers run them through the validator and aligner.
	Generate(ctx context.Context, input GenerateInput) ([]item.AuthoredItem, error)
}

// Reviewer scores a group of items as a second opinion on quality.
type Reviewer interface {
	Review(ctx context.Context, items []item.AuthoredItem) (*Review, error)
}
