package itemgen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/llm"
)

// LLMReviewer implements Reviewer using an LLM provider.
type LLMReviewer struct {
	provider llm.Provider
	config   Config
}

// NewReviewer creates a new LLMReviewer.
func NewReviewer(provider llm.Provider, cfg Config) *LLMReviewer {
	return &LLMReviewer{provider: provider, config: cfg}
}

func (r *LLMReviewer) Review(ctx context.Context, items []item.AuthoredItem) (*Review, error) {
	if len(items) == 0 {
		return &Review{}, nil
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeItemReview)

	resp, err := r.provider.Generate(ctx, llm.Request{
		System: reviewerSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildReviewMessage(items)},
		},
		Schema:    ReviewSchema,
		MaxTokens: r.config.ReviewMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM review failed: %w", err)
	}

	var rev Review
	if err := json.Unmarshal(resp.Content, &rev); err != nil {
		return nil, fmt.Errorf("failed to parse review: %w", err)
	}
	return &rev, nil
}
