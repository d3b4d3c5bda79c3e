package itemgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/llm"
)

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// prefilledOutput is one prefilled chunk. The wire form is a list rather
// than a map so the schema stays valid in strict mode.
type prefilledOutput struct {
	Chunk    string `json:"chunk"`
	Position int    `json:"position"`
}

// itemOutput is one raw item as the model writes it.
type itemOutput struct {
	ID            string            `json:"id"`
	Prompt        string            `json:"prompt"`
	Answer        string            `json:"answer"`
	Chunks        []string          `json:"chunks"`
	Prefilled     []prefilledOutput `json:"prefilled"`
	Distractor    *string           `json:"distractor"`
	GrammarPoints []string          `json:"grammar_points"`
}

func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) ([]item.AuthoredItem, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeItemGen)

	req := llm.Request{
		System: generatorSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildGenerateMessage(input, g.config)},
		},
		Schema:      ItemBatchSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	raw, err := parseBatch(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	batch := uuid.NewString()[:8]
	out := make([]item.AuthoredItem, 0, len(raw))
	for i, r := range raw {
		out = append(out, r.toAuthored(fmt.Sprintf("gen_%s_%02d", batch, i+1)))
	}
	return out, nil
}

// parseBatch accepts {"items":[...]} or a bare array. Providers without
// schema enforcement sometimes drop the wrapper.
func parseBatch(content []byte) ([]itemOutput, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []itemOutput
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var wrapped struct {
		Items []itemOutput `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

// toAuthored converts the wire form. Model ids are only unique within a
// batch, so every item gets id. HasQuestionMark is derived from the answer
// rather than trusted.
func (o itemOutput) toAuthored(id string) item.AuthoredItem {
	a := item.AuthoredItem{
		ID:              id,
		Prompt:          strings.TrimSpace(o.Prompt),
		Answer:          strings.TrimSpace(o.Answer),
		Chunks:          o.Chunks,
		GrammarPoints:   o.GrammarPoints,
		HasQuestionMark: strings.HasSuffix(strings.TrimSpace(o.Answer), "?"),
	}
	if a.Chunks == nil {
		a.Chunks = []string{}
	}
	if a.GrammarPoints == nil {
		a.GrammarPoints = []string{}
	}
	a.Prefilled = []string{}
	a.PrefilledPositions = map[string]int{}
	for _, p := range o.Prefilled {
		a.Prefilled = append(a.Prefilled, p.Chunk)
		a.PrefilledPositions[p.Chunk] = p.Position
	}
	if o.Distractor != nil && strings.TrimSpace(*o.Distractor) != "" {
		a.Distractor = item.StringPtr(strings.TrimSpace(*o.Distractor))
	}
	return a
}
