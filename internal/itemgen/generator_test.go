package itemgen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/llm"
	"github.com/abhisek/sentcraft/internal/validate"
)

const batchItems = `[
	{
		"id": "g1",
		"prompt": "You missed the lecture and ask a classmate.",
		"answer": "Could you send me the slides after class today?",
		"chunks": ["could you", "send me", "the slides", "after class", "yesterday"],
		"prefilled": [{"chunk": "today", "position": 8}],
		"distractor": "yesterday",
		"grammar_points": ["polite request"]
	},
	{
		"id": "g2",
		"prompt": "A colleague asks about the meeting.",
		"answer": "Do you know when the meeting with the client starts?",
		"chunks": ["do you know", "when", "the meeting", "with the client", "starts"],
		"prefilled": [],
		"distractor": null,
		"grammar_points": ["embedded question"]
	}
]`

func wrappedBatch() json.RawMessage {
	return json.RawMessage(`{"items":` + batchItems + `}`)
}

func TestGenerate_ParsesWrappedBatch(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: wrappedBatch()})
	gen := New(mock, DefaultConfig())

	items, err := gen.Generate(context.Background(), GenerateInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if !strings.HasPrefix(first.ID, "gen_") || strings.HasSuffix(first.ID, "g1") {
		t.Errorf("expected generated id, got %q", first.ID)
	}
	if first.ID == items[1].ID {
		t.Errorf("ids not unique: %q", first.ID)
	}
	if !first.HasQuestionMark {
		t.Error("expected HasQuestionMark from answer")
	}
	if len(first.Prefilled) != 1 || first.PrefilledPositions["today"] != 8 {
		t.Errorf("prefilled not converted: %v %v", first.Prefilled, first.PrefilledPositions)
	}
	if first.Distractor == nil || *first.Distractor != "yesterday" {
		t.Errorf("distractor = %v", first.Distractor)
	}
	if items[1].Distractor != nil {
		t.Errorf("null distractor decoded as %q", *items[1].Distractor)
	}
	if items[1].Prefilled == nil || items[1].PrefilledPositions == nil {
		t.Error("empty prefilled should serialize as [] and {}")
	}
}

func TestGenerate_ItemsAreUsable(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: wrappedBatch()})
	items, err := New(mock, DefaultConfig()).Generate(context.Background(), GenerateInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, it := range items {
		if rep := validate.ValidateItem(it); len(rep.Fatal) > 0 {
			t.Errorf("%s: fatal issues %v", it.ID, rep.Messages())
		}
		if _, err := align.NormalizeToRuntime(item.PositionBased{AuthoredItem: it}); err != nil {
			t.Errorf("%s: normalize: %v", it.ID, err)
		}
	}
}

func TestGenerate_ParsesBareArray(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(batchItems)})
	items, err := New(mock, DefaultConfig()).Generate(context.Background(), GenerateInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
}

func TestGenerate_RequestShape(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: wrappedBatch()})
	cfg := DefaultConfig()
	cfg.MaxPriorAnswers = 2
	gen := New(mock, cfg)

	_, err := gen.Generate(context.Background(), GenerateInput{
		Count:        6,
		Need:         difficulty.Mix[int]{Easy: 1, Medium: 2, Hard: 3},
		AvoidAnswers: []string{"First one.", "Second one.", "Third one."},
		GrammarFocus: []string{"embedded question"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := mock.Calls[0]
	if req.Schema != ItemBatchSchema {
		t.Error("expected the item batch schema")
	}
	if req.MaxTokens != cfg.MaxTokens || req.Temperature != cfg.Temperature {
		t.Errorf("limits = %d/%v", req.MaxTokens, req.Temperature)
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"Write 6 items.", "1 easy, 2 medium, 3 hard", "Grammar focus: embedded question", "1. Second one.", "2. Third one."} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "First one.") {
		t.Error("prior answers beyond the cap should be dropped")
	}
}

func TestGenerate_DefaultCountAndMix(t *testing.T) {
	msg := buildGenerateMessage(GenerateInput{}, DefaultConfig())
	if !strings.Contains(msg, "Write 10 items.") {
		t.Errorf("expected default batch size:\n%s", msg)
	}
	if !strings.Contains(msg, "2 easy, 5 medium, 3 hard") {
		t.Errorf("expected the standard mix:\n%s", msg)
	}
	if !strings.Contains(msg, "Already used answers:\nNone") {
		t.Errorf("expected None for no prior answers:\n%s", msg)
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}})
	_, err := New(mock, DefaultConfig()).Generate(context.Background(), GenerateInput{})
	var rl *llm.ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected wrapped ErrRateLimit, got %v", err)
	}
}

func TestGenerate_MalformedResponse(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"items":"nope"}`)})
	if _, err := New(mock, DefaultConfig()).Generate(context.Background(), GenerateInput{}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGenerate_SetsPurpose(t *testing.T) {
	var seen string
	p := purposeRecorder{fn: func(ctx context.Context) { seen = llm.PurposeFrom(ctx) }, content: wrappedBatch()}
	if _, err := New(p, DefaultConfig()).Generate(context.Background(), GenerateInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != llm.PurposeItemGen {
		t.Errorf("purpose = %q", seen)
	}
}

type purposeRecorder struct {
	fn      func(context.Context)
	content json.RawMessage
}

func (p purposeRecorder) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	p.fn(ctx)
	return &llm.Response{Content: p.content}, nil
}

func (p purposeRecorder) ModelID() string { return "recorder" }
