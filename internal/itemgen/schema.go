package itemgen

import "github.com/abhisek/sentcraft/internal/llm"

// Every object lists all of its properties as required and closes
// additionalProperties, which OpenAI strict mode demands. Optional values
// are nullable instead.

var itemDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id": map[string]any{
			"type":        "string",
			"description": "Short unique id for the item within this batch, e.g. \"g1\"",
		},
		"prompt": map[string]any{
			"type":        "string",
			"description": "One-line situation that motivates the sentence",
		},
		"answer": map[string]any{
			"type":        "string",
			"description": "The full correct sentence with terminal punctuation",
		},
		"chunks": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Lowercase word groups of 1-3 words. Together with the prefilled chunk they cover the answer exactly; the distractor is listed here too.",
		},
		"prefilled": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"chunk": map[string]any{
						"type":        "string",
						"description": "Words shown already placed",
					},
					"position": map[string]any{
						"type":        "integer",
						"minimum":     0,
						"description": "0-indexed word offset of the chunk in the answer",
					},
				},
				"required":             []any{"chunk", "position"},
				"additionalProperties": false,
			},
			"description": "Zero or one chunk given to the learner",
		},
		"distractor": map[string]any{
			"type":        []any{"string", "null"},
			"description": "A plausible chunk that does not belong in the answer, or null",
		},
		"grammar_points": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Grammar tags, e.g. \"embedded question\", \"present perfect\"",
		},
	},
	"required":             []any{"id", "prompt", "answer", "chunks", "prefilled", "distractor", "grammar_points"},
	"additionalProperties": false,
}

// ItemBatchSchema is the structured-output schema for generation.
var ItemBatchSchema = &llm.Schema{
	Name:        "sentence-item-batch",
	Description: "A batch of Build a Sentence items",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":  "array",
				"items": itemDefinition,
			},
		},
		"required":             []any{"items"},
		"additionalProperties": false,
	},
}

// ReviewSchema is the structured-output schema for set review.
var ReviewSchema = &llm.Schema{
	Name:        "sentence-item-review",
	Description: "Quality review of a group of Build a Sentence items",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_score": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     10,
				"description": "Overall quality from 0 (unusable) to 10 (exam ready)",
			},
			"blockers": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Problems that make the whole group unusable. Empty when there are none.",
			},
			"question_scores": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":    map[string]any{"type": "string"},
						"score": map[string]any{"type": "number", "minimum": 0, "maximum": 10},
						"issues": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
					"required":             []any{"id", "score", "issues"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"overall_score", "blockers", "question_scores"},
		"additionalProperties": false,
	},
}
