package item

// AuthoredItem is the authoring-time representation of a "Build a Sentence"
// item. Field names and JSON tags are the question-bank wire format and must
// not change.
type AuthoredItem struct {
	// ID identifies the item. Composed sets rewrite it to "{set_id}_q{n}".
	ID string `json:"id"`

	// Prompt is the context line shown above the sentence.
	Prompt string `json:"prompt"`

	// Answer is the canonical full sentence, including terminal punctuation.
	Answer string `json:"answer"`

	// Chunks are the movable word groups (at most 3 words, lowercase).
	// Authored order is irrelevant. The distractor, if any, is listed here.
	Chunks []string `json:"chunks"`

	// Prefilled holds zero or one chunk that is placed for the learner.
	Prefilled []string `json:"prefilled"`

	// PrefilledPositions maps each prefilled chunk to its 0-indexed word
	// offset in Answer.
	PrefilledPositions map[string]int `json:"prefilled_positions"`

	// Distractor is a chunk that must never appear in Answer. Nil when the
	// item has no distractor; serialized as null.
	Distractor *string `json:"distractor"`

	// HasQuestionMark reports whether Answer ends in "?".
	HasQuestionMark bool `json:"has_question_mark"`

	// GrammarPoints tags the grammar the item exercises.
	GrammarPoints []string `json:"grammar_points"`
}

// RuntimeItem is the serving-time slot model consumed by renderers.
type RuntimeItem struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt,omitempty"`
	Answer string `json:"answer,omitempty"`

	// AnswerOrder is the movable chunks in the single correct sequence.
	AnswerOrder []string `json:"answerOrder"`

	// Bank is the same chunks as AnswerOrder in display order.
	Bank []string `json:"bank"`

	// Given is the fixed chunk, or nil.
	Given *string `json:"given"`

	// GivenIndex is the insertion slot for Given among AnswerOrder,
	// in [0, len(AnswerOrder)].
	GivenIndex int `json:"givenIndex"`

	// ResponseSuffix is the terminal punctuation appended on reconstruction.
	ResponseSuffix string `json:"responseSuffix"`

	// Distractor is mixed into the displayed bank by renderers. It is never
	// a member of Bank.
	Distractor *string `json:"distractor,omitempty"`
}

// HasGiven reports whether the item has a fixed chunk.
func (r RuntimeItem) HasGiven() bool {
	return r.Given != nil && *r.Given != ""
}

// SetSize is the number of items in a composed question set.
const SetSize = 10

// QuestionSet is a composed, immutable set of items.
type QuestionSet struct {
	SetID     string         `json:"set_id"`
	Questions []AuthoredItem `json:"questions"`
}

// Bucket is a difficulty classification.
type Bucket string

const (
	BucketEasy   Bucket = "easy"
	BucketMedium Bucket = "medium"
	BucketHard   Bucket = "hard"
)

// AllBuckets returns the buckets in ascending difficulty.
func AllBuckets() []Bucket {
	return []Bucket{BucketEasy, BucketMedium, BucketHard}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
