package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/sentcraft/internal/item"
)

// ErrAlreadyConsumed is returned by CommitSet when a member's content was
// consumed by another set or never pooled.
var ErrAlreadyConsumed = errors.New("pool item already consumed or missing")

// PoolItem is a persisted candidate.
type PoolItem struct {
	Key         string
	Bucket      item.Bucket
	Score       float64
	Item        item.AuthoredItem
	RunID       string
	ReviewScore float64
	CreatedAt   time.Time
	// ConsumedBy is the set id that took this item, or "".
	ConsumedBy string
}

// PoolStats counts pooled items.
type PoolStats struct {
	Available map[item.Bucket]int
	Consumed  int
}

// PoolRepo persists the candidate pool.
type PoolRepo interface {
	// AddCandidates inserts items whose key is not yet stored and returns
	// how many were new.
	AddCandidates(ctx context.Context, items []PoolItem) (int, error)

	// ListAvailable returns unconsumed items, oldest first.
	ListAvailable(ctx context.Context) ([]PoolItem, error)

	// ConsumedKeys returns the keys of every consumed item.
	ConsumedKeys(ctx context.Context) ([]string, error)

	Stats(ctx context.Context) (PoolStats, error)
}

// StoredSet is a persisted question set.
type StoredSet struct {
	Set       item.QuestionSet
	Sequence  int64
	RunID     string
	CreatedAt time.Time
}

// SetRepo persists composed question sets.
type SetRepo interface {
	// CommitSet stores set and marks the pool items with the given content
	// keys consumed by it, atomically.
	CommitSet(ctx context.Context, set *item.QuestionSet, keys []string, runID string) error

	// List returns every stored set in commit order.
	List(ctx context.Context) ([]StoredSet, error)

	// Get returns the set with the given id, or nil.
	Get(ctx context.Context, setID string) (*StoredSet, error)

	Count(ctx context.Context) (int, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM call.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates calls by purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates calls by model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns nil when no event has the id.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
