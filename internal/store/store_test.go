package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/sentcraft/internal/item"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func poolItem(key string, bucket item.Bucket) PoolItem {
	return PoolItem{
		Key:    key,
		Bucket: bucket,
		Score:  10,
		Item: item.AuthoredItem{
			ID:            "cand_" + key,
			Prompt:        "Ask a friend about the notes.",
			Answer:        "Did you get the notes?",
			Chunks:        []string{"did", "you get", "the notes"},
			Distractor:    nil,
			GrammarPoints: []string{"past simple question"},
		},
		RunID: "run-1",
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"pool_items", "question_sets", "llm_request_events", "sequences"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		seq, err := s.seq.Next(ctx, s.DB(), "a")
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq != int64(i) {
			t.Errorf("seq = %d, want %d", seq, i)
		}
	}

	// Counters are independent.
	seq, err := s.seq.Next(ctx, s.DB(), "b")
	if err != nil {
		t.Fatalf("next b: %v", err)
	}
	if seq != 1 {
		t.Errorf("b seq = %d, want 1", seq)
	}
}

func TestPoolAddCandidatesIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	repo := s.PoolRepo()
	ctx := context.Background()

	n, err := repo.AddCandidates(ctx, []PoolItem{
		poolItem("k1", item.BucketEasy),
		poolItem("k2", item.BucketMedium),
		poolItem("k1", item.BucketEasy),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if n != 2 {
		t.Errorf("added = %d, want 2", n)
	}

	n, err = repo.AddCandidates(ctx, []PoolItem{poolItem("k2", item.BucketMedium), poolItem("k3", item.BucketHard)})
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if n != 1 {
		t.Errorf("added = %d, want 1", n)
	}

	avail, err := repo.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(avail) != 3 {
		t.Fatalf("available = %d, want 3", len(avail))
	}
	if avail[0].Item.Answer != "Did you get the notes?" {
		t.Errorf("item not round-tripped: %+v", avail[0].Item)
	}
	if avail[0].Item.Distractor != nil {
		t.Errorf("null distractor decoded as %q", *avail[0].Item.Distractor)
	}
}

func TestCommitSetConsumesMembers(t *testing.T) {
	s := openTestStore(t)
	pool := s.PoolRepo()
	sets := s.SetRepo()
	ctx := context.Background()

	var items []PoolItem
	for i := range 4 {
		items = append(items, poolItem(fmt.Sprintf("k%d", i), item.BucketMedium))
	}
	if _, err := pool.AddCandidates(ctx, items); err != nil {
		t.Fatalf("add: %v", err)
	}

	set := &item.QuestionSet{SetID: "set_001", Questions: []item.AuthoredItem{items[0].Item, items[1].Item}}
	if err := sets.CommitSet(ctx, set, []string{"k0", "k1"}, "run-1"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	stats, err := pool.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Available[item.BucketMedium] != 2 || stats.Consumed != 2 {
		t.Errorf("stats = %+v, want 2 available medium and 2 consumed", stats)
	}

	keys, err := pool.ConsumedKeys(ctx)
	if err != nil {
		t.Fatalf("consumed keys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("consumed keys = %v", keys)
	}

	got, err := sets.Get(ctx, "set_001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || len(got.Set.Questions) != 2 || got.Sequence != 1 {
		t.Fatalf("stored set = %+v", got)
	}

	missing, err := sets.Get(ctx, "set_999")
	if err != nil || missing != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestCommitSetRollsBackOnConsumedMember(t *testing.T) {
	s := openTestStore(t)
	pool := s.PoolRepo()
	sets := s.SetRepo()
	ctx := context.Background()

	if _, err := pool.AddCandidates(ctx, []PoolItem{poolItem("k0", item.BucketEasy), poolItem("k1", item.BucketEasy)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := sets.CommitSet(ctx, &item.QuestionSet{SetID: "set_001"}, []string{"k0"}, ""); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	err := sets.CommitSet(ctx, &item.QuestionSet{SetID: "set_002"}, []string{"k0", "k1"}, "")
	if !errors.Is(err, ErrAlreadyConsumed) {
		t.Fatalf("err = %v, want ErrAlreadyConsumed", err)
	}

	n, err := sets.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("sets = %d, want 1", n)
	}
	avail, _ := pool.ListAvailable(ctx)
	if len(avail) != 1 || avail[0].Key != "k1" {
		t.Errorf("k1 should remain available, got %+v", avail)
	}
}

func TestSetListOrder(t *testing.T) {
	s := openTestStore(t)
	sets := s.SetRepo()
	ctx := context.Background()

	for _, id := range []string{"set_003", "set_001", "set_002"} {
		if err := sets.CommitSet(ctx, &item.QuestionSet{SetID: id}, nil, ""); err != nil {
			t.Fatalf("commit %s: %v", id, err)
		}
	}
	list, err := sets.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"set_003", "set_001", "set_002"}
	for i, s := range list {
		if s.Set.SetID != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, s.Set.SetID, want[i])
		}
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "item-gen", InputTokens: 100, OutputTokens: 900, LatencyMs: 1200, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "item-review", InputTokens: 800, OutputTokens: 200, LatencyMs: 600, Success: true},
		{Provider: "anthropic", Model: "claude-sonnet-4-5", Purpose: "item-gen", LatencyMs: 300, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("events = %d, want 3", len(all))
	}
	if all[0].Sequence != 3 {
		t.Errorf("newest first: got sequence %d", all[0].Sequence)
	}

	gen, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "item-gen", Limit: 1})
	if err != nil {
		t.Fatalf("query purpose: %v", err)
	}
	if len(gen) != 1 || gen[0].Success {
		t.Errorf("filtered = %+v", gen)
	}

	first, err := repo.GetLLMEvent(ctx, all[2].ID)
	if err != nil || first == nil {
		t.Fatalf("get: %v %v", first, err)
	}
	if first.RequestBody != "req" || first.ResponseBody != "resp" {
		t.Errorf("bodies not stored: %+v", first)
	}
	if time.Since(first.Timestamp) > time.Minute {
		t.Errorf("timestamp = %v", first.Timestamp)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[0].Purpose != "item-gen" || byPurpose[0].Calls != 2 || byPurpose[0].AvgLatencyMs != 750 {
		t.Errorf("by purpose = %+v", byPurpose)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 1 || byModel[0].Calls != 2 || byModel[0].InputTokens != 900 {
		t.Errorf("by model = %+v", byModel)
	}
}
