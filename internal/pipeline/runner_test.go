package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/sentcraft/internal/compose"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/itemgen"
	"github.com/abhisek/sentcraft/internal/store"
)

func title(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}

func easyFor(name string) item.AuthoredItem {
	return item.AuthoredItem{
		ID:              "e_" + name,
		Prompt:          "You ask a classmate about the notes.",
		Answer:          fmt.Sprintf("Did %s send you the notes yesterday?", title(name)),
		Chunks:          []string{"did", name, "send you", "the notes", "yesterday"},
		HasQuestionMark: true,
		GrammarPoints:   []string{"past simple question"},
	}
}

func mediumFor(name string) item.AuthoredItem {
	return item.AuthoredItem{
		ID:            "m_" + name,
		Prompt:        "Your manager asks about the report.",
		Answer:        fmt.Sprintf("%s has already finished the report for the meeting.", title(name)),
		Chunks:        []string{name, "has already", "finished", "the report", "for", "the meeting"},
		GrammarPoints: []string{"present perfect"},
	}
}

func hardFor(name string) item.AuthoredItem {
	return item.AuthoredItem{
		ID:              "h_" + name,
		Prompt:          "You are planning a team lunch.",
		Answer:          fmt.Sprintf("Do you know whether %s will be able to join us?", title(name)),
		Chunks:          []string{"do you know", "whether", name, "will be able", "to join", "us", "if"},
		Distractor:      item.StringPtr("if"),
		HasQuestionMark: true,
		GrammarPoints:   []string{"embedded question (whether)"},
	}
}

// oneSetBatch returns exactly the 2/5/3 items one set needs.
func oneSetBatch(names ...string) []item.AuthoredItem {
	var out []item.AuthoredItem
	for _, n := range names[:2] {
		out = append(out, easyFor(n))
	}
	for _, n := range names[:5] {
		out = append(out, mediumFor(n))
	}
	for _, n := range names[:3] {
		out = append(out, hardFor(n))
	}
	return out
}

var crew = []string{"anna", "ben", "carla", "dev", "ella"}

type scriptedGenerator struct {
	batches [][]item.AuthoredItem
	inputs  []itemgen.GenerateInput
}

func (g *scriptedGenerator) Generate(_ context.Context, input itemgen.GenerateInput) ([]item.AuthoredItem, error) {
	g.inputs = append(g.inputs, input)
	if len(g.batches) == 0 {
		return nil, errors.New("script exhausted")
	}
	b := g.batches[0]
	g.batches = g.batches[1:]
	return b, nil
}

type fixedReviewer struct {
	rejected map[string]bool
}

func (r fixedReviewer) Review(_ context.Context, items []item.AuthoredItem) (*itemgen.Review, error) {
	rev := &itemgen.Review{OverallScore: 8, Blockers: []string{}}
	for _, it := range items {
		score := 9.0
		if r.rejected[it.ID] {
			score = 3
		}
		rev.QuestionScores = append(rev.QuestionScores, itemgen.QuestionScore{ID: it.ID, Score: score})
	}
	return rev, nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRunner(s *store.Store, gen itemgen.Generator, cfg Config, opts ...Option) *Runner {
	c := compose.New(compose.DefaultConfig(), compose.WithRand(rand.New(rand.NewPCG(7, 11))))
	return New(gen, s.PoolRepo(), s.SetRepo(), c, cfg, opts...)
}

func TestRun_GeneratesAndCommitsSet(t *testing.T) {
	s := openStore(t)
	broken := easyFor("zed")
	broken.ID = "broken"
	broken.Answer = ""

	gen := &scriptedGenerator{batches: [][]item.AuthoredItem{
		append(oneSetBatch(crew...), broken),
	}}
	cfg := DefaultConfig()
	rep, err := newRunner(s, gen, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"set_001"}, rep.Sets)
	assert.Equal(t, 1, rep.Rounds)
	assert.Equal(t, 11, rep.Generated)
	assert.Equal(t, 10, rep.Added)
	assert.Equal(t, 1, rep.RejectedValidation)
	assert.NotEmpty(t, rep.RunID)

	// The first round asks for a full set.
	assert.Equal(t, difficulty.TargetCount10(), gen.inputs[0].Need)

	stored, err := s.SetRepo().Get(context.Background(), "set_001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rep.RunID, stored.RunID)
	require.Len(t, stored.Set.Questions, item.SetSize)
	assert.Equal(t, "set_001_q1", stored.Set.Questions[0].ID)

	stats, err := s.PoolRepo().Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Consumed)
	assert.Zero(t, stats.Available[item.BucketEasy]+stats.Available[item.BucketMedium]+stats.Available[item.BucketHard])
}

func TestRun_ComposesFromExistingPoolWithoutGenerating(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var rows []store.PoolItem
	for _, it := range oneSetBatch(crew...) {
		p := difficulty.Estimate(it)
		rows = append(rows, store.PoolItem{Key: compose.ContentKey(it), Bucket: p.Bucket, Score: p.Score, Item: it})
	}
	_, err := s.PoolRepo().AddCandidates(ctx, rows)
	require.NoError(t, err)

	gen := &scriptedGenerator{}
	rep, err := newRunner(s, gen, DefaultConfig()).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"set_001"}, rep.Sets)
	assert.Zero(t, rep.Rounds)
	assert.Empty(t, gen.inputs)
}

func TestRun_ReviewerGatesCandidates(t *testing.T) {
	s := openStore(t)
	batch := oneSetBatch(crew...)
	gen := &scriptedGenerator{batches: [][]item.AuthoredItem{batch, batch}}
	rev := fixedReviewer{rejected: map[string]bool{"h_anna": true}}

	cfg := DefaultConfig()
	cfg.Rounds = 2
	rep, err := newRunner(s, gen, cfg, WithReviewer(rev)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rep.Sets, "one hard item short of a set")
	assert.Equal(t, 2, rep.Rounds)
	assert.Equal(t, 2, rep.RejectedReview)
	assert.Equal(t, 9, rep.Added, "the second batch adds nothing new")

	// The second round asks for the missing hard item.
	require.Len(t, gen.inputs, 2)
	assert.Equal(t, difficulty.Mix[int]{Hard: 1}, gen.inputs[1].Need)
	assert.Len(t, gen.inputs[1].AvoidAnswers, 9)

	avail, err := s.PoolRepo().ListAvailable(context.Background())
	require.NoError(t, err)
	for _, p := range avail {
		assert.Equal(t, 9.0, p.ReviewScore)
	}
}

func TestRun_RoundLogCountsBeforeReview(t *testing.T) {
	s := openStore(t)
	batch := oneSetBatch(crew...)
	gen := &scriptedGenerator{batches: [][]item.AuthoredItem{batch}}
	rev := fixedReviewer{rejected: map[string]bool{"h_anna": true}}
	core, logs := observer.New(zap.InfoLevel)

	cfg := DefaultConfig()
	cfg.Rounds = 1
	_, err := newRunner(s, gen, cfg, WithReviewer(rev), WithLogger(zap.New(core))).Run(context.Background())
	require.NoError(t, err)

	rounds := logs.FilterMessage("round complete").All()
	require.Len(t, rounds, 1)
	fields := rounds[0].ContextMap()
	assert.Equal(t, int64(len(batch)), fields["generated"])
	assert.Equal(t, int64(len(batch)-1), fields["added"])
}

func TestRun_RerunIgnoresConsumedContent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Rounds = 1

	first, err := newRunner(s, &scriptedGenerator{batches: [][]item.AuthoredItem{oneSetBatch(crew...)}}, cfg).Run(ctx)
	require.NoError(t, err)
	require.Len(t, first.Sets, 1)

	// The same content again cannot re-enter the pool.
	second, err := newRunner(s, &scriptedGenerator{batches: [][]item.AuthoredItem{oneSetBatch(crew...)}}, cfg).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Sets)
	assert.Zero(t, second.Added)
	assert.NotEqual(t, first.RunID, second.RunID)

	// Fresh content completes set_002.
	third, err := newRunner(s, &scriptedGenerator{batches: [][]item.AuthoredItem{
		oneSetBatch("farid", "gina", "hugo", "ivy", "jonas"),
	}}, cfg).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"set_002"}, third.Sets)

	n, err := s.SetRepo().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRun_GenerationFailureCostsARound(t *testing.T) {
	s := openStore(t)
	cfg := DefaultConfig()
	cfg.Rounds = 3
	gen := &scriptedGenerator{}

	rep, err := newRunner(s, gen, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Rounds)
	assert.Len(t, gen.inputs, 3)
	assert.Empty(t, rep.Sets)
}

func TestRun_ContextCancelled(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(s, &scriptedGenerator{}, DefaultConfig()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIngest_ScreensAndPoolsWithoutComposing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	broken := mediumFor("zoe")
	broken.Chunks = []string{"zoe", "has", "finished"}
	items := append(oneSetBatch(crew...), broken)

	r := newRunner(s, nil, DefaultConfig())
	rep, err := r.Ingest(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 11, rep.Generated)
	assert.Equal(t, 10, rep.Added)
	assert.Equal(t, 1, rep.RejectedValidation)
	assert.Empty(t, rep.Sets)

	again, err := r.Ingest(ctx, items)
	require.NoError(t, err)
	assert.Zero(t, again.Added)

	n, err := s.SetRepo().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeficit(t *testing.T) {
	pool := []store.PoolItem{
		{Bucket: item.BucketEasy}, {Bucket: item.BucketEasy}, {Bucket: item.BucketEasy},
		{Bucket: item.BucketMedium},
	}
	assert.Equal(t, difficulty.Mix[int]{Medium: 4, Hard: 3}, deficit(pool, 1))
	assert.Equal(t, difficulty.Mix[int]{Easy: 1, Medium: 9, Hard: 6}, deficit(pool, 2))
	assert.Equal(t, difficulty.TargetCount10(), deficit(nil, 0))
}
