package compose

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/validate"
)

var names = []string{"anna", "ben", "carla", "dev", "ella", "farid", "gina", "hugo", "ivy", "jonas", "kira", "liam"}

func title(s string) string {
	return strings.ToUpper(s[:1]) + s[1:]
}

func easyFor(name string) item.AuthoredItem {
	return item.AuthoredItem{
		ID:              "e_" + name,
		Answer:          fmt.Sprintf("Did %s send you the notes yesterday?", title(name)),
		Chunks:          []string{"did", name, "send you", "the notes", "yesterday"},
		HasQuestionMark: true,
		GrammarPoints:   []string{"past simple question"},
	}
}

func mediumFor(name string) item.AuthoredItem {
	return item.AuthoredItem{
		ID:            "m_" + name,
		Answer:        fmt.Sprintf("%s has already finished the report for the meeting.", title(name)),
		Chunks:        []string{name, "has already", "finished", "the report", "for", "the meeting"},
		GrammarPoints: []string{"present perfect"},
	}
}

func hardFor(name string) item.AuthoredItem {
	return item.AuthoredItem{
		ID:              "h_" + name,
		Answer:          fmt.Sprintf("Do you know whether %s will be able to join us?", title(name)),
		Chunks:          []string{"do you know", "whether", name, "will be able", "to join", "us", "if"},
		Distractor:      item.StringPtr("if"),
		HasQuestionMark: true,
		GrammarPoints:   []string{"embedded question (whether)"},
	}
}

func buildPool(easy, medium, hard int) *Pool {
	var items []item.AuthoredItem
	for _, n := range names[:easy] {
		items = append(items, easyFor(n))
	}
	for _, n := range names[:medium] {
		items = append(items, mediumFor(n))
	}
	for _, n := range names[:hard] {
		items = append(items, hardFor(n))
	}
	return NewPool(items...)
}

func testComposer(cfg Config) *Composer {
	return New(cfg, WithRand(rand.New(rand.NewPCG(1, 2))), WithLogger(zap.NewNop()))
}

func TestFixtureBuckets(t *testing.T) {
	assert.Equal(t, item.BucketEasy, difficulty.Estimate(easyFor("anna")).Bucket)
	assert.Equal(t, item.BucketMedium, difficulty.Estimate(mediumFor("anna")).Bucket)
	assert.Equal(t, item.BucketHard, difficulty.Estimate(hardFor("anna")).Bucket)
}

func TestContentKey_IgnoresID(t *testing.T) {
	a := easyFor("anna")
	b := a.Clone()
	b.ID = "set_009_q4"
	assert.Equal(t, ContentKey(a), ContentKey(b))
	assert.NotEqual(t, ContentKey(a), ContentKey(easyFor("ben")))

	c := hardFor("anna")
	c.Distractor = nil
	assert.NotEqual(t, ContentKey(hardFor("anna")), ContentKey(c))
}

func TestPool_AddIsIdempotent(t *testing.T) {
	p := NewPool(easyFor("anna"), mediumFor("anna"))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 0, p.Add(easyFor("anna")))
	assert.Equal(t, difficulty.Mix[int]{Easy: 1, Medium: 1}, p.Sizes())

	p.Remove(ContentKey(easyFor("anna")))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 0, p.Add(easyFor("anna")), "consumed content is not re-added")

	p.MarkConsumed(ContentKey(hardFor("ben")))
	assert.Equal(t, 0, p.Add(hardFor("ben")))
	assert.Equal(t, 1, p.Add(hardFor("carla")))
}

func TestStyle(t *testing.T) {
	set := []item.AuthoredItem{easyFor("anna"), mediumFor("anna"), hardFor("anna")}
	s := Style(set)
	assert.Equal(t, 2, s.QuestionMarks)
	assert.Equal(t, 1, s.Distractors)
	assert.Equal(t, 1, s.Embedded)
	assert.InDelta(t, 9.0, s.MeanAnswerWords, 1e-9)
	assert.InDelta(t, 17.0/3, s.MeanChunks, 1e-9)

	ok, reason := StrictBand().Admits(s)
	assert.False(t, ok)
	assert.Contains(t, reason, "question marks")
}

func TestComposeOneSet(t *testing.T) {
	pool := buildPool(4, 8, 5)
	c := testComposer(DefaultConfig())

	set, ok := c.ComposeOneSet(pool, "set_001", 50)
	require.True(t, ok)
	require.Len(t, set.Questions, item.SetSize)
	assert.Equal(t, "set_001", set.SetID)

	for i, q := range set.Questions {
		assert.Equal(t, fmt.Sprintf("set_001_q%d", i+1), q.ID)
		_, err := align.NormalizeToRuntime(item.PositionBased{AuthoredItem: q})
		assert.NoError(t, err, q.ID)
	}
	assert.True(t, difficulty.MeetsTargetCount10(set.Questions))
	assert.True(t, validate.ValidateSet(set.Questions, validate.DefaultSetRules()).OK)

	assert.Equal(t, 7, pool.Len())
	assert.Equal(t, difficulty.Mix[int]{Easy: 2, Medium: 3, Hard: 2}, pool.Sizes())
}

func TestComposeOneSet_ShortBucket(t *testing.T) {
	pool := buildPool(1, 8, 5)
	set, ok := testComposer(DefaultConfig()).ComposeOneSet(pool, "set_001", 50)
	assert.False(t, ok)
	assert.Nil(t, set)
	assert.Equal(t, 14, pool.Len())
}

func TestComposeOneSet_FailureLeavesPoolUntouched(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetRules.QuestionMarks = validate.Range{Min: 9, Max: 10}
	pool := buildPool(4, 8, 5)
	before := pool.Sizes()

	_, ok := testComposer(cfg).ComposeOneSet(pool, "set_001", 20)
	assert.False(t, ok)
	assert.Equal(t, before, pool.Sizes())
	assert.Equal(t, 17, pool.Len())
}

func TestComposeOneSet_RelaxedTierAfterStrict(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict.QuestionMarks = validate.Range{Min: 9, Max: 10}

	_, ok := testComposer(cfg).ComposeOneSet(buildPool(4, 8, 5), "set_001", 1)
	assert.False(t, ok, "a single attempt only uses the strict band")

	set, ok := testComposer(cfg).ComposeOneSet(buildPool(4, 8, 5), "set_001", 5)
	require.True(t, ok)
	assert.Len(t, set.Questions, item.SetSize)
}

func TestBuildSetsFromPool(t *testing.T) {
	pool := buildPool(4, 10, 6)
	sets := testComposer(DefaultConfig()).BuildSetsFromPool(pool, 5)

	require.Len(t, sets, 2)
	assert.Equal(t, "set_001", sets[0].SetID)
	assert.Equal(t, "set_002", sets[1].SetID)
	assert.Equal(t, 0, pool.Len())

	seen := map[string]bool{}
	for _, s := range sets {
		for _, q := range s.Questions {
			k := ContentKey(q)
			assert.False(t, seen[k], "item reused across sets")
			seen[k] = true
		}
	}
}

func TestBuildSetsFromPool_FirstSetNumber(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirstSetNumber = 12
	sets := testComposer(cfg).BuildSetsFromPool(buildPool(2, 5, 3), 3)
	require.Len(t, sets, 1)
	assert.Equal(t, "set_012", sets[0].SetID)
	assert.Equal(t, "set_012_q10", sets[0].Questions[9].ID)
}
