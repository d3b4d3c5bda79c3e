// Package compose assembles 10-item question sets from a pool of
// individually valid candidates.
package compose

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/validate"
)

// Config holds composer settings.
type Config struct {
	MaxRetries     int               `mapstructure:"max_retries"`
	StrictFraction float64           `mapstructure:"strict_fraction"`
	SetIDFormat    string            `mapstructure:"set_id_format"`
	FirstSetNumber int               `mapstructure:"first_set_number"`
	SetRules       validate.SetRules `mapstructure:"set_rules"`
	Strict         StyleBand         `mapstructure:"strict"`
	Relaxed        StyleBand         `mapstructure:"relaxed"`
}

// DefaultConfig returns the production composer settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     200,
		StrictFraction: 0.6,
		SetIDFormat:    "set_%03d",
		FirstSetNumber: 1,
		SetRules:       validate.DefaultSetRules(),
		Strict:         StrictBand(),
		Relaxed:        RelaxedBand(),
	}
}

// Option configures a Composer.
type Option func(*Composer)

// WithRand sets the random source. Tests pass a seeded PCG.
func WithRand(r *rand.Rand) Option {
	return func(c *Composer) { c.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) { c.logger = l }
}

// Composer draws sets from a Pool.
type Composer struct {
	cfg    Config
	rng    *rand.Rand
	logger *zap.Logger
}

// New creates a Composer.
func New(cfg Config, opts ...Option) *Composer {
	c := &Composer{cfg: cfg}
	for _, o := range opts {
		o(c)
	}
	if c.rng == nil {
		seed := uint64(time.Now().UnixNano())
		c.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// ComposeOneSet tries up to maxRetries random draws of 2 easy, 5 medium and
// 3 hard items. The first draw passing every gate is re-identified as
// {setID}_q1..q10 and its items are removed from the pool. On failure the
// pool is left untouched.
func (c *Composer) ComposeOneSet(pool *Pool, setID string, maxRetries int) (*item.QuestionSet, bool) {
	need := difficulty.TargetCount10()
	for _, b := range item.AllBuckets() {
		if pool.BucketSize(b) < need.Get(b) {
			c.logger.Debug("bucket short",
				zap.String("set_id", setID),
				zap.String("bucket", string(b)),
				zap.Int("have", pool.BucketSize(b)),
				zap.Int("need", need.Get(b)))
			return nil, false
		}
	}

	strictAttempts := int(math.Ceil(c.cfg.StrictFraction * float64(maxRetries)))
	for attempt := 0; attempt < maxRetries; attempt++ {
		picks := c.sample(pool, need)
		members := make([]item.AuthoredItem, len(picks))
		keys := make([]string, len(picks))
		for i, e := range picks {
			members[i] = e.Item.Clone()
			members[i].ID = fmt.Sprintf("%s_q%d", setID, i+1)
			keys[i] = e.Key
		}

		band, tier := c.cfg.Relaxed, "relaxed"
		if attempt < strictAttempts {
			band, tier = c.cfg.Strict, "strict"
		}
		if reason := c.reject(members, band); reason != "" {
			c.logger.Debug("draw rejected",
				zap.String("set_id", setID),
				zap.Int("attempt", attempt+1),
				zap.String("tier", tier),
				zap.String("reason", reason))
			continue
		}

		pool.Remove(keys...)
		c.logger.Info("set composed",
			zap.String("set_id", setID),
			zap.Int("attempt", attempt+1),
			zap.String("tier", tier))
		return &item.QuestionSet{SetID: setID, Questions: members}, true
	}

	c.logger.Debug("retries exhausted", zap.String("set_id", setID), zap.Int("max_retries", maxRetries))
	return nil, false
}

// reject returns why members cannot form a set, or "" when they can.
func (c *Composer) reject(members []item.AuthoredItem, band StyleBand) string {
	if res := validate.ValidateSet(members, c.cfg.SetRules); !res.OK {
		return res.Errors[0]
	}
	if !difficulty.MeetsTargetCount10(members) {
		return "difficulty mix is not 2/5/3"
	}
	if ok, reason := band.Admits(Style(members)); !ok {
		return reason
	}
	for _, m := range members {
		if _, err := align.NormalizeToRuntime(item.PositionBased{AuthoredItem: m}); err != nil {
			return err.Error()
		}
	}
	return ""
}

// sample draws need.Get(b) distinct entries per bucket without touching the
// pool and shuffles the merged result.
func (c *Composer) sample(pool *Pool, need difficulty.Mix[int]) []Entry {
	var out []Entry
	for _, b := range item.AllBuckets() {
		entries := pool.Entries(b)
		idx := make([]int, len(entries))
		for i := range idx {
			idx[i] = i
		}
		k := need.Get(b)
		for i := 0; i < k; i++ {
			j := i + c.rng.IntN(len(idx)-i)
			idx[i], idx[j] = idx[j], idx[i]
			out = append(out, entries[idx[i]])
		}
	}
	c.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SetID formats set number n with SetIDFormat.
func (c *Composer) SetID(n int) string {
	return fmt.Sprintf(c.cfg.SetIDFormat, n)
}

// MaxRetries returns the configured draw budget per set.
func (c *Composer) MaxRetries() int {
	return c.cfg.MaxRetries
}

// BuildSetsFromPool composes up to targetCount sets, numbering them from
// FirstSetNumber. It stops at the first set that cannot be composed.
func (c *Composer) BuildSetsFromPool(pool *Pool, targetCount int) []*item.QuestionSet {
	var sets []*item.QuestionSet
	for n := c.cfg.FirstSetNumber; len(sets) < targetCount; n++ {
		id := c.SetID(n)
		set, ok := c.ComposeOneSet(pool, id, c.cfg.MaxRetries)
		if !ok {
			c.logger.Info("pool exhausted",
				zap.Int("composed", len(sets)),
				zap.Int("target", targetCount),
				zap.Int("remaining", pool.Len()))
			break
		}
		sets = append(sets, set)
	}
	return sets
}
