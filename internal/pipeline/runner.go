// Package pipeline runs generation rounds that grow the persistent pool and
// turn it into committed question sets.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/compose"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/itemgen"
	"github.com/abhisek/sentcraft/internal/store"
	"github.com/abhisek/sentcraft/internal/validate"
)

// Config controls a pipeline run.
type Config struct {
	// Rounds caps the generate-and-compose iterations.
	Rounds int `mapstructure:"rounds"`

	// TargetSets is the number of sets this run tries to commit.
	TargetSets int `mapstructure:"target_sets"`

	// Strict keeps items with format issues out of the pool.
	Strict bool `mapstructure:"strict"`

	// Concurrency bounds parallel validation and estimation.
	Concurrency int `mapstructure:"concurrency"`

	// MinReviewScore is the per-item review score needed to enter the pool.
	// Ignored when the runner has no reviewer.
	MinReviewScore float64 `mapstructure:"min_review_score"`

	// GrammarFocus is passed to the generator on every round.
	GrammarFocus []string `mapstructure:"grammar_focus"`
}

// DefaultConfig returns the standard run settings.
func DefaultConfig() Config {
	return Config{
		Rounds:         10,
		TargetSets:     1,
		Strict:         true,
		Concurrency:    4,
		MinReviewScore: 7,
	}
}

// Report summarizes a run.
type Report struct {
	RunID     string
	Rounds    int
	Generated int

	// RejectedReview, RejectedValidation and RejectedAlignment count
	// candidates dropped at each gate.
	RejectedReview     int
	RejectedValidation int
	RejectedAlignment  int

	// Added counts candidates new to the pool; duplicates are not counted.
	Added int

	Sets []string
}

// Runner wires a generator, an optional reviewer, the composer and the store.
type Runner struct {
	gen       itemgen.Generator
	rev       itemgen.Reviewer
	pool      store.PoolRepo
	sets      store.SetRepo
	composer  *compose.Composer
	validator *validate.Validator
	cfg       Config
	logger    *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithReviewer enables the review gate.
func WithReviewer(r itemgen.Reviewer) Option {
	return func(rn *Runner) { rn.rev = r }
}

// WithValidator replaces the default item validator.
func WithValidator(v *validate.Validator) Option {
	return func(rn *Runner) { rn.validator = v }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(rn *Runner) { rn.logger = l }
}

// New creates a Runner.
func New(gen itemgen.Generator, pool store.PoolRepo, sets store.SetRepo, composer *compose.Composer, cfg Config, opts ...Option) *Runner {
	r := &Runner{gen: gen, pool: pool, sets: sets, composer: composer, cfg: cfg}
	for _, o := range opts {
		o(r)
	}
	if r.validator == nil {
		r.validator = validate.Default()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.cfg.Concurrency < 1 {
		r.cfg.Concurrency = 1
	}
	return r
}

// Run composes from the existing pool first, then generates until
// TargetSets are committed or Rounds are spent. Re-running against the same
// store is safe: consumed items never come back and duplicates are ignored.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: uuid.NewString()}
	log := r.logger.With(zap.String("run_id", rep.RunID))
	log.Info("pipeline started", zap.Int("target_sets", r.cfg.TargetSets), zap.Int("rounds", r.cfg.Rounds))

	if err := r.composeSets(ctx, rep, log); err != nil {
		return rep, err
	}

	for len(rep.Sets) < r.cfg.TargetSets && rep.Rounds < r.cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Rounds++
		log := log.With(zap.Int("round", rep.Rounds))

		if err := r.round(ctx, rep, log); err != nil {
			return rep, err
		}
		if err := r.composeSets(ctx, rep, log); err != nil {
			return rep, err
		}
	}

	log.Info("pipeline finished",
		zap.Int("sets", len(rep.Sets)),
		zap.Int("generated", rep.Generated),
		zap.Int("added", rep.Added))
	return rep, nil
}

// round generates one batch, filters it and adds the survivors to the pool.
func (r *Runner) round(ctx context.Context, rep *Report, log *zap.Logger) error {
	available, err := r.pool.ListAvailable(ctx)
	if err != nil {
		return fmt.Errorf("list pool: %w", err)
	}

	input := itemgen.GenerateInput{
		Need:         deficit(available, r.cfg.TargetSets-len(rep.Sets)),
		AvoidAnswers: make([]string, 0, len(available)),
		GrammarFocus: r.cfg.GrammarFocus,
	}
	for _, p := range available {
		input.AvoidAnswers = append(input.AvoidAnswers, p.Item.Answer)
	}

	candidates, err := r.gen.Generate(ctx, input)
	if err != nil {
		// A failed batch costs a round, not the run.
		log.Warn("generation failed", zap.Error(err))
		return nil
	}
	generated := len(candidates)
	rep.Generated += generated

	reviewScores := map[string]float64{}
	if r.rev != nil {
		candidates, reviewScores = r.review(ctx, candidates, rep, log)
	}

	accepted, added, err := r.ingest(ctx, candidates, reviewScores, rep, log)
	if err != nil {
		return err
	}
	log.Info("round complete",
		zap.Int("generated", generated),
		zap.Int("accepted", accepted),
		zap.Int("added", added))
	return nil
}

// Ingest screens externally authored items and adds the survivors to the
// pool without generating or composing.
func (r *Runner) Ingest(ctx context.Context, items []item.AuthoredItem) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), Generated: len(items)}
	log := r.logger.With(zap.String("run_id", rep.RunID))
	accepted, added, err := r.ingest(ctx, items, nil, rep, log)
	if err != nil {
		return rep, err
	}
	log.Info("items ingested", zap.Int("accepted", accepted), zap.Int("added", added))
	return rep, nil
}

// ingest screens candidates and stores the survivors, returning how many
// passed and how many were new to the pool.
func (r *Runner) ingest(ctx context.Context, candidates []item.AuthoredItem, reviewScores map[string]float64, rep *Report, log *zap.Logger) (int, int, error) {
	accepted, err := r.screen(ctx, candidates, rep, log)
	if err != nil {
		return 0, 0, err
	}

	rows := make([]store.PoolItem, 0, len(accepted))
	for _, c := range accepted {
		rows = append(rows, store.PoolItem{
			Key:         compose.ContentKey(c.item),
			Bucket:      c.profile.Bucket,
			Score:       c.profile.Score,
			Item:        c.item,
			RunID:       rep.RunID,
			ReviewScore: reviewScores[c.item.ID],
		})
	}
	added, err := r.pool.AddCandidates(ctx, rows)
	if err != nil {
		return 0, 0, fmt.Errorf("add candidates: %w", err)
	}
	rep.Added += added
	return len(accepted), added, nil
}

// review drops candidates the reviewer does not accept. A failed review is
// logged and lets the batch through unscored.
func (r *Runner) review(ctx context.Context, candidates []item.AuthoredItem, rep *Report, log *zap.Logger) ([]item.AuthoredItem, map[string]float64) {
	scores := map[string]float64{}
	rv, err := r.rev.Review(ctx, candidates)
	if err != nil {
		log.Warn("review failed", zap.Error(err))
		return candidates, scores
	}

	kept := make([]item.AuthoredItem, 0, len(candidates))
	for _, c := range candidates {
		if !rv.Accepts(c.ID, r.cfg.MinReviewScore) {
			rep.RejectedReview++
			continue
		}
		if q, ok := rv.ScoreFor(c.ID); ok {
			scores[c.ID] = q.Score
		} else {
			scores[c.ID] = rv.OverallScore
		}
		kept = append(kept, c)
	}
	return kept, scores
}

type screened struct {
	item    item.AuthoredItem
	profile difficulty.Profile
}

// screen validates, aligns and estimates candidates in parallel. Results
// keep generation order.
func (r *Runner) screen(ctx context.Context, candidates []item.AuthoredItem, rep *Report, log *zap.Logger) ([]screened, error) {
	type verdict struct {
		ok        bool
		alignFail bool
		profile   difficulty.Profile
	}
	verdicts := make([]verdict, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report := r.validator.ValidateItem(c)
			if report.Blocking(r.cfg.Strict) {
				log.Debug("candidate rejected", zap.String("item_id", c.ID), zap.Strings("issues", report.Messages()))
				return nil
			}
			if _, err := align.NormalizeToRuntime(item.PositionBased{AuthoredItem: c}); err != nil {
				log.Debug("candidate not alignable", zap.String("item_id", c.ID), zap.Error(err))
				verdicts[i].alignFail = true
				return nil
			}
			verdicts[i] = verdict{ok: true, profile: difficulty.Estimate(c)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []screened
	for i, v := range verdicts {
		switch {
		case v.ok:
			out = append(out, screened{item: candidates[i], profile: v.profile})
		case v.alignFail:
			rep.RejectedAlignment++
		default:
			rep.RejectedValidation++
		}
	}
	return out, nil
}

// composeSets draws sets from the stored pool and commits each one. It
// stops when the target is met or the pool cannot yield another set.
func (r *Runner) composeSets(ctx context.Context, rep *Report, log *zap.Logger) error {
	for len(rep.Sets) < r.cfg.TargetSets {
		available, err := r.pool.ListAvailable(ctx)
		if err != nil {
			return fmt.Errorf("list pool: %w", err)
		}
		consumed, err := r.pool.ConsumedKeys(ctx)
		if err != nil {
			return fmt.Errorf("consumed keys: %w", err)
		}
		pool := compose.NewPool()
		pool.MarkConsumed(consumed...)
		for _, p := range available {
			pool.Add(p.Item)
		}

		n, err := r.sets.Count(ctx)
		if err != nil {
			return fmt.Errorf("count sets: %w", err)
		}
		setID := r.composer.SetID(n + 1)
		set, ok := r.composer.ComposeOneSet(pool, setID, r.composer.MaxRetries())
		if !ok {
			log.Debug("no set composable", zap.Int("pool", pool.Len()), zap.Any("sizes", pool.Sizes()))
			return nil
		}

		keys := make([]string, len(set.Questions))
		for i, q := range set.Questions {
			keys[i] = compose.ContentKey(q)
		}
		if err := r.sets.CommitSet(ctx, set, keys, rep.RunID); err != nil {
			if errors.Is(err, store.ErrAlreadyConsumed) {
				// Another run took a member first; retry from fresh state.
				log.Warn("set lost a member to another run", zap.String("set_id", setID))
				continue
			}
			return fmt.Errorf("commit %s: %w", setID, err)
		}
		rep.Sets = append(rep.Sets, setID)
		log.Info("set committed", zap.String("set_id", setID))
	}
	return nil
}

// deficit returns how many items per bucket the pool lacks for sets more
// sets, never less than one set's worth.
func deficit(available []store.PoolItem, sets int) difficulty.Mix[int] {
	if sets < 1 {
		sets = 1
	}
	have := difficulty.Mix[int]{}
	for _, p := range available {
		switch p.Bucket {
		case item.BucketEasy:
			have.Easy++
		case item.BucketMedium:
			have.Medium++
		default:
			have.Hard++
		}
	}
	want := difficulty.TargetCount10()
	need := difficulty.Mix[int]{
		Easy:   max(want.Easy*sets-have.Easy, 0),
		Medium: max(want.Medium*sets-have.Medium, 0),
		Hard:   max(want.Hard*sets-have.Hard, 0),
	}
	if need == (difficulty.Mix[int]{}) {
		// The pool has the counts but not a passing combination.
		return want
	}
	return need
}
