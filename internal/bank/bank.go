// Package bank holds a loaded question bank: the persisted array of
// composed sets, each item resolved once into its runtime slot model.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/item"
)

// ErrDuplicateSet is returned when a set id occurs twice.
var ErrDuplicateSet = errors.New("duplicate set id")

// Set is one bank set. Raw keeps each question's original JSON so Save
// never drops fields the item types do not model.
type Set struct {
	ID      string
	Items   []item.Authored
	Runtime []item.RuntimeItem
	Raw     []json.RawMessage
}

// wireSet is the on-disk shape of a set.
type wireSet struct {
	SetID     string            `json:"set_id"`
	Questions []json.RawMessage `json:"questions"`
}

// QuestionBank is a loaded bank file. It is safe for concurrent use; Reload
// swaps contents atomically.
type QuestionBank struct {
	path   string
	strict bool
	logger *zap.Logger

	mu    sync.RWMutex
	sets  []*Set
	bySet map[string]*Set
	items map[string]item.RuntimeItem
}

// Option configures a QuestionBank.
type Option func(*QuestionBank)

// WithStrict makes Load fail on the first item that cannot be aligned.
// Otherwise such items are logged and left out of the runtime index.
func WithStrict(strict bool) Option {
	return func(b *QuestionBank) { b.strict = strict }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *QuestionBank) { b.logger = l }
}

// New returns an empty bank that saves to path.
func New(path string, opts ...Option) *QuestionBank {
	b := &QuestionBank{path: path, bySet: map[string]*Set{}, items: map[string]item.RuntimeItem{}}
	for _, o := range opts {
		o(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// Load reads and resolves the bank at path.
func Load(path string, opts ...Option) (*QuestionBank, error) {
	b := New(path, opts...)
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload re-reads the file. On error the previous contents are kept.
func (b *QuestionBank) Reload() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("read bank: %w", err)
	}
	if err := validateFile(data); err != nil {
		return fmt.Errorf("bank %s: %w", b.path, err)
	}

	var wire []wireSet
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode bank: %w", err)
	}

	sets := make([]*Set, 0, len(wire))
	bySet := make(map[string]*Set, len(wire))
	items := make(map[string]item.RuntimeItem)
	for _, w := range wire {
		if _, dup := bySet[w.SetID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSet, w.SetID)
		}
		s, err := b.resolve(w)
		if err != nil {
			return err
		}
		for _, r := range s.Runtime {
			items[r.ID] = r
		}
		sets = append(sets, s)
		bySet[s.ID] = s
	}

	b.mu.Lock()
	b.sets, b.bySet, b.items = sets, bySet, items
	b.mu.Unlock()

	b.logger.Info("question bank loaded",
		zap.String("path", b.path),
		zap.Int("sets", len(sets)),
		zap.Int("items", len(items)))
	return nil
}

func (b *QuestionBank) resolve(w wireSet) (*Set, error) {
	s := &Set{ID: w.SetID, Raw: w.Questions}
	for i, raw := range w.Questions {
		a, err := item.Resolve(raw)
		if err != nil {
			return nil, fmt.Errorf("set %s question %d: %w", w.SetID, i+1, err)
		}
		s.Items = append(s.Items, a)
	}

	batch, err := align.PrepareMany(s.Items, b.strict)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", w.SetID, err)
	}
	for _, e := range batch.Errors {
		b.logger.Warn("item skipped", zap.String("set_id", w.SetID), zap.Error(e))
	}
	s.Runtime = batch.Accepted
	return s, nil
}

// Path returns the file the bank reads and writes.
func (b *QuestionBank) Path() string {
	return b.path
}

// Sets returns the sets in file order.
func (b *QuestionBank) Sets() []*Set {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*Set(nil), b.sets...)
}

// Set looks up a set by id.
func (b *QuestionBank) Set(id string) (*Set, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.bySet[id]
	return s, ok
}

// Item looks up a runtime item by id.
func (b *QuestionBank) Item(id string) (item.RuntimeItem, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.items[id]
	return r, ok
}

// Len returns the number of resolved runtime items.
func (b *QuestionBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Add appends composed sets. Every item must align; nothing is added
// otherwise.
func (b *QuestionBank) Add(sets ...item.QuestionSet) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var staged []*Set
	seen := map[string]bool{}
	for _, qs := range sets {
		if _, dup := b.bySet[qs.SetID]; dup || seen[qs.SetID] {
			return fmt.Errorf("%w: %s", ErrDuplicateSet, qs.SetID)
		}
		seen[qs.SetID] = true

		s := &Set{ID: qs.SetID}
		for _, q := range qs.Questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("encode %s: %w", q.ID, err)
			}
			pb := item.PositionBased{AuthoredItem: q}
			r, err := align.NormalizeToRuntime(pb)
			if err != nil {
				return fmt.Errorf("set %s: %w", qs.SetID, err)
			}
			s.Items = append(s.Items, pb)
			s.Runtime = append(s.Runtime, r)
			s.Raw = append(s.Raw, raw)
		}
		staged = append(staged, s)
	}

	for _, s := range staged {
		b.sets = append(b.sets, s)
		b.bySet[s.ID] = s
		for _, r := range s.Runtime {
			b.items[r.ID] = r
		}
	}
	return nil
}

// Save writes the bank to its path through a temporary file, so readers
// never see a partial bank.
func (b *QuestionBank) Save() error {
	b.mu.RLock()
	wire := make([]wireSet, len(b.sets))
	for i, s := range b.sets {
		wire[i] = wireSet{SetID: s.ID, Questions: s.Raw}
	}
	b.mu.RUnlock()

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bank dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".bank-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write bank: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bank: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace bank: %w", err)
	}
	b.logger.Info("question bank saved", zap.String("path", b.path), zap.Int("sets", len(wire)))
	return nil
}
