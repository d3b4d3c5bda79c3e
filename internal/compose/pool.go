package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
)

// itemNamespace seeds name-based content keys.
var itemNamespace = uuid.MustParse("6f1c2a9e-4b7d-5e3a-9c21-8d4f0b6a7e15")

// ContentKey returns a stable key for the content of a, independent of its
// id. Clones and re-identified copies share a key.
func ContentKey(a item.AuthoredItem) string {
	var b strings.Builder
	b.WriteString(align.Normalize(a.Answer))

	chunks := make([]string, len(a.Chunks))
	for i, c := range a.Chunks {
		chunks[i] = align.Normalize(c)
	}
	sort.Strings(chunks)
	b.WriteString("|")
	b.WriteString(strings.Join(chunks, ","))

	prefilled := make([]string, 0, len(a.Prefilled))
	for _, p := range a.Prefilled {
		prefilled = append(prefilled, fmt.Sprintf("%s@%d", align.Normalize(p), a.PrefilledPositions[p]))
	}
	sort.Strings(prefilled)
	b.WriteString("|")
	b.WriteString(strings.Join(prefilled, ","))

	b.WriteString("|")
	if a.HasDistractor() {
		b.WriteString(align.Normalize(*a.Distractor))
	}
	return uuid.NewSHA1(itemNamespace, []byte(b.String())).String()
}

// Entry is a pooled item with its cached key and difficulty.
type Entry struct {
	Key     string
	Item    item.AuthoredItem
	Profile difficulty.Profile
}

// Pool holds unconsumed candidate items partitioned by bucket. It is not
// safe for concurrent use.
type Pool struct {
	buckets  map[item.Bucket][]Entry
	present  map[string]bool
	consumed map[string]bool
}

// NewPool creates a pool holding items.
func NewPool(items ...item.AuthoredItem) *Pool {
	p := &Pool{
		buckets:  make(map[item.Bucket][]Entry),
		present:  make(map[string]bool),
		consumed: make(map[string]bool),
	}
	p.Add(items...)
	return p
}

// Add inserts items whose content is neither pooled nor already consumed
// into a set. It returns the number inserted.
func (p *Pool) Add(items ...item.AuthoredItem) int {
	added := 0
	for _, a := range items {
		key := ContentKey(a)
		if p.present[key] || p.consumed[key] {
			continue
		}
		prof := difficulty.Estimate(a)
		p.buckets[prof.Bucket] = append(p.buckets[prof.Bucket], Entry{Key: key, Item: a.Clone(), Profile: prof})
		p.present[key] = true
		added++
	}
	return added
}

// MarkConsumed records keys consumed by sets composed elsewhere so later
// Adds ignore them.
func (p *Pool) MarkConsumed(keys ...string) {
	for _, k := range keys {
		p.consumed[k] = true
	}
	p.Remove(keys...)
}

// Remove drops the entries with the given keys and marks them consumed.
func (p *Pool) Remove(keys ...string) {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
		p.consumed[k] = true
		delete(p.present, k)
	}
	for b, entries := range p.buckets {
		kept := entries[:0]
		for _, e := range entries {
			if !drop[e.Key] {
				kept = append(kept, e)
			}
		}
		p.buckets[b] = kept
	}
}

// Len returns the number of pooled items.
func (p *Pool) Len() int {
	return len(p.present)
}

// BucketSize returns the number of pooled items in b.
func (p *Pool) BucketSize(b item.Bucket) int {
	return len(p.buckets[b])
}

// Sizes returns the pooled item count per bucket.
func (p *Pool) Sizes() difficulty.Mix[int] {
	return difficulty.Mix[int]{
		Easy:   p.BucketSize(item.BucketEasy),
		Medium: p.BucketSize(item.BucketMedium),
		Hard:   p.BucketSize(item.BucketHard),
	}
}

// Entries returns the pooled entries of b. The slice must not be modified.
func (p *Pool) Entries(b item.Bucket) []Entry {
	return p.buckets[b]
}
