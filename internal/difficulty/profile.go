package difficulty

import (
	"math"

	"github.com/abhisek/sentcraft/internal/item"
)

// Mix is a value per bucket: counts, ratios or tolerances.
type Mix[T int | float64] struct {
	Easy   T `json:"easy" mapstructure:"easy"`
	Medium T `json:"medium" mapstructure:"medium"`
	Hard   T `json:"hard" mapstructure:"hard"`
}

// Get returns the value for b.
func (m Mix[T]) Get(b item.Bucket) T {
	switch b {
	case item.BucketEasy:
		return m.Easy
	case item.BucketMedium:
		return m.Medium
	default:
		return m.Hard
	}
}

func (m *Mix[T]) add(b item.Bucket, v T) {
	switch b {
	case item.BucketEasy:
		m.Easy += v
	case item.BucketMedium:
		m.Medium += v
	default:
		m.Hard += v
	}
}

// DefaultTarget is the target ratio triple for a set.
func DefaultTarget() Mix[float64] {
	return Mix[float64]{Easy: 0.2, Medium: 0.5, Hard: 0.3}
}

// DefaultTolerance is the per-bucket ratio tolerance.
func DefaultTolerance() Mix[float64] {
	return Mix[float64]{Easy: 0.1, Medium: 0.1, Hard: 0.1}
}

// TargetCount10 is the exact bucket count for a 10-item set.
func TargetCount10() Mix[int] {
	return Mix[int]{Easy: 2, Medium: 5, Hard: 3}
}

// SetProfile is the bucket histogram of a set of items.
type SetProfile struct {
	Counts Mix[int]     `json:"counts"`
	Ratios Mix[float64] `json:"ratios"`
	Total  int          `json:"total"`
}

// ProfileSet estimates every item and tallies the buckets.
func ProfileSet(items []item.AuthoredItem) SetProfile {
	var p SetProfile
	for _, a := range items {
		p.Counts.add(Estimate(a).Bucket, 1)
	}
	p.Total = len(items)
	if p.Total > 0 {
		n := float64(p.Total)
		p.Ratios = Mix[float64]{
			Easy:   float64(p.Counts.Easy) / n,
			Medium: float64(p.Counts.Medium) / n,
			Hard:   float64(p.Counts.Hard) / n,
		}
	}
	return p
}

// Evaluation compares a set's profile against a target.
type Evaluation struct {
	Profile            SetProfile   `json:"profile"`
	Target             Mix[float64] `json:"target"`
	Deltas             Mix[float64] `json:"deltas"`
	Distance           float64      `json:"distance"`
	OK                 bool         `json:"ok"`
	MeetsTargetCount10 bool         `json:"meets_target_count_10"`
}

// EvaluateAgainstTarget computes the L1 distance between the observed and
// target ratios. OK holds when every bucket is within its tolerance.
func EvaluateAgainstTarget(items []item.AuthoredItem, target, tolerance Mix[float64]) Evaluation {
	p := ProfileSet(items)
	ev := Evaluation{Profile: p, Target: target, OK: true}
	for _, b := range item.AllBuckets() {
		d := p.Ratios.Get(b) - target.Get(b)
		ev.Deltas.add(b, d)
		ev.Distance += math.Abs(d)
		// Rounding guard so 0.3-0.2 style deltas land inside an exact tolerance.
		if math.Abs(d) > tolerance.Get(b)+1e-9 {
			ev.OK = false
		}
	}
	ev.MeetsTargetCount10 = meetsCount(p, TargetCount10())
	return ev
}

// MeetsTargetCount10 reports whether items is exactly 10 items split
// 2 easy, 5 medium, 3 hard.
func MeetsTargetCount10(items []item.AuthoredItem) bool {
	return meetsCount(ProfileSet(items), TargetCount10())
}

func meetsCount(p SetProfile, want Mix[int]) bool {
	return p.Total == item.SetSize && p.Counts == want
}
