package itemgen

import (
	"slices"

	"github.com/abhisek/sentcraft/internal/difficulty"
)

// GenerateInput describes what the next batch should contain.
type GenerateInput struct {
	// Count is the number of items requested. Zero means Config.BatchSize.
	Count int

	// Need is the bucket mix still missing from the pool. The prompt asks
	// for items in roughly these proportions; a zero mix asks for the
	// standard set shape.
	Need difficulty.Mix[int]

	// AvoidAnswers lists answers already in the pool. Only the most recent
	// Config.MaxPriorAnswers are sent.
	AvoidAnswers []string

	// GrammarFocus optionally narrows the grammar points to practise.
	GrammarFocus []string
}

// Review is a reviewer's verdict on a group of items.
type Review struct {
	// OverallScore is on a 0-10 scale.
	OverallScore float64 `json:"overall_score"`

	// Blockers are problems that make the group unusable as a whole.
	Blockers []string `json:"blockers"`

	QuestionScores []QuestionScore `json:"question_scores"`
}

// QuestionScore is the reviewer's score for one item.
type QuestionScore struct {
	ID     string   `json:"id"`
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// ScoreFor returns the score recorded for id.
func (r *Review) ScoreFor(id string) (QuestionScore, bool) {
	i := slices.IndexFunc(r.QuestionScores, func(q QuestionScore) bool { return q.ID == id })
	if i < 0 {
		return QuestionScore{}, false
	}
	return r.QuestionScores[i], true
}

// Accepts reports whether an item passes review: there are no blockers and
// its own score (the overall score when the reviewer skipped it) reaches
// minScore.
func (r *Review) Accepts(id string, minScore float64) bool {
	if len(r.Blockers) > 0 {
		return false
	}
	if q, ok := r.ScoreFor(id); ok {
		return q.Score >= minScore
	}
	return r.OverallScore >= minScore
}
