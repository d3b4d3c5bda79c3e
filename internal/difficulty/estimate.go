package difficulty

import (
	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/item"
)

// Calibration constants. They are fitted against an external reference
// corpus and golden tests depend on the exact bucket boundaries.
const (
	weightAnswerWords     = 0.9
	weightEffectiveChunks = 0.8
	weightDistractor      = 1.2
	weightEmbedded        = 0.6
	weightLongChunk       = 0.6
	weightPrefilled       = -0.7

	easyMax = 12.5
	hardMin = 15.5

	longChunkWords = 3
)

// Features are the surface features the score is computed from.
type Features struct {
	AnswerWords     int  `json:"answer_words"`
	EffectiveChunks int  `json:"effective_chunks"`
	HasDistractor   bool `json:"has_distractor"`
	HasEmbedded     bool `json:"has_embedded"`
	HasLongChunk    bool `json:"has_long_chunk"`
	PrefilledCount  int  `json:"prefilled_count"`
}

// Profile is the derived difficulty of one item. It is never persisted.
type Profile struct {
	Bucket   item.Bucket `json:"bucket"`
	Score    float64     `json:"score"`
	Features Features    `json:"features"`
}

// Extract computes the feature vector of a.
func Extract(a item.AuthoredItem) Features {
	effective := a.EffectiveChunks()
	f := Features{
		AnswerWords:     len(align.Tokenize(a.Answer)),
		EffectiveChunks: len(effective),
		HasDistractor:   a.HasDistractor(),
		HasEmbedded:     item.HasEmbeddedMarker(a.GrammarPoints),
		PrefilledCount:  len(a.Prefilled),
	}
	for _, c := range effective {
		if len(align.Tokenize(c)) >= longChunkWords {
			f.HasLongChunk = true
			break
		}
	}
	return f
}

// Score applies the weighted sum to f.
func Score(f Features) float64 {
	return weightAnswerWords*float64(f.AnswerWords) +
		weightEffectiveChunks*float64(f.EffectiveChunks) +
		weightDistractor*boolf(f.HasDistractor) +
		weightEmbedded*boolf(f.HasEmbedded) +
		weightLongChunk*boolf(f.HasLongChunk) +
		weightPrefilled*float64(f.PrefilledCount)
}

// Classify maps a score to its bucket.
func Classify(score float64) item.Bucket {
	switch {
	case score <= easyMax:
		return item.BucketEasy
	case score >= hardMin:
		return item.BucketHard
	default:
		return item.BucketMedium
	}
}

// Estimate returns the difficulty profile of a.
func Estimate(a item.AuthoredItem) Profile {
	f := Extract(a)
	s := Score(f)
	return Profile{Bucket: Classify(s), Score: s, Features: f}
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
