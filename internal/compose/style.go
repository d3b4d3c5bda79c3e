package compose

import (
	"fmt"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/validate"
)

// StyleProfile is the aggregate style of a candidate set.
type StyleProfile struct {
	QuestionMarks   int
	Distractors     int
	Embedded        int
	MeanAnswerWords float64
	MeanChunks      float64
}

// Style computes the aggregate style of items.
func Style(items []item.AuthoredItem) StyleProfile {
	c := validate.CountSet(items)
	s := StyleProfile{
		QuestionMarks: c.QuestionMarks,
		Distractors:   c.Distractors,
		Embedded:      c.Embedded,
	}
	if len(items) == 0 {
		return s
	}
	var words, chunks int
	for _, a := range items {
		words += len(align.Tokenize(a.Answer))
		chunks += len(a.EffectiveChunks())
	}
	n := float64(len(items))
	s.MeanAnswerWords = float64(words) / n
	s.MeanChunks = float64(chunks) / n
	return s
}

// FloatRange is an inclusive window.
type FloatRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r FloatRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// StyleBand bounds every component of a StyleProfile.
type StyleBand struct {
	QuestionMarks   validate.Range `mapstructure:"question_marks"`
	Distractors     validate.Range `mapstructure:"distractors"`
	Embedded        validate.Range `mapstructure:"embedded"`
	MeanAnswerWords FloatRange     `mapstructure:"mean_answer_words"`
	MeanChunks      FloatRange     `mapstructure:"mean_chunks"`
}

// Admits reports whether s lies inside the band. The reason names the first
// component out of range.
func (b StyleBand) Admits(s StyleProfile) (bool, string) {
	switch {
	case !b.QuestionMarks.Contains(s.QuestionMarks):
		return false, fmt.Sprintf("question marks %d outside %s", s.QuestionMarks, b.QuestionMarks)
	case !b.Distractors.Contains(s.Distractors):
		return false, fmt.Sprintf("distractors %d outside %s", s.Distractors, b.Distractors)
	case !b.Embedded.Contains(s.Embedded):
		return false, fmt.Sprintf("embedded %d outside %s", s.Embedded, b.Embedded)
	case !b.MeanAnswerWords.Contains(s.MeanAnswerWords):
		return false, fmt.Sprintf("mean answer words %.2f outside [%.1f,%.1f]", s.MeanAnswerWords, b.MeanAnswerWords.Min, b.MeanAnswerWords.Max)
	case !b.MeanChunks.Contains(s.MeanChunks):
		return false, fmt.Sprintf("mean chunks %.2f outside [%.1f,%.1f]", s.MeanChunks, b.MeanChunks.Min, b.MeanChunks.Max)
	}
	return true, ""
}

// StrictBand is the high-quality style band.
func StrictBand() StyleBand {
	return StyleBand{
		QuestionMarks:   validate.Range{Min: 3, Max: 5},
		Distractors:     validate.Range{Min: 3, Max: 6},
		Embedded:        validate.Range{Min: 2, Max: 4},
		MeanAnswerWords: FloatRange{Min: 9, Max: 12.5},
		MeanChunks:      FloatRange{Min: 5.5, Max: 7},
	}
}

// RelaxedBand is the fallback band for the tail of the retry budget.
func RelaxedBand() StyleBand {
	return StyleBand{
		QuestionMarks:   validate.Range{Min: 2, Max: 6},
		Distractors:     validate.Range{Min: 2, Max: 7},
		Embedded:        validate.Range{Min: 1, Max: 5},
		MeanAnswerWords: FloatRange{Min: 8, Max: 13.5},
		MeanChunks:      FloatRange{Min: 5, Max: 7.5},
	}
}
