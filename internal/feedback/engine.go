// Package feedback turns a pronunciation assessment into a graded report.
// Everything here is pure: no I/O, no logging.
package feedback

import (
	"math"

	"github.com/lexiqai/pronunciation-tutor/internal/speech"
)

// Grade is a named band derived from the overall score.
type Grade int

const (
	KeepPracticing Grade = iota
	NeedsWork
	Fair
	Good
	Excellent
)

func (g Grade) String() string {
	switch g {
	case Excellent:
		return "Excellent"
	case Good:
		return "Good"
	case Fair:
		return "Fair"
	case NeedsWork:
		return "Needs Work"
	default:
		return "Keep Practicing"
	}
}

// Grade band lower bounds, inclusive.
const (
	ExcellentMin = 90.0
	GoodMin      = 75.0
	FairMin      = 60.0
	NeedsWorkMin = 40.0
)

// Word and phoneme thresholds. These are independent of the grade bands.
const (
	FlagBelow = 70.0 // words scoring under this are flagged
	WeakBelow = 60.0 // phonemes scoring under this are weak
)

// Closing tip thresholds, also independent of the grade bands.
const (
	TipHarderMin = 90.0
	TipReviewMin = 70.0
)

// Closing tips.
const (
	TipHarderSentence = "Great job! Try a harder sentence."
	TipReviewFlagged  = "Good progress! Focus on the starred (*) words above."
	TipSlowDown       = "Tip: Listen to the reference audio again, then try speaking more slowly."
)

// WordFeedback is a scored word and whether it needs attention.
type WordFeedback struct {
	speech.WordScore
	Flagged bool
}

// WeakPhoneme is a phoneme scored below WeakBelow, with the word it occurred in.
type WeakPhoneme struct {
	Word    string
	Phoneme string
	Score   float64
}

// Report is the outcome of one evaluation.
type Report struct {
	ReferenceText   string
	TranscribedText string
	OverallScore    float64
	Grade           Grade
	Words           []WordFeedback
	WeakPhonemes    []WeakPhoneme
	ClosingTip      string
}

// GradeFor maps a score to its band. First match wins, descending.
func GradeFor(score float64) Grade {
	switch {
	case score >= ExcellentMin:
		return Excellent
	case score >= GoodMin:
		return Good
	case score >= FairMin:
		return Fair
	case score >= NeedsWorkMin:
		return NeedsWork
	default:
		return KeepPracticing
	}
}

// TipFor selects the closing tip for a score.
func TipFor(score float64) string {
	switch {
	case score >= TipHarderMin:
		return TipHarderSentence
	case score >= TipReviewMin:
		return TipReviewFlagged
	default:
		return TipSlowDown
	}
}

// Evaluate builds the report. Input order of words and phonemes is preserved.
// A nil transcription is treated as empty.
func Evaluate(assessment *speech.AssessmentResult, transcription *speech.TranscriptionResult, referenceText string) Report {
	report := Report{ReferenceText: referenceText}
	if transcription != nil {
		report.TranscribedText = transcription.Text
	}
	if assessment == nil {
		assessment = &speech.AssessmentResult{}
	}

	report.OverallScore = clamp(assessment.OverallScore)
	report.Grade = GradeFor(report.OverallScore)
	report.ClosingTip = TipFor(report.OverallScore)

	report.Words = make([]WordFeedback, 0, len(assessment.Words))
	for _, w := range assessment.Words {
		wordScore := clamp(w.Score)
		phonemes := make([]speech.PhonemeScore, len(w.Phonemes))
		for i, p := range w.Phonemes {
			phonemes[i] = speech.PhonemeScore{Phoneme: p.Phoneme, Score: clamp(p.Score)}
		}
		report.Words = append(report.Words, WordFeedback{
			WordScore: speech.WordScore{Word: w.Word, Score: wordScore, Phonemes: phonemes},
			Flagged:   wordScore < FlagBelow,
		})

		for _, p := range phonemes {
			if p.Score < WeakBelow {
				report.WeakPhonemes = append(report.WeakPhonemes, WeakPhoneme{
					Word:    w.Word,
					Phoneme: p.Phoneme,
					Score:   p.Score,
				})
			}
		}
	}

	return report
}

// FlaggedWords returns the words that need attention, in order.
func (r Report) FlaggedWords() []string {
	var out []string
	for _, w := range r.Words {
		if w.Flagged {
			out = append(out, w.Word)
		}
	}
	return out
}

// clamp keeps scores in [0,100]; NaN counts as 0.
func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
