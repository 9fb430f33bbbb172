package practice

import (
	"math"

	"orator/api"
)

// Results is what the results panel renders for one scored attempt.
type Results struct {
	Module        Kind
	Score         int
	Transcription string
	Feedback      string
	Analysis      string
	Expected      string
	Fluency       int
	DurationSec   float64
	WordsPerSec   float64

	SubScores    []SubScore
	Strengths    []string
	Improvements []string
	Metrics      []string

	// Dismissable results wait for the user instead of auto-advancing.
	Dismissable bool
}

type SubScore struct {
	Name  string
	Value int
	Max   int
}

const (
	noTranscription = "No transcription available"
	noFeedback      = "No feedback available"
	noAnalysis      = "No analysis available"
)

// NewResults applies display rounding and the placeholder texts.
func NewResults(m Module, r *api.Result) Results {
	res := Results{
		Module:        m.Kind,
		Score:         round(r.Score),
		Transcription: orDefault(r.Transcription, noTranscription),
		Feedback:      orDefault(r.Feedback, noFeedback),
		Expected:      r.Expected,
		Fluency:       round(r.FluencyScore),
		DurationSec:   r.DurationSec,
		WordsPerSec:   r.WordsPerSec,
		Strengths:     r.Strengths,
		Improvements:  r.Improvements,
		Metrics:       r.Metrics.Lines(),
		Dismissable:   m.ResultsWindow == 0,
	}
	if m.Kind == ModuleC {
		res.Analysis = orDefault(r.Analysis, noAnalysis)
		if r.RelevanceScore+r.GrammarScore+r.VocabularyScore+r.CoherenceScore > 0 {
			res.SubScores = []SubScore{
				{"Relevance", round(r.RelevanceScore), 25},
				{"Grammar", round(r.GrammarScore), 25},
				{"Vocabulary", round(r.VocabularyScore), 25},
				{"Coherence", round(r.CoherenceScore), 25},
			}
		}
	}
	return res
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// round matches half-up rounding for the non-negative scores the backend sends.
func round(f float64) int {
	return int(math.Floor(f + 0.5))
}
