package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// PromptSpec names the endpoint and JSON fields of one module's prompt.
type PromptSpec struct {
	Path      string // e.g. /api/moduleA/sentence
	TextField string // sentence or topic
	IDField   string // sentence_id or topic_id
}

type Prompt struct {
	ID   int
	Text string
}

func (c *Client) FetchPrompt(ctx context.Context, spec PromptSpec) (*Prompt, error) {
	const op = "fetch prompt"
	req, id := c.request(ctx)
	r, err := c.exchange(op, req, id, http.MethodGet, spec.Path, false)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := decode(op, r, &raw); err != nil {
		return nil, err
	}
	var env envelope
	_ = decode(op, r, &env)
	if err := requireSuccess(op, r, env); err != nil {
		return nil, err
	}

	p := &Prompt{}
	if v, ok := raw[spec.TextField]; ok {
		_ = json.Unmarshal(v, &p.Text)
	}
	if v, ok := raw[spec.IDField]; ok {
		if err := json.Unmarshal(v, &p.ID); err != nil {
			var s string
			if json.Unmarshal(v, &s) == nil {
				p.ID, _ = strconv.Atoi(s)
			}
		}
	}
	return p, nil
}

// Recording is one audio upload.
type Recording struct {
	Audio    []byte
	Filename string
	MimeType string
}

type SubmitRequest struct {
	Path     string // e.g. /api/moduleA
	IDField  string
	PromptID int
	Audio    Recording
}

// Result is a scored attempt. Fields missing from the response are zero.
type Result struct {
	Score         float64
	Transcription string
	Feedback      string
	Analysis      string
	Expected      string
	FluencyScore  float64
	DurationSec   float64
	WordsPerSec   float64

	RelevanceScore  float64
	GrammarScore    float64
	VocabularyScore float64
	CoherenceScore  float64
	Strengths       []string
	Improvements    []string

	Metrics   *NetworkMetrics
	RequestID string
}

type resultJSON struct {
	envelope
	Score              *float64        `json:"score"`
	PronunciationScore *float64        `json:"pronunciation_score"`
	Transcription      string          `json:"transcription"`
	TranscribedText    string          `json:"transcribed_text"`
	Feedback           string          `json:"feedback"`
	Analysis           json.RawMessage `json:"analysis"`
	Expected           string          `json:"expected"`
	TargetSentence     string          `json:"target_sentence"`
	FluencyScore       float64         `json:"fluency_score"`
	DurationSec        float64         `json:"duration_sec"`
	WPS                float64         `json:"wps"`
	RelevanceScore     float64         `json:"relevance_score"`
	GrammarScore       float64         `json:"grammar_score"`
	VocabularyScore    float64         `json:"vocabulary_score"`
	CoherenceScore     float64         `json:"coherence_score"`
	Strengths          []string        `json:"strengths"`
	Improvements       []string        `json:"improvements"`
}

func (j *resultJSON) result() *Result {
	res := &Result{
		Transcription:   firstString(j.Transcription, j.TranscribedText),
		Feedback:        j.Feedback,
		Analysis:        analysisText(j.Analysis),
		Expected:        firstString(j.Expected, j.TargetSentence),
		FluencyScore:    j.FluencyScore,
		DurationSec:     j.DurationSec,
		WordsPerSec:     j.WPS,
		RelevanceScore:  j.RelevanceScore,
		GrammarScore:    j.GrammarScore,
		VocabularyScore: j.VocabularyScore,
		CoherenceScore:  j.CoherenceScore,
		Strengths:       j.Strengths,
		Improvements:    j.Improvements,
	}
	// a zero score falls through to pronunciation_score
	switch {
	case j.Score != nil && *j.Score != 0:
		res.Score = *j.Score
	case j.PronunciationScore != nil:
		res.Score = *j.PronunciationScore
	}
	return res
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func analysisText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if json.Indent(&buf, raw, "", "  ") == nil {
		return buf.String()
	}
	return string(raw)
}

// SubmitRecording uploads one recording as multipart form data.
func (c *Client) SubmitRecording(ctx context.Context, sr SubmitRequest) (*Result, error) {
	const op = "submit recording"
	req, id := c.request(ctx)
	req.SetMultipartField("audio", sr.Audio.Filename, sr.Audio.MimeType, bytes.NewReader(sr.Audio.Audio)).
		SetMultipartFormData(map[string]string{sr.IDField: strconv.Itoa(sr.PromptID)})

	r, err := c.exchange(op, req, id, http.MethodPost, sr.Path, false)
	if err != nil {
		return nil, err
	}
	var j resultJSON
	if err := decode(op, r, &j); err != nil {
		return nil, err
	}
	if err := requireSuccess(op, r, j.envelope); err != nil {
		return nil, err
	}
	res := j.result()
	r.metrics.UploadSize = len(sr.Audio.Audio)
	res.Metrics = r.metrics
	res.RequestID = r.requestID
	return res, nil
}
