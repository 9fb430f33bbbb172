package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/"})
}

var sentenceSpec = PromptSpec{Path: "/api/moduleA/sentence", TextField: "sentence", IDField: "sentence_id"}

func TestFetchPrompt(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/moduleA/sentence", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"success":true,"sentence":"The cat sat.","sentence_id":7}`))
	}))

	p, err := c.FetchPrompt(context.Background(), sentenceSpec)
	require.NoError(t, err)
	assert.Equal(t, &Prompt{ID: 7, Text: "The cat sat."}, p)
}

func TestFetchPromptUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"Authentication required"}`))
	}))

	_, err := c.FetchPrompt(context.Background(), sentenceSpec)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestFetchPromptRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"list index out of range"}`))
	}))

	_, err := c.FetchPrompt(context.Background(), sentenceSpec)
	re, ok := IsRejected(err)
	require.True(t, ok, "expected RejectedError, got %v", err)
	assert.Equal(t, "list index out of range", re.Reason())
	assert.Equal(t, http.StatusInternalServerError, re.Status)
}

func TestFetchPromptHTMLError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))

	_, err := c.FetchPrompt(context.Background(), sentenceSpec)
	assert.True(t, IsNetwork(err), "expected NetworkError, got %v", err)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url})
	_, err := c.SubmitRecording(context.Background(), SubmitRequest{Path: "/api/moduleA", IDField: "sentence_id"})
	var ne *NetworkError
	assert.True(t, errors.As(err, &ne), "expected NetworkError, got %v", err)
}

func TestSubmitRecordingMultipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/moduleA", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "7", r.FormValue("sentence_id"))

		f, hdr, err := r.FormFile("audio")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "recording.wav", hdr.Filename)
		assert.Equal(t, "audio/wav", hdr.Header.Get("Content-Type"))
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFFdata", string(data))

		w.Write([]byte(`{"success":true,"score":0,"pronunciation_score":84.6,
			"transcribed_text":"the cat sat","feedback":"Good","target_sentence":"The cat sat.",
			"fluency_score":71.2,"duration_sec":2.5,"wps":1.2}`))
	}))

	res, err := c.SubmitRecording(context.Background(), SubmitRequest{
		Path:     "/api/moduleA",
		IDField:  "sentence_id",
		PromptID: 7,
		Audio:    Recording{Audio: []byte("RIFFdata"), Filename: "recording.wav", MimeType: "audio/wav"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 84.6, res.Score, 1e-9)
	assert.Equal(t, "the cat sat", res.Transcription)
	assert.Equal(t, "The cat sat.", res.Expected)
	assert.InDelta(t, 71.2, res.FluencyScore, 1e-9)
	assert.InDelta(t, 1.2, res.WordsPerSec, 1e-9)
	require.NotNil(t, res.Metrics)
	assert.Equal(t, 8, res.Metrics.UploadSize)
	assert.Equal(t, 200, res.Metrics.Status)
	assert.NotEmpty(t, res.RequestID)
}

func TestSubmitRecordingTopicFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "3", r.FormValue("topic_id"))
		w.Write([]byte(`{"success":true,"score":78,"transcription":"I like travel",
			"relevance_score":20,"grammar_score":18,"vocabulary_score":19,"coherence_score":21,
			"analysis":{"pace":"steady"},"strengths":["clear"],"improvements":["detail"]}`))
	}))

	res, err := c.SubmitRecording(context.Background(), SubmitRequest{
		Path: "/api/moduleC", IDField: "topic_id", PromptID: 3,
		Audio: Recording{Audio: []byte("x"), Filename: "recording.wav", MimeType: "audio/wav"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 78, res.Score, 1e-9)
	assert.InDelta(t, 21, res.CoherenceScore, 1e-9)
	assert.Contains(t, res.Analysis, `"pace": "steady"`)
	assert.Equal(t, []string{"clear"}, res.Strengths)
	assert.Equal(t, []string{"detail"}, res.Improvements)
}

func TestSubmitRecordingMissingSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score":50}`))
	}))
	_, err := c.SubmitRecording(context.Background(), SubmitRequest{Path: "/api/moduleB", IDField: "sentence_id"})
	re, ok := IsRejected(err)
	require.True(t, ok, "expected RejectedError, got %v", err)
	assert.Equal(t, "Unknown error", re.Reason())
}

func TestQuizRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/moduleD/quiz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"quiz_id":"quiz_1234","total_questions":2,"questions":[
			{"id":0,"number":1,"sentence":"She ___ going.","category":"be_verb"},
			{"id":1,"number":2,"sentence":"They ___ ready.","category":"be_verb"}]}`))
	})
	mux.HandleFunc("/api/moduleD/submit", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Answers []string `json:"answers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"is", ""}, body.Answers)
		w.Write([]byte(`{"score":1,"total":2,"review":[
			{"question_number":1,"sentence":"She ___ going.","user_answer":"is","correct_answer":"is","correct":true},
			{"question_number":2,"sentence":"They ___ ready.","user_answer":"(no answer)","correct_answer":"are","correct":false}]}`))
	})
	c := newTestClient(t, mux)

	q, err := c.FetchQuiz(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "quiz_1234", q.ID)
	require.Len(t, q.Questions, 2)
	assert.Equal(t, "They ___ ready.", q.Questions[1].Sentence)

	res, err := c.SubmitQuiz(context.Background(), []string{"is", ""})
	require.NoError(t, err)
	require.NotNil(t, res.Score)
	assert.InDelta(t, 1, *res.Score, 1e-9)
	assert.Nil(t, res.Percentage)
	assert.Nil(t, res.CorrectCount)
	require.Len(t, res.Review, 2)
	assert.False(t, res.Review[1].Correct)
}

func TestFetchQuizEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"questions":[]}`))
	}))
	_, err := c.FetchQuiz(context.Background())
	assert.ErrorIs(t, err, ErrInvalidQuiz)
}

func TestSubmitQuizRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"No active quiz found. Please start a new quiz."}`))
	}))
	_, err := c.SubmitQuiz(context.Background(), nil)
	re, ok := IsRejected(err)
	require.True(t, ok)
	assert.Equal(t, "No active quiz found. Please start a new quiz.", re.Reason())
}

func TestLoginCookieSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var cred Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&cred))
		if cred.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"error":"Invalid email or password"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Write([]byte(`{"success":true,"message":"Login successful"}`))
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/api/moduleA/sentence", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("session"); err != nil || ck.Value != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"error":"Authentication required"}`))
			return
		}
		w.Write([]byte(`{"success":true,"sentence":"Hi.","sentence_id":1}`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	err := c.Login(ctx, "a@b.c", "wrong")
	re, ok := IsRejected(err)
	require.True(t, ok, "bad credentials should be rejected, got %v", err)
	assert.Equal(t, "Invalid email or password", re.Reason())

	_, err = c.FetchPrompt(ctx, sentenceSpec)
	assert.ErrorIs(t, err, ErrAuthRequired)

	require.NoError(t, c.Login(ctx, "a@b.c", "secret"))
	_, err = c.FetchPrompt(ctx, sentenceSpec)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	_, err = c.FetchPrompt(ctx, sentenceSpec)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestSignupValidation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":"All fields are required"}`))
	}))
	err := c.Signup(context.Background(), Credentials{Email: "a@b.c"})
	re, ok := IsRejected(err)
	require.True(t, ok)
	assert.Equal(t, "All fields are required", re.Reason())
}

func TestMetricsLines(t *testing.T) {
	var m *NetworkMetrics
	assert.Nil(t, m.Lines())
	m = &NetworkMetrics{ConnReused: true, UploadSize: 2048}
	lines := m.Lines()
	assert.Contains(t, lines, "conn:     reused")
	assert.Contains(t, lines, "upload:   2.0 KB")
}
