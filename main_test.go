package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orator/api"
	"orator/audio"
	"orator/beep"
	"orator/config"
	"orator/encoder"
	"orator/practice"
	"orator/recording"
)

func TestMain(m *testing.M) {
	beep.Disable()
	m.Run()
}

func TestTeaViewTagsEventsWithGeneration(t *testing.T) {
	var got []tea.Msg
	v := newTeaView(7, func(msg tea.Msg) { got = append(got, msg) })

	v.PromptReady(practice.Session{PromptID: 3})
	v.StateChanged(recording.Idle, recording.Recording)
	v.Navigate("/moduleC")

	require.Len(t, got, 3)
	for _, msg := range got {
		fm, ok := msg.(flowMsg)
		require.True(t, ok)
		assert.Equal(t, uint64(7), fm.gen)
	}
	assert.Equal(t, promptEv{practice.Session{PromptID: 3}}, got[0].(flowMsg).ev)
	assert.Equal(t, stateEv{recording.Idle, recording.Recording}, got[1].(flowMsg).ev)
	assert.Equal(t, navigateEv{"/moduleC"}, got[2].(flowMsg).ev)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, wrapText("", 10))
	assert.Equal(t, []string{"the quick", "brown fox"}, wrapText("the quick brown fox", 10))
	assert.Equal(t, []string{"one", "two three"}, wrapText("one\ntwo three", 20))
}

func TestHelpSkipsEmptyKeys(t *testing.T) {
	out := help("enter", "next", "", "previous", "esc", "leave")
	assert.Contains(t, out, "next")
	assert.Contains(t, out, "leave")
	assert.NotContains(t, out, "previous")
}

func TestDeviceLine(t *testing.T) {
	assert.Equal(t, "mic: default", deviceLineText(nil))
	assert.Contains(t, deviceLineText(&audio.DeviceInfo{Name: "AirPods Pro"}), "bluetooth")
	assert.Equal(t, "mic: USB Mic", deviceLineText(&audio.DeviceInfo{Name: "USB Mic"}))
}

func TestLoadConfigAppliesOnlyChangedFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ORATOR_DEVICE", "usb")
	t.Chdir(t.TempDir())

	f := &flags{}
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&f.server, "server", "", "")
	addRunFlags(cmd, f)
	require.NoError(t, cmd.Flags().Parse([]string{"--server", "http://example.com/", "--format", "FLAC", "--no-cues"}))

	cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", cfg.Server)
	assert.Equal(t, "flac", cfg.Format)
	assert.False(t, cfg.Cues)
	assert.Equal(t, "usb", cfg.Device)
}

func TestLoadConfigRejectsBadFormat(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	f := &flags{}
	cmd := &cobra.Command{}
	addRunFlags(cmd, f)
	require.NoError(t, cmd.Flags().Parse([]string{"--format", "ogg"}))

	_, err := loadConfig(cmd, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/api/moduleB/sentence", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{"success": true, "sentence": "Hello there", "sentence_id": 7})
	})
	mux.HandleFunc("/api/moduleD/quiz", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{
			"success": true,
			"quiz_id": "q1",
			"questions": []map[string]any{
				{"number": 1, "sentence": "She ___ happy."},
				{"number": 2, "sentence": "They ___ here."},
			},
		})
	})
	mux.HandleFunc("/api/moduleD/submit", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Answers []string }
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, []string{"is", ""}, body.Answers)
		reply(w, map[string]any{
			"success":       true,
			"correct_count": 1,
			"total":         2,
			"review": []map[string]any{
				{"question_number": 1, "sentence": "She ___ happy.", "user_answer": "is", "correct": true},
				{"question_number": 2, "sentence": "They ___ here.", "user_answer": "", "correct": false, "correct_answer": "are"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func scriptApp(srv *httptest.Server) *app {
	return &app{
		cfg:    config.Default(),
		client: api.New(api.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}),
		audio:  audio.NewFakeContext(nil),
		format: encoder.WAV,
	}
}

func TestScriptQuiz(t *testing.T) {
	srv := backend(t)
	var out bytes.Buffer
	in := strings.NewReader("QUIZ\nANSWER is\nANSWER\nQUIT\n")

	require.NoError(t, runScript(context.Background(), scriptApp(srv), practice.ModuleD, in, &out))

	got := out.String()
	assert.Contains(t, got, `question 1/2 "She ___ happy." [Next Quiz]`)
	assert.Contains(t, got, `question 2/2 "They ___ here." [Submit Quiz]`)
	assert.Contains(t, got, "quiz 50% 1/2")
	assert.Contains(t, got, `2 "(no answer)" wrong correct="are"`)
	assert.Contains(t, got, "report "+srv.URL+"/report")
}

func TestScriptListenFirstGate(t *testing.T) {
	srv := backend(t)
	var out bytes.Buffer
	in := strings.NewReader("LOAD\nTOGGLE\nQUIT\n")

	require.NoError(t, runScript(context.Background(), scriptApp(srv), practice.ModuleB, in, &out))

	got := out.String()
	assert.Contains(t, got, `prompt 1/10 id=7 "Hello there"`)
	assert.Contains(t, got, `notice "Please listen to the audio first"`)
	assert.NotContains(t, got, "-> countdown")
}

func TestScriptUnknownCommand(t *testing.T) {
	srv := backend(t)
	var out bytes.Buffer
	in := strings.NewReader("DANCE\nQUIT\n")

	require.NoError(t, runScript(context.Background(), scriptApp(srv), practice.ModuleA, in, &out))
	assert.Contains(t, out.String(), "error dance: unknown command")
}
