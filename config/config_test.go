package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config lookup at an empty directory and runs the test
// from another one so no real config or .env is picked up.
func isolate(t *testing.T) (xdg, wd string) {
	t.Helper()
	xdg, wd = t.TempDir(), t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(wd)
	return xdg, wd
}

func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultServer, cfg.Server)
	assert.Equal(t, "wav", cfg.Format)
	assert.True(t, cfg.Cues)
	assert.Equal(t, 4, cfg.Countdown)
	assert.Equal(t, 120*time.Second, cfg.TopicLimit())
	assert.Equal(t, 5*time.Second, cfg.ResultsWindow())
	assert.Equal(t, "auto", cfg.Speech.Provider)
	assert.InDelta(t, 0.85, cfg.Speech.Rate, 1e-9)
}

func TestFileThenEnv(t *testing.T) {
	xdg, _ := isolate(t)
	dir := filepath.Join(xdg, "orator")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
server = "https://speak.example.com/"
format = "FLAC"
cues = false
countdown = 3

[speech]
provider = "google"
voice = "en-US-Neural2-C"
`), 0o644))
	t.Setenv("ORATOR_COUNTDOWN", "2")
	t.Setenv("ORATOR_SPEECH_VOICE", "en-US-Wavenet-A")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://speak.example.com", cfg.Server)
	assert.Equal(t, "flac", cfg.Format)
	assert.False(t, cfg.Cues)
	assert.Equal(t, 2, cfg.Countdown)
	assert.Equal(t, "google", cfg.Speech.Provider)
	assert.Equal(t, "en-US-Wavenet-A", cfg.Speech.Voice)
	assert.Equal(t, 120, cfg.TopicSeconds, "unset keys keep their defaults")
}

func TestDotEnv(t *testing.T) {
	_, wd := isolate(t)
	unset(t, "ORATOR_EMAIL")
	t.Setenv("ORATOR_SERVER", "http://from-env:8080")
	require.NoError(t, os.WriteFile(filepath.Join(wd, ".env"),
		[]byte("ORATOR_EMAIL=learner@example.com\nORATOR_SERVER=http://from-dotenv\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "learner@example.com", cfg.Email)
	assert.Equal(t, "http://from-env:8080", cfg.Server, "real environment wins over .env")
}

func TestExplicitPathMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestBadEnvNumber(t *testing.T) {
	isolate(t)
	t.Setenv("ORATOR_TOPIC_SECONDS", "two minutes")
	_, err := Load("")
	assert.ErrorContains(t, err, "ORATOR_TOPIC_SECONDS")
}

func TestNoCues(t *testing.T) {
	isolate(t)
	t.Setenv("ORATOR_NO_CUES", "1")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Cues)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server = "not a url"
	cfg.Format = "mp3"
	cfg.Countdown = 30
	cfg.Speech.Provider = "robot"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "server: must be a URL")
	assert.Contains(t, msg, "format: must be one of wav, flac")
	assert.Contains(t, msg, "countdown: must be at most 10")
	assert.Contains(t, msg, "speech.provider: must be one of auto, local, google, none")
}
