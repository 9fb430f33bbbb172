package speech

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
)

func withPath(t *testing.T, found ...string) {
	t.Helper()
	orig := lookPath
	lookPath = func(bin string) (string, error) {
		for _, f := range found {
			if f == bin {
				return "/usr/bin/" + bin, nil
			}
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestNewLocalPrefersEspeakNG(t *testing.T) {
	withPath(t, "say", "espeak-ng")
	l, err := NewLocal(DefaultRate)
	require.NoError(t, err)
	assert.Equal(t, "espeak-ng", l.Name())
	assert.Equal(t, []string{"-v", "en-us", "-s", "149", "--", "Hello there."}, l.args("Hello there."))
}

func TestNewLocalSay(t *testing.T) {
	withPath(t, "say")
	l, err := NewLocal(DefaultRate)
	require.NoError(t, err)
	assert.Equal(t, []string{"-r", "149", "--", "-dash first"}, l.args("-dash first"))
}

func TestNewProviders(t *testing.T) {
	withPath(t)
	_, err := New(context.Background(), Config{Provider: "none"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(context.Background(), Config{Provider: "auto"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(context.Background(), Config{Provider: "local"})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = New(context.Background(), Config{Provider: "robot"})
	assert.Error(t, err)

	withPath(t, "espeak")
	s, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, "espeak", s.Name())
}

type fakeSynth struct {
	req   *texttospeechpb.SynthesizeSpeechRequest
	audio []byte
	err   error
}

func (f *fakeSynth) SynthesizeSpeech(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest, _ ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: f.audio}, nil
}

func TestGoogleSpeak(t *testing.T) {
	wav := append([]byte("RIFF"), make([]byte, 40)...)
	wav = append(wav, 0x01, 0x00, 0x02, 0x00)
	synth := &fakeSynth{audio: wav}

	var played []int16
	var rate int
	g := &Google{client: synth, rate: DefaultRate, play: func(_ context.Context, s []int16, r int) error {
		played, rate = s, r
		return nil
	}}
	require.NoError(t, g.Speak(context.Background(), "Where is the station?"))

	assert.Equal(t, "Where is the station?", synth.req.GetInput().GetText())
	assert.Equal(t, "en-US", synth.req.GetVoice().GetLanguageCode())
	assert.Equal(t, texttospeechpb.AudioEncoding_LINEAR16, synth.req.GetAudioConfig().GetAudioEncoding())
	assert.InDelta(t, 0.85, synth.req.GetAudioConfig().GetSpeakingRate(), 1e-9)
	assert.Equal(t, []int16{1, 2}, played)
	assert.Equal(t, 16000, rate)
	assert.NoError(t, g.Close())
}

func TestGoogleSpeakError(t *testing.T) {
	g := &Google{client: &fakeSynth{err: errors.New("quota")}, play: func(context.Context, []int16, int) error {
		t.Fatal("nothing to play")
		return nil
	}}
	assert.ErrorContains(t, g.Speak(context.Background(), "x"), "quota")
}

func TestFake(t *testing.T) {
	f := &Fake{}
	require.NoError(t, f.Speak(context.Background(), "one"))
	f.Err = errors.New("busy")
	assert.Error(t, f.Speak(context.Background(), "two"))
	assert.Equal(t, []string{"one", "two"}, f.Spoken())
}
