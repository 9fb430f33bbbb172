package doctor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"orator/api"
	"orator/audio"
	"orator/speech"
)

type fakeBackend struct {
	pingErr  error
	fetchErr error
}

func (b *fakeBackend) BaseURL() string { return "http://speak.test" }
func (b *fakeBackend) Ping(context.Context) (*api.NetworkMetrics, error) {
	if b.pingErr != nil {
		return nil, b.pingErr
	}
	return &api.NetworkMetrics{Status: 200}, nil
}
func (b *fakeBackend) FetchPrompt(context.Context, api.PromptSpec) (*api.Prompt, error) {
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return &api.Prompt{ID: 1, Text: "The cat sat."}, nil
}

func loud(samples int) []byte {
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(8000)
		if i%2 == 1 {
			v = -8000
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func run(o Options) (int, string) {
	var out bytes.Buffer
	o.Out = &out
	o.In = strings.NewReader("")
	o.RecordFor = 10 * time.Millisecond
	code := Run(context.Background(), o)
	return code, out.String()
}

func TestAllPass(t *testing.T) {
	sp := &speech.Fake{}
	code, out := run(Options{
		Backend: &fakeBackend{},
		Audio:   audio.NewFakeContext(loud(16000)),
		Speaker: sp,
	})
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "[1/4] Backend")
	assert.Contains(t, out, `logged in, sample sentence "The cat sat."`)
	assert.Contains(t, out, "Recorded 1.0s from fake")
	assert.Contains(t, out, "PASS: fake synthesizer works")
	assert.Contains(t, out, "All checks passed!")
	assert.Len(t, sp.Spoken(), 1)
}

func TestLoggedOutOnlyWarns(t *testing.T) {
	code, out := run(Options{
		Backend: &fakeBackend{fetchErr: api.ErrAuthRequired},
		Audio:   audio.NewFakeContext(loud(1600)),
	})
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "WARN: not logged in")
	assert.Contains(t, out, "WARN: no speech synthesizer")
}

func TestFailures(t *testing.T) {
	noMic := audio.NewFakeContext(nil)
	noMic.Inputs = nil
	code, out := run(Options{
		Backend: &fakeBackend{pingErr: errors.New("connection refused")},
		Audio:   noMic,
		Speaker: &speech.Fake{Err: errors.New("no sink")},
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "FAIL: http://speak.test unreachable: connection refused")
	assert.Contains(t, out, "FAIL: No microphone found. Please connect a microphone.")
	assert.Contains(t, out, "FAIL: fake: no sink")
	assert.Contains(t, out, "Some checks failed.")
}

func TestQuietMicrophoneWarns(t *testing.T) {
	code, out := run(Options{
		Backend: &fakeBackend{},
		Audio:   audio.NewFakeContext(make([]byte, 3200)),
	})
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "WARN: input is very quiet")
}

func TestPermissionDenied(t *testing.T) {
	ctx := audio.NewFakeContext(loud(100))
	ctx.OpenErr = errors.New("access denied by system policy")
	_, out := run(Options{Backend: &fakeBackend{}, Audio: ctx})
	assert.Contains(t, out, "FAIL: Microphone access denied. Please allow microphone access.")
}

func TestInterruptedStopsBeforeChecks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	code := Run(ctx, Options{Backend: &fakeBackend{}, In: strings.NewReader(""), Out: &out})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Interrupted")
	assert.NotContains(t, out.String(), "[1/")
}
