package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"orator/api"
	"orator/audio"
	"orator/clipboard"
	"orator/encoder"
	"orator/practice"
	"orator/recording"
)

// Backend is the part of the API client the checks exercise.
type Backend interface {
	BaseURL() string
	Ping(ctx context.Context) (*api.NetworkMetrics, error)
	FetchPrompt(ctx context.Context, spec api.PromptSpec) (*api.Prompt, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
	Name() string
}

type Options struct {
	Backend Backend
	Audio   audio.Context
	Device  *audio.DeviceInfo
	// Speaker is nil when no synthesizer is available.
	Speaker Speaker
	// RecordFor is how long the microphone check listens.
	RecordFor time.Duration
	// Interactive asks the user to confirm what they heard.
	Interactive bool
	// Clipboard runs the clipboard round trip.
	Clipboard bool

	In  io.Reader
	Out io.Writer
}

type check struct {
	name string
	run  func(ctx context.Context) bool
}

// Run executes the diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(ctx context.Context, o Options) int {
	if o.Interactive {
		resetTerminal()
	}
	d := &doctor{Options: o, in: bufio.NewReader(o.In)}
	if d.RecordFor <= 0 {
		d.RecordFor = 3 * time.Second
	}

	fmt.Fprintln(d.Out, "orator doctor - system diagnostics")
	fmt.Fprintln(d.Out, "==================================")

	checks := []check{
		{"Backend", d.checkBackend},
		{"Session", d.checkSession},
		{"Microphone", d.checkMicrophone},
		{"Speech", d.checkSpeech},
	}
	if d.Clipboard {
		checks = append(checks, check{"Clipboard", d.checkClipboard})
	}

	allPass := true
	for i, c := range checks {
		if ctx.Err() != nil {
			fmt.Fprintln(d.Out, "\nInterrupted")
			return 1
		}
		fmt.Fprintln(d.Out)
		fmt.Fprintf(d.Out, "[%d/%d] %s\n", i+1, len(checks), c.name)
		if !c.run(ctx) {
			allPass = false
		}
	}

	fmt.Fprintln(d.Out)
	if allPass {
		fmt.Fprintln(d.Out, "All checks passed!")
		return 0
	}
	fmt.Fprintln(d.Out, "Some checks failed. See details above.")
	return 1
}

type doctor struct {
	Options
	in *bufio.Reader
}

func (d *doctor) pass(format string, args ...any) bool {
	fmt.Fprintf(d.Out, "  PASS: "+format+"\n", args...)
	return true
}

func (d *doctor) fail(format string, args ...any) bool {
	fmt.Fprintf(d.Out, "  FAIL: "+format+"\n", args...)
	return false
}

func (d *doctor) warn(format string, args ...any) {
	fmt.Fprintf(d.Out, "  WARN: "+format+"\n", args...)
}

func (d *doctor) confirm(question string) bool {
	fmt.Fprintf(d.Out, "%s [y/n]: ", question)
	answer, _ := d.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (d *doctor) checkBackend(ctx context.Context) bool {
	if d.Backend == nil {
		return d.fail("no server configured")
	}
	start := time.Now()
	m, err := d.Backend.Ping(ctx)
	if err != nil {
		return d.fail("%s unreachable: %v", d.Backend.BaseURL(), err)
	}
	for _, line := range m.Lines() {
		fmt.Fprintf(d.Out, "  %s\n", line)
	}
	return d.pass("%s answered in %dms", d.Backend.BaseURL(), time.Since(start).Milliseconds())
}

// checkSession only warns when logged out; login is a separate step.
func (d *doctor) checkSession(ctx context.Context) bool {
	if d.Backend == nil {
		return d.fail("no server configured")
	}
	m, _ := practice.Lookup(practice.ModuleA)
	p, err := d.Backend.FetchPrompt(ctx, m.Prompt)
	switch {
	case errors.Is(err, api.ErrAuthRequired):
		d.warn("not logged in; run `orator login`")
		return true
	case err != nil:
		return d.fail("fetch sentence: %v", err)
	}
	return d.pass("logged in, sample sentence %q", p.Text)
}

func (d *doctor) checkMicrophone(ctx context.Context) bool {
	if d.Audio == nil {
		return d.fail("cannot connect to audio")
	}
	opener := &audio.Opener{
		Ctx:    d.Audio,
		Device: d.Device,
		Config: audio.CaptureConfig{SampleRate: encoder.SampleRate, Channels: encoder.Channels},
	}
	if err := opener.Probe(); err != nil {
		return d.fail("%s", audio.UserMessage(err))
	}

	if d.Interactive {
		fmt.Fprintf(d.Out, "Press Enter and speak for %.0f seconds...", d.RecordFor.Seconds())
		d.in.ReadString('\n')
	}
	pcm, name, err := record(ctx, opener, d.RecordFor)
	if err != nil {
		return d.fail("%s", audio.UserMessage(audio.Classify(err)))
	}
	if len(pcm) == 0 {
		return d.fail("no audio captured from %s", name)
	}

	res, err := encoder.Encode(encoder.WAV, pcm)
	if err != nil {
		return d.fail("encode: %v", err)
	}
	level := audio.RMS(pcm)
	fmt.Fprintf(d.Out, "  Recorded %.1fs from %s (%.1f KB wav), level %.3f\n",
		res.Duration.Seconds(), name, float64(len(res.Data))/1024, level)
	if level < recording.SpeechLevel {
		d.warn("input is very quiet; check the microphone gain")
	}
	return d.pass("microphone captured audio")
}

// record captures for dur, or until ctx is done.
func record(ctx context.Context, o *audio.Opener, dur time.Duration) ([]byte, string, error) {
	dev, err := o.Open()
	if err != nil {
		return nil, "", err
	}
	defer dev.Close()

	var (
		mu  sync.Mutex
		buf []byte
	)
	dev.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		buf = append(buf, data...)
		mu.Unlock()
	})
	if err := dev.Start(); err != nil {
		return nil, dev.DeviceName(), err
	}

	t := time.NewTimer(dur)
	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
	}
	dev.ClearCallback()
	dev.Stop()

	mu.Lock()
	defer mu.Unlock()
	return buf, dev.DeviceName(), ctx.Err()
}

func (d *doctor) checkSpeech(ctx context.Context) bool {
	if d.Speaker == nil {
		d.warn("no speech synthesizer; Listen & Repeat prompts cannot be played")
		return true
	}
	if err := d.Speaker.Speak(ctx, "The weather is lovely today."); err != nil {
		return d.fail("%s: %v", d.Speaker.Name(), err)
	}
	if d.Interactive && !d.confirm("Did you hear \"The weather is lovely today.\"?") {
		return d.fail("%s playback not confirmed", d.Speaker.Name())
	}
	return d.pass("%s synthesizer works", d.Speaker.Name())
}

func (d *doctor) checkClipboard(context.Context) bool {
	msg, err := clipboard.Verify()
	if err != nil {
		return d.fail("%v", err)
	}
	return d.pass("%s", msg)
}
