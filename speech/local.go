package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// engines are tried in order; wpm is the engine's normal speaking rate.
var engines = []struct {
	bin string
	wpm int
}{
	{"espeak-ng", 175},
	{"espeak", 175},
	{"say", 175},
}

var lookPath = exec.LookPath

// Local drives a speech synthesizer installed on the system.
type Local struct {
	bin  string
	path string
	wpm  int
}

// NewLocal finds the first installed engine; rate scales its normal pace.
func NewLocal(rate float64) (*Local, error) {
	for _, e := range engines {
		if p, err := lookPath(e.bin); err == nil {
			return &Local{bin: e.bin, path: p, wpm: int(float64(e.wpm)*rate + 0.5)}, nil
		}
	}
	return nil, ErrUnavailable
}

func (l *Local) Name() string { return l.bin }

func (l *Local) args(text string) []string {
	rate := strconv.Itoa(l.wpm)
	if l.bin == "say" {
		return []string{"-r", rate, "--", text}
	}
	return []string{"-v", "en-us", "-s", rate, "--", text}
}

func (l *Local) Speak(ctx context.Context, text string) error {
	out, err := exec.CommandContext(ctx, l.path, l.args(text)...).CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", l.bin, err, out)
	}
	return nil
}
