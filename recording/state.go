package recording

import (
	"errors"
	"fmt"
	"time"
)

type State int

const (
	Idle State = iota
	Countdown
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Countdown:
		return "countdown"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Display selects how the recording timer is presented.
type Display int

const (
	DisplayElapsed   Display = iota // mm:ss counting up
	DisplayRemaining                // m:ss counting down to auto-stop
)

type StopReason int

const (
	StopManual StopReason = iota
	StopTimeout
)

func (r StopReason) String() string {
	if r == StopTimeout {
		return "timeout"
	}
	return "manual"
}

var (
	ErrPromptNotPlayed   = errors.New("prompt has not been played")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotIdle           = errors.New("controller is not idle")
	ErrClosed            = errors.New("controller closed")
)

const (
	MsgListenFirst   = "Please listen to the audio first"
	MsgEncodeFailed  = "Failed to process audio. Please try again."
	PayloadFilename  = "recording.wav"
	defaultCountdown = 4
)

// FormatElapsed renders d as mm:ss.
func FormatElapsed(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// FormatRemaining renders d as m:ss.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
