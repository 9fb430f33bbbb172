package recording

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"orator/audio"
	"orator/encoder"
	"orator/log"
)

// Microphone hands out a capture device for each recording.
type Microphone interface {
	Open() (audio.CaptureDevice, error)
}

// Observer receives everything the UI needs to render a controller.
// Calls are made without the controller lock held; InputLevel arrives on
// the audio goroutine.
type Observer interface {
	StateChanged(from, to State)
	CountdownTick(remaining int)
	RecordingTick(elapsed, remaining time.Duration)
	InputLevel(rms float64)
	NoVoice(active bool)
	Notice(msg string)
}

type NopObserver struct{}

func (NopObserver) StateChanged(State, State)                 {}
func (NopObserver) CountdownTick(int)                         {}
func (NopObserver) RecordingTick(time.Duration, time.Duration) {}
func (NopObserver) InputLevel(float64)                        {}
func (NopObserver) NoVoice(bool)                              {}
func (NopObserver) Notice(string)                             {}

// Payload is a finished recording ready for upload. It carries no record
// of how the recording was stopped.
type Payload struct {
	PromptID int
	Audio    []byte
	Format   encoder.Format
	MimeType string
	Filename string
	Duration time.Duration
}

type CaptureHandler func(Payload)

type Config struct {
	// Countdown in seconds before capture starts; 0 records immediately.
	Countdown int
	// MaxDuration auto-stops the recording; 0 means unbounded.
	MaxDuration time.Duration
	Display     Display
	// Gated requires MarkPromptPlayed before a recording may start.
	Gated   bool
	Format  encoder.Format
	Capture audio.CaptureConfig
}

type Option func(*Controller)

func WithClock(c Clock) Option          { return func(ctl *Controller) { ctl.clock = c } }
func WithObserver(o Observer) Option    { return func(ctl *Controller) { ctl.obs = o } }
func OnCapture(h CaptureHandler) Option { return func(ctl *Controller) { ctl.onCapture = h } }

// Controller owns the recording lifecycle for one active module.
type Controller struct {
	cfg       Config
	mic       Microphone
	clock     Clock
	obs       Observer
	onCapture CaptureHandler

	mu       sync.Mutex
	effects  []func()
	state    State
	promptID int
	played   bool
	closed   bool
	gen      uint64
	task     Task
	left     int
	rec      *take
}

// take is the state of one in-progress recording.
type take struct {
	dev      audio.CaptureDevice
	buf      CaptureBuffer
	ticks    int
	peak     atomic.Uint64
	monitor  *silenceMonitor
	released bool
}

func New(cfg Config, mic Microphone, opts ...Option) *Controller {
	c := &Controller{
		cfg:   cfg,
		mic:   mic,
		clock: RealClock(),
		obs:   NopObserver{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) lock() { c.mu.Lock() }

// unlock releases the mutex and then runs queued observer and handler calls,
// so callbacks may re-enter the controller.
func (c *Controller) unlock() {
	fx := c.effects
	c.effects = nil
	c.mu.Unlock()
	for _, f := range fx {
		f()
	}
}

func (c *Controller) emit(f func()) {
	c.effects = append(c.effects, f)
}

func (c *Controller) State() State {
	c.lock()
	defer c.unlock()
	return c.state
}

func (c *Controller) PromptID() int {
	c.lock()
	defer c.unlock()
	return c.promptID
}

func (c *Controller) Played() bool {
	c.lock()
	defer c.unlock()
	return c.played
}

func (c *Controller) Config() Config { return c.cfg }

// Load installs a new prompt. The controller must be idle.
func (c *Controller) Load(promptID int) error {
	c.lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != Idle {
		return ErrNotIdle
	}
	c.promptID = promptID
	c.played = false
	return nil
}

func (c *Controller) MarkPromptPlayed() {
	c.lock()
	defer c.unlock()
	c.played = true
}

// RequestToggle is the single record button: it starts from Idle and stops
// from Recording. It does nothing during Countdown and Processing.
func (c *Controller) RequestToggle() error {
	c.lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case Idle:
		if err := c.gate(); err != nil {
			return err
		}
		if c.cfg.Countdown > 0 {
			c.beginCountdown(c.cfg.Countdown)
			return nil
		}
		return c.beginRecording()
	case Recording:
		c.stop(StopManual)
	}
	return nil
}

// BeginCountdown shows n, n-1, ... 1 once per second and then starts capture.
func (c *Controller) BeginCountdown(n int) error {
	c.lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != Idle {
		return ErrInvalidTransition
	}
	if err := c.gate(); err != nil {
		return err
	}
	if n <= 0 {
		return c.beginRecording()
	}
	c.beginCountdown(n)
	return nil
}

// BeginRecording acquires the microphone immediately, skipping or cutting
// short any countdown.
func (c *Controller) BeginRecording() error {
	c.lock()
	defer c.unlock()
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case Idle:
		if err := c.gate(); err != nil {
			return err
		}
	case Countdown:
	default:
		return ErrInvalidTransition
	}
	return c.beginRecording()
}

// Stop ends the active recording and hands the payload to the capture
// handler. It is a no-op in any other state.
func (c *Controller) Stop() {
	c.lock()
	defer c.unlock()
	c.stop(StopManual)
}

// ResetToIdle cancels timers, releases the device and returns to Idle.
// A live recording must be stopped first.
func (c *Controller) ResetToIdle() error {
	c.lock()
	defer c.unlock()
	if c.state == Recording {
		return ErrInvalidTransition
	}
	c.release()
	c.rec = nil
	c.setState(Idle)
	return nil
}

// Close abandons whatever is in progress. Captured audio is discarded and
// the controller accepts no further work.
func (c *Controller) Close() {
	c.lock()
	defer c.unlock()
	if c.closed {
		return
	}
	if c.rec != nil {
		c.release()
		c.rec.buf.Seal()
		c.rec = nil
		log.Info("recording abandoned")
	}
	c.cancelTask()
	c.setState(Idle)
	c.closed = true
}

func (c *Controller) gate() error {
	if c.cfg.Gated && !c.played {
		c.notice(MsgListenFirst)
		return ErrPromptNotPlayed
	}
	return nil
}

func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	log.Transition(from.String(), to.String())
	obs := c.obs
	c.emit(func() { obs.StateChanged(from, to) })
}

func (c *Controller) notice(msg string) {
	obs := c.obs
	c.emit(func() { obs.Notice(msg) })
}

func (c *Controller) schedule(d time.Duration, step func()) {
	c.cancelTask()
	gen := c.gen
	c.task = c.clock.AfterFunc(d, func() {
		c.lock()
		defer c.unlock()
		if c.closed || gen != c.gen {
			return
		}
		c.task = nil
		step()
	})
}

func (c *Controller) cancelTask() {
	c.gen++
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
}

func (c *Controller) beginCountdown(n int) {
	c.setState(Countdown)
	c.left = n
	obs := c.obs
	c.emit(func() { obs.CountdownTick(n) })
	c.schedule(time.Second, c.countdownStep)
}

func (c *Controller) countdownStep() {
	if c.state != Countdown {
		return
	}
	c.left--
	if c.left > 0 {
		left, obs := c.left, c.obs
		c.emit(func() { obs.CountdownTick(left) })
		c.schedule(time.Second, c.countdownStep)
		return
	}
	_ = c.beginRecording()
}

func (c *Controller) beginRecording() error {
	c.cancelTask()

	t := &take{monitor: newSilenceMonitor()}
	var dev audio.CaptureDevice
	err := audio.ErrDeviceUnavailable
	if c.mic != nil {
		dev, err = c.mic.Open()
	}
	if err == nil {
		t.dev = dev
		dev.SetCallback(c.captureCallback(t))
		if err = dev.Start(); err != nil {
			dev.ClearCallback()
			dev.Close()
		}
	}
	if err != nil {
		err = audio.Classify(err)
		log.Warnf("recording start failed: %v", err)
		c.setState(Idle)
		c.notice(audio.UserMessage(err))
		return err
	}

	c.rec = t
	c.setState(Recording)
	log.Infof("recording started on %s", dev.DeviceName())
	limit, obs := c.cfg.MaxDuration, c.obs
	c.emit(func() { obs.RecordingTick(0, limit) })
	c.schedule(time.Second, c.recordingStep)
	return nil
}

func (c *Controller) captureCallback(t *take) audio.DataCallback {
	obs := c.obs
	return func(data []byte, _ uint32) {
		if !t.buf.Append(data) {
			return
		}
		rms := audio.RMS(data)
		for {
			old := t.peak.Load()
			if rms <= math.Float64frombits(old) || t.peak.CompareAndSwap(old, math.Float64bits(rms)) {
				break
			}
		}
		obs.InputLevel(rms)
	}
}

func (c *Controller) recordingStep() {
	t := c.rec
	if c.state != Recording || t == nil {
		return
	}
	t.ticks++
	elapsed := time.Duration(t.ticks) * time.Second
	var remaining time.Duration
	if c.cfg.MaxDuration > 0 {
		remaining = max(c.cfg.MaxDuration-elapsed, 0)
	}
	obs := c.obs
	c.emit(func() { obs.RecordingTick(elapsed, remaining) })

	peak := math.Float64frombits(t.peak.Swap(0))
	switch t.monitor.Tick(peak >= SpeechLevel) {
	case SilenceWarn, SilenceRepeat:
		c.emit(func() { obs.NoVoice(true) })
	case SilenceWarnClear:
		c.emit(func() { obs.NoVoice(false) })
	}

	if c.cfg.MaxDuration > 0 && remaining <= 0 {
		c.stop(StopTimeout)
		return
	}
	c.schedule(time.Second, c.recordingStep)
}

func (c *Controller) stop(reason StopReason) {
	t := c.rec
	if c.state != Recording || t == nil {
		return
	}
	c.release()
	c.rec = nil
	c.setState(Processing)

	pcm := t.buf.Seal()
	res, err := encoder.Encode(c.cfg.Format, pcm)
	if err != nil {
		log.Errorf("encode recording: %v", err)
		c.setState(Idle)
		c.notice(MsgEncodeFailed)
		return
	}
	log.RecordingStop(reason.String(), res.Duration.Seconds(), len(res.Data))

	p := Payload{
		PromptID: c.promptID,
		Audio:    res.Data,
		Format:   res.Format,
		MimeType: res.Format.MimeType(),
		Filename: PayloadFilename,
		Duration: res.Duration,
	}
	if c.onCapture == nil {
		c.setState(Idle)
		return
	}
	h := c.onCapture
	c.emit(func() { h(p) })
}

// release is the single teardown path: it cancels the pending tick and
// frees the capture device at most once per recording.
func (c *Controller) release() {
	c.cancelTask()
	t := c.rec
	if t == nil || t.released {
		return
	}
	t.released = true
	if t.dev != nil {
		t.dev.ClearCallback()
		t.dev.Stop()
		t.dev.Close()
	}
}
