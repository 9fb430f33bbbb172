package practice

import (
	"context"
	"errors"
	"sync"

	"orator/api"
	"orator/audio"
	"orator/encoder"
	"orator/log"
	"orator/recording"
)

const (
	MsgNetwork        = "Network error. Please check your connection."
	MsgMicRequired    = "Microphone access is required for this module"
	MsgPlaybackFailed = "Audio playback failed. Please try again."
	MsgNoSpeech       = "Text-to-speech is not available on this system"
)

var (
	ErrNoSpeaker   = errors.New("no speech synthesizer configured")
	ErrResultsOpen = errors.New("results are still open")
	ErrSubmitting  = errors.New("submission in progress")
)

type Client interface {
	FetchPrompt(ctx context.Context, spec api.PromptSpec) (*api.Prompt, error)
	Submitter
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// View is the flow's output side. Calls may arrive from any goroutine.
type View interface {
	Loading(on bool)
	PromptReady(s Session)
	Playback(playing bool)
	Results(r Results)
	CloseResults()
	Message(text string)
	ConfirmCompletion(m Module)
	Navigate(route string)
}

type flowOptions struct {
	clock    recording.Clock
	observer recording.Observer
	speaker  Speaker
	run      func(func())
	format   encoder.Format
	capture  audio.CaptureConfig
}

type FlowOption func(*flowOptions)

func WithClock(c recording.Clock) FlowOption { return func(o *flowOptions) { o.clock = c } }

func WithObserver(obs recording.Observer) FlowOption {
	return func(o *flowOptions) { o.observer = obs }
}

func WithSpeaker(s Speaker) FlowOption { return func(o *flowOptions) { o.speaker = s } }

// WithRunner sets how submissions are dispatched; the default is a new goroutine.
func WithRunner(run func(func())) FlowOption { return func(o *flowOptions) { o.run = run } }

func WithFormat(f encoder.Format) FlowOption { return func(o *flowOptions) { o.format = f } }

func WithCapture(c audio.CaptureConfig) FlowOption { return func(o *flowOptions) { o.capture = c } }

// Flow drives one recording module: prompt loading, submission, results
// timing and the completion hand-off to the next module.
type Flow struct {
	module   Module
	client   Client
	mic      recording.Microphone
	view     View
	ctl      *recording.Controller
	pipeline *Pipeline
	clock    recording.Clock
	speaker  Speaker
	run      func(func())

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	session     Session
	count       int
	loading     bool
	showing     bool
	submitting  bool
	confirming  bool
	closed      bool
	resultsTask recording.Task
	resultsGen  uint64
}

func NewFlow(m Module, client Client, mic recording.Microphone, view View, opts ...FlowOption) *Flow {
	o := flowOptions{
		clock:    recording.RealClock(),
		observer: recording.NopObserver{},
		run:      func(fn func()) { go fn() },
		format:   encoder.WAV,
		capture:  audio.CaptureConfig{SampleRate: encoder.SampleRate, Channels: encoder.Channels},
	}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Flow{
		module:   m,
		client:   client,
		mic:      mic,
		view:     view,
		pipeline: NewPipeline(m, client),
		clock:    o.clock,
		speaker:  o.speaker,
		run:      o.run,
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())

	cfg := m.Recording
	cfg.Format = o.format
	cfg.Capture = o.capture
	f.ctl = recording.New(cfg, mic,
		recording.WithClock(o.clock),
		recording.WithObserver(o.observer),
		recording.OnCapture(f.onCapture),
	)
	return f
}

func (f *Flow) Module() Module                     { return f.module }
func (f *Flow) Controller() *recording.Controller { return f.ctl }

func (f *Flow) Session() Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *Flow) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// CheckMicrophone warns up front when no usable input device exists.
func (f *Flow) CheckMicrophone() bool {
	p, ok := f.mic.(interface{ Probe() error })
	if !ok {
		return true
	}
	if err := p.Probe(); err != nil {
		log.Warnf("microphone pre-check: %v", err)
		f.view.Message(MsgMicRequired)
		return false
	}
	return true
}

// Load fetches the next prompt, or offers completion once the module's
// question limit has been reached.
func (f *Flow) Load(ctx context.Context) error {
	st := f.ctl.State()
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return recording.ErrClosed
	}
	if f.loading {
		f.mu.Unlock()
		return nil
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	if st != recording.Idle {
		f.mu.Unlock()
		return recording.ErrNotIdle
	}
	if f.count >= f.module.MaxQuestions {
		f.confirming = true
		f.mu.Unlock()
		f.view.ConfirmCompletion(f.module)
		return nil
	}
	f.cancelResults()
	f.loading = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.loading = false
		f.mu.Unlock()
	}()

	f.view.Loading(true)
	p, err := f.client.FetchPrompt(ctx, f.module.Prompt)
	f.view.Loading(false)
	if err != nil {
		f.loadFailed(err)
		return err
	}

	if err := f.ctl.ResetToIdle(); err != nil {
		return err
	}
	if err := f.ctl.Load(p.ID); err != nil {
		return err
	}

	f.mu.Lock()
	f.count++
	f.showing = false
	f.session = Session{
		Module:        f.module.Kind,
		PromptID:      p.ID,
		PromptText:    p.Text,
		QuestionIndex: f.count,
		MaxQuestions:  f.module.MaxQuestions,
	}
	s := f.session
	f.mu.Unlock()

	log.PromptLoaded(string(f.module.Kind), s.PromptID, s.QuestionIndex, s.MaxQuestions)
	f.view.CloseResults()
	f.view.PromptReady(s)
	return nil
}

func (f *Flow) loadFailed(err error) {
	if errors.Is(err, api.ErrAuthRequired) {
		f.view.Navigate(RouteLogin)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Warnf("load %s: %v", f.module.Noun, err)
	if re, ok := api.IsRejected(err); ok {
		f.view.Message("Failed to load " + f.module.Noun + ": " + re.Reason())
		return
	}
	f.view.Message(MsgNetwork)
}

// Toggle is the record button. It stays disabled from the moment a
// recording is handed off until its results have been dismissed.
func (f *Flow) Toggle() error {
	f.mu.Lock()
	showing, submitting := f.showing, f.submitting
	f.mu.Unlock()
	switch {
	case submitting:
		return ErrSubmitting
	case showing:
		return ErrResultsOpen
	}
	return f.ctl.RequestToggle()
}

// Next dismisses the results panel and moves on.
func (f *Flow) Next(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	f.cancelResults()
	f.showing = false
	f.mu.Unlock()
	f.view.CloseResults()
	return f.Load(ctx)
}

// Confirm answers the completion prompt. Declining keeps the user here;
// a later Next offers completion again.
func (f *Flow) Confirm(accept bool) {
	f.mu.Lock()
	if !f.confirming {
		f.mu.Unlock()
		return
	}
	f.confirming = false
	f.mu.Unlock()
	if accept {
		f.view.Navigate(f.module.NextRoute)
	}
}

// PlayPrompt reads the prompt aloud and, on success, opens the recording gate.
func (f *Flow) PlayPrompt(ctx context.Context) error {
	if f.speaker == nil {
		f.view.Message(MsgNoSpeech)
		return ErrNoSpeaker
	}
	s := f.Session()
	if s.PromptText == "" || f.ctl.State() != recording.Idle {
		return nil
	}

	f.view.Playback(true)
	err := f.speaker.Speak(ctx, s.PromptText)
	f.view.Playback(false)
	if err != nil {
		log.Warnf("prompt playback: %v", err)
		f.view.Message(MsgPlaybackFailed)
		return err
	}
	if f.Session().QuestionIndex == s.QuestionIndex {
		f.ctl.MarkPromptPlayed()
	}
	return nil
}

// Close abandons the module: any recording is discarded and pending
// submissions and timers are cancelled.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.cancelResults()
	f.mu.Unlock()
	f.cancel()
	f.ctl.Close()
}

func (f *Flow) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Flow) onCapture(p recording.Payload) {
	f.mu.Lock()
	f.submitting = true
	f.mu.Unlock()
	f.run(func() { f.submit(p) })
}

func (f *Flow) endSubmit() {
	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()
}

func (f *Flow) submit(p recording.Payload) {
	sub := f.pipeline.Submit(f.ctx, p, f.ctl)
	if f.isClosed() {
		return
	}
	switch sub.Outcome {
	case OutcomeAuth:
		f.endSubmit()
		f.view.Navigate(RouteLogin)
		return
	case OutcomeRejected, OutcomeFailed:
		f.endSubmit()
		f.view.Message(sub.Message)
		return
	}

	res := NewResults(f.module, sub.Result)
	f.mu.Lock()
	f.submitting = false
	f.showing = true
	if f.module.ResultsWindow > 0 {
		f.resultsGen++
		gen := f.resultsGen
		f.resultsTask = f.clock.AfterFunc(f.module.ResultsWindow, func() { f.autoAdvance(gen) })
	}
	f.mu.Unlock()
	f.view.Results(res)
}

func (f *Flow) autoAdvance(gen uint64) {
	f.mu.Lock()
	if f.closed || gen != f.resultsGen || !f.showing {
		f.mu.Unlock()
		return
	}
	f.showing = false
	f.resultsTask = nil
	f.mu.Unlock()

	f.view.CloseResults()
	_ = f.Load(f.ctx)
}

func (f *Flow) cancelResults() {
	f.resultsGen++
	if f.resultsTask != nil {
		f.resultsTask.Stop()
		f.resultsTask = nil
	}
}
