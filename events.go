package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"orator/beep"
	"orator/practice"
	"orator/recording"
)

// flowMsg carries one event from a module flow. gen identifies the flow so
// events from a module the user already left are dropped.
type flowMsg struct {
	gen uint64
	ev  any
}

type (
	loadingEv      struct{ on bool }
	promptEv       struct{ s practice.Session }
	playbackEv     struct{ on bool }
	resultsEv      struct{ r practice.Results }
	closeResultsEv struct{}
	messageEv      struct{ text string }
	confirmEv      struct{ m practice.Module }
	navigateEv     struct{ route string }
	stateEv        struct{ from, to recording.State }
	countdownEv    struct{ n int }
	recTickEv      struct{ elapsed, remaining time.Duration }
	levelEv        struct{ rms float64 }
	noVoiceEv      struct{ on bool }
	noticeEv       struct{ text string }
)

// teaView forwards flow and controller callbacks to the UI. It satisfies
// both practice.View and recording.Observer.
type teaView struct {
	gen  uint64
	send func(tea.Msg)
}

func newTeaView(gen uint64, send func(tea.Msg)) *teaView {
	if send == nil {
		send = tuiSend
	}
	return &teaView{gen: gen, send: send}
}

func (v *teaView) emit(ev any) { v.send(flowMsg{gen: v.gen, ev: ev}) }

func (v *teaView) Loading(on bool)                { v.emit(loadingEv{on}) }
func (v *teaView) PromptReady(s practice.Session) { v.emit(promptEv{s}) }
func (v *teaView) Playback(on bool)               { v.emit(playbackEv{on}) }
func (v *teaView) Results(r practice.Results)     { v.emit(resultsEv{r}) }
func (v *teaView) CloseResults()                  { v.emit(closeResultsEv{}) }
func (v *teaView) Message(text string)            { v.emit(messageEv{text}) }
func (v *teaView) Navigate(route string)          { v.emit(navigateEv{route}) }

func (v *teaView) ConfirmCompletion(m practice.Module) { v.emit(confirmEv{m}) }

func (v *teaView) StateChanged(from, to recording.State) {
	switch {
	case to == recording.Recording:
		beep.PlayStart()
	case from == recording.Recording:
		beep.PlayEnd()
	}
	v.emit(stateEv{from, to})
}

func (v *teaView) CountdownTick(n int) {
	beep.PlayTick()
	v.emit(countdownEv{n})
}

func (v *teaView) RecordingTick(elapsed, remaining time.Duration) {
	v.emit(recTickEv{elapsed, remaining})
}

func (v *teaView) InputLevel(rms float64) { v.emit(levelEv{rms}) }
func (v *teaView) NoVoice(on bool)        { v.emit(noVoiceEv{on}) }

func (v *teaView) Notice(text string) {
	beep.PlayError()
	v.emit(noticeEv{text})
}

// tuiSend delivers msg to the running program, if any.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
