package practice

import (
	"fmt"
	"strings"
	"time"

	"orator/api"
	"orator/recording"
)

type Kind string

const (
	ModuleA Kind = "A"
	ModuleB Kind = "B"
	ModuleC Kind = "C"
	ModuleD Kind = "D"
)

const (
	RouteLogin  = "/login"
	RouteReport = "/report"
)

// Module describes one recording module: its endpoints, limits and timing.
type Module struct {
	Kind         Kind
	Title        string
	Noun         string // sentence or topic
	Prompt       api.PromptSpec
	SubmitPath   string
	MaxQuestions int
	Recording    recording.Config
	// ResultsWindow auto-closes results and advances; 0 waits for the user.
	ResultsWindow time.Duration
	NextRoute     string
	Completion    string
}

var modules = map[Kind]Module{
	ModuleA: {
		Kind:          ModuleA,
		Title:         "Read & Speak",
		Noun:          "sentence",
		Prompt:        api.PromptSpec{Path: "/api/moduleA/sentence", TextField: "sentence", IDField: "sentence_id"},
		SubmitPath:    "/api/moduleA",
		MaxQuestions:  10,
		Recording:     recording.Config{Countdown: 4, Display: recording.DisplayElapsed},
		ResultsWindow: 5 * time.Second,
		NextRoute:     "/moduleB",
		Completion:    "Great job! You completed Module A (Read & Speak).\n\nReady to move to Module B (Listen & Repeat)?",
	},
	ModuleB: {
		Kind:          ModuleB,
		Title:         "Listen & Repeat",
		Noun:          "sentence",
		Prompt:        api.PromptSpec{Path: "/api/moduleB/sentence", TextField: "sentence", IDField: "sentence_id"},
		SubmitPath:    "/api/moduleB",
		MaxQuestions:  10,
		Recording:     recording.Config{Countdown: 4, Display: recording.DisplayElapsed, Gated: true},
		ResultsWindow: 5 * time.Second,
		NextRoute:     "/moduleC",
		Completion:    "Excellent! You completed Module B (Listen & Repeat).\n\nReady for Module C (Topic Speaking)?",
	},
	ModuleC: {
		Kind:         ModuleC,
		Title:        "Topic Speaking",
		Noun:         "topic",
		Prompt:       api.PromptSpec{Path: "/api/moduleC/topic", TextField: "topic", IDField: "topic_id"},
		SubmitPath:   "/api/moduleC",
		MaxQuestions: 5,
		Recording: recording.Config{
			MaxDuration: 120 * time.Second,
			Display:     recording.DisplayRemaining,
		},
		NextRoute:  "/moduleD",
		Completion: "Fantastic! You completed Module C (Topic Speaking).\n\nReady for the final module - Grammar Quiz?",
	},
}

// Lookup returns the module table entry for a recording module.
func Lookup(k Kind) (Module, bool) {
	m, ok := modules[k]
	return m, ok
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "module")))
	switch k {
	case ModuleA, ModuleB, ModuleC, ModuleD:
		return k, nil
	}
	return "", fmt.Errorf("unknown module %q (want A, B, C or D)", s)
}

// KindForRoute maps a navigation route such as /moduleB to its module.
func KindForRoute(route string) (Kind, bool) {
	switch route {
	case "/", "/moduleA":
		return ModuleA, true
	case "/moduleB":
		return ModuleB, true
	case "/moduleC":
		return ModuleC, true
	case "/moduleD":
		return ModuleD, true
	}
	return "", false
}

// Session is the prompt currently on screen.
type Session struct {
	Module        Kind
	PromptID      int
	PromptText    string
	QuestionIndex int // 1-based count of prompts loaded so far
	MaxQuestions  int
}

func (s Session) Progress() string {
	return fmt.Sprintf("%d/%d", s.QuestionIndex, s.MaxQuestions)
}

// Timing holds the user-configurable timers.
type Timing struct {
	Countdown     int
	MaxDuration   time.Duration
	ResultsWindow time.Duration
}

// Tuned applies t to the timers m actually uses; a module without a
// countdown or time limit keeps running without one.
func (m Module) Tuned(t Timing) Module {
	if m.Recording.Countdown > 0 {
		m.Recording.Countdown = t.Countdown
	}
	if m.Recording.MaxDuration > 0 && t.MaxDuration > 0 {
		m.Recording.MaxDuration = t.MaxDuration
	}
	if m.ResultsWindow > 0 && t.ResultsWindow > 0 {
		m.ResultsWindow = t.ResultsWindow
	}
	return m
}
