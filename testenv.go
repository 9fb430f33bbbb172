package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"orator/log"
	"orator/practice"
	"orator/quiz"
	"orator/recording"
)

// scriptWait bounds WAIT; a topic answer can run for minutes.
const scriptWait = 5 * time.Minute

// scriptView prints flow and controller events one per line. Events that
// end a user action (results, messages, navigation) also release WAIT.
type scriptView struct {
	recording.NopObserver

	mu      sync.Mutex
	out     io.Writer
	settled chan string
}

func newScriptView(out io.Writer) *scriptView {
	return &scriptView{out: out, settled: make(chan string, 16)}
}

func (v *scriptView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format+"\n", args...)
}

func (v *scriptView) settle(ev string) {
	select {
	case v.settled <- ev:
	default:
	}
}

func (v *scriptView) drain() {
	for {
		select {
		case <-v.settled:
		default:
			return
		}
	}
}

func (v *scriptView) Loading(bool)       {}
func (v *scriptView) Playback(on bool)   { v.printf("playback %t", on) }
func (v *scriptView) CloseResults()      { v.printf("results closed") }
func (v *scriptView) NoVoice(on bool)    { v.printf("no-voice %t", on) }
func (v *scriptView) CountdownTick(n int) { v.printf("countdown %d", n) }

func (v *scriptView) PromptReady(s practice.Session) {
	v.printf("prompt %s id=%d %q", s.Progress(), s.PromptID, s.PromptText)
	v.settle("prompt")
}

func (v *scriptView) Results(r practice.Results) {
	v.printf("results score=%d transcription=%q", r.Score, r.Transcription)
	for _, s := range r.SubScores {
		v.printf("  %s %d/%d", strings.ToLower(s.Name), s.Value, s.Max)
	}
	v.settle("results")
}

func (v *scriptView) Message(text string) {
	v.printf("message %q", text)
	v.settle("message")
}

func (v *scriptView) ConfirmCompletion(m practice.Module) {
	v.printf("confirm %s", m.Kind)
	v.settle("confirm")
}

func (v *scriptView) Navigate(route string) {
	v.printf("navigate %s", route)
	v.settle("navigate")
}

func (v *scriptView) StateChanged(from, to recording.State) {
	v.printf("state %s -> %s", from, to)
}

func (v *scriptView) Notice(text string) {
	v.printf("notice %q", text)
	v.settle("notice")
}

// script runs one headless session. It drives a single module flow, or the
// quiz, from line commands.
type script struct {
	app  *app
	view *scriptView
	kind practice.Kind
	flow *practice.Flow
	quiz *quiz.Session
}

func runScript(ctx context.Context, a *app, kind practice.Kind, in io.Reader, out io.Writer) error {
	s := &script{app: a, view: newScriptView(out)}
	defer s.close()
	s.use(kind)

	scanner := bufio.NewScanner(in)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	defer func() {
		if f := s.flow; f != nil {
			log.SessionEnd(f.Count())
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			s.view.printf("interrupted")
			return nil
		case l, ok := <-lines:
			if !ok {
				return scanner.Err()
			}
			line = strings.TrimSpace(l)
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		if strings.ToUpper(cmd) == "QUIT" {
			return nil
		}
		if err := s.exec(ctx, strings.ToUpper(cmd), strings.TrimSpace(arg)); err != nil {
			s.view.printf("error %s: %v", strings.ToLower(cmd), err)
		}
	}
}

func (s *script) close() {
	if s.flow != nil {
		s.flow.Close()
		s.flow = nil
	}
	s.quiz = nil
}

func (s *script) use(k practice.Kind) {
	s.close()
	s.kind = k
	if k == practice.ModuleD {
		return
	}
	mod, _ := practice.Lookup(k)
	s.flow = practice.NewFlow(mod.Tuned(s.app.timing()), s.app.client, s.app.opener(), s.view,
		practice.WithObserver(s.view),
		practice.WithSpeaker(s.app.speaker),
		practice.WithFormat(s.app.format),
	)
}

func (s *script) exec(ctx context.Context, cmd, arg string) error {
	switch cmd {
	case "LOGIN":
		email, password, _ := strings.Cut(arg, " ")
		if err := s.app.client.Login(ctx, email, password); err != nil {
			return err
		}
		s.view.printf("logged in %s", email)
	case "LOGOUT":
		return s.app.client.Logout(ctx)
	case "MODULE":
		k, err := practice.ParseKind(arg)
		if err != nil {
			return err
		}
		s.use(k)
		s.view.printf("module %s", k)
	case "SLEEP":
		ms, err := strconv.Atoi(arg)
		if err != nil {
			return err
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	case "WAIT":
		select {
		case ev := <-s.view.settled:
			log.Infof("script: %s", ev)
		case <-time.After(scriptWait):
			return fmt.Errorf("timed out")
		case <-ctx.Done():
			return ctx.Err()
		}
	case "QUIZ", "ANSWER", "BACK":
		return s.quizCmd(ctx, cmd, arg)
	default:
		return s.flowCmd(ctx, cmd, arg)
	}
	return nil
}

func (s *script) flowCmd(ctx context.Context, cmd, arg string) error {
	if s.flow == nil {
		return fmt.Errorf("module %s has no recording flow", s.kind)
	}
	switch cmd {
	case "LOAD":
		s.view.drain()
		if !s.flow.CheckMicrophone() {
			return nil
		}
		return s.flow.Load(ctx)
	case "PLAY":
		return s.flow.PlayPrompt(ctx)
	case "TOGGLE":
		s.view.drain()
		return s.flow.Toggle()
	case "NEXT":
		s.view.drain()
		return s.flow.Next(ctx)
	case "CONFIRM":
		s.view.drain()
		s.flow.Confirm(strings.EqualFold(arg, "y") || strings.EqualFold(arg, "yes"))
	default:
		return fmt.Errorf("unknown command")
	}
	return nil
}

func (s *script) quizCmd(ctx context.Context, cmd, arg string) error {
	if cmd == "QUIZ" {
		qs, err := quiz.Start(ctx, s.app.client)
		if err != nil {
			if msg := quiz.LoadMessage(err); msg != "" {
				s.view.Message(msg)
				return nil
			}
			return err
		}
		s.close()
		s.kind, s.quiz = practice.ModuleD, qs
		s.printQuestion()
		return nil
	}
	if s.quiz == nil {
		return fmt.Errorf("no quiz loaded")
	}
	nav := s.quiz.Navigator()
	if cmd == "BACK" {
		nav.Prev()
		s.printQuestion()
		return nil
	}

	rv, err := s.quiz.Advance(ctx, arg)
	if err != nil {
		if msg := quiz.SubmitMessage(err); msg != "" {
			s.view.Message(msg)
			return nil
		}
		return err
	}
	if rv == nil {
		s.printQuestion()
		return nil
	}
	s.view.printf("quiz %d%% %d/%d", rv.Percentage, rv.Correct, rv.Total)
	for _, it := range rv.Items {
		mark := "ok"
		if !it.Correct {
			mark = "wrong correct=" + strconv.Quote(it.CorrectAnswer)
		}
		s.view.printf("  %d %q %s", it.Number, it.Answer, mark)
	}
	s.view.printf("report %s", s.app.client.URL(practice.RouteReport))
	return nil
}

func (s *script) printQuestion() {
	nav := s.quiz.Navigator()
	s.view.printf("question %s %q [%s]", nav.Progress(), nav.Current().Sentence, nav.NextLabel())
}
