package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"orator/api"
	"orator/audio"
	"orator/clipboard"
	"orator/log"
	"orator/practice"
	"orator/quiz"
	"orator/recording"
	"orator/shutdown"
)

type screen int

const (
	screenModule screen = iota
	screenQuiz
	screenLogin
	screenReport
)

type tickMsg time.Time

type (
	quizLoadedMsg struct {
		gen uint64
		s   *quiz.Session
		err error
	}
	quizGradedMsg struct {
		gen uint64
		rv  *quiz.Review
		err error
	}
	loginDoneMsg  struct{ err error }
	logoutDoneMsg struct{}
)

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	metricsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("245")).Padding(0, 1)
)

type model struct {
	app    *app
	ctx    context.Context
	cancel context.CancelFunc
	guard  *shutdown.Guard

	screen        screen
	kind          practice.Kind
	gen           uint64
	flow          *practice.Flow
	width, height int
	frame         int
	attempts      int

	// module screen
	session       practice.Session
	loading       bool
	playing       bool
	state         recording.State
	countdown     int
	elapsed       time.Duration
	remaining     time.Duration
	level         float64
	noVoice       bool
	results       *practice.Results
	message       string
	confirm       *practice.Module
	confirmLogout bool
	copied        bool

	// quiz screen
	quiz     *quiz.Session
	answer   textinput.Model
	review   *quiz.Review
	quizBusy bool

	// login screen
	email     textinput.Model
	password  textinput.Model
	loginBusy bool
	returnTo  practice.Kind
}

func newModel(a *app, kind practice.Kind) *model {
	m := &model{app: a, kind: kind}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.guard = shutdown.NewGuard(func() bool {
		return m.screen == screenModule && (m.state == recording.Countdown || m.state == recording.Recording)
	})

	m.answer = textinput.New()
	m.answer.Placeholder = "type the missing word"
	m.answer.CharLimit = 80

	m.email = textinput.New()
	m.email.Placeholder = "email"
	m.email.SetValue(a.cfg.Email)
	m.password = textinput.New()
	m.password.Placeholder = "password"
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'
	return m
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(tuiTick(), m.startModule(m.kind))
}

// closeFlow abandons the current module, discarding any recording. It runs
// inside Update, so the close happens off the UI goroutine; events it emits
// carry a stale generation and are dropped.
func (m *model) closeFlow() {
	m.gen++
	if f := m.flow; f != nil {
		m.flow = nil
		go f.Close()
	}
}

// release closes the current module synchronously once the program has exited.
func (m *model) release() {
	m.gen++
	if m.flow != nil {
		m.flow.Close()
		m.flow = nil
	}
}

// startModule switches to module k. Flow calls run inside commands because
// the flow reports back through tuiSend, which blocks until Update reads it.
func (m *model) startModule(k practice.Kind) tea.Cmd {
	m.closeFlow()
	m.kind = k
	m.resetModule()
	m.quiz, m.review, m.quizBusy = nil, nil, false

	if k == practice.ModuleD {
		m.screen = screenQuiz
		m.answer.SetValue("")
		m.answer.Focus()
		return m.loadQuiz()
	}
	m.screen = screenModule
	m.answer.Blur()

	mod, _ := practice.Lookup(k)
	mod = mod.Tuned(m.app.timing())
	view := newTeaView(m.gen, nil)
	m.flow = practice.NewFlow(mod, m.app.client, m.app.opener(), view,
		practice.WithObserver(view),
		practice.WithSpeaker(m.app.speaker),
		practice.WithFormat(m.app.format),
	)
	flow, ctx := m.flow, m.ctx
	return func() tea.Msg {
		flow.CheckMicrophone()
		_ = flow.Load(ctx)
		return nil
	}
}

func (m *model) resetModule() {
	m.session = practice.Session{}
	m.loading, m.playing = false, false
	m.state = recording.Idle
	m.countdown = 0
	m.elapsed, m.remaining = 0, 0
	m.level, m.noVoice = 0, false
	m.results, m.confirm = nil, nil
	m.message = ""
	m.copied = false
	m.guard.Reset()
}

func (m *model) loadQuiz() tea.Cmd {
	gen, ctx, client := m.gen, m.ctx, m.app.client
	m.loading = true
	return func() tea.Msg {
		s, err := quiz.Start(ctx, client)
		return quizLoadedMsg{gen: gen, s: s, err: err}
	}
}

func (m *model) toLogin() tea.Cmd {
	m.returnTo = m.kind
	m.closeFlow()
	m.screen = screenLogin
	m.loginBusy = false
	m.message = ""
	m.password.SetValue("")
	m.answer.Blur()
	if m.email.Value() == "" {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

func (m *model) navigate(route string) tea.Cmd {
	switch route {
	case practice.RouteLogin:
		return m.toLogin()
	case practice.RouteReport:
		m.closeFlow()
		m.screen = screenReport
		return nil
	}
	if k, ok := practice.KindForRoute(route); ok {
		return m.startModule(k)
	}
	log.Warnf("unknown route %q", route)
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case flowMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.handleFlow(msg.ev)

	case quizLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrAuthRequired) {
				return m, m.toLogin()
			}
			log.Warnf("load quiz: %v", msg.err)
			m.message = quiz.LoadMessage(msg.err)
			return m, nil
		}
		m.quiz = msg.s
		m.message = ""
		return m, nil

	case quizGradedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.quizBusy = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrAuthRequired) {
				return m, m.toLogin()
			}
			m.message = quiz.SubmitMessage(msg.err)
			return m, nil
		}
		m.review = msg.rv
		m.attempts++
		m.answer.Blur()
		return m, nil

	case loginDoneMsg:
		m.loginBusy = false
		if msg.err != nil {
			m.message = loginMessage(msg.err)
			return m, nil
		}
		log.Infof("logged in as %s", m.email.Value())
		m.password.SetValue("")
		return m, m.startModule(m.returnTo)

	case logoutDoneMsg:
		return m, m.toLogin()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenQuiz:
		m.answer, cmd = m.answer.Update(msg)
	case screenLogin:
		m.email, cmd = m.email.Update(msg)
		var pcmd tea.Cmd
		m.password, pcmd = m.password.Update(msg)
		cmd = tea.Batch(cmd, pcmd)
	}
	return m, cmd
}

func (m *model) handleFlow(ev any) tea.Cmd {
	switch ev := ev.(type) {
	case loadingEv:
		m.loading = ev.on
	case promptEv:
		m.session = ev.s
		m.results = nil
		m.message = ""
		m.copied = false
		m.noVoice = false
	case playbackEv:
		m.playing = ev.on
	case resultsEv:
		r := ev.r
		m.results = &r
		m.attempts++
	case closeResultsEv:
		m.results = nil
	case messageEv:
		m.message = ev.text
	case confirmEv:
		mod := ev.m
		m.confirm = &mod
	case navigateEv:
		return m.navigate(ev.route)
	case stateEv:
		m.state = ev.to
		switch ev.to {
		case recording.Recording:
			m.elapsed, m.level, m.noVoice = 0, 0, false
			m.message = ""
		case recording.Idle:
			m.guard.Reset()
			m.level = 0
		}
	case countdownEv:
		m.countdown = ev.n
	case recTickEv:
		m.elapsed, m.remaining = ev.elapsed, ev.remaining
	case levelEv:
		if m.state == recording.Recording {
			m.level = m.level*0.6 + ev.rms*0.4
		}
	case noVoiceEv:
		m.noVoice = ev.on
	case noticeEv:
		m.message = ev.text
	}
	return nil
}

func (m *model) handleKey(k tea.KeyMsg) tea.Cmd {
	if k.String() == "ctrl+c" {
		switch m.guard.Request() {
		case shutdown.Warn:
			m.message = shutdown.MsgUnload
			return nil
		default:
			m.cancel()
			return tea.Quit
		}
	}

	switch m.screen {
	case screenModule:
		return m.moduleKey(k)
	case screenQuiz:
		return m.quizKey(k)
	case screenLogin:
		return m.loginKey(k)
	case screenReport:
		return m.reportKey(k)
	}
	return nil
}

func (m *model) moduleKey(k tea.KeyMsg) tea.Cmd {
	flow, ctx := m.flow, m.ctx
	if flow == nil {
		return nil
	}
	key := k.String()

	if m.confirmLogout {
		switch key {
		case "y", "Y":
			m.confirmLogout = false
			return m.logout()
		case "n", "N", "esc":
			m.confirmLogout = false
		}
		return nil
	}
	if m.confirm != nil {
		switch key {
		case "y", "Y", "enter":
			m.confirm = nil
			return func() tea.Msg { flow.Confirm(true); return nil }
		case "n", "N", "esc":
			m.confirm = nil
			return func() tea.Msg { flow.Confirm(false); return nil }
		}
		return nil
	}

	switch key {
	case "q":
		switch m.guard.Request() {
		case shutdown.Warn:
			m.message = shutdown.MsgUnload
			return nil
		default:
			m.cancel()
			return tea.Quit
		}
	case " ", "r":
		m.message = ""
		return func() tea.Msg {
			if err := flow.Toggle(); err != nil && !errors.Is(err, practice.ErrResultsOpen) && !errors.Is(err, practice.ErrSubmitting) {
				log.Warnf("toggle: %v", err)
			}
			return nil
		}
	case "p":
		if m.playing || m.state != recording.Idle {
			return nil
		}
		return func() tea.Msg { _ = flow.PlayPrompt(ctx); return nil }
	case "enter", "n":
		done := m.session.MaxQuestions > 0 && m.session.QuestionIndex >= m.session.MaxQuestions
		if m.results == nil && m.session.PromptID != 0 && !done {
			return nil
		}
		if m.state != recording.Idle {
			return nil
		}
		return func() tea.Msg { _ = flow.Next(ctx); return nil }
	case "c":
		if m.results == nil {
			return nil
		}
		if err := clipboard.Copy(m.results.Transcription); err != nil {
			m.message = "Copy failed: " + err.Error()
			return nil
		}
		m.copied = true
	case "ctrl+o":
		if m.state == recording.Idle {
			m.confirmLogout = true
		}
	case "1", "2", "3", "4":
		if m.state != recording.Idle {
			return nil
		}
		return m.startModule(practice.Kind(rune('A' + key[0] - '1')))
	}
	return nil
}

func (m *model) logout() tea.Cmd {
	client, ctx := m.app.client, m.ctx
	m.closeFlow()
	return func() tea.Msg {
		if err := client.Logout(ctx); err != nil {
			log.Warnf("logout: %v", err)
		}
		return logoutDoneMsg{}
	}
}

func (m *model) quizKey(k tea.KeyMsg) tea.Cmd {
	if m.quiz == nil {
		switch k.String() {
		case "enter":
			if !m.loading {
				m.message = ""
				return m.loadQuiz()
			}
		case "esc":
			return m.startModule(practice.ModuleA)
		}
		return nil
	}
	if m.review != nil {
		switch k.String() {
		case "enter":
			return m.navigate(practice.RouteReport)
		case "esc":
			return m.startModule(practice.ModuleA)
		}
		return nil
	}
	if m.quizBusy {
		return nil
	}

	nav := m.quiz.Navigator()
	switch k.String() {
	case "enter":
		nav.SetAnswer(m.answer.Value())
		if nav.Next() {
			m.answer.SetValue(nav.Answer())
			return nil
		}
		m.quizBusy = true
		m.message = ""
		s, ctx, gen := m.quiz, m.ctx, m.gen
		return func() tea.Msg {
			rv, err := s.Submit(ctx)
			return quizGradedMsg{gen: gen, rv: rv, err: err}
		}
	case "ctrl+p", "shift+tab":
		nav.SetAnswer(m.answer.Value())
		if nav.Prev() {
			m.answer.SetValue(nav.Answer())
		}
		return nil
	case "esc":
		return m.startModule(practice.ModuleA)
	}
	var cmd tea.Cmd
	m.answer, cmd = m.answer.Update(k)
	return cmd
}

func (m *model) loginKey(k tea.KeyMsg) tea.Cmd {
	if m.loginBusy {
		return nil
	}
	switch k.String() {
	case "tab", "shift+tab", "up", "down":
		if m.email.Focused() {
			m.email.Blur()
			return m.password.Focus()
		}
		m.password.Blur()
		return m.email.Focus()
	case "enter":
		if m.email.Focused() && m.password.Value() == "" {
			m.email.Blur()
			return m.password.Focus()
		}
		cred := api.Credentials{Email: strings.TrimSpace(m.email.Value()), Password: m.password.Value()}
		if err := validate.Struct(cred); err != nil {
			m.message = "Please enter a valid email and password."
			return nil
		}
		m.loginBusy = true
		m.message = ""
		client, ctx := m.app.client, m.ctx
		return func() tea.Msg {
			return loginDoneMsg{err: client.Login(ctx, cred.Email, cred.Password)}
		}
	}
	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(k)
	} else {
		m.password, cmd = m.password.Update(k)
	}
	return cmd
}

func loginMessage(err error) string {
	if re, ok := api.IsRejected(err); ok {
		return "Login failed: " + re.Reason()
	}
	return "Network error. Please check your connection."
}

func (m *model) reportKey(k tea.KeyMsg) tea.Cmd {
	switch key := k.String(); key {
	case "q", "esc":
		m.cancel()
		return tea.Quit
	case "1", "2", "3", "4":
		return m.startModule(practice.Kind(rune('A' + key[0] - '1')))
	}
	return nil
}

func (m *model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	var body string
	switch m.screen {
	case screenModule:
		body = m.moduleView()
	case screenQuiz:
		body = m.quizView()
	case screenLogin:
		body = m.loginView()
	case screenReport:
		body = m.reportView()
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Padding(1, 2).Render(body)
}

func (m *model) textWidth() int {
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	if w > 90 {
		w = 90
	}
	return w
}

func (m *model) header(title, progress string) string {
	h := titleStyle.Render(title)
	if progress != "" {
		h += dimStyle.Render("  " + progress)
	}
	return h
}

func (m *model) moduleView() string {
	mod, _ := practice.Lookup(m.kind)
	var b strings.Builder
	b.WriteString(m.header("Module "+string(m.kind)+": "+mod.Title, sessionProgress(m.session)) + "\n")
	if line := deviceLineText(m.app.device); line != "" {
		b.WriteString(dimStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("Loading "+mod.Noun+"...") + "\n")
	case m.session.PromptText != "" && (m.kind != practice.ModuleB || m.results != nil):
		for _, line := range wrapText(m.session.PromptText, m.textWidth()) {
			b.WriteString(promptStyle.Render(line) + "\n")
		}
	case m.session.PromptText != "":
		b.WriteString(dimStyle.Render("Press p to hear the sentence, then repeat it.") + "\n")
	}
	b.WriteString("\n" + m.statusLine() + "\n")
	if m.noVoice && m.state == recording.Recording {
		b.WriteString(warnStyle.Render("  ⚠ no voice detected") + "\n")
	}

	if m.results != nil {
		b.WriteString("\n" + m.resultsPanel(*m.results) + "\n")
	}
	if m.message != "" {
		b.WriteString("\n" + warnStyle.Render(m.message) + "\n")
	}
	if m.confirm != nil {
		b.WriteString("\n" + panelStyle.Render(m.confirm.Completion+"\n\n"+keyStyle.Render("y")+helpStyle.Render(" continue  ")+keyStyle.Render("n")+helpStyle.Render(" stay")) + "\n")
	}
	if m.confirmLogout {
		b.WriteString("\n" + panelStyle.Render("Are you sure you want to logout?\n\n"+keyStyle.Render("y")+helpStyle.Render(" logout  ")+keyStyle.Render("n")+helpStyle.Render(" cancel")) + "\n")
	}

	b.WriteString("\n" + help(
		"space", "record/stop",
		"p", "play",
		"n", "next",
		"c", "copy",
		"1-4", "module",
		"ctrl+o", "logout",
		"q", "quit",
	))
	return b.String()
}

func sessionProgress(s practice.Session) string {
	if s.MaxQuestions == 0 || s.QuestionIndex == 0 {
		return ""
	}
	return s.Progress()
}

func (m *model) statusLine() string {
	switch m.state {
	case recording.Countdown:
		return recStyle.Render(fmt.Sprintf("Get ready... %d", m.countdown))
	case recording.Recording:
		var clock string
		if m.remaining > 0 || m.kind == practice.ModuleC {
			clock = recording.FormatRemaining(m.remaining) + " left"
		} else {
			clock = recording.FormatElapsed(m.elapsed)
		}
		dot := "●"
		if m.frame/8%2 == 1 {
			dot = " "
		}
		return recStyle.Render(dot+" REC "+clock) + "  " + levelMeter(m.level, 20)
	case recording.Processing:
		return dimStyle.Render(spinner(m.frame) + " Processing...")
	}
	if m.playing {
		return dimStyle.Render("♪ Playing...")
	}
	return dimStyle.Render("○ READY")
}

func spinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return frames[frame%len(frames)]
}

// levelMeter draws the input level; speech RMS rarely exceeds 0.25.
func levelMeter(rms float64, width int) string {
	n := int(rms * 4 * float64(width))
	if n > width {
		n = width
	}
	if n < 0 {
		n = 0
	}
	style := okStyle
	if rms < recording.SpeechLevel {
		style = dimStyle
	}
	return style.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", width-n))
}

func (m *model) resultsPanel(r practice.Results) string {
	w := m.textWidth() - 4
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Score: %d", r.Score)))
	if r.Fluency > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("   fluency %d", r.Fluency)))
	}
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("You said:") + "\n")
	for i, line := range wrapText(r.Transcription, w) {
		b.WriteString(promptStyle.Render(line))
		if i == 0 && m.copied {
			b.WriteString(" " + okStyle.Render("[✓ copied]"))
		}
		b.WriteString("\n")
	}
	if r.Expected != "" {
		b.WriteString(dimStyle.Render("Expected:") + "\n")
		for _, line := range wrapText(r.Expected, w) {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n")
	for _, line := range wrapText(r.Feedback, w) {
		b.WriteString(line + "\n")
	}
	if len(r.SubScores) > 0 {
		b.WriteString("\n")
		for _, s := range r.SubScores {
			b.WriteString(fmt.Sprintf("%-11s %2d/%d\n", s.Name, s.Value, s.Max))
		}
	}
	if r.Analysis != "" {
		b.WriteString("\n")
		for _, line := range wrapText(r.Analysis, w) {
			b.WriteString(dimStyle.Render(line) + "\n")
		}
	}
	for _, s := range r.Strengths {
		b.WriteString(okStyle.Render("+ ") + s + "\n")
	}
	for _, s := range r.Improvements {
		b.WriteString(warnStyle.Render("- ") + s + "\n")
	}
	if len(r.Metrics) > 0 {
		b.WriteString("\n")
		for _, line := range r.Metrics {
			b.WriteString(metricsStyle.Render(line) + "\n")
		}
	}
	if r.Dismissable {
		b.WriteString("\n" + helpStyle.Render("press n for the next topic"))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *model) quizView() string {
	var b strings.Builder
	switch {
	case m.quiz == nil:
		b.WriteString(m.header("Module D: Grammar Quiz", "") + "\n\n")
		if m.loading {
			b.WriteString(dimStyle.Render("Loading quiz...") + "\n")
		} else {
			b.WriteString(helpStyle.Render("press enter to retry") + "\n")
		}
	case m.review != nil:
		b.WriteString(m.reviewView(*m.review))
	default:
		nav := m.quiz.Navigator()
		q := nav.Current()
		b.WriteString(m.header("Module D: Grammar Quiz", nav.Progress()) + "\n\n")
		for _, line := range wrapText(q.Sentence, m.textWidth()) {
			b.WriteString(promptStyle.Render(line) + "\n")
		}
		if q.Category != "" {
			b.WriteString(dimStyle.Render(q.Category) + "\n")
		}
		b.WriteString("\n" + m.answer.View() + "\n\n")
		if m.quizBusy {
			b.WriteString(dimStyle.Render(spinner(m.frame)+" Submitting...") + "\n")
		}
		prev := ""
		if !nav.IsFirst() {
			prev = "ctrl+p"
		}
		b.WriteString(help("enter", nav.NextLabel(), prev, "previous", "esc", "leave quiz"))
	}
	if m.message != "" {
		b.WriteString("\n" + warnStyle.Render(m.message) + "\n")
	}
	return b.String()
}

func (m *model) reviewView(rv quiz.Review) string {
	var b strings.Builder
	b.WriteString(m.header("Quiz Results", "") + "\n\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d%%", rv.Percentage)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d correct", rv.Correct, rv.Total)) + "\n\n")
	w := m.textWidth()
	for _, it := range rv.Items {
		mark := okStyle.Render("✓")
		if !it.Correct {
			mark = recStyle.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %d. ", mark, it.Number))
		for i, line := range wrapText(it.Sentence, w-6) {
			if i > 0 {
				b.WriteString("     ")
			}
			b.WriteString(line + "\n")
		}
		b.WriteString(dimStyle.Render("     your answer: ") + it.Answer + "\n")
		if it.CorrectAnswer != "" {
			b.WriteString(dimStyle.Render("     correct: ") + okStyle.Render(it.CorrectAnswer) + "\n")
		}
	}
	b.WriteString("\n" + help("enter", "view report", "esc", "back to module A"))
	return b.String()
}

func (m *model) loginView() string {
	var b strings.Builder
	b.WriteString(m.header("Log in", m.app.client.BaseURL()) + "\n\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n\n")
	if m.loginBusy {
		b.WriteString(dimStyle.Render(spinner(m.frame)+" Logging in...") + "\n")
	}
	if m.message != "" {
		b.WriteString(warnStyle.Render(m.message) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("No account? Run `orator signup`.") + "\n")
	b.WriteString(help("tab", "switch field", "enter", "log in", "ctrl+c", "quit"))
	return b.String()
}

func (m *model) reportView() string {
	var b strings.Builder
	b.WriteString(m.header("All modules complete", "") + "\n\n")
	b.WriteString("Your full progress report is available at:\n\n")
	b.WriteString(promptStyle.Render(m.app.client.URL(practice.RouteReport)) + "\n\n")
	b.WriteString(help("1-4", "practise again", "q", "quit"))
	return b.String()
}

// help renders key/description pairs; an empty key hides its pair.
func help(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i] == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(pairs[i])+helpStyle.Render(" "+pairs[i+1]))
	}
	return strings.Join(parts, helpStyle.Render("  ·  "))
}

func deviceLineText(dev *audio.DeviceInfo) string {
	if dev == nil {
		return "mic: default"
	}
	line := "mic: " + dev.Name
	if audio.IsBluetooth(dev.Name) {
		line += "  (bluetooth: lower quality)"
	}
	return line
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		for len(para) > width {
			splitAt := width
			for i := width; i > 0; i-- {
				if para[i] == ' ' {
					splitAt = i
					break
				}
			}
			lines = append(lines, para[:splitAt])
			para = strings.TrimLeft(para[splitAt:], " ")
		}
		lines = append(lines, para)
	}
	return lines
}
