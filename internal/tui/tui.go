package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/sirupsen/logrus"

	"github.com/pengelbrecht/aptitude/internal/countdown"
	"github.com/pengelbrecht/aptitude/internal/questions"
	"github.com/pengelbrecht/aptitude/internal/session"
)

type phase int

const (
	phaseWaiting phase = iota
	phaseTest
	phaseResult
)

func (p phase) String() string {
	switch p {
	case phaseWaiting:
		return "waiting"
	case phaseTest:
		return "test"
	default:
		return "result"
	}
}

// Config holds TUI configuration.
type Config struct {
	Bank *questions.Bank

	// TestSeconds overrides the bank's time limit when positive.
	TestSeconds int

	// Thresholds overrides the default warning/critical thresholds.
	Thresholds *countdown.Thresholds

	// WaitSeconds is the waiting-room countdown. Zero skips the waiting room.
	WaitSeconds int

	// SecondsPerCandidate drives the "candidates ahead" estimate.
	SecondsPerCandidate int

	// Now is the time source for session timestamps (nil = time.Now).
	Now func() time.Time
}

// tickMsg is one second of the cadence for the phase that scheduled it.
type tickMsg struct {
	phase phase
}

func tick(p phase) tea.Cmd {
	return tea.Tick(countdown.Interval, func(time.Time) tea.Msg {
		return tickMsg{phase: p}
	})
}

// Model is the main TUI model for a timed test.
type Model struct {
	bank        *questions.Bank
	testSeconds int
	thresholds  *countdown.Thresholds

	wait    *countdown.Controller
	timer   *countdown.Controller
	session *session.Session

	phase    phase
	question int
	cursor   int

	secondsPerCandidate int
	instructions        string
	animFrame           int

	keys     KeyMap
	help     help.Model
	progress progress.Model
	showHelp bool
	quitting bool
	now      func() time.Time

	width  int
	height int
}

// New creates a new TUI model. Invalid durations or thresholds fail here,
// before the program starts.
func New(cfg Config) (Model, error) {
	if cfg.Bank == nil {
		return Model{}, fmt.Errorf("no question bank")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	testSeconds := cfg.TestSeconds
	if testSeconds <= 0 {
		secs, err := cfg.Bank.Seconds()
		if err != nil {
			return Model{}, err
		}
		testSeconds = secs
	}
	// The test timer is only started after the waiting room, so check it now.
	if testSeconds <= 0 {
		return Model{}, fmt.Errorf("test timer: %w", countdown.ErrInvalidDuration)
	}
	if cfg.Thresholds != nil {
		if err := cfg.Thresholds.Validate(testSeconds); err != nil {
			return Model{}, fmt.Errorf("test timer: %w", err)
		}
	}

	h := help.New()
	h.Styles.ShortKey = keyStyle
	h.Styles.ShortDesc = descStyle
	h.Styles.ShortSeparator = descStyle

	m := Model{
		bank:                cfg.Bank,
		testSeconds:         testSeconds,
		thresholds:          cfg.Thresholds,
		secondsPerCandidate: cfg.SecondsPerCandidate,
		instructions:        renderInstructions(cfg.Bank.Instructions),
		keys:                DefaultKeyMap(),
		help:                h,
		progress:            progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		now:                 cfg.Now,
	}

	if cfg.WaitSeconds > 0 {
		wait, err := countdown.Start(cfg.WaitSeconds, func() {
			logrus.WithField("bank", cfg.Bank.ID).Debug("waiting room open")
		}, countdown.WithThresholds(0, 0))
		if err != nil {
			return Model{}, fmt.Errorf("waiting room: %w", err)
		}
		m.wait = wait
		m.phase = phaseWaiting
		return m, nil
	}

	if err := m.beginTest(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func thresholdOpts(t *countdown.Thresholds) []countdown.Option {
	if t == nil {
		return nil
	}
	return []countdown.Option{countdown.WithThresholds(t.Warning, t.Critical)}
}

// renderInstructions renders bank markdown for the terminal, falling back to
// the raw text.
func renderInstructions(md string) string {
	if md == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(contentWidth-6),
	)
	if err != nil {
		logrus.WithError(err).Debug("creating markdown renderer")
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		logrus.WithError(err).Debug("rendering instructions")
		return md
	}
	return out
}

// beginTest starts the session and its countdown.
func (m *Model) beginTest() error {
	s := session.New(m.bank, m.now())
	now := m.now
	timer, err := countdown.Start(m.testSeconds, func() {
		s.Finish(now(), session.EndExpired, 0)
	}, thresholdOpts(m.thresholds)...)
	if err != nil {
		return fmt.Errorf("test timer: %w", err)
	}

	m.session = s
	m.timer = timer
	m.phase = phaseTest
	m.question = 0
	m.cursor = 0
	logrus.WithFields(logrus.Fields{
		"session": s.ID,
		"bank":    m.bank.ID,
		"seconds": m.testSeconds,
	}).Info("test started")
	return nil
}

// finish ends the test early (submit or quit) and stops the timer.
func (m *Model) finish(reason session.EndReason) {
	if m.timer == nil || m.session == nil {
		return
	}
	m.timer.Cancel()
	m.session.Finish(m.now(), reason, m.timer.Remaining())
	m.phase = phaseResult
	m.logResult()
}

func (m *Model) logResult() {
	r := m.session.Result()
	logrus.WithFields(logrus.Fields{
		"session": r.ID,
		"reason":  r.EndReason,
		"score":   r.Score,
		"total":   r.Total,
	}).Info("test finished")
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.phase == phaseResult {
		return nil
	}
	return tick(m.phase)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = clamp(msg.Width-40, 10, 40)
		return m, nil

	case tickMsg:
		return m.handleTick(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	// Ticks scheduled by a previous phase are dropped.
	if msg.phase != m.phase || m.quitting {
		return m, nil
	}

	switch m.phase {
	case phaseWaiting:
		m.animFrame++
		m.wait.Tick()
		if m.wait.State() != countdown.Expired {
			return m, tick(phaseWaiting)
		}
		if err := m.beginTest(); err != nil {
			logrus.WithError(err).Error("starting test")
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick(phaseTest)

	case phaseTest:
		m.timer.Tick()
		if m.session.Ended() {
			m.phase = phaseResult
			m.logResult()
			return m, nil
		}
		return m, tick(phaseTest)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		switch m.phase {
		case phaseWaiting:
			m.wait.Cancel()
		case phaseTest:
			m.finish(session.EndCancelled)
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.phase == phaseResult {
		if msg.Type == tea.KeyEnter {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}
	if m.phase != phaseTest {
		return m, nil
	}

	q := m.bank.Questions[m.question]
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(q.Options)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		m.session.Answer(m.question, m.cursor)
		if m.question < len(m.bank.Questions)-1 {
			m.gotoQuestion(m.question + 1)
		}
	case key.Matches(msg, m.keys.Next):
		m.gotoQuestion(m.question + 1)
	case key.Matches(msg, m.keys.Prev):
		m.gotoQuestion(m.question - 1)
	case key.Matches(msg, m.keys.Submit):
		m.finish(session.EndSubmitted)
	}
	return m, nil
}

// gotoQuestion moves to question i and places the cursor on its answer.
func (m *Model) gotoQuestion(i int) {
	if i < 0 || i >= len(m.bank.Questions) {
		return
	}
	m.question = i
	m.cursor = 0
	if a, ok := m.session.Selected(i); ok {
		m.cursor = a
	}
}

// Session returns the test session, or nil if the test never started.
func (m Model) Session() *session.Session {
	return m.session
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
