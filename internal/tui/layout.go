package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pengelbrecht/aptitude/internal/countdown"
	"github.com/pengelbrecht/aptitude/internal/session"
)

// Layout constants
const (
	contentWidth = 72
	queueSlots   = 8
)

// Color palette
var (
	primaryColor   = lipgloss.Color("205") // Pink
	secondaryColor = lipgloss.Color("86")  // Cyan
	mutedColor     = lipgloss.Color("241") // Gray
	successColor   = lipgloss.Color("78")  // Green
	warningColor   = lipgloss.Color("214") // Orange
	errorColor     = lipgloss.Color("196") // Red
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	footerStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	descStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// Timer styles by urgency
	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	clockWarningStyle = clockStyle.Foreground(warningColor)

	clockCriticalStyle = clockStyle.Foreground(errorColor).Blink(true)

	// Option styles
	cursorMarker   = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("▶")
	selectedStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	optionStyle    = lipgloss.NewStyle()
	iconSelected   = selectedStyle.Render("●")
	iconUnselected = labelStyle.Render("○")

	// Status indicators
	waitingStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	stoppedStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	// Pulsing colors for the waiting-room queue
	pulseColors = []lipgloss.Color{"214", "215", "216", "215"}
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if m.width == 0 || m.height == 0 {
		return "Loading...\n"
	}

	var body string
	switch m.phase {
	case phaseWaiting:
		body = m.renderWaitingRoom()
	case phaseTest:
		body = m.renderTest()
	default:
		body = m.renderResult()
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
	if m.showHelp {
		return m.renderHelpOverlay(view)
	}
	return view
}

// renderHeader renders the header with bank title and status.
func (m Model) renderHeader() string {
	left := titleStyle.Render(fmt.Sprintf("⚡ aptitude: %s", m.bank.Title))

	var status string
	switch m.phase {
	case phaseWaiting:
		status = waitingStyle.Render("◌ WAITING")
	case phaseTest:
		status = runningStyle.Render("● IN PROGRESS")
	default:
		status = stoppedStyle.Render("■ " + strings.ToUpper(string(m.session.EndReason)))
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if padding < 0 {
		padding = 0
	}

	return headerStyle.Width(m.width).Render(
		left + lipgloss.NewStyle().Width(padding).Render("") + status,
	)
}

// renderClock renders a countdown with urgency colouring and a progress bar.
func (m Model) renderClock(label string, snap countdown.Snapshot) string {
	style := clockStyle
	switch snap.Urgency() {
	case countdown.UrgencyWarning:
		style = clockWarningStyle
	case countdown.UrgencyCritical:
		style = clockCriticalStyle
	}

	line := fmt.Sprintf("%s %s  %s",
		labelStyle.Render(label),
		style.Render(snap.Formatted),
		m.progress.ViewAs(snap.Progress),
	)
	return line
}

// renderWaitingRoom renders the pre-test countdown and queue.
func (m Model) renderWaitingRoom() string {
	snap := m.wait.Snapshot()
	ahead := candidatesAhead(snap.Remaining, m.secondsPerCandidate)

	title := panelTitleStyle.Render("Waiting Room")
	clock := m.renderClock("Test opens in", snap)
	queue := fmt.Sprintf("%s %s %s",
		labelStyle.Render("Candidates ahead:"),
		clockStyle.Render(fmt.Sprintf("%d", ahead)),
		renderQueue(ahead, m.animFrame),
	)

	parts := []string{title, "", clock, queue}
	if m.instructions != "" {
		parts = append(parts, "", strings.TrimRight(m.instructions, "\n"))
	}
	return panelStyle.Width(m.panelWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// candidatesAhead estimates the queue position from the remaining wait.
func candidatesAhead(remaining, secondsPerCandidate int) int {
	if secondsPerCandidate <= 0 || remaining <= 0 {
		return 0
	}
	return (remaining + secondsPerCandidate - 1) / secondsPerCandidate
}

// renderQueue draws one dot per queue slot; candidates ahead pulse.
func renderQueue(ahead, frame int) string {
	if ahead > queueSlots {
		ahead = queueSlots
	}
	dots := make([]string, 0, queueSlots+1)
	for i := 0; i < queueSlots; i++ {
		if i < ahead {
			color := pulseColors[(frame+i)%len(pulseColors)]
			dots = append(dots, lipgloss.NewStyle().Foreground(color).Render("●"))
		} else {
			dots = append(dots, labelStyle.Render("○"))
		}
	}
	dots = append(dots, cursorMarker)
	return strings.Join(dots, " ")
}

// renderTest renders the timer widget and the current question.
func (m Model) renderTest() string {
	snap := m.timer.Snapshot()
	q := m.bank.Questions[m.question]

	status := fmt.Sprintf("%s %s  %s %s",
		labelStyle.Render("Question"),
		clockStyle.Render(fmt.Sprintf("%d/%d", m.question+1, len(m.bank.Questions))),
		labelStyle.Render("Answered"),
		clockStyle.Render(fmt.Sprintf("%d", m.session.Answered())),
	)

	lines := []string{
		m.renderClock("Time left", snap),
		status,
		"",
		panelTitleStyle.Render(q.Prompt),
		"",
	}

	selected, hasSelection := m.session.Selected(m.question)
	for i, opt := range q.Options {
		prefix := "  "
		if i == m.cursor {
			prefix = cursorMarker + " "
		}
		icon := iconUnselected
		style := optionStyle
		if hasSelection && i == selected {
			icon = iconSelected
			style = selectedStyle
		}
		lines = append(lines, fmt.Sprintf("%s%s %c) %s", prefix, icon, 'A'+i, style.Render(opt)))
	}

	return panelStyle.Width(m.panelWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderResult renders the score summary.
func (m Model) renderResult() string {
	r := m.session.Result()

	var headline string
	switch r.EndReason {
	case session.EndExpired:
		headline = stoppedStyle.Render("Time's up! Your answers were submitted automatically.")
	case session.EndSubmitted:
		headline = runningStyle.Render("Test submitted.")
	default:
		headline = waitingStyle.Render("Test cancelled.")
	}

	lines := []string{
		headline,
		"",
		fmt.Sprintf("%s %s",
			labelStyle.Render("Score:"),
			clockStyle.Render(fmt.Sprintf("%d/%d (%.0f%%)", r.Score, r.Total, r.Percent())),
		),
		fmt.Sprintf("%s %s",
			labelStyle.Render("Time left:"),
			clockStyle.Render(countdown.FormatClock(r.RemainingSeconds)),
		),
		"",
		labelStyle.Render("Press enter to exit."),
	}
	return panelStyle.Width(m.panelWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderFooter renders the footer with keybindings.
func (m Model) renderFooter() string {
	return footerStyle.Width(m.width).Render(m.help.View(m.keys))
}

func (m Model) panelWidth() int {
	return clamp(m.width-2, 20, contentWidth)
}

// Help overlay styles
var (
	helpOverlayStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(1, 2).
				Background(lipgloss.Color("235"))

	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true).
			Width(12)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// renderHelpOverlay renders a help overlay on top of the main view.
func (m Model) renderHelpOverlay(background string) string {
	title := helpTitleStyle.Render("Keyboard Shortcuts")

	var lines []string
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, helpKeyStyle.Render(h.Key)+helpDescStyle.Render(h.Desc))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	help := helpOverlayStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))

	x := (m.width - lipgloss.Width(help)) / 2
	y := (m.height - lipgloss.Height(help)) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	return placeOverlay(x, y, help, background)
}

// placeOverlay places a foreground string on top of a background at the given position.
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}

	for i, fgLine := range fgLines {
		bgLine := bgLines[y+i]
		for lipgloss.Width(bgLine) < x {
			bgLine += " "
		}

		before := truncateWidth(bgLine, x)
		after := ""
		if lipgloss.Width(bgLine) > x+lipgloss.Width(fgLine) {
			after = substringFromWidth(bgLine, x+lipgloss.Width(fgLine))
		}
		bgLines[y+i] = before + fgLine + after
	}

	return strings.Join(bgLines, "\n")
}

func truncateWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	var b strings.Builder
	width := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if width+rw > w {
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String()
}

func substringFromWidth(s string, w int) string {
	width := 0
	for i, r := range s {
		if width >= w {
			return s[i:]
		}
		width += lipgloss.Width(string(r))
	}
	return ""
}
