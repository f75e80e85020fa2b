package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pengelbrecht/aptitude/internal/countdown"
	"github.com/pengelbrecht/aptitude/internal/questions"
)

// bankItem implements list.Item for bank display.
type bankItem struct {
	bank *questions.Bank
}

func (b bankItem) Title() string {
	return fmt.Sprintf("[%s] %s", b.bank.ID, b.bank.Title)
}

func (b bankItem) Description() string {
	secs, _ := b.bank.Seconds()
	return fmt.Sprintf("%d questions • %s", len(b.bank.Questions), countdown.FormatClock(secs))
}

func (b bankItem) FilterValue() string {
	return b.bank.Title
}

// Picker is the bank selection model.
type Picker struct {
	list     list.Model
	selected *questions.Bank
	quitting bool
}

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor).
				MarginBottom(1)

	pickerStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

// NewPicker creates a bank picker over the given banks.
func NewPicker(banks []*questions.Bank) Picker {
	items := make([]list.Item, len(banks))
	for i, b := range banks {
		items[i] = bankItem{bank: b}
	}

	l := list.New(items, list.NewDefaultDelegate(), 60, 20)
	l.Title = "Select a Test"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = pickerTitleStyle

	return Picker{list: l}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Let the filter input consume keys while filtering.
		if p.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			p.quitting = true
			return p, tea.Quit
		case "enter":
			if item, ok := p.list.SelectedItem().(bankItem); ok {
				p.selected = item.bank
				return p, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		p.list.SetSize(msg.Width-4, msg.Height-4)
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

// View implements tea.Model.
func (p Picker) View() string {
	if p.quitting && p.selected == nil {
		return "No test selected.\n"
	}
	if p.selected != nil {
		return ""
	}
	return pickerStyle.Render(p.list.View())
}

// Selected returns the selected bank, or nil if none was selected.
func (p Picker) Selected() *questions.Bank {
	return p.selected
}
