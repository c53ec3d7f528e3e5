package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel is the bubbletea model for a yes/no question.
type confirmModel struct {
	question string
	answer   bool
	help     help.Model
	keys     keyMap
}

func newConfirmModel(question string) *confirmModel {
	return &confirmModel{
		question: question,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func (m *confirmModel) Init() tea.Cmd {
	return nil
}

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			m.answer = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.answer = false
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *confirmModel) View() string {
	title := styles.title.Render(m.question)
	warning := styles.warn.Render("This cannot be undone.")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, warning, helpView)
}
