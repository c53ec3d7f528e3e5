package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"tidex/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// keyMap defines the [key.Binding] mapping for the prompts.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	back  key.Binding
	yes   key.Binding
	no    key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		yes:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "no")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.back, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.yes, k.no, k.quit},
	}
}

// pickerModel is the bubbletea model for the playlist picker.
type pickerModel struct {
	list   list.Model
	choice *models.Playlist
	help   help.Model
	keys   keyMap
	width  int
	height int
}

func newPickerModel(playlists []models.Playlist) *pickerModel {
	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select a playlist"
	l.SetShowHelp(false)

	return &pickerModel{
		list: l,
		help: help.New(),
		keys: newKeyMap(),
	}
}

func (m *pickerModel) Init() tea.Cmd {
	return nil
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.choice = nil
			return m, tea.Quit
		case "enter":
			if selected, ok := m.list.SelectedItem().(playlistItem); ok {
				m.choice = &selected.playlist
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *pickerModel) View() string {
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n\n%s", m.list.View(), helpView)
}
