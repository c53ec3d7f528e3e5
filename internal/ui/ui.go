// Package ui implements the interactive terminal prompts using bubbletea's
// Elm architecture.
//
// Two interactions are provided: a playlist picker used when a command needs
// a playlist and none was named on the command line, and a yes/no confirm
// prompt guarding destructive operations. Both are exposed through the
// [Prompter] interface so command actions can be tested with a scripted
// implementation.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tidex/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Prompter abstracts the interactive prompts so command actions can run
// headless in tests.
type Prompter interface {
	// PickPlaylist presents the playlists and returns the chosen one, or
	// nil if the user backed out.
	PickPlaylist(ctx context.Context, playlists []models.Playlist) (*models.Playlist, error)

	// Confirm asks a yes/no question and returns the answer.
	Confirm(ctx context.Context, question string) (bool, error)
}

// TeaPrompter implements Prompter with full-screen bubbletea programs.
type TeaPrompter struct{}

func NewTeaPrompter() *TeaPrompter {
	return &TeaPrompter{}
}

func (p *TeaPrompter) PickPlaylist(ctx context.Context, playlists []models.Playlist) (*models.Playlist, error) {
	model := newPickerModel(playlists)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("playlist picker failed: %w", err)
	}

	picker, ok := final.(*pickerModel)
	if !ok || picker.choice == nil {
		return nil, nil
	}
	return picker.choice, nil
}

func (p *TeaPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	model := newConfirmModel(question)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("confirm prompt failed: %w", err)
	}

	confirm, ok := final.(*confirmModel)
	return ok && confirm.answer, nil
}
