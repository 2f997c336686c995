// Package tui is the terminal rendition of the dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"discoverydash/internal/models"
	"discoverydash/internal/render"
)

// Source is the dashboard as seen by the terminal UI.
type Source interface {
	Snapshot() models.View
	Refresh()
}

// Options configures the terminal UI.
type Options struct {
	Title         string
	FrameInterval time.Duration
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// frameMsg asks the model to pick up the latest view.
type frameMsg struct{}

type model struct {
	source   Source
	title    string
	interval time.Duration
	help     help.Model

	view  models.View
	width int
}

func newModel(source Source, opts Options) model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 100 * time.Millisecond
	}
	return model{
		source:   source,
		title:    opts.Title,
		interval: opts.FrameInterval,
		help:     help.New(),
		view:     source.Snapshot(),
	}
}

func (m model) frame() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// Init schedules the first frame.
func (m model) Init() tea.Cmd {
	return m.frame()
}

// Update handles frames, keys and resizes.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.view = m.source.Snapshot()
		return m, m.frame()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			m.source.Refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	}
	return m, nil
}

// View renders the board followed by the key help.
func (m model) View() string {
	return render.Terminal(m.title, m.view, m.width) + "\n\n" + m.help.View(keys) + "\n"
}

// Run shows the terminal dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, source Source, opts Options) error {
	p := tea.NewProgram(newModel(source, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal dashboard: %w", err)
	}
	return nil
}
