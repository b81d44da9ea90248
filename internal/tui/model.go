// Package tui provides the BubbleTea-based live inspector for a running
// wavelined instance.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/waveline/internal/ipc"
	"github.com/jmylchreest/waveline/internal/shell"
)

const pollInterval = 2 * time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	entryStyle = lipgloss.NewStyle().PaddingLeft(2)
	selStyle   = lipgloss.NewStyle().PaddingLeft(0).Foreground(lipgloss.Color("12")).SetString("> ")
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	openStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type stateMsg struct {
	state *ipc.State
	err   error
}

type tickMsg time.Time

// Model is the inspector TUI model.
type Model struct {
	client *ipc.Client

	state    *ipc.State
	fetchErr error

	selected int
	viewport viewport.Model
	help     help.Model
	keys     KeyMap

	statusMsg string
	width     int
	height    int
	ready     bool
}

// NewModel creates the inspector model with a connected IPC client.
func NewModel(client *ipc.Client) Model {
	return Model{
		client: client,
		help:   help.New(),
		keys:   DefaultKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchState, tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchState() tea.Msg {
	state, err := m.client.GetState()
	return stateMsg{state: state, err: err}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height/2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height / 2
		}
		m.refreshDetail()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchState, tick())

	case stateMsg:
		m.state = msg.state
		m.fetchErr = msg.err
		if m.state != nil && m.selected >= len(m.state.Entries) {
			m.selected = 0
		}
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
				m.refreshDetail()
			}

		case key.Matches(msg, m.keys.Down):
			if m.state != nil && m.selected < len(m.state.Entries)-1 {
				m.selected++
				m.refreshDetail()
			}

		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetchState

		case key.Matches(msg, m.keys.Reload):
			if err := m.client.ReloadConfig(); err != nil {
				m.statusMsg = "reload failed: " + err.Error()
			} else {
				m.statusMsg = "daemon config reloaded"
			}
			return m, m.fetchState

		case key.Matches(msg, m.keys.CloseMenus):
			if err := m.client.CloseAllMenus(); err != nil {
				m.statusMsg = "close failed: " + err.Error()
			} else {
				m.statusMsg = "all menus closed"
			}
			return m, m.fetchState

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refreshDetail rebuilds the YAML detail pane for the selected entry.
func (m *Model) refreshDetail() {
	if !m.ready || m.state == nil || len(m.state.Entries) == 0 {
		return
	}
	data, err := yaml.Marshal(m.state.Entries[m.selected])
	if err != nil {
		m.viewport.SetContent(errStyle.Render(err.Error()))
		return
	}
	m.viewport.SetContent(string(data))
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	s := titleStyle.Render("waveline inspector")
	if m.state != nil {
		s += dimStyle.Render(fmt.Sprintf("  (daemon %s)", m.state.Version))
	}
	s += "\n\n"

	switch {
	case m.fetchErr != nil:
		s += errStyle.Render(m.fetchErr.Error()) + "\n"
	case m.state == nil || len(m.state.Entries) == 0:
		s += dimStyle.Render("no entries") + "\n"
	default:
		for i, entry := range m.state.Entries {
			line := entryLine(entry)
			if i == m.selected {
				s += selStyle.String() + line + "\n"
			} else {
				s += entryStyle.Render(line) + "\n"
			}
		}
		s += "\n" + m.viewport.View() + "\n"
	}

	if m.statusMsg != "" {
		s += dimStyle.Render(m.statusMsg) + "\n"
	}
	return s + "\n" + m.help.View(m.keys)
}

func entryLine(entry shell.EntryState) string {
	status := "detached"
	if entry.Attached {
		status = "attached"
	}
	line := fmt.Sprintf("%s  %s  %d bars", entry.Name, status, len(entry.Pairs))
	for _, pair := range entry.Pairs {
		if pair.OpenMenu != "" {
			line += "  " + openStyle.Render("menu: "+pair.OpenMenu)
		}
	}
	return line
}
