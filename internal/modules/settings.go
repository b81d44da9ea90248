package modules

import (
	"github.com/jmylchreest/waveline/internal/config"
	"github.com/jmylchreest/waveline/internal/shell"
)

// Settings exposes the power and session actions menu.
type Settings struct {
	cfg    config.SettingsConfig
	runner func(command string) ([]byte, error)
}

type settingsRan struct{}

func (settingsRan) Module() string { return "settings" }

// NewSettings creates the settings module.
func NewSettings(cfg config.SettingsConfig) *Settings {
	return &Settings{cfg: cfg, runner: runShell}
}

// SetConfig applies a reloaded settings configuration.
func (m *Settings) SetConfig(cfg config.SettingsConfig) {
	m.cfg = cfg
}

// Name implements Module.
func (m *Settings) Name() string { return "settings" }

// View implements Module.
func (m *Settings) View() *Segment {
	return TextSegment("", "")
}

// MenuKind implements MenuProvider.
func (m *Settings) MenuKind() shell.MenuKind { return shell.KindSettings() }

// MenuView implements MenuProvider. Entries with no configured command are
// omitted.
func (m *Settings) MenuView() *MenuView {
	view := &MenuView{Title: "Settings"}

	entries := []struct {
		icon, title, cmd string
	}{
		{"", "Lock", m.cfg.LockCmd},
		{"", "Suspend", m.cfg.SuspendCmd},
		{"", "Reboot", m.cfg.RebootCmd},
		{"", "Shutdown", m.cfg.ShutdownCmd},
		{"", "Logout", m.cfg.LogoutCmd},
	}
	for _, entry := range entries {
		if entry.cmd == "" {
			continue
		}
		cmd := entry.cmd
		runner := m.runner
		kind := shell.KindSettings()
		view.Items = append(view.Items, MenuItem{
			Icon:  entry.icon,
			Title: entry.title,
			OnActivate: func() Action {
				return Action{
					CloseMenu: &kind,
					Command: func() Message {
						runner(cmd)
						return settingsRan{}
					},
				}
			},
		})
	}
	return view
}

// Update implements Updater.
func (m *Settings) Update(Message) Action { return Action{} }
