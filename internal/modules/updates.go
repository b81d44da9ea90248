package modules

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jmylchreest/waveline/internal/config"
	"github.com/jmylchreest/waveline/internal/shell"
)

// Updates periodically runs the configured check command and shows the
// number of pending package updates. An empty check command disables the
// module entirely.
type Updates struct {
	cfg      config.UpdatesConfig
	packages []string
	checking bool

	runner func(command string) ([]byte, error)
}

type updatesChecked struct {
	packages []string
	err      error
}

func (updatesChecked) Module() string { return "updates" }

type updatesApplied struct{}

func (updatesApplied) Module() string { return "updates" }

// NewUpdates creates the package-updates module.
func NewUpdates(cfg config.UpdatesConfig) *Updates {
	return &Updates{
		cfg:    cfg,
		runner: runShell,
	}
}

func runShell(command string) ([]byte, error) {
	return exec.Command("sh", "-c", command).Output()
}

// SetConfig applies a reloaded updates configuration.
func (m *Updates) SetConfig(cfg config.UpdatesConfig) {
	m.cfg = cfg
}

// Name implements Module.
func (m *Updates) Name() string { return "updates" }

// View implements Module. The module is hidden while disabled or while
// nothing is pending.
func (m *Updates) View() *Segment {
	if m.cfg.CheckCmd == "" || len(m.packages) == 0 {
		return nil
	}
	return TextSegment("", fmt.Sprintf("%d", len(m.packages)))
}

// MenuKind implements MenuProvider.
func (m *Updates) MenuKind() shell.MenuKind { return shell.KindUpdates() }

// MenuView implements MenuProvider.
func (m *Updates) MenuView() *MenuView {
	view := &MenuView{Title: fmt.Sprintf("%d updates", len(m.packages))}

	for _, pkg := range m.packages {
		view.Items = append(view.Items, MenuItem{Title: pkg})
	}

	if m.cfg.UpdateCmd != "" {
		cmd := m.cfg.UpdateCmd
		runner := m.runner
		view.Items = append(view.Items, MenuItem{
			Icon:     "",
			Title:    "Update all",
			Disabled: m.checking,
			OnActivate: func() Action {
				kind := shell.KindUpdates()
				return Action{
					CloseMenu: &kind,
					Command: func() Message {
						runner(cmd)
						return updatesApplied{}
					},
				}
			},
		})
	}
	return view
}

// Update implements Updater.
func (m *Updates) Update(msg Message) Action {
	switch msg := msg.(type) {
	case updatesChecked:
		m.checking = false
		if msg.err == nil {
			m.packages = msg.packages
		}
	case updatesApplied:
		// Re-check right after an update run so the badge clears.
		m.checking = true
		return Action{Command: m.checkCommand()}
	}
	return Action{}
}

// Subscribe implements Subscriber, checking immediately and then on the
// configured interval.
func (m *Updates) Subscribe(ctx context.Context, messages chan<- Message) {
	if m.cfg.CheckCmd == "" {
		return
	}

	interval := m.cfg.CheckInterval.Duration()
	if interval <= 0 {
		interval = time.Hour
	}

	check := m.checkCommand()
	for {
		select {
		case messages <- check():
		case <-ctx.Done():
			return
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return
		}
	}
}

// checkCommand captures the check as a runnable command producing a result
// message.
func (m *Updates) checkCommand() func() Message {
	cmd := m.cfg.CheckCmd
	runner := m.runner
	return func() Message {
		out, err := runner(cmd)
		if err != nil {
			return updatesChecked{err: err}
		}
		var packages []string
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				packages = append(packages, line)
			}
		}
		return updatesChecked{packages: packages}
	}
}
