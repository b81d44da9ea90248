package display

import (
	"fmt"
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/waveline/internal/compositor"
)

// MonitorWatcher observes the gdk display's monitor list and reports
// attach/detach events. Monitors are identified by connector name (eDP-1,
// HDMI-A-1), which is also the name configuration filters match against.
type MonitorWatcher struct {
	logger *slog.Logger

	display *gdk.Display
	known   map[string]*compositor.Output

	onAttach func(name string, output *compositor.Output)
	onDetach func(output *compositor.Output)
}

// NewMonitorWatcher creates an unstarted monitor watcher.
func NewMonitorWatcher(logger *slog.Logger) *MonitorWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorWatcher{
		logger: logger,
		known:  make(map[string]*compositor.Output),
	}
}

// SetAttachCallback sets the callback for newly seen monitors.
func (w *MonitorWatcher) SetAttachCallback(callback func(name string, output *compositor.Output)) {
	w.onAttach = callback
}

// SetDetachCallback sets the callback for removed monitors.
func (w *MonitorWatcher) SetDetachCallback(callback func(output *compositor.Output)) {
	w.onDetach = callback
}

// Start reads the current monitor list, reports every present monitor as
// attached and follows list changes from then on. GTK main loop only.
func (w *MonitorWatcher) Start() error {
	w.display = gdk.DisplayGetDefault()
	if w.display == nil {
		return fmt.Errorf("no gdk display available")
	}

	monitors := w.display.Monitors()
	monitors.ConnectItemsChanged(func(_, _, _ uint) {
		w.sync()
	})
	w.sync()
	return nil
}

// sync diffs the current monitor list against the known set.
func (w *MonitorWatcher) sync() {
	monitors := w.display.Monitors()

	current := make(map[string]bool)
	for i := uint(0); i < monitors.NItems(); i++ {
		monitor, ok := monitors.Item(i).Cast().(*gdk.Monitor)
		if !ok {
			continue
		}
		name := monitor.Connector()
		if name == "" {
			name = monitor.Model()
		}
		current[name] = true

		if _, seen := w.known[name]; seen {
			continue
		}
		output := compositor.NewOutput(name, monitor)
		w.known[name] = output
		w.logger.Info("monitor attached", "name", name)
		if w.onAttach != nil {
			w.onAttach(name, output)
		}
	}

	for name, output := range w.known {
		if current[name] {
			continue
		}
		delete(w.known, name)
		w.logger.Info("monitor detached", "name", name)
		if w.onDetach != nil {
			w.onDetach(output)
		}
	}
}
