package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader loads and applies the stylesheet with hot-reload support.
type Loader struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	provider *gtk.CSSProvider
	theme    *Theme
}

// NewLoader creates a theme loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
	}
}

// LoadTheme loads the user theme, falling back to the embedded default.
func (l *Loader) LoadTheme(path string) error {
	theme, err := Load(path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.theme = theme
	l.provider.LoadFromString(theme.CSS)
	if theme.IsDefault {
		l.logger.Info("loaded default theme")
	} else {
		l.logger.Info("loaded user theme", "path", theme.Path)
	}
	return nil
}

// Theme returns the currently loaded theme.
func (l *Loader) Theme() *Theme {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.theme
}

// Apply installs the stylesheet on the display. GTK main loop only, after
// application startup.
func (l *Loader) Apply(display *gdk.Display) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}

	gtk.StyleContextAddProviderForDisplay(
		display,
		l.provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
}

// Dark reports whether the system prefers a dark color scheme.
func (l *Loader) Dark() bool {
	if manager := adw.StyleManagerGetDefault(); manager != nil {
		return manager.Dark()
	}
	return false
}

// Reload re-reads the current theme from disk and reapplies it when it
// changed.
func (l *Loader) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.theme == nil || l.theme.IsDefault {
		return nil
	}
	changed, err := l.theme.Reload()
	if err != nil {
		return err
	}
	if changed {
		l.provider.LoadFromString(l.theme.CSS)
		l.logger.Info("theme reloaded", "path", l.theme.Path)
	}
	return nil
}
