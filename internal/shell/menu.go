package shell

import (
	"fmt"

	"github.com/jmylchreest/waveline/internal/compositor"
)

// MenuKindType identifies a popup menu variant.
type MenuKindType int

const (
	MenuUpdates MenuKindType = iota
	MenuTray
	MenuSettings
	MenuMediaPlayer
	MenuSystemInfo
)

// MenuKind is a closed tagged value naming a popup menu. Tray menus carry
// the owning tray item's name; all other kinds leave it empty.
type MenuKind struct {
	Type MenuKindType
	Tray string
}

// KindUpdates names the package-updates menu.
func KindUpdates() MenuKind { return MenuKind{Type: MenuUpdates} }

// KindTray names the menu of a specific tray item.
func KindTray(name string) MenuKind { return MenuKind{Type: MenuTray, Tray: name} }

// KindSettings names the settings menu.
func KindSettings() MenuKind { return MenuKind{Type: MenuSettings} }

// KindMediaPlayer names the media player menu.
func KindMediaPlayer() MenuKind { return MenuKind{Type: MenuMediaPlayer} }

// KindSystemInfo names the system telemetry menu.
func KindSystemInfo() MenuKind { return MenuKind{Type: MenuSystemInfo} }

// String implements fmt.Stringer for logging.
func (k MenuKind) String() string {
	switch k.Type {
	case MenuUpdates:
		return "updates"
	case MenuTray:
		return fmt.Sprintf("tray(%s)", k.Tray)
	case MenuSettings:
		return "settings"
	case MenuMediaPlayer:
		return "mediaplayer"
	case MenuSystemInfo:
		return "sysinfo"
	default:
		return "unknown"
	}
}

// Anchor is the geometry of the bar button a menu aligns to, in surface
// coordinates of the bar that hosts it.
type Anchor struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// OpenMenu records which menu is open on a pair and the button it is
// anchored to.
type OpenMenu struct {
	Kind   MenuKind
	Anchor Anchor
}

// Menu is the per-pair menu slot: the menu surface identity plus the
// currently open menu, if any. The global "at most one open menu" invariant
// is enforced by Outputs, not here.
type Menu struct {
	ID   compositor.SurfaceID
	open *OpenMenu
}

func newMenu(id compositor.SurfaceID) Menu {
	return Menu{ID: id}
}

// Open returns the open menu state, or nil when the slot is closed.
func (m *Menu) Open() *OpenMenu { return m.open }

// IsOpen reports whether any menu is open on this slot.
func (m *Menu) IsOpen() bool { return m.open != nil }

// toggle opens the given menu, or closes the slot when the same kind is
// already open. Returns whether the slot ends up open.
func (m *Menu) toggle(kind MenuKind, anchor Anchor) bool {
	if m.open != nil && m.open.Kind == kind {
		m.open = nil
		return false
	}
	m.open = &OpenMenu{Kind: kind, Anchor: anchor}
	return true
}

// close unconditionally closes the slot. Returns whether it was open.
func (m *Menu) close() bool {
	if m.open == nil {
		return false
	}
	m.open = nil
	return true
}

// closeIf closes the slot only when the given kind is open. Callers use it
// to avoid racing a stale async completion against a newer user-initiated
// toggle of a different menu.
func (m *Menu) closeIf(kind MenuKind) bool {
	if m.open == nil || m.open.Kind != kind {
		return false
	}
	m.open = nil
	return true
}
