package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/waveline/internal/app"
	"github.com/jmylchreest/waveline/internal/compositor"
	"github.com/jmylchreest/waveline/internal/modules"
	"github.com/jmylchreest/waveline/internal/shell"
)

// BlockSnapshot is one rendered block plus the menu it opens, if any.
type BlockSnapshot struct {
	Block modules.Block
	Kind  *shell.MenuKind
}

// SegmentSnapshot is one module's rendered bar segment.
type SegmentSnapshot struct {
	Module string
	Blocks []BlockSnapshot
}

// BarSnapshot is everything needed to render one bar window and its menu.
type BarSnapshot struct {
	Bar      compositor.SurfaceID
	Menu     compositor.SurfaceID
	Style    string
	Sections [3][]SegmentSnapshot

	OpenMenu *MenuSnapshot
}

// MenuSnapshot is the open menu's content.
type MenuSnapshot struct {
	Kind shell.MenuKind
	View *modules.MenuView
}

// Snapshot is an immutable render description, built on the event loop and
// applied on the GTK main loop.
type Snapshot struct {
	Bars []BarSnapshot
}

// Renderer turns snapshots into GTK widget trees inside the executor's
// windows.
type Renderer struct {
	logger   *slog.Logger
	app      *app.App
	executor *Executor
}

// NewRenderer wires a renderer to the controller and executor. It registers
// itself as the controller's redraw callback and as the executor's window
// content builder.
func NewRenderer(a *app.App, executor *Executor, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{logger: logger, app: a, executor: executor}

	a.SetRedrawCallback(func() {
		snapshot := r.buildSnapshot()
		glib.IdleAdd(func() {
			r.apply(snapshot)
		})
	})
	executor.SetCreateCallback(r.initWindow)
	return r
}

// buildSnapshot captures the render state. Event loop goroutine only.
func (r *Renderer) buildSnapshot() *Snapshot {
	snapshot := &Snapshot{}
	cfg := r.app.Config()

	for _, pair := range r.app.Outputs().Pairs() {
		bar := BarSnapshot{
			Bar:   pair.Bar,
			Menu:  pair.Menu.ID,
			Style: string(pair.Config.Style),
		}

		layout := cfg.LayoutFor(pair.Config)
		for i, section := range layout.Sections() {
			for _, group := range section {
				var segments []SegmentSnapshot
				for _, name := range group {
					if segment := r.moduleSegment(name); segment != nil {
						segments = append(segments, *segment)
					}
				}
				if len(segments) > 0 {
					bar.Sections[i] = append(bar.Sections[i], segments...)
				}
			}
		}

		if open := pair.Menu.Open(); open != nil {
			if view := r.menuView(open.Kind); view != nil {
				bar.OpenMenu = &MenuSnapshot{Kind: open.Kind, View: view}
			}
		}

		snapshot.Bars = append(snapshot.Bars, bar)
	}
	return snapshot
}

// moduleSegment renders one module into a segment snapshot, resolving which
// menu each block opens.
func (r *Renderer) moduleSegment(name string) *SegmentSnapshot {
	mod := r.app.Module(name)
	if mod == nil {
		return nil
	}
	view := mod.View()
	if view == nil {
		return nil
	}

	segment := &SegmentSnapshot{Module: name}

	// Tray blocks each open their own per-item menu.
	if tray, ok := mod.(*modules.Tray); ok {
		for i, block := range view.Blocks {
			items := tray.Items()
			var kind *shell.MenuKind
			if i < len(items) {
				k := tray.MenuKindFor(items[i].Service)
				kind = &k
			}
			segment.Blocks = append(segment.Blocks, BlockSnapshot{Block: block, Kind: kind})
		}
		return segment
	}

	var kind *shell.MenuKind
	if provider, ok := mod.(modules.MenuProvider); ok {
		k := provider.MenuKind()
		kind = &k
	}
	for _, block := range view.Blocks {
		segment.Blocks = append(segment.Blocks, BlockSnapshot{Block: block, Kind: kind})
	}
	return segment
}

// menuView resolves an open menu kind to its module's menu content.
func (r *Renderer) menuView(kind shell.MenuKind) *modules.MenuView {
	if kind.Type == shell.MenuTray {
		if tray, ok := r.app.Module("tray").(*modules.Tray); ok {
			return tray.MenuViewFor(kind.Tray)
		}
		return nil
	}

	for _, name := range []string{"updates", "settings", "mediaplayer", "sysinfo"} {
		provider, ok := r.app.Module(name).(modules.MenuProvider)
		if ok && provider.MenuKind() == kind {
			return provider.MenuView()
		}
	}
	return nil
}

// initWindow attaches the input controllers a new window needs before its
// first frame.
func (r *Renderer) initWindow(create compositor.CreateSurface, window *gtk.Window) {
	if create.Layer == compositor.LayerBackground {
		// Menu window: clicking the backdrop dismisses the menu.
		menuID := create.ID
		click := gtk.NewGestureClick()
		click.ConnectReleased(func(int, float64, float64) {
			r.app.Post(app.CloseMenu{Surface: menuID})
		})
		window.AddController(click)
		window.AddCSSClass("menu-window")
		return
	}

	// Bar window: the escape key dismisses every menu.
	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, _ uint, _ gdk.ModifierType) bool {
		if keyval == gdk.KEY_Escape {
			r.app.Post(app.EscapePressed{})
			return true
		}
		return false
	})
	window.AddController(keys)
	window.AddCSSClass("bar-window")
}

// apply renders a snapshot into the live windows. GTK main loop only.
func (r *Renderer) apply(snapshot *Snapshot) {
	for _, bar := range snapshot.Bars {
		if window := r.executor.Window(bar.Bar); window != nil {
			r.applyBar(window, bar)
		}
		if window := r.executor.Window(bar.Menu); window != nil {
			r.applyMenu(window, bar)
		}
	}
}

func (r *Renderer) applyBar(window *gtk.Window, bar BarSnapshot) {
	center := gtk.NewCenterBox()
	center.AddCSSClass("bar")
	center.AddCSSClass("bar-" + bar.Style)

	boxes := [3]*gtk.Box{
		gtk.NewBox(gtk.OrientationHorizontal, 8),
		gtk.NewBox(gtk.OrientationHorizontal, 8),
		gtk.NewBox(gtk.OrientationHorizontal, 8),
	}
	for i, segments := range bar.Sections {
		for _, segment := range segments {
			boxes[i].Append(r.segmentWidget(bar.Bar, segment))
		}
	}
	center.SetStartWidget(boxes[0])
	center.SetCenterWidget(boxes[1])
	center.SetEndWidget(boxes[2])

	window.SetChild(center)
}

// segmentWidget renders one module segment: plain blocks become labels,
// menu-opening blocks become buttons.
func (r *Renderer) segmentWidget(barID compositor.SurfaceID, segment SegmentSnapshot) gtk.Widgetter {
	box := gtk.NewBox(gtk.OrientationHorizontal, 4)
	box.AddCSSClass("segment")
	box.AddCSSClass("segment-" + segment.Module)

	for _, block := range segment.Blocks {
		label := blockLabel(block.Block)

		if block.Kind == nil {
			box.Append(label)
			continue
		}

		kind := *block.Kind
		button := gtk.NewButton()
		button.AddCSSClass("segment-button")
		button.SetChild(label)
		button.ConnectClicked(func() {
			alloc := button.Allocation()
			r.app.Post(app.ToggleMenu{
				Surface: barID,
				Kind:    kind,
				Anchor: shell.Anchor{
					X:      float64(alloc.X()),
					Y:      float64(alloc.Y()),
					Width:  float64(alloc.Width()),
					Height: float64(alloc.Height()),
				},
				RequestKeyboard: kind.Type == shell.MenuSettings,
			})
		})
		box.Append(button)
	}
	return box
}

func blockLabel(block modules.Block) *gtk.Label {
	text := block.Text
	if block.Icon != "" {
		text = block.Icon + " " + text
	}
	label := gtk.NewLabel(text)
	switch block.Emphasis {
	case modules.EmphasisWarn:
		label.AddCSSClass("warn")
	case modules.EmphasisAlert:
		label.AddCSSClass("alert")
	}
	return label
}

func (r *Renderer) applyMenu(window *gtk.Window, bar BarSnapshot) {
	if bar.OpenMenu == nil {
		window.SetVisible(false)
		window.SetChild(nil)
		return
	}

	box := gtk.NewBox(gtk.OrientationVertical, 4)
	box.AddCSSClass("menu")
	box.SetHAlign(gtk.AlignEnd)
	box.SetVAlign(gtk.AlignStart)

	view := bar.OpenMenu.View
	if view.Title != "" {
		title := gtk.NewLabel(view.Title)
		title.AddCSSClass("menu-title")
		box.Append(title)
	}

	for _, item := range view.Items {
		box.Append(r.menuItemWidget(item))
	}

	window.SetChild(box)
	window.SetVisible(true)
}

func (r *Renderer) menuItemWidget(item modules.MenuItem) gtk.Widgetter {
	row := gtk.NewBox(gtk.OrientationHorizontal, 8)
	row.AddCSSClass("menu-item")

	if item.Icon != "" {
		row.Append(gtk.NewLabel(item.Icon))
	}
	text := gtk.NewBox(gtk.OrientationVertical, 0)
	text.Append(gtk.NewLabel(item.Title))
	if item.Subtitle != "" {
		subtitle := gtk.NewLabel(item.Subtitle)
		subtitle.AddCSSClass("menu-subtitle")
		text.Append(subtitle)
	}
	row.Append(text)

	if item.OnActivate == nil {
		return row
	}

	button := gtk.NewButton()
	button.AddCSSClass("menu-item-button")
	button.SetSensitive(!item.Disabled)
	button.SetChild(row)
	onActivate := item.OnActivate
	button.ConnectClicked(func() {
		r.app.Post(app.RunAction{Action: onActivate()})
	})
	return button
}
