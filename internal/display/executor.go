package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/waveline/internal/compositor"
)

// Executor applies compositor request batches as layer-shell windows.
// Batches arrive from the event loop goroutine; execution is marshalled onto
// the GTK main loop, which preserves batch order.
type Executor struct {
	logger *slog.Logger
	app    *gtk.Application

	windows map[compositor.SurfaceID]*gtk.Window

	onCreate  func(create compositor.CreateSurface, window *gtk.Window)
	onDestroy func(id compositor.SurfaceID)
}

// NewExecutor creates an executor for the given GTK application.
func NewExecutor(app *gtk.Application, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		logger:  logger,
		app:     app,
		windows: make(map[compositor.SurfaceID]*gtk.Window),
	}
}

// SetCreateCallback sets the callback invoked on the GTK main loop right
// after a window is created, before it is shown. The renderer uses it to
// attach content and input controllers.
func (e *Executor) SetCreateCallback(callback func(create compositor.CreateSurface, window *gtk.Window)) {
	e.onCreate = callback
}

// SetDestroyCallback sets the callback invoked after a window is destroyed.
func (e *Executor) SetDestroyCallback(callback func(id compositor.SurfaceID)) {
	e.onDestroy = callback
}

// Window returns the live window for a surface identity. GTK main loop only.
func (e *Executor) Window(id compositor.SurfaceID) *gtk.Window {
	return e.windows[id]
}

// Apply implements compositor.Executor.
func (e *Executor) Apply(batch compositor.Batch) {
	if len(batch) == 0 {
		return
	}
	glib.IdleAdd(func() {
		for _, request := range batch {
			e.execute(request)
		}
	})
}

func (e *Executor) execute(request compositor.Request) {
	switch request := request.(type) {
	case compositor.CreateSurface:
		e.create(request)

	case compositor.DestroySurface:
		window, ok := e.windows[request.ID]
		if !ok {
			return
		}
		delete(e.windows, request.ID)
		window.Destroy()
		if e.onDestroy != nil {
			e.onDestroy(request.ID)
		}

	case compositor.SetSize:
		if window, ok := e.windows[request.ID]; ok {
			window.SetDefaultSize(orFill(request.Width), orFill(request.Height))
		}

	case compositor.SetExclusiveZone:
		if window, ok := e.windows[request.ID]; ok {
			layershell.SetExclusiveZone(window, request.Zone)
		}

	case compositor.SetKeyboardMode:
		if window, ok := e.windows[request.ID]; ok {
			layershell.SetKeyboardMode(window, keyboardModeOf(request.Mode))
		}

	default:
		e.logger.Warn("unknown compositor request", "request", request)
	}
}

func (e *Executor) create(create compositor.CreateSurface) {
	window := gtk.NewWindow()
	window.SetApplication(e.app)
	window.SetDecorated(false)
	window.SetResizable(false)
	window.SetDefaultSize(orFill(create.Width), orFill(create.Height))

	layershell.InitForWindow(window)
	layershell.SetNamespace(window, create.Namespace)
	layershell.SetLayer(window, layerOf(create.Layer))
	layershell.SetExclusiveZone(window, create.ExclusiveZone)
	layershell.SetKeyboardMode(window, keyboardModeOf(create.Keyboard))

	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, create.Anchor.Has(compositor.AnchorTop))
	layershell.SetAnchor(window, layershell.LayerShellEdgeBottom, create.Anchor.Has(compositor.AnchorBottom))
	layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, create.Anchor.Has(compositor.AnchorLeft))
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, create.Anchor.Has(compositor.AnchorRight))

	if monitor, ok := create.Output.Object().(*gdk.Monitor); ok {
		layershell.SetMonitor(window, monitor)
	}

	e.windows[create.ID] = window
	if e.onCreate != nil {
		e.onCreate(create, window)
	}
	window.SetVisible(create.Layer != compositor.LayerBackground)
}

// orFill maps the zero "fill the anchored extent" request size to GTK's
// natural-size sentinel.
func orFill(size int) int {
	if size == 0 {
		return -1
	}
	return size
}

func layerOf(layer compositor.Layer) layershell.LayerShellLayer {
	switch layer {
	case compositor.LayerBackground:
		return layershell.LayerShellLayerBackground
	case compositor.LayerTop:
		return layershell.LayerShellLayerTop
	case compositor.LayerOverlay:
		return layershell.LayerShellLayerOverlay
	default:
		return layershell.LayerShellLayerBottom
	}
}

func keyboardModeOf(mode compositor.KeyboardMode) layershell.LayerShellKeyboardMode {
	switch mode {
	case compositor.KeyboardOnDemand:
		return layershell.LayerShellKeyboardModeOnDemand
	case compositor.KeyboardExclusive:
		return layershell.LayerShellKeyboardModeExclusive
	default:
		return layershell.LayerShellKeyboardModeNone
	}
}
