package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/waveline/internal/compositor"
	"github.com/jmylchreest/waveline/internal/config"
	"github.com/jmylchreest/waveline/internal/modules"
	"github.com/jmylchreest/waveline/internal/shell"
)

// Event is a message for the application loop. Events are posted from any
// goroutine and handled strictly in order on the loop goroutine.
type Event interface{}

// OutputAttached reports a new display.
type OutputAttached struct {
	Name   string
	Output *compositor.Output
}

// OutputDetached reports a removed display.
type OutputDetached struct {
	Output *compositor.Output
}

// ConfigReloaded carries a validated new configuration.
type ConfigReloaded struct {
	Config *config.Config
}

// ToggleMenu toggles a menu on the pair owning a surface, from a bar button.
type ToggleMenu struct {
	Surface         compositor.SurfaceID
	Kind            shell.MenuKind
	Anchor          shell.Anchor
	RequestKeyboard bool
}

// CloseMenu closes the menu on the pair owning a surface (click outside).
type CloseMenu struct {
	Surface compositor.SurfaceID
}

// EscapePressed dismisses every open menu.
type EscapePressed struct{}

// RunAction executes a module action posted from the renderer (menu item
// activation). It is delivered through the event queue to stay on the loop.
type RunAction struct {
	Action modules.Action
}

// CloseAllMenus dismisses every open menu, from IPC.
type CloseAllMenus struct{}

// Redraw asks the renderer to refresh, with no state change of its own.
type Redraw struct{}

type stateQuery struct {
	reply chan []shell.EntryState
}

// App is the application controller. All fields below mu are owned by the
// loop goroutine once Run starts.
type App struct {
	logger   *slog.Logger
	executor compositor.Executor

	cfg     *config.Config
	outputs *shell.Outputs
	modules map[string]modules.Module

	events   chan Event
	messages chan modules.Message

	onRedraw func()

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// New creates the controller, its registry and the initial fallback
// surfaces. The initial batch is applied through the executor immediately.
func New(cfg *config.Config, mods []modules.Module, executor compositor.Executor, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	outputs, batch := shell.NewOutputs(cfg.BarConfigs(), cfg.Appearance.ScaleFactor, logger)
	executor.Apply(batch)

	byName := make(map[string]modules.Module, len(mods))
	for _, mod := range mods {
		byName[mod.Name()] = mod
	}

	return &App{
		logger:   logger,
		executor: executor,
		cfg:      cfg,
		outputs:  outputs,
		modules:  byName,
		events:   make(chan Event, 64),
		messages: make(chan modules.Message, 64),
	}
}

// Config returns the current configuration. Loop goroutine only.
func (a *App) Config() *config.Config { return a.cfg }

// Outputs returns the registry. Loop goroutine only.
func (a *App) Outputs() *shell.Outputs { return a.outputs }

// Module returns a module by layout name. Loop goroutine only.
func (a *App) Module(name string) modules.Module { return a.modules[name] }

// SetRedrawCallback sets the callback invoked on the loop goroutine whenever
// handled state may have changed what is rendered.
func (a *App) SetRedrawCallback(callback func()) {
	a.onRedraw = callback
}

// Post queues an event for the loop. It never blocks the caller for long;
// a full queue drops the event with a warning rather than deadlocking the
// compositor callbacks that post here.
func (a *App) Post(event Event) {
	select {
	case a.events <- event:
	default:
		a.logger.Warn("event queue full, dropping event")
	}
}

// State returns a registry snapshot, synchronized through the loop.
func (a *App) State(ctx context.Context) ([]shell.EntryState, error) {
	query := stateQuery{reply: make(chan []shell.EntryState, 1)}
	select {
	case a.events <- query:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case state := <-query.reply:
		return state, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run starts module subscriptions and processes events until the context is
// cancelled.
func (a *App) Run(ctx context.Context) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.done = make(chan struct{})
	a.mu.Unlock()
	defer close(a.done)

	var wg sync.WaitGroup
	for _, mod := range a.modules {
		if sub, ok := mod.(modules.Subscriber); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sub.Subscribe(ctx, a.messages)
			}()
		}
	}
	defer wg.Wait()

	a.logger.Info("event loop started")

	for {
		select {
		case event := <-a.events:
			a.handle(event)
		case msg := <-a.messages:
			a.route(msg)
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until the loop has exited.
func (a *App) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (a *App) handle(event Event) {
	var batch compositor.Batch

	switch event := event.(type) {
	case OutputAttached:
		batch = a.outputs.Add(a.cfg.BarConfigs(), a.cfg.Outputs, event.Name, event.Output, a.cfg.Appearance.ScaleFactor)

	case OutputDetached:
		batch = a.outputs.Remove(a.cfg.BarConfigs(), event.Output, a.cfg.Appearance.ScaleFactor)

	case ConfigReloaded:
		a.cfg = event.Config
		a.reconfigureModules()
		batch = a.outputs.Sync(a.cfg.BarConfigs(), a.cfg.Outputs, a.cfg.Appearance.ScaleFactor)

	case ToggleMenu:
		batch = a.outputs.ToggleMenu(event.Surface, event.Kind, event.Anchor, event.RequestKeyboard)

	case CloseMenu:
		batch = a.outputs.CloseMenu(event.Surface, a.cfg.EnableEscKey)

	case EscapePressed:
		if !a.cfg.EnableEscKey {
			return
		}
		batch = a.outputs.CloseAllMenus(true)

	case CloseAllMenus:
		batch = a.outputs.CloseAllMenus(a.cfg.EnableEscKey)

	case Redraw:

	case RunAction:
		a.runAction(event.Action)
		if a.onRedraw != nil {
			a.onRedraw()
		}
		return

	case stateQuery:
		event.reply <- a.outputs.State()
		return

	default:
		a.logger.Warn("unhandled event", "event", event)
		return
	}

	a.executor.Apply(batch)
	if a.onRedraw != nil {
		a.onRedraw()
	}
}

// route delivers a module message to its module and executes the resulting
// action.
func (a *App) route(msg modules.Message) {
	if msg == nil {
		return
	}
	mod, ok := a.modules[msg.Module()]
	if !ok {
		a.logger.Warn("message for unknown module", "module", msg.Module())
		return
	}
	updater, ok := mod.(modules.Updater)
	if !ok {
		return
	}

	a.runAction(updater.Update(msg))
	if a.onRedraw != nil {
		a.onRedraw()
	}
}

// runAction executes a module action on the loop goroutine. Commands run on
// their own goroutine and feed their result back as a message.
func (a *App) runAction(action modules.Action) {
	var batch compositor.Batch

	if action.CloseMenu != nil {
		batch = batch.Append(a.outputs.CloseAllMenusIf(*action.CloseMenu, a.cfg.EnableEscKey))
	}
	if action.RequestKeyboard {
		if pair := a.outputs.OpenPair(); pair != nil {
			batch = batch.Append(a.outputs.RequestKeyboard(pair.Bar))
		}
	}
	if action.ReleaseKeyboard {
		if pair := a.outputs.OpenPair(); pair != nil {
			batch = batch.Append(a.outputs.ReleaseKeyboard(pair.Bar))
		}
	}
	a.executor.Apply(batch)

	if action.Command != nil {
		command := action.Command
		go func() {
			if msg := command(); msg != nil {
				a.messages <- msg
			}
		}()
	}
}

// reconfigureModules pushes per-module config sections after a reload.
func (a *App) reconfigureModules() {
	for _, mod := range a.modules {
		switch mod := mod.(type) {
		case *modules.Clock:
			mod.SetConfig(a.cfg.Clock)
		case *modules.SystemInfo:
			mod.SetConfig(a.cfg.SystemInfo)
		case *modules.Updates:
			mod.SetConfig(a.cfg.Updates)
		case *modules.MediaPlayer:
			mod.SetConfig(a.cfg.MediaPlayer)
		case *modules.Settings:
			mod.SetConfig(a.cfg.Settings)
		}
	}
}
