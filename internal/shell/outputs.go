package shell

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/jmylchreest/waveline/internal/compositor"
	"github.com/jmylchreest/waveline/internal/config"
)

// FallbackName is the registry key of the synthetic entry used when no real
// display currently satisfies the configured filter.
const FallbackName = "Fallback"

// Surface classifies the role of a looked-up surface identity.
type Surface int

const (
	SurfaceNone Surface = iota
	SurfaceBar
	SurfaceMenu
)

// entry associates a display name with its surface pairs and, when the
// display is currently attached, its live handle. An entry persists with an
// empty pair list while its display is filtered out or detached, so the
// name-to-handle association survives; only the synthetic fallback entry is
// removed outright.
type entry struct {
	name   string
	pairs  []*Pair
	output *compositor.Output
}

// Outputs is the registry mapping display identity to surface pairs. It is
// the exclusive owner of every Pair; all mutation goes through its methods,
// on a single goroutine. Every method returns the request batch the caller
// must hand to the compositor executor.
type Outputs struct {
	entries []*entry
	logger  *slog.Logger
}

// NewOutputs creates the registry with a synthetic fallback entry, so the
// shell is visible somewhere even before the first display attaches.
func NewOutputs(bars []config.BarConfig, scale float64, logger *slog.Logger) (*Outputs, compositor.Batch) {
	if logger == nil {
		logger = slog.Default()
	}

	pairs, batch := createLayers(nil, bars, scale)
	o := &Outputs{
		entries: []*entry{{name: FallbackName, pairs: pairs}},
		logger:  logger,
	}
	return o, batch
}

// Add handles a display attach event. A matched display gets freshly created
// pairs, atomically replacing any prior entry under the same name and
// retiring the fallback entry; an unmatched display is recorded with an
// empty pair list so a later config change can pick it up without another
// attach event.
func (o *Outputs) Add(bars []config.BarConfig, filter config.OutputsFilter, name string, output *compositor.Output, scale float64) compositor.Batch {
	if !filter.Matches(name) {
		o.logger.Debug("display did not match filter, registering empty entry", "name", name)
		o.entries = append(o.entries, &entry{name: name, output: output})
		return nil
	}

	o.logger.Debug("display matched filter, creating layer surfaces", "name", name)

	pairs, createBatch := createLayers(output, bars, scale)

	// Destroys are issued before the creates for the same name, so the host
	// never holds two live generations of the entry at once.
	var batch compositor.Batch
	if old := o.take(func(e *entry) bool { return e.name == name }); old != nil {
		batch = batch.Append(destroyPairs(old.pairs))
	}
	if fallback := o.take(func(e *entry) bool { return e.output == nil }); fallback != nil {
		o.logger.Debug("retiring fallback entry", "name", name)
		batch = batch.Append(destroyPairs(fallback.pairs))
	}

	o.entries = append(o.entries, &entry{name: name, pairs: pairs, output: output})
	return batch.Append(createBatch)
}

// Remove handles a display detach event. The entry keeps its name and handle
// association but loses its surfaces; if that leaves the whole registry
// empty, a fallback entry is created so the shell stays visible.
func (o *Outputs) Remove(bars []config.BarConfig, output *compositor.Output, scale float64) compositor.Batch {
	e := o.find(func(e *entry) bool { return e.output.Same(output) })
	if e == nil {
		return nil
	}

	o.logger.Debug("display detached, destroying layer surfaces", "name", e.name)

	batch := destroyPairs(e.pairs)
	e.pairs = nil

	if !o.anyActive() {
		o.logger.Debug("no active displays left, creating fallback layer surfaces")
		pairs, createBatch := createLayers(nil, bars, scale)
		o.entries = append(o.entries, &entry{name: FallbackName, pairs: pairs})
		batch = batch.Append(createBatch)
	}

	return batch
}

// Sync reconciles the registry against a new configuration. Entries that no
// longer match lose their surfaces; known displays that newly match gain
// them. Entries that stay matched are updated in place: cosmetic config or
// scale changes become resize/exclusive-zone requests, preserving surface
// identity (and any open menu). Only a bar-count change forces a full
// destroy/recreate for an entry, since positional pairing is undefined then.
func (o *Outputs) Sync(bars []config.BarConfig, filter config.OutputsFilter, scale float64) compositor.Batch {
	var batch compositor.Batch

	var toRemove []*compositor.Output
	var toAdd []*entry
	for _, e := range o.entries {
		if e.output == nil {
			continue // the fallback entry is managed by Add/Remove only
		}
		matched := filter.Matches(e.name)
		switch {
		case !matched && len(e.pairs) > 0:
			toRemove = append(toRemove, e.output)
		case matched && len(e.pairs) == 0:
			toAdd = append(toAdd, e)
		}
	}

	for _, e := range toAdd {
		o.logger.Debug("display newly matched by config", "name", e.name)
		// Drop the placeholder first; Add re-registers the name.
		o.take(func(x *entry) bool { return x == e })
		batch = batch.Append(o.Add(bars, filter, e.name, e.output, scale))
	}
	for _, output := range toRemove {
		o.logger.Debug("display no longer matched by config", "name", output.Name())
		batch = batch.Append(o.Remove(bars, output, scale))
	}

	// In-place updates for entries that remain matched and populated.
	for _, e := range o.entries {
		if len(e.pairs) == 0 {
			continue
		}

		if len(e.pairs) != len(bars) {
			o.logger.Debug("bar count changed, recreating layer surfaces",
				"name", e.name, "old", len(e.pairs), "new", len(bars))
			destroy := destroyPairs(e.pairs)
			pairs, create := createLayers(e.output, bars, scale)
			e.pairs = pairs
			batch = batch.Append(destroy, create)
			continue
		}

		for i, pair := range e.pairs {
			bar := bars[i]
			if reflect.DeepEqual(pair.Config, bar) && pair.Scale == scale {
				continue
			}

			o.logger.Debug("bar config changed, resizing in place",
				"name", e.name, "bar", i, "style", bar.Style, "scale", scale)
			pair.Config = bar
			pair.Scale = scale
			height := BarHeight(bar.Style, scale)
			batch = append(batch,
				compositor.SetSize{ID: pair.Bar, Height: height},
				compositor.SetExclusiveZone{ID: pair.Bar, Zone: height},
			)
		}
	}

	return batch
}

// Lookup resolves a surface identity to its role and owning pair. A miss is
// not an error: it occurs naturally in the window between a destroy request
// and the host confirming removal, and the caller renders a placeholder.
func (o *Outputs) Lookup(id compositor.SurfaceID) (Surface, *Pair) {
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			if pair.Bar == id {
				return SurfaceBar, pair
			}
			if pair.Menu.ID == id {
				return SurfaceMenu, pair
			}
		}
	}
	return SurfaceNone, nil
}

// DisplayName returns the registry key owning the given surface identity.
func (o *Outputs) DisplayName(id compositor.SurfaceID) (string, bool) {
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			if pair.Bar == id || pair.Menu.ID == id {
				return e.name, true
			}
		}
	}
	return "", false
}

// HasName reports whether a populated entry exists whose name contains the
// given substring.
func (o *Outputs) HasName(name string) bool {
	for _, e := range o.entries {
		if len(e.pairs) > 0 && strings.Contains(e.name, name) {
			return true
		}
	}
	return false
}

// MenuIsOpen reports whether any pair in the registry has an open menu.
func (o *Outputs) MenuIsOpen() bool {
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			if pair.Menu.IsOpen() {
				return true
			}
		}
	}
	return false
}

// Pairs returns every live pair in registry order, for rendering.
func (o *Outputs) Pairs() []*Pair {
	var pairs []*Pair
	for _, e := range o.entries {
		pairs = append(pairs, e.pairs...)
	}
	return pairs
}

// OpenPair returns the pair whose menu is currently open, or nil. At most
// one such pair exists.
func (o *Outputs) OpenPair() *Pair {
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			if pair.Menu.IsOpen() {
				return pair
			}
		}
	}
	return nil
}

// ToggleMenu toggles the given menu on the pair owning id and closes every
// other pair's menu first, keeping at most one menu open registry-wide.
// With requestKeyboard set, the target pair's bar surface is granted
// on-demand keyboard interactivity while its menu is open and loses it when
// the toggle closes the menu.
func (o *Outputs) ToggleMenu(id compositor.SurfaceID, kind MenuKind, anchor Anchor, requestKeyboard bool) compositor.Batch {
	var target *Pair
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			if pair.Bar == id || pair.Menu.ID == id {
				target = pair
				pair.Menu.toggle(kind, anchor)
			} else {
				pair.Menu.close()
			}
		}
	}
	if target == nil {
		return nil
	}

	o.logger.Debug("menu toggled", "kind", kind.String(), "open", target.Menu.IsOpen())

	if !requestKeyboard {
		return nil
	}
	mode := compositor.KeyboardNone
	if o.MenuIsOpen() {
		mode = compositor.KeyboardOnDemand
	}
	return compositor.Batch{compositor.SetKeyboardMode{ID: target.Bar, Mode: mode}}
}

// CloseMenu closes the menu on the pair owning id. With escape-key handling
// enabled, keyboard interactivity is revoked from the pair's bar surface
// once no menu remains open anywhere.
func (o *Outputs) CloseMenu(id compositor.SurfaceID, escKeyEnabled bool) compositor.Batch {
	return o.closeOne(id, func(m *Menu) bool { return m.close() }, escKeyEnabled)
}

// CloseMenuIf closes the menu on the pair owning id only when a menu of the
// given kind is open there; a no-op otherwise.
func (o *Outputs) CloseMenuIf(id compositor.SurfaceID, kind MenuKind, escKeyEnabled bool) compositor.Batch {
	return o.closeOne(id, func(m *Menu) bool { return m.closeIf(kind) }, escKeyEnabled)
}

func (o *Outputs) closeOne(id compositor.SurfaceID, close func(*Menu) bool, escKeyEnabled bool) compositor.Batch {
	var target *Pair
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			if pair.Bar == id || pair.Menu.ID == id {
				target = pair
				close(&pair.Menu)
			}
		}
	}
	if target == nil {
		return nil
	}

	if escKeyEnabled && !o.MenuIsOpen() {
		return compositor.Batch{compositor.SetKeyboardMode{ID: target.Bar, Mode: compositor.KeyboardNone}}
	}
	return nil
}

// CloseAllMenus closes every open menu, used for global dismissal (escape
// key, click outside the menu).
func (o *Outputs) CloseAllMenus(escKeyEnabled bool) compositor.Batch {
	return o.closeAll(func(m *Menu) bool { return m.close() }, escKeyEnabled)
}

// CloseAllMenusIf closes every open menu of the given kind, leaving other
// kinds alone.
func (o *Outputs) CloseAllMenusIf(kind MenuKind, escKeyEnabled bool) compositor.Batch {
	return o.closeAll(func(m *Menu) bool { return m.closeIf(kind) }, escKeyEnabled)
}

func (o *Outputs) closeAll(close func(*Menu) bool, escKeyEnabled bool) compositor.Batch {
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			close(&pair.Menu)
		}
	}

	if !escKeyEnabled || o.MenuIsOpen() {
		return nil
	}
	var batch compositor.Batch
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			batch = append(batch, compositor.SetKeyboardMode{ID: pair.Bar, Mode: compositor.KeyboardNone})
		}
	}
	return batch
}

// RequestKeyboard grants on-demand keyboard interactivity to the bar surface
// of the pair owning id. The menu surface never holds keyboard state of its
// own.
func (o *Outputs) RequestKeyboard(id compositor.SurfaceID) compositor.Batch {
	if _, pair := o.Lookup(id); pair != nil {
		return compositor.Batch{compositor.SetKeyboardMode{ID: pair.Bar, Mode: compositor.KeyboardOnDemand}}
	}
	return nil
}

// ReleaseKeyboard revokes keyboard interactivity from the bar surface of the
// pair owning id.
func (o *Outputs) ReleaseKeyboard(id compositor.SurfaceID) compositor.Batch {
	if _, pair := o.Lookup(id); pair != nil {
		return compositor.Batch{compositor.SetKeyboardMode{ID: pair.Bar, Mode: compositor.KeyboardNone}}
	}
	return nil
}

// EntryState is an immutable snapshot of one registry entry, for state
// inspection over IPC.
type EntryState struct {
	Name     string      `json:"name"`
	Attached bool        `json:"attached"`
	Pairs    []PairState `json:"pairs"`
}

// PairState is an immutable snapshot of one surface pair.
type PairState struct {
	Bar      compositor.SurfaceID   `json:"bar"`
	Menu     compositor.SurfaceID   `json:"menu"`
	Position config.Position        `json:"position"`
	Style    config.AppearanceStyle `json:"style"`
	OpenMenu string                 `json:"open_menu,omitempty"`
}

// State returns a snapshot of the registry for inspection.
func (o *Outputs) State() []EntryState {
	out := make([]EntryState, 0, len(o.entries))
	for _, e := range o.entries {
		es := EntryState{
			Name:     e.name,
			Attached: e.output != nil,
			Pairs:    make([]PairState, 0, len(e.pairs)),
		}
		for _, pair := range e.pairs {
			ps := PairState{
				Bar:      pair.Bar,
				Menu:     pair.Menu.ID,
				Position: pair.Config.Position,
				Style:    pair.Config.Style,
			}
			if open := pair.Menu.Open(); open != nil {
				ps.OpenMenu = open.Kind.String()
			}
			es.Pairs = append(es.Pairs, ps)
		}
		out = append(out, es)
	}
	return out
}

// find returns the first entry matching the predicate, or nil.
func (o *Outputs) find(pred func(*entry) bool) *entry {
	for _, e := range o.entries {
		if pred(e) {
			return e
		}
	}
	return nil
}

// take removes and returns the first entry matching the predicate, or nil.
func (o *Outputs) take(pred func(*entry) bool) *entry {
	for i, e := range o.entries {
		if pred(e) {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return e
		}
	}
	return nil
}

// anyActive reports whether any entry currently owns surfaces.
func (o *Outputs) anyActive() bool {
	for _, e := range o.entries {
		if len(e.pairs) > 0 {
			return true
		}
	}
	return false
}
