package shell

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/waveline/internal/compositor"
	"github.com/jmylchreest/waveline/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func oneBar() []config.BarConfig {
	return []config.BarConfig{{Position: config.PositionTop, Style: config.StyleIslands}}
}

func twoBars() []config.BarConfig {
	return []config.BarConfig{
		{Position: config.PositionTop, Style: config.StyleIslands},
		{Position: config.PositionBottom, Style: config.StyleSolid},
	}
}

func allOutputs() config.OutputsFilter {
	return config.OutputsFilter{Mode: config.OutputsAll}
}

func targets(names ...string) config.OutputsFilter {
	return config.OutputsFilter{Mode: config.OutputsTargets, Targets: names}
}

func creates(batch compositor.Batch) []compositor.CreateSurface {
	var out []compositor.CreateSurface
	for _, req := range batch {
		if c, ok := req.(compositor.CreateSurface); ok {
			out = append(out, c)
		}
	}
	return out
}

func destroys(batch compositor.Batch) []compositor.DestroySurface {
	var out []compositor.DestroySurface
	for _, req := range batch {
		if d, ok := req.(compositor.DestroySurface); ok {
			out = append(out, d)
		}
	}
	return out
}

func keyboardRequests(batch compositor.Batch) []compositor.SetKeyboardMode {
	var out []compositor.SetKeyboardMode
	for _, req := range batch {
		if k, ok := req.(compositor.SetKeyboardMode); ok {
			out = append(out, k)
		}
	}
	return out
}

func openMenus(o *Outputs) int {
	count := 0
	for _, e := range o.entries {
		for _, pair := range e.pairs {
			if pair.Menu.IsOpen() {
				count++
			}
		}
	}
	return count
}

func findEntry(o *Outputs, name string) *entry {
	return o.find(func(e *entry) bool { return e.name == name })
}

func TestNewOutputs_CreatesFallback(t *testing.T) {
	o, batch := NewOutputs(twoBars(), 1.0, testLogger())

	fb := findEntry(o, FallbackName)
	require.NotNil(t, fb)
	assert.Nil(t, fb.output)
	assert.Len(t, fb.pairs, 2)

	// One bar surface and one menu surface per configured bar.
	assert.Len(t, creates(batch), 4)
	assert.Empty(t, destroys(batch))
}

func TestAdd_MatchedDisplayRetiresFallback(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	fb := findEntry(o, FallbackName)
	fallbackBar := fb.pairs[0].Bar

	output := compositor.NewOutput("eDP-1", "edp")
	batch := o.Add(oneBar(), allOutputs(), "eDP-1", output, 1.0)

	assert.Nil(t, findEntry(o, FallbackName))
	e := findEntry(o, "eDP-1")
	require.NotNil(t, e)
	assert.Len(t, e.pairs, 1)

	// Fallback surfaces are destroyed, and destroys precede the creates.
	ds := destroys(batch)
	require.Len(t, ds, 2)
	assert.Equal(t, fallbackBar, ds[0].ID)
	require.Len(t, creates(batch), 2)
	assert.IsType(t, compositor.DestroySurface{}, batch[0])
}

func TestAdd_UnmatchedDisplayGetsEmptyEntry(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())

	output := compositor.NewOutput("HDMI-1", "hdmi")
	batch := o.Add(oneBar(), targets("eDP"), "HDMI-1", output, 1.0)

	assert.Empty(t, batch)
	e := findEntry(o, "HDMI-1")
	require.NotNil(t, e)
	assert.Empty(t, e.pairs)
	// The fallback survives: no matched display exists.
	assert.NotNil(t, findEntry(o, FallbackName))
}

func TestAdd_SameNameReplacesAtomically(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	first := compositor.NewOutput("eDP-1", "edp-old")
	o.Add(oneBar(), allOutputs(), "eDP-1", first, 1.0)
	oldBar := findEntry(o, "eDP-1").pairs[0].Bar

	second := compositor.NewOutput("eDP-1", "edp-new")
	batch := o.Add(oneBar(), allOutputs(), "eDP-1", second, 1.0)

	// Exactly one entry under the name, backed by the new handle, and the
	// old generation's surfaces torn down before the new ones go up.
	var matches int
	for _, e := range o.entries {
		if e.name == "eDP-1" {
			matches++
			assert.True(t, e.output.Same(second))
		}
	}
	assert.Equal(t, 1, matches)

	ds := destroys(batch)
	require.Len(t, ds, 2)
	assert.Equal(t, oldBar, ds[0].ID)
	assert.Len(t, creates(batch), 2)
}

func TestRemove_LastDisplayRecreatesFallback(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	output := compositor.NewOutput("eDP-1", "edp")
	o.Add(oneBar(), allOutputs(), "eDP-1", output, 1.0)

	batch := o.Remove(oneBar(), output, 1.0)

	// The entry survives, emptied, and a fallback reappears.
	e := findEntry(o, "eDP-1")
	require.NotNil(t, e)
	assert.Empty(t, e.pairs)
	fb := findEntry(o, FallbackName)
	require.NotNil(t, fb)
	assert.Len(t, fb.pairs, 1)

	assert.Len(t, destroys(batch), 2)
	assert.Len(t, creates(batch), 2)
}

func TestRemove_OtherDisplayStillActive(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	edp := compositor.NewOutput("eDP-1", "edp")
	hdmi := compositor.NewOutput("HDMI-1", "hdmi")
	o.Add(oneBar(), allOutputs(), "eDP-1", edp, 1.0)
	o.Add(oneBar(), allOutputs(), "HDMI-1", hdmi, 1.0)

	batch := o.Remove(oneBar(), hdmi, 1.0)

	// eDP-1 still hosts bars, so no fallback is created.
	assert.Nil(t, findEntry(o, FallbackName))
	assert.Len(t, destroys(batch), 2)
	assert.Empty(t, creates(batch))
}

func TestRemove_UnknownOutputIsNoop(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	batch := o.Remove(oneBar(), compositor.NewOutput("DP-3", "dp3"), 1.0)
	assert.Empty(t, batch)
}

func TestSync_Idempotent(t *testing.T) {
	o, _ := NewOutputs(twoBars(), 1.0, testLogger())
	o.Add(twoBars(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)

	first := o.Sync(twoBars(), allOutputs(), 1.0)
	second := o.Sync(twoBars(), allOutputs(), 1.0)

	assert.Empty(t, first)
	assert.Empty(t, second)
}

func TestSync_StyleChangeResizesInPlace(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	o.Add(oneBar(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)
	pair := findEntry(o, "eDP-1").pairs[0]
	barID, menuID := pair.Bar, pair.Menu.ID
	pair.Menu.toggle(KindSettings(), Anchor{})

	solid := []config.BarConfig{{Position: config.PositionTop, Style: config.StyleSolid}}
	batch := o.Sync(solid, allOutputs(), 1.0)

	// Surface identities survive, the open menu survives, and the batch is
	// purely geometric.
	assert.Empty(t, destroys(batch))
	assert.Empty(t, creates(batch))
	require.Len(t, batch, 2)
	size, ok := batch[0].(compositor.SetSize)
	require.True(t, ok)
	assert.Equal(t, barID, size.ID)
	assert.Equal(t, BarHeight(config.StyleSolid, 1.0), size.Height)
	zone, ok := batch[1].(compositor.SetExclusiveZone)
	require.True(t, ok)
	assert.Equal(t, barID, zone.ID)
	assert.Equal(t, BarHeight(config.StyleSolid, 1.0), zone.Zone)

	assert.Equal(t, barID, pair.Bar)
	assert.Equal(t, menuID, pair.Menu.ID)
	assert.True(t, pair.Menu.IsOpen())
	assert.Equal(t, config.StyleSolid, pair.Config.Style)
}

func TestSync_ScaleChangeResizesInPlace(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	o.Add(oneBar(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)

	batch := o.Sync(oneBar(), allOutputs(), 2.0)

	require.Len(t, batch, 2)
	size := batch[0].(compositor.SetSize)
	assert.Equal(t, BarHeight(config.StyleIslands, 2.0), size.Height)
	assert.Equal(t, 2.0, findEntry(o, "eDP-1").pairs[0].Scale)
}

func TestSync_BarCountChangeRecreates(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	o.Add(oneBar(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)
	oldBar := findEntry(o, "eDP-1").pairs[0].Bar

	batch := o.Sync(twoBars(), allOutputs(), 1.0)

	e := findEntry(o, "eDP-1")
	assert.Len(t, e.pairs, 2)
	assert.NotEqual(t, oldBar, e.pairs[0].Bar)

	ds := destroys(batch)
	require.Len(t, ds, 2)
	assert.Equal(t, oldBar, ds[0].ID)
	assert.Len(t, creates(batch), 4)
	// Destroys come before creates within the batch.
	assert.IsType(t, compositor.DestroySurface{}, batch[0])
}

func TestSync_FilterChangeAddsAndRemoves(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	edp := compositor.NewOutput("eDP-1", "edp")
	hdmi := compositor.NewOutput("HDMI-1", "hdmi")
	o.Add(oneBar(), targets("eDP"), "eDP-1", edp, 1.0)
	o.Add(oneBar(), targets("eDP"), "HDMI-1", hdmi, 1.0)

	batch := o.Sync(oneBar(), targets("HDMI"), 1.0)

	assert.Empty(t, findEntry(o, "eDP-1").pairs)
	assert.Len(t, findEntry(o, "HDMI-1").pairs, 1)
	assert.Len(t, destroys(batch), 2)
	assert.Len(t, creates(batch), 2)
}

func TestSync_ActiveModeNeverMatches(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	edp := compositor.NewOutput("eDP-1", "edp")
	o.Add(oneBar(), allOutputs(), "eDP-1", edp, 1.0)

	o.Sync(oneBar(), config.OutputsFilter{Mode: config.OutputsActive}, 1.0)

	// Active mode matches no named display; the entry empties out and the
	// fallback takes over.
	assert.Empty(t, findEntry(o, "eDP-1").pairs)
	require.NotNil(t, findEntry(o, FallbackName))
}

func TestSync_LeavesFallbackAlone(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())

	batch := o.Sync(oneBar(), targets("eDP"), 1.0)

	assert.Empty(t, batch)
	fb := findEntry(o, FallbackName)
	require.NotNil(t, fb)
	assert.Len(t, fb.pairs, 1)
}

func TestLookup(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]

	role, got := o.Lookup(pair.Bar)
	assert.Equal(t, SurfaceBar, role)
	assert.Same(t, pair, got)

	role, got = o.Lookup(pair.Menu.ID)
	assert.Equal(t, SurfaceMenu, role)
	assert.Same(t, pair, got)

	role, got = o.Lookup(compositor.NewSurfaceID())
	assert.Equal(t, SurfaceNone, role)
	assert.Nil(t, got)
}

func TestDisplayName(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	o.Add(oneBar(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)
	pair := findEntry(o, "eDP-1").pairs[0]

	name, ok := o.DisplayName(pair.Menu.ID)
	assert.True(t, ok)
	assert.Equal(t, "eDP-1", name)

	_, ok = o.DisplayName(compositor.NewSurfaceID())
	assert.False(t, ok)
}

func TestHasName(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	o.Add(oneBar(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)

	assert.True(t, o.HasName("eDP"))
	assert.False(t, o.HasName("HDMI"))
}

func TestToggleMenu_GlobalExclusivity(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	o.Add(oneBar(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)
	o.Add(oneBar(), allOutputs(), "HDMI-1", compositor.NewOutput("HDMI-1", "hdmi"), 1.0)
	edpPair := findEntry(o, "eDP-1").pairs[0]
	hdmiPair := findEntry(o, "HDMI-1").pairs[0]

	o.ToggleMenu(edpPair.Bar, KindSettings(), Anchor{}, false)
	assert.True(t, edpPair.Menu.IsOpen())
	assert.Equal(t, 1, openMenus(o))

	// Opening on the other display closes the first.
	o.ToggleMenu(hdmiPair.Bar, KindUpdates(), Anchor{}, false)
	assert.False(t, edpPair.Menu.IsOpen())
	assert.True(t, hdmiPair.Menu.IsOpen())
	assert.Equal(t, 1, openMenus(o))
}

func TestToggleMenu_SameKindTogglesOff(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]

	o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, false)
	require.True(t, pair.Menu.IsOpen())

	o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, false)
	assert.False(t, pair.Menu.IsOpen())

	// A different kind replaces rather than closes.
	o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, false)
	o.ToggleMenu(pair.Bar, KindUpdates(), Anchor{}, false)
	require.True(t, pair.Menu.IsOpen())
	assert.Equal(t, KindUpdates(), pair.Menu.Open().Kind)
}

func TestToggleMenu_KeyboardFollowsState(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]

	batch := o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, true)
	kbs := keyboardRequests(batch)
	require.Len(t, kbs, 1)
	assert.Equal(t, pair.Bar, kbs[0].ID)
	assert.Equal(t, compositor.KeyboardOnDemand, kbs[0].Mode)

	batch = o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, true)
	kbs = keyboardRequests(batch)
	require.Len(t, kbs, 1)
	assert.Equal(t, compositor.KeyboardNone, kbs[0].Mode)
}

func TestToggleMenu_CrossPairKeyboardGrant(t *testing.T) {
	o, _ := NewOutputs(twoBars(), 1.0, testLogger())
	fb := findEntry(o, FallbackName)
	top, bottom := fb.pairs[0], fb.pairs[1]

	o.ToggleMenu(top.Bar, KindSettings(), Anchor{}, true)

	// Moving the menu to the other pair grants keyboard on that pair's bar;
	// the overall state stays "open" so no release is emitted.
	batch := o.ToggleMenu(bottom.Bar, KindUpdates(), Anchor{}, true)
	kbs := keyboardRequests(batch)
	require.Len(t, kbs, 1)
	assert.Equal(t, bottom.Bar, kbs[0].ID)
	assert.Equal(t, compositor.KeyboardOnDemand, kbs[0].Mode)
	assert.False(t, top.Menu.IsOpen())
	assert.True(t, bottom.Menu.IsOpen())
}

func TestToggleMenu_UnknownSurface(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	batch := o.ToggleMenu(compositor.NewSurfaceID(), KindSettings(), Anchor{}, true)
	assert.Empty(t, batch)
	assert.False(t, o.MenuIsOpen())
}

func TestCloseMenu_ReleasesKeyboard(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]
	o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, true)

	batch := o.CloseMenu(pair.Menu.ID, true)

	assert.False(t, pair.Menu.IsOpen())
	kbs := keyboardRequests(batch)
	require.Len(t, kbs, 1)
	assert.Equal(t, pair.Bar, kbs[0].ID)
	assert.Equal(t, compositor.KeyboardNone, kbs[0].Mode)
}

func TestCloseMenu_EscDisabledNoKeyboard(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]
	o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, false)

	batch := o.CloseMenu(pair.Bar, false)
	assert.False(t, pair.Menu.IsOpen())
	assert.Empty(t, batch)
}

func TestCloseMenuIf(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]
	o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, false)

	// Wrong kind leaves the menu alone.
	o.CloseMenuIf(pair.Bar, KindUpdates(), false)
	assert.True(t, pair.Menu.IsOpen())

	o.CloseMenuIf(pair.Bar, KindSettings(), false)
	assert.False(t, pair.Menu.IsOpen())
}

func TestCloseAllMenus(t *testing.T) {
	o, _ := NewOutputs(twoBars(), 1.0, testLogger())
	fb := findEntry(o, FallbackName)
	o.ToggleMenu(fb.pairs[0].Bar, KindSettings(), Anchor{}, false)

	batch := o.CloseAllMenus(true)

	assert.False(t, o.MenuIsOpen())
	// Every bar surface gets a keyboard release.
	assert.Len(t, keyboardRequests(batch), 2)
}

func TestCloseAllMenusIf(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]
	o.ToggleMenu(pair.Bar, KindTray("nm-applet"), Anchor{}, false)

	o.CloseAllMenusIf(KindTray("blueman"), false)
	assert.True(t, pair.Menu.IsOpen())

	o.CloseAllMenusIf(KindTray("nm-applet"), false)
	assert.False(t, pair.Menu.IsOpen())
}

func TestRequestReleaseKeyboard(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	pair := findEntry(o, FallbackName).pairs[0]

	// Both target the bar surface, even when addressed via the menu surface.
	batch := o.RequestKeyboard(pair.Menu.ID)
	kbs := keyboardRequests(batch)
	require.Len(t, kbs, 1)
	assert.Equal(t, pair.Bar, kbs[0].ID)
	assert.Equal(t, compositor.KeyboardOnDemand, kbs[0].Mode)

	batch = o.ReleaseKeyboard(pair.Bar)
	kbs = keyboardRequests(batch)
	require.Len(t, kbs, 1)
	assert.Equal(t, compositor.KeyboardNone, kbs[0].Mode)

	assert.Empty(t, o.RequestKeyboard(compositor.NewSurfaceID()))
}

func TestState(t *testing.T) {
	o, _ := NewOutputs(oneBar(), 1.0, testLogger())
	o.Add(oneBar(), allOutputs(), "eDP-1", compositor.NewOutput("eDP-1", "edp"), 1.0)
	pair := findEntry(o, "eDP-1").pairs[0]
	o.ToggleMenu(pair.Bar, KindSettings(), Anchor{}, false)

	state := o.State()
	require.Len(t, state, 1)
	assert.Equal(t, "eDP-1", state[0].Name)
	assert.True(t, state[0].Attached)
	require.Len(t, state[0].Pairs, 1)
	assert.Equal(t, "settings", state[0].Pairs[0].OpenMenu)
}
