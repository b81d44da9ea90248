package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/waveline/internal/compositor"
	"github.com/jmylchreest/waveline/internal/config"
)

func TestBarHeight(t *testing.T) {
	assert.Equal(t, 26, BarHeight(config.StyleSolid, 1.0))
	assert.Equal(t, 26, BarHeight(config.StyleGradient, 1.0))
	assert.Equal(t, 34, BarHeight(config.StyleIslands, 1.0))
	assert.Equal(t, 52, BarHeight(config.StyleSolid, 2.0))
	assert.Equal(t, 51, BarHeight(config.StyleIslands, 1.5))
}

func TestCreateLayers_Geometry(t *testing.T) {
	output := compositor.NewOutput("eDP-1", "edp")
	bars := []config.BarConfig{
		{Position: config.PositionTop, Style: config.StyleSolid},
		{Position: config.PositionBottom, Style: config.StyleIslands},
	}

	pairs, batch := createLayers(output, bars, 1.0)
	require.Len(t, pairs, 2)
	require.Len(t, batch, 4)

	topBar := batch[0].(compositor.CreateSurface)
	assert.Equal(t, compositor.LayerBottom, topBar.Layer)
	assert.True(t, topBar.Anchor.Has(compositor.AnchorTop))
	assert.True(t, topBar.Anchor.Has(compositor.AnchorLeft))
	assert.True(t, topBar.Anchor.Has(compositor.AnchorRight))
	assert.False(t, topBar.Anchor.Has(compositor.AnchorBottom))
	assert.Equal(t, 26, topBar.Height)
	assert.Equal(t, 26, topBar.ExclusiveZone)
	assert.Equal(t, compositor.KeyboardNone, topBar.Keyboard)
	assert.Same(t, output, topBar.Output)

	// The menu surface covers the whole display on the background layer and
	// reserves no space.
	menu := batch[1].(compositor.CreateSurface)
	assert.Equal(t, compositor.LayerBackground, menu.Layer)
	assert.Equal(t, compositor.AnchorAll, menu.Anchor)
	assert.Zero(t, menu.Width)
	assert.Zero(t, menu.Height)
	assert.Zero(t, menu.ExclusiveZone)

	bottomBar := batch[2].(compositor.CreateSurface)
	assert.True(t, bottomBar.Anchor.Has(compositor.AnchorBottom))
	assert.False(t, bottomBar.Anchor.Has(compositor.AnchorTop))
	assert.Equal(t, 34, bottomBar.Height)

	assert.Equal(t, pairs[0].Bar, topBar.ID)
	assert.Equal(t, pairs[0].Menu.ID, menu.ID)
	assert.NotEqual(t, pairs[0].Bar, pairs[1].Bar)
}

func TestDestroyPairs_DestroysBoth(t *testing.T) {
	pairs, _ := createLayers(nil, []config.BarConfig{{Position: config.PositionTop, Style: config.StyleSolid}}, 1.0)

	batch := destroyPairs(pairs)
	require.Len(t, batch, 2)
	assert.Equal(t, pairs[0].Bar, batch[0].Surface())
	assert.Equal(t, pairs[0].Menu.ID, batch[1].Surface())
}
