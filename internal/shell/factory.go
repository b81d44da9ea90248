package shell

import (
	"github.com/jmylchreest/waveline/internal/compositor"
	"github.com/jmylchreest/waveline/internal/config"
)

// BaseHeight is the unscaled bar height in logical pixels. Solid and
// gradient bars give 8 of those back to the compositor; islands bars keep
// the full height for padding.
const BaseHeight = 34.0

// namespace identifies waveline surfaces to the compositor.
const namespace = "waveline-shell"

// Pair is one bar surface plus its lazily populated menu surface. The two
// are created together and destroyed together; the registry is their sole
// owner.
type Pair struct {
	Bar    compositor.SurfaceID
	Menu   Menu
	Config config.BarConfig
	Scale  float64
}

// BarHeight returns the effective bar height for a style at a scale factor.
func BarHeight(style config.AppearanceStyle, scale float64) int {
	adjust := 8.0
	if style == config.StyleIslands {
		adjust = 0
	}
	return int((BaseHeight - adjust) * scale)
}

// createLayers allocates one Pair per bar config for the given display and
// returns the creation requests for the host. A nil output targets the
// currently active display. Identity allocation is synchronous; the
// compositor-side creation is fire-and-forget.
func createLayers(output *compositor.Output, bars []config.BarConfig, scale float64) ([]*Pair, compositor.Batch) {
	pairs := make([]*Pair, 0, len(bars))
	batch := make(compositor.Batch, 0, 2*len(bars))

	for _, bar := range bars {
		height := BarHeight(bar.Style, scale)

		anchor := compositor.AnchorLeft | compositor.AnchorRight
		if bar.Position == config.PositionBottom {
			anchor |= compositor.AnchorBottom
		} else {
			anchor |= compositor.AnchorTop
		}

		barID := compositor.NewSurfaceID()
		batch = append(batch, compositor.CreateSurface{
			ID:            barID,
			Namespace:     namespace,
			Output:        output,
			Layer:         compositor.LayerBottom,
			Anchor:        anchor,
			Height:        height,
			ExclusiveZone: height,
			Keyboard:      compositor.KeyboardNone,
		})

		menuID := compositor.NewSurfaceID()
		batch = append(batch, compositor.CreateSurface{
			ID:        menuID,
			Namespace: namespace,
			Output:    output,
			Layer:     compositor.LayerBackground,
			Anchor:    compositor.AnchorAll,
			Keyboard:  compositor.KeyboardNone,
		})

		pairs = append(pairs, &Pair{
			Bar:    barID,
			Menu:   newMenu(menuID),
			Config: bar,
			Scale:  scale,
		})
	}

	return pairs, batch
}

// destroyPairs emits destroy requests for every surface of the given pairs.
// Both surfaces of a pair are always destroyed together, even when the menu
// surface was never shown.
func destroyPairs(pairs []*Pair) compositor.Batch {
	batch := make(compositor.Batch, 0, 2*len(pairs))
	for _, pair := range pairs {
		batch = append(batch, compositor.DestroySurface{ID: pair.Bar})
		batch = append(batch, compositor.DestroySurface{ID: pair.Menu.ID})
	}
	return batch
}
