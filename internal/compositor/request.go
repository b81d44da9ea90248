package compositor

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// SurfaceID is an opaque identity for a layer surface. IDs are allocated
// synchronously; the surface they name may not exist on the compositor side
// yet (or anymore).
type SurfaceID string

// NewSurfaceID allocates a new unique surface identity.
func NewSurfaceID() SurfaceID {
	return SurfaceID(ulid.MustNew(ulid.Now(), rand.Reader).String())
}

// Anchor is a bitmask of display edges a layer surface is pinned to.
type Anchor uint8

const (
	AnchorTop Anchor = 1 << iota
	AnchorBottom
	AnchorLeft
	AnchorRight

	// AnchorAll pins a surface to all four edges (full-screen overlay).
	AnchorAll = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

// Has reports whether the given edge is set.
func (a Anchor) Has(edge Anchor) bool { return a&edge != 0 }

// Layer is the compositor stacking layer for a surface.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

// KeyboardMode is the keyboard-interactivity mode of a layer surface.
type KeyboardMode int

const (
	KeyboardNone KeyboardMode = iota
	KeyboardOnDemand
	KeyboardExclusive
)

// Request is a single fire-and-forget instruction for the host compositor.
// The concrete types are CreateSurface, DestroySurface, SetSize,
// SetExclusiveZone and SetKeyboardMode.
type Request interface {
	Surface() SurfaceID
}

// CreateSurface asks the host to create a new layer surface.
// A nil Output targets the currently active display.
type CreateSurface struct {
	ID            SurfaceID
	Namespace     string
	Output        *Output
	Layer         Layer
	Anchor        Anchor
	Width         int // 0 means "fill the anchored extent"
	Height        int // 0 means "fill the anchored extent"
	ExclusiveZone int
	Keyboard      KeyboardMode
}

// DestroySurface asks the host to destroy a surface.
type DestroySurface struct {
	ID SurfaceID
}

// SetSize asks the host to resize a surface.
type SetSize struct {
	ID     SurfaceID
	Width  int
	Height int
}

// SetExclusiveZone asks the host to change the screen space a surface
// reserves.
type SetExclusiveZone struct {
	ID   SurfaceID
	Zone int
}

// SetKeyboardMode asks the host to change a surface's keyboard
// interactivity.
type SetKeyboardMode struct {
	ID   SurfaceID
	Mode KeyboardMode
}

func (r CreateSurface) Surface() SurfaceID    { return r.ID }
func (r DestroySurface) Surface() SurfaceID   { return r.ID }
func (r SetSize) Surface() SurfaceID          { return r.ID }
func (r SetExclusiveZone) Surface() SurfaceID { return r.ID }
func (r SetKeyboardMode) Surface() SurfaceID  { return r.ID }

// Batch is an ordered list of requests. The host executes a batch in
// issuance order; ordering within a batch is the only sequencing guarantee
// the shell relies on.
type Batch []Request

// Append joins batches in order.
func (b Batch) Append(others ...Batch) Batch {
	out := b
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// Executor applies request batches to the host compositor. Execution is
// asynchronous and no completion is reported; a failed request surfaces only
// as an unresponsive surface.
type Executor interface {
	Apply(Batch)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(Batch)

// Apply implements Executor.
func (f ExecutorFunc) Apply(b Batch) { f(b) }
