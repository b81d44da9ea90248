package modules

import (
	"context"

	"github.com/jmylchreest/waveline/internal/shell"
)

// Message is an opaque event addressed to a module. Modules define their own
// message types; the application loop routes a message back to the module
// that produced it.
type Message interface {
	Module() string
}

// Action is what a module asks the application loop to do in response to a
// message. Zero-valued fields are ignored.
type Action struct {
	// Command, when non-nil, is run on a worker goroutine; its result is
	// routed back to the module as a new message. A nil result is dropped.
	Command func() Message

	// CloseMenu closes menus of this kind everywhere, conditionally, so a
	// slow async completion never closes a menu the user has since replaced.
	CloseMenu *shell.MenuKind

	// RequestKeyboard and ReleaseKeyboard toggle keyboard interactivity for
	// the bar hosting the module's open menu.
	RequestKeyboard bool
	ReleaseKeyboard bool
}

// Module is a bar content provider.
type Module interface {
	// Name is the identifier used in layout configuration.
	Name() string

	// View returns the module's bar segment, or nil to hide the module.
	View() *Segment
}

// MenuProvider is implemented by modules that open a popup menu.
type MenuProvider interface {
	Module

	// MenuKind names the menu this module opens.
	MenuKind() shell.MenuKind

	// MenuView returns the menu content for the module's open menu.
	MenuView() *MenuView
}

// Updater is implemented by modules that react to routed messages.
type Updater interface {
	Module

	// Update applies a message and returns the follow-up action.
	Update(msg Message) Action
}

// Subscriber is implemented by modules with their own event sources. The
// subscription goroutine sends messages until the context is cancelled; the
// application loop routes each message back through Update.
type Subscriber interface {
	Module

	Subscribe(ctx context.Context, messages chan<- Message)
}
