// Package display is the GTK4 host boundary: it executes compositor request
// batches as gtk4-layer-shell windows, watches the gdk display for monitor
// attach/detach, and renders module view trees into bar and menu widgets.
package display
