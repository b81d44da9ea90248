// Package compositor defines the value types exchanged with the host
// compositor: surface identities, layer-surface requests, and the
// fire-and-forget Executor boundary that applies them.
package compositor
