// Package app runs the waveline event loop: a single goroutine that owns
// the output registry and all module state, routing display events, config
// reloads, user input and module messages into compositor request batches.
package app
