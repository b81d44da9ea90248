// Package ipc implements the waveline control interface on the session bus:
// a server exported by the daemon and a client used by the CLI and TUI.
package ipc
