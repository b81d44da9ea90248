// Package modules implements the bar content providers: clock, telemetry,
// package updates, media player, status tray and settings. Modules are
// decoupled from rendering and from the compositor; they produce
// renderer-agnostic view trees and communicate with the application loop
// through messages and actions.
package modules
