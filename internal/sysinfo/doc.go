// Package sysinfo samples host telemetry (CPU usage and frequency,
// temperature, memory) into immutable snapshots. A single background
// goroutine owns the sampling; readers load the latest snapshot through an
// atomic pointer and never block the sampler.
package sysinfo
