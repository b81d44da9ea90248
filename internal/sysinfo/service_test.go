package sysinfo

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/waveline/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(t *testing.T) *Service {
	t.Helper()
	root := t.TempDir()
	writeSysFile(t, root, "proc/stat", "cpu  100 0 100 700 100 0 0 0 0 0\n")
	writeSysFile(t, root, "proc/meminfo", "MemTotal: 1000 kB\nMemAvailable: 600 kB\n")
	writeSysFile(t, root, "sys/class/hwmon/hwmon0/name", "k10temp\n")
	writeSysFile(t, root, "sys/class/hwmon/hwmon0/temp1_input", "42000\n")

	s := NewService(config.SystemInfoConfig{
		Temperature:     config.TemperatureConfig{Sensor: "k10temp"},
		RefreshInterval: config.Duration(time.Second),
	}, testLogger())
	s.root = root
	return s
}

func TestService_RefreshPublishesSnapshot(t *testing.T) {
	s := testService(t)
	assert.Nil(t, s.Snapshot())

	s.refresh()

	snap := s.Snapshot()
	require.NotNil(t, snap)
	// First sample has no delta to compute usage from.
	assert.Equal(t, 0, snap.CPUUsage)
	assert.Equal(t, 42, snap.Temperature)
	assert.Equal(t, uint64(400*1024), snap.MemoryUsed)
	assert.Equal(t, uint64(1000*1024), snap.MemoryTotal)
}

func TestService_UsageFromDelta(t *testing.T) {
	s := testService(t)
	s.refresh()

	writeSysFile(t, s.root, "proc/stat", "cpu  200 0 150 750 100 0 0 0 0 0\n")
	s.refresh()

	snap := s.Snapshot()
	require.NotNil(t, snap)
	// 200 jiffies elapsed, 50 idle.
	assert.Equal(t, 75, snap.CPUUsage)
}

func TestService_UpdateCallback(t *testing.T) {
	s := testService(t)

	var got *Snapshot
	s.SetUpdateCallback(func(snap *Snapshot) { got = snap })
	s.refresh()

	require.NotNil(t, got)
	assert.Same(t, s.Snapshot(), got)
}
