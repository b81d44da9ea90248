package sysinfo

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/waveline/internal/config"
)

// Service owns the telemetry sampling goroutine. All filesystem reads happen
// on that goroutine; the latest snapshot is published through an atomic
// pointer, so Snapshot never blocks and never observes a half-written
// sample.
type Service struct {
	mu     sync.Mutex
	logger *slog.Logger

	cfg  config.SystemInfoConfig
	root string

	snapshot atomic.Pointer[Snapshot]
	prev     cpuSample
	hasPrev  bool

	onUpdate func(*Snapshot)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewService creates a telemetry service reading from the host filesystem.
func NewService(cfg config.SystemInfoConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
		cfg:    cfg,
		root:   "/",
	}
}

// SetUpdateCallback sets the callback invoked with each new snapshot, on the
// sampling goroutine.
func (s *Service) SetUpdateCallback(callback func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = callback
}

// SetConfig replaces the sampling configuration. The new refresh interval
// takes effect on the next tick.
func (s *Service) SetConfig(cfg config.SystemInfoConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Snapshot returns the most recent telemetry sample, or nil before the first
// sample completes.
func (s *Service) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Start launches the sampling goroutine. It samples once immediately so the
// first render has data, then on the configured interval.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)

	s.logger.Debug("telemetry service started", "interval", s.interval())
	return nil
}

// Stop stops the sampling goroutine and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	s.refresh()

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh()
			ticker.Reset(s.interval())
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.cfg.RefreshInterval.Duration(); d >= time.Second {
		return d
	}
	return 5 * time.Second
}

// refresh takes one sample and publishes it.
func (s *Service) refresh() {
	s.mu.Lock()
	sensor := s.cfg.Temperature.Sensor
	callback := s.onUpdate
	s.mu.Unlock()

	snap := &Snapshot{Taken: time.Now()}

	if stat, err := os.ReadFile(filepath.Join(s.root, "proc/stat")); err == nil {
		if cur, err := parseCPUSample(string(stat)); err == nil {
			if s.hasPrev {
				snap.CPUUsage = cpuUsage(s.prev, cur)
			}
			s.prev = cur
			s.hasPrev = true
		} else {
			s.logger.Warn("failed to parse cpu sample", "error", err)
		}
	}

	if meminfo, err := os.ReadFile(filepath.Join(s.root, "proc/meminfo")); err == nil {
		if used, total, err := parseMemInfo(string(meminfo)); err == nil {
			snap.MemoryUsed = used
			snap.MemoryTotal = total
		} else {
			s.logger.Warn("failed to parse meminfo", "error", err)
		}
	}

	snap.CPUFrequency = readCPUFrequency(s.root)
	snap.Temperature = readTemperature(s.root, sensor)

	s.snapshot.Store(snap)

	if callback != nil {
		callback(snap)
	}
}
