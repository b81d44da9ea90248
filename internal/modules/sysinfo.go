package modules

import (
	"context"
	"fmt"

	"github.com/jmylchreest/waveline/internal/config"
	"github.com/jmylchreest/waveline/internal/shell"
	"github.com/jmylchreest/waveline/internal/sysinfo"
)

// SystemInfo shows host telemetry from the sysinfo snapshot service.
type SystemInfo struct {
	cfg     config.SystemInfoConfig
	service *sysinfo.Service
	snap    *sysinfo.Snapshot
}

type sysinfoUpdate struct {
	snap *sysinfo.Snapshot
}

func (sysinfoUpdate) Module() string { return "sysinfo" }

// NewSystemInfo creates the telemetry module backed by the given service.
func NewSystemInfo(cfg config.SystemInfoConfig, service *sysinfo.Service) *SystemInfo {
	return &SystemInfo{
		cfg:     cfg,
		service: service,
		snap:    service.Snapshot(),
	}
}

// SetConfig applies a reloaded telemetry configuration.
func (m *SystemInfo) SetConfig(cfg config.SystemInfoConfig) {
	m.cfg = cfg
	m.service.SetConfig(cfg)
}

// Name implements Module.
func (m *SystemInfo) Name() string { return "sysinfo" }

// View implements Module.
func (m *SystemInfo) View() *Segment {
	if m.snap == nil {
		return nil
	}

	blocks := []Block{
		{
			Icon:     "",
			Text:     fmt.Sprintf("%d%%", m.snap.CPUUsage),
			Emphasis: threshold(m.snap.CPUUsage, m.cfg.CPU.WarnThreshold, m.cfg.CPU.AlertThreshold),
		},
		{
			Icon: "",
			Text: fmt.Sprintf("%d%%", m.snap.MemoryPercent()),
		},
	}
	if m.snap.Temperature > 0 {
		blocks = append(blocks, Block{
			Icon:     "",
			Text:     fmt.Sprintf("%d°C", m.snap.Temperature),
			Emphasis: threshold(m.snap.Temperature, m.cfg.Temperature.WarnThreshold, m.cfg.Temperature.AlertThreshold),
		})
	}
	return &Segment{Blocks: blocks}
}

// MenuKind implements MenuProvider.
func (m *SystemInfo) MenuKind() shell.MenuKind { return shell.KindSystemInfo() }

// MenuView implements MenuProvider.
func (m *SystemInfo) MenuView() *MenuView {
	if m.snap == nil {
		return &MenuView{Title: "System"}
	}

	items := []MenuItem{
		{Icon: "", Title: "CPU", Subtitle: fmt.Sprintf("%d%% · %d MHz", m.snap.CPUUsage, m.snap.CPUFrequency)},
		{Icon: "", Title: "Memory", Subtitle: m.snap.MemorySummary()},
	}
	if m.snap.Temperature > 0 {
		items = append(items, MenuItem{
			Icon:     "",
			Title:    "Temperature",
			Subtitle: fmt.Sprintf("%d°C (%s)", m.snap.Temperature, m.cfg.Temperature.Sensor),
		})
	}
	return &MenuView{Title: "System", Items: items}
}

// Update implements Updater.
func (m *SystemInfo) Update(msg Message) Action {
	if update, ok := msg.(sysinfoUpdate); ok {
		m.snap = update.snap
	}
	return Action{}
}

// Subscribe implements Subscriber, forwarding service snapshots as messages.
func (m *SystemInfo) Subscribe(ctx context.Context, messages chan<- Message) {
	m.service.SetUpdateCallback(func(snap *sysinfo.Snapshot) {
		select {
		case messages <- sysinfoUpdate{snap: snap}:
		case <-ctx.Done():
		}
	})
	<-ctx.Done()
	m.service.SetUpdateCallback(nil)
}

func threshold(value, warn, alert int) Emphasis {
	switch {
	case alert > 0 && value >= alert:
		return EmphasisAlert
	case warn > 0 && value >= warn:
		return EmphasisWarn
	default:
		return EmphasisNormal
	}
}
