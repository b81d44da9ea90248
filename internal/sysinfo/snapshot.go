package sysinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Snapshot is one immutable telemetry sample. Snapshots are never mutated
// after publication; readers may hold one for as long as they like.
type Snapshot struct {
	Taken time.Time

	CPUUsage     int // percent, 0-100
	CPUFrequency int // MHz, averaged over cores

	Temperature int // celsius, from the configured hwmon sensor

	MemoryUsed  uint64 // bytes
	MemoryTotal uint64 // bytes
}

// MemoryPercent returns used memory as a percentage of total.
func (s *Snapshot) MemoryPercent() int {
	if s.MemoryTotal == 0 {
		return 0
	}
	return int(s.MemoryUsed * 100 / s.MemoryTotal)
}

// MemorySummary formats memory usage as "used / total" in binary units.
func (s *Snapshot) MemorySummary() string {
	return fmt.Sprintf("%s / %s", humanize.IBytes(s.MemoryUsed), humanize.IBytes(s.MemoryTotal))
}

// cpuSample is the cumulative jiffy counters from the aggregate cpu line of
// /proc/stat. Usage is computed from the delta of two samples.
type cpuSample struct {
	idle  uint64
	total uint64
}

// parseCPUSample parses the aggregate "cpu ..." line of /proc/stat.
func parseCPUSample(stat string) (cpuSample, error) {
	for _, line := range strings.Split(stat, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}

		var sample cpuSample
		for i, field := range fields[1:] {
			v, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return cpuSample{}, fmt.Errorf("bad /proc/stat field %q: %w", field, err)
			}
			sample.total += v
			// idle + iowait
			if i == 3 || i == 4 {
				sample.idle += v
			}
		}
		return sample, nil
	}
	return cpuSample{}, fmt.Errorf("no aggregate cpu line in /proc/stat")
}

// cpuUsage returns the busy percentage between two samples.
func cpuUsage(prev, cur cpuSample) int {
	dTotal := cur.total - prev.total
	dIdle := cur.idle - prev.idle
	if dTotal == 0 || dIdle > dTotal {
		return 0
	}
	return int((dTotal - dIdle) * 100 / dTotal)
}

// parseMemInfo extracts used and total bytes from /proc/meminfo contents.
// Used is total minus MemAvailable, matching what free(1) reports.
func parseMemInfo(meminfo string) (used, total uint64, err error) {
	var available uint64
	for _, line := range strings.Split(meminfo, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, perr := strconv.ParseUint(fields[1], 10, 64)
		if perr != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = kb * 1024
		case "MemAvailable:":
			available = kb * 1024
		}
	}
	if total == 0 {
		return 0, 0, fmt.Errorf("no MemTotal in /proc/meminfo")
	}
	if available > total {
		available = total
	}
	return total - available, total, nil
}

// readCPUFrequency averages scaling_cur_freq across cores, in MHz. Missing
// cpufreq support yields zero, not an error.
func readCPUFrequency(root string) int {
	paths, _ := filepath.Glob(filepath.Join(root, "sys/devices/system/cpu/cpu*/cpufreq/scaling_cur_freq"))
	var sum, count int
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		khz, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		sum += khz / 1000
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

// readTemperature finds the hwmon device whose name contains the sensor
// substring and reads its first temperature channel, in celsius. An
// unmatched sensor yields zero.
func readTemperature(root, sensor string) int {
	devices, _ := filepath.Glob(filepath.Join(root, "sys/class/hwmon/hwmon*"))
	for _, device := range devices {
		name, err := os.ReadFile(filepath.Join(device, "name"))
		if err != nil {
			continue
		}
		if sensor != "" && !strings.Contains(strings.TrimSpace(string(name)), sensor) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(device, "temp1_input"))
		if err != nil {
			continue
		}
		millideg, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			continue
		}
		return millideg / 1000
	}
	return 0
}
