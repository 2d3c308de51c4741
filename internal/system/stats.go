// Package system collects host statistics for the dashboard page.
package system

import (
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats represents host resource usage shown on the dashboard
type HostStats struct {
	Hostname  string      `json:"hostname"`
	CPU       CPUStats    `json:"cpu"`
	Memory    MemoryStats `json:"memory"`
	Disk      DiskStats   `json:"disk"`
	Timestamp time.Time   `json:"timestamp"`
}

// CPUStats represents CPU usage statistics
type CPUStats struct {
	UsagePercent float64 `json:"usage_percent"`
	Cores        int     `json:"cores"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Total        uint64  `json:"total_bytes"`
	Used         uint64  `json:"used_bytes"`
	Available    uint64  `json:"available_bytes"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskStats represents disk usage statistics
type DiskStats struct {
	Total        uint64  `json:"total_bytes"`
	Used         uint64  `json:"used_bytes"`
	Free         uint64  `json:"free_bytes"`
	UsagePercent float64 `json:"usage_percent"`
	Path         string  `json:"path"`
}

// Collector gathers host statistics
type Collector struct {
	diskPath string
}

// NewCollector creates a collector sampling disk usage at the given path
func NewCollector(diskPath string) *Collector {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Collector{diskPath: diskPath}
}

// Collect gathers a snapshot of host statistics. Individual probe failures
// are logged and leave zero values; the snapshot itself always succeeds.
func (c *Collector) Collect() *HostStats {
	hostname, err := os.Hostname()
	if err != nil {
		slog.Warn("failed to get hostname", "error", err)
	}

	return &HostStats{
		Hostname:  hostname,
		CPU:       c.getCPUStats(),
		Memory:    c.getMemoryStats(),
		Disk:      c.getDiskStats(),
		Timestamp: time.Now(),
	}
}

func (c *Collector) getCPUStats() CPUStats {
	cores, err := cpu.Counts(true)
	if err != nil {
		slog.Warn("failed to get CPU count", "error", err)
		cores = 1
	}

	// Zero duration returns the percentage since the last call, avoiding a
	// blocking sample
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		slog.Warn("failed to get CPU usage", "error", err)
		return CPUStats{Cores: cores}
	}

	usagePercent := 0.0
	if len(percentages) > 0 {
		usagePercent = percentages[0]
	}

	return CPUStats{
		UsagePercent: usagePercent,
		Cores:        cores,
	}
}

func (c *Collector) getMemoryStats() MemoryStats {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		slog.Warn("failed to get memory stats", "error", err)
		return MemoryStats{}
	}

	return MemoryStats{
		Total:        vmStat.Total,
		Used:         vmStat.Used,
		Available:    vmStat.Available,
		UsagePercent: vmStat.UsedPercent,
	}
}

func (c *Collector) getDiskStats() DiskStats {
	usage, err := disk.Usage(c.diskPath)
	if err != nil {
		slog.Warn("failed to get disk stats", "path", c.diskPath, "error", err)
		return DiskStats{Path: c.diskPath}
	}

	return DiskStats{
		Total:        usage.Total,
		Used:         usage.Used,
		Free:         usage.Free,
		UsagePercent: usage.UsedPercent,
		Path:         c.diskPath,
	}
}
