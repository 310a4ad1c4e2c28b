package storage

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo describes the machine a run was measured on.
type HostInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	CPUModel      string `json:"cpu_model"`
	LogicalCores  int    `json:"logical_cores"`
	PhysicalCores int    `json:"physical_cores"`
	MemoryBytes   uint64 `json:"memory_bytes"`
}

// Host gathers what it can about the current machine. Fields the platform
// does not report are left zero.
func Host() HostInfo {
	info := HostInfo{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		LogicalCores: runtime.NumCPU(),
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		info.LogicalCores = n
	}
	if n, err := cpu.Counts(false); err == nil {
		info.PhysicalCores = n
	}
	if stats, err := cpu.Info(); err == nil && len(stats) > 0 {
		info.CPUModel = stats[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryBytes = vm.Total
	}
	return info
}
