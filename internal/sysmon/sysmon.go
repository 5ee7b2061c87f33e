// Package sysmon samples host-wide CPU, memory and load while a merge runs.
package sysmon

import (
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats is one host snapshot. Fields are zero when the platform does not
// report them.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0, since the previous call
	MemPercent float64 // 0.0 .. 100.0
	Load1      float64
}

// Sample collects one snapshot. CPU uses interval 0, so the first call after
// process start measures since boot.
func Sample() Stats {
	var s Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		s.MemPercent = vm.UsedPercent
	}
	if avg, err := load.Avg(); err == nil && avg != nil {
		s.Load1 = avg.Load1
	}
	return s
}
