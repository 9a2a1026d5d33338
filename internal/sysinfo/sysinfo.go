// Package sysinfo collects host health figures for status reporting.
package sysinfo

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo contains host health figures. All fields are best-effort: a
// figure the platform cannot provide is left at its zero value.
type HostInfo struct {
	Hostname       string
	UptimeSeconds  uint64
	Load1          float64
	MemUsedPercent float64
	CPUTempC       float64
}

// Collect gathers host health figures. It never fails; figures that
// cannot be read stay zero.
func Collect() *HostInfo {
	info := &HostInfo{}

	if hi, err := host.Info(); err == nil {
		info.Hostname = hi.Hostname
		info.UptimeSeconds = hi.Uptime
	}
	if avg, err := load.Avg(); err == nil {
		info.Load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemUsedPercent = vm.UsedPercent
	}
	info.CPUTempC = cpuTemperature()

	return info
}

// cpuTemperature returns the CPU temperature in degrees Celsius. The
// sensor key is "cpu_thermal" on a Raspberry Pi and "coretemp" on most
// x86 boards. Sensor reads can return partial results alongside an
// error, so the list is scanned regardless.
func cpuTemperature() float64 {
	temps, _ := host.SensorsTemperatures()
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "cpu_thermal") || strings.Contains(key, "cpu-thermal") || strings.Contains(key, "coretemp") {
			return t.Temperature
		}
	}
	return 0
}
