package server

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// System metrics for the health endpoint. These read Linux proc/sys files
// and report zero on other platforms or when the files are missing.

// readTemperature returns the SoC temperature in degrees Celsius.
func readTemperature() float32 {
	data, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return float32(milli) / 1000
}

var cpuSampleMu sync.Mutex
var prevCPUTotal, prevCPUIdle int64

// readCPUUsage returns CPU utilisation as a percentage, computed from the
// delta between consecutive /proc/stat samples. The first call reports the
// average since boot.
func readCPUUsage() float32 {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return 0
	}
	line, _, _ := strings.Cut(string(data), "\n")
	fields := strings.Fields(line)
	if len(fields) < 8 || fields[0] != "cpu" {
		return 0
	}

	var total, idle int64
	for i, f := range fields[1:8] {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return 0
		}
		total += v
		if i == 3 {
			idle = v
		}
	}

	cpuSampleMu.Lock()
	defer cpuSampleMu.Unlock()

	diffTotal := total - prevCPUTotal
	diffIdle := idle - prevCPUIdle
	prevCPUTotal = total
	prevCPUIdle = idle

	if diffTotal <= 0 {
		return 0
	}
	return 100 * (1 - float32(diffIdle)/float32(diffTotal))
}

// readMemoryUsage returns used memory as a percentage of MemTotal.
func readMemoryUsage() float32 {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}

	var memTotal, memAvailable int64
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "MemTotal:"); ok {
			memTotal = parseMeminfoKB(v)
		} else if v, ok := strings.CutPrefix(line, "MemAvailable:"); ok {
			memAvailable = parseMeminfoKB(v)
		}
	}
	if memTotal <= 0 {
		return 0
	}
	return 100 * (1 - float32(memAvailable)/float32(memTotal))
}

func parseMeminfoKB(s string) int64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
