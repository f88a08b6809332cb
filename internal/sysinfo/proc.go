package sysinfo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type cpuCounters struct {
	Idle  uint64
	Total uint64
}

func readCPUCounters(procRoot string) (cpuCounters, error) {
	path := filepath.Join(procRoot, "stat")
	f, err := os.Open(path)
	if err != nil {
		return cpuCounters{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 5 {
			return cpuCounters{}, fmt.Errorf("unexpected cpu line: %q", line)
		}

		var c cpuCounters
		for i, p := range parts[1:] {
			// guest and guest_nice are already included in user and nice
			if i >= 8 {
				break
			}
			v, convErr := strconv.ParseUint(p, 10, 64)
			if convErr != nil {
				return cpuCounters{}, fmt.Errorf("parse cpu stat %q: %w", p, convErr)
			}
			c.Total += v
			// idle and iowait
			if i == 3 || i == 4 {
				c.Idle += v
			}
		}
		return c, nil
	}
	if err := s.Err(); err != nil {
		return cpuCounters{}, fmt.Errorf("scan %s: %w", path, err)
	}
	return cpuCounters{}, fmt.Errorf("cpu aggregate line not found in %s", path)
}

// cpuUsage is the busy share of the time elapsed between two samples, in percent.
func cpuUsage(prev, cur cpuCounters) float32 {
	if cur.Total <= prev.Total {
		return 0
	}
	total := float64(cur.Total - prev.Total)
	idle := float64(0)
	if cur.Idle > prev.Idle {
		idle = float64(cur.Idle - prev.Idle)
	}
	usage := (total - idle) / total * 100
	switch {
	case usage < 0:
		return 0
	case usage > 100:
		return 100
	}
	return float32(usage)
}

type memInfo struct {
	Total     uint64
	Available uint64
	SwapTotal uint64
	SwapFree  uint64
}

func readMemInfo(procRoot string) (memInfo, error) {
	path := filepath.Join(procRoot, "meminfo")
	f, err := os.Open(path)
	if err != nil {
		return memInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vals := map[string]uint64{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		parts := strings.Fields(s.Text())
		if len(parts) < 2 {
			continue
		}
		v, convErr := strconv.ParseUint(parts[1], 10, 64)
		if convErr != nil {
			continue
		}
		vals[strings.TrimSuffix(parts[0], ":")] = v * 1024
	}
	if err := s.Err(); err != nil {
		return memInfo{}, fmt.Errorf("scan %s: %w", path, err)
	}

	if vals["MemTotal"] == 0 {
		return memInfo{}, fmt.Errorf("MemTotal missing from %s", path)
	}
	return memInfo{
		Total:     vals["MemTotal"],
		Available: vals["MemAvailable"],
		SwapTotal: vals["SwapTotal"],
		SwapFree:  vals["SwapFree"],
	}, nil
}

type netInterface struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
}

func readNetInterfaces(procRoot string) ([]netInterface, error) {
	path := filepath.Join(procRoot, "net", "dev")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []netInterface
	s := bufio.NewScanner(f)
	lineNo := 0
	for s.Scan() {
		lineNo++
		// two header lines
		if lineNo <= 2 {
			continue
		}
		name, rest, ok := strings.Cut(s.Text(), ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		metrics := strings.Fields(rest)
		if name == "" || len(metrics) < 16 {
			continue
		}
		rx, rxErr := strconv.ParseUint(metrics[0], 10, 64)
		tx, txErr := strconv.ParseUint(metrics[8], 10, 64)
		if rxErr != nil || txErr != nil {
			continue
		}
		out = append(out, netInterface{Name: name, RxBytes: rx, TxBytes: tx})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

type mount struct {
	Source string
	Point  string
	FSType string
}

func readMounts(procRoot string) ([]mount, error) {
	path := filepath.Join(procRoot, "self", "mounts")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var out []mount
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		out = append(out, mount{Source: fields[0], Point: fields[1], FSType: fields[2]})
	}
	return out, nil
}

type diskIO struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// readDiskIO returns the cumulative traffic of one block device (whole disk or
// partition) as listed in diskstats.
func readDiskIO(procRoot, device string) (diskIO, bool, error) {
	path := filepath.Join(procRoot, "diskstats")
	f, err := os.Open(path)
	if err != nil {
		return diskIO{}, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 10 || fields[2] != device {
			continue
		}
		sectorsRead, errRead := strconv.ParseUint(fields[5], 10, 64)
		sectorsWritten, errWrite := strconv.ParseUint(fields[9], 10, 64)
		if errRead != nil || errWrite != nil {
			return diskIO{}, false, fmt.Errorf("parse diskstats for %s", device)
		}
		return diskIO{ReadBytes: sectorsRead * 512, WriteBytes: sectorsWritten * 512}, true, nil
	}
	if err := s.Err(); err != nil {
		return diskIO{}, false, fmt.Errorf("scan %s: %w", path, err)
	}
	return diskIO{}, false, nil
}
