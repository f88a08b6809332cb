// Package sysinfo polls host CPU, memory, network and root filesystem
// counters and emits a snapshot on a fixed interval.
package sysinfo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"golang.org/x/sys/unix"

	"github.com/svscagn/skadi/internal/output"
	"github.com/svscagn/skadi/internal/payload"
)

const DefaultInterval = 5 * time.Second

// Reader takes snapshots from a procfs tree. Only the CPU counters of the
// previous sample are kept, since a usage percentage needs two points; every
// other field is read fresh.
type Reader struct {
	ProcRoot string
	// Statfs reports total and available bytes of the filesystem at path.
	Statfs func(path string) (total, free uint64, err error)
	// ResolveDevice turns a mount source such as /dev/mapper/root into the
	// kernel device name used in diskstats.
	ResolveDevice func(source string) string

	mu      sync.Mutex
	prevCPU cpuCounters
	logger  *log.Logger
}

func NewReader() *Reader {
	return &Reader{
		ProcRoot:      "/proc",
		Statfs:        statfs,
		ResolveDevice: resolveDevice,
	}
}

func statfs(path string) (uint64, uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, err
	}
	return st.Blocks * uint64(st.Bsize), st.Bavail * uint64(st.Bsize), nil
}

func resolveDevice(source string) string {
	if resolved, err := filepath.EvalSymlinks(source); err == nil {
		source = resolved
	}
	return filepath.Base(source)
}

func (r *Reader) log() *log.Logger {
	if r.logger == nil {
		r.logger = log.WithPrefix("sysinfo")
	}
	return r.logger
}

// Sample reads one snapshot. Failing to read CPU or memory counters is an
// error; network and disk problems only zero their fields.
func (r *Reader) Sample() (payload.Sysinfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpu, err := readCPUCounters(r.ProcRoot)
	if err != nil {
		return payload.Sysinfo{}, payload.IoFailure("sample cpu", err)
	}
	usage := cpuUsage(r.prevCPU, cpu)
	r.prevCPU = cpu

	mem, err := readMemInfo(r.ProcRoot)
	if err != nil {
		return payload.Sysinfo{}, payload.IoFailure("sample memory", err)
	}

	snap := payload.Sysinfo{
		CPUUsage:    usage,
		MemoryTotal: mem.Total,
		MemoryFree:  mem.Available,
		MemoryUsed:  mem.Total - min(mem.Available, mem.Total),
		SwapTotal:   mem.SwapTotal,
		SwapUsed:    mem.SwapTotal - min(mem.SwapFree, mem.SwapTotal),
	}

	ifaces, err := readNetInterfaces(r.ProcRoot)
	if err != nil {
		r.log().Warn("network counters unavailable", "err", err)
	}
	snap.NetworkRx = lo.SumBy(ifaces, func(i netInterface) uint64 { return i.RxBytes })
	snap.NetworkTx = lo.SumBy(ifaces, func(i netInterface) uint64 { return i.TxBytes })

	r.sampleRootDisk(&snap)
	return snap, nil
}

func (r *Reader) sampleRootDisk(snap *payload.Sysinfo) {
	mounts, err := readMounts(r.ProcRoot)
	if err != nil {
		r.log().Warn("mount table unavailable", "err", err)
		return
	}

	// stacked mounts list the visible one last
	root, _, ok := lo.FindLastIndexOf(mounts, func(m mount) bool { return m.Point == "/" })
	if !ok {
		return
	}

	total, free, err := r.Statfs(root.Point)
	if err != nil {
		r.log().Warn("statfs / failed", "err", err)
	} else {
		snap.DiskTotal = total
		snap.DiskFree = free
		snap.DiskUsage = total - min(free, total)
	}

	if !strings.HasPrefix(root.Source, "/dev/") {
		return
	}
	io, found, err := readDiskIO(r.ProcRoot, r.ResolveDevice(root.Source))
	if err != nil {
		r.log().Warn("disk counters unavailable", "err", err)
		return
	}
	if found {
		snap.DiskRead = io.ReadBytes
		snap.DiskWrite = io.WriteBytes
	}
}

type Adapter struct {
	Interval time.Duration
	Reader   *Reader
}

func New(interval time.Duration) *Adapter {
	return &Adapter{Interval: interval, Reader: NewReader()}
}

func (a *Adapter) Name() string { return "sysinfo" }

// Run samples immediately and then once per Interval. It only returns when
// sampling fails or ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, emitter output.Emitter) error {
	if a.Interval <= 0 {
		return fmt.Errorf("sysinfo poll interval must be positive, got %v", a.Interval)
	}
	log.WithPrefix(a.Name()).Info("polling system counters", "interval", a.Interval)

	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()

	for {
		snap, err := a.Reader.Sample()
		if err != nil {
			return err
		}
		if err := emitter.Emit(ctx, snap); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
