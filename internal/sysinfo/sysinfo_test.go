package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svscagn/skadi/internal/output"
	"github.com/svscagn/skadi/internal/payload"
)

func fixtureReader(root string) *Reader {
	return &Reader{
		ProcRoot: filepath.Join("testdata", root),
		Statfs: func(path string) (uint64, uint64, error) {
			if path != "/" {
				return 0, 0, errors.New("unexpected path " + path)
			}
			return 1000, 400, nil
		},
		ResolveDevice: func(source string) string { return filepath.Base(source) },
	}
}

func TestReader_Sample(t *testing.T) {
	snap, err := fixtureReader("proc").Sample()
	require.NoError(t, err)

	assert.InDelta(t, 20.0, snap.CPUUsage, 0.001)
	assert.Equal(t, uint64(16000000*1024), snap.MemoryTotal)
	assert.Equal(t, uint64(6000000*1024), snap.MemoryFree)
	assert.Equal(t, uint64(10000000*1024), snap.MemoryUsed)
	assert.Equal(t, uint64(8000000*1024), snap.SwapTotal)
	assert.Equal(t, uint64(1000000*1024), snap.SwapUsed)

	// every interface, loopback included
	assert.Equal(t, uint64(1000+500000+2500), snap.NetworkRx)
	assert.Equal(t, uint64(1000+200000+3000), snap.NetworkTx)

	assert.Equal(t, uint64(1000), snap.DiskTotal)
	assert.Equal(t, uint64(400), snap.DiskFree)
	assert.Equal(t, uint64(600), snap.DiskUsage)
	assert.Equal(t, uint64(200000*512), snap.DiskRead)
	assert.Equal(t, uint64(600000*512), snap.DiskWrite)
}

func TestReader_NoRootMountZeroesDisk(t *testing.T) {
	snap, err := fixtureReader("noroot").Sample()
	require.NoError(t, err)

	assert.Zero(t, snap.DiskTotal)
	assert.Zero(t, snap.DiskFree)
	assert.Zero(t, snap.DiskUsage)
	assert.Zero(t, snap.DiskRead)
	assert.Zero(t, snap.DiskWrite)
	assert.NotZero(t, snap.MemoryTotal)
}

func TestReader_StackedRootUsesLastMount(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"stat", "meminfo", "diskstats", "net/dev"} {
		data, err := os.ReadFile(filepath.Join("testdata", "proc", name))
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	mounts, err := os.ReadFile(filepath.Join("testdata", "proc", "self", "mounts"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "self"), 0o755))
	stacked := append([]byte("rootfs / rootfs rw 0 0\n"), mounts...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "self", "mounts"), stacked, 0o644))

	r := fixtureReader("proc")
	r.ProcRoot = dir
	snap, err := r.Sample()
	require.NoError(t, err)

	assert.Equal(t, uint64(200000*512), snap.DiskRead)
	assert.Equal(t, uint64(600000*512), snap.DiskWrite)
}

func TestReader_MissingProcIsIoFailure(t *testing.T) {
	r := fixtureReader("does-not-exist")
	_, err := r.Sample()
	assert.ErrorIs(t, err, payload.ErrIoFailure)
}

func TestReader_CPUUsageBetweenSamples(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"meminfo"} {
		data, err := os.ReadFile(filepath.Join("testdata", "proc", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}

	writeStat := func(user, idle uint64) {
		line := fmt.Sprintf("cpu  %d 0 0 %d 0 0 0 0 0 0\n", user, idle)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(line), 0o644))
	}

	r := &Reader{ProcRoot: dir, Statfs: func(string) (uint64, uint64, error) { return 0, 0, nil }, ResolveDevice: filepath.Base}

	writeStat(100, 900)
	_, err := r.Sample()
	require.NoError(t, err)

	writeStat(175, 925)
	snap, err := r.Sample()
	require.NoError(t, err)
	assert.InDelta(t, 75.0, snap.CPUUsage, 0.001)

	// counters that did not move report idle, never a negative value
	snap, err = r.Sample()
	require.NoError(t, err)
	assert.Zero(t, snap.CPUUsage)
}

func TestCPUUsageBounds(t *testing.T) {
	assert.Zero(t, cpuUsage(cpuCounters{Total: 10}, cpuCounters{Total: 5}))
	assert.Equal(t, float32(100), cpuUsage(cpuCounters{}, cpuCounters{Total: 10}))
	assert.Equal(t, float32(50), cpuUsage(cpuCounters{Idle: 10, Total: 20}, cpuCounters{Idle: 15, Total: 30}))
}

type collector struct {
	mu    sync.Mutex
	snaps []payload.Sysinfo
}

func (c *collector) Emit(_ context.Context, p payload.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, p.(payload.Sysinfo))
	return nil
}

func (c *collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snaps)
}

var _ output.Emitter = (*collector)(nil)

func TestAdapter_EmitsOneSnapshotPerTick(t *testing.T) {
	a := &Adapter{Interval: 10 * time.Millisecond, Reader: fixtureReader("proc")}
	c := &collector{}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.Run(ctx, c) }()

	require.Eventually(t, func() bool { return c.Len() >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestAdapter_RejectsNonPositiveInterval(t *testing.T) {
	a := &Adapter{Interval: 0, Reader: fixtureReader("proc")}
	err := a.Run(context.Background(), &collector{})
	require.Error(t, err)
}

func TestAdapter_SamplingFailureIsTerminal(t *testing.T) {
	a := &Adapter{Interval: time.Millisecond, Reader: fixtureReader("does-not-exist")}
	err := a.Run(context.Background(), &collector{})
	assert.ErrorIs(t, err, payload.ErrIoFailure)
}
