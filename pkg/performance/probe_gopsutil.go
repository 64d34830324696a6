//go:build linux || darwin || windows || freebsd

package performance

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/lumen/pkg/errors"
)

// processProbe measures the current process through gopsutil.
type processProbe struct {
	proc *process.Process

	mu       sync.Mutex
	lastCPU  float64
	lastWall time.Time
}

func newPlatformProbe() (Probe, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to open current process")
	}
	times, err := proc.Times()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read process cpu times")
	}
	return &processProbe{
		proc:     proc,
		lastCPU:  times.User + times.System,
		lastWall: time.Now(),
	}, nil
}

// CPUPercent returns CPU time consumed since the previous call as a share
// of wall time.
func (p *processProbe) CPUPercent() (float64, error) {
	times, err := p.proc.Times()
	if err != nil {
		return 0, err
	}
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	cpu := times.User + times.System
	wall := now.Sub(p.lastWall).Seconds()
	delta := cpu - p.lastCPU
	p.lastCPU, p.lastWall = cpu, now
	if wall <= 0 || delta < 0 {
		return 0, nil
	}
	return delta / wall * 100, nil
}

// MemoryMB returns the resident set size.
func (p *processProbe) MemoryMB() (float64, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / bytesPerMB, nil
}
