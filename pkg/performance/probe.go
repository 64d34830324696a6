package performance

import (
	"errors"
	"runtime"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/logger"
)

// Probe reads process-level resource usage. Reads may block on the OS and
// are rate-limited by the tracker's CachedSamplers.
type Probe interface {
	// CPUPercent returns process CPU usage since the previous call, where 100
	// is one fully used core.
	CPUPercent() (float64, error)
	// MemoryMB returns the process's resident memory in megabytes.
	MemoryMB() (float64, error)
}

// ErrCPUUnsupported is returned by probes that cannot measure CPU time.
var ErrCPUUnsupported = errors.New("cpu usage not available on this platform")

const bytesPerMB = 1024 * 1024

// NewProcessProbe returns the best probe for the current platform, falling
// back to the Go runtime probe when the platform probe cannot start.
func NewProcessProbe() Probe {
	p, err := newPlatformProbe()
	if err != nil {
		logger.Warn("process probe unavailable, using runtime statistics", zap.Error(err))
		return NewRuntimeProbe()
	}
	return p
}

// RuntimeProbe reports memory obtained by the Go runtime. It cannot see CPU
// time, so CPUPercent always fails and the tracker keeps its default of 0.
type RuntimeProbe struct{}

// NewRuntimeProbe creates a RuntimeProbe.
func NewRuntimeProbe() *RuntimeProbe {
	return &RuntimeProbe{}
}

// CPUPercent implements Probe.
func (RuntimeProbe) CPUPercent() (float64, error) {
	return 0, ErrCPUUnsupported
}

// MemoryMB implements Probe.
func (RuntimeProbe) MemoryMB() (float64, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.Sys) / bytesPerMB, nil
}
