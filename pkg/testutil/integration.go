package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// IntegrationTestSuite provides a context and a scratch directory for suites
// that wire several components together.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)
	s.startTime = time.Now()

	tempDir, err := os.MkdirTemp("", "lumen-test-*")
	require.NoError(s.T(), err)
	s.tempDir = tempDir
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
	s.T().Logf("suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the scratch directory
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// CreateTempFile writes content to name inside the scratch directory.
func (s *IntegrationTestSuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.tempDir, name)
	require.NoError(s.T(), os.WriteFile(path, content, 0o644))
	return path
}

// IntegrationTest skips the calling test in -short mode.
func IntegrationTest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// FrameBudget checks a render loop run against throughput and heap targets.
type FrameBudget struct {
	t             *testing.T
	name          string
	minFPS        float64
	maxFrameTime  time.Duration
	maxHeapGrowth int64
}

// NewFrameBudget creates an unconstrained budget.
func NewFrameBudget(t *testing.T, name string) *FrameBudget {
	return &FrameBudget{t: t, name: name}
}

// WithMinFPS sets the minimum sustained frame rate.
func (b *FrameBudget) WithMinFPS(fps float64) *FrameBudget {
	b.minFPS = fps
	return b
}

// WithMaxFrameTime sets the maximum average frame time.
func (b *FrameBudget) WithMaxFrameTime(d time.Duration) *FrameBudget {
	b.maxFrameTime = d
	return b
}

// WithMaxHeapGrowth caps how much the live heap may grow across the run.
func (b *FrameBudget) WithMaxHeapGrowth(bytes int64) *FrameBudget {
	b.maxHeapGrowth = bytes
	return b
}

// Run calls fn, which renders frames and returns how many, and checks the
// configured targets.
func (b *FrameBudget) Run(fn func() int) {
	b.t.Helper()

	runtime.GC()
	before := CaptureMemoryProfile()
	start := time.Now()
	frames := fn()
	elapsed := time.Since(start)
	runtime.GC()
	after := CaptureMemoryProfile()

	if frames == 0 {
		b.t.Fatalf("%s: no frames rendered", b.name)
	}
	fps := float64(frames) / elapsed.Seconds()
	avg := elapsed / time.Duration(frames)
	growth := int64(after.HeapAlloc) - int64(before.HeapAlloc)

	b.t.Logf("%s: %d frames in %v (%.0f fps, %v/frame, heap growth %s)",
		b.name, frames, elapsed, fps, avg, formatBytes(growth))

	if b.minFPS > 0 && fps < b.minFPS {
		b.t.Errorf("frame rate %.0f below target %.0f", fps, b.minFPS)
	}
	if b.maxFrameTime > 0 && avg > b.maxFrameTime {
		b.t.Errorf("average frame time %v exceeds target %v", avg, b.maxFrameTime)
	}
	if b.maxHeapGrowth > 0 && growth > b.maxHeapGrowth {
		b.t.Errorf("heap grew by %s, more than %s", formatBytes(growth), formatBytes(b.maxHeapGrowth))
	}
}

// MemoryProfile captures memory statistics
type MemoryProfile struct {
	HeapAlloc uint64
	HeapInuse uint64
	Sys       uint64
	Mallocs   uint64
	Frees     uint64
}

// CaptureMemoryProfile reads the runtime memory statistics.
func CaptureMemoryProfile() *MemoryProfile {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &MemoryProfile{
		HeapAlloc: m.HeapAlloc,
		HeapInuse: m.HeapInuse,
		Sys:       m.Sys,
		Mallocs:   m.Mallocs,
		Frees:     m.Frees,
	}
}

func formatBytes(bytes int64) string {
	sign := ""
	if bytes < 0 {
		sign = "-"
		bytes = -bytes
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%s%d B", sign, bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.1f %cB", sign, float64(bytes)/float64(div), "KMGTPE"[exp])
}
