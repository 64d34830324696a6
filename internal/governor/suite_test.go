package governor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/config"
	"github.com/ajitpratap0/lumen/pkg/memory"
	"github.com/ajitpratap0/lumen/pkg/performance"
	"github.com/ajitpratap0/lumen/pkg/pool"
	"github.com/ajitpratap0/lumen/pkg/testutil"
	"github.com/ajitpratap0/lumen/pkg/texture"
)

const suiteConfig = `
name: suite
pool:
  buffer_size: 16384
  initial_count: 2
  max_buffers: 4
texture:
  max_cached_textures: 3
  cleanup_interval: 50ms
memory:
  check_interval: 10ms
  max_history: 8
  leak_threshold_mb: 64
performance:
  memory_refresh: 1ms
  thresholds:
    min_fps: 1
governor:
  mailbox_size: 8
  remediate: true
`

type GovernorSuite struct {
	testutil.IntegrationTestSuite
	cfg *config.Config
}

func TestGovernorSuite(t *testing.T) {
	testutil.IntegrationTest(t)
	suite.Run(t, new(GovernorSuite))
}

func (s *GovernorSuite) SetupTest() {
	path := s.CreateTempFile("lumen.yaml", []byte(suiteConfig))
	cfg, err := config.Load(path)
	s.Require().NoError(err)
	s.cfg = cfg
}

func (s *GovernorSuite) newGovernor(probe performance.Probe) (*Governor, *pool.BufferPool, *texture.Cache) {
	bufferPool := pool.NewBufferPool(s.cfg.Pool.BufferSize, s.cfg.Pool.InitialCount, s.cfg.Pool.MaxBuffers)
	cache := texture.NewCache(texture.NewSoftwareDevice(), s.cfg.Texture.MaxCachedTextures, s.cfg.Texture.CleanupInterval)
	sampler := memory.NewSampler(s.cfg.Memory.CheckInterval, s.cfg.Memory.MaxHistory, s.cfg.Memory.LeakThresholdMB)

	tcfg := s.cfg.Performance.TrackerConfig()
	tcfg.Probe = probe
	gov := New(Config{
		MailboxSize:        s.cfg.Governor.MailboxSize,
		PoolShrinkSchedule: s.cfg.Governor.PoolShrinkSchedule,
		Remediate:          s.cfg.Governor.Remediate,
	}, bufferPool, cache, sampler, performance.NewTracker(tcfg))
	return gov, bufferPool, cache
}

func (s *GovernorSuite) TestSteadyLoopStaysWithinBudget() {
	gov, bufferPool, cache := s.newGovernor(&testutil.StubProbe{CPU: 10, Memory: 200})
	descs := []texture.Descriptor{
		{Width: 64, Height: 64, Format: texture.RGBA8Unorm, Usage: texture.CopyDst},
		{Width: 32, Height: 32, Format: texture.R8Unorm, Usage: texture.CopyDst},
		{Width: 16, Height: 16, Format: texture.BGRA8Unorm, Usage: texture.CopyDst},
	}

	testutil.NewFrameBudget(s.T(), "steady loop").
		WithMaxFrameTime(5 * time.Millisecond).
		WithMaxHeapGrowth(64 << 20).
		Run(func() int {
			for n := 0; n < 500; n++ {
				staging := bufferPool.Get()
				copy(texture.Texels(cache.GetOrCreate(descs[n%len(descs)])), staging)
				bufferPool.Put(staging)
				gov.Frame(s.Context(), time.Millisecond, 500*time.Microsecond)
			}
			return 500
		})

	stats := gov.Stats()
	s.Equal(uint64(500), stats.Frames)
	s.Zero(stats.Published)
	s.Equal(3, stats.Texture.CachedTextures)
	s.LessOrEqual(stats.Pool.Allocated, s.cfg.Pool.MaxBuffers)
}

func (s *GovernorSuite) TestLeakTriggersReleaseAndReport() {
	probe := &testutil.StubProbe{Memory: 100}
	gov, _, cache := s.newGovernor(probe)
	cache.GetOrCreate(texture.Descriptor{Width: 8, Height: 8, Format: texture.RGBA8Unorm})

	ctx, cancel := context.WithCancel(s.Context())
	done := make(chan error, 1)
	go func() { done <- gov.Run(ctx) }()

	var last alert.Alert
	for _, mb := range []float64{100, 300, 500} {
		probe.Set(0, mb, nil)
		time.Sleep(2 * s.cfg.Memory.CheckInterval)
		last = gov.Frame(s.Context(), time.Millisecond, time.Millisecond)
	}

	s.Require().NotNil(last)
	s.Equal(alert.KindPossibleLeak, last.Kind())
	s.Equal(alert.Critical, last.Severity())
	s.Equal(0, cache.Stats().CachedTextures)

	testutil.AssertEventually(s.T(), func() bool {
		return gov.reported.Get() == 1
	}, 2*time.Second, "leak alert was not reported")

	cancel()
	s.Require().NoError(<-done)
	s.Equal(500.0, gov.Stats().Memory.MaxMB)
}
