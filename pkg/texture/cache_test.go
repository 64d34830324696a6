package texture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lumen/pkg/testutil"
)

func desc(w, h uint32) Descriptor {
	return Descriptor{Width: w, Height: h, Format: RGBA8Unorm, Usage: TextureBinding | CopyDst}
}

func newTestCache(t *testing.T, slots int, interval time.Duration) (*Cache, *SoftwareDevice, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock()
	dev := NewSoftwareDevice()
	c := NewCache(dev, slots, interval)
	c.now = clock.Now
	c.lastCleanup = clock.Now()
	return c, dev, clock
}

func TestGetOrCreateHitSharesSlot(t *testing.T) {
	c, dev, _ := newTestCache(t, 4, time.Second)

	first := c.GetOrCreate(desc(64, 64))
	second := c.GetOrCreate(desc(64, 64))

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), dev.Created())

	usage, ok := c.Usage(desc(64, 64))
	require.True(t, ok)
	assert.Equal(t, uint32(2), usage)

	stats := c.Stats()
	assert.Equal(t, 1, stats.CachedTextures)
	assert.Equal(t, uint64(2), stats.TotalUsage)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestGetOrCreateMatchesEveryDescriptorField(t *testing.T) {
	c, dev, _ := newTestCache(t, 8, time.Second)

	base := desc(32, 32)
	variants := []Descriptor{
		base,
		{Width: 33, Height: 32, Format: base.Format, Usage: base.Usage},
		{Width: 32, Height: 33, Format: base.Format, Usage: base.Usage},
		{Width: 32, Height: 32, Format: BGRA8Unorm, Usage: base.Usage},
		{Width: 32, Height: 32, Format: base.Format, Usage: base.Usage | RenderAttachment},
	}
	for _, d := range variants {
		c.GetOrCreate(d)
	}
	assert.Equal(t, int64(len(variants)), dev.Created())
	assert.Equal(t, len(variants), c.Stats().CachedTextures)
}

func TestGetOrCreateEvictsLowestUsageFirstScanned(t *testing.T) {
	c, dev, _ := newTestCache(t, 3, time.Second)

	a := c.GetOrCreate(desc(1, 1))
	c.GetOrCreate(desc(1, 1))
	c.GetOrCreate(desc(2, 2))
	c.GetOrCreate(desc(3, 3))
	// usages: a=2, b=1, c=1; b is scanned before c.

	c.GetOrCreate(desc(4, 4))

	_, ok := c.Usage(desc(2, 2))
	assert.False(t, ok, "first minimum-usage slot must be evicted")
	_, ok = c.Usage(desc(3, 3))
	assert.True(t, ok)
	usage, ok := c.Usage(desc(4, 4))
	require.True(t, ok)
	assert.Equal(t, uint32(1), usage)

	assert.Same(t, a, c.GetOrCreate(desc(1, 1)))
	assert.Equal(t, uint64(1), c.Stats().Evictions)
	assert.Equal(t, int64(3), dev.Live())
}

func TestGetOrCreateFillsFreedSlotBeforeEvicting(t *testing.T) {
	c, _, _ := newTestCache(t, 2, 0)

	c.GetOrCreate(desc(1, 1))
	c.GetOrCreate(desc(2, 2))
	c.ForceRelease()
	c.GetOrCreate(desc(3, 3))
	c.GetOrCreate(desc(4, 4))

	assert.Equal(t, uint64(0), c.Stats().Evictions)
}

func TestCleanupUnusedIsIntervalGated(t *testing.T) {
	c, _, clock := newTestCache(t, 4, time.Second)

	c.GetOrCreate(desc(8, 8))
	assert.Equal(t, 0, c.CleanupUnused())
	usage, _ := c.Usage(desc(8, 8))
	assert.Equal(t, uint32(1), usage, "no aging before the interval elapses")

	clock.Advance(time.Second)
	assert.Equal(t, 0, c.CleanupUnused())
	usage, _ = c.Usage(desc(8, 8))
	assert.Equal(t, uint32(0), usage)

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, c.CleanupUnused())
	_, ok := c.Usage(desc(8, 8))
	assert.True(t, ok)
}

func TestCleanupUnusedAgesAndFrees(t *testing.T) {
	c, dev, clock := newTestCache(t, 4, time.Second)

	c.GetOrCreate(desc(1, 1))
	for i := 0; i < 3; i++ {
		c.GetOrCreate(desc(2, 2))
	}

	clock.Advance(time.Second)
	assert.Equal(t, 0, c.CleanupUnused()) // 1→0, 3→2
	clock.Advance(time.Second)
	assert.Equal(t, 1, c.CleanupUnused()) // first freed, 2→1

	_, ok := c.Usage(desc(1, 1))
	assert.False(t, ok)
	usage, ok := c.Usage(desc(2, 2))
	require.True(t, ok)
	assert.Equal(t, uint32(1), usage)
	assert.Equal(t, int64(1), dev.Live())
}

func TestAgeIgnoresIntervalAndRestartsIt(t *testing.T) {
	c, dev, clock := newTestCache(t, 4, time.Second)

	c.GetOrCreate(desc(1, 1))
	c.GetOrCreate(desc(2, 2))
	c.GetOrCreate(desc(2, 2))

	assert.Equal(t, 0, c.Age()) // 1→0, 2→1
	usage, ok := c.Usage(desc(1, 1))
	require.True(t, ok)
	assert.Zero(t, usage)

	assert.Equal(t, 1, c.Age())
	assert.Equal(t, int64(1), dev.Live())

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, c.CleanupUnused(), "interval counts from the last Age")
	usage, _ = c.Usage(desc(2, 2))
	assert.Zero(t, usage)
}

func TestForceRelease(t *testing.T) {
	c, dev, _ := newTestCache(t, 3, time.Second)
	for i := uint32(1); i <= 3; i++ {
		c.GetOrCreate(desc(i, i))
	}

	assert.Equal(t, 3, c.ForceRelease())
	assert.Equal(t, int64(0), dev.Live())
	assert.Equal(t, int64(0), dev.LiveBytes())
	assert.Equal(t, 0, c.Stats().CachedTextures)
	assert.Equal(t, 0, c.ForceRelease())
}

func TestStatsHitRate(t *testing.T) {
	tests := []struct {
		name string
		gets []Descriptor
		want float64
	}{
		{"empty", nil, 0},
		{"all misses", []Descriptor{desc(1, 1), desc(2, 2)}, 0},
		{"three of four hits", []Descriptor{desc(1, 1), desc(1, 1), desc(1, 1), desc(1, 1)}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestCache(t, 4, time.Second)
			for _, d := range tt.gets {
				c.GetOrCreate(d)
			}
			st := c.Stats()
			assert.InDelta(t, tt.want, st.HitRate, 1e-9)
			assert.Equal(t, 4, st.MaxCachedTextures)
		})
	}
}

func TestStatsHitRateNeverNegative(t *testing.T) {
	c, _, clock := newTestCache(t, 4, time.Second)
	c.GetOrCreate(desc(1, 1))
	c.GetOrCreate(desc(2, 2))
	c.GetOrCreate(desc(2, 2))

	clock.Advance(time.Second)
	c.CleanupUnused() // usages 0 and 1

	st := c.Stats()
	assert.Equal(t, 2, st.CachedTextures)
	assert.Equal(t, uint64(1), st.TotalUsage)
	assert.Zero(t, st.HitRate)
}

func TestNewCacheClampsCapacity(t *testing.T) {
	c := NewCache(NewSoftwareDevice(), 0, time.Second)
	assert.Equal(t, 1, c.Stats().MaxCachedTextures)
}
