package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/lumen/pkg/testutil"
)

func TestFPSEstimator(t *testing.T) {
	clock := testutil.NewFakeClock()
	e := newFPSEstimator()

	assert.Zero(t, e.record(clock.Now()), "one sample has no span")
	assert.Zero(t, e.record(clock.Now()), "zero span")

	clock.Advance(100 * time.Millisecond)
	assert.InDelta(t, 20, e.record(clock.Now()), 1e-9) // 2 intervals over 100ms
}

func TestFPSEstimatorDropsOldFrames(t *testing.T) {
	clock := testutil.NewFakeClock()
	e := newFPSEstimator()

	for i := 0; i < 100; i++ {
		e.record(clock.Now())
		clock.Advance(10 * time.Millisecond)
	}
	assert.LessOrEqual(t, e.frames.Length(), 101)

	// A long stall leaves only the newest frame in the window.
	clock.Advance(5 * time.Second)
	assert.Zero(t, e.record(clock.Now()))
	assert.Equal(t, 1, e.frames.Length())
	assert.True(t, e.stalled())

	e.reset()
	assert.Zero(t, e.current())
	assert.Zero(t, e.frames.Length())
	e.record(clock.Now())
	assert.False(t, e.stalled(), "first frame after reset is a cold start")
}

func TestCachedSampler(t *testing.T) {
	clock := testutil.NewFakeClock()
	reads := 0
	value := 1.0
	s := NewCachedSampler("test", time.Second, func() (float64, error) {
		reads++
		return value, nil
	})
	s.now = clock.Now

	assert.True(t, s.LastChecked().IsZero())
	assert.Equal(t, 1.0, s.Value())
	value = 2
	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 1.0, s.Value())
	assert.Equal(t, 1, reads)

	clock.Advance(time.Millisecond)
	assert.Equal(t, 2.0, s.Value())
	assert.Equal(t, 2, reads)
	assert.Equal(t, clock.Now(), s.LastChecked())
	assert.Equal(t, 2.0, s.Last())
}

func TestRuntimeProbe(t *testing.T) {
	p := NewRuntimeProbe()

	_, err := p.CPUPercent()
	assert.ErrorIs(t, err, ErrCPUUnsupported)

	mb, err := p.MemoryMB()
	assert.NoError(t, err)
	assert.Greater(t, mb, 0.0)
}

func TestProcessProbe(t *testing.T) {
	p := NewProcessProbe()

	mb, err := p.MemoryMB()
	assert.NoError(t, err)
	assert.Greater(t, mb, 0.0)

	cpu, _ := p.CPUPercent()
	assert.GreaterOrEqual(t, cpu, 0.0)
}
