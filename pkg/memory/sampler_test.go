package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/testutil"
)

func newTestSampler(interval time.Duration, maxHistory int, threshold float64) (*Sampler, *testutil.FakeClock) {
	clock := testutil.NewFakeClock()
	s := NewSampler(interval, maxHistory, threshold)
	s.now = clock.Now
	return s, clock
}

// feed records each value one interval apart and returns the last result.
func feed(s *Sampler, clock *testutil.FakeClock, values ...float64) alert.Alert {
	var last alert.Alert
	for _, v := range values {
		last = s.Update(v, 4)
		clock.Advance(s.checkInterval)
	}
	return last
}

func TestUpdateDetectsRisingTrend(t *testing.T) {
	s, clock := newTestSampler(time.Second, 10, 5)

	got := feed(s, clock, 100, 110, 120)

	require.NotNil(t, got)
	leak, ok := got.(alert.PossibleLeak)
	require.True(t, ok, "got %T", got)
	assert.InDelta(t, 10, leak.IncreaseMB, 1e-9)
	assert.InDelta(t, 120, leak.CurrentMB, 1e-9)
	assert.Equal(t, 5.0, leak.ThresholdMB)
}

func TestUpdateLeakCases(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		threshold float64
		wantLeak  bool
		wantInc   float64
	}{
		{"dip breaks trend", []float64{100, 95, 120}, 5, false, 0},
		{"flat step breaks trend", []float64{100, 100, 120}, 5, false, 0},
		{"steps at threshold", []float64{100, 105, 110}, 5, false, 0},
		{"one large step", []float64{100, 101, 120}, 5, true, 19},
		{"too few samples", []float64{100, 200}, 5, false, 0},
		{"only last three count", []float64{300, 100, 110, 120}, 5, true, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock := newTestSampler(time.Second, 10, tt.threshold)
			got := feed(s, clock, tt.values...)
			if !tt.wantLeak {
				assert.Nil(t, got)
				return
			}
			leak, ok := got.(alert.PossibleLeak)
			require.True(t, ok, "got %v", got)
			assert.InDelta(t, tt.wantInc, leak.IncreaseMB, 1e-9)
		})
	}
}

func TestUpdateIsIntervalGated(t *testing.T) {
	s, clock := newTestSampler(time.Second, 10, 5)

	assert.Nil(t, s.Update(100, 1))
	clock.Advance(999 * time.Millisecond)
	assert.Nil(t, s.Update(500, 1))
	assert.Equal(t, 1, s.Stats().HistoryCount, "sample inside the interval is ignored")

	clock.Advance(time.Millisecond)
	s.Update(110, 1)
	assert.Equal(t, 2, s.Stats().HistoryCount)
}

func TestUpdateHighUsage(t *testing.T) {
	s, clock := newTestSampler(time.Second, 10, 5)
	s.SetUsageLimit(512)

	assert.Nil(t, feed(s, clock, 400))
	got := feed(s, clock, 600)
	require.IsType(t, alert.HighUsage{}, got)
	assert.Equal(t, alert.HighUsage{CurrentMB: 600, LimitMB: 512}, got)

	s.SetUsageLimit(0)
	assert.Nil(t, feed(s, clock, 590))
}

func TestUpdateLeakTakesPrecedenceOverUsage(t *testing.T) {
	s, clock := newTestSampler(time.Second, 10, 5)
	s.SetUsageLimit(100)

	got := feed(s, clock, 100, 110, 120)
	assert.IsType(t, alert.PossibleLeak{}, got)
}

func TestHistoryIsBounded(t *testing.T) {
	s, clock := newTestSampler(time.Second, 3, 1000)
	feed(s, clock, 1, 2, 3, 4, 5)

	hist := s.History()
	require.Len(t, hist, 3)
	assert.Equal(t, []float64{3, 4, 5}, []float64{hist[0].MemoryMB, hist[1].MemoryMB, hist[2].MemoryMB})
	assert.True(t, hist[0].Timestamp.Before(hist[2].Timestamp))
}

func TestStats(t *testing.T) {
	s, clock := newTestSampler(time.Second, 10, 1000)
	assert.Equal(t, Stats{}, s.Stats())

	s.Update(100, 2)
	clock.Advance(time.Second)
	s.Update(80, 3)
	clock.Advance(time.Second)
	s.Update(120, 5)

	st := s.Stats()
	assert.Equal(t, 120.0, st.CurrentMB)
	assert.Equal(t, 80.0, st.MinMB)
	assert.Equal(t, 120.0, st.MaxMB)
	assert.InDelta(t, 100, st.AvgMB, 1e-9)
	assert.Equal(t, 5, st.AllocatedBuffers)
	assert.Equal(t, 3, st.HistoryCount)
}

func TestReset(t *testing.T) {
	s, clock := newTestSampler(time.Minute, 10, 5)
	feed(s, clock, 100, 110)

	s.Reset()
	assert.Empty(t, s.History())
	assert.Equal(t, Stats{}, s.Stats())

	s.Update(100, 0)
	assert.Len(t, s.History(), 1, "first update after reset is due")
}
