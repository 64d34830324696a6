// Package memory samples process memory at a fixed cadence and flags
// sustained growth that looks like a leak.
package memory

import (
	"math"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/logger"
)

// leakWindow is the number of consecutive snapshots the leak check inspects.
const leakWindow = 3

// Snapshot is one memory sample.
type Snapshot struct {
	Timestamp        time.Time `json:"timestamp"`
	MemoryMB         float64   `json:"memory_mb"`
	AllocatedBuffers int       `json:"allocated_buffers"`
}

// Stats aggregates the retained history.
type Stats struct {
	CurrentMB        float64 `json:"current_mb"`
	MinMB            float64 `json:"min_mb"`
	MaxMB            float64 `json:"max_mb"`
	AvgMB            float64 `json:"avg_mb"`
	AllocatedBuffers int     `json:"allocated_buffers"`
	HistoryCount     int     `json:"history_count"`
}

// Sampler keeps a bounded history of memory snapshots. It is not safe for
// concurrent use.
type Sampler struct {
	checkInterval   time.Duration
	maxHistory      int
	leakThresholdMB float64
	usageLimitMB    float64

	history   *queue.Queue // of Snapshot, oldest first
	lastCheck time.Time
	checked   bool
	now       func() time.Time
}

// NewSampler creates a sampler that records at most one snapshot per
// checkInterval, retains maxHistory snapshots (at least one) and reports a
// possible leak when memory grows across three samples by more than
// leakThresholdMB in a single step.
func NewSampler(checkInterval time.Duration, maxHistory int, leakThresholdMB float64) *Sampler {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &Sampler{
		checkInterval:   checkInterval,
		maxHistory:      maxHistory,
		leakThresholdMB: leakThresholdMB,
		history:         queue.New(),
		now:             time.Now,
	}
}

// SetUsageLimit enables the HighUsage alert for samples above limitMB.
// Zero or a negative value disables it.
func (s *Sampler) SetUsageLimit(limitMB float64) {
	s.usageLimitMB = math.Max(limitMB, 0)
}

// Update records a sample if the check interval has elapsed and returns the
// first alert it triggers. It returns nil when no check was due or nothing
// was wrong. The first call is always due.
func (s *Sampler) Update(currentMB float64, allocatedBuffers int) alert.Alert {
	now := s.now()
	if s.checked && now.Sub(s.lastCheck) < s.checkInterval {
		return nil
	}
	s.checked = true
	s.lastCheck = now

	s.history.Add(Snapshot{Timestamp: now, MemoryMB: currentMB, AllocatedBuffers: allocatedBuffers})
	for s.history.Length() > s.maxHistory {
		s.history.Remove()
	}

	if a := s.detectLeak(); a != nil {
		logger.Debug("memory trend exceeds leak threshold", alert.Fields(a)...)
		return a
	}
	if s.usageLimitMB > 0 && currentMB > s.usageLimitMB {
		a := alert.HighUsage{CurrentMB: currentMB, LimitMB: s.usageLimitMB}
		logger.Debug("memory above usage limit", alert.Fields(a)...)
		return a
	}
	return nil
}

// detectLeak flags strictly rising memory over the last three snapshots when
// the larger of the two steps exceeds the threshold.
func (s *Sampler) detectLeak() alert.Alert {
	if s.history.Length() < leakWindow {
		return nil
	}
	s0 := s.history.Get(-3).(Snapshot).MemoryMB
	s1 := s.history.Get(-2).(Snapshot).MemoryMB
	s2 := s.history.Get(-1).(Snapshot).MemoryMB

	d1, d2 := s1-s0, s2-s1
	if d1 <= 0 || d2 <= 0 {
		return nil
	}
	increase := math.Max(d1, d2)
	if increase <= s.leakThresholdMB {
		return nil
	}
	return alert.PossibleLeak{IncreaseMB: increase, CurrentMB: s2, ThresholdMB: s.leakThresholdMB}
}

// Stats summarizes the retained history; the zero Stats when it is empty.
func (s *Sampler) Stats() Stats {
	n := s.history.Length()
	if n == 0 {
		return Stats{}
	}

	latest := s.history.Get(-1).(Snapshot)
	st := Stats{
		CurrentMB:        latest.MemoryMB,
		MinMB:            math.Inf(1),
		MaxMB:            math.Inf(-1),
		AllocatedBuffers: latest.AllocatedBuffers,
		HistoryCount:     n,
	}
	var sum float64
	for i := 0; i < n; i++ {
		mb := s.history.Get(i).(Snapshot).MemoryMB
		sum += mb
		st.MinMB = math.Min(st.MinMB, mb)
		st.MaxMB = math.Max(st.MaxMB, mb)
	}
	st.AvgMB = sum / float64(n)
	return st
}

// History returns a copy of the retained snapshots, oldest first.
func (s *Sampler) History() []Snapshot {
	out := make([]Snapshot, s.history.Length())
	for i := range out {
		out[i] = s.history.Get(i).(Snapshot)
	}
	return out
}

// Reset drops the history. The next Update is due immediately.
func (s *Sampler) Reset() {
	s.history = queue.New()
	s.checked = false
	s.lastCheck = time.Time{}
	logger.Debug("memory sampler reset", zap.Int("max_history", s.maxHistory))
}
