// Package performance tracks per-frame timing and process resource usage for
// a render loop and raises alerts when a frame crosses a threshold.
//
// A Tracker combines a one second sliding-window frame-rate estimator, CPU
// and memory readings cached behind refresh intervals, and a bounded history
// of snapshots. RecordFrame is called once per frame on the render goroutine;
// the Tracker does no locking and must not be shared across goroutines.
package performance

import (
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/logger"
	"github.com/ajitpratap0/lumen/pkg/metrics"
)

// Snapshot is the state recorded for one frame.
type Snapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	FPS          float64   `json:"fps"`
	CPUPercent   float64   `json:"cpu_percent"`
	MemoryMB     float64   `json:"memory_mb"`
	FrameTimeMS  float64   `json:"frame_time_ms"`
	RenderTimeMS float64   `json:"render_time_ms"`
}

// Config configures a Tracker.
type Config struct {
	Thresholds Thresholds
	// MaxHistory bounds the snapshot history; at least 1.
	MaxHistory int
	// ReportInterval is how often RecordFrame emits an aggregate Report.
	// Zero disables periodic reports.
	ReportInterval time.Duration
	CPURefresh     time.Duration
	MemoryRefresh  time.Duration
	// Probe defaults to NewProcessProbe().
	Probe Probe
	// OnReport, if set, receives every periodic Report.
	OnReport func(Report)
}

// DefaultConfig returns the configuration used by the simulator.
func DefaultConfig() Config {
	return Config{
		Thresholds:     DefaultThresholds(),
		MaxHistory:     300,
		ReportInterval: 5 * time.Second,
		CPURefresh:     500 * time.Millisecond,
		MemoryRefresh:  time.Second,
	}
}

// Tracker records frames and checks them against Thresholds.
type Tracker struct {
	thresholds     Thresholds
	maxHistory     int
	reportInterval time.Duration
	onReport       func(Report)

	fps     *fpsEstimator
	cpu     *CachedSampler
	mem     *CachedSampler
	history *queue.Queue // of Snapshot, oldest first

	frames     uint64
	lastReport time.Time
	now        func() time.Time
}

// NewTracker creates a Tracker.
func NewTracker(cfg Config) *Tracker {
	if cfg.MaxHistory < 1 {
		cfg.MaxHistory = 1
	}
	probe := cfg.Probe
	if probe == nil {
		probe = NewProcessProbe()
	}

	t := &Tracker{
		thresholds:     cfg.Thresholds,
		maxHistory:     cfg.MaxHistory,
		reportInterval: cfg.ReportInterval,
		onReport:       cfg.OnReport,
		fps:            newFPSEstimator(),
		cpu:            NewCachedSampler("cpu", cfg.CPURefresh, probe.CPUPercent),
		mem:            NewCachedSampler("memory", cfg.MemoryRefresh, probe.MemoryMB),
		history:        queue.New(),
	}
	t.setClock(time.Now)
	return t
}

func (t *Tracker) setClock(now func() time.Time) {
	t.now = now
	t.cpu.now = now
	t.mem.now = now
	t.lastReport = now()
}

// RecordFrame records one frame and returns the highest-priority threshold
// violation, or nil. Violations are checked in the order low fps, high CPU,
// high memory, slow frame, slow render. The first frame after creation or
// ResetHistory never reports low fps; after it, a frame arriving more than a
// second after the previous one reports a rate of 0.
func (t *Tracker) RecordFrame(frameTime, renderTime time.Duration) alert.Alert {
	now := t.now()
	fps := t.fps.record(now)
	snap := Snapshot{
		Timestamp:    now,
		FPS:          fps,
		CPUPercent:   t.cpu.Value(),
		MemoryMB:     t.mem.Value(),
		FrameTimeMS:  metrics.Milliseconds(frameTime),
		RenderTimeMS: metrics.Milliseconds(renderTime),
	}

	t.history.Add(snap)
	for t.history.Length() > t.maxHistory {
		t.history.Remove()
	}
	t.frames++

	metrics.ObserveFrame(frameTime, renderTime)
	metrics.RecordResources(snap.FPS, snap.CPUPercent, snap.MemoryMB)

	a := t.check(snap)

	if t.reportInterval > 0 && now.Sub(t.lastReport) >= t.reportInterval {
		t.lastReport = now
		r := t.Report()
		logger.Info("performance report", r.Fields()...)
		if t.onReport != nil {
			t.onReport(r)
		}
	}
	return a
}

func (t *Tracker) check(s Snapshot) alert.Alert {
	th := t.thresholds
	switch {
	case (s.FPS > 0 || t.fps.stalled()) && s.FPS < th.MinFPS:
		return alert.LowFPS{Current: s.FPS, Limit: th.MinFPS}
	case s.CPUPercent > th.MaxCPUPercent:
		return alert.HighCPU{Current: s.CPUPercent, Limit: th.MaxCPUPercent}
	case s.MemoryMB > th.MaxMemoryMB:
		return alert.HighMemory{CurrentMB: s.MemoryMB, LimitMB: th.MaxMemoryMB}
	case s.FrameTimeMS > th.MaxFrameTimeMS:
		return alert.SlowFrame{CurrentMS: s.FrameTimeMS, LimitMS: th.MaxFrameTimeMS}
	case s.RenderTimeMS > th.MaxRenderTimeMS:
		return alert.SlowRender{CurrentMS: s.RenderTimeMS, LimitMS: th.MaxRenderTimeMS}
	default:
		return nil
	}
}

// Report aggregates the current history.
func (t *Tracker) Report() Report {
	return buildReport(t.now(), t.History(), t.frames)
}

// History returns a copy of the retained snapshots, oldest first.
func (t *Tracker) History() []Snapshot {
	out := make([]Snapshot, t.history.Length())
	for i := range out {
		out[i] = t.history.Get(i).(Snapshot)
	}
	return out
}

// ResetHistory drops the snapshot history and the frame-rate window. Cached
// CPU and memory readings and the thresholds are kept.
func (t *Tracker) ResetHistory() {
	t.history = queue.New()
	t.fps.reset()
	logger.Debug("performance history reset", zap.Uint64("total_frames", t.frames))
}

// UpdateThresholds replaces the thresholds without touching history.
func (t *Tracker) UpdateThresholds(th Thresholds) {
	t.thresholds = th
}

// Thresholds returns the active thresholds.
func (t *Tracker) Thresholds() Thresholds {
	return t.thresholds
}

// FPS returns the most recent frame-rate estimate.
func (t *Tracker) FPS() float64 {
	return t.fps.current()
}

// CPUPercent returns the cached CPU reading without refreshing it.
func (t *Tracker) CPUPercent() float64 {
	return t.cpu.Last()
}

// MemoryMB returns the cached memory reading without refreshing it.
func (t *Tracker) MemoryMB() float64 {
	return t.mem.Last()
}

// Frames returns the number of frames recorded since creation.
func (t *Tracker) Frames() uint64 {
	return t.frames
}
