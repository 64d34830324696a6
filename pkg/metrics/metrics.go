// Package metrics exports lumen's frame telemetry and resource-pool state as
// Prometheus metrics.
//
// # Overview
//
// All collectors are registered with the default registry through promauto
// at package initialization, so importing the package is enough to expose
// them from a promhttp handler. The Record helpers translate component
// snapshots into gauge updates and are safe for concurrent use.
//
// # Basic Usage
//
//	timer := metrics.NewTimer("frame")
//	render()
//	metrics.ObserveFrame(timer.Stop(), renderTime)
//
//	metrics.RecordPool(bufferPool.Stats())
//	metrics.RecordTexture(cache.Stats())
//
// # Metric Types
//
// Gauge: point-in-time readings such as fps, pool occupancy and hit rate
// Histogram: frame and render time distributions in milliseconds
// Counter: alerts, dropped alerts and remediation actions
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/pool"
	"github.com/ajitpratap0/lumen/pkg/texture"
)

// frameBuckets cover 1ms to 250ms; 16.7ms and 33.3ms mark the 60 and 30 fps budgets.
var frameBuckets = []float64{1, 2, 4, 8, 12, 16.7, 25, 33.3, 50, 100, 250}

var (
	// FPS is the frame rate over the estimator's one second window.
	FPS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_frames_per_second",
			Help: "Frame rate over the last second",
		},
	)

	// CPUPercent is the cached process CPU reading.
	CPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_process_cpu_percent",
			Help: "Process CPU usage in percent",
		},
	)

	// MemoryMB is the cached process memory reading.
	MemoryMB = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_process_memory_megabytes",
			Help: "Process resident memory in megabytes",
		},
	)

	// FrameTime tracks total frame time in milliseconds.
	//
	// Example:
	//	metrics.FrameTime.Observe(16.2)
	FrameTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lumen_frame_time_milliseconds",
			Help:    "Total frame time in milliseconds",
			Buckets: frameBuckets,
		},
	)

	// RenderTime tracks the render portion of each frame in milliseconds.
	RenderTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lumen_render_time_milliseconds",
			Help:    "Render time in milliseconds",
			Buckets: frameBuckets,
		},
	)

	// PoolBuffers tracks buffer pool occupancy.
	// Labels: state (available/allocated/max)
	PoolBuffers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lumen_pool_buffers",
			Help: "Buffer pool occupancy",
		},
		[]string{"state"},
	)

	// PoolEvents mirrors the pool's cumulative counters.
	// Labels: event (hit/miss/overflow/discard)
	PoolEvents = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lumen_pool_events",
			Help: "Cumulative buffer pool events",
		},
		[]string{"event"},
	)

	// TextureCached tracks occupied texture cache slots.
	TextureCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_texture_cached",
			Help: "Number of cached textures",
		},
	)

	// TextureHitRate is the texture cache hit rate.
	TextureHitRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_texture_hit_rate",
			Help: "Texture cache hit rate",
		},
	)

	// TextureEvictions mirrors the cache's eviction counter.
	TextureEvictions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lumen_texture_evictions",
			Help: "Textures evicted to make room",
		},
	)

	// AlertsTotal counts published alerts.
	// Labels: kind, severity
	//
	// Example:
	//	metrics.AlertsTotal.WithLabelValues("low_fps", "critical").Inc()
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_alerts_total",
			Help: "Total number of alerts raised",
		},
		[]string{"kind", "severity"},
	)

	// AlertsDropped counts alerts lost because the mailbox was full.
	AlertsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lumen_alerts_dropped_total",
			Help: "Alerts dropped because the reporter fell behind",
		},
	)

	// Remediations counts cleanup actions taken in response to alerts.
	// Labels: action (pool_cleanup/texture_cleanup/texture_release/scheduled_shrink)
	Remediations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumen_remediations_total",
			Help: "Cleanup actions taken under pressure",
		},
		[]string{"action"},
	)
)

// ObserveFrame records one frame's timings.
func ObserveFrame(frameTime, renderTime time.Duration) {
	FrameTime.Observe(Milliseconds(frameTime))
	RenderTime.Observe(Milliseconds(renderTime))
}

// RecordResources updates the fps, CPU and memory gauges.
func RecordResources(fps, cpuPercent, memoryMB float64) {
	FPS.Set(fps)
	CPUPercent.Set(cpuPercent)
	MemoryMB.Set(memoryMB)
}

// RecordPool copies a pool snapshot into the pool gauges.
func RecordPool(st pool.Stats) {
	PoolBuffers.WithLabelValues("available").Set(float64(st.Available))
	PoolBuffers.WithLabelValues("allocated").Set(float64(st.Allocated))
	PoolBuffers.WithLabelValues("max").Set(float64(st.MaxBuffers))
	PoolEvents.WithLabelValues("hit").Set(float64(st.Hits))
	PoolEvents.WithLabelValues("miss").Set(float64(st.Misses))
	PoolEvents.WithLabelValues("overflow").Set(float64(st.Overflows))
	PoolEvents.WithLabelValues("discard").Set(float64(st.Discards))
}

// RecordTexture copies a cache snapshot into the texture gauges.
func RecordTexture(st texture.Stats) {
	TextureCached.Set(float64(st.CachedTextures))
	TextureHitRate.Set(st.HitRate)
	TextureEvictions.Set(float64(st.Evictions))
}

// RecordAlert counts one alert.
func RecordAlert(a alert.Alert) {
	AlertsTotal.WithLabelValues(a.Kind().String(), a.Severity().String()).Inc()
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs.
//
// Example:
//
//	timer := metrics.NewTimer("render")
//	renderFrame()
//	renderTime := timer.Stop()
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's label.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Restart resets the start time and returns the duration measured so far.
func (t *Timer) Restart() time.Duration {
	now := time.Now()
	d := now.Sub(t.start)
	t.start = now
	return d
}
