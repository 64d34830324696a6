// Package governor plays the owning render loop's part: it feeds the frame
// tracker and memory sampler every frame, shrinks the buffer pool and texture
// cache when an alert turns critical, and reports alerts off the render
// goroutine.
//
// Frame, Stats and the components it touches belong to the render goroutine.
// Run and ProposeThresholds may be called from any goroutine; alerts cross
// over through a bounded lock-free mailbox and threshold changes through an
// atomic pointer picked up at the start of the next frame.
package governor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/errors"
	"github.com/ajitpratap0/lumen/pkg/lockfree"
	"github.com/ajitpratap0/lumen/pkg/logger"
	"github.com/ajitpratap0/lumen/pkg/memory"
	"github.com/ajitpratap0/lumen/pkg/metrics"
	"github.com/ajitpratap0/lumen/pkg/observability"
	"github.com/ajitpratap0/lumen/pkg/performance"
	"github.com/ajitpratap0/lumen/pkg/pool"
	"github.com/ajitpratap0/lumen/pkg/texture"
)

const (
	defaultMailboxSize = 256
	reporterPoll       = 250 * time.Millisecond
)

// Remediation actions, also used as metric labels.
const (
	ActionPoolCleanup     = "pool_cleanup"
	ActionTextureCleanup  = "texture_cleanup"
	ActionTextureRelease  = "texture_release"
	ActionScheduledShrink = "scheduled_shrink"
)

// Config configures a Governor.
type Config struct {
	// MailboxSize bounds the alerts waiting for the reporter.
	MailboxSize int
	// PoolShrinkSchedule is a cron spec ("@every 30s", "*/5 * * * *") for
	// periodic pool cleanup. Empty disables it.
	PoolShrinkSchedule string
	// Remediate enables cleanup on critical alerts.
	Remediate bool
}

// Event is an alert as seen by the reporter.
type Event struct {
	Alert            alert.Alert
	Frame            uint64
	At               time.Time
	ReleasedBuffers  int
	ReleasedTextures int
}

// Stats summarizes the governor and the components it drives.
type Stats struct {
	Frames       uint64             `json:"frames"`
	Published    uint64             `json:"published"`
	Reported     uint64             `json:"reported"`
	Dropped      uint64             `json:"dropped"`
	Remediations map[string]uint64  `json:"remediations"`
	Pool         pool.Stats         `json:"pool"`
	Texture      texture.Stats      `json:"texture"`
	Memory       memory.Stats       `json:"memory"`
	Performance  performance.Report `json:"performance"`
}

// Governor drives the per-frame telemetry and remediation.
type Governor struct {
	cfg     Config
	pool    *pool.BufferPool
	cache   *texture.Cache
	sampler *memory.Sampler
	tracker *performance.Tracker

	mailbox *lockfree.Queue[Event]
	wake    chan struct{}
	pending atomic.Pointer[performance.Thresholds]

	frames    uint64
	published lockfree.Counter
	reported  lockfree.Counter
	dropped   lockfree.Counter

	poolCleanups     lockfree.Counter
	textureCleanups  lockfree.Counter
	textureReleases  lockfree.Counter
	scheduledShrinks lockfree.Counter
	now              func() time.Time
}

// New creates a Governor over the given components.
func New(cfg Config, bufferPool *pool.BufferPool, cache *texture.Cache, sampler *memory.Sampler, tracker *performance.Tracker) *Governor {
	if cfg.MailboxSize < 1 {
		cfg.MailboxSize = defaultMailboxSize
	}
	return &Governor{
		cfg:     cfg,
		pool:    bufferPool,
		cache:   cache,
		sampler: sampler,
		tracker: tracker,
		mailbox: lockfree.NewQueue[Event](cfg.MailboxSize),
		wake:    make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Frame records one rendered frame. It returns the frame tracker's alert, or
// the memory sampler's when the tracker raised none.
func (g *Governor) Frame(ctx context.Context, frameTime, renderTime time.Duration) alert.Alert {
	if th := g.pending.Swap(nil); th != nil {
		g.tracker.UpdateThresholds(*th)
		logger.Info("alert thresholds updated",
			zap.Float64("min_fps", th.MinFPS),
			zap.Float64("max_cpu_percent", th.MaxCPUPercent),
			zap.Float64("max_memory_mb", th.MaxMemoryMB),
			zap.Float64("max_frame_time_ms", th.MaxFrameTimeMS),
			zap.Float64("max_render_time_ms", th.MaxRenderTimeMS))
	}
	g.frames++
	ctx = context.WithValue(ctx, logger.FrameKey, g.frames)

	perf := g.tracker.RecordFrame(frameTime, renderTime)
	mem := g.sampler.Update(g.tracker.MemoryMB(), g.pool.Allocated())

	remediated := false
	for _, a := range []alert.Alert{perf, mem} {
		if a == nil {
			continue
		}
		ev := Event{Alert: a, Frame: g.frames, At: g.now()}
		var ok bool
		ev.ReleasedBuffers, ev.ReleasedTextures, ok = g.remediate(ctx, a)
		remediated = remediated || ok
		g.publish(ev)
	}
	if !remediated {
		g.cache.CleanupUnused()
	}

	metrics.RecordTexture(g.cache.Stats())

	if perf != nil {
		return perf
	}
	return mem
}

// remediate frees pooled resources for a critical alert. Memory pressure
// drops every cached texture; anything else ages the cache immediately.
func (g *Governor) remediate(ctx context.Context, a alert.Alert) (buffers, textures int, ok bool) {
	if !g.cfg.Remediate || a.Severity() != alert.Critical {
		return 0, 0, false
	}

	buffers = g.pool.CleanupUnused()
	g.poolCleanups.Increment()
	metrics.Remediations.WithLabelValues(ActionPoolCleanup).Inc()

	if alert.IsMemory(a) {
		textures = g.cache.ForceRelease()
		g.textureReleases.Increment()
		metrics.Remediations.WithLabelValues(ActionTextureRelease).Inc()
	} else {
		textures = g.cache.Age()
		g.textureCleanups.Increment()
		metrics.Remediations.WithLabelValues(ActionTextureCleanup).Inc()
	}

	logger.WithContext(ctx).Debug("remediated critical alert",
		append(alert.Fields(a),
			zap.Int("released_buffers", buffers),
			zap.Int("released_textures", textures))...)
	return buffers, textures, true
}

func (g *Governor) publish(ev Event) {
	if !g.mailbox.Enqueue(ev) {
		g.dropped.Increment()
		metrics.AlertsDropped.Inc()
		return
	}
	g.published.Increment()
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// ProposeThresholds validates th and schedules it for the next frame. It is
// safe to call from any goroutine; the latest proposal wins.
func (g *Governor) ProposeThresholds(th performance.Thresholds) error {
	if err := th.Validate(); err != nil {
		return err
	}
	g.pending.Store(&th)
	return nil
}

// Run reports published alerts and runs the scheduled pool shrink until ctx
// is done. Alerts still queued at cancellation are reported before it returns.
func (g *Governor) Run(ctx context.Context) error {
	if g.cfg.PoolShrinkSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(g.cfg.PoolShrinkSchedule, g.scheduledShrink); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid pool shrink schedule").
				WithDetail("schedule", g.cfg.PoolShrinkSchedule)
		}
		c.Start()
		defer func() {
			<-c.Stop().Done()
		}()
	}

	log := logger.With(zap.String("component", "governor"))
	log.Info("alert reporter started",
		zap.Int("mailbox_size", g.mailbox.Cap()),
		zap.String("pool_shrink_schedule", g.cfg.PoolShrinkSchedule))

	ticker := time.NewTicker(reporterPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.drain(context.WithoutCancel(ctx), log)
			log.Info("alert reporter stopped",
				zap.Uint64("reported", g.reported.Get()),
				zap.Uint64("dropped", g.dropped.Get()))
			return nil
		case <-g.wake:
			g.drain(ctx, log)
		case <-ticker.C:
			g.drain(ctx, log)
			metrics.RecordPool(g.pool.Stats())
		}
	}
}

func (g *Governor) drain(ctx context.Context, log *zap.Logger) {
	for {
		ev, ok := g.mailbox.Dequeue()
		if !ok {
			return
		}
		g.report(ctx, log, ev)
	}
}

func (g *Governor) report(ctx context.Context, log *zap.Logger, ev Event) {
	a := ev.Alert
	metrics.RecordAlert(a)

	_, span := observability.StartSpan(ctx, "governor.alert", observability.AlertAttributes(a)...)
	span.SetAttributes(observability.RemediationAttributes(ev.Frame, ev.ReleasedBuffers, ev.ReleasedTextures)...)
	span.End()

	fields := append(alert.Fields(a),
		zap.Uint64("frame", ev.Frame),
		zap.Time("at", ev.At),
		zap.Int("released_buffers", ev.ReleasedBuffers),
		zap.Int("released_textures", ev.ReleasedTextures))
	if a.Severity() == alert.Critical {
		log.Error(a.String(), fields...)
	} else {
		log.Warn(a.String(), fields...)
	}
	g.reported.Increment()
}

func (g *Governor) scheduledShrink() {
	released := g.pool.CleanupUnused()
	g.scheduledShrinks.Increment()
	metrics.Remediations.WithLabelValues(ActionScheduledShrink).Inc()
	logger.Debug("scheduled pool shrink", zap.Int("released", released))
}

// Stats returns the governor's counters with a snapshot of every component.
// It reads single-owner components, so call it from the render goroutine.
func (g *Governor) Stats() Stats {
	return Stats{
		Frames:    g.frames,
		Published: g.published.Get(),
		Reported:  g.reported.Get(),
		Dropped:   g.dropped.Get(),
		Remediations: map[string]uint64{
			ActionPoolCleanup:     g.poolCleanups.Get(),
			ActionTextureCleanup:  g.textureCleanups.Get(),
			ActionTextureRelease:  g.textureReleases.Get(),
			ActionScheduledShrink: g.scheduledShrinks.Get(),
		},
		Pool:        g.pool.Stats(),
		Texture:     g.cache.Stats(),
		Memory:      g.sampler.Stats(),
		Performance: g.tracker.Report(),
	}
}

// Tracker returns the frame tracker.
func (g *Governor) Tracker() *performance.Tracker {
	return g.tracker
}

// Sampler returns the memory sampler.
func (g *Governor) Sampler() *memory.Sampler {
	return g.sampler
}
