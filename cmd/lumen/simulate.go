package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/internal/governor"
	"github.com/ajitpratap0/lumen/pkg/config"
	"github.com/ajitpratap0/lumen/pkg/errors"
	"github.com/ajitpratap0/lumen/pkg/export"
	"github.com/ajitpratap0/lumen/pkg/logger"
	"github.com/ajitpratap0/lumen/pkg/memory"
	"github.com/ajitpratap0/lumen/pkg/metrics"
	"github.com/ajitpratap0/lumen/pkg/observability"
	"github.com/ajitpratap0/lumen/pkg/performance"
	"github.com/ajitpratap0/lumen/pkg/pool"
	"github.com/ajitpratap0/lumen/pkg/texture"
)

// SimulateFlags are the knobs of the synthetic render loop.
type SimulateFlags struct {
	ConfigFile  string
	Duration    time.Duration
	FPS         int
	MetricsAddr string
	ExportPath  string
	Watch       bool
	Textures    int
}

func newSimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive a synthetic render loop through the pools and trackers",
		Long: `Simulate runs a software render loop at a target frame rate. Each frame
checks out a staging buffer, uploads it into a cached texture and reports its
timing, so alerts, remediation and metrics behave as they would in a real
renderer.

Example:
  lumen simulate --config lumen.yaml --duration 30s --fps 60 --export history.json.zst`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := bindEnv(cmd)
			if err != nil {
				return err
			}
			return runSimulation(SimulateFlags{
				ConfigFile:  v.GetString("config"),
				Duration:    v.GetDuration("duration"),
				FPS:         v.GetInt("fps"),
				MetricsAddr: v.GetString("metrics-addr"),
				ExportPath:  v.GetString("export"),
				Watch:       v.GetBool("watch"),
				Textures:    v.GetInt("textures"),
			})
		},
	}

	cmd.Flags().StringP("config", "c", "", "Path to a YAML configuration file (defaults are used when empty)")
	cmd.Flags().DurationP("duration", "d", 10*time.Second, "How long to run; 0 runs until interrupted")
	cmd.Flags().Int("fps", 60, "Target frame rate of the synthetic loop")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides the config)")
	cmd.Flags().String("export", "", "Write the frame history here on exit; .gz, .sz, .lz4, .zst and .s2 are compressed")
	cmd.Flags().Bool("watch", false, "Reload alert thresholds when the config file changes")
	cmd.Flags().Int("textures", 16, "Distinct texture descriptors the loop cycles through")
	return cmd
}

// runSimulation executes the synthetic render loop.
func runSimulation(flags SimulateFlags) error {
	if flags.FPS < 1 {
		return fmt.Errorf("fps must be at least 1, got %d", flags.FPS)
	}
	if flags.Textures < 1 {
		flags.Textures = 1
	}
	if flags.Watch && flags.ConfigFile == "" {
		return fmt.Errorf("--watch requires --config")
	}

	cfg, err := loadConfig(flags.ConfigFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if flags.MetricsAddr != "" {
		cfg.Observability.MetricsAddr = flags.MetricsAddr
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := observability.Initialize(cfg.Observability.Tracing); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.Shutdown(ctx); err != nil {
			logger.Warn("failed to shutdown tracing", zap.Error(err))
		}
	}()

	log := logger.With(
		zap.String("component", "lumen-cli"),
		zap.String("name", cfg.Name))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flags.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.Duration)
		defer cancel()
	}

	if cfg.Observability.MetricsAddr != "" {
		srv := serveMetrics(cfg.Observability.MetricsAddr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	loop := newRenderLoop(cfg, flags.Textures)

	reporterDone := make(chan error, 1)
	go func() { reporterDone <- loop.gov.Run(ctx) }()

	if flags.Watch {
		go func() {
			err := config.Watch(ctx, flags.ConfigFile, func(c *config.Config) {
				if err := loop.gov.ProposeThresholds(c.Performance.Thresholds); err != nil {
					log.Warn("ignoring reloaded thresholds", errors.Fields(err)...)
				}
			})
			if err != nil {
				log.Error("config watcher stopped", zap.Error(err))
			}
		}()
	}

	log.Info("starting simulation",
		zap.Int("fps", flags.FPS),
		zap.Duration("duration", flags.Duration),
		zap.Int("buffer_size", cfg.Pool.BufferSize),
		zap.Int("max_buffers", cfg.Pool.MaxBuffers),
		zap.Int("max_cached_textures", cfg.Texture.MaxCachedTextures))

	start := time.Now()
	loop.run(ctx, time.Second/time.Duration(flags.FPS))

	if err := <-reporterDone; err != nil {
		return fmt.Errorf("alert reporter failed: %w", err)
	}

	stats := loop.gov.Stats()
	log.Info("simulation finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Uint64("frames", stats.Frames),
		zap.Uint64("alerts", stats.Published),
		zap.Uint64("dropped_alerts", stats.Dropped))

	if flags.ExportPath != "" {
		doc := export.NewDocument(loop.gov.Tracker().History())
		doc.Memory = loop.gov.Sampler().History()
		doc.Report = &stats.Performance
		if err := export.WriteFile(flags.ExportPath, doc); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		log.Info("history exported", zap.String("path", flags.ExportPath), zap.Int("snapshots", doc.Count))
	}

	out, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// renderLoop is a software renderer exercising the pools the way a GPU
// upload path would.
type renderLoop struct {
	gov         *governor.Governor
	pool        *pool.BufferPool
	cache       *texture.Cache
	descriptors []texture.Descriptor
}

func newRenderLoop(cfg *config.Config, textures int) *renderLoop {
	bufferPool := pool.NewBufferPool(cfg.Pool.BufferSize, cfg.Pool.InitialCount, cfg.Pool.MaxBuffers)
	cache := texture.NewCache(texture.NewSoftwareDevice(), cfg.Texture.MaxCachedTextures, cfg.Texture.CleanupInterval)

	sampler := memory.NewSampler(cfg.Memory.CheckInterval, cfg.Memory.MaxHistory, cfg.Memory.LeakThresholdMB)
	sampler.SetUsageLimit(cfg.Memory.UsageLimitMB)

	tracker := performance.NewTracker(cfg.Performance.TrackerConfig())

	gov := governor.New(governor.Config{
		MailboxSize:        cfg.Governor.MailboxSize,
		PoolShrinkSchedule: cfg.Governor.PoolShrinkSchedule,
		Remediate:          cfg.Governor.Remediate,
	}, bufferPool, cache, sampler, tracker)

	// Descriptors cycle through sizes and formats so the cache both hits and
	// evicts.
	formats := []texture.Format{texture.RGBA8Unorm, texture.BGRA8Unorm, texture.R8Unorm, texture.RGBA16Float}
	descriptors := make([]texture.Descriptor, textures)
	for i := range descriptors {
		side := uint32(64 << (i % 4))
		descriptors[i] = texture.Descriptor{
			Width:  side,
			Height: side,
			Format: formats[i%len(formats)],
			Usage:  texture.CopyDst | texture.TextureBinding,
		}
	}

	return &renderLoop{
		gov:         gov,
		pool:        bufferPool,
		cache:       cache,
		descriptors: descriptors,
	}
}

func (l *renderLoop) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	frameTimer := metrics.NewTimer("frame")
	var n int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		renderTime := l.renderFrame(n)
		frameTime := frameTimer.Restart()
		l.gov.Frame(ctx, frameTime, renderTime)
		n++
	}
}

// renderFrame stages one texture upload, picking descriptors in an irregular
// order.
func (l *renderLoop) renderFrame(n int) time.Duration {
	timer := metrics.NewTimer("render")

	desc := l.descriptors[(n*n+n/3)%len(l.descriptors)]
	staging := l.pool.Get()
	for i := 0; i < len(staging); i += 4096 {
		staging[i] = byte(n)
	}

	tex := l.cache.GetOrCreate(desc)
	copy(texture.Texels(tex), staging)
	l.pool.Put(staging)

	return timer.Stop()
}
