package config

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/lumen/pkg/errors"
	"github.com/ajitpratap0/lumen/pkg/logger"
	"github.com/ajitpratap0/lumen/pkg/observability"
	"github.com/ajitpratap0/lumen/pkg/performance"
)

// Config is the complete lumen configuration.
type Config struct {
	// Name identifies the render loop in logs and traces
	Name string `yaml:"name" json:"name"`

	// Pool sizes the staging buffer pool
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Texture sizes the texture cache
	Texture TextureConfig `yaml:"texture" json:"texture"`

	// Memory configures the memory sampler
	Memory MemoryConfig `yaml:"memory" json:"memory"`

	// Performance configures the frame tracker and its thresholds
	Performance PerformanceConfig `yaml:"performance" json:"performance"`

	// Governor configures alert handling and remediation
	Governor GovernorConfig `yaml:"governor" json:"governor"`

	// Observability configures tracing and the metrics endpoint
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// Logging configures the global logger
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// PoolConfig sizes the byte buffer pool.
type PoolConfig struct {
	// BufferSize is the length of every pooled buffer in bytes
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
	// InitialCount buffers are allocated up front
	InitialCount int `yaml:"initial_count" json:"initial_count"`
	// MaxBuffers caps the buffers the pool tracks
	MaxBuffers int `yaml:"max_buffers" json:"max_buffers"`
}

// TextureConfig sizes the texture cache.
type TextureConfig struct {
	MaxCachedTextures int           `yaml:"max_cached_textures" json:"max_cached_textures"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// MemoryConfig configures the memory sampler.
type MemoryConfig struct {
	CheckInterval   time.Duration `yaml:"check_interval" json:"check_interval"`
	MaxHistory      int           `yaml:"max_history" json:"max_history"`
	LeakThresholdMB float64       `yaml:"leak_threshold_mb" json:"leak_threshold_mb"`
	// UsageLimitMB enables the high usage alert; 0 disables it
	UsageLimitMB float64 `yaml:"usage_limit_mb" json:"usage_limit_mb"`
}

// PerformanceConfig configures the frame tracker.
type PerformanceConfig struct {
	Thresholds     performance.Thresholds `yaml:"thresholds" json:"thresholds"`
	MaxHistory     int                    `yaml:"max_history" json:"max_history"`
	ReportInterval time.Duration          `yaml:"report_interval" json:"report_interval"`
	CPURefresh     time.Duration          `yaml:"cpu_refresh" json:"cpu_refresh"`
	MemoryRefresh  time.Duration          `yaml:"memory_refresh" json:"memory_refresh"`
}

// GovernorConfig configures the remediation loop.
type GovernorConfig struct {
	// MailboxSize bounds the alerts waiting for the reporter
	MailboxSize int `yaml:"mailbox_size" json:"mailbox_size"`
	// PoolShrinkSchedule is a cron spec for periodic pool cleanup; empty disables it
	PoolShrinkSchedule string `yaml:"pool_shrink_schedule" json:"pool_shrink_schedule"`
	// Remediate enables cleanup on critical alerts
	Remediate bool `yaml:"remediate" json:"remediate"`
}

// ObservabilityConfig configures tracing and metrics exposure.
type ObservabilityConfig struct {
	Tracing observability.TracingConfig `yaml:"tracing" json:"tracing"`
	// MetricsAddr serves /metrics when set, e.g. ":9090"
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
}

// NewDefault returns a configuration sized for a 1080p RGBA render loop.
func NewDefault() *Config {
	return &Config{
		Name: "lumen",
		Pool: PoolConfig{
			BufferSize:   1920 * 1080 * 4,
			InitialCount: 2,
			MaxBuffers:   8,
		},
		Texture: TextureConfig{
			MaxCachedTextures: 10,
			CleanupInterval:   5 * time.Second,
		},
		Memory: MemoryConfig{
			CheckInterval:   time.Second,
			MaxHistory:      120,
			LeakThresholdMB: 5,
		},
		Performance: PerformanceConfig{
			Thresholds:     performance.DefaultThresholds(),
			MaxHistory:     300,
			ReportInterval: 5 * time.Second,
			CPURefresh:     500 * time.Millisecond,
			MemoryRefresh:  time.Second,
		},
		Governor: GovernorConfig{
			MailboxSize: 256,
			Remediate:   true,
		},
		Observability: ObservabilityConfig{
			Tracing: observability.DefaultTracingConfig(),
		},
		Logging: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the configuration for values the components cannot use.
func (c *Config) Validate() error {
	if c.Pool.BufferSize <= 0 {
		return invalid("pool.buffer_size", "must be positive")
	}
	if c.Pool.MaxBuffers <= 0 {
		return invalid("pool.max_buffers", "must be positive")
	}
	if c.Pool.InitialCount < 0 || c.Pool.InitialCount > c.Pool.MaxBuffers {
		return invalid("pool.initial_count", "must be between 0 and max_buffers")
	}
	if c.Texture.MaxCachedTextures <= 0 {
		return invalid("texture.max_cached_textures", "must be positive")
	}
	if c.Texture.CleanupInterval < 0 {
		return invalid("texture.cleanup_interval", "cannot be negative")
	}
	if c.Memory.CheckInterval < 0 {
		return invalid("memory.check_interval", "cannot be negative")
	}
	if c.Memory.MaxHistory < 3 {
		return invalid("memory.max_history", "must be at least 3 for leak detection")
	}
	if c.Memory.LeakThresholdMB < 0 {
		return invalid("memory.leak_threshold_mb", "cannot be negative")
	}
	if c.Memory.UsageLimitMB < 0 {
		return invalid("memory.usage_limit_mb", "cannot be negative")
	}
	if err := c.Performance.Thresholds.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid performance.thresholds")
	}
	if c.Performance.MaxHistory <= 0 {
		return invalid("performance.max_history", "must be positive")
	}
	if c.Performance.ReportInterval < 0 || c.Performance.CPURefresh < 0 || c.Performance.MemoryRefresh < 0 {
		return invalid("performance", "intervals cannot be negative")
	}
	if c.Governor.MailboxSize <= 0 {
		return invalid("governor.mailbox_size", "must be positive")
	}
	if r := c.Observability.Tracing.SamplingRate; r < 0 || r > 1 {
		return invalid("observability.tracing.sampling_rate", "must be between 0 and 1")
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, "invalid logging.level")
		}
	}
	switch c.Logging.Encoding {
	case "", "json", "console":
	default:
		return invalid("logging.encoding", "must be json or console")
	}
	return nil
}

func invalid(field, reason string) error {
	return errors.Newf(errors.ErrorTypeConfig, "%s %s", field, reason).WithDetail("field", field)
}

// TrackerConfig converts the performance section for performance.NewTracker.
func (p PerformanceConfig) TrackerConfig() performance.Config {
	return performance.Config{
		Thresholds:     p.Thresholds,
		MaxHistory:     p.MaxHistory,
		ReportInterval: p.ReportInterval,
		CPURefresh:     p.CPURefresh,
		MemoryRefresh:  p.MemoryRefresh,
	}
}
