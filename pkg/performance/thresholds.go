package performance

import (
	"math"

	"github.com/ajitpratap0/lumen/pkg/errors"
)

// Thresholds are the limits RecordFrame checks each frame against. A zero
// field disables nothing: a MaxCPUPercent of 0 flags any CPU use.
type Thresholds struct {
	MinFPS          float64 `yaml:"min_fps" json:"min_fps"`
	MaxCPUPercent   float64 `yaml:"max_cpu_percent" json:"max_cpu_percent"`
	MaxMemoryMB     float64 `yaml:"max_memory_mb" json:"max_memory_mb"`
	MaxFrameTimeMS  float64 `yaml:"max_frame_time_ms" json:"max_frame_time_ms"`
	MaxRenderTimeMS float64 `yaml:"max_render_time_ms" json:"max_render_time_ms"`
}

// DefaultThresholds targets 30 fps on a desktop-class machine.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinFPS:          30,
		MaxCPUPercent:   80,
		MaxMemoryMB:     1024,
		MaxFrameTimeMS:  33.3,
		MaxRenderTimeMS: 16.6,
	}
}

// Validate requires every limit to be finite and non-negative.
func (t Thresholds) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"min_fps", t.MinFPS},
		{"max_cpu_percent", t.MaxCPUPercent},
		{"max_memory_mb", t.MaxMemoryMB},
		{"max_frame_time_ms", t.MaxFrameTimeMS},
		{"max_render_time_ms", t.MaxRenderTimeMS},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return errors.Newf(errors.ErrorTypeValidation, "threshold %s must be a finite non-negative number", f.name).
				WithDetail("field", f.name).
				WithDetail("value", f.value)
		}
	}
	return nil
}
