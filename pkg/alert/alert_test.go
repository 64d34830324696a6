package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
		want  Severity
	}{
		{"fps far below minimum", LowFPS{Current: 10, Limit: 30}, Critical},
		{"fps slightly below minimum", LowFPS{Current: 25, Limit: 30}, Warning},
		{"fps exactly half", LowFPS{Current: 15, Limit: 30}, Warning},
		{"cpu double", HighCPU{Current: 160, Limit: 80}, Warning},
		{"cpu more than double", HighCPU{Current: 161, Limit: 80}, Critical},
		{"memory moderate", HighMemory{CurrentMB: 1500, LimitMB: 1024}, Warning},
		{"memory runaway", HighMemory{CurrentMB: 4096, LimitMB: 1024}, Critical},
		{"slow frame", SlowFrame{CurrentMS: 40, LimitMS: 33.3}, Warning},
		{"very slow render", SlowRender{CurrentMS: 50, LimitMS: 16}, Critical},
		{"small leak", PossibleLeak{IncreaseMB: 8, CurrentMB: 300, ThresholdMB: 5}, Warning},
		{"large leak", PossibleLeak{IncreaseMB: 12, CurrentMB: 300, ThresholdMB: 5}, Critical},
		{"usage over limit", HighUsage{CurrentMB: 600, LimitMB: 512}, Warning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.alert.Severity())
		})
	}
}

func TestKindAndString(t *testing.T) {
	a := LowFPS{Current: 24.5, Limit: 30}
	assert.Equal(t, KindLowFPS, a.Kind())
	assert.Equal(t, "low_fps", a.Kind().String())
	assert.Equal(t, "low fps: 24.5 (minimum 30.0)", a.String())

	leak := PossibleLeak{IncreaseMB: 10, CurrentMB: 120, ThresholdMB: 5}
	assert.Equal(t, 10.0, leak.Value())
	assert.Equal(t, 5.0, leak.Threshold())
	assert.Contains(t, leak.String(), "now 120.0MB")

	assert.Equal(t, "critical", Critical.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestIsMemory(t *testing.T) {
	assert.True(t, IsMemory(HighMemory{}))
	assert.True(t, IsMemory(PossibleLeak{}))
	assert.True(t, IsMemory(HighUsage{}))
	assert.False(t, IsMemory(LowFPS{}))
	assert.False(t, IsMemory(SlowRender{}))
}

func TestFields(t *testing.T) {
	fields := Fields(PossibleLeak{IncreaseMB: 10, CurrentMB: 120, ThresholdMB: 5})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"kind", "severity", "value", "threshold", "current_mb"}, keys)
}
