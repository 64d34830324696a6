package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/lumen/pkg/alert"
	"github.com/ajitpratap0/lumen/pkg/pool"
	"github.com/ajitpratap0/lumen/pkg/texture"
)

func TestRecordPool(t *testing.T) {
	RecordPool(pool.Stats{Available: 2, Allocated: 3, MaxBuffers: 4, Overflows: 7})

	assert.Equal(t, 2.0, testutil.ToFloat64(PoolBuffers.WithLabelValues("available")))
	assert.Equal(t, 3.0, testutil.ToFloat64(PoolBuffers.WithLabelValues("allocated")))
	assert.Equal(t, 4.0, testutil.ToFloat64(PoolBuffers.WithLabelValues("max")))
	assert.Equal(t, 7.0, testutil.ToFloat64(PoolEvents.WithLabelValues("overflow")))
}

func TestRecordTexture(t *testing.T) {
	RecordTexture(texture.Stats{CachedTextures: 3, HitRate: 0.5, Evictions: 9})

	assert.Equal(t, 3.0, testutil.ToFloat64(TextureCached))
	assert.Equal(t, 0.5, testutil.ToFloat64(TextureHitRate))
	assert.Equal(t, 9.0, testutil.ToFloat64(TextureEvictions))
}

func TestRecordAlert(t *testing.T) {
	counter := AlertsTotal.WithLabelValues("low_fps", "critical")
	before := testutil.ToFloat64(counter)

	RecordAlert(alert.LowFPS{Current: 5, Limit: 30})
	RecordAlert(alert.LowFPS{Current: 25, Limit: 30})

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordResources(t *testing.T) {
	RecordResources(59.5, 12.5, 256)
	assert.Equal(t, 59.5, testutil.ToFloat64(FPS))
	assert.Equal(t, 12.5, testutil.ToFloat64(CPUPercent))
	assert.Equal(t, 256.0, testutil.ToFloat64(MemoryMB))
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, 16.5, Milliseconds(16500*time.Microsecond))
	assert.Equal(t, 0.0, Milliseconds(0))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("frame")
	time.Sleep(2 * time.Millisecond)

	first := timer.Stop()
	assert.GreaterOrEqual(t, first, 2*time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), first)
	assert.Equal(t, "frame", timer.Name())

	timer.Restart()
	assert.Less(t, timer.Stop(), first+time.Second)
}
