package performance

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/logger"
)

// CachedSampler rate-limits an expensive reading. Between refreshes it
// returns the last value; a failed refresh keeps the last value too.
type CachedSampler struct {
	name        string
	read        func() (float64, error)
	refresh     time.Duration
	last        float64
	lastChecked time.Time
	checked     bool
	now         func() time.Time
}

// NewCachedSampler wraps read so it runs at most once per refresh interval.
func NewCachedSampler(name string, refresh time.Duration, read func() (float64, error)) *CachedSampler {
	return &CachedSampler{
		name:    name,
		read:    read,
		refresh: refresh,
		now:     time.Now,
	}
}

// Value returns the cached reading, refreshing it first when the interval
// has elapsed. The first call always refreshes.
func (s *CachedSampler) Value() float64 {
	now := s.now()
	if s.checked && now.Sub(s.lastChecked) < s.refresh {
		return s.last
	}
	s.checked = true
	s.lastChecked = now

	v, err := s.read()
	if err != nil {
		logger.Debug("probe read failed, keeping last value",
			zap.String("sampler", s.name),
			zap.Float64("last", s.last),
			zap.Error(err))
		return s.last
	}
	s.last = v
	return v
}

// Last returns the cached reading without refreshing.
func (s *CachedSampler) Last() float64 {
	return s.last
}

// LastChecked returns when the reading was last refreshed, or the zero time.
func (s *CachedSampler) LastChecked() time.Time {
	return s.lastChecked
}
