package texture

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/logger"
)

type slot struct {
	texture Texture // nil when the slot is empty
	desc    Descriptor
	usage   uint32
}

// Cache is a fixed-capacity texture cache with usage-counter eviction.
type Cache struct {
	device          Device
	slots           []slot
	cleanupInterval time.Duration
	lastCleanup     time.Time
	now             func() time.Time

	evictions uint64
}

// Stats summarizes a Cache.
type Stats struct {
	// CachedTextures is the number of occupied slots
	CachedTextures int `json:"cached_textures"`
	// MaxCachedTextures is the slot count
	MaxCachedTextures int `json:"max_cached_textures"`
	// TotalUsage is the sum of the occupied slots' usage counters
	TotalUsage uint64 `json:"total_usage"`
	// HitRate is (TotalUsage - CachedTextures) / TotalUsage, floored at 0
	HitRate float64 `json:"hit_rate"`
	// Evictions counts textures replaced to make room
	Evictions uint64 `json:"evictions"`
}

// NewCache creates a cache with maxCachedTextures slots (at least one) that
// allocates through device. CleanupUnused does nothing until cleanupInterval
// has passed since the previous cleanup or since creation.
func NewCache(device Device, maxCachedTextures int, cleanupInterval time.Duration) *Cache {
	if maxCachedTextures < 1 {
		maxCachedTextures = 1
	}
	c := &Cache{
		device:          device,
		slots:           make([]slot, maxCachedTextures),
		cleanupInterval: cleanupInterval,
		now:             time.Now,
	}
	c.lastCleanup = c.now()
	return c
}

// GetOrCreate returns the cached texture for desc, creating it on a miss.
//
// A hit bumps the slot's usage counter. A miss fills the first empty slot,
// or, when every slot is taken, releases the slot with the lowest usage
// counter (the first one scanned on a tie) and reuses it.
func (c *Cache) GetOrCreate(desc Descriptor) Texture {
	empty := -1
	victim := -1
	for i := range c.slots {
		s := &c.slots[i]
		if s.texture == nil {
			if empty < 0 {
				empty = i
			}
			continue
		}
		if s.desc == desc {
			s.usage++
			return s.texture
		}
		if victim < 0 || s.usage < c.slots[victim].usage {
			victim = i
		}
	}

	idx := empty
	if idx < 0 {
		idx = victim
		old := c.slots[idx]
		logger.Debug("evicting cached texture",
			zap.Int("slot", idx),
			zap.Stringer("evicted", old.desc),
			zap.Uint32("usage", old.usage),
			zap.Stringer("requested", desc))
		old.texture.Release()
		c.evictions++
	}

	tex := c.device.CreateTexture(desc)
	c.slots[idx] = slot{texture: tex, desc: desc, usage: 1}
	return tex
}

// CleanupUnused ages the cache once per cleanup interval. It returns the
// number of released textures, which is 0 when no cleanup is due.
func (c *Cache) CleanupUnused() int {
	if c.now().Sub(c.lastCleanup) < c.cleanupInterval {
		return 0
	}
	return c.Age()
}

// Age releases slots whose usage counter is already zero and decrements every
// other counter, regardless of the cleanup interval. The interval restarts
// from now. It returns the number of released textures.
func (c *Cache) Age() int {
	c.lastCleanup = c.now()

	freed := 0
	for i := range c.slots {
		s := &c.slots[i]
		if s.texture == nil {
			continue
		}
		if s.usage == 0 {
			s.texture.Release()
			*s = slot{}
			freed++
			continue
		}
		s.usage--
	}
	return freed
}

// ForceRelease releases every cached texture regardless of usage and returns
// how many were released.
func (c *Cache) ForceRelease() int {
	freed := 0
	for i := range c.slots {
		if c.slots[i].texture == nil {
			continue
		}
		c.slots[i].texture.Release()
		c.slots[i] = slot{}
		freed++
	}
	if freed > 0 {
		logger.Debug("released all cached textures", zap.Int("released", freed))
	}
	return freed
}

// Stats returns the cache's occupancy and hit rate. HitRate is
// (TotalUsage - CachedTextures) / TotalUsage, clamped to 0 where aged slots
// would make it negative.
func (c *Cache) Stats() Stats {
	st := Stats{
		MaxCachedTextures: len(c.slots),
		Evictions:         c.evictions,
	}
	for _, s := range c.slots {
		if s.texture == nil {
			continue
		}
		st.CachedTextures++
		st.TotalUsage += uint64(s.usage)
	}
	// Aged slots can sit at zero usage, so the numerator may go negative.
	if st.TotalUsage > uint64(st.CachedTextures) {
		st.HitRate = float64(st.TotalUsage-uint64(st.CachedTextures)) / float64(st.TotalUsage)
	}
	return st
}

// Usage returns the usage counter of the slot holding desc.
func (c *Cache) Usage(desc Descriptor) (uint32, bool) {
	for _, s := range c.slots {
		if s.texture != nil && s.desc == desc {
			return s.usage, true
		}
	}
	return 0, false
}
