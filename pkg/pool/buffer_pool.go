package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lumen/pkg/logger"
)

// overflowLogEvery rate-limits the overflow warning; the first overflow is
// always logged.
const overflowLogEvery = 256

// BufferPool recycles fixed-size byte buffers.
//
// Buffers checked out with Get are owned exclusively by the caller until they
// are handed back with Put. Dropping a buffer instead of returning it is safe;
// it is simply never reused.
type BufferPool struct {
	bufferSize int
	maxBuffers int
	created    time.Time
	now        func() time.Time

	// state is the monitor guarding the queue and the counter together.
	state struct {
		sync.Mutex
		available *queue.Queue // of []byte, oldest first
		allocated int
	}

	hits      atomic.Int64
	misses    atomic.Int64
	overflows atomic.Int64
	discards  atomic.Int64
}

// Stats is a point-in-time view of a BufferPool.
type Stats struct {
	// Available is the number of idle buffers waiting in the queue
	Available int `json:"available"`
	// Allocated is the number of buffers the pool currently tracks
	Allocated int `json:"allocated"`
	// MaxBuffers is the tracked-buffer capacity
	MaxBuffers int `json:"max_buffers"`
	// BufferSize is the nominal length of every buffer
	BufferSize int `json:"buffer_size"`
	// Uptime is the time since the pool was created
	Uptime time.Duration `json:"uptime"`
	// Hits counts Get calls served from the queue
	Hits int64 `json:"hits"`
	// Misses counts Get calls that allocated a tracked buffer
	Misses int64 `json:"misses"`
	// Overflows counts untracked temporaries handed out at capacity
	Overflows int64 `json:"overflows"`
	// Discards counts Put calls that dropped the buffer
	Discards int64 `json:"discards"`
}

// NewBufferPool creates a pool of bufferSize-byte buffers, pre-populated with
// initialCount zero-filled buffers and tracking at most maxBuffers.
//
// Non-positive sizes are clamped: bufferSize and maxBuffers to 1, initialCount
// to 0; initialCount never exceeds maxBuffers.
func NewBufferPool(bufferSize, initialCount, maxBuffers int) *BufferPool {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if maxBuffers < 1 {
		maxBuffers = 1
	}
	if initialCount < 0 {
		initialCount = 0
	}
	if initialCount > maxBuffers {
		initialCount = maxBuffers
	}

	p := &BufferPool{
		bufferSize: bufferSize,
		maxBuffers: maxBuffers,
		now:        time.Now,
	}
	p.created = p.now()
	p.state.available = queue.New()
	for i := 0; i < initialCount; i++ {
		p.state.available.Add(make([]byte, bufferSize))
	}
	p.state.allocated = initialCount

	return p
}

// Get returns a zeroed buffer of length BufferSize. It never fails: when the
// pool is exhausted it falls back to an untracked allocation.
func (p *BufferPool) Get() []byte {
	p.state.Lock()
	if p.state.available.Length() > 0 {
		buf := p.state.available.Remove().([]byte)
		p.state.Unlock()

		p.hits.Add(1)
		buf = buf[:p.bufferSize]
		clear(buf)
		return buf
	}
	if p.state.allocated < p.maxBuffers {
		p.state.allocated++
		p.state.Unlock()

		p.misses.Add(1)
		return make([]byte, p.bufferSize)
	}
	p.state.Unlock()

	if n := p.overflows.Add(1); n == 1 || n%overflowLogEvery == 0 {
		logger.Warn("buffer pool exhausted, allocating untracked buffer",
			zap.Int("max_buffers", p.maxBuffers),
			zap.Int("buffer_size", p.bufferSize),
			zap.Int64("overflows", n))
	}
	return make([]byte, p.bufferSize)
}

// Put hands a buffer back to the pool. Buffers whose capacity is below
// BufferSize, or that arrive while the queue is full, are dropped.
func (p *BufferPool) Put(buf []byte) {
	if cap(buf) < p.bufferSize {
		p.discards.Add(1)
		return
	}

	p.state.Lock()
	defer p.state.Unlock()

	n := p.state.available.Length()
	if n >= p.maxBuffers {
		p.discards.Add(1)
		return
	}
	if n >= p.state.allocated {
		// Every tracked buffer is already idle, so this one is a temporary
		// (or foreign); adopt it only while there is tracked capacity.
		if p.state.allocated >= p.maxBuffers {
			p.discards.Add(1)
			return
		}
		p.state.allocated++
	}
	p.state.available.Add(buf[:p.bufferSize])
}

// CleanupUnused halves the idle buffers, always keeping at least one, and
// returns how many were released. The oldest idle buffers go first.
func (p *BufferPool) CleanupUnused() int {
	p.state.Lock()
	defer p.state.Unlock()

	n := p.state.available.Length()
	keep := n / 2
	if keep < 1 {
		keep = 1
	}
	dropped := 0
	for p.state.available.Length() > keep {
		p.state.available.Remove()
		dropped++
	}
	p.state.allocated -= dropped

	if dropped > 0 {
		logger.Debug("buffer pool shrunk",
			zap.Int("released", dropped),
			zap.Int("available", keep),
			zap.Int("allocated", p.state.allocated))
	}
	return dropped
}

// Stats returns the pool's counters.
func (p *BufferPool) Stats() Stats {
	p.state.Lock()
	available := p.state.available.Length()
	allocated := p.state.allocated
	p.state.Unlock()

	return Stats{
		Available:  available,
		Allocated:  allocated,
		MaxBuffers: p.maxBuffers,
		BufferSize: p.bufferSize,
		Uptime:     p.now().Sub(p.created),
		Hits:       p.hits.Load(),
		Misses:     p.misses.Load(),
		Overflows:  p.overflows.Load(),
		Discards:   p.discards.Load(),
	}
}

// BufferSize returns the nominal length of the pool's buffers.
func (p *BufferPool) BufferSize() int {
	return p.bufferSize
}

// Allocated returns the number of tracked buffers.
func (p *BufferPool) Allocated() int {
	p.state.Lock()
	defer p.state.Unlock()
	return p.state.allocated
}
