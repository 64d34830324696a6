// Package pool implements the bounded byte-buffer pool used on lumen's
// per-frame hot path for pixel-format staging.
//
// # Architecture
//
// A BufferPool hands out fixed-size byte slices. Available buffers wait in a
// FIFO queue; an allocated counter tracks how many buffers the pool has ever
// created and still considers its own. Both live behind a single mutex so the
// two invariants hold together:
//
//   - allocated <= maxBuffers
//   - available <= allocated
//
// # Overflow
//
// When the queue is empty and the pool is at capacity, Get allocates an
// untracked temporary instead of failing or blocking. Temporaries are ordinary
// slices: the garbage collector reclaims them if they are never returned, and
// Put adopts them if there is room.
//
// Usage Patterns
//
//	staging := pool.NewBufferPool(width*height*4, 2, 4)
//
//	buf := staging.Get()
//	convertBGRAToRGBA(frame, buf)
//	upload(buf)
//	staging.Put(buf)
//
// Under memory pressure the owner calls CleanupUnused to halve the idle
// buffers. Stats is cheap and safe to call from a monitoring goroutine.
//
// # Thread Safety
//
// Every method is safe for concurrent use. Critical sections are O(1) except
// CleanupUnused, which is linear in the number of idle buffers.
package pool
