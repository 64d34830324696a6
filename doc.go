// Package lumen recycles the transient resources of a render loop and watches
// how the loop performs.
//
// A render loop stages pixel data through fixed-size byte buffers, uploads it
// into textures and presents a frame. Lumen keeps both kinds of resource in
// bounded pools, samples process memory looking for leaks, and tracks frame
// rate, frame time and process CPU and memory against configurable limits.
//
// # Architecture
//
// Every component is owned by the render goroutine except the buffer pool,
// which may be shared:
//
//  1. pool.BufferPool hands out zeroed fixed-size buffers and caps how many it
//     tracks; exhaustion falls back to untracked allocations.
//
//  2. texture.Cache keeps a fixed number of texture slots keyed by descriptor
//     and evicts the least used one on a miss.
//
//  3. memory.Sampler records memory at most once per interval and flags a
//     sustained three-sample increase.
//
//  4. performance.Tracker estimates frames per second over a sliding window,
//     caches CPU and memory readings, and raises one alert per frame.
//
// internal/governor ties them together: it records every frame, frees pooled
// resources when an alert is critical, and reports alerts off the render
// goroutine through a lock-free mailbox.
//
// # Quick Start
//
//	bufferPool := pool.NewBufferPool(1920*1080*4, 2, 8)
//	cache := texture.NewCache(device, 10, 5*time.Second)
//	tracker := performance.NewTracker(performance.DefaultConfig())
//
//	for frame := range frames {
//	    timer := metrics.NewTimer("render")
//	    staging := bufferPool.Get()
//	    upload(cache.GetOrCreate(frame.Descriptor), staging)
//	    bufferPool.Put(staging)
//	    if a := tracker.RecordFrame(frame.Elapsed, timer.Stop()); a != nil {
//	        logger.Warn(a.String(), alert.Fields(a)...)
//	    }
//	}
//
// # Key Packages
//
//	pkg/pool          - Fixed-size byte buffer pool
//	pkg/texture       - Texture descriptors, devices and the usage-counted cache
//	pkg/memory        - Memory sampler with leak detection
//	pkg/performance   - Frame tracker, thresholds and process probes
//	pkg/alert         - Alert variants and severity
//	pkg/config        - YAML configuration with env substitution and hot reload
//	pkg/export        - Compressed JSON export of frame history
//	pkg/metrics       - Prometheus collectors
//	pkg/observability - OpenTelemetry tracing
//	pkg/logger        - Structured logging
//	pkg/errors        - Structured error handling
//
// The lumen command in cmd/lumen drives a synthetic render loop through all of
// the above; see "lumen simulate --help".
package lumen
