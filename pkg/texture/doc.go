// Package texture caches GPU texture handles keyed by their descriptor.
//
// The cache holds a fixed number of slots and scans them linearly; at the
// slot counts a render loop uses (around ten) a scan is cheaper than any
// index. Eviction picks the slot with the smallest usage counter, ties going
// to the slot scanned first. CleanupUnused ages every counter so only
// textures requested again between cleanups survive.
//
// A Cache is owned by a single goroutine, normally the render loop, and does
// no locking of its own.
package texture
