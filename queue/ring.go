// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package queue implements Ring[T], a fixed-capacity single-producer
// single-consumer ring buffer. Layout and the cache-line padding between
// the read/write cursors are grounded on the retrieval pack's own
// disruptor-style buffers: spatial.LockFreeQueue's head/tail/mask split and
// the order-matching-engine's ring_buffer.go padding discipline, both
// documented as defending against false sharing between the producer and
// consumer goroutines pounding adjacent cursors.
package queue

import "sync/atomic"

// DefaultCapacity is the ring's default slot count (spec.md §3: the job
// system's per-worker queued/active rings default to this size).
const DefaultCapacity = 8192

const cacheLineSize = 64

type padding [cacheLineSize]byte

// Ring is a fixed-capacity SPSC queue. Exactly one goroutine may call Push,
// and exactly one (possibly different) goroutine may call Pop;
// synchronization beyond that single-producer/single-consumer contract is
// the caller's responsibility.
type Ring[T any] struct {
	_ padding

	writeIdx atomic.Uint32
	_        padding

	readIdx atomic.Uint32
	_       padding

	mask uint32
	buf  []T
}

// New constructs a Ring with room for at least capacity elements, rounded
// up to the next power of two so index wraparound can use a bitmask
// instead of a modulo.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	n := nextPow2(capacity)
	return &Ring[T]{
		mask: uint32(n - 1),
		buf:  make([]T, n),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the ring's slot capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Len returns the number of currently queued elements.
func (r *Ring[T]) Len() int {
	return int(r.writeIdx.Load() - r.readIdx.Load())
}

// Push enqueues v, returning false if the ring is full.
func (r *Ring[T]) Push(v T) bool {
	write := r.writeIdx.Load()
	read := r.readIdx.Load()
	if write-read > r.mask {
		return false
	}
	r.buf[write&r.mask] = v
	r.writeIdx.Store(write + 1)
	return true
}

// Pop dequeues the oldest element, returning false if the ring is empty.
func (r *Ring[T]) Pop() (T, bool) {
	read := r.readIdx.Load()
	write := r.writeIdx.Load()
	if read == write {
		var zero T
		return zero, false
	}
	v := r.buf[read&r.mask]
	var zero T
	r.buf[read&r.mask] = zero
	r.readIdx.Store(read + 1)
	return v, true
}

// Swap exchanges the entire contents of r with other in O(1), used by the
// job system's worker loop to move a "queued" ring into the "active" ring
// under a single lock without copying elements (spec.md §4.7).
func (r *Ring[T]) Swap(other *Ring[T]) {
	r.buf, other.buf = other.buf, r.buf
	r.mask, other.mask = other.mask, r.mask
	rWrite, rRead := r.writeIdx.Load(), r.readIdx.Load()
	oWrite, oRead := other.writeIdx.Load(), other.readIdx.Load()
	r.writeIdx.Store(oWrite)
	r.readIdx.Store(oRead)
	other.writeIdx.Store(rWrite)
	other.readIdx.Store(rRead)
}
