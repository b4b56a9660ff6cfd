// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// freeBlock is a node in a size class's free list. Each node is a small,
// separate Go allocation that records the freed block's region; the link is
// not stored inside the freed block itself.
type freeBlock struct {
	next   *freeBlock
	region []byte
}

// ArenaAllocator is a bump-pointer allocator over a single fixed-size
// backing region, with a size-classed free list for reuse, adapted from
// mcentral.go's "two lists: spans with free objects, spans fully
// allocated" shape and SeleniaProject/Orizon's region_alloc.go region
// header/free-list design. Unlike mcentral.go, there is no sweep phase: Go
// has no GC-driven span sweeping at this layer, so ArenaAllocator just
// bump-allocates from the region until it is exhausted, then returns
// ErrOutOfMemory rather than growing (callers that need unbounded growth
// should use Heap() instead; ArenaAllocator exists for callers that want a
// single contiguous, bounded-lifetime region backing their containers).
//
// ArenaAllocator tracks its reference count: corebase containers that are
// handed a Ref to an arena must not let every Ref drop while the region is
// still needed, which Ref.Release's refcounting makes observable in tests.
type ArenaAllocator struct {
	mu        sync.Mutex
	region    []byte
	offset    uintptr
	freeLists map[uintptr]*freeBlock
	refCount  int32
}

// NewArena allocates a single region of the given size up front and
// returns an allocator bump-allocating from it.
func NewArena(size uintptr) *ArenaAllocator {
	return &ArenaAllocator{
		region:    make([]byte, size),
		freeLists: make(map[uintptr]*freeBlock),
	}
}

// Alloc returns size bytes aligned to align from the region, preferring a
// reused block from the matching size class's free list before bumping the
// pointer.
func (a *ArenaAllocator) Alloc(size, align uintptr) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	class := sizeClassFor(size)
	if class == 0 {
		return nil, errors.Wrapf(ErrOutOfMemory, "arena: request %d exceeds largest size class", size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if fb := a.freeLists[class]; fb != nil {
		base := uintptr(unsafe.Pointer(&fb.region[0]))
		if base&(align-1) == 0 {
			a.freeLists[class] = fb.next
			return fb.region[:size:class], nil
		}
		// Misaligned reuse candidate for this alignment: skip the free
		// list and fall through to a fresh bump allocation rather than
		// walking the list, keeping the common case O(1).
	}

	start := roundUp(a.offset, align)
	end := start + class
	if end > uintptr(len(a.region)) {
		return nil, errors.Wrapf(ErrOutOfMemory, "arena: region exhausted (need %d, have %d free)", class, uintptr(len(a.region))-a.offset)
	}
	a.offset = end
	return a.region[start : start+size : end], nil
}

// AllocN implements Typed.
func (a *ArenaAllocator) AllocN(n int, elemSize, align uintptr) ([]byte, error) {
	return a.Alloc(uintptr(n)*elemSize, align)
}

// Free returns a block to its size class's free list for reuse by a later
// Alloc of the same class. It does not shrink the region.
func (a *ArenaAllocator) Free(p unsafe.Pointer, size, _ uintptr) {
	if p == nil || size == 0 {
		return
	}
	class := sizeClassFor(size)
	if class == 0 {
		return
	}
	region := unsafe.Slice((*byte)(p), class)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.freeLists[class] = &freeBlock{next: a.freeLists[class], region: region}
}

// TracksRefCount always reports true: an arena's backing region must
// outlive every Ref pointing into it.
func (a *ArenaAllocator) TracksRefCount() bool { return true }

func (a *ArenaAllocator) IncRef() { atomic.AddInt32(&a.refCount, 1) }

func (a *ArenaAllocator) DecRef() { atomic.AddInt32(&a.refCount, -1) }

// RefCount reports the current reference count, for tests and diagnostics.
func (a *ArenaAllocator) RefCount() int32 { return atomic.LoadInt32(&a.refCount) }

// Used reports the number of bytes bump-allocated so far (not counting
// reuse from the free list).
func (a *ArenaAllocator) Used() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}
