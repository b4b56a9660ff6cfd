// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alloc provides the allocator abstraction every heap-owning
// corebase container is parameterised over, plus a ref-counted handle to
// one.
//
// Allocation works in a small hierarchy, the same shape as a tiered
// malloc: a request first tries the fastest allocator a container was
// handed (typically the process-wide Heap allocator, which just defers to
// the Go runtime); callers who want tighter control over locality or who
// want to make allocation failure observable instead of fatal can instead
// construct an ArenaAllocator over a fixed-size region, or a
// TestingAllocator that records every live allocation so leaks and
// double-frees are caught in tests rather than surfacing as corruption
// later.
package alloc

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrOutOfMemory is returned by Allocator.Alloc when the allocator cannot
// satisfy a request. It is always recoverable: callers may retry with a
// smaller request, free other memory, or propagate the error.
var ErrOutOfMemory = errors.New("alloc: out of memory")

// Allocator is the capability set every corebase container depends on.
// Implementations must be safe for concurrent use; a container holding a
// Ref to one never assumes single-threaded access to the allocator itself.
type Allocator interface {
	// Alloc returns size bytes aligned to align, or ErrOutOfMemory.
	// align must be a power of two.
	Alloc(size, align uintptr) ([]byte, error)

	// Free releases a block previously returned by Alloc with the exact
	// same size and align. Freeing a block that was not returned by this
	// allocator, or freeing the same block twice, is a logic error
	// (fatal in TestingAllocator, undefined in HeapAllocator/ArenaAllocator
	// per spec.md's "release-build preconditions hold" clause).
	Free(p unsafe.Pointer, size, align uintptr)

	// TracksRefCount reports whether Ref must increment/decrement this
	// allocator's reference count across copies. The process-wide Heap
	// allocator does not track; a TestingAllocator or ArenaAllocator does,
	// so a caller cannot let the arena's backing store be reclaimed while a
	// Ref to it is still held somewhere.
	TracksRefCount() bool

	// IncRef and DecRef are only called when TracksRefCount is true.
	IncRef()
	DecRef()
}

// Typed is implemented by allocators that want a faster path for
// fixed-size, fixed-alignment element allocation (used by varray and
// hashmap group storage). It is optional: AllocN falls back to Alloc when
// an Allocator does not implement Typed.
type Typed interface {
	Allocator

	// AllocN allocates n contiguous elements of size elemSize each,
	// aligned to align.
	AllocN(n int, elemSize, align uintptr) ([]byte, error)
}

// AllocN allocates n*elemSize bytes aligned to align, preferring a's Typed
// fast path when available.
func AllocN(a Allocator, n int, elemSize, align uintptr) ([]byte, error) {
	if t, ok := a.(Typed); ok {
		return t.AllocN(n, elemSize, align)
	}
	return a.Alloc(uintptr(n)*elemSize, align)
}

// Ref is a copyable handle to an Allocator. It is the safe two-field
// replacement for the tagged-pointer word spec.md describes (a single
// 64-bit word with the tracking flag stolen from the high bits of the
// allocator pointer): spec.md's own Design Notes prefer this representation
// in a language with a real sum type, reserving the packed word for when
// profiling proves it necessary. A Ref is itself a value type; corebase
// never stores a *Ref.
type Ref struct {
	allocator Allocator
	tracked   bool
	released  int32 // atomic guard: Release is idempotent
}

// NewRef wraps a as a Ref, incrementing a's refcount if a tracks one.
func NewRef(a Allocator) Ref {
	tracked := a != nil && a.TracksRefCount()
	if tracked {
		a.IncRef()
	}
	return Ref{allocator: a, tracked: tracked}
}

// Clone returns a new handle to the same allocator, incrementing the
// refcount again if tracked. This is corebase's equivalent of the source's
// "copy increments refcount if tracked".
func (r Ref) Clone() Ref {
	if r.tracked {
		r.allocator.IncRef()
	}
	return Ref{allocator: r.allocator, tracked: r.tracked}
}

// Release decrements the refcount if tracked. It is idempotent per Ref
// value: a second call on the same Ref does nothing, guarded by an atomic
// CAS so a Ref accidentally released from two goroutines cannot
// double-decrement. The guard is copied along with the Ref, so two plain
// copies of an unreleased Ref each decrement once when released.
func (r *Ref) Release() {
	if !r.tracked {
		return
	}
	if atomic.CompareAndSwapInt32(&r.released, 0, 1) {
		r.allocator.DecRef()
	}
}

// Allocator returns the wrapped allocator. Never nil for a Ref constructed
// via NewRef with a non-nil allocator.
func (r Ref) Allocator() Allocator { return r.allocator }

// IsNil reports whether this Ref wraps no allocator, spec.md's "a null ref
// is zero".
func (r Ref) IsNil() bool { return r.allocator == nil }

// Alloc delegates to the wrapped allocator.
func (r Ref) Alloc(size, align uintptr) ([]byte, error) {
	return r.allocator.Alloc(size, align)
}

// Free delegates to the wrapped allocator.
func (r Ref) Free(p unsafe.Pointer, size, align uintptr) {
	r.allocator.Free(p, size, align)
}
