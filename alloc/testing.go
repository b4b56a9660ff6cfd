// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/corebase-go/corebase/corebaselog"
)

// liveBlock records the size/align an allocation was made with, spec.md
// §4.1's "records every live allocation in a map of pointer -> {size,
// align}".
type liveBlock struct {
	size, align uintptr
}

// TestingAllocator wraps HeapAllocator (for the actual bytes) with
// bookkeeping that makes double-frees, foreign-pointer frees, and leaks
// into loud, synchronous failures instead of silent corruption. spec.md
// §4.1, §8 "Allocator round-trip".
//
// Go has no destructors, so there is no implicit "on scope exit" moment to
// hook a leak check into; callers must call Close (or use
// NewTestingAllocatorT, which registers Close as a test cleanup) at the end
// of the allocator's intended lifetime.
type TestingAllocator struct {
	backing HeapAllocator

	mu    sync.Mutex
	live  map[unsafe.Pointer]liveBlock
	freed map[unsafe.Pointer]struct{}

	refCount int32
	fatalf   func(format string, args ...any)
}

// NewTestingAllocator returns an allocator that records every live
// allocation and reports leaks, double-frees, and foreign-pointer frees by
// logging at Fatal level (which terminates the process), matching spec.md
// §7 item 4's "logic error... fatal assertion".
func NewTestingAllocator() *TestingAllocator {
	a := &TestingAllocator{
		live:  make(map[unsafe.Pointer]liveBlock),
		freed: make(map[unsafe.Pointer]struct{}),
	}
	a.fatalf = func(format string, args ...any) {
		corebaselog.Logger().Fatal().Msg(fmt.Sprintf(format, args...))
	}
	return a
}

// testingT is the subset of *testing.T NewTestingAllocatorT needs. Defined
// locally so alloc does not import the testing package from non-test code.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Cleanup(func())
}

// NewTestingAllocatorT returns a TestingAllocator whose fatal checks fail t
// instead of terminating the process, and registers a leak check to run
// automatically via t.Cleanup. This is the allocator corebase's own tests
// use everywhere spec.md calls for "a testing allocator".
func NewTestingAllocatorT(t testingT) *TestingAllocator {
	a := &TestingAllocator{
		live:  make(map[unsafe.Pointer]liveBlock),
		freed: make(map[unsafe.Pointer]struct{}),
	}
	a.fatalf = func(format string, args ...any) {
		t.Helper()
		t.Fatalf(format, args...)
	}
	t.Cleanup(func() {
		a.Close()
	})
	return a
}

// Alloc allocates size bytes aligned to align via the backing heap
// allocator and records the resulting pointer as live.
func (a *TestingAllocator) Alloc(size, align uintptr) ([]byte, error) {
	buf, err := a.backing.Alloc(size, align)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return buf, nil
	}
	p := unsafe.Pointer(&buf[0])

	a.mu.Lock()
	defer a.mu.Unlock()
	a.live[p] = liveBlock{size: size, align: align}
	delete(a.freed, p)
	return buf, nil
}

// AllocN implements Typed.
func (a *TestingAllocator) AllocN(n int, elemSize, align uintptr) ([]byte, error) {
	return a.Alloc(uintptr(n)*elemSize, align)
}

// Free validates p against the live/freed bookkeeping before releasing it:
// freeing an already-freed pointer (double free) or a pointer this
// allocator never handed out (foreign-pointer free) is fatal, per spec.md
// §4.1 and §8 "For a testing allocator, leaks and double-frees raise the
// documented fatal error."
func (a *TestingAllocator) Free(p unsafe.Pointer, size, align uintptr) {
	if p == nil {
		return
	}

	a.mu.Lock()
	if _, alreadyFreed := a.freed[p]; alreadyFreed {
		a.mu.Unlock()
		a.fatalf("alloc: double free of pointer %p", p)
		return
	}
	block, ok := a.live[p]
	if !ok {
		a.mu.Unlock()
		a.fatalf("alloc: free of pointer %p not tracked by this allocator", p)
		return
	}
	if block.size != size || block.align != align {
		a.mu.Unlock()
		a.fatalf("alloc: free of %p with size/align %d/%d, allocated with %d/%d", p, size, align, block.size, block.align)
		return
	}
	delete(a.live, p)
	a.freed[p] = struct{}{}
	a.mu.Unlock()

	a.backing.Free(p, size, align)
}

// TracksRefCount always reports true for a testing allocator: tests that
// hold a Ref to it want refcount-underflow bugs caught.
func (a *TestingAllocator) TracksRefCount() bool { return true }

func (a *TestingAllocator) IncRef() { atomic.AddInt32(&a.refCount, 1) }

func (a *TestingAllocator) DecRef() {
	if atomic.AddInt32(&a.refCount, -1) < 0 {
		a.fatalf("alloc: refcount underflow on testing allocator")
	}
}

// LiveCount returns the number of allocations not yet freed.
func (a *TestingAllocator) LiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Close reports any outstanding leaks or a dangling refcount as a fatal
// failure. Call it (or use NewTestingAllocatorT, which calls it for you)
// once every container using this allocator has gone out of scope.
func (a *TestingAllocator) Close() {
	a.mu.Lock()
	leaked := len(a.live)
	a.mu.Unlock()

	if leaked > 0 {
		a.fatalf("alloc: %d allocation(s) leaked", leaked)
	}
	if rc := atomic.LoadInt32(&a.refCount); rc != 0 {
		a.fatalf("alloc: dangling allocator handle, refcount = %d", rc)
	}
}
