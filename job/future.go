// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package job

import (
	"runtime"
	"sync"
)

// Future is a ref-counted handle (per Go's GC, simply a shared pointer) to
// the not-yet-written result of a job, consumable by exactly one waiter
// (spec.md §3, §4.7 "Future wait").
type Future[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	ready    bool
	value    T
	spinWait bool
}

func newFuture[T any](spinWait bool) *Future[T] {
	f := &Future[T]{spinWait: spinWait}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *Future[T]) deliver(v T) {
	f.mu.Lock()
	f.value = v
	f.ready = true
	f.mu.Unlock()
	if !f.spinWait {
		f.cond.Broadcast()
	}
}

// Wait blocks until the job's result is available and returns it. By
// default this blocks on a sync.Cond (an OS condvar wait is
// observationally identical to the source's spin-yield loop per spec.md's
// Design Notes); constructing the system with job.WithSpinWait() instead
// restores a literal try-lock-and-yield busy loop.
func (f *Future[T]) Wait() T {
	if f.spinWait {
		for {
			f.mu.Lock()
			ready := f.ready
			v := f.value
			f.mu.Unlock()
			if ready {
				return v
			}
			runtime.Gosched()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.ready {
		f.cond.Wait()
	}
	return f.value
}

// Ready reports whether the job's result has been delivered, without
// blocking.
func (f *Future[T]) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}
