// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package job implements a cooperative job system: a fixed pool of worker
// goroutines, each owning a "queued" and an "active" queue.Ring, swapped
// under one lock per wake so a worker drains a whole batch without holding
// the queue lock while it runs jobs (spec.md §4.7). Go's scheduler already
// multiplexes goroutines onto OS threads, which is the idiomatic
// replacement for the source's OS-thread worker pool; the worker-selection
// and future-delivery logic is otherwise a direct port of spec.md's rules.
package job

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/corebase-go/corebase/queue"
)

// acquireCtx is the context used for the backpressure semaphore's blocking
// Acquire. RunJob's blocking wait has no deadline or cancellation in
// spec.md's model (no job cancellation, no timeouts), so a background
// context is always correct here.
var acquireCtx = context.Background()

// ErrSystemShutdown is returned by RunJob when called after System.Shutdown
// has begun.
var ErrSystemShutdown = errors.New("job: system is shutting down")

type task struct {
	run func()
}

// worker owns the two rings spec.md §4.7 describes: jobs land in queued,
// and on wake the entire contents are swapped into active so the worker
// can drain without holding the lock that protects queued.
type worker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queued  *queue.Ring[task]
	active  *queue.Ring[task]
	running bool // is_executing
	killed  bool
}

func newWorker(ringCapacity int) *worker {
	w := &worker{
		queued: queue.New[task](ringCapacity),
		active: queue.New[task](ringCapacity),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// queueLen reports the worker's current backlog (queued + active), used by
// the optimal-thread selector.
func (w *worker) queueLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queued.Len() + w.active.Len()
}

func (w *worker) idleAndEmpty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.running && w.queued.Len() == 0 && w.active.Len() == 0
}

// enqueue pushes t onto the worker's queued ring and wakes it, returning
// false if the ring is momentarily full (the caller falls back to
// semaphore-gated backpressure in that case).
func (w *worker) enqueue(t task) bool {
	w.mu.Lock()
	ok := w.queued.Push(t)
	w.mu.Unlock()
	if ok {
		w.cond.Signal()
	}
	return ok
}

func (w *worker) run(onJobDone func()) {
	for {
		w.mu.Lock()
		for w.queued.Len() == 0 && !w.killed {
			w.cond.Wait()
		}
		if w.killed && w.queued.Len() == 0 {
			w.mu.Unlock()
			return
		}
		w.queued.Swap(w.active)
		w.running = true
		w.mu.Unlock()

		for {
			t, ok := w.active.Pop()
			if !ok {
				break
			}
			t.run()
			onJobDone()
		}

		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}
}

func (w *worker) shutdown() {
	w.mu.Lock()
	w.killed = true
	w.mu.Unlock()
	w.cond.Signal()
}

// System owns a fixed pool of worker goroutines and dispatches jobs onto
// them via RunJob.
type System struct {
	workers  []*worker
	next     atomic.Uint32
	sem      *semaphore.Weighted
	closing  atomic.Bool
	spinWait bool
	wg       sync.WaitGroup
}

// Option configures a new System.
type Option func(*systemOptions)

type systemOptions struct {
	ringCapacity int
	spinWait     bool
}

// WithRingCapacity overrides each worker's queued/active ring capacity
// (default queue.DefaultCapacity).
func WithRingCapacity(n int) Option {
	return func(o *systemOptions) { o.ringCapacity = n }
}

// WithSpinWait makes every Future[T] returned by this system spin-yield on
// Wait instead of blocking on a sync.Cond, restoring the source's literal
// busy-wait behavior for callers sensitive to condvar wakeup jitter
// (SPEC_FULL.md §3.9 / DESIGN.md's Future.Wait resolution).
func WithSpinWait() Option {
	return func(o *systemOptions) { o.spinWait = true }
}

// NewSystem constructs a job system with n worker goroutines.
func NewSystem(n int, opts ...Option) *System {
	if n <= 0 {
		n = 1
	}
	o := systemOptions{ringCapacity: queue.DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	s := &System{
		workers:  make([]*worker, n),
		sem:      semaphore.NewWeighted(int64(n) * int64(o.ringCapacity)),
		spinWait: o.spinWait,
	}
	for i := range s.workers {
		s.workers[i] = newWorker(o.ringCapacity)
	}
	for _, w := range s.workers {
		s.wg.Add(1)
		go func(w *worker) {
			defer s.wg.Done()
			w.run(func() { s.sem.Release(1) })
		}(w)
	}
	return s
}

// selectWorker implements spec.md §4.7's optimal-thread rule: the first
// idle-and-empty worker wins; otherwise the worker with the smallest
// backlog; ties broken by round-robin starting one past the last choice.
func (s *System) selectWorker() int {
	for i, w := range s.workers {
		if w.idleAndEmpty() {
			return i
		}
	}
	start := int(s.next.Load())
	best := start % len(s.workers)
	bestLen := s.workers[best].queueLen()
	for i := 1; i < len(s.workers); i++ {
		idx := (start + i) % len(s.workers)
		l := s.workers[idx].queueLen()
		if l < bestLen {
			best, bestLen = idx, l
		}
	}
	s.next.Store(uint32((best + 1) % len(s.workers)))
	return best
}

// RunJob schedules fn to run on whichever worker selectWorker picks,
// returning a Future the caller can Wait on for fn's result. If every
// worker's ring is simultaneously full, RunJob blocks on a semaphore sized
// to the system's total ring capacity rather than spinning -- the one
// admission-control addition spec.md does not specify (see the package's
// Open Question resolution in the project's grounding ledger).
func RunJob[T any](s *System, fn func() T) (*Future[T], error) {
	if s.closing.Load() {
		return nil, ErrSystemShutdown
	}
	future := newFuture[T](s.spinWait)
	t := task{run: func() {
		future.deliver(fn())
	}}

	// Fast path: try to claim one of the system's admission tokens without
	// blocking. If every worker's ring is simultaneously full, the token
	// pool itself is exhausted and TryAcquire fails, so we fall through to
	// a blocking Acquire rather than spin.
	if s.sem.TryAcquire(1) {
		idx := s.selectWorker()
		if s.workers[idx].enqueue(t) {
			return future, nil
		}
		// Lost the race against another producer filling that worker's
		// ring between selection and enqueue; release the token and fall
		// back to the blocking path below.
		s.sem.Release(1)
	}

	if err := s.sem.Acquire(acquireCtx, 1); err != nil {
		return nil, errors.Wrap(err, "job: backpressure semaphore acquire failed")
	}
	for {
		idx := s.selectWorker()
		if s.workers[idx].enqueue(t) {
			return future, nil
		}
		s.sem.Release(1)
		if err := s.sem.Acquire(acquireCtx, 1); err != nil {
			return nil, errors.Wrap(err, "job: backpressure semaphore acquire failed")
		}
	}
}

// Shutdown waits for every worker to become idle, then signals each
// worker's kill flag; workers observe it on their next wake and return
// (spec.md §4.7, §5 "Shutdown"). Shutdown blocks until all workers have
// exited.
func (s *System) Shutdown() {
	s.closing.Store(true)
	for _, w := range s.workers {
		for {
			w.mu.Lock()
			idle := !w.running && w.queued.Len() == 0
			w.mu.Unlock()
			if idle {
				break
			}
		}
	}
	for _, w := range s.workers {
		w.shutdown()
	}
	s.wg.Wait()
}
