// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package varray implements Array[T], a growable sequence whose backing
// buffer is owned by an alloc.Ref rather than the Go runtime's slice
// growth, so the same allocator that serves the hash map and string
// registry also serves this container's growth decisions. The layout is
// grounded on the retrieval pack's own raw-slice ring buffers
// (spatial.LockFreeQueue's "data []T, mask uint64" shape), generalised from
// a fixed-capacity ring to a doubling growable buffer.
package varray

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/corebase-go/corebase/alloc"
	"github.com/corebase-go/corebase/simd"
)

// Array is a growable sequence of T, backed by memory obtained through ref.
// It is not safe for concurrent use without external synchronization, the
// same contract as a Go slice.
type Array[T any] struct {
	ref  alloc.Ref
	data []T // len(data) == cap; the live prefix is data[:length]
	length int
}

// Option configures a new Array.
type Option func(*options)

type options struct {
	initialCap int
}

// WithInitialCapacity pre-reserves n elements of capacity.
func WithInitialCapacity(n int) Option {
	return func(o *options) { o.initialCap = n }
}

// New constructs an empty Array backed by ref.
func New[T any](ref alloc.Ref, opts ...Option) *Array[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	a := &Array[T]{ref: ref}
	if o.initialCap > 0 {
		if err := a.ReserveExact(o.initialCap); err != nil {
			panic(err)
		}
	}
	return a
}

// Len returns the number of live elements.
func (a *Array[T]) Len() int { return a.length }

// Cap returns the current backing capacity.
func (a *Array[T]) Cap() int { return len(a.data) }

// elemAlign returns the alignment to request from the allocator: 64 bytes
// for trivially vectorisable element widths so simd kernels can assume
// cache-line-aligned chunks, the element's natural alignment otherwise
// (spec.md §4.3's "rounded up to SIMD alignment for trivial T").
func elemAlign[T any]() uintptr {
	var zero T
	size := unsafe.Sizeof(zero)
	switch size {
	case 1, 2, 4, 8:
		return 64
	default:
		return unsafe.Alignof(zero)
	}
}

// growTo reallocates the backing buffer to hold exactly newCap elements.
// For a pointer-free T the buffer comes from a.ref (an allocator-owned
// []byte reinterpreted via unsafe.Slice); for any T that might hold a
// pointer (alloc.HasPointers), the buffer is an ordinary make([]T, newCap)
// instead, so the garbage collector can trace through it. Mixing the two
// is the GC-safety bug the allocator-backed path exists to avoid: a noscan
// []byte allocation reinterpreted as, say, []string would let the GC
// collect a stored string's backing array while the Array still held what
// it thought was a live reference to it.
func (a *Array[T]) growTo(newCap int) error {
	if alloc.HasPointers[T]() {
		newData := make([]T, newCap)
		copy(newData, a.data[:a.length])
		a.data = newData
		return nil
	}
	var zero T
	elemSize := unsafe.Sizeof(zero)
	buf, err := a.ref.Alloc(uintptr(newCap)*elemSize, elemAlign[T]())
	if err != nil {
		return errors.Wrap(err, "varray: grow allocation failed")
	}
	newData := unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), newCap)
	copy(newData, a.data[:a.length])
	if a.data != nil {
		var oldZero T
		oldSize := unsafe.Sizeof(oldZero)
		a.ref.Free(unsafe.Pointer(&a.data[0]), uintptr(cap(a.data))*oldSize, elemAlign[T]())
	}
	a.data = newData
	return nil
}

// Reserve ensures at least n additional elements of spare capacity, growing
// by doubling if needed.
func (a *Array[T]) Reserve(n int) error {
	need := a.length + n
	if need <= len(a.data) {
		return nil
	}
	newCap := len(a.data)
	for newCap < need {
		newCap = (newCap + 1) * 2
	}
	return a.growTo(newCap)
}

// ReserveExact ensures the backing buffer holds exactly n elements of
// capacity (never shrinking), with no extra doubling slack.
func (a *Array[T]) ReserveExact(n int) error {
	if n <= len(a.data) {
		return nil
	}
	return a.growTo(n)
}

// Shrink releases unused trailing capacity, reallocating to exactly Len().
func (a *Array[T]) Shrink() error {
	if a.length == len(a.data) {
		return nil
	}
	if a.length == 0 {
		if a.data != nil && !alloc.HasPointers[T]() {
			var zero T
			a.ref.Free(unsafe.Pointer(&a.data[0]), uintptr(cap(a.data))*unsafe.Sizeof(zero), elemAlign[T]())
		}
		a.data = nil
		return nil
	}
	return a.growTo(a.length)
}

// Push appends v, growing the backing buffer by (cap+1)*2 if full.
func (a *Array[T]) Push(v T) error {
	if a.length == len(a.data) {
		if err := a.Reserve(1); err != nil {
			return err
		}
	}
	a.data[a.length] = v
	a.length++
	return nil
}

// PushUnchecked appends v, treating an allocation failure as fatal rather
// than returning an error (spec.md §4.3: "the simple variants treat OOM as
// fatal").
func (a *Array[T]) PushUnchecked(v T) {
	if err := a.Push(v); err != nil {
		panic(err)
	}
}

// Pop removes and returns the last element, or the zero value and false if
// the array is empty.
func (a *Array[T]) Pop() (T, bool) {
	var zero T
	if a.length == 0 {
		return zero, false
	}
	a.length--
	v := a.data[a.length]
	a.data[a.length] = zero
	return v, true
}

// Get returns the element at index i.
func (a *Array[T]) Get(i int) T {
	if i < 0 || i >= a.length {
		panic("varray: index out of range")
	}
	return a.data[i]
}

// Set overwrites the element at index i.
func (a *Array[T]) Set(i int, v T) {
	if i < 0 || i >= a.length {
		panic("varray: index out of range")
	}
	a.data[i] = v
}

// Insert shifts [i, len) up by one and writes v at i, order preserving.
func (a *Array[T]) Insert(i int, v T) error {
	if i < 0 || i > a.length {
		panic("varray: index out of range")
	}
	if a.length == len(a.data) {
		if err := a.Reserve(1); err != nil {
			return err
		}
	}
	copy(a.data[i+1:a.length+1], a.data[i:a.length])
	a.data[i] = v
	a.length++
	return nil
}

// InsertSwap moves the element currently at i to the end and writes v at i,
// not order preserving but avoiding the shift Insert performs.
func (a *Array[T]) InsertSwap(i int, v T) error {
	if i < 0 || i > a.length {
		panic("varray: index out of range")
	}
	if i == a.length {
		return a.Push(v)
	}
	displaced := a.data[i]
	if err := a.Push(displaced); err != nil {
		return err
	}
	a.data[i] = v
	return nil
}

// Remove shifts [i+1, len) down by one and returns the removed value,
// order preserving, O(len-i).
func (a *Array[T]) Remove(i int) T {
	if i < 0 || i >= a.length {
		panic("varray: index out of range")
	}
	v := a.data[i]
	copy(a.data[i:a.length-1], a.data[i+1:a.length])
	var zero T
	a.length--
	a.data[a.length] = zero
	return v
}

// SwapRemove moves the last element into slot i and returns the removed
// value, unordered but O(1).
func (a *Array[T]) SwapRemove(i int) T {
	if i < 0 || i >= a.length {
		panic("varray: index out of range")
	}
	v := a.data[i]
	last := a.length - 1
	a.data[i] = a.data[last]
	var zero T
	a.data[last] = zero
	a.length--
	return v
}

// Clear empties the array without releasing its backing capacity.
func (a *Array[T]) Clear() {
	var zero T
	for i := 0; i < a.length; i++ {
		a.data[i] = zero
	}
	a.length = 0
}

// nextPowerOfTwo rounds n up to the next power of two (n itself if already
// one), per spec.md §4.3's bulk-append growth rule.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// AppendSlice appends every element of s, growing to next_power_of_two(len
// + len(s)) if the current buffer cannot hold them.
func (a *Array[T]) AppendSlice(s []T) error {
	need := a.length + len(s)
	if need > len(a.data) {
		if err := a.growTo(nextPowerOfTwo(need)); err != nil {
			return err
		}
	}
	copy(a.data[a.length:need], s)
	a.length = need
	return nil
}

// AppendArray appends every live element of other.
func (a *Array[T]) AppendArray(other *Array[T]) error {
	return a.AppendSlice(other.data[:other.length])
}

// Close releases the backing buffer back to the allocator. An Array backed
// by the Heap allocator never needs this (the garbage collector reclaims
// it), but an Array over an ArenaAllocator or TestingAllocator must call
// Close so its Ref's refcount bookkeeping balances. A pointer-containing T
// (alloc.HasPointers) was never handed to the allocator in the first place
// (see growTo), so Close has nothing to free back to ref for it -- the
// ordinary GC reclaims the make()'d buffer on its own.
func (a *Array[T]) Close() {
	if a.data != nil && !alloc.HasPointers[T]() {
		var zero T
		a.ref.Free(unsafe.Pointer(&a.data[0]), uintptr(cap(a.data))*unsafe.Sizeof(zero), elemAlign[T]())
	}
	a.data = nil
	a.length = 0
	a.ref.Release()
}

// Iter returns a range-over-func iterator pair of (index, value), the
// idiomatic Go 1.23+ replacement for spec.md's C++-style iterator pair.
func (a *Array[T]) Iter() func(yield func(int, T) bool) {
	return func(yield func(int, T) bool) {
		for i := 0; i < a.length; i++ {
			if !yield(i, a.data[i]) {
				return
			}
		}
	}
}
