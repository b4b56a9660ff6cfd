// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package varray

import (
	"unsafe"

	"github.com/corebase-go/corebase/simd"
)

// Find returns the index of the first element equal to v, and whether one
// was found. Trivial fixed-width element kinds (1/2/4/8-byte integers) are
// reinterpreted as raw byte/word slices and handed to simd.FindElem*
// (FindElem8 goes through simd.FindByte; the 2/4/8-byte kernels are scalar
// loops); every other element type falls back to a linear scalar scan
// (spec.md §4.3).
func (a *Array[T]) Find(v T) (int, bool) {
	if idx, ok := findTrivial(a.data[:a.length], v); ok {
		return idx, idx >= 0
	}
	for i := 0; i < a.length; i++ {
		if any(a.data[i]) == any(v) {
			return i, true
		}
	}
	return -1, false
}

// findTrivial attempts the fast path for element kinds simd exposes a
// dedicated width-specific kernel for. The second return value reports
// whether the fast path applies at all; callers must fall back to the
// scalar scan when it is false.
func findTrivial[T any](data []T, needle T) (int, bool) {
	switch any(needle).(type) {
	case uint8:
		d := *(*[]uint8)(unsafe.Pointer(&data))
		n := *(*uint8)(unsafe.Pointer(&needle))
		return simd.FindElem8(d, n), true
	case int8:
		d := *(*[]uint8)(unsafe.Pointer(&data))
		n := *(*uint8)(unsafe.Pointer(&needle))
		return simd.FindElem8(d, n), true
	case uint16:
		d := *(*[]uint16)(unsafe.Pointer(&data))
		n := *(*uint16)(unsafe.Pointer(&needle))
		return simd.FindElem16(d, n), true
	case int16:
		d := *(*[]uint16)(unsafe.Pointer(&data))
		n := *(*uint16)(unsafe.Pointer(&needle))
		return simd.FindElem16(d, n), true
	case uint32:
		d := *(*[]uint32)(unsafe.Pointer(&data))
		n := *(*uint32)(unsafe.Pointer(&needle))
		return simd.FindElem32(d, n), true
	case int32:
		d := *(*[]uint32)(unsafe.Pointer(&data))
		n := *(*uint32)(unsafe.Pointer(&needle))
		return simd.FindElem32(d, n), true
	case uint64:
		d := *(*[]uint64)(unsafe.Pointer(&data))
		n := *(*uint64)(unsafe.Pointer(&needle))
		return simd.FindElem64(d, n), true
	case int64:
		d := *(*[]uint64)(unsafe.Pointer(&data))
		n := *(*uint64)(unsafe.Pointer(&needle))
		return simd.FindElem64(d, n), true
	case int:
		if unsafe.Sizeof(int(0)) == 8 {
			d := *(*[]uint64)(unsafe.Pointer(&data))
			n := *(*uint64)(unsafe.Pointer(&needle))
			return simd.FindElem64(d, n), true
		}
		d := *(*[]uint32)(unsafe.Pointer(&data))
		n := *(*uint32)(unsafe.Pointer(&needle))
		return simd.FindElem32(d, n), true
	default:
		return 0, false
	}
}
