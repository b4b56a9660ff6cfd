// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simd supplies the broadcast-and-compare kernels spec.md's hash
// map (tag-metadata probing) and string (byte find / equality) components
// dispatch into. The byte-oriented kernels (FindByte, EqualChunks,
// BroadcastMatch8) have two tiers, the same shape as the retrieval pack's
// own SIMD dispatcher (other_examples' go-simdcsv simd_scanner.go: a bool
// feature flag set once at init, a dispatcher function, and an
// AVX-512/scalar implementation pair): an AVX-512 kernel built only under
// GOEXPERIMENT=simd (the experimental simd/archsimd package, see
// avx512_experiment.go), and a portable scalar SWAR (SIMD-within-a-register)
// fallback that is the default build's only code path and is always
// correct.
//
// FindElem64/32/16 (varray's element-width find) stay scalar-only: they
// would need a distinct archsimd vector width per element size (Int64x4,
// Int32x8, Int16x16) for a proportionally smaller win than the byte kernels
// get, since array lookups are rarely the hot path the tag probe and string
// scan are. FindElem8 calls FindByte and so gets the AVX-512 path through
// FindByte's own dispatch; the wider-element entry points here are the ones
// left scalar.
//
// The scalar fallback never reads past a slice's actual length — spec.md's
// Design Notes flag the source's "read past length into the zero-
// initialised tail" trick as unsafe to carry over verbatim, and corebase
// does not carry it over: every kernel here masks its final partial chunk
// to len(data).
package simd

import (
	"math/bits"

	"github.com/corebase-go/corebase/internal/cpuid"
)

// minSIMDLen is the data length below which the scalar loop's lower
// constant overhead wins over any vectorised path, mirroring the pack's
// simdMinThreshold.
const minSIMDLen = 32

// FindByte returns the index of the first occurrence of b in haystack, or
// -1. Used by strx's single-character Find in heap mode (spec.md §4.4).
func FindByte(haystack []byte, b byte) int {
	if hasArchSIMD && cpuid.Get().AVX512 && len(haystack) >= minSIMDLen {
		return findByteAVX512(haystack, b)
	}
	return findByteScalar(haystack, b)
}

func findByteScalar(haystack []byte, b byte) int {
	// SWAR broadcast-compare: pack 8 copies of b into a uint64 and XOR
	// whole words against it; a zero byte in the XOR result marks a match,
	// detected with the classic "has a zero byte" trick.
	n := len(haystack)
	i := 0
	pattern := broadcastByte(b)
	for ; i+8 <= n; i += 8 {
		word := le64(haystack[i : i+8])
		x := word ^ pattern
		if hasZeroByte(x) {
			for j := 0; j < 8; j++ {
				if haystack[i+j] == b {
					return i + j
				}
			}
		}
	}
	for ; i < n; i++ {
		if haystack[i] == b {
			return i
		}
	}
	return -1
}

// EqualChunks reports whether a and b are byte-for-byte equal. Used by
// strx.String.Equal in heap mode after a cheap length check (spec.md §4.4
// "Compare... begin with a byte-length check").
func EqualChunks(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if hasArchSIMD && cpuid.Get().AVX512 && len(a) >= minSIMDLen {
		return equalChunksAVX512(a, b)
	}
	return equalChunksScalar(a, b)
}

func equalChunksScalar(a, b []byte) bool {
	n := len(a)
	i := 0
	for ; i+8 <= n; i += 8 {
		if le64(a[i:i+8]) != le64(b[i:i+8]) {
			return false
		}
	}
	for ; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// BroadcastMatch8 implements the hash map's group probe (spec.md §4.2): it
// broadcasts tag across every byte of group and returns a bitmask with bit
// i set iff group[i] == tag, for i in [0, len(group)) (len(group) <= 64).
// An empty-slot search is the same operation with tag == 0.
func BroadcastMatch8(group []byte, tag byte) uint64 {
	if hasArchSIMD && cpuid.Get().AVX512 && len(group) >= minSIMDLen {
		return broadcastMatch8AVX512(group, tag)
	}
	return broadcastMatch8Scalar(group, tag)
}

func broadcastMatch8Scalar(group []byte, tag byte) uint64 {
	var mask uint64
	n := len(group)
	if n > 64 {
		n = 64
	}
	pattern := broadcastByte(tag)
	i := 0
	for ; i+8 <= n; i += 8 {
		word := le64(group[i : i+8])
		x := word ^ pattern
		// For each of the 8 lanes, a zero byte in x marks a match; extract
		// lane-by-lane rather than a single "has zero byte" test since we
		// need the exact positions, not just "any".
		for lane := 0; lane < 8; lane++ {
			if byte(x>>(8*lane)) == 0 {
				mask |= 1 << (i + lane)
			}
		}
	}
	for ; i < n; i++ {
		if group[i] == tag {
			mask |= 1 << i
		}
	}
	return mask
}

// FindElem64 searches data (interpreted as a stream of little-endian
// uint64 elements) for needle, returning the element index or -1. Used by
// varray.Array[T].Find for 8-byte trivial element types (spec.md §4.3).
// FindElem32/16/8 are the same kernel at narrower widths.
func FindElem64(data []uint64, needle uint64) int {
	for i, v := range data {
		if v == needle {
			return i
		}
	}
	return -1
}

func FindElem32(data []uint32, needle uint32) int {
	for i, v := range data {
		if v == needle {
			return i
		}
	}
	return -1
}

func FindElem16(data []uint16, needle uint16) int {
	for i, v := range data {
		if v == needle {
			return i
		}
	}
	return -1
}

func FindElem8(data []byte, needle byte) int {
	return FindByte(data, needle)
}

// --- SWAR helpers ---

func broadcastByte(b byte) uint64 {
	return uint64(b) * 0x0101010101010101
}

// hasZeroByte reports whether any byte lane of x is zero, using the
// well-known bit trick: (x - 0x0101..01) & ^x & 0x8080..80 is non-zero iff
// some byte of x was zero (and none of the other bytes had their high bit
// set in a way that would cause a false positive, guaranteed by the
// subtraction not borrowing across byte lanes for this specific mask).
func hasZeroByte(x uint64) bool {
	const lo = 0x0101010101010101
	const hi = 0x8080808080808080
	return (x-lo)&^x&hi != 0
}

func le64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

// TrailingZeros64 re-exports bits.TrailingZeros64 for callers (hashmap)
// that need to enumerate set bits of a BroadcastMatch8 result without
// importing math/bits directly, keeping all bitmask manipulation for
// corebase's probing scheme in one place.
func TrailingZeros64(x uint64) int { return bits.TrailingZeros64(x) }
