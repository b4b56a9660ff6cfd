// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strx implements String, a UTF-8 string type with small-string
// optimisation (SSO): short strings live inline in the struct, longer ones
// spill to an allocator-owned heap buffer. Go offers no tagged-union or
// bit-packed discriminant byte the way the original source's 31-byte packed
// layout does, so corebase keeps a plain two-variant struct instead — the
// safe-target redesign spec.md's own Design Notes invite when a source
// trick depends on unsafe bit tricks Go can't express without real risk.
package strx

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/corebase-go/corebase/alloc"
	"github.com/corebase-go/corebase/simd"
)

// ErrInvalidUTF8 is returned by FromBytes when the input is not valid
// UTF-8.
var ErrInvalidUTF8 = errors.New("strx: invalid utf-8")

// smallCap is the inline capacity of the SSO variant: the largest size a
// two-word struct comfortably offers alongside the heap pointer and length
// byte. The source uses a 30-byte inline threshold inside its packed
// 31-byte union; corebase's unpacked struct has less room to spare, so the
// threshold is smaller — documented as a deliberate deviation, not an
// oversight.
const smallCap = 23

// heapAlignment is the multiple heap buffer capacities are rounded up to,
// matching spec.md §3's "heap capacity is a multiple of 64" invariant so
// simd kernels can assume aligned chunks.
const heapAlignment = 64

type heapString struct {
	buf     []byte
	runeLen int
	ref     alloc.Ref
}

// String is a UTF-8 string with small-string optimisation.
type String struct {
	small    [smallCap]byte
	smallLen uint8 // number of valid bytes in small; heap != nil when heap-resident
	heap     *heapString
}

func (s *String) isHeap() bool { return s.heap != nil }

// FromBytes validates b as UTF-8 and constructs a String holding a copy of
// it, spilling to ref if b exceeds the inline capacity.
func FromBytes(ref alloc.Ref, b []byte) (*String, error) {
	if !utf8.Valid(b) {
		return nil, ErrInvalidUTF8
	}
	s := &String{}
	if len(b) <= smallCap {
		s.smallLen = uint8(len(b))
		copy(s.small[:], b)
		return s, nil
	}
	if err := s.spillTo(ref, b); err != nil {
		return nil, err
	}
	return s, nil
}

// FromString is a convenience wrapper around FromBytes for string literals,
// which are always valid UTF-8 by Go's language guarantee.
func FromString(ref alloc.Ref, str string) (*String, error) {
	return FromBytes(ref, []byte(str))
}

func roundUpToHeapAlignment(n int) int {
	if n%heapAlignment == 0 {
		return n
	}
	return (n/heapAlignment + 1) * heapAlignment
}

func (s *String) spillTo(ref alloc.Ref, b []byte) error {
	capacity := roundUpToHeapAlignment(len(b))
	buf, err := ref.Alloc(uintptr(capacity), heapAlignment)
	if err != nil {
		return errors.Wrap(err, "strx: spill allocation failed")
	}
	n := copy(buf, b)
	s.heap = &heapString{
		buf:     buf[:n],
		runeLen: utf8.RuneCount(b),
		ref:     ref,
	}
	s.smallLen = 0
	return nil
}

// Bytes returns the string's raw UTF-8 bytes. The returned slice aliases
// internal storage and must not be mutated.
func (s *String) Bytes() []byte {
	if s.isHeap() {
		return s.heap.buf
	}
	return s.small[:s.smallLen]
}

// String implements fmt.Stringer.
func (s *String) String() string { return string(s.Bytes()) }

// BytesUsed returns the number of UTF-8 bytes in use.
func (s *String) BytesUsed() int {
	if s.isHeap() {
		return len(s.heap.buf)
	}
	return int(s.smallLen)
}

// Len returns the number of Unicode code points (runes), not bytes.
func (s *String) Len() int {
	if s.isHeap() {
		return s.heap.runeLen
	}
	return utf8.RuneCount(s.small[:s.smallLen])
}

// IsSmall reports whether the string is currently SSO-resident.
func (s *String) IsSmall() bool { return !s.isHeap() }

// Append appends b (validated as UTF-8) to s, spilling to ref if the
// combined length exceeds the inline capacity.
func (s *String) Append(ref alloc.Ref, b []byte) error {
	if !utf8.Valid(b) {
		return ErrInvalidUTF8
	}
	if len(b) == 0 {
		return nil
	}
	if s.isHeap() {
		return s.appendHeap(b)
	}
	combined := int(s.smallLen) + len(b)
	if combined <= smallCap {
		copy(s.small[s.smallLen:], b)
		s.smallLen = uint8(combined)
		return nil
	}
	merged := append(append([]byte{}, s.small[:s.smallLen]...), b...)
	return s.spillTo(ref, merged)
}

func (s *String) appendHeap(b []byte) error {
	need := len(s.heap.buf) + len(b)
	if need > cap(s.heap.buf) {
		newCap := roundUpToHeapAlignment(need)
		newBuf, err := s.heap.ref.Alloc(uintptr(newCap), heapAlignment)
		if err != nil {
			return errors.Wrap(err, "strx: append growth allocation failed")
		}
		n := copy(newBuf, s.heap.buf)
		s.heap.ref.Free(rawPointer(s.heap.buf), uintptr(cap(s.heap.buf)), heapAlignment)
		s.heap.buf = newBuf[:n]
	}
	s.heap.buf = s.heap.buf[:len(s.heap.buf)+len(b)]
	copy(s.heap.buf[need-len(b):], b)
	s.heap.runeLen += utf8.RuneCount(b)
	return nil
}

// Concat returns a new String holding s followed by other, allocated
// through ref.
func Concat(ref alloc.Ref, s, other *String) (*String, error) {
	out, err := FromBytes(ref, s.Bytes())
	if err != nil {
		return nil, err
	}
	if err := out.Append(ref, other.Bytes()); err != nil {
		return nil, err
	}
	return out, nil
}

// Compare returns -1, 0, or 1 as s is less than, equal to, or greater than
// other, byte-lexicographically.
func Compare(s, other *String) int {
	a, b := s.Bytes(), other.Bytes()
	if s.IsSmall() && other.IsSmall() {
		return compareSmall(a, b)
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareSmall(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether s and other hold the same bytes. In heap mode it
// begins with a cheap length check and falls to simd.EqualChunks, per
// spec.md §4.4; in SSO mode a length check plus a direct byte compare is
// already a single machine-word-scale operation.
func Equal(s, other *String) bool {
	if s.BytesUsed() != other.BytesUsed() {
		return false
	}
	if s.isHeap() && other.isHeap() {
		return simd.EqualChunks(s.heap.buf, other.heap.buf)
	}
	return compareSmall(s.Bytes(), other.Bytes()) == 0
}

// Find returns the byte offset of the first occurrence of b within s, or
// -1. Uses simd.FindByte in heap mode; a direct scalar scan in SSO mode,
// where the inline buffer is already too short to benefit from a vector
// kernel.
func (s *String) Find(b byte) int {
	if s.isHeap() {
		return simd.FindByte(s.heap.buf, b)
	}
	for i := 0; i < int(s.smallLen); i++ {
		if s.small[i] == b {
			return i
		}
	}
	return -1
}

// FindSubstring returns the byte offset of the first occurrence of needle
// within s, or -1. It scans for needle's first byte and confirms the
// remainder scalar-wise; no vectorised substring search is attempted,
// matching the source's own unfinished multi-byte search path (spec.md's
// open question on substring search resolves to "leftmost match, first-byte
// scan plus scalar confirm, no SIMD").
func (s *String) FindSubstring(needle []byte) int {
	if len(needle) == 0 {
		return 0
	}
	hay := s.Bytes()
	first := needle[0]
	start := 0
	for {
		idx := indexByteFrom(hay, first, start)
		if idx < 0 {
			return -1
		}
		if idx+len(needle) > len(hay) {
			return -1
		}
		match := true
		for i := 1; i < len(needle); i++ {
			if hay[idx+i] != needle[i] {
				match = false
				break
			}
		}
		if match {
			return idx
		}
		start = idx + 1
	}
}

func indexByteFrom(hay []byte, b byte, start int) int {
	if start >= len(hay) {
		return -1
	}
	rel := simd.FindByte(hay[start:], b)
	if rel < 0 {
		return -1
	}
	return start + rel
}

// Free releases the string's heap buffer, if any. Calling Free on an
// already-released or SSO-resident String is a no-op. Callers that built a
// String through an alloc.Ref-backed allocator are responsible for calling
// Free when done, the same discipline alloc.Ref itself asks of callers.
func (s *String) Free() {
	if !s.isHeap() {
		return
	}
	s.heap.ref.Free(rawPointer(s.heap.buf), uintptr(cap(s.heap.buf)), heapAlignment)
	s.heap = nil
	s.smallLen = 0
}
