// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hashmap implements Map[K,V], a Swiss-table-style open-addressed
// hash map whose groups are allocated through an alloc.Ref and probed with
// the simd package's broadcast-compare kernels. Layout and algorithm are
// grounded directly on the teacher's own size-classed growth hierarchy
// (geometric group doubling) and on the retrieval pack's
// arena-cache/pkg/cache.go shard, which hashes an arbitrary comparable key
// with a per-instance maphash.Seed and a type-switch-then-unsafe-bytes
// fallback — the idiomatic Go way to hash a generic comparable key without
// reflection.
package hashmap

import (
	"hash/maphash"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/corebase-go/corebase/alloc"
	"github.com/corebase-go/corebase/simd"
)

// DefaultGroupSize is G, the number of slots per group. spec.md treats G as
// a compile-time constant; Go generics have no clean way to take an integer
// as a type parameter pre-1.22-style tricks, so corebase keeps it as a
// runtime field set at construction (documented as an Open Question
// resolution in the grounding ledger) and defaults it here.
const DefaultGroupSize = 32

const loadFactorNumerator, loadFactorDenominator = 3, 4 // 0.75

// maxGroupSize is the widest group simd.BroadcastMatch8 can fully probe: it
// returns a single uint64 bitmask, one bit per slot, so any slot at index
// 64 or beyond is permanently invisible to both the empty-slot search and
// the tag-match search regardless of how large a group's tags/entries
// slices actually are. Both WithGroupSize and growGroup are bounded by this
// constant so a group can never grow past what the probe primitive can see.
const maxGroupSize = 64

type entry[K comparable, V any] struct {
	key   K
	value V
}

// group holds its tags and entries slices as two views into one
// allocator-owned buffer (spec.md §4.2 / SPEC_FULL.md §3.4: "allocated
// together in one alloc.Ref.Alloc call"). raw and align are kept so the
// buffer can be handed back to the allocator unchanged when the group is
// replaced (grown) or the map is closed. That single-allocation layout only
// holds when entryNeedsGC[K, V]() is false; for a pointer-containing K or V,
// allocGroup instead makes tags and entries as two ordinary GC-tracked
// slices and leaves raw nil, so freeGroup knows there is nothing to hand
// back to the allocator (the GC owns that memory instead).
type group[K comparable, V any] struct {
	tags    []byte
	entries []entry[K, V]
	raw     []byte
	align   uintptr
}

// Map is a Swiss-table-style hash map backed by an alloc.Ref. It is not
// safe for concurrent use without external synchronization.
type Map[K comparable, V any] struct {
	ref        alloc.Ref
	seed       maphash.Seed
	groups     []group[K, V]
	groupCount int
	g          int
	count      int
}

// Option configures a new Map.
type Option func(*mapOptions)

type mapOptions struct {
	groupSize       int
	initialCapacity int
}

// WithGroupSize overrides the default group size G. Must be a multiple of
// 16 in [16, maxGroupSize]: simd.BroadcastMatch8 probes a group with a
// single uint64 bitmask, one bit per slot, so no group -- including one a
// caller pre-sizes with this option -- can ever exceed maxGroupSize slots.
func WithGroupSize(g int) Option {
	return func(o *mapOptions) { o.groupSize = g }
}

// WithInitialCapacity pre-sizes the map for c elements.
func WithInitialCapacity(c int) Option {
	return func(o *mapOptions) { o.initialCapacity = c }
}

// New constructs an empty Map backed by ref.
func New[K comparable, V any](ref alloc.Ref, opts ...Option) (*Map[K, V], error) {
	o := mapOptions{groupSize: DefaultGroupSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.groupSize <= 0 || o.groupSize%16 != 0 || o.groupSize > maxGroupSize {
		return nil, errors.Errorf("hashmap: group size %d must be a multiple of 16 in [16, %d]", o.groupSize, maxGroupSize)
	}
	m := &Map[K, V]{
		ref:  ref,
		seed: maphash.MakeSeed(),
		g:    o.groupSize,
	}
	if err := m.resize(groupCountFor(o.initialCapacity, o.groupSize)); err != nil {
		return nil, err
	}
	return m, nil
}

// groupCountFor implements spec.md §4.2's group-count policy: 1 if c <= G,
// else next_power_of_two(c / (G/8)).
func groupCountFor(c, g int) int {
	if c <= g {
		return 1
	}
	return nextPow2(c / (g / 8))
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// hash computes a per-instance-seeded 64-bit hash of key, grounded on
// arena-cache's shard.hash: a type switch for string/[]byte to avoid
// unsafe entirely on the common key types, an unsafe byte-reinterpretation
// of the key's memory for everything else.
func (m *Map[K, V]) hash(key K) uint64 {
	var h maphash.Hash
	h.SetSeed(m.seed)
	switch k := any(key).(type) {
	case string:
		h.WriteString(k)
	case []byte:
		h.Write(k)
	default:
		ptr := unsafe.Pointer(&key)
		size := unsafe.Sizeof(key)
		h.Write(unsafe.Slice((*byte)(ptr), size))
	}
	return h.Sum64()
}

// rawPointer returns the address of b's first byte, or nil for an empty
// slice, for passing to alloc.Ref.Free which expects the original
// allocation's starting address.
func rawPointer(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// partition splits a 64-bit hash into a bucket index and a 7-bit metadata
// tag, verbatim spec.md §4.2: bucket = (h >> 7) % groupCount, tag = (h &
// 0x7F) | 0x80 (the high bit forces non-zero so metadata can distinguish
// "empty").
func partition(h uint64, groupCount int) (bucket int, tag byte) {
	bucket = int((h >> 7) % uint64(groupCount))
	tag = byte(h&0x7F) | 0x80
	return
}

// groupAlignment is the alignment requested for every group buffer: at
// least 64 bytes so simd.BroadcastMatch8's tag scan can assume an aligned
// chunk (spec.md §4.2's "alignment >= G" loosely interpreted as "aligned to
// the SIMD chunk width", since G itself need not be a power of two).
const groupAlignment = 64

// groupLayout computes the byte size and alignment needed for a group
// holding n slots: n tag bytes immediately followed by n entries, the
// entries portion rounded up to the entry type's own alignment.
func groupLayout[K comparable, V any](n int) (total, entriesOffset, align uintptr) {
	var e entry[K, V]
	entrySize := unsafe.Sizeof(e)
	entryAlign := unsafe.Alignof(e)
	entriesOffset = roundUp(uintptr(n), entryAlign)
	total = entriesOffset + entrySize*uintptr(n)
	align = entryAlign
	if groupAlignment > align {
		align = groupAlignment
	}
	return
}

func roundUp(n, multiple uintptr) uintptr {
	if multiple == 0 {
		return n
	}
	rem := n % multiple
	if rem == 0 {
		return n
	}
	return n + multiple - rem
}

// entryNeedsGC reports whether K or V might hold a pointer, per
// alloc.HasPointers. Such a group cannot be carved out of the allocator's
// raw []byte buffer via unsafe.Slice -- that buffer is noscan (it came from
// make([]byte, n)), so the GC would never trace through it to keep alive
// whatever a stored key/value's own pointer(s) point at. Groups for such
// K/V fall back to ordinary GC-tracked make() for both the tags and
// entries slices instead, and are never handed to the allocator at all
// (freeGroup's raw == nil check already skips them).
func entryNeedsGC[K comparable, V any]() bool {
	return alloc.HasPointers[K]() || alloc.HasPointers[V]()
}

func (m *Map[K, V]) allocGroup(n int) (group[K, V], error) {
	if entryNeedsGC[K, V]() {
		tags := make([]byte, n)
		var entries []entry[K, V]
		if n > 0 {
			entries = make([]entry[K, V], n)
		}
		return group[K, V]{tags: tags, entries: entries}, nil
	}
	total, entriesOffset, align := groupLayout[K, V](n)
	buf, err := m.ref.Alloc(total, align)
	if err != nil {
		return group[K, V]{}, errors.Wrap(err, "hashmap: group allocation failed")
	}
	tags := buf[:n]
	var entries []entry[K, V]
	if n > 0 {
		entries = unsafe.Slice((*entry[K, V])(unsafe.Pointer(&buf[entriesOffset])), n)
	}
	return group[K, V]{tags: tags, entries: entries, raw: buf, align: align}, nil
}

func (m *Map[K, V]) freeGroup(g group[K, V]) {
	if g.raw == nil {
		return
	}
	m.ref.Free(rawPointer(g.raw), uintptr(len(g.raw)), g.align)
}

func (m *Map[K, V]) newGroup() (group[K, V], error) {
	return m.allocGroup(m.g)
}

func (m *Map[K, V]) resize(groupCount int) error {
	if groupCount < 1 {
		groupCount = 1
	}
	old := m.groups
	groups := make([]group[K, V], groupCount)
	for i := range groups {
		g, err := m.newGroup()
		if err != nil {
			return err
		}
		groups[i] = g
	}
	m.groups = groups
	m.groupCount = groupCount
	m.count = 0
	for _, g := range old {
		for i, tag := range g.tags {
			if tag == 0 {
				continue
			}
			if err := m.insertEntry(g.entries[i].key, g.entries[i].value); err != nil {
				return errors.Wrap(err, "hashmap: rehash failed")
			}
		}
		m.freeGroup(g)
	}
	return nil
}

// capacity returns the current total slot count across all groups.
func (m *Map[K, V]) capacity() int { return m.groupCount * m.g }

func (m *Map[K, V]) maybeGrow() error {
	if m.count*loadFactorDenominator <= m.capacity()*loadFactorNumerator {
		return nil
	}
	return m.resize(m.groupCount * 2)
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int { return m.count }

// find locates key's slot, returning the owning group index, slot index,
// and whether it was found.
func (m *Map[K, V]) find(key K) (gi, si int, found bool) {
	h := m.hash(key)
	bucket, tag := partition(h, m.groupCount)
	g := &m.groups[bucket]
	mask := simd.BroadcastMatch8(g.tags, tag)
	for mask != 0 {
		i := simd.TrailingZeros64(mask)
		mask &^= 1 << uint(i)
		if g.entries[i].key == key {
			return bucket, i, true
		}
	}
	return bucket, -1, false
}

// Get returns the value stored for key, and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	gi, si, found := m.find(key)
	if !found {
		var zero V
		return zero, false
	}
	return m.groups[gi].entries[si].value, true
}

// GetPtr returns a pointer to the stored value for in-place mutation, or
// nil if key is absent.
func (m *Map[K, V]) GetPtr(key K) *V {
	gi, si, found := m.find(key)
	if !found {
		return nil
	}
	return &m.groups[gi].entries[si].value
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, _, found := m.find(key)
	return found
}

// Insert writes key/value. If key already exists, its value is left
// untouched and a pointer to the existing value is returned (spec.md
// §4.2: "if found, return pointer to existing value"); use Set to
// overwrite unconditionally.
func (m *Map[K, V]) Insert(key K, value V) (*V, error) {
	if gi, si, found := m.find(key); found {
		return &m.groups[gi].entries[si].value, nil
	}
	if err := m.insertEntry(key, value); err != nil {
		return nil, err
	}
	if err := m.maybeGrow(); err != nil {
		return nil, err
	}
	gi, si, _ := m.find(key)
	return &m.groups[gi].entries[si].value, nil
}

// Set writes key/value unconditionally, overwriting any existing value.
func (m *Map[K, V]) Set(key K, value V) error {
	if gi, si, found := m.find(key); found {
		m.groups[gi].entries[si].value = value
		return nil
	}
	if err := m.insertEntry(key, value); err != nil {
		return err
	}
	return m.maybeGrow()
}

// maxGrowAttempts bounds insertEntry's retry loop when a bucket's group
// keeps coming back full even after widening the table (m.resize changes
// m.groupCount, so bucket/tag must be recomputed and the slot search
// retried; this is not expected to take more than a couple of rounds for
// any hash that isn't pathologically degenerate).
const maxGrowAttempts = 32

// insertEntry writes key/value into the first empty slot of its bucket's
// group, growing that group if it is full. It assumes key is not already
// present.
func (m *Map[K, V]) insertEntry(key K, value V) error {
	h := m.hash(key)
	bucket, tag := partition(h, m.groupCount)
	for attempt := 0; ; attempt++ {
		g := &m.groups[bucket]
		emptyMask := simd.BroadcastMatch8(g.tags, 0)
		if emptyMask != 0 {
			slot := simd.TrailingZeros64(emptyMask)
			g.tags[slot] = tag
			g.entries[slot] = entry[K, V]{key: key, value: value}
			m.count++
			return nil
		}
		if attempt >= maxGrowAttempts {
			return errors.Errorf("hashmap: unable to find a free slot for key after %d growth attempts", attempt)
		}
		widened, err := m.growGroup(bucket)
		if err != nil {
			return err
		}
		if widened {
			bucket, tag = partition(h, m.groupCount)
		}
	}
}

// growGroup makes room in bucket's group. Below maxGroupSize it doubles
// that single group in place, per spec.md §4.2 "each group starts with
// capacity G and doubles on overflow." At maxGroupSize -- the widest group
// simd.BroadcastMatch8's single uint64 bitmask can fully probe -- doubling
// in place would hide every slot past index 63 from both insert and find
// forever, so instead the whole table widens outward (more, still
// <=maxGroupSize-capacity groups via m.resize) the same way it would once
// the global 0.75 load factor is crossed. The bool return tells the caller
// whether m.groupCount changed, since that invalidates any bucket index
// computed before the call.
func (m *Map[K, V]) growGroup(bucket int) (widened bool, err error) {
	old := m.groups[bucket]
	if newSize := len(old.tags) * 2; newSize <= maxGroupSize {
		ng, err := m.allocGroup(newSize)
		if err != nil {
			return false, err
		}
		copy(ng.tags, old.tags)
		copy(ng.entries, old.entries)
		m.groups[bucket] = ng
		m.freeGroup(old)
		return false, nil
	}
	if err := m.resize(m.groupCount * 2); err != nil {
		return false, err
	}
	return true, nil
}

// Erase removes key, returning whether it was present. Metadata is cleared
// to zero rather than tombstoned, so the slot is immediately reusable
// (spec.md §4.2).
func (m *Map[K, V]) Erase(key K) bool {
	gi, si, found := m.find(key)
	if !found {
		return false
	}
	g := &m.groups[gi]
	g.tags[si] = 0
	var zero entry[K, V]
	g.entries[si] = zero
	m.count--
	return true
}

// Clear empties the map without releasing group storage.
func (m *Map[K, V]) Clear() {
	for i := range m.groups {
		g := &m.groups[i]
		for j := range g.tags {
			g.tags[j] = 0
		}
		var zero entry[K, V]
		for j := range g.entries {
			g.entries[j] = zero
		}
	}
	m.count = 0
}

// Iter returns a range-over-func iterator pair of (key, value), visiting
// groups then slots in order and skipping zero-metadata slots (spec.md
// §4.2's iteration order). Any mutation during iteration invalidates the
// iterator; this is the caller's responsibility to avoid, same as Go's
// own map iteration guarantees nothing under concurrent mutation.
func (m *Map[K, V]) Iter() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for gi := range m.groups {
			g := &m.groups[gi]
			for si, tag := range g.tags {
				if tag == 0 {
					continue
				}
				if !yield(g.entries[si].key, g.entries[si].value) {
					return
				}
			}
		}
	}
}

// Keys returns a snapshot slice of every live key.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.count)
	m.Iter()(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Values returns a snapshot slice of every live value.
func (m *Map[K, V]) Values() []V {
	values := make([]V, 0, m.count)
	m.Iter()(func(_ K, v V) bool {
		values = append(values, v)
		return true
	})
	return values
}

// Clone deep-copies the map into a fresh instance backed by ref (a new
// handle from m.ref.Clone if ref is a nil Ref). Restored from
// original_source/ per SPEC_FULL.md: dropped from the distilled spec but
// excluded by none of its Non-goals.
func (m *Map[K, V]) Clone(ref alloc.Ref) (*Map[K, V], error) {
	if ref.IsNil() {
		ref = m.ref.Clone()
	}
	clone, err := New[K, V](ref, WithGroupSize(m.g))
	if err != nil {
		return nil, err
	}
	var insertErr error
	m.Iter()(func(k K, v V) bool {
		if insertErr = clone.Set(k, v); insertErr != nil {
			return false
		}
		return true
	})
	if insertErr != nil {
		return nil, insertErr
	}
	return clone, nil
}

// Close releases every group's backing buffer back to the map's allocator.
// Go's garbage collector would eventually reclaim the same memory for a
// Heap-backed map, but a map built over an ArenaAllocator or
// TestingAllocator must call Close so its Ref's refcount bookkeeping
// balances, the same discipline alloc.Ref asks of every container.
func (m *Map[K, V]) Close() {
	for _, g := range m.groups {
		m.freeGroup(g)
	}
	m.groups = nil
	m.count = 0
	m.ref.Release()
}

// Merge copies every entry of other into m. On a key present in both maps,
// onConflict resolves the value (receiving m's current value and other's
// value); a nil onConflict keeps m's existing value.
func (m *Map[K, V]) Merge(other *Map[K, V], onConflict func(key K, existing, incoming V) V) error {
	var mergeErr error
	other.Iter()(func(k K, incoming V) bool {
		if existing, ok := m.Get(k); ok {
			if onConflict != nil {
				if mergeErr = m.Set(k, onConflict(k, existing, incoming)); mergeErr != nil {
					return false
				}
			}
			return true
		}
		if mergeErr = m.Set(k, incoming); mergeErr != nil {
			return false
		}
		return true
	})
	return mergeErr
}
