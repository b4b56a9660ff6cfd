// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hashmap

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corebase-go/corebase/alloc"
)

func newTestMap[K comparable, V any](t *testing.T, opts ...Option) *Map[K, V] {
	ref := alloc.NewRef(alloc.NewTestingAllocatorT(t))
	m, err := New[K, V](ref, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestMapInsertGet(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	_, ok = m.Get("missing")
	require.False(t, ok)
}

func TestMapInsertReturnsExisting(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.Set("a", 1))
	ptr, err := m.Insert("a", 999)
	require.NoError(t, err)
	require.Equal(t, 1, *ptr)
}

func TestMapErase(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.Set("a", 1))
	require.True(t, m.Erase("a"))
	require.False(t, m.Erase("a"))
	_, ok := m.Get("a")
	require.False(t, ok)
}

func TestMapRehashPreservesEntries(t *testing.T) {
	m := newTestMap[int, int](t, WithGroupSize(16))
	const n = 2000
	for i := 0; i < n; i++ {
		require.NoError(t, m.Set(i, i*i))
	}
	require.Equal(t, n, m.Len())
	for i := 0; i < n; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i*i, v)
	}
}

func TestMapGroupOverflowGrowsGroup(t *testing.T) {
	m := newTestMap[int, int](t, WithGroupSize(16))
	for i := 0; i < 17; i++ {
		require.NoError(t, m.insertEntry(i, i))
	}
	require.Equal(t, 17, m.Len())
	require.Equal(t, 1, m.groupCount)
	require.Equal(t, 32, len(m.groups[0].tags))
}

func TestMapIterVisitsAllLiveEntries(t *testing.T) {
	m := newTestMap[int, string](t)
	want := map[int]string{}
	for i := 0; i < 50; i++ {
		v := fmt.Sprintf("v%d", i)
		want[i] = v
		require.NoError(t, m.Set(i, v))
	}
	m.Erase(10)
	delete(want, 10)

	got := map[int]string{}
	m.Iter()(func(k int, v string) bool {
		got[k] = v
		return true
	})
	require.Equal(t, want, got)
}

func TestMapKeysValues(t *testing.T) {
	m := newTestMap[int, int](t)
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Set(i, i*2))
	}
	require.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, m.Keys())
	require.ElementsMatch(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, m.Values())
}

func TestMapClone(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))

	clone, err := m.Clone(alloc.Ref{})
	require.NoError(t, err)
	t.Cleanup(clone.Close)
	require.NoError(t, m.Set("a", 999))

	v, ok := clone.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestMapMerge(t *testing.T) {
	a := newTestMap[string, int](t)
	require.NoError(t, a.Set("x", 1))
	require.NoError(t, a.Set("y", 2))

	b := newTestMap[string, int](t)
	require.NoError(t, b.Set("y", 20))
	require.NoError(t, b.Set("z", 3))

	require.NoError(t, a.Merge(b, func(_ string, existing, incoming int) int {
		return existing + incoming
	}))

	v, _ := a.Get("x")
	require.Equal(t, 1, v)
	v, _ = a.Get("y")
	require.Equal(t, 22, v)
	v, _ = a.Get("z")
	require.Equal(t, 3, v)
}

func TestMapInvalidGroupSize(t *testing.T) {
	ref := alloc.NewRef(alloc.NewTestingAllocatorT(t))
	defer ref.Release()
	_, err := New[string, int](ref, WithGroupSize(17))
	require.Error(t, err)
}

func TestMapGroupSizeCappedAtBroadcastMatch8Width(t *testing.T) {
	ref := alloc.NewRef(alloc.NewTestingAllocatorT(t))

	_, err := New[string, int](ref, WithGroupSize(128))
	require.Error(t, err, "a group wider than BroadcastMatch8's uint64 mask must be rejected")

	_, err = New[string, int](ref, WithGroupSize(80))
	require.Error(t, err)

	m, err := New[string, int](ref, WithGroupSize(maxGroupSize))
	require.NoError(t, err)
	t.Cleanup(m.Close)
}

func TestGrowGroupWidensTableInsteadOfExceedingMaxGroupSize(t *testing.T) {
	m := newTestMap[int, int](t, WithGroupSize(16), WithInitialCapacity(1))
	require.Equal(t, 1, m.groupCount)

	for i := 0; i < maxGroupSize; i++ {
		require.NoError(t, m.insertEntry(i, i*i))
	}
	require.Equal(t, maxGroupSize, len(m.groups[0].tags))

	require.NoError(t, m.insertEntry(maxGroupSize, maxGroupSize*maxGroupSize))
	require.Greater(t, m.groupCount, 1, "a group at capacity must widen the table rather than grow past maxGroupSize")
	for _, g := range m.groups {
		require.LessOrEqual(t, len(g.tags), maxGroupSize)
	}

	for i := 0; i <= maxGroupSize; i++ {
		v, ok := m.Get(i)
		require.True(t, ok, "key %d must still be found after the table widened", i)
		require.Equal(t, i*i, v)
	}
}

func TestMapPointerContainingTypesSkipAllocatorBackedGroups(t *testing.T) {
	backing := alloc.NewTestingAllocatorT(t)
	ref := alloc.NewRef(backing)
	m, err := New[int, string](ref)
	require.NoError(t, err)
	t.Cleanup(m.Close)

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Set(i, strings.Repeat("y", i+1)))
	}
	for _, g := range m.groups {
		require.Nil(t, g.raw, "a string-valued group must never be carved out of a noscan allocator buffer")
	}

	runtime.GC()
	for i := 0; i < 100; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, strings.Repeat("y", i+1), v)
	}
}

func TestMapTrivialTypesStillUseAllocatorBackedGroups(t *testing.T) {
	m := newTestMap[int, int](t)
	require.NoError(t, m.Set(1, 1))
	foundRaw := false
	for _, g := range m.groups {
		if g.raw != nil {
			foundRaw = true
		}
	}
	require.True(t, foundRaw, "pointer-free K/V should still carve groups out of the allocator's raw buffer")
}
