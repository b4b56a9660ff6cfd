// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package varray

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corebase-go/corebase/alloc"
)

func newTestArray[T any](t *testing.T) *Array[T] {
	ref := alloc.NewRef(alloc.NewTestingAllocatorT(t))
	a := New[T](ref)
	t.Cleanup(a.Close)
	return a
}

func TestArrayPushPop(t *testing.T) {
	a := newTestArray[int](t)
	for i := 0; i < 100; i++ {
		require.NoError(t, a.Push(i))
	}
	require.Equal(t, 100, a.Len())
	for i := 99; i >= 0; i-- {
		v, ok := a.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := a.Pop()
	require.False(t, ok)
}

func TestArrayGetSet(t *testing.T) {
	a := newTestArray[string](t)
	require.NoError(t, a.Push("a"))
	require.NoError(t, a.Push("b"))
	a.Set(1, "c")
	require.Equal(t, "c", a.Get(1))
}

func TestArrayRemoveOrderPreserving(t *testing.T) {
	a := newTestArray[int](t)
	for _, v := range []int{1, 2, 3, 4, 5} {
		require.NoError(t, a.Push(v))
	}
	removed := a.Remove(1)
	require.Equal(t, 2, removed)
	got := make([]int, 0, a.Len())
	a.Iter()(func(_ int, v int) bool {
		got = append(got, v)
		return true
	})
	require.Equal(t, []int{1, 3, 4, 5}, got)
}

func TestArraySwapRemove(t *testing.T) {
	a := newTestArray[int](t)
	for _, v := range []int{1, 2, 3, 4, 5} {
		require.NoError(t, a.Push(v))
	}
	removed := a.SwapRemove(1)
	require.Equal(t, 2, removed)
	require.Equal(t, 5, a.Get(1))
	require.Equal(t, 4, a.Len())
}

func TestArrayInsert(t *testing.T) {
	a := newTestArray[int](t)
	for _, v := range []int{1, 2, 4, 5} {
		require.NoError(t, a.Push(v))
	}
	require.NoError(t, a.Insert(2, 3))
	got := make([]int, 0, a.Len())
	a.Iter()(func(_ int, v int) bool {
		got = append(got, v)
		return true
	})
	require.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestArrayInsertSwap(t *testing.T) {
	a := newTestArray[int](t)
	for _, v := range []int{1, 2, 3} {
		require.NoError(t, a.Push(v))
	}
	require.NoError(t, a.InsertSwap(0, 99))
	require.Equal(t, 99, a.Get(0))
	require.Equal(t, 1, a.Get(3))
	require.Equal(t, 4, a.Len())
}

func TestArrayFindTrivial(t *testing.T) {
	a := newTestArray[uint64](t)
	for i := uint64(0); i < 50; i++ {
		require.NoError(t, a.Push(i * 2))
	}
	idx, ok := a.Find(20)
	require.True(t, ok)
	require.Equal(t, 10, idx)

	_, ok = a.Find(21)
	require.False(t, ok)
}

func TestArrayFindNonTrivial(t *testing.T) {
	a := newTestArray[string](t)
	require.NoError(t, a.AppendSlice([]string{"a", "b", "c"}))
	idx, ok := a.Find("b")
	require.True(t, ok)
	require.Equal(t, 1, idx)
}

func TestArrayAppendSliceGrowth(t *testing.T) {
	a := newTestArray[int](t)
	s := make([]int, 100)
	for i := range s {
		s[i] = i
	}
	require.NoError(t, a.AppendSlice(s))
	require.Equal(t, 100, a.Len())
	require.GreaterOrEqual(t, a.Cap(), 100)
	require.Equal(t, 42, a.Get(42))
}

func TestArrayReserveExact(t *testing.T) {
	a := newTestArray[int](t)
	require.NoError(t, a.ReserveExact(16))
	require.Equal(t, 16, a.Cap())
}

func TestArrayClear(t *testing.T) {
	a := newTestArray[int](t)
	require.NoError(t, a.AppendSlice([]int{1, 2, 3}))
	a.Clear()
	require.Equal(t, 0, a.Len())
}

func TestArrayPointerContainingElementsSkipAllocator(t *testing.T) {
	backing := alloc.NewTestingAllocatorT(t)
	ref := alloc.NewRef(backing)
	a := New[string](ref)
	t.Cleanup(a.Close)

	for i := 0; i < 200; i++ {
		require.NoError(t, a.Push(strings.Repeat("x", i+1)))
	}
	require.Equal(t, 200, a.Len())
	require.Equal(t, 0, backing.LiveCount(),
		"a string element array must never route through ref.Alloc, since the GC would not trace a stored string's backing array through a noscan buffer")

	runtime.GC()
	for i := 0; i < 200; i++ {
		require.Equal(t, strings.Repeat("x", i+1), a.Get(i))
	}
}

func TestArrayTrivialElementsStillUseAllocator(t *testing.T) {
	backing := alloc.NewTestingAllocatorT(t)
	ref := alloc.NewRef(backing)
	a := New[int](ref)
	t.Cleanup(a.Close)

	require.NoError(t, a.Push(1))
	require.Greater(t, backing.LiveCount(), 0,
		"a pointer-free element type should still grow through the allocator-backed path")
}
