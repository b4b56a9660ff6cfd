// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingPushPopFIFO(t *testing.T) {
	r := New[int](8)
	for i := 0; i < 8; i++ {
		require.True(t, r.Push(i))
	}
	require.False(t, r.Push(99))

	for i := 0; i < 8; i++ {
		v, ok := r.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := r.Pop()
	require.False(t, ok)
}

func TestRingRoundsUpCapacity(t *testing.T) {
	r := New[int](10)
	require.Equal(t, 16, r.Cap())
}

func TestRingSwap(t *testing.T) {
	a := New[int](4)
	b := New[int](4)
	require.True(t, a.Push(1))
	require.True(t, a.Push(2))

	a.Swap(b)
	require.Equal(t, 0, a.Len())
	require.Equal(t, 2, b.Len())

	v, _ := b.Pop()
	require.Equal(t, 1, v)
}

func TestRingConcurrentProducerConsumer(t *testing.T) {
	r := New[int](1024)
	const n = 100000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Push(i) {
			}
		}
	}()

	sum := 0
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for {
				v, ok := r.Pop()
				if ok {
					sum += v
					break
				}
			}
		}
	}()

	wg.Wait()
	require.Equal(t, n*(n-1)/2, sum)
}
