// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syncutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutexExclusion(t *testing.T) {
	var m Mutex
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := m.Lock()
			defer g.Unlock()
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, 100, counter)
}

func TestMutexTryLock(t *testing.T) {
	var m Mutex
	g := m.Lock()
	_, ok := m.TryLock()
	require.False(t, ok)
	g.Unlock()

	g2, ok := m.TryLock()
	require.True(t, ok)
	g2.Unlock()
}

func TestRWMutexConcurrentReaders(t *testing.T) {
	var rw RWMutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := rw.RLock()
			defer g.RUnlock()
		}()
	}
	wg.Wait()
}

func TestRWMutexWriteExcludesRead(t *testing.T) {
	var rw RWMutex
	g := rw.Lock()
	_, ok := rw.TryRLock()
	require.False(t, ok)
	g.Unlock()

	rg, ok := rw.TryRLock()
	require.True(t, ok)
	rg.RUnlock()
}
