// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package job

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunJobReturnsResult(t *testing.T) {
	s := NewSystem(4)
	defer s.Shutdown()

	f, err := RunJob(s, func() int { return 42 })
	require.NoError(t, err)
	require.Equal(t, 42, f.Wait())
}

func TestRunJobMutexGuardedCounter(t *testing.T) {
	s := NewSystem(8)
	defer s.Shutdown()

	var mu sync.Mutex
	counter := 0
	futures := make([]*Future[struct{}], 0, 1000)
	for i := 0; i < 1000; i++ {
		f, err := RunJob(s, func() struct{} {
			mu.Lock()
			counter++
			mu.Unlock()
			return struct{}{}
		})
		require.NoError(t, err)
		futures = append(futures, f)
	}
	for _, f := range futures {
		f.Wait()
	}
	require.Equal(t, 1000, counter)
}

func TestRunJobAfterShutdownFails(t *testing.T) {
	s := NewSystem(2)
	s.Shutdown()

	_, err := RunJob(s, func() int { return 1 })
	require.ErrorIs(t, err, ErrSystemShutdown)
}

func TestFutureSpinWait(t *testing.T) {
	s := NewSystem(2, WithSpinWait())
	defer s.Shutdown()

	f, err := RunJob(s, func() string { return "done" })
	require.NoError(t, err)
	require.Equal(t, "done", f.Wait())
}

func TestRunJobManyConcurrentSubmitters(t *testing.T) {
	s := NewSystem(4, WithRingCapacity(16))
	defer s.Shutdown()

	var wg sync.WaitGroup
	results := make(chan int, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			f, err := RunJob(s, func() int { return n * n })
			require.NoError(t, err)
			results <- f.Wait()
		}(i)
	}
	wg.Wait()
	close(results)

	sum := 0
	for v := range results {
		sum += v
	}
	want := 0
	for i := 0; i < 200; i++ {
		want += i * i
	}
	require.Equal(t, want, sum)
}
