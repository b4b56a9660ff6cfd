// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command corebasedemo exercises every corebase subsystem end to end. It is
// not part of the library's public API; its section-by-section console
// report style is grounded on the retrieval pack's own demo-main
// convention (eKuG-database_protocol's main.go: a runTests/runBenchmarks
// pair of top-level sections printed in sequence).
package main

import (
	"fmt"

	"github.com/corebase-go/corebase"
	"github.com/corebase-go/corebase/alloc"
	"github.com/corebase-go/corebase/hashmap"
	"github.com/corebase-go/corebase/job"
	"github.com/corebase-go/corebase/strintern"
	"github.com/corebase-go/corebase/strx"
	"github.com/corebase-go/corebase/varray"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("corebase foundation layer demo")
	fmt.Println("===========================================")

	cfg, err := corebase.LoadConfig("")
	if err != nil {
		fmt.Println("config load failed:", err)
		return
	}
	cfg.Apply()

	runAllocatorDemo()
	runArrayDemo()
	runHashMapDemo()
	runStringDemo(cfg)
	runInternDemo()
	runJobSystemDemo(cfg)
}

func runAllocatorDemo() {
	fmt.Println("\n-- Allocator --")
	heap := alloc.Heap()
	ref := alloc.NewRef(heap)
	buf, err := ref.Alloc(64, 8)
	if err != nil {
		fmt.Println("alloc failed:", err)
		return
	}
	fmt.Printf("allocated %d bytes, tracksRefCount=%v\n", len(buf), ref.Allocator().TracksRefCount())
	ref.Free(rawPtr(buf), 64, 8)

	arena := alloc.NewArena(4096)
	arenaRef := alloc.NewRef(arena)
	_, _ = arenaRef.Alloc(128, 16)
	fmt.Printf("arena used=%d refcount=%d\n", arena.Used(), arena.RefCount())
}

func runArrayDemo() {
	fmt.Println("\n-- Array --")
	ref := alloc.NewRef(alloc.Heap())
	a := varray.New[int](ref)
	for i := 0; i < 10; i++ {
		a.PushUnchecked(i)
	}
	removed := a.Remove(5)
	idx, found := a.Find(7)
	fmt.Printf("len=%d removed=%d find(7)=(%d,%v)\n", a.Len(), removed, idx, found)
}

func runHashMapDemo() {
	fmt.Println("\n-- HashMap --")
	ref := alloc.NewRef(alloc.Heap())
	m, err := hashmap.New[string, int](ref)
	if err != nil {
		fmt.Println("hashmap construction failed:", err)
		return
	}
	for i := 0; i < 1000; i++ {
		_ = m.Set(fmt.Sprintf("key-%d", i), i)
	}
	v, _ := m.Get("key-500")
	fmt.Printf("len=%d key-500=%d\n", m.Len(), v)
}

func runStringDemo(cfg corebase.Config) {
	fmt.Println("\n-- String --")
	ref := alloc.NewRef(alloc.Heap())
	s, err := strx.FromString(ref, "Übergrößenträger")
	if err != nil {
		fmt.Println("string construction failed:", err)
		return
	}
	fmt.Printf("length(runes)=%d bytesUsed=%d small=%v\n", s.Len(), s.BytesUsed(), s.IsSmall())

	formatted, err := strx.Format(ref, "num1: {}, num2: {}, multiplied: {}", 5, 5.0, 25.0)
	if err != nil {
		fmt.Println("format failed:", err)
		return
	}
	fmt.Println("formatted:", formatted.String())

	lit, err := strx.FromString(ref, "12345")
	if err == nil {
		if n, perr := strx.Parse[int](lit); perr == nil {
			fmt.Println("round-tripped int via Parse:", n)
		}
	}
	_ = cfg
}

func runInternDemo() {
	fmt.Println("\n-- String interning --")
	a := strintern.Create("alpha")
	b := strintern.Create("alpha")
	fmt.Printf("create(alpha) == create(alpha): %v, toString=%s\n", a == b, a.ToString())
}

func runJobSystemDemo(cfg corebase.Config) {
	fmt.Println("\n-- Job system --")
	sys := job.NewSystem(cfg.JobWorkerCount)
	defer sys.Shutdown()

	futures := make([]*job.Future[int], 0, 1000)
	for i := 0; i < 1000; i++ {
		f, err := job.RunJob(sys, func() int { return 1 })
		if err != nil {
			fmt.Println("run job failed:", err)
			return
		}
		futures = append(futures, f)
	}
	total := 0
	for _, f := range futures {
		total += f.Wait()
	}
	fmt.Printf("completed %d jobs, sum=%d\n", len(futures), total)
}
