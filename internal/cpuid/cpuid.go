// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpuid memoizes the CPU feature set corebase's simd package
// dispatches on, the same "one-time runtime selection" spec.md §2 calls
// for. It is a thin wrapper over golang.org/x/sys/cpu, grounded directly on
// the retrieval pack's own use of that package for exactly this purpose
// (other_examples' go-simdcsv simd_scanner.go: a package-level bool set
// once in an init() from cpu.X86.HasAVX512F/BW/VL).
package cpuid

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Features is the subset of the host's vector instruction set corebase's
// simd package cares about.
type Features struct {
	AVX2    bool
	AVX512  bool
	NEON    bool
	Scalar  bool // always true; the guaranteed fallback tier
	Forced  bool // true if the feature set was forced via ForceScalar
}

var (
	once     sync.Once
	features Features
)

func detect() Features {
	f := Features{Scalar: true}
	f.AVX2 = cpu.X86.HasAVX2
	f.AVX512 = cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW && cpu.X86.HasAVX512VL
	f.NEON = cpu.ARM64.HasASIMD
	return f
}

// Get returns the memoized feature set, detecting it on first call.
func Get() Features {
	once.Do(func() {
		features = detect()
	})
	return features
}

// ForceScalar overrides the detected feature set to report no vector
// support, for tests that want to exercise the scalar fallback kernels on
// hardware that does have AVX-512/NEON, and for the corebase.Config
// "forced scalar" override (SPEC_FULL.md §1 Configuration).
func ForceScalar() {
	once.Do(func() {})
	features = Features{Scalar: true, Forced: true}
}

// Reset restores automatic detection, undoing ForceScalar. Used by tests
// and by corebase.Config.Apply when scalar mode is not forced.
func Reset() {
	once = sync.Once{}
	features = Features{}
}
