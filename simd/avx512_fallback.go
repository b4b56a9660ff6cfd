// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !(goexperiment.simd && amd64)

package simd

// hasArchSIMD is false on every build except one compiled with
// GOEXPERIMENT=simd on amd64 (see avx512_experiment.go), so the AVX-512
// dispatch branch in simd.go never calls the *AVX512 functions below on a
// normal build. They exist only so simd.go type-checks identically in both
// configurations.
const hasArchSIMD = false

func findByteAVX512(haystack []byte, b byte) int          { return findByteScalar(haystack, b) }
func equalChunksAVX512(a, b []byte) bool                  { return equalChunksScalar(a, b) }
func broadcastMatch8AVX512(group []byte, tag byte) uint64 { return broadcastMatch8Scalar(group, tag) }
