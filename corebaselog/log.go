// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corebaselog holds corebase's single mutable logging global. The
// teacher has no logger at all (the Go runtime bootstraps before package
// log exists, so malloc.go and chan.go call println/throw directly); a
// userspace library gets to do better, so every corebase package that needs
// to report a fatal condition (spec.md §7 item 4 "logic error", item 5 "OS
// primitive failure") goes through the zerolog logger here rather than
// calling panic or os.Exit directly, so a host application can redirect or
// reconfigure it.
package corebaselog

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var current atomic.Value // holds zerolog.Logger

var setupOnce sync.Once

func defaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// Logger returns corebase's process-wide logger, defaulting to a
// console-formatted, timestamped zerolog.Logger writing to stderr with no
// minimum level set on it.
func Logger() zerolog.Logger {
	setupOnce.Do(func() {
		current.Store(defaultLogger())
	})
	return current.Load().(zerolog.Logger)
}

// SetLogger replaces corebase's process-wide logger. Library code never
// calls this; it exists so a host application can redirect corebase's
// fatal/warning output into its own structured logging pipeline.
func SetLogger(l zerolog.Logger) {
	setupOnce.Do(func() {}) // ensure setupOnce is consumed so Logger() doesn't clobber this
	current.Store(l)
}
