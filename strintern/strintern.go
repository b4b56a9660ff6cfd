// Copyright 2024 The corebase Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strintern implements a process-wide, monotonic string interning
// registry: id 0 is reserved for the empty string, every other string gets
// the next sequential id on first insertion, and the id->string array is
// never re-indexed or shrunk for the process lifetime (spec.md §4.5). The
// lazy-singleton-behind-sync.Once shape is grounded on the teacher's own
// process-wide lazily-initialised heap allocator singleton.
package strintern

import (
	"hash/maphash"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// GlobalString is an interned string handle: equality is uint32 equality
// (spec.md §3), so two GlobalStrings compare equal iff they were created
// from equal underlying strings.
type GlobalString struct {
	id uint32
}

// ID returns the handle's registry id.
func (g GlobalString) ID() uint32 { return g.id }

var registrySeed = maphash.MakeSeed()

// Hash returns a 64-bit hash of the interned string, suitable for use as a
// hashmap.Map key's pre-hash without re-hashing the underlying bytes on
// every lookup.
func (g GlobalString) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(registrySeed)
	h.WriteString(g.ToString())
	return h.Sum64()
}

// ToString returns the interned string this handle refers to.
func (g GlobalString) ToString() string {
	return get().toString(g.id)
}

type registry struct {
	mu       sync.RWMutex
	byID     []string
	byStr    map[string]uint32
	negative *ristretto.Cache
}

var (
	once sync.Once
	r    *registry
)

func get() *registry {
	once.Do(func() {
		r = &registry{
			byID:  []string{""},
			byStr: map[string]uint32{"": 0},
		}
	})
	return r
}

// Option configures the process-wide registry. Options only take effect on
// the very first call that triggers lazy initialization; the registry is a
// process-wide singleton, same as spec.md §4.5 and §6 describe.
type Option func(*registry)

// WithNegativeCache installs a ristretto-backed cache of recent "string not
// present" lookups in front of DoesStringExist's read-lock path, so a
// workload that repeatedly probes for absent strings (common when
// interning doubles as a dedup gate) doesn't repeatedly contend the
// registry's RWMutex. It never stores the authoritative id mapping -
// that always lives in byID/byStr behind the lock.
func WithNegativeCache(cache *ristretto.Cache) Option {
	return func(r *registry) { r.negative = cache }
}

// Configure applies opts to the singleton registry, initializing it if
// necessary. Calling Configure after the registry has already been used
// without options is safe but options from a later call only affect the
// negative-cache front end, never the authoritative data already recorded.
func Configure(opts ...Option) {
	reg := get()
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, opt := range opts {
		opt(reg)
	}
}

// Create interns s, returning its existing id if already present or
// allocating the next sequential id otherwise.
func Create(s string) GlobalString {
	reg := get()
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if id, ok := reg.byStr[s]; ok {
		return GlobalString{id: id}
	}
	id := uint32(len(reg.byID))
	reg.byID = append(reg.byID, s)
	reg.byStr[s] = id
	if reg.negative != nil {
		reg.negative.Del(s)
	}
	return GlobalString{id: id}
}

// CreateIfExists returns s's existing handle, or the id-0 empty-string
// handle if s has never been interned (spec.md §4.5).
func CreateIfExists(s string) GlobalString {
	reg := get()
	if reg.negative != nil {
		if _, hit := reg.negative.Get(s); hit {
			return GlobalString{id: 0}
		}
	}
	reg.mu.RLock()
	id, ok := reg.byStr[s]
	reg.mu.RUnlock()
	if !ok {
		if reg.negative != nil {
			reg.negative.Set(s, struct{}{}, 1)
		}
		return GlobalString{id: 0}
	}
	return GlobalString{id: id}
}

// DoesStringExist reports whether s has ever been interned.
func DoesStringExist(s string) bool {
	reg := get()
	if reg.negative != nil {
		if _, hit := reg.negative.Get(s); hit {
			return false
		}
	}
	reg.mu.RLock()
	_, ok := reg.byStr[s]
	reg.mu.RUnlock()
	if !ok && reg.negative != nil {
		reg.negative.Set(s, struct{}{}, 1)
	}
	return ok
}

func (r *registry) toString(id uint32) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.byID) {
		return ""
	}
	return r.byID[id]
}

// Count returns the number of distinct strings interned so far, including
// the reserved empty string at id 0.
func Count() int {
	reg := get()
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.byID)
}

// resetForTest discards the singleton registry so the next call to get()
// reinitializes from scratch. Test-only: production callers rely on the
// registry being monotonic for the process lifetime.
func resetForTest() {
	once = sync.Once{}
	r = nil
}
