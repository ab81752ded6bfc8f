// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adapter

import (
	"sync"

	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/target"
)

// Cache is the process-wide {(Direction, Sig) -> Adapter} mapping spec.md
// §5 describes: the mutex is held only to look up or insert a key's entry,
// and the entry's sync.Once runs the build outside the lock, so at most one
// adapter is ever built per key even under concurrent compilation (spec.md
// §4.J "Signature-keyed caching").
// Grounded on the same get-or-build-under-lock shape compilerctx.Context's
// stub cache uses for global stubs — the two caches are siblings in
// spec.md §5's shared-state list.
type Cache struct {
	mu      sync.Mutex
	arch    *target.Architecture
	entries map[cacheKey]*cacheEntry
}

type cacheKey struct {
	dir Direction
	sig string
}

type cacheEntry struct {
	once    sync.Once
	adapter *Adapter
	err     error
}

// NewCache creates an empty Cache for the given architecture.
func NewCache(arch *target.Architecture) *Cache {
	return &Cache{arch: arch, entries: map[cacheKey]*cacheEntry{}}
}

// Get returns the cached Adapter for (dir, sig), building it on first
// request. Concurrent callers requesting the same key block on the same
// build rather than racing to build it twice; callers requesting distinct
// keys proceed independently (the lock only spans the map lookup/insert,
// not the build itself, matching the design note that at-most-one build
// happens per key without serializing unrelated keys).
func (c *Cache) Get(dir Direction, sig kind.Sig) (*Adapter, error) {
	key := cacheKey{dir: dir, sig: sig.Key()}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		g := &Generator{Direction: dir, Arch: c.arch}
		entry.adapter, entry.err = g.Adapt(sig)
	})
	return entry.adapter, entry.err
}
