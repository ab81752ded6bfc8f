// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compilerctx owns the process-wide state spec.md §5 requires to
// survive across independent, concurrently running compilations: the
// adapter cache, the global-stub cache, and the immutable compiler
// Options every compilation reads. Grounded on the general shape of
// wagon's *VM holding shared mutable state (compiledFuncs, funcTable)
// across a single compilation's lifetime — generalized here to
// process-wide scope per spec.md §5, since wagon's own state is scoped to
// one VM rather than shared across VMs.
package compilerctx

import (
	"sync"

	"github.com/go-interpreter/c1xgo/adapter"
	"github.com/go-interpreter/c1xgo/target"
)

// StubID identifies one entry in the global-stub cache: a runtime-call id,
// an enum value, or a xir template reference (spec.md §5).
type StubID struct {
	Kind string // "runtime_call", "xir_template", "enum"
	Name string
	ID   int32
}

// Context is the shared, process-wide state a Compile call reads and
// writes. One Context is created at process startup and handed to every
// compilation; its internals are safe for concurrent use by independent
// compilations (spec.md §5 "Scheduling model").
type Context struct {
	Arch    *target.Architecture
	Options *Options

	Adapters *adapter.Cache

	stubMu sync.Mutex
	stubs  map[StubID]*stubEntry
}

type stubEntry struct {
	once sync.Once
	code []byte
	err  error
}

// New creates a Context for the given architecture and options.
func New(arch *target.Architecture, opts *Options) *Context {
	return &Context{
		Arch:     arch,
		Options:  opts,
		Adapters: adapter.NewCache(arch),
		stubs:    map[StubID]*stubEntry{},
	}
}

// Stub returns the cached machine code for id, building it with build on
// first request. Like adapter.Cache, stubMu is held only to look up or
// insert id's entry; the build runs outside the lock under the entry's
// sync.Once, so at most one builder runs per id and every caller gets its
// result.
func (c *Context) Stub(id StubID, build func() ([]byte, error)) ([]byte, error) {
	c.stubMu.Lock()
	entry, ok := c.stubs[id]
	if !ok {
		entry = &stubEntry{}
		c.stubs[id] = entry
	}
	c.stubMu.Unlock()

	entry.once.Do(func() {
		entry.code, entry.err = build()
	})
	return entry.code, entry.err
}
