// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// +build !appengine

// Package alloc provides an executable-memory bump allocator for the
// backend emitter's finished machine code. Grounded on
// exec/internal/compile's MMapAllocator contract (allocator_test.go):
// blocks of minAllocSize bytes, bump-allocated with allocationAlignment
// padding between entries, growing past minAllocSize only for a single
// allocation that doesn't fit in one block.
package alloc

import (
	"fmt"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

const (
	// minAllocSize is the size of one mmap'd block, matching
	// allocator_test.go's TestMMapAllocator expectations (32KiB).
	minAllocSize = 32 * 1024

	// allocationAlignment pads every entry to keep subsequent jump targets
	// aligned, matching allocator_test.go's consumed/remaining arithmetic
	// (128-byte alignment).
	allocationAlignment = 128
)

// block is one mmap'd executable region and its bump-allocation cursor.
type block struct {
	mem       mmap.MMap
	consumed  uint32
	remaining uint32
}

// Allocator is a process-wide (or per-CompilerContext) bump allocator over
// mmap'd executable pages. Each TargetMethod's code lives in one
// contiguous allocation so PatchCallSite can always compute a stable
// address for the method's entry points.
type Allocator struct {
	blocks []*block
	last   *block
}

// Allocation names a finished code region: its backing address and the
// byte slice the emitter can write into (only valid until the next Close).
type Allocation struct {
	Addr uintptr
	Code []byte
}

// AllocateExec copies code into executable memory and returns its final
// address. A block that can't fit code is retired (but not unmapped —
// Close releases every block this Allocator has ever handed out) and a
// fresh one sized to fit code is mapped.
func (a *Allocator) AllocateExec(code []byte) (Allocation, error) {
	need := align(uint32(len(code)), allocationAlignment)
	if a.last == nil || a.last.remaining < need {
		size := minAllocSize
		if int(need) > size {
			size = int(need)
		}
		b, err := newBlock(size)
		if err != nil {
			return Allocation{}, fmt.Errorf("alloc: mmap failed: %w", err)
		}
		a.blocks = append(a.blocks, b)
		a.last = b
	}
	b := a.last
	off := b.consumed
	copy(b.mem[off:], code)
	b.consumed += need
	b.remaining -= need
	return Allocation{
		Addr: addrOf(b.mem) + uintptr(off),
		Code: b.mem[off : off+uint32(len(code))],
	}, nil
}

// Close unmaps every block this Allocator has handed out. Any Allocation
// address returned earlier is invalid afterward.
func (a *Allocator) Close() error {
	var firstErr error
	for _, b := range a.blocks {
		if err := b.mem.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.blocks = nil
	a.last = nil
	return firstErr
}

func newBlock(size int) (*block, error) {
	m, err := mmap.MapRegion(nil, size, mmap.RDWR|mmap.EXEC, mmap.ANON, 0)
	if err != nil {
		return nil, err
	}
	return &block{mem: m, remaining: uint32(size)}, nil
}

func align(n, a uint32) uint32 {
	return (n + a - 1) &^ (a - 1)
}

// addrOf returns the address of m's backing array. mmap.MMap is a []byte
// over memory the kernel placed, so its data pointer is a stable address
// for as long as the mapping lives (until Close/Unmap).
func addrOf(m mmap.MMap) uintptr {
	return uintptr(unsafe.Pointer(&m[0]))
}
