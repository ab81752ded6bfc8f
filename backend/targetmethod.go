// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package backend lowers LIR into machine code and the side tables the
// surrounding runtime needs to execute, unwind, GC-scan, patch, and
// deoptimize the result (spec.md §4.I). The emitted record, TargetMethod,
// plays the role exec/internal/compile.NativeCodeUnit plays for wagon's
// JIT (a sealed, installable compiled method) generalized from "one flat
// []byte plus an asmBlock wrapper" into the full side-table surface
// spec.md §3 requires.
package backend

import "github.com/go-interpreter/c1xgo/method"

// CallSite records one direct or indirect call's position and the
// caller-side stack map describing which outgoing stack slots hold object
// references at the moment of the call (spec.md §4.I).
type CallSite struct {
	Pos            int
	CalleeMethod   *method.MethodRef
	OutgoingStackMap []bool
}

// RuntimeCallSite records a call to a numbered runtime routine rather than
// a compiled method.
type RuntimeCallSite struct {
	Pos              int
	RuntimeCallID    int32
	OutgoingStackMap []bool
}

// GlobalStubCallSite records a call to a shared stub (allocation,
// unresolved-symbol resolution, etc.), which additionally needs a register
// map since stubs may be reached from places without a full frame.
type GlobalStubCallSite struct {
	Pos     int
	StubID  int32
	RegMap  []bool
	StackMap []bool
}

// Safepoint records a position where execution may be interrupted for GC,
// along with the register and stack maps needed to scan roots there.
type Safepoint struct {
	Pos      int
	RegMap   []bool
	StackMap []bool
}

// DataReference records a position where a literal value (not a call
// target) was patched into the code stream — e.g. a boxed constant or a
// class-reference literal resolved into the reference-literal pool.
type DataReference struct {
	Pos      int
	Constant interface{}
}

// ExceptionHandlerEntry is one {throw-position, catch-position, catch-type}
// triple. CatchType == nil means catch-any (a finally block or a bare
// catch(Throwable)).
type ExceptionHandlerEntry struct {
	TryPos   int
	CatchPos int
	CatchType interface{}
}

// TargetMethod is the compiler's sealed output (spec.md §3 "Target
// Method", §4.I "Recorded side tables"). Once Emit returns it, every field
// is immutable except through the explicit patch operations below.
type TargetMethod struct {
	ClassMethodActor *method.Method

	Code      []byte
	FrameSize int32
	CodeStart uintptr // filled on install

	OptEntryOffset      int32
	BaselineEntryOffset int32

	// ReferenceMapTemplate is the single per-method register-reference-map
	// template every Safepoint/CallSite's RegMap/StackMap indexes into
	// (spec.md §3: "a single register-reference-map template").
	ReferenceMapTemplate []bool

	DirectCalls       []CallSite
	IndirectCalls     []CallSite
	RuntimeCalls      []RuntimeCallSite
	GlobalStubCalls   []GlobalStubCallSite
	Safepoints        []Safepoint
	DataReferences    []DataReference
	ExceptionHandlers []ExceptionHandlerEntry

	// StopPositions is a superset of Safepoints and every call site: every
	// position execution may be interrupted at (spec.md §4.I).
	StopPositions []int

	// InlineDataDescriptors is an opaque blob describing literal bytes
	// inlined between instructions (jump tables, switch data) so a
	// disassembler or GC scan can skip over them.
	InlineDataDescriptors []byte

	// ReferenceLiteralPool holds object/class references too large or too
	// volatile (not yet resolved) to inline as code-stream immediates.
	ReferenceLiteralPool []interface{}
}

// PatchCallSite rewrites the pc-relative displacement at offset to target
// newTarget. offset must be word-aligned such that the patch word does not
// straddle a 32-byte cache line (spec.md §4.I) — the runtime is expected to
// have suspended every thread that might be executing through this site
// before calling this, since the write is not atomic across cache lines.
func (tm *TargetMethod) PatchCallSite(offset int, newTarget int64) error {
	if err := checkPatchAlignment(offset); err != nil {
		return err
	}
	rel := int32(newTarget - int64(tm.CodeStart) - int64(offset) - 4)
	var shift uint
	for i := 0; i < 4; i++ {
		tm.Code[offset+i] = byte(uint32(rel) >> shift)
		shift += 8
	}
	return nil
}

// ForwardTo writes a relative unconditional jump at each of tm's entry
// points pointing at the corresponding entry of newMethod, so the runtime
// can atomically redirect callers after recompilation (spec.md §4.I).
func (tm *TargetMethod) ForwardTo(newMethod *TargetMethod) error {
	jumps := []struct{ from, to int32 }{
		{tm.OptEntryOffset, newMethod.OptEntryOffset},
		{tm.BaselineEntryOffset, newMethod.BaselineEntryOffset},
	}
	for _, j := range jumps {
		rel := int32(int64(newMethod.CodeStart)+int64(j.to)) - int32(int64(tm.CodeStart)+int64(j.from)+5)
		if int(j.from)+5 > len(tm.Code) {
			return errShortForward
		}
		tm.Code[j.from] = 0xE9 // JMP rel32
		var shift uint
		for i := 0; i < 4; i++ {
			tm.Code[j.from+1+int32(i)] = byte(uint32(rel) >> shift)
			shift += 8
		}
	}
	return nil
}
