// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lir

import "github.com/go-interpreter/c1xgo/target"

// OpCode is the closed set of LIR operations. Unlike HIR's value graph,
// LIR is already a flat instruction list — the same "rewrite a structured
// program into a linear sequence with explicit jumps" move
// exec/internal/compile/compile.go performs on WebAssembly block structure,
// generalized here from "one compile pass over wasm opcodes" to "one
// generation pass over arbitrary HIR".
type OpCode uint8

const (
	OpNop OpCode = iota
	OpLabel
	OpMove
	OpParallelMove // resolves pending phi-moves at a block exit, spec.md §4.H

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpUShr
	OpNeg

	OpConvert
	OpCompare

	OpJump
	OpBranch      // conditional branch on a Condition, target is a Label
	OpSwitchRange // one compare-and-branch step of a lowered switch, spec.md §4.H
	OpTableJump   // jump-table dispatch on an index, the GenTableRanges=false fallback is per-case OpBranch chains instead

	OpCall
	OpReturn

	OpLoad
	OpStore

	OpNullCheck
	OpBoundsCheck
	OpStoreCheck
	OpDivZeroCheck

	OpBarrier // memory barrier, spec.md §4.H volatile accesses
	OpXir     // embeds a xir snippet (object ops, calls, safepoints — spec.md §4.G)
	OpSafepoint
)

func (c OpCode) String() string {
	names := [...]string{
		"nop", "label", "move", "parallel_move",
		"add", "sub", "mul", "div", "rem", "and", "or", "xor", "shl", "shr", "ushr", "neg",
		"convert", "compare",
		"jump", "branch", "switch_range", "table_jump",
		"call", "return",
		"load", "store",
		"null_check", "bounds_check", "store_check", "div_zero_check",
		"barrier", "xir", "safepoint",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// Condition is the comparison predicate an OpBranch or OpCompare tests.
type Condition uint8

const (
	CondEQ Condition = iota
	CondNE
	CondLT
	CondLE
	CondGT
	CondGE
	CondAboveZero // tests for a nonzero value irrespective of sign, used by jmpnz-style lowering
	CondBelowZero
)

// CallKind distinguishes the four call-site shapes spec.md §4.I records
// distinct side tables for.
type CallKind uint8

const (
	CallDirect CallKind = iota
	CallIndirect
	CallRuntime
	CallGlobalStub
)

// LabelID names a Label within one compilation's LIR (see asm.Label for the
// binding/patch mechanism the backend emitter uses to realize these).
type LabelID int32

// CallTarget describes what an OpCall op invokes.
type CallTarget struct {
	Kind CallKind
	// Direct/Indirect: a runtime-opaque method reference; Runtime: a
	// numeric runtime-call id; GlobalStub: a stub identifier. Exactly one
	// is meaningful depending on Kind.
	MethodRef   interface{}
	RuntimeID   int32
	StubID      int32
	// PointerArgs marks which outgoing stack-slot operands in Inputs are
	// Object-kind, so the emitter's stack map matches spec.md §8 property 5.
	PointerArgs []bool
}

// Instruction is one LIR op: an opcode, its operand inputs, an optional
// result, and bookkeeping that varies by opcode (branch target, condition,
// call target, barrier set, xir template reference, frame-state index for
// deopt debug info).
type Instruction struct {
	Op OpCode

	Result Operand
	Inputs []Operand

	// OpBranch / OpJump / OpSwitchRange
	Target    LabelID
	Condition Condition

	// OpCall
	Call CallTarget

	// OpBarrier
	Access target.AccessKind

	// OpXir: the name of the runtime-supplied template this snippet
	// instantiates (see package xir).
	XirTemplate string

	// FrameStateIdx indexes into the owning IRScope's recorded FrameState
	// snapshots (hir.FrameState), required on every op that may trap or
	// that is itself a safepoint/call (spec.md §3 invariants).
	FrameStateIdx int
	HasDebugInfo  bool
}
