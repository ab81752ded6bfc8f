// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hir implements the High-level IR: a control-flow graph of basic
// blocks whose instructions form a value-based, SSA-like graph with
// explicit phi nodes (spec.md §3, §4.E).
//
// Ownership model (spec.md §9 "Cyclic IR graph"): every Value and Block
// lives in a per-compilation arena (IR.values / IR.blocks) and is addressed
// by a dense integer NodeID, never by pointer. This is the same "own a flat
// slice, cross-reference by index" shape disasm.Disassembly.Code []Instr
// uses (disasm/disasm.go), generalized from a single flat instruction slice
// per function to an arena shared by both blocks and the values inside
// them.
package hir

import (
	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/lir"
)

// NodeID addresses a Value within one IR's arena. NoNode is the sentinel
// for "no such value" (e.g. an unset phi input before the predecessor was
// known).
type NodeID int32

// NoNode is the sentinel NodeID meaning "absent".
const NoNode NodeID = -1

// Tag is the closed tag set of HIR value nodes (spec.md §3, abridged list).
type Tag uint8

const (
	TagConstant Tag = iota
	TagLocal
	TagPhi
	TagInvoke
	TagLoadField
	TagStoreField
	TagLoadIndexed
	TagStoreIndexed
	TagArrayLength
	TagCheckCast
	TagInstanceOf
	TagMonitorEnter
	TagMonitorExit
	TagNewInstance
	TagNewTypeArray
	TagNewObjectArray
	TagNewMultiArray
	TagArithmeticOp
	TagShiftOp
	TagLogicOp
	TagNegate
	TagConvert
	TagCompare
	TagIf
	TagIfOp
	TagGoto
	TagReturn
	TagThrow
	TagLookupSwitch
	TagTableSwitch
	TagNullCheck
	TagExceptionObject
	TagOsrEntry
	TagBase
	TagIntrinsic
	TagLoadPointer
	TagStorePointer
	TagUnsafeGet
	TagUnsafePut
	TagMemoryBarrier
	TagSafepoint
	TagHere
	TagInfo
	TagUnsafeCast
	TagStackAllocate
	TagMonitorAddress
)

// Flag is one bit of a Value's mutable flag set (spec.md §3).
type Flag uint16

const (
	FlagLive Flag = 1 << iota
	FlagNonNull
	FlagNoBoundsCheck
	FlagNoReadBarrier
	FlagNoWriteBarrier
	FlagNoStoreCheck
	FlagLiveValue
)

// Has reports whether every bit in want is set.
func (f Flag) Has(want Flag) bool { return f&want == want }

// Value is one HIR node. Every Value carries an immutable Kind, a mutable
// flag set, an optional result operand assigned once during LIR generation
// (spec.md invariant: "For every Live instruction, if it is used as a
// value, its operand is set before any consumer is emitted"), and a Next
// link placing it within its owning block's instruction chain.
type Value struct {
	ID    NodeID
	Tag   Tag
	Kind  kind.Kind
	Flags Flag

	// Block is the owning BlockBegin's NodeID.
	Block NodeID
	// Next continues the owning block's instruction chain; NoNode at the
	// tail (the block's BlockEnd, which is itself the final Value in the
	// chain, conceptually).
	Next NodeID

	// Inputs are the NodeIDs of values this instruction consumes (operand
	// order is tag-specific; see the per-tag Aux payload for which slot
	// means what when order alone is ambiguous).
	Inputs []NodeID

	// FrameStateIdx indexes the owning IRScope's FrameState snapshots; -1
	// if this instruction carries no debug info (spec.md §3 invariant:
	// every safepoint/call/trapping instruction must reference one).
	FrameStateIdx int

	// Operand is the LIR operand assigned to this value's result during
	// LIR generation; its Tag is lir.Illegal until then.
	Operand lir.Operand

	// Aux carries tag-specific immediate data (constant bit pattern, field
	// offset, array element kind, branch condition, switch table, intrinsic
	// id, ...), mirroring disasm.Instr's own Immediates []interface{} field
	// (disasm/disasm.go) generalized to a typed payload per tag instead of
	// an untyped slice.
	Aux interface{}
}

// IsLive reports whether this value is still reachable/used.
func (v *Value) IsLive() bool { return v.Flags.Has(FlagLive) }

// --- Aux payload types, one per tag family that needs extra data ---

// ConstantAux holds a constant's raw bit pattern.
type ConstantAux struct{ Bits uint64 }

// LocalAux names a FrameState local slot index.
type LocalAux struct{ SlotIndex int }

// FieldAux describes a field access site.
type FieldAux struct {
	Offset   int32
	Volatile bool
	FieldKind kind.Kind
}

// IndexedAux describes an array element access site.
type IndexedAux struct {
	ElemKind       kind.Kind
	NeedsBoundsChk bool
	NeedsStoreChk  bool // StoreIndexed into an object array only
}

// ArithAux names the arithmetic/shift/logic opcode (e.g. "add", "shl").
type ArithAux struct{ Op string }

// ConvertAux names the source/target kinds of a Convert node.
type ConvertAux struct{ From, To kind.Kind }

// CompareAux names the comparison condition a Compare node computes.
type CompareAux struct{ Condition string }

// IfAux describes a two-way branch's true/false successor blocks.
type IfAux struct {
	Condition        string
	TrueSucc, FalseSucc NodeID
}

// SwitchAux describes a LookupSwitch/TableSwitch's keys and successors.
type SwitchAux struct {
	Keys       []int32 // absent (nil) for TableSwitch, whose keys are dense from LowKey
	LowKey     int32   // TableSwitch only
	Successors []NodeID
	Default    NodeID
}

// InvokeAux describes a call site.
type InvokeAux struct {
	MethodRef interface{}
	IsVirtual bool
	IsStatic  bool
}

// NewAux describes an allocation site.
type NewAux struct {
	TypeRef  interface{}
	ElemKind kind.Kind // for array allocations
	Dims     int       // for NewMultiArray
}

// IntrinsicAux names a recognized intrinsic (spec.md §4.F).
type IntrinsicAux struct{ Name string }

// UnsafeAux describes a raw-pointer / Unsafe.* access.
type UnsafeAux struct{ AccessKind kind.Kind }
