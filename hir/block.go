// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

import "github.com/go-interpreter/c1xgo/lir"

// EndKind is the closed set of BlockEnd variants (spec.md §3).
type EndKind uint8

const (
	EndGoto EndKind = iota
	EndIf
	EndLookupSwitch
	EndTableSwitch
	EndReturn
	EndThrow
	// EndPEI terminates a block at a potentially-excepting instruction
	// (a call, a division, an array/field/cast/allocation op) that lies
	// within a try range: Successors[0] is the normal fall-through,
	// ExceptionEdges names the handler block(s) it may transfer control to
	// instead (spec.md §4.F, §8 scenario 4).
	EndPEI
	EndBase
)

// ExceptionEdge names one handler block a PEI terminator may transfer
// control to, and the catch type guarding that block (nil means catch-any).
type ExceptionEdge struct {
	HandlerBlock NodeID
	CatchType    interface{}
}

// BlockEnd records the terminator of a Block and the successor edges it
// implies. Successor order matters for phi arity (spec.md §3 invariant:
// "Every phi node in S has arity |predecessors(S)|").
type BlockEnd struct {
	Kind EndKind

	// Condition value for EndIf (a NodeID into the owning IR), table for
	// EndLookupSwitch/EndTableSwitch.
	Condition NodeID
	Switch    *SwitchAux

	// ExceptionEdges is populated for Kind == EndPEI only; see EndPEI.
	ExceptionEdges []ExceptionEdge

	Successors []NodeID // BlockBegin NodeIDs, in successor order
}

// Block is a BlockBegin together with the BlockEnd that terminates its
// instruction chain (spec.md §3, "Block (BlockBegin / BlockEnd)").
//
// Grounded on disasm.BlockInfo (disasm/disasm.go: Start/Signature/PairIndex)
// and the block map exec/internal/compile.Compile's block rewriter builds
// over a map[int]*block keyed by nesting depth — generalized from a
// depth-keyed map (only valid while a single linear structured-bytecode
// scan is live) into first-class graph nodes with an explicit predecessor
// list that survives the whole compilation.
type Block struct {
	ID NodeID

	// First is the first Value in this block's instruction chain
	// (conceptually the BlockBegin marker itself); Last is the final
	// ordinary instruction before End.
	First, Last NodeID
	End         BlockEnd

	StateBefore *FrameState

	// Phis holds every TagPhi value whose Block is this block, in no
	// particular order. Phis are never linked into First/Last's chain
	// (they are created and referenced purely through FrameState slots
	// before the block itself is ever built, sometimes before it even has
	// a single ordinary instruction) so this is the only way to enumerate
	// them; the LIR generator reads it to assign phi operands and to
	// resolve predecessor-side moves.
	Phis []NodeID

	Predecessors []NodeID
	Successors   []NodeID // kept in sync with End.Successors

	IsLoopHeader     bool
	IsExceptionEntry bool

	// LIR is populated once this block has been lowered by the LIR
	// generator (spec.md §4.E: "an optional LIR list once lowered").
	LIR *lir.List

	// BCI is the bytecode index this block begins at, used by BlockMap
	// discovery and by diagnostics.
	BCI int
}

// AddPredecessor records pred as a predecessor of b exactly once per edge,
// maintaining the spec.md §8 invariant 1 bookkeeping (the reverse map is
// kept consistent with the forward successor edges as they're created).
func (b *Block) AddPredecessor(pred NodeID) {
	b.Predecessors = append(b.Predecessors, pred)
}

// IsLive reports whether b has been visited (has a recorded StateBefore).
func (b *Block) IsLive() bool { return b.StateBefore != nil }
