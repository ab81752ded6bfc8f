// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

import "fmt"

// IR is a rooted, cyclic graph with a distinguished start block. Per
// spec.md §9, the IR exclusively owns all blocks and instructions via a
// per-compilation arena; cross references are NodeID indices, never
// pointers that would hold the arena's lifetime hostage. The arena frees
// as a unit at compilation exit (by simply dropping the IR value) whether
// the compilation succeeded or bailed out.
type IR struct {
	values []Value
	blocks []Block

	StartBlock NodeID

	// scopes holds the inlining chain, outermost first; scopes[0] is the
	// root method being compiled (spec.md §4.F "Inlining").
	scopes []*IRScope
}

// IRScope is one level of an inlining chain: a nested invocation pushes a
// new IRScope with a child FrameState whose locals are the inlined call's
// arguments (spec.md §4.F).
type IRScope struct {
	Parent     *IRScope
	MethodRef  interface{}
	CallerBCI  int // bytecode index of the call site in Parent, -1 for the root scope
	MaxLocals  int
	MaxStack   int

	// Snapshots holds one FrameState copy per debug-info site recorded in
	// this scope, indexed by Value.FrameStateIdx.
	Snapshots []*FrameState
}

// RecordSnapshot appends a copy of fs to the scope's snapshot list and
// returns its index, for use as a Value's FrameStateIdx.
func (s *IRScope) RecordSnapshot(fs *FrameState) int {
	s.Snapshots = append(s.Snapshots, fs.Copy())
	return len(s.Snapshots) - 1
}

// NewIR creates an empty arena with no blocks yet; the builder populates it.
func NewIR() *IR {
	return &IR{StartBlock: NoNode}
}

// NewValue allocates and returns a fresh Value in the arena, wired into its
// owning block's instruction chain by the caller.
func (ir *IR) NewValue(tag Tag) *Value {
	id := NodeID(len(ir.values))
	ir.values = append(ir.values, Value{ID: id, Tag: tag, Next: NoNode, FrameStateIdx: -1})
	return &ir.values[id]
}

// Value returns a pointer to the value at id. Pointers returned by Value
// and NewValue are only stable until the next NewValue call may reallocate
// the backing slice; callers that need to retain a reference across
// allocations should store the NodeID instead.
func (ir *IR) Value(id NodeID) *Value {
	if id == NoNode {
		return nil
	}
	return &ir.values[id]
}

// NumValues returns the number of Values allocated so far.
func (ir *IR) NumValues() int { return len(ir.values) }

// NewBlock allocates and returns a fresh Block in the arena.
func (ir *IR) NewBlock() *Block {
	id := NodeID(len(ir.blocks))
	ir.blocks = append(ir.blocks, Block{ID: id, First: NoNode, Last: NoNode})
	return &ir.blocks[id]
}

// Block returns a pointer to the block at id.
func (ir *IR) Block(id NodeID) *Block {
	if id == NoNode {
		return nil
	}
	return &ir.blocks[id]
}

// NumBlocks returns the number of blocks allocated so far.
func (ir *IR) NumBlocks() int { return len(ir.blocks) }

// Blocks returns every block's NodeID, in allocation order (not
// necessarily reverse-post-order; callers needing RPO should use
// ReversePostOrder).
func (ir *IR) Blocks() []NodeID {
	ids := make([]NodeID, len(ir.blocks))
	for i := range ids {
		ids[i] = NodeID(i)
	}
	return ids
}

// PushScope enters a new inlining scope.
func (ir *IR) PushScope(s *IRScope) { ir.scopes = append(ir.scopes, s) }

// PopScope leaves the current inlining scope.
func (ir *IR) PopScope() {
	if len(ir.scopes) > 0 {
		ir.scopes = ir.scopes[:len(ir.scopes)-1]
	}
}

// CurrentScope returns the innermost active inlining scope, or nil if none.
func (ir *IR) CurrentScope() *IRScope {
	if len(ir.scopes) == 0 {
		return nil
	}
	return ir.scopes[len(ir.scopes)-1]
}

// AppendToBlock links v onto the end of b's instruction chain.
func (ir *IR) AppendToBlock(b *Block, v *Value) {
	v.Block = b.ID
	if b.First == NoNode {
		b.First = v.ID
	} else {
		ir.Value(b.Last).Next = v.ID
	}
	b.Last = v.ID
}

// ReversePostOrder computes a reverse-post-order traversal of reachable
// blocks starting at ir.StartBlock, the order the LIR generator walks in
// (spec.md §4.H "in reverse post-order over blocks").
func (ir *IR) ReversePostOrder() []NodeID {
	if ir.StartBlock == NoNode {
		return nil
	}
	visited := make([]bool, len(ir.blocks))
	var postOrder []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range ir.Block(id).Successors {
			visit(s)
		}
		postOrder = append(postOrder, id)
	}
	visit(ir.StartBlock)
	rpo := make([]NodeID, len(postOrder))
	for i, id := range postOrder {
		rpo[len(postOrder)-1-i] = id
	}
	return rpo
}

// CheckInvariants verifies the spec.md §8 structural invariants (1-2) that
// are cheap to check after the graph is frozen: predecessor-count/edge
// agreement and phi arity. Build runs it on every graph it returns, and
// compiler.Compile runs it again before LIR generation.
func (ir *IR) CheckInvariants() error {
	predCount := make(map[NodeID]int)
	for _, id := range ir.Blocks() {
		b := ir.Block(id)
		if !b.IsLive() {
			continue
		}
		for _, s := range b.Successors {
			predCount[s]++
		}
	}
	for _, id := range ir.Blocks() {
		b := ir.Block(id)
		if !b.IsLive() {
			continue
		}
		if got, want := len(b.Predecessors), predCount[id]; got != want {
			return fmt.Errorf("hir: block %d has %d recorded predecessors, %d successor edges target it", id, got, want)
		}
		for _, phiID := range b.Phis {
			v := ir.Value(phiID)
			if got, want := len(v.Inputs), len(b.Predecessors); got != want {
				return fmt.Errorf("hir: phi %d in block %d has arity %d, want %d", v.ID, id, got, want)
			}
		}
	}
	return nil
}
