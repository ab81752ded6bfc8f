// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

import "github.com/go-interpreter/c1xgo/kind"

// FrameState is an immutable snapshot of local slots plus an operand stack,
// plus a link to the caller frame for an inlined call chain (spec.md §3).
// Snapshots are attached as debug info at every safepoint, call, and
// potentially-trapping instruction.
//
// Grounded on validate.verifyBody's abstract operand stack (validate/vm.go,
// validate/operand.go) and disasm.StackInfo's stack-depth bookkeeping
// (disasm/disasm.go): both track "what's on an abstract stack right now",
// generalized here into an immutable, hash-consable snapshot type instead
// of a single mutable cursor.
type FrameState struct {
	// Locals holds one entry per declared local slot; category-2 locals
	// occupy two consecutive entries, the upper one NoNode.
	Locals []NodeID
	// Stack holds the operand stack, bottom to top.
	Stack []NodeID

	// Caller is the FrameState active in the enclosing scope at the point
	// this scope was entered by inlining; nil at the outermost scope.
	Caller *FrameState

	// MaxLocals and MaxStack are this scope's declared frame bounds,
	// checked against len(Locals)/len(Stack) by the spec.md §8 invariant 4.
	MaxLocals, MaxStack int
}

// Depth returns the current operand stack depth.
func (fs *FrameState) Depth() int { return len(fs.Stack) }

// Push appends v to the operand stack.
func (fs *FrameState) Push(v NodeID) { fs.Stack = append(fs.Stack, v) }

// Pop removes and returns the top of the operand stack.
func (fs *FrameState) Pop() NodeID {
	n := len(fs.Stack)
	v := fs.Stack[n-1]
	fs.Stack = fs.Stack[:n-1]
	return v
}

// Top returns the top of the operand stack without removing it.
func (fs *FrameState) Top() NodeID { return fs.Stack[len(fs.Stack)-1] }

// Local returns the value currently bound to local slot i.
func (fs *FrameState) Local(i int) NodeID { return fs.Locals[i] }

// SetLocal rebinds local slot i. Category-2 kinds must be written through
// SetLocalWide so the upper slot is kept Illegal.
func (fs *FrameState) SetLocal(i int, v NodeID) { fs.Locals[i] = v }

// SetLocalWide binds a category-2 local occupying slots i and i+1.
func (fs *FrameState) SetLocalWide(i int, v NodeID, illegal NodeID) {
	fs.Locals[i] = v
	fs.Locals[i+1] = illegal
}

// Copy returns an independent snapshot with the same contents — building
// blocks append a new snapshot rather than mutating a shared one in place
// (spec.md §9 "FrameState sharing": "Mutation during build appends a new
// snapshot rather than editing in place").
func (fs *FrameState) Copy() *FrameState {
	cp := &FrameState{
		Locals:    append([]NodeID(nil), fs.Locals...),
		Stack:     append([]NodeID(nil), fs.Stack...),
		Caller:    fs.Caller,
		MaxLocals: fs.MaxLocals,
		MaxStack:  fs.MaxStack,
	}
	return cp
}

// NewFrameState allocates an empty frame of the given bounds, all locals
// initially kind.Illegal (NoNode).
func NewFrameState(maxLocals, maxStack int, caller *FrameState) *FrameState {
	locals := make([]NodeID, maxLocals)
	for i := range locals {
		locals[i] = NoNode
	}
	return &FrameState{
		Locals:    locals,
		Stack:     make([]NodeID, 0, maxStack),
		Caller:    caller,
		MaxLocals: maxLocals,
		MaxStack:  maxStack,
	}
}

// illegalKind is the kind the NoNode upper half of a category-2 local
// stands for, matching kind.Illegal's "absence with semantic meaning" role
// (spec.md §9).
var illegalKind = kind.Illegal
