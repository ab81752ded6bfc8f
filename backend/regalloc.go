// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"github.com/go-interpreter/c1xgo/lir"
	"github.com/go-interpreter/c1xgo/target"
)

// assignment resolves a lir.VariableTag operand to either a physical
// register or a frame stack slot.
type assignment struct {
	reg     target.Register
	isReg   bool
	slotOff int32
}

// allocator assigns every virtual variable a physical location. Spec.md
// §4.I leaves the allocation strategy itself abstract ("via an operand
// pool + linear-scan style assignment left abstract here"); this is a
// single-pass first-come-first-served variant of linear scan: variables
// are handed out registers in first-use order from the architecture's
// allocatable set, and once that set is exhausted the rest spill to frame
// slots. It has no notion of live-range end, so a register is never
// reused once assigned — simple, and correct, at the cost of register
// pressure a real linear scan (with interval splitting) would relieve.
type allocator struct {
	arch   *target.Architecture
	assign map[lir.VarID]assignment
	nextReg int
	nextSlot int32
}

func newAllocator(arch *target.Architecture) *allocator {
	return &allocator{arch: arch, assign: map[lir.VarID]assignment{}}
}

// resolve returns op unchanged unless it is a VariableTag operand, in
// which case it returns the allocated Register or StackSlot operand for
// that variable, allocating one on first sight.
func (a *allocator) resolve(op lir.Operand) lir.Operand {
	switch op.Tag {
	case lir.VariableTag:
		asg := a.assignmentFor(op.Var)
		if asg.isReg {
			return lir.NewRegister(op.Kind, asg.reg)
		}
		return lir.NewStackSlot(op.Kind, asg.slotOff, false)
	case lir.AddressTag:
		base := a.resolve(*op.Base)
		out := op
		out.Base = &base
		if op.Index != nil {
			idx := a.resolve(*op.Index)
			out.Index = &idx
		}
		return out
	default:
		return op
	}
}

func (a *allocator) assignmentFor(v lir.VarID) assignment {
	if asg, ok := a.assign[v]; ok {
		return asg
	}
	regs := a.arch.Registers.Allocatable
	var asg assignment
	if a.nextReg < len(regs) {
		asg = assignment{reg: regs[a.nextReg], isReg: true}
		a.nextReg++
	} else {
		asg = assignment{slotOff: a.nextSlot}
		a.nextSlot += int32(a.arch.OptSlotSize)
	}
	a.assign[v] = asg
	return asg
}

// frameSize returns the number of spill-slot bytes this allocation needs,
// beyond the locals/argument area the caller reserves separately.
func (a *allocator) frameSize() int32 { return a.nextSlot }
