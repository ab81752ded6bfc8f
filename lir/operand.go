// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lir implements the low-level IR: a linear, target-abstract
// operation list over virtual operands (spec.md §4.C, §4.H). The
// HIR-visitor generator that produces it is hir.GenerateLIR (hir/lirgen.go).
package lir

import (
	"fmt"

	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/target"
)

// OperandTag is the closed tag set of the LIR operand model (spec.md §4.C).
// This generalizes golang-asm's obj.Addr (obj.TYPE_REG/TYPE_CONST/TYPE_MEM,
// as used throughout exec/internal/compile/backend_amd64.go) into a
// target-independent tagged variant consumed before register allocation.
type OperandTag uint8

const (
	// Illegal is the zero value: no operand has been assigned yet.
	Illegal OperandTag = iota
	ConstantTag
	VariableTag
	RegisterTag
	StackSlotTag
	AddressTag
)

// VarID names a virtual variable within one compilation's operand pool.
type VarID int32

// Operand is the tagged-variant LIR operand: a constant, a virtual
// variable (pre-allocation), a physical register (post-allocation), a
// frame stack slot, or a computed address expression.
type Operand struct {
	Tag  OperandTag
	Kind kind.Kind

	// ConstantTag
	ConstValue uint64 // raw bit pattern; interpret via Kind

	// VariableTag
	Var VarID

	// RegisterTag
	Reg target.Register

	// StackSlotTag
	SlotOffset   int32 // byte offset in the frame
	InCallerFrame bool

	// AddressTag: base + index*scale + displacement
	Base         *Operand
	Index        *Operand // nil if no index register is used
	Scale        int8     // one of 1, 2, 4, 8
	Displacement int32
}

// NewConstant builds a constant operand carrying raw bits of the given kind.
func NewConstant(k kind.Kind, bits uint64) Operand {
	return Operand{Tag: ConstantTag, Kind: k, ConstValue: bits}
}

// NewVariable builds a virtual-register operand of the given kind. Its
// physical assignment happens during register allocation (left abstract
// here per spec.md §4 backend contract).
func NewVariable(k kind.Kind, id VarID) Operand {
	return Operand{Tag: VariableTag, Kind: k, Var: id}
}

// NewRegister builds a physical-register operand.
func NewRegister(k kind.Kind, r target.Register) Operand {
	return Operand{Tag: RegisterTag, Kind: k, Reg: r}
}

// NewStackSlot builds a frame stack-slot operand.
func NewStackSlot(k kind.Kind, offset int32, inCallerFrame bool) Operand {
	return Operand{Tag: StackSlotTag, Kind: k, SlotOffset: offset, InCallerFrame: inCallerFrame}
}

// NewAddress builds an address operand: base + index*scale + displacement.
// scale must be one of 1, 2, 4, 8 when index is non-nil.
func NewAddress(k kind.Kind, base Operand, index *Operand, scale int8, displacement int32) Operand {
	return Operand{
		Tag: AddressTag, Kind: k,
		Base: &base, Index: index, Scale: scale, Displacement: displacement,
	}
}

// IsIllegal reports whether the operand has never been assigned — the
// sentinel the source system used pervasively, kept here only for the
// Illegal kind/operand boundary case per spec.md §9 ("Sentinel vs optional").
func (o Operand) IsIllegal() bool { return o.Tag == Illegal }

func (o Operand) String() string {
	switch o.Tag {
	case ConstantTag:
		return fmt.Sprintf("#%d:%s", o.ConstValue, o.Kind)
	case VariableTag:
		return fmt.Sprintf("v%d:%s", o.Var, o.Kind)
	case RegisterTag:
		return fmt.Sprintf("reg%d:%s", o.Reg, o.Kind)
	case StackSlotTag:
		caller := ""
		if o.InCallerFrame {
			caller = "(caller)"
		}
		return fmt.Sprintf("slot[%d]%s:%s", o.SlotOffset, caller, o.Kind)
	case AddressTag:
		if o.Index != nil {
			return fmt.Sprintf("[%s+%s*%d+%d]:%s", o.Base, o.Index, o.Scale, o.Displacement, o.Kind)
		}
		return fmt.Sprintf("[%s+%d]:%s", o.Base, o.Displacement, o.Kind)
	default:
		return "illegal"
	}
}

// Pool allocates fresh virtual variables for one compilation, the operand
// model's equivalent of wagon's per-compilation arena allocation style.
type Pool struct {
	next VarID
}

// NewVariable allocates and returns a new virtual-variable operand of kind k.
func (p *Pool) NewVariable(k kind.Kind) Operand {
	id := p.next
	p.next++
	return NewVariable(k, id)
}

// Count returns how many variables have been allocated from this pool.
func (p *Pool) Count() int { return int(p.next) }
