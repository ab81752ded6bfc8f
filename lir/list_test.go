// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lir

import (
	"testing"

	"github.com/go-interpreter/c1xgo/kind"
)

func TestListAppendAndAt(t *testing.T) {
	var l List
	i0 := l.Append(Instruction{Op: OpNop})
	i1 := l.Append(Instruction{Op: OpJump, Target: 3})
	if i0 != 0 || i1 != 1 {
		t.Fatalf("Append returned %d, %d, want 0, 1", i0, i1)
	}
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	if l.At(1).Target != 3 {
		t.Errorf("At(1).Target = %d, want 3", l.At(1).Target)
	}
}

func TestListSetMutatesInPlace(t *testing.T) {
	var l List
	l.Append(Instruction{Op: OpNop})
	l.Set(0, Instruction{Op: OpReturn})
	if l.At(0).Op != OpReturn {
		t.Errorf("Set did not mutate entry 0: got %v", l.At(0).Op)
	}
}

func TestListAllReturnsEveryInstruction(t *testing.T) {
	var l List
	l.Append(Instruction{Op: OpNop})
	l.Append(Instruction{Op: OpReturn})
	if got := len(l.All()); got != 2 {
		t.Errorf("len(All()) = %d, want 2", got)
	}
}

func TestPoolAssignsSequentialIDs(t *testing.T) {
	var p Pool
	v0 := p.NewVariable(kind.Int)
	v1 := p.NewVariable(kind.Long)
	if v0.Var == v1.Var {
		t.Errorf("two NewVariable calls returned the same VarID")
	}
	if p.Count() != 2 {
		t.Errorf("Count() = %d, want 2", p.Count())
	}
}

func TestOperandIsIllegalOnlyForZeroValue(t *testing.T) {
	var zero Operand
	if !zero.IsIllegal() {
		t.Errorf("zero-value Operand.IsIllegal() = false, want true")
	}
	c := NewConstant(kind.Int, 1)
	if c.IsIllegal() {
		t.Errorf("NewConstant(...).IsIllegal() = true, want false")
	}
}
