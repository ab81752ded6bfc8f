// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

import (
	"testing"

	"github.com/go-interpreter/c1xgo/methodtext"
)

func buildFrom(t *testing.T, src string) *IR {
	t.Helper()
	m, err := methodtext.Parse([]byte(src))
	if err != nil {
		t.Fatalf("methodtext.Parse: %v", err)
	}
	ir, err := Build(m, OSRNone)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ir
}

func TestBuildStraightLineMethodHasSingleBlock(t *testing.T) {
	ir := buildFrom(t, `(method "Holder.one()int" static
		(maxlocals 0) (maxstack 1)
		(code (const int 1) (return int)))`)

	if ir.NumBlocks() != 1 {
		t.Fatalf("NumBlocks() = %d, want 1", ir.NumBlocks())
	}
	if err := ir.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants: %v", err)
	}
	start := ir.Block(ir.StartBlock)
	if start.End.Kind != EndReturn {
		t.Errorf("start block End.Kind = %v, want EndReturn", start.End.Kind)
	}
}

func TestBuildBranchingMethodEndsInTwoWayIf(t *testing.T) {
	src := `(method "Holder.max(int,int)int" static
		(maxlocals 2) (maxstack 2)
		(code
			(load int 0)
			(load int 1)
			(ifcmp le 5)
			(load int 0)
			(return int)
			(load int 1)
			(return int)))`
	ir := buildFrom(t, src)

	if err := ir.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
	if ir.NumBlocks() < 3 {
		t.Errorf("NumBlocks() = %d, want at least 3 (entry + two arms)", ir.NumBlocks())
	}
	start := ir.Block(ir.StartBlock)
	if start.End.Kind != EndIf {
		t.Fatalf("start block End.Kind = %v, want EndIf", start.End.Kind)
	}
	if len(start.End.Successors) != 2 {
		t.Errorf("len(Successors) = %d, want 2", len(start.End.Successors))
	}
}

func TestBuildLoopHeaderCarriesPhiForStoredLocal(t *testing.T) {
	// A trivial counting loop: local 1 is stored inside the loop body, so
	// the header must carry a phi for it (spec.md §4.F loop-header rule).
	src := `(method "Holder.loop(int)int" static
		(maxlocals 2) (maxstack 2)
		(code
			(const int 0)
			(store int 1)
			(load int 1)
			(load int 0)
			(ifcmp ge 12)
			(load int 1)
			(const int 1)
			(add int)
			(store int 1)
			(goto 2)
			(load int 1)
			(return int)
			(load int 1)
			(return int)))`
	ir := buildFrom(t, src)

	if err := ir.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
	var sawLoopHeader bool
	for _, id := range ir.Blocks() {
		b := ir.Block(id)
		if !b.IsLive() {
			continue
		}
		if b.IsLoopHeader {
			sawLoopHeader = true
			if len(b.Phis) == 0 {
				t.Errorf("loop header block %d has no phis, want at least one for local 1", id)
			}
		}
	}
	if !sawLoopHeader {
		t.Errorf("no block was marked IsLoopHeader")
	}
}

func TestReversePostOrderStartsAtStartBlock(t *testing.T) {
	ir := buildFrom(t, `(method "Holder.one()int" static
		(maxlocals 0) (maxstack 1)
		(code (const int 1) (return int)))`)

	rpo := ir.ReversePostOrder()
	if len(rpo) == 0 || rpo[0] != ir.StartBlock {
		t.Errorf("ReversePostOrder()[0] = %v, want StartBlock %v", rpo, ir.StartBlock)
	}
}

func TestCheckInvariantsRejectsUnmatchedPredecessorEdge(t *testing.T) {
	ir := NewIR()
	b0 := ir.NewBlock()
	b1 := ir.NewBlock()
	ir.StartBlock = b0.ID
	b0.StateBefore = NewFrameState(1, 0, nil)
	b1.StateBefore = NewFrameState(1, 0, nil)
	b1.AddPredecessor(b0.ID)
	b1.AddPredecessor(b0.ID) // second predecessor never recorded as a successor edge

	phi := ir.NewValue(TagPhi)
	phi.Block = b1.ID
	phi.Inputs = []NodeID{NoNode}
	b1.Phis = append(b1.Phis, phi.ID)

	b0.End = BlockEnd{Kind: EndGoto, Successors: []NodeID{b1.ID}}
	b0.Successors = b0.End.Successors

	if err := ir.CheckInvariants(); err == nil {
		t.Errorf("CheckInvariants() = nil, want error for a predecessor with no matching successor edge")
	}
}
