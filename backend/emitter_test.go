// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"testing"

	"github.com/go-interpreter/c1xgo/hir"
	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/method"
	"github.com/go-interpreter/c1xgo/target"
)

// buildPEIGraph hand-builds a three-block graph a bytecode-driven Build
// cannot easily isolate: a try block ending in hir.EndPEI with one
// exception edge to a handler block, plus a normal fall-through block.
// Mirrors hir.TestCheckInvariantsRejectsUnmatchedPredecessorEdge's precedent of
// constructing *hir.IR directly for cases outside Build's own reach.
func buildPEIGraph(t *testing.T) *hir.IR {
	t.Helper()
	ir := hir.NewIR()
	start := ir.NewBlock()
	cont := ir.NewBlock()
	handler := ir.NewBlock()
	ir.StartBlock = start.ID

	start.StateBefore = hir.NewFrameState(0, 0, nil)
	cont.StateBefore = hir.NewFrameState(0, 0, nil)
	handler.StateBefore = hir.NewFrameState(0, 0, nil)
	handler.IsExceptionEntry = true

	call := ir.NewValue(hir.TagInvoke)
	call.Kind = kind.Void
	call.Flags |= hir.FlagLive
	call.Aux = hir.InvokeAux{MethodRef: &method.MethodRef{Holder: "Holder", Name: "callee", IsStatic: true}, IsStatic: true}
	call.FrameStateIdx = -1
	ir.AppendToBlock(start, call)

	start.End = hir.BlockEnd{
		Kind:           hir.EndPEI,
		ExceptionEdges: []hir.ExceptionEdge{{HandlerBlock: handler.ID, CatchType: "java/lang/Exception"}},
		Successors:     []hir.NodeID{cont.ID, handler.ID},
	}
	start.Successors = start.End.Successors
	cont.AddPredecessor(start.ID)
	handler.AddPredecessor(start.ID)

	ret := ir.NewValue(hir.TagReturn)
	ret.Kind = kind.Void
	ret.Flags |= hir.FlagLive
	ret.FrameStateIdx = -1
	ir.AppendToBlock(cont, ret)
	cont.End = hir.BlockEnd{Kind: hir.EndReturn}

	hret := ir.NewValue(hir.TagReturn)
	hret.Kind = kind.Void
	hret.Flags |= hir.FlagLive
	hret.FrameStateIdx = -1
	ir.AppendToBlock(handler, hret)
	handler.End = hir.BlockEnd{Kind: hir.EndReturn}

	if err := ir.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}
	return ir
}

func TestEmitRecordsExceptionHandlerTable(t *testing.T) {
	ir := buildPEIGraph(t)
	if err := hir.GenerateLIR(ir, target.AMD64); err != nil {
		t.Fatalf("GenerateLIR: %v", err)
	}

	m := &method.Method{Holder: "Holder", Name: "m", Sig: kind.Signature{Result: kind.Void}, IsStatic: true}
	tm, err := Emit(target.AMD64, m, ir)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(tm.Code) == 0 {
		t.Fatalf("Emit produced no code")
	}

	if len(tm.ExceptionHandlers) != 1 {
		t.Fatalf("len(ExceptionHandlers) = %d, want 1", len(tm.ExceptionHandlers))
	}
	entry := tm.ExceptionHandlers[0]
	if entry.CatchType != "java/lang/Exception" {
		t.Errorf("CatchType = %v, want java/lang/Exception", entry.CatchType)
	}
	if entry.TryPos < 0 || entry.TryPos >= len(tm.Code) {
		t.Errorf("TryPos = %d, out of range [0,%d)", entry.TryPos, len(tm.Code))
	}
	if entry.CatchPos < 0 || entry.CatchPos >= len(tm.Code) {
		t.Errorf("CatchPos = %d, out of range [0,%d)", entry.CatchPos, len(tm.Code))
	}
	if entry.TryPos == entry.CatchPos {
		t.Errorf("TryPos and CatchPos both resolved to %d, want distinct positions", entry.TryPos)
	}
}

// TestEmitExceptionHandlerSharedByMultiplePEIs checks that two distinct
// try sites covered by the same handler each get their own
// ExceptionHandlerEntry; each edge into the handler is split into its own
// block, so their CatchPos values need not be identical.
func TestEmitExceptionHandlerSharedByMultiplePEIs(t *testing.T) {
	ir := hir.NewIR()
	start := ir.NewBlock()
	mid := ir.NewBlock()
	cont := ir.NewBlock()
	handler := ir.NewBlock()
	ir.StartBlock = start.ID

	for _, b := range []*hir.Block{start, mid, cont, handler} {
		b.StateBefore = hir.NewFrameState(0, 0, nil)
	}
	handler.IsExceptionEntry = true

	newCall := func(blk *hir.Block) {
		call := ir.NewValue(hir.TagInvoke)
		call.Kind = kind.Void
		call.Flags |= hir.FlagLive
		call.Aux = hir.InvokeAux{MethodRef: &method.MethodRef{Holder: "Holder", Name: "callee", IsStatic: true}, IsStatic: true}
		call.FrameStateIdx = -1
		ir.AppendToBlock(blk, call)
	}
	newCall(start)
	newCall(mid)

	start.End = hir.BlockEnd{
		Kind:           hir.EndPEI,
		ExceptionEdges: []hir.ExceptionEdge{{HandlerBlock: handler.ID}},
		Successors:     []hir.NodeID{mid.ID, handler.ID},
	}
	start.Successors = start.End.Successors
	mid.AddPredecessor(start.ID)
	handler.AddPredecessor(start.ID)

	mid.End = hir.BlockEnd{
		Kind:           hir.EndPEI,
		ExceptionEdges: []hir.ExceptionEdge{{HandlerBlock: handler.ID}},
		Successors:     []hir.NodeID{cont.ID, handler.ID},
	}
	mid.Successors = mid.End.Successors
	cont.AddPredecessor(mid.ID)
	handler.AddPredecessor(mid.ID)

	ret := ir.NewValue(hir.TagReturn)
	ret.Kind = kind.Void
	ret.Flags |= hir.FlagLive
	ret.FrameStateIdx = -1
	ir.AppendToBlock(cont, ret)
	cont.End = hir.BlockEnd{Kind: hir.EndReturn}

	hret := ir.NewValue(hir.TagReturn)
	hret.Kind = kind.Void
	hret.Flags |= hir.FlagLive
	hret.FrameStateIdx = -1
	ir.AppendToBlock(handler, hret)
	handler.End = hir.BlockEnd{Kind: hir.EndReturn}

	if err := hir.GenerateLIR(ir, target.AMD64); err != nil {
		t.Fatalf("GenerateLIR: %v", err)
	}

	m := &method.Method{Holder: "Holder", Name: "m", Sig: kind.Signature{Result: kind.Void}, IsStatic: true}
	tm, err := Emit(target.AMD64, m, ir)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if len(tm.ExceptionHandlers) != 2 {
		t.Fatalf("len(ExceptionHandlers) = %d, want 2", len(tm.ExceptionHandlers))
	}
	// Each try site lands on a critical edge into the shared handler
	// (both start and mid have two successors, and handler has two
	// predecessors), so splitCriticalEdges gives each its own edge block
	// that jumps on into the real handler body — CatchPos need not be
	// identical between the two entries, but each must still resolve to a
	// valid, distinct-from-its-own-TryPos position.
	for i, e := range tm.ExceptionHandlers {
		if e.TryPos < 0 || e.TryPos >= len(tm.Code) {
			t.Errorf("entry %d TryPos = %d, out of range [0,%d)", i, e.TryPos, len(tm.Code))
		}
		if e.CatchPos < 0 || e.CatchPos >= len(tm.Code) {
			t.Errorf("entry %d CatchPos = %d, out of range [0,%d)", i, e.CatchPos, len(tm.Code))
		}
		if e.TryPos == e.CatchPos {
			t.Errorf("entry %d: TryPos and CatchPos both resolved to %d", i, e.TryPos)
		}
	}
	if tm.ExceptionHandlers[0].TryPos == tm.ExceptionHandlers[1].TryPos {
		t.Errorf("the two try sites should have distinct TryPos, both got %d", tm.ExceptionHandlers[0].TryPos)
	}
}
