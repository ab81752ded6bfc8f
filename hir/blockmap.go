// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

import "github.com/go-interpreter/c1xgo/method"

// BlockMap is a single pre-pass over the bytecode recording a block
// boundary at every branch target, handler entry, and fall-through after a
// branch (spec.md §4.F "Block discovery"). The same pass flags loop
// headers (targets of backward branches) among the discovered boundaries.
//
// Grounded on exec/internal/compile.Compile's implicit block discovery
// (exec/internal/compile/compile.go: blocks are opened at ops.Block/Loop/If
// and closed at ops.End, tracked in a map[int]*block keyed by nesting
// depth) generalized from "discover blocks while also emitting code" into
// a standalone discovery pass the builder runs before interpreting
// anything, the way a real block-boundary pre-pass needs to so that
// forward branches are known before their target block is reached.
type BlockMap struct {
	// boundaries is the set of BCIs at which a block begins; order holds
	// the same BCIs in ascending order once finalize has run.
	boundaries map[int]bool
	// loopHeaders is the subset of Boundaries reached by a backward branch.
	loopHeaders map[int]bool
	order       []int
}

// NewBlockMap runs the discovery pass over m's instructions.
func NewBlockMap(m *method.Method) *BlockMap {
	bm := &BlockMap{
		boundaries:  map[int]bool{0: true},
		loopHeaders: map[int]bool{},
	}
	for _, h := range m.ExceptionHandlers {
		bm.boundaries[h.HandlerBCI] = true
	}
	for i, instr := range m.Code {
		switch instr.Op {
		case method.Goto, method.If, method.IfCmp:
			bm.boundaries[instr.BranchTarget] = true
			if instr.BranchTarget <= instr.BCI {
				bm.loopHeaders[instr.BranchTarget] = true
			}
			if i+1 < len(m.Code) {
				bm.boundaries[m.Code[i+1].BCI] = true
			}
		case method.TableSwitch, method.LookupSwitch:
			bm.boundaries[instr.DefaultTarget] = true
			if instr.DefaultTarget <= instr.BCI {
				bm.loopHeaders[instr.DefaultTarget] = true
			}
			for _, t := range instr.Targets {
				bm.boundaries[t] = true
				if t <= instr.BCI {
					bm.loopHeaders[t] = true
				}
			}
			if i+1 < len(m.Code) {
				bm.boundaries[m.Code[i+1].BCI] = true
			}
		case method.Return, method.Throw:
			if i+1 < len(m.Code) {
				bm.boundaries[m.Code[i+1].BCI] = true
			}
		case method.Div, method.Rem,
			method.InvokeStatic, method.InvokeSpecial, method.InvokeVirtual, method.InvokeInterface,
			method.ArrayLoad, method.ArrayStore, method.ArrayLength,
			method.PutField, method.PutStatic,
			method.New, method.NewArray, method.ANewArray, method.MultiANewArray, method.CheckCast:
			// A potentially-excepting instruction covered by some handler's
			// guarded range ends its block there, so the builder can attach
			// an exception edge alongside the normal fall-through (spec.md
			// §4.F, §8 scenario 4).
			if i+1 < len(m.Code) && coveredByHandler(m, instr.BCI) {
				bm.boundaries[m.Code[i+1].BCI] = true
			}
		case method.GetField, method.GetStatic:
			// Only a volatile field access is modeled as potentially
			// excepting (matches the builder's snapshot gating in
			// hir/builder.go: a plain field read never traps).
			if i+1 < len(m.Code) && instr.Field.Volatile && coveredByHandler(m, instr.BCI) {
				bm.boundaries[m.Code[i+1].BCI] = true
			}
		}
	}
	bm.finalize()
	return bm
}

// coveredByHandler reports whether bci falls within some exception
// handler's guarded [StartBCI, EndBCI) range.
func coveredByHandler(m *method.Method, bci int) bool {
	for _, h := range m.ExceptionHandlers {
		if bci >= h.StartBCI && bci < h.EndBCI {
			return true
		}
	}
	return false
}

func (bm *BlockMap) finalize() {
	for bci := range bm.boundaries {
		bm.order = append(bm.order, bci)
	}
	// insertion sort is fine: block counts are small relative to method size
	for i := 1; i < len(bm.order); i++ {
		for j := i; j > 0 && bm.order[j-1] > bm.order[j]; j-- {
			bm.order[j-1], bm.order[j] = bm.order[j], bm.order[j-1]
		}
	}
}

// IsBoundary reports whether bci begins a block.
func (bm *BlockMap) IsBoundary(bci int) bool { return bm.boundaries[bci] }

// IsLoopHeader reports whether bci is a loop header (reached by a backward
// branch).
func (bm *BlockMap) IsLoopHeader(bci int) bool { return bm.loopHeaders[bci] }

// Boundaries returns every discovered block-start BCI in ascending order.
func (bm *BlockMap) Boundaries() []int { return bm.order }

// StoresInLoops computes, per local slot, whether that slot is ever the
// target of a Store/IInc at a BCI reachable from within some loop body —
// used to limit phi insertion at loop headers to locals actually written
// inside the loop (spec.md §4.F: "Loop headers receive phi insertion only
// for locals in the stores-in-loops set").
func StoresInLoops(m *method.Method, bm *BlockMap) map[int]bool {
	if len(bm.loopHeaders) == 0 {
		return map[int]bool{}
	}
	// Conservative approximation: a local is in the set if it is written
	// anywhere at or after the earliest loop header's BCI and at or before
	// the corresponding backward edge's BCI. This over-approximates
	// slightly for sibling loops but never under-approximates, which is
	// the safe direction for phi insertion (a spurious phi is legal; a
	// missing one corrupts the merge).
	minHeader := -1
	for bci := range bm.loopHeaders {
		if minHeader == -1 || bci < minHeader {
			minHeader = bci
		}
	}
	maxBackEdge := 0
	for _, instr := range m.Code {
		switch instr.Op {
		case method.Goto, method.If, method.IfCmp:
			if instr.BranchTarget <= instr.BCI && instr.BCI > maxBackEdge {
				maxBackEdge = instr.BCI
			}
		case method.TableSwitch, method.LookupSwitch:
			if instr.DefaultTarget <= instr.BCI && instr.BCI > maxBackEdge {
				maxBackEdge = instr.BCI
			}
			for _, t := range instr.Targets {
				if t <= instr.BCI && instr.BCI > maxBackEdge {
					maxBackEdge = instr.BCI
				}
			}
		}
	}
	result := map[int]bool{}
	for _, instr := range m.Code {
		if instr.BCI < minHeader || instr.BCI > maxBackEdge {
			continue
		}
		switch instr.Op {
		case method.Store, method.IInc:
			result[instr.LocalSlot] = true
		}
	}
	return result
}
