// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

import (
	"fmt"

	"github.com/go-interpreter/c1xgo/bailout"
	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/lir"
	"github.com/go-interpreter/c1xgo/target"
)

// GenerateLIR lowers ir's value graph into a lir.List per block, in reverse
// post-order, assigning every live Value's Operand (spec.md §4.H). It lives
// in package hir (not lir) because it must reference both hir.Value and
// lir.Instruction; lir cannot import hir (hir already imports lir for
// Value.Operand/Block.LIR), so the generator sits on the hir side of that
// edge instead, the same direction validate's checks sit downstream of
// disasm's decode rather than disasm depending on validate.
func GenerateLIR(ir *IR, arch *target.Architecture) error {
	splitCriticalEdges(ir)

	g := &lirGenerator{ir: ir, arch: arch, controlStart: map[NodeID]int{}}
	order := ir.ReversePostOrder()
	for _, id := range order {
		blk := ir.Block(id)
		blk.LIR = &lir.List{}
		g.genBlock(blk)
	}
	g.resolvePhis()
	return nil
}

type lirGenerator struct {
	ir   *IR
	arch *target.Architecture
	pool lir.Pool

	// controlStart[id] is the instruction index in Block(id).LIR at which
	// the block's terminator sequence begins; phi-resolution moves for an
	// outgoing edge are spliced in just before it.
	controlStart map[NodeID]int
}

func label(id NodeID) lir.LabelID { return lir.LabelID(id) }

// operandOf returns the operand the value at id was assigned during
// generation; id must have already been visited (true for any Input, since
// a Value's inputs are always defined earlier in the same RPO walk, a phi
// input from a not-yet-visited loop body being the only exception — a phi's
// OWN operand is allocated before its block's body is walked, in genBlock,
// so forward references through a phi are always safe).
func (g *lirGenerator) operandOf(id NodeID) lir.Operand {
	v := g.ir.Value(id)
	return v.Operand
}

func (g *lirGenerator) operandsOf(ids []NodeID) []lir.Operand {
	out := make([]lir.Operand, len(ids))
	for i, id := range ids {
		out[i] = g.operandOf(id)
	}
	return out
}

var arithOpcodes = map[string]lir.OpCode{
	"add": lir.OpAdd, "sub": lir.OpSub, "mul": lir.OpMul, "div": lir.OpDiv, "rem": lir.OpRem,
	"and": lir.OpAnd, "or": lir.OpOr, "xor": lir.OpXor,
	"shl": lir.OpShl, "shr": lir.OpShr, "ushr": lir.OpUShr,
}

var conditions = map[string]lir.Condition{
	"eq": lir.CondEQ, "ne": lir.CondNE, "lt": lir.CondLT, "le": lir.CondLE, "gt": lir.CondGT, "ge": lir.CondGE,
	"null": lir.CondEQ, "nonnull": lir.CondNE,
}

func (g *lirGenerator) genBlock(blk *Block) {
	// Phis are given an operand up front: genBlock for a phi's own block
	// runs before any predecessor's resolvePhis splice references that
	// operand, and before any use within the block itself. Phis are never
	// linked into First/Last's chain (see Block.Phis), so they're handled
	// entirely separately from the ordinary value walk below.
	for _, id := range blk.Phis {
		v := g.ir.Value(id)
		v.Operand = g.pool.NewVariable(v.Kind)
	}

	for cur := blk.First; cur != NoNode; cur = g.ir.Value(cur).Next {
		g.genValue(blk, g.ir.Value(cur))
	}

	g.controlStart[blk.ID] = blk.LIR.Len()
	switch blk.End.Kind {
	case EndGoto, EndBase:
		if len(blk.End.Successors) > 0 {
			blk.LIR.Append(lir.Instruction{Op: lir.OpJump, Target: label(blk.End.Successors[0])})
		}
	case EndPEI:
		// Successors[0] is the normal fall-through; the exception edges
		// themselves carry no LIR of their own (backend/emitter.go reads
		// blk.End.ExceptionEdges directly off the hir.Block once this jump's
		// position is known).
		blk.LIR.Append(lir.Instruction{Op: lir.OpJump, Target: label(blk.End.Successors[0])})
	}
}

func (g *lirGenerator) genValue(blk *Block, v *Value) {
	append_ := func(instr lir.Instruction) { blk.LIR.Append(instr) }

	switch v.Tag {
	case TagConstant:
		v.Operand = lir.NewConstant(v.Kind, v.Aux.(ConstantAux).Bits)

	case TagLocal, TagExceptionObject, TagOsrEntry:
		v.Operand = g.pool.NewVariable(v.Kind)
		template := map[Tag]string{TagExceptionObject: "exception_object", TagOsrEntry: "osr_local"}[v.Tag]
		if template != "" {
			append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, XirTemplate: template})
		}

	case TagArithmeticOp:
		op, ok := arithOpcodes[v.Aux.(ArithAux).Op]
		if !ok {
			g.bail(bailout.InvariantViolation, "unknown arithmetic op "+v.Aux.(ArithAux).Op)
		}
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: op, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: v.FrameStateIdx >= 0})

	case TagShiftOp:
		op := arithOpcodes[v.Aux.(ArithAux).Op]
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: op, Result: v.Operand, Inputs: g.operandsOf(v.Inputs)})

	case TagLogicOp:
		op := arithOpcodes[v.Aux.(ArithAux).Op]
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: op, Result: v.Operand, Inputs: g.operandsOf(v.Inputs)})

	case TagNegate:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpNeg, Result: v.Operand, Inputs: g.operandsOf(v.Inputs)})

	case TagConvert:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpConvert, Result: v.Operand, Inputs: g.operandsOf(v.Inputs)})

	case TagCompare:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpCompare, Result: v.Operand, Inputs: g.operandsOf(v.Inputs)})

	case TagIf:
		cond, ok := conditions[v.Aux.(IfAux).Condition]
		if !ok {
			g.bail(bailout.InvariantViolation, "unknown branch condition "+v.Aux.(IfAux).Condition)
		}
		trueTarget := label(blk.End.Successors[0])
		append_(lir.Instruction{Op: lir.OpBranch, Inputs: g.operandsOf(v.Inputs), Target: trueTarget, Condition: cond})
		if len(blk.End.Successors) > 1 {
			append_(lir.Instruction{Op: lir.OpJump, Target: label(blk.End.Successors[1])})
		}

	case TagTableSwitch, TagLookupSwitch:
		g.genSwitch(blk, v)

	case TagReturn:
		v.Operand = lir.Operand{}
		append_(lir.Instruction{Op: lir.OpReturn, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagThrow:
		append_(lir.Instruction{Op: lir.OpXir, XirTemplate: "throw", Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagLoadField:
		v.Operand = g.pool.NewVariable(v.Kind)
		aux := v.Aux.(FieldAux)
		if aux.Volatile {
			append_(lir.Instruction{Op: lir.OpBarrier, Access: target.PreWrite})
		}
		append_(lir.Instruction{Op: lir.OpLoad, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: v.FrameStateIdx >= 0})
		if aux.Volatile {
			append_(lir.Instruction{Op: lir.OpBarrier, Access: target.PostRead})
		}

	case TagStoreField:
		aux := v.Aux.(FieldAux)
		if aux.Volatile {
			append_(lir.Instruction{Op: lir.OpBarrier, Access: target.PreWrite})
		}
		append_(lir.Instruction{Op: lir.OpStore, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})
		if aux.Volatile {
			append_(lir.Instruction{Op: lir.OpBarrier, Access: target.PostWrite})
		}

	case TagLoadIndexed:
		aux := v.Aux.(IndexedAux)
		if aux.NeedsBoundsChk {
			append_(lir.Instruction{Op: lir.OpBoundsCheck, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})
		}
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpLoad, Result: v.Operand, Inputs: g.operandsOf(v.Inputs)})

	case TagStoreIndexed:
		aux := v.Aux.(IndexedAux)
		if aux.NeedsBoundsChk {
			append_(lir.Instruction{Op: lir.OpBoundsCheck, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})
		}
		if aux.NeedsStoreChk {
			append_(lir.Instruction{Op: lir.OpStoreCheck, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})
		}
		append_(lir.Instruction{Op: lir.OpStore, Inputs: g.operandsOf(v.Inputs)})

	case TagArrayLength:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpLoad, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagInvoke:
		g.genInvoke(blk, v)

	case TagIntrinsic:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), XirTemplate: "intrinsic:" + v.Aux.(IntrinsicAux).Name, FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagNewInstance:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, XirTemplate: "new_instance", FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagNewTypeArray:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), XirTemplate: "new_type_array", FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagNewObjectArray:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), XirTemplate: "new_object_array", FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagNewMultiArray:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), XirTemplate: "new_multi_array", FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagCheckCast:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), XirTemplate: "checkcast", FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagInstanceOf:
		v.Operand = g.pool.NewVariable(v.Kind)
		append_(lir.Instruction{Op: lir.OpXir, Result: v.Operand, Inputs: g.operandsOf(v.Inputs), XirTemplate: "instanceof"})

	case TagMonitorEnter:
		append_(lir.Instruction{Op: lir.OpXir, Inputs: g.operandsOf(v.Inputs), XirTemplate: "monitor_enter", FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})
		append_(lir.Instruction{Op: lir.OpSafepoint, FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	case TagMonitorExit:
		append_(lir.Instruction{Op: lir.OpXir, Inputs: g.operandsOf(v.Inputs), XirTemplate: "monitor_exit", FrameStateIdx: v.FrameStateIdx, HasDebugInfo: true})

	default:
		g.bail(bailout.UnsupportedBytecode, fmt.Sprintf("LIR generator has no lowering for HIR tag %d", v.Tag))
	}
}

func (g *lirGenerator) genInvoke(blk *Block, v *Value) {
	aux := v.Aux.(InvokeAux)
	ref := aux.MethodRef
	pointerArgs := make([]bool, len(v.Inputs))
	for i, id := range v.Inputs {
		pointerArgs[i] = g.ir.Value(id).Kind == kind.Object
	}
	if v.Kind != kind.Void {
		v.Operand = g.pool.NewVariable(v.Kind)
	}
	blk.LIR.Append(lir.Instruction{
		Op:     lir.OpCall,
		Result: v.Operand,
		Inputs: g.operandsOf(v.Inputs),
		Call: lir.CallTarget{
			Kind:        lir.CallDirect,
			MethodRef:   ref,
			PointerArgs: pointerArgs,
		},
		FrameStateIdx: v.FrameStateIdx,
		HasDebugInfo:  true,
	})
}

// genSwitch lowers a TableSwitch/LookupSwitch into a chain of OpSwitchRange
// steps, one per maximal run of consecutive keys sharing a successor, plus
// a trailing jump to the default — the same "collapse dense per-case
// targets into range tests" shape BranchTable/patchTable gives
// exec/internal/compile.Compile for wasm's br_table.
func (g *lirGenerator) genSwitch(blk *Block, v *Value) {
	var keys []int32
	var successors []NodeID
	switch v.Tag {
	case TagTableSwitch:
		aux := v.Aux.(SwitchAux)
		for i := range blk.End.Switch.Successors {
			keys = append(keys, aux.LowKey+int32(i))
		}
		successors = blk.End.Switch.Successors
	case TagLookupSwitch:
		aux := v.Aux.(SwitchAux)
		keys = aux.Keys
		successors = blk.End.Switch.Successors
	}
	def := blk.End.Switch.Default

	type run struct {
		lo, hi int32
		target NodeID
	}
	var runs []run
	for i := range keys {
		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			if last.target == successors[i] && keys[i] == last.hi+1 {
				last.hi = keys[i]
				continue
			}
		}
		runs = append(runs, run{lo: keys[i], hi: keys[i], target: successors[i]})
	}

	cond := g.operandOf(v.Inputs[0])
	for _, r := range runs {
		blk.LIR.Append(lir.Instruction{
			Op:     lir.OpSwitchRange,
			Inputs: []lir.Operand{cond, lir.NewConstant(kind.Int, uint64(uint32(r.lo))), lir.NewConstant(kind.Int, uint64(uint32(r.hi)))},
			Target: label(r.target),
		})
	}
	blk.LIR.Append(lir.Instruction{Op: lir.OpJump, Target: label(def)})
}

func (g *lirGenerator) bail(sub bailout.Subkind, reason string) {
	panic(bailout.New(sub, reason))
}

type movePair struct {
	dst, src lir.Operand
}

func operandsEqual(a, b lir.Operand) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case lir.VariableTag:
		return a.Var == b.Var
	case lir.RegisterTag:
		return a.Reg == b.Reg
	case lir.StackSlotTag:
		return a.SlotOffset == b.SlotOffset && a.InCallerFrame == b.InCallerFrame
	case lir.ConstantTag:
		return a.ConstValue == b.ConstValue && a.Kind == b.Kind
	default:
		return false
	}
}

// sequentialize turns a set of simultaneous moves into an ordered list of
// OpMove instructions, breaking any cycles by routing through a fresh
// temporary — the standard parallel-copy resolution algorithm register
// allocators use, generalized here to phi resolution at a split edge
// (spec.md §4.H "phi resolution via a move-dependency-graph with
// cycle-breaking spill").
func (g *lirGenerator) sequentialize(moves []movePair) []lir.Instruction {
	var out []lir.Instruction
	pending := append([]movePair(nil), moves...)
	for len(pending) > 0 {
		progressed := false
		for i, m := range pending {
			usedAsSrc := false
			for j, o := range pending {
				if j == i {
					continue
				}
				if operandsEqual(o.src, m.dst) {
					usedAsSrc = true
					break
				}
			}
			if !usedAsSrc {
				out = append(out, lir.Instruction{Op: lir.OpMove, Result: m.dst, Inputs: []lir.Operand{m.src}})
				pending = append(pending[:i], pending[i+1:]...)
				progressed = true
				break
			}
		}
		if !progressed && len(pending) > 0 {
			m := pending[0]
			tmp := g.pool.NewVariable(m.dst.Kind)
			out = append(out, lir.Instruction{Op: lir.OpMove, Result: tmp, Inputs: []lir.Operand{m.dst}})
			for i := range pending {
				if operandsEqual(pending[i].src, m.dst) {
					pending[i].src = tmp
				}
			}
		}
	}
	return out
}

// resolvePhis splices, into each predecessor's LIR list just before its
// terminator, the moves needed to feed every phi at every successor it
// reaches. Because splitCriticalEdges already guarantees at most one
// outgoing edge needs moves spliced per predecessor-successor pair without
// ambiguity, each predecessor gets exactly one spliced move group per
// distinct successor edge.
func (g *lirGenerator) resolvePhis() {
	for _, id := range g.ir.Blocks() {
		blk := g.ir.Block(id)
		if !blk.IsLive() {
			continue
		}
		if len(blk.Phis) == 0 {
			continue
		}
		phis := make([]*Value, len(blk.Phis))
		for i, id := range blk.Phis {
			phis[i] = g.ir.Value(id)
		}
		for predIdx, predID := range blk.Predecessors {
			pred := g.ir.Block(predID)
			var moves []movePair
			for _, phi := range phis {
				src := g.operandOf(phi.Inputs[predIdx])
				if operandsEqual(src, phi.Operand) {
					continue
				}
				moves = append(moves, movePair{dst: phi.Operand, src: src})
			}
			if len(moves) == 0 {
				continue
			}
			instrs := g.sequentialize(moves)
			g.splice(pred, instrs)
		}
	}
}

// splice inserts instrs into pred's LIR list just before its terminator
// sequence.
func (g *lirGenerator) splice(pred *Block, instrs []lir.Instruction) {
	start := g.controlStart[pred.ID]
	old := pred.LIR.All()
	merged := append([]lir.Instruction{}, old[:start]...)
	merged = append(merged, instrs...)
	merged = append(merged, old[start:]...)
	newList := &lir.List{}
	for _, in := range merged {
		newList.Append(in)
	}
	pred.LIR = newList
	g.controlStart[pred.ID] = start + len(instrs)
}
