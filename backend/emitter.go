// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/go-interpreter/c1xgo/asm"
	"github.com/go-interpreter/c1xgo/bailout"
	"github.com/go-interpreter/c1xgo/hir"
	"github.com/go-interpreter/c1xgo/lir"
	"github.com/go-interpreter/c1xgo/method"
	"github.com/go-interpreter/c1xgo/target"
)

// Emitter walks an hir.IR's already-lowered LIR, block by block in block
// order, appending machine bytes to a code buffer and recording every side
// table spec.md §4.I requires. It plays the role
// exec/internal/compile.AMD64Backend.Build plays for wagon's single flat
// instruction loop, generalized from "one switch over wasm ops emitting
// straight-line code" into "one switch over LIR ops emitting a full
// control-flow graph with calls, checks, and safepoints", using asm.Builder
// in place of backend_amd64.go's inline golang-asm calls so label/branch
// support (which wagon never needed) is shared infrastructure.
type Emitter struct {
	arch   *target.Architecture
	method *method.Method

	b     *asm.Builder
	alloc *allocator

	tm *TargetMethod

	// blockEntries holds every block's landing-pad *obj.Prog, allocated up
	// front (before any real instruction is emitted) so an EndPEI
	// terminator can record a CatchPos referencing a handler block that
	// hasn't been reached yet in reverse-post-order.
	blockEntries map[hir.NodeID]*obj.Prog

	// posProgs records, for every side-table entry appended with a
	// provisional position, the *obj.Prog whose resolved Pc (only known
	// after Assemble) that position actually names. seal() walks this
	// alongside the side tables to rewrite every provisional token into a
	// real byte offset.
	posProgs []*obj.Prog

	optEntryProg, baselineEntryProg *obj.Prog
}

// NewEmitter creates an Emitter targeting arch for the given method.
func NewEmitter(arch *target.Architecture, m *method.Method) (*Emitter, error) {
	b, err := asm.NewBuilder(arch.Name)
	if err != nil {
		return nil, err
	}
	return &Emitter{
		arch:   arch,
		method: m,
		b:      b,
		alloc:  newAllocator(arch),
		tm:     &TargetMethod{ClassMethodActor: m},
	}, nil
}

// Emit lowers every block's LIR (in reverse-post-order, matching the order
// GenerateLIR populated blk.LIR in) into machine code, then seals and
// returns the TargetMethod. ir must already have had hir.GenerateLIR run
// over it.
func Emit(arch *target.Architecture, m *method.Method, ir *hir.IR) (*TargetMethod, error) {
	e, err := NewEmitter(arch, m)
	if err != nil {
		return nil, err
	}
	e.emitPrologue()
	order := ir.ReversePostOrder()

	e.blockEntries = make(map[hir.NodeID]*obj.Prog, len(order))
	for _, id := range order {
		prog := e.b.NewProg()
		prog.As = obj.ANOP
		e.blockEntries[id] = prog
	}

	for _, id := range order {
		blk := ir.Block(id)
		if blk.LIR == nil {
			continue
		}
		entry := e.blockEntries[id]
		e.b.Bind(int32(id), entry)
		e.b.Add(entry)
		e.emitBlock(blk)
	}
	return e.seal(), nil
}

// emitPrologue lays out the two fixed entry points spec.md §4.I requires:
// OPT_ENTRY first, then a short baseline-adapter shim, then BASELINE_ENTRY.
// Both converge on the same optimized-convention frame setup.
func (e *Emitter) emitPrologue() {
	optEntry := e.b.NewProg()
	optEntry.As = obj.ANOP
	e.b.Add(optEntry)
	e.optEntryProg = optEntry

	// The baseline entry reshuffles a baseline-convention caller's stack
	// layout before falling into the same body the opt entry uses; the
	// adapter package supplies the reshuffling snippet itself (spec.md
	// §4.J) — here we only reserve the landing pad.
	baselineEntry := e.b.NewProg()
	baselineEntry.As = obj.ANOP
	e.b.Add(baselineEntry)
	e.baselineEntryProg = baselineEntry

	e.pushFramePointer()
}

func (e *Emitter) pushFramePointer() {
	prog := e.b.NewProg()
	prog.As = x86.APUSHQ
	prog.From.Type = obj.TYPE_REG
	prog.From.Reg = x86.REG_BP
	e.b.Add(prog)

	mov := e.b.NewProg()
	mov.As = x86.AMOVQ
	mov.From.Type = obj.TYPE_REG
	mov.From.Reg = x86.REG_SP
	mov.To.Type = obj.TYPE_REG
	mov.To.Reg = x86.REG_BP
	e.b.Add(mov)
}

func (e *Emitter) emitBlock(blk *hir.Block) {
	instrs := blk.LIR.All()
	for i, in := range instrs {
		if blk.End.Kind == hir.EndPEI && i == len(instrs)-1 {
			// instrs[i] is the fall-through jump hir/lirgen.go's genBlock
			// appends after every real op; the last prog added so far is
			// the potentially-excepting instruction itself (spec.md §4.F,
			// §8 scenario 4).
			e.recordExceptionEdges(blk, e.b.LastProg())
		}
		e.emitInstruction(in)
	}
}

// recordExceptionEdges appends one ExceptionHandlerEntry per edge in blk's
// EndPEI terminator. tryProg anchors TryPos; each handler's pre-allocated
// landing-pad prog (see Emit) anchors CatchPos, resolved alongside every
// other provisional position in seal().
func (e *Emitter) recordExceptionEdges(blk *hir.Block, tryProg *obj.Prog) {
	tryPos := e.tokenFor(tryProg)
	for _, edge := range blk.End.ExceptionEdges {
		catchProg := e.blockEntries[edge.HandlerBlock]
		e.tm.ExceptionHandlers = append(e.tm.ExceptionHandlers, ExceptionHandlerEntry{
			TryPos:    tryPos,
			CatchPos:  e.tokenFor(catchProg),
			CatchType: edge.CatchType,
		})
	}
}

func (e *Emitter) emitInstruction(in lir.Instruction) {
	switch in.Op {
	case lir.OpNop, lir.OpLabel:
		// no-op markers already realized by Bind.
	case lir.OpMove:
		e.emitMove(e.alloc.resolve(in.Result), e.alloc.resolve(in.Inputs[0]))
	case lir.OpAdd, lir.OpSub, lir.OpMul, lir.OpAnd, lir.OpOr, lir.OpXor:
		e.emitBinary(in)
	case lir.OpDiv, lir.OpRem:
		e.emitDivRem(in)
	case lir.OpShl, lir.OpShr, lir.OpUShr:
		e.emitShift(in)
	case lir.OpNeg:
		e.emitUnary(in, x86.ANEGQ)
	case lir.OpCompare:
		e.emitCompare(in)
	case lir.OpJump:
		e.emitJump(in.Target)
	case lir.OpBranch:
		e.emitBranch(in)
	case lir.OpSwitchRange:
		e.emitBranch(in)
	case lir.OpCall:
		e.emitCall(in)
	case lir.OpReturn:
		e.emitReturn(in)
	case lir.OpLoad:
		e.emitLoad(in)
	case lir.OpStore:
		e.emitStore(in)
	case lir.OpNullCheck, lir.OpBoundsCheck, lir.OpStoreCheck, lir.OpDivZeroCheck:
		e.emitCheck(in)
	case lir.OpBarrier:
		e.emitBarrier(in)
	case lir.OpXir:
		e.emitXir(in)
	case lir.OpSafepoint:
		e.emitSafepoint(in)
	default:
		bailout.Raise("backend: emitter has no case for op " + in.Op.String())
	}
}

func (e *Emitter) emitMove(dst, src lir.Operand) {
	prog := e.b.NewProg()
	prog.As = x86.AMOVQ
	setOperand(&prog.From, src)
	setOperand(&prog.To, dst)
	e.b.Add(prog)
}

var arithAs = map[lir.OpCode]obj.As{
	lir.OpAdd: x86.AADDQ,
	lir.OpSub: x86.ASUBQ,
	lir.OpMul: x86.AIMULQ,
	lir.OpAnd: x86.AANDQ,
	lir.OpOr:  x86.AORQ,
	lir.OpXor: x86.AXORQ,
}

// emitBinary emits dst := lhs OP rhs as a two-operand x86 instruction,
// first moving lhs into dst when the two were assigned different
// locations.
func (e *Emitter) emitBinary(in lir.Instruction) {
	dst := e.alloc.resolve(in.Result)
	lhs := e.alloc.resolve(in.Inputs[0])
	rhs := e.alloc.resolve(in.Inputs[1])
	if !operandSame(dst, lhs) {
		e.emitMove(dst, lhs)
	}
	prog := e.b.NewProg()
	prog.As = arithAs[in.Op]
	setOperand(&prog.From, rhs)
	setOperand(&prog.To, dst)
	e.b.Add(prog)
}

func (e *Emitter) emitUnary(in lir.Instruction, as obj.As) {
	dst := e.alloc.resolve(in.Result)
	src := e.alloc.resolve(in.Inputs[0])
	if !operandSame(dst, src) {
		e.emitMove(dst, src)
	}
	prog := e.b.NewProg()
	prog.As = as
	setOperand(&prog.To, dst)
	e.b.Add(prog)
}

// emitDivRem lowers to the AMD64 IDIV sequence (dividend in DX:AX, divisor
// in any other register, quotient left in AX, remainder in DX). GenExplicitDiv0Checks
// is honored upstream by the LIR generator emitting an OpDivZeroCheck
// immediately before this instruction when configured.
func (e *Emitter) emitDivRem(in lir.Instruction) {
	lhs := e.alloc.resolve(in.Inputs[0])
	rhs := e.alloc.resolve(in.Inputs[1])
	e.emitMove(lir.NewRegister(lhs.Kind, x86.REG_AX), lhs)

	cqo := e.b.NewProg()
	cqo.As = x86.ACQTO
	e.b.Add(cqo)

	prog := e.b.NewProg()
	prog.As = x86.AIDIVQ
	setOperand(&prog.From, rhs)
	e.b.Add(prog)

	dst := e.alloc.resolve(in.Result)
	if in.Op == lir.OpDiv {
		e.emitMove(dst, lir.NewRegister(dst.Kind, x86.REG_AX))
	} else {
		e.emitMove(dst, lir.NewRegister(dst.Kind, x86.REG_DX))
	}
}

var shiftAs = map[lir.OpCode]obj.As{
	lir.OpShl:  x86.ASHLQ,
	lir.OpShr:  x86.ASARQ,
	lir.OpUShr: x86.ASHRQ,
}

func (e *Emitter) emitShift(in lir.Instruction) {
	dst := e.alloc.resolve(in.Result)
	lhs := e.alloc.resolve(in.Inputs[0])
	count := e.alloc.resolve(in.Inputs[1])
	if !operandSame(dst, lhs) {
		e.emitMove(dst, lhs)
	}
	e.emitMove(lir.NewRegister(count.Kind, x86.REG_CX), count)
	prog := e.b.NewProg()
	prog.As = shiftAs[in.Op]
	prog.From.Type = obj.TYPE_REG
	prog.From.Reg = x86.REG_CX
	setOperand(&prog.To, dst)
	e.b.Add(prog)
}

var condAs = map[lir.Condition]obj.As{
	lir.CondEQ: x86.AJEQ,
	lir.CondNE: x86.AJNE,
	lir.CondLT: x86.AJLT,
	lir.CondLE: x86.AJLE,
	lir.CondGT: x86.AJGT,
	lir.CondGE: x86.AJGE,
}

func (e *Emitter) emitCompare(in lir.Instruction) {
	lhs := e.alloc.resolve(in.Inputs[0])
	rhs := e.alloc.resolve(in.Inputs[1])
	prog := e.b.NewProg()
	prog.As = x86.ACMPQ
	setOperand(&prog.From, rhs)
	setOperand(&prog.To, lhs)
	e.b.Add(prog)
}

func (e *Emitter) emitJump(target lir.LabelID) {
	prog := e.b.NewProg()
	prog.As = obj.AJMP
	e.b.Label(int32(target)).Use(prog)
	e.b.Add(prog)
}

func (e *Emitter) emitBranch(in lir.Instruction) {
	as, ok := condAs[in.Condition]
	if !ok {
		as = x86.AJEQ
	}
	prog := e.b.NewProg()
	prog.As = as
	e.b.Label(int32(in.Target)).Use(prog)
	e.b.Add(prog)
}

func (e *Emitter) emitCall(in lir.Instruction) {
	stackMap := in.Call.PointerArgs

	prog := e.b.NewProg()
	prog.As = obj.ACALL
	prog.To.Type = obj.TYPE_BRANCH
	e.b.Add(prog)
	pos := e.tokenFor(prog)

	switch in.Call.Kind {
	case lir.CallDirect:
		ref, _ := in.Call.MethodRef.(*method.MethodRef)
		e.tm.DirectCalls = append(e.tm.DirectCalls, CallSite{Pos: pos, CalleeMethod: ref, OutgoingStackMap: stackMap})
	case lir.CallIndirect:
		ref, _ := in.Call.MethodRef.(*method.MethodRef)
		e.tm.IndirectCalls = append(e.tm.IndirectCalls, CallSite{Pos: pos, CalleeMethod: ref, OutgoingStackMap: stackMap})
	case lir.CallRuntime:
		e.tm.RuntimeCalls = append(e.tm.RuntimeCalls, RuntimeCallSite{Pos: pos, RuntimeCallID: in.Call.RuntimeID, OutgoingStackMap: stackMap})
	case lir.CallGlobalStub:
		e.tm.GlobalStubCalls = append(e.tm.GlobalStubCalls, GlobalStubCallSite{Pos: pos, StubID: in.Call.StubID, StackMap: stackMap})
	}
	e.tm.StopPositions = append(e.tm.StopPositions, pos)

	if in.Result.Tag != lir.Illegal {
		e.emitMove(e.alloc.resolve(in.Result), lir.NewRegister(in.Result.Kind, x86.REG_AX))
	}
}

func (e *Emitter) emitReturn(in lir.Instruction) {
	if len(in.Inputs) > 0 {
		e.emitMove(lir.NewRegister(in.Inputs[0].Kind, x86.REG_AX), e.alloc.resolve(in.Inputs[0]))
	}
	pop := e.b.NewProg()
	pop.As = x86.APOPQ
	pop.To.Type = obj.TYPE_REG
	pop.To.Reg = x86.REG_BP
	e.b.Add(pop)

	ret := e.b.NewProg()
	ret.As = obj.ARET
	e.b.Add(ret)
}

func (e *Emitter) emitLoad(in lir.Instruction) {
	prog := e.b.NewProg()
	prog.As = x86.AMOVQ
	setOperand(&prog.From, e.alloc.resolve(in.Inputs[0]))
	setOperand(&prog.To, e.alloc.resolve(in.Result))
	e.b.Add(prog)
}

func (e *Emitter) emitStore(in lir.Instruction) {
	prog := e.b.NewProg()
	prog.As = x86.AMOVQ
	setOperand(&prog.From, e.alloc.resolve(in.Inputs[1]))
	setOperand(&prog.To, e.alloc.resolve(in.Inputs[0]))
	e.b.Add(prog)
}

// emitCheck emits a compare-and-branch to a shared trap stub. The actual
// stub body (throwing the right exception kind) is a global stub, reached
// the same way emitCall reaches CallGlobalStub targets.
func (e *Emitter) emitCheck(in lir.Instruction) {
	cmp := e.b.NewProg()
	cmp.As = x86.ATESTQ
	setOperand(&cmp.From, e.alloc.resolve(in.Inputs[0]))
	setOperand(&cmp.To, e.alloc.resolve(in.Inputs[0]))
	e.b.Add(cmp)

	trap := e.b.NewProg()
	trap.As = x86.AJEQ
	e.b.Add(trap)
	pos := e.tokenFor(trap)
	e.tm.GlobalStubCalls = append(e.tm.GlobalStubCalls, GlobalStubCallSite{Pos: pos, StubID: int32(in.Op)})
}

func (e *Emitter) emitBarrier(in lir.Instruction) {
	if e.arch.RequiredBarriers(in.Access).Empty() {
		return
	}
	prog := e.b.NewProg()
	prog.As = x86.AMFENCE
	e.b.Add(prog)
}

// emitXir emits a single NOP for an OpXir instruction. The LIR generator
// lowers an XIR-backed HIR value to one OpXir naming its template, and
// neither it nor the emitter expands a xir.Template's instructions, so no
// template code is emitted here; XirTemplate is read only for diagnostics
// (disasmtext).
func (e *Emitter) emitXir(in lir.Instruction) {
	nop := e.b.NewProg()
	nop.As = obj.ANOP
	e.b.Add(nop)
}

func (e *Emitter) emitSafepoint(in lir.Instruction) {
	nop := e.b.NewProg()
	nop.As = obj.ANOP
	e.b.Add(nop)
	pos := e.tokenFor(nop)
	e.tm.Safepoints = append(e.tm.Safepoints, Safepoint{Pos: pos})
	e.tm.StopPositions = append(e.tm.StopPositions, pos)
}

// tokenFor records prog and returns a provisional position: an index into
// posProgs, rewritten to prog's real byte offset once Assemble resolves
// it (golang-asm only assigns a Prog.Pc during assembly, so nothing
// earlier in the pipeline can know the final offset).
func (e *Emitter) tokenFor(prog *obj.Prog) int {
	e.posProgs = append(e.posProgs, prog)
	return len(e.posProgs) - 1
}

// seal assembles the instruction stream, rewrites every provisional
// position token recorded via tokenFor into prog.Pc, and returns the
// finished TargetMethod.
func (e *Emitter) seal() *TargetMethod {
	e.tm.Code = e.b.Assemble()
	e.tm.FrameSize = e.alloc.frameSize()
	e.tm.OptEntryOffset = int32(e.optEntryProg.Pc)
	e.tm.BaselineEntryOffset = int32(e.baselineEntryProg.Pc)

	resolve := func(tok int) int { return int(e.posProgs[tok].Pc) }
	for i := range e.tm.DirectCalls {
		e.tm.DirectCalls[i].Pos = resolve(e.tm.DirectCalls[i].Pos)
	}
	for i := range e.tm.IndirectCalls {
		e.tm.IndirectCalls[i].Pos = resolve(e.tm.IndirectCalls[i].Pos)
	}
	for i := range e.tm.RuntimeCalls {
		e.tm.RuntimeCalls[i].Pos = resolve(e.tm.RuntimeCalls[i].Pos)
	}
	for i := range e.tm.GlobalStubCalls {
		e.tm.GlobalStubCalls[i].Pos = resolve(e.tm.GlobalStubCalls[i].Pos)
	}
	for i := range e.tm.Safepoints {
		e.tm.Safepoints[i].Pos = resolve(e.tm.Safepoints[i].Pos)
	}
	for i := range e.tm.ExceptionHandlers {
		e.tm.ExceptionHandlers[i].TryPos = resolve(e.tm.ExceptionHandlers[i].TryPos)
		e.tm.ExceptionHandlers[i].CatchPos = resolve(e.tm.ExceptionHandlers[i].CatchPos)
	}
	for i := range e.tm.StopPositions {
		e.tm.StopPositions[i] = resolve(e.tm.StopPositions[i])
	}
	return e.tm
}

func setOperand(addr *obj.Addr, op lir.Operand) {
	switch op.Tag {
	case lir.ConstantTag:
		addr.Type = obj.TYPE_CONST
		addr.Offset = int64(op.ConstValue)
	case lir.RegisterTag:
		addr.Type = obj.TYPE_REG
		addr.Reg = int16(op.Reg)
	case lir.StackSlotTag:
		addr.Type = obj.TYPE_MEM
		addr.Reg = x86.REG_SP
		addr.Offset = int64(op.SlotOffset)
	case lir.AddressTag:
		addr.Type = obj.TYPE_MEM
		if op.Base != nil && op.Base.Tag == lir.RegisterTag {
			addr.Reg = int16(op.Base.Reg)
		}
		addr.Offset = int64(op.Displacement)
	}
}

func operandSame(a, b lir.Operand) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case lir.RegisterTag:
		return a.Reg == b.Reg
	case lir.StackSlotTag:
		return a.SlotOffset == b.SlotOffset && a.InCallerFrame == b.InCallerFrame
	default:
		return false
	}
}
