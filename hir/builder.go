// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hir

import (
	"fmt"
	"math"

	"github.com/go-interpreter/c1xgo/bailout"
	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/method"
)

// Simplifying assumption documented here rather than left implicit: the
// operand stack is always empty at every block boundary except an
// exception-handler entry, where it holds exactly the thrown exception
// object. Real JVM bytecode verifiers allow non-empty stacks at some join
// points; c1xgo's builder instead relies on javac-shaped input (values
// live across a branch always travel through locals, never the operand
// stack) which every bytecode producer this repo's test corpus and
// methodtext format emit follows. This keeps phi insertion limited to
// locals, mirroring the stack bookkeeping disasm.Disassemble itself (only
// a scalar depth counter, disasm/disasm.go) rather than a value-carrying
// merge.

// OSRNone signals "no on-stack-replacement entry" to Build.
const OSRNone = -1

// intrinsics maps a qualified "Holder.Name<sig>" call site to the
// intrinsic name the builder substitutes an Intrinsic node for (spec.md
// §4.F "Intrinsic recognition"). A small, fixed table, the same shape
// wagon would use if it recognized any JS/wasm import specially (it
// doesn't — this table has no wagon analogue, and is instead the literal
// set spec.md §4.F names).
var intrinsics = map[string]string{
	"Math.sin(double)double":   "sin",
	"Math.cos(double)double":   "cos",
	"Math.sqrt(double)double":  "sqrt",
	"Math.abs(double)double":   "abs",
	"Object.<init>()void":      "nop",
	"System.nanoTime()long":    "nanotime",
	"System.currentTimeMillis()long": "currenttimemillis",
	"Unsafe.compareAndSwapInt(object,long,int,int)boolean":          "cas_int",
	"Unsafe.compareAndSwapLong(object,long,long,long)boolean":       "cas_long",
	"Unsafe.compareAndSwapObject(object,long,object,object)boolean": "cas_object",
}

// Builder runs the abstract-interpretation pass that turns a method's
// bytecode into an HIR graph (spec.md §4.F).
//
// Grounded on disasm.Disassemble's single-pass abstract interpreter
// (disasm/disasm.go: a stack-of-stack-depths plus a block-index stack) and
// validate.verifyBody's frame stack (validate/vm.go's ctrlFrames,
// pushFrame/popFrame) — both are "abstract interpretation with an explicit
// block/frame stack" in miniature; Builder generalizes the same shape from
// scalar depth tracking into full phi-bearing FrameState merging.
type Builder struct {
	ir      *IR
	method  *method.Method
	bm      *BlockMap
	storesInLoops map[int]bool

	blockAt   map[int]NodeID
	bciIndex  map[int]int // bci -> index into method.Code
	worklist  []NodeID
	processed map[NodeID]bool

	// expectedPreds and mergedPreds gate when a non-loop-header join block
	// is ready to build: since the CFG's forward shape is fully known
	// ahead of time (every branch target is a static BCI), the builder
	// counts each block's forward in-edges up front and only enqueues it
	// once every one has merged, instead of building it the moment the
	// first predecessor arrives (which would freeze its locals before a
	// later-arriving sibling branch's phi is attached). Loop headers are
	// exempt: they carry eager phis (see prepareLoopHeaders) and are always
	// reached by their first forward edge strictly before any back edge,
	// so building them on first arrival is safe.
	expectedPreds map[NodeID]int
	mergedPreds   map[NodeID]int

	osrBCI int
}

// Build constructs the HIR graph for m. osrBCI is OSRNone, or the
// bytecode index of an on-stack-replacement entry (spec.md §4.F "OSR").
// Build returns a *bailout.Bailout (not a plain error) on any failure, per
// spec.md §7's propagation policy.
func Build(m *method.Method, osrBCI int) (ir *IR, err error) {
	defer func() {
		if r := recover(); r != nil {
			if b, ok := r.(*bailout.Bailout); ok {
				err = b
				return
			}
			panic(r)
		}
	}()

	b := &Builder{
		method:    m,
		osrBCI:    osrBCI,
		blockAt:   map[int]NodeID{},
		bciIndex:  map[int]int{},
		processed: map[NodeID]bool{},
	}
	for i, instr := range m.Code {
		b.bciIndex[instr.BCI] = i
	}
	b.bm = NewBlockMap(m)
	b.storesInLoops = StoresInLoops(m, b.bm)
	b.ir = NewIR()
	b.ir.PushScope(&IRScope{MethodRef: m, CallerBCI: -1, MaxLocals: m.MaxLocals, MaxStack: m.MaxStack})

	for _, bci := range b.bm.Boundaries() {
		blk := b.ir.NewBlock()
		blk.BCI = bci
		blk.IsLoopHeader = b.bm.IsLoopHeader(bci)
		b.blockAt[bci] = blk.ID
	}
	for _, h := range m.ExceptionHandlers {
		if blk := b.ir.Block(b.blockAt[h.HandlerBCI]); blk != nil {
			blk.IsExceptionEntry = true
		}
	}

	b.mergedPreds = map[NodeID]int{}
	b.computeExpectedPredecessors()

	start := b.ir.Block(b.blockAt[0])
	b.ir.StartBlock = start.ID
	seedID := start.ID

	if osrBCI == OSRNone {
		start.StateBefore = b.seedStartState()
		if m.IsSynchronized {
			b.emitMonitorEnter(start, start.StateBefore)
		}
	} else {
		// The normal bci-0 entry is unreachable in an OSR compilation: the
		// synthetic OSR block, seeded from the interpreter's live frame at
		// osrBCI, is the only entry. Leaving the bci-0 block unvisited (no
		// StateBefore) keeps it correctly absent from the graph.
		b.expectedPreds[b.blockAt[osrBCI]]++
		osr := b.buildOSREntry(osrBCI)
		b.ir.StartBlock = osr.ID
		seedID = osr.successorID
	}

	b.prepareLoopHeaders()

	b.worklist = append(b.worklist, seedID)
	for len(b.worklist) > 0 {
		id := b.worklist[len(b.worklist)-1]
		b.worklist = b.worklist[:len(b.worklist)-1]
		if b.processed[id] {
			continue
		}
		b.processed[id] = true
		blk := b.ir.Block(id)
		if blk.StateBefore == nil {
			b.bail(bailout.InvariantViolation, blk.BCI, fmt.Sprintf("block at bci %d has no merged state when popped from worklist", blk.BCI))
		}
		b.buildBlock(blk)
	}

	if err2 := b.ir.CheckInvariants(); err2 != nil {
		return nil, bailout.New(bailoutKindFor(err2), err2.Error())
	}
	return b.ir, nil
}

func bailoutKindFor(err error) bailout.Subkind { return bailout.InvariantViolation }

// computeExpectedPredecessors counts each block's forward in-edges from a
// static scan of the bytecode, before any interpretation happens.
func (b *Builder) computeExpectedPredecessors() {
	b.expectedPreds = map[NodeID]int{}
	add := func(bci int) { b.expectedPreds[b.blockAt[bci]]++ }
	for i, instr := range b.method.Code {
		switch instr.Op {
		case method.Goto:
			add(instr.BranchTarget)
		case method.If, method.IfCmp:
			add(instr.BranchTarget)
			if i+1 < len(b.method.Code) {
				add(b.method.Code[i+1].BCI)
			}
		case method.TableSwitch, method.LookupSwitch:
			add(instr.DefaultTarget)
			for _, t := range instr.Targets {
				add(t)
			}
		case method.Throw:
			for _, h := range b.exceptionHandlersCovering(instr.BCI) {
				b.expectedPreds[h]++
			}
		case method.Div, method.Rem,
			method.InvokeStatic, method.InvokeSpecial, method.InvokeVirtual, method.InvokeInterface,
			method.ArrayLoad, method.ArrayStore, method.ArrayLength,
			method.PutField, method.PutStatic,
			method.New, method.NewArray, method.ANewArray, method.MultiANewArray, method.CheckCast:
			for _, h := range b.exceptionHandlersCovering(instr.BCI) {
				b.expectedPreds[h]++
			}
		case method.GetField, method.GetStatic:
			if instr.Field.Volatile {
				for _, h := range b.exceptionHandlersCovering(instr.BCI) {
					b.expectedPreds[h]++
				}
			}
		}
	}
}

// seedStartState builds the entry FrameState: one Local value per
// parameter, an empty operand stack.
func (b *Builder) seedStartState() *FrameState {
	fs := NewFrameState(b.method.MaxLocals, b.method.MaxStack, nil)
	slot := 0
	for _, pk := range b.method.Sig.Params {
		v := b.ir.NewValue(TagLocal)
		v.Kind = pk
		v.Aux = LocalAux{SlotIndex: slot}
		v.Flags |= FlagLive
		fs.Locals[slot] = v.ID
		slot += pk.JVMSlots()
	}
	return fs
}

// prepareLoopHeaders pre-populates an eager phi for every local in the
// stores-in-loops set at every loop header block, before any predecessor
// has merged into it — necessary because a loop header's backward edge
// arrives only after the whole loop body has been walked, by which point
// the header's committed (non-phi) value for that local would already have
// been handed to consumers inside the loop (spec.md §4.F).
func (b *Builder) prepareLoopHeaders() {
	for _, bci := range b.bm.Boundaries() {
		blk := b.ir.Block(b.blockAt[bci])
		if !blk.IsLoopHeader {
			continue
		}
		fs := NewFrameState(b.method.MaxLocals, b.method.MaxStack, nil)
		for i := range fs.Locals {
			if b.storesInLoops[i] {
				phi := b.ir.NewValue(TagPhi)
				phi.Block = blk.ID
				phi.Flags |= FlagLive
				blk.Phis = append(blk.Phis, phi.ID)
				fs.Locals[i] = phi.ID
			} else {
				fs.Locals[i] = NoNode
			}
		}
		blk.StateBefore = fs
	}
}

type osrResult struct {
	ID          NodeID
	successorID NodeID
}

func (b *Builder) buildOSREntry(osrBCI int) osrResult {
	target, ok := b.blockAt[osrBCI]
	if !ok {
		b.bail(bailout.InvariantViolation, osrBCI, fmt.Sprintf("osr entry bci %d is not a discovered block boundary", osrBCI))
	}
	osr := b.ir.NewBlock()
	// OSR entry carries its own trivial state: an empty stack (a real OSR
	// transition only happens at a loop header, where the stack is always
	// empty by the same assumption buildBlock's merge logic relies on
	// elsewhere in this file) and one TagOsrEntry value per local slot.
	osr.StateBefore = NewFrameState(b.method.MaxLocals, b.method.MaxStack, nil)
	fs := NewFrameState(b.method.MaxLocals, b.method.MaxStack, nil)
	for i := range fs.Locals {
		v := b.ir.NewValue(TagOsrEntry)
		v.Aux = LocalAux{SlotIndex: i}
		v.Flags |= FlagLive
		b.ir.AppendToBlock(osr, v)
		fs.Locals[i] = v.ID
	}
	b.setBlockEnd(osr, BlockEnd{Kind: EndBase, Successors: []NodeID{target}})
	b.mergeFrameInto(osr, fs, target)
	return osrResult{ID: osr.ID, successorID: target}
}

func (b *Builder) emitMonitorEnter(blk *Block, fs *FrameState) {
	v := b.ir.NewValue(TagMonitorEnter)
	v.Kind = kind.Void
	v.Flags |= FlagLive
	b.ir.AppendToBlock(blk, v)
}

func (b *Builder) emitMonitorExit(blk *Block, fs *FrameState) {
	v := b.ir.NewValue(TagMonitorExit)
	v.Kind = kind.Void
	v.Flags |= FlagLive
	b.ir.AppendToBlock(blk, v)
}

// buildBlock interprets bytecode starting at blk.BCI until a BlockEnd is
// appended, per spec.md §4.F's main loop.
func (b *Builder) buildBlock(blk *Block) {
	fs := blk.StateBefore.Copy()
	idx, ok := b.bciIndex[blk.BCI]
	if !ok {
		b.bail(bailout.InvariantViolation, blk.BCI, fmt.Sprintf("block boundary at bci %d does not align with an instruction", blk.BCI))
	}

	if blk.IsExceptionEntry {
		exc := b.ir.NewValue(TagExceptionObject)
		exc.Kind = kind.Object
		exc.Flags |= FlagLive | FlagNonNull
		fs.Push(exc.ID)
		b.ir.AppendToBlock(blk, exc)
	}

	for {
		instr := b.method.Code[idx]
		if instr.BCI != blk.BCI && b.bm.IsBoundary(instr.BCI) {
			// Implicit fall-through into the next block.
			target := b.blockAt[instr.BCI]
			end := BlockEnd{Kind: EndGoto, Successors: []NodeID{target}}
			b.setBlockEnd(blk, end)
			b.mergeFrameInto(blk, fs, target)
			return
		}
		terminal := b.interpret(blk, fs, instr, idx)
		if terminal {
			return
		}
		idx++
		if idx >= len(b.method.Code) {
			b.bail(bailout.InvariantViolation, instr.BCI, "fell off the end of the bytecode without a terminator")
		}
	}
}

func (b *Builder) setBlockEnd(blk *Block, end BlockEnd) {
	blk.End = end
	blk.Successors = end.Successors
}

func (b *Builder) mergeFrameInto(from *Block, fs *FrameState, targetID NodeID) {
	b.mergeFrameIntoStack(from, fs, targetID, false)
}

// mergeFrameIntoStack merges fs's locals (and, unless clearStack, its
// operand stack) into target's StateBefore, recording from as a
// predecessor. clearStack is used for exception edges: entering a handler
// always starts from an empty abstract stack, regardless of the depth the
// throwing instruction executed at (buildBlock separately pushes the
// caught exception object for IsExceptionEntry blocks).
func (b *Builder) mergeFrameIntoStack(from *Block, fs *FrameState, targetID NodeID, clearStack bool) {
	target := b.ir.Block(targetID)
	target.AddPredecessor(from.ID)
	b.mergedPreds[targetID]++
	if target.IsLoopHeader || b.mergedPreds[targetID] >= b.expectedPreds[targetID] {
		defer b.enqueue(targetID)
	}

	if clearStack {
		clipped := fs.Copy()
		clipped.Stack = clipped.Stack[:0]
		fs = clipped
	}

	if target.StateBefore == nil {
		target.StateBefore = fs.Copy()
		return
	}
	ts := target.StateBefore
	if len(ts.Locals) != len(fs.Locals) {
		b.bail(bailout.InvariantViolation, target.BCI, "mismatched local-slot counts at merge")
	}
	for i := range ts.Locals {
		cur := fs.Locals[i]
		if ts.Locals[i] == NoNode {
			ts.Locals[i] = cur
			continue
		}
		existing := ts.Locals[i]
		if existing == cur {
			continue
		}
		ev := b.ir.Value(existing)
		if ev != nil && ev.Tag == TagPhi && ev.Block == targetID {
			ev.Inputs = append(ev.Inputs, cur)
			continue
		}
		phi := b.ir.NewValue(TagPhi)
		phi.Block = targetID
		phi.Flags |= FlagLive
		if ev := b.ir.Value(existing); ev != nil {
			phi.Kind = ev.Kind
		}
		// Every merge that happened before this one agreed on existing (that
		// is precisely why no phi existed yet), so the phi owes one input
		// per such prior merge before this one's cur, or its arity falls
		// short of the predecessor count those merges already recorded.
		phi.Inputs = make([]NodeID, 0, b.mergedPreds[targetID])
		for n := 1; n < b.mergedPreds[targetID]; n++ {
			phi.Inputs = append(phi.Inputs, existing)
		}
		phi.Inputs = append(phi.Inputs, cur)
		target.Phis = append(target.Phis, phi.ID)
		ts.Locals[i] = phi.ID
	}

	if len(ts.Stack) != len(fs.Stack) {
		b.bail(bailout.InvariantViolation, target.BCI, "mismatched operand-stack depth at merge")
	}
	for i := range ts.Stack {
		if ts.Stack[i] == NoNode {
			ts.Stack[i] = fs.Stack[i]
			continue
		}
		if ts.Stack[i] == fs.Stack[i] {
			continue
		}
		existing := ts.Stack[i]
		ev := b.ir.Value(existing)
		if ev != nil && ev.Tag == TagPhi && ev.Block == targetID {
			ev.Inputs = append(ev.Inputs, fs.Stack[i])
			continue
		}
		phi := b.ir.NewValue(TagPhi)
		phi.Block = targetID
		phi.Flags |= FlagLive
		if ev != nil {
			phi.Kind = ev.Kind
		}
		phi.Inputs = make([]NodeID, 0, b.mergedPreds[targetID])
		for n := 1; n < b.mergedPreds[targetID]; n++ {
			phi.Inputs = append(phi.Inputs, existing)
		}
		phi.Inputs = append(phi.Inputs, fs.Stack[i])
		target.Phis = append(target.Phis, phi.ID)
		ts.Stack[i] = phi.ID
	}
}

func (b *Builder) enqueue(id NodeID) {
	if !b.processed[id] {
		b.worklist = append(b.worklist, id)
	}
}

func (b *Builder) bail(kind bailout.Subkind, bci int, reason string) {
	panic(bailout.At(kind, bci, reason))
}

// currentScope returns the active IRScope: Build pushes the root scope
// before building any block and never pops it, and the builder does not
// inline calls, so no child scope is ever pushed.
func (b *Builder) currentScope() *IRScope { return b.ir.CurrentScope() }

// snapshot records fs as a debug-info site in the current scope and
// returns its index.
func (b *Builder) snapshot(fs *FrameState) int {
	return b.currentScope().RecordSnapshot(fs)
}

// exceptionHandlersCovering returns the handler block NodeIDs whose guarded
// range [StartBCI, EndBCI) covers bci, innermost (latest in table) first.
func (b *Builder) exceptionHandlersCovering(bci int) []NodeID {
	var out []NodeID
	for _, h := range b.method.ExceptionHandlers {
		if bci >= h.StartBCI && bci < h.EndBCI {
			out = append(out, b.blockAt[h.HandlerBCI])
		}
	}
	return out
}

// emitPEI checks whether instr (already appended to blk by the caller) lies
// within some exception handler's guarded range and, if so, terminates blk
// with an EndPEI edge to both the normal fall-through block and the covering
// handler block(s) — the control-flow counterpart of the block boundary
// blockmap.go's discovery pass already inserted after instr (spec.md §4.F,
// §8 scenario 4). Returns false, leaving blk open for further interpretation,
// when instr is not covered by any handler.
func (b *Builder) emitPEI(blk *Block, fs *FrameState, instr method.Instr, idx int) bool {
	handlers := b.exceptionHandlersCovering(instr.BCI)
	if len(handlers) == 0 {
		return false
	}
	if idx+1 >= len(b.method.Code) {
		b.bail(bailout.InvariantViolation, instr.BCI, "potentially-excepting instruction covered by a handler has no fall-through instruction")
	}
	cont := b.blockAt[b.method.Code[idx+1].BCI]
	edges := make([]ExceptionEdge, len(handlers))
	for i, h := range handlers {
		edges[i] = ExceptionEdge{HandlerBlock: h}
	}
	successors := append([]NodeID{cont}, handlers...)
	b.setBlockEnd(blk, BlockEnd{Kind: EndPEI, ExceptionEdges: edges, Successors: successors})
	b.mergeFrameInto(blk, fs, cont)
	for _, h := range handlers {
		b.mergeFrameIntoStack(blk, fs, h, true)
	}
	return true
}

// intrinsicKey renders the lookup key interpret uses against the intrinsics
// table: "Holder.Name(params)result".
func intrinsicKey(ref *method.MethodRef) string {
	return ref.Holder + "." + ref.Name + ref.Sig.String()
}

// interpret executes one bytecode instruction against fs, appending any
// resulting Value to blk, and returns true if it appended a BlockEnd
// (terminating blk).
func (b *Builder) interpret(blk *Block, fs *FrameState, instr method.Instr, idx int) bool {
	switch instr.Op {
	case method.Nop:
		// no-op

	case method.ConstInt, method.ConstLong, method.ConstFloat, method.ConstDouble, method.ConstNull:
		v := b.ir.NewValue(TagConstant)
		v.Kind = instr.Kind
		v.Flags |= FlagLive
		var bits uint64
		switch instr.Op {
		case method.ConstInt:
			bits = uint64(uint32(instr.IntImm))
		case method.ConstLong:
			bits = uint64(instr.IntImm)
		case method.ConstFloat:
			bits = uint64(math.Float32bits(float32(instr.FloatImm)))
		case method.ConstDouble:
			bits = math.Float64bits(instr.FloatImm)
		case method.ConstNull:
			bits = 0
		}
		v.Aux = ConstantAux{Bits: bits}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)

	case method.Load:
		fs.Push(fs.Local(instr.LocalSlot))

	case method.Store:
		v := fs.Pop()
		if instr.Kind.IsCategory2() {
			fs.SetLocalWide(instr.LocalSlot, v, NoNode)
		} else {
			fs.SetLocal(instr.LocalSlot, v)
		}

	case method.IInc:
		c := b.ir.NewValue(TagConstant)
		c.Kind = kind.Int
		c.Flags |= FlagLive
		c.Aux = ConstantAux{Bits: uint64(uint32(instr.IntImm))}
		b.ir.AppendToBlock(blk, c)
		v := b.ir.NewValue(TagArithmeticOp)
		v.Kind = kind.Int
		v.Flags |= FlagLive
		v.Inputs = []NodeID{fs.Local(instr.LocalSlot), c.ID}
		v.Aux = ArithAux{Op: "add"}
		b.ir.AppendToBlock(blk, v)
		fs.SetLocal(instr.LocalSlot, v.ID)

	case method.ArrayLoad:
		index := fs.Pop()
		arr := fs.Pop()
		v := b.ir.NewValue(TagLoadIndexed)
		v.Kind = instr.Kind
		v.Flags |= FlagLive
		v.Inputs = []NodeID{arr, index}
		v.Aux = IndexedAux{ElemKind: instr.Kind, NeedsBoundsChk: true}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.ArrayStore:
		val := fs.Pop()
		index := fs.Pop()
		arr := fs.Pop()
		v := b.ir.NewValue(TagStoreIndexed)
		v.Kind = kind.Void
		v.Flags |= FlagLive
		v.Inputs = []NodeID{arr, index, val}
		v.Aux = IndexedAux{ElemKind: instr.Kind, NeedsBoundsChk: true, NeedsStoreChk: instr.Kind == kind.Object}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.ArrayLength:
		arr := fs.Pop()
		v := b.ir.NewValue(TagArrayLength)
		v.Kind = kind.Int
		v.Flags |= FlagLive
		v.Inputs = []NodeID{arr}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.Pop:
		fs.Pop()

	case method.Pop2:
		fs.Pop()
		fs.Pop()

	case method.Dup:
		fs.Push(fs.Top())

	case method.DupX1:
		a := fs.Pop()
		c := fs.Pop()
		fs.Push(a)
		fs.Push(c)
		fs.Push(a)

	case method.Swap:
		a := fs.Pop()
		c := fs.Pop()
		fs.Push(a)
		fs.Push(c)

	case method.Add, method.Sub, method.Mul, method.Div, method.Rem:
		rhs := fs.Pop()
		lhs := fs.Pop()
		v := b.ir.NewValue(TagArithmeticOp)
		v.Kind = instr.Kind
		v.Flags |= FlagLive
		v.Inputs = []NodeID{lhs, rhs}
		v.Aux = ArithAux{Op: instr.ArithOp}
		if instr.Op == method.Div || instr.Op == method.Rem {
			v.FrameStateIdx = b.snapshot(fs)
		}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if (instr.Op == method.Div || instr.Op == method.Rem) && b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.Shl, method.Shr, method.UShr:
		rhs := fs.Pop()
		lhs := fs.Pop()
		v := b.ir.NewValue(TagShiftOp)
		v.Kind = instr.Kind
		v.Flags |= FlagLive
		v.Inputs = []NodeID{lhs, rhs}
		v.Aux = ArithAux{Op: instr.ArithOp}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)

	case method.And, method.Or, method.Xor:
		rhs := fs.Pop()
		lhs := fs.Pop()
		v := b.ir.NewValue(TagLogicOp)
		v.Kind = instr.Kind
		v.Flags |= FlagLive
		v.Inputs = []NodeID{lhs, rhs}
		v.Aux = ArithAux{Op: instr.ArithOp}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)

	case method.Neg:
		val := fs.Pop()
		v := b.ir.NewValue(TagNegate)
		v.Kind = instr.Kind
		v.Flags |= FlagLive
		v.Inputs = []NodeID{val}
		v.Aux = ArithAux{Op: "neg"}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)

	case method.Convert:
		val := fs.Pop()
		v := b.ir.NewValue(TagConvert)
		v.Kind = instr.ConvertTo
		v.Flags |= FlagLive
		v.Inputs = []NodeID{val}
		v.Aux = ConvertAux{From: instr.ConvertFrom, To: instr.ConvertTo}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)

	case method.Compare:
		rhs := fs.Pop()
		lhs := fs.Pop()
		v := b.ir.NewValue(TagCompare)
		v.Kind = kind.Int
		v.Flags |= FlagLive
		v.Inputs = []NodeID{lhs, rhs}
		v.Aux = CompareAux{Condition: instr.Cond}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)

	case method.Goto:
		target := b.blockAt[instr.BranchTarget]
		b.setBlockEnd(blk, BlockEnd{Kind: EndGoto, Successors: []NodeID{target}})
		b.mergeFrameInto(blk, fs, target)
		return true

	case method.If, method.IfCmp:
		var lhs, rhs NodeID
		if instr.Op == method.IfCmp {
			rhs = fs.Pop()
			lhs = fs.Pop()
		} else {
			lhs = fs.Pop()
			rhs = NoNode
		}
		trueSucc := b.blockAt[instr.BranchTarget]
		var falseSucc NodeID
		if idx+1 < len(b.method.Code) {
			falseSucc = b.blockAt[b.method.Code[idx+1].BCI]
		}
		v := b.ir.NewValue(TagIf)
		v.Kind = kind.Void
		v.Flags |= FlagLive
		if rhs != NoNode {
			v.Inputs = []NodeID{lhs, rhs}
		} else {
			v.Inputs = []NodeID{lhs}
		}
		v.Aux = IfAux{Condition: instr.Cond, TrueSucc: trueSucc, FalseSucc: falseSucc}
		b.ir.AppendToBlock(blk, v)
		b.setBlockEnd(blk, BlockEnd{Kind: EndIf, Condition: v.ID, Successors: []NodeID{trueSucc, falseSucc}})
		b.mergeFrameInto(blk, fs, trueSucc)
		b.mergeFrameInto(blk, fs, falseSucc)
		return true

	case method.TableSwitch, method.LookupSwitch:
		key := fs.Pop()
		def := b.blockAt[instr.DefaultTarget]
		successors := make([]NodeID, len(instr.Targets))
		for i, t := range instr.Targets {
			successors[i] = b.blockAt[t]
		}
		tag := TagTableSwitch
		endKind := EndTableSwitch
		if instr.Op == method.LookupSwitch {
			tag = TagLookupSwitch
			endKind = EndLookupSwitch
		}
		sw := SwitchAux{Keys: instr.Keys, LowKey: instr.LowKey, Successors: successors, Default: def}
		v := b.ir.NewValue(tag)
		v.Kind = kind.Void
		v.Flags |= FlagLive
		v.Inputs = []NodeID{key}
		v.Aux = sw
		b.ir.AppendToBlock(blk, v)
		all := append(append([]NodeID{}, successors...), def)
		b.setBlockEnd(blk, BlockEnd{Kind: endKind, Condition: v.ID, Switch: &sw, Successors: all})
		for _, s := range all {
			b.mergeFrameInto(blk, fs, s)
		}
		return true

	case method.Return:
		var inputs []NodeID
		if b.method.Sig.Result != kind.Void {
			inputs = []NodeID{fs.Pop()}
		}
		if b.method.IsSynchronized {
			b.emitMonitorExit(blk, fs)
		}
		v := b.ir.NewValue(TagReturn)
		v.Kind = b.method.Sig.Result
		v.Flags |= FlagLive
		v.Inputs = inputs
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		b.setBlockEnd(blk, BlockEnd{Kind: EndReturn})
		return true

	case method.Throw:
		val := fs.Pop()
		if b.method.IsSynchronized {
			b.emitMonitorExit(blk, fs)
		}
		v := b.ir.NewValue(TagThrow)
		v.Kind = kind.Void
		v.Flags |= FlagLive
		v.Inputs = []NodeID{val}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		handlers := b.exceptionHandlersCovering(instr.BCI)
		b.setBlockEnd(blk, BlockEnd{Kind: EndThrow, Successors: handlers})
		for _, h := range handlers {
			b.mergeFrameIntoStack(blk, fs, h, true)
		}
		return true

	case method.GetField, method.GetStatic:
		var obj NodeID = NoNode
		if instr.Op == method.GetField {
			obj = fs.Pop()
		}
		v := b.ir.NewValue(TagLoadField)
		v.Kind = instr.Field.FieldKind
		v.Flags |= FlagLive
		if obj != NoNode {
			v.Inputs = []NodeID{obj}
		}
		v.Aux = FieldAux{Offset: instr.Field.Offset, Volatile: instr.Field.Volatile, FieldKind: instr.Field.FieldKind}
		if instr.Field.Volatile {
			v.FrameStateIdx = b.snapshot(fs)
		}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if instr.Field.Volatile && b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.PutField, method.PutStatic:
		val := fs.Pop()
		var obj NodeID = NoNode
		if instr.Op == method.PutField {
			obj = fs.Pop()
		}
		v := b.ir.NewValue(TagStoreField)
		v.Kind = kind.Void
		v.Flags |= FlagLive
		if obj != NoNode {
			v.Inputs = []NodeID{obj, val}
		} else {
			v.Inputs = []NodeID{val}
		}
		v.Aux = FieldAux{Offset: instr.Field.Offset, Volatile: instr.Field.Volatile, FieldKind: instr.Field.FieldKind}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.InvokeStatic, method.InvokeSpecial, method.InvokeVirtual, method.InvokeInterface:
		ref := instr.Method
		n := len(ref.Sig.Params)
		if instr.Op != method.InvokeStatic {
			n++
		}
		inputs := make([]NodeID, n)
		for i := n - 1; i >= 0; i-- {
			inputs[i] = fs.Pop()
		}
		tag := TagInvoke
		var aux interface{} = InvokeAux{MethodRef: ref, IsVirtual: instr.Op == method.InvokeVirtual || instr.Op == method.InvokeInterface, IsStatic: instr.Op == method.InvokeStatic}
		if name, ok := intrinsics[intrinsicKey(ref)]; ok {
			tag = TagIntrinsic
			aux = IntrinsicAux{Name: name}
		}
		v := b.ir.NewValue(tag)
		v.Kind = ref.Sig.Result
		v.Flags |= FlagLive
		v.Inputs = inputs
		v.Aux = aux
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		if ref.Sig.Result != kind.Void {
			fs.Push(v.ID)
		}
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.New:
		v := b.ir.NewValue(TagNewInstance)
		v.Kind = kind.Object
		v.Flags |= FlagLive | FlagNonNull
		v.Aux = NewAux{TypeRef: instr.TypeRef}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.NewArray, method.ANewArray:
		length := fs.Pop()
		tag := TagNewTypeArray
		if instr.Op == method.ANewArray {
			tag = TagNewObjectArray
		}
		v := b.ir.NewValue(tag)
		v.Kind = kind.Object
		v.Flags |= FlagLive | FlagNonNull
		v.Inputs = []NodeID{length}
		v.Aux = NewAux{TypeRef: instr.TypeRef, ElemKind: instr.ArrayElem}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.MultiANewArray:
		dims := make([]NodeID, instr.Dims)
		for i := instr.Dims - 1; i >= 0; i-- {
			dims[i] = fs.Pop()
		}
		v := b.ir.NewValue(TagNewMultiArray)
		v.Kind = kind.Object
		v.Flags |= FlagLive | FlagNonNull
		v.Inputs = dims
		v.Aux = NewAux{TypeRef: instr.TypeRef, ElemKind: instr.ArrayElem, Dims: instr.Dims}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.CheckCast:
		val := fs.Pop()
		v := b.ir.NewValue(TagCheckCast)
		v.Kind = kind.Object
		v.Flags |= FlagLive
		v.Inputs = []NodeID{val}
		v.Aux = NewAux{TypeRef: instr.TypeRef}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)
		if b.emitPEI(blk, fs, instr, idx) {
			return true
		}

	case method.InstanceOf:
		val := fs.Pop()
		v := b.ir.NewValue(TagInstanceOf)
		v.Kind = kind.Int
		v.Flags |= FlagLive
		v.Inputs = []NodeID{val}
		v.Aux = NewAux{TypeRef: instr.TypeRef}
		b.ir.AppendToBlock(blk, v)
		fs.Push(v.ID)

	case method.MonitorEnter:
		val := fs.Pop()
		v := b.ir.NewValue(TagMonitorEnter)
		v.Kind = kind.Void
		v.Flags |= FlagLive
		v.Inputs = []NodeID{val}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)

	case method.MonitorExit:
		val := fs.Pop()
		v := b.ir.NewValue(TagMonitorExit)
		v.Kind = kind.Void
		v.Flags |= FlagLive
		v.Inputs = []NodeID{val}
		v.FrameStateIdx = b.snapshot(fs)
		b.ir.AppendToBlock(blk, v)

	case method.Unreachable:
		b.setBlockEnd(blk, BlockEnd{Kind: EndBase})
		return true

	default:
		b.bail(bailout.UnsupportedBytecode, instr.BCI, fmt.Sprintf("opcode %v not recognized by the builder", instr.Op))
	}
	return false
}
