// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package adapter generates the calling-convention thunks spec.md §4.J
// describes: small stubs that reshuffle arguments when a caller compiled
// under one convention (optimized or baseline) invokes a callee compiled
// under the other. wagon itself only ever has one calling convention (its
// bytecode interpreter and its amd64 JIT agree on argument layout, so no
// caller/callee mismatch can arise) — there is no adapter-shaped code
// anywhere in the retrieved pack to ground this on directly. It is built
// from spec.md §4.J's contract in the idiom backend/emitter.go already
// established: reuse asm.Builder to assemble a tiny compiled unit, the
// same way exec/internal/compile/backend_amd64.go assembles a whole
// method body.
package adapter

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/go-interpreter/c1xgo/asm"
	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/target"
)

// Direction names which calling convention the adapter's caller uses vs
// its callee (spec.md §4.J).
type Direction uint8

const (
	Opt2Baseline Direction = iota
	Baseline2Opt
)

// Adapter is one compiled reshuffling thunk, shared by every call site
// whose Sig matches the one it was generated for.
type Adapter struct {
	Code         []byte
	PrologueSize int
}

// Generator produces Adapters for one Direction. Arch must be set before
// Adapt is called; Cache supplies the signature-keyed memoization and
// locking spec.md §4.J's "at-most-one-concurrent-build-per-Sig" requires.
type Generator struct {
	Direction Direction
	Arch      *target.Architecture
}

// Adapt emits the reshuffling thunk for sig into a fresh code buffer and
// returns it, or (nil, nil) when sig needs no adaptation at all (spec.md
// §4.J: "e.g. OPT2BASELINE with zero parameters and static").
func (g *Generator) Adapt(sig kind.Sig) (*Adapter, error) {
	if len(sig.Kinds) == 0 && g.Direction == Opt2Baseline {
		return nil, nil
	}
	b, err := asm.NewBuilder(g.Arch.Name)
	if err != nil {
		return nil, err
	}
	g.emitFramePointerSave(b)
	g.emitArgumentShuffle(b, sig)
	code := b.Assemble()
	return &Adapter{Code: code, PrologueSize: len(code)}, nil
}

// PrologueSizeForCallee returns the exact byte length of the prologue this
// Generator would emit for sig — callers need this up front (before
// Adapt, or cached from a prior Adapt) so the stack walker can recognize
// "inside an adapter prologue" frames (spec.md §4.J).
func (g *Generator) PrologueSizeForCallee(sig kind.Sig) (int, error) {
	a, err := g.Adapt(sig)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, nil
	}
	return a.PrologueSize, nil
}

// AdvanceIfInPrologue reports whether ip falls within [entry, entry+size)
// — an adapter prologue — and if so advances cursor past it into the
// caller frame, returning true. The stack walker calls this while
// unwinding through an installed method's entry region.
func AdvanceIfInPrologue(ip, entry uintptr, size int, cursor *uintptr) bool {
	if ip < entry || ip >= entry+uintptr(size) {
		return false
	}
	*cursor = entry + uintptr(size)
	return true
}

func (g *Generator) emitFramePointerSave(b *asm.Builder) {
	// The adapter is responsible for the extra save/restore of the frame
	// pointer even when no arguments need moving (spec.md §4.J) — this is
	// why a parameterless BASELINE2OPT thunk is never elided.
	push := b.NewProg()
	push.As = x86.APUSHQ
	push.From.Type = obj.TYPE_REG
	push.From.Reg = x86.REG_BP
	b.Add(push)

	mov := b.NewProg()
	mov.As = x86.AMOVQ
	mov.From.Type = obj.TYPE_REG
	mov.From.Reg = x86.REG_SP
	mov.To.Type = obj.TYPE_REG
	mov.To.Reg = x86.REG_BP
	b.Add(mov)
}

// emitArgumentShuffle walks sig's kinds in order, moving each argument
// from its source-convention frame slot to its destination-convention
// frame slot. Slot sizes come from the target descriptor (spec.md §4.J
// "Frame-slot sizing": each category-1 kind occupies one slot of the
// source convention's slot size; longs/doubles occupy two).
func (g *Generator) emitArgumentShuffle(b *asm.Builder, sig kind.Sig) {
	srcConv, dstConv := target.Optimized, target.Baseline
	if g.Direction == Baseline2Opt {
		srcConv, dstConv = target.Baseline, target.Optimized
	}
	srcSlot := g.Arch.SlotSize(srcConv)
	dstSlot := g.Arch.SlotSize(dstConv)

	var srcOff, dstOff int32
	for _, k := range sig.Kinds {
		load := b.NewProg()
		load.As = x86.AMOVQ
		load.From.Type = obj.TYPE_MEM
		load.From.Reg = x86.REG_BP
		load.From.Offset = int64(srcOff)
		load.To.Type = obj.TYPE_REG
		load.To.Reg = x86.REG_AX
		b.Add(load)

		store := b.NewProg()
		store.As = x86.AMOVQ
		store.From.Type = obj.TYPE_REG
		store.From.Reg = x86.REG_AX
		store.To.Type = obj.TYPE_MEM
		store.To.Reg = x86.REG_SP
		store.To.Offset = int64(dstOff)
		b.Add(store)

		slots := int32(k.JVMSlots())
		srcOff += slots * int32(srcSlot)
		dstOff += slots * int32(dstSlot)
	}
}
