// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"github.com/twitchyliquid64/golang-asm/obj"

	"github.com/go-interpreter/c1xgo/bailout"
)

// Label names a jump target within one Builder's instruction stream.
// Grounded on compile.Compile's hand-rolled per-block patching
// (block.patchOffsets []int64, resolved by patchOffset(code, offset, addr)
// once the block's address is known) — generalized from "a list of byte
// offsets into a flat buffer, patched with a raw 8-byte address" into "a
// list of *obj.Prog branch instructions, patched by pointing their
// destination at the bound *obj.Prog directly", since golang-asm's own
// linker resolves an obj.TYPE_BRANCH instruction's final byte offset from
// a live *obj.Prog reference rather than from a raw address the caller
// computed itself.
type Label struct {
	id      int32
	target  *obj.Prog
	pending []*obj.Prog
}

// ID returns the label's identifier (an hir.NodeID in the LIR generator's
// usage, cast to int32 — see hir.label).
func (l *Label) ID() int32 { return l.id }

// Use records prog as a branch whose destination is this label, returning
// prog for chaining. If the label is already bound, prog's target is set
// immediately; otherwise it is deferred until bind (a forward reference,
// the common case: most branches target a block not yet emitted).
func (l *Label) Use(prog *obj.Prog) *obj.Prog {
	prog.To.Type = obj.TYPE_BRANCH
	if l.target != nil {
		prog.To.Val = l.target
		return prog
	}
	l.pending = append(l.pending, prog)
	return prog
}

// bind fixes the label to target. Binding the same label a second time to
// a different instruction is a Fatal (spec.md §7's canonical example:
// "binding a label to two different offsets") — it means two blocks
// claimed the same label id, an emitter bug rather than a recoverable
// compilation failure.
func (l *Label) bind(target *obj.Prog) {
	if l.target != nil && l.target != target {
		bailout.Raise("asm: label rebound to a different instruction")
	}
	l.target = target
}

func (l *Label) isBound() bool { return l.target != nil }

// resolve patches every pending branch's destination now that the label
// is bound. Called once per label by Builder.Assemble.
func (l *Label) resolve() {
	for _, prog := range l.pending {
		prog.To.Val = l.target
	}
	l.pending = nil
}
