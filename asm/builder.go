// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm wraps golang-asm into a per-compilation code buffer with
// label support, the way exec/internal/compile/backend_amd64.go uses
// golang-asm directly but without any notion of a reusable label (wagon's
// JIT never needs one: its supported op subset is straight-line code with
// no branches). c1xgo's LIR always has jumps and branches, so the single
// AMD64Backend.Build method's inline use of asm.NewBuilder/NewProg/
// AddInstruction/Assemble is lifted out into Builder, shared by the
// backend emitter and the adapter generator.
package asm

import (
	"strconv"

	asmpkg "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"

	"github.com/go-interpreter/c1xgo/bailout"
)

// Builder accumulates obj.Prog instructions for one compilation and
// assembles them into machine code bytes, same contract as
// exec/internal/compile/backend_amd64.go's inline asm.NewBuilder call
// (128-instruction initial allocation is that file's own chosen size;
// kept here for the same reason: an arbitrary starting capacity tuned if
// profiling says otherwise).
type Builder struct {
	b      *asmpkg.Builder
	labels map[int32]*Label
	last   *obj.Prog
}

// NewBuilder creates a Builder targeting the named architecture ("amd64").
func NewBuilder(arch string) (*Builder, error) {
	b, err := asmpkg.NewBuilder(arch, 128)
	if err != nil {
		return nil, err
	}
	return &Builder{b: b, labels: map[int32]*Label{}}, nil
}

// NewProg allocates a fresh instruction, the same builder.NewProg() call
// backend_amd64.go makes before setting As/From/To on the result.
func (b *Builder) NewProg() *obj.Prog { return b.b.NewProg() }

// Add appends prog to the instruction stream in program order.
func (b *Builder) Add(prog *obj.Prog) {
	b.b.AddInstruction(prog)
	b.last = prog
}

// LastProg returns the most recently Add-ed instruction, used by the
// backend emitter to anchor a side-table position at a block's final
// non-terminator instruction without every emit* call needing to report it.
func (b *Builder) LastProg() *obj.Prog { return b.last }

// Label returns the Label for id, creating it on first reference — the
// label mechanism backend_amd64.go has no need of (no branches), generalized
// from compile.Compile's per-block patchOffsets list (see label.go).
func (b *Builder) Label(id int32) *Label {
	l, ok := b.labels[id]
	if !ok {
		l = &Label{id: id}
		b.labels[id] = l
	}
	return l
}

// Bind makes target the instruction label id resolves to. Binding a label
// again to the same instruction has no effect; binding it to a different
// instruction, or leaving a referenced label unbound until Assemble, is a
// Fatal (spec.md §7:
// "binding a label to two different offsets" is the canonical Fatal
// example).
func (b *Builder) Bind(id int32, target *obj.Prog) {
	b.Label(id).bind(target)
}

// Assemble finalizes every label reference and returns the assembled
// machine code. Any label left unbound is a Fatal — the emitter asked for
// a jump to a block that was never generated.
func (b *Builder) Assemble() []byte {
	for id, l := range b.labels {
		if !l.isBound() {
			bailout.Raise("asm: label " + strconv.Itoa(int(id)) + " referenced but never bound")
		}
		l.resolve()
	}
	return b.b.Assemble()
}
