// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lir

// List is the per-block LIR op list the generator appends to and the
// backend emitter later walks in order (spec.md §4.H/§4.I). Modeled on the
// flat append-only instruction stream exec/internal/compile/compile.go
// builds over a bytes.Buffer, generalized from raw bytes to typed
// Instructions so the backend can still be architecture-independent.
type List struct {
	instrs []Instruction
}

// Append adds instr to the end of the list and returns its index.
func (l *List) Append(instr Instruction) int {
	l.instrs = append(l.instrs, instr)
	return len(l.instrs) - 1
}

// Len returns the number of instructions currently in the list.
func (l *List) Len() int { return len(l.instrs) }

// At returns the instruction at index i.
func (l *List) At(i int) Instruction { return l.instrs[i] }

// Set overwrites the already-appended instruction at index i in place.
func (l *List) Set(i int, instr Instruction) { l.instrs[i] = instr }

// All returns the full instruction slice for iteration by the backend
// emitter. The slice is owned by List; callers must not retain it past a
// further Append (which may reallocate).
func (l *List) All() []Instruction { return l.instrs }
