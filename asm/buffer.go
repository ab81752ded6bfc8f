// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// Buffer is an append-only code byte accumulator tracking the current
// write position, the role compile.Compile fills inline with a raw
// *bytes.Buffer (`buffer := new(bytes.Buffer)`, `buffer.Len()` used as the
// "current offset" throughout its block-patching logic). Builder.Assemble
// already returns a finished []byte from golang-asm directly, so Buffer is
// only for callers accumulating bytes themselves; no package in this module
// uses it, since the backend emitter and the adapter generator both
// assemble through Builder.
type Buffer struct {
	bytes []byte
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.bytes) }

// Emit appends p to the buffer and returns the offset it was written at.
func (b *Buffer) Emit(p []byte) int {
	off := len(b.bytes)
	b.bytes = append(b.bytes, p...)
	return off
}

// Bytes returns the buffer's contents. The returned slice is owned by
// Buffer; callers must not retain it past a further Emit.
func (b *Buffer) Bytes() []byte { return b.bytes }

// Finish returns the final byte slice and resets the buffer to empty.
func (b *Buffer) Finish() []byte {
	out := b.bytes
	b.bytes = nil
	return out
}
