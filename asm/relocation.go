// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// RelocationKind names what a Relocation's patch site holds before it is
// resolved, generalized from compile.Compile's single hardcoded case
// (patchOffset always writes an 8-byte little-endian absolute bytecode
// index — wagon never needed a second kind) into the handful of patch
// shapes spec.md §4.I's TargetMethod side tables actually require.
type RelocationKind uint8

const (
	// RelocAbsolute8 patches an 8-byte little-endian absolute address,
	// exactly patchOffset's write shape.
	RelocAbsolute8 RelocationKind = iota
	// RelocPCRelative32 patches a 4-byte little-endian offset relative to
	// the byte immediately following the patch site (x86 call/jmp rel32).
	RelocPCRelative32
)

// Relocation records one not-yet-resolved patch site: where it is (byte
// offset into the final code buffer) and what it will eventually hold
// (call target, data reference) (spec.md §4.I "data-patch sites"). The
// backend emitter does not record Relocations: it reaches blocks through
// Labels and reads side-table positions from each Prog's assembled Pc.
type Relocation struct {
	Kind   RelocationKind
	Offset int

	// Target identifies what the patch resolves to: a *method.MethodRef,
	// a runtime-call id, a stub id, or a reference-literal pool index,
	// matching the CallKind of the originating lir.CallTarget.
	Target interface{}
}

// Apply writes addr into code at the relocation's offset per its Kind.
func (r Relocation) Apply(code []byte, addr int64) {
	switch r.Kind {
	case RelocAbsolute8:
		var shift uint
		for i := 0; i < 8; i++ {
			code[r.Offset+i] = byte(addr >> shift)
			shift += 8
		}
	case RelocPCRelative32:
		rel := int32(addr - int64(r.Offset+4))
		var shift uint
		for i := 0; i < 4; i++ {
			code[r.Offset+i] = byte(uint32(rel) >> shift)
			shift += 8
		}
	}
}
