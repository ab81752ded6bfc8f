// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kind

import "strings"

// Signature is an ordered sequence of parameter kinds plus one result kind.
type Signature struct {
	Params []Kind
	Result Kind
}

// String renders the signature in "(ptypes)rtype" shorthand, mirroring the
// class-file signature strings the surrounding runtime hands the compiler.
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	b.WriteString(s.Result.String())
	return b.String()
}

// ArgSig returns the adapter Sig for this signature: its parameter kinds
// plus, if isVirtual, a leading Object receiver kind. Adapter signatures
// never include the result kind, since every calling convention returns a
// value through the same location (spec.md §3, "Signature").
func (s Signature) ArgSig(isVirtual bool) Sig {
	kinds := make([]Kind, 0, len(s.Params)+1)
	if isVirtual {
		kinds = append(kinds, Object)
	}
	kinds = append(kinds, s.Params...)
	return Sig{Kinds: kinds}
}

// Sig is the adapter-cache key described in spec.md §4.J: the argument kind
// sequence a calling-convention adapter is generated for, independent of
// the callee's identity. Two calls with equal Sigs share one adapter body.
type Sig struct {
	Kinds []Kind
}

// Equal reports whether s and o describe the same kind sequence,
// element-wise (spec.md §8 "Signature equality" law).
func (s Sig) Equal(o Sig) bool {
	if len(s.Kinds) != len(o.Kinds) {
		return false
	}
	for i, k := range s.Kinds {
		if o.Kinds[i] != k {
			return false
		}
	}
	return true
}

// Key renders a Sig as a comparable string, usable as a map key without
// requiring callers to build their own canonicalization.
func (s Sig) Key() string {
	var b strings.Builder
	for _, k := range s.Kinds {
		b.WriteByte(byte(k) + 'a')
	}
	return b.String()
}
