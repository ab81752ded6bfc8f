// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kind

import "testing"

func TestIsCategory2(t *testing.T) {
	for _, k := range []Kind{Long, Double} {
		if !k.IsCategory2() {
			t.Errorf("%s.IsCategory2() = false, want true", k)
		}
		if got, want := k.JVMSlots(), 2; got != want {
			t.Errorf("%s.JVMSlots() = %d, want %d", k, got, want)
		}
	}
	for _, k := range []Kind{Int, Object, Boolean, Void} {
		if k.IsCategory2() {
			t.Errorf("%s.IsCategory2() = true, want false", k)
		}
		if got, want := k.JVMSlots(), 1; got != want {
			t.Errorf("%s.JVMSlots() = %d, want %d", k, got, want)
		}
	}
}

func TestStackKindCollapsesSubwordIntegers(t *testing.T) {
	for _, k := range []Kind{Boolean, Byte, Short, Char, Int} {
		if got := k.StackKind(); got != StackInt {
			t.Errorf("%s.StackKind() = %s, want %s", k, got, StackInt)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	for _, k := range []Kind{Byte, Short, Char, Int, Long, Float, Double} {
		if !k.IsNumeric() {
			t.Errorf("%s.IsNumeric() = false, want true", k)
		}
	}
	for _, k := range []Kind{Object, Word, Void, Boolean} {
		if k.IsNumeric() {
			t.Errorf("%s.IsNumeric() = true, want false", k)
		}
	}
}

func TestSignatureString(t *testing.T) {
	sig := Signature{Params: []Kind{Int, Object}, Result: Boolean}
	if got, want := sig.String(), "(int,object)boolean"; got != want {
		t.Errorf("Signature.String() = %q, want %q", got, want)
	}
}

func TestArgSigPrependsReceiverForVirtual(t *testing.T) {
	sig := Signature{Params: []Kind{Int}, Result: Void}
	virt := sig.ArgSig(true)
	if len(virt.Kinds) != 2 || virt.Kinds[0] != Object || virt.Kinds[1] != Int {
		t.Errorf("ArgSig(true) = %+v, want [object, int]", virt.Kinds)
	}
	static := sig.ArgSig(false)
	if len(static.Kinds) != 1 || static.Kinds[0] != Int {
		t.Errorf("ArgSig(false) = %+v, want [int]", static.Kinds)
	}
}

func TestSigEqualAndKey(t *testing.T) {
	a := Sig{Kinds: []Kind{Int, Long}}
	b := Sig{Kinds: []Kind{Int, Long}}
	c := Sig{Kinds: []Kind{Long, Int}}
	if !a.Equal(b) {
		t.Errorf("a.Equal(b) = false, want true")
	}
	if a.Equal(c) {
		t.Errorf("a.Equal(c) = true, want false")
	}
	if a.Key() != b.Key() {
		t.Errorf("a.Key() != b.Key() for equal Sigs")
	}
	if a.Key() == c.Key() {
		t.Errorf("a.Key() == c.Key() for differently-ordered Sigs")
	}
}
