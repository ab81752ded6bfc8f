// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xir

import (
	"testing"

	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/lir"
	"github.com/go-interpreter/c1xgo/method"
)

func TestArrayHeaderLayoutScalesWithWordSize(t *testing.T) {
	s := NewStdlib(8)
	if got := s.ArrayHeaderSize(); got != 16 {
		t.Errorf("ArrayHeaderSize() = %d, want 16", got)
	}
	if got := s.ArrayLengthOffset(); got != 8 {
		t.Errorf("ArrayLengthOffset() = %d, want 8", got)
	}
}

func TestFieldOffsetPassesThroughRef(t *testing.T) {
	s := NewStdlib(8)
	ref := &method.FieldRef{Offset: 24}
	if got := s.FieldOffset(ref); got != 24 {
		t.Errorf("FieldOffset(ref) = %d, want 24", got)
	}
}

func TestGenArrayLoadDeclaresArrayAndIndexInputs(t *testing.T) {
	s := NewStdlib(8)
	tmpl := s.GenArrayLoad("int")
	if len(tmpl.Inputs) != 2 {
		t.Fatalf("len(Inputs) = %d, want 2", len(tmpl.Inputs))
	}
	if tmpl.Inputs[0].Name != "array" || tmpl.Inputs[1].Name != "index" {
		t.Errorf("Inputs = %+v, want array, index", tmpl.Inputs)
	}
	if !tmpl.HasResult {
		t.Errorf("GenArrayLoad template HasResult = false, want true")
	}
	if len(tmpl.FastPath) == 0 {
		t.Errorf("GenArrayLoad template has no FastPath instructions")
	}
}

func TestGenArrayStoreHasNoResult(t *testing.T) {
	s := NewStdlib(8)
	tmpl := s.GenArrayStore("object")
	if tmpl.HasResult {
		t.Errorf("GenArrayStore template HasResult = true, want false")
	}
}

func TestGenInvokeVariantsNameTheirDispatchKind(t *testing.T) {
	s := NewStdlib(8)
	ref := &method.MethodRef{Holder: "Holder", Name: "callee"}

	static := s.GenInvokeStatic(ref)
	virtual := s.GenInvokeVirtual(ref)
	iface := s.GenInvokeInterface(ref)

	if static.Name == virtual.Name || static.Name == iface.Name || virtual.Name == iface.Name {
		t.Errorf("invoke templates did not get distinct names: %q %q %q", static.Name, virtual.Name, iface.Name)
	}
}

func TestGenWriteBarrierReturnsDistinctPreAndPost(t *testing.T) {
	s := NewStdlib(8)
	pre, post := s.GenWriteBarrier()
	if pre == nil || post == nil {
		t.Fatalf("GenWriteBarrier returned a nil template: pre=%v post=%v", pre, post)
	}
	if pre == post {
		t.Errorf("GenWriteBarrier pre and post are the same template instance")
	}
}

func TestSnippetArgumentLookup(t *testing.T) {
	tmpl := &Template{Name: "t", Inputs: []OperandSpec{{Name: "array", Role: RoleInput, Kind: KindValue}}}
	snip := NewSnippet(tmpl, []Argument{
		{Name: "array", Operand: lir.NewConstant(kind.Int, 0)},
	})

	if _, ok := snip.Argument("missing"); ok {
		t.Errorf("Argument(%q) found, want not found", "missing")
	}
	if arg, ok := snip.Argument("array"); !ok {
		t.Errorf("Argument(%q) not found, want found", "array")
	} else if arg.Name != "array" {
		t.Errorf("Argument(%q).Name = %q, want %q", "array", arg.Name, "array")
	}
}
