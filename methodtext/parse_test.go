// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package methodtext

import (
	"testing"

	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/method"
)

func TestParseSimpleMethod(t *testing.T) {
	src := `(method "Holder.add(int,int)int" static
		(maxlocals 2) (maxstack 2)
		(code
			(load int 0)
			(load int 1)
			(add int)
			(return int)))`

	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Holder != "Holder" || m.Name != "add" {
		t.Errorf("Holder/Name = %q/%q, want Holder/add", m.Holder, m.Name)
	}
	if !m.IsStatic {
		t.Errorf("IsStatic = false, want true")
	}
	if m.MaxLocals != 2 || m.MaxStack != 2 {
		t.Errorf("MaxLocals/MaxStack = %d/%d, want 2/2", m.MaxLocals, m.MaxStack)
	}
	if len(m.Sig.Params) != 2 || m.Sig.Params[0] != kind.Int || m.Sig.Result != kind.Int {
		t.Fatalf("Sig = %+v, want (int,int)int", m.Sig)
	}
	if len(m.Code) != 4 {
		t.Fatalf("len(Code) = %d, want 4", len(m.Code))
	}
	if m.Code[2].Op != method.Add || m.Code[2].Kind != kind.Int {
		t.Errorf("Code[2] = %+v, want Add/int", m.Code[2])
	}
	if got := m.QualifiedName(); got == "" {
		t.Errorf("QualifiedName() returned empty string")
	}
}

func TestParseVirtualSynchronizedMethod(t *testing.T) {
	src := `(method "Holder.run()void" virtual synchronized
		(maxlocals 1) (maxstack 0)
		(code (return)))`

	m, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.IsStatic {
		t.Errorf("IsStatic = true, want false (virtual)")
	}
	if !m.IsSynchronized {
		t.Errorf("IsSynchronized = false, want true")
	}
	if m.Sig.Result != kind.Void {
		t.Errorf("Sig.Result = %v, want void", m.Sig.Result)
	}
}

func TestParseRejectsMalformedSignature(t *testing.T) {
	_, err := Parse([]byte(`(method "Holder.f" static (maxlocals 0) (maxstack 0) (code))`))
	if err == nil {
		t.Errorf("Parse of a name with no signature should have failed")
	}
}

func TestParseRejectsUnknownInstruction(t *testing.T) {
	src := `(method "Holder.f()void" static (maxlocals 0) (maxstack 0) (code (frobnicate)))`
	_, err := Parse([]byte(src))
	if err == nil {
		t.Errorf("Parse of an unknown instruction mnemonic should have failed")
	}
}

func TestQualifiedNameRoundTripsThroughSignatureString(t *testing.T) {
	sig := kind.Signature{Params: []kind.Kind{kind.Long, kind.Object}, Result: kind.Boolean}
	text := sig.String()

	parsed, err := parseSignature(text)
	if err != nil {
		t.Fatalf("parseSignature(%q): %v", text, err)
	}
	paramsEqual := (kind.Sig{Kinds: parsed.Params}).Equal(kind.Sig{Kinds: sig.Params})
	if !paramsEqual || parsed.Result != sig.Result {
		t.Errorf("parseSignature(sig.String()) = %+v, want %+v", parsed, sig)
	}
}
