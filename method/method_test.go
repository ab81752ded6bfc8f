// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package method

import (
	"testing"

	"github.com/go-interpreter/c1xgo/kind"
)

func TestQualifiedName(t *testing.T) {
	m := &Method{
		Holder: "Holder",
		Name:   "add",
		Sig:    kind.Signature{Params: []kind.Kind{kind.Int, kind.Int}, Result: kind.Int},
	}
	want := "Holder.add(int,int)int"
	if got := m.QualifiedName(); got != want {
		t.Errorf("QualifiedName() = %q, want %q", got, want)
	}
}

func TestMethodRefFieldsAreIndependentOfMethod(t *testing.T) {
	ref := &MethodRef{Holder: "Holder", Name: "callee", IsStatic: true}
	if ref.IsVirtual {
		t.Errorf("MethodRef.IsVirtual = true, want false (zero value)")
	}
	if !ref.IsStatic {
		t.Errorf("MethodRef.IsStatic = false, want true")
	}
}
