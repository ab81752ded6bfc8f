// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"testing"

	"github.com/go-interpreter/c1xgo/compilerctx"
	"github.com/go-interpreter/c1xgo/methodtext"
	"github.com/go-interpreter/c1xgo/target"
)

func TestCompileSimpleStaticMethod(t *testing.T) {
	src := `(method "Holder.one()int" static
		(maxlocals 0) (maxstack 1)
		(code (const int 1) (return int)))`
	m, err := methodtext.Parse([]byte(src))
	if err != nil {
		t.Fatalf("methodtext.Parse: %v", err)
	}

	ctx := compilerctx.New(target.AMD64, compilerctx.DefaultOptions())
	tm, err := Compile(ctx, m, NoOSR)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(tm.Code) == 0 {
		t.Errorf("Compile produced no code")
	}
	if tm.ClassMethodActor != m {
		t.Errorf("TargetMethod.ClassMethodActor = %p, want %p", tm.ClassMethodActor, m)
	}
}

func TestCompileArithmeticMethod(t *testing.T) {
	src := `(method "Holder.add(int,int)int" static
		(maxlocals 2) (maxstack 2)
		(code
			(load int 0)
			(load int 1)
			(add int)
			(return int)))`
	m, err := methodtext.Parse([]byte(src))
	if err != nil {
		t.Fatalf("methodtext.Parse: %v", err)
	}

	ctx := compilerctx.New(target.AMD64, compilerctx.DefaultOptions())
	tm, err := Compile(ctx, m, NoOSR)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(tm.Code) == 0 {
		t.Errorf("Compile produced no code")
	}
	if tm.OptEntryOffset < 0 || tm.BaselineEntryOffset <= tm.OptEntryOffset {
		t.Errorf("entry offsets = opt:%d baseline:%d, want baseline after opt",
			tm.OptEntryOffset, tm.BaselineEntryOffset)
	}
}
