// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"
)

func TestBuilderAssemblesStraightLineCode(t *testing.T) {
	b, err := NewBuilder("amd64")
	if err != nil {
		t.Fatal(err)
	}
	nop := b.NewProg()
	nop.As = obj.ANOP
	b.Add(nop)

	ret := b.NewProg()
	ret.As = obj.ARET
	b.Add(ret)

	code := b.Assemble()
	if len(code) == 0 {
		t.Errorf("Assemble produced no bytes for a two-instruction stream")
	}
}

func TestBuilderResolvesForwardBranch(t *testing.T) {
	b, err := NewBuilder("amd64")
	if err != nil {
		t.Fatal(err)
	}
	jmp := b.NewProg()
	jmp.As = obj.AJMP
	b.Label(1).Use(jmp)
	b.Add(jmp)

	target := b.NewProg()
	target.As = obj.ANOP
	b.Add(target)
	b.Bind(1, target)

	ret := b.NewProg()
	ret.As = obj.ARET
	b.Add(ret)

	code := b.Assemble()
	if len(code) == 0 {
		t.Errorf("Assemble produced no bytes")
	}
}

func TestAssembleRaisesFatalOnUnboundLabel(t *testing.T) {
	b, err := NewBuilder("amd64")
	if err != nil {
		t.Fatal(err)
	}
	jmp := b.NewProg()
	jmp.As = obj.AJMP
	b.Label(1).Use(jmp)
	b.Add(jmp)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Assemble with an unbound label should have raised a Fatal")
		}
	}()
	b.Assemble()
}

func TestLabelReboundToDifferentTargetIsFatal(t *testing.T) {
	b, err := NewBuilder("amd64")
	if err != nil {
		t.Fatal(err)
	}
	first := b.NewProg()
	first.As = obj.ANOP
	b.Add(first)
	b.Bind(1, first)

	second := b.NewProg()
	second.As = obj.ANOP
	b.Add(second)

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("rebinding a label to a different instruction should have raised a Fatal")
		}
	}()
	b.Bind(1, second)
}

func TestBuilderEmitsMOVQ(t *testing.T) {
	b, err := NewBuilder("amd64")
	if err != nil {
		t.Fatal(err)
	}
	mov := b.NewProg()
	mov.As = x86.AMOVQ
	mov.From.Type = obj.TYPE_REG
	mov.From.Reg = x86.REG_AX
	mov.To.Type = obj.TYPE_REG
	mov.To.Reg = x86.REG_BX
	b.Add(mov)

	ret := b.NewProg()
	ret.As = obj.ARET
	b.Add(ret)

	if code := b.Assemble(); len(code) == 0 {
		t.Errorf("Assemble produced no bytes for a MOVQ")
	}
}
