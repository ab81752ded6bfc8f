// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adapter

import (
	"testing"

	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/target"
)

func TestAdaptElidesParameterlessOpt2Baseline(t *testing.T) {
	g := &Generator{Direction: Opt2Baseline, Arch: target.AMD64}
	a, err := g.Adapt(kind.Sig{})
	if err != nil {
		t.Fatal(err)
	}
	if a != nil {
		t.Errorf("Adapt(empty sig, Opt2Baseline) = %+v, want nil (needs no reshuffling)", a)
	}
}

func TestAdaptNeverElidesBaseline2Opt(t *testing.T) {
	g := &Generator{Direction: Baseline2Opt, Arch: target.AMD64}
	a, err := g.Adapt(kind.Sig{})
	if err != nil {
		t.Fatal(err)
	}
	if a == nil {
		t.Fatal("Adapt(empty sig, Baseline2Opt) = nil, want a frame-pointer-save thunk")
	}
	if len(a.Code) == 0 {
		t.Errorf("Adapt produced empty code")
	}
}

func TestAdaptEmitsLongerCodeForMoreArguments(t *testing.T) {
	g := &Generator{Direction: Opt2Baseline, Arch: target.AMD64}
	one, err := g.Adapt(kind.Sig{Kinds: []kind.Kind{kind.Int}})
	if err != nil {
		t.Fatal(err)
	}
	three, err := g.Adapt(kind.Sig{Kinds: []kind.Kind{kind.Int, kind.Long, kind.Object}})
	if err != nil {
		t.Fatal(err)
	}
	if len(three.Code) <= len(one.Code) {
		t.Errorf("three-argument adapter (%d bytes) should be longer than one-argument adapter (%d bytes)",
			len(three.Code), len(one.Code))
	}
}

func TestAdvanceIfInPrologue(t *testing.T) {
	var cursor uintptr
	entry := uintptr(0x1000)
	size := 16

	if AdvanceIfInPrologue(0x0FFF, entry, size, &cursor) {
		t.Errorf("ip before entry should not be in the prologue")
	}
	if !AdvanceIfInPrologue(0x1008, entry, size, &cursor) {
		t.Fatalf("ip within [entry, entry+size) should be in the prologue")
	}
	if cursor != entry+uintptr(size) {
		t.Errorf("cursor = %#x, want %#x", cursor, entry+uintptr(size))
	}
	if AdvanceIfInPrologue(0x1010, entry, size, &cursor) {
		t.Errorf("ip == entry+size should not be in the prologue")
	}
}
