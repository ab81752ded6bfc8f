// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasmtext

import (
	"bytes"
	"testing"

	"github.com/go-interpreter/c1xgo/backend"
	"github.com/go-interpreter/c1xgo/lir"
	"github.com/go-interpreter/c1xgo/method"
)

func TestMatchesFilter(t *testing.T) {
	cases := []struct {
		filter, name string
		want         bool
	}{
		{"", "Holder.method()V", true},
		{"Holder", "Holder.method()V", true},
		{"Other", "Holder.method()V", false},
		{"method()V", "Holder.method()V", true},
	}
	for _, c := range cases {
		if got := MatchesFilter(c.filter, c.name); got != c.want {
			t.Errorf("MatchesFilter(%q, %q) = %v, want %v", c.filter, c.name, got, c.want)
		}
	}
}

func TestCondName(t *testing.T) {
	if got := condName(lir.CondEQ); got != "eq" {
		t.Errorf("condName(CondEQ) = %q, want %q", got, "eq")
	}
	if got := condName(lir.Condition(99)); got != "?" {
		t.Errorf("condName(out-of-range) = %q, want %q", got, "?")
	}
}

func TestCallTargetName(t *testing.T) {
	direct := lir.CallTarget{Kind: lir.CallDirect, MethodRef: &method.MethodRef{Holder: "Holder", Name: "f"}}
	if got := callTargetName(direct); got != "direct:Holder.f" {
		t.Errorf("callTargetName(direct) = %q, want %q", got, "direct:Holder.f")
	}

	runtime := lir.CallTarget{Kind: lir.CallRuntime, RuntimeID: 3}
	if got := callTargetName(runtime); got != "runtime#3" {
		t.Errorf("callTargetName(runtime) = %q, want %q", got, "runtime#3")
	}
}

func TestPrintTargetMethodWritesEveryTable(t *testing.T) {
	tm := &backend.TargetMethod{
		Code:                make([]byte, 12),
		FrameSize:           8,
		OptEntryOffset:      0,
		BaselineEntryOffset: 4,
		DirectCalls: []backend.CallSite{
			{Pos: 6, CalleeMethod: &method.MethodRef{Holder: "Holder", Name: "callee"}},
		},
		Safepoints:    []backend.Safepoint{{Pos: 10}},
		StopPositions: []int{6, 10},
	}

	var buf bytes.Buffer
	PrintTargetMethod(&buf, tm)
	out := buf.String()

	for _, want := range []string{"12 bytes", "frame size 8", "Holder.callee", "safepoint @10"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("PrintTargetMethod output missing %q, got:\n%s", want, out)
		}
	}
}
