// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import "testing"

func TestPatchCallSiteRejectsCacheLineStraddle(t *testing.T) {
	tm := &TargetMethod{Code: make([]byte, 64), CodeStart: 0x1000}
	if err := tm.PatchCallSite(cacheLineSize-2, 0x2000); err == nil {
		t.Errorf("PatchCallSite at a straddling offset should have failed")
	}
}

func TestPatchCallSiteWritesRelativeDisplacement(t *testing.T) {
	tm := &TargetMethod{Code: make([]byte, 64), CodeStart: 0x1000}
	if err := tm.PatchCallSite(0, 0x2000); err != nil {
		t.Fatalf("PatchCallSite: %v", err)
	}
	want := int32(0x2000 - 0x1000 - 0 - 4)
	var got int32
	for i := 3; i >= 0; i-- {
		got = got<<8 | int32(tm.Code[i])
	}
	if got != want {
		t.Errorf("patched displacement = %d, want %d", got, want)
	}
}

func TestForwardToRejectsUndersizedMethod(t *testing.T) {
	tm := &TargetMethod{Code: make([]byte, 3), CodeStart: 0x1000, OptEntryOffset: 0}
	newMethod := &TargetMethod{Code: make([]byte, 64), CodeStart: 0x2000}
	if err := tm.ForwardTo(newMethod); err == nil {
		t.Errorf("ForwardTo should have failed: jump does not fit before method end")
	}
}

func TestForwardToWritesJMPOpcode(t *testing.T) {
	tm := &TargetMethod{Code: make([]byte, 32), CodeStart: 0x1000}
	newMethod := &TargetMethod{Code: make([]byte, 32), CodeStart: 0x2000, OptEntryOffset: 8, BaselineEntryOffset: 16}
	if err := tm.ForwardTo(newMethod); err != nil {
		t.Fatalf("ForwardTo: %v", err)
	}
	if tm.Code[tm.OptEntryOffset] != 0xE9 {
		t.Errorf("Code[OptEntryOffset] = %#x, want 0xE9 (JMP rel32)", tm.Code[tm.OptEntryOffset])
	}
	if tm.Code[tm.BaselineEntryOffset] != 0xE9 {
		t.Errorf("Code[BaselineEntryOffset] = %#x, want 0xE9 (JMP rel32)", tm.Code[tm.BaselineEntryOffset])
	}
}
