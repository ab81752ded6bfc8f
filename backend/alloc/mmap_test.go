// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// +build !appengine

package alloc

import "testing"

func TestAllocatorBumpsWithinABlock(t *testing.T) {
	a := &Allocator{}
	defer a.Close()

	first, err := a.AllocateExec([]byte{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if d := [4]byte{first.Code[0], first.Code[1], first.Code[2], first.Code[3]}; d != [4]byte{1, 2, 3, 4} {
		t.Errorf("first.Code = %v, want [1 2 3 4]", d)
	}
	if want := uint32(allocationAlignment); a.last.consumed != want {
		t.Errorf("a.last.consumed = %d, want %d", a.last.consumed, want)
	}

	second, err := a.AllocateExec([]byte{4, 3, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if second.Addr <= first.Addr {
		t.Errorf("second.Addr = %#x, want > first.Addr = %#x", second.Addr, first.Addr)
	}
	if want := uint32(2 * allocationAlignment); a.last.consumed != want {
		t.Errorf("a.last.consumed = %d, want %d", a.last.consumed, want)
	}
	if len(a.blocks) != 1 {
		t.Errorf("len(a.blocks) = %d, want 1 (both allocations fit in one block)", len(a.blocks))
	}
}

func TestAllocatorGrowsPastMinAllocSize(t *testing.T) {
	a := &Allocator{}
	defer a.Close()

	big := make([]byte, 36*1024)
	big[1] = 5
	region, err := a.AllocateExec(big)
	if err != nil {
		t.Fatal(err)
	}
	if region.Code[1] != 5 {
		t.Errorf("region.Code[1] = %d, want 5", region.Code[1])
	}
	if len(a.blocks) != 1 {
		t.Fatalf("len(a.blocks) = %d, want 1", len(a.blocks))
	}
	if got := len(a.blocks[0].mem); got < len(big) {
		t.Errorf("block size = %d, want at least %d", got, len(big))
	}
}

func TestAllocatorOverflowStartsNewBlock(t *testing.T) {
	a := &Allocator{}
	defer a.Close()

	if _, err := a.AllocateExec(make([]byte, minAllocSize-allocationAlignment)); err != nil {
		t.Fatal(err)
	}
	if len(a.blocks) != 1 {
		t.Fatalf("len(a.blocks) = %d, want 1", len(a.blocks))
	}
	if _, err := a.AllocateExec(make([]byte, allocationAlignment*2)); err != nil {
		t.Fatal(err)
	}
	if len(a.blocks) != 2 {
		t.Errorf("len(a.blocks) = %d, want 2 (second alloc should not fit the remainder of block 1)", len(a.blocks))
	}
}

func TestAlignRoundsUpToBoundary(t *testing.T) {
	cases := []struct{ n, want uint32 }{
		{0, 0},
		{1, allocationAlignment},
		{allocationAlignment, allocationAlignment},
		{allocationAlignment + 1, 2 * allocationAlignment},
	}
	for _, c := range cases {
		if got := align(c.n, allocationAlignment); got != c.want {
			t.Errorf("align(%d, %d) = %d, want %d", c.n, allocationAlignment, got, c.want)
		}
	}
}
