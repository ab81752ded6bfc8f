// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bailout

import (
	"strings"
	"testing"
)

func TestNewHasNoBCI(t *testing.T) {
	b := New(UnsupportedBytecode, "goto_w")
	if b.BCI != -1 {
		t.Errorf("New().BCI = %d, want -1", b.BCI)
	}
	if !strings.Contains(b.Error(), "unsupported bytecode") {
		t.Errorf("Error() = %q, want it to mention %q", b.Error(), "unsupported bytecode")
	}
	if strings.Contains(b.Error(), "at bci") {
		t.Errorf("Error() = %q, should not mention a bci when BCI == -1", b.Error())
	}
}

func TestAtIncludesBCI(t *testing.T) {
	b := At(InvariantViolation, 42, "dangling phi")
	if b.BCI != 42 {
		t.Errorf("At().BCI = %d, want 42", b.BCI)
	}
	if !strings.Contains(b.Error(), "at bci 42") {
		t.Errorf("Error() = %q, want it to mention bci 42", b.Error())
	}
}

func TestBailoutImplementsError(t *testing.T) {
	var err error = New(BufferOverflow, "code buffer exceeded")
	if err.Error() == "" {
		t.Errorf("Bailout.Error() returned empty string")
	}
}

func TestRaisePanicsWithFatal(t *testing.T) {
	defer func() {
		r := recover()
		f, ok := r.(*Fatal)
		if !ok {
			t.Fatalf("Raise panicked with %T, want *Fatal", r)
		}
		if f.Reason != "stale operand" {
			t.Errorf("Fatal.Reason = %q, want %q", f.Reason, "stale operand")
		}
	}()
	Raise("stale operand")
}

func TestSubkindStringCoversAllValues(t *testing.T) {
	for _, s := range []Subkind{
		UnsupportedBytecode, UnresolvableReference, InvariantViolation,
		RegisterConstraint, BufferOverflow,
	} {
		if s.String() == "unknown" {
			t.Errorf("Subkind %d stringified as unknown", s)
		}
	}
}
