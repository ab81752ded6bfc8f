// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bailout defines the compiler's recoverable-failure type, shared
// by every pipeline stage (builder, LIR generator, backend emitter) so a
// Bailout can short-circuit the pipeline from any depth without each
// package depending on the top-level compiler package (spec.md §7).
//
// Grounded on validate.Error (validate/error.go: wraps an inner error with
// function/offset context) and the typed sentinel errors throughout
// validate/error.go and exec/vm.go (InvalidReturnTypeError,
// InvalidFunctionIndexError, ...) — c1xgo's Bailout follows the same
// "typed value implementing error" idiom, generalized into one type with a
// Subkind instead of one bespoke type per failure shape.
package bailout

import "fmt"

// Subkind names one of the recoverable-failure shapes spec.md §7 lists.
type Subkind uint8

const (
	UnsupportedBytecode Subkind = iota
	UnresolvableReference
	InvariantViolation
	RegisterConstraint
	BufferOverflow
)

func (s Subkind) String() string {
	switch s {
	case UnsupportedBytecode:
		return "unsupported bytecode"
	case UnresolvableReference:
		return "unresolvable reference"
	case InvariantViolation:
		return "invariant violation"
	case RegisterConstraint:
		return "register constraint unsatisfiable"
	case BufferOverflow:
		return "code buffer overflow"
	default:
		return "unknown"
	}
}

// Bailout is a recoverable abandonment of a compilation: the runtime falls
// back to baseline execution (spec.md §7). It short-circuits the pipeline;
// callers must discard any partial IR/LIR/code bytes along with the
// compilation's arena rather than returning them.
type Bailout struct {
	Kind   Subkind
	Reason string
	// BCI is the bytecode index at which the bailout was raised, -1 if not
	// applicable (e.g. a register-allocation failure with no single BCI).
	BCI int
}

func (b *Bailout) Error() string {
	if b.BCI >= 0 {
		return fmt.Sprintf("bailout: %s at bci %d: %s", b.Kind, b.BCI, b.Reason)
	}
	return fmt.Sprintf("bailout: %s: %s", b.Kind, b.Reason)
}

// New builds a Bailout with no associated BCI.
func New(kind Subkind, reason string) *Bailout {
	return &Bailout{Kind: kind, Reason: reason, BCI: -1}
}

// At builds a Bailout associated with a specific bytecode index.
func At(kind Subkind, bci int, reason string) *Bailout {
	return &Bailout{Kind: kind, Reason: reason, BCI: bci}
}

// Fatal is a process-level invariant violation — binding a label to two
// different offsets, a patch straddling a cache line, a stale operand
// reference after arena reset. Unlike Bailout it is not meant to be
// recovered from a compilation boundary; callers that detect one should
// panic with it rather than return it as an error (spec.md §7:
// "A Fatal is not caught").
type Fatal struct {
	Reason string
}

func (f *Fatal) Error() string { return "fatal: " + f.Reason }

// Raise panics with a Fatal, matching spec.md §7's propagation policy.
func Raise(reason string) { panic(&Fatal{Reason: reason}) }
