// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xir implements XIR: small, parameterised, target-independent
// micro-assembly snippets the surrounding runtime supplies for every
// operation the compiler itself cannot know the shape of without runtime
// cooperation (spec.md §4.G) — object allocation, field/array access, type
// tests, call dispatch, write barriers, safepoints.
//
// Grounded on the instruction-template shape wasm/operators/memory.go uses
// to describe one memory op's operand arity and immediates, generalized
// from "one func per wasm opcode, hand-coded" into a declarative Template
// value. The LIR generator and backend emitter do not walk Templates; they
// carry only a template name on lir.OpXir instructions.
package xir

import "github.com/go-interpreter/c1xgo/lir"

// OperandRole names one of a Template's operand slots (spec.md §4.G: "input
// operands, input-temp operands, temp operands, one optional result
// operand").
type OperandRole uint8

const (
	// RoleInput operands are read, never written, by the template body.
	RoleInput OperandRole = iota
	// RoleInputTemp operands are read then clobbered; the generator must
	// copy the caller's value into a fresh variable before the snippet
	// runs so the original survives (spec.md §4.G generator obligation).
	RoleInputTemp
	// RoleTemp operands carry no incoming value, scratch space only.
	RoleTemp
)

// OperandSpec describes one declared template operand: its role and kind,
// and an optional fixed physical register the runtime pins it to (e.g. a
// call's target register, or a calling-convention-mandated slot).
type OperandSpec struct {
	Name string
	Role OperandRole
	Kind OperandKind

	// FixedRegister is non-nil when the runtime pins this operand to a
	// specific physical register rather than leaving it to the allocator.
	FixedRegister *int16
}

// OperandKind is the value-shape a template operand carries; kept distinct
// from kind.Kind because a template may want a raw word or an address
// rather than a typed JVM value.
type OperandKind uint8

const (
	KindWord OperandKind = iota
	KindValue
	KindAddress
)

// Constant is a named immediate the snippet site supplies at substitution
// time (e.g. a field offset, an array-header size, a class pointer).
type Constant struct {
	Name  string
	Value int64
}

// Mark names a label inside a template's instruction lists that the
// surrounding snippet site needs to reference afterward — a call
// instruction's return address, a slow-path entry the emitter records as
// call-site metadata (spec.md §4.G: "treat the template's marks as
// call-site metadata for the emitter").
type Mark struct {
	Name  string
	Index int // instruction index within FastPath, or within SlowPath if InSlowPath
	InSlowPath bool
}

// Template is the runtime-declared shape of one XIR operation: its
// operand/constant interface and the two instruction lists (fast path,
// always run; slow path, taken only when the fast path's guard fails —
// e.g. an allocation's fast bump-pointer path falling back to a runtime
// call when the TLAB is exhausted).
type Template struct {
	Name string

	Inputs    []OperandSpec
	Constants []Constant

	// HasResult reports whether the template produces a value; Result
	// describes it when true. A template may ask the generator to reuse
	// one of its own inputs as the result register instead of allocating
	// a fresh one (ReuseInput >= 0 names which).
	HasResult  bool
	Result     OperandSpec
	ReuseInput int // index into Inputs, or -1

	FastPath []lir.Instruction
	SlowPath []lir.Instruction

	Marks []Mark

	// CalleeTemplates names other templates this one references (e.g. a
	// new_instance template's slow path calling a resolve_class template),
	// so the emitter can resolve their stub addresses together.
	CalleeTemplates []string
}
