// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xir

import "github.com/go-interpreter/c1xgo/lir"

// Argument is a concrete value bound to one of a Template's declared
// Inputs or Constants at a specific call site (spec.md §4.G: "a template
// plus concrete XirArgument values at a specific site").
type Argument struct {
	Name string

	// Exactly one of Operand/ConstantValue is meaningful, matching
	// whether Name refers to an OperandSpec or a Constant in the
	// template.
	Operand       lir.Operand
	IsConstant    bool
	ConstantValue int64
}

// Snippet binds a Template to concrete Arguments at one use site. The LIR
// generator does not build Snippets: it lowers each XIR-backed HIR value
// (new_instance, checkcast, ...) to one lir.OpXir instruction naming the
// template, and the backend emitter does not instantiate template code.
type Snippet struct {
	Template  *Template
	Arguments []Argument

	// Result is the operand the generator assigned for the template's
	// declared result, if HasResult.
	Result lir.Operand
}

// Argument looks up a bound argument by name, returning false if the
// snippet carries none under that name — a caller error, since every
// declared Input/Constant must be bound before a Snippet is considered
// complete.
func (s *Snippet) Argument(name string) (Argument, bool) {
	for _, a := range s.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return Argument{}, false
}

// NewSnippet builds a Snippet for tmpl from args. It does not check that
// every declared Input and Constant has a matching Argument.
func NewSnippet(tmpl *Template, args []Argument) *Snippet {
	return &Snippet{Template: tmpl, Arguments: args}
}
