// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler wires the pipeline's three subsystems — graph builder,
// LIR generator, backend emitter — into the single entry point spec.md §6
// describes: compile(method, osrBCI?) -> Ok(TargetMethod) | Bailout.
// Grounded on exec.NewVM's per-function pipeline
// (disasm.Disassemble -> compile.Compile -> table bookkeeping,
// exec/vm.go), lifted from "construct a whole VM around every compiled
// function" into "compile exactly one method and hand back its sealed
// TargetMethod".
package compiler

import (
	"github.com/go-interpreter/c1xgo/backend"
	"github.com/go-interpreter/c1xgo/bailout"
	"github.com/go-interpreter/c1xgo/compilerctx"
	"github.com/go-interpreter/c1xgo/hir"
	"github.com/go-interpreter/c1xgo/method"
)

// NoOSR is the osrBCI value meaning "compile the method's normal entry,
// not an on-stack-replacement entry" (spec.md §4.F "OSR").
const NoOSR = -1

// Compile runs the full pipeline for m and returns its sealed TargetMethod,
// or a *bailout.Bailout if the compilation could not complete (spec.md
// §6). Any other error indicates a problem unrelated to m's own
// compilability (e.g. failure to initialize the code buffer).
func Compile(ctx *compilerctx.Context, m *method.Method, osrBCI int) (tm *backend.TargetMethod, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(*bailout.Bailout)
			if !ok {
				// A *bailout.Fatal, or anything else, is not caught here:
				// it surfaces as an unrecoverable error from the
				// compilation thread rather than a returned error.
				panic(r)
			}
			// The LIR generator raises a Bailout by panic
			// rather than threading an error return through every
			// visitor case (hir.lirGenerator.bail) — recovered here at
			// the one place spec.md §7 requires every pipeline stage
			// to be recoverable from: the Compile boundary.
			err = v
		}
	}()

	ir, err := hir.Build(m, osrBCI)
	if err != nil {
		return nil, err
	}
	if err := ir.CheckInvariants(); err != nil {
		return nil, bailout.New(bailout.InvariantViolation, err.Error())
	}

	if err := hir.GenerateLIR(ir, ctx.Arch); err != nil {
		return nil, err
	}

	tm, err = backend.Emit(ctx.Arch, m, ir)
	if err != nil {
		return nil, err
	}
	return tm, nil
}
