// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasmtext pretty-prints LIR and a sealed TargetMethod's side
// tables for the cmd/c1xdump CLI, and provides MatchesFilter, the
// method-name test for compilerctx.Options.PrintFilter values (spec.md §6);
// the compiler itself does not read PrintFilter. Grounded on
// cmd/wasm-dump/main.go's dump-to-stdout shape (one print function per
// concern, gated by its own flag) and on disasm's instruction-stream model
// (disasm.Instr: a flat, addressable op sequence) for the per-block LIR
// listing below.
package disasmtext

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-interpreter/c1xgo/backend"
	"github.com/go-interpreter/c1xgo/hir"
	"github.com/go-interpreter/c1xgo/lir"
	"github.com/go-interpreter/c1xgo/method"
)

// MatchesFilter reports whether name should be printed under filter — an
// empty filter matches everything, otherwise filter is a substring match
// against the method's qualified name (spec.md §6:
// "PrintFilter: restrict diagnostic output to methods matching the filter").
func MatchesFilter(filter, qualifiedName string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(qualifiedName, filter)
}

// PrintLIR writes every reachable block's LIR list to w, in reverse
// post-order (the order the generator produced it in).
func PrintLIR(w io.Writer, ir *hir.IR) {
	for _, id := range ir.ReversePostOrder() {
		blk := ir.Block(id)
		fmt.Fprintf(w, "block %d:\n", id)
		if blk.LIR == nil {
			fmt.Fprintf(w, "  (not lowered)\n")
			continue
		}
		for i, in := range blk.LIR.All() {
			fmt.Fprintf(w, "  %3d: %s\n", i, formatInstr(in))
		}
	}
}

func formatInstr(in lir.Instruction) string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	if in.Result.Tag != lir.Illegal {
		fmt.Fprintf(&b, " %s :=", in.Result)
	}
	for _, op := range in.Inputs {
		fmt.Fprintf(&b, " %s", op)
	}
	switch in.Op {
	case lir.OpJump, lir.OpSwitchRange:
		fmt.Fprintf(&b, " -> L%d", in.Target)
	case lir.OpBranch:
		fmt.Fprintf(&b, " %s -> L%d", condName(in.Condition), in.Target)
	case lir.OpCall:
		fmt.Fprintf(&b, " [%s]", callTargetName(in.Call))
	case lir.OpXir:
		fmt.Fprintf(&b, " <%s>", in.XirTemplate)
	}
	return b.String()
}

func condName(c lir.Condition) string {
	names := [...]string{"eq", "ne", "lt", "le", "gt", "ge", "az", "bz"}
	if int(c) < len(names) {
		return names[c]
	}
	return "?"
}

func callTargetName(t lir.CallTarget) string {
	switch t.Kind {
	case lir.CallDirect:
		if ref, ok := t.MethodRef.(*method.MethodRef); ok {
			return "direct:" + ref.Holder + "." + ref.Name
		}
		return "direct"
	case lir.CallIndirect:
		return "indirect"
	case lir.CallRuntime:
		return fmt.Sprintf("runtime#%d", t.RuntimeID)
	case lir.CallGlobalStub:
		return fmt.Sprintf("stub#%d", t.StubID)
	}
	return "call"
}

// PrintTargetMethod writes every side table of a sealed TargetMethod to w.
func PrintTargetMethod(w io.Writer, tm *backend.TargetMethod) {
	fmt.Fprintf(w, "code: %d bytes, frame size %d\n", len(tm.Code), tm.FrameSize)
	fmt.Fprintf(w, "OPT_ENTRY: %d  BASELINE_ENTRY: %d\n", tm.OptEntryOffset, tm.BaselineEntryOffset)

	printCallSites(w, "direct calls", tm.DirectCalls)
	printCallSites(w, "indirect calls", tm.IndirectCalls)
	for _, c := range tm.RuntimeCalls {
		fmt.Fprintf(w, "runtime call @%d: id=%d\n", c.Pos, c.RuntimeCallID)
	}
	for _, c := range tm.GlobalStubCalls {
		fmt.Fprintf(w, "stub call @%d: stub=%d\n", c.Pos, c.StubID)
	}
	for _, s := range tm.Safepoints {
		fmt.Fprintf(w, "safepoint @%d\n", s.Pos)
	}
	for _, h := range tm.ExceptionHandlers {
		fmt.Fprintf(w, "handler: try=%d catch=%d type=%v\n", h.TryPos, h.CatchPos, h.CatchType)
	}
	fmt.Fprintf(w, "stop positions: %v\n", tm.StopPositions)
}

func printCallSites(w io.Writer, label string, sites []backend.CallSite) {
	for _, c := range sites {
		name := "?"
		if c.CalleeMethod != nil {
			name = c.CalleeMethod.Holder + "." + c.CalleeMethod.Name
		}
		fmt.Fprintf(w, "%s @%d: %s\n", label, c.Pos, name)
	}
}
