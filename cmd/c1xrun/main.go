// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command c1xrun compiles a method-text file (see package methodtext) all
// the way through to a sealed backend.TargetMethod and, with -install,
// copies the result into executable memory to prove it is installable —
// the same role exec.NewVM plus exec.VM.ExecCode plays for wagon
// (cmd/wasm-run/main.go), reduced to "compile and install" since actually
// jumping into the code requires the surrounding JVM runtime (object heap,
// XIR-backed allocation/field-access stubs, GC) that spec.md §1 scopes
// out. Compiling needs no RuntimeInterface (XIR-backed operations are
// emitted as placeholders), but the result cannot safely execute arbitrary
// object-touching bytecode.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/go-interpreter/c1xgo/backend/alloc"
	"github.com/go-interpreter/c1xgo/compiler"
	"github.com/go-interpreter/c1xgo/compilerctx"
	"github.com/go-interpreter/c1xgo/methodtext"
	"github.com/go-interpreter/c1xgo/target"
)

var flagInstall = flag.Bool("install", false, "copy the compiled method into executable memory")

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: c1xrun [options] file.mtxt\n\noptions:\n")
		flag.PrintDefaults()
	}
}

func main() {
	log.SetPrefix("c1xrun: ")
	log.SetFlags(0)
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	src, err := ioutil.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	m, err := methodtext.Parse(src)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}

	ctx := compilerctx.New(target.AMD64, compilerctx.DefaultOptions())
	tm, err := compiler.Compile(ctx, m, compiler.NoOSR)
	if err != nil {
		log.Fatalf("compile: %v", err)
	}

	fmt.Printf("%s: %d bytes, frame size %d, OPT_ENTRY=%d BASELINE_ENTRY=%d\n",
		m.QualifiedName(), len(tm.Code), tm.FrameSize, tm.OptEntryOffset, tm.BaselineEntryOffset)

	if *flagInstall {
		var a alloc.Allocator
		defer a.Close()
		region, err := a.AllocateExec(tm.Code)
		if err != nil {
			log.Fatalf("install: %v", err)
		}
		fmt.Printf("installed at %#x\n", region.Addr)
	}
}
