// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command c1xdump compiles a method-text file (see package methodtext) and
// prints its LIR (-lir) and sealed TargetMethod side tables (-target) to
// stdout.
// Grounded on cmd/wasm-dump/main.go's flag shape (one bool flag per thing
// to print, a usage banner, a single positional file argument).
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/go-interpreter/c1xgo/backend"
	"github.com/go-interpreter/c1xgo/compiler"
	"github.com/go-interpreter/c1xgo/compilerctx"
	"github.com/go-interpreter/c1xgo/disasmtext"
	"github.com/go-interpreter/c1xgo/hir"
	"github.com/go-interpreter/c1xgo/methodtext"
	"github.com/go-interpreter/c1xgo/target"
)

var (
	flagLIR    = flag.Bool("lir", false, "print the generated LIR")
	flagTarget = flag.Bool("target", true, "print the sealed TargetMethod's side tables")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: c1xdump [options] file.mtxt\n\noptions:\n")
		flag.PrintDefaults()
	}
}

func main() {
	log.SetPrefix("c1xdump: ")
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

	ir, err := hir.Build(m, compiler.NoOSR)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	if err := hir.GenerateLIR(ir, ctx.Arch); err != nil {
		log.Fatalf("lirgen: %v", err)
	}
	if *flagLIR {
		disasmtext.PrintLIR(os.Stdout, ir)
	}

	if *flagTarget {
		tm, err := backend.Emit(ctx.Arch, m, ir)
		if err != nil {
			log.Fatalf("emit: %v", err)
		}
		disasmtext.PrintTargetMethod(os.Stdout, tm)
	}
}
