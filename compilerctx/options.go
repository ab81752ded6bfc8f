// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compilerctx

// Options holds the named boolean/integer knobs spec.md §6 enumerates.
// Built with functional options (Option) the way wagon's own VM
// constructor (exec/vm.go's NewVM) takes a variadic option list, rather
// than a bare struct literal every caller has to fill in by hand.
type Options struct {
	OptLevel int

	GenBoundsChecks        bool
	GenArrayStoreCheck     bool
	GenExplicitDiv0Checks  bool
	GenTableRanges         bool
	UseBiasedLocking       bool
	InvokeSnippetAfterArguments bool
	SSEVersion             int
	TestPatching           bool
	PrintFilter            string
}

// DefaultOptions returns the compiler's default configuration:
// checks on, switch-range lowering on (the Open Question decision recorded
// in the design ledger), everything else conservative.
func DefaultOptions() *Options {
	return &Options{
		OptLevel:           1,
		GenBoundsChecks:    true,
		GenArrayStoreCheck: true,
		GenTableRanges:     true,
		SSEVersion:         2,
	}
}

// Option mutates an Options in place.
type Option func(*Options)

// NewOptions builds an Options from DefaultOptions with opts applied in order.
func NewOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithOptLevel(n int) Option                { return func(o *Options) { o.OptLevel = n } }
func WithBoundsChecks(b bool) Option           { return func(o *Options) { o.GenBoundsChecks = b } }
func WithArrayStoreCheck(b bool) Option        { return func(o *Options) { o.GenArrayStoreCheck = b } }
func WithExplicitDiv0Checks(b bool) Option     { return func(o *Options) { o.GenExplicitDiv0Checks = b } }
func WithTableRanges(b bool) Option            { return func(o *Options) { o.GenTableRanges = b } }
func WithBiasedLocking(b bool) Option          { return func(o *Options) { o.UseBiasedLocking = b } }
func WithInvokeSnippetAfterArguments(b bool) Option {
	return func(o *Options) { o.InvokeSnippetAfterArguments = b }
}
func WithSSEVersion(v int) Option    { return func(o *Options) { o.SSEVersion = v } }
func WithTestPatching(b bool) Option { return func(o *Options) { o.TestPatching = b } }
func WithPrintFilter(s string) Option { return func(o *Options) { o.PrintFilter = s } }
