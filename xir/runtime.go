// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xir

import "github.com/go-interpreter/c1xgo/method"

// RuntimeInterface is the set of template generators and layout queries
// the surrounding VM supplies to the compiler (spec.md §4.G, §6 "a
// RuntimeInterface that answers queries such as field offsets,
// array-header sizes, primitive array class references, RiMethodProfile,
// and the XIR template generators"). The LIR generator does not consult a
// RuntimeInterface: it emits an OpXir instruction naming a template by
// string for each object operation.
type RuntimeInterface interface {
	// Layout queries.
	FieldOffset(ref *method.FieldRef) int32
	ArrayHeaderSize() int32
	ArrayLengthOffset() int32
	PrimitiveArrayClass(elem string) interface{}
	MethodProfile(ref *method.MethodRef) interface{}

	// Template generators, one per object/runtime operation spec.md §4.G
	// lists. Each returns a ready-to-bind Template; the caller supplies
	// Arguments via NewSnippet once operands are known.
	GenPrologue() *Template
	GenEpilogue() *Template
	GenSafepoint() *Template

	GenArrayLength() *Template
	GenArrayLoad(elemKind string) *Template
	GenArrayStore(elemKind string) *Template

	GenGetField(ref *method.FieldRef) *Template
	GenPutField(ref *method.FieldRef) *Template
	GenGetStatic(ref *method.FieldRef) *Template
	GenPutStatic(ref *method.FieldRef) *Template

	GenCheckCast(typeRef interface{}) *Template
	GenInstanceOf(typeRef interface{}) *Template

	GenMonitorEnter() *Template
	GenMonitorExit() *Template

	GenNewInstance(typeRef interface{}) *Template
	GenNewArray(elemKind string) *Template
	GenNewMultiArray(typeRef interface{}, dims int) *Template
	GenResolveClass(typeRef interface{}) *Template

	GenExceptionObject() *Template

	GenInvokeStatic(ref *method.MethodRef) *Template
	GenInvokeSpecial(ref *method.MethodRef) *Template
	GenInvokeVirtual(ref *method.MethodRef) *Template
	GenInvokeInterface(ref *method.MethodRef) *Template

	GenIntrinsic(name string) *Template

	// GenWriteBarrier returns the pre- and post-barrier templates for a
	// store of an object reference into the heap (spec.md §4.H: "before
	// and after every store of an object reference... emit a pre-barrier
	// ... and a post-barrier").
	GenWriteBarrier() (pre, post *Template)
}
