// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xir

import (
	"fmt"

	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/lir"
	"github.com/go-interpreter/c1xgo/method"
)

// Stdlib is a stock RuntimeInterface: plain, unoptimized templates with no
// fast-path/slow-path split, describing a plausible object layout without a
// real VM plugged in; only this package's tests use it, since the compiler
// does not consult a RuntimeInterface. A production embedder supplies its own RuntimeInterface instead.
type Stdlib struct {
	// WordSize is the target's pointer width in bytes, used to compute the
	// stock array-header/length-offset layout below.
	WordSize int32
}

// NewStdlib builds a Stdlib runtime for the given pointer width.
func NewStdlib(wordSize int32) *Stdlib { return &Stdlib{WordSize: wordSize} }

func (s *Stdlib) FieldOffset(ref *method.FieldRef) int32 { return ref.Offset }

// ArrayHeaderSize assumes a two-word header: class pointer, then length.
func (s *Stdlib) ArrayHeaderSize() int32 { return 2 * s.WordSize }

func (s *Stdlib) ArrayLengthOffset() int32 { return s.WordSize }

func (s *Stdlib) PrimitiveArrayClass(elem string) interface{} { return "class:[" + elem }

func (s *Stdlib) MethodProfile(ref *method.MethodRef) interface{} { return nil }

func runtimeCallTemplate(name string, resultKind OperandKind, stubName string) *Template {
	t := &Template{
		Name:      name,
		HasResult: resultKind != KindWord,
		Result:    OperandSpec{Name: "result", Role: RoleTemp, Kind: resultKind},
	}
	t.FastPath = []lir.Instruction{{
		Op: lir.OpCall,
		Call: lir.CallTarget{
			Kind:   lir.CallGlobalStub,
			StubID: 0,
		},
		XirTemplate: stubName,
	}}
	return t
}

func (s *Stdlib) GenPrologue() *Template { return &Template{Name: "prologue"} }
func (s *Stdlib) GenEpilogue() *Template { return &Template{Name: "epilogue"} }

func (s *Stdlib) GenSafepoint() *Template {
	return &Template{Name: "safepoint", FastPath: []lir.Instruction{{Op: lir.OpSafepoint}}}
}

func (s *Stdlib) GenArrayLength() *Template {
	return &Template{
		Name:      "array_length",
		Inputs:    []OperandSpec{{Name: "array", Role: RoleInput, Kind: KindValue}},
		HasResult: true,
		Result:    OperandSpec{Name: "result", Role: RoleTemp, Kind: KindValue},
		FastPath:  []lir.Instruction{{Op: lir.OpLoad}},
	}
}

func (s *Stdlib) GenArrayLoad(elemKind string) *Template {
	return &Template{
		Name: "array_load:" + elemKind,
		Inputs: []OperandSpec{
			{Name: "array", Role: RoleInput, Kind: KindValue},
			{Name: "index", Role: RoleInput, Kind: KindValue},
		},
		HasResult: true,
		Result:    OperandSpec{Name: "result", Role: RoleTemp, Kind: KindValue},
		FastPath:  []lir.Instruction{{Op: lir.OpBoundsCheck}, {Op: lir.OpLoad}},
	}
}

func (s *Stdlib) GenArrayStore(elemKind string) *Template {
	t := &Template{
		Name: "array_store:" + elemKind,
		Inputs: []OperandSpec{
			{Name: "array", Role: RoleInput, Kind: KindValue},
			{Name: "index", Role: RoleInput, Kind: KindValue},
			{Name: "value", Role: RoleInput, Kind: KindValue},
		},
		FastPath: []lir.Instruction{{Op: lir.OpBoundsCheck}},
	}
	if elemKind == kind.Object.String() {
		t.FastPath = append(t.FastPath, lir.Instruction{Op: lir.OpStoreCheck})
	}
	t.FastPath = append(t.FastPath, lir.Instruction{Op: lir.OpStore})
	return t
}

func (s *Stdlib) GenGetField(ref *method.FieldRef) *Template {
	return &Template{
		Name:      "get_field:" + ref.Name,
		Inputs:    []OperandSpec{{Name: "object", Role: RoleInput, Kind: KindValue}},
		Constants: []Constant{{Name: "offset", Value: int64(ref.Offset)}},
		HasResult: true,
		Result:    OperandSpec{Name: "result", Role: RoleTemp, Kind: KindValue},
		FastPath:  []lir.Instruction{{Op: lir.OpLoad}},
	}
}

func (s *Stdlib) GenPutField(ref *method.FieldRef) *Template {
	return &Template{
		Name: "put_field:" + ref.Name,
		Inputs: []OperandSpec{
			{Name: "object", Role: RoleInput, Kind: KindValue},
			{Name: "value", Role: RoleInput, Kind: KindValue},
		},
		Constants: []Constant{{Name: "offset", Value: int64(ref.Offset)}},
		FastPath:  []lir.Instruction{{Op: lir.OpStore}},
	}
}

func (s *Stdlib) GenGetStatic(ref *method.FieldRef) *Template {
	return &Template{
		Name:      "get_static:" + ref.Name,
		Constants: []Constant{{Name: "offset", Value: int64(ref.Offset)}},
		HasResult: true,
		Result:    OperandSpec{Name: "result", Role: RoleTemp, Kind: KindValue},
		FastPath:  []lir.Instruction{{Op: lir.OpLoad}},
	}
}

func (s *Stdlib) GenPutStatic(ref *method.FieldRef) *Template {
	return &Template{
		Name:      "put_static:" + ref.Name,
		Inputs:    []OperandSpec{{Name: "value", Role: RoleInput, Kind: KindValue}},
		Constants: []Constant{{Name: "offset", Value: int64(ref.Offset)}},
		FastPath:  []lir.Instruction{{Op: lir.OpStore}},
	}
}

func (s *Stdlib) GenCheckCast(typeRef interface{}) *Template {
	return &Template{
		Name:     fmt.Sprintf("checkcast:%v", typeRef),
		Inputs:   []OperandSpec{{Name: "object", Role: RoleInput, Kind: KindValue}},
		FastPath: []lir.Instruction{{Op: lir.OpXir, XirTemplate: "checkcast_slow"}},
	}
}

func (s *Stdlib) GenInstanceOf(typeRef interface{}) *Template {
	return &Template{
		Name:      fmt.Sprintf("instanceof:%v", typeRef),
		Inputs:    []OperandSpec{{Name: "object", Role: RoleInput, Kind: KindValue}},
		HasResult: true,
		Result:    OperandSpec{Name: "result", Role: RoleTemp, Kind: KindValue},
	}
}

func (s *Stdlib) GenMonitorEnter() *Template {
	return &Template{
		Name:     "monitor_enter",
		Inputs:   []OperandSpec{{Name: "object", Role: RoleInput, Kind: KindValue}},
		FastPath: []lir.Instruction{{Op: lir.OpXir, XirTemplate: "monitor_enter_slow"}},
	}
}

func (s *Stdlib) GenMonitorExit() *Template {
	return &Template{
		Name:     "monitor_exit",
		Inputs:   []OperandSpec{{Name: "object", Role: RoleInput, Kind: KindValue}},
		FastPath: []lir.Instruction{{Op: lir.OpXir, XirTemplate: "monitor_exit_slow"}},
	}
}

func (s *Stdlib) GenNewInstance(typeRef interface{}) *Template {
	return runtimeCallTemplate(fmt.Sprintf("new_instance:%v", typeRef), KindValue, "rt_new_instance")
}

func (s *Stdlib) GenNewArray(elemKind string) *Template {
	t := runtimeCallTemplate("new_array:"+elemKind, KindValue, "rt_new_array")
	t.Inputs = []OperandSpec{{Name: "length", Role: RoleInput, Kind: KindValue}}
	return t
}

func (s *Stdlib) GenNewMultiArray(typeRef interface{}, dims int) *Template {
	t := runtimeCallTemplate(fmt.Sprintf("new_multi_array:%v", typeRef), KindValue, "rt_new_multi_array")
	t.Inputs = make([]OperandSpec, dims)
	for i := range t.Inputs {
		t.Inputs[i] = OperandSpec{Name: fmt.Sprintf("dim%d", i), Role: RoleInput, Kind: KindValue}
	}
	return t
}

func (s *Stdlib) GenResolveClass(typeRef interface{}) *Template {
	return runtimeCallTemplate(fmt.Sprintf("resolve_class:%v", typeRef), KindValue, "rt_resolve_class")
}

func (s *Stdlib) GenExceptionObject() *Template {
	return &Template{Name: "exception_object", HasResult: true, Result: OperandSpec{Name: "result", Role: RoleTemp, Kind: KindValue}}
}

func (s *Stdlib) genInvoke(name string, ref *method.MethodRef) *Template {
	qualified := ref.Holder + "." + ref.Name + ref.Sig.String()
	t := runtimeCallTemplate(name+":"+qualified, KindValue, "rt_invoke")
	if ref.Sig.Result == kind.Void {
		t.HasResult = false
	}
	return t
}

func (s *Stdlib) GenInvokeStatic(ref *method.MethodRef) *Template    { return s.genInvoke("invokestatic", ref) }
func (s *Stdlib) GenInvokeSpecial(ref *method.MethodRef) *Template  { return s.genInvoke("invokespecial", ref) }
func (s *Stdlib) GenInvokeVirtual(ref *method.MethodRef) *Template  { return s.genInvoke("invokevirtual", ref) }
func (s *Stdlib) GenInvokeInterface(ref *method.MethodRef) *Template {
	return s.genInvoke("invokeinterface", ref)
}

func (s *Stdlib) GenIntrinsic(name string) *Template {
	return runtimeCallTemplate("intrinsic:"+name, KindValue, "rt_intrinsic")
}

func (s *Stdlib) GenWriteBarrier() (pre, post *Template) {
	pre = &Template{Name: "write_barrier_pre", FastPath: []lir.Instruction{{Op: lir.OpBarrier}}}
	post = &Template{Name: "write_barrier_post", FastPath: []lir.Instruction{{Op: lir.OpBarrier}}}
	return pre, post
}
