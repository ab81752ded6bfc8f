// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package method describes the compiler's input: a method descriptor
// (holder, name, signature, flags, decoded bytecode, exception table) per
// spec.md §6. Bytecode is handed to the builder already decoded into a
// flat Instr slice — the same shape disasm.Instr takes in wagon
// (disasm/disasm.go: an Op plus per-instruction Immediates and block
// metadata), rather than as a raw byte stream requiring its own
// class-file-level decoder, which is out of scope per spec.md §1's
// "bytecode verification details" non-goal.
package method

import "github.com/go-interpreter/c1xgo/kind"

// Op is the closed bytecode opcode set the HIR builder interprets. It
// names exactly the operations spec.md §3's Value tag list requires a
// bytecode source for.
type Op uint8

const (
	Nop Op = iota
	ConstInt
	ConstLong
	ConstFloat
	ConstDouble
	ConstNull
	Load
	Store
	IInc
	ArrayLoad
	ArrayStore
	ArrayLength
	Pop
	Pop2
	Dup
	DupX1
	Swap
	Add
	Sub
	Mul
	Div
	Rem
	Neg
	Shl
	Shr
	UShr
	And
	Or
	Xor
	Convert
	Compare
	Goto
	If
	IfCmp
	TableSwitch
	LookupSwitch
	Return
	Throw
	GetField
	PutField
	GetStatic
	PutStatic
	InvokeStatic
	InvokeSpecial
	InvokeVirtual
	InvokeInterface
	New
	NewArray
	ANewArray
	MultiANewArray
	CheckCast
	InstanceOf
	MonitorEnter
	MonitorExit
	Unreachable
)

// FieldRef identifies a field access site's resolved target.
type FieldRef struct {
	Name      string
	Offset    int32
	FieldKind kind.Kind
	Volatile  bool
	Static    bool
}

// MethodRef identifies a call site's resolved (or to-be-resolved) target.
type MethodRef struct {
	Holder    string
	Name      string
	Sig       kind.Signature
	IsStatic  bool
	IsVirtual bool
}

// Instr is one decoded bytecode instruction.
type Instr struct {
	Op  Op
	BCI int

	// Kind is the operand/result kind for Const*/Load/Store/ArrayLoad/
	// ArrayStore/arithmetic/Convert's source kind.
	Kind kind.Kind

	IntImm    int64
	FloatImm  float64
	LocalSlot int

	// Goto/If: BranchTarget is the single jump BCI.
	// IfCmp: same, with Cond naming the binary comparison.
	// TableSwitch/LookupSwitch: Targets holds one BCI per key (TableSwitch:
	// dense from LowKey; LookupSwitch: Keys[i] <-> Targets[i]),
	// DefaultTarget is the fallback.
	BranchTarget  int
	DefaultTarget int
	Keys          []int32
	Targets       []int
	LowKey        int32

	Cond    string // "eq","ne","lt","le","gt","ge","null","nonnull"
	ArithOp string // "add","sub","mul","div","rem","and","or","xor","shl","shr","ushr","neg"

	ConvertFrom, ConvertTo kind.Kind

	Field  *FieldRef
	Method *MethodRef

	TypeRef  interface{} // opaque runtime type handle for new/checkcast/instanceof
	ArrayElem kind.Kind
	Dims      int
}

// ExceptionHandler is one entry of a method's exception table: the
// bytecode range it guards, the handler entry point, and the catch type
// (nil means catch-any).
type ExceptionHandler struct {
	StartBCI, EndBCI, HandlerBCI int
	CatchType                    interface{}
}

// Method is the compiler's full input for one compilation (spec.md §6).
type Method struct {
	Holder string
	Name   string
	Sig    kind.Signature

	IsStatic       bool
	IsSynchronized bool

	MaxLocals int
	MaxStack  int

	Code              []Instr
	ExceptionHandlers []ExceptionHandler

	// LineNumbers maps a BCI to a source line, used only for diagnostics.
	LineNumbers map[int]int
}

// QualifiedName renders "Holder.Name(params)result", for example
// "Holder.add(int,int)int", for diagnostics and PrintFilter matching.
func (m *Method) QualifiedName() string {
	return m.Holder + "." + m.Name + m.Sig.String()
}
