// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kind describes the closed set of primitive value kinds the
// compiler pipeline operates over, along with their stack-kind and
// JVM-slot bookkeeping.
package kind

// Kind is the closed sum of primitive value kinds a Value or Operand may
// carry.
type Kind uint8

const (
	Boolean Kind = iota
	Byte
	Short
	Char
	Int
	Long
	Float
	Double
	Object
	Word
	Void
	Illegal
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "boolean"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Char:
		return "char"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Object:
		return "object"
	case Word:
		return "word"
	case Void:
		return "void"
	case Illegal:
		return "illegal"
	default:
		return "unknown"
	}
}

// StackKind is the reduced set of kinds values occupy once pushed onto an
// abstract operand stack: category-1 integer/float kinds collapse onto a
// single representative stack kind.
type StackKind uint8

const (
	StackInt StackKind = iota
	StackLong
	StackFloat
	StackDouble
	StackObject
	StackWord
	StackVoid
)

func (k StackKind) String() string {
	switch k {
	case StackInt:
		return "int"
	case StackLong:
		return "long"
	case StackFloat:
		return "float"
	case StackDouble:
		return "double"
	case StackObject:
		return "object"
	case StackWord:
		return "word"
	case StackVoid:
		return "void"
	default:
		return "unknown"
	}
}

// StackKind returns the reduced stack-kind representative for k.
func (k Kind) StackKind() StackKind {
	switch k {
	case Boolean, Byte, Short, Char, Int:
		return StackInt
	case Long:
		return StackLong
	case Float:
		return StackFloat
	case Double:
		return StackDouble
	case Object:
		return StackObject
	case Word:
		return StackWord
	default:
		return StackVoid
	}
}

// IsCategory2 reports whether k occupies two JVM slots (long, double).
func (k Kind) IsCategory2() bool {
	return k == Long || k == Double
}

// JVMSlots returns the number of local/stack slots k occupies: 2 for
// category-2 kinds (long, double), 1 for everything else including Void
// (a Void slot never actually appears in a frame, but callers that index
// blindly by kind should not panic).
func (k Kind) JVMSlots() int {
	if k.IsCategory2() {
		return 2
	}
	return 1
}

// IsNumeric reports whether k is one of the arithmetic primitive kinds.
func (k Kind) IsNumeric() bool {
	switch k {
	case Byte, Short, Char, Int, Long, Float, Double:
		return true
	default:
		return false
	}
}
