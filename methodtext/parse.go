// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package methodtext

import (
	"fmt"
	"strings"

	"github.com/go-interpreter/c1xgo/kind"
	"github.com/go-interpreter/c1xgo/method"
)

// node is one parsed s-expression: either an atomic token or a parenthesized
// list of child nodes. Grounded on wast/write.go's own two-level
// "list of sub-expressions vs leaf token" shape, rebuilt generically here
// since methodtext's grammar is uniform s-expressions rather than
// wasm-specific instruction forms.
type node struct {
	tok      Token
	children []*node
}

func (n *node) isList() bool { return n.tok.Kind == LPAR }

// Parse reads one top-level (method ...) form from src and builds a
// method.Method from it.
func Parse(src []byte) (*method.Method, error) {
	s := NewScanner(src)
	p := &parser{s: s}
	p.advance()
	n, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if len(s.Errors) > 0 {
		return nil, s.Errors[0]
	}
	return compileMethod(n)
}

type parser struct {
	s   *Scanner
	cur Token
}

func (p *parser) advance() { p.cur = p.s.Next() }

func (p *parser) parseNode() (*node, error) {
	switch p.cur.Kind {
	case LPAR:
		n := &node{tok: p.cur}
		p.advance()
		for p.cur.Kind != RPAR {
			if p.cur.Kind == EOF {
				return nil, fmt.Errorf("methodtext: unexpected EOF, line %d", p.cur.Line)
			}
			child, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
		p.advance() // consume RPAR
		return n, nil
	case EOF:
		return nil, fmt.Errorf("methodtext: unexpected EOF")
	default:
		n := &node{tok: p.cur}
		p.advance()
		return n, nil
	}
}

// head returns the leading atom of a list node, "" if n isn't a non-empty list.
func (n *node) head() string {
	if !n.isList() || len(n.children) == 0 {
		return ""
	}
	return n.children[0].tok.Text
}

func compileMethod(n *node) (*method.Method, error) {
	if n.head() != "method" {
		return nil, fmt.Errorf("methodtext: expected (method ...), got %q", n.head())
	}
	if len(n.children) < 2 || n.children[1].tok.Kind != STRING {
		return nil, fmt.Errorf("methodtext: (method NAME ...) missing qualified name string")
	}
	holder, name, sig, err := parseQualifiedName(n.children[1].tok.Text)
	if err != nil {
		return nil, err
	}
	m := &method.Method{Holder: holder, Name: name, Sig: sig, IsStatic: true}

	c := &compiler{m: m}
	for _, child := range n.children[2:] {
		if err := c.compileTop(child); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func parseQualifiedName(s string) (holder, name string, sig kind.Signature, err error) {
	paren := strings.IndexByte(s, '(')
	if paren < 0 {
		return "", "", sig, fmt.Errorf("methodtext: malformed qualified name %q", s)
	}
	head := s[:paren]
	sigText := s[paren:]
	dot := strings.LastIndexByte(head, '.')
	if dot < 0 {
		return "", "", sig, fmt.Errorf("methodtext: malformed qualified name %q", s)
	}
	holder, name = head[:dot], head[dot+1:]
	sig, err = parseSignature(sigText)
	return holder, name, sig, err
}

// parseSignature parses kind.Signature.String()'s own rendering,
// "(k,k,...)k", so round-tripping a Method through its QualifiedName and
// back needs no second format.
func parseSignature(s string) (kind.Signature, error) {
	var sig kind.Signature
	close := strings.IndexByte(s, ')')
	if !strings.HasPrefix(s, "(") || close < 0 {
		return sig, fmt.Errorf("methodtext: malformed signature %q", s)
	}
	params := s[1:close]
	if params != "" {
		for _, p := range strings.Split(params, ",") {
			k, ok := kindByName(p)
			if !ok {
				return sig, fmt.Errorf("methodtext: unknown kind %q in signature %q", p, s)
			}
			sig.Params = append(sig.Params, k)
		}
	}
	resultName := s[close+1:]
	k, ok := kindByName(resultName)
	if !ok {
		return sig, fmt.Errorf("methodtext: unknown result kind %q in signature %q", resultName, s)
	}
	sig.Result = k
	return sig, nil
}

var kindNames = map[string]kind.Kind{
	"boolean": kind.Boolean, "byte": kind.Byte, "short": kind.Short, "char": kind.Char,
	"int": kind.Int, "long": kind.Long, "float": kind.Float, "double": kind.Double,
	"object": kind.Object, "word": kind.Word, "void": kind.Void,
}

func kindByName(s string) (kind.Kind, bool) {
	k, ok := kindNames[s]
	return k, ok
}

// compiler accumulates a Method's fields while walking the top-level forms
// of a (method ...) node: the bare flags static, virtual and synchronized,
// (maxlocals N), (maxstack N), (code instr...).
type compiler struct {
	m *method.Method
}

func (c *compiler) compileTop(n *node) error {
	clause := n.head()
	if !n.isList() {
		// static, virtual and synchronized are written as bare atoms.
		clause = n.tok.Text
		if clause != "static" && clause != "virtual" && clause != "synchronized" {
			return fmt.Errorf("methodtext: unknown method clause %q", clause)
		}
	}
	switch clause {
	case "static":
		c.m.IsStatic = true
	case "virtual":
		c.m.IsStatic = false
	case "synchronized":
		c.m.IsSynchronized = true
	case "maxlocals":
		c.m.MaxLocals = int(n.children[1].tok.IntVal)
	case "maxstack":
		c.m.MaxStack = int(n.children[1].tok.IntVal)
	case "code":
		instrs, err := compileCode(n.children[1:])
		if err != nil {
			return err
		}
		c.m.Code = instrs
	default:
		return fmt.Errorf("methodtext: unknown method clause %q", clause)
	}
	return nil
}

// compileCode interprets each (mnemonic args...) form into one
// method.Instr, in order, assigning each a sequential BCI (methodtext has
// no byte-level bytecode encoding of its own — one s-expression form is
// one instruction, matching the granularity method.Instr already works at
// per spec.md §6's "bytecode handed to the builder already decoded").
func compileCode(nodes []*node) ([]method.Instr, error) {
	instrs := make([]method.Instr, 0, len(nodes))
	for bci, n := range nodes {
		in, err := compileInstr(bci, n)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, in)
	}
	return instrs, nil
}

func compileInstr(bci int, n *node) (method.Instr, error) {
	mnem := n.head()
	args := n.children[1:]
	in := method.Instr{BCI: bci}

	switch mnem {
	case "const":
		in.Op = method.ConstInt
		k, _ := kindByName(args[0].tok.Text)
		in.Kind = k
		in.IntImm = args[1].tok.IntVal
	case "load":
		in.Op = method.Load
		k, _ := kindByName(args[0].tok.Text)
		in.Kind = k
		in.LocalSlot = int(args[1].tok.IntVal)
	case "store":
		in.Op = method.Store
		k, _ := kindByName(args[0].tok.Text)
		in.Kind = k
		in.LocalSlot = int(args[1].tok.IntVal)
	case "add", "sub", "mul", "div", "rem", "and", "or", "xor", "shl", "shr", "ushr":
		in.Op = opForArith(mnem)
		in.ArithOp = mnem
		k, _ := kindByName(args[0].tok.Text)
		in.Kind = k
	case "neg":
		in.Op = method.Neg
		in.ArithOp = "neg"
		k, _ := kindByName(args[0].tok.Text)
		in.Kind = k
	case "goto":
		in.Op = method.Goto
		in.BranchTarget = int(args[0].tok.IntVal)
	case "if":
		in.Op = method.If
		in.Cond = args[0].tok.Text
		in.BranchTarget = int(args[1].tok.IntVal)
	case "ifcmp":
		in.Op = method.IfCmp
		in.Cond = args[0].tok.Text
		in.BranchTarget = int(args[1].tok.IntVal)
	case "return":
		in.Op = method.Return
		if len(args) > 0 {
			k, _ := kindByName(args[0].tok.Text)
			in.Kind = k
		} else {
			in.Kind = kind.Void
		}
	case "throw":
		in.Op = method.Throw
	case "pop":
		in.Op = method.Pop
	case "pop2":
		in.Op = method.Pop2
	case "dup":
		in.Op = method.Dup
	case "swap":
		in.Op = method.Swap
	default:
		return in, fmt.Errorf("methodtext: unknown instruction %q", mnem)
	}
	return in, nil
}

func opForArith(mnem string) method.Op {
	switch mnem {
	case "add":
		return method.Add
	case "sub":
		return method.Sub
	case "mul":
		return method.Mul
	case "div":
		return method.Div
	case "rem":
		return method.Rem
	case "and":
		return method.And
	case "or":
		return method.Or
	case "xor":
		return method.Xor
	case "shl":
		return method.Shl
	case "shr":
		return method.Shr
	case "ushr":
		return method.UShr
	}
	return method.Nop
}
