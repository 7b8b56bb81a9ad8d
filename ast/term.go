// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"fmt"
	"strings"
)

// Term is a value expression appearing in atom arguments, comparisons, and
// aggregate bodies. Terms are immutable once built.
type Term interface {
	termMarker()
}

// Variable is a named logic variable. The name "_" is the anonymous
// wildcard: it never binds and never constrains.
type Variable struct {
	Name string `json:"name"`
}

// Wildcard reports whether the variable is the anonymous wildcard.
func (v *Variable) Wildcard() bool {
	return v.Name == "_"
}

func (v *Variable) String() string { return v.Name }

// NumberConst is a signed integer constant.
type NumberConst struct {
	Value int64 `json:"value"`
}

func (n *NumberConst) String() string { return fmt.Sprint(n.Value) }

// SymbolConst is a string constant, interned into the symbol table at
// translation time.
type SymbolConst struct {
	Value string `json:"value"`
}

func (s *SymbolConst) String() string { return fmt.Sprintf("%q", s.Value) }

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpBnot
	OpLnot
)

var unaryOpNames = [...]string{"-", "bnot", "lnot"}

func (op UnaryOp) String() string {
	if int(op) < len(unaryOpNames) {
		return unaryOpNames[op]
	}
	return fmt.Sprintf("unary(%d)", int(op))
}

// UnaryExpr applies a unary operator to a sub-term.
type UnaryExpr struct {
	Op  UnaryOp `json:"op"`
	Arg Term    `json:"arg"`
}

func (u *UnaryExpr) String() string { return fmt.Sprintf("%v(%v)", u.Op, u.Arg) }

// BinaryOp enumerates the binary arithmetic operators. Division truncates
// toward zero and the sign of a modulo result follows the dividend, matching
// the host evaluator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMax
	OpMin
)

var binaryOpNames = [...]string{"+", "-", "*", "/", "%", "max", "min"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("binary(%d)", int(op))
}

// BinaryExpr applies a binary operator to two sub-terms.
type BinaryExpr struct {
	Op  BinaryOp `json:"op"`
	LHS Term     `json:"lhs"`
	RHS Term     `json:"rhs"`
}

func (b *BinaryExpr) String() string { return fmt.Sprintf("(%v %v %v)", b.LHS, b.Op, b.RHS) }

// FunctorCall invokes an externally supplied pure function.
type FunctorCall struct {
	Name string `json:"name"`
	Args []Term `json:"args,omitempty"`
}

func (f *FunctorCall) String() string {
	parts := make([]string, len(f.Args))
	for i, t := range f.Args {
		parts[i] = fmt.Sprint(t)
	}
	return "@" + f.Name + "(" + strings.Join(parts, ", ") + ")"
}

// RecordCtor packs its arguments into a single opaque record reference,
// usable wherever a scalar value is. Supports recursive record/ADT types.
type RecordCtor struct {
	Args []Term `json:"args,omitempty"`
}

func (r *RecordCtor) String() string {
	parts := make([]string, len(r.Args))
	for i, t := range r.Args {
		parts[i] = fmt.Sprint(t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AggregateOp enumerates the supported aggregate functions.
type AggregateOp int

const (
	AggCount AggregateOp = iota
	AggSum
	AggMin
	AggMax
	AggMean
)

var aggregateOpNames = [...]string{"count", "sum", "min", "max", "mean"}

func (op AggregateOp) String() string {
	if int(op) < len(aggregateOpNames) {
		return aggregateOpNames[op]
	}
	return fmt.Sprintf("agg(%d)", int(op))
}

// Aggregate accumulates Op over the tuples matching Body. Value is the
// per-match expression being accumulated; it is nil for count.
type Aggregate struct {
	Op    AggregateOp `json:"op"`
	Value Term        `json:"expr,omitempty"`
	Body  *Atom       `json:"body"`
}

func (a *Aggregate) String() string {
	if a.Value == nil {
		return fmt.Sprintf("%v : %v", a.Op, a.Body)
	}
	return fmt.Sprintf("%v %v : %v", a.Op, a.Value, a.Body)
}

// Counter reads the auto-increment counter. Each read yields the next value
// of a monotonic sequence scoped to the enclosing stratum's evaluation.
type Counter struct{}

func (*Counter) String() string { return "$" }

func (*Variable) termMarker()    {}
func (*NumberConst) termMarker() {}
func (*SymbolConst) termMarker() {}
func (*UnaryExpr) termMarker()   {}
func (*BinaryExpr) termMarker()  {}
func (*FunctorCall) termMarker() {}
func (*RecordCtor) termMarker()  {}
func (*Aggregate) termMarker()   {}
func (*Counter) termMarker()     {}

// Vars appends the names of all non-wildcard variables appearing in t to dst
// and returns the result. Aggregate bodies are skipped; their variables are
// local to the sub-query.
func Vars(dst []string, t Term) []string {
	switch t := t.(type) {
	case *Variable:
		if !t.Wildcard() {
			dst = append(dst, t.Name)
		}
	case *UnaryExpr:
		dst = Vars(dst, t.Arg)
	case *BinaryExpr:
		dst = Vars(dst, t.LHS)
		dst = Vars(dst, t.RHS)
	case *FunctorCall:
		for _, a := range t.Args {
			dst = Vars(dst, a)
		}
	case *RecordCtor:
		for _, a := range t.Args {
			dst = Vars(dst, a)
		}
	}
	return dst
}
