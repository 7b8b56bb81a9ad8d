// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

// Constructor helpers for building programs in code. The parser front end
// produces the same structures; these exist for drivers and tests.

// VarTerm returns a variable term.
func VarTerm(name string) *Variable {
	return &Variable{Name: name}
}

// NumberTerm returns a number constant term.
func NumberTerm(v int64) *NumberConst {
	return &NumberConst{Value: v}
}

// SymbolTerm returns a symbol constant term.
func SymbolTerm(s string) *SymbolConst {
	return &SymbolConst{Value: s}
}

// NewAtom returns an atom over the named relation.
func NewAtom(relation string, args ...Term) *Atom {
	return &Atom{Relation: relation, Args: args}
}

// NewClause returns a clause with the given head and body.
func NewClause(head *Atom, body ...Literal) *Clause {
	return &Clause{Head: head, Body: body}
}

// Not returns a negated atom literal.
func Not(a *Atom) *Negation {
	return &Negation{Atom: a}
}

// Compare returns a comparison literal.
func Compare(op CmpOp, lhs, rhs Term) *Comparison {
	return &Comparison{Op: op, LHS: lhs, RHS: rhs}
}

// Bind returns an aggregate binding literal.
func Bind(v string, agg *Aggregate) *Binding {
	return &Binding{Var: v, Value: agg}
}

// NumberAttr returns a number-typed attribute.
func NumberAttr(name string) Attribute {
	return Attribute{Name: name, Type: Number}
}

// SymbolAttr returns a symbol-typed attribute.
func SymbolAttr(name string) Attribute {
	return Attribute{Name: name, Type: Symbol}
}
