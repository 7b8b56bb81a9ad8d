// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ast defines the input program model for the Datalog-to-RAM
// translator.
//
// A Program is the output of an upstream parser and semantic analyzer: a set
// of relations, a set of clauses, and a stratification. Everything in this
// package is immutable once handed to the translator.
package ast

import (
	"fmt"
	"strings"
)

// Type enumerates the attribute types understood by the translator. Type
// checking happens upstream; the translator only consults types to size
// tuples and to decide how constants are embedded.
type Type int

const (
	// Number is a signed integer attribute.
	Number Type = iota

	// Symbol is an interned string attribute.
	Symbol

	// Record is an opaque reference to a packed record value.
	Record
)

func (t Type) String() string {
	switch t {
	case Number:
		return "number"
	case Symbol:
		return "symbol"
	case Record:
		return "record"
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Attribute is a single named, typed column of a relation.
type Attribute struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Relation describes one relation of the program.
type Relation struct {
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`

	// EDB is true for extensional relations whose facts are supplied
	// externally. Intensional relations are derived by clauses.
	EDB bool `json:"edb,omitempty"`

	// Recursive is true if the relation participates in a cycle within its
	// stratum. Computed by the upstream stratifier.
	Recursive bool `json:"recursive,omitempty"`
}

// Arity returns the number of declared attributes.
func (r *Relation) Arity() int {
	return len(r.Attributes)
}

func (r *Relation) String() string {
	parts := make([]string, len(r.Attributes))
	for i, a := range r.Attributes {
		parts[i] = a.Name + ":" + a.Type.String()
	}
	return r.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Stratum is one element of the stratification: the names of the relations
// evaluated together. Strata are ordered; a relation only depends negatively
// on relations in strictly earlier strata.
type Stratum struct {
	Relations []string `json:"relations"`
}

// Program is the validated input to the translator: relations, clauses, and
// a stratification covering every intensional relation.
type Program struct {
	Relations []*Relation `json:"relations"`
	Clauses   []*Clause   `json:"clauses"`
	Strata    []Stratum   `json:"strata"`
}

// Clause is one Horn rule: a head atom derived from an ordered body.
type Clause struct {
	Head *Atom     `json:"head"`
	Body []Literal `json:"body,omitempty"`
}

func (c *Clause) String() string {
	if len(c.Body) == 0 {
		return c.Head.String() + "."
	}
	parts := make([]string, len(c.Body))
	for i, l := range c.Body {
		parts[i] = fmt.Sprint(l)
	}
	return c.Head.String() + " :- " + strings.Join(parts, ", ") + "."
}

// Literal is one element of a clause body: a positive Atom, a Negation, a
// Comparison, or an aggregate Binding.
type Literal interface {
	literalMarker()
}

// Atom is a positive relation membership literal.
type Atom struct {
	Relation string `json:"relation"`
	Args     []Term `json:"args,omitempty"`
}

func (a *Atom) String() string {
	parts := make([]string, len(a.Args))
	for i, t := range a.Args {
		parts[i] = fmt.Sprint(t)
	}
	return a.Relation + "(" + strings.Join(parts, ", ") + ")"
}

// Negation is a negated atom. Safety (all variables bound elsewhere) is an
// upstream invariant.
type Negation struct {
	Atom *Atom `json:"atom"`
}

func (n *Negation) String() string {
	return "!" + n.Atom.String()
}

// CmpOp enumerates the binary comparison operators.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

var cmpOpNames = [...]string{"=", "!=", "<", "<=", ">", ">="}

func (op CmpOp) String() string {
	if int(op) < len(cmpOpNames) {
		return cmpOpNames[op]
	}
	return fmt.Sprintf("cmp(%d)", int(op))
}

// Comparison is a binary constraint between two value expressions.
type Comparison struct {
	Op  CmpOp `json:"op"`
	LHS Term  `json:"lhs"`
	RHS Term  `json:"rhs"`
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%v %v %v", c.LHS, c.Op, c.RHS)
}

// Binding binds a variable to the result of an aggregate over a sub-query.
type Binding struct {
	Var   string     `json:"var"`
	Value *Aggregate `json:"value"`
}

func (b *Binding) String() string {
	return b.Var + " = " + b.Value.String()
}

func (*Atom) literalMarker()       {}
func (*Negation) literalMarker()   {}
func (*Comparison) literalMarker() {}
func (*Binding) literalMarker()    {}
