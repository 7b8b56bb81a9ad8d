// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ram defines the relational-algebra intermediate representation
// (RAM) emitted by the translator.
//
// RAM specifies an imperative execution model for stratified Datalog: an
// ordered tree of loops, filters, and tuple insertions over relation
// versions. The translator only constructs this tree; executing it is the
// evaluator's concern.
package ram

import (
	"fmt"
	"strings"
)

type (
	// Program is a complete translated unit: the interned symbols, the
	// relation declarations, and the main statement.
	Program struct {
		Symbols   []string
		Relations []*RelationDecl
		Main      Stmt
	}

	// RelationDecl declares one relation of the emitted program. Arity
	// counts the declared attributes; AuxArity counts synthetic trailing
	// columns (rule-id and height under the provenance strategy).
	RelationDecl struct {
		Name       string   `json:"name"`
		Attributes []string `json:"attributes"`
		AuxArity   int      `json:"aux_arity,omitempty"`
	}

	// Stmt is an imperative RAM statement.
	Stmt interface {
		stmtMarker()
	}

	// Cond is a boolean RAM condition.
	Cond interface {
		condMarker()
	}

	// Expr is a RAM value expression.
	Expr interface {
		exprMarker()
	}
)

// Arity returns the total column count including auxiliary columns.
func (d *RelationDecl) Arity() int {
	return len(d.Attributes) + d.AuxArity
}

func (d *RelationDecl) String() string {
	return fmt.Sprintf("%v(%v)+%d", d.Name, strings.Join(d.Attributes, ","), d.AuxArity)
}

// Version selects one of the semi-naive bookkeeping versions of a relation.
type Version int

const (
	// Full is all facts derived so far.
	Full Version = iota

	// Delta is the facts added in the previous fixpoint iteration.
	Delta

	// New is the facts added in the current fixpoint iteration.
	New
)

func (v Version) String() string {
	switch v {
	case Full:
		return ""
	case Delta:
		return "Δ"
	case New:
		return "+"
	}
	return fmt.Sprintf("version(%d)", int(v))
}

// RelationRef names one version of a relation.
type RelationRef struct {
	Name    string
	Version Version
}

func (r RelationRef) String() string {
	return r.Version.String() + r.Name
}

// Sequence executes its statements in order.
type Sequence struct {
	Stmts []Stmt
}

func (s *Sequence) String() string {
	return fmt.Sprintf("Sequence (%d statements)", len(s.Stmts))
}

// Parallel executes its statements in order but marks them safe to run
// concurrently: no statement observes tuples inserted by a sibling. The
// translator only marks; scheduling is the evaluator's concern.
type Parallel struct {
	Stmts []Stmt
}

func (s *Parallel) String() string {
	return fmt.Sprintf("Parallel (%d statements)", len(s.Stmts))
}

// Loop repeats its body until an Exit statement inside the body fires.
type Loop struct {
	Body Stmt
}

func (*Loop) String() string { return "Loop" }

// Exit leaves the innermost enclosing Loop when its condition holds.
type Exit struct {
	Cond Cond
}

func (s *Exit) String() string { return fmt.Sprintf("Exit %v", s.Cond) }

// Search iterates over every tuple of a relation version, binding the tuple
// to TupleID inside Body.
type Search struct {
	Relation RelationRef
	TupleID  int
	Body     Stmt
}

func (s *Search) String() string {
	return fmt.Sprintf("Search t%d ∈ %v", s.TupleID, s.Relation)
}

// Filter executes Body only when Cond holds.
type Filter struct {
	Cond Cond
	Body Stmt
}

func (s *Filter) String() string { return fmt.Sprintf("Filter %v", s.Cond) }

// Project builds a tuple from Values and inserts it into Relation.
// Relations are sets; inserting an existing tuple is a no-op.
type Project struct {
	Relation RelationRef
	Values   []Expr
}

func (s *Project) String() string {
	return fmt.Sprintf("Project %v into %v", exprList(s.Values), s.Relation)
}

// Aggregate accumulates Op over the tuples of Relation for which Cond
// holds, evaluating Value per tuple (Value is nil for count). The result is
// bound as element 0 of the pseudo-tuple TupleID, then Body runs once. For
// min and max the body is skipped when no tuple matched.
type Aggregate struct {
	Op       AggregateOp
	Relation RelationRef
	TupleID  int
	Value    Expr
	Cond     Cond
	Body     Stmt
}

func (s *Aggregate) String() string {
	return fmt.Sprintf("Aggregate t%d = %v %v : %v", s.TupleID, s.Op, s.Value, s.Relation)
}

// AggregateOp enumerates the aggregate functions. Mean divides with
// truncating integer semantics.
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

// Clear removes every tuple from a relation version.
type Clear struct {
	Relation RelationRef
}

func (s *Clear) String() string { return fmt.Sprintf("Clear %v", s.Relation) }

// Merge inserts every tuple of Source into Target.
type Merge struct {
	Target RelationRef
	Source RelationRef
}

func (s *Merge) String() string { return fmt.Sprintf("Merge %v ← %v", s.Target, s.Source) }

// Swap exchanges the contents of two relation versions.
type Swap struct {
	A RelationRef
	B RelationRef
}

func (s *Swap) String() string { return fmt.Sprintf("Swap %v ↔ %v", s.A, s.B) }

func (*Sequence) stmtMarker()  {}
func (*Parallel) stmtMarker()  {}
func (*Loop) stmtMarker()      {}
func (*Exit) stmtMarker()      {}
func (*Search) stmtMarker()    {}
func (*Filter) stmtMarker()    {}
func (*Project) stmtMarker()   {}
func (*Aggregate) stmtMarker() {}
func (*Clear) stmtMarker()     {}
func (*Merge) stmtMarker()     {}
func (*Swap) stmtMarker()      {}

// CmpOp enumerates the comparison operators.
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

// Comparison compares two expressions.
type Comparison struct {
	Op  CmpOp
	LHS Expr
	RHS Expr
}

func (c *Comparison) String() string { return fmt.Sprintf("%v %v %v", c.LHS, c.Op, c.RHS) }

// Conjunction holds when all its operands hold. Operands are evaluated in
// order.
type Conjunction struct {
	Conds []Cond
}

func (c *Conjunction) String() string {
	parts := make([]string, len(c.Conds))
	for i := range c.Conds {
		parts[i] = fmt.Sprint(c.Conds[i])
	}
	return strings.Join(parts, " ∧ ")
}

// ExistenceCheck tests whether a tuple matching Values exists in Relation.
// A nil element of Values is a wildcard. Negated inverts the test. Under
// the provenance strategy HeightBound restricts the match to tuples whose
// height column is strictly below the bound.
type ExistenceCheck struct {
	Relation    RelationRef
	Values      []Expr
	Negated     bool
	HeightBound Expr
}

func (c *ExistenceCheck) String() string {
	neg := "∃"
	if c.Negated {
		neg = "∄"
	}
	if c.HeightBound != nil {
		return fmt.Sprintf("%s %v in %v @<%v", neg, exprList(c.Values), c.Relation, c.HeightBound)
	}
	return fmt.Sprintf("%s %v in %v", neg, exprList(c.Values), c.Relation)
}

// EmptinessCheck holds when the relation version has no tuples.
type EmptinessCheck struct {
	Relation RelationRef
}

func (c *EmptinessCheck) String() string { return fmt.Sprintf("empty(%v)", c.Relation) }

func (*Comparison) condMarker()     {}
func (*Conjunction) condMarker()    {}
func (*ExistenceCheck) condMarker() {}
func (*EmptinessCheck) condMarker() {}

// TupleElement reads one element of the tuple bound by an enclosing Search
// or Aggregate.
type TupleElement struct {
	TupleID int
	Element int
}

func (e TupleElement) String() string { return fmt.Sprintf("t%d.%d", e.TupleID, e.Element) }

// Number is a signed integer constant.
type Number struct {
	Value int64
}

func (e Number) String() string { return fmt.Sprint(e.Value) }

// SymbolRef refers to an entry of the program's symbol table.
type SymbolRef struct {
	ID int
}

func (e SymbolRef) String() string { return fmt.Sprintf("sym(%d)", e.ID) }

// UnaryOp enumerates the unary intrinsics.
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

// UnaryExpr applies a unary intrinsic.
type UnaryExpr struct {
	Op  UnaryOp
	Arg Expr
}

func (e *UnaryExpr) String() string { return fmt.Sprintf("%v(%v)", e.Op, e.Arg) }

// BinaryOp enumerates the binary intrinsics. Division truncates toward
// zero; the sign of a modulo result follows the dividend.
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

// BinaryExpr applies a binary intrinsic.
type BinaryExpr struct {
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

func (e *BinaryExpr) String() string { return fmt.Sprintf("(%v %v %v)", e.LHS, e.Op, e.RHS) }

// Call invokes an externally supplied functor.
type Call struct {
	Functor string
	Args    []Expr
}

func (e *Call) String() string { return fmt.Sprintf("@%v(%v)", e.Functor, exprList(e.Args)) }

// Pack builds a record from its arguments and yields an opaque reference
// usable as a scalar attribute value.
type Pack struct {
	Args []Expr
}

func (e *Pack) String() string { return fmt.Sprintf("pack(%v)", exprList(e.Args)) }

// AutoIncrement reads and advances the monotonic counter identified by
// Counter. The translator allocates one counter per stratum.
type AutoIncrement struct {
	Counter int
}

func (e AutoIncrement) String() string { return fmt.Sprintf("autoinc(%d)", e.Counter) }

func (TupleElement) exprMarker()  {}
func (Number) exprMarker()        {}
func (SymbolRef) exprMarker()     {}
func (*UnaryExpr) exprMarker()    {}
func (*BinaryExpr) exprMarker()   {}
func (*Call) exprMarker()         {}
func (*Pack) exprMarker()         {}
func (AutoIncrement) exprMarker() {}

func exprList(es []Expr) string {
	parts := make([]string, len(es))
	for i := range es {
		if es[i] == nil {
			parts[i] = "_"
			continue
		}
		parts[i] = fmt.Sprint(es[i])
	}
	return strings.Join(parts, ", ")
}

func (p *Program) String() string {
	return fmt.Sprintf("Program (%d relations, %d symbols)", len(p.Relations), len(p.Symbols))
}
