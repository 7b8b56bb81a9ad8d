// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package eval implements an in-memory reference evaluator for RAM
// programs.
//
// It exists to run translated programs in tests and in the CLI; a
// production executor with real storage and indexes implements the same
// statement vocabulary.
package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stratlog/stratlog/ram"
)

// Functor is an externally supplied pure function usable from value
// expressions.
type Functor func(args []int64) (int64, error)

// Options configures an evaluation run.
type Options struct {
	// Functors resolves external function calls by name.
	Functors map[string]Functor
}

// Run evaluates a RAM program against the given extensional facts and
// returns the final contents of every relation's full version.
func Run(p *ram.Program, facts map[string][][]int64, opts Options) (map[string][][]int64, error) {

	it := &interp{
		decls:    map[string]*ram.RelationDecl{},
		rels:     map[ram.RelationRef]*relation{},
		env:      map[int][]int64{},
		counters: map[int]int64{},
		records:  newRecordTable(),
		functors: opts.Functors,
	}

	for _, d := range p.Relations {
		it.decls[d.Name] = d
	}

	for name, tuples := range facts {
		d, ok := it.decls[name]
		if !ok {
			return nil, fmt.Errorf("facts for undeclared relation %v", name)
		}
		rel := it.relation(ram.RelationRef{Name: name})
		for _, t := range tuples {
			if len(t) != d.Arity() {
				return nil, fmt.Errorf("fact arity mismatch for %v: got %d, want %d", name, len(t), d.Arity())
			}
			rel.insert(t)
		}
	}

	if _, err := it.run(p.Main); err != nil {
		return nil, err
	}

	out := map[string][][]int64{}
	for _, d := range p.Relations {
		rel := it.relation(ram.RelationRef{Name: d.Name})
		out[d.Name] = append([][]int64(nil), rel.tuples...)
	}
	return out, nil
}

type interp struct {
	decls    map[string]*ram.RelationDecl
	rels     map[ram.RelationRef]*relation
	env      map[int][]int64
	counters map[int]int64
	records  *recordTable
	functors map[string]Functor
}

type relation struct {
	arity  int
	tuples [][]int64
	index  map[string]struct{}
}

func newRelation(arity int) *relation {
	return &relation{arity: arity, index: map[string]struct{}{}}
}

func key(t []int64) string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}

func (r *relation) insert(t []int64) {
	k := key(t)
	if _, ok := r.index[k]; ok {
		return
	}
	r.index[k] = struct{}{}
	r.tuples = append(r.tuples, append([]int64(nil), t...))
}

func (r *relation) clear() {
	r.tuples = nil
	r.index = map[string]struct{}{}
}

// matches reports whether a tuple matching values exists. A nil value is a
// wildcard. When heightBound is non-nil, only tuples whose last element is
// strictly below *heightBound participate.
func (r *relation) matches(values []int64, wild []bool, heightBound *int64) bool {
	for _, t := range r.tuples {
		if heightBound != nil && t[len(t)-1] >= *heightBound {
			continue
		}
		ok := true
		for i := range values {
			if !wild[i] && t[i] != values[i] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (it *interp) relation(ref ram.RelationRef) *relation {
	if r, ok := it.rels[ref]; ok {
		return r
	}
	d, ok := it.decls[ref.Name]
	if !ok {
		d = &ram.RelationDecl{Name: ref.Name}
	}
	r := newRelation(d.Arity())
	it.rels[ref] = r
	return r
}

// run executes a statement. The boolean result is true when an Exit
// condition fired; it propagates up to the innermost enclosing Loop.
func (it *interp) run(s ram.Stmt) (bool, error) {
	switch s := s.(type) {
	case nil:
		return false, nil
	case *ram.Sequence:
		return it.runAll(s.Stmts)
	case *ram.Parallel:
		// Parallel marks independence; the reference evaluator runs the
		// statements sequentially.
		return it.runAll(s.Stmts)
	case *ram.Loop:
		for {
			exit, err := it.run(s.Body)
			if err != nil {
				return false, err
			}
			if exit {
				return false, nil
			}
		}
	case *ram.Exit:
		return it.cond(s.Cond)
	case *ram.Search:
		rel := it.relation(s.Relation)
		snapshot := rel.tuples
		for _, t := range snapshot {
			it.env[s.TupleID] = t
			exit, err := it.run(s.Body)
			if err != nil || exit {
				return exit, err
			}
		}
		delete(it.env, s.TupleID)
		return false, nil
	case *ram.Filter:
		ok, err := it.cond(s.Cond)
		if err != nil || !ok {
			return false, err
		}
		return it.run(s.Body)
	case *ram.Project:
		tuple := make([]int64, len(s.Values))
		for i, e := range s.Values {
			v, err := it.expr(e)
			if err != nil {
				return false, err
			}
			tuple[i] = v
		}
		it.relation(s.Relation).insert(tuple)
		return false, nil
	case *ram.Aggregate:
		return it.runAggregate(s)
	case *ram.Clear:
		it.relation(s.Relation).clear()
		return false, nil
	case *ram.Merge:
		target := it.relation(s.Target)
		for _, t := range it.relation(s.Source).tuples {
			target.insert(t)
		}
		return false, nil
	case *ram.Swap:
		a, b := it.relation(s.A), it.relation(s.B)
		*a, *b = *b, *a
		return false, nil
	}
	return false, fmt.Errorf("unexpected statement type %T", s)
}

func (it *interp) runAll(stmts []ram.Stmt) (bool, error) {
	for _, s := range stmts {
		exit, err := it.run(s)
		if err != nil || exit {
			return exit, err
		}
	}
	return false, nil
}

func (it *interp) runAggregate(s *ram.Aggregate) (bool, error) {

	var count, sum int64
	var best int64
	matched := false

	for _, t := range it.relation(s.Relation).tuples {
		it.env[s.TupleID] = t
		if s.Cond != nil {
			ok, err := it.cond(s.Cond)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
		}
		var v int64
		if s.Value != nil {
			var err error
			v, err = it.expr(s.Value)
			if err != nil {
				return false, err
			}
		}
		count++
		sum += v
		if !matched || (s.Op == ram.AggMin && v < best) || (s.Op == ram.AggMax && v > best) {
			best = v
		}
		matched = true
	}
	delete(it.env, s.TupleID)

	var result int64
	switch s.Op {
	case ram.AggCount:
		result = count
	case ram.AggSum:
		result = sum
	case ram.AggMin, ram.AggMax:
		if !matched {
			// Minimum and maximum over the empty sub-relation are
			// undefined; the surrounding body does not run.
			return false, nil
		}
		result = best
	case ram.AggMean:
		if count == 0 {
			return false, nil
		}
		result = sum / count
	default:
		return false, fmt.Errorf("unexpected aggregate %v", s.Op)
	}

	it.env[s.TupleID] = []int64{result}
	exit, err := it.run(s.Body)
	delete(it.env, s.TupleID)
	return exit, err
}

func (it *interp) cond(c ram.Cond) (bool, error) {
	switch c := c.(type) {
	case nil:
		return true, nil
	case *ram.Comparison:
		lhs, err := it.expr(c.LHS)
		if err != nil {
			return false, err
		}
		rhs, err := it.expr(c.RHS)
		if err != nil {
			return false, err
		}
		switch c.Op {
		case ram.CmpEq:
			return lhs == rhs, nil
		case ram.CmpNe:
			return lhs != rhs, nil
		case ram.CmpLt:
			return lhs < rhs, nil
		case ram.CmpLe:
			return lhs <= rhs, nil
		case ram.CmpGt:
			return lhs > rhs, nil
		case ram.CmpGe:
			return lhs >= rhs, nil
		}
		return false, fmt.Errorf("unexpected comparison %v", c.Op)
	case *ram.Conjunction:
		for _, sub := range c.Conds {
			ok, err := it.cond(sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case *ram.ExistenceCheck:
		values := make([]int64, len(c.Values))
		wild := make([]bool, len(c.Values))
		for i, e := range c.Values {
			if e == nil {
				wild[i] = true
				continue
			}
			v, err := it.expr(e)
			if err != nil {
				return false, err
			}
			values[i] = v
		}
		var bound *int64
		if c.HeightBound != nil {
			v, err := it.expr(c.HeightBound)
			if err != nil {
				return false, err
			}
			bound = &v
		}
		found := it.relation(c.Relation).matches(values, wild, bound)
		if c.Negated {
			return !found, nil
		}
		return found, nil
	case *ram.EmptinessCheck:
		return len(it.relation(c.Relation).tuples) == 0, nil
	}
	return false, fmt.Errorf("unexpected condition type %T", c)
}

func (it *interp) expr(e ram.Expr) (int64, error) {
	switch e := e.(type) {
	case ram.TupleElement:
		t, ok := it.env[e.TupleID]
		if !ok {
			return 0, fmt.Errorf("tuple t%d is not bound", e.TupleID)
		}
		if e.Element >= len(t) {
			return 0, fmt.Errorf("element %d out of range for t%d", e.Element, e.TupleID)
		}
		return t[e.Element], nil
	case ram.Number:
		return e.Value, nil
	case ram.SymbolRef:
		return int64(e.ID), nil
	case *ram.UnaryExpr:
		v, err := it.expr(e.Arg)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case ram.OpNeg:
			return -v, nil
		case ram.OpBnot:
			return ^v, nil
		case ram.OpLnot:
			if v == 0 {
				return 1, nil
			}
			return 0, nil
		}
		return 0, fmt.Errorf("unexpected unary operator %v", e.Op)
	case *ram.BinaryExpr:
		lhs, err := it.expr(e.LHS)
		if err != nil {
			return 0, err
		}
		rhs, err := it.expr(e.RHS)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case ram.OpAdd:
			return lhs + rhs, nil
		case ram.OpSub:
			return lhs - rhs, nil
		case ram.OpMul:
			return lhs * rhs, nil
		case ram.OpDiv:
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return lhs / rhs, nil
		case ram.OpMod:
			if rhs == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			return lhs % rhs, nil
		case ram.OpMax:
			return max(lhs, rhs), nil
		case ram.OpMin:
			return min(lhs, rhs), nil
		}
		return 0, fmt.Errorf("unexpected binary operator %v", e.Op)
	case *ram.Call:
		fn, ok := it.functors[e.Functor]
		if !ok {
			return 0, fmt.Errorf("unknown functor %v", e.Functor)
		}
		args := make([]int64, len(e.Args))
		for i := range e.Args {
			v, err := it.expr(e.Args[i])
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return fn(args)
	case *ram.Pack:
		args := make([]int64, len(e.Args))
		for i := range e.Args {
			v, err := it.expr(e.Args[i])
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return it.records.intern(args), nil
	case ram.AutoIncrement:
		v := it.counters[e.Counter]
		it.counters[e.Counter] = v + 1
		return v, nil
	}
	return 0, fmt.Errorf("unexpected expression type %T", e)
}

// recordTable interns packed records, handing out stable opaque
// references.
type recordTable struct {
	ids     map[string]int64
	records [][]int64
}

func newRecordTable() *recordTable {
	return &recordTable{ids: map[string]int64{}}
}

func (t *recordTable) intern(fields []int64) int64 {
	k := key(fields)
	if id, ok := t.ids[k]; ok {
		return id
	}
	id := int64(len(t.records))
	t.ids[k] = id
	t.records = append(t.records, append([]int64(nil), fields...))
	return id
}
