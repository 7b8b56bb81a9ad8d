// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import (
	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/ram"
)

// clauseTranslator emits the statement tree implementing one clause: a
// nest of Search loops over the positive body atoms, with constraints
// attached as soon as their inputs are bound, and a guarded projection of
// the head tuple at the innermost point.
//
// A clauseTranslator owns its valueIndex exclusively; one instance
// translates one clause and is then discarded.
type clauseTranslator struct {
	ctx         *Context
	strategy    Strategy
	scope       *scope
	vi          *valueIndex
	values      *valueTranslator
	constraints *constraintTranslator

	clause    *ast.Clause
	positives []*ast.Atom
	schedule  [][]ast.Literal
	nextTuple int
}

// Translate emits the RAM statement for c. deltaIndex selects which
// positive-atom occurrence reads the delta version for this semi-naive
// variant; -1 reads full everywhere (non-recursive evaluation and the
// fixpoint initialization pass).
func (t *clauseTranslator) Translate(c *ast.Clause, deltaIndex int) (ram.Stmt, error) {

	t.clause = c
	t.values.clause = c.String()
	t.constraints.clause = c.String()
	t.positives = nil

	var others []ast.Literal
	for _, lit := range c.Body {
		if a, ok := lit.(*ast.Atom); ok {
			t.positives = append(t.positives, a)
		} else {
			others = append(others, lit)
		}
	}

	t.nextTuple = len(t.positives)

	if err := t.scheduleLiterals(others); err != nil {
		return nil, err
	}

	return t.translateLevel(0, deltaIndex)
}

// scheduleLiterals assigns each constraint to the earliest loop level at
// which all of its variables are bound. Aggregate bindings and, under the
// provenance strategy, intra-stratum negations run at the innermost level.
func (t *clauseTranslator) scheduleLiterals(others []ast.Literal) error {

	n := len(t.positives)
	t.schedule = make([][]ast.Literal, n+1)

	bound := map[string]bool{}
	placed := make([]bool, len(others))
	left := len(others)

	for k := 0; k <= n; k++ {
		if k > 0 {
			for _, arg := range t.positives[k-1].Args {
				if v, ok := arg.(*ast.Variable); ok && !v.Wildcard() {
					bound[v.Name] = true
				}
			}
		}

		// Alias bindings can enable later literals at the same level, so
		// iterate until a pass places nothing.
		for progress := true; progress; {
			progress = false
			for i, lit := range others {
				if placed[i] || !t.placeable(lit, bound, k, n) {
					continue
				}
				t.schedule[k] = append(t.schedule[k], lit)
				placed[i] = true
				left--
				progress = true
			}
		}
	}

	if left > 0 {
		for i, lit := range others {
			if !placed[i] {
				return internalErr(t.clause.String(), "constraint %v references variables never bound by a positive atom", lit)
			}
		}
	}
	return nil
}

// placeable decides whether lit can run once loops 0..k-1 are open, and
// records any alias binding it introduces in bound.
func (t *clauseTranslator) placeable(lit ast.Literal, bound map[string]bool, k, n int) bool {
	switch lit := lit.(type) {
	case *ast.Binding:
		// The sub-query variables are local; outer references must all be
		// bound, which is guaranteed at the innermost level.
		if k < n {
			return false
		}
		bound[lit.Var] = true
		return true
	case *ast.Negation:
		if t.strategy.provenance() && t.scope.inStratumRecursive(lit.Atom.Relation) && k < n {
			// Height-bounded negation needs every body level open.
			return false
		}
		for _, arg := range lit.Atom.Args {
			for _, d := range ast.Vars(nil, arg) {
				if !bound[d] {
					return false
				}
			}
		}
		return true
	case *ast.Comparison:
		if lit.Op == ast.CmpEq {
			if v, ok := aliasable(lit.LHS, lit.RHS, bound); ok {
				bound[v] = true
				return true
			}
			if v, ok := aliasable(lit.RHS, lit.LHS, bound); ok {
				bound[v] = true
				return true
			}
		}
		for _, d := range ast.Vars(ast.Vars(nil, lit.LHS), lit.RHS) {
			if !bound[d] {
				return false
			}
		}
		return true
	}
	return false
}

// aliasable reports whether lhs is an unbound variable and rhs is fully
// bound, making the equality a value-index alias rather than a runtime
// check.
func aliasable(lhs, rhs ast.Term, bound map[string]bool) (string, bool) {
	v, ok := lhs.(*ast.Variable)
	if !ok || v.Wildcard() || bound[v.Name] {
		return "", false
	}
	for _, d := range ast.Vars(nil, rhs) {
		if !bound[d] {
			return "", false
		}
	}
	return v.Name, true
}

// wrapper is one constraint attached at a loop level: either a filter
// condition or an aggregate accumulation enclosing the rest of the nest.
type wrapper struct {
	cond ram.Cond
	agg  *ram.Aggregate
}

func (t *clauseTranslator) translateLevel(k, deltaIndex int) (ram.Stmt, error) {

	wrappers, err := t.applySchedule(k, deltaIndex)
	if err != nil {
		return nil, err
	}

	var inner ram.Stmt
	if k == len(t.positives) {
		inner, err = t.translateProjection()
		if err != nil {
			return nil, err
		}
	} else {
		argConds, err := t.bindAtom(k)
		if err != nil {
			return nil, err
		}
		body, err := t.translateLevel(k+1, deltaIndex)
		if err != nil {
			return nil, err
		}
		if c := conjoin(argConds); c != nil {
			body = &ram.Filter{Cond: c, Body: body}
		}
		inner = &ram.Search{
			Relation: t.versionOf(k, deltaIndex),
			TupleID:  k,
			Body:     body,
		}
	}

	for i := len(wrappers) - 1; i >= 0; i-- {
		if wrappers[i].agg != nil {
			wrappers[i].agg.Body = inner
			inner = wrappers[i].agg
		} else {
			inner = &ram.Filter{Cond: wrappers[i].cond, Body: inner}
		}
	}
	return inner, nil
}

func (t *clauseTranslator) applySchedule(k, deltaIndex int) ([]wrapper, error) {
	var out []wrapper
	for _, lit := range t.schedule[k] {
		switch lit := lit.(type) {
		case *ast.Comparison:
			if lit.Op == ast.CmpEq {
				if done, err := t.tryAlias(lit.LHS, lit.RHS); err != nil {
					return nil, err
				} else if done {
					continue
				}
				if done, err := t.tryAlias(lit.RHS, lit.LHS); err != nil {
					return nil, err
				} else if done {
					continue
				}
			}
			cond, err := t.constraints.TranslateComparison(lit)
			if err != nil {
				return nil, err
			}
			out = append(out, wrapper{cond: cond})
		case *ast.Negation:
			var bound ram.Expr
			if t.strategy.provenance() && t.scope.inStratumRecursive(lit.Atom.Relation) {
				bound = t.heightExpr()
			}
			cond, err := t.constraints.TranslateNegation(lit, bound)
			if err != nil {
				return nil, err
			}
			out = append(out, wrapper{cond: cond})
		case *ast.Binding:
			agg, err := t.constraints.TranslateAggregate(lit, t.allocTuple)
			if err != nil {
				return nil, err
			}
			out = append(out, wrapper{agg: agg})
		default:
			return nil, internalErr(t.clause.String(), "unexpected scheduled literal %T", lit)
		}
	}
	return out, nil
}

// tryAlias binds lhs to the translated rhs when lhs is an unbound
// variable and rhs is fully bound. Constant arithmetic on the bound side
// folds here, so downstream membership filters compare against literals.
func (t *clauseTranslator) tryAlias(lhs, rhs ast.Term) (bool, error) {
	v, ok := lhs.(*ast.Variable)
	if !ok || v.Wildcard() {
		return false, nil
	}
	if _, bound := t.vi.lookup(v.Name); bound {
		return false, nil
	}
	if !t.vi.bound(ast.Vars(nil, rhs)) {
		return false, nil
	}
	e, err := t.values.Translate(rhs)
	if err != nil {
		return false, err
	}
	t.vi.bind(v.Name, e)
	return true, nil
}

// bindAtom binds the arguments of positive atom k into the value index and
// returns the equality conditions for repeated variables and non-variable
// arguments.
func (t *clauseTranslator) bindAtom(k int) ([]ram.Cond, error) {
	var conds []ram.Cond
	for i, arg := range t.positives[k].Args {
		elem := ram.TupleElement{TupleID: k, Element: i}
		if v, ok := arg.(*ast.Variable); ok {
			if v.Wildcard() {
				continue
			}
			if t.vi.bind(v.Name, elem) {
				continue
			}
			prior, _ := t.vi.lookup(v.Name)
			conds = append(conds, &ram.Comparison{Op: ram.CmpEq, LHS: elem, RHS: prior})
			continue
		}
		e, err := t.values.Translate(arg)
		if err != nil {
			return nil, err
		}
		conds = append(conds, &ram.Comparison{Op: ram.CmpEq, LHS: elem, RHS: e})
	}
	return conds, nil
}

// versionOf selects the relation version read by positive atom k: delta at
// the one substituted occurrence of this semi-naive variant, full
// everywhere else.
func (t *clauseTranslator) versionOf(k, deltaIndex int) ram.RelationRef {
	rel := t.positives[k].Relation
	if k == deltaIndex && t.scope.inStratumRecursive(rel) {
		return ram.RelationRef{Name: rel, Version: ram.Delta}
	}
	return ram.RelationRef{Name: rel, Version: ram.Full}
}

func (t *clauseTranslator) translateProjection() (ram.Stmt, error) {

	head := t.ctx.Relation(t.clause.Head.Relation)

	values := make([]ram.Expr, 0, head.Arity()+t.strategy.auxArity())
	for _, arg := range t.clause.Head.Args {
		e, err := t.values.Translate(arg)
		if err != nil {
			return nil, err
		}
		values = append(values, e)
	}

	if t.strategy.provenance() {
		values = append(values, ram.Number{Value: int64(t.ctx.RuleID(t.clause))})
		values = append(values, t.heightExpr())
	}

	// The guard compares declared columns only; metadata columns never
	// participate in duplicate detection.
	guard := make([]ram.Expr, head.Arity(), head.Arity()+t.strategy.auxArity())
	copy(guard, values[:head.Arity()])
	for i := 0; i < t.strategy.auxArity(); i++ {
		guard = append(guard, nil)
	}

	full := ram.RelationRef{Name: head.Name, Version: ram.Full}

	// Only recursive heads take part in the delta bookkeeping. A
	// non-recursive head in a recursive stratum projects straight into the
	// stable version; nothing merges its scratch versions.
	if t.scope.fixpoint && t.scope.inStratumRecursive(head.Name) {
		conds := []ram.Cond{
			&ram.ExistenceCheck{Relation: full, Values: guard, Negated: true},
		}
		if t.strategy.provenance() {
			// An earlier rule of the same pass may already have derived the
			// tuple into new with its own metadata columns.
			conds = append(conds, &ram.ExistenceCheck{
				Relation: ram.RelationRef{Name: head.Name, Version: ram.New},
				Values:   guard,
				Negated:  true,
			})
		}
		return &ram.Filter{
			Cond: conjoin(conds),
			Body: &ram.Project{
				Relation: ram.RelationRef{Name: head.Name, Version: ram.New},
				Values:   values,
			},
		}, nil
	}

	project := ram.Stmt(&ram.Project{Relation: full, Values: values})
	if t.strategy.provenance() {
		// Without the guard, two rules deriving the same tuple would leave
		// copies differing only in their metadata columns.
		project = &ram.Filter{
			Cond: &ram.ExistenceCheck{Relation: full, Values: guard, Negated: true},
			Body: project,
		}
	}
	return project, nil
}

// heightExpr computes the derivation height of the tuple being projected:
// one more than the greatest height among the positive body tuples
// consulted. Extensional tuples are facts with height zero. A clause with
// no positive atoms derives at height zero.
func (t *clauseTranslator) heightExpr() ram.Expr {
	if len(t.positives) == 0 {
		return ram.Number{Value: 0}
	}
	var m ram.Expr
	for k, atom := range t.positives {
		var h ram.Expr = ram.Number{Value: 0}
		if rel := t.ctx.Relation(atom.Relation); !rel.EDB {
			h = ram.TupleElement{TupleID: k, Element: rel.Arity() + 1}
		}
		if m == nil {
			m = h
		} else {
			m = fold(&ram.BinaryExpr{Op: ram.OpMax, LHS: m, RHS: h})
		}
	}
	return fold(&ram.BinaryExpr{Op: ram.OpAdd, LHS: ram.Number{Value: 1}, RHS: m})
}

func (t *clauseTranslator) allocTuple() int {
	id := t.nextTuple
	t.nextTuple++
	return id
}
