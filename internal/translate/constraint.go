// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import (
	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/ram"
)

// constraintTranslator maps body constraints to RAM conditions. The
// provenance strategy additionally bounds intra-stratum negation by
// derivation height.
type constraintTranslator struct {
	ctx      *Context
	strategy Strategy
	vi       *valueIndex
	scope    *scope
	values   *valueTranslator
	clause   string
}

// TranslateComparison emits a value comparison of the two operands.
func (ct *constraintTranslator) TranslateComparison(c *ast.Comparison) (ram.Cond, error) {
	lhs, err := ct.values.Translate(c.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := ct.values.Translate(c.RHS)
	if err != nil {
		return nil, err
	}
	return &ram.Comparison{Op: ram.CmpOp(c.Op), LHS: lhs, RHS: rhs}, nil
}

// TranslateNegation emits a negated existence test for the atom: no tuple
// matching the bound prefix exists in the relation's stable version.
// Unbound and wildcard arguments match any value.
//
// heightBound is non-nil only under the provenance strategy when the
// negated relation belongs to the current recursive stratum; the test then
// only considers tuples whose height is already below the height of the
// tuple being derived. Stratification rejects unsound negation upstream;
// the bound guards against intra-stratum ordering artifacts.
func (ct *constraintTranslator) TranslateNegation(n *ast.Negation, heightBound ram.Expr) (ram.Cond, error) {

	rel := ct.ctx.Relation(n.Atom.Relation)
	values := make([]ram.Expr, rel.Arity(), rel.Arity()+ct.auxArityOf(rel))

	for i, arg := range n.Atom.Args {
		if v, ok := arg.(*ast.Variable); ok {
			if v.Wildcard() {
				continue
			}
			if e, bound := ct.vi.lookup(v.Name); bound {
				values[i] = e
			}
			continue
		}
		e, err := ct.values.Translate(arg)
		if err != nil {
			return nil, err
		}
		values[i] = e
	}

	for i := 0; i < ct.auxArityOf(rel); i++ {
		values = append(values, nil)
	}

	return &ram.ExistenceCheck{
		Relation:    ram.RelationRef{Name: rel.Name, Version: ram.Full},
		Values:      values,
		Negated:     true,
		HeightBound: heightBound,
	}, nil
}

// TranslateAggregate emits the accumulation sub-loop for an aggregate
// binding and binds the result variable into the value index. alloc hands
// out the pseudo-tuple identifier for the accumulation.
func (ct *constraintTranslator) TranslateAggregate(b *ast.Binding, alloc func() int) (*ram.Aggregate, error) {

	if int(b.Value.Op) > int(ast.AggMean) {
		return nil, unsupportedErr(ct.clause, "aggregate %v", b.Value.Op)
	}

	atom := b.Value.Body
	rel := ct.ctx.Relation(atom.Relation)
	tid := alloc()

	// Unbound variables of the sub-query atom scan locally; bound
	// variables and constants constrain the accumulated tuples.
	var conds []ram.Cond
	var locals []string

	for i, arg := range atom.Args {
		elem := ram.TupleElement{TupleID: tid, Element: i}
		if v, ok := arg.(*ast.Variable); ok {
			if v.Wildcard() {
				continue
			}
			if ct.vi.bind(v.Name, elem) {
				locals = append(locals, v.Name)
				continue
			}
			prior, _ := ct.vi.lookup(v.Name)
			conds = append(conds, &ram.Comparison{Op: ram.CmpEq, LHS: elem, RHS: prior})
			continue
		}
		e, err := ct.values.Translate(arg)
		if err != nil {
			ct.vi.unbind(locals)
			return nil, err
		}
		conds = append(conds, &ram.Comparison{Op: ram.CmpEq, LHS: elem, RHS: e})
	}

	var value ram.Expr
	if b.Value.Value != nil {
		var err error
		value, err = ct.values.Translate(b.Value.Value)
		if err != nil {
			ct.vi.unbind(locals)
			return nil, err
		}
	} else if b.Value.Op != ast.AggCount {
		ct.vi.unbind(locals)
		return nil, unsupportedErr(ct.clause, "aggregate %v requires a value expression", b.Value.Op)
	}

	// Sub-query variables are local to the accumulation; the result is the
	// only binding that survives.
	ct.vi.unbind(locals)
	if !ct.vi.bind(b.Var, ram.TupleElement{TupleID: tid, Element: 0}) {
		return nil, internalErr(ct.clause, "aggregate result variable %v already bound", b.Var)
	}

	return &ram.Aggregate{
		Op:       ram.AggregateOp(b.Value.Op),
		Relation: ram.RelationRef{Name: rel.Name, Version: ram.Full},
		TupleID:  tid,
		Value:    value,
		Cond:     conjoin(conds),
	}, nil
}

func (ct *constraintTranslator) auxArityOf(rel *ast.Relation) int {
	if rel.EDB {
		return 0
	}
	return ct.strategy.auxArity()
}

// conjoin combines conditions into a single condition, or nil when empty.
func conjoin(conds []ram.Cond) ram.Cond {
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	}
	return &ram.Conjunction{Conds: conds}
}
