// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import (
	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/metrics"
	"github.com/stratlog/stratlog/ram"
)

// unitTranslator produces the whole-program RAM tree: one pass per
// non-recursive stratum, a semi-naive fixpoint scaffold per recursive
// stratum. It holds no mutable cross-call state; translation is a function
// of the context, the strategy, and the counter seed.
type unitTranslator struct {
	ctx         *Context
	strategy    Strategy
	counterSeed int
	metrics     metrics.Metrics
}

func (u *unitTranslator) Translate() (*ram.Program, error) {

	decls := make([]*ram.RelationDecl, 0, len(u.ctx.Relations()))
	for _, rel := range u.ctx.Relations() {
		attrs := make([]string, len(rel.Attributes))
		for i, a := range rel.Attributes {
			attrs[i] = a.Name
		}
		aux := 0
		if !rel.EDB {
			aux = u.strategy.auxArity()
		}
		decls = append(decls, &ram.RelationDecl{Name: rel.Name, Attributes: attrs, AuxArity: aux})
	}

	var stmts []ram.Stmt

	for i, stratum := range u.ctx.Strata() {

		sc := &scope{recursive: map[string]bool{}, counter: u.counterSeed + i}
		for _, name := range stratum.Relations {
			if u.ctx.Recursive(name) {
				sc.recursive[name] = true
			}
		}

		clauses := u.stratumClauses(stratum)
		if len(clauses) == 0 {
			continue
		}

		var stmt ram.Stmt
		var err error
		u.metrics.Timer(metrics.TranslateStratum).Start()
		if len(sc.recursive) == 0 {
			stmt, err = u.translateSinglePass(clauses, sc)
		} else {
			stmt, err = u.translateFixpoint(stratum, clauses, sc)
		}
		u.metrics.Timer(metrics.TranslateStratum).Stop()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}

	// Snapshot the symbol table last: translation interns constants.
	symbols := make([]string, u.ctx.SymbolTable().Len())
	for i := range symbols {
		s, _ := u.ctx.SymbolTable().Resolve(i)
		symbols[i] = s
	}

	return &ram.Program{
		Symbols:   symbols,
		Relations: decls,
		Main:      &ram.Sequence{Stmts: stmts},
	}, nil
}

// stratumClauses returns the clauses whose head belongs to the stratum, in
// source order.
func (u *unitTranslator) stratumClauses(stratum ast.Stratum) []*ast.Clause {
	members := map[string]bool{}
	for _, name := range stratum.Relations {
		members[name] = true
	}
	var out []*ast.Clause
	for _, c := range u.ctx.program.Clauses {
		if members[c.Head.Relation] {
			out = append(out, c)
		}
	}
	return out
}

// translateSinglePass evaluates every clause of a non-recursive stratum
// once, in clause order, directly into the target relations.
func (u *unitTranslator) translateSinglePass(clauses []*ast.Clause, sc *scope) (ram.Stmt, error) {
	rules := make([]ram.Stmt, len(clauses))
	for i, c := range clauses {
		stmt, err := u.strategy.newClauseTranslator(u.ctx, sc).Translate(c, -1)
		if err != nil {
			return nil, err
		}
		rules[i] = stmt
	}
	return u.block(rules), nil
}

// block groups the rule statements of one pass. Under the seminaive
// strategy the rules only insert and are marked parallelizable; under
// provenance every rule's duplicate guard reads the version sibling rules
// insert into, so the rules must observe one another in order.
func (u *unitTranslator) block(rules []ram.Stmt) ram.Stmt {
	if u.strategy.provenance() {
		return &ram.Sequence{Stmts: rules}
	}
	return &ram.Parallel{Stmts: rules}
}

// translateFixpoint emits the semi-naive scaffold for a recursive stratum:
//
//	evaluate every rule once into new; merge new into full
//	loop:
//	    delta := new; clear new
//	    evaluate one variant per recursive occurrence of every rule,
//	    reading delta at that occurrence, into new (unless already in full)
//	    merge new into full
//	    exit when new is empty
//	clear delta and new
func (u *unitTranslator) translateFixpoint(stratum ast.Stratum, clauses []*ast.Clause, sc *scope) (ram.Stmt, error) {

	sc.fixpoint = true

	init := make([]ram.Stmt, len(clauses))
	for i, c := range clauses {
		stmt, err := u.strategy.newClauseTranslator(u.ctx, sc).Translate(c, -1)
		if err != nil {
			return nil, err
		}
		init[i] = stmt
	}

	var variants []ram.Stmt
	for _, c := range clauses {
		for _, k := range u.recursiveOccurrences(c, sc) {
			stmt, err := u.strategy.newClauseTranslator(u.ctx, sc).Translate(c, k)
			if err != nil {
				return nil, err
			}
			variants = append(variants, stmt)
		}
	}

	recRels := make([]string, 0, len(stratum.Relations))
	for _, name := range stratum.Relations {
		if sc.recursive[name] {
			recRels = append(recRels, name)
		}
	}

	seq := []ram.Stmt{u.block(init)}
	for _, r := range recRels {
		seq = append(seq, &ram.Merge{
			Target: ram.RelationRef{Name: r, Version: ram.Full},
			Source: ram.RelationRef{Name: r, Version: ram.New},
		})
	}

	var body []ram.Stmt
	for _, r := range recRels {
		body = append(body,
			&ram.Swap{
				A: ram.RelationRef{Name: r, Version: ram.Delta},
				B: ram.RelationRef{Name: r, Version: ram.New},
			},
			&ram.Clear{Relation: ram.RelationRef{Name: r, Version: ram.New}},
		)
	}
	body = append(body, u.block(variants))
	for _, r := range recRels {
		body = append(body, &ram.Merge{
			Target: ram.RelationRef{Name: r, Version: ram.Full},
			Source: ram.RelationRef{Name: r, Version: ram.New},
		})
	}

	empties := make([]ram.Cond, len(recRels))
	for i, r := range recRels {
		empties[i] = &ram.EmptinessCheck{Relation: ram.RelationRef{Name: r, Version: ram.New}}
	}
	body = append(body, &ram.Exit{Cond: conjoin(empties)})

	seq = append(seq, &ram.Loop{Body: &ram.Sequence{Stmts: body}})

	for _, r := range recRels {
		seq = append(seq,
			&ram.Clear{Relation: ram.RelationRef{Name: r, Version: ram.Delta}},
			&ram.Clear{Relation: ram.RelationRef{Name: r, Version: ram.New}},
		)
	}

	return &ram.Sequence{Stmts: seq}, nil
}

// recursiveOccurrences returns the positive-atom indices of c that read a
// recursive relation of the current stratum. Each index yields one
// semi-naive variant; a clause with none is only evaluated in the
// initialization pass.
func (u *unitTranslator) recursiveOccurrences(c *ast.Clause, sc *scope) []int {
	var out []int
	idx := 0
	for _, lit := range c.Body {
		a, ok := lit.(*ast.Atom)
		if !ok {
			continue
		}
		if sc.inStratumRecursive(a.Relation) {
			out = append(out, idx)
		}
		idx++
	}
	return out
}
