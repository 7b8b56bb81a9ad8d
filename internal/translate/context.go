// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import (
	"github.com/stratlog/stratlog/ast"
)

// Context is a read-only facade over the checked program consumed by every
// translator. It is built once per translation and never mutated afterwards.
type Context struct {
	program   *ast.Program
	symbols   ast.SymbolTable
	relations map[string]*ast.Relation
	clauses   map[string][]*ast.Clause
	ruleIDs   map[*ast.Clause]int
	stratumOf map[string]int
}

// NewContext indexes the program for translation. The program is assumed to
// have passed semantic validation; violations found here are internal
// errors, not user errors.
func NewContext(program *ast.Program, symbols ast.SymbolTable) (*Context, error) {

	ctx := &Context{
		program:   program,
		symbols:   symbols,
		relations: make(map[string]*ast.Relation, len(program.Relations)),
		clauses:   map[string][]*ast.Clause{},
		ruleIDs:   make(map[*ast.Clause]int, len(program.Clauses)),
		stratumOf: map[string]int{},
	}

	for _, rel := range program.Relations {
		if _, ok := ctx.relations[rel.Name]; ok {
			return nil, internalErr("", "relation %v declared twice", rel.Name)
		}
		ctx.relations[rel.Name] = rel
	}

	for i, stratum := range program.Strata {
		for _, name := range stratum.Relations {
			if _, ok := ctx.relations[name]; !ok {
				return nil, internalErr("", "stratum %d names undeclared relation %v", i, name)
			}
			if _, ok := ctx.stratumOf[name]; ok {
				return nil, internalErr("", "relation %v appears in two strata", name)
			}
			ctx.stratumOf[name] = i
		}
	}

	// Rule identifiers follow source order so they are stable across runs.
	for i, c := range program.Clauses {
		head := ctx.relations[c.Head.Relation]
		if head == nil {
			return nil, internalErr(c.String(), "head relation %v not declared", c.Head.Relation)
		}
		if head.EDB {
			return nil, internalErr(c.String(), "clause derives extensional relation %v", c.Head.Relation)
		}
		if len(c.Head.Args) != head.Arity() {
			return nil, internalErr(c.String(), "head arity mismatch for %v", c.Head.Relation)
		}
		if _, ok := ctx.stratumOf[c.Head.Relation]; !ok {
			return nil, internalErr(c.String(), "relation %v not assigned to a stratum", c.Head.Relation)
		}
		for _, lit := range c.Body {
			if a := literalAtom(lit); a != nil {
				rel := ctx.relations[a.Relation]
				if rel == nil {
					return nil, internalErr(c.String(), "body relation %v not declared", a.Relation)
				}
				if len(a.Args) != rel.Arity() {
					return nil, internalErr(c.String(), "body arity mismatch for %v", a.Relation)
				}
			}
		}
		ctx.clauses[c.Head.Relation] = append(ctx.clauses[c.Head.Relation], c)
		ctx.ruleIDs[c] = i + 1
	}

	return ctx, nil
}

func literalAtom(lit ast.Literal) *ast.Atom {
	switch lit := lit.(type) {
	case *ast.Atom:
		return lit
	case *ast.Negation:
		return lit.Atom
	case *ast.Binding:
		return lit.Value.Body
	}
	return nil
}

// Relation returns the declaration for name, or nil.
func (ctx *Context) Relation(name string) *ast.Relation {
	return ctx.relations[name]
}

// Clauses returns the clauses deriving name, in source order.
func (ctx *Context) Clauses(name string) []*ast.Clause {
	return ctx.clauses[name]
}

// RuleID returns the stable identifier of c. Identifiers start at 1;
// 0 is reserved for facts.
func (ctx *Context) RuleID(c *ast.Clause) int {
	return ctx.ruleIDs[c]
}

// Strata returns the stratification in evaluation order.
func (ctx *Context) Strata() []ast.Stratum {
	return ctx.program.Strata
}

// StratumOf returns the stratum index of the named relation, or -1 for
// relations outside the stratification (extensional inputs).
func (ctx *Context) StratumOf(name string) int {
	if i, ok := ctx.stratumOf[name]; ok {
		return i
	}
	return -1
}

// Recursive reports whether the named relation is recursive within its
// stratum, as computed by the upstream stratifier.
func (ctx *Context) Recursive(name string) bool {
	rel := ctx.relations[name]
	return rel != nil && rel.Recursive
}

// SymbolTable returns the symbol table used to embed constants.
func (ctx *Context) SymbolTable() ast.SymbolTable {
	return ctx.symbols
}

// Relations returns the relation declarations in source order.
func (ctx *Context) Relations() []*ast.Relation {
	return ctx.program.Relations
}
