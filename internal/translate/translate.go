// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package translate contains the clause-to-RAM translator for stratified
// Datalog programs.
//
// The translator turns each rule into a nested-join search program,
// rewrites recursive rules for semi-naive fixpoint evaluation, and can
// instrument every derived tuple with provenance metadata. It emits the
// program a separate evaluator runs; it never executes anything itself.
package translate

import (
	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/metrics"
	"github.com/stratlog/stratlog/ram"
)

// Translator translates one validated program. Translation is
// deterministic: a fixed program, strategy, and counter seed yield a
// structurally identical RAM tree on every run.
type Translator struct {
	program     *ast.Program
	symbols     ast.SymbolTable
	strategy    Strategy
	counterSeed int
	metrics     metrics.Metrics
}

// New returns a new Translator object.
func New() *Translator {
	return &Translator{}
}

// WithProgram sets the program to translate.
func (t *Translator) WithProgram(p *ast.Program) *Translator {
	t.program = p
	return t
}

// WithSymbolTable sets the symbol table used to embed symbol constants
// into the emitted IR. A fresh in-memory table is used when unset.
func (t *Translator) WithSymbolTable(symbols ast.SymbolTable) *Translator {
	t.symbols = symbols
	return t
}

// WithStrategy selects the translator family for the run.
func (t *Translator) WithStrategy(s Strategy) *Translator {
	t.strategy = s
	return t
}

// WithCounterSeed sets the first auto-increment counter identifier.
func (t *Translator) WithCounterSeed(seed int) *Translator {
	t.counterSeed = seed
	return t
}

// WithMetrics sets the metrics provider that times validation and the
// per-stratum translation passes.
func (t *Translator) WithMetrics(m metrics.Metrics) *Translator {
	t.metrics = m
	return t
}

// Translate returns the RAM program for the configured input.
func (t *Translator) Translate() (*ram.Program, error) {
	if t.program == nil {
		return nil, internalErr("", "no program to translate")
	}
	symbols := t.symbols
	if symbols == nil {
		symbols = ast.NewSymbolTable()
	}
	m := t.metrics
	if m == nil {
		m = metrics.NoOp()
	}

	m.Timer(metrics.ProgramValidate).Start()
	ctx, err := NewContext(t.program, symbols)
	m.Timer(metrics.ProgramValidate).Stop()
	if err != nil {
		return nil, err
	}

	return t.strategy.newUnitTranslator(ctx, t.counterSeed, m).Translate()
}
