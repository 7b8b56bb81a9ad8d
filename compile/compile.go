// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package compile exposes the public entry point for translating
// stratified Datalog programs into RAM programs.
package compile

import (
	"context"
	"fmt"

	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/internal/translate"
	"github.com/stratlog/stratlog/logging"
	"github.com/stratlog/stratlog/metrics"
	"github.com/stratlog/stratlog/ram"
)

// Strategy selects the translation strategy.
type Strategy = translate.Strategy

// Available strategies.
const (
	Seminaive  = translate.Seminaive
	Provenance = translate.Provenance
)

// ParseStrategy resolves a strategy name given on the command line or in
// configuration.
func ParseStrategy(name string) (Strategy, error) {
	return translate.ParseStrategy(name)
}

// Compiler translates Datalog programs into RAM programs.
type Compiler struct {
	program     *ast.Program
	symbols     ast.SymbolTable
	strategy    Strategy
	counterSeed int
	logger      logging.Logger
	metrics     metrics.Metrics
}

// New returns a new Compiler object.
func New() *Compiler {
	return &Compiler{
		symbols: ast.NewSymbolTable(),
		logger:  logging.NewNoOpLogger(),
		metrics: metrics.NoOp(),
	}
}

// WithProgram sets the program to translate.
func (c *Compiler) WithProgram(p *ast.Program) *Compiler {
	c.program = p
	return c
}

// WithSymbolTable sets the symbol table used to intern symbol constants.
// Callers that pre-intern symbols (e.g. while loading facts) pass their
// table here so the emitted symbol IDs line up.
func (c *Compiler) WithSymbolTable(symbols ast.SymbolTable) *Compiler {
	c.symbols = symbols
	return c
}

// WithStrategy sets the translation strategy. The zero value is the
// semi-naive strategy.
func (c *Compiler) WithStrategy(s Strategy) *Compiler {
	c.strategy = s
	return c
}

// WithCounterSeed sets the first identifier handed out for counter
// expressions.
func (c *Compiler) WithCounterSeed(seed int) *Compiler {
	c.counterSeed = seed
	return c
}

// WithLogger sets the logger to use during translation.
func (c *Compiler) WithLogger(logger logging.Logger) *Compiler {
	c.logger = logger
	return c
}

// WithMetrics sets the metrics provider to time translation with.
func (c *Compiler) WithMetrics(m metrics.Metrics) *Compiler {
	c.metrics = m
	return c
}

// Translate runs the translation and returns the RAM program.
func (c *Compiler) Translate(ctx context.Context) (*ram.Program, error) {

	if c.program == nil {
		return nil, fmt.Errorf("compile: no program supplied")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug("Translating program: %d relations, %d clauses, %d strata (strategy: %v).",
		len(c.program.Relations), len(c.program.Clauses), len(c.program.Strata), c.strategy)

	c.metrics.Timer(metrics.TranslateProgram).Start()
	defer c.metrics.Timer(metrics.TranslateProgram).Stop()

	result, err := translate.New().
		WithProgram(c.program).
		WithSymbolTable(c.symbols).
		WithStrategy(c.strategy).
		WithCounterSeed(c.counterSeed).
		WithMetrics(c.metrics).
		Translate()
	if err != nil {
		return nil, err
	}

	c.metrics.Counter(metrics.TranslateClause).Add(uint64(len(c.program.Clauses)))
	c.logger.Debug("Translation produced %d relation declarations.", len(result.Relations))

	return result, nil
}
