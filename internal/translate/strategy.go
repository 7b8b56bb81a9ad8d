// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import (
	"fmt"

	"github.com/stratlog/stratlog/metrics"
)

// Strategy selects a consistent family of translators for a compilation
// run. The set is closed: dispatch is by switch on the tag, and the
// provenance family reuses the semi-naive value translator, so translators
// from different strategies can never be mixed.
type Strategy int

const (
	// Seminaive is the standard strategy: semi-naive fixpoint rewriting,
	// plain non-existence tests for negation, no metadata columns.
	Seminaive Strategy = iota

	// Provenance extends Seminaive: every intensional relation gains
	// trailing rule-id and height columns, projections fill them in, and
	// intra-stratum negation compares heights.
	Provenance
)

func (s Strategy) String() string {
	switch s {
	case Seminaive:
		return "seminaive"
	case Provenance:
		return "provenance"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps the configuration flag value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "seminaive", "standard", "":
		return Seminaive, nil
	case "provenance":
		return Provenance, nil
	}
	return Seminaive, fmt.Errorf("unknown translation strategy %q", s)
}

// provenance reports whether metadata instrumentation is active.
func (s Strategy) provenance() bool {
	return s == Provenance
}

// auxArity returns the number of synthetic trailing columns added to
// intensional relations under this strategy.
func (s Strategy) auxArity() int {
	if s.provenance() {
		return 2
	}
	return 0
}

// scope carries the per-stratum translation state: which relations of the
// stratum are recursive, whether clause bodies run inside the fixpoint loop
// (and therefore project into the new version), and the stratum's
// auto-increment counter.
type scope struct {
	recursive map[string]bool
	fixpoint  bool
	counter   int
}

func (sc *scope) inStratumRecursive(name string) bool {
	return sc.recursive[name]
}

// The factory operations below mirror the strategy contract: one unit
// translator per program, and per-clause translators bound to a shared
// context and an exclusively owned value index.

func (s Strategy) newUnitTranslator(ctx *Context, counterSeed int, m metrics.Metrics) *unitTranslator {
	return &unitTranslator{ctx: ctx, strategy: s, counterSeed: counterSeed, metrics: m}
}

func (s Strategy) newClauseTranslator(ctx *Context, sc *scope) *clauseTranslator {
	ct := &clauseTranslator{ctx: ctx, strategy: s, scope: sc, vi: newValueIndex()}
	ct.values = s.newValueTranslator(ctx, ct.vi, sc)
	ct.constraints = s.newConstraintTranslator(ctx, ct.vi, sc)
	ct.constraints.values = ct.values
	return ct
}

func (s Strategy) newConstraintTranslator(ctx *Context, vi *valueIndex, sc *scope) *constraintTranslator {
	return &constraintTranslator{ctx: ctx, strategy: s, vi: vi, scope: sc}
}

func (s Strategy) newValueTranslator(ctx *Context, vi *valueIndex, sc *scope) *valueTranslator {
	// Values are unaffected by provenance; both families share this
	// translator.
	return &valueTranslator{ctx: ctx, vi: vi, scope: sc}
}
