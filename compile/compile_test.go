// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package compile

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/internal/eval"
	"github.com/stratlog/stratlog/logging"
	loggingtest "github.com/stratlog/stratlog/logging/test"
	"github.com/stratlog/stratlog/metrics"
)

func tcProgram() *ast.Program {
	return &ast.Program{
		Relations: []*ast.Relation{
			{Name: "edge", Attributes: []ast.Attribute{ast.NumberAttr("x"), ast.NumberAttr("y")}, EDB: true},
			{Name: "path", Attributes: []ast.Attribute{ast.NumberAttr("x"), ast.NumberAttr("y")}, Recursive: true},
		},
		Clauses: []*ast.Clause{
			ast.NewClause(
				ast.NewAtom("path", ast.VarTerm("x"), ast.VarTerm("y")),
				ast.NewAtom("edge", ast.VarTerm("x"), ast.VarTerm("y"))),
			ast.NewClause(
				ast.NewAtom("path", ast.VarTerm("x"), ast.VarTerm("z")),
				ast.NewAtom("path", ast.VarTerm("x"), ast.VarTerm("y")),
				ast.NewAtom("edge", ast.VarTerm("y"), ast.VarTerm("z"))),
		},
		Strata: []ast.Stratum{{Relations: []string{"path"}}},
	}
}

// naiveClosure computes the transitive closure by repeated joining until
// nothing changes. The translated program must agree with it.
func naiveClosure(edges [][]int64) [][]int64 {
	type pair struct{ x, y int64 }
	reach := map[pair]bool{}
	for _, e := range edges {
		reach[pair{e[0], e[1]}] = true
	}
	for changed := true; changed; {
		changed = false
		for p := range reach {
			for _, e := range edges {
				if e[0] == p.y && !reach[pair{p.x, e[1]}] {
					reach[pair{p.x, e[1]}] = true
					changed = true
				}
			}
		}
	}
	out := make([][]int64, 0, len(reach))
	for p := range reach {
		out = append(out, []int64{p.x, p.y})
	}
	return out
}

func sortTuples(tuples [][]int64) [][]int64 {
	sort.Slice(tuples, func(i, j int) bool {
		for k := range tuples[i] {
			if tuples[i][k] != tuples[j][k] {
				return tuples[i][k] < tuples[j][k]
			}
		}
		return false
	})
	return tuples
}

// baseColumns strips metadata columns and deduplicates, so provenance
// output is comparable with plain output.
func baseColumns(tuples [][]int64, arity int) [][]int64 {
	seen := map[string]bool{}
	var out [][]int64
	for _, t := range tuples {
		base := t[:arity]
		k := ""
		for _, v := range base {
			k += fmt.Sprintf("%d,", v)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, append([]int64(nil), base...))
		}
	}
	return out
}

func TestCompileTransitiveClosure(t *testing.T) {

	edges := [][]int64{{1, 2}, {2, 3}, {3, 4}, {4, 2}}
	want := sortTuples(naiveClosure(edges))

	for _, strategy := range []Strategy{Seminaive, Provenance} {
		t.Run(strategy.String(), func(t *testing.T) {

			result, err := New().
				WithProgram(tcProgram()).
				WithStrategy(strategy).
				Translate(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			out, err := eval.Run(result, map[string][][]int64{"edge": edges}, eval.Options{})
			if err != nil {
				t.Fatal(err)
			}

			got := sortTuples(baseColumns(out["path"], 2))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected closure (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileProvenanceMetadata(t *testing.T) {

	edges := [][]int64{{1, 2}, {2, 3}}

	result, err := New().
		WithProgram(tcProgram()).
		WithStrategy(Provenance).
		Translate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	out, err := eval.Run(result, map[string][][]int64{"edge": edges}, eval.Options{})
	if err != nil {
		t.Fatal(err)
	}

	heights := map[[2]int64]int64{}
	for _, tuple := range out["path"] {
		if len(tuple) != 4 {
			t.Fatalf("expected 4 columns, got %v", tuple)
		}
		rule, height := tuple[2], tuple[3]
		if rule != 1 && rule != 2 {
			t.Fatalf("unexpected rule id %d", rule)
		}
		key := [2]int64{tuple[0], tuple[1]}
		if prev, ok := heights[key]; ok && prev != height {
			t.Fatalf("two heights recorded for %v: %d and %d", key, prev, height)
		}
		heights[key] = height
	}

	// Facts sit at height 0; every application of a rule adds one.
	want := map[[2]int64]int64{
		{1, 2}: 1,
		{2, 3}: 1,
		{1, 3}: 2,
	}
	if diff := cmp.Diff(want, heights); diff != "" {
		t.Fatalf("unexpected heights (-want +got):\n%s", diff)
	}
}

func TestCompileMixedStratum(t *testing.T) {

	p := tcProgram()
	p.Relations = append(p.Relations,
		&ast.Relation{Name: "start", Attributes: []ast.Attribute{ast.NumberAttr("x")}})
	p.Clauses = append(p.Clauses,
		ast.NewClause(
			ast.NewAtom("start", ast.VarTerm("x")),
			ast.NewAtom("edge", ast.VarTerm("x"), ast.VarTerm("_"))))
	p.Strata[0].Relations = append(p.Strata[0].Relations, "start")

	edges := [][]int64{{1, 2}, {2, 3}}
	want := [][]int64{{1}, {2}}

	for _, strategy := range []Strategy{Seminaive, Provenance} {
		t.Run(strategy.String(), func(t *testing.T) {

			result, err := New().
				WithProgram(p).
				WithStrategy(strategy).
				Translate(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			out, err := eval.Run(result, map[string][][]int64{"edge": edges}, eval.Options{})
			if err != nil {
				t.Fatal(err)
			}

			// The non-recursive head shares a stratum with path; its tuples
			// must survive the fixpoint bookkeeping.
			got := sortTuples(baseColumns(out["start"], 1))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected start tuples (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileProvenanceDuplicateGuard(t *testing.T) {

	p := &ast.Program{
		Relations: []*ast.Relation{
			{Name: "b", Attributes: []ast.Attribute{ast.NumberAttr("v")}, EDB: true},
			{Name: "c", Attributes: []ast.Attribute{ast.NumberAttr("v")}, EDB: true},
			{Name: "a", Attributes: []ast.Attribute{ast.NumberAttr("v")}, Recursive: true},
		},
		Clauses: []*ast.Clause{
			ast.NewClause(ast.NewAtom("a", ast.VarTerm("x")), ast.NewAtom("b", ast.VarTerm("x"))),
			ast.NewClause(ast.NewAtom("a", ast.VarTerm("x")), ast.NewAtom("c", ast.VarTerm("x"))),
			ast.NewClause(ast.NewAtom("a", ast.VarTerm("x")), ast.NewAtom("a", ast.VarTerm("x"))),
		},
		Strata: []ast.Stratum{{Relations: []string{"a"}}},
	}

	result, err := New().
		WithProgram(p).
		WithStrategy(Provenance).
		Translate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	out, err := eval.Run(result, map[string][][]int64{
		"b": {{7}},
		"c": {{7}},
	}, eval.Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Two rules derive the same base tuple in the same pass; only the first
	// derivation may record its metadata.
	if len(out["a"]) != 1 {
		t.Fatalf("expected a single derivation of the base tuple, got %v", out["a"])
	}
	if diff := cmp.Diff([]int64{7, 1, 1}, out["a"][0]); diff != "" {
		t.Fatalf("unexpected derivation (-want +got):\n%s", diff)
	}
}

func TestCompileProvenanceNegationHeights(t *testing.T) {

	p := tcProgram()
	p.Relations = append(p.Relations,
		&ast.Relation{Name: "blocked", Attributes: []ast.Attribute{ast.NumberAttr("v")}, EDB: true},
		&ast.Relation{Name: "open", Attributes: []ast.Attribute{ast.NumberAttr("x"), ast.NumberAttr("y")}},
	)
	p.Clauses = append(p.Clauses,
		ast.NewClause(
			ast.NewAtom("open", ast.VarTerm("x"), ast.VarTerm("y")),
			ast.NewAtom("path", ast.VarTerm("x"), ast.VarTerm("y")),
			ast.Not(ast.NewAtom("blocked", ast.VarTerm("y")))),
	)
	p.Strata = append(p.Strata, ast.Stratum{Relations: []string{"open"}})

	edges := [][]int64{{1, 2}, {2, 3}, {3, 4}}
	blocked := [][]int64{{3}}

	result, err := New().
		WithProgram(p).
		WithStrategy(Provenance).
		Translate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	out, err := eval.Run(result, map[string][][]int64{
		"edge":    edges,
		"blocked": blocked,
	}, eval.Options{})
	if err != nil {
		t.Fatal(err)
	}

	heights := map[[2]int64]int64{}
	for _, tuple := range out["open"] {
		heights[[2]int64{tuple[0], tuple[1]}] = tuple[3]
	}

	// A tuple derived through the negation rule sits one above the path
	// tuple it consumed; the negated relation contributes nothing.
	want := map[[2]int64]int64{
		{1, 2}: 2,
		{3, 4}: 2,
		{2, 4}: 3,
		{1, 4}: 4,
	}
	if diff := cmp.Diff(want, heights); diff != "" {
		t.Fatalf("unexpected heights (-want +got):\n%s", diff)
	}
}

func TestCompileStratifiedNegation(t *testing.T) {

	p := tcProgram()
	p.Relations = append(p.Relations,
		&ast.Relation{Name: "node", Attributes: []ast.Attribute{ast.NumberAttr("v")}, EDB: true},
		&ast.Relation{Name: "unreach", Attributes: []ast.Attribute{ast.NumberAttr("x"), ast.NumberAttr("y")}},
	)
	p.Clauses = append(p.Clauses,
		ast.NewClause(
			ast.NewAtom("unreach", ast.VarTerm("x"), ast.VarTerm("y")),
			ast.NewAtom("node", ast.VarTerm("x")),
			ast.NewAtom("node", ast.VarTerm("y")),
			ast.Not(ast.NewAtom("path", ast.VarTerm("x"), ast.VarTerm("y")))),
	)
	p.Strata = append(p.Strata, ast.Stratum{Relations: []string{"unreach"}})

	edges := [][]int64{{1, 2}, {2, 3}}
	nodes := [][]int64{{1}, {2}, {3}}

	closure := map[[2]int64]bool{}
	for _, t := range naiveClosure(edges) {
		closure[[2]int64{t[0], t[1]}] = true
	}
	var want [][]int64
	for _, a := range nodes {
		for _, b := range nodes {
			if !closure[[2]int64{a[0], b[0]}] {
				want = append(want, []int64{a[0], b[0]})
			}
		}
	}
	sortTuples(want)

	for _, strategy := range []Strategy{Seminaive, Provenance} {
		t.Run(strategy.String(), func(t *testing.T) {

			result, err := New().
				WithProgram(p).
				WithStrategy(strategy).
				Translate(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			out, err := eval.Run(result, map[string][][]int64{
				"edge": edges,
				"node": nodes,
			}, eval.Options{})
			if err != nil {
				t.Fatal(err)
			}

			got := sortTuples(baseColumns(out["unreach"], 2))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("unexpected complement (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileAggregates(t *testing.T) {

	relations := []*ast.Relation{
		{Name: "item", Attributes: []ast.Attribute{ast.NumberAttr("id"), ast.NumberAttr("weight")}, EDB: true},
		{Name: "stat", Attributes: []ast.Attribute{ast.NumberAttr("v")}},
	}
	items := [][]int64{{1, 10}, {2, 30}, {3, 5}}

	tests := []struct {
		note string
		agg  *ast.Aggregate
		want [][]int64
	}{
		{
			note: "count",
			agg:  &ast.Aggregate{Op: ast.AggCount, Body: ast.NewAtom("item", ast.VarTerm("_"), ast.VarTerm("_"))},
			want: [][]int64{{3}},
		},
		{
			note: "sum",
			agg: &ast.Aggregate{Op: ast.AggSum, Value: ast.VarTerm("w"),
				Body: ast.NewAtom("item", ast.VarTerm("_"), ast.VarTerm("w"))},
			want: [][]int64{{45}},
		},
		{
			note: "min",
			agg: &ast.Aggregate{Op: ast.AggMin, Value: ast.VarTerm("w"),
				Body: ast.NewAtom("item", ast.VarTerm("_"), ast.VarTerm("w"))},
			want: [][]int64{{5}},
		},
		{
			note: "max",
			agg: &ast.Aggregate{Op: ast.AggMax, Value: ast.VarTerm("w"),
				Body: ast.NewAtom("item", ast.VarTerm("_"), ast.VarTerm("w"))},
			want: [][]int64{{30}},
		},
		{
			note: "mean truncates",
			agg: &ast.Aggregate{Op: ast.AggMean, Value: ast.VarTerm("w"),
				Body: ast.NewAtom("item", ast.VarTerm("_"), ast.VarTerm("w"))},
			want: [][]int64{{15}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {

			p := &ast.Program{
				Relations: relations,
				Clauses: []*ast.Clause{
					ast.NewClause(ast.NewAtom("stat", ast.VarTerm("n")), ast.Bind("n", tc.agg)),
				},
				Strata: []ast.Stratum{{Relations: []string{"stat"}}},
			}

			result, err := New().WithProgram(p).Translate(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			out, err := eval.Run(result, map[string][][]int64{"item": items}, eval.Options{})
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tc.want, sortTuples(out["stat"])); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompileMinOverEmptySkipsDerivation(t *testing.T) {

	p := &ast.Program{
		Relations: []*ast.Relation{
			{Name: "item", Attributes: []ast.Attribute{ast.NumberAttr("id"), ast.NumberAttr("weight")}, EDB: true},
			{Name: "stat", Attributes: []ast.Attribute{ast.NumberAttr("v")}},
		},
		Clauses: []*ast.Clause{
			ast.NewClause(ast.NewAtom("stat", ast.VarTerm("n")),
				ast.Bind("n", &ast.Aggregate{Op: ast.AggMin, Value: ast.VarTerm("w"),
					Body: ast.NewAtom("item", ast.VarTerm("_"), ast.VarTerm("w"))})),
		},
		Strata: []ast.Stratum{{Relations: []string{"stat"}}},
	}

	result, err := New().WithProgram(p).Translate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	out, err := eval.Run(result, nil, eval.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out["stat"]) != 0 {
		t.Fatalf("min over an empty relation must not derive, got %v", out["stat"])
	}
}

func TestCompileSymbols(t *testing.T) {

	p := &ast.Program{
		Relations: []*ast.Relation{
			{Name: "parent", Attributes: []ast.Attribute{ast.SymbolAttr("a"), ast.SymbolAttr("b")}, EDB: true},
			{Name: "ancestor", Attributes: []ast.Attribute{ast.SymbolAttr("a"), ast.SymbolAttr("b")}, Recursive: true},
		},
		Clauses: []*ast.Clause{
			ast.NewClause(
				ast.NewAtom("ancestor", ast.VarTerm("x"), ast.VarTerm("y")),
				ast.NewAtom("parent", ast.VarTerm("x"), ast.VarTerm("y"))),
			ast.NewClause(
				ast.NewAtom("ancestor", ast.VarTerm("x"), ast.VarTerm("z")),
				ast.NewAtom("parent", ast.VarTerm("x"), ast.VarTerm("y")),
				ast.NewAtom("ancestor", ast.VarTerm("y"), ast.VarTerm("z"))),
		},
		Strata: []ast.Stratum{{Relations: []string{"ancestor"}}},
	}

	symbols := ast.NewSymbolTable()
	ann := int64(symbols.Intern("ann"))
	bob := int64(symbols.Intern("bob"))
	cy := int64(symbols.Intern("cy"))

	result, err := New().
		WithProgram(p).
		WithSymbolTable(symbols).
		Translate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	out, err := eval.Run(result, map[string][][]int64{
		"parent": {{ann, bob}, {bob, cy}},
	}, eval.Options{})
	if err != nil {
		t.Fatal(err)
	}

	want := [][]int64{{ann, bob}, {ann, cy}, {bob, cy}}
	if diff := cmp.Diff(sortTuples(want), sortTuples(out["ancestor"])); diff != "" {
		t.Fatalf("unexpected ancestors (-want +got):\n%s", diff)
	}
}

func TestCompileLoggingAndMetrics(t *testing.T) {

	logger := loggingtest.New()
	logger.SetLevel(logging.Debug)
	m := metrics.New()

	_, err := New().
		WithProgram(tcProgram()).
		WithLogger(logger).
		WithMetrics(m).
		Translate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(logger.Entries()) == 0 {
		t.Fatal("expected debug log entries")
	}

	all := m.All()
	for _, key := range []string{
		"timer_translate_program_ns",
		"timer_translate_stratum_ns",
		"timer_program_validate_ns",
	} {
		if _, ok := all[key]; !ok {
			t.Fatalf("expected %v to be recorded, got %v", key, all)
		}
	}
	if v, ok := all["counter_translate_clause"]; !ok || v.(uint64) != 2 {
		t.Fatalf("expected clause counter of 2, got %v", all)
	}
}

func TestCompileCancelledContext(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().WithProgram(tcProgram()).Translate(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestCompileNoProgram(t *testing.T) {
	if _, err := New().Translate(context.Background()); err == nil {
		t.Fatal("expected error when no program is set")
	}
}
