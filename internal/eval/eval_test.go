// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratlog/stratlog/ram"
)

func decl(name string, attrs ...string) *ram.RelationDecl {
	return &ram.RelationDecl{Name: name, Attributes: attrs}
}

func full(name string) ram.RelationRef {
	return ram.RelationRef{Name: name, Version: ram.Full}
}

func TestRunSearchFilterProject(t *testing.T) {

	// out(x, y) for every r(x, y) with x < y.
	p := &ram.Program{
		Relations: []*ram.RelationDecl{
			decl("r", "x", "y"),
			decl("out", "x", "y"),
		},
		Main: &ram.Search{
			Relation: full("r"),
			TupleID:  0,
			Body: &ram.Filter{
				Cond: &ram.Comparison{
					Op:  ram.CmpLt,
					LHS: ram.TupleElement{TupleID: 0, Element: 0},
					RHS: ram.TupleElement{TupleID: 0, Element: 1},
				},
				Body: &ram.Project{
					Relation: full("out"),
					Values: []ram.Expr{
						ram.TupleElement{TupleID: 0, Element: 0},
						ram.TupleElement{TupleID: 0, Element: 1},
					},
				},
			},
		},
	}

	out, err := Run(p, map[string][][]int64{
		"r": {{1, 2}, {3, 3}, {5, 4}},
	}, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]int64{{1, 2}}, out["out"])
}

func TestRunProjectDeduplicates(t *testing.T) {

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("r", "x"), decl("out", "x")},
		Main: &ram.Search{
			Relation: full("r"),
			TupleID:  0,
			Body: &ram.Project{
				Relation: full("out"),
				Values:   []ram.Expr{ram.Number{Value: 9}},
			},
		},
	}

	out, err := Run(p, map[string][][]int64{"r": {{1}, {2}, {3}}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{9}}, out["out"])
}

func TestRunLoopExit(t *testing.T) {

	// Repeatedly double the contents of acc into itself until a value
	// reaches 8, via the scratch new version.
	newRef := ram.RelationRef{Name: "acc", Version: ram.New}
	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("acc", "v")},
		Main: &ram.Loop{
			Body: &ram.Sequence{
				Stmts: []ram.Stmt{
					&ram.Exit{Cond: &ram.ExistenceCheck{
						Relation: full("acc"),
						Values:   []ram.Expr{ram.Number{Value: 8}},
					}},
					&ram.Search{
						Relation: full("acc"),
						TupleID:  0,
						Body: &ram.Project{
							Relation: newRef,
							Values: []ram.Expr{&ram.BinaryExpr{
								Op:  ram.OpMul,
								LHS: ram.TupleElement{TupleID: 0, Element: 0},
								RHS: ram.Number{Value: 2},
							}},
						},
					},
					&ram.Merge{Target: full("acc"), Source: newRef},
					&ram.Clear{Relation: newRef},
				},
			},
		},
	}

	out, err := Run(p, map[string][][]int64{"acc": {{1}}}, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]int64{{1}, {2}, {4}, {8}}, out["acc"])
}

func TestRunSwap(t *testing.T) {

	a := ram.RelationRef{Name: "r", Version: ram.Delta}
	b := ram.RelationRef{Name: "r", Version: ram.New}

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("r", "v"), decl("out", "v")},
		Main: &ram.Sequence{
			Stmts: []ram.Stmt{
				&ram.Project{Relation: a, Values: []ram.Expr{ram.Number{Value: 1}}},
				&ram.Project{Relation: b, Values: []ram.Expr{ram.Number{Value: 2}}},
				&ram.Swap{A: a, B: b},
				&ram.Search{
					Relation: a,
					TupleID:  0,
					Body: &ram.Project{
						Relation: full("out"),
						Values:   []ram.Expr{ram.TupleElement{TupleID: 0, Element: 0}},
					},
				},
			},
		},
	}

	out, err := Run(p, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{2}}, out["out"])
}

func TestRunExistenceCheck(t *testing.T) {

	facts := map[string][][]int64{"r": {{1, 10}, {2, 20}}}

	tests := []struct {
		note string
		cond *ram.ExistenceCheck
		want bool
	}{
		{
			note: "full match",
			cond: &ram.ExistenceCheck{Relation: full("r"), Values: []ram.Expr{ram.Number{Value: 1}, ram.Number{Value: 10}}},
			want: true,
		},
		{
			note: "wildcard column",
			cond: &ram.ExistenceCheck{Relation: full("r"), Values: []ram.Expr{ram.Number{Value: 2}, nil}},
			want: true,
		},
		{
			note: "no match",
			cond: &ram.ExistenceCheck{Relation: full("r"), Values: []ram.Expr{ram.Number{Value: 3}, nil}},
			want: false,
		},
		{
			note: "negated",
			cond: &ram.ExistenceCheck{Relation: full("r"), Values: []ram.Expr{ram.Number{Value: 3}, nil}, Negated: true},
			want: true,
		},
		{
			note: "height bound excludes",
			cond: &ram.ExistenceCheck{
				Relation:    full("r"),
				Values:      []ram.Expr{ram.Number{Value: 1}, nil},
				HeightBound: ram.Number{Value: 10},
			},
			want: false,
		},
		{
			note: "height bound admits",
			cond: &ram.ExistenceCheck{
				Relation:    full("r"),
				Values:      []ram.Expr{ram.Number{Value: 1}, nil},
				HeightBound: ram.Number{Value: 11},
			},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			p := &ram.Program{
				Relations: []*ram.RelationDecl{decl("r", "x", "h"), decl("out", "x")},
				Main: &ram.Filter{
					Cond: tc.cond,
					Body: &ram.Project{Relation: full("out"), Values: []ram.Expr{ram.Number{Value: 1}}},
				},
			}
			out, err := Run(p, facts, Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, len(out["out"]) == 1)
		})
	}
}

func TestRunAggregates(t *testing.T) {

	facts := map[string][][]int64{"r": {{10}, {30}, {5}}}
	value := ram.TupleElement{TupleID: 0, Element: 0}

	tests := []struct {
		note  string
		op    ram.AggregateOp
		value ram.Expr
		want  [][]int64
	}{
		{note: "count", op: ram.AggCount, want: [][]int64{{3}}},
		{note: "sum", op: ram.AggSum, value: value, want: [][]int64{{45}}},
		{note: "min", op: ram.AggMin, value: value, want: [][]int64{{5}}},
		{note: "max", op: ram.AggMax, value: value, want: [][]int64{{30}}},
		{note: "mean", op: ram.AggMean, value: value, want: [][]int64{{15}}},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			p := &ram.Program{
				Relations: []*ram.RelationDecl{decl("r", "v"), decl("out", "v")},
				Main: &ram.Aggregate{
					Op:       tc.op,
					Relation: full("r"),
					TupleID:  0,
					Value:    tc.value,
					Body: &ram.Project{
						Relation: full("out"),
						Values:   []ram.Expr{ram.TupleElement{TupleID: 0, Element: 0}},
					},
				},
			}
			out, err := Run(p, facts, Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out["out"])
		})
	}
}

func TestRunAggregateEmpty(t *testing.T) {

	run := func(op ram.AggregateOp, value ram.Expr) [][]int64 {
		p := &ram.Program{
			Relations: []*ram.RelationDecl{decl("r", "v"), decl("out", "v")},
			Main: &ram.Aggregate{
				Op:       op,
				Relation: full("r"),
				TupleID:  0,
				Value:    value,
				Body: &ram.Project{
					Relation: full("out"),
					Values:   []ram.Expr{ram.TupleElement{TupleID: 0, Element: 0}},
				},
			},
		}
		out, err := Run(p, nil, Options{})
		require.NoError(t, err)
		return out["out"]
	}

	value := ram.TupleElement{TupleID: 0, Element: 0}

	// Count and sum of nothing are zero; min and max of nothing do not run
	// the body at all.
	assert.Equal(t, [][]int64{{0}}, run(ram.AggCount, nil))
	assert.Equal(t, [][]int64{{0}}, run(ram.AggSum, value))
	assert.Empty(t, run(ram.AggMin, value))
	assert.Empty(t, run(ram.AggMax, value))
	assert.Empty(t, run(ram.AggMean, value))
}

func TestRunAggregateCond(t *testing.T) {

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("r", "v"), decl("out", "v")},
		Main: &ram.Aggregate{
			Op:       ram.AggSum,
			Relation: full("r"),
			TupleID:  0,
			Value:    ram.TupleElement{TupleID: 0, Element: 0},
			Cond: &ram.Comparison{
				Op:  ram.CmpGt,
				LHS: ram.TupleElement{TupleID: 0, Element: 0},
				RHS: ram.Number{Value: 9},
			},
			Body: &ram.Project{
				Relation: full("out"),
				Values:   []ram.Expr{ram.TupleElement{TupleID: 0, Element: 0}},
			},
		},
	}

	out, err := Run(p, map[string][][]int64{"r": {{10}, {30}, {5}}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{40}}, out["out"])
}

func TestRunExpressions(t *testing.T) {

	tests := []struct {
		note string
		expr ram.Expr
		want int64
	}{
		{note: "negate", expr: &ram.UnaryExpr{Op: ram.OpNeg, Arg: ram.Number{Value: 7}}, want: -7},
		{note: "division truncates", expr: &ram.BinaryExpr{Op: ram.OpDiv, LHS: ram.Number{Value: -7}, RHS: ram.Number{Value: 2}}, want: -3},
		{note: "modulo follows dividend", expr: &ram.BinaryExpr{Op: ram.OpMod, LHS: ram.Number{Value: -7}, RHS: ram.Number{Value: 2}}, want: -1},
		{note: "max", expr: &ram.BinaryExpr{Op: ram.OpMax, LHS: ram.Number{Value: 3}, RHS: ram.Number{Value: 5}}, want: 5},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			p := &ram.Program{
				Relations: []*ram.RelationDecl{decl("out", "v")},
				Main:      &ram.Project{Relation: full("out"), Values: []ram.Expr{tc.expr}},
			}
			out, err := Run(p, nil, Options{})
			require.NoError(t, err)
			assert.Equal(t, [][]int64{{tc.want}}, out["out"])
		})
	}
}

func TestRunDivisionByZero(t *testing.T) {

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("out", "v")},
		Main: &ram.Project{
			Relation: full("out"),
			Values: []ram.Expr{&ram.BinaryExpr{
				Op:  ram.OpDiv,
				LHS: ram.Number{Value: 1},
				RHS: ram.Number{Value: 0},
			}},
		},
	}

	_, err := Run(p, nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestRunFunctors(t *testing.T) {

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("out", "v")},
		Main: &ram.Project{
			Relation: full("out"),
			Values: []ram.Expr{&ram.Call{
				Functor: "square",
				Args:    []ram.Expr{ram.Number{Value: 6}},
			}},
		},
	}

	out, err := Run(p, nil, Options{
		Functors: map[string]Functor{
			"square": func(args []int64) (int64, error) { return args[0] * args[0], nil },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{36}}, out["out"])

	_, err = Run(p, nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown functor")
}

func TestRunPackInterning(t *testing.T) {

	// Packing the same fields twice yields the same reference; different
	// fields yield a different one.
	pack := func(v int64) ram.Expr {
		return &ram.Pack{Args: []ram.Expr{ram.Number{Value: v}, ram.Number{Value: 0}}}
	}

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("out", "a", "b", "c")},
		Main: &ram.Project{
			Relation: full("out"),
			Values:   []ram.Expr{pack(1), pack(1), pack(2)},
		},
	}

	out, err := Run(p, nil, Options{})
	require.NoError(t, err)
	require.Len(t, out["out"], 1)
	tuple := out["out"][0]
	assert.Equal(t, tuple[0], tuple[1])
	assert.NotEqual(t, tuple[0], tuple[2])
}

func TestRunAutoIncrement(t *testing.T) {

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("r", "v"), decl("out", "id", "v")},
		Main: &ram.Search{
			Relation: full("r"),
			TupleID:  0,
			Body: &ram.Project{
				Relation: full("out"),
				Values: []ram.Expr{
					ram.AutoIncrement{Counter: 0},
					ram.TupleElement{TupleID: 0, Element: 0},
				},
			},
		},
	}

	out, err := Run(p, map[string][][]int64{"r": {{7}, {8}, {9}}}, Options{})
	require.NoError(t, err)
	require.Len(t, out["out"], 3)

	ids := map[int64]bool{}
	for _, tuple := range out["out"] {
		ids[tuple[0]] = true
	}
	assert.Equal(t, map[int64]bool{0: true, 1: true, 2: true}, ids)
}

func TestRunFactArityMismatch(t *testing.T) {

	p := &ram.Program{
		Relations: []*ram.RelationDecl{decl("r", "x", "y")},
		Main:      &ram.Sequence{},
	}

	_, err := Run(p, map[string][][]int64{"r": {{1}}}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arity mismatch")
}
