// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package encoding

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stratlog/stratlog/ram"
)

// fixture exercises every statement, condition and expression kind once.
func fixture() *ram.Program {
	full := ram.RelationRef{Name: "p", Version: ram.Full}
	delta := ram.RelationRef{Name: "p", Version: ram.Delta}
	scratch := ram.RelationRef{Name: "p", Version: ram.New}

	return &ram.Program{
		Symbols: []string{"alpha", "beta"},
		Relations: []*ram.RelationDecl{
			{Name: "p", Attributes: []string{"x", "y"}, AuxArity: 2},
			{Name: "q", Attributes: []string{"v"}},
		},
		Main: &ram.Sequence{
			Stmts: []ram.Stmt{
				&ram.Parallel{
					Stmts: []ram.Stmt{
						&ram.Search{
							Relation: full,
							TupleID:  0,
							Body: &ram.Filter{
								Cond: &ram.Conjunction{
									Conds: []ram.Cond{
										&ram.Comparison{
											Op:  ram.CmpLe,
											LHS: ram.TupleElement{TupleID: 0, Element: 1},
											RHS: &ram.BinaryExpr{
												Op:  ram.OpAdd,
												LHS: ram.Number{Value: 2},
												RHS: &ram.UnaryExpr{Op: ram.OpNeg, Arg: ram.SymbolRef{ID: 1}},
											},
										},
										&ram.ExistenceCheck{
											Relation:    full,
											Values:      []ram.Expr{ram.Number{Value: 1}, nil, nil, nil},
											Negated:     true,
											HeightBound: ram.TupleElement{TupleID: 0, Element: 3},
										},
									},
								},
								Body: &ram.Project{
									Relation: scratch,
									Values: []ram.Expr{
										&ram.Call{Functor: "f", Args: []ram.Expr{ram.Number{Value: 3}}},
										&ram.Pack{Args: []ram.Expr{ram.Number{Value: 4}}},
										ram.AutoIncrement{Counter: 2},
										ram.Number{Value: 0},
									},
								},
							},
						},
						&ram.Aggregate{
							Op:       ram.AggSum,
							Relation: ram.RelationRef{Name: "q", Version: ram.Full},
							TupleID:  1,
							Value:    ram.TupleElement{TupleID: 1, Element: 0},
							Cond: &ram.Comparison{
								Op:  ram.CmpNe,
								LHS: ram.TupleElement{TupleID: 1, Element: 0},
								RHS: ram.Number{Value: 0},
							},
							Body: &ram.Project{
								Relation: ram.RelationRef{Name: "q", Version: ram.Full},
								Values:   []ram.Expr{ram.TupleElement{TupleID: 1, Element: 0}},
							},
						},
					},
				},
				&ram.Loop{
					Body: &ram.Sequence{
						Stmts: []ram.Stmt{
							&ram.Swap{A: delta, B: scratch},
							&ram.Clear{Relation: scratch},
							&ram.Merge{Target: full, Source: scratch},
							&ram.Exit{Cond: &ram.EmptinessCheck{Relation: scratch}},
						},
					},
				},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {

	p := fixture()

	bs, err := Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Unmarshal(bs)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(p, got); diff != "" {
		t.Fatalf("round trip changed the program (-want +got):\n%s", diff)
	}
}

func TestMarshalDeterministic(t *testing.T) {

	a, err := Marshal(fixture())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(fixture())
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("two encodings of the same program differ")
	}
}

func TestUnmarshalUnknownType(t *testing.T) {

	_, err := Unmarshal([]byte(`{"relations": [], "main": {"type": "teleport", "node": {}}}`))
	if err == nil {
		t.Fatal("expected error for unknown statement type")
	}
}
