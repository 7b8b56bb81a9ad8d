// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func jsonFixture() *Program {
	return &Program{
		Relations: []*Relation{
			{Name: "edge", Attributes: []Attribute{NumberAttr("x"), NumberAttr("y")}, EDB: true},
			{Name: "label", Attributes: []Attribute{SymbolAttr("name")}, EDB: true},
			{Name: "path", Attributes: []Attribute{NumberAttr("x"), NumberAttr("y")}, Recursive: true},
			{Name: "stat", Attributes: []Attribute{NumberAttr("v")}},
		},
		Clauses: []*Clause{
			NewClause(
				NewAtom("path", VarTerm("x"), VarTerm("y")),
				NewAtom("edge", VarTerm("x"), VarTerm("y"))),
			NewClause(
				NewAtom("path", VarTerm("x"), VarTerm("z")),
				NewAtom("path", VarTerm("x"), VarTerm("y")),
				NewAtom("edge", VarTerm("y"), VarTerm("z")),
				Not(NewAtom("label", SymbolTerm("skip"))),
				Compare(CmpLt, VarTerm("x"), &BinaryExpr{
					Op:  OpAdd,
					LHS: NumberTerm(10),
					RHS: &UnaryExpr{Op: OpNeg, Arg: VarTerm("y")},
				})),
			NewClause(
				NewAtom("stat", VarTerm("n")),
				Bind("n", &Aggregate{
					Op:    AggSum,
					Value: VarTerm("w"),
					Body:  NewAtom("edge", VarTerm("_"), VarTerm("w")),
				})),
			NewClause(
				NewAtom("stat", &FunctorCall{Name: "f", Args: []Term{&RecordCtor{Args: []Term{NumberTerm(1)}}}})),
			NewClause(
				NewAtom("stat", &Counter{})),
		},
		Strata: []Stratum{
			{Relations: []string{"path"}},
			{Relations: []string{"stat"}},
		},
	}
}

func TestProgramRoundTrip(t *testing.T) {

	p := jsonFixture()

	bs, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	var got Program
	if err := json.Unmarshal(bs, &got); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(p, &got); diff != "" {
		t.Fatalf("round trip changed the program (-want +got):\n%s", diff)
	}
}

func TestUnmarshalUnknownLiteral(t *testing.T) {

	input := `{
		"head": {"relation": "p"},
		"body": [{"type": "guess", "node": {}}]
	}`

	var c Clause
	if err := json.Unmarshal([]byte(input), &c); err == nil {
		t.Fatal("expected error for unknown literal type")
	}
}

func TestUnmarshalUnknownTerm(t *testing.T) {

	input := `{
		"relation": "p",
		"args": [{"type": "guess", "node": {}}]
	}`

	var a Atom
	if err := json.Unmarshal([]byte(input), &a); err == nil {
		t.Fatal("expected error for unknown term type")
	}
}

func TestUnmarshalLiteralShapes(t *testing.T) {

	input := `{
		"head": {"relation": "p", "args": [{"type": "var", "node": {"name": "x"}}]},
		"body": [
			{"type": "atom", "node": {"relation": "q", "args": [{"type": "var", "node": {"name": "x"}}]}},
			{"type": "negation", "node": {"atom": {"relation": "r", "args": [{"type": "number", "node": {"value": 3}}]}}},
			{"type": "comparison", "node": {"op": 2, "lhs": {"type": "var", "node": {"name": "x"}}, "rhs": {"type": "number", "node": {"value": 9}}}}
		]
	}`

	var c Clause
	if err := json.Unmarshal([]byte(input), &c); err != nil {
		t.Fatal(err)
	}

	want := NewClause(
		NewAtom("p", VarTerm("x")),
		NewAtom("q", VarTerm("x")),
		Not(NewAtom("r", NumberTerm(3))),
		Compare(CmpLt, VarTerm("x"), NumberTerm(9)))

	if diff := cmp.Diff(want, &c); diff != "" {
		t.Fatalf("unexpected clause (-want +got):\n%s", diff)
	}
}
