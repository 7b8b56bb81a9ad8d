// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import "testing"

func TestSymbolTable(t *testing.T) {

	st := NewSymbolTable()

	a := st.Intern("alpha")
	b := st.Intern("beta")
	if a == b {
		t.Fatal("distinct symbols interned to the same id")
	}
	if st.Intern("alpha") != a {
		t.Fatal("re-interning must return the original id")
	}
	if st.Len() != 2 {
		t.Fatalf("expected 2 symbols, got %d", st.Len())
	}

	s, ok := st.Resolve(a)
	if !ok || s != "alpha" {
		t.Fatalf("Resolve(%d) = %q, %v", a, s, ok)
	}
	if _, ok := st.Resolve(99); ok {
		t.Fatal("expected unknown id to not resolve")
	}
}

func TestVars(t *testing.T) {

	term := &BinaryExpr{
		Op:  OpAdd,
		LHS: VarTerm("x"),
		RHS: &FunctorCall{Name: "f", Args: []Term{VarTerm("y"), VarTerm("_"), NumberTerm(1)}},
	}

	got := Vars(nil, term)
	want := map[string]bool{"x": true, "y": true}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, v := range got {
		if !want[v] {
			t.Fatalf("unexpected variable %v", v)
		}
	}
}
