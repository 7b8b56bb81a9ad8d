// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import "github.com/stratlog/stratlog/ram"

// valueIndex maps each bound variable to the RAM expression that supplies
// its value as loops open around the clause body. It is created fresh per
// clause translation and never outlives it.
type valueIndex struct {
	bindings map[string]ram.Expr
}

func newValueIndex() *valueIndex {
	return &valueIndex{bindings: map[string]ram.Expr{}}
}

// bind records the location of a variable. Returns false if the variable is
// already bound; the caller then emits an equality filter instead.
func (vi *valueIndex) bind(name string, e ram.Expr) bool {
	if _, ok := vi.bindings[name]; ok {
		return false
	}
	vi.bindings[name] = e
	return true
}

// lookup returns the expression currently bound to name.
func (vi *valueIndex) lookup(name string) (ram.Expr, bool) {
	e, ok := vi.bindings[name]
	return e, ok
}

// bound reports whether every name is bound.
func (vi *valueIndex) bound(names []string) bool {
	for _, n := range names {
		if _, ok := vi.bindings[n]; !ok {
			return false
		}
	}
	return true
}

// unbind removes bindings added for a nested scope (aggregate body
// variables), restoring the index to its surrounding state.
func (vi *valueIndex) unbind(names []string) {
	for _, n := range names {
		delete(vi.bindings, n)
	}
}
