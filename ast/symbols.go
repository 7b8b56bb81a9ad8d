// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

// SymbolTable maps strings to stable integer identifiers. The translator
// uses it only to embed symbol constants into the emitted IR; it never
// drives control flow. Implementations must hand out identifiers densely
// from zero in interning order so the table can be snapshotted by index.
type SymbolTable interface {
	// Intern returns the identifier for s, assigning the next free
	// identifier on first use.
	Intern(s string) int

	// Resolve returns the string for id. The second result is false if id
	// was never handed out.
	Resolve(id int) (string, bool)

	// Len returns the number of interned symbols.
	Len() int
}

type symbolTable struct {
	ids     map[string]int
	symbols []string
}

// NewSymbolTable returns an empty in-memory SymbolTable.
func NewSymbolTable() SymbolTable {
	return &symbolTable{ids: map[string]int{}}
}

func (t *symbolTable) Intern(s string) int {
	if id, ok := t.ids[s]; ok {
		return id
	}
	id := len(t.symbols)
	t.ids[s] = id
	t.symbols = append(t.symbols, s)
	return id
}

func (t *symbolTable) Resolve(id int) (string, bool) {
	if id < 0 || id >= len(t.symbols) {
		return "", false
	}
	return t.symbols[id], true
}

func (t *symbolTable) Len() int {
	return len(t.symbols)
}
