// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/stratlog/stratlog/ast"
)

// loadProgram reads a JSON-encoded Datalog program from path, or from
// stdin when path is "-".
func loadProgram(path string) (*ast.Program, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var p ast.Program
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}

// loadFacts reads extensional facts from a JSON file mapping relation
// names to rows. Number columns hold JSON numbers; symbol columns hold
// JSON strings, interned into the supplied symbol table.
func loadFacts(path string, p *ast.Program, symbols ast.SymbolTable) (map[string][][]int64, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw map[string][][]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode facts: %w", err)
	}

	decls := map[string]*ast.Relation{}
	for _, rel := range p.Relations {
		decls[rel.Name] = rel
	}

	facts := map[string][][]int64{}
	for name, rows := range raw {
		rel, ok := decls[name]
		if !ok {
			return nil, fmt.Errorf("facts for undeclared relation %v", name)
		}
		if !rel.EDB {
			return nil, fmt.Errorf("relation %v is not extensional", name)
		}
		tuples := make([][]int64, len(rows))
		for i, row := range rows {
			if len(row) != rel.Arity() {
				return nil, fmt.Errorf("row %d of %v: got %d columns, want %d", i, name, len(row), rel.Arity())
			}
			tuple := make([]int64, len(row))
			for j, v := range row {
				switch v := v.(type) {
				case float64:
					tuple[j] = int64(v)
				case string:
					tuple[j] = int64(symbols.Intern(v))
				default:
					return nil, fmt.Errorf("row %d of %v: unsupported value %v", i, name, v)
				}
			}
			tuples[i] = tuple
		}
		facts[name] = tuples
	}
	return facts, nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, color.RedString("error:"), err)
}
