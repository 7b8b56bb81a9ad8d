// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ram

import (
	"fmt"
	"io"
	"strings"
)

// Pretty writes a human-readable representation of a RAM object to w. The
// output is stable for a fixed input and is used by golden tests.
func Pretty(w io.Writer, x any) error {
	pp := &prettyPrinter{w: w}
	return Walk(pp, x)
}

type prettyPrinter struct {
	w     io.Writer
	depth int
	err   error
}

func (pp *prettyPrinter) Before(any) { pp.depth++ }
func (pp *prettyPrinter) After(any)  { pp.depth-- }

func (pp *prettyPrinter) Visit(x any) (Visitor, error) {
	switch x.(type) {
	case Cond, Expr:
		// Conditions and expressions print inline via their String methods.
		return nil, pp.err
	}
	if _, err := fmt.Fprintf(pp.w, "%v%v\n", strings.Repeat("| ", pp.depth-1), x); err != nil {
		pp.err = err
	}
	return pp, pp.err
}
