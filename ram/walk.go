// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ram

// Visitor defines the interface for visiting RAM nodes.
type Visitor interface {
	// Before is invoked before recursing into x's children.
	Before(x any)

	// After is invoked after visiting x's children.
	After(x any)

	// Visit is invoked for each node. Returning an error aborts the walk.
	Visit(x any) (Visitor, error)
}

// Walk invokes the visitor for x and the nodes under x in depth-first,
// pre-order. A nil visitor returned by Visit prunes the subtree.
func Walk(vis Visitor, x any) error {
	impl := walkerImpl{vis: vis}
	impl.walk(x)
	return impl.err
}

type walkerImpl struct {
	vis Visitor
	err error
}

func (w *walkerImpl) walk(x any) {
	if w.err != nil || x == nil {
		return
	}

	prev := w.vis
	w.vis.Before(x)
	defer w.vis.After(x)

	w.vis, w.err = w.vis.Visit(x)
	if w.err != nil {
		return
	}
	defer func() { w.vis = prev }()
	if w.vis == nil {
		return
	}

	switch x := x.(type) {
	case *Program:
		for _, d := range x.Relations {
			w.walk(d)
		}
		w.walk(x.Main)
	case *Sequence:
		for _, s := range x.Stmts {
			w.walk(s)
		}
	case *Parallel:
		for _, s := range x.Stmts {
			w.walk(s)
		}
	case *Loop:
		w.walk(x.Body)
	case *Exit:
		w.walk(x.Cond)
	case *Search:
		w.walk(x.Body)
	case *Filter:
		w.walk(x.Cond)
		w.walk(x.Body)
	case *Project:
		for _, e := range x.Values {
			w.walk(e)
		}
	case *Aggregate:
		w.walk(x.Value)
		w.walk(x.Cond)
		w.walk(x.Body)
	case *Comparison:
		w.walk(x.LHS)
		w.walk(x.RHS)
	case *Conjunction:
		for _, c := range x.Conds {
			w.walk(c)
		}
	case *ExistenceCheck:
		for _, e := range x.Values {
			w.walk(e)
		}
		w.walk(x.HeightBound)
	case *UnaryExpr:
		w.walk(x.Arg)
	case *BinaryExpr:
		w.walk(x.LHS)
		w.walk(x.RHS)
	case *Call:
		for _, e := range x.Args {
			w.walk(e)
		}
	case *Pack:
		for _, e := range x.Args {
			w.walk(e)
		}
	}
}
