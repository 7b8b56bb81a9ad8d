// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package encoding implements a deterministic JSON encoding of RAM
// programs, usable by external evaluators and for golden testing.
package encoding

import (
	"encoding/json"
	"fmt"

	"github.com/stratlog/stratlog/ram"
)

// Marshal returns the JSON encoding of a RAM program.
func Marshal(p *ram.Program) ([]byte, error) {
	main, err := encodeStmt(p.Main)
	if err != nil {
		return nil, err
	}
	return json.Marshal(programJSON{
		Symbols:   p.Symbols,
		Relations: p.Relations,
		Main:      main,
	})
}

// Unmarshal decodes a JSON-encoded RAM program.
func Unmarshal(bs []byte) (*ram.Program, error) {
	var raw programJSON
	if err := json.Unmarshal(bs, &raw); err != nil {
		return nil, err
	}
	main, err := decodeStmt(raw.Main)
	if err != nil {
		return nil, err
	}
	return &ram.Program{
		Symbols:   raw.Symbols,
		Relations: raw.Relations,
		Main:      main,
	}, nil
}

type programJSON struct {
	Symbols   []string            `json:"symbols,omitempty"`
	Relations []*ram.RelationDecl `json:"relations"`
	Main      *node               `json:"main"`
}

type node struct {
	Type string          `json:"type"`
	Node json.RawMessage `json:"node"`
}

func encode(typ string, x any) (*node, error) {
	raw, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	return &node{Type: typ, Node: raw}, nil
}

type relRefJSON struct {
	Name    string      `json:"name"`
	Version ram.Version `json:"version,omitempty"`
}

func encodeRef(r ram.RelationRef) relRefJSON {
	return relRefJSON{Name: r.Name, Version: r.Version}
}

func decodeRef(r relRefJSON) ram.RelationRef {
	return ram.RelationRef{Name: r.Name, Version: r.Version}
}

func encodeStmts(stmts []ram.Stmt) ([]*node, error) {
	out := make([]*node, len(stmts))
	for i, s := range stmts {
		n, err := encodeStmt(s)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func decodeStmts(ns []*node) ([]ram.Stmt, error) {
	out := make([]ram.Stmt, len(ns))
	for i, n := range ns {
		s, err := decodeStmt(n)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func encodeStmt(s ram.Stmt) (*node, error) {
	if s == nil {
		return nil, nil
	}
	switch s := s.(type) {
	case *ram.Sequence:
		stmts, err := encodeStmts(s.Stmts)
		if err != nil {
			return nil, err
		}
		return encode("sequence", struct {
			Stmts []*node `json:"stmts"`
		}{stmts})
	case *ram.Parallel:
		stmts, err := encodeStmts(s.Stmts)
		if err != nil {
			return nil, err
		}
		return encode("parallel", struct {
			Stmts []*node `json:"stmts"`
		}{stmts})
	case *ram.Loop:
		body, err := encodeStmt(s.Body)
		if err != nil {
			return nil, err
		}
		return encode("loop", struct {
			Body *node `json:"body"`
		}{body})
	case *ram.Exit:
		cond, err := encodeCond(s.Cond)
		if err != nil {
			return nil, err
		}
		return encode("exit", struct {
			Cond *node `json:"cond"`
		}{cond})
	case *ram.Search:
		body, err := encodeStmt(s.Body)
		if err != nil {
			return nil, err
		}
		return encode("search", struct {
			Relation relRefJSON `json:"relation"`
			TupleID  int        `json:"tuple_id"`
			Body     *node      `json:"body"`
		}{encodeRef(s.Relation), s.TupleID, body})
	case *ram.Filter:
		cond, err := encodeCond(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := encodeStmt(s.Body)
		if err != nil {
			return nil, err
		}
		return encode("filter", struct {
			Cond *node `json:"cond"`
			Body *node `json:"body"`
		}{cond, body})
	case *ram.Project:
		values, err := encodeExprs(s.Values)
		if err != nil {
			return nil, err
		}
		return encode("project", struct {
			Relation relRefJSON `json:"relation"`
			Values   []*node    `json:"values"`
		}{encodeRef(s.Relation), values})
	case *ram.Aggregate:
		value, err := encodeExpr(s.Value)
		if err != nil {
			return nil, err
		}
		cond, err := encodeCond(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := encodeStmt(s.Body)
		if err != nil {
			return nil, err
		}
		return encode("aggregate", struct {
			Op       ram.AggregateOp `json:"op"`
			Relation relRefJSON      `json:"relation"`
			TupleID  int             `json:"tuple_id"`
			Value    *node           `json:"value,omitempty"`
			Cond     *node           `json:"cond,omitempty"`
			Body     *node           `json:"body"`
		}{s.Op, encodeRef(s.Relation), s.TupleID, value, cond, body})
	case *ram.Clear:
		return encode("clear", struct {
			Relation relRefJSON `json:"relation"`
		}{encodeRef(s.Relation)})
	case *ram.Merge:
		return encode("merge", struct {
			Target relRefJSON `json:"target"`
			Source relRefJSON `json:"source"`
		}{encodeRef(s.Target), encodeRef(s.Source)})
	case *ram.Swap:
		return encode("swap", struct {
			A relRefJSON `json:"a"`
			B relRefJSON `json:"b"`
		}{encodeRef(s.A), encodeRef(s.B)})
	}
	return nil, fmt.Errorf("unexpected statement type %T", s)
}

func decodeStmt(n *node) (ram.Stmt, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Type {
	case "sequence", "parallel":
		var raw struct {
			Stmts []*node `json:"stmts"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		stmts, err := decodeStmts(raw.Stmts)
		if err != nil {
			return nil, err
		}
		if n.Type == "parallel" {
			return &ram.Parallel{Stmts: stmts}, nil
		}
		return &ram.Sequence{Stmts: stmts}, nil
	case "loop":
		var raw struct {
			Body *node `json:"body"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw.Body)
		if err != nil {
			return nil, err
		}
		return &ram.Loop{Body: body}, nil
	case "exit":
		var raw struct {
			Cond *node `json:"cond"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		cond, err := decodeCond(raw.Cond)
		if err != nil {
			return nil, err
		}
		return &ram.Exit{Cond: cond}, nil
	case "search":
		var raw struct {
			Relation relRefJSON `json:"relation"`
			TupleID  int        `json:"tuple_id"`
			Body     *node      `json:"body"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw.Body)
		if err != nil {
			return nil, err
		}
		return &ram.Search{Relation: decodeRef(raw.Relation), TupleID: raw.TupleID, Body: body}, nil
	case "filter":
		var raw struct {
			Cond *node `json:"cond"`
			Body *node `json:"body"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		cond, err := decodeCond(raw.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw.Body)
		if err != nil {
			return nil, err
		}
		return &ram.Filter{Cond: cond, Body: body}, nil
	case "project":
		var raw struct {
			Relation relRefJSON `json:"relation"`
			Values   []*node    `json:"values"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		values, err := decodeExprs(raw.Values)
		if err != nil {
			return nil, err
		}
		return &ram.Project{Relation: decodeRef(raw.Relation), Values: values}, nil
	case "aggregate":
		var raw struct {
			Op       ram.AggregateOp `json:"op"`
			Relation relRefJSON      `json:"relation"`
			TupleID  int             `json:"tuple_id"`
			Value    *node           `json:"value,omitempty"`
			Cond     *node           `json:"cond,omitempty"`
			Body     *node           `json:"body"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		value, err := decodeExpr(raw.Value)
		if err != nil {
			return nil, err
		}
		cond, err := decodeCond(raw.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(raw.Body)
		if err != nil {
			return nil, err
		}
		return &ram.Aggregate{Op: raw.Op, Relation: decodeRef(raw.Relation), TupleID: raw.TupleID, Value: value, Cond: cond, Body: body}, nil
	case "clear":
		var raw struct {
			Relation relRefJSON `json:"relation"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return &ram.Clear{Relation: decodeRef(raw.Relation)}, nil
	case "merge":
		var raw struct {
			Target relRefJSON `json:"target"`
			Source relRefJSON `json:"source"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return &ram.Merge{Target: decodeRef(raw.Target), Source: decodeRef(raw.Source)}, nil
	case "swap":
		var raw struct {
			A relRefJSON `json:"a"`
			B relRefJSON `json:"b"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return &ram.Swap{A: decodeRef(raw.A), B: decodeRef(raw.B)}, nil
	}
	return nil, fmt.Errorf("unknown statement type %q", n.Type)
}

func encodeCond(c ram.Cond) (*node, error) {
	if c == nil {
		return nil, nil
	}
	switch c := c.(type) {
	case *ram.Comparison:
		lhs, err := encodeExpr(c.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := encodeExpr(c.RHS)
		if err != nil {
			return nil, err
		}
		return encode("comparison", struct {
			Op  ram.CmpOp `json:"op"`
			LHS *node     `json:"lhs"`
			RHS *node     `json:"rhs"`
		}{c.Op, lhs, rhs})
	case *ram.Conjunction:
		conds := make([]*node, len(c.Conds))
		for i := range c.Conds {
			n, err := encodeCond(c.Conds[i])
			if err != nil {
				return nil, err
			}
			conds[i] = n
		}
		return encode("conjunction", struct {
			Conds []*node `json:"conds"`
		}{conds})
	case *ram.ExistenceCheck:
		values, err := encodeExprs(c.Values)
		if err != nil {
			return nil, err
		}
		bound, err := encodeExpr(c.HeightBound)
		if err != nil {
			return nil, err
		}
		return encode("existence", struct {
			Relation    relRefJSON `json:"relation"`
			Values      []*node    `json:"values"`
			Negated     bool       `json:"negated,omitempty"`
			HeightBound *node      `json:"height_bound,omitempty"`
		}{encodeRef(c.Relation), values, c.Negated, bound})
	case *ram.EmptinessCheck:
		return encode("emptiness", struct {
			Relation relRefJSON `json:"relation"`
		}{encodeRef(c.Relation)})
	}
	return nil, fmt.Errorf("unexpected condition type %T", c)
}

func decodeCond(n *node) (ram.Cond, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Type {
	case "comparison":
		var raw struct {
			Op  ram.CmpOp `json:"op"`
			LHS *node     `json:"lhs"`
			RHS *node     `json:"rhs"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		lhs, err := decodeExpr(raw.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(raw.RHS)
		if err != nil {
			return nil, err
		}
		return &ram.Comparison{Op: raw.Op, LHS: lhs, RHS: rhs}, nil
	case "conjunction":
		var raw struct {
			Conds []*node `json:"conds"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		conds := make([]ram.Cond, len(raw.Conds))
		for i := range raw.Conds {
			c, err := decodeCond(raw.Conds[i])
			if err != nil {
				return nil, err
			}
			conds[i] = c
		}
		return &ram.Conjunction{Conds: conds}, nil
	case "existence":
		var raw struct {
			Relation    relRefJSON `json:"relation"`
			Values      []*node    `json:"values"`
			Negated     bool       `json:"negated,omitempty"`
			HeightBound *node      `json:"height_bound,omitempty"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		values, err := decodeExprs(raw.Values)
		if err != nil {
			return nil, err
		}
		bound, err := decodeExpr(raw.HeightBound)
		if err != nil {
			return nil, err
		}
		return &ram.ExistenceCheck{Relation: decodeRef(raw.Relation), Values: values, Negated: raw.Negated, HeightBound: bound}, nil
	case "emptiness":
		var raw struct {
			Relation relRefJSON `json:"relation"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return &ram.EmptinessCheck{Relation: decodeRef(raw.Relation)}, nil
	}
	return nil, fmt.Errorf("unknown condition type %q", n.Type)
}

func encodeExprs(es []ram.Expr) ([]*node, error) {
	out := make([]*node, len(es))
	for i := range es {
		n, err := encodeExpr(es[i])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func decodeExprs(ns []*node) ([]ram.Expr, error) {
	out := make([]ram.Expr, len(ns))
	for i := range ns {
		e, err := decodeExpr(ns[i])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func encodeExpr(e ram.Expr) (*node, error) {
	if e == nil {
		return nil, nil
	}
	switch e := e.(type) {
	case ram.TupleElement:
		return encode("tuple_element", struct {
			TupleID int `json:"tuple_id"`
			Element int `json:"element"`
		}{e.TupleID, e.Element})
	case ram.Number:
		return encode("number", struct {
			Value int64 `json:"value"`
		}{e.Value})
	case ram.SymbolRef:
		return encode("symbol", struct {
			ID int `json:"id"`
		}{e.ID})
	case *ram.UnaryExpr:
		arg, err := encodeExpr(e.Arg)
		if err != nil {
			return nil, err
		}
		return encode("unary", struct {
			Op  ram.UnaryOp `json:"op"`
			Arg *node       `json:"arg"`
		}{e.Op, arg})
	case *ram.BinaryExpr:
		lhs, err := encodeExpr(e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := encodeExpr(e.RHS)
		if err != nil {
			return nil, err
		}
		return encode("binary", struct {
			Op  ram.BinaryOp `json:"op"`
			LHS *node        `json:"lhs"`
			RHS *node        `json:"rhs"`
		}{e.Op, lhs, rhs})
	case *ram.Call:
		args, err := encodeExprs(e.Args)
		if err != nil {
			return nil, err
		}
		return encode("call", struct {
			Functor string  `json:"functor"`
			Args    []*node `json:"args"`
		}{e.Functor, args})
	case *ram.Pack:
		args, err := encodeExprs(e.Args)
		if err != nil {
			return nil, err
		}
		return encode("pack", struct {
			Args []*node `json:"args"`
		}{args})
	case ram.AutoIncrement:
		return encode("autoincrement", struct {
			Counter int `json:"counter"`
		}{e.Counter})
	}
	return nil, fmt.Errorf("unexpected expression type %T", e)
}

func decodeExpr(n *node) (ram.Expr, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Type {
	case "tuple_element":
		var raw struct {
			TupleID int `json:"tuple_id"`
			Element int `json:"element"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return ram.TupleElement{TupleID: raw.TupleID, Element: raw.Element}, nil
	case "number":
		var raw struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return ram.Number{Value: raw.Value}, nil
	case "symbol":
		var raw struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return ram.SymbolRef{ID: raw.ID}, nil
	case "unary":
		var raw struct {
			Op  ram.UnaryOp `json:"op"`
			Arg *node       `json:"arg"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		arg, err := decodeExpr(raw.Arg)
		if err != nil {
			return nil, err
		}
		return &ram.UnaryExpr{Op: raw.Op, Arg: arg}, nil
	case "binary":
		var raw struct {
			Op  ram.BinaryOp `json:"op"`
			LHS *node        `json:"lhs"`
			RHS *node        `json:"rhs"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		lhs, err := decodeExpr(raw.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(raw.RHS)
		if err != nil {
			return nil, err
		}
		return &ram.BinaryExpr{Op: raw.Op, LHS: lhs, RHS: rhs}, nil
	case "call":
		var raw struct {
			Functor string  `json:"functor"`
			Args    []*node `json:"args"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		args, err := decodeExprs(raw.Args)
		if err != nil {
			return nil, err
		}
		return &ram.Call{Functor: raw.Functor, Args: args}, nil
	case "pack":
		var raw struct {
			Args []*node `json:"args"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		args, err := decodeExprs(raw.Args)
		if err != nil {
			return nil, err
		}
		return &ram.Pack{Args: args}, nil
	case "autoincrement":
		var raw struct {
			Counter int `json:"counter"`
		}
		if err := json.Unmarshal(n.Node, &raw); err != nil {
			return nil, err
		}
		return ram.AutoIncrement{Counter: raw.Counter}, nil
	}
	return nil, fmt.Errorf("unknown expression type %q", n.Type)
}
