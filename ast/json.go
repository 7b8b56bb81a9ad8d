// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package ast

import (
	"encoding/json"
	"fmt"
)

// JSON encoding of programs. Terms and literals are encoded as
// type-discriminated objects so Program values round-trip through
// encoding/json. This is the input format accepted by the CLI, since
// Datalog source parsing happens upstream.

const (
	jsonTypeVar      = "var"
	jsonTypeNumber   = "number"
	jsonTypeSymbol   = "symbol"
	jsonTypeUnary    = "unary"
	jsonTypeBinary   = "binary"
	jsonTypeFunctor  = "functor"
	jsonTypeRecord   = "record"
	jsonTypeAgg      = "aggregate"
	jsonTypeCounter  = "counter"
	jsonTypeAtom     = "atom"
	jsonTypeNegation = "negation"
	jsonTypeCmp      = "comparison"
	jsonTypeBinding  = "binding"
)

type typedNode struct {
	Type string          `json:"type"`
	Node json.RawMessage `json:"node"`
}

func marshalTyped(typ string, node any) ([]byte, error) {
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	return json.Marshal(typedNode{Type: typ, Node: raw})
}

func termTypeName(t Term) (string, error) {
	switch t.(type) {
	case *Variable:
		return jsonTypeVar, nil
	case *NumberConst:
		return jsonTypeNumber, nil
	case *SymbolConst:
		return jsonTypeSymbol, nil
	case *UnaryExpr:
		return jsonTypeUnary, nil
	case *BinaryExpr:
		return jsonTypeBinary, nil
	case *FunctorCall:
		return jsonTypeFunctor, nil
	case *RecordCtor:
		return jsonTypeRecord, nil
	case *Aggregate:
		return jsonTypeAgg, nil
	case *Counter:
		return jsonTypeCounter, nil
	}
	return "", fmt.Errorf("unexpected term type %T", t)
}

// termJSON carries every field any term variant uses. Variants only read
// the fields they declare.
type termJSON struct {
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Op    int             `json:"op,omitempty"`
	Arg   *termEnv        `json:"arg,omitempty"`
	LHS   *termEnv        `json:"lhs,omitempty"`
	RHS   *termEnv        `json:"rhs,omitempty"`
	Args  []*termEnv      `json:"args,omitempty"`
	Expr  *termEnv        `json:"expr,omitempty"`
	Body  *Atom           `json:"body,omitempty"`
}

// termEnv wraps a Term for encoding inside container nodes.
type termEnv struct {
	Term
}

func (e termEnv) MarshalJSON() ([]byte, error) {
	typ, err := termTypeName(e.Term)
	if err != nil {
		return nil, err
	}
	return marshalTyped(typ, rawTerm(e.Term))
}

func (e *termEnv) UnmarshalJSON(bs []byte) error {
	t, err := unmarshalTerm(bs)
	if err != nil {
		return err
	}
	e.Term = t
	return nil
}

// rawTerm strips the envelope so concrete term fields marshal without
// re-entering the term marshaler on the node itself.
func rawTerm(t Term) any {
	switch t := t.(type) {
	case *Variable:
		return struct {
			Name string `json:"name"`
		}{t.Name}
	case *NumberConst:
		return struct {
			Value int64 `json:"value"`
		}{t.Value}
	case *SymbolConst:
		return struct {
			Value string `json:"value"`
		}{t.Value}
	case *UnaryExpr:
		return struct {
			Op  UnaryOp `json:"op"`
			Arg termEnv `json:"arg"`
		}{t.Op, termEnv{t.Arg}}
	case *BinaryExpr:
		return struct {
			Op  BinaryOp `json:"op"`
			LHS termEnv  `json:"lhs"`
			RHS termEnv  `json:"rhs"`
		}{t.Op, termEnv{t.LHS}, termEnv{t.RHS}}
	case *FunctorCall:
		return struct {
			Name string    `json:"name"`
			Args []termEnv `json:"args,omitempty"`
		}{t.Name, wrapTerms(t.Args)}
	case *RecordCtor:
		return struct {
			Args []termEnv `json:"args,omitempty"`
		}{wrapTerms(t.Args)}
	case *Aggregate:
		var expr *termEnv
		if t.Value != nil {
			expr = &termEnv{t.Value}
		}
		return struct {
			Op   AggregateOp `json:"op"`
			Expr *termEnv    `json:"expr,omitempty"`
			Body *Atom       `json:"body"`
		}{t.Op, expr, t.Body}
	case *Counter:
		return struct{}{}
	}
	return nil
}

func wrapTerms(ts []Term) []termEnv {
	if len(ts) == 0 {
		return nil
	}
	out := make([]termEnv, len(ts))
	for i := range ts {
		out[i] = termEnv{ts[i]}
	}
	return out
}

func unwrapTerms(es []*termEnv) []Term {
	if len(es) == 0 {
		return nil
	}
	out := make([]Term, len(es))
	for i := range es {
		out[i] = es[i].Term
	}
	return out
}

func unmarshalTerm(bs []byte) (Term, error) {
	var env typedNode
	if err := json.Unmarshal(bs, &env); err != nil {
		return nil, err
	}
	var node termJSON
	if len(env.Node) > 0 {
		if err := json.Unmarshal(env.Node, &node); err != nil {
			return nil, err
		}
	}
	switch env.Type {
	case jsonTypeVar:
		return &Variable{Name: node.Name}, nil
	case jsonTypeNumber:
		var v int64
		if err := json.Unmarshal(node.Value, &v); err != nil {
			return nil, err
		}
		return &NumberConst{Value: v}, nil
	case jsonTypeSymbol:
		var s string
		if err := json.Unmarshal(node.Value, &s); err != nil {
			return nil, err
		}
		return &SymbolConst{Value: s}, nil
	case jsonTypeUnary:
		return &UnaryExpr{Op: UnaryOp(node.Op), Arg: node.Arg.Term}, nil
	case jsonTypeBinary:
		return &BinaryExpr{Op: BinaryOp(node.Op), LHS: node.LHS.Term, RHS: node.RHS.Term}, nil
	case jsonTypeFunctor:
		return &FunctorCall{Name: node.Name, Args: unwrapTerms(node.Args)}, nil
	case jsonTypeRecord:
		return &RecordCtor{Args: unwrapTerms(node.Args)}, nil
	case jsonTypeAgg:
		agg := &Aggregate{Op: AggregateOp(node.Op), Body: node.Body}
		if node.Expr != nil {
			agg.Value = node.Expr.Term
		}
		return agg, nil
	case jsonTypeCounter:
		return &Counter{}, nil
	}
	return nil, fmt.Errorf("unknown term type %q", env.Type)
}

// MarshalJSON implements json.Marshaler.
func (a *Atom) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Relation string    `json:"relation"`
		Args     []termEnv `json:"args,omitempty"`
	}{a.Relation, wrapTerms(a.Args)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Atom) UnmarshalJSON(bs []byte) error {
	var raw struct {
		Relation string     `json:"relation"`
		Args     []*termEnv `json:"args,omitempty"`
	}
	if err := json.Unmarshal(bs, &raw); err != nil {
		return err
	}
	a.Relation = raw.Relation
	a.Args = unwrapTerms(raw.Args)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c *Comparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op  CmpOp   `json:"op"`
		LHS termEnv `json:"lhs"`
		RHS termEnv `json:"rhs"`
	}{c.Op, termEnv{c.LHS}, termEnv{c.RHS}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Comparison) UnmarshalJSON(bs []byte) error {
	var raw struct {
		Op  CmpOp    `json:"op"`
		LHS *termEnv `json:"lhs"`
		RHS *termEnv `json:"rhs"`
	}
	if err := json.Unmarshal(bs, &raw); err != nil {
		return err
	}
	c.Op = raw.Op
	c.LHS = raw.LHS.Term
	c.RHS = raw.RHS.Term
	return nil
}

// MarshalJSON implements json.Marshaler.
func (b *Binding) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Var   string  `json:"var"`
		Value termEnv `json:"value"`
	}{b.Var, termEnv{b.Value}})
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Binding) UnmarshalJSON(bs []byte) error {
	var raw struct {
		Var   string   `json:"var"`
		Value *termEnv `json:"value"`
	}
	if err := json.Unmarshal(bs, &raw); err != nil {
		return err
	}
	agg, ok := raw.Value.Term.(*Aggregate)
	if !ok {
		return fmt.Errorf("binding value must be an aggregate")
	}
	b.Var = raw.Var
	b.Value = agg
	return nil
}

func literalTypeName(l Literal) (string, error) {
	switch l.(type) {
	case *Atom:
		return jsonTypeAtom, nil
	case *Negation:
		return jsonTypeNegation, nil
	case *Comparison:
		return jsonTypeCmp, nil
	case *Binding:
		return jsonTypeBinding, nil
	}
	return "", fmt.Errorf("unexpected literal type %T", l)
}

type literalEnv struct {
	Literal
}

func (e literalEnv) MarshalJSON() ([]byte, error) {
	typ, err := literalTypeName(e.Literal)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(e.Literal)
	if err != nil {
		return nil, err
	}
	return json.Marshal(typedNode{Type: typ, Node: raw})
}

func (e *literalEnv) UnmarshalJSON(bs []byte) error {
	var env typedNode
	if err := json.Unmarshal(bs, &env); err != nil {
		return err
	}
	var l Literal
	switch env.Type {
	case jsonTypeAtom:
		l = &Atom{}
	case jsonTypeNegation:
		l = &Negation{}
	case jsonTypeCmp:
		l = &Comparison{}
	case jsonTypeBinding:
		l = &Binding{}
	default:
		return fmt.Errorf("unknown literal type %q", env.Type)
	}
	if err := json.Unmarshal(env.Node, l); err != nil {
		return err
	}
	e.Literal = l
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c *Clause) MarshalJSON() ([]byte, error) {
	body := make([]literalEnv, len(c.Body))
	for i := range c.Body {
		body[i] = literalEnv{c.Body[i]}
	}
	return json.Marshal(struct {
		Head *Atom        `json:"head"`
		Body []literalEnv `json:"body,omitempty"`
	}{c.Head, body})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Clause) UnmarshalJSON(bs []byte) error {
	var raw struct {
		Head *Atom         `json:"head"`
		Body []*literalEnv `json:"body,omitempty"`
	}
	if err := json.Unmarshal(bs, &raw); err != nil {
		return err
	}
	c.Head = raw.Head
	c.Body = nil
	for i := range raw.Body {
		c.Body = append(c.Body, raw.Body[i].Literal)
	}
	return nil
}
