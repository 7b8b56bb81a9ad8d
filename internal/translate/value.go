// Copyright 2025 The Stratlog Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package translate

import (
	"github.com/stratlog/stratlog/ast"
	"github.com/stratlog/stratlog/ram"
)

// valueTranslator maps value-expression terms to RAM expressions. Both
// strategies share this implementation; provenance metadata never changes
// how values are computed.
type valueTranslator struct {
	ctx    *Context
	vi     *valueIndex
	scope  *scope
	clause string // head clause, for diagnostics
}

func (vt *valueTranslator) Translate(t ast.Term) (ram.Expr, error) {
	switch t := t.(type) {
	case *ast.Variable:
		if t.Wildcard() {
			return nil, internalErr(vt.clause, "wildcard in value position")
		}
		e, ok := vt.vi.lookup(t.Name)
		if !ok {
			// A head or constraint variable with no binding is a compiler
			// bug upstream, not a user error.
			return nil, internalErr(vt.clause, "variable %v is unbound", t.Name)
		}
		return e, nil
	case *ast.NumberConst:
		return ram.Number{Value: t.Value}, nil
	case *ast.SymbolConst:
		return ram.SymbolRef{ID: vt.ctx.SymbolTable().Intern(t.Value)}, nil
	case *ast.UnaryExpr:
		arg, err := vt.Translate(t.Arg)
		if err != nil {
			return nil, err
		}
		return fold(&ram.UnaryExpr{Op: ram.UnaryOp(t.Op), Arg: arg}), nil
	case *ast.BinaryExpr:
		lhs, err := vt.Translate(t.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := vt.Translate(t.RHS)
		if err != nil {
			return nil, err
		}
		return fold(&ram.BinaryExpr{Op: ram.BinaryOp(t.Op), LHS: lhs, RHS: rhs}), nil
	case *ast.FunctorCall:
		args := make([]ram.Expr, len(t.Args))
		for i := range t.Args {
			arg, err := vt.Translate(t.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return &ram.Call{Functor: t.Name, Args: args}, nil
	case *ast.RecordCtor:
		args := make([]ram.Expr, len(t.Args))
		for i := range t.Args {
			arg, err := vt.Translate(t.Args[i])
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		return &ram.Pack{Args: args}, nil
	case *ast.Counter:
		return ram.AutoIncrement{Counter: vt.scope.counter}, nil
	case *ast.Aggregate:
		// Aggregates only occur as binding literals; the clause translator
		// routes them through the constraint translator.
		return nil, internalErr(vt.clause, "aggregate in value position")
	}
	return nil, unsupportedErr(vt.clause, "value term %T", t)
}

// fold resolves arithmetic over constants at translation time so that
// downstream filters compare against literals. Folding applies the
// evaluator's integer semantics: division truncates toward zero and the
// modulo sign follows the dividend. Division and modulo by zero are left
// unfolded; they surface as evaluation errors.
func fold(e ram.Expr) ram.Expr {
	switch e := e.(type) {
	case *ram.UnaryExpr:
		arg, ok := e.Arg.(ram.Number)
		if !ok {
			return e
		}
		switch e.Op {
		case ram.OpNeg:
			return ram.Number{Value: -arg.Value}
		case ram.OpBnot:
			return ram.Number{Value: ^arg.Value}
		case ram.OpLnot:
			if arg.Value == 0 {
				return ram.Number{Value: 1}
			}
			return ram.Number{Value: 0}
		}
	case *ram.BinaryExpr:
		lhs, lok := e.LHS.(ram.Number)
		rhs, rok := e.RHS.(ram.Number)
		if !lok || !rok {
			return e
		}
		switch e.Op {
		case ram.OpAdd:
			return ram.Number{Value: lhs.Value + rhs.Value}
		case ram.OpSub:
			return ram.Number{Value: lhs.Value - rhs.Value}
		case ram.OpMul:
			return ram.Number{Value: lhs.Value * rhs.Value}
		case ram.OpDiv:
			if rhs.Value != 0 {
				return ram.Number{Value: lhs.Value / rhs.Value}
			}
		case ram.OpMod:
			if rhs.Value != 0 {
				return ram.Number{Value: lhs.Value % rhs.Value}
			}
		case ram.OpMax:
			return ram.Number{Value: max(lhs.Value, rhs.Value)}
		case ram.OpMin:
			return ram.Number{Value: min(lhs.Value, rhs.Value)}
		}
	}
	return e
}
