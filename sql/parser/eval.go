// Copyright 2024 The Orion Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package parser

import (
	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// RowNumSource provides the value of the active ROWNUM counter during row
// production. The executor installs one per statement; expression
// evaluation outside a query block has none.
type RowNumSource interface {
	// CurrentRowNum returns the ordinal most recently assigned in the
	// active query block.
	CurrentRowNum() (int64, error)
}

// EvalContext defines the context for evaluating an expression.
type EvalContext struct {
	// RowNum is the active counter scope stack, or nil outside execution.
	RowNum RowNumSource
}

// Evaluable is implemented by expression nodes injected by the planner
// (column value placeholders, planned subqueries) that know how to produce
// their own value.
type Evaluable interface {
	Expr
	Eval(ctx *EvalContext) (Datum, error)
}

// EvalExpr evaluates an expression to a datum. Column references must have
// been replaced by planner value placeholders beforehand.
func EvalExpr(ctx *EvalContext, expr Expr) (Datum, error) {
	switch t := expr.(type) {
	case Datum:
		return t, nil

	case *RowNumExpr:
		if ctx.RowNum == nil {
			return nil, errors.Newf("%s is only allowed during query execution", RowNumName)
		}
		v, err := ctx.RowNum.CurrentRowNum()
		if err != nil {
			return nil, err
		}
		return DInt(v), nil

	case *ParenExpr:
		return EvalExpr(ctx, t.Expr)

	case *AndExpr:
		return evalAnd(ctx, t)

	case *OrExpr:
		return evalOr(ctx, t)

	case *NotExpr:
		d, err := EvalExpr(ctx, t.Expr)
		if err != nil {
			return nil, err
		}
		if d == DNull {
			return DNull, nil
		}
		b, ok := d.(DBool)
		if !ok {
			return nil, errors.Newf("argument of NOT must be type bool, not type %s", d.Type())
		}
		return !b, nil

	case *ComparisonExpr:
		return evalComparison(ctx, t)

	case *BinaryExpr:
		return evalBinary(ctx, t)

	case *UnaryExpr:
		d, err := EvalExpr(ctx, t.Expr)
		if err != nil {
			return nil, err
		}
		switch v := d.(type) {
		case DInt:
			return -v, nil
		case DFloat:
			return -v, nil
		case DDecimal:
			return DDecimal{Decimal: v.Decimal.Neg()}, nil
		case dNull:
			return DNull, nil
		}
		return nil, errors.Newf("unary minus not supported for type %s", d.Type())

	case *Tuple:
		tuple := make(DTuple, len(t.Exprs))
		for i, e := range t.Exprs {
			d, err := EvalExpr(ctx, e)
			if err != nil {
				return nil, err
			}
			tuple[i] = d
		}
		return tuple, nil

	case *QualifiedName:
		return nil, errors.AssertionFailedf("unresolved name reference: %s", t)

	case *Subquery:
		return nil, errors.AssertionFailedf("unplanned subquery expression: %s", t)

	case Evaluable:
		return t.Eval(ctx)
	}

	return nil, errors.AssertionFailedf("unsupported expression type: %T", expr)
}

func evalAnd(ctx *EvalContext, t *AndExpr) (Datum, error) {
	left, err := EvalExpr(ctx, t.Left)
	if err != nil {
		return nil, err
	}
	if b, ok := left.(DBool); ok && !bool(b) {
		return DBool(false), nil
	}
	right, err := EvalExpr(ctx, t.Right)
	if err != nil {
		return nil, err
	}
	if b, ok := right.(DBool); ok && !bool(b) {
		return DBool(false), nil
	}
	if left == DNull || right == DNull {
		return DNull, nil
	}
	if _, ok := left.(DBool); !ok {
		return nil, errors.Newf("argument of AND must be type bool, not type %s", left.Type())
	}
	if _, ok := right.(DBool); !ok {
		return nil, errors.Newf("argument of AND must be type bool, not type %s", right.Type())
	}
	return DBool(true), nil
}

func evalOr(ctx *EvalContext, t *OrExpr) (Datum, error) {
	left, err := EvalExpr(ctx, t.Left)
	if err != nil {
		return nil, err
	}
	if b, ok := left.(DBool); ok && bool(b) {
		return DBool(true), nil
	}
	right, err := EvalExpr(ctx, t.Right)
	if err != nil {
		return nil, err
	}
	if b, ok := right.(DBool); ok && bool(b) {
		return DBool(true), nil
	}
	if left == DNull || right == DNull {
		return DNull, nil
	}
	if _, ok := left.(DBool); !ok {
		return nil, errors.Newf("argument of OR must be type bool, not type %s", left.Type())
	}
	if _, ok := right.(DBool); !ok {
		return nil, errors.Newf("argument of OR must be type bool, not type %s", right.Type())
	}
	return DBool(false), nil
}

func evalComparison(ctx *EvalContext, t *ComparisonExpr) (Datum, error) {
	left, err := EvalExpr(ctx, t.Left)
	if err != nil {
		return nil, err
	}
	right, err := EvalExpr(ctx, t.Right)
	if err != nil {
		return nil, err
	}

	switch t.Operator {
	case In, NotIn:
		return evalIn(t.Operator, left, right)
	}

	if left == DNull || right == DNull {
		return DNull, nil
	}
	c, err := compareDatums(left, right)
	if err != nil {
		return nil, err
	}
	switch t.Operator {
	case EQ:
		return DBool(c == 0), nil
	case LT:
		return DBool(c < 0), nil
	case GT:
		return DBool(c > 0), nil
	case LE:
		return DBool(c <= 0), nil
	case GE:
		return DBool(c >= 0), nil
	case NE:
		return DBool(c != 0), nil
	}
	return nil, errors.AssertionFailedf("unsupported comparison operator: %s", t.Operator)
}

func evalIn(op ComparisonOperator, left, right Datum) (Datum, error) {
	if left == DNull {
		return DNull, nil
	}
	vals, ok := right.(DTuple)
	if !ok {
		return nil, errors.Newf("unsupported comparison: %s %s %s", left.Type(), op, right.Type())
	}
	found := false
	sawNull := false
	for _, v := range vals {
		if v == DNull {
			sawNull = true
			continue
		}
		c, err := compareDatums(left, v)
		if err != nil {
			return nil, err
		}
		if c == 0 {
			found = true
			break
		}
	}
	if !found && sawNull {
		return DNull, nil
	}
	if op == NotIn {
		return DBool(!found), nil
	}
	return DBool(found), nil
}

func evalBinary(ctx *EvalContext, t *BinaryExpr) (Datum, error) {
	left, err := EvalExpr(ctx, t.Left)
	if err != nil {
		return nil, err
	}
	right, err := EvalExpr(ctx, t.Right)
	if err != nil {
		return nil, err
	}
	if left == DNull || right == DNull {
		return DNull, nil
	}

	if l, lok := left.(DInt); lok {
		if r, rok := right.(DInt); rok {
			return evalIntOp(t.Operator, l, r)
		}
	}
	lf, lok := numericAsFloat(left)
	rf, rok := numericAsFloat(right)
	if !lok || !rok {
		return nil, errors.Newf("unsupported binary operands: %s %s %s", left.Type(), t.Operator, right.Type())
	}
	switch t.Operator {
	case Plus:
		return lf + rf, nil
	case Minus:
		return lf - rf, nil
	case Mult:
		return lf * rf, nil
	case Div:
		if rf == 0 {
			return nil, errors.New("division by zero")
		}
		return lf / rf, nil
	}
	return nil, errors.Newf("unsupported binary operands: %s %s %s", left.Type(), t.Operator, right.Type())
}

func evalIntOp(op BinaryOperator, l, r DInt) (Datum, error) {
	switch op {
	case Plus:
		return l + r, nil
	case Minus:
		return l - r, nil
	case Mult:
		return l * r, nil
	case Div:
		if r == 0 {
			return nil, errors.New("division by zero")
		}
		return l / r, nil
	case Mod:
		if r == 0 {
			return nil, errors.New("zero modulus")
		}
		return l % r, nil
	}
	return nil, errors.AssertionFailedf("unsupported int operator: %s", op)
}

func numericAsFloat(d Datum) (DFloat, bool) {
	switch v := d.(type) {
	case DInt:
		return DFloat(v), true
	case DFloat:
		return v, true
	case DDecimal:
		f, _ := v.Float64()
		return DFloat(f), true
	}
	return 0, false
}

// AsIntConstant returns the value of an integer literal, unwrapping
// parentheses and a leading unary minus. It is the constant-extraction
// helper used by the predicate classifier; anything non-literal reports
// ok=false.
func AsIntConstant(expr Expr) (int64, bool) {
	switch t := expr.(type) {
	case DInt:
		return int64(t), true
	case *ParenExpr:
		return AsIntConstant(t.Expr)
	case *UnaryExpr:
		v, ok := AsIntConstant(t.Expr)
		return -v, ok
	}
	return 0, false
}

// NewDecimalFromString builds a DDecimal from a numeric literal string.
func NewDecimalFromString(s string) (Datum, error) {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid numeric literal %q", s)
	}
	return DDecimal{Decimal: dec}, nil
}
