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

package sql

import (
	"github.com/cockroachdb/errors"

	"github.com/oriondb/orion/sql/parser"
)

// subqueryMode describes how a subquery expression's rows become a datum.
type subqueryMode int

const (
	// subqueryScalar: at most one row; its value (or NULL) is the result.
	subqueryScalar subqueryMode = iota
	// subqueryExists: the result is whether any row exists.
	subqueryExists
	// subqueryAllRows: all rows collected into a tuple, for IN.
	subqueryAllRows
)

// subqueryExpr is a planned correlated subquery embedded in an outer
// block's expression. Every evaluation resets the plan and runs it against
// the outer row currently bound in the enclosing blocks' qvalues; ROWNUM
// scopes inside start over from 1 on each invocation, while the caller's
// scope sits saved on the stack underneath.
type subqueryExpr struct {
	plan planNode
	mode subqueryMode
	typ  parser.Datum
}

var _ parser.Evaluable = (*subqueryExpr)(nil)

func (s *subqueryExpr) String() string { return "<subquery>" }

func (s *subqueryExpr) Eval(_ *parser.EvalContext) (parser.Datum, error) {
	s.plan.Reset()
	return s.execute()
}

// execute drains the subquery plan per the mode.
func (s *subqueryExpr) execute() (parser.Datum, error) {
	switch s.mode {
	case subqueryExists:
		if s.plan.Next() {
			return parser.DBool(true), nil
		}
		if err := s.plan.Err(); err != nil {
			return nil, err
		}
		return parser.DBool(false), nil

	case subqueryScalar:
		var result parser.Datum = parser.DNull
		if s.plan.Next() {
			result = rowAsDatum(s.plan.Values())
			if s.plan.Next() {
				return nil, errors.New("more than one row returned by a subquery used as an expression")
			}
		}
		if err := s.plan.Err(); err != nil {
			return nil, err
		}
		return result, nil

	case subqueryAllRows:
		var rows parser.DTuple
		for s.plan.Next() {
			rows = append(rows, rowAsDatum(s.plan.Values()))
		}
		if err := s.plan.Err(); err != nil {
			return nil, err
		}
		rows.Normalize()
		return rows, nil
	}
	return nil, errors.AssertionFailedf("unknown subquery mode %d", s.mode)
}

func rowAsDatum(row parser.DTuple) parser.Datum {
	if len(row) == 1 {
		return row[0]
	}
	out := make(parser.DTuple, len(row))
	copy(out, row)
	return out
}

// replaceSubqueries plans every subquery expression inside expr. An
// uncorrelated subquery runs once, now, and is replaced by its value; a
// correlated one is replaced by a subqueryExpr re-run per outer row.
func (p *planner) replaceSubqueries(s *selectNode, expr parser.Expr) (parser.Expr, error) {
	v := subqueryVisitor{p: p, s: s}
	expr = parser.WalkExpr(&v, expr)
	if v.err != nil {
		return nil, v.err
	}
	return expr, nil
}

type subqueryVisitor struct {
	p   *planner
	s   *selectNode
	err error
}

var _ parser.Visitor = (*subqueryVisitor)(nil)

func (v *subqueryVisitor) VisitPre(expr parser.Expr) (bool, parser.Expr) {
	if v.err != nil {
		return false, expr
	}
	switch t := expr.(type) {
	case *parser.ExistsExpr:
		e, err := v.planSubquery(t.Subquery, subqueryExists)
		if err != nil {
			v.err = err
			return false, expr
		}
		return false, e

	case *parser.ComparisonExpr:
		if t.Operator == parser.In || t.Operator == parser.NotIn {
			if sub, ok := t.Right.(*parser.Subquery); ok {
				e, err := v.planSubquery(sub, subqueryAllRows)
				if err != nil {
					v.err = err
					return false, expr
				}
				t.Right = e
			}
		}
		return true, expr

	case *parser.Subquery:
		e, err := v.planSubquery(t, subqueryScalar)
		if err != nil {
			v.err = err
			return false, expr
		}
		return false, e
	}
	return true, expr
}

func (v *subqueryVisitor) VisitPost(expr parser.Expr) parser.Expr { return expr }

func (v *subqueryVisitor) planSubquery(sub *parser.Subquery, mode subqueryMode) (parser.Expr, error) {
	baseRefs := v.p.outerRefs
	plan, err := v.p.newPlan(sub.Select)
	if err != nil {
		return nil, err
	}
	plan, err = v.p.rewriteRowNum(plan)
	if err != nil {
		return nil, err
	}

	var typ parser.Datum = parser.DNull
	switch mode {
	case subqueryExists:
		typ = parser.DummyBool
	case subqueryScalar, subqueryAllRows:
		if cols := plan.Columns(); len(cols) == 1 {
			typ = cols[0].Typ
		} else {
			typ = parser.DTuple(nil)
		}
	}
	se := &subqueryExpr{plan: plan, mode: mode, typ: typ}

	if v.p.outerRefs > baseRefs {
		// Correlated: keep the plan for per-row execution and close it
		// with the owning block.
		v.s.subplans = append(v.s.subplans, plan)
		return se, nil
	}

	// Uncorrelated: one execution at plan time yields a constant.
	defer plan.Close()
	d, err := se.execute()
	if err != nil {
		return nil, err
	}
	return d, nil
}
