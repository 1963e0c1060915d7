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
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/util/log"
)

// rewriteDecision is the outcome of classifying one ROWNUM conjunct.
type rewriteDecision int

const (
	// decisionUnclassified leaves the conjunct as a runtime filter with
	// rollback-on-reject semantics.
	decisionUnclassified rewriteDecision = iota
	// decisionLimit converts the conjunct into a row bound on the block.
	decisionLimit
	// decisionAlwaysFalse proves the block returns no rows.
	decisionAlwaysFalse
	// decisionTautology proves the conjunct holds for every row; it is
	// dropped.
	decisionTautology
)

func (d rewriteDecision) String() string {
	switch d {
	case decisionUnclassified:
		return "unclassified"
	case decisionLimit:
		return "limit"
	case decisionAlwaysFalse:
		return "always-false"
	case decisionTautology:
		return "tautology"
	}
	return fmt.Sprintf("rewriteDecision(%d)", int(d))
}

// rownumClassification pairs a decision with the row bound for
// decisionLimit.
type rownumClassification struct {
	decision rewriteDecision
	limit    int64
}

// classifyRowNumComparison classifies "ROWNUM <op> v" for an integer
// constant v. The key facts: the first candidate row always sees ROWNUM=1,
// and a row rejected by a ROWNUM predicate rolls the counter back, so the
// counter can never grow past a failed upper bound.
//
//	ROWNUM <= v   v>=1: the first v rows, exactly; v<1: no row qualifies.
//	ROWNUM  < v   same as <= v-1.
//	ROWNUM  = v   v=1: first row only; otherwise unsatisfiable, since
//	              reaching v requires accepting v-1 first, which = v rejects.
//	ROWNUM  > v   v<=0: every row; v>=1: unsatisfiable, the counter sticks
//	              at 1 while every row is rejected.
//	ROWNUM >= v   same as > v-1.
//
// Anything else (!=, IN, non-constant operand, ROWNUM inside arithmetic)
// is left unclassified: the runtime counter semantics evaluate it
// correctly, just without the early-out.
func classifyRowNumComparison(op parser.ComparisonOperator, v int64) rownumClassification {
	// Canonicalize the strict/non-strict pairs.
	switch op {
	case parser.LT:
		op, v = parser.LE, v-1
	case parser.GE:
		op, v = parser.GT, v-1
	}

	switch op {
	case parser.LE:
		if v < 1 {
			return rownumClassification{decision: decisionAlwaysFalse}
		}
		return rownumClassification{decision: decisionLimit, limit: v}

	case parser.EQ:
		if v == 1 {
			return rownumClassification{decision: decisionLimit, limit: 1}
		}
		return rownumClassification{decision: decisionAlwaysFalse}

	case parser.GT:
		if v <= 0 {
			return rownumClassification{decision: decisionTautology}
		}
		return rownumClassification{decision: decisionAlwaysFalse}
	}
	return rownumClassification{decision: decisionUnclassified}
}

// asRowNumComparison matches a conjunct of the shape "ROWNUM <op> const"
// or "const <op> ROWNUM" (the latter is mirrored). Parentheses around the
// conjunct or either operand are transparent; anything deeper, such as
// ROWNUM inside arithmetic, does not match.
func asRowNumComparison(expr parser.Expr) (parser.ComparisonOperator, int64, bool) {
	expr = stripParens(expr)
	c, ok := expr.(*parser.ComparisonExpr)
	if !ok {
		return 0, 0, false
	}
	switch c.Operator {
	case parser.In, parser.NotIn:
		return 0, 0, false
	}

	if isRowNum(c.Left) {
		if v, ok := parser.AsIntConstant(c.Right); ok {
			return c.Operator, v, true
		}
		return 0, 0, false
	}
	if isRowNum(c.Right) {
		if v, ok := parser.AsIntConstant(c.Left); ok {
			return mirrorComparison(c.Operator), v, true
		}
	}
	return 0, 0, false
}

func stripParens(expr parser.Expr) parser.Expr {
	for {
		p, ok := expr.(*parser.ParenExpr)
		if !ok {
			return expr
		}
		expr = p.Expr
	}
}

func isRowNum(expr parser.Expr) bool {
	_, ok := stripParens(expr).(*parser.RowNumExpr)
	return ok
}

// mirrorComparison swaps the operand sides of a comparison operator.
func mirrorComparison(op parser.ComparisonOperator) parser.ComparisonOperator {
	switch op {
	case parser.LT:
		return parser.GT
	case parser.GT:
		return parser.LT
	case parser.LE:
		return parser.GE
	case parser.GE:
		return parser.LE
	}
	return op
}

// rewriteRowNum walks the plan tree and applies the ROWNUM predicate
// rewrite to every query block, innermost blocks first. The node kinds
// form a closed set; a new kind must be added here before it can carry
// blocks.
func (p *planner) rewriteRowNum(plan planNode) (planNode, error) {
	switch n := plan.(type) {
	case *selectNode:
		src, err := p.rewriteRowNum(n.source)
		if err != nil {
			return nil, err
		}
		n.source = src
		// Correlated subquery plans were rewritten when they were planned.
		return p.rewriteBlockFilter(n)

	case *sortNode:
		child, err := p.rewriteRowNum(n.plan)
		if err != nil {
			return nil, err
		}
		n.plan = child
		return n, nil

	case *limitNode:
		child, err := p.rewriteRowNum(n.plan)
		if err != nil {
			return nil, err
		}
		n.plan = child
		return n, nil

	case *distinctNode:
		child, err := p.rewriteRowNum(n.plan)
		if err != nil {
			return nil, err
		}
		n.plan = child
		return n, nil

	case *unionNode:
		left, err := p.rewriteRowNum(n.left)
		if err != nil {
			return nil, err
		}
		right, err := p.rewriteRowNum(n.right)
		if err != nil {
			return nil, err
		}
		n.left, n.right = left, right
		return n, nil

	case *scanNode, *valuesNode, *emptyNode, *oneRowNode:
		return plan, nil
	}
	return nil, errors.AssertionFailedf("unhandled plan node type %T in rownum rewrite", plan)
}

// rewriteBlockFilter splits the block's filter into AND-connected
// conjuncts and classifies each ROWNUM conjunct.
func (p *planner) rewriteBlockFilter(s *selectNode) (planNode, error) {
	if s.filter == nil {
		return s, nil
	}
	conjuncts := parser.SplitAndExprs(s.filter)

	var keep, residual []parser.Expr
	for _, c := range conjuncts {
		if !containsRowNum(c) {
			keep = append(keep, c)
			continue
		}

		if op, v, ok := asRowNumComparison(c); ok {
			cls := classifyRowNumComparison(op, v)
			switch cls.decision {
			case decisionLimit:
				log.VEventf(p.ctx, 2, "rewriting %s to row limit %d", c, cls.limit)
				s.setHardLimit(cls.limit)
				s.limitInjected = true
				continue

			case decisionAlwaysFalse:
				log.VEventf(p.ctx, 2, "predicate %s can never hold; emptying block", c)
				return &emptyNode{
					columns: s.Columns(),
					reason:  fmt.Sprintf("%s is always false", c),
				}, nil

			case decisionTautology:
				log.VEventf(p.ctx, 2, "predicate %s holds for every row; dropping", c)
				continue
			}
		}
		// Unclassified: evaluated at runtime after the provisional ordinal
		// assignment, with rollback on reject.
		residual = append(residual, c)
	}

	s.filter = parser.JoinAndExprs(keep)
	s.ordinalFilter = parser.JoinAndExprs(residual)
	return s, nil
}
