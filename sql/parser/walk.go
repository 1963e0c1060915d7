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

// Visitor defines methods invoked for nodes during an expression walk.
type Visitor interface {
	// VisitPre is called on a node before its children. If recurse is
	// false the children are skipped. newExpr replaces the node in the
	// rewritten tree.
	VisitPre(expr Expr) (recurse bool, newExpr Expr)
	// VisitPost is called on a node after its children.
	VisitPost(expr Expr) (newExpr Expr)
}

// WalkExpr traverses the expression tree in depth-first order, applying the
// visitor to every node, and returns the possibly-rewritten tree. The node
// kinds form a closed set; leaves of unknown kinds (e.g. planner-injected
// value placeholders) pass through untouched.
func WalkExpr(v Visitor, expr Expr) Expr {
	recurse, newExpr := v.VisitPre(expr)

	if recurse {
		switch t := newExpr.(type) {
		case *AndExpr:
			t.Left = WalkExpr(v, t.Left)
			t.Right = WalkExpr(v, t.Right)

		case *OrExpr:
			t.Left = WalkExpr(v, t.Left)
			t.Right = WalkExpr(v, t.Right)

		case *NotExpr:
			t.Expr = WalkExpr(v, t.Expr)

		case *ParenExpr:
			t.Expr = WalkExpr(v, t.Expr)

		case *ComparisonExpr:
			t.Left = WalkExpr(v, t.Left)
			t.Right = WalkExpr(v, t.Right)

		case *BinaryExpr:
			t.Left = WalkExpr(v, t.Left)
			t.Right = WalkExpr(v, t.Right)

		case *UnaryExpr:
			t.Expr = WalkExpr(v, t.Expr)

		case *Tuple:
			for i := range t.Exprs {
				t.Exprs[i] = WalkExpr(v, t.Exprs[i])
			}

		case *ExistsExpr:
			// The subquery is visited as a node of its own; the SELECT
			// inside is opaque to expression walks.
			sub := WalkExpr(v, t.Subquery)
			if s, ok := sub.(*Subquery); ok {
				t.Subquery = s
			} else {
				newExpr = sub
			}
		}
	}

	return v.VisitPost(newExpr)
}

// exprConjuncts appends the AND-connected conjuncts of expr to out,
// flattening nested ANDs and stripping redundant parens. Conjuncts joined
// by OR or other operators are kept whole.
func exprConjuncts(expr Expr, out []Expr) []Expr {
	switch t := expr.(type) {
	case *AndExpr:
		out = exprConjuncts(t.Left, out)
		return exprConjuncts(t.Right, out)
	case *ParenExpr:
		// A parenthesized AND is still a conjunction.
		if _, ok := t.Expr.(*AndExpr); ok {
			return exprConjuncts(t.Expr, out)
		}
	}
	return append(out, expr)
}

// SplitAndExprs returns the AND-connected conjuncts of expr.
func SplitAndExprs(expr Expr) []Expr {
	if expr == nil {
		return nil
	}
	return exprConjuncts(expr, nil)
}

// JoinAndExprs rebuilds a conjunction from its conjuncts. It returns nil
// for an empty list.
func JoinAndExprs(exprs []Expr) Expr {
	var result Expr
	for _, e := range exprs {
		if result == nil {
			result = e
			continue
		}
		result = &AndExpr{Left: result, Right: e}
	}
	return result
}
