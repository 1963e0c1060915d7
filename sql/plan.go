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

// Package sql implements the query planner and the pull-based execution
// engine, including the ROWNUM pseudo-column: parse-time recognition is
// handled by sql/parser, this package classifies and rewrites ROWNUM
// predicates at plan time and maintains the per-block counter scopes at
// execution time.
package sql

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq/oid"

	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/sql/sqlbase"
)

// ResultColumn contains the name and type of a result column.
type ResultColumn struct {
	Name string
	Typ  parser.Datum
	// Oid is the wire-protocol type OID for the column, the identifier a
	// Postgres-style client would receive in a RowDescription.
	Oid oid.Oid

	// hidden marks a column added internally (e.g. an ORDER BY expression
	// that is not part of the render list). Hidden columns are not part of
	// the query result.
	hidden bool
}

// planNode defines the interface for executing a query or portion of a
// query. Rows are pulled one at a time via Next.
type planNode interface {
	// Columns returns the column names and types.
	Columns() []ResultColumn

	// Next advances to the next row, returning false if an error is
	// encountered or if there is no next row.
	Next() bool

	// Values returns the values at the current row. The result is only
	// valid until the next call to Next.
	Values() parser.DTuple

	// Err returns the error, if any, encountered during iteration.
	Err() error

	// Reset re-arms the node so that iteration restarts from the first
	// row under the current outer-column bindings. It is used when a
	// correlated subquery plan is invoked for a new outer row; any ROWNUM
	// counter scope belonging to the node starts over.
	Reset()

	// Close releases resources. A block closed before exhaustion retires
	// its counter scope, as happens when a limit stops pulling early.
	Close()

	// ExplainPlan returns a name and description for the node and a list
	// of its children, for EXPLAIN output.
	ExplainPlan() (name, description string, children []planNode)
}

// planner runs planning for a single statement: statement-to-plan
// conversion, name resolution, subquery planning and the ROWNUM predicate
// rewrite. It also owns the counter scope stack used during execution of
// the resulting plan.
type planner struct {
	ctx     context.Context
	catalog *sqlbase.Catalog
	session *Session
	evalCtx parser.EvalContext
	rowNums *rowNumStack

	// scopes is the stack of name-resolution scopes, innermost last.
	// Resolving a name against a non-innermost scope marks the statement
	// being planned as correlated.
	scopes []*planScope

	// outerRefs counts resolutions that crossed a scope boundary during
	// the planning of the current (sub)statement.
	outerRefs int
}

// planScope exposes one query block's FROM source to name resolution.
type planScope struct {
	node    *selectNode
	alias   string
	columns []ResultColumn
}

func makePlanner(ctx context.Context, catalog *sqlbase.Catalog, session *Session) *planner {
	p := &planner{
		ctx:     ctx,
		catalog: catalog,
		session: session,
		rowNums: &rowNumStack{},
	}
	p.evalCtx.RowNum = p.rowNums
	return p
}

// makePlan creates the query plan for a single statement and runs the
// plan-time rewrites over it.
func (p *planner) makePlan(stmt parser.Statement) (planNode, error) {
	switch n := stmt.(type) {
	case *parser.Select:
		plan, err := p.newPlan(n)
		if err != nil {
			return nil, err
		}
		return p.rewriteRowNum(plan)

	case *parser.Explain:
		plan, err := p.makePlan(n.Statement)
		if err != nil {
			return nil, err
		}
		return &explainNode{plan: plan}, nil

	case *parser.CreateTable:
		return p.CreateTable(n)

	case *parser.Insert:
		return p.Insert(n)

	case *parser.DropTable:
		return p.DropTable(n)
	}
	return nil, errors.Newf("unknown statement type: %T", stmt)
}

// newPlan constructs the plan for a SELECT: the body (select clause, set
// operation or VALUES), then sorting, then the limit.
func (p *planner) newPlan(sel *parser.Select) (planNode, error) {
	var plan planNode
	var s *selectNode

	switch t := sel.Select.(type) {
	case *parser.SelectClause:
		sn, err := p.planSelectClause(t)
		if err != nil {
			return nil, err
		}
		s = sn
		plan = sn
		if t.Distinct {
			plan = &distinctNode{plan: plan}
		}

	case *parser.UnionClause:
		un, err := p.planUnion(t)
		if err != nil {
			return nil, err
		}
		plan = un

	case *parser.ValuesClause:
		vn, err := p.planValues(t)
		if err != nil {
			return nil, err
		}
		plan = vn

	default:
		return nil, errors.Newf("unknown select statement type: %T", sel.Select)
	}

	sort, err := p.orderBy(sel.OrderBy, s, plan)
	if err != nil {
		return nil, err
	}
	if sort != nil {
		sort.plan = plan
		plan = sort
	}

	count, offset, err := p.evalLimit(sel.Limit)
	if err != nil {
		return nil, err
	}
	if count >= 0 || offset > 0 {
		// When nothing reorders or dedups rows between the limit and the
		// block, the block can stop producing early.
		if s != nil && sort == nil && plan == s && offset == 0 && count >= 0 {
			s.setHardLimit(count)
		}
		plan = &limitNode{plan: plan, count: count, offset: offset}
	}
	return plan, nil
}

// evalLimit evaluates the LIMIT and OFFSET clauses to constants. A missing
// count is reported as -1.
func (p *planner) evalLimit(limit *parser.Limit) (count, offset int64, _ error) {
	count = -1
	if limit == nil {
		return count, 0, nil
	}
	for _, part := range []struct {
		name string
		expr parser.Expr
		dst  *int64
	}{
		{"LIMIT", limit.Count, &count},
		{"OFFSET", limit.Offset, &offset},
	} {
		if part.expr == nil {
			continue
		}
		d, err := parser.EvalExpr(&parser.EvalContext{}, part.expr)
		if err != nil {
			return 0, 0, err
		}
		v, ok := d.(parser.DInt)
		if !ok {
			return 0, 0, errors.Newf("argument of %s must be type int, not type %s", part.name, d.Type())
		}
		if v < 0 {
			return 0, 0, errors.Newf("negative value for %s", part.name)
		}
		*part.dst = int64(v)
	}
	return count, offset, nil
}

// visibleColumns filters out hidden columns.
func visibleColumns(cols []ResultColumn) []ResultColumn {
	for i := range cols {
		if cols[i].hidden {
			vis := make([]ResultColumn, 0, len(cols))
			for _, c := range cols {
				if !c.hidden {
					vis = append(vis, c)
				}
			}
			return vis
		}
	}
	return cols
}

// pushScope makes a block's columns visible to name resolution in nested
// statements; popScope removes them.
func (p *planner) pushScope(s *planScope) {
	p.scopes = append(p.scopes, s)
}

func (p *planner) popScope() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}
