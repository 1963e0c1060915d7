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
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/sql/sqlbase"
	"github.com/oriondb/orion/util/log"
)

// qvalue is the planner's placeholder for a column reference: name
// resolution replaces a QualifiedName with the qvalue for the referenced
// source column, and the owning block copies the current source row into
// its qvalues before evaluating any expression. A correlated subquery holds
// qvalues owned by an enclosing block, which is how it sees the outer row.
type qvalue struct {
	datum  parser.Datum
	col    ResultColumn
	colIdx int
}

var _ parser.Evaluable = (*qvalue)(nil)

func (q *qvalue) String() string { return q.col.Name }

// Eval returns the column value bound for the current source row.
func (q *qvalue) Eval(_ *parser.EvalContext) (parser.Datum, error) {
	if q.datum == nil {
		return nil, errors.AssertionFailedf("column %q read before row binding", q.col.Name)
	}
	return q.datum, nil
}

// selectNode is a query block: it pulls rows from its FROM source, applies
// the WHERE filter and projects the render expressions.
//
// The block owns the ROWNUM counter scope for every ordinal reference that
// appears in its own renders and filters. A surviving source row is
// assigned its ordinal here, before the row ever reaches a sort or any
// other buffering parent, which is what fixes ordinals in production order
// rather than output order.
type selectNode struct {
	planner *planner

	source     planNode
	sourceCols []ResultColumn

	// scope is the name-resolution scope this block exposes to ORDER BY
	// resolution and to nested statements.
	scope *planScope

	// qvals maps source column indexes to the placeholders bound into the
	// block's expressions.
	qvals map[int]*qvalue

	render  []parser.Expr
	columns []ResultColumn

	// filter holds the conjuncts evaluated before ordinal assignment: a
	// row rejected here never consumes an ordinal.
	filter parser.Expr

	// ordinalFilter holds the ROWNUM conjuncts the predicate rewrite could
	// not classify. It is evaluated after the provisional ordinal
	// assignment; a rejected row rolls the assignment back.
	ordinalFilter parser.Expr

	// hasRowNum is set when any expression of the block references ROWNUM.
	hasRowNum bool

	// hardLimit, when non-negative, stops the block after that many rows.
	// It merges an explicit pushed-down LIMIT with a bound derived from a
	// ROWNUM predicate.
	hardLimit int64
	// limitInjected records that hardLimit (or part of it) came from a
	// rewritten ROWNUM predicate, for EXPLAIN.
	limitInjected bool

	// subplans are the plans of correlated subquery expressions embedded
	// in this block's expressions.
	subplans []planNode

	counter     *rowCounter
	row         parser.DTuple
	rowsEmitted int64
	done        bool
	err         error
}

func (s *selectNode) Columns() []ResultColumn { return visibleColumns(s.columns) }
func (s *selectNode) Err() error              { return s.err }

// Values returns the full render row, hidden sort columns included; parents
// that surface rows to the client truncate to the visible prefix.
func (s *selectNode) Values() parser.DTuple { return s.row }

func (s *selectNode) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	if s.counter == nil {
		// First pull: the block begins producing, so its counter scope is
		// created and becomes the active one for the duration of each pull.
		s.counter = &rowCounter{}
	}
	if err := s.planner.rowNums.enter(s.counter); err != nil {
		s.err = err
		return false
	}
	defer func() {
		if err := s.planner.rowNums.exit(s.counter); err != nil && s.err == nil {
			s.err = err
		}
	}()

	if s.hardLimit >= 0 && s.rowsEmitted >= s.hardLimit {
		s.finish()
		return false
	}

	for s.source.Next() {
		s.bindRow(s.source.Values())

		if s.filter != nil {
			d, err := parser.EvalExpr(&s.planner.evalCtx, s.filter)
			if err != nil {
				s.err = err
				return false
			}
			if d != parser.DBool(true) {
				continue
			}
		}

		// The row survived the ordinary filters: assign its ordinal.
		s.counter.incrementAndRead()

		if s.ordinalFilter != nil {
			d, err := parser.EvalExpr(&s.planner.evalCtx, s.ordinalFilter)
			if err != nil {
				s.err = err
				return false
			}
			if d != parser.DBool(true) {
				// The row is rejected by a ROWNUM predicate, so its ordinal
				// was never really assigned: the next surviving row must
				// receive this same value.
				if err := s.counter.rollback(); err != nil {
					s.err = err
					return false
				}
				continue
			}
		}

		if err := s.renderRow(); err != nil {
			s.err = err
			return false
		}
		s.rowsEmitted++
		return true
	}

	s.err = s.source.Err()
	s.finish()
	return false
}

func (s *selectNode) finish() {
	s.done = true
	if s.counter != nil {
		s.counter.state = counterExhausted
	}
}

// bindRow copies the current source row into the block's qvalues.
func (s *selectNode) bindRow(row parser.DTuple) {
	for idx, q := range s.qvals {
		q.datum = row[idx]
	}
}

func (s *selectNode) renderRow() error {
	if s.row == nil {
		s.row = make(parser.DTuple, len(s.render))
	}
	for i, e := range s.render {
		d, err := parser.EvalExpr(&s.planner.evalCtx, e)
		if err != nil {
			return err
		}
		s.row[i] = d
	}
	return nil
}

func (s *selectNode) Reset() {
	s.done = false
	s.err = nil
	s.rowsEmitted = 0
	s.row = nil
	// A fresh counter scope: a re-invoked block numbers its rows from 1.
	s.counter = nil
	s.source.Reset()
	for _, sub := range s.subplans {
		sub.Reset()
	}
}

func (s *selectNode) Close() {
	if s.counter != nil {
		s.counter.state = counterExhausted
	}
	s.done = true
	s.source.Close()
	for _, sub := range s.subplans {
		sub.Close()
	}
}

func (s *selectNode) ExplainPlan() (name, description string, children []planNode) {
	var buf strings.Builder
	for i, r := range s.render {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s", r)
	}
	if s.filter != nil {
		fmt.Fprintf(&buf, " WHERE %s", s.filter)
	}
	if s.ordinalFilter != nil {
		fmt.Fprintf(&buf, " ROWNUM FILTER %s", s.ordinalFilter)
	}
	if s.hardLimit >= 0 {
		if s.limitInjected {
			fmt.Fprintf(&buf, " (injected limit: %d)", s.hardLimit)
		} else {
			fmt.Fprintf(&buf, " (limit: %d)", s.hardLimit)
		}
	}
	children = []planNode{s.source}
	children = append(children, s.subplans...)
	return "select", buf.String(), children
}

// setHardLimit installs a row bound on the block, keeping the tighter of
// the new bound and any existing one.
func (s *selectNode) setHardLimit(n int64) {
	if s.hardLimit < 0 || n < s.hardLimit {
		s.hardLimit = n
	}
}

// planSelectClause builds the selectNode for one SELECT...FROM...WHERE
// query block: it plans the FROM source, resolves names, plans subquery
// expressions and assembles the render list.
func (p *planner) planSelectClause(clause *parser.SelectClause) (*selectNode, error) {
	s := &selectNode{
		planner:   p,
		qvals:     make(map[int]*qvalue),
		hardLimit: -1,
	}

	if err := p.initFrom(s, clause.From); err != nil {
		return nil, err
	}

	s.scope = &planScope{node: s, alias: s.scope.alias, columns: s.sourceCols}
	p.pushScope(s.scope)
	defer p.popScope()

	for _, sel := range clause.Exprs {
		switch t := sel.(type) {
		case *parser.StarExpr:
			if len(s.sourceCols) == 0 {
				return nil, errors.New("cannot use \"*\" without a FROM clause")
			}
			for idx, col := range s.sourceCols {
				if col.hidden {
					continue
				}
				s.render = append(s.render, s.getQVal(idx))
				s.columns = append(s.columns, ResultColumn{Name: col.Name, Typ: col.Typ, Oid: col.Oid})
			}

		case *parser.NonStarExpr:
			expr, err := p.analyzeExpr(s, t.Expr)
			if err != nil {
				return nil, err
			}
			s.render = append(s.render, expr)
			typ := typeOfExpr(expr)
			s.columns = append(s.columns, ResultColumn{
				Name: renderName(t, expr),
				Typ:  typ,
				Oid:  sqlbase.OidForDatum(typ),
			})
		}
	}

	if clause.Where != nil {
		filter, err := p.analyzeExpr(s, clause.Where.Expr)
		if err != nil {
			return nil, err
		}
		s.filter = filter
	}

	s.hasRowNum = containsRowNum(s.filter)
	for _, r := range s.render {
		if containsRowNum(r) {
			s.hasRowNum = true
			break
		}
	}
	if scan, ok := s.source.(*scanNode); ok && scan.parallel && s.hasRowNum {
		// Ordinal assignment needs the scan's original row order, so a
		// parallel scan strategy is forced back to serial for this block.
		log.VEventf(p.ctx, 1, "forcing serial scan of %s: block references %s",
			scan.desc.Name, parser.RowNumName)
		scan.parallel = false
	}
	return s, nil
}

// initFrom plans the FROM clause into s.source and records the source's
// columns and alias for name resolution.
func (p *planner) initFrom(s *selectNode, from parser.TableExprs) (err error) {
	s.scope = &planScope{}
	switch len(from) {
	case 0:
		// A FROM-less select produces its renders against one pseudo-row.
		s.source = &oneRowNode{}
		return nil

	case 1:
		ate, ok := from[0].(*parser.AliasedTableExpr)
		if !ok {
			return errors.Newf("unsupported FROM type: %T", from[0])
		}
		switch t := ate.Expr.(type) {
		case *parser.TableName:
			scan, err := p.newScan(string(t.Name))
			if err != nil {
				return err
			}
			s.source = scan
			s.sourceCols = scan.Columns()
			s.scope.alias = string(t.Name)

		case *parser.Subquery:
			plan, err := p.newPlan(t.Select)
			if err != nil {
				return err
			}
			s.source = plan
			s.sourceCols = plan.Columns()
			if ate.As == "" {
				return errors.New("subquery in FROM must have an alias")
			}

		default:
			return errors.Newf("unsupported FROM type: %T", ate.Expr)
		}
		if ate.As != "" {
			s.scope.alias = string(ate.As)
		}
		return nil
	}
	return errors.New("unsupported: joins in FROM clause")
}

// getQVal returns the placeholder for a source column, creating it on
// first reference.
func (s *selectNode) getQVal(colIdx int) *qvalue {
	if q, ok := s.qvals[colIdx]; ok {
		return q
	}
	q := &qvalue{col: s.sourceCols[colIdx], colIdx: colIdx}
	s.qvals[colIdx] = q
	return q
}

// analyzeExpr prepares an expression for execution: subquery expressions
// are planned and column references are bound to source columns.
func (p *planner) analyzeExpr(s *selectNode, expr parser.Expr) (parser.Expr, error) {
	expr, err := p.replaceSubqueries(s, expr)
	if err != nil {
		return nil, err
	}
	return p.resolveNames(expr)
}

// resolveNames replaces every QualifiedName in expr with the qvalue of the
// column it references, searching the innermost scope outward. A binding
// that crosses a scope boundary is an outer reference and marks the
// statement under planning as correlated.
func (p *planner) resolveNames(expr parser.Expr) (parser.Expr, error) {
	v := nameResolver{p: p}
	expr = parser.WalkExpr(&v, expr)
	if v.err != nil {
		return nil, v.err
	}
	return expr, nil
}

type nameResolver struct {
	p   *planner
	err error
}

var _ parser.Visitor = (*nameResolver)(nil)

func (v *nameResolver) VisitPre(expr parser.Expr) (bool, parser.Expr) {
	if v.err != nil {
		return false, expr
	}
	qname, ok := expr.(*parser.QualifiedName)
	if !ok {
		return true, expr
	}
	q, err := v.p.bindName(qname)
	if err != nil {
		v.err = err
		return false, expr
	}
	return false, q
}

func (v *nameResolver) VisitPost(expr parser.Expr) parser.Expr { return expr }

func (p *planner) bindName(qname *parser.QualifiedName) (*qvalue, error) {
	table := strings.ToLower(qname.Table())
	column := strings.ToLower(qname.Column())

	for i := len(p.scopes) - 1; i >= 0; i-- {
		sc := p.scopes[i]
		if table != "" && table != strings.ToLower(sc.alias) {
			continue
		}
		for idx, col := range sc.columns {
			if strings.ToLower(col.Name) != column {
				continue
			}
			if i < len(p.scopes)-1 {
				p.outerRefs++
			}
			return sc.node.getQVal(idx), nil
		}
	}
	return nil, errors.Newf("qualified name %q not found", qname)
}

// renderName picks the result column name for a render expression.
func renderName(sel *parser.NonStarExpr, resolved parser.Expr) string {
	if sel.As != "" {
		return string(sel.As)
	}
	switch t := sel.Expr.(type) {
	case *parser.QualifiedName:
		return t.Column()
	case *parser.RowNumExpr:
		return parser.RowNumName
	default:
		_ = t
	}
	return sel.Expr.String()
}

// typeOfExpr gives a best-effort result type for a planned expression,
// used for result column metadata.
func typeOfExpr(expr parser.Expr) parser.Datum {
	switch t := expr.(type) {
	case parser.Datum:
		return t
	case *qvalue:
		return t.col.Typ
	case *parser.RowNumExpr:
		return parser.DummyInt
	case *parser.ParenExpr:
		return typeOfExpr(t.Expr)
	case *parser.UnaryExpr:
		return typeOfExpr(t.Expr)
	case *parser.BinaryExpr:
		l := typeOfExpr(t.Left)
		if l == parser.DNull {
			return typeOfExpr(t.Right)
		}
		return l
	case *parser.AndExpr, *parser.OrExpr, *parser.NotExpr, *parser.ComparisonExpr:
		return parser.DummyBool
	case *subqueryExpr:
		return t.typ
	}
	return parser.DNull
}

// containsRowNum reports whether the expression references the ROWNUM
// pseudo-column. Planned subquery expressions are opaque: their ordinal
// references belong to their own blocks.
func containsRowNum(expr parser.Expr) bool {
	if expr == nil {
		return false
	}
	v := rowNumFinder{}
	parser.WalkExpr(&v, expr)
	return v.found
}

type rowNumFinder struct {
	found bool
}

var _ parser.Visitor = (*rowNumFinder)(nil)

func (v *rowNumFinder) VisitPre(expr parser.Expr) (bool, parser.Expr) {
	if _, ok := expr.(*parser.RowNumExpr); ok {
		v.found = true
	}
	return !v.found, expr
}

func (v *rowNumFinder) VisitPost(expr parser.Expr) parser.Expr { return expr }

// oneRowNode is the source of a FROM-less select: a single empty row.
type oneRowNode struct {
	done bool
}

func (*oneRowNode) Columns() []ResultColumn { return nil }
func (*oneRowNode) Values() parser.DTuple   { return nil }
func (*oneRowNode) Err() error              { return nil }
func (n *oneRowNode) Reset()                { n.done = false }
func (*oneRowNode) Close()                  {}

func (n *oneRowNode) Next() bool {
	if n.done {
		return false
	}
	n.done = true
	return true
}

func (*oneRowNode) ExplainPlan() (string, string, []planNode) {
	return "nullrow", "", nil
}
