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
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/sql/sqlbase"
)

// sortOrder is one ORDER BY term: a row index and a direction. The index
// refers to the full render row of the child, hidden columns included.
type sortOrder struct {
	colIdx int
	desc   bool
}

// sortNode buffers its child's rows and emits them sorted. Rows are fully
// materialized before the first one is returned, so any ROWNUM ordinals in
// the rows were assigned below, in production order, and simply travel
// with the rows through the reordering.
type sortNode struct {
	plan     planNode
	ordering []sortOrder

	rows   []parser.DTuple
	sorted bool
	idx    int
	err    error
}

func (n *sortNode) Columns() []ResultColumn { return visibleColumns(n.plan.Columns()) }
func (n *sortNode) Err() error              { return n.err }

func (n *sortNode) Values() parser.DTuple {
	return n.rows[n.idx-1][:len(n.Columns())]
}

func (n *sortNode) Next() bool {
	if n.err != nil {
		return false
	}
	if !n.sorted {
		for n.plan.Next() {
			src := n.plan.Values()
			row := make(parser.DTuple, len(src))
			copy(row, src)
			n.rows = append(n.rows, row)
		}
		if err := n.plan.Err(); err != nil {
			n.err = err
			return false
		}
		sort.SliceStable(n.rows, func(i, j int) bool {
			return n.less(n.rows[i], n.rows[j])
		})
		n.sorted = true
	}
	if n.idx >= len(n.rows) {
		return false
	}
	n.idx++
	return true
}

func (n *sortNode) less(a, b parser.DTuple) bool {
	for _, ord := range n.ordering {
		c := a[ord.colIdx].Compare(b[ord.colIdx])
		if c == 0 {
			continue
		}
		if ord.desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func (n *sortNode) Reset() {
	n.rows = nil
	n.sorted = false
	n.idx = 0
	n.plan.Reset()
}

func (n *sortNode) Close() { n.plan.Close() }

func (n *sortNode) ExplainPlan() (name, description string, children []planNode) {
	var buf strings.Builder
	for i, ord := range n.ordering {
		if i > 0 {
			buf.WriteString(",")
		}
		if ord.desc {
			buf.WriteString("-")
		} else {
			buf.WriteString("+")
		}
		fmt.Fprintf(&buf, "@%d", ord.colIdx+1)
	}
	return "sort", buf.String(), []planNode{n.plan}
}

// orderBy binds the ORDER BY clause against the plan's output columns. An
// ordering term may name an output column, give a 1-based column position,
// or — when the body is a plain select clause — be an arbitrary expression,
// which is added to the block as a hidden render.
func (p *planner) orderBy(ord parser.OrderBy, s *selectNode, plan planNode) (*sortNode, error) {
	if len(ord) == 0 {
		return nil, nil
	}
	columns := plan.Columns()

	var ordering []sortOrder
	for _, o := range ord {
		idx := -1

		if qname, ok := o.Expr.(*parser.QualifiedName); ok && qname.Table() == "" {
			target := strings.ToLower(qname.Column())
			for i, col := range columns {
				if strings.ToLower(col.Name) == target {
					idx = i
					break
				}
			}
		}

		if idx == -1 {
			if pos, ok := parser.AsIntConstant(o.Expr); ok {
				if pos < 1 || pos > int64(len(columns)) {
					return nil, errors.Newf(
						"invalid ORDER BY position %d: not in select list", pos)
				}
				idx = int(pos - 1)
			}
		}

		if idx == -1 {
			if s == nil {
				return nil, errors.Newf(
					"ORDER BY term %s must name an output column", o.Expr)
			}
			if plan != s {
				// DISTINCT dedups on the visible row; sorting by an
				// expression outside it is not well defined.
				return nil, errors.Newf(
					"for SELECT DISTINCT, ORDER BY expressions must appear in select list")
			}
			var err error
			idx, err = p.addOrderByRender(s, o.Expr)
			if err != nil {
				return nil, err
			}
		}

		ordering = append(ordering, sortOrder{colIdx: idx, desc: o.Direction == parser.Descending})
	}
	return &sortNode{ordering: ordering}, nil
}

// addOrderByRender plans an ORDER BY expression as a hidden render column
// of the block and returns its row index.
func (p *planner) addOrderByRender(s *selectNode, expr parser.Expr) (int, error) {
	p.pushScope(s.scope)
	defer p.popScope()

	resolved, err := p.analyzeExpr(s, expr)
	if err != nil {
		return 0, err
	}
	s.render = append(s.render, resolved)
	typ := typeOfExpr(resolved)
	s.columns = append(s.columns, ResultColumn{
		Name:   expr.String(),
		Typ:    typ,
		Oid:    sqlbase.OidForDatum(typ),
		hidden: true,
	})
	if !s.hasRowNum && containsRowNum(resolved) {
		s.hasRowNum = true
		if scan, ok := s.source.(*scanNode); ok {
			scan.parallel = false
		}
	}
	return len(s.render) - 1, nil
}
