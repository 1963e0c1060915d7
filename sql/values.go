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
	"github.com/oriondb/orion/sql/sqlbase"
)

// valuesNode serves a list of rows computed at plan time.
type valuesNode struct {
	columns []ResultColumn
	rows    []parser.DTuple

	idx int
}

func (p *planner) planValues(clause *parser.ValuesClause) (*valuesNode, error) {
	n := &valuesNode{}
	for _, tuple := range clause.Tuples {
		if len(n.columns) == 0 {
			for i := range tuple.Exprs {
				n.columns = append(n.columns, ResultColumn{Name: fmt.Sprintf("column%d", i+1)})
			}
		} else if len(tuple.Exprs) != len(n.columns) {
			return nil, errors.Newf("VALUES lists must all be the same length, %d vs %d",
				len(n.columns), len(tuple.Exprs))
		}
		row := make(parser.DTuple, len(tuple.Exprs))
		for i, e := range tuple.Exprs {
			d, err := parser.EvalExpr(&parser.EvalContext{}, e)
			if err != nil {
				return nil, err
			}
			row[i] = d
			if n.columns[i].Typ == nil && d != parser.DNull {
				n.columns[i].Typ = d
			}
		}
		n.rows = append(n.rows, row)
	}
	for i := range n.columns {
		if n.columns[i].Typ == nil {
			n.columns[i].Typ = parser.DNull
		}
		n.columns[i].Oid = sqlbase.OidForDatum(n.columns[i].Typ)
	}
	return n, nil
}

func (n *valuesNode) Columns() []ResultColumn { return n.columns }
func (n *valuesNode) Err() error              { return nil }
func (n *valuesNode) Values() parser.DTuple   { return n.rows[n.idx-1] }

func (n *valuesNode) Next() bool {
	if n.idx >= len(n.rows) {
		return false
	}
	n.idx++
	return true
}

func (n *valuesNode) Reset() { n.idx = 0 }
func (n *valuesNode) Close() {}

func (n *valuesNode) ExplainPlan() (name, description string, children []planNode) {
	return "values", fmt.Sprintf("%d row(s)", len(n.rows)), nil
}
