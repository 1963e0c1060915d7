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
	"github.com/oriondb/orion/sql/sqlbase"
)

// rowsAffectedNode is implemented by plan nodes that report a row count
// instead of rows (INSERT).
type rowsAffectedNode interface {
	rowsAffected() int
}

// rowCountNode is the plan for a statement that already executed during
// planning and only has a count to report.
type rowCountNode struct {
	count int
}

func (*rowCountNode) Columns() []ResultColumn { return nil }
func (*rowCountNode) Values() parser.DTuple   { return nil }
func (*rowCountNode) Err() error              { return nil }
func (*rowCountNode) Next() bool              { return false }
func (*rowCountNode) Reset()                  {}
func (*rowCountNode) Close()                  {}

func (n *rowCountNode) rowsAffected() int { return n.count }

func (n *rowCountNode) ExplainPlan() (name, description string, children []planNode) {
	return "rowcount", "", nil
}

// CreateTable registers the table in the catalog.
func (p *planner) CreateTable(n *parser.CreateTable) (planNode, error) {
	desc := &sqlbase.TableDescriptor{Name: string(n.Table)}
	for _, def := range n.Defs {
		typ, err := sqlbase.ColumnTypeFromName(string(def.Type))
		if err != nil {
			return nil, err
		}
		desc.Columns = append(desc.Columns, sqlbase.ColumnDescriptor{
			Name:       string(def.Name),
			Type:       typ,
			PrimaryKey: def.PrimaryKey,
		})
	}
	if err := p.catalog.CreateTable(desc); err != nil {
		return nil, err
	}
	return &rowCountNode{}, nil
}

// DropTable removes the table from the catalog.
func (p *planner) DropTable(n *parser.DropTable) (planNode, error) {
	if err := p.catalog.DropTable(string(n.Table)); err != nil {
		return nil, err
	}
	return &rowCountNode{}, nil
}

// Insert evaluates the source rows and appends them to the table. The
// source is a full SELECT: INSERT ... VALUES and INSERT ... SELECT share
// the same path, and a ROWNUM reference in the source SELECT behaves as in
// any query.
func (p *planner) Insert(n *parser.Insert) (planNode, error) {
	desc, err := p.catalog.GetTable(string(n.Table))
	if err != nil {
		return nil, err
	}

	// Map the target column list (or, when absent, all columns) to column
	// indexes.
	var colIdx []int
	if len(n.Columns) == 0 {
		colIdx = make([]int, len(desc.Columns))
		for i := range desc.Columns {
			colIdx[i] = i
		}
	} else {
		seen := make(map[int]struct{}, len(n.Columns))
		for _, name := range n.Columns {
			idx := desc.FindColumn(string(name))
			if idx == -1 {
				return nil, errors.Newf("column %q does not exist", name)
			}
			if _, dup := seen[idx]; dup {
				return nil, errors.Newf("multiple assignments to column %q", name)
			}
			seen[idx] = struct{}{}
			colIdx = append(colIdx, idx)
		}
	}

	rows, err := p.newPlan(n.Rows)
	if err != nil {
		return nil, err
	}
	rows, err = p.rewriteRowNum(rows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if nCols := len(rows.Columns()); nCols != len(colIdx) {
		return nil, errors.Newf("INSERT has %d expressions but %d target columns", nCols, len(colIdx))
	}

	count := 0
	for rows.Next() {
		src := rows.Values()
		row := make(parser.DTuple, len(desc.Columns))
		for i := range row {
			row[i] = parser.DNull
		}
		for i, idx := range colIdx {
			row[idx] = src[i]
		}
		if err := p.catalog.InsertRow(desc, row); err != nil {
			return nil, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rowCountNode{count: count}, nil
}
