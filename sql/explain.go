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
	"github.com/lib/pq/oid"

	"github.com/oriondb/orion/sql/parser"
)

// explainNode renders the plan tree as rows without executing it. Rewrites
// are visible here: a block with an injected limit says so, and a block
// proven empty shows up as a norows node.
type explainNode struct {
	plan planNode

	rows []parser.DTuple
	idx  int
}

var explainColumns = []ResultColumn{
	{Name: "Level", Typ: parser.DummyInt, Oid: oid.T_int8},
	{Name: "Type", Typ: parser.DummyString, Oid: oid.T_text},
	{Name: "Description", Typ: parser.DummyString, Oid: oid.T_text},
}

func (n *explainNode) Columns() []ResultColumn { return explainColumns }
func (n *explainNode) Err() error              { return nil }
func (n *explainNode) Values() parser.DTuple   { return n.rows[n.idx-1] }

func (n *explainNode) Next() bool {
	if n.rows == nil {
		n.rows = appendExplainRows(n.rows, n.plan, 0)
	}
	if n.idx >= len(n.rows) {
		return false
	}
	n.idx++
	return true
}

func appendExplainRows(rows []parser.DTuple, plan planNode, level int) []parser.DTuple {
	name, description, children := plan.ExplainPlan()
	rows = append(rows, parser.DTuple{
		parser.DInt(level),
		parser.DString(name),
		parser.DString(description),
	})
	for _, child := range children {
		rows = appendExplainRows(rows, child, level+1)
	}
	return rows
}

func (n *explainNode) Reset() {
	n.rows = nil
	n.idx = 0
}

func (n *explainNode) Close() { n.plan.Close() }

func (n *explainNode) ExplainPlan() (name, description string, children []planNode) {
	return "explain", "", []planNode{n.plan}
}
