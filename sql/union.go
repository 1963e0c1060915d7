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

// unionNode concatenates the rows of its two sides, deduplicating unless
// ALL was specified. The sides are separate query blocks: each carries its
// own ROWNUM counter scope, numbering its own rows from 1.
type unionNode struct {
	left, right planNode
	all         bool

	seen    map[string]struct{}
	onRight bool
	err     error
}

func (p *planner) planUnion(clause *parser.UnionClause) (*unionNode, error) {
	left, err := p.newPlan(clause.Left)
	if err != nil {
		return nil, err
	}
	right, err := p.newPlan(clause.Right)
	if err != nil {
		return nil, err
	}
	if l, r := len(left.Columns()), len(right.Columns()); l != r {
		return nil, errors.Newf("each UNION query must have the same number of columns: %d vs %d", l, r)
	}
	n := &unionNode{left: left, right: right, all: clause.All}
	if !n.all {
		n.seen = make(map[string]struct{})
	}
	return n, nil
}

func (n *unionNode) Columns() []ResultColumn { return n.left.Columns() }
func (n *unionNode) Err() error              { return n.err }

func (n *unionNode) Values() parser.DTuple {
	if n.onRight {
		return n.right.Values()
	}
	return n.left.Values()
}

func (n *unionNode) Next() bool {
	if n.err != nil {
		return false
	}
	for {
		side := n.left
		if n.onRight {
			side = n.right
		}
		if !side.Next() {
			if err := side.Err(); err != nil {
				n.err = err
				return false
			}
			if n.onRight {
				return false
			}
			n.onRight = true
			continue
		}
		if n.seen != nil {
			key := side.Values().String()
			if _, dup := n.seen[key]; dup {
				continue
			}
			n.seen[key] = struct{}{}
		}
		return true
	}
}

func (n *unionNode) Reset() {
	n.onRight = false
	n.err = nil
	if n.seen != nil {
		n.seen = make(map[string]struct{})
	}
	n.left.Reset()
	n.right.Reset()
}

func (n *unionNode) Close() {
	n.left.Close()
	n.right.Close()
}

func (n *unionNode) ExplainPlan() (name, description string, children []planNode) {
	desc := ""
	if n.all {
		desc = "all"
	}
	return "union", desc, []planNode{n.left, n.right}
}
