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
	"github.com/oriondb/orion/sql/parser"
)

// distinctNode suppresses duplicate rows from its child. Ordinals, if the
// block renders them, are part of the row and make every row distinct; a
// ROWNUM filter below still applies before deduplication.
type distinctNode struct {
	plan planNode
	seen map[string]struct{}
}

func (n *distinctNode) Columns() []ResultColumn { return n.plan.Columns() }
func (n *distinctNode) Values() parser.DTuple   { return n.plan.Values() }
func (n *distinctNode) Err() error              { return n.plan.Err() }

func (n *distinctNode) Next() bool {
	if n.seen == nil {
		n.seen = make(map[string]struct{})
	}
	for n.plan.Next() {
		key := n.plan.Values().String()
		if _, dup := n.seen[key]; dup {
			continue
		}
		n.seen[key] = struct{}{}
		return true
	}
	return false
}

func (n *distinctNode) Reset() {
	n.seen = nil
	n.plan.Reset()
}

func (n *distinctNode) Close() { n.plan.Close() }

func (n *distinctNode) ExplainPlan() (name, description string, children []planNode) {
	return "distinct", "", []planNode{n.plan}
}
