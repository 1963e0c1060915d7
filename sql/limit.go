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

	"github.com/oriondb/orion/sql/parser"
)

// limitNode implements LIMIT/OFFSET over its child. A count of -1 means no
// limit. Unlike a block's hard limit, it sits above any sort, so it bounds
// the ordered output.
type limitNode struct {
	plan    planNode
	count   int64
	offset  int64
	skipped int64
	emitted int64
}

func (n *limitNode) Columns() []ResultColumn { return n.plan.Columns() }
func (n *limitNode) Values() parser.DTuple   { return n.plan.Values() }
func (n *limitNode) Err() error              { return n.plan.Err() }

func (n *limitNode) Next() bool {
	if n.count >= 0 && n.emitted >= n.count {
		return false
	}
	for n.plan.Next() {
		if n.skipped < n.offset {
			n.skipped++
			continue
		}
		n.emitted++
		return true
	}
	return false
}

func (n *limitNode) Reset() {
	n.skipped = 0
	n.emitted = 0
	n.plan.Reset()
}

func (n *limitNode) Close() { n.plan.Close() }

func (n *limitNode) ExplainPlan() (name, description string, children []planNode) {
	desc := ""
	if n.count >= 0 {
		desc = fmt.Sprintf("count: %d", n.count)
	}
	if n.offset > 0 {
		if desc != "" {
			desc += ", "
		}
		desc += fmt.Sprintf("offset: %d", n.offset)
	}
	return "limit", desc, []planNode{n.plan}
}
