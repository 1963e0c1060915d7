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

// emptyNode produces no rows. The predicate rewrite substitutes it for a
// query block whose ROWNUM predicate can never hold, so none of the
// block's operators run at all.
type emptyNode struct {
	columns []ResultColumn
	reason  string
}

func (n *emptyNode) Columns() []ResultColumn { return n.columns }
func (n *emptyNode) Values() parser.DTuple   { return nil }
func (n *emptyNode) Err() error              { return nil }
func (n *emptyNode) Next() bool              { return false }
func (n *emptyNode) Reset()                  {}
func (n *emptyNode) Close()                  {}

func (n *emptyNode) ExplainPlan() (name, description string, children []planNode) {
	return "norows", n.reason, nil
}
