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

package parser

// RowNumName is the reserved pseudo-column name recognized in the Oracle
// dialect. Matching is case-insensitive.
const RowNumName = "rownum"

// RowNumExpr represents a reference to the ROWNUM pseudo-column: the
// 1-based ordinal of the row within its query block, assigned as rows are
// produced and before any reordering operator runs. The node is stateless;
// the value it evaluates to lives in the execution context's counter stack.
//
// The parser produces a RowNumExpr only when the Oracle dialect is active
// and the identifier appears bare (unqualified). In any other context the
// name resolves like an ordinary column.
type RowNumExpr struct {
	// Pos is the byte offset of the reference in the original statement,
	// kept for diagnostics.
	Pos int
}

func (node *RowNumExpr) String() string { return "ROWNUM" }

// ReturnType returns the declared result type: a 64-bit signed integer
// with no collation.
func (node *RowNumExpr) ReturnType() Datum { return DummyInt }
