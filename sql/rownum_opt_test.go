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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oriondb/orion/sql/parser"
)

func TestClassifyRowNumComparison(t *testing.T) {
	testCases := []struct {
		op       parser.ComparisonOperator
		v        int64
		expected rownumClassification
	}{
		{parser.LE, 5, rownumClassification{decision: decisionLimit, limit: 5}},
		{parser.LE, 1, rownumClassification{decision: decisionLimit, limit: 1}},
		{parser.LE, 0, rownumClassification{decision: decisionAlwaysFalse}},
		{parser.LE, -3, rownumClassification{decision: decisionAlwaysFalse}},

		{parser.LT, 5, rownumClassification{decision: decisionLimit, limit: 4}},
		{parser.LT, 2, rownumClassification{decision: decisionLimit, limit: 1}},
		{parser.LT, 1, rownumClassification{decision: decisionAlwaysFalse}},
		{parser.LT, 0, rownumClassification{decision: decisionAlwaysFalse}},

		{parser.EQ, 1, rownumClassification{decision: decisionLimit, limit: 1}},
		{parser.EQ, 2, rownumClassification{decision: decisionAlwaysFalse}},
		{parser.EQ, 0, rownumClassification{decision: decisionAlwaysFalse}},
		{parser.EQ, -1, rownumClassification{decision: decisionAlwaysFalse}},

		{parser.GT, 0, rownumClassification{decision: decisionTautology}},
		{parser.GT, -5, rownumClassification{decision: decisionTautology}},
		{parser.GT, 1, rownumClassification{decision: decisionAlwaysFalse}},
		{parser.GT, 10, rownumClassification{decision: decisionAlwaysFalse}},

		{parser.GE, 1, rownumClassification{decision: decisionTautology}},
		{parser.GE, 0, rownumClassification{decision: decisionTautology}},
		{parser.GE, 2, rownumClassification{decision: decisionAlwaysFalse}},

		{parser.NE, 1, rownumClassification{decision: decisionUnclassified}},
		{parser.NE, 5, rownumClassification{decision: decisionUnclassified}},
	}
	for _, tc := range testCases {
		got := classifyRowNumComparison(tc.op, tc.v)
		require.Equalf(t, tc.expected, got, "ROWNUM %s %d", tc.op, tc.v)
	}
}

func TestAsRowNumComparison(t *testing.T) {
	parse := func(where string) parser.Expr {
		stmt, err := parser.ParseOne("SELECT 1 WHERE "+where, parser.Oracle)
		require.NoError(t, err)
		return stmt.(*parser.Select).Select.(*parser.SelectClause).Where.Expr
	}

	testCases := []struct {
		where string
		op    parser.ComparisonOperator
		v     int64
		ok    bool
	}{
		{"rownum <= 5", parser.LE, 5, true},
		{"rownum < 10", parser.LT, 10, true},
		{"rownum = 1", parser.EQ, 1, true},
		{"(rownum) >= (3)", parser.GE, 3, true},
		{"rownum <= -2", parser.LE, -2, true},

		// Mirrored operand order.
		{"5 >= rownum", parser.LE, 5, true},
		{"5 > rownum", parser.LT, 5, true},
		{"1 = rownum", parser.EQ, 1, true},
		{"3 <= rownum", parser.GE, 3, true},

		// Not classifiable shapes.
		{"rownum <= 5.5", 0, 0, false},
		{"rownum + 1 <= 5", 0, 0, false},
		{"rownum <= 1 + 1", 0, 0, false},
		{"rownum IN (1, 2)", 0, 0, false},
		{"rownum <= rownum", parser.LE, 0, false},
	}
	for _, tc := range testCases {
		op, v, ok := asRowNumComparison(parse(tc.where))
		require.Equalf(t, tc.ok, ok, "WHERE %s", tc.where)
		if tc.ok {
			require.Equalf(t, tc.op, op, "WHERE %s", tc.where)
			require.Equalf(t, tc.v, v, "WHERE %s", tc.where)
		}
	}
}

func TestRewriteDecisionString(t *testing.T) {
	require.Equal(t, "unclassified", decisionUnclassified.String())
	require.Equal(t, "limit", decisionLimit.String())
	require.Equal(t, "always-false", decisionAlwaysFalse.String())
	require.Equal(t, "tautology", decisionTautology.String())
}
