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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// evalString parses and evaluates a standalone expression by planting it in
// a FROM-less select.
func evalString(t *testing.T, expr string, ctx *EvalContext) (Datum, error) {
	t.Helper()
	stmt, err := ParseOne("SELECT 1 WHERE "+expr, Oracle)
	require.NoError(t, err)
	e := stmt.(*Select).Select.(*SelectClause).Where.Expr
	return EvalExpr(ctx, e)
}

func TestEvalExpr(t *testing.T) {
	testCases := []struct {
		expr     string
		expected string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"10 / 4", "2"},
		{"10 % 4", "2"},
		{"-3 + 5", "2"},
		{"1 < 2", "true"},
		{"2 <= 1", "false"},
		{"1 != 2", "true"},
		{"'a' < 'b'", "true"},
		{"1.5 < 2", "true"},
		{"true AND false", "false"},
		{"true OR false", "true"},
		{"NOT true", "false"},
		{"2 IN (1, 2, 3)", "true"},
		{"4 NOT IN (1, 2, 3)", "true"},

		// Three-valued logic.
		{"NULL AND true", "NULL"},
		{"NULL AND false", "false"},
		{"NULL OR true", "true"},
		{"NULL OR false", "NULL"},
		{"NOT NULL", "NULL"},
		{"NULL = NULL", "NULL"},
		{"1 = NULL", "NULL"},
		{"1 IN (1, NULL)", "true"},
		{"2 IN (1, NULL)", "NULL"},
		{"2 NOT IN (1, NULL)", "NULL"},
	}
	for _, tc := range testCases {
		d, err := evalString(t, tc.expr, &EvalContext{})
		require.NoErrorf(t, err, "%s", tc.expr)
		require.Equalf(t, tc.expected, d.String(), "%s", tc.expr)
	}
}

func TestEvalErrors(t *testing.T) {
	testCases := []struct {
		expr string
		err  string
	}{
		{"1 / 0", "division by zero"},
		{"1 % 0", "zero modulus"},
		{"1 + 'a'", "unsupported binary operands"},
		{"NOT 1", "must be type bool"},
		{"1 AND true", "must be type bool"},

		// Cross-type comparisons are diagnostics, never panics.
		{"1 = 'a'", "unsupported comparison: int vs string"},
		{"'a' < true", "unsupported comparison: string vs bool"},
		{"true < 1", "unsupported comparison: bool vs int"},
		{"2 IN (1, 'a')", "unsupported comparison: int vs string"},
		{"(1, 2) = (1, 'a')", "unsupported comparison: int vs string"},
	}
	for _, tc := range testCases {
		_, err := evalString(t, tc.expr, &EvalContext{})
		require.ErrorContainsf(t, err, tc.err, "%s", tc.expr)
	}
}

type fixedRowNum int64

func (f fixedRowNum) CurrentRowNum() (int64, error) { return int64(f), nil }

func TestEvalRowNum(t *testing.T) {
	// Without a counter source the reference is a context error.
	_, err := evalString(t, "rownum <= 3", &EvalContext{})
	require.ErrorContains(t, err, "only allowed during query execution")

	d, err := evalString(t, "rownum <= 3", &EvalContext{RowNum: fixedRowNum(2)})
	require.NoError(t, err)
	require.Equal(t, DBool(true), d)

	d, err = evalString(t, "rownum * 2", &EvalContext{RowNum: fixedRowNum(4)})
	require.NoError(t, err)
	require.Equal(t, DInt(8), d)
}

func TestAsIntConstant(t *testing.T) {
	testCases := []struct {
		expr Expr
		v    int64
		ok   bool
	}{
		{DInt(5), 5, true},
		{&ParenExpr{Expr: DInt(7)}, 7, true},
		{&UnaryExpr{Expr: DInt(3)}, -3, true},
		{&ParenExpr{Expr: &UnaryExpr{Expr: &ParenExpr{Expr: DInt(2)}}}, -2, true},
		{DFloat(5), 0, false},
		{&BinaryExpr{Operator: Plus, Left: DInt(1), Right: DInt(1)}, 0, false},
		{&QualifiedName{Col: "a"}, 0, false},
	}
	for _, tc := range testCases {
		v, ok := AsIntConstant(tc.expr)
		require.Equal(t, tc.ok, ok, "%s", tc.expr)
		if tc.ok {
			require.Equal(t, tc.v, v, "%s", tc.expr)
		}
	}
}

func TestSplitJoinAndExprs(t *testing.T) {
	stmt, err := ParseOne("SELECT 1 WHERE a = 1 AND (b = 2 AND c = 3) AND (d = 4 OR e = 5)", Oracle)
	require.NoError(t, err)
	expr := stmt.(*Select).Select.(*SelectClause).Where.Expr

	conjuncts := SplitAndExprs(expr)
	require.Len(t, conjuncts, 4)
	require.Equal(t, "a = 1", conjuncts[0].String())
	require.Equal(t, "b = 2", conjuncts[1].String())
	require.Equal(t, "c = 3", conjuncts[2].String())
	require.Equal(t, "(d = 4 OR e = 5)", conjuncts[3].String())

	rejoined := JoinAndExprs(conjuncts)
	require.Equal(t, "a = 1 AND b = 2 AND c = 3 AND (d = 4 OR e = 5)", rejoined.String())

	require.Nil(t, JoinAndExprs(nil))
	require.Empty(t, SplitAndExprs(nil))
}
