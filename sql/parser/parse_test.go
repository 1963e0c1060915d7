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

func selectRender(t *testing.T, sql string, syntax Syntax) Expr {
	t.Helper()
	stmt, err := ParseOne(sql, syntax)
	require.NoError(t, err)
	clause := stmt.(*Select).Select.(*SelectClause)
	return clause.Exprs[0].(*NonStarExpr).Expr
}

func whereExpr(t *testing.T, sql string, syntax Syntax) Expr {
	t.Helper()
	stmt, err := ParseOne(sql, syntax)
	require.NoError(t, err)
	return stmt.(*Select).Select.(*SelectClause).Where.Expr
}

func TestRowNumRecognizer(t *testing.T) {
	// Oracle dialect: a bare ROWNUM identifier is the pseudo-column,
	// case-insensitively.
	for _, spelling := range []string{"rownum", "ROWNUM", "RowNum"} {
		e := selectRender(t, "SELECT "+spelling+" FROM t", Oracle)
		require.IsType(t, &RowNumExpr{}, e, "spelling %q", spelling)
	}

	// The default dialect sees an ordinary column reference.
	e := selectRender(t, "SELECT rownum FROM t", Traditional)
	require.IsType(t, &QualifiedName{}, e)

	// A qualified name is never the pseudo-column, so a stored column
	// named rownum stays reachable in the Oracle dialect.
	e = selectRender(t, "SELECT t.rownum FROM t", Oracle)
	qname, ok := e.(*QualifiedName)
	require.True(t, ok)
	require.Equal(t, "t", qname.Table())
	require.Equal(t, "rownum", qname.Column())

	// Aliasing the pseudo-column materializes it under a plain name.
	stmt, err := ParseOne("SELECT rownum rn FROM t", Oracle)
	require.NoError(t, err)
	sel := stmt.(*Select).Select.(*SelectClause).Exprs[0].(*NonStarExpr)
	require.IsType(t, &RowNumExpr{}, sel.Expr)
	require.Equal(t, Name("rn"), sel.As)
}

func TestBetweenDesugar(t *testing.T) {
	e := whereExpr(t, "SELECT a FROM t WHERE a BETWEEN 2 AND 5", Traditional)
	and, ok := e.(*AndExpr)
	require.True(t, ok)
	lo := and.Left.(*ComparisonExpr)
	hi := and.Right.(*ComparisonExpr)
	require.Equal(t, GE, lo.Operator)
	require.Equal(t, LE, hi.Operator)

	e = whereExpr(t, "SELECT a FROM t WHERE a NOT BETWEEN 2 AND 5", Traditional)
	or, ok := e.(*OrExpr)
	require.True(t, ok)
	require.Equal(t, LT, or.Left.(*ComparisonExpr).Operator)
	require.Equal(t, GT, or.Right.(*ComparisonExpr).Operator)
}

func TestParseRoundTrip(t *testing.T) {
	testCases := []string{
		"SELECT 1",
		"SELECT a, b FROM t",
		"SELECT * FROM t WHERE a = 1",
		"SELECT a FROM t WHERE a = 1 AND b != 2 ORDER BY a DESC LIMIT 2",
		"SELECT DISTINCT a FROM t",
		"SELECT a FROM t LIMIT 3 OFFSET 4",
		"SELECT a FROM t WHERE a IN (1, 2, 3)",
		"SELECT a FROM t WHERE NOT a = 1 OR b < 3",
		"SELECT ROWNUM FROM t WHERE ROWNUM <= 10",
		"SELECT a AS x FROM t AS u",
		"SELECT * FROM (SELECT a FROM t) AS q",
		"SELECT a FROM t UNION SELECT b FROM u",
		"SELECT a FROM t UNION ALL SELECT b FROM u ORDER BY a",
		"VALUES (1, 'a'), (2, 'b')",
		"SELECT a FROM t WHERE EXISTS (SELECT 1 FROM u)",
		"CREATE TABLE t (a INT PRIMARY KEY, b STRING)",
		"INSERT INTO t (a, b) VALUES (1, 'x')",
		"INSERT INTO t SELECT a, b FROM u",
		"DROP TABLE t",
		"EXPLAIN SELECT a FROM t",
	}
	for _, sql := range testCases {
		stmt, err := ParseOne(sql, Oracle)
		require.NoErrorf(t, err, "%s", sql)
		require.Equalf(t, sql, stmt.String(), "round trip of %s", sql)
	}
}

func TestParseStatementList(t *testing.T) {
	stmts, err := Parse("SELECT 1; SELECT 2;", Traditional)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
}

func TestParseErrors(t *testing.T) {
	for _, sql := range []string{
		"SELECT",
		"SELECT FROM t",
		"SELECT a FROM",
		"SELECT a FROM t WHERE",
		"SELECT a FROM t ORDER",
		"FOO BAR",
		"SELECT 'unterminated",
	} {
		_, err := Parse(sql, Oracle)
		require.Errorf(t, err, "expected parse error for %q", sql)
	}
}
