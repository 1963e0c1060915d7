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
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/util/leaktest"
)

func newTestExecutor() (*Executor, *Session) {
	e := NewExecutor()
	s := NewSession()
	s.Syntax = parser.Oracle
	return e, s
}

func mustExec(t *testing.T, e *Executor, s *Session, stmts string) []Result {
	t.Helper()
	results, err := e.Execute(context.Background(), s, stmts)
	require.NoError(t, err)
	return results
}

func rowStrings(res Result) []string {
	out := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		out[i] = r.String()
	}
	return out
}

// seedKV creates table kv with ids 1..n in insertion order.
func seedKV(t *testing.T, e *Executor, s *Session, n int) {
	t.Helper()
	mustExec(t, e, s, "CREATE TABLE kv (id INT PRIMARY KEY, name STRING)")
	for i := 1; i <= n; i++ {
		mustExec(t, e, s, fmt.Sprintf("INSERT INTO kv VALUES (%d, 'r%d')", i, i))
	}
}

func TestRowNumUpperBound(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	res := mustExec(t, e, s, "SELECT rownum, id FROM kv WHERE rownum <= 3")
	require.Equal(t, []string{"(1, 1)", "(2, 2)", "(3, 3)"}, rowStrings(res[0]))

	// Strict bound: < 4 is the same first three rows.
	res = mustExec(t, e, s, "SELECT rownum, id FROM kv WHERE rownum < 4")
	require.Equal(t, []string{"(1, 1)", "(2, 2)", "(3, 3)"}, rowStrings(res[0]))

	// Bound larger than the table.
	res = mustExec(t, e, s, "SELECT id FROM kv WHERE rownum <= 100")
	require.Len(t, res[0].Rows, 10)
}

func TestRowNumEquality(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)

	res := mustExec(t, e, s, "SELECT id FROM kv WHERE rownum = 1")
	require.Equal(t, []string{"(1)"}, rowStrings(res[0]))

	// ROWNUM = n for n != 1 can never be satisfied: the counter cannot
	// reach n without the first n-1 rows being accepted.
	res = mustExec(t, e, s, "SELECT id FROM kv WHERE rownum = 2")
	require.Empty(t, res[0].Rows)
}

func TestRowNumLowerBoundNeverHolds(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)

	for _, q := range []string{
		"SELECT id FROM kv WHERE rownum > 3",
		"SELECT id FROM kv WHERE rownum >= 2",
		"SELECT id FROM kv WHERE rownum < 1",
		"SELECT id FROM kv WHERE rownum <= 0",
		"SELECT id FROM kv WHERE rownum <= -5",
	} {
		res := mustExec(t, e, s, q)
		require.Empty(t, res[0].Rows, "query: %s", q)
	}
}

func TestRowNumTautology(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)

	for _, q := range []string{
		"SELECT id FROM kv WHERE rownum > 0",
		"SELECT id FROM kv WHERE rownum >= 1",
		"SELECT id FROM kv WHERE rownum > -3",
	} {
		res := mustExec(t, e, s, q)
		require.Len(t, res[0].Rows, 5, "query: %s", q)
	}
}

func TestRowNumMirroredComparison(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	// Constant on the left mirrors the operator: 4 > ROWNUM is ROWNUM < 4.
	res := mustExec(t, e, s, "SELECT id FROM kv WHERE 4 > rownum")
	require.Equal(t, []string{"(1)", "(2)", "(3)"}, rowStrings(res[0]))

	res = mustExec(t, e, s, "SELECT id FROM kv WHERE 2 <= rownum")
	require.Empty(t, res[0].Rows)
}

func TestRowNumCountsOnlyFilteredRows(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	// Ordinals are assigned after the ordinary filter: rows that fail
	// id % 2 = 0 never consume one.
	res := mustExec(t, e, s, "SELECT rownum, id FROM kv WHERE id % 2 = 0 AND rownum <= 3")
	require.Equal(t, []string{"(1, 2)", "(2, 4)", "(3, 6)"}, rowStrings(res[0]))
}

func TestRowNumRollbackOnReject(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	// ROWNUM inside arithmetic is not classifiable; the runtime filter
	// with rollback must still produce the exact prefix.
	res := mustExec(t, e, s, "SELECT rownum, id FROM kv WHERE rownum + 0 <= 3")
	require.Equal(t, []string{"(1, 1)", "(2, 2)", "(3, 3)"}, rowStrings(res[0]))

	// Every candidate row sees ROWNUM=1, fails, and rolls the counter
	// back: the predicate never holds for any row.
	res = mustExec(t, e, s, "SELECT id FROM kv WHERE rownum % 2 = 0")
	require.Empty(t, res[0].Rows)
}

func TestRowNumProjectionOnly(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 4)

	res := mustExec(t, e, s, "SELECT rownum FROM kv")
	require.Equal(t, []string{"(1)", "(2)", "(3)", "(4)"}, rowStrings(res[0]))
	require.Equal(t, "rownum", res[0].Columns[0].Name)
}

func TestRowNumOrderByPairing(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)

	// Ordinals are fixed at production time, in scan order; the sort just
	// reorders the pairs. This is the classic ROWNUM surprise.
	res := mustExec(t, e, s, "SELECT rownum, id FROM kv ORDER BY id DESC")
	require.Equal(t, []string{"(5, 5)", "(4, 4)", "(3, 3)", "(2, 2)", "(1, 1)"},
		rowStrings(res[0]))
}

func TestRowNumTopN(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	// The correct top-N idiom: sort in an inner block, number outside.
	res := mustExec(t, e, s,
		"SELECT rownum, id FROM (SELECT id FROM kv ORDER BY id DESC) q WHERE rownum <= 3")
	require.Equal(t, []string{"(1, 10)", "(2, 9)", "(3, 8)"}, rowStrings(res[0]))
}

func TestRowNumNestedRange(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	// Pagination idiom: the inner block materializes its ordinals as an
	// ordinary column, which the outer block can lower-bound.
	res := mustExec(t, e, s,
		"SELECT rn, id FROM (SELECT rownum rn, id FROM kv WHERE rownum <= 8) q WHERE rn >= 6")
	require.Equal(t, []string{"(6, 6)", "(7, 7)", "(8, 8)"}, rowStrings(res[0]))
}

func TestRowNumEndToEndScenario(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	res := mustExec(t, e, s, "SELECT rownum, id FROM kv WHERE rownum <= 5")
	require.Equal(t, []string{"(1, 1)", "(2, 2)", "(3, 3)", "(4, 4)", "(5, 5)"},
		rowStrings(res[0]))

	res = mustExec(t, e, s, "SELECT id FROM kv WHERE rownum = 2")
	require.Empty(t, res[0].Rows)

	// Ordinals count only rows surviving the ordinary filter.
	res = mustExec(t, e, s, "SELECT rownum, id FROM kv WHERE id >= 5")
	require.Equal(t, []string{"(1, 5)", "(2, 6)", "(3, 7)", "(4, 8)", "(5, 9)", "(6, 10)"},
		rowStrings(res[0]))

	res = mustExec(t, e, s,
		"SELECT rn, id FROM (SELECT rownum rn, id FROM kv WHERE rownum <= 10) q WHERE rn >= 6")
	require.Equal(t, []string{"(6, 6)", "(7, 7)", "(8, 8)", "(9, 9)", "(10, 10)"},
		rowStrings(res[0]))
}

func TestRowNumBetween(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	// BETWEEN desugars to two conjuncts; the lower bound >= 2 can never
	// hold, so the whole block is empty.
	res := mustExec(t, e, s, "SELECT id FROM kv WHERE rownum BETWEEN 2 AND 5")
	require.Empty(t, res[0].Rows)

	// A lower bound of 1 is a tautology: BETWEEN 1 AND 5 is just <= 5.
	res = mustExec(t, e, s, "SELECT id FROM kv WHERE rownum BETWEEN 1 AND 5")
	require.Len(t, res[0].Rows, 5)
}

func TestRowNumUnionBranchesIndependent(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)

	res := mustExec(t, e, s,
		"SELECT rownum FROM kv WHERE rownum <= 2 UNION ALL SELECT rownum FROM kv WHERE rownum <= 2")
	require.Equal(t, []string{"(1)", "(2)", "(1)", "(2)"}, rowStrings(res[0]))
}

func TestRowNumCorrelatedSubqueryRestarts(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 3)
	mustExec(t, e, s, "CREATE TABLE ref (k INT, v STRING)")
	for i := 1; i <= 3; i++ {
		mustExec(t, e, s, fmt.Sprintf("INSERT INTO ref VALUES (%d, 'a%d')", i, i))
		mustExec(t, e, s, fmt.Sprintf("INSERT INTO ref VALUES (%d, 'b%d')", i, i))
	}

	// The scalar subquery runs once per outer row; its counter starts at
	// 1 every time, while the outer counter keeps its value.
	res := mustExec(t, e, s,
		"SELECT rownum, id, (SELECT v FROM ref WHERE k = id AND rownum = 1) FROM kv")
	require.Equal(t, []string{"(1, 1, 'a1')", "(2, 2, 'a2')", "(3, 3, 'a3')"},
		rowStrings(res[0]))
}

func TestRowNumCorrelatedExists(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 6)
	mustExec(t, e, s, "CREATE TABLE ref (k INT, v STRING)")
	mustExec(t, e, s, "INSERT INTO ref VALUES (2, 'x'), (4, 'y'), (6, 'z')")

	res := mustExec(t, e, s,
		"SELECT rownum, id FROM kv WHERE EXISTS (SELECT 1 FROM ref WHERE k = id) AND rownum <= 2")
	require.Equal(t, []string{"(1, 2)", "(2, 4)"}, rowStrings(res[0]))
}

func TestRowNumUncorrelatedSubquery(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)

	res := mustExec(t, e, s,
		"SELECT id FROM kv WHERE id = (SELECT id FROM kv WHERE rownum = 1)")
	require.Equal(t, []string{"(1)"}, rowStrings(res[0]))

	res = mustExec(t, e, s,
		"SELECT id FROM kv WHERE id IN (SELECT id FROM kv WHERE rownum <= 2)")
	require.Equal(t, []string{"(1)", "(2)"}, rowStrings(res[0]))
}

func TestRowNumDialectGating(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	mustExec(t, e, s, "CREATE TABLE legacy (rownum INT, v STRING)")
	mustExec(t, e, s, "INSERT INTO legacy VALUES (100, 'a'), (200, 'b')")

	// Oracle dialect: the bare name is the pseudo-column; the qualified
	// name still reaches the stored column.
	res := mustExec(t, e, s, "SELECT rownum FROM legacy")
	require.Equal(t, []string{"(1)", "(2)"}, rowStrings(res[0]))
	res = mustExec(t, e, s, "SELECT legacy.rownum FROM legacy")
	require.Equal(t, []string{"(100)", "(200)"}, rowStrings(res[0]))

	// Traditional dialect: the bare name is the column.
	s.Syntax = parser.Traditional
	res = mustExec(t, e, s, "SELECT rownum FROM legacy")
	require.Equal(t, []string{"(100)", "(200)"}, rowStrings(res[0]))

	// And without such a column the name does not resolve.
	mustExec(t, e, s, "CREATE TABLE kv (id INT)")
	_, err := e.Execute(context.Background(), s, "SELECT rownum FROM kv")
	require.ErrorContains(t, err, "not found")
}

func TestRowNumOutsideQueryExecution(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 2)

	for _, q := range []string{
		"VALUES (rownum)",
		"SELECT id FROM kv LIMIT rownum",
	} {
		_, err := e.Execute(context.Background(), s, q)
		require.ErrorContains(t, err, "only allowed during query execution", "query: %s", q)
	}
}

func TestRowNumInsertSelect(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)
	mustExec(t, e, s, "CREATE TABLE dst (ord INT, id INT)")

	res := mustExec(t, e, s, "INSERT INTO dst SELECT rownum, id FROM kv WHERE rownum <= 2")
	require.Equal(t, 2, res[0].RowsAffected)

	res = mustExec(t, e, s, "SELECT ord, id FROM dst")
	require.Equal(t, []string{"(1, 1)", "(2, 2)"}, rowStrings(res[0]))
}

func TestRowNumExplain(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 5)

	res := mustExec(t, e, s, "EXPLAIN SELECT id FROM kv WHERE rownum <= 3")
	require.Contains(t, fmt.Sprint(rowStrings(res[0])), "injected limit: 3")

	res = mustExec(t, e, s, "EXPLAIN SELECT id FROM kv WHERE rownum > 5")
	out := fmt.Sprint(rowStrings(res[0]))
	require.Contains(t, out, "norows")
	require.Contains(t, out, "always false")
}

func TestRowNumForcesSerialScan(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	s.ParallelScanThreshold = 2
	seedKV(t, e, s, 10)

	// Without an ordinal reference the scan goes parallel.
	res := mustExec(t, e, s, "EXPLAIN SELECT id FROM kv WHERE id > 0")
	require.Contains(t, fmt.Sprint(rowStrings(res[0])), "parallel")

	// With one it must not: ordinals depend on the scan order.
	res = mustExec(t, e, s, "EXPLAIN SELECT rownum, id FROM kv")
	require.Contains(t, fmt.Sprint(rowStrings(res[0])), "serial")

	res = mustExec(t, e, s, "SELECT rownum, id FROM kv WHERE rownum <= 4")
	require.Equal(t, []string{"(1, 1)", "(2, 2)", "(3, 3)", "(4, 4)"}, rowStrings(res[0]))

	// ROWNUM only in ORDER BY still forces serial execution.
	res = mustExec(t, e, s, "SELECT id FROM kv ORDER BY rownum")
	require.Len(t, res[0].Rows, 10)
}

func TestRowNumWithExplicitLimit(t *testing.T) {
	defer leaktest.AfterTest(t)()
	e, s := newTestExecutor()
	seedKV(t, e, s, 10)

	// The injected bound merges with the explicit one; the tighter wins.
	res := mustExec(t, e, s, "SELECT rownum FROM kv WHERE rownum <= 5 LIMIT 2")
	require.Equal(t, []string{"(1)", "(2)"}, rowStrings(res[0]))

	res = mustExec(t, e, s, "SELECT rownum FROM kv WHERE rownum <= 2 LIMIT 5")
	require.Equal(t, []string{"(1)", "(2)"}, rowStrings(res[0]))
}

func TestRowCounterRollback(t *testing.T) {
	defer leaktest.AfterTest(t)()
	c := &rowCounter{}
	require.Equal(t, int64(1), c.incrementAndRead())
	require.Equal(t, int64(2), c.incrementAndRead())
	require.NoError(t, c.rollback())
	require.Equal(t, int64(1), c.current())
	require.Equal(t, int64(2), c.incrementAndRead())

	c = &rowCounter{}
	require.Error(t, c.rollback())
}

func TestRowNumStackDiscipline(t *testing.T) {
	defer leaktest.AfterTest(t)()
	s := &rowNumStack{}

	_, err := s.CurrentRowNum()
	require.ErrorContains(t, err, "only allowed during query execution")

	outer := &rowCounter{}
	inner := &rowCounter{}
	require.NoError(t, s.enter(outer))
	outer.incrementAndRead()
	require.NoError(t, s.enter(inner))

	// The inner scope is active; the outer value is saved beneath it.
	v, err := s.CurrentRowNum()
	require.NoError(t, err)
	require.Equal(t, int64(0), v)

	// Popping out of order is a stack discipline violation.
	require.Error(t, s.exit(outer))

	require.NoError(t, s.exit(inner))
	v, err = s.CurrentRowNum()
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
	require.NoError(t, s.exit(outer))
	require.Equal(t, 0, s.depth())

	require.Error(t, s.exit(outer))
}

func TestRowNumScopeLifecycle(t *testing.T) {
	defer leaktest.AfterTest(t)()
	s := &rowNumStack{}
	c := &rowCounter{}
	require.Equal(t, counterUnentered, c.state)

	// Entering activates the scope; a scope re-enters freely while its
	// block is still producing.
	require.NoError(t, s.enter(c))
	require.Equal(t, counterActive, c.state)
	require.NoError(t, s.exit(c))
	require.NoError(t, s.enter(c))
	require.NoError(t, s.exit(c))

	// Once the block reports exhaustion, re-entering the scope is an
	// internal error.
	c.state = counterExhausted
	require.Error(t, s.enter(c))
	require.Equal(t, 0, s.depth())
}
