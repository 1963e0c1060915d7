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

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/logtags"

	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/sql/sqlbase"
	"github.com/oriondb/orion/util/log"
)

// Result is the outcome of executing one statement.
type Result struct {
	Columns      []ResultColumn
	Rows         []parser.DTuple
	RowsAffected int
}

// Executor parses, plans and runs statements against its catalog.
type Executor struct {
	catalog *sqlbase.Catalog
}

// NewExecutor returns an executor with an empty catalog.
func NewExecutor() *Executor {
	return &Executor{catalog: sqlbase.NewCatalog()}
}

// Catalog exposes the executor's table catalog.
func (e *Executor) Catalog() *sqlbase.Catalog { return e.catalog }

// Execute parses and runs a semicolon-separated statement string, returning
// one result per statement. Execution stops at the first error.
func (e *Executor) Execute(ctx context.Context, session *Session, stmts string) ([]Result, error) {
	list, err := parser.Parse(stmts, session.Syntax)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(list))
	for _, stmt := range list {
		res, err := e.execStmt(ctx, session, stmt)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Executor) execStmt(ctx context.Context, session *Session, stmt parser.Statement) (Result, error) {
	ctx = logtags.AddTag(ctx, "sql", nil)
	log.VEventf(ctx, 1, "executing: %s", stmt)

	p := makePlanner(ctx, e.catalog, session)
	plan, err := p.makePlan(stmt)
	if err != nil {
		return Result{}, err
	}
	defer plan.Close()

	res := Result{Columns: plan.Columns()}
	for plan.Next() {
		src := plan.Values()
		if len(src) > len(res.Columns) {
			src = src[:len(res.Columns)]
		}
		row := make(parser.DTuple, len(src))
		copy(row, src)
		res.Rows = append(res.Rows, row)
	}
	if err := plan.Err(); err != nil {
		return Result{}, err
	}
	if n, ok := plan.(rowsAffectedNode); ok {
		res.RowsAffected = n.rowsAffected()
	}

	// Every counter scope entered during execution must have been exited.
	if d := p.rowNums.depth(); d != 0 {
		return Result{}, errors.AssertionFailedf("%d rownum scope(s) left open after execution", d)
	}
	return res, nil
}
