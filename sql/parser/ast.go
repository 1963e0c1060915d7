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
	"fmt"
	"strings"
)

// Statement represents a statement.
type Statement interface {
	fmt.Stringer
	statement()
}

func (*Select) statement()      {}
func (*CreateTable) statement() {}
func (*Insert) statement()      {}
func (*DropTable) statement()   {}
func (*Explain) statement()     {}

// StatementList is a list of statements.
type StatementList []Statement

func (l StatementList) String() string {
	var b strings.Builder
	for i, s := range l {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// SelectStatement is any SELECT-ish construct that can appear as the body
// of a Select: a plain select clause, a set operation, or a VALUES list.
type SelectStatement interface {
	fmt.Stringer
	selectStatement()
}

func (*SelectClause) selectStatement() {}
func (*UnionClause) selectStatement()  {}
func (*ValuesClause) selectStatement() {}

// Select represents a SELECT statement, together with the ORDER BY and
// LIMIT clauses that apply to its entire body.
type Select struct {
	Select  SelectStatement
	OrderBy OrderBy
	Limit   *Limit
}

func (node *Select) String() string {
	var b strings.Builder
	b.WriteString(node.Select.String())
	b.WriteString(node.OrderBy.String())
	if node.Limit != nil {
		b.WriteString(node.Limit.String())
	}
	return b.String()
}

// SelectClause represents a SELECT ... FROM ... WHERE query block.
type SelectClause struct {
	Distinct bool
	Exprs    SelectExprs
	From     TableExprs
	Where    *Where
}

func (node *SelectClause) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if node.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(node.Exprs.String())
	if len(node.From) > 0 {
		b.WriteString(" FROM ")
		b.WriteString(node.From.String())
	}
	if node.Where != nil {
		b.WriteString(node.Where.String())
	}
	return b.String()
}

// UnionClause represents a UNION set operation.
type UnionClause struct {
	Left, Right *Select
	All         bool
}

func (node *UnionClause) String() string {
	all := ""
	if node.All {
		all = " ALL"
	}
	return fmt.Sprintf("%s UNION%s %s", node.Left, all, node.Right)
}

// ValuesClause represents a VALUES clause.
type ValuesClause struct {
	Tuples []*Tuple
}

func (node *ValuesClause) String() string {
	var b strings.Builder
	b.WriteString("VALUES ")
	for i, t := range node.Tuples {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// SelectExprs represents SELECT expressions.
type SelectExprs []SelectExpr

func (node SelectExprs) String() string {
	strs := make([]string, len(node))
	for i, e := range node {
		strs[i] = e.String()
	}
	return strings.Join(strs, ", ")
}

// SelectExpr represents a SELECT expression.
type SelectExpr interface {
	fmt.Stringer
	selectExpr()
}

func (*StarExpr) selectExpr()    {}
func (*NonStarExpr) selectExpr() {}

// StarExpr represents a "*" in a select expression.
type StarExpr struct{}

func (*StarExpr) String() string { return "*" }

// NonStarExpr represents a non-"*" select expression.
type NonStarExpr struct {
	Expr Expr
	As   Name
}

func (node *NonStarExpr) String() string {
	if node.As != "" {
		return fmt.Sprintf("%s AS %s", node.Expr, node.As)
	}
	return node.Expr.String()
}

// TableExprs represents a list of table expressions.
type TableExprs []TableExpr

func (node TableExprs) String() string {
	strs := make([]string, len(node))
	for i, e := range node {
		strs[i] = e.String()
	}
	return strings.Join(strs, ", ")
}

// TableExpr represents a table expression.
type TableExpr interface {
	fmt.Stringer
	tableExpr()
}

func (*AliasedTableExpr) tableExpr() {}

// AliasedTableExpr represents a table expression coupled with an optional
// alias.
type AliasedTableExpr struct {
	Expr SimpleTableExpr
	As   Name
}

func (node *AliasedTableExpr) String() string {
	if node.As != "" {
		return fmt.Sprintf("%s AS %s", node.Expr, node.As)
	}
	return node.Expr.String()
}

// SimpleTableExpr represents a simple table expression: a table name or a
// subquery in a FROM clause.
type SimpleTableExpr interface {
	fmt.Stringer
	simpleTableExpr()
}

func (*TableName) simpleTableExpr() {}
func (*Subquery) simpleTableExpr()  {}

// TableName is a reference to a named table.
type TableName struct {
	Name Name
}

func (node *TableName) String() string { return string(node.Name) }

// Where represents a WHERE clause.
type Where struct {
	Expr Expr
}

func (node *Where) String() string {
	return fmt.Sprintf(" WHERE %s", node.Expr)
}

// OrderBy represents an ORDER BY clause.
type OrderBy []*Order

func (node OrderBy) String() string {
	if len(node) == 0 {
		return ""
	}
	strs := make([]string, len(node))
	for i, o := range node {
		strs[i] = o.String()
	}
	return " ORDER BY " + strings.Join(strs, ", ")
}

// Direction for ordering.
type Direction int

// Direction values.
const (
	DefaultDirection Direction = iota
	Ascending
	Descending
)

// Order represents an ordering expression.
type Order struct {
	Expr      Expr
	Direction Direction
}

func (node *Order) String() string {
	switch node.Direction {
	case Ascending:
		return fmt.Sprintf("%s ASC", node.Expr)
	case Descending:
		return fmt.Sprintf("%s DESC", node.Expr)
	}
	return node.Expr.String()
}

// Limit represents a LIMIT, with an optional OFFSET, clause.
type Limit struct {
	Count  Expr
	Offset Expr
}

func (node *Limit) String() string {
	var b strings.Builder
	if node.Count != nil {
		fmt.Fprintf(&b, " LIMIT %s", node.Count)
	}
	if node.Offset != nil {
		fmt.Fprintf(&b, " OFFSET %s", node.Offset)
	}
	return b.String()
}

// ColumnTableDef represents a column definition in CREATE TABLE.
type ColumnTableDef struct {
	Name       Name
	Type       Name
	PrimaryKey bool
}

func (node *ColumnTableDef) String() string {
	s := fmt.Sprintf("%s %s", node.Name, strings.ToUpper(string(node.Type)))
	if node.PrimaryKey {
		s += " PRIMARY KEY"
	}
	return s
}

// CreateTable represents a CREATE TABLE statement.
type CreateTable struct {
	Table Name
	Defs  []*ColumnTableDef
}

func (node *CreateTable) String() string {
	strs := make([]string, len(node.Defs))
	for i, d := range node.Defs {
		strs[i] = d.String()
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", node.Table, strings.Join(strs, ", "))
}

// Insert represents an INSERT statement.
type Insert struct {
	Table   Name
	Columns []Name
	Rows    *Select
}

func (node *Insert) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s", node.Table)
	if len(node.Columns) > 0 {
		strs := make([]string, len(node.Columns))
		for i, c := range node.Columns {
			strs[i] = string(c)
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(strs, ", "))
	}
	fmt.Fprintf(&b, " %s", node.Rows)
	return b.String()
}

// DropTable represents a DROP TABLE statement.
type DropTable struct {
	Table Name
}

func (node *DropTable) String() string {
	return fmt.Sprintf("DROP TABLE %s", node.Table)
}

// Explain represents an EXPLAIN statement.
type Explain struct {
	Statement Statement
}

func (node *Explain) String() string {
	return fmt.Sprintf("EXPLAIN %s", node.Statement)
}
