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

// Expr represents an expression.
type Expr interface {
	fmt.Stringer
}

// Name is an SQL identifier.
type Name string

// AndExpr represents an AND expression.
type AndExpr struct {
	Left, Right Expr
}

func (node *AndExpr) String() string {
	return fmt.Sprintf("%s AND %s", node.Left, node.Right)
}

// OrExpr represents an OR expression.
type OrExpr struct {
	Left, Right Expr
}

func (node *OrExpr) String() string {
	return fmt.Sprintf("%s OR %s", node.Left, node.Right)
}

// NotExpr represents a NOT expression.
type NotExpr struct {
	Expr Expr
}

func (node *NotExpr) String() string {
	return fmt.Sprintf("NOT %s", node.Expr)
}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (node *ParenExpr) String() string {
	return fmt.Sprintf("(%s)", node.Expr)
}

// ComparisonOperator represents a binary comparison operator.
type ComparisonOperator int

// ComparisonExpr.Operator
const (
	EQ ComparisonOperator = iota
	LT
	GT
	LE
	GE
	NE
	In
	NotIn
)

var comparisonOpName = [...]string{
	EQ:    "=",
	LT:    "<",
	GT:    ">",
	LE:    "<=",
	GE:    ">=",
	NE:    "!=",
	In:    "IN",
	NotIn: "NOT IN",
}

func (i ComparisonOperator) String() string {
	if i < 0 || i >= ComparisonOperator(len(comparisonOpName)) {
		return fmt.Sprintf("ComparisonOp(%d)", i)
	}
	return comparisonOpName[i]
}

// ComparisonExpr represents a two-value comparison expression.
type ComparisonExpr struct {
	Operator    ComparisonOperator
	Left, Right Expr
}

func (node *ComparisonExpr) String() string {
	return fmt.Sprintf("%s %s %s", node.Left, node.Operator, node.Right)
}

// BinaryOperator represents a binary arithmetic operator.
type BinaryOperator int

// BinaryExpr.Operator
const (
	Plus BinaryOperator = iota
	Minus
	Mult
	Div
	Mod
)

var binaryOpName = [...]string{
	Plus:  "+",
	Minus: "-",
	Mult:  "*",
	Div:   "/",
	Mod:   "%",
}

func (i BinaryOperator) String() string {
	if i < 0 || i >= BinaryOperator(len(binaryOpName)) {
		return fmt.Sprintf("BinaryOp(%d)", i)
	}
	return binaryOpName[i]
}

// BinaryExpr represents a binary arithmetic expression.
type BinaryExpr struct {
	Operator    BinaryOperator
	Left, Right Expr
}

func (node *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", node.Left, node.Operator, node.Right)
}

// UnaryExpr represents a unary expression.
type UnaryExpr struct {
	Expr Expr
}

func (node *UnaryExpr) String() string {
	return fmt.Sprintf("-%s", node.Expr)
}

// Tuple represents a parenthesized list of expressions, e.g. the right-hand
// side of an IN comparison.
type Tuple struct {
	Exprs []Expr
}

func (node *Tuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, e := range node.Exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte(')')
	return b.String()
}

// QualifiedName is a base name and an optional qualifier: "column" or
// "table.column". The qualifier disambiguates columns of the same name from
// different sources; it also reaches columns whose bare name is reserved in
// the active dialect.
type QualifiedName struct {
	Base Name // optional table qualifier
	Col  Name
	Pos  int // byte offset in the original statement
}

// Table returns the table qualifier, possibly empty.
func (node *QualifiedName) Table() string { return string(node.Base) }

// Column returns the column part of the name.
func (node *QualifiedName) Column() string { return string(node.Col) }

func (node *QualifiedName) String() string {
	if node.Base != "" {
		return fmt.Sprintf("%s.%s", node.Base, node.Col)
	}
	return string(node.Col)
}

// Subquery represents a subquery expression.
type Subquery struct {
	Select *Select
}

func (node *Subquery) String() string {
	return fmt.Sprintf("(%s)", node.Select)
}

// ExistsExpr represents an EXISTS expression.
type ExistsExpr struct {
	Subquery *Subquery
}

func (node *ExistsExpr) String() string {
	return fmt.Sprintf("EXISTS %s", node.Subquery)
}
