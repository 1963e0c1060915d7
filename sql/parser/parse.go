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

// Package parser converts SQL statement text into an AST. The parser is a
// hand-written recursive descent parser over a small SELECT/DML/DDL
// grammar, with a dialect switch that controls recognition of the ROWNUM
// pseudo-column.
package parser

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Syntax is an enum of the supported SQL dialects.
type Syntax int

//go:generate stringer -type=Syntax
const (
	// Traditional is the default dialect; ROWNUM is an ordinary
	// identifier. Implicit default, must stay in the zero-value position.
	Traditional Syntax = iota
	// Oracle enables the compatibility dialect: a bare ROWNUM identifier
	// parses to a RowNumExpr.
	Oracle
)

func (s Syntax) String() string {
	switch s {
	case Traditional:
		return "traditional"
	case Oracle:
		return "oracle"
	}
	return "unknown"
}

// SyntaxFromString maps a dialect name to its Syntax value.
func SyntaxFromString(s string) (Syntax, error) {
	switch strings.ToLower(s) {
	case "traditional", "":
		return Traditional, nil
	case "oracle":
		return Oracle, nil
	}
	return 0, errors.Newf("unknown dialect %q", s)
}

// Parser parses one or more SQL statements.
type Parser struct {
	syntax Syntax
	tokens []token
	idx    int
}

// Parse parses the sql and returns a list of statements.
func Parse(sql string, syntax Syntax) (StatementList, error) {
	var s scanner
	s.init(sql)
	var tokens []token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			break
		}
	}

	p := Parser{syntax: syntax, tokens: tokens}
	var stmts StatementList
	for {
		for p.cur().kind == tokenSemicolon {
			p.advance()
		}
		if p.cur().kind == tokenEOF {
			return stmts, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		switch p.cur().kind {
		case tokenSemicolon, tokenEOF:
		default:
			return nil, p.unexpected("end of statement")
		}
	}
}

// ParseOne parses a single sql statement.
func ParseOne(sql string, syntax Syntax) (Statement, error) {
	stmts, err := Parse(sql, syntax)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, errors.Newf("expected 1 statement, but found %d", len(stmts))
	}
	return stmts[0], nil
}

func (p *Parser) cur() token {
	return p.tokens[p.idx]
}

func (p *Parser) peek() token {
	if p.idx+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.idx+1]
}

func (p *Parser) advance() token {
	tok := p.tokens[p.idx]
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	return tok
}

func (p *Parser) expect(kind tokenKind, what string) (token, error) {
	if p.cur().kind != kind {
		return token{}, p.unexpected(what)
	}
	return p.advance(), nil
}

func (p *Parser) unexpected(expected string) error {
	tok := p.cur()
	got := tok.str
	if tok.kind == tokenEOF {
		got = "EOF"
	}
	return errors.Newf("syntax error at or near %q (offset %d): expected %s", got, tok.pos, expected)
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.cur().kind {
	case tokenExplain:
		p.advance()
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &Explain{Statement: stmt}, nil
	case tokenSelect, tokenValues, tokenLParen:
		return p.parseSelect()
	case tokenCreate:
		return p.parseCreateTable()
	case tokenInsert:
		return p.parseInsert()
	case tokenDrop:
		return p.parseDropTable()
	}
	return nil, p.unexpected("a statement")
}

// parseSelect parses a full SELECT statement: one or more select operands
// combined by UNION, followed by optional ORDER BY and LIMIT clauses which
// apply to the whole body.
func (p *Parser) parseSelect() (*Select, error) {
	body, err := p.parseSelectOperand()
	if err != nil {
		return nil, err
	}

	for p.cur().kind == tokenUnion {
		p.advance()
		all := false
		if p.cur().kind == tokenAll {
			p.advance()
			all = true
		}
		right, err := p.parseSelectOperand()
		if err != nil {
			return nil, err
		}
		body = &UnionClause{
			Left:  &Select{Select: body},
			Right: &Select{Select: right},
			All:   all,
		}
	}

	sel := &Select{Select: body}
	if p.cur().kind == tokenOrder {
		if sel.OrderBy, err = p.parseOrderBy(); err != nil {
			return nil, err
		}
	}
	if p.cur().kind == tokenLimit || p.cur().kind == tokenOffset {
		if sel.Limit, err = p.parseLimit(); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// parseSelectOperand parses one branch of a (possible) set operation: a
// SELECT clause, a VALUES clause, or a parenthesized SELECT.
func (p *Parser) parseSelectOperand() (SelectStatement, error) {
	switch p.cur().kind {
	case tokenValues:
		return p.parseValues()
	case tokenLParen:
		p.advance()
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		// Flatten: a parenthesized select is its own query block only by
		// virtue of its clauses; reuse it as a nested FROM-less operand.
		return &SelectClause{
			Exprs: SelectExprs{&StarExpr{}},
			From: TableExprs{&AliasedTableExpr{
				Expr: &Subquery{Select: sub},
			}},
		}, nil
	}

	if _, err := p.expect(tokenSelect, "SELECT"); err != nil {
		return nil, err
	}
	clause := &SelectClause{}
	switch p.cur().kind {
	case tokenDistinct:
		p.advance()
		clause.Distinct = true
	case tokenAll:
		p.advance()
	}

	exprs, err := p.parseSelectExprs()
	if err != nil {
		return nil, err
	}
	clause.Exprs = exprs

	if p.cur().kind == tokenFrom {
		p.advance()
		if clause.From, err = p.parseTableExprs(); err != nil {
			return nil, err
		}
	}
	if p.cur().kind == tokenWhere {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		clause.Where = &Where{Expr: expr}
	}
	return clause, nil
}

func (p *Parser) parseValues() (*ValuesClause, error) {
	if _, err := p.expect(tokenValues, "VALUES"); err != nil {
		return nil, err
	}
	values := &ValuesClause{}
	for {
		if _, err := p.expect(tokenLParen, "'('"); err != nil {
			return nil, err
		}
		tuple := &Tuple{}
		for {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			tuple.Exprs = append(tuple.Exprs, expr)
			if p.cur().kind != tokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		values.Tuples = append(values.Tuples, tuple)
		if p.cur().kind != tokenComma {
			return values, nil
		}
		p.advance()
	}
}

func (p *Parser) parseSelectExprs() (SelectExprs, error) {
	var exprs SelectExprs
	for {
		if p.cur().kind == tokenStar {
			p.advance()
			exprs = append(exprs, &StarExpr{})
		} else {
			expr, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			nse := &NonStarExpr{Expr: expr}
			if p.cur().kind == tokenAs {
				p.advance()
				tok, err := p.expect(tokenIdent, "an identifier")
				if err != nil {
					return nil, err
				}
				nse.As = Name(tok.str)
			} else if p.cur().kind == tokenIdent {
				// Bare column alias, e.g. "SELECT rownum rn, ...".
				nse.As = Name(p.advance().str)
			}
			exprs = append(exprs, nse)
		}
		if p.cur().kind != tokenComma {
			return exprs, nil
		}
		p.advance()
	}
}

func (p *Parser) parseTableExprs() (TableExprs, error) {
	var exprs TableExprs
	for {
		expr, err := p.parseTableExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if p.cur().kind != tokenComma {
			return exprs, nil
		}
		p.advance()
	}
}

func (p *Parser) parseTableExpr() (TableExpr, error) {
	ate := &AliasedTableExpr{}
	switch p.cur().kind {
	case tokenIdent:
		ate.Expr = &TableName{Name: Name(p.advance().str)}
	case tokenLParen:
		p.advance()
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		ate.Expr = &Subquery{Select: sub}
	default:
		return nil, p.unexpected("a table name or subquery")
	}

	if p.cur().kind == tokenAs {
		p.advance()
		tok, err := p.expect(tokenIdent, "an identifier")
		if err != nil {
			return nil, err
		}
		ate.As = Name(tok.str)
	} else if p.cur().kind == tokenIdent {
		ate.As = Name(p.advance().str)
	}
	return ate, nil
}

func (p *Parser) parseOrderBy() (OrderBy, error) {
	if _, err := p.expect(tokenOrder, "ORDER"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenBy, "BY"); err != nil {
		return nil, err
	}
	var orderBy OrderBy
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		order := &Order{Expr: expr}
		switch p.cur().kind {
		case tokenAsc:
			p.advance()
			order.Direction = Ascending
		case tokenDesc:
			p.advance()
			order.Direction = Descending
		}
		orderBy = append(orderBy, order)
		if p.cur().kind != tokenComma {
			return orderBy, nil
		}
		p.advance()
	}
}

func (p *Parser) parseLimit() (*Limit, error) {
	limit := &Limit{}
	if p.cur().kind == tokenLimit {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		limit.Count = expr
	}
	if p.cur().kind == tokenOffset {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		limit.Offset = expr
	}
	return limit, nil
}

// Expression grammar, loosest to tightest:
//   expr       := andExpr { OR andExpr }
//   andExpr    := notExpr { AND notExpr }
//   notExpr    := [NOT] cmpExpr
//   cmpExpr    := addExpr [cmpOp addExpr | [NOT] IN ... | [NOT] BETWEEN ...]
//   addExpr    := mulExpr { (+|-) mulExpr }
//   mulExpr    := unary { (*|/|%) unary }
//   unary      := [-] primary

func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokenOr {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (Expr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokenAnd {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNotExpr() (Expr, error) {
	if p.cur().kind == tokenNot {
		p.advance()
		expr, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: expr}, nil
	}
	return p.parseComparisonExpr()
}

var comparisonOps = map[tokenKind]ComparisonOperator{
	tokenEQ: EQ,
	tokenNE: NE,
	tokenLT: LT,
	tokenLE: LE,
	tokenGT: GT,
	tokenGE: GE,
}

func (p *Parser) parseComparisonExpr() (Expr, error) {
	left, err := p.parseAddExpr()
	if err != nil {
		return nil, err
	}

	if op, ok := comparisonOps[p.cur().kind]; ok {
		p.advance()
		right, err := p.parseAddExpr()
		if err != nil {
			return nil, err
		}
		return &ComparisonExpr{Operator: op, Left: left, Right: right}, nil
	}

	negated := false
	if p.cur().kind == tokenNot &&
		(p.peek().kind == tokenIn || p.peek().kind == tokenBetween) {
		p.advance()
		negated = true
	}

	switch p.cur().kind {
	case tokenIn:
		p.advance()
		right, err := p.parseInOperand()
		if err != nil {
			return nil, err
		}
		op := In
		if negated {
			op = NotIn
		}
		return &ComparisonExpr{Operator: op, Left: left, Right: right}, nil

	case tokenBetween:
		// BETWEEN desugars into its two bound comparisons so that
		// downstream passes only ever see plain conjuncts.
		p.advance()
		lo, err := p.parseAddExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenAnd, "AND"); err != nil {
			return nil, err
		}
		hi, err := p.parseAddExpr()
		if err != nil {
			return nil, err
		}
		if negated {
			return &OrExpr{
				Left:  &ComparisonExpr{Operator: LT, Left: left, Right: lo},
				Right: &ComparisonExpr{Operator: GT, Left: left, Right: hi},
			}, nil
		}
		return &AndExpr{
			Left:  &ComparisonExpr{Operator: GE, Left: left, Right: lo},
			Right: &ComparisonExpr{Operator: LE, Left: left, Right: hi},
		}, nil
	}

	return left, nil
}

func (p *Parser) parseInOperand() (Expr, error) {
	if _, err := p.expect(tokenLParen, "'('"); err != nil {
		return nil, err
	}
	if p.cur().kind == tokenSelect || p.cur().kind == tokenValues {
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return &Subquery{Select: sub}, nil
	}
	tuple := &Tuple{}
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		tuple.Exprs = append(tuple.Exprs, expr)
		if p.cur().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRParen, "')'"); err != nil {
		return nil, err
	}
	return tuple, nil
}

func (p *Parser) parseAddExpr() (Expr, error) {
	left, err := p.parseMulExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOperator
		switch p.cur().kind {
		case tokenPlus:
			op = Plus
		case tokenMinus:
			op = Minus
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMulExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMulExpr() (Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		var op BinaryOperator
		switch p.cur().kind {
		case tokenStar:
			op = Mult
		case tokenSlash:
			op = Div
		case tokenPercent:
			op = Mod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Operator: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnaryExpr() (Expr, error) {
	if p.cur().kind == tokenMinus {
		p.advance()
		expr, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Expr: expr}, nil
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() (Expr, error) {
	tok := p.cur()
	switch tok.kind {
	case tokenNumber:
		p.advance()
		return parseNumber(tok.str)

	case tokenString:
		p.advance()
		return DString(tok.str), nil

	case tokenTrue:
		p.advance()
		return DBool(true), nil

	case tokenFalse:
		p.advance()
		return DBool(false), nil

	case tokenNull:
		p.advance()
		return DNull, nil

	case tokenExists:
		p.advance()
		if _, err := p.expect(tokenLParen, "'('"); err != nil {
			return nil, err
		}
		sub, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return &ExistsExpr{Subquery: &Subquery{Select: sub}}, nil

	case tokenIdent:
		return p.parseNameExpr()

	case tokenLParen:
		p.advance()
		if p.cur().kind == tokenSelect || p.cur().kind == tokenValues {
			sub, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokenRParen, "')'"); err != nil {
				return nil, err
			}
			return &Subquery{Select: sub}, nil
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind == tokenComma {
			tuple := &Tuple{Exprs: []Expr{expr}}
			for p.cur().kind == tokenComma {
				p.advance()
				next, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				tuple.Exprs = append(tuple.Exprs, next)
			}
			if _, err := p.expect(tokenRParen, "')'"); err != nil {
				return nil, err
			}
			return tuple, nil
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return &ParenExpr{Expr: expr}, nil
	}
	return nil, p.unexpected("an expression")
}

// parseNameExpr parses a bare or qualified identifier. This is where the
// recognizer lives: in the Oracle dialect a bare identifier spelled ROWNUM
// becomes a RowNumExpr instead of a column reference. A qualified
// "t.rownum" stays an ordinary column so the name remains reachable.
func (p *Parser) parseNameExpr() (Expr, error) {
	tok := p.advance()
	if p.cur().kind == tokenDot {
		p.advance()
		col, err := p.expect(tokenIdent, "a column name")
		if err != nil {
			return nil, err
		}
		return &QualifiedName{Base: Name(tok.str), Col: Name(col.str), Pos: tok.pos}, nil
	}
	if p.syntax == Oracle && strings.EqualFold(tok.str, RowNumName) {
		return &RowNumExpr{Pos: tok.pos}, nil
	}
	return &QualifiedName{Col: Name(tok.str), Pos: tok.pos}, nil
}

func parseNumber(s string) (Expr, error) {
	if !strings.Contains(s, ".") {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return DInt(v), nil
		}
	}
	return NewDecimalFromString(s)
}

func (p *Parser) parseCreateTable() (Statement, error) {
	if _, err := p.expect(tokenCreate, "CREATE"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenTable, "TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expect(tokenIdent, "a table name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenLParen, "'('"); err != nil {
		return nil, err
	}
	ct := &CreateTable{Table: Name(name.str)}
	for {
		colName, err := p.expect(tokenIdent, "a column name")
		if err != nil {
			return nil, err
		}
		colType, err := p.expect(tokenIdent, "a column type")
		if err != nil {
			return nil, err
		}
		def := &ColumnTableDef{Name: Name(colName.str), Type: Name(colType.str)}
		if p.cur().kind == tokenPrimary {
			p.advance()
			if _, err := p.expect(tokenKey, "KEY"); err != nil {
				return nil, err
			}
			def.PrimaryKey = true
		}
		ct.Defs = append(ct.Defs, def)
		if p.cur().kind != tokenComma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(tokenRParen, "')'"); err != nil {
		return nil, err
	}
	return ct, nil
}

func (p *Parser) parseInsert() (Statement, error) {
	if _, err := p.expect(tokenInsert, "INSERT"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenInto, "INTO"); err != nil {
		return nil, err
	}
	name, err := p.expect(tokenIdent, "a table name")
	if err != nil {
		return nil, err
	}
	ins := &Insert{Table: Name(name.str)}

	if p.cur().kind == tokenLParen {
		p.advance()
		for {
			col, err := p.expect(tokenIdent, "a column name")
			if err != nil {
				return nil, err
			}
			ins.Columns = append(ins.Columns, Name(col.str))
			if p.cur().kind != tokenComma {
				break
			}
			p.advance()
		}
		if _, err := p.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
	}

	rows, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	ins.Rows = rows
	return ins, nil
}

func (p *Parser) parseDropTable() (Statement, error) {
	if _, err := p.expect(tokenDrop, "DROP"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenTable, "TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expect(tokenIdent, "a table name")
	if err != nil {
		return nil, err
	}
	return &DropTable{Table: Name(name.str)}, nil
}
