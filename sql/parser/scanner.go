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
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString

	tokenComma
	tokenSemicolon
	tokenLParen
	tokenRParen
	tokenDot
	tokenStar
	tokenPlus
	tokenMinus
	tokenSlash
	tokenPercent
	tokenEQ
	tokenNE
	tokenLT
	tokenLE
	tokenGT
	tokenGE

	tokenSelect
	tokenDistinct
	tokenAll
	tokenFrom
	tokenWhere
	tokenAnd
	tokenOr
	tokenNot
	tokenNull
	tokenTrue
	tokenFalse
	tokenAs
	tokenOrder
	tokenBy
	tokenAsc
	tokenDesc
	tokenLimit
	tokenOffset
	tokenUnion
	tokenValues
	tokenIn
	tokenBetween
	tokenExists
	tokenExplain
	tokenCreate
	tokenDrop
	tokenTable
	tokenInsert
	tokenInto
	tokenPrimary
	tokenKey
)

var keywords = map[string]tokenKind{
	"select":   tokenSelect,
	"distinct": tokenDistinct,
	"all":      tokenAll,
	"from":     tokenFrom,
	"where":    tokenWhere,
	"and":      tokenAnd,
	"or":       tokenOr,
	"not":      tokenNot,
	"null":     tokenNull,
	"true":     tokenTrue,
	"false":    tokenFalse,
	"as":       tokenAs,
	"order":    tokenOrder,
	"by":       tokenBy,
	"asc":      tokenAsc,
	"desc":     tokenDesc,
	"limit":    tokenLimit,
	"offset":   tokenOffset,
	"union":    tokenUnion,
	"values":   tokenValues,
	"in":       tokenIn,
	"between":  tokenBetween,
	"exists":   tokenExists,
	"explain":  tokenExplain,
	"create":   tokenCreate,
	"drop":     tokenDrop,
	"table":    tokenTable,
	"insert":   tokenInsert,
	"into":     tokenInto,
	"primary":  tokenPrimary,
	"key":      tokenKey,
}

// token is a single lexical token. pos is the byte offset of the token's
// first character in the original statement text; it travels into the AST
// for diagnostics.
type token struct {
	kind tokenKind
	str  string
	pos  int
}

// scanner tokenizes one statement string. It is hand-written rather than
// generated; the accepted language is small enough that a table-driven
// scanner buys nothing.
type scanner struct {
	in  string
	pos int
}

func (s *scanner) init(sql string) {
	s.in = sql
	s.pos = 0
}

func (s *scanner) errorf(pos int, format string, args ...interface{}) error {
	err := errors.Newf(format, args...)
	return errors.Wrapf(err, "at or near byte offset %d", pos)
}

func (s *scanner) peekByte() byte {
	if s.pos >= len(s.in) {
		return 0
	}
	return s.in[s.pos]
}

func (s *scanner) skipWhitespace() {
	for s.pos < len(s.in) {
		c := s.in[s.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			s.pos++
			continue
		}
		// Line comments.
		if c == '-' && s.pos+1 < len(s.in) && s.in[s.pos+1] == '-' {
			for s.pos < len(s.in) && s.in[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		break
	}
}

// next returns the next token in the input.
func (s *scanner) next() (token, error) {
	s.skipWhitespace()
	start := s.pos
	if s.pos >= len(s.in) {
		return token{kind: tokenEOF, pos: start}, nil
	}

	c := s.in[s.pos]
	switch c {
	case ',':
		s.pos++
		return token{tokenComma, ",", start}, nil
	case ';':
		s.pos++
		return token{tokenSemicolon, ";", start}, nil
	case '(':
		s.pos++
		return token{tokenLParen, "(", start}, nil
	case ')':
		s.pos++
		return token{tokenRParen, ")", start}, nil
	case '.':
		s.pos++
		return token{tokenDot, ".", start}, nil
	case '*':
		s.pos++
		return token{tokenStar, "*", start}, nil
	case '+':
		s.pos++
		return token{tokenPlus, "+", start}, nil
	case '-':
		s.pos++
		return token{tokenMinus, "-", start}, nil
	case '/':
		s.pos++
		return token{tokenSlash, "/", start}, nil
	case '%':
		s.pos++
		return token{tokenPercent, "%", start}, nil
	case '=':
		s.pos++
		return token{tokenEQ, "=", start}, nil
	case '<':
		s.pos++
		switch s.peekByte() {
		case '=':
			s.pos++
			return token{tokenLE, "<=", start}, nil
		case '>':
			s.pos++
			return token{tokenNE, "<>", start}, nil
		}
		return token{tokenLT, "<", start}, nil
	case '>':
		s.pos++
		if s.peekByte() == '=' {
			s.pos++
			return token{tokenGE, ">=", start}, nil
		}
		return token{tokenGT, ">", start}, nil
	case '!':
		s.pos++
		if s.peekByte() == '=' {
			s.pos++
			return token{tokenNE, "!=", start}, nil
		}
		return token{}, s.errorf(start, "unexpected character %q", c)
	case '\'':
		return s.scanString(start)
	case '"':
		return s.scanQuotedIdent(start)
	}

	if c >= '0' && c <= '9' {
		return s.scanNumber(start)
	}
	if isIdentStart(rune(c)) {
		return s.scanIdent(start)
	}
	r, _ := utf8.DecodeRuneInString(s.in[s.pos:])
	if isIdentStart(r) {
		return s.scanIdent(start)
	}
	return token{}, s.errorf(start, "unexpected character %q", c)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentMiddle(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (s *scanner) scanIdent(start int) (token, error) {
	for s.pos < len(s.in) {
		r, size := utf8.DecodeRuneInString(s.in[s.pos:])
		if !isIdentMiddle(r) {
			break
		}
		s.pos += size
	}
	str := s.in[start:s.pos]
	if kind, ok := keywords[strings.ToLower(str)]; ok {
		return token{kind, str, start}, nil
	}
	return token{tokenIdent, str, start}, nil
}

// scanQuotedIdent scans a double-quoted identifier. Quoting preserves case
// and allows reserved words as names.
func (s *scanner) scanQuotedIdent(start int) (token, error) {
	s.pos++ // consume opening quote
	var b strings.Builder
	for s.pos < len(s.in) {
		c := s.in[s.pos]
		if c == '"' {
			s.pos++
			if s.peekByte() == '"' { // escaped quote
				b.WriteByte('"')
				s.pos++
				continue
			}
			return token{tokenIdent, b.String(), start}, nil
		}
		b.WriteByte(c)
		s.pos++
	}
	return token{}, s.errorf(start, "unterminated quoted identifier")
}

func (s *scanner) scanString(start int) (token, error) {
	s.pos++ // consume opening quote
	var b strings.Builder
	for s.pos < len(s.in) {
		c := s.in[s.pos]
		if c == '\'' {
			s.pos++
			if s.peekByte() == '\'' { // escaped quote
				b.WriteByte('\'')
				s.pos++
				continue
			}
			return token{tokenString, b.String(), start}, nil
		}
		b.WriteByte(c)
		s.pos++
	}
	return token{}, s.errorf(start, "unterminated string literal")
}

func (s *scanner) scanNumber(start int) (token, error) {
	seenDot := false
	for s.pos < len(s.in) {
		c := s.in[s.pos]
		if c >= '0' && c <= '9' {
			s.pos++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			s.pos++
			continue
		}
		break
	}
	return token{tokenNumber, s.in[start:s.pos], start}, nil
}
