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

// Package sqlbase holds table metadata and the in-memory row store shared
// by the planner and executor.
package sqlbase

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq/oid"

	"github.com/oriondb/orion/sql/parser"
)

// ColumnKind enumerates the supported column value types.
type ColumnKind int

// ColumnKind values.
const (
	ColumnInt ColumnKind = iota
	ColumnFloat
	ColumnDecimal
	ColumnString
	ColumnBool
)

// ColumnType describes the type of a table column.
type ColumnType struct {
	Kind ColumnKind
}

// Oid returns the wire-protocol OID for the column type.
func (t ColumnType) Oid() oid.Oid {
	switch t.Kind {
	case ColumnInt:
		return oid.T_int8
	case ColumnFloat:
		return oid.T_float8
	case ColumnDecimal:
		return oid.T_numeric
	case ColumnString:
		return oid.T_text
	case ColumnBool:
		return oid.T_bool
	}
	return oid.T_unknown
}

// OidForDatum returns the wire-protocol OID for a datum's value type. It
// is used for result columns whose type comes from an expression rather
// than a stored column.
func OidForDatum(d parser.Datum) oid.Oid {
	switch d.(type) {
	case parser.DBool:
		return oid.T_bool
	case parser.DInt:
		return oid.T_int8
	case parser.DFloat:
		return oid.T_float8
	case parser.DDecimal:
		return oid.T_numeric
	case parser.DString:
		return oid.T_text
	case parser.DTuple:
		return oid.T_record
	}
	return oid.T_unknown
}

// SQLName returns the SQL spelling of the column type.
func (t ColumnType) SQLName() string {
	switch t.Kind {
	case ColumnInt:
		return "INT"
	case ColumnFloat:
		return "FLOAT"
	case ColumnDecimal:
		return "DECIMAL"
	case ColumnString:
		return "STRING"
	case ColumnBool:
		return "BOOL"
	}
	return "UNKNOWN"
}

// TypeDatum returns a placeholder datum of the column's value type.
func (t ColumnType) TypeDatum() parser.Datum {
	switch t.Kind {
	case ColumnInt:
		return parser.DummyInt
	case ColumnFloat:
		return parser.DummyFloat
	case ColumnDecimal:
		return parser.DummyDecimal
	case ColumnString:
		return parser.DummyString
	case ColumnBool:
		return parser.DummyBool
	}
	return parser.DNull
}

// ColumnTypeFromName maps a type name from the grammar to a ColumnType.
func ColumnTypeFromName(name string) (ColumnType, error) {
	switch strings.ToLower(name) {
	case "int", "int8", "bigint", "integer", "smallint", "number":
		return ColumnType{Kind: ColumnInt}, nil
	case "float", "float8", "double", "real":
		return ColumnType{Kind: ColumnFloat}, nil
	case "decimal", "numeric":
		return ColumnType{Kind: ColumnDecimal}, nil
	case "string", "text", "varchar", "varchar2", "char":
		return ColumnType{Kind: ColumnString}, nil
	case "bool", "boolean":
		return ColumnType{Kind: ColumnBool}, nil
	}
	return ColumnType{}, errors.Newf("unknown column type %q", name)
}

// CheckDatum verifies that a datum is assignable to the column type. NULL
// is assignable to every column.
func (t ColumnType) CheckDatum(d parser.Datum) error {
	if d == parser.DNull {
		return nil
	}
	ok := false
	switch t.Kind {
	case ColumnInt:
		_, ok = d.(parser.DInt)
	case ColumnFloat:
		_, ok = d.(parser.DFloat)
		if !ok {
			// Integer literals widen to float.
			_, ok = d.(parser.DInt)
		}
	case ColumnDecimal:
		switch d.(type) {
		case parser.DDecimal, parser.DInt, parser.DFloat:
			ok = true
		}
	case ColumnString:
		_, ok = d.(parser.DString)
	case ColumnBool:
		_, ok = d.(parser.DBool)
	}
	if !ok {
		return errors.Newf("value type %s doesn't match type %s", d.Type(), t.SQLName())
	}
	return nil
}

// ColumnDescriptor describes one column of a table.
type ColumnDescriptor struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
}

// TableDescriptor describes a table and owns its rows. Rows are stored in
// insertion order; a scan that walks Rows front to back is the engine's
// "original scan order".
type TableDescriptor struct {
	Name    string
	Columns []ColumnDescriptor
	Rows    []parser.DTuple
}

// FindColumn returns the index of the named column, or -1.
func (desc *TableDescriptor) FindColumn(name string) int {
	norm := NormalizeName(name)
	for i := range desc.Columns {
		if NormalizeName(desc.Columns[i].Name) == norm {
			return i
		}
	}
	return -1
}

// NormalizeName lower-cases an identifier for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(name)
}
