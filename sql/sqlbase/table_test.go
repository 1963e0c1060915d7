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

package sqlbase

import (
	"testing"

	"github.com/lib/pq/oid"
	"github.com/stretchr/testify/require"

	"github.com/oriondb/orion/sql/parser"
)

func TestColumnTypeFromName(t *testing.T) {
	for name, kind := range map[string]ColumnKind{
		"INT":      ColumnInt,
		"integer":  ColumnInt,
		"number":   ColumnInt,
		"varchar2": ColumnString,
		"text":     ColumnString,
		"FLOAT":    ColumnFloat,
		"decimal":  ColumnDecimal,
		"boolean":  ColumnBool,
	} {
		typ, err := ColumnTypeFromName(name)
		require.NoError(t, err)
		require.Equal(t, kind, typ.Kind, "type %s", name)
	}

	_, err := ColumnTypeFromName("blob")
	require.ErrorContains(t, err, "unknown column type")
}

func TestColumnTypeOid(t *testing.T) {
	require.Equal(t, oid.T_int8, ColumnType{Kind: ColumnInt}.Oid())
	require.Equal(t, oid.T_text, ColumnType{Kind: ColumnString}.Oid())
	require.Equal(t, oid.T_bool, ColumnType{Kind: ColumnBool}.Oid())
}

func TestCheckDatum(t *testing.T) {
	intCol := ColumnType{Kind: ColumnInt}
	require.NoError(t, intCol.CheckDatum(parser.DInt(1)))
	require.NoError(t, intCol.CheckDatum(parser.DNull))
	require.ErrorContains(t, intCol.CheckDatum(parser.DString("x")), "doesn't match type INT")

	floatCol := ColumnType{Kind: ColumnFloat}
	require.NoError(t, floatCol.CheckDatum(parser.DInt(1)))
	require.NoError(t, floatCol.CheckDatum(parser.DFloat(1.5)))
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	desc := &TableDescriptor{
		Name: "KV",
		Columns: []ColumnDescriptor{
			{Name: "id", Type: ColumnType{Kind: ColumnInt}, PrimaryKey: true},
			{Name: "name", Type: ColumnType{Kind: ColumnString}},
		},
	}
	require.NoError(t, c.CreateTable(desc))
	require.ErrorContains(t, c.CreateTable(desc), "already exists")

	// Lookup is case-insensitive.
	got, err := c.GetTable("kv")
	require.NoError(t, err)
	require.Equal(t, desc, got)

	require.NoError(t, c.InsertRow(desc, parser.DTuple{parser.DInt(1), parser.DString("a")}))
	require.ErrorContains(t,
		c.InsertRow(desc, parser.DTuple{parser.DString("x"), parser.DString("a")}),
		"column")
	require.ErrorContains(t,
		c.InsertRow(desc, parser.DTuple{parser.DInt(1)}),
		"expressions")

	require.Equal(t, []string{"KV"}, c.TableNames())
	require.NoError(t, c.DropTable("kv"))
	require.ErrorContains(t, c.DropTable("kv"), "does not exist")
}

func TestFindColumn(t *testing.T) {
	desc := &TableDescriptor{
		Name: "t",
		Columns: []ColumnDescriptor{
			{Name: "Alpha"},
			{Name: "beta"},
		},
	}
	require.Equal(t, 0, desc.FindColumn("alpha"))
	require.Equal(t, 1, desc.FindColumn("BETA"))
	require.Equal(t, -1, desc.FindColumn("gamma"))
}
