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
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/oriondb/orion/sql/parser"
)

// Catalog is an in-memory table store. It is not synchronized: a catalog
// belongs to one session/executor at a time.
type Catalog struct {
	tables map[string]*TableDescriptor
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*TableDescriptor)}
}

// CreateTable registers a new table descriptor.
func (c *Catalog) CreateTable(desc *TableDescriptor) error {
	norm := NormalizeName(desc.Name)
	if _, ok := c.tables[norm]; ok {
		return errors.Newf("table %q already exists", desc.Name)
	}
	if len(desc.Columns) == 0 {
		return errors.Newf("table %q must have at least 1 column", desc.Name)
	}
	seen := make(map[string]struct{}, len(desc.Columns))
	for _, col := range desc.Columns {
		n := NormalizeName(col.Name)
		if _, ok := seen[n]; ok {
			return errors.Newf("duplicate column name %q", col.Name)
		}
		seen[n] = struct{}{}
	}
	c.tables[norm] = desc
	return nil
}

// DropTable removes a table.
func (c *Catalog) DropTable(name string) error {
	norm := NormalizeName(name)
	if _, ok := c.tables[norm]; !ok {
		return errors.Newf("table %q does not exist", name)
	}
	delete(c.tables, norm)
	return nil
}

// GetTable returns the descriptor for the named table.
func (c *Catalog) GetTable(name string) (*TableDescriptor, error) {
	if desc, ok := c.tables[NormalizeName(name)]; ok {
		return desc, nil
	}
	return nil, errors.Newf("table %q does not exist", name)
}

// TableNames returns the sorted names of all tables.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for _, desc := range c.tables {
		names = append(names, desc.Name)
	}
	sort.Strings(names)
	return names
}

// InsertRow type-checks and appends a row to the table.
func (c *Catalog) InsertRow(desc *TableDescriptor, row parser.DTuple) error {
	if len(row) != len(desc.Columns) {
		return errors.Newf("INSERT has %d expressions but %d columns", len(row), len(desc.Columns))
	}
	for i, d := range row {
		if err := desc.Columns[i].Type.CheckDatum(d); err != nil {
			return errors.Wrapf(err, "column %q", desc.Columns[i].Name)
		}
	}
	desc.Rows = append(desc.Rows, row)
	return nil
}
