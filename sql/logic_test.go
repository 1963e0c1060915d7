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
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/util/leaktest"
)

// TestLogic runs the SQL logic tests under testdata. Each file gets a fresh
// executor. Directives:
//
//	exec     run statements, report the total affected row count
//	query    run statements, print the last result (header, then rows)
//	dialect  switch the session dialect
func TestLogic(t *testing.T) {
	defer leaktest.AfterTest(t)()
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		e := NewExecutor()
		s := NewSession()
		s.Syntax = parser.Oracle

		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "dialect":
				syntax, err := parser.SyntaxFromString(strings.TrimSpace(d.Input))
				if err != nil {
					return fmt.Sprintf("error: %v", err)
				}
				s.Syntax = syntax
				return syntax.String()

			case "exec":
				results, err := e.Execute(context.Background(), s, d.Input)
				if err != nil {
					return fmt.Sprintf("error: %v", err)
				}
				total := 0
				for _, res := range results {
					total += res.RowsAffected
				}
				return fmt.Sprintf("%d row(s) affected", total)

			case "query":
				results, err := e.Execute(context.Background(), s, d.Input)
				if err != nil {
					return fmt.Sprintf("error: %v", err)
				}
				res := results[len(results)-1]
				var buf strings.Builder
				for i, col := range res.Columns {
					if i > 0 {
						buf.WriteString(" ")
					}
					buf.WriteString(col.Name)
				}
				buf.WriteString("\n")
				for _, row := range res.Rows {
					for i, val := range row {
						if i > 0 {
							buf.WriteString(" ")
						}
						// Strings are printed raw to keep the files
						// readable.
						if str, ok := val.(parser.DString); ok {
							buf.WriteString(string(str))
						} else {
							buf.WriteString(val.String())
						}
					}
					buf.WriteString("\n")
				}
				return buf.String()

			default:
				t.Fatalf("unknown directive: %s", d.Cmd)
				return ""
			}
		})
	})
}
