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

// orion is a small in-memory SQL engine with an Oracle compatibility
// dialect (ROWNUM).
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lib/pq/oid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/oriondb/orion/sql"
	"github.com/oriondb/orion/sql/parser"
	"github.com/oriondb/orion/util/log"
)

type config struct {
	Dialect               string `yaml:"dialect"`
	ParallelScanThreshold int    `yaml:"parallel_scan_threshold"`
	Verbosity             int    `yaml:"verbosity"`
}

var (
	cfg        config
	configPath string
)

func loadConfig(cmd *cobra.Command) error {
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return err
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}
	// Flags set explicitly override the config file; the flag default
	// applies when neither is given.
	if cfg.Dialect == "" || cmd.Flags().Changed("dialect") {
		cfg.Dialect, _ = cmd.Flags().GetString("dialect")
	}
	if cmd.Flags().Changed("verbosity") {
		cfg.Verbosity, _ = cmd.Flags().GetInt("verbosity")
	}
	log.SetVerbosity(cfg.Verbosity)
	return nil
}

func newSession() (*sql.Session, error) {
	syntax, err := parser.SyntaxFromString(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	session := sql.NewSession()
	session.Syntax = syntax
	session.ParallelScanThreshold = cfg.ParallelScanThreshold
	return session, nil
}

func printResults(results []sql.Result) {
	for _, res := range results {
		if len(res.Columns) == 0 {
			if res.RowsAffected > 0 {
				fmt.Printf("OK, %d row(s) affected\n", res.RowsAffected)
			} else {
				fmt.Println("OK")
			}
			continue
		}
		table := tablewriter.NewWriter(os.Stdout)
		headers := make([]string, len(res.Columns))
		alignments := make([]int, len(res.Columns))
		for i, c := range res.Columns {
			headers[i] = c.Name
			// Numeric columns are right-aligned, like psql.
			switch c.Oid {
			case oid.T_int8, oid.T_float8, oid.T_numeric:
				alignments[i] = tablewriter.ALIGN_RIGHT
			default:
				alignments[i] = tablewriter.ALIGN_LEFT
			}
		}
		table.SetHeader(headers)
		table.SetAutoFormatHeaders(false)
		table.SetColumnAlignment(alignments)
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, d := range row {
				cells[i] = d.String()
			}
			table.Append(cells)
		}
		table.Render()
		fmt.Printf("(%d rows)\n", len(res.Rows))
	}
}

func runExec(executor *sql.Executor, stmts string) error {
	session, err := newSession()
	if err != nil {
		return err
	}
	results, err := executor.Execute(context.Background(), session, stmts)
	printResults(results)
	return err
}

func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <statements>",
		Short: "execute semicolon-separated SQL statements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			return runExec(sql.NewExecutor(), args[0])
		},
	}
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "interactive SQL shell reading from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			executor := sql.NewExecutor()
			scanner := bufio.NewScanner(os.Stdin)
			var buf strings.Builder
			fmt.Print("orion> ")
			for scanner.Scan() {
				line := scanner.Text()
				buf.WriteString(line)
				buf.WriteString("\n")
				if strings.HasSuffix(strings.TrimSpace(line), ";") {
					if err := runExec(executor, buf.String()); err != nil {
						fmt.Fprintln(os.Stderr, "error:", err)
					}
					buf.Reset()
				}
				fmt.Print("orion> ")
			}
			return scanner.Err()
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "orion",
		Short:         "orion is an in-memory SQL engine with ROWNUM support",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("dialect", "oracle", "SQL dialect (traditional or oracle)")
	rootCmd.PersistentFlags().Int("verbosity", 0, "logging verbosity")
	rootCmd.AddCommand(execCmd(), shellCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
