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

	"golang.org/x/sync/errgroup"

	"github.com/oriondb/orion/sql/parser"
)

// scanNode reads a table's rows. The serial path walks the stored rows
// front to back, which is the engine's original scan order. The parallel
// path partitions the table and materializes the partitions concurrently,
// emitting them in completion order; it may only be used by blocks whose
// output order carries no meaning, so the planner disables it for any
// block that references ROWNUM.
type scanNode struct {
	ctx     context.Context
	desc    scanTable
	columns []ResultColumn
	rows    []parser.DTuple

	parallel   bool
	numChunks  int
	partitions [][]parser.DTuple
	started    bool

	rowIdx int
	pos    int // position within the current partition (parallel path)
	part   int
	row    parser.DTuple
	err    error
}

// scanTable is the slice of table metadata the scan needs.
type scanTable struct {
	Name string
}

func (n *scanNode) Columns() []ResultColumn { return n.columns }
func (n *scanNode) Values() parser.DTuple   { return n.row }
func (n *scanNode) Err() error              { return n.err }

func (n *scanNode) Next() bool {
	if n.err != nil {
		return false
	}
	if !n.parallel {
		if n.rowIdx >= len(n.rows) {
			return false
		}
		n.row = n.rows[n.rowIdx]
		n.rowIdx++
		return true
	}

	if !n.started {
		n.started = true
		if err := n.scatterGather(); err != nil {
			n.err = err
			return false
		}
	}
	for n.part < len(n.partitions) {
		p := n.partitions[n.part]
		if n.pos < len(p) {
			n.row = p[n.pos]
			n.pos++
			return true
		}
		n.part++
		n.pos = 0
	}
	return false
}

// scatterGather materializes the table partitions concurrently. Partitions
// are queued in the order the workers finish, so two runs over the same
// table may produce rows in different orders.
func (n *scanNode) scatterGather() error {
	chunks := n.numChunks
	if chunks <= 1 {
		chunks = 2
	}
	size := (len(n.rows) + chunks - 1) / chunks

	type partition struct {
		rows []parser.DTuple
	}
	done := make(chan partition, chunks)

	g, _ := errgroup.WithContext(n.ctx)
	for lo := 0; lo < len(n.rows); lo += size {
		hi := lo + size
		if hi > len(n.rows) {
			hi = len(n.rows)
		}
		chunk := n.rows[lo:hi]
		g.Go(func() error {
			out := make([]parser.DTuple, len(chunk))
			for i, src := range chunk {
				row := make(parser.DTuple, len(src))
				copy(row, src)
				out[i] = row
			}
			done <- partition{rows: out}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(done)
	for p := range done {
		n.partitions = append(n.partitions, p.rows)
	}
	return nil
}

func (n *scanNode) Reset() {
	n.rowIdx = 0
	n.part = 0
	n.pos = 0
	n.row = nil
}

func (n *scanNode) Close() {}

func (n *scanNode) ExplainPlan() (name, description string, children []planNode) {
	mode := "serial"
	if n.parallel {
		mode = "parallel"
	}
	return "scan", fmt.Sprintf("%s (%s, %d rows)", n.desc.Name, mode, len(n.rows)), nil
}

// newScan plans a scan over the named table. The parallel strategy is
// chosen for tables at or above the session threshold; planSelectClause
// reverts it to serial if the block turns out to reference ROWNUM.
func (p *planner) newScan(name string) (*scanNode, error) {
	desc, err := p.catalog.GetTable(name)
	if err != nil {
		return nil, err
	}
	n := &scanNode{
		ctx:       p.ctx,
		desc:      scanTable{Name: desc.Name},
		rows:      desc.Rows,
		numChunks: p.session.ParallelScanChunks,
	}
	for _, col := range desc.Columns {
		n.columns = append(n.columns, ResultColumn{
			Name: col.Name,
			Typ:  col.Type.TypeDatum(),
			Oid:  col.Type.Oid(),
		})
	}
	if t := p.session.ParallelScanThreshold; t > 0 && len(desc.Rows) >= t {
		n.parallel = true
	}
	return n, nil
}
