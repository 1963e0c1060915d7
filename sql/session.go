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
	"github.com/oriondb/orion/sql/parser"
)

// Session holds per-connection settings.
type Session struct {
	// Syntax selects the SQL dialect. ROWNUM is recognized only in the
	// Oracle dialect; in the default dialect it is an ordinary identifier.
	Syntax parser.Syntax

	// ParallelScanThreshold enables the parallel scan strategy for tables
	// with at least this many rows. Zero disables parallel scans.
	ParallelScanThreshold int

	// ParallelScanChunks is the number of partitions a parallel scan
	// splits a table into.
	ParallelScanChunks int
}

// NewSession returns a session with default settings.
func NewSession() *Session {
	return &Session{ParallelScanChunks: 4}
}
