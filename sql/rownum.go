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
	"github.com/cockroachdb/errors"

	"github.com/oriondb/orion/sql/parser"
)

// counterState tracks a counter scope through its lifecycle.
type counterState int

const (
	// counterUnentered: the query block has not produced its first row.
	counterUnentered counterState = iota
	// counterActive: the block is producing rows.
	counterActive
	// counterExhausted: the row source reported no more rows; the scope is
	// eligible for popping.
	counterExhausted
)

// rowCounter is the ROWNUM counter for one query block: a single
// monotonically increasing value, incremented exactly once for every row
// that survives the block's non-ROWNUM filters.
//
// The increment happens at row production time, strictly before any
// operator that buffers or reorders rows, so the ordinal a row carries is
// fixed no matter what a downstream sort does with it.
type rowCounter struct {
	count int64
	state counterState
}

// incrementAndRead assigns the next ordinal: the counter is bumped and the
// new value returned. The first surviving row reads 1.
func (c *rowCounter) incrementAndRead() int64 {
	c.count++
	return c.count
}

// rollback undoes the most recent increment. It is called when a row fails
// a runtime ROWNUM predicate after its ordinal was provisionally assigned:
// ordinals are durably assigned only to rows that are actually returned,
// so a later row's ordinal must equal the count of previously accepted
// rows plus one.
func (c *rowCounter) rollback() error {
	if c.count <= 0 {
		return errors.AssertionFailedf("rownum counter rollback below zero")
	}
	c.count--
	return nil
}

// current returns the ordinal most recently assigned (0 before the first
// row). The projection step reads this value for ROWNUM references.
func (c *rowCounter) current() int64 {
	return c.count
}

// rowNumStack is the scope manager: the stack of counter scopes for the
// query blocks currently executing, owned by a single statement's
// execution and accessed without locking. The top of the stack is the
// scope of the block whose row-production code is running right now.
//
// Block nesting is strictly LIFO: a block enters its scope on every pull
// and exits before returning control, so a correlated subquery invocation
// finds the caller's scope saved beneath its own fresh one and restored,
// value intact, when the invocation finishes.
type rowNumStack struct {
	scopes []*rowCounter
}

var _ parser.RowNumSource = (*rowNumStack)(nil)

// enter pushes a block's counter scope, making it the active one. A scope
// is re-entered on every pull until its block reports exhaustion; entering
// an exhausted scope means the block kept producing past its end.
func (s *rowNumStack) enter(c *rowCounter) error {
	if c.state == counterExhausted {
		return errors.AssertionFailedf("rownum scope entered after exhaustion")
	}
	c.state = counterActive
	s.scopes = append(s.scopes, c)
	return nil
}

// exit pops the active scope, restoring the enclosing block's scope. The
// popped scope must be the one that was entered; anything else means the
// stack discipline has been violated.
func (s *rowNumStack) exit(c *rowCounter) error {
	if len(s.scopes) == 0 {
		return errors.AssertionFailedf("rownum scope stack underflow")
	}
	top := s.scopes[len(s.scopes)-1]
	if top != c {
		return errors.AssertionFailedf("rownum scope stack popped out of order")
	}
	s.scopes = s.scopes[:len(s.scopes)-1]
	return nil
}

// depth returns the number of open scopes.
func (s *rowNumStack) depth() int {
	return len(s.scopes)
}

// CurrentRowNum implements parser.RowNumSource: it reads the active
// scope's counter for a ROWNUM reference being evaluated.
func (s *rowNumStack) CurrentRowNum() (int64, error) {
	if len(s.scopes) == 0 {
		return 0, errors.Newf("%s is only allowed during query execution", parser.RowNumName)
	}
	return s.scopes[len(s.scopes)-1].current(), nil
}
