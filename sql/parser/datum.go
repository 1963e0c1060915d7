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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var (
	// DummyBool is a placeholder DBool value.
	DummyBool Datum = DBool(false)
	// DummyInt is a placeholder DInt value.
	DummyInt Datum = DInt(0)
	// DummyFloat is a placeholder DFloat value.
	DummyFloat Datum = DFloat(0)
	// DummyDecimal is a placeholder DDecimal value.
	DummyDecimal Datum = DDecimal{}
	// DummyString is a placeholder DString value.
	DummyString Datum = DString("")
	// dummyTuple is a placeholder DTuple value.
	dummyTuple Datum = DTuple{}
	// DNull is the NULL Datum.
	DNull Datum = dNull{}
)

// A Datum holds either a bool, int64, float64, decimal, string or []Datum.
// Datums are immutable and are themselves expressions: a literal evaluates
// to itself.
type Datum interface {
	Expr
	Type() string
	// Compare returns -1 if the receiver is less than other, 0 if receiver is
	// equal to other and +1 if receiver is greater than other. NULL sorts
	// before every other value.
	Compare(other Datum) int
}

// DBool is the boolean Datum.
type DBool bool

// Type implements the Datum interface.
func (d DBool) Type() string { return "bool" }

// Compare implements the Datum interface.
func (d DBool) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	v, ok := other.(DBool)
	if !ok {
		panic(makeTypeMismatch(d, other))
	}
	if !bool(d) && bool(v) {
		return -1
	}
	if bool(d) && !bool(v) {
		return 1
	}
	return 0
}

func (d DBool) String() string {
	return strconv.FormatBool(bool(d))
}

// DInt is the int Datum; 64-bit signed.
type DInt int64

// Type implements the Datum interface.
func (d DInt) Type() string { return "int" }

// Compare implements the Datum interface.
func (d DInt) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	switch v := other.(type) {
	case DInt:
		switch {
		case d < v:
			return -1
		case d > v:
			return 1
		}
		return 0
	case DFloat:
		return DFloat(d).Compare(v)
	case DDecimal:
		return DDecimal{Decimal: decimal.NewFromInt(int64(d))}.Compare(v)
	}
	panic(makeTypeMismatch(d, other))
}

func (d DInt) String() string {
	return strconv.FormatInt(int64(d), 10)
}

// DFloat is the float Datum.
type DFloat float64

// Type implements the Datum interface.
func (d DFloat) Type() string { return "float" }

// Compare implements the Datum interface.
func (d DFloat) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	var v DFloat
	switch t := other.(type) {
	case DFloat:
		v = t
	case DInt:
		v = DFloat(t)
	case DDecimal:
		f, _ := t.Float64()
		v = DFloat(f)
	default:
		panic(makeTypeMismatch(d, other))
	}
	switch {
	case d < v:
		return -1
	case d > v:
		return 1
	}
	return 0
}

func (d DFloat) String() string {
	return strconv.FormatFloat(float64(d), 'g', -1, 64)
}

// DDecimal is the decimal Datum.
type DDecimal struct {
	decimal.Decimal
}

// Type implements the Datum interface.
func (d DDecimal) Type() string { return "decimal" }

// Compare implements the Datum interface.
func (d DDecimal) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	var v decimal.Decimal
	switch t := other.(type) {
	case DDecimal:
		v = t.Decimal
	case DInt:
		v = decimal.NewFromInt(int64(t))
	case DFloat:
		v = decimal.NewFromFloat(float64(t))
	default:
		panic(makeTypeMismatch(d, other))
	}
	return d.Decimal.Cmp(v)
}

func (d DDecimal) String() string {
	return d.Decimal.String()
}

// DString is the string Datum.
type DString string

// Type implements the Datum interface.
func (d DString) Type() string { return "string" }

// Compare implements the Datum interface.
func (d DString) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	v, ok := other.(DString)
	if !ok {
		panic(makeTypeMismatch(d, other))
	}
	return strings.Compare(string(d), string(v))
}

func (d DString) String() string {
	return "'" + strings.ReplaceAll(string(d), "'", "''") + "'"
}

// DTuple is the tuple Datum.
type DTuple []Datum

// Type implements the Datum interface.
func (d DTuple) Type() string { return "tuple" }

// Compare implements the Datum interface.
func (d DTuple) Compare(other Datum) int {
	if other == DNull {
		return 1
	}
	v, ok := other.(DTuple)
	if !ok {
		panic(makeTypeMismatch(d, other))
	}
	n := len(d)
	if n > len(v) {
		n = len(v)
	}
	for i := 0; i < n; i++ {
		c := d[i].Compare(v[i])
		if c != 0 {
			return c
		}
	}
	switch {
	case len(d) < len(v):
		return -1
	case len(d) > len(v):
		return 1
	}
	return 0
}

func (d DTuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range d {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Normalize sorts and uniques the tuple, readying it for IN membership
// tests via binary search.
func (d *DTuple) Normalize() {
	sort.Slice(*d, func(i, j int) bool {
		return (*d)[i].Compare((*d)[j]) < 0
	})
	n := 0
	for _, v := range *d {
		if n == 0 || v.Compare((*d)[n-1]) != 0 {
			(*d)[n] = v
			n++
		}
	}
	*d = (*d)[:n]
}

type dNull struct{}

// Type implements the Datum interface.
func (d dNull) Type() string { return "NULL" }

// Compare implements the Datum interface.
func (d dNull) Compare(other Datum) int {
	if other == DNull {
		return 0
	}
	return -1
}

func (d dNull) String() string { return "NULL" }

func makeTypeMismatch(a, b Datum) string {
	return fmt.Sprintf("unsupported comparison: %s vs %s", a.Type(), b.Type())
}

// compareDatums is the checked variant of Compare used by expression
// evaluation, where a mixed-type comparison is a user error and must
// surface as a diagnostic. Compare itself stays reserved for paths that
// only see already-typed rows (sorting, tuple normalization) and treats a
// mismatch as an internal invariant violation.
func compareDatums(a, b Datum) (int, error) {
	if a == DNull || b == DNull {
		return a.Compare(b), nil
	}
	if ta, ok := a.(DTuple); ok {
		tb, ok := b.(DTuple)
		if !ok {
			return 0, errors.Newf("%s", makeTypeMismatch(a, b))
		}
		return compareTuples(ta, tb)
	}
	if !comparableKinds(a, b) {
		return 0, errors.Newf("%s", makeTypeMismatch(a, b))
	}
	return a.Compare(b), nil
}

// comparableKinds reports whether two non-NULL, non-tuple datums admit a
// comparison: the numeric kinds compare with each other, everything else
// only with its own kind.
func comparableKinds(a, b Datum) bool {
	if isNumeric(a) && isNumeric(b) {
		return true
	}
	switch a.(type) {
	case DBool:
		_, ok := b.(DBool)
		return ok
	case DString:
		_, ok := b.(DString)
		return ok
	}
	return false
}

func isNumeric(d Datum) bool {
	switch d.(type) {
	case DInt, DFloat, DDecimal:
		return true
	}
	return false
}

func compareTuples(a, b DTuple) (int, error) {
	n := len(a)
	if n > len(b) {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := compareDatums(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	}
	return 0, nil
}
