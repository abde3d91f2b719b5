// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package value defines the opaque SQL datum that flows through a
// materialized result buffer: Value, Row, and the ordering rules a
// SortOrder needs to compare two Values of possibly different kinds.
package value

import (
	"bytes"
	"time"
)

// Kind identifies the dynamic type carried by a Value.
//
// The numeric order of the constants is not meaningful; cross-kind
// ordering is decided by rank(), not by comparing Kind values
// directly.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int
	Float
	Timestamp
	String
	Blob // binary LOB
	Clob // character LOB
)

// Value is an opaque SQL datum. Every Row is a fixed-arity sequence
// of Values produced by the query plan the buffer sits behind.
type Value interface {
	// Kind reports the value's dynamic type.
	Kind() Kind

	// Equal reports whether two values of any kind are equal.
	// Values of different kinds are never equal; in particular a
	// Blob is never equal to a Clob even when their bytes match.
	Equal(Value) bool

	// Materialize returns either the receiver itself (the common
	// case) or a session-owned copy of the receiver's payload.
	// LOB values copy their bytes out of the source row/connection
	// on first materialization and return a new Value pointing at
	// owned storage; all other kinds return themselves.
	Materialize() (v Value, copied bool)

	// IsLob reports whether the value is a large object whose
	// lifetime must be tracked by the owning session.
	IsLob() bool
}

// NullValue is the SQL NULL, distinct from any typed zero value.
type NullValue struct{}

func (NullValue) Kind() Kind                        { return Null }
func (NullValue) Equal(v Value) bool                { _, ok := v.(NullValue); return ok }
func (n NullValue) Materialize() (Value, bool)       { return n, false }
func (NullValue) IsLob() bool                        { return false }

type BoolValue bool

func (BoolValue) Kind() Kind { return Bool }
func (b BoolValue) Equal(v Value) bool {
	o, ok := v.(BoolValue)
	return ok && o == b
}
func (b BoolValue) Materialize() (Value, bool) { return b, false }
func (BoolValue) IsLob() bool                  { return false }

// IntValue is a signed 64-bit integer; declared-type precision/scale
// live in column.Meta, not in the value itself.
type IntValue int64

func (IntValue) Kind() Kind { return Int }
func (i IntValue) Equal(v Value) bool {
	o, ok := v.(IntValue)
	return ok && o == i
}
func (i IntValue) Materialize() (Value, bool) { return i, false }
func (IntValue) IsLob() bool                  { return false }

type FloatValue float64

func (FloatValue) Kind() Kind { return Float }
func (f FloatValue) Equal(v Value) bool {
	o, ok := v.(FloatValue)
	return ok && o == f
}
func (f FloatValue) Materialize() (Value, bool) { return f, false }
func (FloatValue) IsLob() bool                  { return false }

type TimestampValue time.Time

func (TimestampValue) Kind() Kind { return Timestamp }
func (t TimestampValue) Equal(v Value) bool {
	o, ok := v.(TimestampValue)
	return ok && time.Time(o).Equal(time.Time(t))
}
func (t TimestampValue) Materialize() (Value, bool) { return t, false }
func (TimestampValue) IsLob() bool                  { return false }

type StringValue string

func (StringValue) Kind() Kind { return String }
func (s StringValue) Equal(v Value) bool {
	o, ok := v.(StringValue)
	return ok && o == s
}
func (s StringValue) Materialize() (Value, bool) { return s, false }
func (StringValue) IsLob() bool                  { return false }

// BlobValue is a binary LOB. A BlobValue produced by a query
// operator may reference storage (a page, a network buffer) that is
// only valid for the duration of the current row; Materialize copies
// it into session-owned storage so the buffer can retain the row
// past that window.
type BlobValue struct {
	data     []byte
	owned    bool
}

func NewBlob(data []byte) BlobValue { return BlobValue{data: data} }

func (BlobValue) Kind() Kind { return Blob }
func (b BlobValue) Equal(v Value) bool {
	o, ok := v.(BlobValue)
	return ok && bytes.Equal(o.data, b.data)
}
func (b BlobValue) Materialize() (Value, bool) {
	if b.owned {
		return b, false
	}
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return BlobValue{data: cp, owned: true}, true
}
func (BlobValue) IsLob() bool { return true }

// Bytes returns the underlying bytes of the blob. Callers must not
// mutate the returned slice.
func (b BlobValue) Bytes() []byte { return b.data }

// ClobValue is a character LOB; it materializes the same way as a
// BlobValue but is never equal or comparable to one, even when the
// underlying bytes match.
type ClobValue struct {
	data  string
	owned bool
}

func NewClob(data string) ClobValue { return ClobValue{data: data} }

func (ClobValue) Kind() Kind { return Clob }
func (c ClobValue) Equal(v Value) bool {
	o, ok := v.(ClobValue)
	return ok && o.data == c.data
}
func (c ClobValue) Materialize() (Value, bool) {
	if c.owned {
		return c, false
	}
	// strings are immutable in Go, but the *backing* array of a
	// large string slice taken from a decode buffer may be reused
	// by the caller once the row is released, so an explicit copy
	// through a byte buffer is still required to own the bytes.
	b := make([]byte, len(c.data))
	copy(b, c.data)
	return ClobValue{data: string(b), owned: true}, true
}
func (ClobValue) IsLob() bool { return true }

// String returns the clob's character data.
func (c ClobValue) String() string { return c.data }
