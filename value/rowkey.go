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

package value

import (
	"encoding/binary"
	"math"
	stdtime "time"

	"github.com/dchest/siphash"
)

// Row is an ordered, fixed-arity sequence of Values produced by the
// query plan. The buffer never interprets columns beyond reading
// their Kind and comparing/hashing them; column semantics (alias,
// declared type) live one level up in column.Meta.
type Row []Value

// Clone returns a shallow copy of the row's backing array. The
// buffer takes ownership of rows on Add; callers that need to keep
// using their own slice afterwards should Clone first.
func (r Row) Clone() Row {
	cp := make(Row, len(r))
	copy(cp, r)
	return cp
}

// RowKey is a hashable, comparable projection of a Row used only as
// a map key for distinctness. Two keys are Equal iff every projected
// Value compares Equal element-wise.
type RowKey struct {
	values Row
}

// Of builds a RowKey that is the row's visible-column prefix.
func Of(row Row, visibleColumnCount int) RowKey {
	return RowKey{values: row[:visibleColumnCount]}
}

// Project builds a RowKey from an arbitrary subset of a row's
// columns, in the given order -- a "distinct on" projection rather
// than the whole-row key Of builds.
func Project(row Row, indexes []int) RowKey {
	v := make(Row, len(indexes))
	for i, idx := range indexes {
		v[i] = row[idx]
	}
	return RowKey{values: v}
}

// Equal reports whether two keys project the same values,
// element-wise, in order.
func (k RowKey) Equal(o RowKey) bool {
	if len(k.values) != len(o.values) {
		return false
	}
	for i := range k.values {
		if !k.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

// siphash keys used to hash RowKeys into map buckets. These are
// process-local and only need to be consistent within one running
// buffer; they are not a security boundary, matching how
// vm/interphash.go seeds its siphash state with 0,0 for the
// non-keyed (non-adversarial) hashing path.
const (
	hashKey0 uint64 = 0
	hashKey1 uint64 = 0
)

// Hash returns a 64-bit digest of the key suitable for bucketing in a
// Go map or a spill backend's index -- callers still need an Equal
// check within a bucket to handle collisions, since two distinct keys
// can share a digest. It hashes the element-wise encoding of every
// projected value with SipHash-2-4, the same primitive
// vm/interphash.go (bchashvaluego) uses to hash encoded column
// values for the VM's GROUP BY/DISTINCT hash table.
func (k RowKey) Hash() uint64 {
	var buf []byte
	for _, v := range k.values {
		buf = appendValue(buf, v)
	}
	return siphash.Hash(hashKey0, hashKey1, buf)
}

func appendValue(buf []byte, v Value) []byte {
	var tag [1]byte
	tag[0] = byte(v.Kind())
	buf = append(buf, tag[0])

	switch t := v.(type) {
	case NullValue:
		// no payload
	case BoolValue:
		if t {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case IntValue:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(t))
		buf = append(buf, b[:]...)
	case FloatValue:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(float64(t)))
		buf = append(buf, b[:]...)
	case TimestampValue:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(stdtime.Time(t).UnixNano()))
		buf = append(buf, b[:]...)
	case StringValue:
		buf = append(buf, []byte(t)...)
	case ClobValue:
		buf = append(buf, []byte(t.data)...)
	case BlobValue:
		buf = append(buf, t.data...)
	}
	return buf
}
