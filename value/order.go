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
	"bytes"
	"time"
)

// Direction encodes a sort column's direction (SQL: ASC/DESC).
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// NullsOrder encodes where NULLs sort relative to non-NULL values of
// the same column (SQL: NULLS FIRST/NULLS LAST).
type NullsOrder int

const (
	NullsFirst NullsOrder = iota
	NullsLast
)

// rank orders values by dynamic type when two Values of different
// kinds are compared: false, true, numeric, timestamp, string,
// binary, then everything else. NULL is handled separately by
// Compare via NullsOrder, not through rank.
func rank(k Kind) int {
	switch k {
	case Bool:
		return 0 // split further into false/true below
	case Int, Float:
		return 1
	case Timestamp:
		return 2
	case String, Clob:
		return 3
	case Blob:
		return 4
	default:
		return 5
	}
}

// Compare orders two values according to direction and nullsOrder.
// A NULL compares as configured by nullsOrder regardless of
// direction: NullsOrder is about placement, not about reversing with
// the column's ASC/DESC direction.
func Compare(a, b Value, dir Direction, nulls NullsOrder) int {
	_, aNull := a.(NullValue)
	_, bNull := b.(NullValue)
	if aNull || bNull {
		switch {
		case aNull && bNull:
			return 0
		case aNull:
			if nulls == NullsFirst {
				return -1
			}
			return 1
		default: // bNull
			if nulls == NullsFirst {
				return 1
			}
			return -1
		}
	}

	rel := compareTyped(a, b)
	if dir == Descending {
		return -rel
	}
	return rel
}

// compareTyped compares two non-NULL values, ordering across kinds
// by rank and within a kind by the natural ordering of that kind.
func compareTyped(a, b Value) int {
	ak, bk := a.Kind(), b.Kind()
	if ak == Bool && bk == Bool {
		av, bv := bool(a.(BoolValue)), bool(b.(BoolValue))
		if av == bv {
			return 0
		}
		if !av { // false < true
			return -1
		}
		return 1
	}

	ra, rb := rank(ak), rank(bk)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch ak {
	case Int:
		return compareInt(a, b)
	case Float:
		return compareNumeric(a, b)
	case Timestamp:
		at, bt := time.Time(a.(TimestampValue)), time.Time(b.(TimestampValue))
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	case String:
		return compareBytes([]byte(a.(StringValue)), []byte(b.(StringValue)))
	case Clob:
		return compareBytes([]byte(a.(ClobValue).data), []byte(b.(ClobValue).data))
	case Blob:
		return bytes.Compare(a.(BlobValue).data, b.(BlobValue).data)
	default:
		// arrays/structs are not produced by this value package;
		// treat as always-equal so a comparator never panics on an
		// unsupported kind, matching sorting/compare_tuple.go's
		// "unsupportedRelation" fallback behavior of not crashing.
		return 0
	}
}

// compareInt/compareNumeric allow an Int to compare against a Float
// the way SQL numeric comparison does (numeric is one rank).
func compareInt(a, b Value) int {
	ai, aIsInt := a.(IntValue)
	bi, bIsInt := b.(IntValue)
	if aIsInt && bIsInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return compareNumeric(a, b)
}

func compareNumeric(a, b Value) int {
	af := numericOf(a)
	bf := numericOf(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func numericOf(v Value) float64 {
	switch n := v.(type) {
	case IntValue:
		return float64(n)
	case FloatValue:
		return float64(n)
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	return bytes.Compare(a, b)
}
