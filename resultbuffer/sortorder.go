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

package resultbuffer

import "github.com/rowkit/resultbuffer/value"

// ColumnOrder is one column's contribution to a multi-column sort:
// which row position to compare, which direction, and where nulls
// sort to.
type ColumnOrder struct {
	Column int
	Dir    value.Direction
	Nulls  value.NullsOrder
}

// SortOrder is a multi-column comparator. Columns are compared left
// to right; the first column that doesn't compare equal decides the
// order between two rows.
type SortOrder struct {
	columns []ColumnOrder
}

// NewSortOrder builds a SortOrder from its column specs, evaluated
// in the given order.
func NewSortOrder(columns ...ColumnOrder) SortOrder {
	return SortOrder{columns: columns}
}

// Empty reports whether no sort has been configured.
func (s SortOrder) Empty() bool { return len(s.columns) == 0 }

// Compare returns <0, 0 or >0 as a sorts before, equal to, or after
// b under this order's columns.
func (s SortOrder) Compare(a, b value.Row) int {
	for _, c := range s.columns {
		cmp := value.Compare(a[c.Column], b[c.Column], c.Dir, c.Nulls)
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

// Less reports whether a sorts strictly before b, the predicate
// slices.SortFunc and the heap helpers need.
func (s SortOrder) Less(a, b value.Row) bool { return s.Compare(a, b) < 0 }
