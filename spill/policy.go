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

package spill

// Distinctness describes what a spilled buffer needs its backend to
// deduplicate on, decided once up front when the buffer is built and
// unchanged for its lifetime.
type Distinctness struct {
	// Distinct is false for a buffer that keeps duplicates.
	Distinct bool
	// WholeRow is true when the key is the entire visible row
	// (SELECT DISTINCT with no separate ORDER BY columns).
	WholeRow bool
	// VisibleColumnCount and TotalColumnCount describe the row
	// shape: when they differ, extra sort-only columns trail the
	// visible prefix.
	VisibleColumnCount int
	TotalColumnCount   int
	// Indexes is the "distinct on" column positions, used when
	// !WholeRow.
	Indexes []int
}

func (d Distinctness) keyIndexes() []int {
	if !d.Distinct {
		return nil
	}
	if d.WholeRow {
		idx := make([]int, d.VisibleColumnCount)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	return d.Indexes
}

// Select picks which reference backend a buffer should spill to,
// following the same four-way policy regardless of which branch of
// it decided:
//
//  1. A page store that supports composite-key temp indexes always
//     gets the MV-temp backend.
//  2. Otherwise, if the row carries sort-only columns beyond the
//     visible prefix, a whole-row distinct key can't be built from a
//     plain temp table's row-equality check alone -- MV-temp again.
//  3. Otherwise, distinct-on-indexes needs a key independent of row
//     width, which only MV-temp builds.
//  4. Otherwise, the plain temp-table backend suffices.
func Select(d Distinctness, mvStoreCapable bool) (Backend, error) {
	switch {
	case mvStoreCapable:
		return NewMVTempBackend(d.keyIndexes())
	case d.Distinct && d.TotalColumnCount != d.VisibleColumnCount:
		return NewMVTempBackend(d.keyIndexes())
	case d.Distinct && !d.WholeRow:
		return NewMVTempBackend(d.Indexes)
	default:
		return NewTempTableBackend(d.Distinct, d.VisibleColumnCount)
	}
}
