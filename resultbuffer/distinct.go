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

// distinctIndex is an insertion-ordered mapping from a row's key to
// the row that first produced that key. It backs a buffer's
// in-memory distinctness before any spill promotion happens; the
// spill backends keep an equivalent index of their own once rows
// move on-disk (see spill.store).
type distinctIndex struct {
	order []value.Row
	seen  map[uint64][]value.RowKey
}

func newDistinctIndex() *distinctIndex {
	return &distinctIndex{seen: make(map[uint64][]value.RowKey)}
}

// insertIfAbsent adds row under key if no row with that key has been
// seen before. It reports whether the row was newly inserted.
func (d *distinctIndex) insertIfAbsent(key value.RowKey, row value.Row) bool {
	h := key.Hash()
	for _, k := range d.seen[h] {
		if k.Equal(key) {
			return false
		}
	}
	d.seen[h] = append(d.seen[h], key)
	d.order = append(d.order, row)
	return true
}

// len returns the number of distinct rows recorded so far.
func (d *distinctIndex) len() int { return len(d.order) }

// rows returns the recorded rows in first-insertion order. The
// returned slice is owned by the index; callers that need to retain
// it independently should copy it first.
func (d *distinctIndex) rows() []value.Row { return d.order }

// contains reports whether key has been recorded.
func (d *distinctIndex) contains(key value.RowKey) bool {
	for _, k := range d.seen[key.Hash()] {
		if k.Equal(key) {
			return true
		}
	}
	return false
}

// remove deletes the row recorded under key, if any, and reports
// whether a row was removed.
func (d *distinctIndex) remove(key value.RowKey, keyOf func(value.Row) value.RowKey) bool {
	h := key.Hash()
	bucket := d.seen[h]
	for i, k := range bucket {
		if !k.Equal(key) {
			continue
		}
		d.seen[h] = append(bucket[:i], bucket[i+1:]...)
		for j, row := range d.order {
			if keyOf(row).Equal(key) {
				d.order = append(d.order[:j], d.order[j+1:]...)
				break
			}
		}
		return true
	}
	return false
}
