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

// topK keeps the k rows that sort first under an order, without
// fully sorting everything else. It is the structure done() reaches
// for when only a prefix window (offset+limit rows) needs to come
// out correctly ordered: replaying every row through a bounded heap
// is cheaper than an O(n log n) sort of the whole set once k is much
// smaller than the row count.
type topK struct {
	// indirect is a heap of indices into rows, ordered so that
	// rows[indirect[0]] is the current worst (last-place) row among
	// the ones retained so far.
	indirect []int
	rows     []value.Row
	order    SortOrder
	limit    int
}

func newTopK(limit int, order SortOrder) *topK {
	return &topK{order: order, limit: limit}
}

// add offers row for inclusion in the top-k set. Returns whether it
// was kept.
func (k *topK) add(row value.Row) bool {
	if len(k.rows) < k.limit {
		n := len(k.rows)
		k.rows = append(k.rows, row)
		k.pushIndex(n)
		return true
	}
	if len(k.indirect) == 0 {
		return false
	}
	if k.order.Less(row, k.rows[k.indirect[0]]) {
		k.rows[k.indirect[0]] = row
		k.fixIndex(0)
		return true
	}
	return false
}

// worseThan reports whether rows[i] should be evicted before
// rows[j] -- i.e. i sorts after j (is "worse" under the order).
func (k *topK) worseThan(i, j int) bool {
	return k.order.Compare(k.rows[i], k.rows[j]) > 0
}

// capture drains the heap into ascending order (best row first) and
// resets the structure.
func (k *topK) capture() []value.Row {
	result := make([]value.Row, len(k.indirect))
	i := len(k.indirect) - 1
	for len(k.indirect) > 0 {
		idx := k.popIndex()
		result[i] = k.rows[idx]
		i--
	}
	return result
}

// indirect is kept as a binary heap over row indices, ordered by
// worseThan so that indirect[0] always names the row to evict next --
// the structure done() needs to replace the current worst survivor in
// O(log k) instead of re-sorting the whole retained set on every row
// that beats it.

// pushIndex appends idx to the heap and restores the heap invariant.
func (k *topK) pushIndex(idx int) {
	k.indirect = append(k.indirect, idx)
	k.siftUp(len(k.indirect) - 1)
}

// popIndex removes and returns the heap's root (the current worst
// survivor), restoring the invariant over what remains.
func (k *topK) popIndex() int {
	x := k.indirect
	root := x[0]
	x[0], x = x[len(x)-1], x[:len(x)-1]
	k.indirect = x
	if len(x) > 0 {
		k.siftDown(0)
	}
	return root
}

// fixIndex restores the heap invariant after indirect[pos]'s
// underlying row has changed value.
func (k *topK) fixIndex(pos int) {
	k.siftDown(pos)
	k.siftUp(pos)
}

func (k *topK) siftUp(pos int) {
	x := k.indirect
	for pos > 0 {
		parent := (pos - 1) / 2
		if k.worseThan(x[parent], x[pos]) {
			break
		}
		x[parent], x[pos] = x[pos], x[parent]
		pos = parent
	}
}

func (k *topK) siftDown(pos int) {
	x := k.indirect
	for {
		left := pos*2 + 1
		right := left + 1
		if left >= len(x) {
			break
		}
		c := left
		if right < len(x) && k.worseThan(x[right], x[left]) {
			c = right
		}
		if k.worseThan(x[pos], x[c]) {
			break
		}
		x[c], x[pos] = x[pos], x[c]
		pos = c
	}
}
