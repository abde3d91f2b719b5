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

import (
	"golang.org/x/exp/slices"

	"github.com/rowkit/resultbuffer/value"
)

// window carries the OFFSET/FETCH/PERCENT/WITH TIES parameters a
// buffer applies once, at done().
type window struct {
	offset       int
	limit        int // -1 means unbounded
	fetchPercent bool
	withTies     bool
	applied      bool // set by limits-were-applied(): done() skips window application
}

// percentLimit converts a FETCH PERCENT value to an absolute row
// count, rounding up -- the widely-deployed Oracle rule for
// FETCH ... PERCENT ROWS.
func percentLimit(percent, rowCount int) int {
	return (percent*rowCount + 99) / 100
}

// minInt and maxInt mirror the small helpers a LIMIT/OFFSET range
// calculation always needs.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// applySortAndWindow performs step 3 (sort) and step 4 (window) of
// finalization. It returns the finalized row slice.
func (w *window) applySortAndWindow(rows []value.Row, order SortOrder) ([]value.Row, error) {
	if w.applied {
		if !order.Empty() {
			slices.SortFunc(rows, order.Less)
		}
		return rows, nil
	}

	rowCount := len(rows)
	offset := maxInt(w.offset, 0)

	limit := w.limit
	if w.fetchPercent {
		if limit < 0 || limit > 100 {
			return nil, &ValueError{Op: "FETCH PERCENT", Value: limit}
		}
		limit = percentLimit(limit, rowCount)
	}

	if limit == 0 {
		return nil, nil
	}
	if offset >= rowCount {
		return nil, nil
	}

	if !order.Empty() {
		// The window's tail can move past offset+limit under WITH
		// TIES, so the bounded top-K shortcut (which only ever
		// produces offset+limit candidates) only applies without it.
		if limit >= 0 && !w.withTies && offset+limit < rowCount {
			k := newTopK(offset+limit, order)
			for _, r := range rows {
				k.add(r)
			}
			rows = k.capture()
			rowCount = len(rows)
		} else {
			slices.SortFunc(rows, order.Less)
		}
	}

	end := rowCount
	if limit >= 0 {
		end = offset + minInt(limit, rowCount-offset)
	}

	if w.withTies && !order.Empty() && end > offset && end < rowCount {
		last := rows[end-1]
		for end < rowCount && order.Compare(rows[end], last) == 0 {
			end++
		}
	}

	result := make([]value.Row, end-offset)
	copy(result, rows[offset:end])
	return result, nil
}
