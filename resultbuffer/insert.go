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
	"github.com/rowkit/resultbuffer/spill"
	"github.com/rowkit/resultbuffer/value"
)

// AddRow appends row, applying LOB materialization, distinct
// filtering and spill promotion in that order. The order is load-
// bearing: LOB materialization must happen before the row is stored
// anywhere, and distinct filtering must happen before the memory-
// accounting check that can trigger a promotion.
func (b *ResultBuffer) AddRow(row value.Row) error {
	if b.state != building {
		return &StateError{Op: "add-row", Reason: "done has already been called"}
	}
	b.started = true

	b.materializeLobs(row)

	if b.distinctMode != distinctNone {
		return b.addDistinctRow(row)
	}
	return b.addPlainRow(row)
}

// materializeLobs rewrites any LOB value in row with its session-
// owned copy, in place, and registers the copy with the session so
// it outlives the buffer if the buffer is later discarded.
func (b *ResultBuffer) materializeLobs(row value.Row) {
	for i, v := range row {
		if !v.IsLob() {
			continue
		}
		mv, copied := v.Materialize()
		if copied {
			row[i] = mv
			b.sess.AddTemporaryLob(mv)
			b.containsLobs = true
		}
	}
}

func (b *ResultBuffer) addDistinctRow(row value.Row) error {
	key := b.keyOf(row)

	if !b.spilled {
		if b.distinctIdx == nil {
			b.distinctIdx = newDistinctIndex()
		}
		b.distinctIdx.insertIfAbsent(key, row)
		b.rowCount = b.distinctIdx.len()

		if !b.unbounded() && b.rowCount > b.maxMemoryRows {
			if err := b.promote(); err != nil {
				return err
			}
		}
		return nil
	}

	n, err := b.backend.AddRow(row)
	if err != nil {
		return &BackendError{Op: "add-row", Err: err}
	}
	b.rowCount = n
	return nil
}

func (b *ResultBuffer) addPlainRow(row value.Row) error {
	b.rows = append(b.rows, row)
	b.rowCount++

	if !b.unbounded() && len(b.rows) > b.maxMemoryRows {
		if err := b.flush(); err != nil {
			return err
		}
	}
	return nil
}

// promote moves the in-memory distinct index into a freshly selected
// spill backend, in the index's insertion order, and discards the
// index.
func (b *ResultBuffer) promote() error {
	backend, err := spill.Select(b.distinctness(), b.sess.MVStore())
	if err != nil {
		return &BackendError{Op: "add-row", Err: err}
	}
	n, err := backend.AddRows(b.distinctIdx.rows())
	if err != nil {
		return &BackendError{Op: "add-row", Err: err}
	}
	b.backend = backend
	b.spilled = true
	b.distinctIdx = nil
	b.rowCount = n
	return nil
}

// flush drains the non-distinct staging list into the spill backend,
// allocating one if this is the first flush.
func (b *ResultBuffer) flush() error {
	if b.backend == nil {
		backend, err := spill.Select(b.distinctness(), b.sess.MVStore())
		if err != nil {
			return &BackendError{Op: "add-row", Err: err}
		}
		b.backend = backend
		b.spilled = true
	}
	n, err := b.backend.AddRows(b.rows)
	if err != nil {
		return &BackendError{Op: "add-row", Err: err}
	}
	b.rows = nil
	b.rowCount = n
	return nil
}

// RemoveDistinctRow removes one row matching row's key from an
// all-distinct buffer.
func (b *ResultBuffer) RemoveDistinctRow(row value.Row) error {
	if b.state != building {
		return &StateError{Op: "remove-distinct-row", Reason: "done has already been called"}
	}
	if b.distinctMode == distinctNone {
		return &StateError{Op: "remove-distinct-row", Reason: "buffer is not distinct"}
	}
	key := b.keyOf(row)
	if !b.spilled {
		if b.distinctIdx != nil && b.distinctIdx.remove(key, b.keyOf) {
			b.rowCount = b.distinctIdx.len()
		}
		return nil
	}
	n, err := b.backend.RemoveRow(row)
	if err != nil {
		return &BackendError{Op: "remove-distinct-row", Err: err}
	}
	b.rowCount = n
	return nil
}

// ContainsDistinct reports whether row's key is already present in a
// distinct buffer.
func (b *ResultBuffer) ContainsDistinct(row value.Row) (bool, error) {
	if b.distinctMode == distinctNone {
		return false, &StateError{Op: "contains-distinct", Reason: "buffer is not distinct"}
	}
	key := b.keyOf(row)
	if !b.spilled {
		return b.distinctIdx != nil && b.distinctIdx.contains(key), nil
	}
	ok, err := b.backend.Contains(row)
	if err != nil {
		return false, &BackendError{Op: "contains-distinct", Err: err}
	}
	return ok, nil
}
