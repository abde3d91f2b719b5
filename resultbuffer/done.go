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

// Done finalizes the buffer: flushes any residual staging rows,
// sorts, applies the OFFSET/FETCH/PERCENT/WITH-TIES window, and
// rewinds the cursor. Callers must invoke it exactly once; addRow is
// rejected afterwards.
func (b *ResultBuffer) Done() error {
	if b.state != building {
		return &StateError{Op: "done", Reason: "done has already been called"}
	}

	rows, err := b.collectRows()
	if err != nil {
		return err
	}

	windowed, err := b.win.applySortAndWindow(rows, b.order)
	if err != nil {
		return err
	}

	if err := b.settleStorage(windowed); err != nil {
		return err
	}

	b.state = finalized
	b.cursor = cursorState{rowID: -1}
	return nil
}

// collectRows gathers every row the buffer currently holds -- from
// the in-memory distinct index, the plain staging list, or the spill
// backend, flushing any residual staging rows into the backend first
// -- into one slice ready for sorting and windowing.
func (b *ResultBuffer) collectRows() ([]value.Row, error) {
	switch {
	case b.spilled:
		if len(b.rows) > 0 {
			if err := b.flush(); err != nil {
				return nil, err
			}
		}
		return b.drainBackend()
	case b.distinctMode != distinctNone:
		if b.distinctIdx == nil {
			return nil, nil
		}
		return b.distinctIdx.rows(), nil
	default:
		return b.rows, nil
	}
}

func (b *ResultBuffer) drainBackend() ([]value.Row, error) {
	if err := b.backend.Reset(); err != nil {
		return nil, &BackendError{Op: "done", Err: err}
	}
	var rows []value.Row
	for {
		row, err := b.backend.Next()
		if err != nil {
			return nil, &BackendError{Op: "done", Err: err}
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// settleStorage decides where the finalized row set lives: in memory
// when it fits within maxMemoryRows, or re-spilled to a fresh backend
// otherwise -- preserving the invariant that at most one of the
// in-memory list or the backend's row set is populated at rest.
func (b *ResultBuffer) settleStorage(rows []value.Row) error {
	if err := b.releaseBackend(); err != nil {
		return err
	}

	if b.unbounded() || len(rows) <= b.maxMemoryRows {
		b.rows = rows
		b.rowCount = len(rows)
		return nil
	}

	backend, err := spill.Select(b.distinctness(), b.sess.MVStore())
	if err != nil {
		return &BackendError{Op: "done", Err: err}
	}
	n, err := backend.AddRows(rows)
	if err != nil {
		return &BackendError{Op: "done", Err: err}
	}
	b.backend = backend
	b.spilled = true
	b.rows = nil
	b.rowCount = n
	return nil
}

func (b *ResultBuffer) releaseBackend() error {
	if b.backend == nil {
		return nil
	}
	err := b.backend.Close()
	b.backend = nil
	b.spilled = false
	if err != nil {
		b.logf("resultbuffer: backend close failed, continuing with storage released: %v", err)
		return &BackendError{Op: "done", Err: err}
	}
	return nil
}
