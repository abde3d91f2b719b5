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

// cursorState tracks the forward cursor's position: rowID == -1
// means "before first", rowID == rowCount means "after last".
type cursorState struct {
	rowID   int
	current value.Row
}

// Reset rewinds the cursor to "before first" and, if the buffer is
// spilled, resets the backend's streaming cursor too.
func (b *ResultBuffer) Reset() error {
	if b.state == closedState {
		return &StateError{Op: "reset", Reason: "buffer is closed"}
	}
	if b.state != finalized {
		return &StateError{Op: "reset", Reason: "buffer has not been finalized"}
	}
	b.cursor = cursorState{rowID: -1}
	if b.spilled {
		if err := b.backend.Reset(); err != nil {
			return &BackendError{Op: "reset", Err: err}
		}
	}
	return nil
}

// Next advances the cursor by one row and reports whether a row was
// found. Once it returns false the cursor is "after last" until the
// next Reset.
func (b *ResultBuffer) Next() (bool, error) {
	if b.state != finalized {
		return false, &StateError{Op: "next", Reason: "buffer has not been finalized"}
	}
	if b.cursor.rowID+1 >= b.rowCount {
		b.cursor.rowID = b.rowCount
		b.cursor.current = nil
		return false, nil
	}
	b.cursor.rowID++
	if b.spilled {
		row, err := b.backend.Next()
		if err != nil {
			return false, &BackendError{Op: "next", Err: err}
		}
		b.cursor.current = row
	} else {
		b.cursor.current = b.rows[b.cursor.rowID]
	}
	return true, nil
}

// CurrentRow returns the row the cursor last landed on, or nil
// before the first Next or after the last.
func (b *ResultBuffer) CurrentRow() value.Row { return b.cursor.current }

// HasNext reports whether a subsequent Next call would return true.
func (b *ResultBuffer) HasNext() bool { return b.cursor.rowID+1 < b.rowCount }

// IsAfterLast reports whether the cursor has moved past the last row.
func (b *ResultBuffer) IsAfterLast() bool { return b.cursor.rowID >= b.rowCount }

// RowID returns the cursor's current position, -1 before the first
// row and rowCount after the last.
func (b *ResultBuffer) RowID() int { return b.cursor.rowID }

// Close releases the spill backend, if any. Idempotent; the
// in-memory row list (when present) remains reachable for
// column-metadata queries afterward.
func (b *ResultBuffer) Close() error {
	if b.state == closedState {
		return nil
	}
	err := b.releaseBackend()
	b.state = closedState
	return err
}
