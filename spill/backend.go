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

// Package spill implements the on-disk backend a ResultBuffer
// promotes itself to once its row population exceeds a configured
// threshold. The buffer only ever sees the Backend interface; these
// are reference implementations of it.
package spill

import "github.com/rowkit/resultbuffer/value"

// Backend is the abstract on-disk tuple set a spilled buffer needs.
// A backend is responsible for its own distinctness whenever the
// ResultBuffer delegates a distinct-aware AddRow to it.
type Backend interface {
	// AddRow appends row (or, in distinct mode, inserts it only if
	// its key hasn't been seen) and returns the backend's row count
	// after the call.
	AddRow(row value.Row) (newRowCount int, err error)

	// AddRows is a bulk form of AddRow, used to drain a staging
	// buffer in one call once it fills up.
	AddRows(rows []value.Row) (newRowCount int, err error)

	// RemoveRow deletes one row whose key matches row's key and
	// returns the backend's row count after the call. Only valid
	// when the backend was configured for distinctness.
	RemoveRow(row value.Row) (newRowCount int, err error)

	// Contains reports whether a row with row's key is present.
	// Only valid when the backend was configured for distinctness.
	Contains(row value.Row) (bool, error)

	// Reset rewinds the backend's streaming cursor to the beginning.
	Reset() error

	// Next returns the next row in insertion order, or (nil, nil)
	// once the stream is exhausted.
	Next() (value.Row, error)

	// Close releases the backend's storage. Idempotent.
	Close() error

	// CloneReadOnly returns an independent backend handle over the
	// same underlying storage, or (nil, nil) when cloning isn't
	// supported -- the caller (ResultBuffer's shallow copy) treats a
	// nil result as "shallow copy not possible".
	CloneReadOnly() (Backend, error)
}

// KeyFunc projects a row down to the columns its backend's
// distinctness key is built from.
type KeyFunc func(value.Row) value.RowKey

// WholeRowKey builds a distinctness key from a row's visible prefix,
// used for plain "all columns distinct" configuration.
func WholeRowKey(visibleColumnCount int) KeyFunc {
	return func(r value.Row) value.RowKey { return value.Of(r, visibleColumnCount) }
}

// IndexedKey builds a distinctness key by projecting onto the given
// column indexes, used for "distinct on indexes" configuration --
// the case only the MV-temp backend can represent, when there are
// extra sort-only columns beyond the visible prefix.
func IndexedKey(indexes []int) KeyFunc {
	return func(r value.Row) value.RowKey { return value.Project(r, indexes) }
}
