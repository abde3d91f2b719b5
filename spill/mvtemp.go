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

import "github.com/rowkit/resultbuffer/value"

// MVTempBackend is the composite-key-capable disk-backed row log. It
// can build its distinctness key from an arbitrary column subset, so
// it is the only backend that can represent "distinct on (a, c)"
// when the row carries extra sort-only columns beyond a, c -- a
// whole-row key would treat those extra columns as significant and
// under-deduplicate.
type MVTempBackend struct {
	s *store
}

var _ Backend = (*MVTempBackend)(nil)

// NewMVTempBackend creates an empty backend. distinctIndexes, when
// non-nil, is the column index set the distinctness key is projected
// onto; nil means "not distinct".
func NewMVTempBackend(distinctIndexes []int) (*MVTempBackend, error) {
	var kf KeyFunc
	if distinctIndexes != nil {
		kf = IndexedKey(distinctIndexes)
	}
	s, err := newStore(distinctIndexes != nil, kf)
	if err != nil {
		return nil, err
	}
	return &MVTempBackend{s: s}, nil
}

func (b *MVTempBackend) AddRow(row value.Row) (int, error)       { return b.s.AddRow(row) }
func (b *MVTempBackend) AddRows(rows []value.Row) (int, error)   { return b.s.AddRows(rows) }
func (b *MVTempBackend) RemoveRow(row value.Row) (int, error)    { return b.s.RemoveRow(row) }
func (b *MVTempBackend) Contains(row value.Row) (bool, error)    { return b.s.Contains(row) }
func (b *MVTempBackend) Reset() error                            { return b.s.Reset() }
func (b *MVTempBackend) Next() (value.Row, error)                { return b.s.Next() }
func (b *MVTempBackend) Close() error                            { return b.s.Close() }

func (b *MVTempBackend) CloneReadOnly() (Backend, error) {
	cloned, err := b.s.cloneStore()
	if err != nil {
		return nil, err
	}
	return &MVTempBackend{s: cloned}, nil
}
