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

// TempTableBackend is the plain disk-backed row log: it supports
// either "not distinct" (plain append, duplicates allowed) or
// "distinct on the whole visible row". It cannot represent distinct
// on an arbitrary column subset -- that needs MVTempBackend.
type TempTableBackend struct {
	s *store
}

var _ Backend = (*TempTableBackend)(nil)

// NewTempTableBackend creates an empty backend. When distinct is
// true, rows are deduplicated on their full visible-column key.
func NewTempTableBackend(distinct bool, visibleColumnCount int) (*TempTableBackend, error) {
	var kf KeyFunc
	if distinct {
		kf = WholeRowKey(visibleColumnCount)
	}
	s, err := newStore(distinct, kf)
	if err != nil {
		return nil, err
	}
	return &TempTableBackend{s: s}, nil
}

func (b *TempTableBackend) AddRow(row value.Row) (int, error)       { return b.s.AddRow(row) }
func (b *TempTableBackend) AddRows(rows []value.Row) (int, error)   { return b.s.AddRows(rows) }
func (b *TempTableBackend) RemoveRow(row value.Row) (int, error)    { return b.s.RemoveRow(row) }
func (b *TempTableBackend) Contains(row value.Row) (bool, error)    { return b.s.Contains(row) }
func (b *TempTableBackend) Reset() error                            { return b.s.Reset() }
func (b *TempTableBackend) Next() (value.Row, error)                { return b.s.Next() }
func (b *TempTableBackend) Close() error                            { return b.s.Close() }

func (b *TempTableBackend) CloneReadOnly() (Backend, error) {
	cloned, err := b.s.cloneStore()
	if err != nil {
		return nil, err
	}
	return &TempTableBackend{s: cloned}, nil
}
