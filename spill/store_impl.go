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

import (
	"fmt"
	"io"

	"github.com/rowkit/resultbuffer/value"
)

// liveEntry records, for one distinct key, the sequence number
// (assigned in append order by store.nextSeq) of the log entry that
// currently represents it. The log itself is append-only, so RemoveRow
// followed by a re-adding AddRow of the same key leaves the stale,
// pre-removal entry sitting in the log; keying liveness to the entry's
// own sequence number rather than just the key lets Next tell that
// stale entry apart from the fresh one instead of resurrecting it.
type liveEntry struct {
	key value.RowKey
	seq int
}

// store is the shared implementation behind both reference backends.
// The only difference between a plain temp-table and an MV-temp
// backend is which KeyFunc the ResultBuffer's policy (spill.Select)
// is allowed to hand it -- a plain temp table never receives an
// IndexedKey.
type store struct {
	log     *rowLog
	dedup   bool
	keyFunc KeyFunc

	live    map[uint64][]liveEntry // key -> sequence number of its current log entry
	nextSeq int                    // sequence number the next appended row will receive
	readSeq int                    // sequence number of the next row Next() will decode
}

func newStore(dedup bool, keyFunc KeyFunc) (*store, error) {
	log, err := newRowLog("")
	if err != nil {
		return nil, err
	}
	return &store{
		log:     log,
		dedup:   dedup,
		keyFunc: keyFunc,
		live:    make(map[uint64][]liveEntry),
	}, nil
}

func liveSeqOf(live map[uint64][]liveEntry, k value.RowKey) (int, bool) {
	for _, e := range live[k.Hash()] {
		if e.key.Equal(k) {
			return e.seq, true
		}
	}
	return 0, false
}

// liveSetSeq records seq as the current live entry for k, overwriting
// whatever sequence number (if any) was previously recorded for it.
func liveSetSeq(live map[uint64][]liveEntry, k value.RowKey, seq int) {
	h := k.Hash()
	bucket := live[h]
	for i, e := range bucket {
		if e.key.Equal(k) {
			bucket[i].seq = seq
			return
		}
	}
	live[h] = append(bucket, liveEntry{key: k, seq: seq})
}

func liveDelete(live map[uint64][]liveEntry, k value.RowKey) {
	h := k.Hash()
	bucket := live[h]
	for i, e := range bucket {
		if e.key.Equal(k) {
			live[h] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func (s *store) AddRow(row value.Row) (int, error) {
	var key value.RowKey
	if s.dedup {
		key = s.keyFunc(row)
		if _, ok := liveSeqOf(s.live, key); ok {
			return s.log.count, nil
		}
	}
	data, err := encodeRow(row)
	if err != nil {
		return 0, fmt.Errorf("spill: encoding row: %w", err)
	}
	if err := s.log.append(data); err != nil {
		return 0, err
	}
	if s.dedup {
		liveSetSeq(s.live, key, s.nextSeq)
		s.nextSeq++
	}
	return s.log.count, nil
}

func (s *store) AddRows(rows []value.Row) (int, error) {
	n := s.log.count
	for _, r := range rows {
		var err error
		n, err = s.AddRow(r)
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

func (s *store) RemoveRow(row value.Row) (int, error) {
	if !s.dedup {
		return 0, &StateError{Op: "RemoveRow", Reason: "backend is not configured for distinctness"}
	}
	key := s.keyFunc(row)
	if _, ok := liveSeqOf(s.live, key); !ok {
		return s.log.count, nil
	}
	liveDelete(s.live, key)
	s.log.count--
	return s.log.count, nil
}

func (s *store) Contains(row value.Row) (bool, error) {
	if !s.dedup {
		return false, &StateError{Op: "Contains", Reason: "backend is not configured for distinctness"}
	}
	_, ok := liveSeqOf(s.live, s.keyFunc(row))
	return ok, nil
}

func (s *store) Reset() error {
	s.readSeq = 0
	return s.log.reset()
}

// Next decodes the next live row, transparently skipping any log entry
// that a later RemoveRow tombstoned or that a later re-AddRow of the
// same key superseded. A row is live only if its own sequence number
// (its position in append order) still matches the sequence number
// currently recorded for its key; a stale entry left behind by a
// remove-then-re-add never matches and is always skipped.
func (s *store) Next() (value.Row, error) {
	for {
		data, err := s.log.next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		seq := s.readSeq
		s.readSeq++
		row, err := decodeRow(data)
		if err != nil {
			return nil, fmt.Errorf("spill: decoding row: %w", err)
		}
		if s.dedup {
			current, ok := liveSeqOf(s.live, s.keyFunc(row))
			if !ok || current != seq {
				continue
			}
		}
		return row, nil
	}
}

func (s *store) Close() error {
	return s.log.close()
}

func (s *store) cloneStore() (*store, error) {
	cloned, err := s.log.clone()
	if err != nil {
		return nil, err
	}
	return &store{
		log:     cloned,
		dedup:   s.dedup,
		keyFunc: s.keyFunc,
		live:    s.live, // read-only after finalization; shared, not copied
		nextSeq: s.nextSeq,
	}, nil
}

// StateError reports a spill backend operation attempted outside the
// configuration it supports.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("spill: %s: %s", e.Op, e.Reason)
}
