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

// Package resultbuffer implements the materialized result set a
// query operator accumulates rows into: it applies distinctness
// inline, promotes itself to an on-disk spill backend once its row
// population exceeds a configured threshold, and finalizes into a
// sorted, windowed row sequence a cursor can scan.
//
// It assumes a single producer builds the buffer and a single
// consumer later scans it; there is no internal locking, and
// concurrent use is undefined behavior the owning session is
// responsible for preventing.
package resultbuffer

import (
	"log"

	"github.com/rowkit/resultbuffer/column"
	"github.com/rowkit/resultbuffer/session"
	"github.com/rowkit/resultbuffer/spill"
	"github.com/rowkit/resultbuffer/value"
)

type lifecycleState int

const (
	building lifecycleState = iota
	finalized
	closedState
)

type distinctMode int

const (
	distinctNone distinctMode = iota
	distinctWholeRow
	distinctOnIndexes
)

// ResultBuffer is the materialized result set described above. The
// zero value is not usable; construct with New.
type ResultBuffer struct {
	sess    session.Session
	columns column.Array

	visibleColumnCount int
	totalColumnCount   int

	state   lifecycleState
	started bool // true once the first addRow has been accepted

	distinctMode    distinctMode
	distinctIndexes []int

	order SortOrder
	win   window

	maxMemoryRows int

	rows        []value.Row
	distinctIdx *distinctIndex
	backend     spill.Backend
	spilled     bool

	containsLobs bool
	rowCount     int

	cursor cursorState

	// logger is where the buffer reports unexpected-but-recoverable
	// conditions (a spill backend refusing to clone, a degraded close)
	// that aren't themselves errors worth returning to the caller. If
	// logger is nil, nothing is logged.
	logger *log.Logger
}

// New constructs a building ResultBuffer for the given session and
// column shape. visibleColumnCount must be <= len(columns); the
// remaining columns, if any, are sort/distinct-only helpers never
// surfaced to the consumer.
func New(sess session.Session, columns column.Array, visibleColumnCount int) *ResultBuffer {
	b := &ResultBuffer{
		sess:               sess,
		columns:            columns,
		visibleColumnCount: visibleColumnCount,
		totalColumnCount:   len(columns),
		maxMemoryRows:      sess.MaxMemoryRows(),
	}
	b.cursor.rowID = -1
	b.win.limit = -1 // unbounded until SetLimit narrows it
	return b
}

// ConfigureDistinct marks all-visible-column duplicate elimination.
func (b *ResultBuffer) ConfigureDistinct() error {
	if b.started {
		return &StateError{Op: "configure-distinct", Reason: "addRow has already been called"}
	}
	if b.distinctMode != distinctNone {
		return &StateError{Op: "configure-distinct", Reason: "distinctness is already configured"}
	}
	b.distinctMode = distinctWholeRow
	return nil
}

// ConfigureDistinctOn marks duplicate elimination keyed on a subset
// of columns. Mutually exclusive with ConfigureDistinct.
func (b *ResultBuffer) ConfigureDistinctOn(indexes []int) error {
	if b.started {
		return &StateError{Op: "configure-distinct-on", Reason: "addRow has already been called"}
	}
	if b.distinctMode != distinctNone {
		return &StateError{Op: "configure-distinct-on", Reason: "distinctness is already configured"}
	}
	b.distinctMode = distinctOnIndexes
	b.distinctIndexes = indexes
	return nil
}

// SetSort installs the sort comparator; replacing an existing one is
// allowed, with the last call winning.
func (b *ResultBuffer) SetSort(order SortOrder) error {
	if b.state != building {
		return &StateError{Op: "set-sort", Reason: "buffer is no longer building"}
	}
	b.order = order
	return nil
}

// SetOffset sets the OFFSET window parameter.
func (b *ResultBuffer) SetOffset(n int) error {
	if b.state != building {
		return &StateError{Op: "set-offset", Reason: "buffer is no longer building"}
	}
	b.win.offset = n
	return nil
}

// SetLimit sets the FETCH/LIMIT window parameter; -1 means unbounded.
func (b *ResultBuffer) SetLimit(n int) error {
	if b.state != building {
		return &StateError{Op: "set-limit", Reason: "buffer is no longer building"}
	}
	b.win.limit = n
	return nil
}

// SetFetchPercent toggles whether the limit is a percentage of the
// pre-window row count rather than an absolute count.
func (b *ResultBuffer) SetFetchPercent(v bool) error {
	if b.state != building {
		return &StateError{Op: "set-fetch-percent", Reason: "buffer is no longer building"}
	}
	b.win.fetchPercent = v
	return nil
}

// SetWithTies toggles SQL:2008 WITH TIES window extension.
func (b *ResultBuffer) SetWithTies(v bool) error {
	if b.state != building {
		return &StateError{Op: "set-with-ties", Reason: "buffer is no longer building"}
	}
	b.win.withTies = v
	return nil
}

// SetMaxMemoryRows overrides the spill threshold inherited from the
// session at construction time.
func (b *ResultBuffer) SetMaxMemoryRows(n int) error {
	if b.state != building {
		return &StateError{Op: "set-max-memory-rows", Reason: "buffer is no longer building"}
	}
	b.maxMemoryRows = n
	return nil
}

// SetLogger directs diagnostic output at l. A nil logger (the
// default) means the buffer reports nothing.
func (b *ResultBuffer) SetLogger(l *log.Logger) {
	b.logger = l
}

func (b *ResultBuffer) logf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

// LimitsWereApplied tells done() that OFFSET/FETCH were already
// applied upstream of the buffer, so window application should be
// skipped during finalization.
func (b *ResultBuffer) LimitsWereApplied() error {
	if b.state != building {
		return &StateError{Op: "limits-were-applied", Reason: "buffer is no longer building"}
	}
	b.win.applied = true
	return nil
}

// RowCount returns the number of rows logically present: post-dedup
// before done(), post-window after.
func (b *ResultBuffer) RowCount() int { return b.rowCount }

// IsClosed reports whether Close has been called.
func (b *ResultBuffer) IsClosed() bool { return b.state == closedState }

// ColumnMetadata returns the metadata for visible column i.
func (b *ResultBuffer) ColumnMetadata(i int) column.Meta { return b.columns[i] }

// VisibleColumnCount returns the number of columns returned to the
// consumer.
func (b *ResultBuffer) VisibleColumnCount() int { return b.visibleColumnCount }

func (b *ResultBuffer) distinctness() spill.Distinctness {
	return spill.Distinctness{
		Distinct:           b.distinctMode != distinctNone,
		WholeRow:           b.distinctMode == distinctWholeRow,
		VisibleColumnCount: b.visibleColumnCount,
		TotalColumnCount:   b.totalColumnCount,
		Indexes:            b.distinctIndexes,
	}
}

func (b *ResultBuffer) keyOf(row value.Row) value.RowKey {
	if b.distinctMode == distinctOnIndexes {
		return value.Project(row, b.distinctIndexes)
	}
	return value.Of(row, b.visibleColumnCount)
}

// unbounded reports whether maxMemoryRows disables spilling entirely.
func (b *ResultBuffer) unbounded() bool { return b.maxMemoryRows < 0 }
