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
	"testing"

	"github.com/rowkit/resultbuffer/value"
)

func drain(t *testing.T, b Backend) []value.Row {
	t.Helper()
	if err := b.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	var rows []value.Row
	for {
		row, err := b.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if row == nil {
			return rows
		}
		rows = append(rows, row)
	}
}

func TestTempTableBackendPreservesInsertionOrder(t *testing.T) {
	b, err := NewTempTableBackend(false, 2)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer b.Close()

	rows := []value.Row{
		{value.IntValue(1), value.StringValue("a")},
		{value.IntValue(2), value.StringValue("b")},
		{value.IntValue(1), value.StringValue("a")}, // duplicate allowed, not distinct
	}
	n, err := b.AddRows(rows)
	if err != nil {
		t.Fatalf("add rows: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}

	got := drain(t, b)
	if len(got) != 3 {
		t.Fatalf("expected to scan 3 rows, got %d", len(got))
	}
	if got[0][0].(value.IntValue) != 1 || got[1][0].(value.IntValue) != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestTempTableBackendDistinctSkipsDuplicates(t *testing.T) {
	b, err := NewTempTableBackend(true, 1)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer b.Close()

	row := value.Row{value.StringValue("x")}
	n, err := b.AddRow(row)
	if err != nil || n != 1 {
		t.Fatalf("first add: n=%d err=%v", n, err)
	}
	n, err = b.AddRow(row.Clone())
	if err != nil || n != 1 {
		t.Fatalf("duplicate add should be a no-op: n=%d err=%v", n, err)
	}

	ok, err := b.Contains(row)
	if err != nil || !ok {
		t.Fatalf("expected row to be present: ok=%v err=%v", ok, err)
	}
}

func TestTempTableBackendRemoveRowTombstonesFutureScans(t *testing.T) {
	b, err := NewTempTableBackend(true, 1)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer b.Close()

	a := value.Row{value.IntValue(1)}
	c := value.Row{value.IntValue(2)}
	if _, err := b.AddRows([]value.Row{a, c}); err != nil {
		t.Fatalf("add rows: %v", err)
	}

	n, err := b.RemoveRow(a)
	if err != nil {
		t.Fatalf("remove row: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected count 1 after removal, got %d", n)
	}

	if ok, _ := b.Contains(a); ok {
		t.Fatal("removed row should no longer be present")
	}

	got := drain(t, b)
	if len(got) != 1 || got[0][0].(value.IntValue) != 2 {
		t.Fatalf("expected only row 2 to survive the scan, got %+v", got)
	}
}

func TestTempTableBackendReAddAfterRemoveDoesNotResurrectStaleRow(t *testing.T) {
	b, err := NewTempTableBackend(true, 1)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer b.Close()

	stale := value.Row{value.IntValue(1), value.StringValue("stale")}
	if _, err := b.AddRow(stale); err != nil {
		t.Fatalf("add stale row: %v", err)
	}
	if _, err := b.RemoveRow(stale); err != nil {
		t.Fatalf("remove row: %v", err)
	}

	fresh := value.Row{value.IntValue(1), value.StringValue("fresh")}
	n, err := b.AddRow(fresh)
	if err != nil {
		t.Fatalf("re-add row: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected count 1 after re-add, got %d", n)
	}

	got := drain(t, b)
	if len(got) != 1 {
		t.Fatalf("expected exactly one row to survive the scan, got %+v", got)
	}
	if got[0][1].(value.StringValue) != "fresh" {
		t.Fatalf("expected the re-added row to survive, got the stale entry: %+v", got[0])
	}
}

func TestTempTableBackendCloneReadOnlySharesStorage(t *testing.T) {
	b, err := NewTempTableBackend(false, 1)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if _, err := b.AddRow(value.Row{value.IntValue(7)}); err != nil {
		t.Fatalf("add row: %v", err)
	}

	clone, err := b.CloneReadOnly()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}

	// The owner closes and removes its storage; the clone must still
	// be able to scan it.
	if err := b.Close(); err != nil {
		t.Fatalf("close owner: %v", err)
	}

	got := drain(t, clone)
	if len(got) != 1 || got[0][0].(value.IntValue) != 7 {
		t.Fatalf("expected clone to see the owner's row, got %+v", got)
	}
	if err := clone.Close(); err != nil {
		t.Fatalf("close clone: %v", err)
	}
}

func TestMVTempBackendDistinctOnIndexesIgnoresExtraColumns(t *testing.T) {
	b, err := NewMVTempBackend([]int{0})
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer b.Close()

	r1 := value.Row{value.IntValue(1), value.StringValue("sort-a")}
	r2 := value.Row{value.IntValue(1), value.StringValue("sort-b")}

	n, err := b.AddRow(r1)
	if err != nil || n != 1 {
		t.Fatalf("first add: n=%d err=%v", n, err)
	}
	// Same distinctness key (column 0), different trailing sort
	// column -- still a duplicate under distinct-on-indexes.
	n, err = b.AddRow(r2)
	if err != nil || n != 1 {
		t.Fatalf("second add should be a duplicate: n=%d err=%v", n, err)
	}
}

func TestSelectChoosesTempTableForWholeRowDistinctWithNoExtraColumns(t *testing.T) {
	backend, err := Select(Distinctness{
		Distinct:           true,
		WholeRow:           true,
		VisibleColumnCount: 2,
		TotalColumnCount:   2,
	}, false)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer backend.Close()
	if _, ok := backend.(*TempTableBackend); !ok {
		t.Fatalf("expected *TempTableBackend, got %T", backend)
	}
}

func TestSelectChoosesMVTempForIndexedDistinct(t *testing.T) {
	backend, err := Select(Distinctness{Distinct: true, WholeRow: false, Indexes: []int{0}}, false)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer backend.Close()
	if _, ok := backend.(*MVTempBackend); !ok {
		t.Fatalf("expected *MVTempBackend, got %T", backend)
	}
}

func TestSelectChoosesMVTempWhenExtraSortColumnsArePresent(t *testing.T) {
	backend, err := Select(Distinctness{
		Distinct:           true,
		WholeRow:           true,
		VisibleColumnCount: 1,
		TotalColumnCount:   2,
	}, false)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer backend.Close()
	if _, ok := backend.(*MVTempBackend); !ok {
		t.Fatalf("expected *MVTempBackend for a row with trailing sort-only columns, got %T", backend)
	}
}

func TestSelectAlwaysChoosesMVTempWhenSessionIsMVStoreCapable(t *testing.T) {
	backend, err := Select(Distinctness{Distinct: false}, true)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer backend.Close()
	if _, ok := backend.(*MVTempBackend); !ok {
		t.Fatalf("expected *MVTempBackend, got %T", backend)
	}
}
